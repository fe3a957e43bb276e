package diagnostic

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Sink receives the full diagnostic set for a document. Every Publish
// replaces whatever was published before for the same uri.
type Sink interface {
	Publish(ctx context.Context, uri string, version int32, diags []Diagnostic) error
	Clear(ctx context.Context, uri string) error
}

// Published is what a MemorySink holds for one uri.
type Published struct {
	Version     int32
	Diagnostics []Diagnostic
}

// MemorySink keeps the last published set per uri.
type MemorySink struct {
	mu   sync.RWMutex
	sets map[string]Published
}

func NewMemorySink() *MemorySink {
	return &MemorySink{sets: make(map[string]Published)}
}

func (s *MemorySink) Publish(ctx context.Context, uri string, version int32, diags []Diagnostic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[uri] = Published{Version: version, Diagnostics: slices.Clone(diags)}
	return nil
}

func (s *MemorySink) Clear(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, uri)
	return nil
}

// Get returns the last set published for uri.
func (s *MemorySink) Get(uri string) (Published, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sets[uri]
	return p, ok
}

// URIs returns every uri holding a set, sorted.
func (s *MemorySink) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.sets))
	for uri := range s.sets {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}

// Selector decides which documents are view templates.
type Selector struct {
	LanguageIDs []string
	Pattern     string
}

const DefaultPattern = "**/*.view.php"

func NewSelector(languageIDs []string, suffix string) *Selector {
	if len(languageIDs) == 0 {
		languageIDs = []string{"php"}
	}
	if suffix == "" {
		suffix = ".view.php"
	}
	return &Selector{LanguageIDs: languageIDs, Pattern: "**/*" + suffix}
}

// Matches reports whether a document with the given language id and path is
// a view template. An empty language id only checks the path.
func (s *Selector) Matches(languageID, path string) bool {
	if languageID != "" && !slices.Contains(s.LanguageIDs, languageID) {
		return false
	}
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// Document is a snapshot of an open document.
type Document struct {
	URI        string
	Path       string
	LanguageID string
	Version    int32
	Text       string
}

// CheckDocument checks doc and publishes the result to sink. Documents the
// selector does not match are left alone.
func CheckDocument(ctx context.Context, checker *Checker, selector *Selector, sink Sink, doc Document) error {
	if !selector.Matches(doc.LanguageID, doc.Path) {
		zerolog.Ctx(ctx).Trace().Str("uri", doc.URI).Str("language_id", doc.LanguageID).Msg("not a view document, skipping")
		return nil
	}

	diags := checker.Check(doc.Text)

	zerolog.Ctx(ctx).Debug().
		Str("uri", doc.URI).
		Int32("version", doc.Version).
		Int("count", len(diags)).
		Msg("publishing diagnostics")

	if err := sink.Publish(ctx, doc.URI, doc.Version, diags); err != nil {
		return errors.Errorf("publishing diagnostics for %s: %w", doc.URI, err)
	}
	return nil
}
