// Package component maps <c-NAME> tags to template files under the
// project's components directory.
package component

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/viewphp-lsp/pkg/config"
	"gitlab.com/tozd/go/errors"
)

const TagPrefix = "c-"

type EntryKind int

const (
	EntryFolder EntryKind = iota
	EntryFile
)

// Entry is one completion candidate found while listing a directory.
type Entry struct {
	Label  string
	Kind   EntryKind
	Detail string
}

type Resolver struct {
	fs     afero.Fs
	root   string
	dir    string
	suffix string
}

func NewResolver(afs afero.Fs, root string, cfg *config.Config) *Resolver {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Resolver{
		fs:     afs,
		root:   root,
		dir:    filepath.FromSlash(cfg.ComponentsDir),
		suffix: cfg.ViewSuffix,
	}
}

func (r *Resolver) Root() string {
	return r.root
}

// Dir is the absolute components directory, or empty without a root.
func (r *Resolver) Dir() string {
	if r.root == "" {
		return ""
	}
	return filepath.Join(r.root, r.dir)
}

// PathFor returns the file a tag refers to. Both dots and hyphens in the name
// are directory separators.
func (r *Resolver) PathFor(tag string) string {
	name := strings.TrimPrefix(tag, TagPrefix)
	name = strings.NewReplacer(".", string(filepath.Separator), "-", string(filepath.Separator)).Replace(name)
	return filepath.Join(r.root, r.dir, name+r.suffix)
}

// Lookup resolves tag and reports whether the file exists.
func (r *Resolver) Lookup(ctx context.Context, tag string) (string, bool) {
	if r.root == "" {
		return "", false
	}
	path := r.PathFor(tag)
	ok, err := afero.Exists(r.fs, path)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("checking component file")
		return "", false
	}
	return path, ok
}

// Rel returns path relative to the workspace root.
func (r *Resolver) Rel(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return rel
}

// TagFor is the inverse of PathFor. Nested directories are joined with dots.
func (r *Resolver) TagFor(path string) (string, bool) {
	rel, err := filepath.Rel(r.Dir(), path)
	if err != nil || strings.HasPrefix(rel, "..") || !strings.HasSuffix(rel, r.suffix) {
		return "", false
	}
	rel = strings.TrimSuffix(rel, r.suffix)
	return TagPrefix + strings.ReplaceAll(filepath.ToSlash(rel), "/", "."), true
}

// List returns the completion entries for a partially typed component name
// such as "nav.b". The parent directory of the last segment is listed; when
// it is missing the components root is listed instead.
func (r *Resolver) List(ctx context.Context, typed string) []Entry {
	base := r.Dir()
	if base == "" {
		return nil
	}

	var parts []string
	for _, p := range strings.Split(typed, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	dir := base
	if len(parts) > 1 {
		dir = filepath.Join(append([]string{base}, parts[:len(parts)-1]...)...)
	}

	if ok, _ := afero.DirExists(r.fs, dir); !ok {
		if ok, _ := afero.DirExists(r.fs, base); !ok {
			return nil
		}
		dir = base
	}

	entries, err := r.list(dir)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("dir", dir).Msg("listing components")
		return []Entry{}
	}
	return entries
}

func (r *Resolver) list(dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		switch {
		case info.IsDir():
			entries = append(entries, Entry{Label: name, Kind: EntryFolder, Detail: "component folder"})
		case strings.HasSuffix(name, r.suffix):
			entries = append(entries, Entry{Label: strings.TrimSuffix(name, r.suffix), Kind: EntryFile, Detail: "component file"})
		case strings.HasSuffix(name, ".php"):
			entries = append(entries, Entry{Label: strings.TrimSuffix(name, ".php"), Kind: EntryFile, Detail: "component file"})
		}
	}
	return entries, nil
}

// Component is a template file found under the components directory.
type Component struct {
	Tag  string
	Path string
}

// Glob returns every component whose path relative to the components
// directory matches pattern, sorted by tag.
func (r *Resolver) Glob(ctx context.Context, pattern string) ([]Component, error) {
	base := r.Dir()
	if base == "" {
		return nil, nil
	}
	if pattern == "" {
		pattern = "**/*" + r.suffix
	}

	if ok, _ := afero.DirExists(r.fs, base); !ok {
		return nil, nil
	}

	var found []Component
	err := afero.Walk(r.fs, base, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return errors.Errorf("matching %q: %w", pattern, err)
		}
		if !ok {
			return nil
		}
		if tag, ok := r.TagFor(path); ok {
			found = append(found, Component{Tag: tag, Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking components: %w", err)
	}

	zerolog.Ctx(ctx).Trace().Int("count", len(found)).Str("pattern", pattern).Msg("globbed components")

	sort.Slice(found, func(i, j int) bool { return found[i].Tag < found[j].Tag })
	return found, nil
}
