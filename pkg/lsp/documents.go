package lsp

import (
	"sync"

	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
	"github.com/walteh/viewphp-lsp/pkg/position"
)

// Document represents an open text document with its metadata
type Document struct {
	URI        string
	Path       string
	LanguageID string
	Version    int32
	Content    string

	lines *position.Document
}

func NewDocument(uri, languageID string, version int32, content string) *Document {
	return &Document{
		URI:        uri,
		Path:       uriToPath(uri),
		LanguageID: languageID,
		Version:    version,
		Content:    content,
		lines:      position.NewDocument(content),
	}
}

// Lines is the line index of the current content.
func (d *Document) Lines() *position.Document {
	return d.lines
}

// WithContent returns a copy of d holding new content at version.
func (d *Document) WithContent(version int32, content string) *Document {
	return NewDocument(d.URI, d.LanguageID, version, content)
}

func (d *Document) Snapshot() diagnostic.Document {
	return diagnostic.Document{
		URI:        d.URI,
		Path:       d.Path,
		LanguageID: d.LanguageID,
		Version:    d.Version,
		Text:       d.Content,
	}
}

// DocumentManager handles document operations
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri string) (*Document, bool) {
	content, ok := m.store.Load(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

func (m *DocumentManager) Store(doc *Document) {
	m.store.Store(normalizeURI(doc.URI), doc)
}

func (m *DocumentManager) Delete(uri string) {
	m.store.Delete(normalizeURI(uri))
}
