// Package completion offers component names and directive snippets while a
// view template is being edited.
package completion

import (
	"context"
	"regexp"

	"github.com/walteh/viewphp-lsp/pkg/component"
	"github.com/walteh/viewphp-lsp/pkg/position"
)

type ItemKind int

const (
	KindFolder ItemKind = iota
	KindFile
	KindSnippet
)

// Item represents a single completion suggestion. Range is only set when the
// item replaces text around the cursor.
type Item struct {
	Label      string
	Kind       ItemKind
	Detail     string
	InsertText string
	Snippet    bool
	Range      *position.Range
}

// TriggerCharacters are the characters that open a completion request.
var TriggerCharacters = []string{".", "-", "<", "@", "{"}

var typedComponentRe = regexp.MustCompile(`<c-([\w.\-]*)$`)

// Context holds information about the completion request: the cursor line
// and the byte column of the cursor in it.
type Context struct {
	Line      int
	Text      string
	Character int
}

func NewContext(doc *position.Document, at position.Place) *Context {
	text := doc.Line(at.Line)
	return &Context{
		Line:      at.Line,
		Text:      text,
		Character: min(max(at.Character, 0), len(text)),
	}
}

// Prefix is the part of the line before the cursor.
func (c *Context) Prefix() string {
	return c.Text[:c.Character]
}

// TypedComponent returns the partial component name right before the cursor,
// such as "nav.b" for "<c-nav.b|".
func (c *Context) TypedComponent() (string, bool) {
	m := typedComponentRe.FindStringSubmatch(c.Prefix())
	if m == nil {
		return "", false
	}
	return m[1], true
}

type Provider struct {
	resolver *component.Resolver
}

func NewProvider(resolver *component.Resolver) *Provider {
	return &Provider{resolver: resolver}
}

// Components lists the components matching the partially typed tag before
// the cursor. Nil means the cursor is not in a component tag or there is no
// workspace.
func (p *Provider) Components(ctx context.Context, c *Context) []Item {
	typed, ok := c.TypedComponent()
	if !ok || p.resolver == nil || p.resolver.Root() == "" {
		return nil
	}

	entries := p.resolver.List(ctx, typed)
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		item := Item{Label: e.Label, Detail: e.Detail, Kind: KindFolder}
		if e.Kind == component.EntryFile {
			item.Kind = KindFile
			item.InsertText = e.Label
		}
		items = append(items, item)
	}
	return items
}

// Complete merges component suggestions with the directive snippets.
func (p *Provider) Complete(ctx context.Context, c *Context) []Item {
	items := p.Components(ctx, c)
	return append(items, Snippets(c)...)
}
