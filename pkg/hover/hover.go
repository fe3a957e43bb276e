// Package hover resolves the component tag under the cursor for hover
// popups and go-to-definition.
package hover

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/viewphp-lsp/pkg/component"
	"github.com/walteh/viewphp-lsp/pkg/position"
)

var tagWordRe = regexp.MustCompile(`c-[\w.\-]+`)

// HoverInfo represents the information to be displayed in a hover tooltip
type HoverInfo struct {
	// Content is markdown
	Content string
	// Range covers the tag name under the cursor
	Range position.Range
}

// Location is a file and the range inside it a definition points to.
type Location struct {
	Path  string
	Range position.Range
}

type Provider struct {
	resolver *component.Resolver
}

func NewProvider(resolver *component.Resolver) *Provider {
	return &Provider{resolver: resolver}
}

type target struct {
	tag  string
	path string
	rng  position.Range
}

func (p *Provider) resolve(ctx context.Context, doc *position.Document, at position.Place) (*target, bool) {
	if p.resolver == nil || p.resolver.Root() == "" {
		return nil, false
	}

	tag, start, end, ok := position.WordAt(doc.Line(at.Line), at.Character, tagWordRe)
	if !ok {
		return nil, false
	}

	path, ok := p.resolver.Lookup(ctx, tag)
	if !ok {
		zerolog.Ctx(ctx).Trace().Str("tag", tag).Msg("no component file for tag")
		return nil, false
	}

	return &target{tag: tag, path: path, rng: position.LineRange(at.Line, start, end)}, true
}

// Hover returns nil when the cursor is not on a component tag that resolves
// to an existing file.
func (p *Provider) Hover(ctx context.Context, doc *position.Document, at position.Place) *HoverInfo {
	t, ok := p.resolve(ctx, doc, at)
	if !ok {
		return nil
	}
	return &HoverInfo{
		Content: FormatHover(p.resolver.Rel(t.path)),
		Range:   t.rng,
	}
}

// Definition returns the start of the component file under the cursor.
func (p *Provider) Definition(ctx context.Context, doc *position.Document, at position.Place) *Location {
	t, ok := p.resolve(ctx, doc, at)
	if !ok {
		return nil
	}
	return &Location{Path: t.path, Range: position.LineRange(0, 0, 0)}
}

// FormatHover renders the hover markdown for a component at rel.
func FormatHover(rel string) string {
	var sb strings.Builder
	sb.WriteString("```plaintext\n")
	sb.WriteString(fmt.Sprintf("Component: %s\n", rel))
	sb.WriteString("```\n\n")
	sb.WriteString("[Open definition](command:editor.action.revealDefinition)")
	return sb.String()
}
