package lsp

import (
	"context"

	"github.com/rs/zerolog"
)

func (s *Server) Hover(ctx context.Context, params *HoverParams) (*Hover, error) {
	doc, ok := s.viewDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	provider := s.hover
	s.mu.RUnlock()

	lines := doc.Lines()
	at := lines.FromUTF16Place(fromLSPPosition(params.Position))

	info := provider.Hover(ctx, lines, at)
	if info == nil {
		zerolog.Ctx(ctx).Trace().Str("at", at.String()).Msg("nothing to hover")
		return nil, nil
	}

	rng := toLSPRange(lines, info.Range)
	return &Hover{
		Contents: MarkupContent{Kind: "markdown", Value: info.Content},
		Range:    &rng,
	}, nil
}

func (s *Server) Definition(ctx context.Context, params *DefinitionParams) (*Location, error) {
	doc, ok := s.viewDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	provider := s.hover
	s.mu.RUnlock()

	lines := doc.Lines()
	loc := provider.Definition(ctx, lines, lines.FromUTF16Place(fromLSPPosition(params.Position)))
	if loc == nil {
		return nil, nil
	}

	return &Location{
		URI:   pathToURI(loc.Path),
		Range: Range{Start: toLSPPosition(loc.Range.Start), End: toLSPPosition(loc.Range.End)},
	}, nil
}

