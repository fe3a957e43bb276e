package lsp

import (
	"context"
	"sort"
	"strings"

	"github.com/walteh/viewphp-lsp/pkg/scanner"
	"gitlab.com/tozd/go/errors"
)

// FoldingRange folds balanced directive blocks, leaving the closing line
// visible, and comments spanning several lines.
func (s *Server) FoldingRange(ctx context.Context, params *FoldingRangeParams) ([]FoldingRange, error) {
	doc, ok := s.viewDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	checker := s.checker
	s.mu.RUnlock()

	ranges := make([]FoldingRange, 0)

	for _, b := range checker.Analyze(doc.Content).Blocks {
		start, end := b.Open.Start.Line, b.Close.Start.Line-1
		if end > start {
			ranges = append(ranges, FoldingRange{StartLine: start, EndLine: end, Kind: "region"})
		}
	}

	lines := doc.Lines()
	for _, span := range scanner.Spans(doc.Content) {
		start, end := lines.PlaceAt(span.Start).Line, lines.PlaceAt(span.End).Line
		if end > start {
			ranges = append(ranges, FoldingRange{StartLine: start, EndLine: end, Kind: "comment"})
		}
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].StartLine != ranges[j].StartLine {
			return ranges[i].StartLine < ranges[j].StartLine
		}
		return ranges[i].EndLine > ranges[j].EndLine
	})

	return ranges, nil
}

// WorkspaceSymbol lists every component whose tag contains the query.
func (s *Server) WorkspaceSymbol(ctx context.Context, params *WorkspaceSymbolParams) ([]SymbolInformation, error) {
	s.mu.RLock()
	resolver := s.resolver
	s.mu.RUnlock()

	components, err := resolver.Glob(ctx, "")
	if err != nil {
		return nil, errors.Errorf("listing components: %w", err)
	}

	query := strings.ToLower(params.Query)
	symbols := make([]SymbolInformation, 0, len(components))
	for _, c := range components {
		if query != "" && !strings.Contains(strings.ToLower(c.Tag), query) {
			continue
		}
		symbols = append(symbols, SymbolInformation{
			Name:          c.Tag,
			Kind:          SymbolKindFile,
			Location:      Location{URI: pathToURI(c.Path)},
			ContainerName: resolver.Rel(c.Path),
		})
	}
	return symbols, nil
}
