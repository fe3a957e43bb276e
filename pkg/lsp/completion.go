package lsp

import (
	"context"

	"github.com/walteh/viewphp-lsp/pkg/completion"
)

var completionKinds = map[completion.ItemKind]CompletionItemKind{
	completion.KindFolder:  CompletionItemFolder,
	completion.KindFile:    CompletionItemFile,
	completion.KindSnippet: CompletionItemSnippet,
}

func (s *Server) Completion(ctx context.Context, params *CompletionParams) ([]CompletionItem, error) {
	doc, ok := s.viewDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	provider := s.completion
	s.mu.RUnlock()

	lines := doc.Lines()
	c := completion.NewContext(lines, lines.FromUTF16Place(fromLSPPosition(params.Position)))

	items := provider.Complete(ctx, c)
	out := make([]CompletionItem, 0, len(items))
	for _, it := range items {
		item := CompletionItem{
			Label:            it.Label,
			Kind:             completionKinds[it.Kind],
			Detail:           it.Detail,
			InsertText:       it.InsertText,
			InsertTextFormat: InsertTextFormatPlainText,
		}
		if it.Snippet {
			item.InsertTextFormat = InsertTextFormatSnippet
		}
		if it.Range != nil {
			item.TextEdit = &TextEdit{Range: toLSPRange(lines, *it.Range), NewText: it.InsertText}
		}
		out = append(out, item)
	}
	return out, nil
}
