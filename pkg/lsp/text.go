package lsp

import (
	"github.com/walteh/viewphp-lsp/pkg/position"
)

// applyChanges folds content changes into text in order. Ranges are in UTF-16
// units; a change without a range replaces the whole text.
func applyChanges(text string, changes []TextDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		doc := position.NewDocument(text)
		start := doc.Offset(doc.FromUTF16Place(fromLSPPosition(change.Range.Start)))
		end := doc.Offset(doc.FromUTF16Place(fromLSPPosition(change.Range.End)))
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

func fromLSPPosition(p Position) position.Place {
	return position.Place{Line: p.Line, Character: p.Character}
}

func toLSPPosition(p position.Place) Position {
	return Position{Line: p.Line, Character: p.Character}
}

// toLSPRange converts a byte-column range of doc to UTF-16 units.
func toLSPRange(doc *position.Document, r position.Range) Range {
	u := doc.ToUTF16Range(r)
	return Range{Start: toLSPPosition(u.Start), End: toLSPPosition(u.End)}
}
