package lsp

import (
	"context"

	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
	"gitlab.com/tozd/go/errors"
)

// DiagnosticSink publishes diagnostic sets to the client with
// textDocument/publishDiagnostics. Columns are converted to UTF-16 against
// the stored document.
type DiagnosticSink struct {
	notify    Notifier
	documents *DocumentManager
}

var _ diagnostic.Sink = (*DiagnosticSink)(nil)

func NewDiagnosticSink(notify Notifier, documents *DocumentManager) *DiagnosticSink {
	return &DiagnosticSink{notify: notify, documents: documents}
}

func (s *DiagnosticSink) Publish(ctx context.Context, uri string, version int32, diags []diagnostic.Diagnostic) error {
	out := make([]Diagnostic, 0, len(diags))

	doc, ok := s.documents.Get(uri)
	for _, d := range diags {
		rng := Range{Start: toLSPPosition(d.Range.Start), End: toLSPPosition(d.Range.End)}
		if ok {
			rng = toLSPRange(doc.Lines(), d.Range)
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: DiagnosticSeverity(d.Severity.LSP()),
			Code:     string(d.Code),
			Source:   diagnostic.Source,
			Message:  d.Message,
		})
	}

	return s.send(ctx, PublishDiagnosticsParams{URI: uri, Version: &version, Diagnostics: out})
}

// Clear replaces the diagnostics of uri with an empty set.
func (s *DiagnosticSink) Clear(ctx context.Context, uri string) error {
	return s.send(ctx, PublishDiagnosticsParams{URI: uri, Diagnostics: []Diagnostic{}})
}

func (s *DiagnosticSink) send(ctx context.Context, params PublishDiagnosticsParams) error {
	if err := s.notify.Notify(ctx, "textDocument/publishDiagnostics", params); err != nil {
		return errors.Errorf("sending diagnostics: %w", err)
	}
	return nil
}
