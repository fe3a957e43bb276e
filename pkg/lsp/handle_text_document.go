package lsp

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
	"gitlab.com/tozd/go/errors"
)

func (s *Server) DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error {
	item := params.TextDocument
	doc := NewDocument(item.URI, item.LanguageID, item.Version, item.Text)
	s.documents.Store(doc)

	zerolog.Ctx(ctx).Debug().Str("uri", doc.URI).Str("language_id", doc.LanguageID).Msg("document opened")

	return s.validateDocument(ctx, doc)
}

func (s *Server) DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}

	doc = doc.WithContent(params.TextDocument.Version, applyChanges(doc.Content, params.ContentChanges))
	s.documents.Store(doc)

	return s.validateDocument(ctx, doc)
}

func (s *Server) DidSave(ctx context.Context, params *DidSaveTextDocumentParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}

	if params.Text != nil {
		doc = doc.WithContent(doc.Version, *params.Text)
		s.documents.Store(doc)
	}

	return s.validateDocument(ctx, doc)
}

func (s *Server) DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.documents.Delete(uri)

	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()

	if sink == nil {
		return nil
	}
	if err := sink.Clear(ctx, uri); err != nil {
		return errors.Errorf("clearing diagnostics for %s: %w", uri, err)
	}
	return nil
}

// validateDocument runs the balance checker over doc and publishes the
// result. Documents that are not view templates are skipped.
func (s *Server) validateDocument(ctx context.Context, doc *Document) error {
	s.mu.RLock()
	checker, selector, sink := s.checker, s.selector, s.sink
	s.mu.RUnlock()

	if sink == nil {
		return nil
	}

	if err := diagnostic.CheckDocument(ctx, checker, selector, sink, doc.Snapshot()); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("uri", doc.URI).Msg("validating document")
		return err
	}
	return nil
}

// viewDocument returns the open document at uri when it is a view template.
func (s *Server) viewDocument(uri string) (*Document, bool) {
	doc, ok := s.documents.Get(uri)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	selector := s.selector
	s.mu.RUnlock()

	if !selector.Matches(doc.LanguageID, doc.Path) {
		return nil, false
	}
	return doc, true
}
