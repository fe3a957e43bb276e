package lsp

import (
	"context"
	"io"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/viewphp-lsp/pkg/completion"
	"github.com/walteh/viewphp-lsp/pkg/component"
	"github.com/walteh/viewphp-lsp/pkg/config"
	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
	"github.com/walteh/viewphp-lsp/pkg/directive"
	"github.com/walteh/viewphp-lsp/pkg/hover"
	"gitlab.com/tozd/go/errors"
)

type Options struct {
	// Fs backs config loading and component lookups. Defaults to the OS.
	Fs afero.Fs
	// Debug lowers the level of the logs mirrored to the client.
	Debug bool
	// RPCLog, when set, sees every request and response.
	RPCLog jrpc2.RPCLogger
	// Version is reported in serverInfo.
	Version string
}

// Server represents an LSP server instance
type Server struct {
	id        string
	opts      Options
	fs        afero.Fs
	documents *DocumentManager

	mu         sync.RWMutex
	workspace  string
	config     *config.Config
	checker    *diagnostic.Checker
	selector   *diagnostic.Selector
	resolver   *component.Resolver
	completion *completion.Provider
	hover      *hover.Provider
	sink       diagnostic.Sink

	initialized bool
	shutdown    bool
}

func NewServer(ctx context.Context, opts Options) *Server {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	s := &Server{
		id:        xid.New().String(),
		opts:      opts,
		fs:        opts.Fs,
		documents: NewDocumentManager(),
	}
	s.configure("", config.Default())
	return s
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

func (s *Server) Workspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

// configure rebuilds every provider for a workspace root. An empty root
// keeps diagnostics working and turns the file based providers off.
func (s *Server) configure(root string, cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspace = root
	s.config = cfg
	s.checker = &diagnostic.Checker{
		Tokenizer:      directive.NewRegexpTokenizer(),
		UnclosedWindow: cfg.UnclosedWindow,
	}
	s.selector = diagnostic.NewSelector(cfg.LanguageIDs, cfg.ViewSuffix)
	s.resolver = component.NewResolver(s.fs, root, cfg)
	s.completion = completion.NewProvider(s.resolver)
	s.hover = hover.NewProvider(s.resolver)
}

func (s *Server) Methods() handler.Map {
	return handler.Map{
		"initialize":                createHandler(s.Initialize),
		"initialized":               createEmptyResultHandler(s.Initialized),
		"shutdown":                  createEmptyHandler(s.Shutdown),
		"exit":                      createEmptyHandler(s.Exit),
		"$/cancelRequest":           createEmptyHandler(noop),
		"$/setTrace":                createEmptyHandler(noop),
		"textDocument/didOpen":      createEmptyResultHandler(s.DidOpen),
		"textDocument/didChange":    createEmptyResultHandler(s.DidChange),
		"textDocument/didSave":      createEmptyResultHandler(s.DidSave),
		"textDocument/didClose":     createEmptyResultHandler(s.DidClose),
		"textDocument/completion":   createHandler(s.Completion),
		"textDocument/hover":        createHandler(s.Hover),
		"textDocument/definition":   createHandler(s.Definition),
		"textDocument/foldingRange": createHandler(s.FoldingRange),
		"workspace/symbol":          createHandler(s.WorkspaceSymbol),
	}
}

func noop(ctx context.Context) error {
	return nil
}

// Start serves the protocol over r and w with LSP header framing. Handlers
// run one at a time, in the order the client sent them.
func (s *Server) Start(ctx context.Context, r io.Reader, w io.WriteCloser) *jrpc2.Server {
	level := zerolog.InfoLevel
	if s.opts.Debug {
		level = zerolog.DebugLevel
	}

	var srv *jrpc2.Server

	opts := &jrpc2.ServerOptions{
		AllowPush:   true,
		Concurrency: 1,
		RPCLog:      s.opts.RPCLog,
		NewContext: func() context.Context {
			return ApplyLSPWriter(ctx, srv, level)
		},
	}

	srv = jrpc2.NewServer(s.Methods(), opts)

	s.mu.Lock()
	s.sink = NewDiagnosticSink(srv, s.documents)
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("server_id", s.id).Msg("starting language server")

	return srv.Start(channel.LSP(r, w))
}

// Run serves until the client exits or the connection closes.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.WriteCloser) error {
	status := s.Start(ctx, r, w).WaitStatus()
	if !status.Success() {
		return errors.Errorf("language server stopped: %w", status.Err)
	}
	return nil
}

func (s *Server) Initialized(ctx context.Context, params *InitializedParams) error {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("workspace", s.Workspace()).Msg("client initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Msg("shutdown requested")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	if srv := jrpc2.ServerFromContext(ctx); srv != nil {
		// the exit notification is still being handled; stop once it returns
		go srv.Stop()
	}
	return nil
}
