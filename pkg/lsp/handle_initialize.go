package lsp

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/viewphp-lsp/pkg/completion"
	"github.com/walteh/viewphp-lsp/pkg/config"
)

// workspaceRoot picks the first workspace folder, then rootUri, then the
// deprecated rootPath.
func workspaceRoot(params *InitializeParams) string {
	if len(params.WorkspaceFolders) > 0 {
		if path := uriToPath(params.WorkspaceFolders[0].URI); path != "" {
			return path
		}
	}
	if path := uriToPath(params.RootURI); path != "" {
		return path
	}
	if params.RootPath != "" {
		return filepath.Clean(params.RootPath)
	}
	return ""
}

func (s *Server) Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	root := workspaceRoot(params)
	cfg := config.LoadOrDefault(ctx, s.fs, root)
	s.configure(root, cfg)

	logger.Debug().
		Str("workspace", root).
		Str("components_dir", cfg.ComponentsDir).
		Strs("language_ids", cfg.LanguageIDs).
		Msg("initializing server")

	return &InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: TextDocumentSyncOptions{
				OpenClose: true,
				Change:    SyncIncremental,
				Save:      &SaveOptions{IncludeText: true},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: completion.TriggerCharacters,
			},
			FoldingRangeProvider:    true,
			WorkspaceSymbolProvider: true,
		},
		ServerInfo: &ServerInfo{
			Name:    "viewphp-lsp",
			Version: s.opts.Version,
		},
	}, nil
}
