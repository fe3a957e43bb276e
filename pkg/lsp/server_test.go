package lsp_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/viewphp-lsp/pkg/lsp"
)

const (
	rootURI = "file:///ws"
	viewURI = "file:///ws/resources/views/home.view.php"
)

type harness struct {
	t      *testing.T
	ctx    context.Context
	client *jrpc2.Client
	server *jrpc2.Server
	diags  chan lsp.PublishDiagnosticsParams
}

func newHarness(t *testing.T, fs afero.Fs) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	srv := lsp.NewServer(ctx, lsp.Options{Fs: fs, Version: "test"})
	server := srv.Start(ctx, serverReader, serverWriter)

	diags := make(chan lsp.PublishDiagnosticsParams, 32)
	client := jrpc2.NewClient(channel.LSP(clientReader, clientWriter), &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) {
			if req.Method() != "textDocument/publishDiagnostics" {
				return
			}
			var params lsp.PublishDiagnosticsParams
			if err := req.UnmarshalParams(&params); err == nil {
				diags <- params
			}
		},
	})

	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return &harness{t: t, ctx: ctx, client: client, server: server, diags: diags}
}

func (h *harness) initialize(params lsp.InitializeParams) lsp.InitializeResult {
	h.t.Helper()
	var result lsp.InitializeResult
	require.NoError(h.t, h.client.CallResult(h.ctx, "initialize", params, &result))
	require.NoError(h.t, h.client.Notify(h.ctx, "initialized", lsp.InitializedParams{}))
	return result
}

func (h *harness) open(uri, languageID, text string) {
	h.t.Helper()
	require.NoError(h.t, h.client.Notify(h.ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, LanguageID: languageID, Version: 1, Text: text},
	}))
}

func (h *harness) nextDiagnostics() lsp.PublishDiagnosticsParams {
	h.t.Helper()
	select {
	case d := <-h.diags:
		return d
	case <-h.ctx.Done():
		h.t.Fatal("timed out waiting for diagnostics")
		return lsp.PublishDiagnosticsParams{}
	}
}

func newWorkspace(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/resources/views/components/row.view.php", []byte("<tr></tr>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ws/resources/views/components/nav/item.view.php", []byte("<li></li>"), 0o644))
	return fs
}

func position(line, char int) lsp.Position {
	return lsp.Position{Line: line, Character: char}
}

func lspRange(line, start, end int) lsp.Range {
	return lsp.Range{Start: position(line, start), End: position(line, end)}
}

func TestInitialize(t *testing.T) {
	h := newHarness(t, newWorkspace(t))

	result := h.initialize(lsp.InitializeParams{RootURI: rootURI})

	caps := result.Capabilities
	assert.Equal(t, lsp.SyncIncremental, caps.TextDocumentSync.Change)
	assert.True(t, caps.TextDocumentSync.OpenClose)
	assert.True(t, caps.HoverProvider)
	assert.True(t, caps.DefinitionProvider)
	assert.True(t, caps.FoldingRangeProvider)
	assert.True(t, caps.WorkspaceSymbolProvider)
	require.NotNil(t, caps.CompletionProvider)
	assert.Equal(t, []string{".", "-", "<", "@", "{"}, caps.CompletionProvider.TriggerCharacters)
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "viewphp-lsp", result.ServerInfo.Name)
}

func TestDiagnosticsLifecycle(t *testing.T) {
	h := newHarness(t, newWorkspace(t))
	h.initialize(lsp.InitializeParams{RootURI: rootURI})

	// not a view template: never published
	h.open("file:///ws/index.php", "php", "@endif")

	h.open(viewURI, "php", "@if (x)\n  <c-row>\n@endif\n</c-row>")

	got := h.nextDiagnostics()
	require.Equal(t, viewURI, got.URI)
	require.NotNil(t, got.Version)
	assert.Equal(t, int32(1), *got.Version)
	assert.Equal(t, []lsp.Diagnostic{
		{
			Range:    lspRange(1, 2, 9),
			Severity: lsp.SeverityWarning,
			Code:     "unclosed-tag",
			Source:   "viewphp",
			Message:  "unclosed component <c-row>",
		},
		{
			Range:    lspRange(3, 0, 8),
			Severity: lsp.SeverityWarning,
			Code:     "unmatched-tag",
			Source:   "viewphp",
			Message:  "unmatched closing component </c-row>",
		},
	}, got.Diagnostics)

	// move the closing tag inside the block with an incremental edit
	require.NoError(t, h.client.Notify(h.ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{URI: viewURI, Version: 2},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{
			{Range: &lsp.Range{Start: position(1, 9), End: position(1, 9)}, Text: "</c-row>"},
			{Range: &lsp.Range{Start: position(3, 0), End: position(3, 8)}, Text: ""},
		},
	}))

	got = h.nextDiagnostics()
	assert.Equal(t, int32(2), *got.Version)
	assert.Empty(t, got.Diagnostics)

	// full replacement
	require.NoError(t, h.client.Notify(h.ctx, "textDocument/didChange", lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{URI: viewURI, Version: 3},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: "@foreach ($a as $b)"}},
	}))

	got = h.nextDiagnostics()
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, "unclosed @foreach block", got.Diagnostics[0].Message)
	assert.Equal(t, lsp.SeverityWarning, got.Diagnostics[0].Severity)

	require.NoError(t, h.client.Notify(h.ctx, "textDocument/didClose", lsp.DidCloseTextDocumentParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
	}))

	got = h.nextDiagnostics()
	assert.Equal(t, viewURI, got.URI)
	assert.NotNil(t, got.Diagnostics)
	assert.Empty(t, got.Diagnostics)
}

func TestDiagnosticsUseUTF16Columns(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	h.initialize(lsp.InitializeParams{})

	h.open(viewURI, "php", "😀<c-x>")

	got := h.nextDiagnostics()
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, lspRange(0, 2, 7), got.Diagnostics[0].Range)
}

func TestHoverAndDefinition(t *testing.T) {
	h := newHarness(t, newWorkspace(t))
	h.initialize(lsp.InitializeParams{
		WorkspaceFolders: []lsp.WorkspaceFolder{{URI: rootURI, Name: "ws"}},
	})
	h.open(viewURI, "php", "<ul>\n  <c-nav.item />\n</ul>")
	h.nextDiagnostics()

	var hover *lsp.Hover
	require.NoError(t, h.client.CallResult(h.ctx, "textDocument/hover", lsp.HoverParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
			Position:     position(1, 5),
		},
	}, &hover))
	require.NotNil(t, hover)
	assert.Equal(t, "markdown", hover.Contents.Kind)
	assert.Contains(t, hover.Contents.Value, "Component: resources/views/components/nav/item.view.php")
	assert.Contains(t, hover.Contents.Value, "[Open definition](command:editor.action.revealDefinition)")
	assert.Equal(t, lspRange(1, 3, 13), *hover.Range)

	var loc *lsp.Location
	require.NoError(t, h.client.CallResult(h.ctx, "textDocument/definition", lsp.DefinitionParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
			Position:     position(1, 5),
		},
	}, &loc))
	require.NotNil(t, loc)
	assert.Equal(t, "file:///ws/resources/views/components/nav/item.view.php", loc.URI)
	assert.Equal(t, lspRange(0, 0, 0), loc.Range)

	// off the tag
	hover = nil
	require.NoError(t, h.client.CallResult(h.ctx, "textDocument/hover", lsp.HoverParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
			Position:     position(0, 1),
		},
	}, &hover))
	assert.Nil(t, hover)
}

func TestCompletion(t *testing.T) {
	h := newHarness(t, newWorkspace(t))
	h.initialize(lsp.InitializeParams{RootURI: rootURI})
	h.open(viewURI, "php", "<div>\n  <c-\n  @if\n</div>")
	h.nextDiagnostics()

	complete := func(line, char int) map[string]lsp.CompletionItem {
		var items []lsp.CompletionItem
		require.NoError(t, h.client.CallResult(h.ctx, "textDocument/completion", lsp.CompletionParams{
			TextDocumentPositionParams: lsp.TextDocumentPositionParams{
				TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
				Position:     position(line, char),
			},
		}, &items))
		byLabel := make(map[string]lsp.CompletionItem, len(items))
		for _, it := range items {
			byLabel[it.Label] = it
		}
		return byLabel
	}

	items := complete(1, 5)
	require.Contains(t, items, "row")
	require.Contains(t, items, "nav")
	assert.Equal(t, lsp.CompletionItemFile, items["row"].Kind)
	assert.Equal(t, lsp.CompletionItemFolder, items["nav"].Kind)
	assert.Equal(t, "component folder", items["nav"].Detail)

	items = complete(2, 5)
	assert.NotContains(t, items, "row")
	require.Contains(t, items, "if")
	ifItem := items["if"]
	assert.Equal(t, lsp.CompletionItemSnippet, ifItem.Kind)
	assert.Equal(t, lsp.InsertTextFormatSnippet, ifItem.InsertTextFormat)
	require.NotNil(t, ifItem.TextEdit)
	assert.Equal(t, lspRange(2, 2, 5), ifItem.TextEdit.Range)
	assert.Equal(t, "@if (${1:condition})\n\t$0\n@endif", ifItem.TextEdit.NewText)
}

func TestFoldingAndSymbols(t *testing.T) {
	h := newHarness(t, newWorkspace(t))
	h.initialize(lsp.InitializeParams{RootPath: "/ws"})
	h.open(viewURI, "php", "@if (x)\n  a\n  b\n@endif\n{{--\nnote\n--}}")
	h.nextDiagnostics()

	var folds []lsp.FoldingRange
	require.NoError(t, h.client.CallResult(h.ctx, "textDocument/foldingRange", lsp.FoldingRangeParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
	}, &folds))
	assert.Equal(t, []lsp.FoldingRange{
		{StartLine: 0, EndLine: 2, Kind: "region"},
		{StartLine: 4, EndLine: 6, Kind: "comment"},
	}, folds)

	var symbols []lsp.SymbolInformation
	require.NoError(t, h.client.CallResult(h.ctx, "workspace/symbol", lsp.WorkspaceSymbolParams{Query: "NAV"}, &symbols))
	require.Len(t, symbols, 1)
	assert.Equal(t, "c-nav.item", symbols[0].Name)
	assert.Equal(t, lsp.SymbolKindFile, symbols[0].Kind)
	assert.Equal(t, "file:///ws/resources/views/components/nav/item.view.php", symbols[0].Location.URI)
}

func TestNoWorkspaceDisablesFileProviders(t *testing.T) {
	h := newHarness(t, newWorkspace(t))
	h.initialize(lsp.InitializeParams{})
	h.open(viewURI, "php", "<c-row />")

	got := h.nextDiagnostics()
	assert.Empty(t, got.Diagnostics)

	var hover *lsp.Hover
	require.NoError(t, h.client.CallResult(h.ctx, "textDocument/hover", lsp.HoverParams{
		TextDocumentPositionParams: lsp.TextDocumentPositionParams{
			TextDocument: lsp.TextDocumentIdentifier{URI: viewURI},
			Position:     position(0, 3),
		},
	}, &hover))
	assert.Nil(t, hover)
}

func TestProjectConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/.viewphp.hcl", []byte(`
language_ids    = ["blade"]
unclosed_window = 3
`), 0o644))

	h := newHarness(t, fs)
	h.initialize(lsp.InitializeParams{RootURI: rootURI})

	h.open(viewURI, "php", "@endif")
	h.open(viewURI, "blade", "<c-panel>")

	got := h.nextDiagnostics()
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, lspRange(0, 0, 3), got.Diagnostics[0].Range)
}

func TestMalformedParams(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())

	_, err := h.client.Call(h.ctx, "textDocument/hover", []int{1, 2})
	require.Error(t, err)

	var rpcErr *jrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.EqualValues(t, -32700, rpcErr.Code)
}

func TestShutdownAndExit(t *testing.T) {
	h := newHarness(t, afero.NewMemMapFs())
	h.initialize(lsp.InitializeParams{})

	_, err := h.client.Call(h.ctx, "shutdown", nil)
	require.NoError(t, err)
	require.NoError(t, h.client.Notify(h.ctx, "exit", nil))

	done := make(chan struct{})
	go func() {
		h.server.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-h.ctx.Done():
		t.Fatal("server did not stop after exit")
	}
}
