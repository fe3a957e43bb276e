package lsp

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Language server protocol messages, see
// https://microsoft.github.io/language-server-protocol/specifications/specification-current/
// Only the parts this server speaks are modelled.

// MessageType represents the type of a message
type MessageType int

const (
	Error      MessageType = 1
	Warning    MessageType = 2
	Info       MessageType = 3
	Debug      MessageType = 4
	Trace      MessageType = 5
	Dependency MessageType = 6
	Unknown    MessageType = 7
)

func (mt MessageType) String() string {
	switch mt {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	case Dependency:
		return "dependency"
	default:
		return "unknown"
	}
}

// LogMessageParams represents the parameters for a window/logMessage notification
type LogMessageParams struct {
	Type    MessageType    `json:"type"`
	Message string         `json:"message"`
	Source  string         `json:"source,omitempty"`
	Raw     string         `json:"raw,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
	Time    string         `json:"time,omitempty"`
}

func ParseMessageTypeFromZerolog(level string) MessageType {
	zlgLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return Unknown
	}
	switch zlgLevel {
	case zerolog.InfoLevel:
		return Info
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return Error
	case zerolog.WarnLevel:
		return Warning
	case zerolog.DebugLevel:
		return Debug
	case zerolog.TraceLevel:
		return Trace
	default:
		return Unknown
	}
}

// DiagnosticSeverity represents the severity of a diagnostic
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

type InitializeParams struct {
	ProcessID             *int              `json:"processId,omitempty"`
	RootURI               string            `json:"rootUri,omitempty"`
	RootPath              string            `json:"rootPath,omitempty"`
	WorkspaceFolders      []WorkspaceFolder `json:"workspaceFolders,omitempty"`
	Capabilities          json.RawMessage   `json:"capabilities,omitempty"`
	InitializationOptions any               `json:"initializationOptions,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

type InitializedParams struct{}

// TextDocumentSyncKind defines how the client syncs document changes.
type TextDocumentSyncKind int

const (
	SyncNone        TextDocumentSyncKind = 0
	SyncFull        TextDocumentSyncKind = 1
	SyncIncremental TextDocumentSyncKind = 2
)

type SaveOptions struct {
	IncludeText bool `json:"includeText"`
}

type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose"`
	Change    TextDocumentSyncKind `json:"change"`
	Save      *SaveOptions         `json:"save,omitempty"`
}

type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters"`
}

type ServerCapabilities struct {
	TextDocumentSync        TextDocumentSyncOptions `json:"textDocumentSync"`
	HoverProvider           bool                    `json:"hoverProvider"`
	DefinitionProvider      bool                    `json:"definitionProvider"`
	CompletionProvider      *CompletionOptions      `json:"completionProvider,omitempty"`
	FoldingRangeProvider    bool                    `json:"foldingRangeProvider"`
	WorkspaceSymbolProvider bool                    `json:"workspaceSymbolProvider"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int32  `json:"version"`
	Text       string `json:"text"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int32  `json:"version"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent replaces the whole text when Range is nil.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *int   `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitempty"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// Position uses UTF-16 code units for Character.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
}

type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Version     *int32       `json:"version,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

type HoverParams struct {
	TextDocumentPositionParams
}

type DefinitionParams struct {
	TextDocumentPositionParams
}

// CompletionTriggerKind represents how a completion was triggered.
type CompletionTriggerKind int

const (
	CompletionTriggerInvoked    CompletionTriggerKind = 1
	CompletionTriggerCharacter  CompletionTriggerKind = 2
	CompletionTriggerIncomplete CompletionTriggerKind = 3
)

// CompletionContext represents additional information about the context in which a completion request is triggered.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionItemKind represents the kind of a completion item.
type CompletionItemKind int

const (
	CompletionItemSnippet CompletionItemKind = 15
	CompletionItemFile    CompletionItemKind = 17
	CompletionItemFolder  CompletionItemKind = 19
)

// InsertTextFormat represents the format of the insert text.
type InsertTextFormat int

const (
	InsertTextFormatPlainText InsertTextFormat = 1
	InsertTextFormatSnippet   InsertTextFormat = 2
)

// TextEdit represents a textual edit applicable to a text document.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// CompletionItem represents a completion item.
type CompletionItem struct {
	Label            string             `json:"label"`
	Kind             CompletionItemKind `json:"kind,omitempty"`
	Detail           string             `json:"detail,omitempty"`
	InsertText       string             `json:"insertText,omitempty"`
	InsertTextFormat InsertTextFormat   `json:"insertTextFormat,omitempty"`
	TextEdit         *TextEdit          `json:"textEdit,omitempty"`
}

// MarkupContent represents a marked up content.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type FoldingRange struct {
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Kind      string `json:"kind,omitempty"`
}

type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

// SymbolKind values used by this server.
type SymbolKind int

const SymbolKindFile SymbolKind = 1

type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}
