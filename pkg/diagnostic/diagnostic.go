package diagnostic

import (
	"encoding/json"
	"sort"

	"github.com/walteh/viewphp-lsp/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Source is attached to every diagnostic so editors can tell who reported it.
const Source = "viewphp"

// Severity represents the severity level of a diagnostic
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// LSP returns the numeric severity used by the language server protocol.
func (s Severity) LSP() int {
	if s == Error {
		return 1
	}
	return 2
}

// Code is a stable rule identifier.
type Code string

const (
	CodeDuplicateExtends   Code = "duplicate-extends"
	CodeRepeatedMarker     Code = "repeated-marker"
	CodeUnmatchedDirective Code = "unmatched-directive"
	CodeUnclosedDirective  Code = "unclosed-directive"
	CodeUnmatchedTag       Code = "unmatched-tag"
	CodeUnclosedTag        Code = "unclosed-tag"
)

// Codes lists every rule in a fixed order.
func Codes() []Code {
	return []Code{
		CodeDuplicateExtends,
		CodeRepeatedMarker,
		CodeUnmatchedDirective,
		CodeUnclosedDirective,
		CodeUnmatchedTag,
		CodeUnclosedTag,
	}
}

// Diagnostic represents a single structural problem. Ranges use byte columns
// of the unmodified text.
type Diagnostic struct {
	Range    position.Range
	Message  string
	Severity Severity
	Code     Code
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Range.Start, diags[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Character != b.Character {
			return a.Character < b.Character
		}
		return diags[i].Message < diags[j].Message
	})
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	Format(diags []Diagnostic) ([]byte, error)
}

// JSONFormatter renders diagnostics in the shape editors expect, with 0-based
// lines and numeric severities.
type JSONFormatter struct {
	Indent bool
}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonPlace struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type jsonRange struct {
	Start jsonPlace `json:"start"`
	End   jsonPlace `json:"end"`
}

type jsonDiagnostic struct {
	Range    jsonRange `json:"range"`
	Severity int       `json:"severity"`
	Code     string    `json:"code"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

// Format implements Formatter
func (f *JSONFormatter) Format(diags []Diagnostic) ([]byte, error) {
	result := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		result = append(result, jsonDiagnostic{
			Range: jsonRange{
				Start: jsonPlace{Line: d.Range.Start.Line, Character: d.Range.Start.Character},
				End:   jsonPlace{Line: d.Range.End.Line, Character: d.Range.End.Character},
			},
			Severity: d.Severity.LSP(),
			Code:     string(d.Code),
			Source:   Source,
			Message:  d.Message,
		})
	}

	var out []byte
	var err error
	if f.Indent {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return nil, errors.Errorf("marshaling diagnostics: %w", err)
	}
	return out, nil
}
