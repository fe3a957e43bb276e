package check

import (
	"encoding/json"
	"io"

	"github.com/walteh/viewphp-lsp/pkg/debug"
	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"
	toolName     = "viewphp-lsp"
)

var ruleDescriptions = map[diagnostic.Code]string{
	diagnostic.CodeDuplicateExtends:   "A document may extend a single layout.",
	diagnostic.CodeRepeatedMarker:     "A run of two or more @ characters.",
	diagnostic.CodeUnmatchedDirective: "A closing or else directive without an open block.",
	diagnostic.CodeUnclosedDirective:  "A directive block still open at the end of the document.",
	diagnostic.CodeUnmatchedTag:       "A closing component tag without a matching opener.",
	diagnostic.CodeUnclosedTag:        "A component tag that is never closed.",
}

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// sarifRegion is 1-based with columns in UTF-16 code units, the SARIF
// default column kind.
type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

func newSARIFReport(results []FileResult) *sarifReport {
	rules := make([]sarifRule, 0, len(diagnostic.Codes()))
	for _, code := range diagnostic.Codes() {
		rules = append(rules, sarifRule{
			ID:               string(code),
			ShortDescription: sarifMessage{Text: ruleDescriptions[code]},
		})
	}

	out := make([]sarifResult, 0)
	for _, r := range results {
		for _, d := range r.Diagnostics {
			rng := d.Range
			if r.Doc != nil {
				rng = r.Doc.ToUTF16Range(rng)
			}
			out = append(out, sarifResult{
				RuleID:  string(d.Code),
				Level:   string(d.Severity),
				Message: sarifMessage{Text: d.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifact{URI: r.Path},
						Region: sarifRegion{
							StartLine:   rng.Start.Line + 1,
							StartColumn: rng.Start.Character + 1,
							EndLine:     rng.End.Line + 1,
							EndColumn:   rng.End.Character + 1,
						},
					},
				}},
			})
		}
	}

	return &sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: toolName, Version: debug.Version(), Rules: rules}},
			Results: out,
		}},
	}
}

func writeSARIF(w io.Writer, results []FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newSARIFReport(results))
}
