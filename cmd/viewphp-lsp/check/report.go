package check

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
)

type reporter func(w io.Writer, results []FileResult) error

func newReporter(format string, colorize bool) (reporter, error) {
	switch format {
	case "text":
		return textReporter(colorize), nil
	case "json":
		return writeJSON, nil
	case "sarif":
		return writeSARIF, nil
	}
	return nil, errors.Errorf("unknown format %q", format)
}

func paint(colorize bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// textReporter prints one line per diagnostic with 1-based positions,
// followed by a summary.
func textReporter(colorize bool) reporter {
	path := paint(colorize, color.Bold)
	errorColor := paint(colorize, color.FgRed, color.Bold)
	warnColor := paint(colorize, color.FgYellow, color.Bold)
	faint := paint(colorize, color.Faint)

	return func(w io.Writer, results []FileResult) error {
		var errs, warns int
		for _, r := range results {
			for _, d := range r.Diagnostics {
				sev := warnColor.Sprint(string(d.Severity))
				if d.Severity == diagnostic.Error {
					sev = errorColor.Sprint(string(d.Severity))
					errs++
				} else {
					warns++
				}
				_, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s %s\n",
					path.Sprint(r.Path),
					d.Range.Start.Line+1,
					d.Range.Start.Character+1,
					sev,
					d.Message,
					faint.Sprintf("[%s]", d.Code),
				)
				if err != nil {
					return err
				}
			}
		}

		if errs+warns == 0 {
			_, err := fmt.Fprintf(w, "no problems in %d files\n", len(results))
			return err
		}
		_, err := fmt.Fprintf(w, "%d problems (%d errors, %d warnings) in %d files\n", errs+warns, errs, warns, len(results))
		return err
	}
}

type jsonFile struct {
	Path        string          `json:"path"`
	Diagnostics json.RawMessage `json:"diagnostics"`
}

func writeJSON(w io.Writer, results []FileResult) error {
	formatter := diagnostic.NewJSONFormatter()

	files := make([]jsonFile, 0, len(results))
	for _, r := range results {
		raw, err := formatter.Format(r.Diagnostics)
		if err != nil {
			return err
		}
		files = append(files, jsonFile{Path: r.Path, Diagnostics: raw})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(files)
}
