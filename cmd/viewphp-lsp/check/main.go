package check

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/viewphp-lsp/pkg/config"
	"github.com/walteh/viewphp-lsp/pkg/diagnostic"
	"github.com/walteh/viewphp-lsp/pkg/finder"
	"github.com/walteh/viewphp-lsp/pkg/position"
)

// ErrFindings is returned when the report contains diagnostics at or above
// the --fail-on threshold.
var ErrFindings = errors.Base("structural problems found")

type Handler struct {
	root    string
	format  string
	noColor bool
	failOn  string
	jobs    int

	fs  afero.Fs
	out io.Writer
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "check [path|glob]...",
		Short: "report unbalanced directives and component tags in view templates",
		Long: `check walks the given files, directories or doublestar globs (relative to
--root) and prints the structural diagnostics of every view template found.
Paths ignored by the root .gitignore are skipped.`,
	}

	cmd.Flags().StringVar(&me.root, "root", ".", "project root holding the settings file")
	cmd.Flags().StringVar(&me.format, "format", "text", "output format: text, json or sarif")
	cmd.Flags().BoolVar(&me.noColor, "no-color", false, "disable colored text output")
	cmd.Flags().StringVar(&me.failOn, "fail-on", "error", "exit non-zero on: error, warning or never")
	cmd.Flags().IntVar(&me.jobs, "jobs", runtime.GOMAXPROCS(0), "files checked concurrently")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), args)
	}

	return cmd
}

// FileResult is the outcome of checking one template.
type FileResult struct {
	// Path is slash separated and relative to the root when possible.
	Path        string
	Doc         *position.Document
	Diagnostics []diagnostic.Diagnostic
}

func (me *Handler) Run(ctx context.Context, args []string) error {
	if me.fs == nil {
		me.fs = afero.NewOsFs()
	}
	if me.out == nil {
		me.out = os.Stdout
	}

	report, err := newReporter(me.format, !me.noColor)
	if err != nil {
		return err
	}

	threshold, err := parseFailOn(me.failOn)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(me.root)
	if err != nil {
		return errors.Errorf("resolving root: %w", err)
	}

	cfg, err := config.Load(ctx, me.fs, root)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	files, err := finder.NewDefaultFinder(me.fs, root, cfg.ViewSuffix).FindTemplates(ctx, args)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Int("files", len(files)).Str("root", root).Msg("checking templates")

	results, err := me.checkAll(ctx, root, cfg, files)
	if err != nil {
		return err
	}

	if err := report(me.out, results); err != nil {
		return errors.Errorf("writing report: %w", err)
	}

	if threshold.exceeded(results) {
		return ErrFindings
	}
	return nil
}

// checkAll checks files concurrently into a memory sink and reports them in
// input order. Files that cannot be read are collected and reported together.
func (me *Handler) checkAll(ctx context.Context, root string, cfg *config.Config, files []string) ([]FileResult, error) {
	checker := diagnostic.NewChecker()
	checker.UnclosedWindow = cfg.UnclosedWindow

	// the finder already chose the files; named files are checked whatever
	// their suffix
	selector := &diagnostic.Selector{Pattern: "**"}
	sink := diagnostic.NewMemorySink()
	docs := make([]*position.Document, len(files))

	var (
		mu      sync.Mutex
		readErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(me.jobs, 1))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := afero.ReadFile(me.fs, path)
			if err != nil {
				mu.Lock()
				readErr = multierr.Append(readErr, errors.Errorf("reading %s: %w", path, err))
				mu.Unlock()
				return nil
			}
			text := string(data)
			docs[i] = position.NewDocument(text)
			return diagnostic.CheckDocument(gctx, checker, selector, sink, diagnostic.Document{
				URI:  path,
				Path: path,
				Text: text,
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("checking templates: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}

	results := make([]FileResult, 0, len(files))
	for i, path := range files {
		published, ok := sink.Get(path)
		if !ok {
			continue
		}
		results = append(results, FileResult{
			Path:        displayPath(root, path),
			Doc:         docs[i],
			Diagnostics: published.Diagnostics,
		})
	}
	return results, nil
}

func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

type failOn int

const (
	failNever failOn = iota
	failError
	failWarning
)

func parseFailOn(s string) (failOn, error) {
	switch s {
	case "error":
		return failError, nil
	case "warning":
		return failWarning, nil
	case "never":
		return failNever, nil
	}
	return 0, errors.Errorf("unknown --fail-on value %q", s)
}

func (f failOn) exceeded(results []FileResult) bool {
	for _, r := range results {
		for _, d := range r.Diagnostics {
			switch {
			case f == failWarning:
				return true
			case f == failError && d.Severity == diagnostic.Error:
				return true
			}
		}
	}
	return false
}
