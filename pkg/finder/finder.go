// Package finder locates view templates on disk for batch checking.
package finder

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

func loadIgnore(afs afero.Fs, root string) *gitignore.GitIgnore {
	data, err := afero.ReadFile(afs, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gitignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

type walker struct {
	fs     afero.Fs
	root   string
	ignore *gitignore.GitIgnore
	seen   map[string]bool
	files  []string
}

func (w *walker) ignored(path string) bool {
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.ignore.MatchesPath(filepath.ToSlash(rel))
}

func (w *walker) add(path string) {
	if !w.seen[path] {
		w.seen[path] = true
		w.files = append(w.files, path)
	}
}

// walk visits every file below dir that is not ignored. match decides which
// files are kept.
func (w *walker) walk(dir string, match func(path string) (bool, error)) error {
	return afero.Walk(w.fs, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && (info.Name() == ".git" || w.ignored(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ignored(path) {
			return nil
		}
		ok, err := match(path)
		if err != nil {
			return err
		}
		if ok {
			w.add(path)
		}
		return nil
	})
}

// TemplateFinder expands command line arguments into template files.
type TemplateFinder interface {
	FindTemplates(ctx context.Context, args []string) ([]string, error)
}

// DefaultFinder resolves arguments against a root directory, skipping the
// paths its .gitignore excludes.
type DefaultFinder struct {
	fs     afero.Fs
	root   string
	suffix string
}

func NewDefaultFinder(afs afero.Fs, root, suffix string) *DefaultFinder {
	return &DefaultFinder{fs: afs, root: root, suffix: suffix}
}

// FindTemplates returns a sorted list of absolute file paths. Directories
// contribute their view templates, globs are matched against root-relative
// slash paths and plain files are taken as given. No arguments means the
// whole root.
func (f *DefaultFinder) FindTemplates(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	root := f.root
	w := &walker{
		fs:     f.fs,
		root:   root,
		ignore: loadIgnore(f.fs, root),
		seen:   map[string]bool{},
	}

	for _, arg := range args {
		if isGlob(arg) {
			pattern := filepath.ToSlash(arg)
			if !doublestar.ValidatePattern(pattern) {
				return nil, errors.Errorf("invalid pattern %q", arg)
			}
			err := w.walk(root, func(path string) (bool, error) {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return false, err
				}
				return doublestar.Match(pattern, filepath.ToSlash(rel))
			})
			if err != nil {
				return nil, errors.Errorf("matching %s: %w", arg, err)
			}
			continue
		}

		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		info, err := f.fs.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, errors.Errorf("no such file or directory: %s", arg)
			}
			return nil, errors.Errorf("reading %s: %w", arg, err)
		}

		if !info.IsDir() {
			w.add(path)
			continue
		}

		err = w.walk(path, func(p string) (bool, error) {
			return strings.HasSuffix(p, f.suffix), nil
		})
		if err != nil {
			return nil, errors.Errorf("walking %s: %w", arg, err)
		}
	}

	zerolog.Ctx(ctx).Trace().Strs("files", w.files).Msg("collected templates")

	sort.Strings(w.files)
	return w.files, nil
}

func isGlob(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}
