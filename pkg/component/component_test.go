package component_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/viewphp-lsp/pkg/component"
	"github.com/walteh/viewphp-lsp/pkg/config"
)

const root = "/ws"

func newFixture(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"resources/views/components/button.view.php",
		"resources/views/components/legacy.php",
		"resources/views/components/readme.md",
		"resources/views/components/nav/bar.view.php",
		"resources/views/components/nav/item.view.php",
		"resources/views/components/form/input/text.view.php",
	}
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(root, f), []byte("<div></div>"), 0o644))
	}
	return fs
}

func TestPathFor(t *testing.T) {
	r := component.NewResolver(afero.NewMemMapFs(), root, nil)

	tests := []struct {
		tag  string
		want string
	}{
		{tag: "c-button", want: "/ws/resources/views/components/button.view.php"},
		{tag: "c-nav.bar", want: "/ws/resources/views/components/nav/bar.view.php"},
		{tag: "c-form-input.text", want: "/ws/resources/views/components/form/input/text.view.php"},
		{tag: "nav.item", want: "/ws/resources/views/components/nav/item.view.php"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), r.PathFor(tt.tag))
		})
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	r := component.NewResolver(newFixture(t), root, nil)

	path, ok := r.Lookup(ctx, "c-nav-bar")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("resources/views/components/nav/bar.view.php"), r.Rel(path))

	_, ok = r.Lookup(ctx, "c-missing")
	assert.False(t, ok)

	noRoot := component.NewResolver(newFixture(t), "", nil)
	_, ok = noRoot.Lookup(ctx, "c-button")
	assert.False(t, ok)
}

func TestTagFor(t *testing.T) {
	r := component.NewResolver(afero.NewMemMapFs(), root, nil)

	tag, ok := r.TagFor(filepath.FromSlash("/ws/resources/views/components/form/input/text.view.php"))
	require.True(t, ok)
	assert.Equal(t, "c-form.input.text", tag)

	_, ok = r.TagFor(filepath.FromSlash("/ws/resources/views/home.view.php"))
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	r := component.NewResolver(newFixture(t), root, nil)

	labels := func(entries []component.Entry) map[string]component.EntryKind {
		out := make(map[string]component.EntryKind)
		for _, e := range entries {
			out[e.Label] = e.Kind
		}
		return out
	}

	tests := []struct {
		name  string
		typed string
		want  map[string]component.EntryKind
	}{
		{
			name:  "root listing",
			typed: "",
			want: map[string]component.EntryKind{
				"button": component.EntryFile,
				"legacy": component.EntryFile,
				"nav":    component.EntryFolder,
				"form":   component.EntryFolder,
			},
		},
		{
			name:  "partial first segment",
			typed: "na",
			want: map[string]component.EntryKind{
				"button": component.EntryFile,
				"legacy": component.EntryFile,
				"nav":    component.EntryFolder,
				"form":   component.EntryFolder,
			},
		},
		{
			name:  "inside folder",
			typed: "nav.b",
			want: map[string]component.EntryKind{
				"bar":  component.EntryFile,
				"item": component.EntryFile,
			},
		},
		{
			name:  "trailing dot",
			typed: "nav.",
			want: map[string]component.EntryKind{
				"button": component.EntryFile,
				"legacy": component.EntryFile,
				"nav":    component.EntryFolder,
				"form":   component.EntryFolder,
			},
		},
		{
			name:  "missing folder falls back to root",
			typed: "ghost.x",
			want: map[string]component.EntryKind{
				"button": component.EntryFile,
				"legacy": component.EntryFile,
				"nav":    component.EntryFolder,
				"form":   component.EntryFolder,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels(r.List(ctx, tt.typed)))
		})
	}
}

func TestListWithoutComponentsDir(t *testing.T) {
	ctx := context.Background()

	r := component.NewResolver(afero.NewMemMapFs(), root, nil)
	assert.Empty(t, r.List(ctx, "nav."))

	noRoot := component.NewResolver(newFixture(t), "", nil)
	assert.Empty(t, noRoot.List(ctx, ""))
}

func TestGlob(t *testing.T) {
	ctx := context.Background()
	r := component.NewResolver(newFixture(t), root, nil)

	all, err := r.Glob(ctx, "")
	require.NoError(t, err)

	tags := make([]string, len(all))
	for i, c := range all {
		tags[i] = c.Tag
	}
	assert.Equal(t, []string{"c-button", "c-form.input.text", "c-nav.bar", "c-nav.item"}, tags)

	nav, err := r.Glob(ctx, "nav/*.view.php")
	require.NoError(t, err)
	assert.Len(t, nav, 2)
}

func TestCustomConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/ui/card.tpl.php", []byte(""), 0o644))

	cfg := &config.Config{ComponentsDir: "ui", ViewSuffix: ".tpl.php"}
	r := component.NewResolver(fs, root, cfg)

	path, ok := r.Lookup(context.Background(), "c-card")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/ws/ui/card.tpl.php"), path)
}
