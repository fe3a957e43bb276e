package debug_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/viewphp-lsp/pkg/debug"
)

func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPkg string
		wantFn  string
	}{
		{
			name:    "plain function",
			input:   "github.com/walteh/viewphp-lsp/pkg/lsp.applyChanges",
			wantPkg: "github.com/walteh/viewphp-lsp/pkg/lsp",
			wantFn:  "applyChanges",
		},
		{
			name:    "pointer method",
			input:   "github.com/walteh/viewphp-lsp/pkg/lsp.(*Server).DidOpen",
			wantPkg: "github.com/walteh/viewphp-lsp/pkg/lsp",
			wantFn:  "(*Server).DidOpen",
		},
		{
			name:    "closure",
			input:   "main.main.func1",
			wantPkg: "main",
			wantFn:  "main.func1",
		},
		{
			name:    "no dot",
			input:   "weird",
			wantPkg: "weird",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, fn := debug.SplitFuncName(tt.input)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantFn, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "pkg/lsp:server.go:42", debug.FormatCaller("pkg/lsp", "/src/pkg/lsp/server.go", 42, false))
	assert.Equal(t, "x:main.go:1", debug.FormatCaller("x", "main.go", 1, false))
}

func TestHooks(t *testing.T) {
	var buf bytes.Buffer
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	logger := zerolog.New(&buf).
		Hook(debug.TimeHook{Now: func() time.Time { return fixed }}).
		Hook(debug.CallerHook{})
	logger.Info().Msg("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "2024-03-01T12:30:00.000Z", record["time"])
	assert.Contains(t, record["caller"], "debug_test.go:")
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := debug.NewConsoleLogger(&buf, zerolog.InfoLevel, true)

	logger.Debug().Msg("hidden")
	logger.Warn().Str("path", "a.view.php").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "path=a.view.php")
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, debug.Version())
}
