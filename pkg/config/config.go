// Package config loads the per-project settings file from the workspace root.
package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultComponentsDir  = "resources/views/components"
	DefaultViewSuffix     = ".view.php"
	DefaultUnclosedWindow = 20
)

// FileNames are probed in order; the first that exists wins.
var FileNames = []string{".viewphp.hcl", ".viewphp.yaml", ".viewphp.yml"}

type Config struct {
	ComponentsDir  string   `json:"components_dir,omitempty" yaml:"components_dir,omitempty" hcl:"components_dir,optional"`
	ViewSuffix     string   `json:"view_suffix,omitempty" yaml:"view_suffix,omitempty" hcl:"view_suffix,optional"`
	LanguageIDs    []string `json:"language_ids,omitempty" yaml:"language_ids,omitempty" hcl:"language_ids,optional"`
	UnclosedWindow int      `json:"unclosed_window,omitempty" yaml:"unclosed_window,omitempty" hcl:"unclosed_window,optional"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.ComponentsDir == "" {
		cfg.ComponentsDir = DefaultComponentsDir
	}
	if cfg.ViewSuffix == "" {
		cfg.ViewSuffix = DefaultViewSuffix
	}
	if len(cfg.LanguageIDs) == 0 {
		cfg.LanguageIDs = []string{"php"}
	}
	if cfg.UnclosedWindow <= 0 {
		cfg.UnclosedWindow = DefaultUnclosedWindow
	}
}

func (cfg *Config) validate() error {
	if filepath.IsAbs(cfg.ComponentsDir) {
		return errors.Errorf("components_dir must be relative to the workspace root: %s", cfg.ComponentsDir)
	}
	if !strings.HasPrefix(cfg.ViewSuffix, ".") {
		return errors.Errorf("view_suffix must start with a dot: %s", cfg.ViewSuffix)
	}
	return nil
}

// Parse decodes data as YAML or HCL depending on the extension of name.
func Parse(name string, data []byte) (*Config, error) {
	var cfg Config

	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		if len(bytes.TrimSpace(data)) > 0 {
			decoder := yaml.NewDecoder(bytes.NewReader(data))
			decoder.KnownFields(true)
			if err := decoder.Decode(&cfg); err != nil {
				return nil, errors.Errorf("parsing YAML: %w", err)
			}
		}
	} else {
		parser := hclparse.NewParser()
		hclFile, diags := parser.ParseHCL(data, name)
		if diags.HasErrors() {
			return nil, errors.Errorf("parsing HCL: %s", diags.Error())
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"default_components_dir": cty.StringVal(DefaultComponentsDir),
			},
		}

		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
		if diags.HasErrors() {
			return nil, errors.Errorf("decoding HCL: %s", diags.Error())
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the first settings file found in root. A missing file yields
// the defaults.
func Load(ctx context.Context, fs afero.Fs, root string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Errorf("reading config file: %w", err)
		}

		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading project config")

		cfg, err := Parse(name, data)
		if err != nil {
			return nil, errors.Errorf("loading %s: %w", path, err)
		}
		return cfg, nil
	}

	return Default(), nil
}

// LoadOrDefault is Load for callers that must keep going: failures are
// logged and the defaults are returned.
func LoadOrDefault(ctx context.Context, fs afero.Fs, root string) *Config {
	if root == "" {
		return Default()
	}
	cfg, err := Load(ctx, fs, root)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("root", root).Msg("invalid project config, using defaults")
		return Default()
	}
	return cfg
}
