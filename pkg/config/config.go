package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the analyzer
type Config struct {
	Workspace       string            `koanf:"workspace"`
	Entry           string            `koanf:"entry"` // single entry file; empty analyzes the whole workspace
	MaxDepth        int               `koanf:"max-depth"`
	Unbounded       bool              `koanf:"unbounded"`
	ReportAllCycles bool              `koanf:"report-all"`
	BarrelExports   bool              `koanf:"barrel-exports"`
	TypeImports     bool              `koanf:"type-imports"`
	Ignore          []string          `koanf:"ignore"`
	Aliases         map[string]string `koanf:"aliases"`
	Fingerprint     string            `koanf:"fingerprint"`
	CacheSize       int               `koanf:"cache-size"`
	WebMode         bool              `koanf:"web"`
	Port            int               `koanf:"port"`
	Watch           bool              `koanf:"watch"`
	VerboseCnt      int               `koanf:"verbose"`
}

// Load loads configuration from defaults, config file, environment variables,
// and flags. Priority: Flags > Env > Config File > Defaults.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"workspace":      ".",
		"entry":          "",
		"max-depth":      10,
		"unbounded":      false,
		"report-all":     false,
		"barrel-exports": false,
		"type-imports":   false,
		"fingerprint":    "mtime",
		"cache-size":     0,
		"web":            false,
		"port":           8080,
		"watch":          false,
		"verbose":        0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - modcycle.toml
	// Ignore errors here as the file might not exist
	_ = k.Load(file.Provider("modcycle.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: MODCYCLE_ (e.g., MODCYCLE_MAX_DEPTH=25)
	if err := k.Load(env.Provider("MODCYCLE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "MODCYCLE_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
