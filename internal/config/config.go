// # internal/config/config.go
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "./transmile.toml"

// DefaultIgnore is skipped on top of the configured ignore list.
var DefaultIgnore = []string{".git", ".transmile"}

type Config struct {
	Source        string        `toml:"source"`
	OutDir        string        `toml:"out_dir"`
	Ignore        []string      `toml:"ignore"`
	Copy          *bool         `toml:"copy"`
	KeepGoing     bool          `toml:"keep_going"`
	Search        Search        `toml:"search"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Search struct {
	ModuleVar  string   `toml:"module_var"`
	GenericVar string   `toml:"generic_var"`
	Extra      []string `toml:"extra"` // probed after the module variable's directories
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // rebuilds per second
	Burst    int           `toml:"burst"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// IgnorePatterns returns DefaultIgnore followed by the configured patterns.
func (c *Config) IgnorePatterns() []string {
	return append(slices.Clone(DefaultIgnore), c.Ignore...)
}

// CopyEnabled reports whether files that are not transpiled are copied to the
// output tree. Copying is on unless disabled explicitly.
func (c *Config) CopyEnabled() bool {
	if c.Copy == nil {
		return true
	}
	return *c.Copy
}

func (c *Config) SetCopy(v bool) {
	c.Copy = &v
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist and was not requested explicitly.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Source) == "" {
		cfg.Source = "."
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		cfg.OutDir = "build"
	}
	if strings.TrimSpace(cfg.Search.ModuleVar) == "" {
		cfg.Search.ModuleVar = "SMLPATH"
	}
	if strings.TrimSpace(cfg.Search.GenericVar) == "" {
		cfg.Search.GenericVar = "PATH"
	}

	// Default debounce if not set
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".transmile/history.db"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "transmile"
	}
}
