// Package config loads host configuration from a TOML file with
// environment variable overrides. A missing file is not an error; the
// defaults describe a usable host.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrBadLevel is returned for an unknown logging level name.
var ErrBadLevel = errors.New("unknown log level")

// envPrefix namespaces the host's environment overrides.
const envPrefix = "HOOKHOST_"

// Logging controls the diagnostic output.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `toml:"development"`
}

// Catalog locates the hookable function catalog.
type Catalog struct {
	// Path to the catalog TOML file.
	Path string `toml:"path"`
	// Features names the companion components present in this host
	// build. Functions requiring an absent feature stay unavailable.
	Features []string `toml:"features"`
}

// Scripts locates the callback modules.
type Scripts struct {
	// Dir is scanned for *.lua files; each becomes one module.
	Dir string `toml:"dir"`
}

// Config is the host configuration root.
type Config struct {
	Logging Logging `toml:"logging"`
	Catalog Catalog `toml:"catalog"`
	Scripts Scripts `toml:"scripts"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info"},
		Catalog: Catalog{Path: "catalog.toml"},
		Scripts: Scripts{Dir: "scripts"},
	}
}

// Load reads the file at path, applies environment overrides and
// validates the result. A missing file yields the defaults, still with
// overrides applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.applyEnv()
			return cfg, cfg.validate()
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults, applies environment overrides
// and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the process environment.
// Empty string values count as set.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(envPrefix + "CATALOG"); ok {
		c.Catalog.Path = v
	}
	if v, ok := os.LookupEnv(envPrefix + "SCRIPTS_DIR"); ok {
		c.Scripts.Dir = v
	}
	if v, ok := os.LookupEnv(envPrefix + "FEATURES"); ok {
		c.Catalog.Features = splitList(v)
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrBadLevel, c.Logging.Level)
	}
}

// FeatureSet returns the availability predicate over the configured
// feature names.
func (c *Config) FeatureSet() func(string) bool {
	present := make(map[string]bool, len(c.Catalog.Features))
	for _, name := range c.Catalog.Features {
		present[name] = true
	}
	return func(name string) bool { return present[name] }
}

// splitList parses a comma-separated environment value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
