// Package config loads callcache settings.
//
// Precedence, lowest to highest: built-in defaults, YAML file, environment
// (CALLCACHE_STORE, CALLCACHE_LOG_LEVEL), explicit overrides from flags.
// The merged result is validated against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/callcache/internal/instrument"
	"github.com/roach88/callcache/internal/kv"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables read by Load.
const (
	EnvStore    = "CALLCACHE_STORE"
	EnvLogLevel = "CALLCACHE_LOG_LEVEL"
)

// Config holds runtime settings.
type Config struct {
	// Store is the backend URL, e.g. "redis://localhost:6379/0".
	Store string `yaml:"store" json:"store"`

	// Order lists instrumentation layers for Cache.Store, outermost first.
	Order []string `yaml:"order" json:"order"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:    kv.DefaultURL,
		Order:    instrument.DefaultOrder.Strings(),
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Store = envOrDefault(EnvStore, cfg.Store)
	cfg.LogLevel = envOrDefault(EnvLogLevel, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode merges YAML onto cfg, rejecting unknown fields.
func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate checks cfg against the CUE schema and the instrumentation
// order rules (no repeated layers).
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	order := c.Order
	if order == nil {
		order = []string{}
	}
	data := ctx.Encode(Config{Store: c.Store, Order: order, LogLevel: c.LogLevel})
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	if _, err := instrument.ParseOrder(c.Order); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InstrumentOrder returns the parsed instrumentation order.
func (c Config) InstrumentOrder() (instrument.Order, error) {
	return instrument.ParseOrder(c.Order)
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
