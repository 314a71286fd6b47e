// Package config loads cratebadges configuration from an optional YAML file
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
	"github.com/UnitVectorY-Labs/cratebadges/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CRATEBADGES_"

// Config is the full tool configuration.
type Config struct {
	Log    logging.Config `koanf:"log"`
	Dump   DumpConfig     `koanf:"dump"`
	Crawl  CrawlConfig    `koanf:"crawl"`
	Output OutputConfig   `koanf:"output"`
}

// DumpConfig locates and decodes the dump tables.
type DumpConfig struct {
	Dir     string `koanf:"dir"`
	Workers int    `koanf:"workers"`
	OnError string `koanf:"on_error"`
}

// CrawlConfig controls README crawling.
type CrawlConfig struct {
	Org     string `koanf:"org"`
	Private bool   `koanf:"private"`
	Workers int    `koanf:"workers"`
	// Providers is an optional JSONC provider catalog replacing the
	// built-in one.
	Providers string `koanf:"providers"`
}

// OutputConfig controls export and report output.
type OutputConfig struct {
	Dir     string `koanf:"dir"`
	Format  string `koanf:"format"`
	HTMLDir string `koanf:"html_dir"`
}

// Load reads configuration with this precedence (highest first):
//
//  1. Environment variables (CRATEBADGES_DUMP_ON_ERROR -> dump.on_error)
//  2. YAML file at path, when path is not empty
//  3. Defaults
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Split on the first underscore only so that field names keep theirs:
	// CRATEBADGES_OUTPUT_HTML_DIR -> output.html_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	defaults := logging.NewDefaultConfig()
	if c.Log.Level == "" {
		c.Log.Level = defaults.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Format
	}
	if c.Dump.Dir == "" {
		c.Dump.Dir = "data"
	}
	if c.Dump.OnError == "" {
		c.Dump.OnError = string(dump.Skip)
	}
	if c.Crawl.Workers <= 0 {
		c.Crawl.Workers = 10
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "export"
	}
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
	if c.Output.HTMLDir == "" {
		c.Output.HTMLDir = "output"
	}
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if _, err := dump.ParsePolicy(c.Dump.OnError); err != nil {
		return err
	}
	if c.Dump.Workers < 0 {
		return fmt.Errorf("dump.workers must not be negative")
	}
	switch c.Output.Format {
	case "json", "cbor":
	default:
		return fmt.Errorf("invalid output format %q (want json or cbor)", c.Output.Format)
	}
	return nil
}
