// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the web server settings. Command line flags override it.
type Config struct {
	EntriesDir         string        `env:"ENCYCLOPEDIA_ENTRIES_DIR"         envDefault:"entries"`
	Addr               string        `env:"ENCYCLOPEDIA_ADDR"                envDefault:"127.0.0.1:8000"`
	Versioning         bool          `env:"ENCYCLOPEDIA_VERSIONING"`
	ReadOnly           bool          `env:"ENCYCLOPEDIA_READ_ONLY"`
	SSL                bool          `env:"ENCYCLOPEDIA_SSL"`
	MarkdownExtensions []string      `env:"ENCYCLOPEDIA_MARKDOWN_EXTENSIONS" envSeparator:","`
	MarkdownHardWraps  bool          `env:"ENCYCLOPEDIA_MARKDOWN_HARD_WRAPS"`
	UnsafeHTML         bool          `env:"ENCYCLOPEDIA_UNSAFE_HTML"`
	Watch              bool          `env:"ENCYCLOPEDIA_WATCH"               envDefault:"true"`
	ShutdownTimeout    time.Duration `env:"ENCYCLOPEDIA_SHUTDOWN_TIMEOUT"    envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the Config described by the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
