// Package config loads ecc-parse settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the CLI and the collector
type Config struct {
	// Include globs select source files below a directory argument
	Include []string `yaml:"include"`
	// Exclude globs remove files selected by Include
	Exclude []string `yaml:"exclude"`
	// Workers is the number of files parsed in parallel, 0 means one per CPU
	Workers int `yaml:"workers"`
	// Database is the SQLite fragment database path, empty disables it
	Database  string `yaml:"database"`
	Memoize   bool   `yaml:"memoize"`
	MaxErrors int    `yaml:"max_errors"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Include: []string{"**/*.c", "**/*.h"},
		Memoize: true,
	}
}

// Parse reads YAML over the defaults. Keys absent from data keep their
// default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration file at path
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks glob syntax and numeric limits
func (c Config) Validate() error {
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors must not be negative, got %d", c.MaxErrors)
	}
	return nil
}

// WorkerCount resolves Workers to a concrete pool size
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Selects reports whether the slash separated relative path rel is
// included and not excluded.
func (c Config) Selects(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range c.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range c.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
