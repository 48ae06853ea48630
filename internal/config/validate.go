package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Validate checks that the Config contains valid values.
// Returns an error describing the first invalid field found.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("config: GPUCATALOG_INPUT is required")
	}

	if c.OutputPath == "" {
		return fmt.Errorf("config: GPUCATALOG_OUTPUT is required")
	}
	if filepath.Clean(c.OutputPath) == filepath.Clean(c.InputPath) {
		return fmt.Errorf("config: GPUCATALOG_OUTPUT must differ from GPUCATALOG_INPUT (%q)", c.InputPath)
	}
	if c.ConfigMapPath != "" && filepath.Clean(c.ConfigMapPath) == filepath.Clean(c.OutputPath) {
		return fmt.Errorf("config: GPUCATALOG_CONFIGMAP_OUTPUT must differ from GPUCATALOG_OUTPUT (%q)", c.OutputPath)
	}

	if c.CompressionLevel < 1 || c.CompressionLevel > 4 {
		return fmt.Errorf("config: CompressionLevel must be 1-4, got %d", c.CompressionLevel)
	}

	if c.ConfigMapPath != "" && c.ConfigMapName == "" {
		return fmt.Errorf("config: GPUCATALOG_CONFIGMAP_NAME is required when GPUCATALOG_CONFIGMAP_OUTPUT is set")
	}

	if c.Workers < 0 {
		return fmt.Errorf("config: Workers must be >= 0, got %d", c.Workers)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("config: Timeout must be > 0, got %v", c.Timeout)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LogFormat must be text or json, got %q", c.LogFormat)
	}

	if c.BuildID == "" {
		return fmt.Errorf("config: BuildID must not be empty")
	}

	return nil
}

// SlogLevel parses LogLevel into a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: LogLevel must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return lvl, nil
}
