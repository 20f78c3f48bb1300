package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// Supported log levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var validLogLevels = map[string]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

var validLogFormats = []string{LogFormatText, LogFormatJSON}

// Level returns the slog level for the configured log level
func (c *Config) Level() slog.Level {
	if level, ok := validLogLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// Validate checks the values that have a fixed set of options
func (c *Config) Validate() error {
	if _, ok := validLogLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unsupported log level: %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("unsupported log format: %q (valid: %v)", c.LogFormat, validLogFormats)
	}
	if c.Output == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return nil
}
