// Package config provides configuration management for the imagequant MCP
// server.
//
// Configuration is loaded exclusively from a JSON file at
// ~/.config/imagequant-mcp/config.json. No environment variables or
// auto-discovery mechanisms are used - every tunable must be explicitly
// configured or accept its documented default.
//
// Example config file:
//
//	{
//	  "max_colors": 256,
//	  "quality_min": 0,
//	  "quality_target": 80,
//	  "speed": 4,
//	  "dithering_level": 1.0,
//	  "log_level": "info",
//	  "log_file": ""
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the imagequant MCP server configuration. Every field
// defaults sensibly if not specified in the config file; nothing here is
// required the way an external binary path would be.
type Config struct {
	// MaxColors is the palette size ceiling passed to every quantize_image
	// call that doesn't override it. 2-256, defaults to 256.
	MaxColors int `json:"max_colors"`

	// QualityMin is the minimum acceptable quality (0-100); quantization
	// fails rather than return a palette below it. Defaults to 0 (no floor).
	QualityMin int `json:"quality_min"`

	// QualityTarget is the quality the quantizer stops improving past.
	// 0-100, defaults to 80.
	QualityTarget int `json:"quality_target"`

	// Speed is the speed/quality tradeoff preset, 1 (slowest, best) to 10
	// (fastest). Defaults to 4.
	Speed int `json:"speed"`

	// DitheringLevel is the Floyd-Steinberg strength, 0 (off) to 1 (full).
	// Defaults to 1.0.
	DitheringLevel float64 `json:"dithering_level"`

	// LogLevel is the logging verbosity level.
	// Valid values: "debug", "info", "warn", "error". Defaults to "info".
	LogLevel string `json:"log_level"`

	// LogFile is an optional log file path. Validate checks that its
	// directory exists; the server's logger writes to the console only and
	// never opens this file. Defaults to empty string.
	LogFile string `json:"log_file"`
}

// Default configuration values applied when fields are not specified in the
// config file.
const (
	DefaultMaxColors     = 256
	DefaultQualityMin    = 0
	DefaultQualityTarget = 80
	DefaultSpeed         = 4
	DefaultDitherLevel   = 1.0
	DefaultLogLevel      = "info"
)

// Load loads configuration from the default config file at
// ~/.config/imagequant-mcp/config.json, applying defaults for anything not
// present in the file. Unlike a missing config file, a missing value inside
// an existing file is never an error -- every field has a usable default.
func Load() (*Config, error) {
	cfg := &Config{
		MaxColors:      DefaultMaxColors,
		QualityMin:     DefaultQualityMin,
		QualityTarget:  DefaultQualityTarget,
		Speed:          DefaultSpeed,
		DitheringLevel: DefaultDitherLevel,
		LogLevel:       DefaultLogLevel,
	}

	if err := cfg.loadFromFile(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w\ncreate one, or pass explicit options to the quantize_image tool", getConfigFilePath(), err)
		}
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// configJSON mirrors Config but every field is a pointer so loadFromFile
// can tell "absent" from "explicitly zero" and only overwrite defaults for
// fields the file actually sets.
type configJSON struct {
	MaxColors      *int     `json:"max_colors"`
	QualityMin     *int     `json:"quality_min"`
	QualityTarget  *int     `json:"quality_target"`
	Speed          *int     `json:"speed"`
	DitheringLevel *float64 `json:"dithering_level"`
	LogLevel       *string  `json:"log_level"`
	LogFile        *string  `json:"log_file"`
}

// loadFromFile loads configuration from the default config file location,
// overlaying only the fields present in the file onto the already
// defaulted Config.
func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(getConfigFilePath())
	if err != nil {
		return err
	}

	var cj configJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}

	if cj.MaxColors != nil {
		c.MaxColors = *cj.MaxColors
	}
	if cj.QualityMin != nil {
		c.QualityMin = *cj.QualityMin
	}
	if cj.QualityTarget != nil {
		c.QualityTarget = *cj.QualityTarget
	}
	if cj.Speed != nil {
		c.Speed = *cj.Speed
	}
	if cj.DitheringLevel != nil {
		c.DitheringLevel = *cj.DitheringLevel
	}
	if cj.LogLevel != nil {
		c.LogLevel = *cj.LogLevel
	}
	if cj.LogFile != nil {
		c.LogFile = *cj.LogFile
	}

	return nil
}

// Validate checks that every configured value is within the bounds the
// quantizer core itself enforces, so a bad config file fails fast at
// startup rather than surfacing as a confusing per-request error later.
func (c *Config) Validate() error {
	if c.MaxColors < 2 || c.MaxColors > 256 {
		return fmt.Errorf("max_colors must be between 2 and 256, got %d", c.MaxColors)
	}
	if c.QualityMin < 0 || c.QualityMin > 100 {
		return fmt.Errorf("quality_min must be between 0 and 100, got %d", c.QualityMin)
	}
	if c.QualityTarget < 0 || c.QualityTarget > 100 {
		return fmt.Errorf("quality_target must be between 0 and 100, got %d", c.QualityTarget)
	}
	if c.QualityMin > c.QualityTarget {
		return fmt.Errorf("quality_min (%d) must not exceed quality_target (%d)", c.QualityMin, c.QualityTarget)
	}
	if c.Speed < 1 || c.Speed > 10 {
		return fmt.Errorf("speed must be between 1 and 10, got %d", c.Speed)
	}
	if c.DitheringLevel < 0 || c.DitheringLevel > 1 {
		return fmt.Errorf("dithering_level must be between 0 and 1, got %f", c.DitheringLevel)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFile != "" {
		dir := filepath.Dir(c.LogFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("log file directory does not exist: %s", dir)
		}
	}

	return nil
}

// getConfigFilePath is a function variable that returns the default config
// file path. Can be overridden in tests.
var getConfigFilePath = func() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "imagequant-mcp", "config.json")
}
