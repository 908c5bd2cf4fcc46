// Package testutil provides testing utilities for the imagequant MCP server.
package testutil

import (
	"testing"

	"github.com/pixelforge/imagequant/pkg/config"
)

// NewTestConfig returns a valid default configuration for tests. Unlike
// config.Load, it never touches the filesystem, so tests don't need a real
// config file to exist on the machine running them.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		MaxColors:      config.DefaultMaxColors,
		QualityMin:     config.DefaultQualityMin,
		QualityTarget:  config.DefaultQualityTarget,
		Speed:          config.DefaultSpeed,
		DitheringLevel: config.DefaultDitherLevel,
		LogLevel:       config.DefaultLogLevel,
	}
}
