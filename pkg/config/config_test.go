package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "imagequant-mcp-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				MaxColors:      256,
				QualityMin:     0,
				QualityTarget:  80,
				Speed:          4,
				DitheringLevel: 1.0,
				LogLevel:       "info",
			},
			wantErr: false,
		},
		{
			name: "max colors too low",
			config: &Config{
				MaxColors: 1, QualityTarget: 80, Speed: 4, DitheringLevel: 1, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "max colors too high",
			config: &Config{
				MaxColors: 257, QualityTarget: 80, Speed: 4, DitheringLevel: 1, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "quality min exceeds target",
			config: &Config{
				MaxColors: 256, QualityMin: 90, QualityTarget: 50, Speed: 4, DitheringLevel: 1, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "speed out of range",
			config: &Config{
				MaxColors: 256, QualityTarget: 80, Speed: 11, DitheringLevel: 1, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "dithering level out of range",
			config: &Config{
				MaxColors: 256, QualityTarget: 80, Speed: 4, DitheringLevel: 1.5, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				MaxColors: 256, QualityTarget: 80, Speed: 4, DitheringLevel: 1, LogLevel: "invalid",
			},
			wantErr: true,
		},
		{
			name: "log file directory does not exist",
			config: &Config{
				MaxColors: 256, QualityTarget: 80, Speed: 4, DitheringLevel: 1, LogLevel: "info",
				LogFile: filepath.Join(tempDir, "nonexistent-dir", "out.log"),
			},
			wantErr: true,
		},
		{
			name: "log file directory exists",
			config: &Config{
				MaxColors: 256, QualityTarget: 80, Speed: 4, DitheringLevel: 1, LogLevel: "info",
				LogFile: filepath.Join(tempDir, "out.log"),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileIsError(t *testing.T) {
	orig := getConfigFilePath
	defer func() { getConfigFilePath = orig }()
	getConfigFilePath = func() string { return "/nonexistent/imagequant-mcp/config.json" }

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoad_AppliesDefaultsForAbsentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"max_colors": 64}`), 0644); err != nil {
		t.Fatal(err)
	}

	orig := getConfigFilePath
	defer func() { getConfigFilePath = orig }()
	getConfigFilePath = func() string { return path }

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxColors != 64 {
		t.Errorf("MaxColors = %d, want 64 (from file)", cfg.MaxColors)
	}
	if cfg.QualityTarget != DefaultQualityTarget {
		t.Errorf("QualityTarget = %d, want default %d", cfg.QualityTarget, DefaultQualityTarget)
	}
	if cfg.Speed != DefaultSpeed {
		t.Errorf("Speed = %d, want default %d", cfg.Speed, DefaultSpeed)
	}
}
