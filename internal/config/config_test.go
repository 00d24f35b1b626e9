package config

import (
	"strings"
	"testing"

	patrimonial "github.com/tingold/patrimonial-export"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Export.DefaultFormat != string(patrimonial.FormatShapefile) {
		t.Errorf("expected shapefile default, got %q", cfg.Export.DefaultFormat)
	}
	if cfg.Export.ScratchDir != "" {
		t.Errorf("expected empty scratch dir, got %q", cfg.Export.ScratchDir)
	}
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATRIMONIAL_LOG_LEVEL", "debug")
	t.Setenv("PATRIMONIAL_LOG_FORMAT", "console")
	t.Setenv("PATRIMONIAL_EXPORT_SCRATCH_DIR", dir)
	t.Setenv("PATRIMONIAL_EXPORT_DEFAULT_FORMAT", "flatgeobuf")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}

	opts := cfg.Export.Options()
	if opts.ScratchDir != dir {
		t.Errorf("expected scratch dir %q, got %q", dir, opts.ScratchDir)
	}
	if opts.DefaultFormat != patrimonial.FormatFlatGeobuf {
		t.Errorf("expected flatgeobuf, got %q", opts.DefaultFormat)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("PATRIMONIAL_EXPORT_DEFAULT_FORMAT", "kml")

	if _, err := Load(); err == nil {
		t.Error("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Log:    LogConfig{Level: "warn", Format: "json"},
		Export: ExportConfig{DefaultFormat: "shapefile"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"uppercase level", func(c *Config) { c.Log.Level = "DEBUG" }, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"empty level", func(c *Config) { c.Log.Level = "" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty default format", func(c *Config) { c.Export.DefaultFormat = "" }, "export.default_format"},
		{"bad default format", func(c *Config) { c.Export.DefaultFormat = "gpkg" }, "export.default_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExportConfig_Options(t *testing.T) {
	opts := ExportConfig{}.Options()
	if opts.DefaultFormat != patrimonial.FormatShapefile {
		t.Errorf("expected shapefile when unset, got %q", opts.DefaultFormat)
	}
}
