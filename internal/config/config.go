// Package config loads the export function configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	patrimonial "github.com/tingold/patrimonial-export"
)

// Config holds all function configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Export ExportConfig `mapstructure:"export"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type ExportConfig struct {
	ScratchDir    string `mapstructure:"scratch_dir"`
	DefaultFormat string `mapstructure:"default_format"`
}

// Options converts the export section to library options.
func (e ExportConfig) Options() *patrimonial.Options {
	opts := patrimonial.DefaultOptions()
	opts.ScratchDir = e.ScratchDir
	if e.DefaultFormat != "" {
		opts.DefaultFormat = patrimonial.Format(e.DefaultFormat)
	}
	return opts
}

// Load reads configuration from an optional file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("export.scratch_dir", "")
	v.SetDefault("export.default_format", string(patrimonial.FormatShapefile))

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PATRIMONIAL_LOG_LEVEL → log.level
	v.SetEnvPrefix("PATRIMONIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	var errs []string

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil || c.Log.Level == "" {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	if _, err := patrimonial.ParseFormat(c.Export.DefaultFormat, ""); err != nil || c.Export.DefaultFormat == "" {
		errs = append(errs, fmt.Sprintf("export.default_format must be %s or %s, got %q",
			patrimonial.FormatShapefile, patrimonial.FormatFlatGeobuf, c.Export.DefaultFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
