// Package config loads the watermark tool configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/lz-wang/photo-watermark/pkg/watermark"
)

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	// StateFile holds the last used settings, restored on startup.
	StateFile string        `mapstructure:"state_file"`
	Output    OutputConfig  `mapstructure:"output"`
	FontDirs  []string      `mapstructure:"font_dirs"`
	Preview   PreviewConfig `mapstructure:"preview"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// OutputConfig controls encoding of exported images.
type OutputConfig struct {
	JPEGQuality    int    `mapstructure:"jpeg_quality"`
	JPEGBackground string `mapstructure:"jpeg_background"` // hex color used to flatten transparency
}

// PreviewConfig is the size of the preview area.
type PreviewConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise watermark.yaml is
// searched in ., ./configs and the user config directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("state_file", defaultStateFile())
	v.SetDefault("output.jpeg_quality", 100)
	v.SetDefault("output.jpeg_background", "#ffffff")
	v.SetDefault("font_dirs", []string{})
	v.SetDefault("preview.width", 600)
	v.SetDefault("preview.height", 400)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("watermark")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "photo-watermark"))
		}
	}

	// WATERMARK_LOGGING_LEVEL, WATERMARK_OUTPUT_JPEG_QUALITY, ...
	v.SetEnvPrefix("WATERMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if cfg.Output.JPEGQuality < 1 || cfg.Output.JPEGQuality > 100 {
		return nil, fmt.Errorf("output.jpeg_quality must be in [1,100], got %d", cfg.Output.JPEGQuality)
	}
	if _, err := watermark.ParseHexColor(cfg.Output.JPEGBackground); err != nil {
		return nil, fmt.Errorf("output.jpeg_background: %w", err)
	}
	return &cfg, nil
}

// EncodeOptions converts the output section for the exporter.
func (c *Config) EncodeOptions() watermark.EncodeOptions {
	opts := watermark.DefaultEncodeOptions()
	opts.JPEGQuality = c.Output.JPEGQuality
	if bg, err := watermark.ParseHexColor(c.Output.JPEGBackground); err == nil {
		opts.Background = bg
	}
	return opts
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "photo-watermark", "last.ini")
}
