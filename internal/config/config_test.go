package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("AppData", filepath.Join(dir, "AppData"))
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "watermark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(writeConfig(t, dir, ""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 100, cfg.Output.JPEGQuality)
	assert.Equal(t, "#ffffff", cfg.Output.JPEGBackground)
	assert.Equal(t, 600, cfg.Preview.Width)
	assert.Equal(t, 400, cfg.Preview.Height)
	assert.Empty(t, cfg.FontDirs)
	assert.Equal(t, "last.ini", filepath.Base(cfg.StateFile))
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
logging:
  level: debug
  format: json
state_file: /tmp/state.ini
output:
  jpeg_quality: 85
  jpeg_background: "#000000"
font_dirs:
  - /opt/fonts
preview:
  width: 800
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/state.ini", cfg.StateFile)
	assert.Equal(t, 85, cfg.Output.JPEGQuality)
	assert.Equal(t, []string{"/opt/fonts"}, cfg.FontDirs)
	assert.Equal(t, 800, cfg.Preview.Width)
	assert.Equal(t, 400, cfg.Preview.Height)

	opts := cfg.EncodeOptions()
	assert.Equal(t, 85, opts.JPEGQuality)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, opts.Background)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := isolate(t)
	t.Setenv("WATERMARK_LOGGING_LEVEL", "warn")
	t.Setenv("WATERMARK_OUTPUT_JPEG_QUALITY", "70")

	cfg, err := Load(writeConfig(t, dir, "logging:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 70, cfg.Output.JPEGQuality)
}

func TestLoadValidation(t *testing.T) {
	dir := isolate(t)

	_, err := Load(writeConfig(t, dir, "output:\n  jpeg_quality: 0\n"))
	assert.ErrorContains(t, err, "jpeg_quality")

	_, err = Load(writeConfig(t, dir, "output:\n  jpeg_background: nope\n"))
	assert.ErrorContains(t, err, "jpeg_background")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
