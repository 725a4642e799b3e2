package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://www.livelox.com", cfg.Livelox.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.InDelta(t, 2.0, cfg.HTTP.RequestsPerSecond, 1e-9)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, 90, cfg.Output.Quality)
	assert.False(t, cfg.Render.Labels)
	assert.False(t, cfg.Render.CropToRoutes)
	assert.Equal(t, 100, cfg.Render.CropMargin)
	assert.False(t, cfg.Discord.Enabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LIVELOX_DL_OUTPUT_DIR", "/tmp/maps")
	t.Setenv("LIVELOX_DL_HTTP_TIMEOUT", "5s")
	t.Setenv("LIVELOX_DL_RENDER_LABELS", "true")
	t.Setenv("LIVELOX_DL_DISCORD_TOKEN", "secret")
	t.Setenv("LIVELOX_DL_DISCORD_CHANNEL_ID", "123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/maps", cfg.Output.Dir)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Render.Labels)
	assert.True(t, cfg.Discord.Enabled())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := []byte(`
log:
  level: debug
output:
  quality: 75
render:
  crop_to_routes: true
  crop_margin: 40
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "livelox-dl.yaml"), yaml, 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 75, cfg.Output.Quality)
	assert.True(t, cfg.Render.CropToRoutes)
	assert.Equal(t, 40, cfg.Render.CropMargin)

	t.Setenv("LIVELOX_DL_OUTPUT_QUALITY", "60")
	cfg, err = Load(filepath.Join(dir, "livelox-dl.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Output.Quality, "environment wins over the file")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LIVELOX_DL_OUTPUT_DIR=from-dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("LIVELOX_DL_OUTPUT_DIR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LIVELOX_DL_OUTPUT_QUALITY", "0")

	_, err := Load("")
	assert.ErrorContains(t, err, "output.quality")
}

func validConfig() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Livelox: LiveloxConfig{BaseURL: "https://www.livelox.com"},
		HTTP:    HTTPConfig{Timeout: time.Second},
		Output:  OutputConfig{Dir: ".", Quality: 90},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"relative base url", func(c *Config) { c.Livelox.BaseURL = "livelox.com" }, "livelox.base_url"},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout"},
		{"negative rate", func(c *Config) { c.HTTP.RequestsPerSecond = -1 }, "http.requests_per_second"},
		{"no dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"quality too high", func(c *Config) { c.Output.Quality = 101 }, "output.quality"},
		{"negative margin", func(c *Config) { c.Render.CropMargin = -1 }, "render.crop_margin"},
		{"token without channel", func(c *Config) { c.Discord.Token = "t" }, "discord.token"},
		{"blank token with channel", func(c *Config) {
			c.Discord.Token = "  "
			c.Discord.ChannelID = "123"
		}, "discord.token"},
		{"token with blank channel", func(c *Config) {
			c.Discord.Token = "t"
			c.Discord.ChannelID = "\t"
		}, "discord.token"},
		{"both blank", func(c *Config) {
			c.Discord.Token = " "
			c.Discord.ChannelID = " "
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
