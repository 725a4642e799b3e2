package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: LIVELOX_DL_OUTPUT_DIR sets
// output.dir.
const EnvPrefix = "LIVELOX_DL"

// Config holds all settings of one run.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Livelox LiveloxConfig `mapstructure:"livelox"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Render  RenderConfig  `mapstructure:"render"`
	Discord DiscordConfig `mapstructure:"discord"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LiveloxConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Quality int    `mapstructure:"quality"`
}

type RenderConfig struct {
	Labels       bool `mapstructure:"labels"`
	CropToRoutes bool `mapstructure:"crop_to_routes"`
	CropMargin   int  `mapstructure:"crop_margin"`
}

// DiscordConfig enables publishing when both fields are set.
type DiscordConfig struct {
	Token     string `mapstructure:"token"`
	ChannelID string `mapstructure:"channel_id"`
}

func (d DiscordConfig) Enabled() bool {
	return strings.TrimSpace(d.Token) != "" && strings.TrimSpace(d.ChannelID) != ""
}

// Load reads configuration from defaults, an optional livelox-dl.yaml, a
// .env file and the environment, in increasing priority. A non-empty
// configFile must exist.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("livelox.base_url", "https://www.livelox.com")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.requests_per_second", 2)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.quality", 90)
	v.SetDefault("render.labels", false)
	v.SetDefault("render.crop_to_routes", false)
	v.SetDefault("render.crop_margin", 100)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.channel_id", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("livelox-dl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "livelox-dl"))
		}
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
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

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	if u, err := url.Parse(c.Livelox.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("livelox.base_url %q must be an absolute URL", c.Livelox.BaseURL))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, "http.timeout must be positive")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		errs = append(errs, "http.requests_per_second must not be negative")
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output.dir is required")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		errs = append(errs, fmt.Sprintf("output.quality must be 1-100, got %d", c.Output.Quality))
	}
	if c.Render.CropMargin < 0 {
		errs = append(errs, "render.crop_margin must not be negative")
	}
	if (strings.TrimSpace(c.Discord.Token) == "") != (strings.TrimSpace(c.Discord.ChannelID) == "") {
		errs = append(errs, "discord.token and discord.channel_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
