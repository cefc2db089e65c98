package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the console needs at start-up.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	Export ExportConfig `mapstructure:"export"`
}

// APIConfig points the console at a ShiftRoster server.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration with precedence env > file > defaults.
// An empty path searches ./roster.yaml and the user config dir.
func Load(path string) (*Config, error) {
	v := viper.New()

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		cfgDir = "."
	}
	home, _ := os.UserHomeDir()

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", "15s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", filepath.Join(cfgDir, "roster", "roster.log"))

	v.SetDefault("store.path", filepath.Join(cfgDir, "roster", "roster.db"))
	v.SetDefault("export.dir", home)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("roster")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(cfgDir, "roster"))
	}

	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid config: api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid config: api.base_url scheme must be http or https")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid config: api.timeout must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("invalid config: store.path must not be empty")
	}
	return nil
}
