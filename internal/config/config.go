package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FailurePolicyAllOrNothing = "all_or_nothing"
	FailurePolicyBestEffort   = "best_effort"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	ImageCache ImageCacheConfig `mapstructure:"image_cache"`
	Assembly   AssemblyConfig   `mapstructure:"assembly"`
	Publish    PublishConfig    `mapstructure:"publish"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
}

// GitHubConfig points the directory client at the repository holding the
// product images.
type GitHubConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Owner                string   `mapstructure:"owner"`
	Repo                 string   `mapstructure:"repo"`
	Token                string   `mapstructure:"token"`
	Timeout              int      `mapstructure:"timeout"` // seconds, 0 = no deadline
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"` // empty = document bundled in the binary
}

type ImageCacheConfig struct {
	MaxEntries   int  `mapstructure:"max_entries"`
	SingleFlight bool `mapstructure:"single_flight"`
	Timeout      int  `mapstructure:"timeout"` // seconds, 0 = no deadline
}

type AssemblyConfig struct {
	FailurePolicy       string `mapstructure:"failure_policy"`
	MaxConcurrentImages int    `mapstructure:"max_concurrent_images"` // 0 = one goroutine per URL
}

// PublishConfig enables pushing assembled catalogs to a Redis stream.
type PublishConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	Stream   string `mapstructure:"stream"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from a YAML file with environment variable
// overrides. A missing file is not an error: defaults and the environment
// still apply.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Assembly.FailurePolicy {
	case FailurePolicyAllOrNothing, FailurePolicyBestEffort:
	default:
		return fmt.Errorf("invalid assembly.failure_policy %q", c.Assembly.FailurePolicy)
	}

	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return fmt.Errorf("github.owner and github.repo are required")
	}
	if c.ImageCache.MaxEntries <= 0 {
		return fmt.Errorf("image_cache.max_entries must be positive, got %d", c.ImageCache.MaxEntries)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")

	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.owner", "Sparta-bootcamp-master-1team")
	v.SetDefault("github.repo", "KioskStorage")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", 30)
	v.SetDefault("github.max_requests_per_second", 0)
	v.SetDefault("github.proxies", []string{})

	v.SetDefault("catalog.path", "")

	v.SetDefault("image_cache.max_entries", 512)
	v.SetDefault("image_cache.single_flight", false)
	v.SetDefault("image_cache.timeout", 30)

	v.SetDefault("assembly.failure_policy", FailurePolicyAllOrNothing)
	v.SetDefault("assembly.max_concurrent_images", 0)

	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.host", "localhost")
	v.SetDefault("publish.port", 6379)
	v.SetDefault("publish.password", "")
	v.SetDefault("publish.database", 0)
	v.SetDefault("publish.stream", "kiosk:stream:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
