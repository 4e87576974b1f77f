package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	TMDB          TMDBConfig          `mapstructure:"tmdb" yaml:"tmdb"`
	Jellyfin      JellyfinConfig      `mapstructure:"jellyfin" yaml:"jellyfin"`
	Collections   CollectionsConfig   `mapstructure:"collections" yaml:"collections"`
	History       HistoryConfig       `mapstructure:"history" yaml:"history"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// APIKey, when set, is required in the X-Api-Key header for /api/v1 routes.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// TMDBConfig holds TMDB API client configuration.
type TMDBConfig struct {
	APIKey            string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
	Timeout           int     `mapstructure:"timeout" yaml:"timeout"` // seconds
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// JellyfinConfig holds the local catalog (Jellyfin server) configuration.
type JellyfinConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	UserID  string `mapstructure:"user_id" yaml:"user_id"`
	Timeout int    `mapstructure:"timeout" yaml:"timeout"` // seconds
}

// CollectionsConfig holds the network collection sync configuration.
type CollectionsConfig struct {
	// Networks is a comma-separated list of TMDB network ids, e.g. "49,2739".
	Networks   string `mapstructure:"networks" yaml:"networks"`
	Cron       string `mapstructure:"cron" yaml:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start" yaml:"run_on_start"`
	MaxPages   int    `mapstructure:"max_pages" yaml:"max_pages"`
}

// HistoryConfig holds run history retention settings.
type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days" yaml:"retention_days"`
}

// NotificationsConfig holds the run webhook settings. An empty URL disables it.
type NotificationsConfig struct {
	WebhookURL    string            `mapstructure:"webhook_url" yaml:"webhook_url"`
	Method        string            `mapstructure:"method" yaml:"method"`
	Username      string            `mapstructure:"username" yaml:"username"`
	Password      string            `mapstructure:"password" yaml:"password"`
	Headers       map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	OnFailureOnly bool              `mapstructure:"on_failure_only" yaml:"on_failure_only"`
	Timeout       int               `mapstructure:"timeout" yaml:"timeout"` // seconds
}

// DefaultSyncCron runs the sync every Sunday at 1am.
const DefaultSyncCron = "0 1 * * 0"

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8095,
		},
		Database: DatabaseConfig{
			Path: "./data/netcollections.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: TMDBConfig{
			APIKey:            EmbeddedTMDBKey,
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           30,
			RequestsPerSecond: 20,
			Burst:             5,
		},
		Jellyfin: JellyfinConfig{
			URL:     "http://localhost:8096",
			Timeout: 30,
		},
		Collections: CollectionsConfig{
			Cron:     DefaultSyncCron,
			MaxPages: 500,
		},
		History: HistoryConfig{
			RetentionDays: 90,
		},
		Notifications: NotificationsConfig{
			Method:  "POST",
			Timeout: 10,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.netcollections")
	}

	v.SetEnvPrefix("NETCOLLECTIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_key", "")

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("tmdb.api_key", d.TMDB.APIKey)
	v.SetDefault("tmdb.base_url", d.TMDB.BaseURL)
	v.SetDefault("tmdb.timeout", d.TMDB.Timeout)
	v.SetDefault("tmdb.requests_per_second", d.TMDB.RequestsPerSecond)
	v.SetDefault("tmdb.burst", d.TMDB.Burst)

	v.SetDefault("jellyfin.url", d.Jellyfin.URL)
	v.SetDefault("jellyfin.api_key", "")
	v.SetDefault("jellyfin.user_id", "")
	v.SetDefault("jellyfin.timeout", d.Jellyfin.Timeout)

	v.SetDefault("collections.networks", "")
	v.SetDefault("collections.cron", d.Collections.Cron)
	v.SetDefault("collections.run_on_start", false)
	v.SetDefault("collections.max_pages", d.Collections.MaxPages)

	v.SetDefault("history.retention_days", d.History.RetentionDays)

	v.SetDefault("notifications.webhook_url", "")
	v.SetDefault("notifications.method", d.Notifications.Method)
	v.SetDefault("notifications.username", "")
	v.SetDefault("notifications.password", "")
	v.SetDefault("notifications.on_failure_only", false)
	v.SetDefault("notifications.timeout", d.Notifications.Timeout)
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Collections.Cron) == "" {
		return fmt.Errorf("collections.cron must not be empty")
	}
	if m := strings.ToUpper(c.Notifications.Method); m != "" && m != "POST" && m != "PUT" {
		return fmt.Errorf("notifications.method must be POST or PUT")
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return fmt.Errorf("tmdb.requests_per_second must not be negative")
	}
	return nil
}

const redacted = "********"

// Redacted returns a copy with API keys and passwords masked.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(v *string) {
		if *v != "" {
			*v = redacted
		}
	}
	mask(&out.Server.APIKey)
	mask(&out.TMDB.APIKey)
	mask(&out.Jellyfin.APIKey)
	mask(&out.Notifications.Password)

	if len(c.Notifications.Headers) > 0 {
		out.Notifications.Headers = make(map[string]string, len(c.Notifications.Headers))
		for k := range c.Notifications.Headers {
			out.Notifications.Headers[k] = redacted
		}
	}
	return &out
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
