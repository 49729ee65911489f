// Package config loads settings for the collection server and the expense page.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MYEXPENSES"

// Storage backends
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Web     WebConfig
	Storage StorageConfig
	Log     LogConfig
}

// ServerConfig holds the collection server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// WebConfig holds the expense page settings
type WebConfig struct {
	Addr            string        `mapstructure:"addr"`
	APIBaseURL      string        `mapstructure:"api_base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
}

// StorageConfig selects and configures the collection repository
type StorageConfig struct {
	Backend    string        `mapstructure:"backend"`
	BadgerDir  string        `mapstructure:"badger_dir"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("web.addr", ":3000")
	v.SetDefault("web.api_base_url", "http://localhost:5000")
	v.SetDefault("web.request_timeout", 10*time.Second)
	v.SetDefault("web.shutdown_timeout", 15*time.Second)
	v.SetDefault("web.session_ttl", 30*time.Minute)

	v.SetDefault("storage.backend", BackendBadger)
	v.SetDefault("storage.badger_dir", "./data/badger")
	v.SetDefault("storage.sqlite_path", "./data/expenses.db")
	v.SetDefault("storage.cache_ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
}

// Load reads configuration from defaults, an optional YAML file at configPath,
// a .env file in the working directory, and MYEXPENSES_* environment variables,
// in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if c.Web.Addr == "" {
		errs = append(errs, "web.addr must not be empty")
	}

	if parsed, err := url.Parse(c.Web.APIBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid web.api_base_url '%s': %v", c.Web.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid web.api_base_url '%s': scheme must be http or https", c.Web.APIBaseURL))
	}

	if c.Web.RequestTimeout < 0 {
		errs = append(errs, "web.request_timeout must not be negative")
	}
	if c.Web.SessionTTL <= 0 {
		errs = append(errs, "web.session_ttl must be positive")
	}

	switch c.Storage.Backend {
	case BackendBadger:
		if c.Storage.BadgerDir == "" {
			errs = append(errs, "storage.badger_dir is required for the badger backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "storage.sqlite_path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid storage.backend '%s': must be one of [%s %s]",
			c.Storage.Backend, BackendBadger, BackendSQLite))
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log.level: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Logger builds the root logger from the log settings
func (c *Config) Logger() logger.Logger {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		level = logger.InfoLevel
	}
	return logger.NewJSONLogger(nil, level)
}
