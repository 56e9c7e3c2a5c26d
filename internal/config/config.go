package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all Fleet Expiry Guardian configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines the record store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres or memory
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// AlertsConfig defines alert generation settings.
type AlertsConfig struct {
	LeadDays    []int `mapstructure:"lead_days"`
	Concurrency int   `mapstructure:"concurrency"`
}

// SchedulerConfig defines the periodic generation trigger.
type SchedulerConfig struct {
	Schedule   string        `mapstructure:"schedule"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	RunOnStart bool          `mapstructure:"run_on_start"`
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NotifyConfig defines where run reports are sent.
type NotifyConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings. File enables rotation through
// lumberjack; empty means stderr.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from file, a .env file in the working directory
// and environment variables, in increasing precedence.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".feg"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", filepath.Join(home, ".feg", "guardian.db"))
	v.SetDefault("storage.dsn", "")
	v.SetDefault("alerts.lead_days", []int{7, 14, 30})
	v.SetDefault("alerts.concurrency", 1)
	v.SetDefault("scheduler.schedule", "@every 24h")
	v.SetDefault("scheduler.run_timeout", "5m")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("notify.slack.enabled", false)
	v.SetDefault("notify.slack.webhook_url", "")
	v.SetDefault("notify.slack.channel", "#fleet-ops")
	v.SetDefault("notify.webhook.enabled", false)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.webhook.secret", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	// Environment variables
	v.SetEnvPrefix("FEG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if len(c.Alerts.LeadDays) == 0 {
		return errors.New("alerts.lead_days must not be empty")
	}
	for _, d := range c.Alerts.LeadDays {
		if d < 0 {
			return fmt.Errorf("alerts.lead_days: %d is negative", d)
		}
	}
	if c.Alerts.Concurrency < 1 {
		return fmt.Errorf("alerts.concurrency must be at least 1, got %d", c.Alerts.Concurrency)
	}

	if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
		return fmt.Errorf("scheduler.schedule %q: %w", c.Scheduler.Schedule, err)
	}
	if c.Scheduler.RunTimeout <= 0 {
		return errors.New("scheduler.run_timeout must be positive")
	}

	if c.Notify.Slack.Enabled && c.Notify.Slack.WebhookURL == "" {
		return errors.New("notify.slack.webhook_url is required when slack is enabled")
	}
	if c.Notify.Webhook.Enabled && c.Notify.Webhook.URL == "" {
		return errors.New("notify.webhook.url is required when the webhook is enabled")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}
