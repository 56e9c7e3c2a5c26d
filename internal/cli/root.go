package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/config"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/logging"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/scheduler"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "feg",
	Short: "Fleet Expiry Guardian - expiry alerts for fleet documents and maintenance",
	Long: `Fleet Expiry Guardian derives reminder alerts from document expiry dates and
maintenance due dates. Alerts are generated at fixed lead times before each
date, exactly once per checkpoint, and can be listed and acknowledged.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.feg/config.yaml)")
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	return logging.New(cfg.Logging)
}

// initStorage creates a storage backend from config.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	return store, nil
}

// initNotifiers creates run-report notifiers from config.
func initNotifiers(cfg *config.Config) []notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(
			cfg.Notify.Slack.WebhookURL,
			cfg.Notify.Slack.Channel,
		))
	}

	if cfg.Notify.Webhook.Enabled && cfg.Notify.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(
			cfg.Notify.Webhook.URL,
			cfg.Notify.Webhook.Secret,
		))
	}

	return notifiers
}

// initGenerator creates a generator over store using the configured lead days.
func initGenerator(cfg *config.Config, store storage.Storage, logger *slog.Logger) (*alerting.Generator, error) {
	return alerting.NewGenerator(store, logger,
		alerting.WithLeadDays(cfg.Alerts.LeadDays...),
		alerting.WithConcurrency(cfg.Alerts.Concurrency),
	)
}

// app bundles what most commands need.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Storage
	closer io.Closer
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.closer.Close()
}

// newApp loads config and opens logging and storage. The caller must Close it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store, closer: closer}, nil
}

// newRunner wires a generator and the configured notifiers.
func (a *app) newRunner() (*scheduler.Runner, error) {
	gen, err := initGenerator(a.cfg, a.store, a.logger)
	if err != nil {
		return nil, err
	}
	return scheduler.NewRunner(gen, initNotifiers(a.cfg), a.cfg.Scheduler.RunTimeout, a.logger), nil
}
