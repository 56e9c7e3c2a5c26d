package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/config"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/logging"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/scheduler"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/server"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("FEG_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	// Initialize run reports
	var notifiers []notify.Notifier
	if cfg.Notify.Slack.Enabled {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notify.Slack.WebhookURL, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Webhook.Enabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Secret))
	}

	// Wire up generation
	gen, err := alerting.NewGenerator(store, logger,
		alerting.WithLeadDays(cfg.Alerts.LeadDays...),
		alerting.WithConcurrency(cfg.Alerts.Concurrency),
	)
	if err != nil {
		return fmt.Errorf("init generator: %w", err)
	}
	runner := scheduler.NewRunner(gen, notifiers, cfg.Scheduler.RunTimeout, logger)
	sched, err := scheduler.New(runner, cfg.Scheduler.Schedule, cfg.Scheduler.RunOnStart, logger)
	if err != nil {
		return err
	}

	apiServer := server.NewServer(alerting.NewInbox(store, logger), runner, store, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("guardian started", "listen", cfg.Server.Listen, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
