package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// Generator derives expiry alerts from source records. For every record and
// lead time it makes sure exactly one alert exists for the checkpoint
// (record, alert type, target date minus lead days). Runs are idempotent.
type Generator struct {
	store       storage.Storage
	sources     []Source
	leadDays    []int
	concurrency int
	logger      *slog.Logger
	now         func() time.Time

	// mu serializes runs within the process. The store's unique key on the
	// checkpoint covers runs in other processes.
	mu sync.Mutex
}

// Option configures a Generator.
type Option func(*Generator)

// WithLeadDays sets the checkpoints in days before the target date.
func WithLeadDays(days ...int) Option {
	return func(g *Generator) { g.leadDays = days }
}

// WithConcurrency sets how many records are processed in parallel.
// Checkpoints of a single record are always handled in order.
func WithConcurrency(n int) Option {
	return func(g *Generator) { g.concurrency = n }
}

// WithRegistry replaces the default document and maintenance sources.
func WithRegistry(r *Registry) Option {
	return func(g *Generator) { g.sources = r.All() }
}

// WithClock overrides the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator over store.
func NewGenerator(store storage.Storage, logger *slog.Logger, opts ...Option) (*Generator, error) {
	g := &Generator{
		store:       store,
		sources:     DefaultRegistry().All(),
		leadDays:    DefaultLeadDays,
		concurrency: 1,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	days, err := NormalizeLeadDays(g.leadDays)
	if err != nil {
		return nil, err
	}
	g.leadDays = days
	if g.concurrency < 1 {
		g.concurrency = 1
	}
	if len(g.sources) == 0 {
		return nil, errors.New("generator needs at least one source")
	}
	return g, nil
}

// LeadDays returns the normalized lead days in ascending order.
func (g *Generator) LeadDays() []int {
	return slices.Clone(g.leadDays)
}

// NormalizeLeadDays sorts and deduplicates lead days. Negative values and an
// empty set are rejected.
func NormalizeLeadDays(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, errors.New("at least one lead day is required")
	}
	out := slices.Clone(days)
	for _, d := range out {
		if d < 0 {
			return nil, fmt.Errorf("lead day %d is negative", d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Run performs one generation pass over every source.
//
// It returns an error wrapping ErrStoreUnavailable if source records cannot
// be loaded, or the context error if ctx is done. Failures scoped to a single
// record are collected in the report instead. The report is non-nil even when
// an error is returned.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := newReport(g.now().UTC(), g.LeadDays())
	g.logger.Debug("alert generation started", "lead_days", g.leadDays, "sources", len(g.sources))

	var runErr error
	for _, src := range g.sources {
		if runErr = g.runSource(ctx, src, report); runErr != nil {
			break
		}
	}
	report.FinishedAt = g.now().UTC()

	totals := report.Totals()
	attrs := []any{
		"scanned", totals.Scanned,
		"created", totals.Created,
		"existing", totals.Existing,
		"skipped", totals.Skipped,
		"failed", totals.Failed,
		"duration", report.Duration(),
	}
	if runErr != nil {
		g.logger.Error("alert generation aborted", append(attrs, "error", runErr)...)
		return report, runErr
	}
	g.logger.Info("alert generation finished", attrs...)
	return report, nil
}

func (g *Generator) runSource(ctx context.Context, src Source, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind := src.Kind()
	entities, err := src.entities(ctx, g.store)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: list %s sources: %w", ErrStoreUnavailable, kind, err)
	}
	stats := report.addSource(kind, len(entities))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for _, e := range entities {
		e := e
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			g.processEntity(ctx, kind, e, stats, report)
			return nil
		})
	}
	_ = eg.Wait()
	return ctx.Err()
}

func (g *Generator) processEntity(ctx context.Context, kind model.AlertType, e entity, stats *SourceStats, report *Report) {
	target, err := e.target()
	if errors.Is(err, model.ErrNullDate) {
		report.record(stats, func(s *SourceStats) { s.Skipped++ })
		return
	}
	if err != nil {
		g.logger.Error("skip source record", "alert_type", kind, "entity", e.id, "error", err)
		report.fail(stats, &EntityError{Kind: kind, EntityID: e.id, Err: err})
		return
	}

	for _, days := range g.leadDays {
		if ctx.Err() != nil {
			return
		}
		alertDate := model.AddDays(target, -days)
		created, err := g.ensureAlert(ctx, kind, e, target, alertDate)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			g.logger.Error("ensure alert",
				"alert_type", kind,
				"entity", e.id,
				"lead_days", days,
				"alert_date", model.FormatDate(alertDate),
				"error", err,
			)
			report.fail(stats, &EntityError{
				Kind: kind, EntityID: e.id, LeadDays: days, AlertDate: alertDate, Err: err,
			})
		case created:
			report.record(stats, func(s *SourceStats) { s.Created++ })
		default:
			report.record(stats, func(s *SourceStats) { s.Existing++ })
		}
	}
}

// ensureAlert makes sure the checkpoint has an alert. It reports whether a
// new row was inserted.
func (g *Generator) ensureAlert(ctx context.Context, kind model.AlertType, e entity, target, alertDate time.Time) (bool, error) {
	key := model.AlertKey{SourceID: e.id, AlertType: kind, AlertDate: alertDate}
	_, err := g.store.FindAlert(ctx, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("find alert: %w", err)
	}

	alert := e.build(target, alertDate)
	alert.IsSent = false
	if err := g.store.InsertAlert(ctx, alert); err != nil {
		// Another run inserted the checkpoint between our lookup and insert.
		if errors.Is(err, storage.ErrAlertExists) {
			return false, nil
		}
		return false, fmt.Errorf("insert alert: %w", err)
	}
	g.logger.Debug("alert created",
		"alert_type", kind,
		"entity", e.id,
		"alert_date", model.FormatDate(alertDate),
		"alert_id", alert.ID,
	)
	return true, nil
}
