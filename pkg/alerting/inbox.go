package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// AlertView is an alert annotated for display relative to a point in time.
type AlertView struct {
	model.Alert
	Urgency   model.Urgency `json:"urgency"`
	DaysUntil int           `json:"days_until"`
}

// Inbox serves the user-facing side of alerts: listing, acknowledging and
// dashboard counts.
type Inbox struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewInbox creates an inbox over store.
func NewInbox(store storage.Storage, logger *slog.Logger) *Inbox {
	return &Inbox{store: store, logger: logger, now: time.Now}
}

// SetClock overrides the clock used for urgency and acknowledgement times.
func (i *Inbox) SetClock(now func() time.Time) { i.now = now }

// Classify returns the urgency of an alert at the given time.
func Classify(a model.Alert, now time.Time) model.Urgency {
	if a.IsAcknowledged {
		return model.UrgencyAcknowledged
	}
	days := model.DaysUntil(a.TargetDate, now)
	switch {
	case days <= 0:
		return model.UrgencyExpired
	case days <= model.CriticalWithinDays:
		return model.UrgencyCritical
	case days <= model.WarningWithinDays:
		return model.UrgencyWarning
	default:
		return model.UrgencyUpcoming
	}
}

// List returns alerts matching filter ordered by target date.
func (i *Inbox) List(ctx context.Context, filter model.AlertFilter) ([]AlertView, error) {
	alerts, err := i.store.ListAlerts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	now := i.now()
	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, AlertView{
			Alert:     a,
			Urgency:   Classify(a, now),
			DaysUntil: model.DaysUntil(a.TargetDate, now),
		})
	}
	return views, nil
}

// Acknowledge marks an alert as seen and returns its updated state.
// Acknowledging twice keeps the original timestamp.
func (i *Inbox) Acknowledge(ctx context.Context, id string) (*model.Alert, error) {
	if err := i.store.AcknowledgeAlert(ctx, id, i.now().UTC()); err != nil {
		return nil, fmt.Errorf("acknowledge alert: %w", err)
	}
	a, err := i.store.GetAlert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload alert: %w", err)
	}
	i.logger.Info("alert acknowledged", "alert_id", id, "user", a.UserID)
	return a, nil
}

// Summary counts a user's alerts. Critical alerts are unacknowledged ones
// whose target date is at most CriticalWithinDays away, including overdue ones.
func (i *Inbox) Summary(ctx context.Context, userID string) (*model.AlertSummary, error) {
	alerts, err := i.store.ListAlerts(ctx, model.AlertFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	now := i.now()
	summary := &model.AlertSummary{UserID: userID, Total: len(alerts)}
	for _, a := range alerts {
		if a.IsAcknowledged {
			continue
		}
		summary.Unacknowledged++
		if model.DaysUntil(a.TargetDate, now) <= model.CriticalWithinDays {
			summary.Critical++
		}
	}
	return summary, nil
}
