package alerting

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// ErrStoreUnavailable wraps failures to load source records. A run that hits
// it is aborted and should be retried as a whole.
var ErrStoreUnavailable = errors.New("record store unavailable")

// EntityError is a failure scoped to one source record or one of its
// checkpoints. It is logged and recorded but never aborts a run.
type EntityError struct {
	Kind     model.AlertType
	EntityID string
	// LeadDays and AlertDate are zero when the failure is not tied to a checkpoint.
	LeadDays  int
	AlertDate time.Time
	Err       error
}

func (e *EntityError) Error() string {
	if e.AlertDate.IsZero() {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.EntityID, e.Err)
	}
	return fmt.Sprintf("%s %s (%d days, %s): %v",
		e.Kind, e.EntityID, e.LeadDays, model.FormatDate(e.AlertDate), e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

func (e *EntityError) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind      model.AlertType `json:"alert_type"`
		EntityID  string          `json:"entity_id"`
		LeadDays  int             `json:"lead_days,omitempty"`
		AlertDate string          `json:"alert_date,omitempty"`
		Error     string          `json:"error"`
	}{Kind: e.Kind, EntityID: e.EntityID, LeadDays: e.LeadDays, Error: e.Err.Error()}
	if !e.AlertDate.IsZero() {
		out.AlertDate = model.FormatDate(e.AlertDate)
	}
	return json.Marshal(out)
}

// SourceStats counts what a run did for one source.
type SourceStats struct {
	Kind     model.AlertType `json:"alert_type"`
	Scanned  int             `json:"scanned"`
	Skipped  int             `json:"skipped"`
	Created  int             `json:"created"`
	Existing int             `json:"existing"`
	Failed   int             `json:"failed"`
}

// Report summarizes one generator run.
type Report struct {
	mu sync.Mutex

	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	LeadDays   []int          `json:"lead_days"`
	Sources    []*SourceStats `json:"sources"`
	Failures   []*EntityError `json:"failures,omitempty"`
}

func newReport(start time.Time, leadDays []int) *Report {
	return &Report{StartedAt: start, LeadDays: leadDays}
}

// Totals sums the per-source counters.
func (r *Report) Totals() SourceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var t SourceStats
	for _, s := range r.Sources {
		t.Scanned += s.Scanned
		t.Skipped += s.Skipped
		t.Created += s.Created
		t.Existing += s.Existing
		t.Failed += s.Failed
	}
	return t
}

// Stats returns the counters for one source, or nil if it was not scanned.
func (r *Report) Stats(kind model.AlertType) *SourceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.Sources {
		if s.Kind == kind {
			cp := *s
			return &cp
		}
	}
	return nil
}

// Err combines all entity failures, or returns nil if there were none.
func (r *Report) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) addSource(kind model.AlertType, scanned int) *SourceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &SourceStats{Kind: kind, Scanned: scanned}
	r.Sources = append(r.Sources, s)
	return s
}

func (r *Report) record(s *SourceStats, fn func(*SourceStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(s)
}

func (r *Report) fail(s *SourceStats, e *EntityError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Failed++
	r.Failures = append(r.Failures, e)
}
