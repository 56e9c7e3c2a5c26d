package notify

import (
	"context"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// MaxFailures caps how many entity failures a run summary carries.
const MaxFailures = 10

// Outcome is the overall result of a generation run.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"      // Every checkpoint was handled
	OutcomePartial Outcome = "partial" // Some records failed
	OutcomeAborted Outcome = "aborted" // The run stopped early
)

// SourceCounts mirrors alerting.SourceStats for one alert type.
type SourceCounts struct {
	AlertType model.AlertType `json:"alert_type"`
	Scanned   int             `json:"scanned"`
	Created   int             `json:"created"`
	Existing  int             `json:"existing"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
}

// RunSummary is what operators receive after a generation run.
type RunSummary struct {
	Outcome    Outcome        `json:"outcome"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	LeadDays   []int          `json:"lead_days"`
	Sources    []SourceCounts `json:"sources"`
	Failures   []string       `json:"failures,omitempty"`
	// MoreFailures counts failures left out of Failures.
	MoreFailures int    `json:"more_failures,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Totals sums the per-source counters.
func (s RunSummary) Totals() SourceCounts {
	var t SourceCounts
	for _, c := range s.Sources {
		t.Scanned += c.Scanned
		t.Created += c.Created
		t.Existing += c.Existing
		t.Skipped += c.Skipped
		t.Failed += c.Failed
	}
	return t
}

// Summarize builds a run summary from a generator report and the error Run
// returned, if any.
func Summarize(report *alerting.Report, runErr error) RunSummary {
	s := RunSummary{Outcome: OutcomeOK}
	if runErr != nil {
		s.Outcome = OutcomeAborted
		s.Error = runErr.Error()
	}
	if report == nil {
		return s
	}

	s.StartedAt = report.StartedAt
	s.FinishedAt = report.FinishedAt
	s.LeadDays = report.LeadDays
	for _, st := range report.Sources {
		s.Sources = append(s.Sources, SourceCounts{
			AlertType: st.Kind,
			Scanned:   st.Scanned,
			Created:   st.Created,
			Existing:  st.Existing,
			Skipped:   st.Skipped,
			Failed:    st.Failed,
		})
	}
	for i, f := range report.Failures {
		if i == MaxFailures {
			s.MoreFailures = len(report.Failures) - MaxFailures
			break
		}
		s.Failures = append(s.Failures, f.Error())
	}
	if s.Outcome == OutcomeOK && len(report.Failures) > 0 {
		s.Outcome = OutcomePartial
	}
	return s
}

// Notifier sends run summaries to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a summary. Implementations must be safe for concurrent use.
	Send(ctx context.Context, summary RunSummary) error
}
