package notify_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
)

func testReport(failures int) *alerting.Report {
	start := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	r := &alerting.Report{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		LeadDays:   []int{7, 14, 30},
		Sources: []*alerting.SourceStats{
			{Kind: model.AlertDocumentExpiry, Scanned: 4, Created: 6, Existing: 3, Skipped: 1},
			{Kind: model.AlertMaintenanceDue, Scanned: 2, Created: 3, Existing: 3, Failed: failures},
		},
	}
	for i := 0; i < failures; i++ {
		r.Failures = append(r.Failures, &alerting.EntityError{
			Kind:     model.AlertMaintenanceDue,
			EntityID: fmt.Sprintf("m%d", i),
			Err:      errors.New("boom"),
		})
	}
	return r
}

func sampleSummary() notify.RunSummary {
	return notify.Summarize(testReport(0), nil)
}

func TestSummarize_OK(t *testing.T) {
	s := notify.Summarize(testReport(0), nil)
	assert.Equal(t, notify.OutcomeOK, s.Outcome)
	assert.Empty(t, s.Error)
	require.Len(t, s.Sources, 2)
	assert.Equal(t, model.AlertDocumentExpiry, s.Sources[0].AlertType)

	totals := s.Totals()
	assert.Equal(t, 6, totals.Scanned)
	assert.Equal(t, 9, totals.Created)
	assert.Equal(t, 6, totals.Existing)
	assert.Equal(t, 1, totals.Skipped)
	assert.Equal(t, []int{7, 14, 30}, s.LeadDays)
}

func TestSummarize_PartialCapsFailures(t *testing.T) {
	s := notify.Summarize(testReport(notify.MaxFailures+3), nil)
	assert.Equal(t, notify.OutcomePartial, s.Outcome)
	assert.Len(t, s.Failures, notify.MaxFailures)
	assert.Equal(t, 3, s.MoreFailures)
	assert.Contains(t, s.Failures[0], "m0")
}

func TestSummarize_Aborted(t *testing.T) {
	s := notify.Summarize(testReport(1), context.Canceled)
	assert.Equal(t, notify.OutcomeAborted, s.Outcome)
	assert.Equal(t, context.Canceled.Error(), s.Error)

	s = notify.Summarize(nil, alerting.ErrStoreUnavailable)
	assert.Equal(t, notify.OutcomeAborted, s.Outcome)
	assert.Empty(t, s.Sources)
}

type fakeNotifier struct {
	name string
	err  error
	got  []notify.RunSummary
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(_ context.Context, s notify.RunSummary) error {
	f.got = append(f.got, s)
	return f.err
}

func TestDispatch(t *testing.T) {
	ok := &fakeNotifier{name: "ok"}
	bad := &fakeNotifier{name: "bad", err: errors.New("unreachable")}
	last := &fakeNotifier{name: "last"}

	err := notify.Dispatch(context.Background(), []notify.Notifier{ok, bad, last}, sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: unreachable")
	assert.Len(t, multierr.Errors(err), 1)
	assert.Len(t, ok.got, 1)
	assert.Len(t, last.got, 1)

	assert.NoError(t, notify.Dispatch(context.Background(), nil, sampleSummary()))
}
