package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
)

func TestSlackNotifier_Name(t *testing.T) {
	n := notify.NewSlackNotifier("https://hooks.slack.com/test", "#test")
	assert.Equal(t, "slack", n.Name())
}

func TestSlackNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewSlackNotifier(server.URL, "#fleet-ops")
	err := n.Send(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "#fleet-ops", received["channel"])

	attachments, ok := received["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "Fleet Expiry Guardian: alert generation ok", att["title"])
	assert.Len(t, att["fields"], 6)
}

func TestSlackNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := notify.NewSlackNotifier(server.URL, "#test")
	err := n.Send(context.Background(), sampleSummary())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSlackNotifier_OutcomeColors(t *testing.T) {
	tests := []struct {
		outcome notify.Outcome
		color   string
	}{
		{notify.OutcomeOK, "#36a64f"},
		{notify.OutcomePartial, "#ff9900"},
		{notify.OutcomeAborted, "#cc0000"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			var received struct {
				Attachments []struct {
					Color string `json:"color"`
				} `json:"attachments"`
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			s := sampleSummary()
			s.Outcome = tt.outcome
			s.Failures = []string{"maintenance_due m1: boom"}
			s.MoreFailures = 2
			n := notify.NewSlackNotifier(server.URL, "#test")
			require.NoError(t, n.Send(context.Background(), s))
			require.Len(t, received.Attachments, 1)
			assert.Equal(t, tt.color, received.Attachments[0].Color)
		})
	}
}
