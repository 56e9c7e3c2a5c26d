package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/notify"
)

func TestWebhookNotifier_Name(t *testing.T) {
	n := notify.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Fleet-Expiry-Guardian/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, notify.RunEvent, received["event"])
	assert.NotEmpty(t, received["timestamp"])

	run, ok := received["run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", run["outcome"])
	assert.Len(t, run["sources"], 2)
}

func TestWebhookNotifier_Send_WithHMAC(t *testing.T) {
	var (
		signature string
		body      []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Signature-256")
		var err error
		body, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL, "test-secret")
	err := n.Send(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Contains(t, signature, "sha256=")
	assert.True(t, notify.Verify(body, []byte("test-secret"), signature))
	assert.False(t, notify.Verify(body, []byte("other-secret"), signature))
}

func TestWebhookNotifier_Send_NoHMAC(t *testing.T) {
	var hasSignature bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSignature = r.Header.Get("X-Signature-256") != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.False(t, hasSignature)
}

func TestWebhookNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), sampleSummary())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestVerify_BarePrefix(t *testing.T) {
	msg := []byte(`{"event":"x"}`)
	sig := notify.Sign(msg, []byte("k"))
	assert.True(t, notify.Verify(msg, []byte("k"), sig))
	assert.True(t, notify.Verify(msg, []byte("k"), "sha256="+sig))
	assert.False(t, notify.Verify(msg, []byte("k"), "sha256="))
}
