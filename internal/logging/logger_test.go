package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/config"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("alert created", "alert_type", "document_expiry")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "alert created", entry["msg"])
	assert.Equal(t, "document_expiry", entry["alert_type"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "debug", "text")
	logger.Debug("alert generation started", "sources", 2)
	assert.Contains(t, buf.String(), "msg=\"alert generation started\"")
	assert.Contains(t, buf.String(), "sources=2")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feg.log")
	logger, closer, err := logging.New(config.LoggingConfig{
		Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1,
	})
	require.NoError(t, err)
	logger.Info("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNew_Stderr(t *testing.T) {
	logger, closer, err := logging.New(config.LoggingConfig{Level: "error"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}
