package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fleetYAML = `
vehicles:
  - id: v1
    user_id: u1
    registration_number: AB-123
    vehicle_type: van
documents:
  - id: doc1
    user_id: u1
    vehicle_id: v1
    title: Insurance
    document_type: insurance
    expiry_date: "2025-06-30"
maintenance:
  - id: m1
    user_id: u1
    vehicle_id: v1
    maintenance_type: inspection
    next_due_date: "2025-03-01"
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("FEG_STORAGE_DRIVER", "sqlite")
	t.Setenv("FEG_STORAGE_PATH", filepath.Join(dir, "feg.db"))
	t.Setenv("FEG_LOGGING_LEVEL", "error")

	path := filepath.Join(dir, "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fleetYAML), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLI_ImportGenerateAndInbox(t *testing.T) {
	fleetFile := setupEnv(t)

	out, err := execute(t, "import", fleetFile, "--generate")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 vehicles, 1 documents, 1 maintenance records")
	assert.Contains(t, out, "document_expiry")
	assert.Contains(t, out, "maintenance_due")

	out, err = execute(t, "generate", "--json")
	require.NoError(t, err)
	var report struct {
		Sources []struct {
			Created  int `json:"created"`
			Existing int `json:"existing"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Sources, 2)
	for _, s := range report.Sources {
		assert.Zero(t, s.Created)
		assert.Equal(t, 3, s.Existing)
	}

	out, err = execute(t, "alerts", "list", "--user", "u1", "--type", "document_expiry")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "URGENCY")
	assert.Contains(t, lines[1], "2025-05-31")
	assert.Contains(t, lines[1], "expired")
	id := strings.Fields(lines[1])[0]

	out, err = execute(t, "alerts", "ack", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Acknowledged "+id)

	out, err = execute(t, "alerts", "summary", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:          6")
	assert.Contains(t, out, "Unacknowledged: 5")
	assert.Contains(t, out, "Critical:       5")
}

func TestCLI_Errors(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "alerts", "ack", "missing")
	assert.Error(t, err)

	_, err = execute(t, "alerts", "list", "--type", "oil_change")
	assert.Error(t, err)

	_, err = execute(t, "import", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires the postgres driver")
}

func TestCLI_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("FEG_STORAGE_DRIVER", "mysql")

	_, err := execute(t, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestCLI_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "feg version dev\n", out)
}
