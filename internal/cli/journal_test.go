package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/store"
)

// runJournaled runs the alarm rules once with a fixed run ID.
func runJournaled(t *testing.T, dir, dbPath, runID string) {
	t.Helper()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)
	factsPath := writeFile(t, dir, "facts.yaml", "fire: true\n")

	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		Language:    "js",
		FactsFile:   factsPath,
		Journal:     dbPath,
		IDGenerator: store.NewFixedGenerator(runID),
	}
	cmd := NewRunCommand(opts.RootOptions)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, runRules(opts, []string{rulesPath}, cmd))
	assert.Contains(t, out.String(), "Run: "+runID)
}

func TestRunCommand_Journal(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	runJournaled(t, dir, dbPath, "run-1")

	out, err := execute(t, "journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "fired=2")

	out, err = execute(t, "journal", dbPath, "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "[2] fire alarm success")
	assert.Contains(t, out, "[3] sprinklers success")
	assert.Contains(t, out, `Final facts: {"alarm":true,"fire":true,"sprinklers":"on"}`)
}

func TestJournalCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	runJournaled(t, dir, dbPath, "run-1")

	out, err := execute(t, "--format", "json", "journal", dbPath, "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   JournalRun `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.ID)
	assert.Equal(t, store.StatusOK, resp.Data.Status)
	require.Len(t, resp.Data.Firings, 2)
	assert.Equal(t, "fire alarm", resp.Data.Firings[0].Rule)
}

func TestJournalCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "journal", filepath.Join(dir, "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dbPath := filepath.Join(dir, "journal.db")
	runJournaled(t, dir, dbPath, "run-1")

	_, err = execute(t, "journal", dbPath, "run-2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestJournalCommand_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "journal", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}
