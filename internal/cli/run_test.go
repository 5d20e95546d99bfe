package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRunCommand_Text(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)
	factsPath := writeFile(t, dir, "facts.yaml", "fire: true\n")

	out, err := execute(t, "run", rulesPath, "--facts", factsPath)
	require.NoError(t, err)
	assert.Equal(t, `Engine: default (1 pass)
Fired:
  1. fire alarm
  2. sprinklers
Facts:
  fire = true
  alarm = true
  sprinklers = "on"
`, out)
}

func TestRunCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)
	factsPath := writeFile(t, dir, "facts.json", `{"fire": true}`)

	out, err := execute(t, "--format", "json", "run", rulesPath, "--facts", factsPath, "--inference")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "inference", resp.Data.Engine)
	assert.Equal(t, 2, resp.Data.Passes)
	assert.Equal(t, []string{"fire alarm", "sprinklers"}, resp.Data.Fired)
	assert.Equal(t, "on", resp.Data.Facts["sprinklers"])
}

func TestRunCommand_SkipOnFirstApplied(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)
	factsPath := writeFile(t, dir, "facts.yaml", "fire: true\n")

	out, err := execute(t, "run", rulesPath, "--facts", factsPath, "--skip-on-first-applied")
	require.NoError(t, err)
	assert.Contains(t, out, "1. fire alarm")
	assert.NotContains(t, out, "sprinklers")
}

func TestRunCommand_PriorityThreshold(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)
	factsPath := writeFile(t, dir, "facts.yaml", "fire: true\n")

	out, err := execute(t, "run", rulesPath, "--facts", factsPath, "--priority-threshold", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Fired: none")
}

func TestRunCommand_CEL(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", `name: adult
condition: age >= 18
actions:
  - adult = true
`)
	factsPath := writeFile(t, dir, "facts.yaml", "age: 30\n")

	out, err := execute(t, "run", rulesPath, "--facts", factsPath, "--language", "cel")
	require.NoError(t, err)
	assert.Contains(t, out, "1. adult")
	assert.Contains(t, out, "adult = true")
}

func TestRunCommand_MaxPassesExceeded(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", `name: count
condition: "true"
actions:
  - facts.put("n", (facts.get("n") || 0) + 1)
`)

	out, err := execute(t, "run", rulesPath, "--inference", "--max-passes", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Engine: inference (2 passes)")
	assert.Contains(t, out, "n = 2")
	assert.Contains(t, out, "Error [E401]")
}

func TestRunCommand_ActionErrorJSON(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yaml", `name: broken
condition: "true"
actions:
  - throw new Error("boom")
`)

	out, err := execute(t, "--format", "json", "run", rulesPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeEngine, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "boom")
}

func TestRunCommand_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "alarms.yaml", alarmRules)

	tests := []struct {
		name string
		args []string
	}{
		{"missing rules file", []string{"run", filepath.Join(dir, "nope.yaml")}},
		{"unsupported extension", []string{"run", writeFile(t, dir, "rules.txt", "x")}},
		{"missing facts file", []string{"run", rulesPath, "--facts", filepath.Join(dir, "nope.yaml")}},
		{"facts not a mapping", []string{"run", rulesPath, "--facts", writeFile(t, dir, "list.yaml", "- 1\n- 2\n")}},
		{"invalid language", []string{"run", rulesPath, "--language", "lua"}},
		{"negative max passes", []string{"run", rulesPath, "--max-passes", "-1"}},
		{"invalid definition", []string{"run", writeFile(t, dir, "bad.yaml", "name: x\n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}
