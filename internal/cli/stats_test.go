package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/recorder"
)

func TestStatsCommand_Script(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Stats for "+script)
	assert.Contains(t, out, "=== Trace ===")
	assert.Contains(t, out, "Events: 3")
	assert.Contains(t, out, "assign:")
}

func TestStatsCommand_Session(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")
	id := archiveTrace(t, dbPath, sumScript, "sum run")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--session", id, "--db", dbPath})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Stats for session "+id+" (sum run)")
	assert.Contains(t, out, "Events: 3")
}

func TestStatsCommand_SessionAndScriptExclusive(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--session", "abc"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestStatsCommand_RuntimeErrorPartial(t *testing.T) {
	script := writeScript(t, t.TempDir(), "crash.hsl", "x = 1\nboom()\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "stats cover the partial trace")
	assert.Contains(t, out, "Events: 1")
}

func TestStatsCommand_JSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewStatsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			File  string         `json:"file"`
			Stats recorder.Stats `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, script, resp.Data.File)
	assert.Equal(t, 3, resp.Data.Stats.Total)
}
