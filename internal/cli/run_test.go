package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/store"
)

func TestRunCommand_RecordsTrace(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", "x = 2\ny = x * 3\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "✓ Ran "+script+": 2 event(s) recorded")
	assert.Contains(t, out, "=== Globals ===")
	assert.Contains(t, out, "x = 2")
	assert.Contains(t, out, "y = 6")
	assert.Contains(t, out, "=== Trace ===")
	assert.Contains(t, out, "assign:")
}

func TestRunCommand_JSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", "x = 2\ny = x * 3\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			File    string                 `json:"file"`
			Globals map[string]interface{} `json:"globals"`
			Stats   recorder.Stats         `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, script, resp.Data.File)
	assert.Equal(t, 2, resp.Data.Stats.Total)
	assert.Equal(t, 2, resp.Data.Stats.ByKind[event.KindAssign])
	assert.Contains(t, resp.Data.Globals, "x")
	assert.Contains(t, resp.Data.Globals, "y")
}

func TestRunCommand_ScriptOutput(t *testing.T) {
	script := writeScript(t, t.TempDir(), "hello.hsl", "print(\"hi\", 1 + 2)\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "hi 3\n")
}

func TestRunCommand_JSONKeepsScriptOutputOffStdout(t *testing.T) {
	script := writeScript(t, t.TempDir(), "hello.hsl", "print(\"hi\")\n")

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "hi\n")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRunCommand_RuntimeErrorKeepsPartialTrace(t *testing.T) {
	script := writeScript(t, t.TempDir(), "crash.hsl", "x = 1\nboom()\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Partial trace: 1 event(s)")
}

func TestRunCommand_RuntimeErrorJSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "crash.hsl", "x = 1\nboom()\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRuntime, resp.Error.Code)
}

func TestRunCommand_ParseError(t *testing.T) {
	script := writeScript(t, t.TempDir(), "bad.hsl", "x = )\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_SaveArchivesSession(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "sum.hsl", "x = 2\ny = x * 3\n")
	dbPath := filepath.Join(dir, "traces.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--save", "--db", dbPath, "--label", "sum run"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Saved session ")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sum run", sessions[0].Label)
	assert.Equal(t, 2, sessions[0].EventCount)
}

func TestRunCommand_SaveKeepsPartialTraceOnFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "crash.hsl", "x = 1\nboom()\n")
	dbPath := filepath.Join(dir, "traces.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--save", "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Saved session ")

	// The events up to the failure are archived and stay queryable.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].EventCount)
}

func TestRunCommand_MaxSteps(t *testing.T) {
	script := writeScript(t, t.TempDir(), "spin.hsl", "while true {\n\tx = 1\n}\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--max-steps", "25"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Partial trace:")
}

func TestRunCommand_ManifestEntry(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "main.hsl", "x = 1\n")
	writeScript(t, dir, "hindsight.toml", "[project]\nname = \"demo\"\n\n[run]\nentry = \"main.hsl\"\n")
	t.Chdir(dir)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "main.hsl: 1 event(s) recorded")
}

func TestRunCommand_NoScriptNoManifest(t *testing.T) {
	t.Chdir(t.TempDir())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no script given")
}
