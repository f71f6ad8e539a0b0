package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/harness"
)

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	for _, name := range []string{"why", "variable", "function", "value", "file", "line"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestWatchCommand_MissingScript(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.hsl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "stat script")
}

func TestWatchCommand_NoScriptNoManifest(t *testing.T) {
	t.Chdir(t.TempDir())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no script given")
}

func TestWatchCommand_InvalidQuestionFailsFast(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--why", "value"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "variable is required")
}

func TestWatchRun_ReportsTrace(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	opts := &WatchOptions{RootOptions: rootOpts}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	watchRun(opts, nil, script, harness.QuestionSpec{}, false, cmd)
	out := buf.String()
	assert.Contains(t, out, script)
	assert.Contains(t, out, "3 event(s) recorded")
}

func TestWatchRun_AnswersQuestion(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	opts := &WatchOptions{RootOptions: rootOpts}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	spec := harness.QuestionSpec{Ask: harness.AskValue, Variable: "z", Value: 30}
	watchRun(opts, nil, script, spec, true, cmd)
	out := buf.String()
	assert.Contains(t, out, `Why did variable "z" have value 30?`)
	assert.Contains(t, out, "from the assignment at line 3")
}

func TestWatchRun_ScriptErrorIsNotFatal(t *testing.T) {
	script := writeScript(t, t.TempDir(), "bad.hsl", "x = )\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	opts := &WatchOptions{RootOptions: rootOpts}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	watchRun(opts, nil, script, harness.QuestionSpec{}, false, cmd)
	assert.Contains(t, buf.String(), "✗")
}

func TestWatchRun_JSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "sum.hsl", sumScript)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	opts := &WatchOptions{RootOptions: rootOpts}
	cmd := NewWatchCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	watchRun(opts, nil, script, harness.QuestionSpec{}, false, cmd)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			File   string `json:"file"`
			Events int    `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, script, resp.Data.File)
	assert.Equal(t, 3, resp.Data.Events)
}
