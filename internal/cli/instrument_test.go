package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/event"
)

func TestInstrumentCommand_PrintsSource(t *testing.T) {
	script := writeScript(t, t.TempDir(), "calc.hsl", "x = 1\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "__trace__ = trace_recorder()")
	assert.Contains(t, buf.String(), "x = 1")
}

func TestInstrumentCommand_PointManifest(t *testing.T) {
	script := writeScript(t, t.TempDir(), "calc.hsl", "x = 1\ny = x + 1\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "--points"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Injected 2 point(s) into "+script)
	assert.Contains(t, buf.String(), "assign")
	assert.NotContains(t, buf.String(), "trace_recorder")
}

func TestInstrumentCommand_WritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "calc.hsl", "x = 1\n")
	outPath := filepath.Join(dir, "calc_traced.hsl")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script, "-o", outPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Wrote instrumented source to "+outPath)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "__trace__ = trace_recorder()")
}

func TestInstrumentCommand_JSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "calc.hsl", "x = 1\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   InstrumentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, script, resp.Data.File)
	assert.Contains(t, resp.Data.Source, "trace_recorder")
	require.Len(t, resp.Data.Points, 1)
	assert.Equal(t, event.KindAssign, resp.Data.Points[0].Kind)
}

func TestInstrumentCommand_ParseError(t *testing.T) {
	script := writeScript(t, t.TempDir(), "bad.hsl", "x = )\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "bad.hsl")
}

func TestInstrumentCommand_ParseErrorJSON(t *testing.T) {
	script := writeScript(t, t.TempDir(), "bad.hsl", "x = )\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{script})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
}

func TestInstrumentCommand_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewInstrumentCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.hsl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "read script")
}
