package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/driver"
)

func TestExitError_Message(t *testing.T) {
	err := NewExitError(ExitCommandError, "session not found: abc")
	assert.Equal(t, "session not found: abc", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestExitError_Wrapped(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "read script", cause)
	assert.Equal(t, "read script: no such file", err.Error())
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "script failed")))

	// Plain errors default to the work-level failure code.
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))

	// The code survives further wrapping.
	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestRunErrorCode_Parse(t *testing.T) {
	_, _, err := driver.InstrumentSource("x = )\n", "bad.hsl")
	require.Error(t, err)
	assert.Equal(t, ErrCodeParse, runErrorCode(err))
}

func TestRunErrorCode_Runtime(t *testing.T) {
	d := driver.New(driver.Options{Stdout: io.Discard})
	_, err := d.Run("boom()\n", "test.hsl", nil)
	require.Error(t, err)
	assert.Equal(t, ErrCodeRuntime, runErrorCode(err))
}

func TestRunErrorCode_Unknown(t *testing.T) {
	assert.Equal(t, ErrCodeRuntime, runErrorCode(errors.New("something else")))
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "session_id")

	var decoded CLIResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ok", decoded.Status)
	assert.Nil(t, decoded.Error)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    ErrCodeRuntime,
		Message: "division by zero",
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeRuntime, decoded.Code)
	assert.Equal(t, "division by zero", decoded.Message)
}
