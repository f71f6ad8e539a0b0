package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hindsightlab/hindsight/internal/interp"
	"github.com/hindsightlab/hindsight/internal/parser"
	"github.com/hindsightlab/hindsight/internal/rewrite"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Work-level failure (script error, failed scenarios, integrity mismatch)
	ExitCommandError = 2 // Command error (bad flags, missing files, archive not found)
)

// Error codes carried in JSON error envelopes.
const (
	ErrCodeParse      = "E_PARSE"       // script did not parse
	ErrCodeInstrument = "E_INSTRUMENT"  // instrumented source did not parse back
	ErrCodeRuntime    = "E_RUNTIME"     // script failed at runtime
	ErrCodeIntegrity  = "E_INTEGRITY"   // archived session violates recorder invariants
	ErrCodeTestFailed = "E_TEST_FAILED" // one or more scenarios failed
)

// ExitError is an error with a specific process exit code.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string
	Err     error // underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Returns ExitFailure
// for errors that are not ExitErrors.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope every command emits under
// --format json.
type CLIResponse struct {
	Status    string      `json:"status"`               // "ok" or "error"
	Data      interface{} `json:"data,omitempty"`       // success payload
	Error     *CLIError   `json:"error,omitempty"`      // error details
	SessionID string      `json:"session_id,omitempty"` // archived session, when one was touched
}

// CLIError is the error structure inside a JSON envelope.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON emits one indented envelope. Every JSON-producing command
// funnels through here so the output shape stays uniform.
func writeJSON(w io.Writer, resp CLIResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// commandError reports a failure in the configured format and returns
// the matching ExitError. JSON mode prints the envelope to w; text mode
// leaves the printing to main.
func commandError(w io.Writer, format string, exitCode int, code, message string) error {
	if format == "json" {
		if err := writeJSON(w, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		}); err != nil {
			return err
		}
	}
	return NewExitError(exitCode, message)
}

// runErrorCode classifies a script execution error into an envelope
// code. Only instrumentation failures are retryable with --fallback.
func runErrorCode(err error) string {
	var parseErr *parser.Error
	var finalizeErr *rewrite.FinalizeError
	var runtimeErr *interp.RuntimeError
	switch {
	case errors.As(err, &finalizeErr):
		return ErrCodeInstrument
	case errors.As(err, &parseErr):
		return ErrCodeParse
	case errors.As(err, &runtimeErr):
		return ErrCodeRuntime
	default:
		return ErrCodeRuntime
	}
}
