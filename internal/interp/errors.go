package interp

import (
	"errors"
	"fmt"

	"github.com/hindsightlab/hindsight/internal/token"
)

// RuntimeError represents an error detected while executing a script.
//
// Runtime errors include:
//   - Name resolution: reading a name that was never bound
//   - Type mismatches: applying an operator to incompatible operands
//   - Container access: index out of range, missing key, missing attribute
//   - Call errors: wrong arity, calling a non-function
//   - Quota exceeded: the script ran past the configured step limit
//
// RuntimeError includes the source location for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// File is the display name of the script.
	File string

	// Line is the 1-based source line, 0 when unknown.
	Line int
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUndefinedName indicates a read of an unbound name.
	ErrCodeUndefinedName RuntimeErrorCode = "UNDEFINED_NAME"

	// ErrCodeTypeMismatch indicates an operation on incompatible types.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeDivisionByZero indicates division or modulo by zero.
	ErrCodeDivisionByZero RuntimeErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeIndexOutOfRange indicates a list or string index out of range.
	ErrCodeIndexOutOfRange RuntimeErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeKeyNotFound indicates a missing dict key.
	ErrCodeKeyNotFound RuntimeErrorCode = "KEY_NOT_FOUND"

	// ErrCodeAttrNotFound indicates a missing attribute.
	ErrCodeAttrNotFound RuntimeErrorCode = "ATTR_NOT_FOUND"

	// ErrCodeArityMismatch indicates a call with the wrong argument count.
	ErrCodeArityMismatch RuntimeErrorCode = "ARITY_MISMATCH"

	// ErrCodeNotCallable indicates a call on a non-function value.
	ErrCodeNotCallable RuntimeErrorCode = "NOT_CALLABLE"

	// ErrCodeNotIterable indicates a for loop over a non-iterable value.
	ErrCodeNotIterable RuntimeErrorCode = "NOT_ITERABLE"

	// ErrCodeBadArgument indicates a builtin rejected an argument.
	ErrCodeBadArgument RuntimeErrorCode = "BAD_ARGUMENT"

	// ErrCodeQuotaExceeded indicates the script exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeLoopControl indicates break or continue outside a loop, or
	// return outside a function.
	ErrCodeLoopControl RuntimeErrorCode = "LOOP_CONTROL"

	// ErrCodeInvalidContext indicates a write-context expression reached
	// evaluation. Rewritten fragments must be normalized to read context
	// first, so this always points at an instrumentation bug.
	ErrCodeInvalidContext RuntimeErrorCode = "INVALID_CONTEXT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s: %s (%s:%d)", e.Code, e.Message, e.File, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsRuntimeError unwraps a RuntimeError from err.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	return false
}

// NewQuotaError creates a RuntimeError for quota exceeded.
func NewQuotaError(file string, line, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("script exceeded max steps (%d)", maxSteps),
		File:    file,
		Line:    line,
	}
}

// errf builds a positioned RuntimeError.
func (in *Interp) errf(code RuntimeErrorCode, pos token.Pos, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		File:    in.scriptName,
		Line:    pos.Line,
	}
}
