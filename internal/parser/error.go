package parser

import (
	"errors"
	"fmt"

	"github.com/hindsightlab/hindsight/internal/token"
)

// Error is a syntax diagnostic. Parsing stops at the first one.
type Error struct {
	// File is the display name of the source, not necessarily a path.
	File string
	Pos  token.Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.File, e.Pos, e.Msg)
}

// AsError unwraps a syntax error from err.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
