package rewrite

import (
	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/parser"
	"github.com/hindsightlab/hindsight/internal/printer"
)

// FinalizeError reports an instrumented tree that printed to source the
// parser no longer accepts. It is distinct from *parser.Error so callers
// can tell a broken input script from a broken rewrite.
type FinalizeError struct {
	Err error
}

func (e *FinalizeError) Error() string {
	return "finalize instrumented script: " + e.Err.Error()
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// Finalize renders the instrumented script to source text and verifies
// that the text still parses. The driver executes the reparsed text, not
// the instrumented tree, so a print-back defect must surface here rather
// than as a confusing failure inside user code.
func Finalize(script *ast.Script) (string, error) {
	src := printer.Script(script)
	if _, err := parser.Parse(src, script.Name); err != nil {
		return "", &FinalizeError{Err: err}
	}
	return src, nil
}
