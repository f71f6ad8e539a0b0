// Package interp executes syntax trees.
//
// The interpreter is a tree walker with Python-flavored scoping: names
// written at module level live in globals, names written inside a
// function live in that call's frame, and reads resolve frame first,
// then globals, then builtins. Instrumented scripts drive the trace
// recorder through a native handle value; the interpreter itself only
// supplies variable snapshots on demand.
//
// Execution is single goroutine. A step quota guards against runaway
// loops when the interpreter runs untrusted scripts in tests or the CLI.
package interp

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/hindsightlab/hindsight/internal/ast"
)

// Options configures an interpreter.
type Options struct {
	// Stdout receives print output. Defaults to os.Stdout.
	Stdout io.Writer

	// MaxSteps bounds the number of executed statements. Zero means
	// unlimited.
	MaxSteps int
}

// Interp executes scripts. Create with New; an Interp must not be shared
// across goroutines.
type Interp struct {
	stdout   io.Writer
	maxSteps int
	steps    int

	scriptName string
	globals    map[string]Value
	builtins   map[string]Value
	frames     []*frame
	loopDepth  int
	reg        registry
}

// frame is one function activation.
type frame struct {
	fn   *Func
	vars map[string]Value
}

// New returns an interpreter with the standard builtins installed.
func New(opts Options) *Interp {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	in := &Interp{
		stdout:   opts.Stdout,
		maxSteps: opts.MaxSteps,
		globals:  make(map[string]Value),
		reg:      newRegistry(),
	}
	in.builtins = stdBuiltins()
	return in
}

// Bind sets a global before or between runs. The driver uses it to inject
// ambient bindings such as the recorder factory.
func (in *Interp) Bind(name string, v Value) {
	in.globals[name] = v
}

// RegisterBuiltin installs a native function under its name.
func (in *Interp) RegisterBuiltin(b *Builtin) {
	in.builtins[b.Name] = b
}

// Run executes the script to completion. Globals persist across calls,
// so a driver can run several scripts against one interpreter.
func (in *Interp) Run(script *ast.Script) error {
	in.scriptName = script.Name
	for _, s := range script.Stmts {
		if err := in.execStmt(s); err != nil {
			return in.normalizeSignal(err, s)
		}
	}
	return nil
}

// Globals returns a copy of the global bindings.
func (in *Interp) Globals() map[string]Value {
	out := make(map[string]Value, len(in.globals))
	for k, v := range in.globals {
		out[k] = v
	}
	return out
}

// GlobalNames returns the sorted global names.
func (in *Interp) GlobalNames() []string {
	names := make([]string, 0, len(in.globals))
	for k := range in.globals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Steps reports how many statements have executed so far.
func (in *Interp) Steps() int {
	return in.steps
}

// normalizeSignal converts a loop or return signal that escaped to the
// top level into a positioned runtime error.
func (in *Interp) normalizeSignal(err error, s ast.Stmt) error {
	switch {
	case errors.Is(err, errBreak):
		return in.errf(ErrCodeLoopControl, s.Pos(), "break outside loop")
	case errors.Is(err, errContinue):
		return in.errf(ErrCodeLoopControl, s.Pos(), "continue outside loop")
	}
	var ret *returnSignal
	if errors.As(err, &ret) {
		return in.errf(ErrCodeLoopControl, s.Pos(), "return outside function")
	}
	return err
}

// step charges one statement against the quota.
func (in *Interp) step(s ast.Stmt) error {
	in.steps++
	if in.maxSteps > 0 && in.steps > in.maxSteps {
		return NewQuotaError(in.scriptName, s.Pos().Line, in.maxSteps)
	}
	return nil
}

// currentFrame returns the active call frame, or nil at module level.
func (in *Interp) currentFrame() *frame {
	if len(in.frames) == 0 {
		return nil
	}
	return in.frames[len(in.frames)-1]
}

// lookup resolves a name for reading: frame locals, then globals, then
// builtins.
func (in *Interp) lookup(name string) (Value, bool) {
	if f := in.currentFrame(); f != nil {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	if v, ok := in.globals[name]; ok {
		return v, true
	}
	if v, ok := in.builtins[name]; ok {
		return v, true
	}
	return nil, false
}

// bindName writes a name: into the active frame inside a function, into
// globals at module level.
func (in *Interp) bindName(name string, v Value) {
	if f := in.currentFrame(); f != nil {
		f.vars[name] = v
		return
	}
	in.globals[name] = v
}
