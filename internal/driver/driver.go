// Package driver runs scripts through the whole pipeline: parse,
// instrument, print back, re-parse and execute against a recorder-wired
// interpreter.
//
// A Driver owns one recorder and runs any number of scripts against it.
// Event ids continue across runs until the recorder is cleared, so a
// session of several runs reads as one coherent trace. Each run gets a
// fresh interpreter; the driver itself is the recorder's binding source
// and delegates snapshot requests to whichever interpreter is in flight.
package driver

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hindsightlab/hindsight/internal/ast"
	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/interp"
	"github.com/hindsightlab/hindsight/internal/parser"
	"github.com/hindsightlab/hindsight/internal/recorder"
	"github.com/hindsightlab/hindsight/internal/rewrite"
	"github.com/hindsightlab/hindsight/internal/token"
)

// Options configures a Driver.
type Options struct {
	// Stdout receives script print output. Defaults to os.Stdout.
	Stdout io.Writer

	// MaxSteps bounds each run's statement count, record calls
	// included. Zero means unlimited.
	MaxSteps int

	// Clock stamps recorded events. Defaults to time.Now.
	Clock func() time.Time

	// DisabledKinds lists event kinds the recorder drops, typically
	// from a project manifest.
	DisabledKinds []event.Kind
}

// Driver executes scripts and collects their traces.
type Driver struct {
	stdout   io.Writer
	maxSteps int
	rec      *recorder.Recorder

	mu  sync.Mutex
	cur *interp.Interp
}

// New returns a driver with a fresh, enabled recorder.
func New(opts Options) *Driver {
	d := &Driver{stdout: opts.Stdout, maxSteps: opts.MaxSteps}
	if d.stdout == nil {
		d.stdout = os.Stdout
	}
	d.rec = recorder.New(recorder.Options{Source: d, Clock: opts.Clock, Disabled: opts.DisabledKinds})
	return d
}

// Recorder exposes the trace log for querying and persistence.
func (d *Driver) Recorder() *recorder.Recorder {
	return d.rec
}

// Bindings implements recorder.BindingSource by delegating to the
// interpreter of the in-flight run. Between runs the snapshots are
// empty.
func (d *Driver) Bindings() (locals, globals event.Dict) {
	d.mu.Lock()
	cur := d.cur
	d.mu.Unlock()
	if cur == nil {
		return event.Dict{}, event.Dict{}
	}
	return cur.Bindings()
}

// InstrumentSource parses src and returns the instrumented source text
// with the manifest of injected points. An empty filename records as
// "<script>". Failures are *parser.Error for bad input and
// *rewrite.FinalizeError for a rewrite that does not print back.
func InstrumentSource(src, filename string) (string, []rewrite.Point, error) {
	script, err := parser.Parse(src, scriptName(filename))
	if err != nil {
		return "", nil, err
	}
	instrumented, points := rewrite.Instrument(script)
	text, err := rewrite.Finalize(instrumented)
	if err != nil {
		return "", nil, err
	}
	return text, points, nil
}

// Run instruments src and executes it, recording trace events. The
// bindings seed script globals before execution; `__main__` is bound to
// true so guarded entry blocks run. The returned map holds the final
// globals minus injected `__`-prefixed names.
//
// On a runtime error the partial trace stays in the recorder, so the
// events leading up to the failure remain queryable.
func (d *Driver) Run(src, filename string, bindings map[string]event.Value) (map[string]event.Value, error) {
	name := scriptName(filename)
	text, points, err := InstrumentSource(src, name)
	if err != nil {
		return nil, err
	}
	slog.Debug("script instrumented", "file", name, "sites", len(points))

	script, err := parser.Parse(text, name)
	if err != nil {
		return nil, &rewrite.FinalizeError{Err: err}
	}
	return d.execute(script, bindings, true)
}

// RunFile reads and runs a script file.
func (d *Driver) RunFile(path string, bindings map[string]event.Value) (map[string]event.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return d.Run(string(src), path, bindings)
}

// RunUninstrumented executes src without instrumentation and records
// nothing. It is the explicit fallback a caller may choose when
// instrumentation fails; the driver never downgrades on its own.
func (d *Driver) RunUninstrumented(src, filename string, bindings map[string]event.Value) (map[string]event.Value, error) {
	name := scriptName(filename)
	script, err := parser.Parse(src, name)
	if err != nil {
		return nil, err
	}
	slog.Debug("running without instrumentation", "file", name)
	return d.execute(script, bindings, false)
}

// execute runs one script against a fresh interpreter. Instrumented runs
// get the recorder factory builtin; every run gets the main-guard flag
// and the caller's bindings.
func (d *Driver) execute(script *ast.Script, bindings map[string]event.Value, instrumented bool) (map[string]event.Value, error) {
	in := interp.New(interp.Options{Stdout: d.stdout, MaxSteps: d.maxSteps})
	in.Bind(rewrite.MainFlag, interp.Bool(true))
	if instrumented {
		handle := interp.NewHandle(d.rec)
		in.RegisterBuiltin(&interp.Builtin{
			Name: rewrite.RecorderFactory,
			Fn: func(*interp.Interp, token.Pos, []interp.Value) (interp.Value, error) {
				return handle, nil
			},
		})
	}
	for name, v := range bindings {
		in.Bind(name, interp.FromEvent(v))
	}

	d.mu.Lock()
	d.cur = in
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.cur = nil
		d.mu.Unlock()
	}()

	if err := in.Run(script); err != nil {
		return nil, err
	}
	_, globals := in.Bindings()
	return map[string]event.Value(globals), nil
}

// scriptName substitutes the unnamed-source placeholder so diagnostics
// and recorded events agree on the file name.
func scriptName(filename string) string {
	if filename == "" {
		return event.UnnamedFile
	}
	return filename
}
