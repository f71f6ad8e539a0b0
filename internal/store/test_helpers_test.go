package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hindsightlab/hindsight/internal/event"
	"github.com/hindsightlab/hindsight/internal/recorder"
)

// createTestStore creates a file-backed archive under a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testClock() func() time.Time {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

type staticSource struct {
	locals  event.Dict
	globals event.Dict
}

func (s staticSource) Bindings() (event.Dict, event.Dict) {
	return s.locals, s.globals
}

// createTestRecorder returns a recorder holding a small fixed trace
// with snapshots on every event.
func createTestRecorder() *recorder.Recorder {
	scope := event.Dict{"x": event.Int(1)}
	rec := recorder.New(recorder.Options{
		Source: staticSource{locals: scope, globals: scope},
		Clock:  testClock(),
	})

	rec.Record(1, "calc.hsl", 1, event.KindAssign,
		event.P(event.KeyVarName, event.String("x")),
		event.P(event.KeyValue, event.Int(1)),
		event.P(event.KeyDependsOn, event.List{}))
	rec.Record(2, "calc.hsl", 2, event.KindBranch,
		event.P(event.KeyTest, event.String("x > 0")),
		event.P(event.KeyResult, event.Bool(true)),
		event.P(event.KeyDecision, event.String(event.DecisionThen)))
	rec.Record(3, "calc.hsl", 3, event.KindAssign,
		event.P(event.KeyVarName, event.String("y")),
		event.P(event.KeyValue, event.Int(2)),
		event.P(event.KeyDependsOn, event.List{event.String("x")}))

	return rec
}
