package recorder

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hindsightlab/hindsight/internal/event"
)

func recordSample(t *testing.T) *Recorder {
	t.Helper()
	r := New(Options{Clock: testClock(), Source: staticSource{
		locals:  event.Dict{"x": event.Int(10)},
		globals: event.Dict{"x": event.Int(10), "limit": event.Float(0.5)},
	}})
	r.Record(11, "demo.hsl", 1, event.KindAssign,
		event.P(event.KeyVarName, event.String("x")),
		event.P(event.KeyValue, event.Int(10)),
		event.P(event.KeyDependsOn, event.StringList(nil)),
	)
	r.Record(12, "demo.hsl", 2, event.KindBranch,
		event.P(event.KeyTest, event.String("x > 5")),
		event.P(event.KeyResult, event.Bool(true)),
		event.P(event.KeyDecision, event.String(event.DecisionThen)),
	)
	r.Record(13, "demo.hsl", 3, event.KindReturn,
		event.P(event.KeyFuncName, event.String("f")),
		event.P(event.KeyValue, event.List{event.Int(1), event.String("two")}),
	)
	return r
}

func TestTraceRoundTrip(t *testing.T) {
	r := recordSample(t)
	orig := r.Events()

	data, err := r.MarshalBinary()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored := New(Options{})
	require.NoError(t, restored.UnmarshalBinary(data))

	got := restored.Events()
	require.Len(t, got, len(orig))
	for i, ev := range got {
		want := orig[i]
		assert.Equal(t, want.ID, ev.ID)
		assert.Equal(t, want.Site, ev.Site)
		assert.Equal(t, want.File, ev.File)
		assert.Equal(t, want.Line, ev.Line)
		assert.Equal(t, want.Kind, ev.Kind)
		assert.Equal(t, want.Goroutine, ev.Goroutine)
		assert.True(t, ev.Time.Equal(want.Time), "event %d time", ev.ID)
		assert.True(t, event.Equal(want.Payload, ev.Payload), "event %d payload", ev.ID)
		assert.True(t, event.Equal(want.Locals, ev.Locals), "event %d locals", ev.ID)
		assert.True(t, event.Equal(want.Globals, ev.Globals), "event %d globals", ev.ID)
	}

	// The id counter resumes after the last persisted event.
	assert.Equal(t, r.NextEventID(), restored.NextEventID())
}

func TestTraceRoundTripPreservesValueTypes(t *testing.T) {
	r := New(Options{})
	obj := event.Object{Type: "Point", ID: 1, Fields: event.Dict{"x": event.Int(3)}}
	r.Record(1, "demo.hsl", 1, event.KindAssign,
		event.P(event.KeyVarName, event.String("p")),
		event.P(event.KeyValue, obj),
		event.P("ratio", event.Float(2.0)),
		event.P("count", event.Int(2)),
	)

	data, err := r.MarshalBinary()
	require.NoError(t, err)
	restored := New(Options{})
	require.NoError(t, restored.UnmarshalBinary(data))

	payload := restored.Events()[0].Payload
	assert.Equal(t, obj, payload["value"])
	// The int/float split survives even for whole-number floats.
	assert.Equal(t, event.Float(2.0), payload["ratio"])
	assert.Equal(t, event.Int(2), payload["count"])
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := msgpack.Marshal(wireTrace{Version: 99, NextID: 1})
	require.NoError(t, err)

	_, _, err = Decode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace format version 99")
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	data, err := msgpack.Marshal(wireTrace{
		Version: TraceFormatVersion,
		NextID:  2,
		Events: []wireEvent{{
			ID: 1, File: "demo.hsl", Line: 1, Kind: "mystery", Payload: []byte("{}"),
		}},
	})
	require.NoError(t, err)

	_, _, err = Decode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event kind "mystery"`)
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode([]byte("not a trace"))
	require.Error(t, err)
}

func TestEncodeEmptyTrace(t *testing.T) {
	data, err := Encode(nil, 1)
	require.NoError(t, err)

	events, nextID, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, int64(1), nextID)
}

func TestUnmarshalBinaryReplacesContents(t *testing.T) {
	saved := recordSample(t)
	data, err := saved.MarshalBinary()
	require.NoError(t, err)

	r := New(Options{})
	r.Record(99, "other.hsl", 9, event.KindAssign)
	require.NoError(t, r.UnmarshalBinary(data))

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "demo.hsl", events[0].File)
	assert.Equal(t, saved.NextEventID(), r.NextEventID())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.bin")
	saved := recordSample(t)
	require.NoError(t, saved.Save(path))

	r := New(Options{})
	require.NoError(t, r.Load(path))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, saved.NextEventID(), r.NextEventID())
}

func TestLoadMissingFile(t *testing.T) {
	r := New(Options{})
	err := r.Load(filepath.Join(t.TempDir(), "absent.bin"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load trace")
}

func TestEncodeToDecodeFrom(t *testing.T) {
	var buf bytes.Buffer
	saved := recordSample(t)
	require.NoError(t, saved.EncodeTo(&buf))

	r := New(Options{})
	require.NoError(t, r.DecodeFrom(&buf))
	assert.Equal(t, 3, r.Len())
}

func TestDecodedTimesAreUTC(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	base := time.Date(2024, 6, 1, 4, 0, 0, 0, loc)
	r := New(Options{Clock: func() time.Time { return base }})
	r.Record(1, "demo.hsl", 1, event.KindAssign)

	data, err := r.MarshalBinary()
	require.NoError(t, err)
	restored := New(Options{})
	require.NoError(t, restored.UnmarshalBinary(data))

	got := restored.Events()[0].Time
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(base))
}
