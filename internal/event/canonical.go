package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for golden files and
// trace diffs: object keys in ascending byte order, strings NFC
// normalized at the serialization boundary, no HTML escaping, floats
// always carrying a decimal or exponent marker.
//
// Unlike hashing-grade canonical forms this one accepts null and
// floats, because both exist in the script value domain.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return marshalCanonical(bool(val))
	case Int:
		return marshalCanonical(int64(val))
	case Float:
		return marshalCanonical(float64(val))
	case String:
		return canonicalString(string(val))
	case List:
		items := make([]any, len(val))
		for i, elem := range val {
			items[i] = elem
		}
		return canonicalArray(items)
	case Dict:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[k] = elem
		}
		return canonicalObject(m)
	case Object:
		return canonicalObject(map[string]any{
			"$type":  val.Type,
			"$id":    val.ID,
			"fields": val.Fields,
		})
	case string:
		return canonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case int:
		return fmt.Appendf(nil, "%d", val), nil
	case int64:
		return fmt.Appendf(nil, "%d", val), nil
	case uint64:
		return fmt.Appendf(nil, "%d", val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return []byte("null"), nil
		}
		return []byte(formatFloat(val)), nil
	case []any:
		return canonicalArray(val)
	case map[string]any:
		return canonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// canonicalString NFC-normalizes and encodes without HTML escaping.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}

func canonicalArray(items []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func canonicalObject(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := canonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := marshalCanonical(m[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CanonicalEvent renders an event as a canonical JSON object. Times
// are formatted as RFC 3339 with nanoseconds; zero times are omitted
// so deterministic traces built by the test DSL stay stable.
func CanonicalEvent(e *Event) map[string]any {
	m := map[string]any{
		"id":          e.ID,
		"site":        e.Site,
		"source_file": e.File,
		"source_line": e.Line,
		"kind":        string(e.Kind),
		"payload":     e.Payload,
	}
	if !e.Time.IsZero() {
		m["time"] = e.Time.UTC().Format("2006-01-02T15:04:05.999999999Z07:00")
	}
	if e.Goroutine != 0 {
		m["goroutine"] = e.Goroutine
	}
	if len(e.Locals) > 0 {
		m["locals"] = e.Locals
	}
	if len(e.Globals) > 0 {
		m["globals"] = e.Globals
	}
	return m
}

// MarshalCanonicalTrace renders an ordered event list as one
// canonical JSON array, one element per event.
func MarshalCanonicalTrace(events []*Event) ([]byte, error) {
	items := make([]any, len(events))
	for i, e := range events {
		items[i] = CanonicalEvent(e)
	}
	return canonicalArray(items)
}
