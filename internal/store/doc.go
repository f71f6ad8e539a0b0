// Package store archives recorded traces in SQLite so sessions can be
// listed, asked about and exported later without re-running the
// script.
//
// Layout:
//   - sessions: one row per archived run (label, source files, counts)
//   - events:   one row per trace event, keyed (session_id, event_id)
//
// Value-bearing columns (payload, locals, globals) hold the canonical
// JSON encoding of the event value union, the same encoding the binary
// trace format embeds, so the two persistence paths stay comparable
// byte for byte.
//
// All reads order by event_id (and session listings by creation time
// with the id as tiebreak) so results are deterministic across opens.
// Schema changes ride PRAGMA user_version: bump currentSchemaVersion
// and add a migrate step.
package store
