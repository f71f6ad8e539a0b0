// Package event defines the trace event schema shared by the rewriter,
// the recorder and the causal query engine.
//
// This package contains type definitions and serialization only. All
// other internal packages import event; event imports nothing internal.
// This keeps the schema the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Event.ID is the authoritative temporal order; Event.Site is the
//     static instrumentation point that emitted it
//   - Values form a sealed union mirroring the script data domain
//   - All JSON tags use snake_case
//   - Snapshot entries that cannot be copied safely are placeholders,
//     never errors
package event
