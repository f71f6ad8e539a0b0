package rewrite

import "github.com/hindsightlab/hindsight/internal/event"

// Point describes one instrumentation site the rewriter injected.
// The site number is what the generated record call passes at runtime, so
// the manifest lets tooling map trace events back to source constructs
// without re-instrumenting.
type Point struct {
	Site int64      `json:"site"`
	File string     `json:"file"`
	Line int        `json:"line"`
	Kind event.Kind `json:"kind"`
}
