package testutil

// Script sources with known trace shapes, shared by tests across
// packages.
//
// Instrumented runs of the same source record the same events with the
// same ids, so tests and golden snapshots built on these fixtures stay
// byte-identical across runs. Each constant documents the trace its
// instrumented run records.
const (
	// SumScript records three assign events; the z assignment depends
	// on x and y.
	SumScript = "x = 10\ny = 20\nz = x + y\n"

	// AddScript records a function-entry with args [5, 3], a return
	// carrying 8 and the out assignment of 8.
	AddScript = `func add(a, b) {
	return a + b
}
out = add(5, 3)
`

	// FactorialScript assigns acc six times; the last assign carries
	// 120. Each loop pass also records a loop-iteration event for i.
	FactorialScript = `acc = 1
for i in range(1, 6) {
	acc = acc * i
}
`

	// BranchScript takes the then arm, so the else arm at line 5 never
	// executes. Three events: assign x, branch, assign label.
	BranchScript = `x = 10
if x > 5 {
	label = "big"
} else {
	label = "small"
}
`
)
