package event

// Kind identifies what construct fired an instrumentation point.
// The set is closed: the rewriter and the trace builder only produce
// these values, and every kind implies a payload shape documented on
// the Key* constants below.
type Kind string

const (
	// KindAssign is a plain name binding (x = value).
	KindAssign Kind = "assign"

	// KindAttributeAssign is a field write (obj.attr = value).
	KindAttributeAssign Kind = "attribute-assign"

	// KindIndexAssign is a subscript write (xs[i] = value).
	KindIndexAssign Kind = "index-assign"

	// KindSliceAssign is a slice write (xs[lo:hi] = value).
	KindSliceAssign Kind = "slice-assign"

	// KindAugmentedAssign is a compound write (x += value). Its
	// dependency set includes the target's own prior binding.
	KindAugmentedAssign Kind = "augmented-assign"

	// KindFunctionEntry fires as the first statement of an
	// instrumented function body.
	KindFunctionEntry Kind = "function-entry"

	// KindReturn fires immediately before control leaves a frame.
	KindReturn Kind = "return"

	// KindBranch fires inside the single arm a conditional selected.
	KindBranch Kind = "branch"

	// KindLoopIteration fires once per for-loop iteration.
	KindLoopIteration Kind = "loop-iteration"

	// KindWhileCondition fires once per while-loop iteration.
	KindWhileCondition Kind = "while-condition"

	// KindCall is part of the schema and the trace builder but is
	// never emitted by the rewriter.
	KindCall Kind = "call"
)

// Kinds returns all event kinds in a stable display order.
func Kinds() []Kind {
	return []Kind{
		KindAssign,
		KindAttributeAssign,
		KindIndexAssign,
		KindSliceAssign,
		KindAugmentedAssign,
		KindFunctionEntry,
		KindReturn,
		KindBranch,
		KindLoopIteration,
		KindWhileCondition,
		KindCall,
	}
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsAssignment reports whether k records a binding write of any shape.
func (k Kind) IsAssignment() bool {
	switch k {
	case KindAssign, KindAttributeAssign, KindIndexAssign, KindSliceAssign, KindAugmentedAssign:
		return true
	default:
		return false
	}
}

// Payload field names. The vocabulary follows the trace format the
// rewriter generates, so the same constants serve the rewriter, the
// query engine and the test-authoring builder.
const (
	// KeyVarName names the target of assign and augmented-assign.
	KeyVarName = "var_name"

	// KeyObjAttr is the dotted path text of an attribute-assign
	// target (for example "point.x").
	KeyObjAttr = "obj_attr"

	// KeyContainer is the source text of the container expression in
	// index-assign and slice-assign.
	KeyContainer = "container"

	// KeyIndex is the subscript value of an index-assign.
	KeyIndex = "index"

	// KeyLower and KeyUpper are the bounds of a slice-assign; either
	// may be null when the bound was omitted.
	KeyLower = "lower"
	KeyUpper = "upper"

	// KeyValue is the resulting value of an assignment or the value a
	// return carries.
	KeyValue = "value"

	// KeyDependsOn is a list of variable names statically read to
	// produce the assigned value or decide the condition.
	KeyDependsOn = "depends_on"

	// KeyFuncName names the function on function-entry, return and
	// call. Empty on a return recorded outside any function.
	KeyFuncName = "func_name"

	// KeyArgs is the list of argument values on function-entry and
	// call.
	KeyArgs = "args"

	// KeyTest is the condition's source text on branch and
	// while-condition.
	KeyTest = "test"

	// KeyResult is the condition's boolean outcome.
	KeyResult = "result"

	// KeyDecision is the branch decision tag.
	KeyDecision = "decision"

	// KeyTarget is the loop variable name on loop-iteration.
	KeyTarget = "target"

	// KeyIterValue is the loop variable's current value.
	KeyIterValue = "iter_value"
)

// Branch decision tags. A single conditional evaluation emits exactly
// one branch event carrying exactly one of these.
const (
	DecisionThen = "then"
	DecisionElif = "elif"
	DecisionElse = "else"
	DecisionSkip = "implicit-skip"
)
