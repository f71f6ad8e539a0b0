package interp

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/token"
)

func TestBuiltinLen(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"len(\"héllo\")", "5"},
		{"len(\"\")", "0"},
		{"len([1, 2])", "2"},
		{"len({\"a\": 1})", "1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}

	re := runErr(t, "x = len(5)\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
	re = runErr(t, "x = len()\n")
	assert.Equal(t, ErrCodeArityMismatch, re.Code)
}

func TestBuiltinRange(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"range(3)", "[0, 1, 2]"},
		{"range(0)", "[]"},
		{"range(2, 5)", "[2, 3, 4]"},
		{"range(5, 2)", "[]"},
		{"range(-2, 1)", "[-2, -1, 0]"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}

	re := runErr(t, "x = range(\"a\")\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
	assert.Equal(t, "range bound must be int, got string", re.Message)
}

func TestBuiltinPush(t *testing.T) {
	in, _ := run(t, "xs = []\nr = push(xs, 1)\npush(xs, \"two\")\n")
	assert.Equal(t, `[1, "two"]`, in.Repr(in.Globals()["xs"]))
	assert.Equal(t, Null{}, in.Globals()["r"])

	re := runErr(t, "push(1, 2)\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
}

func TestBuiltinKeys(t *testing.T) {
	assert.Equal(t, `["a", "b", "z"]`, evalStr(t, "keys({\"z\": 1, \"a\": 2, \"b\": 3})"))
	assert.Equal(t, "[]", evalStr(t, "keys({})"))

	re := runErr(t, "x = keys([1])\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
}

func TestBuiltinStrAndRepr(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"str(\"a\")", `"a"`},
		{"repr(\"a\")", `"\"a\""`},
		{"str(42)", `"42"`},
		{"str(2.5)", `"2.5"`},
		{"str(3.0)", `"3.0"`},
		{"str(true)", `"true"`},
		{"str(null)", `"null"`},
		{"str([1, \"a\"])", `"[1, \"a\"]"`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}
}

func TestBuiltinInt(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"int(7)", "7"},
		{"int(3.9)", "3"},
		{"int(-3.9)", "-3"},
		{"int(\"42\")", "42"},
		{"int(\" 7 \")", "7"},
		{"int(true)", "1"},
		{"int(false)", "0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}

	re := runErr(t, "x = int(\"seven\")\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
	assert.Equal(t, `cannot parse "seven" as int`, re.Message)

	re = runErr(t, "x = int([1])\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
}

func TestBuiltinIntOverflow(t *testing.T) {
	re := runErr(t, "x = int(1000000000000000000000.0)\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
	assert.Contains(t, re.Message, "does not fit in int")
}

func TestBuiltinFloat(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"float(2)", "2.0"},
		{"float(2.5)", "2.5"},
		{"float(\"2.5\")", "2.5"},
		{"float(\" 1 \")", "1.0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}

	re := runErr(t, "x = float(\"pi\")\n")
	assert.Equal(t, ErrCodeBadArgument, re.Code)
}

func TestBuiltinType(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"type(null)", `"null"`},
		{"type(true)", `"bool"`},
		{"type(1)", `"int"`},
		{"type(1.5)", `"float"`},
		{"type(\"\")", `"string"`},
		{"type([])", `"list"`},
		{"type({})", `"dict"`},
		{"type(print)", `"builtin"`},
		{"type(object(\"Point\"))", `"Point"`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, evalStr(t, tc.src), "source: %s", tc.src)
	}

	in, _ := run(t, "func f() {\n}\nname = type(f)\n")
	assert.Equal(t, String("func"), in.Globals()["name"])
}

func TestBuiltinObject(t *testing.T) {
	src := `
p = object("Point", {"x": 1, "y": 2})
bare = object("Empty")
`
	in, _ := run(t, src)
	p := in.Globals()["p"].(*Object)
	assert.Equal(t, "Point", p.TypeName)
	assert.Equal(t, Int(1), p.Fields["x"])
	assert.Equal(t, Int(2), p.Fields["y"])

	bare := in.Globals()["bare"].(*Object)
	assert.Empty(t, bare.Fields)
}

func TestBuiltinObjectErrors(t *testing.T) {
	assert.Equal(t, ErrCodeBadArgument, runErr(t, "x = object(1)\n").Code)
	assert.Equal(t, ErrCodeBadArgument, runErr(t, "x = object(\"\")\n").Code)
	assert.Equal(t, ErrCodeBadArgument, runErr(t, "x = object(\"P\", 5)\n").Code)
}

func TestObjectDisplayIDsFollowCreationOrder(t *testing.T) {
	src := `
a = object("P")
b = object("P")
`
	in, _ := run(t, src)
	assert.Equal(t, "P#1{}", in.Repr(in.Globals()["a"]))
	assert.Equal(t, "P#2{}", in.Repr(in.Globals()["b"]))
}

func TestReprCyclicList(t *testing.T) {
	in, _ := run(t, "xs = [1]\npush(xs, xs)\n")
	assert.Equal(t, "[1, [...]]", in.Repr(in.Globals()["xs"]))
}

func TestReprCyclicObject(t *testing.T) {
	in, _ := run(t, "p = object(\"P\")\np.self = p\n")
	assert.Equal(t, "P#1{self: P#1{...}}", in.Repr(in.Globals()["p"]))
}

func TestReprSharedNotCyclic(t *testing.T) {
	// The same list twice in one container is sharing, not a cycle.
	in, _ := run(t, "inner = [1]\nouter = [inner, inner]\n")
	assert.Equal(t, "[[1], [1]]", in.Repr(in.Globals()["outer"]))
}

func TestReprDictSortedKeys(t *testing.T) {
	assert.Equal(t, `{"a": 1, "b": 2}`, evalStr(t, "{\"b\": 2, \"a\": 1}"))
}

func TestRegisterBuiltin(t *testing.T) {
	in := New(Options{Stdout: io.Discard})
	in.RegisterBuiltin(&Builtin{Name: "double", Fn: func(in *Interp, pos token.Pos, args []Value) (Value, error) {
		return args[0].(Int) * 2, nil
	}})
	require.NoError(t, in.Run(mustParse(t, "x = double(21)\n")))
	assert.Equal(t, Int(42), in.Globals()["x"])
}
