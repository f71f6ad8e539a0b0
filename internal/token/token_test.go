package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		ident string
		kind  Kind
		ok    bool
	}{
		{"func", KwFunc, true},
		{"if", KwIf, true},
		{"else", KwElse, true},
		{"while", KwWhile, true},
		{"for", KwFor, true},
		{"in", KwIn, true},
		{"return", KwReturn, true},
		{"break", KwBreak, true},
		{"continue", KwContinue, true},
		{"true", KwTrue, true},
		{"false", KwFalse, true},
		{"null", KwNull, true},
		{"If", Invalid, false},
		{"function", Invalid, false},
		{"", Invalid, false},
	}

	for _, tt := range tests {
		k, ok := LookupKeyword(tt.ident)
		assert.Equal(t, tt.ok, ok, "ident %q", tt.ident)
		if tt.ok {
			assert.Equal(t, tt.kind, k, "ident %q", tt.ident)
		}
	}
}

func TestKindClassifiers(t *testing.T) {
	assert.True(t, KwFunc.IsKeyword())
	assert.True(t, KwNull.IsKeyword())
	assert.False(t, Ident.IsKeyword())
	assert.False(t, Plus.IsKeyword())

	assert.True(t, IntLit.IsLiteral())
	assert.True(t, FloatLit.IsLiteral())
	assert.True(t, StringLit.IsLiteral())
	assert.True(t, KwTrue.IsLiteral())
	assert.True(t, KwNull.IsLiteral())
	assert.False(t, Ident.IsLiteral())
	assert.False(t, LBrace.IsLiteral())

	assert.True(t, PlusAssign.IsAugAssign())
	assert.True(t, PercentAssign.IsAugAssign())
	assert.False(t, Assign.IsAugAssign())
	assert.False(t, EqEq.IsAugAssign())
}

func TestKindBinaryOp(t *testing.T) {
	tests := []struct {
		aug  Kind
		want Kind
	}{
		{PlusAssign, Plus},
		{MinusAssign, Minus},
		{StarAssign, Star},
		{SlashAssign, Slash},
		{PercentAssign, Percent},
		{Assign, Invalid},
		{EqEq, Invalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.aug.BinaryOp())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "'+='", PlusAssign.String())
	assert.Equal(t, "identifier", Ident.String())
	assert.Equal(t, "end of input", EOF.String())
	assert.Equal(t, "invalid", Kind(200).String())
}

func TestPosString(t *testing.T) {
	assert.Equal(t, "3:7", Pos{Line: 3, Col: 7}.String())
	assert.Equal(t, "-", Pos{}.String())
	assert.False(t, Pos{}.IsValid())
	assert.True(t, Pos{Line: 1, Col: 1}.IsValid())
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Ident, Pos: Pos{Line: 2, Col: 5}, Text: "total"}
	assert.Equal(t, `identifier "total" at 2:5`, tok.String())

	op := Token{Kind: PlusAssign, Pos: Pos{Line: 2, Col: 11}}
	assert.Equal(t, "'+=' at 2:11", op.String())
	assert.True(t, op.Is(PlusAssign))
	assert.False(t, op.Is(Plus))
}
