// Package token defines the lexical vocabulary of the scripting language:
// token kinds, source positions, and the keyword table shared by the lexer
// and parser.
package token

import "fmt"

// Pos is a source position. Line and Col are 1-based; the zero Pos means
// "no position" and prints as "-".
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// IsValid reports whether the position refers to an actual source location.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is a single lexed unit. Text holds the raw source slice for idents
// and literals; for fixed-spelling kinds (operators, keywords) it may be
// empty and the Kind alone is authoritative.
type Token struct {
	Kind Kind
	Pos  Pos
	Text string
}

func (t Token) String() string {
	if t.Text != "" && (t.Kind == Ident || t.Kind.IsLiteral()) {
		return fmt.Sprintf("%s %q at %s", t.Kind, t.Text, t.Pos)
	}
	return fmt.Sprintf("%s at %s", t.Kind, t.Pos)
}

// Is reports whether the token has the given kind.
func (t Token) Is(k Kind) bool {
	return t.Kind == k
}
