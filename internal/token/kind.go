package token

// Kind identifies the category of a lexed token.
type Kind uint8

const (
	// Invalid marks a byte sequence the lexer could not tokenize.
	Invalid Kind = iota
	// EOF marks the end of input. The lexer returns it forever once reached.
	EOF
	// Newline terminates a statement. Consecutive newlines collapse to one.
	Newline

	// Ident is a name: variables, functions, attributes.
	Ident

	// Keywords.
	KwFunc     // func
	KwIf       // if
	KwElse     // else
	KwWhile    // while
	KwFor      // for
	KwIn       // in
	KwReturn   // return
	KwBreak    // break
	KwContinue // continue
	KwTrue     // true
	KwFalse    // false
	KwNull     // null

	// Literals.
	IntLit
	FloatLit
	StringLit

	// Arithmetic operators.
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %

	// Assignment operators.
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=

	// Comparison operators.
	EqEq   // ==
	BangEq // !=
	Lt     // <
	LtEq   // <=
	Gt     // >
	GtEq   // >=

	// Logical operators.
	AndAnd // &&
	OrOr   // ||
	Bang   // !

	// Punctuation.
	Dot      // .
	Comma    // ,
	Colon    // :
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LBrace   // {
	RBrace   // }

	kindCount
)

// kindNames holds the display form used in diagnostics.
var kindNames = [kindCount]string{
	Invalid:       "invalid",
	EOF:           "end of input",
	Newline:       "newline",
	Ident:         "identifier",
	KwFunc:        "'func'",
	KwIf:          "'if'",
	KwElse:        "'else'",
	KwWhile:       "'while'",
	KwFor:         "'for'",
	KwIn:          "'in'",
	KwReturn:      "'return'",
	KwBreak:       "'break'",
	KwContinue:    "'continue'",
	KwTrue:        "'true'",
	KwFalse:       "'false'",
	KwNull:        "'null'",
	IntLit:        "integer literal",
	FloatLit:      "float literal",
	StringLit:     "string literal",
	Plus:          "'+'",
	Minus:         "'-'",
	Star:          "'*'",
	Slash:         "'/'",
	Percent:       "'%'",
	Assign:        "'='",
	PlusAssign:    "'+='",
	MinusAssign:   "'-='",
	StarAssign:    "'*='",
	SlashAssign:   "'/='",
	PercentAssign: "'%='",
	EqEq:          "'=='",
	BangEq:        "'!='",
	Lt:            "'<'",
	LtEq:          "'<='",
	Gt:            "'>'",
	GtEq:          "'>='",
	AndAnd:        "'&&'",
	OrOr:          "'||'",
	Bang:          "'!'",
	Dot:           "'.'",
	Comma:         "','",
	Colon:         "':'",
	LParen:        "'('",
	RParen:        "')'",
	LBracket:      "'['",
	RBracket:      "']'",
	LBrace:        "'{'",
	RBrace:        "'}'",
}

// String returns the display form of the kind for diagnostics.
func (k Kind) String() string {
	if k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// IsKeyword reports whether the kind names a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwFunc && k <= KwNull
}

// IsLiteral reports whether the kind is a literal constant.
func (k Kind) IsLiteral() bool {
	switch k {
	case IntLit, FloatLit, StringLit, KwTrue, KwFalse, KwNull:
		return true
	default:
		return false
	}
}

// IsAugAssign reports whether the kind is a compound assignment operator.
func (k Kind) IsAugAssign() bool {
	return k >= PlusAssign && k <= PercentAssign
}

// BinaryOp maps a compound assignment operator to the arithmetic operator
// it applies. Returns Invalid for any other kind.
func (k Kind) BinaryOp() Kind {
	switch k {
	case PlusAssign:
		return Plus
	case MinusAssign:
		return Minus
	case StarAssign:
		return Star
	case SlashAssign:
		return Slash
	case PercentAssign:
		return Percent
	default:
		return Invalid
	}
}
