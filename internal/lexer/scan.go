package lexer

import (
	"strings"

	"github.com/hindsightlab/hindsight/internal/token"
)

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	pos := lx.pos()
	start := lx.off
	for !lx.eof() && isIdentContinue(lx.peek()) {
		lx.bump()
	}
	text := lx.src[start:lx.off]
	if kind, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kind, Pos: pos, Text: text}
	}
	return token.Token{Kind: token.Ident, Pos: pos, Text: text}
}

// scanNumber scans an integer or float literal. The raw digits stay in
// Text; the parser converts them. A dot not followed by a digit is left
// for the operator scanner, so "3.x" lexes as 3 . x.
func (lx *Lexer) scanNumber() token.Token {
	pos := lx.pos()
	start := lx.off
	for !lx.eof() && isDigit(lx.peek()) {
		lx.bump()
	}
	kind := token.IntLit
	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		kind = token.FloatLit
		lx.bump()
		for !lx.eof() && isDigit(lx.peek()) {
			lx.bump()
		}
	}
	return token.Token{Kind: kind, Pos: pos, Text: lx.src[start:lx.off]}
}

// scanString scans a double-quoted literal and unescapes it into Text.
// An unterminated string or unknown escape yields an Invalid token whose
// Text holds the raw source consumed so far.
func (lx *Lexer) scanString() token.Token {
	pos := lx.pos()
	start := lx.off
	lx.bump() // opening quote

	var b strings.Builder
	for {
		if lx.eof() || lx.peek() == '\n' {
			return token.Token{Kind: token.Invalid, Pos: pos, Text: lx.src[start:lx.off]}
		}
		ch := lx.bump()
		switch ch {
		case '"':
			return token.Token{Kind: token.StringLit, Pos: pos, Text: b.String()}
		case '\\':
			if lx.eof() {
				return token.Token{Kind: token.Invalid, Pos: pos, Text: lx.src[start:lx.off]}
			}
			esc := lx.bump()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return token.Token{Kind: token.Invalid, Pos: pos, Text: lx.src[start:lx.off]}
			}
		default:
			b.WriteByte(ch)
		}
	}
}

func (lx *Lexer) scanOperator() token.Token {
	pos := lx.pos()
	ch := lx.bump()

	switch ch {
	case '+':
		if lx.eat('=') {
			return token.Token{Kind: token.PlusAssign, Pos: pos}
		}
		return token.Token{Kind: token.Plus, Pos: pos}
	case '-':
		if lx.eat('=') {
			return token.Token{Kind: token.MinusAssign, Pos: pos}
		}
		return token.Token{Kind: token.Minus, Pos: pos}
	case '*':
		if lx.eat('=') {
			return token.Token{Kind: token.StarAssign, Pos: pos}
		}
		return token.Token{Kind: token.Star, Pos: pos}
	case '/':
		if lx.eat('=') {
			return token.Token{Kind: token.SlashAssign, Pos: pos}
		}
		return token.Token{Kind: token.Slash, Pos: pos}
	case '%':
		if lx.eat('=') {
			return token.Token{Kind: token.PercentAssign, Pos: pos}
		}
		return token.Token{Kind: token.Percent, Pos: pos}
	case '=':
		if lx.eat('=') {
			return token.Token{Kind: token.EqEq, Pos: pos}
		}
		return token.Token{Kind: token.Assign, Pos: pos}
	case '!':
		if lx.eat('=') {
			return token.Token{Kind: token.BangEq, Pos: pos}
		}
		return token.Token{Kind: token.Bang, Pos: pos}
	case '<':
		if lx.eat('=') {
			return token.Token{Kind: token.LtEq, Pos: pos}
		}
		return token.Token{Kind: token.Lt, Pos: pos}
	case '>':
		if lx.eat('=') {
			return token.Token{Kind: token.GtEq, Pos: pos}
		}
		return token.Token{Kind: token.Gt, Pos: pos}
	case '&':
		if lx.eat('&') {
			return token.Token{Kind: token.AndAnd, Pos: pos}
		}
		return token.Token{Kind: token.Invalid, Pos: pos, Text: "&"}
	case '|':
		if lx.eat('|') {
			return token.Token{Kind: token.OrOr, Pos: pos}
		}
		return token.Token{Kind: token.Invalid, Pos: pos, Text: "|"}
	case '.':
		return token.Token{Kind: token.Dot, Pos: pos}
	case ',':
		return token.Token{Kind: token.Comma, Pos: pos}
	case ':':
		return token.Token{Kind: token.Colon, Pos: pos}
	case '(':
		return token.Token{Kind: token.LParen, Pos: pos}
	case ')':
		return token.Token{Kind: token.RParen, Pos: pos}
	case '[':
		return token.Token{Kind: token.LBracket, Pos: pos}
	case ']':
		return token.Token{Kind: token.RBracket, Pos: pos}
	case '{':
		return token.Token{Kind: token.LBrace, Pos: pos}
	case '}':
		return token.Token{Kind: token.RBrace, Pos: pos}
	default:
		return token.Token{Kind: token.Invalid, Pos: pos, Text: string(ch)}
	}
}
