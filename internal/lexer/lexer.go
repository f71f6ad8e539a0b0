// Package lexer turns source text into a token stream.
//
// The lexer is line oriented: a run of newline characters, possibly
// interleaved with comments and blank lines, is collapsed into a single
// Newline token, and no Newline is emitted before the first significant
// token. Malformed input never stops the stream; the lexer emits an
// Invalid token carrying the offending text and the parser turns it into
// a diagnostic.
package lexer

import (
	"github.com/hindsightlab/hindsight/internal/token"
)

// Lexer scans one source buffer. Create with New, consume with Next.
type Lexer struct {
	src  string
	off  int
	line int
	col  int

	look    *token.Token
	emitted bool       // any significant token emitted yet
	last    token.Kind // kind of the last emitted token
}

// New returns a lexer over src. Positions start at line 1, column 1.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Next returns the next significant token. After the end of input it
// returns EOF forever.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	tok := lx.scan()
	lx.emitted = true
	lx.last = tok.Kind
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		t := lx.Next()
		lx.look = &t
	}
	return *lx.look
}

func (lx *Lexer) scan() token.Token {
	sawNewline := false
	nlPos := lx.pos()

	for !lx.eof() {
		switch ch := lx.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.bump()
		case ch == '\n':
			if !sawNewline {
				nlPos = lx.pos()
				sawNewline = true
			}
			lx.bump()
		case ch == '/' && lx.peekAt(1) == '/':
			lx.skipLineComment()
		default:
			// A newline run only terminates something, so suppress it at
			// the start of input and after a preceding Newline.
			if sawNewline && lx.emitted && lx.last != token.Newline {
				return token.Token{Kind: token.Newline, Pos: nlPos}
			}
			return lx.scanToken()
		}
	}

	if sawNewline && lx.emitted && lx.last != token.Newline {
		return token.Token{Kind: token.Newline, Pos: nlPos}
	}
	return token.Token{Kind: token.EOF, Pos: lx.pos()}
}

func (lx *Lexer) scanToken() token.Token {
	ch := lx.peek()
	switch {
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDigit(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	default:
		return lx.scanOperator()
	}
}

func (lx *Lexer) skipLineComment() {
	for !lx.eof() && lx.peek() != '\n' {
		lx.bump()
	}
}

// pos reports the position of the next unread byte.
func (lx *Lexer) pos() token.Pos {
	return token.Pos{Line: lx.line, Col: lx.col}
}

func (lx *Lexer) eof() bool {
	return lx.off >= len(lx.src)
}

func (lx *Lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.off]
}

// peekAt looks n bytes past the current offset without consuming.
func (lx *Lexer) peekAt(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func (lx *Lexer) bump() byte {
	if lx.eof() {
		return 0
	}
	ch := lx.src[lx.off]
	lx.off++
	if ch == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return ch
}

func (lx *Lexer) eat(ch byte) bool {
	if !lx.eof() && lx.src[lx.off] == ch {
		lx.bump()
		return true
	}
	return false
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
