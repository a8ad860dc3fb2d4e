// Package lexer converts Kairo source text into a token stream.
// On malformed input (unterminated string, unknown character) it emits an
// Invalid token and resynchronizes at the next whitespace or newline
// boundary, so the parser can still attempt a structural pass.
package lexer

import (
	"kairo/internal/source"
	"kairo/internal/token"
)

// Lexer produces tokens for a single file.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token // one-token lookahead buffer
}

// New creates a lexer over the given file.
func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next significant token. Spaces, tabs and // comments are
// skipped; newlines are returned as Newline tokens. After EOF it always
// returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipBlanks()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case ch == '\n':
		m := lx.cursor.Mark()
		lx.cursor.Bump()
		return token.Token{Kind: token.Newline, Text: "\n", Span: lx.cursor.SpanFrom(m)}

	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()

	case isDec(ch):
		return lx.scanNumber()

	case ch == '"':
		return lx.scanString()

	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// EmptySpan returns a zero-width span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// skipBlanks consumes spaces, tabs, carriage returns and // comments.
// Newlines are significant and left in place.
func (lx *Lexer) skipBlanks() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\r':
			lx.cursor.Bump()
		case '/':
			if _, b1, ok := lx.cursor.Peek2(); ok && b1 == '/' {
				lx.skipLineComment()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (lx *Lexer) skipLineComment() {
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
}

// resyncToBlank drops bytes until the next whitespace or newline so the
// stream realigns after a malformed token.
func (lx *Lexer) resyncToBlank() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\r', '\n':
			return
		}
		lx.cursor.Bump()
	}
}
