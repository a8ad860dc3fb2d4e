package lexer

import (
	"kairo/internal/diag"
	"kairo/internal/token"
)

// scanNumber consumes an integer or float literal. A '.' followed by a digit
// turns the literal into a float; a trailing identifier character is a
// malformed number, reported once with resynchronization at whitespace.
func (lx *Lexer) scanNumber() token.Token {
	m := lx.cursor.Mark()

	for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	isFloat := false
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '.' && isDec(b1) {
		isFloat = true
		lx.cursor.Bump() // '.'
		for !lx.cursor.EOF() && isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	// "1abc" or "1.2.3" style garbage: swallow to a blank and report once.
	if !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if isIdentStartByte(b) || b >= utf8RuneSelf || (b == '.' && isFloat) {
			lx.resyncToBlank()
			span := lx.cursor.SpanFrom(m)
			lx.report(diag.LexBadNumber, span, "malformed number literal `"+lx.cursor.TextFrom(m)+"`")
			return token.Token{Kind: token.Invalid, Text: lx.cursor.TextFrom(m), Span: span}
		}
	}

	span := lx.cursor.SpanFrom(m)
	text := lx.cursor.TextFrom(m)
	if span.Len() > lx.opts.maxTokenLen() {
		lx.report(diag.LexTokenTooLong, span, "number literal exceeds the maximum token length")
		return token.Token{Kind: token.Invalid, Text: text, Span: span}
	}

	kind := token.IntLit
	if isFloat {
		kind = token.FloatLit
	}
	return token.Token{Kind: kind, Text: text, Span: span}
}
