package lexer

import (
	"fmt"

	"kairo/internal/diag"
	"kairo/internal/token"
)

// scanOperatorOrPunct consumes one operator or punctuation token.
// Unknown characters are reported and skipped to the next blank.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	m := lx.cursor.Mark()
	b := lx.cursor.Bump()

	make1 := func(kind token.Kind) token.Token {
		return token.Token{Kind: kind, Text: lx.cursor.TextFrom(m), Span: lx.cursor.SpanFrom(m)}
	}

	switch b {
	case '$':
		return make1(token.Dollar)
	case '+':
		return make1(token.Plus)
	case '-':
		if lx.cursor.Eat('>') {
			return make1(token.Arrow)
		}
		return make1(token.Minus)
	case '*':
		return make1(token.Star)
	case '/':
		return make1(token.Slash)
	case '%':
		return make1(token.Percent)
	case '=':
		if lx.cursor.Eat('=') {
			return make1(token.Eq)
		}
		return make1(token.Assign)
	case '!':
		if lx.cursor.Eat('=') {
			return make1(token.Ne)
		}
		return make1(token.Bang)
	case '<':
		if lx.cursor.Eat('=') {
			return make1(token.Le)
		}
		return make1(token.Lt)
	case '>':
		if lx.cursor.Eat('=') {
			return make1(token.Ge)
		}
		return make1(token.Gt)
	case '&':
		if lx.cursor.Eat('&') {
			return make1(token.AndAnd)
		}
	case '|':
		if lx.cursor.Eat('|') {
			return make1(token.OrOr)
		}
	case '(':
		return make1(token.LParen)
	case ')':
		return make1(token.RParen)
	case '{':
		return make1(token.LBrace)
	case '}':
		return make1(token.RBrace)
	case '[':
		return make1(token.LBracket)
	case ']':
		return make1(token.RBracket)
	case ',':
		return make1(token.Comma)
	case ':':
		return make1(token.Colon)
	case '.':
		return make1(token.Dot)
	}

	lx.resyncToBlank()
	span := lx.cursor.SpanFrom(m)
	lx.report(diag.LexUnknownChar, span, fmt.Sprintf("unknown character %q", rune(b)))
	return token.Token{Kind: token.Invalid, Text: lx.cursor.TextFrom(m), Span: span}
}
