package lexer

import (
	"kairo/internal/diag"
	"kairo/internal/token"
)

// scanString consumes a double-quoted string literal with the escapes
// \" \\ \n \t \r. The returned Text keeps the surrounding quotes; later
// stages unescape. Unterminated strings produce an Invalid token and the
// lexer resynchronizes at the line break.
func (lx *Lexer) scanString() token.Token {
	m := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case '"':
			lx.cursor.Bump()
			span := lx.cursor.SpanFrom(m)
			text := lx.cursor.TextFrom(m)
			if span.Len() > lx.opts.maxTokenLen() {
				lx.report(diag.LexTokenTooLong, span, "string literal exceeds the maximum token length")
				return token.Token{Kind: token.Invalid, Text: text, Span: span}
			}
			return token.Token{Kind: token.StringLit, Text: text, Span: span}
		case '\\':
			lx.cursor.Bump()
			switch lx.cursor.Peek() {
			case '"', '\\', 'n', 't', 'r':
				lx.cursor.Bump()
			case '\n', 0:
				// fallthrough to the unterminated report below
			default:
				esc := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(esc), "invalid escape sequence")
			}
		case '\n':
			span := lx.cursor.SpanFrom(m)
			lx.report(diag.LexUnterminatedString, span, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Text: lx.cursor.TextFrom(m), Span: span}
		default:
			lx.cursor.Bump()
		}
	}

	span := lx.cursor.SpanFrom(m)
	lx.report(diag.LexUnterminatedString, span, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Text: lx.cursor.TextFrom(m), Span: span}
}

// Unquote decodes the escapes of a lexed string literal's Text.
func Unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' || i+1 == len(text) {
			out = append(out, text[i])
			continue
		}
		i++
		switch text[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '"', '\\':
			out = append(out, text[i])
		default:
			out = append(out, '\\', text[i])
		}
	}
	return string(out)
}
