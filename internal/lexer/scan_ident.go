package lexer

import (
	"unicode"
	"unicode/utf8"

	"kairo/internal/diag"
	"kairo/internal/token"
)

// scanIdentOrKeyword consumes an identifier and classifies keywords.
// Non-ASCII identifier runes are accepted (unicode letters).
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	m := lx.cursor.Mark()

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case isIdentContinueByte(b):
			lx.cursor.Bump()
		case b >= utf8RuneSelf:
			r, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
			if r == utf8.RuneError && size == 1 {
				lx.report(diag.LexUnknownChar, lx.cursor.SpanFrom(lx.cursor.Mark()), "invalid UTF-8 byte")
				lx.cursor.Bump()
				continue
			}
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				goto done
			}
			for i := 0; i < size; i++ {
				lx.cursor.Bump()
			}
		default:
			goto done
		}
	}
done:

	span := lx.cursor.SpanFrom(m)
	text := lx.cursor.TextFrom(m)
	if span.Len() > lx.opts.maxTokenLen() {
		lx.report(diag.LexTokenTooLong, span, "identifier exceeds the maximum token length")
		return token.Token{Kind: token.Invalid, Text: text, Span: span}
	}

	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Text: text, Span: span}
	}
	return token.Token{Kind: token.Ident, Text: text, Span: span}
}
