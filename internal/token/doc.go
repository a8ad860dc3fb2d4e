// Package token defines lexical token kinds for the Kairo compiler.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - '$' is lexed as a distinct Dollar token attached to the following
//     identifier by the parser; it is never a general operator.
//   - Newlines are significant: the lexer emits one Newline token per
//     line break so the parser can recover at statement boundaries.
//   - Built-in names (print, error, int, float, channel, send, recv, ...)
//     are identifiers. They are recognized by the semantic layer, not here.
package token
