package lexer

import (
	"kairo/internal/diag"
	"kairo/internal/source"
)

// report forwards a lexical error to the configured reporter, if any.
func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter == nil {
		return
	}
	lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil, nil)
}
