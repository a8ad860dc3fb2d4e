package parser

import (
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/token"
)

// advance eats the next token and remembers its span for diagnostics.
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// diagSpan picks the best span for a diagnostic at the current position.
// At EOF the zero-width point after the last real token reads better than
// the file end.
func (p *Parser) diagSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect consumes a token of kind k or reports code with msg.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.report(code, diag.SevError, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp, Text: p.lx.Peek().Text}, false
}

func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, diag.SevError, p.diagSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevError, sp, msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if p.opts.Reporter == nil {
		return
	}
	if sev == diag.SevError {
		p.errors++
		if p.opts.MaxErrors != 0 && p.errors > p.opts.MaxErrors {
			return
		}
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil, nil)
}

// skipNewlines consumes any run of Newline tokens.
func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

// atStmtEnd reports whether the current token terminates a statement.
func (p *Parser) atStmtEnd() bool {
	switch p.lx.Peek().Kind {
	case token.Newline, token.EOF, token.RBrace:
		return true
	default:
		return false
	}
}

// finishStmt consumes the statement terminator, or reports and resyncs to
// the next statement boundary.
func (p *Parser) finishStmt() {
	if p.at(token.Newline) {
		p.skipNewlines()
		return
	}
	if p.at(token.EOF) || p.at(token.RBrace) {
		return
	}
	p.err(diag.SynExpectNewline, "expected a line break after the statement")
	p.resyncStmt()
}

// resyncStmt drops tokens until the next statement boundary so one bad
// statement does not poison the rest of the file.
func (p *Parser) resyncStmt() {
	for {
		switch p.lx.Peek().Kind {
		case token.Newline:
			p.skipNewlines()
			return
		case token.EOF, token.RBrace:
			return
		default:
			p.advance()
		}
	}
}
