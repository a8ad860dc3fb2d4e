package parser

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/source"
	"kairo/internal/token"
)

// Options configures a single-file parse.
type Options struct {
	// MaxErrors stops reporting after that many errors. 0 means no limit.
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser holds the state for one file. It never aborts on a syntax error:
// bad constructs become placeholder nodes and parsing resumes at the next
// statement boundary.
type Parser struct {
	lx   *lexer.Lexer
	b    *ast.Builder
	opts Options

	errors   uint
	lastSpan source.Span
}

// ParseFile parses one file into the builder and returns its FileID.
// Top-level `fun` and `type` declarations become items; loose top-level
// statements are collected and wrapped into a synthesized `main` function,
// matching the script-style entry point.
func ParseFile(lx *lexer.Lexer, b *ast.Builder, opts Options) ast.FileID {
	p := Parser{
		lx:       lx,
		b:        b,
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}
	return p.parseFile()
}

func (p *Parser) parseFile() ast.FileID {
	start := p.lx.Peek().Span
	var items []ast.ItemID
	var loose []ast.StmtID

	p.skipNewlines()
	for !p.at(token.EOF) {
		switch p.lx.Peek().Kind {
		case token.KwFun:
			items = append(items, p.parseFunItem())
		case token.KwType:
			items = append(items, p.parseTypeItem())
		case token.RBrace:
			// A stray '}' would otherwise stall the loop.
			p.err(diag.SynUnexpectedToken, "unexpected '}'")
			p.advance()
		default:
			loose = append(loose, p.parseStmt())
		}
		p.skipNewlines()
	}

	end := p.lx.Peek().Span
	span := start.Cover(end)
	if len(loose) > 0 {
		items = append(items, p.synthesizeMain(loose))
	}
	return p.b.AddFile(span.File, span, items)
}

// synthesizeMain wraps loose top-level statements into an implicit entry
// function. A file that also declares `fun main` gets a duplicate-definition
// diagnostic from the resolver.
func (p *Parser) synthesizeMain(stmts []ast.StmtID) ast.ItemID {
	first := p.b.StmtSpan(stmts[0])
	last := p.b.StmtSpan(stmts[len(stmts)-1])
	span := first.Cover(last)
	body := p.b.Stmts.NewBlock(span, stmts)
	return p.b.Items.NewFunc(span, ast.FuncData{
		Name:     p.b.Strings.Intern("main"),
		NameSpan: source.Span{File: first.File, Start: first.Start, End: first.Start},
		Body:     body,
	})
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

// parseIdent expects an identifier and interns it.
func (p *Parser) parseIdent() (source.StringID, source.Span, bool) {
	if p.at(token.Ident) {
		tok := p.advance()
		return p.b.Strings.Intern(tok.Text), tok.Span, true
	}
	p.err(diag.SynExpectIdentifier, "expected a name, got \""+p.lx.Peek().Text+"\"")
	return source.NoStringID, p.diagSpan(), false
}
