package parser

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/token"
)

// parseType parses a type annotation: a bare name, or one of the generic
// forms list<T>, channel<T>, task<T>.
func (p *Parser) parseType() ast.TypeSynID {
	if !p.at(token.Ident) {
		p.err(diag.SynExpectType, "expected a type name, got \""+p.lx.Peek().Text+"\"")
		return p.b.Types.NewBad(p.diagSpan())
	}
	nameTok := p.advance()

	if p.at(token.Lt) {
		switch nameTok.Text {
		case "list", "channel", "task":
		default:
			p.errAt(diag.SynExpectType, nameTok.Span, "only list, channel and task take a type argument")
			p.resyncType()
			return p.b.Types.NewBad(nameTok.Span)
		}
		p.advance() // <
		elem := p.parseType()
		closing, _ := p.expect(token.Gt, diag.SynExpectType, "expected '>' to close the type argument")
		span := nameTok.Span.Cover(closing.Span)
		switch nameTok.Text {
		case "list":
			return p.b.Types.NewList(span, elem)
		case "channel":
			return p.b.Types.NewChannel(span, elem)
		default:
			return p.b.Types.NewTask(span, elem)
		}
	}

	return p.b.Types.NewName(nameTok.Span, p.b.Strings.Intern(nameTok.Text))
}

// resyncType drops tokens until something that can follow a type.
func (p *Parser) resyncType() {
	for {
		switch p.lx.Peek().Kind {
		case token.Gt:
			p.advance()
			return
		case token.Assign, token.Comma, token.RParen, token.RBrace,
			token.LBrace, token.Newline, token.EOF:
			return
		default:
			p.advance()
		}
	}
}
