package parser

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/token"
)

// Binding powers, loosest first.
const (
	precNone    = 0
	precOr      = 1
	precAnd     = 2
	precCompare = 3
	precAdd     = 4
	precMul     = 5
)

func binOpFor(k token.Kind) (ast.BinOp, int, bool) {
	switch k {
	case token.OrOr:
		return ast.BinOr, precOr, true
	case token.AndAnd:
		return ast.BinAnd, precAnd, true
	case token.Eq:
		return ast.BinEq, precCompare, true
	case token.Ne:
		return ast.BinNe, precCompare, true
	case token.Lt:
		return ast.BinLt, precCompare, true
	case token.Le:
		return ast.BinLe, precCompare, true
	case token.Gt:
		return ast.BinGt, precCompare, true
	case token.Ge:
		return ast.BinGe, precCompare, true
	case token.Plus:
		return ast.BinAdd, precAdd, true
	case token.Minus:
		return ast.BinSub, precAdd, true
	case token.Star:
		return ast.BinMul, precMul, true
	case token.Slash:
		return ast.BinDiv, precMul, true
	case token.Percent:
		return ast.BinMod, precMul, true
	default:
		return 0, precNone, false
	}
}

// parseExpr parses a full expression.
func (p *Parser) parseExpr() ast.ExprID {
	return p.parseBinary(precNone)
}

// parseBinary is precedence climbing over the left-associative operators.
func (p *Parser) parseBinary(minPrec int) ast.ExprID {
	left := p.parseUnary()
	for {
		op, prec, ok := binOpFor(p.lx.Peek().Kind)
		if !ok || prec <= minPrec {
			return left
		}
		opTok := p.advance()
		p.skipNewlines()
		right := p.parseBinary(prec)
		span := p.b.ExprSpan(left).Cover(p.b.ExprSpan(right))
		left = p.b.Exprs.NewBinary(span, op, opTok.Span, left, right)
	}
}

// parseUnary parses prefix operators and the prefix keywords spawn, await,
// try and must.
func (p *Parser) parseUnary() ast.ExprID {
	switch p.lx.Peek().Kind {
	case token.Minus:
		tok := p.advance()
		operand := p.parseUnary()
		return p.b.Exprs.NewUnary(tok.Span.Cover(p.b.ExprSpan(operand)), ast.UnNeg, operand)
	case token.Bang:
		tok := p.advance()
		operand := p.parseUnary()
		return p.b.Exprs.NewUnary(tok.Span.Cover(p.b.ExprSpan(operand)), ast.UnNot, operand)
	case token.KwSpawn:
		tok := p.advance()
		call := p.parseUnary()
		if p.b.Exprs.Get(call).Kind != ast.ExprCall {
			p.errAt(diag.SynExpectExpression, p.b.ExprSpan(call), "'spawn' needs a function call to run")
		}
		return p.b.Exprs.NewSpawn(tok.Span.Cover(p.b.ExprSpan(call)), call)
	case token.KwAwait:
		tok := p.advance()
		task := p.parseUnary()
		return p.b.Exprs.NewAwait(tok.Span.Cover(p.b.ExprSpan(task)), task)
	case token.KwTry:
		tok := p.advance()
		inner := p.parseUnary()
		return p.b.Exprs.NewTry(tok.Span.Cover(p.b.ExprSpan(inner)), inner)
	case token.KwMust:
		tok := p.advance()
		inner := p.parseUnary()
		return p.b.Exprs.NewMust(tok.Span.Cover(p.b.ExprSpan(inner)), inner)
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by call and member
// suffixes.
func (p *Parser) parsePostfix() ast.ExprID {
	expr := p.parsePrimary()
	for {
		switch p.lx.Peek().Kind {
		case token.LParen:
			expr = p.parseCall(expr)
		case token.Dot:
			p.advance()
			name, nameSpan, ok := p.parseIdent()
			if !ok {
				return p.b.Exprs.NewBad(p.b.ExprSpan(expr).Cover(nameSpan))
			}
			expr = p.b.Exprs.NewMember(p.b.ExprSpan(expr).Cover(nameSpan), expr, name, nameSpan)
		default:
			return expr
		}
	}
}

// parseCall parses the argument list of a call. The soft keywords send and
// recv in callee position become channel operations instead of plain calls.
func (p *Parser) parseCall(callee ast.ExprID) ast.ExprID {
	p.advance() // (
	var args []ast.ExprID
	p.skipNewlines()
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if p.at(token.Comma) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	closing, _ := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close the call")
	span := p.b.ExprSpan(callee).Cover(closing.Span)

	if ident, ok := p.b.Exprs.Ident(callee); ok {
		switch p.b.Lookup(ident.Name) {
		case "send":
			if len(args) != 2 {
				p.errAt(diag.SynUnexpectedToken, span, "send takes a channel and a value: send(ch, v)")
				return p.b.Exprs.NewBad(span)
			}
			return p.b.Exprs.NewChanSend(span, args[0], args[1])
		case "recv":
			if len(args) != 1 {
				p.errAt(diag.SynUnexpectedToken, span, "recv takes a channel: recv(ch)")
				return p.b.Exprs.NewBad(span)
			}
			return p.b.Exprs.NewChanRecv(span, args[0])
		}
	}
	return p.b.Exprs.NewCall(span, callee, args)
}

// parsePrimary parses literals, names, list literals and parenthesized
// expressions.
func (p *Parser) parsePrimary() ast.ExprID {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Ident:
		p.advance()
		return p.b.Exprs.NewIdent(tok.Span, p.b.Strings.Intern(tok.Text))

	case token.IntLit:
		p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.LitInt, p.b.Strings.Intern(tok.Text), 0)

	case token.FloatLit:
		p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.LitFloat, p.b.Strings.Intern(tok.Text), 0)

	case token.StringLit:
		p.advance()
		text := p.b.Strings.Intern(tok.Text)
		value := p.b.Strings.Intern(lexer.Unquote(tok.Text))
		return p.b.Exprs.NewLiteral(tok.Span, ast.LitString, text, value)

	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.b.Exprs.NewLiteral(tok.Span, ast.LitBool, p.b.Strings.Intern(tok.Text), 0)

	case token.LBracket:
		return p.parseListLiteral()

	case token.LParen:
		p.advance()
		p.skipNewlines()
		inner := p.parseExpr()
		p.skipNewlines()
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		return inner

	default:
		p.err(diag.SynExpectExpression, "expected an expression, got \""+tok.Text+"\"")
		bad := p.b.Exprs.NewBad(p.diagSpan())
		if !p.atStmtEnd() {
			p.advance()
		}
		return bad
	}
}

func (p *Parser) parseListLiteral() ast.ExprID {
	open := p.advance() // [
	var elems []ast.ExprID
	p.skipNewlines()
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		elems = append(elems, p.parseExpr())
		if p.at(token.Comma) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.skipNewlines()
	closing, _ := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' to close the list")
	return p.b.Exprs.NewList(open.Span.Cover(closing.Span), elems)
}
