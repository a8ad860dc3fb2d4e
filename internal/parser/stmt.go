package parser

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/token"
)

// parseStmt parses one statement and its terminator.
func (p *Parser) parseStmt() ast.StmtID {
	switch p.lx.Peek().Kind {
	case token.KwIf:
		return p.parseIf()
	case token.KwFor:
		return p.parseFor()
	case token.KwReturn:
		return p.parseReturn()
	case token.LBrace:
		return p.parseBlock()
	case token.Dollar:
		return p.parseDollarAssign()
	default:
		return p.parseExprOrAssign()
	}
}

// parseDollarAssign parses `$name = expr` and `$name: type = expr`.
func (p *Parser) parseDollarAssign() ast.StmtID {
	dollar := p.advance()

	if !p.at(token.Ident) {
		p.errAt(diag.SynDollarNeedsName, dollar.Span, "'$' must be followed by the name it makes mutable")
		p.resyncStmt()
		return p.b.Stmts.NewBad(dollar.Span)
	}
	nameTok := p.advance()
	target := p.b.Exprs.NewIdent(nameTok.Span, p.b.Strings.Intern(nameTok.Text))

	var typeAnn ast.TypeSynID
	if p.at(token.Colon) {
		p.advance()
		typeAnn = p.parseType()
	}

	if _, ok := p.expect(token.Assign, diag.SynExpectAssign, "expected '=' after \"$"+nameTok.Text+"\""); !ok {
		p.resyncStmt()
		return p.b.Stmts.NewBad(dollar.Span.Cover(nameTok.Span))
	}
	value := p.parseExpr()
	span := dollar.Span.Cover(p.b.ExprSpan(value))
	id := p.b.Stmts.NewAssign(span, ast.StmtAssignData{
		Dollar:     true,
		DollarSpan: dollar.Span,
		Target:     target,
		TypeAnn:    typeAnn,
		Value:      value,
	})
	p.finishStmt()
	return id
}

// parseExprOrAssign parses an expression, then reinterprets it as the target
// of a binding or assignment when ':' or '=' follows. One token of lookahead
// is enough this way.
func (p *Parser) parseExprOrAssign() ast.StmtID {
	expr := p.parseExpr()
	span := p.b.ExprSpan(expr)

	var typeAnn ast.TypeSynID
	if p.at(token.Colon) {
		if kind := p.b.Exprs.Get(expr).Kind; kind != ast.ExprIdent {
			p.err(diag.SynUnexpectedToken, "a type annotation is only valid on a plain name")
			p.resyncStmt()
			return p.b.Stmts.NewBad(span)
		}
		p.advance()
		typeAnn = p.parseType()
	}

	if p.at(token.Assign) || typeAnn.IsValid() {
		eq, ok := p.expect(token.Assign, diag.SynExpectAssign, "expected '=' after the type annotation")
		if !ok {
			p.resyncStmt()
			return p.b.Stmts.NewBad(span)
		}
		switch p.b.Exprs.Get(expr).Kind {
		case ast.ExprIdent, ast.ExprMember:
		default:
			p.errAt(diag.SynUnexpectedToken, eq.Span, "the left side of '=' must be a name or a field")
		}
		value := p.parseExpr()
		id := p.b.Stmts.NewAssign(span.Cover(p.b.ExprSpan(value)), ast.StmtAssignData{
			Target:  expr,
			TypeAnn: typeAnn,
			Value:   value,
		})
		p.finishStmt()
		return id
	}

	id := p.b.Stmts.NewExpr(span, expr)
	p.finishStmt()
	return id
}

// parseIf parses `if cond { } else { }` with else-if chains.
func (p *Parser) parseIf() ast.StmtID {
	kw := p.advance() // if
	cond := p.parseExpr()
	then := p.parseBlock()

	var els ast.StmtID
	end := p.b.StmtSpan(then)
	if p.at(token.KwElse) {
		p.advance()
		if p.at(token.KwIf) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
			p.finishStmt()
		}
		end = p.b.StmtSpan(els)
	} else {
		p.finishStmt()
	}
	return p.b.Stmts.NewIf(kw.Span.Cover(end), cond, then, els)
}

// parseFor parses `for x in seq { }`.
func (p *Parser) parseFor() ast.StmtID {
	kw := p.advance() // for

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		p.resyncStmt()
		return p.b.Stmts.NewBad(kw.Span)
	}
	if _, ok := p.expect(token.KwIn, diag.SynForMissingIn, "expected 'in' after the loop variable"); !ok {
		p.resyncStmt()
		return p.b.Stmts.NewBad(kw.Span.Cover(nameSpan))
	}
	seq := p.parseExpr()
	body := p.parseBlock()
	p.finishStmt()
	return p.b.Stmts.NewFor(kw.Span.Cover(p.b.StmtSpan(body)), ast.StmtForData{
		Var:     name,
		VarSpan: nameSpan,
		Seq:     seq,
		Body:    body,
	})
}

// parseReturn parses `return` and `return expr`.
func (p *Parser) parseReturn() ast.StmtID {
	kw := p.advance() // return
	var value ast.ExprID
	span := kw.Span
	if !p.atStmtEnd() {
		value = p.parseExpr()
		span = span.Cover(p.b.ExprSpan(value))
	}
	id := p.b.Stmts.NewReturn(span, value)
	p.finishStmt()
	return id
}

// parseBlock parses `{ stmts }`. It does not consume the trailing statement
// terminator; block-statement callers do that themselves.
func (p *Parser) parseBlock() ast.StmtID {
	open, ok := p.expect(token.LBrace, diag.SynExpectBlock, "expected '{' to start a block")
	if !ok {
		p.resyncStmt()
		return p.b.Stmts.NewBad(open.Span)
	}
	var stmts []ast.StmtID
	p.skipNewlines()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStmt())
		p.skipNewlines()
	}
	closing, _ := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close the block")
	return p.b.Stmts.NewBlock(open.Span.Cover(closing.Span), stmts)
}
