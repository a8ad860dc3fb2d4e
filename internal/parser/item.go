package parser

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/token"
)

// parseFunItem parses `fun name(params) -> type? { block }`.
// Parameter and return annotations are optional.
func (p *Parser) parseFunItem() ast.ItemID {
	kw := p.advance() // fun

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		p.resyncStmt()
		return p.b.Items.NewBad(kw.Span)
	}

	params := p.parseParams()

	var ret ast.TypeSynID
	if p.at(token.Arrow) {
		p.advance()
		ret = p.parseType()
	}

	body := p.parseBlock()
	span := kw.Span.Cover(p.b.StmtSpan(body))
	return p.b.Items.NewFunc(span, ast.FuncData{
		Name:     name,
		NameSpan: nameSpan,
		Params:   params,
		RetType:  ret,
		Body:     body,
	})
}

func (p *Parser) parseParams() []ast.Param {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after the function name"); !ok {
		return nil
	}
	var params []ast.Param
	p.skipNewlines()
	for !p.at(token.RParen) && !p.at(token.EOF) {
		name, nameSpan, ok := p.parseIdent()
		if !ok {
			p.resyncStmt()
			return params
		}
		param := ast.Param{Name: name, NameSpan: nameSpan, Span: nameSpan}
		if p.at(token.Colon) {
			p.advance()
			param.Type = p.parseType()
			if ts := p.b.Types.Get(param.Type); ts != nil {
				param.Span = nameSpan.Cover(ts.Span)
			}
		}
		params = append(params, param)

		if p.at(token.Comma) {
			p.advance()
			p.skipNewlines()
			continue
		}
		break
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after the parameter list")
	return params
}

// parseTypeItem parses `type Name { field: Type, weak other: Type }`.
// Fields separate with commas or line breaks.
func (p *Parser) parseTypeItem() ast.ItemID {
	kw := p.advance() // type

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		p.resyncStmt()
		return p.b.Items.NewBad(kw.Span)
	}

	if _, ok := p.expect(token.LBrace, diag.SynExpectBlock, "expected '{' after the type name"); !ok {
		p.resyncStmt()
		return p.b.Items.NewBad(kw.Span.Cover(nameSpan))
	}

	var fields []ast.FieldDecl
	p.skipNewlines()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		field, ok := p.parseFieldDecl()
		if !ok {
			p.resyncStmt()
			p.skipNewlines()
			continue
		}
		fields = append(fields, field)

		if p.at(token.Comma) {
			p.advance()
		}
		p.skipNewlines()
	}
	closing, _ := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close the type declaration")

	span := kw.Span.Cover(closing.Span)
	return p.b.Items.NewTypeDecl(span, ast.TypeDeclData{
		Name:     name,
		NameSpan: nameSpan,
		Fields:   fields,
	})
}

func (p *Parser) parseFieldDecl() (ast.FieldDecl, bool) {
	var field ast.FieldDecl
	start := p.lx.Peek().Span

	if p.at(token.KwWeak) {
		p.advance()
		field.Weak = true
	}

	name, nameSpan, ok := p.parseIdent()
	if !ok {
		p.errAt(diag.SynExpectField, start, "expected a field like \"name: Type\"")
		return field, false
	}
	field.Name = name
	field.NameSpan = nameSpan

	if _, ok := p.expect(token.Colon, diag.SynExpectField, "expected ':' after the field name"); !ok {
		return field, false
	}
	field.Type = p.parseType()
	field.Span = start.Cover(nameSpan)
	if ts := p.b.Types.Get(field.Type); ts != nil {
		field.Span = start.Cover(ts.Span)
	}
	return field, true
}
