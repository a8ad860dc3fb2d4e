package symbols

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/types"
)

func (bd *binder) bindStmt(id ast.StmtID) {
	stmt := bd.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := bd.b.Stmts.Assign(id)
		bd.bindAssign(id, data)
	case ast.StmtExpr:
		data, _ := bd.b.Stmts.Expr(id)
		bd.bindExpr(data.Expr)
	case ast.StmtIf:
		data, _ := bd.b.Stmts.If(id)
		bd.bindExpr(data.Cond)
		bd.bindStmt(data.Then)
		if data.Else.IsValid() {
			bd.bindStmt(data.Else)
		}
	case ast.StmtFor:
		data, _ := bd.b.Stmts.For(id)
		bd.bindExpr(data.Seq)
		bd.enter(ScopeBlock, stmt.Span)
		bd.res.LoopVars[id] = bd.declare(Symbol{
			Name: data.Var,
			Kind: SymbolBinding,
			Span: data.VarSpan,
			Decl: SymbolDecl{Stmt: id},
			Type: bd.t.Types.FreshVar(),
		})
		// Walk the body statements inside the loop scope directly so the
		// loop variable is visible without an extra scope level.
		if block, ok := bd.b.Stmts.Block(data.Body); ok {
			for _, s := range block.Stmts {
				bd.bindStmt(s)
			}
		} else {
			bd.bindStmt(data.Body)
		}
		bd.leave()
	case ast.StmtReturn:
		data, _ := bd.b.Stmts.Return(id)
		if data.Value.IsValid() {
			bd.bindExpr(data.Value)
		}
	case ast.StmtBlock:
		data, _ := bd.b.Stmts.Block(id)
		bd.enter(ScopeBlock, stmt.Span)
		for _, s := range data.Stmts {
			bd.bindStmt(s)
		}
		bd.leave()
	case ast.StmtBad:
		// Parser already reported; nothing to bind.
	}
}

// bindAssign decides between declaration and assignment. The first occurrence
// of a name declares it; any later `name = ...` writes the existing binding
// and must hit a Mutable one.
func (bd *binder) bindAssign(id ast.StmtID, data *ast.StmtAssignData) {
	bd.bindExpr(data.Value)
	if data.TypeAnn.IsValid() {
		bd.resolveTypeSyn(data.TypeAnn)
	}

	target := bd.b.Exprs.Get(data.Target)
	if target == nil {
		return
	}
	if target.Kind == ast.ExprMember {
		// Field store: the receiver chain resolves like any expression; the
		// field itself is checked by the type pass.
		bd.bindExpr(data.Target)
		return
	}
	if target.Kind != ast.ExprIdent {
		return
	}
	ident, _ := bd.b.Exprs.Ident(data.Target)

	existing, found := bd.lookup(ident.Name)
	if !found {
		bd.declareBinding(id, data, ident.Name, target.Span)
		return
	}

	sym := bd.t.Symbols.Get(existing)
	if sym.Kind != SymbolBinding && sym.Kind != SymbolParam {
		diag.ReportError(bd.reporter, diag.MutAssignImmutable, target.Span,
			fmt.Sprintf("cannot assign to '%s': it names a %s", bd.name(ident.Name), sym.Kind)).
			WithNote(sym.Span, "declared here").
			Emit()
		return
	}

	bd.res.Uses[data.Target] = existing

	if !sym.IsMutable() {
		if data.Dollar {
			diag.ReportError(bd.reporter, diag.MutRedeclare, data.DollarSpan.Cover(target.Span),
				fmt.Sprintf("'%s' was declared immutable; '$' here cannot change that", bd.name(ident.Name))).
				WithNote(sym.Span, "declared here without '$'").
				WithFix(fmt.Sprintf("declare '%s' as mutable", bd.name(ident.Name)),
					diag.FixEdit{Span: declPoint(sym.Span), NewText: "$"}).
				Emit()
			return
		}
		diag.ReportError(bd.reporter, diag.MutAssignImmutable, target.Span,
			fmt.Sprintf("cannot assign to '%s': it is immutable", bd.name(ident.Name))).
			WithNote(sym.Span, "declared here; did you mean '$"+bd.name(ident.Name)+" = ...'?").
			WithFix(fmt.Sprintf("declare '%s' as mutable", bd.name(ident.Name)),
				diag.FixEdit{Span: declPoint(sym.Span), NewText: "$"}).
			Emit()
		return
	}

	bd.res.Assigns[id] = existing
}

func (bd *binder) declareBinding(id ast.StmtID, data *ast.StmtAssignData, name source.StringID, span source.Span) {
	flags := SymbolFlags(0)
	if data.Dollar {
		flags |= SymbolFlagMutable
	}
	bindType := types.NoTypeID
	if data.TypeAnn.IsValid() {
		bindType = bd.resolveTypeSyn(data.TypeAnn)
	}
	if bindType == types.NoTypeID {
		bindType = bd.t.Types.FreshVar()
	}
	bd.res.Decls[id] = bd.declare(Symbol{
		Name:  name,
		Kind:  SymbolBinding,
		Span:  span,
		Flags: flags,
		Decl:  SymbolDecl{Stmt: id},
		Type:  bindType,
	})
}

// declPoint is the zero-width span in front of a declaration, where the '$'
// fix-it inserts.
func declPoint(sp source.Span) source.Span {
	return source.Span{File: sp.File, Start: sp.Start, End: sp.Start}
}

func (bd *binder) bindExpr(id ast.ExprID) {
	expr := bd.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := bd.b.Exprs.Ident(id)
		if symID, ok := bd.lookup(data.Name); ok {
			bd.res.Uses[id] = symID
			return
		}
		diag.ReportError(bd.reporter, diag.ResUnresolved, expr.Span,
			fmt.Sprintf("'%s' is not defined", bd.name(data.Name))).
			Emit()
	case ast.ExprList:
		data, _ := bd.b.Exprs.List(id)
		for _, e := range data.Elems {
			bd.bindExpr(e)
		}
	case ast.ExprBinary:
		data, _ := bd.b.Exprs.Binary(id)
		bd.bindExpr(data.Left)
		bd.bindExpr(data.Right)
	case ast.ExprUnary:
		data, _ := bd.b.Exprs.Unary(id)
		bd.bindExpr(data.Operand)
	case ast.ExprCall:
		data, _ := bd.b.Exprs.Call(id)
		bd.bindExpr(data.Callee)
		for _, a := range data.Args {
			bd.bindExpr(a)
		}
	case ast.ExprMember:
		bd.bindMember(id)
	case ast.ExprSpawn:
		data, _ := bd.b.Exprs.Spawn(id)
		bd.bindExpr(data.Call)
	case ast.ExprAwait:
		data, _ := bd.b.Exprs.Await(id)
		bd.bindExpr(data.Task)
	case ast.ExprChanSend:
		data, _ := bd.b.Exprs.ChanSend(id)
		bd.bindExpr(data.Chan)
		bd.bindExpr(data.Value)
	case ast.ExprChanRecv:
		data, _ := bd.b.Exprs.ChanRecv(id)
		bd.bindExpr(data.Chan)
	case ast.ExprTry, ast.ExprMust:
		data, _ := bd.b.Exprs.TryLike(id)
		bd.bindExpr(data.Inner)
	case ast.ExprLit, ast.ExprBad:
	}
}

// bindMember resolves `recv.name`. A receiver identifier that names a
// standard-library module resolves against the module's extern declarations;
// anything else is a struct field access left for the type pass.
func (bd *binder) bindMember(id ast.ExprID) {
	data, _ := bd.b.Exprs.Member(id)

	if recvIdent, ok := bd.b.Exprs.Ident(data.Recv); ok {
		if _, shadowed := bd.lookup(recvIdent.Name); !shadowed {
			if mod, isModule := bd.t.Module(recvIdent.Name); isModule {
				decl, known := mod.Member(data.Name)
				if !known {
					diag.ReportError(bd.reporter, diag.ResUnknownModuleMember, data.NameSpan,
						fmt.Sprintf("module '%s' has no member '%s'",
							bd.name(recvIdent.Name), bd.name(data.Name))).
						Emit()
					return
				}
				bd.res.ModuleMembers[id] = decl
				return
			}
		}
	}
	bd.bindExpr(data.Recv)
}
