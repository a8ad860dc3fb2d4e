package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/types"
)

func (inf *inferencer) inferStmt(id ast.StmtID) {
	stmt := inf.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		inf.inferAssign(id)
	case ast.StmtExpr:
		data, _ := inf.b.Stmts.Expr(id)
		inf.inferExpr(data.Expr)
	case ast.StmtIf:
		data, _ := inf.b.Stmts.If(id)
		condType := inf.inferExpr(data.Cond)
		if inf.sub.unify(condType, inf.types().Builtins().Bool) != unifyOK {
			diag.ReportError(inf.reporter, diag.TypeCondNotBool, inf.b.ExprSpan(data.Cond),
				fmt.Sprintf("the condition must be a bool, found %s", inf.format(condType))).
				Emit()
		}
		inf.inferStmt(data.Then)
		if data.Else.IsValid() {
			inf.inferStmt(data.Else)
		}
	case ast.StmtFor:
		inf.inferFor(id)
	case ast.StmtReturn:
		data, _ := inf.b.Stmts.Return(id)
		if data.Value.IsValid() {
			valType := inf.inferExpr(data.Value)
			inf.unifyAt(inf.curResult, valType, inf.b.ExprSpan(data.Value), "return value")
		} else {
			inf.unifyAt(inf.curResult, inf.types().Builtins().Unit, inf.b.StmtSpan(id), "bare return")
		}
	case ast.StmtBlock:
		data, _ := inf.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			inf.inferStmt(s)
		}
	case ast.StmtBad:
	}
}

func (inf *inferencer) inferAssign(id ast.StmtID) {
	data, _ := inf.b.Stmts.Assign(id)
	valType := inf.inferExpr(data.Value)

	if symID, ok := inf.res.Decls[id]; ok {
		declType := inf.symbolType(symID)
		inf.out.BindingTypes[symID] = declType
		inf.unifyAssign(declType, valType, data)
		inf.out.ExprTypes[data.Target] = declType
		return
	}
	if symID, ok := inf.res.Assigns[id]; ok {
		slotType := inf.symbolType(symID)
		inf.out.BindingTypes[symID] = slotType
		inf.unifyAssign(slotType, valType, data)
		inf.out.ExprTypes[data.Target] = slotType
		return
	}

	// Field store: node.value = expr.
	if target := inf.b.Exprs.Get(data.Target); target != nil && target.Kind == ast.ExprMember {
		fieldType := inf.inferExpr(data.Target)
		inf.unifyAssign(fieldType, valType, data)
	}
}

func (inf *inferencer) unifyAssign(slot, value types.TypeID, data *ast.StmtAssignData) {
	switch inf.sub.unify(slot, value) {
	case unifyOK:
	case unifyNoCoercion:
		inf.reportNoCoercion(slot, value,
			inf.b.ExprSpan(data.Value), inf.b.ExprSpan(data.Target), inf.b.ExprSpan(data.Value))
	default:
		diag.ReportError(inf.reporter, diag.TypeMismatch, inf.b.ExprSpan(data.Value),
			fmt.Sprintf("cannot assign %s to a %s slot", inf.format(value), inf.format(slot))).
			WithNote(inf.b.ExprSpan(data.Target), "target declared here").
			Emit()
	}
}

func (inf *inferencer) inferFor(id ast.StmtID) {
	data, _ := inf.b.Stmts.For(id)
	seqType := inf.inferExpr(data.Seq)

	elem := inf.types().FreshVar()
	switch inf.sub.unify(seqType, inf.types().List(elem)) {
	case unifyOK:
	default:
		diag.ReportError(inf.reporter, diag.TypeNotIterable, inf.b.ExprSpan(data.Seq),
			fmt.Sprintf("for loops iterate lists, found %s", inf.format(seqType))).
			Emit()
	}
	if symID, ok := inf.res.LoopVars[id]; ok {
		varType := inf.symbolType(symID)
		inf.out.BindingTypes[symID] = varType
		inf.sub.unify(varType, elem)
	}
	inf.inferStmt(data.Body)
}
