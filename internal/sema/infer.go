package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/symbols"
	"kairo/internal/types"
)

// inferencer runs constraint-based type inference: the walk generates
// equations into a substitution, and a finalize step resolves every
// expression to exactly one type. There is no implicit numeric coercion
// anywhere, literals included: int and float mix only through explicit
// conversion.
type inferencer struct {
	b        *ast.Builder
	res      *symbols.Resolution
	reporter diag.Reporter
	out      *Result
	sub      *substitution

	curFunc   ast.ItemID
	curResult types.TypeID

	reportedFree map[types.TypeID]bool
}

func newInferencer(b *ast.Builder, res *symbols.Resolution, reporter diag.Reporter, out *Result) *inferencer {
	return &inferencer{
		b:            b,
		res:          res,
		reporter:     reporter,
		out:          out,
		sub:          newSubstitution(res.Table.Types),
		reportedFree: make(map[types.TypeID]bool),
	}
}

func (inf *inferencer) run(fileID ast.FileID) {
	file := inf.b.File(fileID)
	if file == nil {
		return
	}
	for _, itemID := range file.Items {
		fn, ok := inf.b.Items.Func(itemID)
		if !ok {
			continue
		}
		symID, bound := inf.res.Funcs[itemID]
		if !bound {
			continue
		}
		fnInfo, ok := inf.types().FnInfo(inf.symbolType(symID))
		if !ok {
			continue
		}
		inf.curFunc = itemID
		inf.curResult = fnInfo.Result
		inf.inferStmt(fn.Body)

		// A function that never returns a value produces unit.
		if !fn.RetType.IsValid() && !inf.hasReturnValue(fn.Body) {
			inf.sub.unify(fnInfo.Result, inf.types().Builtins().Unit)
		}
	}
	inf.finalize(file)
}

func (inf *inferencer) types() *types.Interner {
	return inf.res.Table.Types
}

func (inf *inferencer) symbolType(id symbols.SymbolID) types.TypeID {
	if sym := inf.res.Table.Symbols.Get(id); sym != nil {
		return sym.Type
	}
	return types.NoTypeID
}

func (inf *inferencer) format(t types.TypeID) string {
	return inf.types().Format(inf.sub.deepResolve(t), inf.res.Table.Strings)
}

// finalize resolves every recorded type and reports anything inference could
// not pin down.
func (inf *inferencer) finalize(file *ast.File) {
	for exprID, t := range inf.out.ExprTypes {
		resolved := inf.sub.deepResolve(t)
		inf.out.ExprTypes[exprID] = resolved
		if inf.sub.hasFreeVar(resolved) {
			inf.reportFree(resolved, inf.b.ExprSpan(exprID))
		}
	}
	for symID, t := range inf.out.BindingTypes {
		resolved := inf.sub.deepResolve(t)
		inf.out.BindingTypes[symID] = resolved
		if inf.sub.hasFreeVar(resolved) {
			if sym := inf.res.Table.Symbols.Get(symID); sym != nil {
				inf.reportFree(resolved, sym.Span)
			}
		}
	}
	for _, itemID := range file.Items {
		if symID, ok := inf.res.Funcs[itemID]; ok {
			if info, ok := inf.types().FnInfo(inf.symbolType(symID)); ok {
				inf.out.FuncResults[itemID] = inf.sub.deepResolve(info.Result)
			}
		}
	}
}

// reportFree reports an unresolvable type once per underlying variable, so
// one unannotated value does not flood the output.
func (inf *inferencer) reportFree(t types.TypeID, sp source.Span) {
	v := inf.firstFreeVar(t)
	if v == types.NoTypeID || inf.reportedFree[v] {
		return
	}
	inf.reportedFree[v] = true
	diag.ReportError(inf.reporter, diag.TypeCannotInfer, sp,
		"cannot infer a concrete type here; add an annotation").
		Emit()
}

// errVar makes a recovery variable for an already-reported error site. It is
// pre-marked as reported so finalize never piles a cannot-infer on top.
func (inf *inferencer) errVar() types.TypeID {
	v := inf.types().FreshVar()
	inf.reportedFree[v] = true
	return v
}

func (inf *inferencer) firstFreeVar(t types.TypeID) types.TypeID {
	t = inf.sub.resolve(t)
	tt, ok := inf.types().Lookup(t)
	if !ok {
		return types.NoTypeID
	}
	switch tt.Kind {
	case types.KindVar:
		return t
	case types.KindList, types.KindChannel, types.KindTask, types.KindResult:
		return inf.firstFreeVar(tt.Elem)
	case types.KindFn:
		info, ok := inf.types().FnInfo(t)
		if !ok {
			return types.NoTypeID
		}
		for _, p := range info.Params {
			if v := inf.firstFreeVar(p); v != types.NoTypeID {
				return v
			}
		}
		return inf.firstFreeVar(info.Result)
	default:
		return types.NoTypeID
	}
}

// unifyAt unifies and reports a plain mismatch at span.
func (inf *inferencer) unifyAt(want, got types.TypeID, sp source.Span, msg string) bool {
	switch inf.sub.unify(want, got) {
	case unifyOK:
		return true
	case unifyNoCoercion:
		inf.reportNoCoercion(want, got, sp, sp, sp)
		return false
	default:
		diag.ReportError(inf.reporter, diag.TypeMismatch, sp,
			fmt.Sprintf("%s: expected %s, found %s", msg, inf.format(want), inf.format(got))).
			Emit()
		return false
	}
}

// reportNoCoercion emits the dedicated int-vs-float diagnostic naming both
// operand spans, with a fix-it wrapping the int side in float(...).
func (inf *inferencer) reportNoCoercion(a, b types.TypeID, primary, aSpan, bSpan source.Span) {
	aKind := inf.resolvedKind(a)
	intSpan, floatSpan := aSpan, bSpan
	if aKind == types.KindFloat {
		intSpan, floatSpan = bSpan, aSpan
	}
	diag.ReportError(inf.reporter, diag.TypeNoCoercion, primary,
		"int and float never mix implicitly; convert one side").
		WithNote(intSpan, "this side is int").
		WithNote(floatSpan, "this side is float").
		WithFix("convert the int side with float(...)",
			diag.FixEdit{Span: source.Span{File: intSpan.File, Start: intSpan.Start, End: intSpan.Start}, NewText: "float("},
			diag.FixEdit{Span: source.Span{File: intSpan.File, Start: intSpan.End, End: intSpan.End}, NewText: ")"}).
		WithFix("convert the float side with int(...)",
			diag.FixEdit{Span: source.Span{File: floatSpan.File, Start: floatSpan.Start, End: floatSpan.Start}, NewText: "int("},
			diag.FixEdit{Span: source.Span{File: floatSpan.File, Start: floatSpan.End, End: floatSpan.End}, NewText: ")"}).
		Emit()
}

func (inf *inferencer) resolvedKind(t types.TypeID) types.Kind {
	tt, ok := inf.types().Lookup(inf.sub.resolve(t))
	if !ok {
		return types.KindInvalid
	}
	return tt.Kind
}

func (inf *inferencer) hasReturnValue(stmtID ast.StmtID) bool {
	stmt := inf.b.Stmts.Get(stmtID)
	if stmt == nil {
		return false
	}
	switch stmt.Kind {
	case ast.StmtReturn:
		data, _ := inf.b.Stmts.Return(stmtID)
		return data.Value.IsValid()
	case ast.StmtBlock:
		data, _ := inf.b.Stmts.Block(stmtID)
		for _, s := range data.Stmts {
			if inf.hasReturnValue(s) {
				return true
			}
		}
	case ast.StmtIf:
		data, _ := inf.b.Stmts.If(stmtID)
		return inf.hasReturnValue(data.Then) || inf.hasReturnValue(data.Else)
	case ast.StmtFor:
		data, _ := inf.b.Stmts.For(stmtID)
		return inf.hasReturnValue(data.Body)
	}
	return false
}
