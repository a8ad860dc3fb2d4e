package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/symbols"
	"kairo/internal/types"
)

// inferExpr computes and records the type of one expression.
func (inf *inferencer) inferExpr(id ast.ExprID) types.TypeID {
	t := inf.inferExprUncached(id)
	inf.out.ExprTypes[id] = t
	return t
}

func (inf *inferencer) inferExprUncached(id ast.ExprID) types.TypeID {
	expr := inf.b.Exprs.Get(id)
	if expr == nil {
		return types.NoTypeID
	}
	builtins := inf.types().Builtins()

	switch expr.Kind {
	case ast.ExprBad:
		// Parser already reported; a fresh variable keeps the rest going.
		return inf.errVar()

	case ast.ExprIdent:
		if symID, ok := inf.res.Uses[id]; ok {
			return inf.symbolType(symID)
		}
		// Unresolved: the binder reported it.
		return inf.errVar()

	case ast.ExprLit:
		data, _ := inf.b.Exprs.Literal(id)
		switch data.Kind {
		case ast.LitInt:
			return builtins.Int
		case ast.LitFloat:
			return builtins.Float
		case ast.LitString:
			return builtins.String
		default:
			return builtins.Bool
		}

	case ast.ExprList:
		data, _ := inf.b.Exprs.List(id)
		elem := inf.types().FreshVar()
		for _, e := range data.Elems {
			et := inf.inferExpr(e)
			inf.unifyAt(elem, et, inf.b.ExprSpan(e), "list element")
		}
		return inf.types().List(elem)

	case ast.ExprBinary:
		return inf.inferBinary(id)

	case ast.ExprUnary:
		data, _ := inf.b.Exprs.Unary(id)
		opType := inf.inferExpr(data.Operand)
		if data.Op == ast.UnNot {
			inf.unifyAt(builtins.Bool, opType, inf.b.ExprSpan(data.Operand), "operand of '!'")
			return builtins.Bool
		}
		switch inf.resolvedKind(opType) {
		case types.KindInt, types.KindFloat, types.KindVar:
		default:
			diag.ReportError(inf.reporter, diag.TypeBadOperands, inf.b.ExprSpan(data.Operand),
				fmt.Sprintf("unary '-' needs a number, found %s", inf.format(opType))).
				Emit()
		}
		return opType

	case ast.ExprCall:
		return inf.inferCall(id)

	case ast.ExprMember:
		return inf.inferMember(id)

	case ast.ExprSpawn:
		data, _ := inf.b.Exprs.Spawn(id)
		result := inf.inferExpr(data.Call)
		return inf.types().Task(result)

	case ast.ExprAwait:
		data, _ := inf.b.Exprs.Await(id)
		taskType := inf.inferExpr(data.Task)
		elem := inf.types().FreshVar()
		if inf.sub.unify(taskType, inf.types().Task(elem)) != unifyOK {
			diag.ReportError(inf.reporter, diag.TypeAwaitNonTask, inf.b.ExprSpan(data.Task),
				fmt.Sprintf("'await' needs a task, found %s", inf.format(taskType))).
				Emit()
			return inf.errVar()
		}
		return elem

	case ast.ExprChanSend:
		data, _ := inf.b.Exprs.ChanSend(id)
		chType := inf.inferExpr(data.Chan)
		valType := inf.inferExpr(data.Value)
		elem := inf.types().FreshVar()
		if inf.sub.unify(chType, inf.types().Channel(elem)) != unifyOK {
			diag.ReportError(inf.reporter, diag.TypeChannelExpected, inf.b.ExprSpan(data.Chan),
				fmt.Sprintf("send needs a channel, found %s", inf.format(chType))).
				Emit()
			return builtins.Unit
		}
		inf.unifyAt(elem, valType, inf.b.ExprSpan(data.Value), "sent value")
		return builtins.Unit

	case ast.ExprChanRecv:
		data, _ := inf.b.Exprs.ChanRecv(id)
		chType := inf.inferExpr(data.Chan)
		elem := inf.types().FreshVar()
		if inf.sub.unify(chType, inf.types().Channel(elem)) != unifyOK {
			diag.ReportError(inf.reporter, diag.TypeChannelExpected, inf.b.ExprSpan(data.Chan),
				fmt.Sprintf("recv needs a channel, found %s", inf.format(chType))).
				Emit()
			return inf.errVar()
		}
		return elem

	case ast.ExprTry:
		data, _ := inf.b.Exprs.TryLike(id)
		// try re-raises the error side in the enclosing function.
		inf.out.Fallible[inf.curFunc] = true
		return inf.inferExpr(data.Inner)

	case ast.ExprMust:
		data, _ := inf.b.Exprs.TryLike(id)
		return inf.inferExpr(data.Inner)

	default:
		return types.NoTypeID
	}
}

func (inf *inferencer) inferBinary(id ast.ExprID) types.TypeID {
	data, _ := inf.b.Exprs.Binary(id)
	builtins := inf.types().Builtins()
	lt := inf.inferExpr(data.Left)
	rt := inf.inferExpr(data.Right)
	lSpan, rSpan := inf.b.ExprSpan(data.Left), inf.b.ExprSpan(data.Right)

	if data.Op.IsLogical() {
		inf.unifyAt(builtins.Bool, lt, lSpan, "operand of '"+data.Op.String()+"'")
		inf.unifyAt(builtins.Bool, rt, rSpan, "operand of '"+data.Op.String()+"'")
		return builtins.Bool
	}

	switch inf.sub.unify(lt, rt) {
	case unifyOK:
	case unifyNoCoercion:
		inf.reportNoCoercion(lt, rt, data.OpSpan, lSpan, rSpan)
		if data.Op.IsComparison() {
			return builtins.Bool
		}
		return inf.errVar()
	default:
		diag.ReportError(inf.reporter, diag.TypeBadOperands, data.OpSpan,
			fmt.Sprintf("'%s' cannot combine %s and %s", data.Op, inf.format(lt), inf.format(rt))).
			WithNote(lSpan, "left operand").
			WithNote(rSpan, "right operand").
			Emit()
		if data.Op.IsComparison() {
			return builtins.Bool
		}
		return lt
	}

	if data.Op.IsComparison() {
		return builtins.Bool
	}

	// Arithmetic. '+' additionally works on strings (concatenation).
	operand := inf.sub.resolve(lt)
	tt, _ := inf.types().Lookup(operand)
	switch {
	case tt.Kind == types.KindVar:
		// Still open; if nothing pins it, finalize reports it.
	case isNumericKind(tt.Kind):
	case tt.Kind == types.KindString && data.Op == ast.BinAdd:
	default:
		diag.ReportError(inf.reporter, diag.TypeBadOperands, data.OpSpan,
			fmt.Sprintf("'%s' is not defined for %s", data.Op, inf.format(lt))).
			Emit()
	}
	return lt
}

func (inf *inferencer) inferCall(id ast.ExprID) types.TypeID {
	data, _ := inf.b.Exprs.Call(id)

	// Built-in and constructor calls dispatch on the callee symbol.
	if symID, ok := inf.res.Uses[data.Callee]; ok {
		if sym := inf.res.Table.Symbols.Get(symID); sym != nil {
			switch {
			case sym.Builtin != symbols.BuiltinNone:
				return inf.inferBuiltinCall(id, sym.Builtin, data)
			case sym.Kind == symbols.SymbolType:
				return inf.inferConstructorCall(id, sym.Type, data)
			}
		}
	}

	calleeType := inf.inferExpr(data.Callee)
	info, ok := inf.types().FnInfo(inf.sub.resolve(calleeType))
	if !ok {
		diag.ReportError(inf.reporter, diag.TypeNotCallable, inf.b.ExprSpan(data.Callee),
			fmt.Sprintf("%s is not callable", inf.format(calleeType))).
			Emit()
		inf.inferArgs(data.Args)
		return inf.errVar()
	}
	if len(data.Args) != len(info.Params) {
		diag.ReportError(inf.reporter, diag.TypeWrongArity, inf.b.Exprs.Get(id).Span,
			fmt.Sprintf("this call needs %d argument(s), found %d", len(info.Params), len(data.Args))).
			Emit()
		inf.inferArgs(data.Args)
		return info.Result
	}
	for i, arg := range data.Args {
		argType := inf.inferExpr(arg)
		inf.unifyAt(info.Params[i], argType, inf.b.ExprSpan(arg),
			fmt.Sprintf("argument %d", i+1))
	}
	return info.Result
}

func (inf *inferencer) inferArgs(args []ast.ExprID) {
	for _, a := range args {
		inf.inferExpr(a)
	}
}

func (inf *inferencer) inferBuiltinCall(id ast.ExprID, builtin symbols.BuiltinID, data *ast.ExprCallData) types.TypeID {
	b := inf.types().Builtins()
	span := inf.b.Exprs.Get(id).Span
	argTypes := make([]types.TypeID, len(data.Args))
	for i, a := range data.Args {
		argTypes[i] = inf.inferExpr(a)
	}
	needArgs := func(n int) bool {
		if len(data.Args) != n {
			diag.ReportError(inf.reporter, diag.TypeWrongArity, span,
				fmt.Sprintf("this call needs %d argument(s), found %d", n, len(data.Args))).
				Emit()
			return false
		}
		return true
	}

	switch builtin {
	case symbols.BuiltinPrint:
		// print accepts any values of any types.
		return b.Unit

	case symbols.BuiltinError:
		if needArgs(1) {
			inf.unifyAt(b.String, argTypes[0], inf.b.ExprSpan(data.Args[0]), "error message")
		}
		inf.out.ErrorCalls[id] = true
		inf.out.Fallible[inf.curFunc] = true
		// error(...) diverges from the success path, so it takes any type.
		return inf.errVar()

	case symbols.BuiltinInt:
		needArgs(1)
		return b.Int

	case symbols.BuiltinFloat:
		needArgs(1)
		return b.Float

	case symbols.BuiltinStr:
		needArgs(1)
		return b.String

	case symbols.BuiltinLen:
		if needArgs(1) {
			t := inf.sub.resolve(argTypes[0])
			tt, _ := inf.types().Lookup(t)
			switch tt.Kind {
			case types.KindList, types.KindString, types.KindVar:
			default:
				diag.ReportError(inf.reporter, diag.TypeBadOperands, inf.b.ExprSpan(data.Args[0]),
					fmt.Sprintf("len needs a list or str, found %s", inf.format(argTypes[0]))).
					Emit()
			}
		}
		return b.Int

	case symbols.BuiltinChannel:
		needArgs(0)
		return inf.types().Channel(inf.types().FreshVar())

	default:
		return types.NoTypeID
	}
}

func (inf *inferencer) inferConstructorCall(id ast.ExprID, structType types.TypeID, data *ast.ExprCallData) types.TypeID {
	info, ok := inf.types().StructInfo(structType)
	if !ok {
		inf.inferArgs(data.Args)
		return structType
	}
	if len(data.Args) != len(info.Fields) {
		diag.ReportError(inf.reporter, diag.TypeWrongArity, inf.b.Exprs.Get(id).Span,
			fmt.Sprintf("%s has %d field(s), found %d argument(s)",
				inf.format(structType), len(info.Fields), len(data.Args))).
			WithNote(info.Decl, "declared here").
			Emit()
		inf.inferArgs(data.Args)
		return structType
	}
	for i, arg := range data.Args {
		argType := inf.inferExpr(arg)
		inf.unifyAt(info.Fields[i].Type, argType, inf.b.ExprSpan(arg),
			fmt.Sprintf("field '%s'", inf.res.Table.Strings.MustLookup(info.Fields[i].Name)))
	}
	return structType
}

func (inf *inferencer) inferMember(id ast.ExprID) types.TypeID {
	data, _ := inf.b.Exprs.Member(id)

	// Standard-library module member: the binder resolved it already.
	if decl, ok := inf.res.ModuleMembers[id]; ok {
		return decl.Type
	}

	recvType := inf.inferExpr(data.Recv)
	resolved := inf.sub.resolve(recvType)
	tt, ok := inf.types().Lookup(resolved)
	if !ok || tt.Kind == types.KindVar {
		diag.ReportError(inf.reporter, diag.TypeCannotInfer, inf.b.ExprSpan(data.Recv),
			"the receiver's type is not known yet; annotate it before accessing fields").
			Emit()
		return inf.errVar()
	}
	if tt.Kind != types.KindStruct {
		diag.ReportError(inf.reporter, diag.TypeMemberNonStruct, data.NameSpan,
			fmt.Sprintf("%s has no fields", inf.format(recvType))).
			Emit()
		return inf.errVar()
	}
	field, ok := inf.types().StructFieldByName(resolved, data.Name)
	if !ok {
		name := inf.res.Table.Strings.MustLookup(data.Name)
		diag.ReportError(inf.reporter, diag.TypeUnknownField, data.NameSpan,
			fmt.Sprintf("%s has no field '%s'", inf.format(recvType), name)).
			Emit()
		return inf.errVar()
	}
	return field.Type
}
