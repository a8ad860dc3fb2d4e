package ir

import (
	"kairo/internal/ast"
	"kairo/internal/symbols"
)

// lowerExpr emits instructions computing the expression and returns the
// register holding the value. A NoReg result means the expression diverged
// (an error(...) site already terminated the block).
func (l *funcLowerer) lowerExpr(id ast.ExprID) Reg {
	expr := l.b.Exprs.Get(id)
	if expr == nil {
		return NoReg
	}
	switch expr.Kind {
	case ast.ExprIdent:
		if symID, ok := l.res.Uses[id]; ok {
			if reg, bound := l.env[symID]; bound {
				return reg
			}
		}
		return NoReg

	case ast.ExprLit:
		data, _ := l.b.Exprs.Literal(id)
		t := l.typeRefOf(id)
		dst := l.temp(t)
		lit := l.b.Lookup(data.Text)
		if data.Kind == ast.LitString {
			lit = l.b.Lookup(data.Value)
		}
		l.emit(Instr{Op: OpConst, Dst: dst, Type: t, Lit: lit})
		return dst

	case ast.ExprList:
		data, _ := l.b.Exprs.List(id)
		args := make([]Reg, 0, len(data.Elems))
		for _, e := range data.Elems {
			v := l.lowerExpr(e)
			if l.done {
				return NoReg
			}
			l.retainIfPlanned(e, v)
			args = append(args, v)
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpMakeList, Dst: dst, Args: args, Type: l.typeRefOf(id)})
		return dst

	case ast.ExprBinary:
		data, _ := l.b.Exprs.Binary(id)
		lhs := l.lowerExpr(data.Left)
		rhs := l.lowerExpr(data.Right)
		if l.done {
			return NoReg
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpBin, Dst: dst, A: lhs, B: rhs, Sym: data.Op.String()})
		return dst

	case ast.ExprUnary:
		data, _ := l.b.Exprs.Unary(id)
		operand := l.lowerExpr(data.Operand)
		if l.done {
			return NoReg
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpUn, Dst: dst, A: operand, Sym: data.Op.String()})
		return dst

	case ast.ExprCall:
		// A plain call unwraps a fallible callee on the spot: an Err that is
		// not caught with try aborts, the way must does.
		raw, fallible := l.lowerCall(id)
		if l.done {
			return NoReg
		}
		if !fallible {
			return raw
		}
		return l.unwrapResult(raw, l.typeRefOf(id), true)

	case ast.ExprMember:
		data, _ := l.b.Exprs.Member(id)
		obj := l.lowerExpr(data.Recv)
		if l.done {
			return NoReg
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{
			Op:  OpField,
			Dst: dst,
			A:   obj,
			Sym: l.res.Table.Strings.MustLookup(data.Name),
		})
		return dst

	case ast.ExprSpawn:
		return l.lowerSpawn(id)

	case ast.ExprAwait:
		data, _ := l.b.Exprs.Await(id)
		task := l.lowerExpr(data.Task)
		if l.done {
			return NoReg
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpAwait, Dst: dst, A: task})
		return dst

	case ast.ExprChanSend:
		data, _ := l.b.Exprs.ChanSend(id)
		ch := l.lowerExpr(data.Chan)
		val := l.lowerExpr(data.Value)
		if l.done {
			return NoReg
		}
		// The channel takes a reference of its own; the sender's binding
		// keeps the original until its scope release.
		l.retainIfPlanned(data.Value, val)
		l.emit(Instr{Op: OpChanSend, A: ch, B: val})
		return l.unitValue()

	case ast.ExprChanRecv:
		data, _ := l.b.Exprs.ChanRecv(id)
		ch := l.lowerExpr(data.Chan)
		if l.done {
			return NoReg
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpChanRecv, Dst: dst, A: ch})
		return dst

	case ast.ExprTry:
		data, _ := l.b.Exprs.TryLike(id)
		return l.lowerChecked(data.Inner, l.typeRefOf(id), false)

	case ast.ExprMust:
		data, _ := l.b.Exprs.TryLike(id)
		return l.lowerChecked(data.Inner, l.typeRefOf(id), true)

	default:
		return NoReg
	}
}

// lowerCall emits the call itself without unwrapping. The second result
// reports whether the returned register holds a result value that still
// needs Ok/Err handling.
func (l *funcLowerer) lowerCall(id ast.ExprID) (Reg, bool) {
	data, _ := l.b.Exprs.Call(id)

	// error(msg): the enclosing function ends here with Err(msg).
	if l.sem.ErrorCalls[id] {
		msg := NoReg
		if len(data.Args) == 1 {
			msg = l.lowerExpr(data.Args[0])
		}
		if l.done {
			return NoReg, false
		}
		res := l.resultType()
		dst := l.temp(res)
		l.emit(Instr{Op: OpMakeErr, Dst: dst, A: msg, Type: res})
		l.emitEpilogueReleases()
		l.terminate(Terminator{Kind: TermReturn, Value: dst})
		return NoReg, false
	}

	if symID, ok := l.res.Uses[data.Callee]; ok {
		if sym := l.res.Table.Symbols.Get(symID); sym != nil {
			if sym.Builtin != symbols.BuiltinNone {
				return l.lowerBuiltinCall(id, sym.Builtin, data), false
			}
			if sym.Kind == symbols.SymbolType {
				return l.lowerConstructor(id, data), false
			}
		}
	}

	// Standard-library extern: module.member(args).
	if _, ok := l.res.ModuleMembers[data.Callee]; ok {
		args, diverged := l.lowerArgs(data.Args)
		if diverged {
			return NoReg, false
		}
		dst := l.temp(l.typeRefOf(id))
		l.emit(Instr{Op: OpCallExtern, Dst: dst, Args: args, Sym: l.externName(data.Callee)})
		return dst, false
	}

	// User function.
	args, diverged := l.lowerArgs(data.Args)
	if diverged {
		return NoReg, false
	}
	item, isUser := l.calleeItem(data.Callee)
	name := l.calleeName(data.Callee)
	if isUser && l.sem.Fallible[item] {
		res := l.tt.ref(l.sem.Types.Result(l.sem.ExprTypes[id]))
		dst := l.temp(res)
		l.emit(Instr{Op: OpCall, Dst: dst, Args: args, Sym: name})
		return dst, true
	}
	dst := l.temp(l.typeRefOf(id))
	l.emit(Instr{Op: OpCall, Dst: dst, Args: args, Sym: name})
	return dst, false
}

func (l *funcLowerer) lowerArgs(exprs []ast.ExprID) ([]Reg, bool) {
	args := make([]Reg, 0, len(exprs))
	for _, e := range exprs {
		v := l.lowerExpr(e)
		if l.done {
			return nil, true
		}
		args = append(args, v)
	}
	return args, false
}

func (l *funcLowerer) calleeName(callee ast.ExprID) string {
	if expr := l.b.Exprs.Get(callee); expr != nil && expr.Kind == ast.ExprIdent {
		data, _ := l.b.Exprs.Ident(callee)
		return l.b.Lookup(data.Name)
	}
	return "?"
}

// externName renders a stdlib callee as "module.member".
func (l *funcLowerer) externName(callee ast.ExprID) string {
	member, ok := l.b.Exprs.Member(callee)
	if !ok {
		return "?"
	}
	mod := "?"
	if recv := l.b.Exprs.Get(member.Recv); recv != nil && recv.Kind == ast.ExprIdent {
		data, _ := l.b.Exprs.Ident(member.Recv)
		mod = l.b.Lookup(data.Name)
	}
	return mod + "." + l.res.Table.Strings.MustLookup(member.Name)
}

func (l *funcLowerer) lowerBuiltinCall(id ast.ExprID, builtin symbols.BuiltinID, data *ast.ExprCallData) Reg {
	args, diverged := l.lowerArgs(data.Args)
	if diverged {
		return NoReg
	}
	switch builtin {
	case symbols.BuiltinPrint:
		l.emit(Instr{Op: OpPrint, Args: args})
		return l.unitValue()
	case symbols.BuiltinInt, symbols.BuiltinFloat, symbols.BuiltinStr:
		t := l.typeRefOf(id)
		dst := l.temp(t)
		a := NoReg
		if len(args) == 1 {
			a = args[0]
		}
		l.emit(Instr{Op: OpConvert, Dst: dst, A: a, Type: t})
		return dst
	case symbols.BuiltinLen:
		dst := l.temp(l.typeRefOf(id))
		a := NoReg
		if len(args) == 1 {
			a = args[0]
		}
		l.emit(Instr{Op: OpLen, Dst: dst, A: a})
		return dst
	case symbols.BuiltinChannel:
		t := l.typeRefOf(id)
		dst := l.temp(t)
		l.emit(Instr{Op: OpChanNew, Dst: dst, Type: t})
		return dst
	default:
		return NoReg
	}
}

func (l *funcLowerer) lowerConstructor(id ast.ExprID, data *ast.ExprCallData) Reg {
	args := make([]Reg, 0, len(data.Args))
	for _, e := range data.Args {
		v := l.lowerExpr(e)
		if l.done {
			return NoReg
		}
		l.retainIfPlanned(e, v)
		args = append(args, v)
	}
	t := l.typeRefOf(id)
	dst := l.temp(t)
	l.emit(Instr{Op: OpMakeStruct, Dst: dst, Args: args, Type: t})
	return dst
}

// lowerSpawn emits the task launch. The spawned call is not invoked here;
// its callee and arguments travel with the task.
func (l *funcLowerer) lowerSpawn(id ast.ExprID) Reg {
	data, _ := l.b.Exprs.Spawn(id)
	call, ok := l.b.Exprs.Call(data.Call)
	if !ok {
		return NoReg
	}
	args, diverged := l.lowerArgs(call.Args)
	if diverged {
		return NoReg
	}
	for i, a := range call.Args {
		l.retainIfPlanned(a, args[i])
	}
	dst := l.temp(l.typeRefOf(id))
	l.emit(Instr{Op: OpSpawn, Dst: dst, Args: args, Sym: l.calleeName(call.Callee)})
	return dst
}

// lowerChecked lowers try/must over inner: a fallible call keeps its raw
// result register and branches on Err; anything infallible passes through.
// abort selects the must behavior, otherwise the Err propagates to the
// caller.
func (l *funcLowerer) lowerChecked(inner ast.ExprID, okType TypeRef, abort bool) Reg {
	expr := l.b.Exprs.Get(inner)
	if expr == nil {
		return NoReg
	}
	if expr.Kind != ast.ExprCall {
		return l.lowerExpr(inner)
	}
	raw, fallible := l.lowerCall(inner)
	if l.done {
		return NoReg
	}
	if !fallible {
		return raw
	}
	return l.unwrapResult(raw, okType, abort)
}

// unwrapResult branches on a result register: the Ok side continues with
// the unwrapped value, the Err side either aborts (must) or re-wraps and
// returns the error to the caller (try).
func (l *funcLowerer) unwrapResult(raw Reg, okType TypeRef, abort bool) Reg {
	boolType := l.tt.ref(l.sem.Types.Builtins().Bool)
	strType := l.tt.ref(l.sem.Types.Builtins().String)

	isErr := l.temp(boolType)
	l.emit(Instr{Op: OpIsErr, Dst: isErr, A: raw})

	errBlk := l.fn.NewBlock()
	okBlk := l.fn.NewBlock()
	l.terminate(Terminator{Kind: TermBranch, Cond: isErr, To: errBlk, Else: okBlk})

	l.moveTo(errBlk)
	msg := l.temp(strType)
	l.emit(Instr{Op: OpUnwrapErr, Dst: msg, A: raw})
	if abort {
		l.emitEpilogueReleases()
		l.terminate(Terminator{Kind: TermAbort, Value: msg})
	} else {
		res := l.resultType()
		rewrapped := l.temp(res)
		l.emit(Instr{Op: OpMakeErr, Dst: rewrapped, A: msg, Type: res})
		l.emitEpilogueReleases()
		l.terminate(Terminator{Kind: TermReturn, Value: rewrapped})
	}

	l.moveTo(okBlk)
	dst := l.temp(okType)
	l.emit(Instr{Op: OpUnwrapOk, Dst: dst, A: raw})
	return dst
}
