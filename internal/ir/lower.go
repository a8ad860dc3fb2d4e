package ir

import (
	"kairo/internal/ast"
	"kairo/internal/sema"
	"kairo/internal/symbols"
)

// Lower turns one analyzed file into a Module. It must only be called on a
// clean analysis: every expression typed, ownership and concurrency passes
// complete.
func Lower(b *ast.Builder, res *symbols.Resolution, sem *sema.Result, fileID ast.FileID, fileName string) *Module {
	m := &Module{Schema: Schema, File: fileName}
	tt := newTypeTable(m, sem.Types, res.Table.Strings)

	fnItems := make(map[symbols.SymbolID]ast.ItemID, len(res.Funcs))
	for itemID, symID := range res.Funcs {
		fnItems[symID] = itemID
	}

	file := b.File(fileID)
	if file == nil {
		return m
	}
	for _, itemID := range file.Items {
		fnData, ok := b.Items.Func(itemID)
		if !ok {
			continue
		}
		l := &funcLowerer{
			b:       b,
			res:     res,
			sem:     sem,
			tt:      tt,
			fnItems: fnItems,
			item:    itemID,
			env:     make(map[symbols.SymbolID]Reg),
		}
		m.Funcs = append(m.Funcs, l.lower(fnData))
	}
	return m
}

// funcLowerer builds one Func unit. Registers are mutable slots, not SSA;
// bindings keep one register for their whole lifetime.
type funcLowerer struct {
	b       *ast.Builder
	res     *symbols.Resolution
	sem     *sema.Result
	tt      *typeTable
	fnItems map[symbols.SymbolID]ast.ItemID

	item ast.ItemID
	fn   *Func
	env  map[symbols.SymbolID]Reg

	// scopes is the stack of enclosing blocks, innermost last; an early
	// exit releases their heap bindings before leaving the function.
	scopes []ast.StmtID

	cur  BlockID
	done bool // current block already terminated
}

func (l *funcLowerer) lower(fnData *ast.FuncData) *Func {
	name := l.b.Lookup(fnData.Name)
	l.fn = &Func{
		Name:     name,
		Result:   l.tt.ref(l.sem.FuncResults[l.item]),
		Fallible: l.sem.Fallible[l.item],
	}

	for i, symID := range l.res.Params[l.item] {
		paramType := l.tt.ref(l.sem.BindingTypes[symID])
		storage := l.storageOf(symID, paramType)
		reg := l.fn.NewReg(paramType, storage, l.b.Lookup(fnData.Params[i].Name))
		l.env[symID] = reg
		l.fn.Params = append(l.fn.Params, Param{
			Name:    l.b.Lookup(fnData.Params[i].Name),
			Type:    paramType,
			Reg:     reg,
			Storage: storage,
		})
	}

	l.cur = l.fn.NewBlock()
	l.fn.Entry = l.cur
	l.lowerStmt(fnData.Body)

	// A body that falls off the end returns unit.
	if !l.done {
		unit := l.unitValue()
		l.terminate(Terminator{Kind: TermReturn, Value: l.wrapOk(unit)})
	}
	return l.fn
}

func (l *funcLowerer) emit(in Instr) {
	if l.done {
		return
	}
	blk := l.fn.Block(l.cur)
	blk.Instrs = append(blk.Instrs, in)
}

func (l *funcLowerer) terminate(t Terminator) {
	if l.done {
		return
	}
	l.fn.Block(l.cur).Term = t
	l.done = true
}

// moveTo switches emission to an (unterminated) block.
func (l *funcLowerer) moveTo(id BlockID) {
	l.cur = id
	l.done = false
}

func (l *funcLowerer) typeRefOf(expr ast.ExprID) TypeRef {
	return l.tt.ref(l.sem.ExprTypes[expr])
}

// storageOf prefers the ownership pass's verdict and falls back to the
// type's natural placement for temporaries.
func (l *funcLowerer) storageOf(symID symbols.SymbolID, t TypeRef) Storage {
	if l.sem.Ownership != nil {
		if bo, ok := l.sem.Ownership.Bindings[symID]; ok {
			if bo.Storage == sema.StorageHeapARC {
				return StoreHeapARC
			}
			return StoreStack
		}
	}
	return l.storageForType(t)
}

func (l *funcLowerer) storageForType(t TypeRef) Storage {
	tt := l.tt.module.TypeOf(t)
	if tt == nil {
		return StoreStack
	}
	switch tt.Kind {
	case TypeUnit, TypeBool, TypeInt, TypeFloat:
		return StoreStack
	default:
		return StoreHeapARC
	}
}

func (l *funcLowerer) temp(t TypeRef) Reg {
	return l.fn.NewReg(t, l.storageForType(t), "")
}

// unitValue materializes the unit value.
func (l *funcLowerer) unitValue() Reg {
	unit := l.tt.ref(l.sem.Types.Builtins().Unit)
	dst := l.temp(unit)
	l.emit(Instr{Op: OpConst, Dst: dst, Type: unit})
	return dst
}

// wrapOk wraps v for a fallible function's return; infallible returns pass
// through unchanged.
func (l *funcLowerer) wrapOk(v Reg) Reg {
	if !l.fn.Fallible {
		return v
	}
	res := l.resultType()
	dst := l.temp(res)
	l.emit(Instr{Op: OpMakeOk, Dst: dst, A: v, Type: res})
	return dst
}

func (l *funcLowerer) resultType() TypeRef {
	return l.tt.ref(l.sem.Types.Result(l.sem.FuncResults[l.item]))
}

func (l *funcLowerer) lowerStmt(id ast.StmtID) {
	if l.done {
		return
	}
	stmt := l.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		l.lowerAssign(id)
	case ast.StmtExpr:
		data, _ := l.b.Stmts.Expr(id)
		l.lowerExpr(data.Expr)
	case ast.StmtIf:
		l.lowerIf(id)
	case ast.StmtFor:
		l.lowerFor(id)
	case ast.StmtReturn:
		l.lowerReturn(id)
	case ast.StmtBlock:
		data, _ := l.b.Stmts.Block(id)
		l.scopes = append(l.scopes, id)
		for _, s := range data.Stmts {
			l.lowerStmt(s)
			if l.done {
				l.scopes = l.scopes[:len(l.scopes)-1]
				return
			}
		}
		l.emitScopeReleases(id)
		l.scopes = l.scopes[:len(l.scopes)-1]
	}
}

// emitScopeReleases releases the block's heap bindings in the order the
// ownership pass planned.
func (l *funcLowerer) emitScopeReleases(id ast.StmtID) {
	if l.sem.Ownership == nil {
		return
	}
	for _, symID := range l.sem.Ownership.ScopeReleases[id] {
		if reg, ok := l.env[symID]; ok {
			l.emit(Instr{Op: OpRelease, A: reg})
		}
	}
}

// emitEpilogueReleases releases every enclosing scope's heap bindings,
// innermost first, before a return or abort leaves the function. Bindings
// declared after the exit point have no register yet and are skipped.
func (l *funcLowerer) emitEpilogueReleases() {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		l.emitScopeReleases(l.scopes[i])
	}
}

func (l *funcLowerer) lowerAssign(id ast.StmtID) {
	data, _ := l.b.Stmts.Assign(id)

	if symID, ok := l.res.Decls[id]; ok {
		t := l.tt.ref(l.sem.BindingTypes[symID])
		sym := l.res.Table.Symbols.Get(symID)
		reg := l.fn.NewReg(t, l.storageOf(symID, t), l.res.Table.Strings.MustLookup(sym.Name))
		l.env[symID] = reg
		val := l.lowerExpr(data.Value)
		if l.done {
			return
		}
		l.retainIfPlanned(data.Value, val)
		l.emit(Instr{Op: OpMove, Dst: reg, A: val})
		return
	}

	if symID, ok := l.res.Assigns[id]; ok {
		reg := l.env[symID]
		val := l.lowerExpr(data.Value)
		if l.done {
			return
		}
		if l.sem.Ownership != nil && l.sem.Ownership.SlotReleases[id] {
			l.emit(Instr{Op: OpRelease, A: reg})
		}
		l.retainIfPlanned(data.Value, val)
		l.emit(Instr{Op: OpMove, Dst: reg, A: val})
		return
	}

	// Field store.
	if target := l.b.Exprs.Get(data.Target); target != nil && target.Kind == ast.ExprMember {
		member, _ := l.b.Exprs.Member(data.Target)
		obj := l.lowerExpr(member.Recv)
		val := l.lowerExpr(data.Value)
		if l.done {
			return
		}
		l.retainIfPlanned(data.Value, val)
		l.emit(Instr{
			Op:  OpSetField,
			A:   obj,
			B:   val,
			Sym: l.res.Table.Strings.MustLookup(member.Name),
		})
	}
}

func (l *funcLowerer) retainIfPlanned(expr ast.ExprID, reg Reg) {
	if l.sem.Ownership != nil && l.sem.Ownership.Retains[expr] && reg.IsValid() {
		l.emit(Instr{Op: OpRetain, A: reg})
	}
}

func (l *funcLowerer) lowerIf(id ast.StmtID) {
	data, _ := l.b.Stmts.If(id)
	cond := l.lowerExpr(data.Cond)
	if l.done {
		return
	}

	thenBlk := l.fn.NewBlock()
	joinBlk := l.fn.NewBlock()
	elseBlk := joinBlk
	if data.Else.IsValid() {
		elseBlk = l.fn.NewBlock()
	}
	l.terminate(Terminator{Kind: TermBranch, Cond: cond, To: thenBlk, Else: elseBlk})

	l.moveTo(thenBlk)
	l.lowerStmt(data.Then)
	l.terminate(Terminator{Kind: TermJump, To: joinBlk})

	if data.Else.IsValid() {
		l.moveTo(elseBlk)
		l.lowerStmt(data.Else)
		l.terminate(Terminator{Kind: TermJump, To: joinBlk})
	}
	l.moveTo(joinBlk)
}

// lowerFor compiles `for x in seq` to an index-driven header/body/latch
// shape and attaches the parallel pass's hint to the header.
func (l *funcLowerer) lowerFor(id ast.StmtID) {
	data, _ := l.b.Stmts.For(id)
	intType := l.tt.ref(l.sem.Types.Builtins().Int)
	boolType := l.tt.ref(l.sem.Types.Builtins().Bool)

	seq := l.lowerExpr(data.Seq)
	if l.done {
		return
	}
	length := l.temp(intType)
	l.emit(Instr{Op: OpLen, Dst: length, A: seq})
	idx := l.temp(intType)
	l.emit(Instr{Op: OpConst, Dst: idx, Type: intType, Lit: "0"})
	one := l.temp(intType)
	l.emit(Instr{Op: OpConst, Dst: one, Type: intType, Lit: "1"})

	head := l.fn.NewBlock()
	body := l.fn.NewBlock()
	exit := l.fn.NewBlock()
	l.terminate(Terminator{Kind: TermJump, To: head})

	l.moveTo(head)
	cond := l.temp(boolType)
	l.emit(Instr{Op: OpBin, Dst: cond, A: idx, B: length, Sym: "<"})
	l.terminate(Terminator{Kind: TermBranch, Cond: cond, To: body, Else: exit})

	l.moveTo(body)
	if symID, ok := l.res.LoopVars[id]; ok {
		t := l.tt.ref(l.sem.BindingTypes[symID])
		sym := l.res.Table.Symbols.Get(symID)
		reg := l.fn.NewReg(t, l.storageOf(symID, t), l.res.Table.Strings.MustLookup(sym.Name))
		l.env[symID] = reg
		l.emit(Instr{Op: OpIndex, Dst: reg, A: seq, B: idx})
	}
	l.lowerStmt(data.Body)
	l.emit(Instr{Op: OpBin, Dst: idx, A: idx, B: one, Sym: "+"})
	l.terminate(Terminator{Kind: TermJump, To: head})

	l.attachLoopHint(id, head)
	l.moveTo(exit)
}

func (l *funcLowerer) attachLoopHint(id ast.StmtID, head BlockID) {
	plan, ok := l.sem.Loops[id]
	if !ok {
		l.fn.Loops = append(l.fn.Loops, LoopHint{Head: head, Strategy: LoopSeq})
		return
	}
	hint := LoopHint{Head: head}
	switch plan.Kind {
	case sema.LoopMap:
		hint.Strategy = LoopParMap
	case sema.LoopReduce:
		hint.Strategy = LoopParReduce
		hint.Acc = l.env[plan.Acc]
		hint.ReduceOp = plan.Op.String()
	default:
		hint.Strategy = LoopSeq
	}
	l.fn.Loops = append(l.fn.Loops, hint)
}

func (l *funcLowerer) lowerReturn(id ast.StmtID) {
	data, _ := l.b.Stmts.Return(id)
	var val Reg
	if data.Value.IsValid() {
		val = l.lowerExpr(data.Value)
		if l.done {
			// The value diverged (an error(...) site): nothing to return.
			return
		}
	} else {
		val = l.unitValue()
	}
	// The returned value is retained before its binding's release so the
	// reference handed to the caller survives the epilogue.
	l.retainIfPlanned(data.Value, val)
	l.emitEpilogueReleases()
	l.terminate(Terminator{Kind: TermReturn, Value: l.wrapOk(val)})
}

// calleeItem resolves a call's target user function, when it is one.
func (l *funcLowerer) calleeItem(callee ast.ExprID) (ast.ItemID, bool) {
	symID, ok := l.res.Uses[callee]
	if !ok {
		return ast.NoItemID, false
	}
	item, ok := l.fnItems[symID]
	return item, ok
}
