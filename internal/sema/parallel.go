package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/symbols"
)

// LoopKind is the execution strategy chosen for a for loop.
type LoopKind uint8

const (
	LoopSequential LoopKind = iota
	// LoopMap runs iterations independently: the body is pure and writes
	// nothing outside the loop.
	LoopMap
	// LoopReduce runs iterations in parallel and folds a single accumulator
	// with an associative operation.
	LoopReduce
)

func (k LoopKind) String() string {
	switch k {
	case LoopMap:
		return "map"
	case LoopReduce:
		return "reduce"
	default:
		return "sequential"
	}
}

// ReduceOp is the fold operation of a LoopReduce plan.
type ReduceOp uint8

const (
	ReduceAdd ReduceOp = iota
	ReduceMul
	ReduceMax
	ReduceMin
)

func (op ReduceOp) String() string {
	switch op {
	case ReduceMul:
		return "*"
	case ReduceMax:
		return "max"
	case ReduceMin:
		return "min"
	default:
		return "+"
	}
}

// LoopPlan is the parallelization decision for one for statement.
type LoopPlan struct {
	Kind LoopKind
	// Acc and Op are set for LoopReduce.
	Acc symbols.SymbolID
	Op  ReduceOp
	// Reason explains a sequential plan in user-facing words.
	Reason string
}

// parallel plans loop execution: pure bodies with no outer writes become
// maps, single-accumulator folds over +, *, math.max or math.min become
// reductions, everything else stays sequential. Every decision is surfaced
// as an info note.
type parallel struct {
	b        *ast.Builder
	res      *symbols.Resolution
	reporter diag.Reporter
	out      *Result

	// purity memoizes user-function purity. The in-progress marker makes
	// recursive call chains count as pure unless something impure shows up.
	purity  map[ast.ItemID]purityState
	fnItems map[symbols.SymbolID]ast.ItemID
}

type purityState uint8

const (
	purityUnknown purityState = iota
	purityInProgress
	purityPure
	purityImpure
)

func newParallel(b *ast.Builder, res *symbols.Resolution, reporter diag.Reporter, out *Result) *parallel {
	return &parallel{
		b:        b,
		res:      res,
		reporter: reporter,
		out:      out,
		purity:   make(map[ast.ItemID]purityState),
		fnItems:  make(map[symbols.SymbolID]ast.ItemID),
	}
}

func (p *parallel) run(fileID ast.FileID) {
	file := p.b.File(fileID)
	if file == nil {
		return
	}
	for itemID, symID := range p.res.Funcs {
		p.fnItems[symID] = itemID
	}
	for _, itemID := range file.Items {
		fn, ok := p.b.Items.Func(itemID)
		if !ok {
			continue
		}
		p.visitStmt(fn.Body)
	}
}

// visitStmt finds every for loop, innermost included, and plans it.
func (p *parallel) visitStmt(id ast.StmtID) {
	stmt := p.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtIf:
		data, _ := p.b.Stmts.If(id)
		p.visitStmt(data.Then)
		p.visitStmt(data.Else)
	case ast.StmtFor:
		data, _ := p.b.Stmts.For(id)
		p.planLoop(id)
		p.visitStmt(data.Body)
	case ast.StmtBlock:
		data, _ := p.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			p.visitStmt(s)
		}
	}
}

func (p *parallel) planLoop(id ast.StmtID) {
	data, _ := p.b.Stmts.For(id)

	if reason, ok := p.stmtImpure(data.Body); ok {
		p.record(id, LoopPlan{Kind: LoopSequential, Reason: reason})
		return
	}

	local := p.localBindings(id)
	writes := p.outerWrites(data.Body, local)

	switch len(writes) {
	case 0:
		p.record(id, LoopPlan{Kind: LoopMap})
	case 1:
		w := writes[0]
		if op, ok := p.reducePattern(w.stmt, w.sym); ok {
			p.record(id, LoopPlan{Kind: LoopReduce, Acc: w.sym, Op: op})
			return
		}
		p.record(id, LoopPlan{
			Kind:   LoopSequential,
			Reason: fmt.Sprintf("iterations write '%s' in an order-dependent way", p.symbolName(w.sym)),
		})
	default:
		p.record(id, LoopPlan{
			Kind:   LoopSequential,
			Reason: "iterations write more than one outer binding",
		})
	}
}

func (p *parallel) record(id ast.StmtID, plan LoopPlan) {
	p.out.Loops[id] = plan
	loopSpan := p.b.StmtSpan(id)
	switch plan.Kind {
	case LoopMap:
		diag.ReportInfo(p.reporter, diag.NoteLoopParallel, loopSpan,
			"this loop runs its iterations in parallel").
			Emit()
	case LoopReduce:
		diag.ReportInfo(p.reporter, diag.NoteLoopParallel, loopSpan,
			fmt.Sprintf("this loop runs in parallel as a '%s' reduction over '%s'",
				plan.Op, p.symbolName(plan.Acc))).
			Emit()
	default:
		diag.ReportInfo(p.reporter, diag.NoteLoopSequential, loopSpan,
			"this loop stays sequential: "+plan.Reason).
			Emit()
	}
}

// localBindings collects the symbols declared inside the loop, loop variable
// included. Writes to those never block parallelization.
func (p *parallel) localBindings(loopID ast.StmtID) map[symbols.SymbolID]bool {
	local := make(map[symbols.SymbolID]bool)
	if symID, ok := p.res.LoopVars[loopID]; ok {
		local[symID] = true
	}
	data, _ := p.b.Stmts.For(loopID)
	var walk func(ast.StmtID)
	walk = func(id ast.StmtID) {
		stmt := p.b.Stmts.Get(id)
		if stmt == nil {
			return
		}
		if symID, ok := p.res.Decls[id]; ok {
			local[symID] = true
		}
		if symID, ok := p.res.LoopVars[id]; ok {
			local[symID] = true
		}
		switch stmt.Kind {
		case ast.StmtIf:
			d, _ := p.b.Stmts.If(id)
			walk(d.Then)
			walk(d.Else)
		case ast.StmtFor:
			d, _ := p.b.Stmts.For(id)
			walk(d.Body)
		case ast.StmtBlock:
			d, _ := p.b.Stmts.Block(id)
			for _, s := range d.Stmts {
				walk(s)
			}
		}
	}
	walk(data.Body)
	return local
}

type outerWrite struct {
	stmt ast.StmtID
	sym  symbols.SymbolID
}

// outerWrites lists assignments inside the body that target bindings living
// outside the loop. Field stores count as outer writes too: the struct the
// field belongs to survives the loop.
func (p *parallel) outerWrites(body ast.StmtID, local map[symbols.SymbolID]bool) []outerWrite {
	var writes []outerWrite
	var walk func(ast.StmtID)
	walk = func(id ast.StmtID) {
		stmt := p.b.Stmts.Get(id)
		if stmt == nil {
			return
		}
		switch stmt.Kind {
		case ast.StmtAssign:
			if symID, ok := p.res.Assigns[id]; ok && !local[symID] {
				writes = append(writes, outerWrite{stmt: id, sym: symID})
			}
			data, _ := p.b.Stmts.Assign(id)
			if target := p.b.Exprs.Get(data.Target); target != nil && target.Kind == ast.ExprMember {
				if symID, isOuter := p.memberRoot(data.Target, local); isOuter {
					writes = append(writes, outerWrite{stmt: id, sym: symID})
				}
			}
		case ast.StmtIf:
			d, _ := p.b.Stmts.If(id)
			walk(d.Then)
			walk(d.Else)
		case ast.StmtFor:
			d, _ := p.b.Stmts.For(id)
			walk(d.Body)
		case ast.StmtBlock:
			d, _ := p.b.Stmts.Block(id)
			for _, s := range d.Stmts {
				walk(s)
			}
		}
	}
	walk(body)
	return writes
}

// memberRoot finds the binding at the root of a member chain and reports
// whether it lives outside the loop.
func (p *parallel) memberRoot(id ast.ExprID, local map[symbols.SymbolID]bool) (symbols.SymbolID, bool) {
	for {
		expr := p.b.Exprs.Get(id)
		if expr == nil {
			return symbols.NoSymbolID, false
		}
		switch expr.Kind {
		case ast.ExprMember:
			data, _ := p.b.Exprs.Member(id)
			id = data.Recv
		case ast.ExprIdent:
			symID, ok := p.res.Uses[id]
			if !ok {
				return symbols.NoSymbolID, false
			}
			return symID, !local[symID]
		default:
			return symbols.NoSymbolID, false
		}
	}
}

// reducePattern matches `acc = acc + e`, `acc = acc * e`,
// `acc = math.max(acc, e)` and `acc = math.min(acc, e)`, with e free of acc.
func (p *parallel) reducePattern(stmtID ast.StmtID, acc symbols.SymbolID) (ReduceOp, bool) {
	stmt := p.b.Stmts.Get(stmtID)
	if stmt == nil || stmt.Kind != ast.StmtAssign {
		return 0, false
	}
	data, _ := p.b.Stmts.Assign(stmtID)
	value := p.b.Exprs.Get(data.Value)
	if value == nil {
		return 0, false
	}

	switch value.Kind {
	case ast.ExprBinary:
		bin, _ := p.b.Exprs.Binary(data.Value)
		var op ReduceOp
		switch bin.Op {
		case ast.BinAdd:
			op = ReduceAdd
		case ast.BinMul:
			op = ReduceMul
		default:
			return 0, false
		}
		if p.isAcc(bin.Left, acc) && !p.mentions(bin.Right, acc) {
			return op, true
		}
		if p.isAcc(bin.Right, acc) && !p.mentions(bin.Left, acc) {
			return op, true
		}
		return 0, false

	case ast.ExprCall:
		call, _ := p.b.Exprs.Call(data.Value)
		decl, ok := p.res.ModuleMembers[call.Callee]
		if !ok || len(call.Args) != 2 {
			return 0, false
		}
		name := p.res.Table.Strings.MustLookup(decl.Name)
		var op ReduceOp
		switch name {
		case "max":
			op = ReduceMax
		case "min":
			op = ReduceMin
		default:
			return 0, false
		}
		if p.isAcc(call.Args[0], acc) && !p.mentions(call.Args[1], acc) {
			return op, true
		}
		if p.isAcc(call.Args[1], acc) && !p.mentions(call.Args[0], acc) {
			return op, true
		}
		return 0, false
	}
	return 0, false
}

func (p *parallel) isAcc(id ast.ExprID, acc symbols.SymbolID) bool {
	expr := p.b.Exprs.Get(id)
	if expr == nil || expr.Kind != ast.ExprIdent {
		return false
	}
	symID, ok := p.res.Uses[id]
	return ok && symID == acc
}

// mentions reports whether acc appears anywhere in the expression.
func (p *parallel) mentions(id ast.ExprID, acc symbols.SymbolID) bool {
	expr := p.b.Exprs.Get(id)
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.ExprIdent:
		symID, ok := p.res.Uses[id]
		return ok && symID == acc
	case ast.ExprList:
		data, _ := p.b.Exprs.List(id)
		for _, e := range data.Elems {
			if p.mentions(e, acc) {
				return true
			}
		}
	case ast.ExprBinary:
		data, _ := p.b.Exprs.Binary(id)
		return p.mentions(data.Left, acc) || p.mentions(data.Right, acc)
	case ast.ExprUnary:
		data, _ := p.b.Exprs.Unary(id)
		return p.mentions(data.Operand, acc)
	case ast.ExprCall:
		data, _ := p.b.Exprs.Call(id)
		if p.mentions(data.Callee, acc) {
			return true
		}
		for _, a := range data.Args {
			if p.mentions(a, acc) {
				return true
			}
		}
	case ast.ExprMember:
		data, _ := p.b.Exprs.Member(id)
		return p.mentions(data.Recv, acc)
	case ast.ExprSpawn:
		data, _ := p.b.Exprs.Spawn(id)
		return p.mentions(data.Call, acc)
	case ast.ExprAwait:
		data, _ := p.b.Exprs.Await(id)
		return p.mentions(data.Task, acc)
	case ast.ExprChanSend:
		data, _ := p.b.Exprs.ChanSend(id)
		return p.mentions(data.Chan, acc) || p.mentions(data.Value, acc)
	case ast.ExprChanRecv:
		data, _ := p.b.Exprs.ChanRecv(id)
		return p.mentions(data.Chan, acc)
	case ast.ExprTry, ast.ExprMust:
		data, _ := p.b.Exprs.TryLike(id)
		return p.mentions(data.Inner, acc)
	}
	return false
}

// stmtImpure reports the first effect inside a statement tree that pins the
// loop to sequential order.
func (p *parallel) stmtImpure(id ast.StmtID) (string, bool) {
	stmt := p.b.Stmts.Get(id)
	if stmt == nil {
		return "", false
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := p.b.Stmts.Assign(id)
		return p.exprImpure(data.Value)
	case ast.StmtExpr:
		data, _ := p.b.Stmts.Expr(id)
		return p.exprImpure(data.Expr)
	case ast.StmtIf:
		data, _ := p.b.Stmts.If(id)
		if reason, ok := p.exprImpure(data.Cond); ok {
			return reason, true
		}
		if reason, ok := p.stmtImpure(data.Then); ok {
			return reason, true
		}
		return p.stmtImpure(data.Else)
	case ast.StmtFor:
		data, _ := p.b.Stmts.For(id)
		if reason, ok := p.exprImpure(data.Seq); ok {
			return reason, true
		}
		return p.stmtImpure(data.Body)
	case ast.StmtReturn:
		data, _ := p.b.Stmts.Return(id)
		if data.Value.IsValid() {
			if reason, ok := p.exprImpure(data.Value); ok {
				return reason, true
			}
		}
		return "iterations may return early", true
	case ast.StmtBlock:
		data, _ := p.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			if reason, ok := p.stmtImpure(s); ok {
				return reason, true
			}
		}
	}
	return "", false
}

func (p *parallel) exprImpure(id ast.ExprID) (string, bool) {
	expr := p.b.Exprs.Get(id)
	if expr == nil {
		return "", false
	}
	switch expr.Kind {
	case ast.ExprList:
		data, _ := p.b.Exprs.List(id)
		for _, e := range data.Elems {
			if reason, ok := p.exprImpure(e); ok {
				return reason, true
			}
		}
	case ast.ExprBinary:
		data, _ := p.b.Exprs.Binary(id)
		if reason, ok := p.exprImpure(data.Left); ok {
			return reason, true
		}
		return p.exprImpure(data.Right)
	case ast.ExprUnary:
		data, _ := p.b.Exprs.Unary(id)
		return p.exprImpure(data.Operand)
	case ast.ExprCall:
		return p.callImpure(id)
	case ast.ExprMember:
		data, _ := p.b.Exprs.Member(id)
		if decl, ok := p.res.ModuleMembers[id]; ok && !decl.Pure {
			return fmt.Sprintf("it reads '%s', an effectful library member",
				p.res.Table.Strings.MustLookup(decl.Name)), true
		}
		return p.exprImpure(data.Recv)
	case ast.ExprSpawn:
		return "it spawns tasks", true
	case ast.ExprAwait:
		return "it awaits tasks", true
	case ast.ExprChanSend, ast.ExprChanRecv:
		return "it uses channels", true
	case ast.ExprTry:
		return "'try' may exit the loop early", true
	case ast.ExprMust:
		data, _ := p.b.Exprs.TryLike(id)
		return p.exprImpure(data.Inner)
	}
	return "", false
}

func (p *parallel) callImpure(id ast.ExprID) (string, bool) {
	data, _ := p.b.Exprs.Call(id)
	for _, a := range data.Args {
		if reason, ok := p.exprImpure(a); ok {
			return reason, true
		}
	}

	if decl, ok := p.res.ModuleMembers[data.Callee]; ok {
		if !decl.Pure {
			return fmt.Sprintf("it calls '%s', which has side effects",
				p.res.Table.Strings.MustLookup(decl.Name)), true
		}
		return "", false
	}

	symID, ok := p.res.Uses[data.Callee]
	if !ok {
		return p.exprImpure(data.Callee)
	}
	sym := p.res.Table.Symbols.Get(symID)
	if sym == nil {
		return "", false
	}
	switch {
	case sym.Builtin == symbols.BuiltinPrint:
		return "it calls 'print'", true
	case sym.Builtin == symbols.BuiltinError:
		return "'error' may exit the loop early", true
	case sym.Builtin != symbols.BuiltinNone:
		return "", false
	case sym.Kind == symbols.SymbolType:
		return "", false
	case sym.Kind == symbols.SymbolFunction:
		if itemID, known := p.fnItems[symID]; known {
			if !p.fnPure(itemID) {
				return fmt.Sprintf("it calls '%s', which has side effects",
					p.res.Table.Strings.MustLookup(sym.Name)), true
			}
		}
		return "", false
	default:
		return p.exprImpure(data.Callee)
	}
}

// fnPure computes user-function purity transitively, memoized. A function in
// the middle of its own check counts as pure so recursion does not flip the
// answer.
func (p *parallel) fnPure(itemID ast.ItemID) bool {
	switch p.purity[itemID] {
	case purityPure, purityInProgress:
		return true
	case purityImpure:
		return false
	}
	p.purity[itemID] = purityInProgress
	fn, ok := p.b.Items.Func(itemID)
	if !ok {
		p.purity[itemID] = purityPure
		return true
	}
	if _, impure := p.fnBodyImpure(fn.Body); impure {
		p.purity[itemID] = purityImpure
		return false
	}
	p.purity[itemID] = purityPure
	return true
}

// fnBodyImpure is stmtImpure without the early-return rule: a return ends
// the callee, not the caller's loop.
func (p *parallel) fnBodyImpure(id ast.StmtID) (string, bool) {
	stmt := p.b.Stmts.Get(id)
	if stmt == nil {
		return "", false
	}
	switch stmt.Kind {
	case ast.StmtReturn:
		data, _ := p.b.Stmts.Return(id)
		if data.Value.IsValid() {
			return p.exprImpure(data.Value)
		}
		return "", false
	case ast.StmtIf:
		data, _ := p.b.Stmts.If(id)
		if reason, ok := p.exprImpure(data.Cond); ok {
			return reason, true
		}
		if reason, ok := p.fnBodyImpure(data.Then); ok {
			return reason, true
		}
		return p.fnBodyImpure(data.Else)
	case ast.StmtFor:
		data, _ := p.b.Stmts.For(id)
		if reason, ok := p.exprImpure(data.Seq); ok {
			return reason, true
		}
		return p.fnBodyImpure(data.Body)
	case ast.StmtBlock:
		data, _ := p.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			if reason, ok := p.fnBodyImpure(s); ok {
				return reason, true
			}
		}
		return "", false
	default:
		return p.stmtImpure(id)
	}
}

func (p *parallel) symbolName(symID symbols.SymbolID) string {
	sym := p.res.Table.Symbols.Get(symID)
	if sym == nil {
		return "?"
	}
	return p.res.Table.Strings.MustLookup(sym.Name)
}
