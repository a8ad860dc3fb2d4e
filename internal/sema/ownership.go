package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/symbols"
	"kairo/internal/types"
)

// smallValueLimit is the byte size up to which a non-escaping value stays on
// the stack instead of the ARC heap.
const smallValueLimit = 16

// StorageClass says where a binding's value lives at runtime.
type StorageClass uint8

const (
	StorageStack StorageClass = iota
	StorageHeapARC
)

func (s StorageClass) String() string {
	if s == StorageHeapARC {
		return "heap-arc"
	}
	return "stack"
}

// EscapeReason records why a binding's value outlives its scope, or
// EscapeNone if it never does.
type EscapeReason uint8

const (
	EscapeNone EscapeReason = iota
	EscapeReturned
	EscapeSent
	EscapeSpawnCaptured
	EscapeStoredInField
)

func (e EscapeReason) String() string {
	switch e {
	case EscapeReturned:
		return "returned"
	case EscapeSent:
		return "sent on a channel"
	case EscapeSpawnCaptured:
		return "captured by spawn"
	case EscapeStoredInField:
		return "stored in a field"
	default:
		return "local"
	}
}

// BindingOwnership is the per-binding result of the ownership pass.
type BindingOwnership struct {
	Storage StorageClass
	Escape  EscapeReason
}

// OwnershipInfo carries the ARC plan into IR lowering.
type OwnershipInfo struct {
	Bindings map[symbols.SymbolID]BindingOwnership

	// Retains marks expression sites whose value picks up an extra owning
	// reference: aliasing reads of heap bindings on the right-hand side of a
	// binding, in constructor arguments, in send values, and in returns.
	Retains map[ast.ExprID]bool
	// ScopeReleases lists, per block, the heap bindings to release when the
	// block exits, in reverse declaration order.
	ScopeReleases map[ast.StmtID][]symbols.SymbolID
	// SlotReleases marks assignments that overwrite a live heap slot; the
	// old value is released before the store.
	SlotReleases map[ast.StmtID]bool
}

// ownership classifies escapes, assigns storage classes, plans the
// retain/release sites, and rejects strong reference cycles between struct
// declarations.
type ownership struct {
	b        *ast.Builder
	res      *symbols.Resolution
	reporter diag.Reporter
	out      *Result

	info *OwnershipInfo
}

func newOwnership(b *ast.Builder, res *symbols.Resolution, reporter diag.Reporter, out *Result) *ownership {
	return &ownership{
		b:        b,
		res:      res,
		reporter: reporter,
		out:      out,
		info: &OwnershipInfo{
			Bindings:      make(map[symbols.SymbolID]BindingOwnership),
			Retains:       make(map[ast.ExprID]bool),
			ScopeReleases: make(map[ast.StmtID][]symbols.SymbolID),
			SlotReleases:  make(map[ast.StmtID]bool),
		},
	}
}

func (o *ownership) run(fileID ast.FileID) {
	file := o.b.File(fileID)
	if file == nil {
		return
	}
	o.out.Ownership = o.info

	o.checkStrongCycles(file)

	for _, itemID := range file.Items {
		fn, ok := o.b.Items.Func(itemID)
		if !ok {
			continue
		}
		for _, paramSym := range o.res.Params[itemID] {
			o.noteBinding(paramSym)
		}
		o.escapeStmt(fn.Body)
		o.planStmt(fn.Body)
	}
}

// noteBinding records the binding with its storage class; escape reasons are
// merged in later by markEscape.
func (o *ownership) noteBinding(symID symbols.SymbolID) {
	if _, seen := o.info.Bindings[symID]; seen {
		return
	}
	o.info.Bindings[symID] = BindingOwnership{Storage: o.storageOf(symID, EscapeNone)}
}

func (o *ownership) markEscape(symID symbols.SymbolID, reason EscapeReason) {
	bo := o.info.Bindings[symID]
	if bo.Escape == EscapeNone {
		bo.Escape = reason
	}
	bo.Storage = StorageHeapARC
	o.info.Bindings[symID] = bo
}

// storageOf decides stack vs heap from the binding's resolved type and its
// escape status.
func (o *ownership) storageOf(symID symbols.SymbolID, escape EscapeReason) StorageClass {
	if escape != EscapeNone {
		return StorageHeapARC
	}
	t, ok := o.out.BindingTypes[symID]
	if !ok {
		if sym := o.res.Table.Symbols.Get(symID); sym != nil {
			t = sym.Type
		}
	}
	if size, fits := scalarSize(o.out.Types, t); fits && size <= smallValueLimit {
		return StorageStack
	}
	return StorageHeapARC
}

// scalarSize returns the fixed byte size for plain value types. Strings,
// lists, structs, channels, tasks and functions are reference-counted and
// report no size.
func scalarSize(in *types.Interner, t types.TypeID) (int, bool) {
	tt, ok := in.Lookup(t)
	if !ok {
		return 0, false
	}
	switch tt.Kind {
	case types.KindUnit:
		return 0, true
	case types.KindBool:
		return 1, true
	case types.KindInt, types.KindFloat:
		return 8, true
	default:
		return 0, false
	}
}

// escapeStmt walks a function body once, recording which bindings escape and
// through what path. Only the first reason per binding is kept.
func (o *ownership) escapeStmt(id ast.StmtID) {
	stmt := o.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := o.b.Stmts.Assign(id)
		if symID, ok := o.res.Decls[id]; ok {
			o.noteBinding(symID)
		}
		// Storing into a struct field gives the field ownership.
		if target := o.b.Exprs.Get(data.Target); target != nil && target.Kind == ast.ExprMember {
			o.escapeValue(data.Value, EscapeStoredInField)
		}
		o.escapeExpr(data.Value)
	case ast.StmtExpr:
		data, _ := o.b.Stmts.Expr(id)
		o.escapeExpr(data.Expr)
	case ast.StmtIf:
		data, _ := o.b.Stmts.If(id)
		o.escapeExpr(data.Cond)
		o.escapeStmt(data.Then)
		o.escapeStmt(data.Else)
	case ast.StmtFor:
		data, _ := o.b.Stmts.For(id)
		if symID, ok := o.res.LoopVars[id]; ok {
			o.noteBinding(symID)
		}
		o.escapeExpr(data.Seq)
		o.escapeStmt(data.Body)
	case ast.StmtReturn:
		data, _ := o.b.Stmts.Return(id)
		o.escapeValue(data.Value, EscapeReturned)
		o.escapeExpr(data.Value)
	case ast.StmtBlock:
		data, _ := o.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			o.escapeStmt(s)
		}
	}
}

// escapeValue marks the binding behind expr, when expr is a plain name.
func (o *ownership) escapeValue(expr ast.ExprID, reason EscapeReason) {
	if !expr.IsValid() {
		return
	}
	e := o.b.Exprs.Get(expr)
	if e == nil || e.Kind != ast.ExprIdent {
		return
	}
	if symID, ok := o.res.Uses[expr]; ok {
		sym := o.res.Table.Symbols.Get(symID)
		if sym != nil && (sym.Kind == symbols.SymbolBinding || sym.Kind == symbols.SymbolParam) {
			o.markEscape(symID, reason)
		}
	}
}

func (o *ownership) escapeExpr(id ast.ExprID) {
	expr := o.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprList:
		data, _ := o.b.Exprs.List(id)
		for _, e := range data.Elems {
			o.escapeExpr(e)
		}
	case ast.ExprBinary:
		data, _ := o.b.Exprs.Binary(id)
		o.escapeExpr(data.Left)
		o.escapeExpr(data.Right)
	case ast.ExprUnary:
		data, _ := o.b.Exprs.Unary(id)
		o.escapeExpr(data.Operand)
	case ast.ExprCall:
		data, _ := o.b.Exprs.Call(id)
		// Constructor arguments become owned fields of the new value.
		if o.isConstructor(data.Callee) {
			for _, a := range data.Args {
				o.escapeValue(a, EscapeStoredInField)
			}
		}
		o.escapeExpr(data.Callee)
		for _, a := range data.Args {
			o.escapeExpr(a)
		}
	case ast.ExprMember:
		data, _ := o.b.Exprs.Member(id)
		o.escapeExpr(data.Recv)
	case ast.ExprSpawn:
		data, _ := o.b.Exprs.Spawn(id)
		// Everything the spawned call reads crosses the task boundary.
		if call, ok := o.b.Exprs.Call(data.Call); ok {
			for _, a := range call.Args {
				o.escapeValue(a, EscapeSpawnCaptured)
			}
		}
		o.escapeExpr(data.Call)
	case ast.ExprAwait:
		data, _ := o.b.Exprs.Await(id)
		o.escapeExpr(data.Task)
	case ast.ExprChanSend:
		data, _ := o.b.Exprs.ChanSend(id)
		o.escapeValue(data.Value, EscapeSent)
		o.escapeExpr(data.Chan)
		o.escapeExpr(data.Value)
	case ast.ExprChanRecv:
		data, _ := o.b.Exprs.ChanRecv(id)
		o.escapeExpr(data.Chan)
	case ast.ExprTry, ast.ExprMust:
		data, _ := o.b.Exprs.TryLike(id)
		o.escapeExpr(data.Inner)
	}
}

func (o *ownership) isConstructor(callee ast.ExprID) bool {
	symID, ok := o.res.Uses[callee]
	if !ok {
		return false
	}
	sym := o.res.Table.Symbols.Get(symID)
	return sym != nil && sym.Kind == symbols.SymbolType
}

// planStmt records retain and release sites once escapes are known.
func (o *ownership) planStmt(id ast.StmtID) {
	stmt := o.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := o.b.Stmts.Assign(id)
		// An aliasing copy of a heap value retains it.
		if o.isHeapIdent(data.Value) {
			o.info.Retains[data.Value] = true
		}
		// Writing over a live heap slot releases the old value first.
		if symID, ok := o.res.Assigns[id]; ok && o.isHeapBinding(symID) {
			o.info.SlotReleases[id] = true
		}
		o.planExpr(data.Value)
	case ast.StmtExpr:
		data, _ := o.b.Stmts.Expr(id)
		o.planExpr(data.Expr)
	case ast.StmtIf:
		data, _ := o.b.Stmts.If(id)
		o.planExpr(data.Cond)
		o.planStmt(data.Then)
		o.planStmt(data.Else)
	case ast.StmtFor:
		// The loop variable borrows each element; the sequence keeps them
		// alive, so it owns nothing to release.
		data, _ := o.b.Stmts.For(id)
		o.planExpr(data.Seq)
		o.planStmt(data.Body)
	case ast.StmtReturn:
		data, _ := o.b.Stmts.Return(id)
		if o.isHeapIdent(data.Value) {
			o.info.Retains[data.Value] = true
		}
		o.planExpr(data.Value)
	case ast.StmtBlock:
		data, _ := o.b.Stmts.Block(id)
		var owned []symbols.SymbolID
		for _, s := range data.Stmts {
			o.planStmt(s)
			if symID, ok := o.res.Decls[s]; ok && o.isHeapBinding(symID) {
				owned = append(owned, symID)
			}
		}
		// Release in reverse declaration order.
		for i, j := 0, len(owned)-1; i < j; i, j = i+1, j-1 {
			owned[i], owned[j] = owned[j], owned[i]
		}
		if len(owned) > 0 {
			o.info.ScopeReleases[id] = owned
		}
	}
}

func (o *ownership) planExpr(id ast.ExprID) {
	expr := o.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprList:
		data, _ := o.b.Exprs.List(id)
		for _, e := range data.Elems {
			if o.isHeapIdent(e) {
				o.info.Retains[e] = true
			}
			o.planExpr(e)
		}
	case ast.ExprBinary:
		data, _ := o.b.Exprs.Binary(id)
		o.planExpr(data.Left)
		o.planExpr(data.Right)
	case ast.ExprUnary:
		data, _ := o.b.Exprs.Unary(id)
		o.planExpr(data.Operand)
	case ast.ExprCall:
		data, _ := o.b.Exprs.Call(id)
		if o.isConstructor(data.Callee) {
			for _, a := range data.Args {
				if o.isHeapIdent(a) {
					o.info.Retains[a] = true
				}
			}
		}
		o.planExpr(data.Callee)
		for _, a := range data.Args {
			o.planExpr(a)
		}
	case ast.ExprMember:
		data, _ := o.b.Exprs.Member(id)
		o.planExpr(data.Recv)
	case ast.ExprSpawn:
		data, _ := o.b.Exprs.Spawn(id)
		if call, ok := o.b.Exprs.Call(data.Call); ok {
			for _, a := range call.Args {
				if o.isHeapIdent(a) {
					o.info.Retains[a] = true
				}
			}
		}
		o.planExpr(data.Call)
	case ast.ExprAwait:
		data, _ := o.b.Exprs.Await(id)
		o.planExpr(data.Task)
	case ast.ExprChanSend:
		data, _ := o.b.Exprs.ChanSend(id)
		if o.isHeapIdent(data.Value) {
			o.info.Retains[data.Value] = true
		}
		o.planExpr(data.Chan)
		o.planExpr(data.Value)
	case ast.ExprChanRecv:
		data, _ := o.b.Exprs.ChanRecv(id)
		o.planExpr(data.Chan)
	case ast.ExprTry, ast.ExprMust:
		data, _ := o.b.Exprs.TryLike(id)
		o.planExpr(data.Inner)
	}
}

func (o *ownership) isHeapIdent(expr ast.ExprID) bool {
	if !expr.IsValid() {
		return false
	}
	e := o.b.Exprs.Get(expr)
	if e == nil || e.Kind != ast.ExprIdent {
		return false
	}
	symID, ok := o.res.Uses[expr]
	return ok && o.isHeapBinding(symID)
}

func (o *ownership) isHeapBinding(symID symbols.SymbolID) bool {
	if bo, ok := o.info.Bindings[symID]; ok {
		return bo.Storage == StorageHeapARC
	}
	return o.storageOf(symID, EscapeNone) == StorageHeapARC
}

// checkStrongCycles builds the strong-field graph over the file's struct
// declarations and rejects every strongly connected component with more than
// one member. A struct strongly referencing itself is allowed: the runtime
// chain it builds is a list, not a loop, until the program ties the knot,
// and rejecting it would outlaw every linked structure.
func (o *ownership) checkStrongCycles(file *ast.File) {
	type node struct {
		item ast.ItemID
		t    types.TypeID
	}
	var nodes []node
	index := make(map[types.TypeID]int)
	for _, itemID := range file.Items {
		t, ok := o.res.StructTypes[itemID]
		if !ok {
			continue
		}
		index[t] = len(nodes)
		nodes = append(nodes, node{item: itemID, t: t})
	}
	if len(nodes) < 2 {
		return
	}

	edges := make([][]int, len(nodes))
	for i, n := range nodes {
		info, ok := o.out.Types.StructInfo(n.t)
		if !ok {
			continue
		}
		for _, f := range info.Fields {
			if f.Weak {
				continue
			}
			if to, ok := index[f.Type]; ok {
				edges[i] = append(edges[i], to)
			}
		}
	}

	for _, scc := range tarjanSCC(edges) {
		if len(scc) < 2 {
			continue
		}
		inCycle := make(map[int]bool, len(scc))
		for _, n := range scc {
			inCycle[n] = true
		}
		o.reportCycle(nodes[scc[0]].item, nodes[scc[0]].t, func(i int) bool { return inCycle[i] }, index)
	}
}

// reportCycle names one strong back edge inside the component and offers the
// weak fix.
func (o *ownership) reportCycle(item ast.ItemID, t types.TypeID, inCycle func(int) bool, index map[types.TypeID]int) {
	decl, ok := o.b.Items.TypeDecl(item)
	if !ok {
		return
	}
	info, _ := o.out.Types.StructInfo(t)
	for _, f := range decl.Fields {
		fieldType, ok := o.res.Annotations[f.Type]
		if !ok || f.Weak {
			continue
		}
		to, ok := index[fieldType]
		if !ok || !inCycle(to) {
			continue
		}
		name := o.res.Table.Strings.MustLookup(f.Name)
		owner := o.res.Table.Strings.MustLookup(info.Name)
		diag.ReportError(o.reporter, diag.OwnStrongCycle, f.Span,
			fmt.Sprintf("field '%s' closes a strong reference cycle through %s", name, owner)).
			WithNote(info.Decl, fmt.Sprintf("%s is part of the cycle", owner)).
			WithFix("mark the back reference weak",
				diag.FixEdit{Span: source.Span{File: f.Span.File, Start: f.Span.Start, End: f.Span.Start}, NewText: "weak "}).
			Emit()
		return
	}
}

// tarjanSCC returns the strongly connected components of a small directed
// graph, iteratively to keep deep chains off the Go stack.
func tarjanSCC(edges [][]int) [][]int {
	n := len(edges)
	const unvisited = -1
	indexOf := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range indexOf {
		indexOf[i] = unvisited
	}
	var (
		stack  []int
		sccs   [][]int
		next   int
		frames []struct{ node, edge int }
	)
	for start := 0; start < n; start++ {
		if indexOf[start] != unvisited {
			continue
		}
		frames = append(frames[:0], struct{ node, edge int }{start, 0})
		indexOf[start], lowlink[start] = next, next
		next++
		stack = append(stack, start)
		onStack[start] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.edge < len(edges[f.node]) {
				to := edges[f.node][f.edge]
				f.edge++
				if indexOf[to] == unvisited {
					indexOf[to], lowlink[to] = next, next
					next++
					stack = append(stack, to)
					onStack[to] = true
					frames = append(frames, struct{ node, edge int }{to, 0})
				} else if onStack[to] && indexOf[to] < lowlink[f.node] {
					lowlink[f.node] = indexOf[to]
				}
				continue
			}
			// Node finished: pop a component if this is its root.
			done := f.node
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1].node
				if lowlink[done] < lowlink[parent] {
					lowlink[parent] = lowlink[done]
				}
			}
			if lowlink[done] == indexOf[done] {
				var scc []int
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					scc = append(scc, top)
					if top == done {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}
