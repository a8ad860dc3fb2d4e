package sema

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/symbols"
)

// MoveInfo records ownership transfers for the IR lowering: a value sent on
// a channel moves, it is never copied.
type MoveInfo struct {
	// Sends maps send value expressions that are plain names to the binding
	// the send moves out of.
	Sends map[ast.ExprID]symbols.SymbolID
}

// taskState is one spawned task that has not been awaited yet.
type taskState struct {
	spawn    source.Span
	handle   symbols.SymbolID
	captured map[symbols.SymbolID]source.Span
}

// concurrency checks the two task-safety rules: a mutable binding captured
// by a live task is off limits to everyone else until the task is awaited,
// and a value sent on a channel is gone until its binding is reassigned.
// The walk is linear and flow-insensitive across branches, which
// over-approximates: both arms of an if are treated as executing.
type concurrency struct {
	b        *ast.Builder
	res      *symbols.Resolution
	reporter diag.Reporter
	out      *Result

	moves *MoveInfo

	tasks []*taskState
	moved map[symbols.SymbolID]source.Span
}

func newConcurrency(b *ast.Builder, res *symbols.Resolution, reporter diag.Reporter, out *Result) *concurrency {
	return &concurrency{
		b:        b,
		res:      res,
		reporter: reporter,
		out:      out,
		moves:    &MoveInfo{Sends: make(map[ast.ExprID]symbols.SymbolID)},
	}
}

func (c *concurrency) run(fileID ast.FileID) {
	file := c.b.File(fileID)
	if file == nil {
		return
	}
	c.out.Moves = c.moves
	for _, itemID := range file.Items {
		fn, ok := c.b.Items.Func(itemID)
		if !ok {
			continue
		}
		c.tasks = c.tasks[:0]
		c.moved = make(map[symbols.SymbolID]source.Span)
		c.checkStmt(fn.Body)
	}
}

func (c *concurrency) checkStmt(id ast.StmtID) {
	stmt := c.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtAssign:
		data, _ := c.b.Stmts.Assign(id)
		value := c.b.Exprs.Get(data.Value)
		if value != nil && value.Kind == ast.ExprSpawn {
			handle := symbols.NoSymbolID
			if symID, ok := c.res.Decls[id]; ok {
				handle = symID
			} else if symID, ok := c.res.Assigns[id]; ok {
				handle = symID
			}
			c.checkSpawn(data.Value, handle)
		} else {
			c.checkExpr(data.Value)
		}
		// Writing a binding is an access, then it un-moves the name.
		if symID, ok := c.res.Assigns[id]; ok {
			c.checkShared(symID, c.b.ExprSpan(data.Target))
			delete(c.moved, symID)
		}
		if target := c.b.Exprs.Get(data.Target); target != nil && target.Kind == ast.ExprMember {
			c.checkExpr(data.Target)
		}
	case ast.StmtExpr:
		data, _ := c.b.Stmts.Expr(id)
		c.checkExpr(data.Expr)
	case ast.StmtIf:
		data, _ := c.b.Stmts.If(id)
		c.checkExpr(data.Cond)
		c.checkStmt(data.Then)
		c.checkStmt(data.Else)
	case ast.StmtFor:
		data, _ := c.b.Stmts.For(id)
		c.checkExpr(data.Seq)
		c.checkStmt(data.Body)
	case ast.StmtReturn:
		data, _ := c.b.Stmts.Return(id)
		c.checkExpr(data.Value)
	case ast.StmtBlock:
		data, _ := c.b.Stmts.Block(id)
		for _, s := range data.Stmts {
			c.checkStmt(s)
		}
	}
}

func (c *concurrency) checkExpr(id ast.ExprID) {
	expr := c.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		c.checkUse(id)
	case ast.ExprList:
		data, _ := c.b.Exprs.List(id)
		for _, e := range data.Elems {
			c.checkExpr(e)
		}
	case ast.ExprBinary:
		data, _ := c.b.Exprs.Binary(id)
		c.checkExpr(data.Left)
		c.checkExpr(data.Right)
	case ast.ExprUnary:
		data, _ := c.b.Exprs.Unary(id)
		c.checkExpr(data.Operand)
	case ast.ExprCall:
		data, _ := c.b.Exprs.Call(id)
		for _, a := range data.Args {
			c.checkExpr(a)
		}
	case ast.ExprMember:
		data, _ := c.b.Exprs.Member(id)
		c.checkExpr(data.Recv)
	case ast.ExprSpawn:
		// A spawn whose task handle is discarded can never be awaited; its
		// captures stay restricted for the rest of the function.
		c.checkSpawn(id, symbols.NoSymbolID)
	case ast.ExprAwait:
		data, _ := c.b.Exprs.Await(id)
		c.checkExpr(data.Task)
		if symID, ok := c.res.Uses[data.Task]; ok {
			c.joinTask(symID)
		}
	case ast.ExprChanSend:
		c.checkSend(id)
	case ast.ExprChanRecv:
		data, _ := c.b.Exprs.ChanRecv(id)
		c.checkExpr(data.Chan)
	case ast.ExprTry, ast.ExprMust:
		data, _ := c.b.Exprs.TryLike(id)
		c.checkExpr(data.Inner)
	}
}

// checkUse validates one read of a name against live moves and captures.
func (c *concurrency) checkUse(id ast.ExprID) {
	symID, ok := c.res.Uses[id]
	if !ok {
		return
	}
	sp := c.b.ExprSpan(id)
	if moveSite, gone := c.moved[symID]; gone {
		name := c.symbolName(symID)
		diag.ReportError(c.reporter, diag.ConcUseAfterMove, sp,
			fmt.Sprintf("'%s' was sent away and no longer holds a value", name)).
			WithNote(moveSite, fmt.Sprintf("'%s' was moved here", name)).
			Emit()
		// One report per move site.
		delete(c.moved, symID)
		return
	}
	c.checkShared(symID, sp)
}

// checkShared reports an access to a mutable binding that a live task
// captured.
func (c *concurrency) checkShared(symID symbols.SymbolID, sp source.Span) {
	sym := c.res.Table.Symbols.Get(symID)
	if sym == nil || !sym.IsMutable() {
		return
	}
	for _, task := range c.tasks {
		captureSite, captured := task.captured[symID]
		if !captured {
			continue
		}
		name := c.symbolName(symID)
		diag.ReportError(c.reporter, diag.ConcSharedMutable, sp,
			fmt.Sprintf("'%s' is mutable and a running task holds it; await the task before touching it", name)).
			WithNote(task.spawn, "the task starts here").
			WithNote(captureSite, fmt.Sprintf("'%s' is captured here", name)).
			Emit()
		// The first task is enough to explain the conflict.
		delete(task.captured, symID)
		return
	}
}

func (c *concurrency) checkSpawn(id ast.ExprID, handle symbols.SymbolID) {
	data, _ := c.b.Exprs.Spawn(id)
	task := &taskState{
		spawn:    c.b.Exprs.Get(id).Span,
		handle:   handle,
		captured: make(map[symbols.SymbolID]source.Span),
	}
	call, ok := c.b.Exprs.Call(data.Call)
	if !ok {
		c.checkExpr(data.Call)
		c.tasks = append(c.tasks, task)
		return
	}
	for _, arg := range call.Args {
		c.captureArg(task, arg)
	}
	c.tasks = append(c.tasks, task)
}

// captureArg walks a spawn argument: plain names become captures, nested
// expressions are scanned for names to capture too.
func (c *concurrency) captureArg(task *taskState, id ast.ExprID) {
	expr := c.b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		symID, ok := c.res.Uses[id]
		if !ok {
			return
		}
		sp := c.b.ExprSpan(id)
		if moveSite, gone := c.moved[symID]; gone {
			name := c.symbolName(symID)
			diag.ReportError(c.reporter, diag.ConcMovedCapture, sp,
				fmt.Sprintf("the task captures '%s', but it was already sent away", name)).
				WithNote(moveSite, fmt.Sprintf("'%s' was moved here", name)).
				Emit()
			delete(c.moved, symID)
			return
		}
		// Two live tasks over the same mutable binding conflict even
		// before anyone touches it again.
		c.checkShared(symID, sp)
		sym := c.res.Table.Symbols.Get(symID)
		if sym != nil && sym.IsMutable() {
			task.captured[symID] = sp
		}
	case ast.ExprList:
		data, _ := c.b.Exprs.List(id)
		for _, e := range data.Elems {
			c.captureArg(task, e)
		}
	case ast.ExprBinary:
		data, _ := c.b.Exprs.Binary(id)
		c.captureArg(task, data.Left)
		c.captureArg(task, data.Right)
	case ast.ExprUnary:
		data, _ := c.b.Exprs.Unary(id)
		c.captureArg(task, data.Operand)
	case ast.ExprCall:
		data, _ := c.b.Exprs.Call(id)
		for _, a := range data.Args {
			c.captureArg(task, a)
		}
	case ast.ExprMember:
		data, _ := c.b.Exprs.Member(id)
		c.captureArg(task, data.Recv)
	default:
		c.checkExpr(id)
	}
}

// joinTask retires the task bound to handle: its captures become free again.
func (c *concurrency) joinTask(handle symbols.SymbolID) {
	if handle == symbols.NoSymbolID {
		return
	}
	for i, task := range c.tasks {
		if task.handle == handle {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

func (c *concurrency) checkSend(id ast.ExprID) {
	data, _ := c.b.Exprs.ChanSend(id)
	c.checkExpr(data.Chan)
	c.checkExpr(data.Value)

	value := c.b.Exprs.Get(data.Value)
	if value == nil || value.Kind != ast.ExprIdent {
		return
	}
	symID, ok := c.res.Uses[data.Value]
	if !ok {
		return
	}
	sym := c.res.Table.Symbols.Get(symID)
	if sym == nil || (sym.Kind != symbols.SymbolBinding && sym.Kind != symbols.SymbolParam) {
		return
	}
	// A send always transfers ownership; the binding is empty afterwards.
	c.moves.Sends[data.Value] = symID
	c.moved[symID] = c.b.ExprSpan(data.Value)
}

func (c *concurrency) symbolName(symID symbols.SymbolID) string {
	sym := c.res.Table.Symbols.Get(symID)
	if sym == nil {
		return "?"
	}
	return c.res.Table.Strings.MustLookup(sym.Name)
}
