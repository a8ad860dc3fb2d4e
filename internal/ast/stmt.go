package ast

import (
	"kairo/internal/source"
)

// StmtKind tags the statement variant.
type StmtKind uint8

const (
	// StmtBad is the placeholder inserted on a syntax error.
	StmtBad StmtKind = iota
	// StmtAssign is a binding declaration or an assignment. The Binder
	// decides which one it is: the first occurrence of a name declares it.
	StmtAssign
	// StmtExpr evaluates an expression for effect.
	StmtExpr
	// StmtIf is a conditional with an optional else branch.
	StmtIf
	// StmtFor is a for-in loop over a sequence.
	StmtFor
	// StmtReturn returns from the enclosing function.
	StmtReturn
	// StmtBlock is a brace-delimited statement list with its own scope.
	StmtBlock
)

func (k StmtKind) String() string {
	switch k {
	case StmtBad:
		return "bad"
	case StmtAssign:
		return "assign"
	case StmtExpr:
		return "expr"
	case StmtIf:
		return "if"
	case StmtFor:
		return "for"
	case StmtReturn:
		return "return"
	case StmtBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Stmt is the common header of every statement node.
type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// StmtAssignData is the payload of StmtAssign.
// Target is either an ExprIdent (binding/assignment) or an ExprMember
// (field store). Dollar records a `$` prefix on the target name.
type StmtAssignData struct {
	Dollar     bool
	DollarSpan source.Span
	Target     ExprID
	TypeAnn    TypeSynID // optional `: type`
	Value      ExprID
}

// StmtExprData is the payload of StmtExpr.
type StmtExprData struct {
	Expr ExprID
}

// StmtIfData is the payload of StmtIf. Else is NoStmtID, a StmtBlock, or a
// nested StmtIf (else-if chain).
type StmtIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

// StmtForData is the payload of StmtFor.
type StmtForData struct {
	Var     source.StringID
	VarSpan source.Span
	Seq     ExprID
	Body    StmtID
}

// StmtReturnData is the payload of StmtReturn. Value may be NoExprID.
type StmtReturnData struct {
	Value ExprID
}

// StmtBlockData is the payload of StmtBlock.
type StmtBlockData struct {
	Stmts []StmtID
}

// Stmts manages allocation of statement nodes.
type Stmts struct {
	Arena   *Arena[Stmt]
	Assigns *Arena[StmtAssignData]
	Exprs   *Arena[StmtExprData]
	Ifs     *Arena[StmtIfData]
	Fors    *Arena[StmtForData]
	Returns *Arena[StmtReturnData]
	Blocks  *Arena[StmtBlockData]
}

// NewStmts creates statement storage with capHint preallocated per arena.
func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Assigns: NewArena[StmtAssignData](capHint / 2),
		Exprs:   NewArena[StmtExprData](capHint / 2),
		Ifs:     NewArena[StmtIfData](capHint / 4),
		Fors:    NewArena[StmtForData](capHint / 4),
		Returns: NewArena[StmtReturnData](capHint / 4),
		Blocks:  NewArena[StmtBlockData](capHint / 4),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the statement header with the given ID.
func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

// NewBad allocates a placeholder node for parser recovery.
func (s *Stmts) NewBad(span source.Span) StmtID {
	return s.new(StmtBad, span, 0)
}

// NewAssign allocates a binding/assignment statement.
func (s *Stmts) NewAssign(span source.Span, data StmtAssignData) StmtID {
	payload := s.Assigns.Allocate(data)
	return s.new(StmtAssign, span, PayloadID(payload))
}

// Assign returns the assign payload.
func (s *Stmts) Assign(id StmtID) (*StmtAssignData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtAssign {
		return nil, false
	}
	return s.Assigns.Get(uint32(stmt.Payload)), true
}

// NewExpr allocates an expression statement.
func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	payload := s.Exprs.Allocate(StmtExprData{Expr: expr})
	return s.new(StmtExpr, span, PayloadID(payload))
}

// Expr returns the expression-statement payload.
func (s *Stmts) Expr(id StmtID) (*StmtExprData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil, false
	}
	return s.Exprs.Get(uint32(stmt.Payload)), true
}

// NewIf allocates an if statement.
func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els StmtID) StmtID {
	payload := s.Ifs.Allocate(StmtIfData{Cond: cond, Then: then, Else: els})
	return s.new(StmtIf, span, PayloadID(payload))
}

// If returns the if payload.
func (s *Stmts) If(id StmtID) (*StmtIfData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtIf {
		return nil, false
	}
	return s.Ifs.Get(uint32(stmt.Payload)), true
}

// NewFor allocates a for-in statement.
func (s *Stmts) NewFor(span source.Span, data StmtForData) StmtID {
	payload := s.Fors.Allocate(data)
	return s.new(StmtFor, span, PayloadID(payload))
}

// For returns the for payload.
func (s *Stmts) For(id StmtID) (*StmtForData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtFor {
		return nil, false
	}
	return s.Fors.Get(uint32(stmt.Payload)), true
}

// NewReturn allocates a return statement.
func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	payload := s.Returns.Allocate(StmtReturnData{Value: value})
	return s.new(StmtReturn, span, PayloadID(payload))
}

// Return returns the return payload.
func (s *Stmts) Return(id StmtID) (*StmtReturnData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtReturn {
		return nil, false
	}
	return s.Returns.Get(uint32(stmt.Payload)), true
}

// NewBlock allocates a block statement.
func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	payload := s.Blocks.Allocate(StmtBlockData{Stmts: stmts})
	return s.new(StmtBlock, span, PayloadID(payload))
}

// Block returns the block payload.
func (s *Stmts) Block(id StmtID) (*StmtBlockData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtBlock {
		return nil, false
	}
	return s.Blocks.Get(uint32(stmt.Payload)), true
}
