package ast

import (
	"kairo/internal/source"
)

// ExprIdentData is the payload of ExprIdent.
type ExprIdentData struct {
	Name source.StringID
}

// ExprLitData is the payload of ExprLit. Text keeps the raw lexeme; Value
// holds the decoded form for strings.
type ExprLitData struct {
	Kind  LitKind
	Text  source.StringID
	Value source.StringID
}

// ExprListData is the payload of ExprList.
type ExprListData struct {
	Elems []ExprID
}

// ExprBinaryData is the payload of ExprBinary.
type ExprBinaryData struct {
	Op     BinOp
	OpSpan source.Span
	Left   ExprID
	Right  ExprID
}

// ExprUnaryData is the payload of ExprUnary.
type ExprUnaryData struct {
	Op      UnOp
	Operand ExprID
}

// ExprCallData is the payload of ExprCall.
type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

// ExprMemberData is the payload of ExprMember.
type ExprMemberData struct {
	Recv     ExprID
	Name     source.StringID
	NameSpan source.Span
}

// ExprSpawnData is the payload of ExprSpawn.
type ExprSpawnData struct {
	Call ExprID
}

// ExprAwaitData is the payload of ExprAwait.
type ExprAwaitData struct {
	Task ExprID
}

// ExprChanSendData is the payload of ExprChanSend.
type ExprChanSendData struct {
	Chan  ExprID
	Value ExprID
}

// ExprChanRecvData is the payload of ExprChanRecv.
type ExprChanRecvData struct {
	Chan ExprID
}

// ExprTryData is the payload of ExprTry and ExprMust.
type ExprTryData struct {
	Inner ExprID
}

// Exprs manages allocation of expression nodes.
type Exprs struct {
	Arena    *Arena[Expr]
	Idents   *Arena[ExprIdentData]
	Literals *Arena[ExprLitData]
	Lists    *Arena[ExprListData]
	Binaries *Arena[ExprBinaryData]
	Unaries  *Arena[ExprUnaryData]
	Calls    *Arena[ExprCallData]
	Members  *Arena[ExprMemberData]
	Spawns   *Arena[ExprSpawnData]
	Awaits   *Arena[ExprAwaitData]
	Sends    *Arena[ExprChanSendData]
	Recvs    *Arena[ExprChanRecvData]
	Tries    *Arena[ExprTryData]
}

// NewExprs creates expression storage with capHint preallocated per arena.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		Idents:   NewArena[ExprIdentData](capHint),
		Literals: NewArena[ExprLitData](capHint),
		Lists:    NewArena[ExprListData](capHint / 4),
		Binaries: NewArena[ExprBinaryData](capHint),
		Unaries:  NewArena[ExprUnaryData](capHint / 4),
		Calls:    NewArena[ExprCallData](capHint / 2),
		Members:  NewArena[ExprMemberData](capHint / 2),
		Spawns:   NewArena[ExprSpawnData](capHint / 8),
		Awaits:   NewArena[ExprAwaitData](capHint / 8),
		Sends:    NewArena[ExprChanSendData](capHint / 8),
		Recvs:    NewArena[ExprChanRecvData](capHint / 8),
		Tries:    NewArena[ExprTryData](capHint / 8),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression header with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// NewBad allocates a placeholder node for parser recovery.
func (e *Exprs) NewBad(span source.Span) ExprID {
	return e.new(ExprBad, span, 0)
}

// NewIdent allocates an identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	payload := e.Idents.Allocate(ExprIdentData{Name: name})
	return e.new(ExprIdent, span, PayloadID(payload))
}

// Ident returns the identifier payload.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

// NewLiteral allocates a literal expression.
func (e *Exprs) NewLiteral(span source.Span, kind LitKind, text, value source.StringID) ExprID {
	payload := e.Literals.Allocate(ExprLitData{Kind: kind, Text: text, Value: value})
	return e.new(ExprLit, span, PayloadID(payload))
}

// Literal returns the literal payload.
func (e *Exprs) Literal(id ExprID) (*ExprLitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil, false
	}
	return e.Literals.Get(uint32(expr.Payload)), true
}

// NewList allocates a list literal.
func (e *Exprs) NewList(span source.Span, elems []ExprID) ExprID {
	payload := e.Lists.Allocate(ExprListData{Elems: elems})
	return e.new(ExprList, span, PayloadID(payload))
}

// List returns the list payload.
func (e *Exprs) List(id ExprID) (*ExprListData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprList {
		return nil, false
	}
	return e.Lists.Get(uint32(expr.Payload)), true
}

// NewBinary allocates a binary expression.
func (e *Exprs) NewBinary(span source.Span, op BinOp, opSpan source.Span, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, OpSpan: opSpan, Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(payload))
}

// Binary returns the binary payload.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}

// NewUnary allocates a unary expression.
func (e *Exprs) NewUnary(span source.Span, op UnOp, operand ExprID) ExprID {
	payload := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return e.new(ExprUnary, span, PayloadID(payload))
}

// Unary returns the unary payload.
func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnary {
		return nil, false
	}
	return e.Unaries.Get(uint32(expr.Payload)), true
}

// NewCall allocates a call expression.
func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	payload := e.Calls.Allocate(ExprCallData{Callee: callee, Args: args})
	return e.new(ExprCall, span, PayloadID(payload))
}

// Call returns the call payload.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

// NewMember allocates a member access expression.
func (e *Exprs) NewMember(span source.Span, recv ExprID, name source.StringID, nameSpan source.Span) ExprID {
	payload := e.Members.Allocate(ExprMemberData{Recv: recv, Name: name, NameSpan: nameSpan})
	return e.new(ExprMember, span, PayloadID(payload))
}

// Member returns the member payload.
func (e *Exprs) Member(id ExprID) (*ExprMemberData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMember {
		return nil, false
	}
	return e.Members.Get(uint32(expr.Payload)), true
}

// NewSpawn allocates a spawn expression.
func (e *Exprs) NewSpawn(span source.Span, call ExprID) ExprID {
	payload := e.Spawns.Allocate(ExprSpawnData{Call: call})
	return e.new(ExprSpawn, span, PayloadID(payload))
}

// Spawn returns the spawn payload.
func (e *Exprs) Spawn(id ExprID) (*ExprSpawnData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSpawn {
		return nil, false
	}
	return e.Spawns.Get(uint32(expr.Payload)), true
}

// NewAwait allocates an await expression.
func (e *Exprs) NewAwait(span source.Span, task ExprID) ExprID {
	payload := e.Awaits.Allocate(ExprAwaitData{Task: task})
	return e.new(ExprAwait, span, PayloadID(payload))
}

// Await returns the await payload.
func (e *Exprs) Await(id ExprID) (*ExprAwaitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAwait {
		return nil, false
	}
	return e.Awaits.Get(uint32(expr.Payload)), true
}

// NewChanSend allocates a channel send.
func (e *Exprs) NewChanSend(span source.Span, ch, value ExprID) ExprID {
	payload := e.Sends.Allocate(ExprChanSendData{Chan: ch, Value: value})
	return e.new(ExprChanSend, span, PayloadID(payload))
}

// ChanSend returns the channel-send payload.
func (e *Exprs) ChanSend(id ExprID) (*ExprChanSendData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprChanSend {
		return nil, false
	}
	return e.Sends.Get(uint32(expr.Payload)), true
}

// NewChanRecv allocates a channel receive.
func (e *Exprs) NewChanRecv(span source.Span, ch ExprID) ExprID {
	payload := e.Recvs.Allocate(ExprChanRecvData{Chan: ch})
	return e.new(ExprChanRecv, span, PayloadID(payload))
}

// ChanRecv returns the channel-receive payload.
func (e *Exprs) ChanRecv(id ExprID) (*ExprChanRecvData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprChanRecv {
		return nil, false
	}
	return e.Recvs.Get(uint32(expr.Payload)), true
}

// NewTry allocates a try expression.
func (e *Exprs) NewTry(span source.Span, inner ExprID) ExprID {
	payload := e.Tries.Allocate(ExprTryData{Inner: inner})
	return e.new(ExprTry, span, PayloadID(payload))
}

// NewMust allocates a must expression.
func (e *Exprs) NewMust(span source.Span, inner ExprID) ExprID {
	payload := e.Tries.Allocate(ExprTryData{Inner: inner})
	return e.new(ExprMust, span, PayloadID(payload))
}

// TryLike returns the payload shared by ExprTry and ExprMust.
func (e *Exprs) TryLike(id ExprID) (*ExprTryData, bool) {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprTry && expr.Kind != ExprMust) {
		return nil, false
	}
	return e.Tries.Get(uint32(expr.Payload)), true
}
