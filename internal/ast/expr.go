package ast

import (
	"kairo/internal/source"
)

// ExprKind tags the expression variant.
type ExprKind uint8

const (
	// ExprBad is the placeholder the parser inserts at a syntax error so the
	// rest of the file still analyzes.
	ExprBad ExprKind = iota
	// ExprIdent is an identifier use.
	ExprIdent
	// ExprLit is a literal (int, float, string, bool).
	ExprLit
	// ExprList is a list literal [a, b, c].
	ExprList
	// ExprBinary is a binary operation.
	ExprBinary
	// ExprUnary is a unary operation.
	ExprUnary
	// ExprCall is a call f(args) or constructor T(args).
	ExprCall
	// ExprMember is a field or module member access a.b.
	ExprMember
	// ExprSpawn launches a task: spawn call().
	ExprSpawn
	// ExprAwait joins a task: await t.
	ExprAwait
	// ExprChanSend is the channel-send operation send(ch, v). The sent value
	// is moved out of the sender's binding.
	ExprChanSend
	// ExprChanRecv is the channel-receive operation recv(ch).
	ExprChanRecv
	// ExprTry propagates an error result to the caller: try e.
	ExprTry
	// ExprMust aborts the program on an error result: must e.
	ExprMust
)

func (k ExprKind) String() string {
	switch k {
	case ExprBad:
		return "bad"
	case ExprIdent:
		return "ident"
	case ExprLit:
		return "literal"
	case ExprList:
		return "list"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCall:
		return "call"
	case ExprMember:
		return "member"
	case ExprSpawn:
		return "spawn"
	case ExprAwait:
		return "await"
	case ExprChanSend:
		return "send"
	case ExprChanRecv:
		return "recv"
	case ExprTry:
		return "try"
	case ExprMust:
		return "must"
	default:
		return "unknown"
	}
}

// Expr is the common header of every expression node.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// LitKind tags a literal expression.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
)

// BinOp enumerates binary operators.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinEq:
		return "=="
	case BinNe:
		return "!="
	case BinLt:
		return "<"
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinGe:
		return ">="
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	default:
		return "?"
	}
}

// IsComparison reports whether the operator yields a bool from two operands
// of one unified type.
func (op BinOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// IsLogical reports whether the operator is && or ||.
func (op BinOp) IsLogical() bool {
	return op == BinAnd || op == BinOr
}

// IsArithmetic reports whether the operator is numeric.
func (op BinOp) IsArithmetic() bool {
	return op <= BinMod
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
)

func (op UnOp) String() string {
	if op == UnNeg {
		return "-"
	}
	return "!"
}
