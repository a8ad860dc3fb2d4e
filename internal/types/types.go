package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindChannel
	KindTask
	KindResult
	KindFn
	KindStruct
	KindVar
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindList:
		return "list"
	case KindChannel:
		return "channel"
	case KindTask:
		return "task"
	case KindResult:
		return "result"
	case KindFn:
		return "fn"
	case KindStruct:
		return "struct"
	case KindVar:
		return "var"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type. Elem carries the
// element type of the generic kinds; Payload indexes per-kind metadata
// (functions, structs) or numbers an inference variable.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}

// Descriptor helpers ---------------------------------------------------------

// MakeList describes list<elem>.
func MakeList(elem TypeID) Type {
	return Type{Kind: KindList, Elem: elem}
}

// MakeChannel describes channel<elem>.
func MakeChannel(elem TypeID) Type {
	return Type{Kind: KindChannel, Elem: elem}
}

// MakeTask describes task<elem>, the handle returned by spawn.
func MakeTask(elem TypeID) Type {
	return Type{Kind: KindTask, Elem: elem}
}

// MakeResult describes the hidden result wrapper around a success type. The
// error side is always a string message, so only the success type varies.
func MakeResult(ok TypeID) Type {
	return Type{Kind: KindResult, Elem: ok}
}
