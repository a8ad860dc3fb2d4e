package ast

import (
	"kairo/internal/source"
)

// TypeSynKind tags a type-annotation syntax node.
type TypeSynKind uint8

const (
	// TypeSynBad is the placeholder inserted on a syntax error.
	TypeSynBad TypeSynKind = iota
	// TypeSynName is a bare type name: int, float, str, bool, Tree.
	TypeSynName
	// TypeSynList is list<T>.
	TypeSynList
	// TypeSynChannel is channel<T>.
	TypeSynChannel
	// TypeSynTask is task<T>.
	TypeSynTask
)

func (k TypeSynKind) String() string {
	switch k {
	case TypeSynBad:
		return "bad"
	case TypeSynName:
		return "name"
	case TypeSynList:
		return "list"
	case TypeSynChannel:
		return "channel"
	case TypeSynTask:
		return "task"
	default:
		return "unknown"
	}
}

// TypeSyn is a type annotation as written in source. Name is set for
// TypeSynName; Elem for the generic forms.
type TypeSyn struct {
	Kind TypeSynKind
	Span source.Span
	Name source.StringID
	Elem TypeSynID
}

// TypeSyns manages allocation of type-syntax nodes.
type TypeSyns struct {
	Arena *Arena[TypeSyn]
}

// NewTypeSyns creates type-syntax storage with capHint preallocated.
func NewTypeSyns(capHint uint) *TypeSyns {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &TypeSyns{Arena: NewArena[TypeSyn](capHint)}
}

// Get returns the node with the given ID.
func (t *TypeSyns) Get(id TypeSynID) *TypeSyn {
	return t.Arena.Get(uint32(id))
}

// NewBad allocates a placeholder node for parser recovery.
func (t *TypeSyns) NewBad(span source.Span) TypeSynID {
	return TypeSynID(t.Arena.Allocate(TypeSyn{Kind: TypeSynBad, Span: span}))
}

// NewName allocates a named type node.
func (t *TypeSyns) NewName(span source.Span, name source.StringID) TypeSynID {
	return TypeSynID(t.Arena.Allocate(TypeSyn{Kind: TypeSynName, Span: span, Name: name}))
}

// NewList allocates a list<T> node.
func (t *TypeSyns) NewList(span source.Span, elem TypeSynID) TypeSynID {
	return TypeSynID(t.Arena.Allocate(TypeSyn{Kind: TypeSynList, Span: span, Elem: elem}))
}

// NewChannel allocates a channel<T> node.
func (t *TypeSyns) NewChannel(span source.Span, elem TypeSynID) TypeSynID {
	return TypeSynID(t.Arena.Allocate(TypeSyn{Kind: TypeSynChannel, Span: span, Elem: elem}))
}

// NewTask allocates a task<T> node.
func (t *TypeSyns) NewTask(span source.Span, elem TypeSynID) TypeSynID {
	return TypeSynID(t.Arena.Allocate(TypeSyn{Kind: TypeSynTask, Span: span, Elem: elem}))
}
