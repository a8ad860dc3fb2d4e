package ast

import (
	"kairo/internal/source"
)

// ItemKind tags a top-level item.
type ItemKind uint8

const (
	// ItemBad is the placeholder inserted on a syntax error.
	ItemBad ItemKind = iota
	// ItemFunc is a function declaration.
	ItemFunc
	// ItemTypeDecl is a struct type declaration.
	ItemTypeDecl
)

func (k ItemKind) String() string {
	switch k {
	case ItemBad:
		return "bad"
	case ItemFunc:
		return "func"
	case ItemTypeDecl:
		return "type"
	default:
		return "unknown"
	}
}

// Item is the common header of every top-level item.
type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

// Param is a function parameter. Type may be NoTypeSynID when the annotation
// is omitted and left to inference.
type Param struct {
	Name     source.StringID
	NameSpan source.Span
	Type     TypeSynID
	Span     source.Span
}

// FuncData is the payload of ItemFunc. RetType is NoTypeSynID for functions
// whose result type is inferred.
type FuncData struct {
	Name     source.StringID
	NameSpan source.Span
	Params   []Param
	RetType  TypeSynID
	Body     StmtID
}

// FieldDecl is one field of a struct type declaration. Weak marks a weak
// reference field.
type FieldDecl struct {
	Name     source.StringID
	NameSpan source.Span
	Weak     bool
	Type     TypeSynID
	Span     source.Span
}

// TypeDeclData is the payload of ItemTypeDecl.
type TypeDeclData struct {
	Name     source.StringID
	NameSpan source.Span
	Fields   []FieldDecl
}

// Items manages allocation of top-level items.
type Items struct {
	Arena     *Arena[Item]
	Funcs     *Arena[FuncData]
	TypeDecls *Arena[TypeDeclData]
}

// NewItems creates item storage with capHint preallocated per arena.
func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 5
	}
	return &Items{
		Arena:     NewArena[Item](capHint),
		Funcs:     NewArena[FuncData](capHint),
		TypeDecls: NewArena[TypeDeclData](capHint / 2),
	}
}

func (it *Items) new(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(it.Arena.Allocate(Item{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the item header with the given ID.
func (it *Items) Get(id ItemID) *Item {
	return it.Arena.Get(uint32(id))
}

// NewBad allocates a placeholder item for parser recovery.
func (it *Items) NewBad(span source.Span) ItemID {
	return it.new(ItemBad, span, 0)
}

// NewFunc allocates a function item.
func (it *Items) NewFunc(span source.Span, data FuncData) ItemID {
	payload := it.Funcs.Allocate(data)
	return it.new(ItemFunc, span, PayloadID(payload))
}

// Func returns the function payload.
func (it *Items) Func(id ItemID) (*FuncData, bool) {
	item := it.Get(id)
	if item == nil || item.Kind != ItemFunc {
		return nil, false
	}
	return it.Funcs.Get(uint32(item.Payload)), true
}

// NewTypeDecl allocates a struct type declaration.
func (it *Items) NewTypeDecl(span source.Span, data TypeDeclData) ItemID {
	payload := it.TypeDecls.Allocate(data)
	return it.new(ItemTypeDecl, span, PayloadID(payload))
}

// TypeDecl returns the type-declaration payload.
func (it *Items) TypeDecl(id ItemID) (*TypeDeclData, bool) {
	item := it.Get(id)
	if item == nil || item.Kind != ItemTypeDecl {
		return nil, false
	}
	return it.TypeDecls.Get(uint32(item.Payload)), true
}
