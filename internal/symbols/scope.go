package symbols

import (
	"kairo/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFile               // top-level declarations of one file
	ScopeFunction           // function body, params included
	ScopeBlock              // brace block, loop body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy. A name maps to
// at most one symbol per scope; Kairo has no overloading.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}

// Scopes is 1-based arena storage for Scope values.
type Scopes struct {
	data []Scope
}

// NewScopes creates scope storage with capHint preallocated.
func NewScopes(capHint uint) *Scopes {
	return &Scopes{data: make([]Scope, 0, capHint)}
}

// New allocates a scope and links it into its parent's children.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, span source.Span) ScopeID {
	s.data = append(s.data, Scope{
		Kind:      kind,
		Parent:    parent,
		Span:      span,
		NameIndex: make(map[source.StringID]SymbolID),
	})
	id := ScopeID(len(s.data))
	if p := s.Get(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// Get returns the scope with the given ID, or nil for NoScopeID.
func (s *Scopes) Get(id ScopeID) *Scope {
	if id == NoScopeID || int(id) > len(s.data) {
		return nil
	}
	return &s.data[id-1]
}

// Len returns the number of scopes.
func (s *Scopes) Len() int {
	return len(s.data)
}
