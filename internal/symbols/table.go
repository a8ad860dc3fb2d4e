package symbols

import (
	"kairo/internal/source"
	"kairo/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol storage and the shared interners. One Table serves
// one compilation.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Types   *types.Interner
	modules map[source.StringID]*Module
}

// NewTable builds a fresh table. Nil interners get fresh instances.
func NewTable(h Hints, strings *source.Interner, typeInt *types.Interner) *Table {
	if strings == nil {
		strings = source.NewInterner()
	}
	if typeInt == nil {
		typeInt = types.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(h.Scopes),
		Symbols: NewSymbols(h.Symbols),
		Strings: strings,
		Types:   typeInt,
		modules: make(map[source.StringID]*Module),
	}
}

// Module returns the standard-library module registered under name, if any.
func (t *Table) Module(name source.StringID) (*Module, bool) {
	m, ok := t.modules[name]
	return m, ok
}
