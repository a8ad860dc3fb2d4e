package symbols

import (
	"kairo/internal/ast"
	"kairo/internal/types"
)

// Resolution is the binder's output for one file: every identifier use tied
// to its symbol, every declaration site registered, every annotation turned
// into a TypeID. Later passes consult it instead of re-walking scopes.
type Resolution struct {
	Table     *Table
	FileScope ScopeID

	// Uses maps identifier expressions to the symbol they resolve to.
	Uses map[ast.ExprID]SymbolID
	// Decls maps assign statements that introduce a binding to its symbol.
	Decls map[ast.StmtID]SymbolID
	// Assigns maps assign statements that write an existing binding.
	Assigns map[ast.StmtID]SymbolID
	// LoopVars maps for statements to their loop variable symbol.
	LoopVars map[ast.StmtID]SymbolID
	// Funcs maps function items to their symbol.
	Funcs map[ast.ItemID]SymbolID
	// Params maps function items to their parameter symbols, in order.
	Params map[ast.ItemID][]SymbolID
	// StructTypes maps type declaration items to their nominal TypeID.
	StructTypes map[ast.ItemID]types.TypeID
	// Annotations maps type-syntax nodes to resolved TypeIDs.
	Annotations map[ast.TypeSynID]types.TypeID
	// ModuleMembers maps member expressions whose receiver names a
	// standard-library module to the extern declaration.
	ModuleMembers map[ast.ExprID]ExternDecl
}

func newResolution(t *Table) *Resolution {
	return &Resolution{
		Table:         t,
		Uses:          make(map[ast.ExprID]SymbolID),
		Decls:         make(map[ast.StmtID]SymbolID),
		Assigns:       make(map[ast.StmtID]SymbolID),
		LoopVars:      make(map[ast.StmtID]SymbolID),
		Funcs:         make(map[ast.ItemID]SymbolID),
		Params:        make(map[ast.ItemID][]SymbolID),
		StructTypes:   make(map[ast.ItemID]types.TypeID),
		Annotations:   make(map[ast.TypeSynID]types.TypeID),
		ModuleMembers: make(map[ast.ExprID]ExternDecl),
	}
}

// SymbolOf returns the symbol an identifier expression resolved to.
func (r *Resolution) SymbolOf(expr ast.ExprID) (*Symbol, SymbolID, bool) {
	id, ok := r.Uses[expr]
	if !ok {
		return nil, NoSymbolID, false
	}
	return r.Table.Symbols.Get(id), id, true
}
