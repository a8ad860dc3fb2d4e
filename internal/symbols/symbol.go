package symbols

import (
	"kairo/internal/ast"
	"kairo/internal/source"
	"kairo/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	// SymbolBinding is a value binding introduced by `name = ...` or
	// `$name = ...`.
	SymbolBinding
	// SymbolParam is a function parameter.
	SymbolParam
	// SymbolFunction is a declared or built-in function.
	SymbolFunction
	// SymbolType is a declared struct type or a built-in type name.
	SymbolType
	// SymbolModule is a standard-library module (fs, math, ...). Its members
	// are externally supplied typed declarations; the front end implements
	// none of them.
	SymbolModule
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolBinding:
		return "binding"
	case SymbolParam:
		return "param"
	case SymbolFunction:
		return "function"
	case SymbolType:
		return "type"
	case SymbolModule:
		return "module"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagMutable marks a `$` binding. Mutability is fixed at the
	// declaration and never changes afterwards.
	SymbolFlagMutable SymbolFlags = 1 << iota
	// SymbolFlagBuiltin marks prelude entries.
	SymbolFlagBuiltin
	// SymbolFlagImpure marks callables whose calls are order-dependent
	// effects (print, fs.*, ...). The parallel pass keys off this.
	SymbolFlagImpure
)

// BuiltinID distinguishes the polymorphic prelude functions the type checker
// handles specially instead of through a fixed signature.
type BuiltinID uint8

const (
	BuiltinNone BuiltinID = iota
	BuiltinPrint
	BuiltinError
	BuiltinInt
	BuiltinFloat
	BuiltinStr
	BuiltinLen
	BuiltinChannel
)

// SymbolDecl records the AST origin for diagnostics.
type SymbolDecl struct {
	Item ast.ItemID
	Stmt ast.StmtID
	Expr ast.ExprID
}

// Symbol describes a named entity available in a scope.
type Symbol struct {
	Name    source.StringID
	Kind    SymbolKind
	Scope   ScopeID
	Span    source.Span
	Flags   SymbolFlags
	Decl    SymbolDecl
	Builtin BuiltinID

	// Type is the symbol's type: the struct type for SymbolType, the fn
	// type for SymbolFunction, the (possibly still inferred) value type
	// for bindings and params.
	Type types.TypeID
}

// IsMutable reports whether the symbol was declared with `$`.
func (s *Symbol) IsMutable() bool {
	return s.Flags&SymbolFlagMutable != 0
}

// Symbols is 1-based arena storage for Symbol values.
type Symbols struct {
	data []Symbol
}

// NewSymbols creates symbol storage with capHint preallocated.
func NewSymbols(capHint uint) *Symbols {
	return &Symbols{data: make([]Symbol, 0, capHint)}
}

// New appends sym and returns its ID.
func (s *Symbols) New(sym Symbol) SymbolID {
	s.data = append(s.data, sym)
	return SymbolID(len(s.data))
}

// Get returns the symbol with the given ID, or nil for NoSymbolID.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if id == NoSymbolID || int(id) > len(s.data) {
		return nil
	}
	return &s.data[id-1]
}

// Len returns the number of symbols.
func (s *Symbols) Len() int {
	return len(s.data)
}
