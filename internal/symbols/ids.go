package symbols

// ScopeID identifies a lexical scope inside a Table.
type ScopeID uint32

// SymbolID identifies a declared symbol inside a Table.
type SymbolID uint32

const (
	NoScopeID  ScopeID  = 0
	NoSymbolID SymbolID = 0
)

// IsValid reports whether the ID refers to an allocated entry.
func (id ScopeID) IsValid() bool  { return id != NoScopeID }
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
