package ast

// FileID identifies a parsed file inside a Builder.
type FileID uint32

// ItemID identifies a top-level item (function or type declaration).
type ItemID uint32

// StmtID identifies a statement node.
type StmtID uint32

// ExprID identifies an expression node.
type ExprID uint32

// TypeSynID identifies a type-syntax node (annotations like `list<int>`).
type TypeSynID uint32

// PayloadID indexes a per-kind payload arena.
type PayloadID uint32

// Null IDs. Arena indices are 1-based, so zero is always "absent".
const (
	NoFileID    FileID    = 0
	NoItemID    ItemID    = 0
	NoStmtID    StmtID    = 0
	NoExprID    ExprID    = 0
	NoTypeSynID TypeSynID = 0
)

// IsValid reports whether the ID refers to an allocated node.
func (id FileID) IsValid() bool    { return id != NoFileID }
func (id ItemID) IsValid() bool    { return id != NoItemID }
func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id TypeSynID) IsValid() bool { return id != NoTypeSynID }
