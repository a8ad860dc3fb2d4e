package ast

import (
	"kairo/internal/source"
)

// File is one parsed source file. Items keeps declaration order; top-level
// statements are wrapped into an implicit main when the file has no fun main.
type File struct {
	Source source.FileID
	Span   source.Span
	Items  []ItemID
}

// Hints sizes the builder arenas up front. Zero fields fall back to defaults.
type Hints struct {
	Items uint
	Stmts uint
	Exprs uint
	Types uint
}

// Builder owns every AST arena for one compilation. Node IDs are only
// meaningful relative to the Builder that produced them.
type Builder struct {
	Files *Arena[File]
	Items *Items
	Stmts *Stmts
	Exprs *Exprs
	Types *TypeSyns

	// Strings interns identifier and literal text for the whole build.
	Strings *source.Interner
}

// NewBuilder creates an empty Builder sized by hints.
func NewBuilder(strings *source.Interner, hints Hints) *Builder {
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Files:   NewArena[File](4),
		Items:   NewItems(hints.Items),
		Stmts:   NewStmts(hints.Stmts),
		Exprs:   NewExprs(hints.Exprs),
		Types:   NewTypeSyns(hints.Types),
		Strings: strings,
	}
}

// AddFile registers a parsed file and returns its ID.
func (b *Builder) AddFile(src source.FileID, span source.Span, items []ItemID) FileID {
	return FileID(b.Files.Allocate(File{Source: src, Span: span, Items: items}))
}

// File returns the file with the given ID.
func (b *Builder) File(id FileID) *File {
	return b.Files.Get(uint32(id))
}

// StmtSpan returns the span of a statement, or an empty span for NoStmtID.
func (b *Builder) StmtSpan(id StmtID) source.Span {
	if stmt := b.Stmts.Get(id); stmt != nil {
		return stmt.Span
	}
	return source.Span{}
}

// ExprSpan returns the span of an expression, or an empty span for NoExprID.
func (b *Builder) ExprSpan(id ExprID) source.Span {
	if expr := b.Exprs.Get(id); expr != nil {
		return expr.Span
	}
	return source.Span{}
}

// Lookup returns the interned text for a string ID, or "" for an unknown ID.
func (b *Builder) Lookup(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}
