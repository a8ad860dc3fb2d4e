package ast

import (
	"testing"

	"kairo/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 1, Start: start, End: end}
}

func TestArenaIndicesAreOneBased(t *testing.T) {
	a := NewArena[int](4)
	if got := a.Get(0); got != nil {
		t.Fatalf("Get(0) = %v, want nil", got)
	}
	first := a.Allocate(10)
	second := a.Allocate(20)
	if first != 1 || second != 2 {
		t.Fatalf("Allocate returned %d, %d; want 1, 2", first, second)
	}
	if got := *a.Get(second); got != 20 {
		t.Fatalf("Get(%d) = %d, want 20", second, got)
	}
	if got := a.Get(3); got != nil {
		t.Fatalf("Get(3) = %v, want nil", got)
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
}

func TestExprRoundTrip(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	x := b.Strings.Intern("x")
	y := b.Strings.Intern("y")

	left := b.Exprs.NewIdent(span(0, 1), x)
	right := b.Exprs.NewIdent(span(4, 5), y)
	bin := b.Exprs.NewBinary(span(0, 5), BinAdd, span(2, 3), left, right)

	hdr := b.Exprs.Get(bin)
	if hdr == nil || hdr.Kind != ExprBinary {
		t.Fatalf("header kind = %v, want binary", hdr)
	}
	data, ok := b.Exprs.Binary(bin)
	if !ok {
		t.Fatal("Binary payload missing")
	}
	if data.Op != BinAdd || data.Left != left || data.Right != right {
		t.Fatalf("binary payload = %+v", data)
	}
	if _, ok := b.Exprs.Call(bin); ok {
		t.Fatal("Call accessor accepted a binary node")
	}
	if name, ok := b.Exprs.Ident(left); !ok || b.Lookup(name.Name) != "x" {
		t.Fatalf("ident payload = %+v, ok = %v", name, ok)
	}
}

func TestTryAndMustSharePayload(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	inner := b.Exprs.NewLiteral(span(0, 2), LitInt, b.Strings.Intern("42"), source.NoStringID)

	tryID := b.Exprs.NewTry(span(0, 6), inner)
	mustID := b.Exprs.NewMust(span(0, 7), inner)

	for _, id := range []ExprID{tryID, mustID} {
		data, ok := b.Exprs.TryLike(id)
		if !ok || data.Inner != inner {
			t.Fatalf("TryLike(%d) = %+v, ok = %v", id, data, ok)
		}
	}
	if b.Exprs.Get(tryID).Kind != ExprTry || b.Exprs.Get(mustID).Kind != ExprMust {
		t.Fatal("kinds not preserved")
	}
}

func TestStmtAssignPayload(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	n := b.Strings.Intern("n")
	target := b.Exprs.NewIdent(span(1, 2), n)
	value := b.Exprs.NewLiteral(span(5, 6), LitInt, b.Strings.Intern("0"), source.NoStringID)

	id := b.Stmts.NewAssign(span(0, 6), StmtAssignData{
		Dollar:     true,
		DollarSpan: span(0, 1),
		Target:     target,
		Value:      value,
	})
	data, ok := b.Stmts.Assign(id)
	if !ok {
		t.Fatal("Assign payload missing")
	}
	if !data.Dollar || data.Target != target || data.Value != value {
		t.Fatalf("assign payload = %+v", data)
	}
	if data.TypeAnn.IsValid() {
		t.Fatal("TypeAnn should default to NoTypeSynID")
	}
}

func TestItemFuncAndTypeDecl(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	body := b.Stmts.NewBlock(span(10, 12), nil)
	fn := b.Items.NewFunc(span(0, 12), FuncData{
		Name:     b.Strings.Intern("add"),
		NameSpan: span(4, 7),
		Params: []Param{
			{Name: b.Strings.Intern("a"), NameSpan: span(8, 9), Type: b.Types.NewName(span(11, 14), b.Strings.Intern("int"))},
		},
		Body: body,
	})
	data, ok := b.Items.Func(fn)
	if !ok || b.Lookup(data.Name) != "add" || len(data.Params) != 1 {
		t.Fatalf("func payload = %+v, ok = %v", data, ok)
	}

	decl := b.Items.NewTypeDecl(span(20, 40), TypeDeclData{
		Name:     b.Strings.Intern("Tree"),
		NameSpan: span(25, 29),
		Fields: []FieldDecl{
			{Name: b.Strings.Intern("parent"), Weak: true, Type: b.Types.NewName(span(38, 42), b.Strings.Intern("Tree"))},
		},
	})
	td, ok := b.Items.TypeDecl(decl)
	if !ok || !td.Fields[0].Weak {
		t.Fatalf("type decl payload = %+v, ok = %v", td, ok)
	}
	if _, ok := b.Items.Func(decl); ok {
		t.Fatal("Func accessor accepted a type decl")
	}
}

func TestTypeSynNesting(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	inner := b.Types.NewName(span(8, 11), b.Strings.Intern("int"))
	outer := b.Types.NewChannel(span(0, 12), inner)

	node := b.Types.Get(outer)
	if node.Kind != TypeSynChannel || node.Elem != inner {
		t.Fatalf("channel node = %+v", node)
	}
	if elem := b.Types.Get(node.Elem); elem.Kind != TypeSynName || b.Lookup(elem.Name) != "int" {
		t.Fatalf("elem node = %+v", elem)
	}
}

func TestFileRegistration(t *testing.T) {
	b := NewBuilder(nil, Hints{})
	item := b.Items.NewBad(span(0, 3))
	fid := b.AddFile(1, span(0, 3), []ItemID{item})
	f := b.File(fid)
	if f == nil || len(f.Items) != 1 || f.Items[0] != item {
		t.Fatalf("file = %+v", f)
	}
}
