package types

import (
	"testing"

	"kairo/internal/source"
)

func TestBuiltinsAreStable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Invalid != NoTypeID {
		t.Fatalf("Invalid = %d, want %d", b.Invalid, NoTypeID)
	}
	for _, id := range []TypeID{b.Unit, b.Bool, b.Int, b.Float, b.String} {
		if id == NoTypeID {
			t.Fatal("builtin not allocated")
		}
	}
	if in.Intern(Type{Kind: KindInt}) != b.Int {
		t.Fatal("re-interning int produced a new ID")
	}
}

func TestStructuralDeduplication(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	l1 := in.List(b.Int)
	l2 := in.List(b.Int)
	if l1 != l2 {
		t.Fatalf("list<int> interned twice: %d != %d", l1, l2)
	}
	if in.List(b.Float) == l1 {
		t.Fatal("list<float> collided with list<int>")
	}
	nested := in.Channel(in.List(b.Int))
	if nested == in.Channel(b.Int) {
		t.Fatal("channel<list<int>> collided with channel<int>")
	}
	tt := in.MustLookup(nested)
	if tt.Kind != KindChannel || tt.Elem != l1 {
		t.Fatalf("channel descriptor = %+v", tt)
	}
}

func TestFreshVarsAreDistinct(t *testing.T) {
	in := NewInterner()
	v1 := in.FreshVar()
	v2 := in.FreshVar()
	if v1 == v2 {
		t.Fatal("FreshVar returned the same ID twice")
	}
	if !in.IsVar(v1) || !in.IsVar(v2) {
		t.Fatal("IsVar rejected a fresh variable")
	}
	if in.IsVar(in.Builtins().Int) {
		t.Fatal("IsVar accepted int")
	}
}

func TestRegisterFn(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	f1 := in.RegisterFn([]TypeID{b.Int, b.Int}, b.Int)
	f2 := in.RegisterFn([]TypeID{b.Int, b.Int}, b.Int)
	if f1 != f2 {
		t.Fatalf("identical signatures got distinct IDs: %d != %d", f1, f2)
	}
	if in.RegisterFn([]TypeID{b.Int}, b.Int) == f1 {
		t.Fatal("different arity collided")
	}
	info, ok := in.FnInfo(f1)
	if !ok || len(info.Params) != 2 || info.Result != b.Int {
		t.Fatalf("FnInfo = %+v, ok = %v", info, ok)
	}
}

func TestStructRegistration(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	b := in.Builtins()

	tree := names.Intern("Tree")
	id := in.RegisterStruct(tree, source.Span{})
	in.SetStructFields(id, []StructField{
		{Name: names.Intern("value"), Type: b.Int},
		{Name: names.Intern("parent"), Weak: true, Type: id},
	})

	info, ok := in.StructInfo(id)
	if !ok || info.Name != tree || len(info.Fields) != 2 {
		t.Fatalf("StructInfo = %+v, ok = %v", info, ok)
	}
	f, ok := in.StructFieldByName(id, names.Intern("parent"))
	if !ok || !f.Weak || f.Type != id {
		t.Fatalf("parent field = %+v, ok = %v", f, ok)
	}

	// Nominal: a second struct with the same name is a different type.
	other := in.RegisterStruct(tree, source.Span{})
	if other == id {
		t.Fatal("structs deduplicated by name")
	}
}

func TestFormat(t *testing.T) {
	in := NewInterner()
	names := source.NewInterner()
	b := in.Builtins()

	tests := []struct {
		id   TypeID
		want string
	}{
		{b.Int, "int"},
		{b.String, "str"},
		{in.List(b.Int), "list<int>"},
		{in.Channel(in.List(b.Float)), "channel<list<float>>"},
		{in.Task(b.Unit), "task<unit>"},
		{in.Result(b.Int), "result<int>"},
		{in.RegisterFn([]TypeID{b.Int, b.Float}, b.Bool), "fun(int, float) -> bool"},
		{in.RegisterFn(nil, b.Unit), "fun()"},
	}
	for _, tc := range tests {
		if got := in.Format(tc.id, names); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}

	tree := in.RegisterStruct(names.Intern("Tree"), source.Span{})
	if got := in.Format(tree, names); got != "Tree" {
		t.Errorf("Format(struct) = %q, want Tree", got)
	}
}
