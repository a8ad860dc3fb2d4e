package symbols

import (
	"strings"
	"testing"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/source"
	"kairo/internal/types"
)

func bindSource(t *testing.T, src string) (*ast.Builder, *Resolution, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kr", []byte(src))
	bag := diag.NewBag(128)
	rep := diag.BagReporter{Bag: bag}

	b := ast.NewBuilder(nil, ast.Hints{})
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	fileID := parser.ParseFile(lx, b, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatal("parse errors before binding")
	}

	table := NewTable(Hints{}, b.Strings, nil)
	res := Bind(b, fileID, table, Options{Reporter: rep})
	return b, res, bag
}

func findCode(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func TestFirstOccurrenceDeclares(t *testing.T) {
	_, res, bag := bindSource(t, "x = 1\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(res.Decls) != 1 {
		t.Fatalf("decls = %d, want 1", len(res.Decls))
	}
	for _, symID := range res.Decls {
		if res.Table.Symbols.Get(symID).IsMutable() {
			t.Fatal("plain binding must be immutable")
		}
	}
}

func TestAssignToImmutableFails(t *testing.T) {
	_, _, bag := bindSource(t, "x = 1\nx = 2\n")
	d, ok := findCode(bag, diag.MutAssignImmutable)
	if !ok {
		t.Fatal("expected an immutable-assignment error")
	}
	if len(d.Fixes) == 0 || len(d.Fixes[0].Edits) == 0 {
		t.Fatal("expected a fix-it")
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "$" {
		t.Fatalf("fix text = %q, want $", edit.NewText)
	}
	// The edit inserts at the original declaration, on line 1.
	if edit.Span.Start != 0 || edit.Span.End != 0 {
		t.Fatalf("fix span = %+v, want zero-width at offset 0", edit.Span)
	}
}

func TestMutableReassignmentSucceeds(t *testing.T) {
	_, res, bag := bindSource(t, "$x = 1\nx = 2\n$x = 3\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(res.Decls) != 1 {
		t.Fatalf("decls = %d, want 1 (later writes are assignments)", len(res.Decls))
	}
	if len(res.Assigns) != 2 {
		t.Fatalf("assigns = %d, want 2", len(res.Assigns))
	}
}

func TestDollarOnImmutableIsError(t *testing.T) {
	_, _, bag := bindSource(t, "x = 1\n$x = 2\n")
	if _, ok := findCode(bag, diag.MutRedeclare); !ok {
		t.Fatal("expected a redeclare error")
	}
}

func TestUnresolvedName(t *testing.T) {
	_, _, bag := bindSource(t, "print(missing)\n")
	d, ok := findCode(bag, diag.ResUnresolved)
	if !ok {
		t.Fatal("expected an unresolved-name error")
	}
	if !strings.Contains(d.Message, "missing") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestForwardFunctionReference(t *testing.T) {
	_, _, bag := bindSource(t, "fun a() -> int {\n\treturn b()\n}\nfun b() -> int {\n\treturn 1\n}\n")
	if bag.HasErrors() {
		t.Fatalf("forward reference should bind: %+v", bag.Items())
	}
}

func TestLoopVariableScope(t *testing.T) {
	_, _, bag := bindSource(t, "for x in [1, 2] {\n\tprint(x)\n}\nprint(x)\n")
	if _, ok := findCode(bag, diag.ResUnresolved); !ok {
		t.Fatal("loop variable must not leak out of the loop")
	}
}

func TestNestedShadowingIsIndependent(t *testing.T) {
	src := "x = 1\nfor x in [1] {\n\tprint(x)\n}\nprint(x)\n"
	_, _, bag := bindSource(t, src)
	if bag.HasErrors() {
		t.Fatalf("inner loop variable may shadow: %+v", bag.Items())
	}
}

func TestStructDeclarationAndWeakField(t *testing.T) {
	b, res, bag := bindSource(t, "type Tree {\n\tvalue: int\n}\ntype Node {\n\tweak parent: Tree\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	var nodeType types.TypeID
	for itemID, typeID := range res.StructTypes {
		decl, _ := b.Items.TypeDecl(itemID)
		if b.Lookup(decl.Name) == "Node" {
			nodeType = typeID
		}
	}
	info, ok := res.Table.Types.StructInfo(nodeType)
	if !ok || len(info.Fields) != 1 || !info.Fields[0].Weak {
		t.Fatalf("Node fields = %+v, ok = %v", info, ok)
	}
}

func TestWeakOnNonStructField(t *testing.T) {
	_, _, bag := bindSource(t, "type Node {\n\tweak count: int\n}\n")
	if _, ok := findCode(bag, diag.OwnWeakNonStruct); !ok {
		t.Fatal("weak on an int field should be an error")
	}
}

func TestModuleMemberResolution(t *testing.T) {
	_, res, bag := bindSource(t, "s = str.upper(\"hi\")\nn = math.sqrt(2.0)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(res.ModuleMembers) != 2 {
		t.Fatalf("module members = %d, want 2", len(res.ModuleMembers))
	}
	for _, decl := range res.ModuleMembers {
		if !decl.Pure {
			t.Fatalf("str/math members are pure, got %+v", decl)
		}
		if _, ok := res.Table.Types.FnInfo(decl.Type); !ok {
			t.Fatal("extern member missing fn type")
		}
	}
}

func TestUnknownModuleMember(t *testing.T) {
	_, _, bag := bindSource(t, "math.cube(2.0)\n")
	if _, ok := findCode(bag, diag.ResUnknownModuleMember); !ok {
		t.Fatal("expected unknown-member error")
	}
}

func TestLocalBindingShadowsModule(t *testing.T) {
	_, res, bag := bindSource(t, "math = 3\nprint(math)\n")
	if bag.HasErrors() {
		t.Fatalf("local name may shadow a module: %+v", bag.Items())
	}
	if len(res.Decls) != 1 {
		t.Fatal("expected one declaration")
	}
}

func TestDuplicateFunction(t *testing.T) {
	_, _, bag := bindSource(t, "fun f() {\n}\nfun f() {\n}\n")
	if _, ok := findCode(bag, diag.ResDuplicateFunction); !ok {
		t.Fatal("expected duplicate-function error")
	}
}

func TestRedefiningBuiltinFails(t *testing.T) {
	_, _, bag := bindSource(t, "fun print(x) {\n}\n")
	d, ok := findCode(bag, diag.ResDuplicateFunction)
	if !ok {
		t.Fatal("expected an error for redefining print")
	}
	if !strings.Contains(d.Message, "built-in") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestAnnotationResolution(t *testing.T) {
	_, res, bag := bindSource(t, "xs: list<int> = [1]\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	found := false
	for _, typeID := range res.Annotations {
		tt, ok := res.Table.Types.Lookup(typeID)
		if ok && tt.Kind == types.KindList {
			found = true
		}
	}
	if !found {
		t.Fatal("list<int> annotation not resolved")
	}
}

func TestUnknownTypeAnnotation(t *testing.T) {
	_, _, bag := bindSource(t, "x: Missing = 1\n")
	if _, ok := findCode(bag, diag.ResUnresolved); !ok {
		t.Fatal("expected unknown-type error")
	}
}
