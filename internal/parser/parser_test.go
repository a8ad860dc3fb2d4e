package parser

import (
	"testing"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/source"
	"kairo/internal/testkit"
)

func parseSource(t *testing.T, src string) (*ast.Builder, *ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kr", []byte(src))
	bag := diag.NewBag(128)
	rep := diag.BagReporter{Bag: bag}

	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(nil, ast.Hints{})
	fileID := ParseFile(lx, b, Options{Reporter: rep})
	return b, b.File(fileID), bag
}

func mustNoErrors(t *testing.T, bag *diag.Bag) {
	t.Helper()
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatal("unexpected parse errors")
	}
}

func onlyFunc(t *testing.T, b *ast.Builder, f *ast.File, name string) *ast.FuncData {
	t.Helper()
	for _, itemID := range f.Items {
		fn, ok := b.Items.Func(itemID)
		if ok && b.Lookup(fn.Name) == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func TestTopLevelStatementsWrapIntoMain(t *testing.T) {
	b, f, bag := parseSource(t, "x = 1\n$y = 2.5\nprint(x)\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, ok := b.Stmts.Block(main.Body)
	if !ok || len(block.Stmts) != 3 {
		t.Fatalf("main body = %+v, ok = %v", block, ok)
	}

	first, ok := b.Stmts.Assign(block.Stmts[0])
	if !ok || first.Dollar {
		t.Fatalf("first stmt = %+v", first)
	}
	second, ok := b.Stmts.Assign(block.Stmts[1])
	if !ok || !second.Dollar {
		t.Fatalf("second stmt = %+v", second)
	}
	if _, ok := b.Stmts.Expr(block.Stmts[2]); !ok {
		t.Fatal("third stmt should be an expression statement")
	}
}

func TestFunDeclaration(t *testing.T) {
	b, f, bag := parseSource(t, "fun add(a: int, b) -> float {\n\treturn a + b\n}\n")
	mustNoErrors(t, bag)

	fn := onlyFunc(t, b, f, "add")
	if len(fn.Params) != 2 {
		t.Fatalf("params = %+v", fn.Params)
	}
	if !fn.Params[0].Type.IsValid() || fn.Params[1].Type.IsValid() {
		t.Fatal("only the first parameter carries an annotation")
	}
	ret := b.Types.Get(fn.RetType)
	if ret == nil || ret.Kind != ast.TypeSynName || b.Lookup(ret.Name) != "float" {
		t.Fatalf("return annotation = %+v", ret)
	}

	block, _ := b.Stmts.Block(fn.Body)
	retStmt, ok := b.Stmts.Return(block.Stmts[0])
	if !ok || !retStmt.Value.IsValid() {
		t.Fatalf("return stmt = %+v, ok = %v", retStmt, ok)
	}
	bin, ok := b.Exprs.Binary(retStmt.Value)
	if !ok || bin.Op != ast.BinAdd {
		t.Fatalf("return value = %+v", bin)
	}
}

func TestTypeDeclarationWithWeakField(t *testing.T) {
	b, f, bag := parseSource(t, "type Node {\n\tvalue: int,\n\tnext: Node,\n\tweak owner: Tree\n}\n")
	mustNoErrors(t, bag)

	var decl *ast.TypeDeclData
	for _, itemID := range f.Items {
		if td, ok := b.Items.TypeDecl(itemID); ok {
			decl = td
		}
	}
	if decl == nil || b.Lookup(decl.Name) != "Node" || len(decl.Fields) != 3 {
		t.Fatalf("decl = %+v", decl)
	}
	if decl.Fields[0].Weak || decl.Fields[1].Weak || !decl.Fields[2].Weak {
		t.Fatalf("weak flags wrong: %+v", decl.Fields)
	}
	if b.Lookup(decl.Fields[2].Name) != "owner" {
		t.Fatalf("third field = %+v", decl.Fields[2])
	}
}

func TestPrecedenceAndAssociativity(t *testing.T) {
	b, f, bag := parseSource(t, "r = 1 + 2 * 3 == 7 && true\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	assign, _ := b.Stmts.Assign(block.Stmts[0])

	and, ok := b.Exprs.Binary(assign.Value)
	if !ok || and.Op != ast.BinAnd {
		t.Fatalf("top = %+v", and)
	}
	eq, ok := b.Exprs.Binary(and.Left)
	if !ok || eq.Op != ast.BinEq {
		t.Fatalf("left of && = %+v", eq)
	}
	add, ok := b.Exprs.Binary(eq.Left)
	if !ok || add.Op != ast.BinAdd {
		t.Fatalf("left of == = %+v", add)
	}
	mul, ok := b.Exprs.Binary(add.Right)
	if !ok || mul.Op != ast.BinMul {
		t.Fatalf("right of + = %+v", mul)
	}
}

func TestLeftAssociativeSubtraction(t *testing.T) {
	b, f, bag := parseSource(t, "r = 10 - 3 - 2\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	assign, _ := b.Stmts.Assign(block.Stmts[0])

	outer, _ := b.Exprs.Binary(assign.Value)
	if outer.Op != ast.BinSub {
		t.Fatalf("outer = %+v", outer)
	}
	inner, ok := b.Exprs.Binary(outer.Left)
	if !ok || inner.Op != ast.BinSub {
		t.Fatal("subtraction should group to the left")
	}
}

func TestSpawnAwaitTryMust(t *testing.T) {
	b, f, bag := parseSource(t, "t = spawn work(1)\nr = must await t\nv = try parse(\"x\")\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)

	a0, _ := b.Stmts.Assign(block.Stmts[0])
	spawn, ok := b.Exprs.Spawn(a0.Value)
	if !ok {
		t.Fatal("expected spawn")
	}
	if _, ok := b.Exprs.Call(spawn.Call); !ok {
		t.Fatal("spawn operand should be a call")
	}

	a1, _ := b.Stmts.Assign(block.Stmts[1])
	if b.Exprs.Get(a1.Value).Kind != ast.ExprMust {
		t.Fatalf("expected must, got %v", b.Exprs.Get(a1.Value).Kind)
	}
	must, _ := b.Exprs.TryLike(a1.Value)
	if _, ok := b.Exprs.Await(must.Inner); !ok {
		t.Fatal("must operand should be await")
	}

	a2, _ := b.Stmts.Assign(block.Stmts[2])
	if b.Exprs.Get(a2.Value).Kind != ast.ExprTry {
		t.Fatalf("expected try, got %v", b.Exprs.Get(a2.Value).Kind)
	}
}

func TestSendRecvSoftKeywords(t *testing.T) {
	b, f, bag := parseSource(t, "send(ch, v)\nx = recv(ch)\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)

	es, _ := b.Stmts.Expr(block.Stmts[0])
	if _, ok := b.Exprs.ChanSend(es.Expr); !ok {
		t.Fatalf("expected send node, got %v", b.Exprs.Get(es.Expr).Kind)
	}
	assign, _ := b.Stmts.Assign(block.Stmts[1])
	if _, ok := b.Exprs.ChanRecv(assign.Value); !ok {
		t.Fatalf("expected recv node, got %v", b.Exprs.Get(assign.Value).Kind)
	}
}

func TestSendWrongArity(t *testing.T) {
	_, _, bag := parseSource(t, "send(ch)\n")
	if !bag.HasErrors() {
		t.Fatal("send with one argument should be a syntax error")
	}
}

func TestIfElseChain(t *testing.T) {
	b, f, bag := parseSource(t, "if a < b {\n\tprint(a)\n} else if a > b {\n\tprint(b)\n} else {\n\tprint(0)\n}\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	top, ok := b.Stmts.If(block.Stmts[0])
	if !ok {
		t.Fatal("expected if")
	}
	nested, ok := b.Stmts.If(top.Else)
	if !ok {
		t.Fatal("else-if should parse as a nested if")
	}
	if _, ok := b.Stmts.Block(nested.Else); !ok {
		t.Fatal("final else should be a block")
	}
}

func TestForLoop(t *testing.T) {
	b, f, bag := parseSource(t, "for x in [1, 2, 3] {\n\ttotal = total + x\n}\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	loop, ok := b.Stmts.For(block.Stmts[0])
	if !ok || b.Lookup(loop.Var) != "x" {
		t.Fatalf("loop = %+v, ok = %v", loop, ok)
	}
	if _, ok := b.Exprs.List(loop.Seq); !ok {
		t.Fatal("sequence should be a list literal")
	}
}

func TestTypeAnnotations(t *testing.T) {
	b, f, bag := parseSource(t, "xs: list<int> = [1]\nch: channel<str> = channel()\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)

	a0, _ := b.Stmts.Assign(block.Stmts[0])
	ts := b.Types.Get(a0.TypeAnn)
	if ts == nil || ts.Kind != ast.TypeSynList {
		t.Fatalf("annotation = %+v", ts)
	}
	elem := b.Types.Get(ts.Elem)
	if elem.Kind != ast.TypeSynName || b.Lookup(elem.Name) != "int" {
		t.Fatalf("elem = %+v", elem)
	}

	a1, _ := b.Stmts.Assign(block.Stmts[1])
	if b.Types.Get(a1.TypeAnn).Kind != ast.TypeSynChannel {
		t.Fatal("second annotation should be channel<...>")
	}
}

func TestMemberAssignment(t *testing.T) {
	b, f, bag := parseSource(t, "node.value = 3\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	assign, ok := b.Stmts.Assign(block.Stmts[0])
	if !ok {
		t.Fatal("expected assignment")
	}
	member, ok := b.Exprs.Member(assign.Target)
	if !ok || b.Lookup(member.Name) != "value" {
		t.Fatalf("target = %+v, ok = %v", member, ok)
	}
}

func TestRecoveryKeepsParsing(t *testing.T) {
	b, f, bag := parseSource(t, "x = + +\ny = 2\n")
	if !bag.HasErrors() {
		t.Fatal("expected a syntax error on the first line")
	}
	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	last, ok := b.Stmts.Assign(block.Stmts[len(block.Stmts)-1])
	if !ok || !last.Target.IsValid() {
		t.Fatal("parser should recover and parse the second statement")
	}
	ident, ok := b.Exprs.Ident(last.Target)
	if !ok || b.Lookup(ident.Name) != "y" {
		t.Fatalf("recovered target = %+v", ident)
	}
}

func TestBadStatementBecomesPlaceholder(t *testing.T) {
	b, f, bag := parseSource(t, "fun f( {\n}\nz = 1\n")
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	// The file must still register and later statements still parse.
	if f == nil || len(f.Items) == 0 {
		t.Fatal("file items missing")
	}
	found := false
	for _, itemID := range f.Items {
		if fn, ok := b.Items.Func(itemID); ok && b.Lookup(fn.Name) == "main" {
			found = true
		}
	}
	if !found {
		t.Fatal("trailing statement should survive the earlier error")
	}
}

func TestSpanInvariants(t *testing.T) {
	sources := []string{
		"x = 1\nprint(x)\n",
		"fun add(a: int, b: int) -> int {\n\treturn a + b\n}\n",
		"type Node {\n\tvalue: int,\n\tweak owner: Node\n}\nn = 1\n",
		"x = + +\ny = 2\n",
	}
	for _, src := range sources {
		fs := source.NewFileSet()
		id := fs.AddVirtual("test.kr", []byte(src))
		bag := diag.NewBag(128)
		rep := diag.BagReporter{Bag: bag}

		lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
		b := ast.NewBuilder(nil, ast.Hints{})
		fileID := ParseFile(lx, b, Options{Reporter: rep})
		testkit.RequireSpanInvariants(t, b, fileID, fs.Get(id))
	}
}

func TestStringLiteralDecoding(t *testing.T) {
	b, f, bag := parseSource(t, "s = \"a\\n\\\"b\\\"\"\n")
	mustNoErrors(t, bag)

	main := onlyFunc(t, b, f, "main")
	block, _ := b.Stmts.Block(main.Body)
	assign, _ := b.Stmts.Assign(block.Stmts[0])
	lit, ok := b.Exprs.Literal(assign.Value)
	if !ok || lit.Kind != ast.LitString {
		t.Fatalf("literal = %+v", lit)
	}
	if got := b.Lookup(lit.Value); got != "a\n\"b\"" {
		t.Fatalf("decoded = %q", got)
	}
}
