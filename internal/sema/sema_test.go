package sema

import (
	"strings"
	"testing"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/source"
	"kairo/internal/symbols"
	"kairo/internal/types"
)

func analyzeSource(t *testing.T, src string) (*ast.Builder, *symbols.Resolution, *Result, *diag.Bag) {
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
		t.Fatal("parse errors before analysis")
	}

	table := symbols.NewTable(symbols.Hints{}, b.Strings, nil)
	res := symbols.Bind(b, fileID, table, symbols.Options{Reporter: rep})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatal("bind errors before analysis")
	}

	out := Analyze(b, fileID, Options{Reporter: rep, Resolution: res})
	return b, res, out, bag
}

func findCode(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func countCode(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, d := range bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func bindingNamed(t *testing.T, res *symbols.Resolution, name string) symbols.SymbolID {
	t.Helper()
	for _, symID := range res.Decls {
		sym := res.Table.Symbols.Get(symID)
		if sym != nil && res.Table.Strings.MustLookup(sym.Name) == name {
			return symID
		}
	}
	t.Fatalf("no binding named %q", name)
	return symbols.NoSymbolID
}

func bindingKind(t *testing.T, res *symbols.Resolution, out *Result, name string) types.Kind {
	t.Helper()
	symID := bindingNamed(t, res, name)
	typeID, ok := out.BindingTypes[symID]
	if !ok {
		t.Fatalf("no inferred type for %q", name)
	}
	tt, ok := res.Table.Types.Lookup(typeID)
	if !ok {
		t.Fatalf("type of %q not interned", name)
	}
	return tt.Kind
}

func TestIntLiteralIsInt(t *testing.T) {
	_, res, out, bag := analyzeSource(t, "x = 1\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "x"); k != types.KindInt {
		t.Fatalf("x kind = %v, want int", k)
	}
}

func TestFloatLiteralStaysFloat(t *testing.T) {
	_, res, out, bag := analyzeSource(t, "x = 2.5\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "x"); k != types.KindFloat {
		t.Fatalf("x kind = %v, want float", k)
	}
}

func TestNoImplicitNumericCoercion(t *testing.T) {
	_, _, out, bag := analyzeSource(t, "x = 1\ny = 2.5\nz = x + y\n")
	if out.TypesOK {
		t.Fatal("mixing int and float must fail")
	}
	d, ok := findCode(bag, diag.TypeNoCoercion)
	if !ok {
		t.Fatal("expected the no-coercion diagnostic")
	}
	if len(d.Notes) != 2 {
		t.Fatalf("notes = %d, want one per operand", len(d.Notes))
	}
	if len(d.Fixes) != 2 {
		t.Fatalf("fixes = %d, want float(...) and int(...)", len(d.Fixes))
	}
	var titles []string
	for _, f := range d.Fixes {
		titles = append(titles, f.Title)
	}
	joined := strings.Join(titles, "; ")
	if !strings.Contains(joined, "float(") || !strings.Contains(joined, "int(") {
		t.Fatalf("fix titles = %q", joined)
	}
}

func TestMixedLiteralsFailAtOperator(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "x = 1 + 2.0\n")
	d, ok := findCode(bag, diag.TypeNoCoercion)
	if !ok {
		t.Fatal("1 + 2.0 must fail")
	}
	// The primary span points at the '+' at offset 6.
	if d.Primary.Start != 6 || d.Primary.Len() != 1 {
		t.Fatalf("primary span = %+v, want the operator", d.Primary)
	}
}

func TestExplicitConversionMixes(t *testing.T) {
	_, res, out, bag := analyzeSource(t, "x = float(1) + 2.0\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "x"); k != types.KindFloat {
		t.Fatalf("x kind = %v, want float", k)
	}
}

func TestAnnotationMismatch(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "x: int = \"hi\"\n")
	if _, ok := findCode(bag, diag.TypeMismatch); !ok {
		t.Fatal("expected a mismatch assigning str to int")
	}
}

func TestEmptyListNeedsAnnotation(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "x = []\n")
	if n := countCode(bag, diag.TypeCannotInfer); n != 1 {
		t.Fatalf("cannot-infer reports = %d, want exactly 1", n)
	}
}

func TestAnnotatedEmptyList(t *testing.T) {
	_, res, out, bag := analyzeSource(t, "x: list<int> = []\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "x"); k != types.KindList {
		t.Fatalf("x kind = %v, want list", k)
	}
}

func TestConditionMustBeBool(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "if 1 {\n\tprint(1)\n}\n")
	if _, ok := findCode(bag, diag.TypeCondNotBool); !ok {
		t.Fatal("expected a non-bool condition error")
	}
}

func TestCallArity(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "fun add(a: int, b: int) -> int {\n\treturn a + b\n}\nr = add(1)\n")
	if _, ok := findCode(bag, diag.TypeWrongArity); !ok {
		t.Fatal("expected an arity error")
	}
}

func TestConstructorAndFieldAccess(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"type Point {\n\tx: int\n\ty: int\n}\np = Point(1, 2)\nprint(p.x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "p"); k != types.KindStruct {
		t.Fatalf("p kind = %v, want struct", k)
	}
}

func TestUnknownField(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"type Point {\n\tx: int\n}\np = Point(1)\nprint(p.z)\n")
	d, ok := findCode(bag, diag.TypeUnknownField)
	if !ok {
		t.Fatal("expected an unknown-field error")
	}
	if !strings.Contains(d.Message, "'z'") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestChannelRoundTripInfersElement(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"c = channel()\nsend(c, 1)\nx = recv(c)\nprint(x)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "x"); k != types.KindInt {
		t.Fatalf("x kind = %v, want int", k)
	}
}

func TestAwaitNeedsTask(t *testing.T) {
	_, _, _, bag := analyzeSource(t, "x = await 1\n")
	if _, ok := findCode(bag, diag.TypeAwaitNonTask); !ok {
		t.Fatal("expected an await-non-task error")
	}
}

func TestSpawnAwaitTyping(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"fun work(n: int) -> int {\n\treturn n * 2\n}\nt = spawn work(21)\nr = await t\nprint(r)\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if k := bindingKind(t, res, out, "t"); k != types.KindTask {
		t.Fatalf("t kind = %v, want task", k)
	}
	if k := bindingKind(t, res, out, "r"); k != types.KindInt {
		t.Fatalf("r kind = %v, want int", k)
	}
}

func TestErrorCallMarksFallible(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun half(n: int) -> int {\n\tif n < 0 {\n\t\treturn error(\"negative\")\n\t}\n\treturn n\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(out.Fallible) != 1 {
		t.Fatalf("fallible functions = %d, want 1", len(out.Fallible))
	}
	if len(out.ErrorCalls) != 1 {
		t.Fatalf("error call sites = %d, want 1", len(out.ErrorCalls))
	}
}

func TestTryPropagatesFallibility(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun inner() -> int {\n\treturn error(\"no\")\n}\nfun outer() -> int {\n\treturn try inner()\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(out.Fallible) != 2 {
		t.Fatalf("fallible functions = %d, want both", len(out.Fallible))
	}
}

func TestGatingSkipsLaterPasses(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"x = 1 + \"a\"\nfor y in [1] {\n\tprint(y)\n}\n")
	if out.TypesOK {
		t.Fatal("types must not be OK")
	}
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	if out.Ownership != nil || out.Moves != nil || len(out.Loops) != 0 {
		t.Fatal("dependent passes must be skipped after type errors")
	}
}

func TestStrongCycleBetweenStructs(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"type A {\n\tb: B\n}\ntype B {\n\ta: A\n}\n")
	d, ok := findCode(bag, diag.OwnStrongCycle)
	if !ok {
		t.Fatal("expected a strong-cycle error")
	}
	if len(d.Fixes) == 0 || d.Fixes[0].Edits[0].NewText != "weak " {
		t.Fatalf("expected the weak fix, got %+v", d.Fixes)
	}
}

func TestSelfReferenceIsAllowed(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"type Node {\n\tvalue: int\n\tnext: Node\n}\n")
	if _, ok := findCode(bag, diag.OwnStrongCycle); ok {
		t.Fatal("a self-referential struct is a chain, not a cycle")
	}
}

func TestWeakBreaksCycle(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"type A {\n\tb: B\n}\ntype B {\n\tweak a: A\n}\n")
	if _, ok := findCode(bag, diag.OwnStrongCycle); ok {
		t.Fatal("weak back reference must break the cycle")
	}
}

func TestReturnedValueEscapesToHeap(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"fun make() -> str {\n\ts = \"hi\"\n\treturn s\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	symID := bindingNamed(t, res, "s")
	bo, ok := out.Ownership.Bindings[symID]
	if !ok {
		t.Fatal("no ownership record for s")
	}
	if bo.Escape != EscapeReturned {
		t.Fatalf("escape = %v, want returned", bo.Escape)
	}
	if bo.Storage != StorageHeapARC {
		t.Fatalf("storage = %v, want heap-arc", bo.Storage)
	}
}

func TestSmallLocalStaysOnStack(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"fun f() {\n\tn = 1\n\tprint(n)\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	symID := bindingNamed(t, res, "n")
	bo := out.Ownership.Bindings[symID]
	if bo.Storage != StorageStack {
		t.Fatalf("storage = %v, want stack", bo.Storage)
	}
}

func TestAliasingHeapValueRetains(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun f() {\n\ta = \"text\"\n\tb = a\n\tprint(b)\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	if len(out.Ownership.Retains) == 0 {
		t.Fatal("aliasing a heap string must plan a retain")
	}
}

func TestSharedMutableAcrossTask(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"fun work(n: int) -> int {\n\treturn n\n}\n$counter = 1\nt = spawn work(counter)\ncounter = counter + 1\nr = await t\nprint(r)\n")
	d, ok := findCode(bag, diag.ConcSharedMutable)
	if !ok {
		t.Fatal("expected a shared-mutable error")
	}
	if !strings.Contains(d.Message, "'counter'") {
		t.Fatalf("message = %q", d.Message)
	}
	if len(d.Notes) < 2 {
		t.Fatalf("notes = %d, want spawn and capture sites", len(d.Notes))
	}
}

func TestTwoSpawnsSharingMutable(t *testing.T) {
	head := "fun work(n: int) -> int {\n\treturn n\n}\n$counter = 1\n"
	orders := map[string]string{
		"a first": head + "a = spawn work(counter)\nb = spawn work(counter)\nx = await a\ny = await b\nprint(x + y)\n",
		"b first": head + "b = spawn work(counter)\na = spawn work(counter)\ny = await b\nx = await a\nprint(x + y)\n",
	}
	for name, src := range orders {
		t.Run(name, func(t *testing.T) {
			_, _, _, bag := analyzeSource(t, src)
			d, ok := findCode(bag, diag.ConcSharedMutable)
			if !ok {
				t.Fatal("a second task over the same mutable binding must conflict")
			}
			if !strings.Contains(d.Message, "'counter'") {
				t.Fatalf("message = %q", d.Message)
			}
			if len(d.Notes) < 2 {
				t.Fatalf("notes = %d, want spawn and capture sites", len(d.Notes))
			}
		})
	}
}

func TestAwaitReleasesCapture(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"fun work(n: int) -> int {\n\treturn n\n}\n$counter = 1\nt = spawn work(counter)\nr = await t\ncounter = counter + 1\nprint(r)\n")
	if _, ok := findCode(bag, diag.ConcSharedMutable); ok {
		t.Fatal("writes after await are safe")
	}
}

func TestImmutableCaptureIsFree(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"fun work(n: int) -> int {\n\treturn n\n}\nbase = 1\nt = spawn work(base)\nx = base + 1\nr = await t\nprint(x)\n")
	if _, ok := findCode(bag, diag.ConcSharedMutable); ok {
		t.Fatal("immutable captures never conflict")
	}
}

func TestUseAfterSend(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"c = channel()\nmsg = \"hello\"\nsend(c, msg)\nprint(msg)\n")
	d, ok := findCode(bag, diag.ConcUseAfterMove)
	if !ok {
		t.Fatal("expected a use-after-move error")
	}
	if !strings.Contains(d.Message, "'msg'") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestReassignmentRevivesMovedBinding(t *testing.T) {
	_, _, _, bag := analyzeSource(t,
		"c = channel()\n$msg = \"a\"\nsend(c, msg)\nmsg = \"b\"\nprint(msg)\n")
	if _, ok := findCode(bag, diag.ConcUseAfterMove); ok {
		t.Fatal("a reassigned binding holds a fresh value")
	}
}

func loopPlans(out *Result) []LoopPlan {
	var plans []LoopPlan
	for _, p := range out.Loops {
		plans = append(plans, p)
	}
	return plans
}

func TestPureLoopBecomesMap(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun scale(xs: list<int>) -> int {\n\tfor x in xs {\n\t\ty = x * 2\n\t}\n\treturn 0\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	plans := loopPlans(out)
	if len(plans) != 1 || plans[0].Kind != LoopMap {
		t.Fatalf("plans = %+v, want one map", plans)
	}
	if _, ok := findCode(bag, diag.NoteLoopParallel); !ok {
		t.Fatal("expected the parallel-loop note")
	}
}

func TestAccumulatorLoopBecomesReduce(t *testing.T) {
	_, res, out, bag := analyzeSource(t,
		"fun sum(xs: list<int>) -> int {\n\t$total = 0\n\tfor x in xs {\n\t\ttotal = total + x\n\t}\n\treturn total\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	plans := loopPlans(out)
	if len(plans) != 1 || plans[0].Kind != LoopReduce {
		t.Fatalf("plans = %+v, want one reduce", plans)
	}
	if plans[0].Op != ReduceAdd {
		t.Fatalf("op = %v, want +", plans[0].Op)
	}
	if plans[0].Acc != bindingNamed(t, res, "total") {
		t.Fatal("accumulator must be total")
	}
}

func TestEffectfulLoopStaysSequential(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun show(xs: list<int>) {\n\tfor x in xs {\n\t\tprint(x)\n\t}\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	plans := loopPlans(out)
	if len(plans) != 1 || plans[0].Kind != LoopSequential {
		t.Fatalf("plans = %+v, want one sequential", plans)
	}
	d, ok := findCode(bag, diag.NoteLoopSequential)
	if !ok {
		t.Fatal("expected the sequential-loop note")
	}
	if !strings.Contains(d.Message, "print") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestImpureCalleeBlocksParallelism(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun log(n: int) {\n\tprint(n)\n}\nfun run(xs: list<int>) {\n\tfor x in xs {\n\t\tlog(x)\n\t}\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	plans := loopPlans(out)
	if len(plans) != 1 || plans[0].Kind != LoopSequential {
		t.Fatalf("plans = %+v, want sequential through the call graph", plans)
	}
}

func TestOrderDependentWriteStaysSequential(t *testing.T) {
	_, _, out, bag := analyzeSource(t,
		"fun last(xs: list<int>) -> int {\n\t$seen = 0\n\tfor x in xs {\n\t\tseen = x\n\t}\n\treturn seen\n}\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %+v", bag.Items())
	}
	plans := loopPlans(out)
	if len(plans) != 1 || plans[0].Kind != LoopSequential {
		t.Fatalf("plans = %+v, want sequential", plans)
	}
}
