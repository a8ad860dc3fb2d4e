package ir

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/sema"
	"kairo/internal/source"
	"kairo/internal/symbols"
)

func lowerSource(t *testing.T, src string) *Module {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kr", []byte(src))
	bag := diag.NewBag(128)
	rep := diag.BagReporter{Bag: bag}

	b := ast.NewBuilder(nil, ast.Hints{})
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	fileID := parser.ParseFile(lx, b, parser.Options{Reporter: rep})
	table := symbols.NewTable(symbols.Hints{}, b.Strings, nil)
	res := symbols.Bind(b, fileID, table, symbols.Options{Reporter: rep})
	out := sema.Analyze(b, fileID, sema.Options{Reporter: rep, Resolution: res})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s: %s", d.Code.ID(), d.Message)
		}
		t.Fatal("analysis errors before lowering")
	}
	return Lower(b, res, out, fileID, "test.kr")
}

func findFunc(t *testing.T, m *Module, name string) *Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no function named %q", name)
	return nil
}

func countOps(f *Func, op Op) int {
	n := 0
	for i := range f.Blocks {
		for _, in := range f.Blocks[i].Instrs {
			if in.Op == op {
				n++
			}
		}
	}
	return n
}

func countTerms(f *Func, kind TermKind) int {
	n := 0
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind == kind {
			n++
		}
	}
	return n
}

func TestLowerSimpleFunction(t *testing.T) {
	m := lowerSource(t, "fun double(n: int) -> int {\n\treturn n * 2\n}\n")
	f := findFunc(t, m, "double")
	if f.Fallible {
		t.Fatal("double must not be fallible")
	}
	if len(f.Params) != 1 || f.Params[0].Name != "n" {
		t.Fatalf("params = %+v, want one named n", f.Params)
	}
	if ty := m.TypeOf(f.Result); ty == nil || ty.Kind != TypeInt {
		t.Fatalf("result = %+v, want int", ty)
	}
	if !f.Entry.IsValid() {
		t.Fatal("missing entry block")
	}
	if countOps(f, OpBin) != 1 {
		t.Fatal("expected one binary op")
	}
	if countOps(f, OpMakeOk) != 0 {
		t.Fatal("infallible return must not wrap")
	}
	if countTerms(f, TermReturn) != 1 {
		t.Fatal("expected one return")
	}
}

func TestFallibleFunctionWrapsReturns(t *testing.T) {
	m := lowerSource(t,
		"fun half(n: int) -> int {\n\tif n < 0 {\n\t\treturn error(\"negative\")\n\t}\n\treturn n\n}\n")
	f := findFunc(t, m, "half")
	if !f.Fallible {
		t.Fatal("half must be fallible")
	}
	if ty := m.TypeOf(f.Result); ty == nil || ty.Kind != TypeInt {
		t.Fatalf("result = %+v, want the success type int", ty)
	}
	if countOps(f, OpMakeErr) != 1 {
		t.Fatal("the error() site must produce an Err")
	}
	if countOps(f, OpMakeOk) != 1 {
		t.Fatal("the plain return must wrap in Ok")
	}
	if countTerms(f, TermReturn) != 2 {
		t.Fatalf("returns = %d, want 2", countTerms(f, TermReturn))
	}
}

func TestTryRewrapsError(t *testing.T) {
	m := lowerSource(t,
		"fun inner() -> int {\n\treturn error(\"no\")\n}\nfun outer() -> int {\n\treturn try inner()\n}\n")
	f := findFunc(t, m, "outer")
	if !f.Fallible {
		t.Fatal("try marks the caller fallible")
	}
	if countOps(f, OpIsErr) != 1 || countOps(f, OpUnwrapErr) != 1 || countOps(f, OpUnwrapOk) != 1 {
		t.Fatal("try must branch on the result and unwrap both sides")
	}
	if countTerms(f, TermAbort) != 0 {
		t.Fatal("try never aborts")
	}
	// One return for the propagated Err, one for the Ok path.
	if countTerms(f, TermReturn) != 2 {
		t.Fatalf("returns = %d, want 2", countTerms(f, TermReturn))
	}
}

func TestMustAborts(t *testing.T) {
	m := lowerSource(t,
		"fun inner() -> int {\n\treturn error(\"no\")\n}\nfun force() -> int {\n\treturn must inner()\n}\n")
	f := findFunc(t, m, "force")
	if f.Fallible {
		t.Fatal("must swallows fallibility")
	}
	if countTerms(f, TermAbort) != 1 {
		t.Fatal("the Err side of must aborts")
	}
	if countOps(f, OpUnwrapOk) != 1 {
		t.Fatal("the Ok side continues with the value")
	}
}

func TestPlainFallibleCallAborts(t *testing.T) {
	m := lowerSource(t,
		"fun inner() -> int {\n\treturn error(\"no\")\n}\nfun outer() -> int {\n\treturn inner() + 1\n}\n")
	f := findFunc(t, m, "outer")
	if f.Fallible {
		t.Fatal("a plain call does not propagate fallibility")
	}
	if countOps(f, OpIsErr) != 1 || countTerms(f, TermAbort) != 1 {
		t.Fatal("an unchecked fallible call unwraps like must")
	}
}

func TestLoopHintMap(t *testing.T) {
	m := lowerSource(t,
		"fun scale(xs: list<int>) -> int {\n\tfor x in xs {\n\t\ty = x * 2\n\t}\n\treturn 0\n}\n")
	f := findFunc(t, m, "scale")
	if len(f.Loops) != 1 || f.Loops[0].Strategy != LoopParMap {
		t.Fatalf("loops = %+v, want one par.map", f.Loops)
	}
	if !f.Loops[0].Head.IsValid() {
		t.Fatal("hint must name the header block")
	}
	if countOps(f, OpLen) != 1 || countOps(f, OpIndex) != 1 {
		t.Fatal("loop must be index driven")
	}
}

func TestLoopHintReduce(t *testing.T) {
	m := lowerSource(t,
		"fun sum(xs: list<int>) -> int {\n\t$total = 0\n\tfor x in xs {\n\t\ttotal = total + x\n\t}\n\treturn total\n}\n")
	f := findFunc(t, m, "sum")
	if len(f.Loops) != 1 || f.Loops[0].Strategy != LoopParReduce {
		t.Fatalf("loops = %+v, want one par.reduce", f.Loops)
	}
	hint := f.Loops[0]
	if hint.ReduceOp != "+" {
		t.Fatalf("reduce op = %q, want +", hint.ReduceOp)
	}
	acc := f.Register(hint.Acc)
	if acc == nil || acc.Name != "total" {
		t.Fatalf("acc = %+v, want the total register", acc)
	}
}

func TestLoopHintSequential(t *testing.T) {
	m := lowerSource(t,
		"fun show(xs: list<int>) {\n\tfor x in xs {\n\t\tprint(x)\n\t}\n}\n")
	f := findFunc(t, m, "show")
	if len(f.Loops) != 1 || f.Loops[0].Strategy != LoopSeq {
		t.Fatalf("loops = %+v, want one seq", f.Loops)
	}
}

func TestSpawnAwaitOps(t *testing.T) {
	m := lowerSource(t,
		"fun work(n: int) -> int {\n\treturn n\n}\nfun run() -> int {\n\tt = spawn work(1)\n\treturn await t\n}\n")
	f := findFunc(t, m, "run")
	if countOps(f, OpSpawn) != 1 || countOps(f, OpAwait) != 1 {
		t.Fatal("expected one spawn and one await")
	}
	for i := range f.Blocks {
		for _, in := range f.Blocks[i].Instrs {
			if in.Op == OpSpawn && in.Sym != "work" {
				t.Fatalf("spawn target = %q, want work", in.Sym)
			}
		}
	}
}

func TestChannelOps(t *testing.T) {
	m := lowerSource(t, "c = channel()\nsend(c, 1)\nx = recv(c)\nprint(x)\n")
	f := findFunc(t, m, "main")
	if countOps(f, OpChanNew) != 1 || countOps(f, OpChanSend) != 1 || countOps(f, OpChanRecv) != 1 {
		t.Fatal("expected channel create, send and recv")
	}
	if countOps(f, OpPrint) != 1 {
		t.Fatal("expected the print op")
	}
}

func TestRetainReleaseForHeapBindings(t *testing.T) {
	m := lowerSource(t, "fun f() {\n\ta = \"text\"\n\tb = a\n\tprint(b)\n}\n")
	f := findFunc(t, m, "f")
	if countOps(f, OpRetain) == 0 {
		t.Fatal("aliasing a heap string must retain")
	}
	if countOps(f, OpRelease) == 0 {
		t.Fatal("scope exit must release heap bindings")
	}
}

func TestSendRetainsForChannel(t *testing.T) {
	m := lowerSource(t, "fun relay() {\n\tc = channel()\n\tmsg = \"hello\"\n\tsend(c, msg)\n}\n")
	f := findFunc(t, m, "relay")
	if got := countOps(f, OpRetain); got != 1 {
		t.Fatalf("retains = %d, want one for the channel's reference", got)
	}
	if got := countOps(f, OpRelease); got != 2 {
		t.Fatalf("releases = %d, want one per heap binding", got)
	}
	retainAt, sendAt := -1, -1
	for i, in := range f.Block(f.Entry).Instrs {
		switch in.Op {
		case OpRetain:
			retainAt = i
		case OpChanSend:
			sendAt = i
		}
	}
	if retainAt == -1 || sendAt == -1 || retainAt > sendAt {
		t.Fatalf("retain at %d, send at %d; the channel's reference is taken first", retainAt, sendAt)
	}
}

func TestLoopVariableBorrowsWithoutRelease(t *testing.T) {
	m := lowerSource(t, "fun shout(names: list<str>) {\n\tfor n in names {\n\t\tprint(n)\n\t}\n}\n")
	f := findFunc(t, m, "shout")
	if got := countOps(f, OpRelease); got != 0 {
		t.Fatalf("releases = %d, want none: the loop variable borrows its element", got)
	}
	if got := countOps(f, OpRetain); got != 0 {
		t.Fatalf("retains = %d, want none", got)
	}
}

func TestReturnPathReleasesHeapLocals(t *testing.T) {
	m := lowerSource(t, "fun f() -> int {\n\ts = \"text\"\n\tu = s\n\tprint(u)\n\treturn 1\n}\n")
	f := findFunc(t, m, "f")
	if got := countOps(f, OpRetain); got != 1 {
		t.Fatalf("retains = %d, want one for the alias", got)
	}
	if got := countOps(f, OpRelease); got != 2 {
		t.Fatalf("releases = %d, want one per heap binding", got)
	}
	for i := range f.Blocks {
		if f.Blocks[i].Term.Kind != TermReturn {
			continue
		}
		rel := 0
		for _, in := range f.Blocks[i].Instrs {
			if in.Op == OpRelease {
				rel++
			}
		}
		if rel != 2 {
			t.Fatalf("releases in the returning block = %d, want 2", rel)
		}
	}
}

func TestReturnedBindingOutlivesItsRelease(t *testing.T) {
	m := lowerSource(t, "fun make() -> str {\n\ts = \"hi\"\n\treturn s\n}\n")
	f := findFunc(t, m, "make")
	if countOps(f, OpRetain) != 1 || countOps(f, OpRelease) != 1 {
		t.Fatalf("retain/release = %d/%d, want 1/1",
			countOps(f, OpRetain), countOps(f, OpRelease))
	}
	retainAt, releaseAt := -1, -1
	for i, in := range f.Block(f.Entry).Instrs {
		switch in.Op {
		case OpRetain:
			retainAt = i
		case OpRelease:
			releaseAt = i
		}
	}
	if retainAt == -1 || releaseAt == -1 || retainAt > releaseAt {
		t.Fatalf("retain at %d, release at %d; the caller's reference is taken first", retainAt, releaseAt)
	}
}

func TestEveryExitPathReleasesHeapLocals(t *testing.T) {
	m := lowerSource(t,
		"fun inner() -> int {\n\treturn error(\"no\")\n}\nfun force() -> int {\n\ts = \"log\"\n\tprint(s)\n\treturn must inner()\n}\n")
	f := findFunc(t, m, "force")
	if got := countOps(f, OpRelease); got != 2 {
		t.Fatalf("releases = %d, want one on the abort path and one on the return path", got)
	}
	for i := range f.Blocks {
		kind := f.Blocks[i].Term.Kind
		if kind != TermReturn && kind != TermAbort {
			continue
		}
		rel := 0
		for _, in := range f.Blocks[i].Instrs {
			if in.Op == OpRelease {
				rel++
			}
		}
		if rel != 1 {
			t.Fatalf("block %d (%v) releases = %d, want 1", i, kind, rel)
		}
	}
}

func TestStructLowering(t *testing.T) {
	m := lowerSource(t,
		"type Point {\n\tx: int\n\ty: int\n}\np = Point(1, 2)\nprint(p.x)\n")
	f := findFunc(t, m, "main")
	if countOps(f, OpMakeStruct) != 1 {
		t.Fatal("expected one struct construction")
	}
	fieldGet := false
	for i := range f.Blocks {
		for _, in := range f.Blocks[i].Instrs {
			if in.Op == OpField && in.Sym == "x" {
				fieldGet = true
			}
		}
	}
	if !fieldGet {
		t.Fatal("expected a field.get of x")
	}
	var point *Type
	for i := range m.Types {
		if m.Types[i].Kind == TypeStruct && m.Types[i].Name == "Point" {
			point = &m.Types[i]
		}
	}
	if point == nil {
		t.Fatal("type table must carry Point")
	}
	if len(point.Fields) != 2 || point.Fields[0].Name != "x" {
		t.Fatalf("fields = %+v, want x and y", point.Fields)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m := lowerSource(t, "fun double(n: int) -> int {\n\treturn n * 2\n}\n")
	path := filepath.Join(t.TempDir(), "test.kir")

	if err := WriteFile(path, m); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok, err := ReadFile(path)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if got.Schema != Schema || got.File != "test.kr" {
		t.Fatalf("header = %d %q", got.Schema, got.File)
	}
	if len(got.Funcs) != len(m.Funcs) {
		t.Fatalf("funcs = %d, want %d", len(got.Funcs), len(m.Funcs))
	}
	a := findFunc(t, m, "double")
	b := findFunc(t, got, "double")
	if len(b.Blocks) != len(a.Blocks) || len(b.Registers) != len(a.Registers) {
		t.Fatal("round trip must preserve the CFG")
	}

	_, ok, err = ReadFile(filepath.Join(t.TempDir(), "missing.kir"))
	if err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
}

func TestDecodeRejectsWrongSchema(t *testing.T) {
	m := lowerSource(t, "print(1)\n")
	m.Schema = Schema + 1

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want schema mismatch", err)
	}
}

func TestDumpReadable(t *testing.T) {
	m := lowerSource(t, "fun double(n: int) -> int {\n\treturn n * 2\n}\n")
	var sb strings.Builder
	if err := Dump(&sb, m); err != nil {
		t.Fatalf("dump: %v", err)
	}
	text := sb.String()
	if !strings.Contains(text, "fn double(") {
		t.Fatalf("dump missing function header:\n%s", text)
	}
	if !strings.Contains(text, "return") {
		t.Fatalf("dump missing terminator:\n%s", text)
	}
}
