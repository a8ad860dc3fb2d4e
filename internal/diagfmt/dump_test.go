package diagfmt

import (
	"strings"
	"testing"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/token"
)

func TestFormatTokensPretty(t *testing.T) {
	fs, id := testFile(t, "x = 1\n")
	bag := diag.NewBag(16)
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})

	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	var sb strings.Builder
	FormatTokensPretty(&sb, tokens, fs)
	out := sb.String()
	if !strings.Contains(out, "\"x\"") {
		t.Fatalf("identifier text missing:\n%s", out)
	}
	if !strings.Contains(out, "eof") {
		t.Fatalf("eof missing:\n%s", out)
	}

	sb.Reset()
	if err := FormatTokensJSON(&sb, tokens); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(sb.String(), "\"kind\"") {
		t.Fatalf("json shape:\n%s", sb.String())
	}
}

func TestDumpAST(t *testing.T) {
	fs, id := testFile(t, "fun greet(name: str) {\n\tprint(name)\n}\n")
	bag := diag.NewBag(16)
	rep := diag.BagReporter{Bag: bag}
	b := ast.NewBuilder(nil, ast.Hints{})
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	fileID := parser.ParseFile(lx, b, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}

	var sb strings.Builder
	DumpAST(&sb, b, fileID)
	out := sb.String()
	for _, want := range []string{"func greet", "param name: str", "call", "ident print", "ident name"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in dump:\n%s", want, out)
		}
	}
}
