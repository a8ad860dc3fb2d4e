package token

import (
	"testing"
)

func TestLookupKeyword_Positive(t *testing.T) {
	cases := map[string]Kind{
		"fun":    KwFun,
		"if":     KwIf,
		"else":   KwElse,
		"for":    KwFor,
		"in":     KwIn,
		"return": KwReturn,
		"try":    KwTry,
		"must":   KwMust,
		"spawn":  KwSpawn,
		"await":  KwAwait,
		"type":   KwType,
		"weak":   KwWeak,
		"true":   KwTrue,
		"false":  KwFalse,
	}

	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok {
			t.Fatalf("LookupKeyword(%q) = !ok, want %v", lexeme, want)
		}
		if got != want {
			t.Fatalf("LookupKeyword(%q) = %v, want %v", lexeme, got, want)
		}
	}
}

func TestLookupKeyword_Negative(t *testing.T) {
	notKw := []string{
		"Fun", "IF", "Spawn", // case matters
		"int", "float", "string", "bool", // type names are Ident
		"print", "error", "send", "recv", "channel", // builtins are Ident
		"identifier",
	}
	for _, s := range notKw {
		if _, ok := LookupKeyword(s); ok {
			t.Fatalf("LookupKeyword(%q) returned ok=true, want false", s)
		}
	}
}

func TestKindString(t *testing.T) {
	if KwFun.String() != "fun" {
		t.Fatalf("KwFun = %q", KwFun.String())
	}
	if Arrow.String() != "->" {
		t.Fatalf("Arrow = %q", Arrow.String())
	}
	if !KwWeak.IsKeyword() {
		t.Fatal("weak must be a keyword")
	}
	if Ident.IsKeyword() {
		t.Fatal("ident must not be a keyword")
	}
	if !FloatLit.IsLiteral() || !KwTrue.IsLiteral() {
		t.Fatal("literal classification broken")
	}
}
