package token

import (
	"fmt"

	"kairo/internal/source"
)

// Token is one lexical unit of a Kairo source file.
type Token struct {
	Kind Kind
	Text string
	Span source.Span
}

func (t Token) String() string {
	if t.Text == "" || t.Kind.String() == t.Text {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
}

// Is reports whether the token has the given kind.
func (t Token) Is(k Kind) bool {
	return t.Kind == k
}
