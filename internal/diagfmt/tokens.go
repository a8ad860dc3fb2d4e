package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"kairo/internal/source"
	"kairo/internal/token"
)

// TokenOutput is one token in JSON form.
type TokenOutput struct {
	Kind string      `json:"kind"`
	Text string      `json:"text,omitempty"`
	Span source.Span `json:"span"`
}

// FormatTokensPretty writes a numbered token listing.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) {
	for i, tok := range tokens {
		start, end := fs.Resolve(tok.Span)
		fmt.Fprintf(w, "%3d: %-12s", i+1, tok.Kind.String())
		if tok.Text != "" && tok.Text != tok.Kind.String() {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d\n", start.Line, start.Col, end.Line, end.Col)
		if tok.Kind == token.EOF {
			break
		}
	}
}

// FormatTokensJSON writes the token stream for tooling.
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind: tok.Kind.String(),
			Text: tok.Text,
			Span: tok.Span,
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
