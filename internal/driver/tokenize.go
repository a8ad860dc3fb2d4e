package driver

import (
	"fmt"

	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/source"
	"kairo/internal/token"
)

// TokenizeResult is the output of the tokenize command: the raw token
// stream plus anything the lexer complained about.
type TokenizeResult struct {
	Path   string
	FileID source.FileID
	Tokens []token.Token
	Bag    *diag.Bag
	fs     *source.FileSet
}

// FileSet returns the set the file was loaded into.
func (r *TokenizeResult) FileSet() *source.FileSet {
	return r.fs
}

// Tokenize lexes one file to completion without parsing it.
func Tokenize(fs *source.FileSet, path string, opts Options) (*TokenizeResult, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	r := &TokenizeResult{Path: path, FileID: fileID, Bag: diag.NewBag(opts.maxDiagnostics()), fs: fs}
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: r.Bag}})
	for {
		tok := lx.Next()
		r.Tokens = append(r.Tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	r.Bag.Sort()
	return r, nil
}
