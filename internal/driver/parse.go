package driver

import (
	"fmt"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/source"
)

// ParseResult is the output of the parse command: the syntax tree plus
// lexer and parser diagnostics, with nothing bound or typed yet.
type ParseResult struct {
	Path    string
	FileID  source.FileID
	Builder *ast.Builder
	ASTFile ast.FileID
	Bag     *diag.Bag
	fs      *source.FileSet
}

// FileSet returns the set the file was loaded into.
func (r *ParseResult) FileSet() *source.FileSet {
	return r.fs
}

// Parse lexes and parses one file without running semantic analysis.
func Parse(fs *source.FileSet, path string, opts Options) (*ParseResult, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	r := &ParseResult{Path: path, FileID: fileID, Bag: diag.NewBag(opts.maxDiagnostics()), fs: fs}
	rep := diag.BagReporter{Bag: r.Bag}

	defer recoverICE(r.Bag, fileID)
	r.Builder = ast.NewBuilder(nil, ast.Hints{})
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: rep})
	r.ASTFile = parser.ParseFile(lx, r.Builder, parser.Options{Reporter: rep})
	r.Bag.Sort()
	return r, nil
}
