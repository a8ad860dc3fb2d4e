// Package driver runs the compilation pipeline: one file in, diagnostics
// and one IR unit out. Multi-file builds run file pipelines concurrently;
// IR emission is decided globally after every file has been analyzed.
package driver

import (
	"fmt"
	"runtime"
	"time"

	"github.com/xyproto/env/v2"

	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/ir"
	"kairo/internal/lexer"
	"kairo/internal/parser"
	"kairo/internal/sema"
	"kairo/internal/source"
	"kairo/internal/symbols"
	"kairo/internal/ui"
)

// Options configures one compilation.
type Options struct {
	// MaxDiagnostics caps the per-file bag; 0 uses DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Jobs bounds build parallelism; 0 consults KAIRO_JOBS, then NumCPU.
	Jobs int
	// OutDir receives .kir units; empty disables emission.
	OutDir string
	// Events, when set, receives per-file progress updates.
	Events chan<- ui.Event
}

// DefaultMaxDiagnostics is the per-file diagnostic cap.
const DefaultMaxDiagnostics = 100

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics > 0 {
		return o.MaxDiagnostics
	}
	return DefaultMaxDiagnostics
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return env.Int("KAIRO_JOBS", runtime.NumCPU())
}

func (o Options) notify(file string, stage ui.Stage, status ui.Status) {
	if o.Events != nil {
		o.Events <- ui.Event{File: file, Stage: stage, Status: status}
	}
}

// Result is everything one file pipeline produced. Module stays nil until
// Emit runs; a nil Module after a Build means errors blocked emission.
type Result struct {
	Path    string
	FileID  source.FileID
	Bag     *diag.Bag
	Builder *ast.Builder
	ASTFile ast.FileID
	Res     *symbols.Resolution
	Sem     *sema.Result
	Module  *ir.Module
	Timings Timings

	fs *source.FileSet
}

// FileSet returns the set the file was loaded into, for rendering spans.
func (r *Result) FileSet() *source.FileSet {
	return r.fs
}

// Analyze runs stages 1 through 8 on one file: load, lex, parse, bind,
// infer, and the gated semantic passes. It never emits IR.
func Analyze(fs *source.FileSet, path string, opts Options) (*Result, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return analyzeFile(fs, fileID, path, opts), nil
}

func analyzeFile(fs *source.FileSet, fileID source.FileID, path string, opts Options) *Result {
	r := &Result{Path: path, FileID: fileID, Bag: diag.NewBag(opts.maxDiagnostics()), fs: fs}
	// Resync storms can re-report the same span; dedup before the bag.
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: r.Bag})

	defer recoverICE(r.Bag, fileID)

	opts.notify(path, ui.StageParse, ui.StatusWorking)
	start := time.Now()
	r.Builder = ast.NewBuilder(nil, ast.Hints{})
	lx := lexer.New(fs.Get(fileID), lexer.Options{Reporter: rep})
	r.ASTFile = parser.ParseFile(lx, r.Builder, parser.Options{Reporter: rep})
	r.Timings.Parse = time.Since(start)

	opts.notify(path, ui.StageCheck, ui.StatusWorking)
	start = time.Now()
	table := symbols.NewTable(symbols.Hints{}, r.Builder.Strings, nil)
	r.Res = symbols.Bind(r.Builder, r.ASTFile, table, symbols.Options{Reporter: rep})
	r.Sem = sema.Analyze(r.Builder, r.ASTFile, sema.Options{Reporter: rep, Resolution: r.Res})
	r.Timings.Check = time.Since(start)

	r.Bag.Sort()
	if r.Bag.HasErrors() {
		opts.notify(path, ui.StageCheck, ui.StatusError)
	}
	return r
}

// Emit lowers an analyzed file to IR and, when opts.OutDir is set, writes
// the .kir unit. Callers must ensure the build is error-free first.
func (r *Result) Emit(opts Options) error {
	opts.notify(r.Path, ui.StageEmit, ui.StatusWorking)
	start := time.Now()

	defer recoverICE(r.Bag, r.FileID)
	r.Module = ir.Lower(r.Builder, r.Res, r.Sem, r.ASTFile, r.Path)
	r.Timings.Emit = time.Since(start)

	if opts.OutDir != "" {
		if err := ir.WriteFile(UnitPath(opts.OutDir, r.Path), r.Module); err != nil {
			opts.notify(r.Path, ui.StageEmit, ui.StatusError)
			return fmt.Errorf("write unit for %s: %w", r.Path, err)
		}
	}
	opts.notify(r.Path, ui.StageEmit, ui.StatusDone)
	return nil
}

// recoverICE converts a compiler panic into an internal-error diagnostic so
// one broken file cannot take down a multi-file build.
func recoverICE(bag *diag.Bag, fileID source.FileID) {
	if rec := recover(); rec != nil {
		bag.Add(diag.New(diag.SevError, diag.Internal,
			source.Span{File: fileID},
			fmt.Sprintf("internal compiler error: %v", rec)))
	}
}
