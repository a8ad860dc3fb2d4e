package sema

import (
	"kairo/internal/ast"
	"kairo/internal/diag"
	"kairo/internal/source"
	"kairo/internal/symbols"
	"kairo/internal/types"
)

// Options configure the semantic passes over one file.
type Options struct {
	Reporter   diag.Reporter
	Resolution *symbols.Resolution
}

// Result stores the artefacts of all semantic passes. Later stages (IR
// lowering) consume it instead of revisiting the AST analyses.
type Result struct {
	Types *types.Interner

	// ExprTypes holds the single resolved type of every expression.
	// Complete only when TypesOK.
	ExprTypes map[ast.ExprID]types.TypeID
	// BindingTypes holds the resolved type per binding/param symbol.
	BindingTypes map[symbols.SymbolID]types.TypeID
	// FuncResults is each function's success type before the hidden result
	// wrapping.
	FuncResults map[ast.ItemID]types.TypeID
	// Fallible marks functions that can produce an error: they contain an
	// error(...) site or propagate one with try.
	Fallible map[ast.ItemID]bool
	// ErrorCalls marks error(...) call expressions for the normalizer.
	ErrorCalls map[ast.ExprID]bool

	// TypesOK reports that inference finished without errors. The passes
	// below only run when it is true.
	TypesOK bool

	Ownership *OwnershipInfo
	Moves     *MoveInfo
	Loops     map[ast.StmtID]LoopPlan
}

// Analyze runs inference, then the ownership, concurrency and
// parallelization passes. Inference always completes the whole file to
// surface maximal diagnostics; the dependent passes are skipped when it
// reported any error.
func Analyze(b *ast.Builder, fileID ast.FileID, opts Options) *Result {
	res := &Result{
		Types:        opts.Resolution.Table.Types,
		ExprTypes:    make(map[ast.ExprID]types.TypeID),
		BindingTypes: make(map[symbols.SymbolID]types.TypeID),
		FuncResults:  make(map[ast.ItemID]types.TypeID),
		Fallible:     make(map[ast.ItemID]bool),
		ErrorCalls:   make(map[ast.ExprID]bool),
		Loops:        make(map[ast.StmtID]LoopPlan),
	}
	counter := &countingReporter{next: opts.Reporter}

	inf := newInferencer(b, opts.Resolution, counter, res)
	inf.run(fileID)

	res.TypesOK = counter.errors == 0
	if !res.TypesOK {
		return res
	}

	own := newOwnership(b, opts.Resolution, counter, res)
	own.run(fileID)

	conc := newConcurrency(b, opts.Resolution, counter, res)
	conc.run(fileID)

	par := newParallel(b, opts.Resolution, counter, res)
	par.run(fileID)

	return res
}

// countingReporter forwards to the next reporter and counts errors so the
// pass gating can tell whether its stage stayed clean.
type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (c *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if sev == diag.SevError {
		c.errors++
	}
	if c.next != nil {
		c.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
