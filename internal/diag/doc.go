// Package diag defines the diagnostic model shared by every compiler stage:
// severities, stable codes, spans, notes, machine-applicable fix-its, the
// Bag sink that accumulates diagnostics for a whole compilation, and the
// Reporter contract stages emit through.
//
// Lifecycle: a Bag is created at the start of a compilation unit, filled by
// the stages, and drained at the end. Diagnostics are never mutated after
// creation, and no Bag survives across independent compilations.
package diag
