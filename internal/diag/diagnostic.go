package diag

import (
	"kairo/internal/source"
)

// Note attaches secondary context to a diagnostic (e.g. the original
// declaration site of a binding).
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is one machine-applicable text replacement.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested repair composed of one or more edits.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is a single immutable report produced by a compiler stage.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
