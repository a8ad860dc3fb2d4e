// Package diagfmt renders diagnostics, tokens and syntax trees for humans
// and for tooling.
package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prefers a path relative to the working directory and
	// falls back to the recorded path.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	// PathModeRelative is relative to the file set's base directory.
	PathModeRelative
	// PathModeBasename strips directories entirely.
	PathModeBasename
)

// PrettyOpts configures human-readable diagnostic output.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures JSON diagnostic output.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	Max              int // output truncation; the bag itself is untouched
	IncludeNotes     bool
	IncludeFixes     bool
}
