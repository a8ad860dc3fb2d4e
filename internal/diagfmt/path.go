package diagfmt

import (
	"os"
	"path/filepath"
	"strings"

	"kairo/internal/source"
)

// displayPath renders a file's path according to the requested mode.
func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
		return f.Path
	case PathModeRelative:
		if rel, err := filepath.Rel(fs.BaseDir(), f.Path); err == nil {
			return rel
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, f.Path); err == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
		return f.Path
	}
}
