package source

import (
	"bytes"
	"path/filepath"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// normalizeCRLF rewrites \r\n pairs to \n, leaving lone \r untouched.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// decodeContent strips a UTF-8 BOM and transcodes UTF-16 input (detected by
// its BOM) to UTF-8. Plain UTF-8 without a BOM passes through unchanged.
func decodeContent(content []byte) ([]byte, FileFlags, error) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return content[len(bomUTF8):], FileHadBOM, nil
	case bytes.HasPrefix(content, bomUTF16BE), bytes.HasPrefix(content, bomUTF16LE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, content)
		if err != nil {
			return nil, 0, err
		}
		return out, FileHadBOM | FileTranscodedUTF16, nil
	default:
		return content, 0, nil
	}
}

// buildLineIndex records the byte offset of every \n in content.
func buildLineIndex(content []byte) []uint32 {
	var out []uint32
	for i, b := range content {
		if b == '\n' {
			out = append(out, uint32(i)) //nolint:gosec // i < len(content) <= max file size
		}
	}
	return out
}

// toLineCol converts a byte offset into a 1-based line/column pair using the
// precomputed newline index. A newline character belongs to the line it ends.
func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// Binary search for the number of newlines strictly before off.
	lo, hi := 0, len(lineIdx)
	for lo < hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	line := lo // 0-based line number

	var startOff uint32
	if line > 0 {
		startOff = lineIdx[line-1] + 1
	}
	return LineCol{Line: uint32(line) + 1, Col: off - startOff + 1} //nolint:gosec // line count fits uint32
}

func normalizePath(p string) string {
	// One canonical shape for cross-platform diffs.
	return filepath.ToSlash(filepath.Clean(p))
}
