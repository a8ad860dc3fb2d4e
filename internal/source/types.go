package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about how a source file was loaded.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM indicates a byte order mark was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF indicates CRLF line endings were normalized.
	FileNormalizedCRLF
	// FileTranscodedUTF16 indicates the file was transcoded from UTF-16.
	FileTranscodedUTF16
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
