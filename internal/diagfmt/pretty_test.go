package diagfmt

import (
	"strings"
	"testing"

	"kairo/internal/diag"
	"kairo/internal/source"
)

func testFile(t *testing.T, src string) (*source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kr", []byte(src))
	return fs, id
}

func TestPrettyHeaderAndCaret(t *testing.T) {
	fs, id := testFile(t, "x = 1 + 2.0\n")
	bag := diag.NewBag(16)
	span := source.Span{File: id, Start: 6, End: 7}
	bag.Add(diag.New(diag.SevError, diag.TypeNoCoercion, span,
		"cannot mix int and float without a conversion"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := sb.String()

	if !strings.Contains(out, "test.kr:1:7: ERROR KAI4002: cannot mix int and float") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "   1 | x = 1 + 2.0") {
		t.Fatalf("missing source line:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	caret := ""
	for _, l := range lines {
		if strings.Contains(l, "^") {
			caret = l
		}
	}
	if caret != "     | "+strings.Repeat(" ", 6)+"^" {
		t.Fatalf("caret line = %q", caret)
	}
}

func TestPrettyUnderlinesWholeSpan(t *testing.T) {
	fs, id := testFile(t, "x = 1 + 2.0\n")
	bag := diag.NewBag(16)
	span := source.Span{File: id, Start: 8, End: 11}
	bag.Add(diag.New(diag.SevError, diag.TypeMismatch, span, "unexpected float"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if !strings.Contains(sb.String(), "^~~") {
		t.Fatalf("span underline missing:\n%s", sb.String())
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs, id := testFile(t, "x = 1 + 2.0\n")
	bag := diag.NewBag(16)
	opSpan := source.Span{File: id, Start: 6, End: 7}
	lhsSpan := source.Span{File: id, Start: 4, End: 5}
	d := diag.New(diag.SevError, diag.TypeNoCoercion, opSpan, "cannot mix int and float").
		WithNote(lhsSpan, "this side is an int").
		WithFix("wrap the int in float(...)",
			diag.FixEdit{Span: source.Span{File: id, Start: 4, End: 4}, NewText: "float("},
			diag.FixEdit{Span: source.Span{File: id, Start: 5, End: 5}, NewText: ")"})
	bag.Add(d)

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	out := sb.String()

	if !strings.Contains(out, "note: this side is an int") {
		t.Fatalf("note missing:\n%s", out)
	}
	if !strings.Contains(out, "help: wrap the int in float(...)") {
		t.Fatalf("fix title missing:\n%s", out)
	}
	if !strings.Contains(out, "float(1") {
		t.Fatalf("edit preview missing:\n%s", out)
	}
}

func TestPrettySeverityWords(t *testing.T) {
	fs, id := testFile(t, "for x in xs { }\n")
	bag := diag.NewBag(16)
	span := source.Span{File: id, Start: 0, End: 3}
	bag.Add(diag.New(diag.SevInfo, diag.NoteLoopParallel, span,
		"this loop runs its iterations in parallel"))
	bag.Add(diag.New(diag.SevWarning, diag.NoteLoopSequential, span,
		"this loop stays sequential"))

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := sb.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "WARNING") {
		t.Fatalf("severity words missing:\n%s", out)
	}
}
