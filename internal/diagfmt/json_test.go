package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"kairo/internal/diag"
	"kairo/internal/source"
)

func TestJSONOutputShape(t *testing.T) {
	fs, id := testFile(t, "x = 1 + 2.0\n")
	bag := diag.NewBag(16)
	span := source.Span{File: id, Start: 6, End: 7}
	bag.Add(diag.New(diag.SevError, diag.TypeNoCoercion, span, "cannot mix int and float").
		WithNote(source.Span{File: id, Start: 4, End: 5}, "this side is an int").
		WithFix("wrap the int in float(...)",
			diag.FixEdit{Span: source.Span{File: id, Start: 4, End: 4}, NewText: "float("}))

	var sb strings.Builder
	err := JSON(&sb, bag, fs, JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "KAI4002" || d.Severity != "ERROR" {
		t.Fatalf("head = %s %s", d.Code, d.Severity)
	}
	if d.Location.File != "test.kr" || d.Location.StartLine != 1 || d.Location.StartCol != 7 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "this side is an int" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 || d.Fixes[0].Edits[0].NewText != "float(" {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
}

func TestJSONTruncatesAtMax(t *testing.T) {
	fs, id := testFile(t, "x = 1\ny = 2\nz = 3\n")
	bag := diag.NewBag(16)
	for i := uint32(0); i < 3; i++ {
		bag.Add(diag.New(diag.SevError, diag.TypeMismatch,
			source.Span{File: id, Start: i * 6, End: i*6 + 1}, "mismatch"))
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2, PathMode: PathModeBasename})
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d, want 2", out.Count)
	}
	if bag.Len() != 3 {
		t.Fatal("truncation must not touch the bag")
	}
}

func TestJSONOmitsEmptySections(t *testing.T) {
	fs, id := testFile(t, "x = 1\n")
	bag := diag.NewBag(16)
	bag.Add(diag.New(diag.SevError, diag.TypeMismatch,
		source.Span{File: id, Start: 0, End: 1}, "mismatch"))

	var sb strings.Builder
	if err := JSON(&sb, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Contains(sb.String(), "\"notes\"") || strings.Contains(sb.String(), "\"fixes\"") {
		t.Fatalf("empty sections must be omitted:\n%s", sb.String())
	}
	if strings.Contains(sb.String(), "start_line") {
		t.Fatal("positions must be off by default")
	}
}
