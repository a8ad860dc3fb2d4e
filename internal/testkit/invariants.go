// Package testkit holds shared assertions for compiler tests.
package testkit

import (
	"testing"

	"fortio.org/safecast"

	"kairo/internal/ast"
	"kairo/internal/source"
)

// RequireSpanInvariants fails the test unless a parsed file satisfies the
// span contract: the file span is non-empty and inside the content, every
// item span is non-empty and inside the file span, and the file span covers
// the union of item spans.
func RequireSpanInvariants(t testing.TB, b *ast.Builder, fileID ast.FileID, sf *source.File) {
	t.Helper()
	if b == nil || sf == nil {
		t.Fatal("nil builder or file")
	}
	f := b.File(fileID)
	if f == nil {
		t.Fatal("file node not found")
	}

	if f.Span.End <= f.Span.Start {
		t.Fatalf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		t.Fatalf("file span names file %d, want %d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		t.Fatalf("len content overflow: %v", err)
	}
	if f.Span.End > lenContent {
		t.Fatalf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}

	var union source.Span
	haveItem := false
	for _, itemID := range f.Items {
		item := b.Items.Get(itemID)
		if item == nil {
			t.Fatalf("nil item for id=%d", itemID)
		}
		sp := item.Span
		switch {
		case sp.End <= sp.Start:
			t.Fatalf("empty item span: %v", sp)
		case sp.File != sf.ID:
			t.Fatalf("item span names file %d, want %d", sp.File, sf.ID)
		case sp.Start < f.Span.Start || sp.End > f.Span.End:
			t.Fatalf("item span %v outside file span %v", sp, f.Span)
		}
		if haveItem {
			union = union.Cover(sp)
		} else {
			union, haveItem = sp, true
		}
	}

	if haveItem && (union.Start < f.Span.Start || union.End > f.Span.End) {
		t.Fatalf("file span %v does not cover item union %v", f.Span, union)
	}
}
