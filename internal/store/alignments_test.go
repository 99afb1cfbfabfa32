package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/ihya/internal/align"
)

func TestAlignmentDir(t *testing.T) {
	ctx := context.Background()
	d := AlignmentDir{Dir: filepath.Join(t.TempDir(), "translations")}

	books, err := d.Books()
	if err != nil || len(books) != 0 {
		t.Fatalf("expected no books for missing dir, got %v, %v", books, err)
	}

	recs := []align.Record{{SourceText: "قال", TranslatedText: "He said"}, {SourceText: "رحمه الله"}}
	if err := d.WriteAlignment(ctx, "book-2", recs); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteAlignment(ctx, "book-1", nil); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(d.Dir, "notes.txt"), []byte("x"), 0o644)

	books, err = d.Books()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 || books[0] != "book-1" || books[1] != "book-2" {
		t.Errorf("expected [book-1 book-2], got %v", books)
	}

	got, err := d.ReadAlignment("book-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != recs[0] || got[1] != recs[1] {
		t.Errorf("expected %+v, got %+v", recs, got)
	}

	raw, _ := os.ReadFile(filepath.Join(d.Dir, "book-1.json"))
	if string(raw) != "[]\n" {
		t.Errorf("expected empty array for book-1, got %q", raw)
	}
}

type countingSink struct{ n int }

func (s *countingSink) WriteAlignment(context.Context, string, []align.Record) error {
	s.n++
	return nil
}

func TestSinks(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	if err := (Sinks{a, b}).WriteAlignment(context.Background(), "x", nil); err != nil {
		t.Fatal(err)
	}
	if a.n != 1 || b.n != 1 {
		t.Errorf("expected both sinks written once, got %d and %d", a.n, b.n)
	}
}
