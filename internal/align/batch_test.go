package align

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type memorySink struct {
	mu    sync.Mutex
	books map[string][]Record
	fail  string
}

func (s *memorySink) WriteAlignment(_ context.Context, book string, records []Record) error {
	if book == s.fail {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.books == nil {
		s.books = make(map[string][]Record)
	}
	s.books[book] = records
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBooks(t *testing.T) {
	src := t.TempDir()
	tr := t.TempDir()

	writeFile(t, filepath.Join(src, "book-1.txt"), "alpha\nbeta\n\ngamma\ndelta\n")
	writeFile(t, filepath.Join(tr, "book-1.txt"), "First block.\n\nSecond block.\n")

	writeFile(t, filepath.Join(src, "book-2.txt"), "one\ntwo\n")
	writeFile(t, filepath.Join(tr, "book-2.md"), "")

	writeFile(t, filepath.Join(tr, "orphan.txt"), "No source for this.\n")

	writeFile(t, filepath.Join(src, "empty.txt"), "\n\n")
	writeFile(t, filepath.Join(tr, "empty.txt"), "Something.\n")

	writeFile(t, filepath.Join(tr, "notes.pdf"), "ignored")

	sink := &memorySink{}
	var progress []int
	report, err := Books(context.Background(), BatchOptions{
		SourceDir:     src,
		TranslatedDir: tr,
		Sink:          sink,
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Progress:      func(done, total int) { progress = append(progress, done) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Aligned) != 2 || report.Aligned[0] != "book-1" || report.Aligned[1] != "book-2" {
		t.Errorf("expected aligned [book-1 book-2], got %v", report.Aligned)
	}
	if len(report.Degenerate) != 1 || report.Degenerate[0] != "book-2" {
		t.Errorf("expected degenerate [book-2], got %v", report.Degenerate)
	}
	if _, ok := report.Skipped["orphan"]; !ok {
		t.Errorf("expected orphan to be skipped, got %v", report.Skipped)
	}
	if _, ok := report.Skipped["empty"]; !ok {
		t.Errorf("expected empty to be skipped, got %v", report.Skipped)
	}
	if len(progress) != 4 {
		t.Errorf("expected 4 progress calls, got %d", len(progress))
	}

	recs := sink.books["book-1"]
	if len(recs) != 4 {
		t.Fatalf("expected 4 records for book-1, got %d", len(recs))
	}
	if recs[0].TranslatedText != "First block." || recs[2].TranslatedText != "Second block." {
		t.Errorf("unexpected records: %+v", recs)
	}
	if recs[1].TranslatedText != "" || recs[3].TranslatedText != "" {
		t.Errorf("expected continuation lines to be empty: %+v", recs)
	}
	if len(sink.books["book-2"]) != 2 {
		t.Errorf("expected degenerate book to still be written")
	}
}

func TestBooks_SinkFailureSkipsBook(t *testing.T) {
	src := t.TempDir()
	tr := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "x\n")
	writeFile(t, filepath.Join(tr, "a.txt"), "X.\n")
	writeFile(t, filepath.Join(src, "b.txt"), "y\n")
	writeFile(t, filepath.Join(tr, "b.txt"), "Y.\n")

	report, err := Books(context.Background(), BatchOptions{
		SourceDir:     src,
		TranslatedDir: tr,
		Sink:          &memorySink{fail: "a"},
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := report.Skipped["a"]; !ok {
		t.Errorf("expected a to be skipped")
	}
	if len(report.Aligned) != 1 || report.Aligned[0] != "b" {
		t.Errorf("expected aligned [b], got %v", report.Aligned)
	}
}

func TestBooks_MissingDir(t *testing.T) {
	_, err := Books(context.Background(), BatchOptions{TranslatedDir: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("expected error for missing translated dir")
	}
}
