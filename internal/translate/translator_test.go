package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/dgallion1/ihya/internal/store"
)

// fakeCompleter answers with "line N" for the source line "سطر N".
type fakeCompleter struct {
	prompts []string
	failAt  string
	reply   func(line string) string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	line := prompt[strings.LastIndex(prompt, "TRANSLATE:\n")+len("TRANSLATE:\n"):]
	if line == f.failAt {
		return "", errors.New("model unavailable")
	}
	if f.reply != nil {
		return f.reply(line), nil
	}
	return strings.Replace(line, "سطر", "line", 1), nil
}

func sourceLines(n int) []corpus.SourceLine {
	lines := make([]corpus.SourceLine, n)
	for i := range lines {
		lines[i] = corpus.SourceLine{Index: i, Text: fmt.Sprintf("سطر %d", i+1)}
	}
	return lines
}

func newTranslator(c Completer) *Translator {
	return &Translator{
		Client:          c,
		CheckpointEvery: 3,
		ContextTokens:   100,
		ContextLines:    2,
		Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func readCheckpoint(t *testing.T, path string) []align.Record {
	t.Helper()
	var records []align.Record
	if err := store.ReadJSON(path, &records); err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	return records
}

func TestTranslate_FullBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	fake := &fakeCompleter{}

	sum, err := newTranslator(fake).Translate(context.Background(), "book-1", sourceLines(7), path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Added != 7 || sum.Resumed != 0 || !sum.Completed {
		t.Errorf("unexpected summary: %+v", sum)
	}
	records := readCheckpoint(t, path)
	if len(records) != 7 {
		t.Fatalf("expected 7 records, got %d", len(records))
	}
	if records[6].SourceText != "سطر 7" || records[6].TranslatedText != "line 7" {
		t.Errorf("unexpected last record: %+v", records[6])
	}
	// Context is capped at the two preceding lines.
	last := fake.prompts[6]
	if strings.Contains(last, "line 4") || !strings.Contains(last, "line 5") || !strings.Contains(last, "line 6") {
		t.Errorf("expected context of lines 5 and 6 only, got %q", last)
	}
}

func TestTranslate_ResumesWithLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	done := []align.Record{
		{SourceText: "سطر 1", TranslatedText: "line 1"},
		{SourceText: "سطر 2", TranslatedText: "line 2"},
	}
	if err := store.WriteJSON(path, done); err != nil {
		t.Fatal(err)
	}
	fake := &fakeCompleter{}

	sum, err := newTranslator(fake).Translate(context.Background(), "book-1", sourceLines(7), path, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Resumed != 2 || sum.Added != 3 || sum.Completed {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(fake.prompts) != 3 {
		t.Errorf("expected 3 model calls, got %d", len(fake.prompts))
	}
	if !strings.Contains(fake.prompts[0], "سطر 2\n=> line 2") {
		t.Errorf("expected resumed prompt to carry checkpoint context, got %q", fake.prompts[0])
	}
	if got := len(readCheckpoint(t, path)); got != 5 {
		t.Errorf("expected 5 records, got %d", got)
	}
}

func TestTranslate_AlreadyComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	fake := &fakeCompleter{}
	tr := newTranslator(fake)
	if _, err := tr.Translate(context.Background(), "book-1", sourceLines(3), path, 0); err != nil {
		t.Fatal(err)
	}
	calls := len(fake.prompts)

	sum, err := tr.Translate(context.Background(), "book-1", sourceLines(3), path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sum.Completed || sum.Added != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(fake.prompts) != calls {
		t.Errorf("expected no model calls for a finished book, got %d", len(fake.prompts)-calls)
	}
}

func TestTranslate_FailureKeepsProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	fake := &fakeCompleter{failAt: "سطر 5"}

	sum, err := newTranslator(fake).Translate(context.Background(), "book-1", sourceLines(7), path, 0)
	if err == nil {
		t.Fatal("expected error from failing line")
	}
	if !strings.Contains(err.Error(), "line 5") {
		t.Errorf("expected error to name line 5, got %v", err)
	}
	if sum.Added != 4 || sum.Completed {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if got := len(readCheckpoint(t, path)); got != 4 {
		t.Errorf("expected 4 saved records, got %d", got)
	}
}

func TestTranslate_RejectsUntranslatedReply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	fake := &fakeCompleter{reply: func(line string) string { return line }}

	_, err := newTranslator(fake).Translate(context.Background(), "book-1", sourceLines(2), path, 0)
	if !errors.Is(err, ErrUntranslated) {
		t.Errorf("expected ErrUntranslated, got %v", err)
	}
}

func TestTranslate_MismatchedCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	if err := store.WriteJSON(path, []align.Record{{SourceText: "other", TranslatedText: "x"}}); err != nil {
		t.Fatal(err)
	}
	_, err := newTranslator(&fakeCompleter{}).Translate(context.Background(), "book-1", sourceLines(2), path, 0)
	if err == nil {
		t.Error("expected error for checkpoint from another book")
	}
}

func TestTranslate_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book-1.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newTranslator(&fakeCompleter{}).Translate(ctx, "book-1", sourceLines(2), path, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if sum.Added != 0 {
		t.Errorf("expected nothing translated, got %d", sum.Added)
	}
}

func TestBooks_TranslateBook(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "processed")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "book-1.txt"), []byte("سطر 1\n\nسطر 2\nسطر 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := &Books{
		Translator: *newTranslator(&fakeCompleter{}),
		SourceDir:  src,
		OutputDir:  filepath.Join(root, "translations", MachineDir),
	}

	var calls, lastDone, lastTotal int
	err := b.TranslateBook(context.Background(), "book-1", 0, func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 || lastDone != 3 || lastTotal != 3 {
		t.Errorf("expected 3 progress calls ending at 3/3, got %d calls ending at %d/%d", calls, lastDone, lastTotal)
	}
	if b.Translator.Progress != nil {
		t.Error("expected TranslateBook not to modify the shared translator")
	}
	if got := len(readCheckpoint(t, b.CheckpointPath("book-1"))); got != 3 {
		t.Errorf("expected 3 records, got %d", got)
	}

	if err := b.TranslateBook(context.Background(), "missing", 0, nil); err == nil {
		t.Error("expected error for a book without source text")
	}
}

func TestBooks_RejectsConcurrentRun(t *testing.T) {
	b := &Books{SourceDir: t.TempDir(), OutputDir: t.TempDir()}
	b.active.Store("book-1", struct{}{})
	if _, err := b.Translate(context.Background(), "book-1", 0); !errors.Is(err, ErrBookBusy) {
		t.Errorf("expected ErrBookBusy, got %v", err)
	}
}
