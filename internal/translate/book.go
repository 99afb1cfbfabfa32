package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgallion1/ihya/internal/corpus"
)

// MachineDir is the subdirectory of the alignment dir that holds machine
// translations, kept apart from proportional alignments of the same book.
const MachineDir = "machine"

// ErrBookBusy is returned when a book is already being translated.
var ErrBookBusy = errors.New("book is already being translated")

// Books translates books by name, reading "<SourceDir>/<book>.txt" and
// checkpointing to "<OutputDir>/<book>.json". One book runs at most once at a
// time.
type Books struct {
	Translator Translator
	SourceDir  string
	OutputDir  string

	active sync.Map
}

// CheckpointPath returns where the translation of book is kept.
func (b *Books) CheckpointPath(book string) string {
	return filepath.Join(b.OutputDir, book+".json")
}

// Translate runs one book.
func (b *Books) Translate(ctx context.Context, book string, limit int) (Summary, error) {
	return b.run(ctx, book, limit, b.Translator)
}

// TranslateBook runs one book and reports per-line progress.
func (b *Books) TranslateBook(ctx context.Context, book string, limit int, progress func(done, total int)) error {
	t := b.Translator
	t.Progress = progress
	_, err := b.run(ctx, book, limit, t)
	return err
}

func (b *Books) run(ctx context.Context, book string, limit int, t Translator) (Summary, error) {
	if _, busy := b.active.LoadOrStore(book, struct{}{}); busy {
		return Summary{Book: book}, fmt.Errorf("%s: %w", book, ErrBookBusy)
	}
	defer b.active.Delete(book)

	doc, err := corpus.LoadDocument(filepath.Join(b.SourceDir, book+".txt"))
	if err != nil {
		return Summary{Book: book}, fmt.Errorf("load source: %w", err)
	}
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return Summary{Book: book}, fmt.Errorf("create output dir: %w", err)
	}
	return t.Translate(ctx, book, doc.Lines, b.CheckpointPath(book), limit)
}
