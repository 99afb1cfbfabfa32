package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/dgallion1/ihya/internal/parser"
)

// ErrNoSource is reported when a translated file has no matching source text.
var ErrNoSource = errors.New("source text not found")

// Sink persists the aligned records of one book.
type Sink interface {
	WriteAlignment(ctx context.Context, book string, records []Record) error
}

// BatchOptions configures Books.
type BatchOptions struct {
	SourceDir     string // <book>.txt source texts
	TranslatedDir string // <book>.<ext> translated material
	Sink          Sink
	Log           *slog.Logger
	// Progress, if set, is called after each book with the number done and total.
	Progress func(done, total int)
}

// BatchReport summarises a Books run.
type BatchReport struct {
	Aligned    []string          `json:"aligned"`
	Degenerate []string          `json:"degenerate"`
	Skipped    map[string]string `json:"skipped"`
}

// Books aligns every translated file in TranslatedDir with the source text of
// the same stem. A failure on one book is logged and the book is skipped.
func Books(ctx context.Context, opts BatchOptions) (BatchReport, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	report := BatchReport{Skipped: make(map[string]string)}

	files, err := translatedFiles(opts.TranslatedDir)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		log.Warn("no translated files found", "dir", opts.TranslatedDir)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		book := corpus.Stem(path)
		blog := log.With("book", book)

		degenerate, err := alignBook(ctx, book, path, opts)
		switch {
		case err != nil:
			blog.Warn("skipping book", "error", err)
			report.Skipped[book] = err.Error()
		case degenerate:
			blog.Warn("no translated blocks, all lines emitted unmatched")
			report.Degenerate = append(report.Degenerate, book)
			report.Aligned = append(report.Aligned, book)
		default:
			report.Aligned = append(report.Aligned, book)
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(files))
		}
	}

	log.Info("alignment complete",
		"aligned", len(report.Aligned),
		"degenerate", len(report.Degenerate),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func alignBook(ctx context.Context, book, translatedPath string, opts BatchOptions) (bool, error) {
	sourcePath := filepath.Join(opts.SourceDir, book+".txt")
	if _, err := os.Stat(sourcePath); err != nil {
		return false, fmt.Errorf("%w: %s", ErrNoSource, sourcePath)
	}
	doc, err := corpus.LoadDocument(sourcePath)
	if err != nil {
		return false, err
	}
	if len(doc.Lines) == 0 {
		return false, fmt.Errorf("%s: %w", sourcePath, corpus.ErrNoLines)
	}

	blocks, err := parser.ParseFile(translatedPath)
	if err != nil {
		return false, err
	}

	res := Align(doc.Lines, blocks)
	if opts.Sink != nil {
		if err := opts.Sink.WriteAlignment(ctx, book, res.Records); err != nil {
			return false, fmt.Errorf("write alignment: %w", err)
		}
	}
	return res.Degenerate, nil
}

func translatedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read translated dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
