package translate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/dgallion1/ihya/internal/pipeline"
	"github.com/dgallion1/ihya/internal/store"
)

// Translator translates a book line by line, resuming from its checkpoint.
type Translator struct {
	Client Completer
	// CheckpointEvery is the number of new lines between checkpoint writes.
	CheckpointEvery int
	// ContextTokens bounds the preceding lines sent with each prompt.
	ContextTokens int
	// ContextLines caps how many preceding lines are considered.
	ContextLines int
	Log          *slog.Logger
	// Progress, when set, is called after each translated line.
	Progress func(done, total int)
}

// Summary describes one Translate run.
type Summary struct {
	Book      string `json:"book"`
	Total     int    `json:"total"`
	Resumed   int    `json:"resumed"`
	Added     int    `json:"added"`
	Completed bool   `json:"completed"`
}

// Translate continues the translation of book from the records already in
// checkpointPath. At most limit new lines are translated when limit > 0.
// Progress is written every CheckpointEvery lines and before returning, also
// when ctx is cancelled or a line fails.
func (t *Translator) Translate(ctx context.Context, book string, lines []corpus.SourceLine, checkpointPath string, limit int) (Summary, error) {
	log := t.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("book", book)
	every := t.CheckpointEvery
	if every <= 0 {
		every = 5
	}

	records, err := loadCheckpoint(checkpointPath, lines)
	if err != nil {
		return Summary{}, err
	}
	if records == nil {
		records = []align.Record{}
	}
	sum := Summary{Book: book, Total: len(lines), Resumed: len(records)}
	if len(records) >= len(lines) {
		log.Info("book is already fully translated", "lines", len(lines))
		sum.Completed = true
		return sum, nil
	}
	log.Info("resuming translation", "from_line", len(records)+1, "total", len(lines))

	var runErr error
	for i := len(records); i < len(lines); i++ {
		if limit > 0 && sum.Added >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		text, err := t.translateLine(ctx, book, records, lines[i].Text, log)
		if err != nil {
			runErr = fmt.Errorf("line %d: %w", i+1, err)
			break
		}
		records = append(records, align.Record{SourceText: lines[i].Text, TranslatedText: text})
		sum.Added++
		log.Debug("translated line", "line", i+1)
		if t.Progress != nil {
			t.Progress(len(records), len(lines))
		}

		if sum.Added%every == 0 {
			if err := store.WriteJSON(checkpointPath, records); err != nil {
				return sum, fmt.Errorf("write checkpoint: %w", err)
			}
		}
	}

	if err := store.WriteJSON(checkpointPath, records); err != nil {
		return sum, fmt.Errorf("write checkpoint: %w", err)
	}
	sum.Completed = len(records) == len(lines)
	log.Info("translation saved", "added", sum.Added, "path", checkpointPath, "completed", sum.Completed)
	return sum, runErr
}

func (t *Translator) translateLine(ctx context.Context, book string, done []align.Record, line string, log *slog.Logger) (string, error) {
	window := done
	if t.ContextLines > 0 && len(window) > t.ContextLines {
		window = window[len(window)-t.ContextLines:]
	}
	pairs := make([]Pair, len(window))
	for i, r := range window {
		pairs[i] = Pair{Source: r.SourceText, Translation: r.TranslatedText}
	}
	prompt := BuildLinePrompt(book, pairs, line, t.ContextTokens)

	reply, err := pipeline.Retry(ctx, log, "translate line", func(ctx context.Context) (string, error) {
		return t.Client.Complete(ctx, SystemPrompt, prompt)
	})
	if err != nil {
		return "", err
	}
	return ValidateTranslation(line, reply)
}

// loadCheckpoint reads existing records. A missing file starts from scratch.
// Records must match the source lines they claim to translate.
func loadCheckpoint(path string, lines []corpus.SourceLine) ([]align.Record, error) {
	var records []align.Record
	err := store.ReadJSON(path, &records)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if len(records) > len(lines) {
		return nil, fmt.Errorf("checkpoint has %d records but the book has %d lines", len(records), len(lines))
	}
	for i, r := range records {
		if r.SourceText != lines[i].Text {
			return nil, fmt.Errorf("checkpoint line %d does not match the source text", i+1)
		}
	}
	return records, nil
}
