package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/dgallion1/ihya/internal/dictionary"
	"github.com/dgallion1/ihya/internal/parser"
	"github.com/dgallion1/ihya/internal/pipeline"
	"github.com/dgallion1/ihya/internal/store"
	"github.com/dgallion1/ihya/internal/translate"
)

// AlignCmd runs the proportional aligner over every translated book.
type AlignCmd struct {
	SourceDir     string `name:"source-dir" help:"Directory of <book>.txt source texts." type:"path"`
	TranslatedDir string `name:"translated-dir" help:"Directory of translated material." type:"path"`
	Out           string `name:"out" help:"Directory for <book>.json alignments." type:"path"`
	SQLite        string `name:"sqlite" help:"Also store alignments in this SQLite catalog." type:"path"`
}

func (c *AlignCmd) Run(a *app) error {
	dir := store.AlignmentDir{Dir: pick(c.Out, a.cfg.AlignmentDir)}
	if err := os.MkdirAll(dir.Dir, 0o755); err != nil {
		return fmt.Errorf("create alignment dir: %w", err)
	}

	var sink align.Sink = dir
	catalog, err := openCatalog(a.ctx, pick(c.SQLite, a.cfg.SQLitePath))
	if err != nil {
		return err
	}
	if catalog != nil {
		defer catalog.Close()
		sink = store.Sinks{dir, catalog}
	}

	report, err := align.Books(a.ctx, align.BatchOptions{
		SourceDir:     pick(c.SourceDir, a.cfg.SourceDir),
		TranslatedDir: pick(c.TranslatedDir, a.cfg.TranslatedDir),
		Sink:          sink,
		Log:           a.log,
	})
	if err != nil {
		return err
	}
	a.log.Info("alignment finished",
		"aligned", len(report.Aligned),
		"degenerate", len(report.Degenerate),
		"skipped", len(report.Skipped),
		"out", dir.Dir,
	)
	return nil
}

// IndexCmd builds the citation index.
type IndexCmd struct {
	SourceDir string `name:"source-dir" help:"Directory of <book>.txt source texts." type:"path"`
	Out       string `name:"out" help:"Index path; a .xz suffix compresses it." type:"path"`
	SQLite    string `name:"sqlite" help:"Also store the index in this SQLite catalog." type:"path"`
	Workers   int    `name:"workers" help:"Concurrent oracle calls."`
	Radius    int    `name:"radius" help:"Context radius in words."`
	Selector  string `name:"selector" help:"Oracle selector."`
	Check     bool   `name:"check" help:"Rebuild in memory and report drift from the existing index instead of writing."`
}

func (c *IndexCmd) Run(a *app) error {
	if err := a.cfg.ValidateIndex(); err != nil {
		return err
	}
	o, err := newOracle(a.cfg, a.log)
	if err != nil {
		return err
	}
	builder := newBuilder(a.cfg, o)
	builder.Workers = pickInt(c.Workers, builder.Workers)
	builder.Radius = pickInt(c.Radius, builder.Radius)
	builder.Selector = pick(c.Selector, builder.Selector)
	builder.Log = a.log

	indexPath := pick(c.Out, a.cfg.IndexPath)
	idx, report, err := pipeline.BuildIndex(a.ctx, pick(c.SourceDir, a.cfg.SourceDir), &builder, a.log)
	if err != nil {
		return err
	}

	if c.Check {
		fresh, err := store.Encode(idx)
		if err != nil {
			return fmt.Errorf("encode index: %w", err)
		}
		diff, changed, err := store.Drift(indexPath, fresh)
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprint(os.Stdout, diff)
			return errors.New("citation index is out of date")
		}
		a.log.Info("citation index is up to date", "path", indexPath, "keys", idx.Len())
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	catalog, err := openCatalog(a.ctx, pick(c.SQLite, a.cfg.SQLitePath))
	if err != nil {
		return err
	}
	if catalog != nil {
		defer catalog.Close()
	}
	if err := pipeline.WriteIndex(a.ctx, idx, report, indexPath, catalog); err != nil {
		return err
	}
	a.log.Info("citation index written",
		"path", indexPath,
		"documents", len(report.Documents),
		"failed", len(report.Failed),
		"keys", report.Keys,
		"occurrences", report.Total,
	)
	return nil
}

// TranscriptCmd aligns a lecture transcript with one book.
type TranscriptCmd struct {
	VTT       string `arg:"" help:"WebVTT caption file." type:"existingfile"`
	Book      string `arg:"" help:"Book name; its source is <source-dir>/<book>.txt."`
	SourceDir string `name:"source-dir" help:"Directory of <book>.txt source texts." type:"path"`
	Out       string `name:"out" help:"Directory for the <book>.json alignment." type:"path"`
}

func (c *TranscriptCmd) Run(a *app) error {
	doc, err := corpus.LoadDocument(filepath.Join(pick(c.SourceDir, a.cfg.SourceDir), c.Book+".txt"))
	if err != nil {
		return err
	}
	f, err := os.Open(c.VTT)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	text, err := parser.ParseVTT(f)
	if err != nil {
		return err
	}

	records := align.AlignTranscript(doc.Lines, text)
	dir := store.AlignmentDir{Dir: pick(c.Out, a.cfg.AlignmentDir)}
	if err := os.MkdirAll(dir.Dir, 0o755); err != nil {
		return fmt.Errorf("create alignment dir: %w", err)
	}
	if err := dir.WriteAlignment(a.ctx, c.Book, records); err != nil {
		return err
	}
	a.log.Info("transcript aligned", "book", c.Book, "lines", len(records), "words", len(corpus.Tokenize(text)))
	return nil
}

// TranslateCmd runs the checkpointed machine translation of one book.
type TranslateCmd struct {
	Book      string `arg:"" help:"Book name; its source is <source-dir>/<book>.txt."`
	Limit     int    `name:"limit" help:"Translate at most this many new lines (0 = all)."`
	SourceDir string `name:"source-dir" help:"Directory of <book>.txt source texts." type:"path"`
	Out       string `name:"out" help:"Directory for <book>.json checkpoints." type:"path"`
}

func (c *TranslateCmd) Run(a *app) error {
	if err := a.cfg.ValidateTranslate(); err != nil {
		return err
	}
	stats := translate.NewLLMStats(0)
	client := translate.NewClaudeClient(a.cfg.AnthropicAPIKey, a.cfg.AnthropicModel, stats)
	defer client.Close()

	books := newTranslationBooks(a.cfg, client, a.log)
	books.SourceDir = pick(c.SourceDir, books.SourceDir)
	books.OutputDir = pick(c.Out, books.OutputDir)

	sum, err := books.Translate(a.ctx, c.Book, c.Limit)
	snap := stats.Snapshot()
	a.log.Info("translation run finished",
		"book", c.Book,
		"added", sum.Added,
		"resumed", sum.Resumed,
		"total", sum.Total,
		"completed", sum.Completed,
		"calls", snap.Count,
		"failed_calls", snap.Failed,
		"avg_ms", snap.AvgMs,
	)
	return err
}

// DictBuildCmd builds dictionary shards.
type DictBuildCmd struct {
	Input string `arg:"" help:"JSON array of {word, explanation} entries." type:"existingfile"`
	Out   string `name:"out" help:"Directory for the shards." type:"path"`
}

func (c *DictBuildCmd) Run(a *app) error {
	entries, err := dictionary.LoadEntries(c.Input)
	if err != nil {
		return err
	}
	dict, report := dictionary.Build(entries)
	dir := pick(c.Out, a.cfg.DictionaryDir)
	shards, err := dictionary.WriteShards(dir, dict)
	if err != nil {
		return err
	}
	a.log.Info("dictionary built",
		"entries", report.Entries,
		"words", report.Words,
		"merged", report.Merged,
		"skipped", report.Skipped,
		"shards", len(shards),
		"out", dir,
	)
	return nil
}

// DictLookupCmd prints one dictionary definition as JSON.
type DictLookupCmd struct {
	Word string `arg:"" help:"Word to look up."`
	Dir  string `name:"dir" help:"Directory of the shards." type:"path"`
}

func (c *DictLookupCmd) Run(a *app) error {
	l := dictionary.NewLookup(pick(c.Dir, a.cfg.DictionaryDir), a.log)
	def, err := l.Define(c.Word)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Word, err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(def)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Println("ihya", version)
	return nil
}

func openCatalog(ctx context.Context, path string) (*store.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	return store.OpenCatalog(ctx, path)
}
