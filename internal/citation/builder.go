package citation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgallion1/ihya/internal/corpus"
)

// Builder builds a citation index over a set of documents.
type Builder struct {
	Oracle   Oracle
	Selector string
	// Workers bounds concurrent oracle calls. Values below 1 mean 1.
	Workers int
	// Timeout is the deadline for one document's oracle call; expiry counts
	// as an oracle failure. Zero disables it.
	Timeout time.Duration
	Radius  int
	Log     *slog.Logger
	// Progress, if set, is called as documents finish.
	Progress func(done, total int)
}

// DocumentSummary describes one indexed document in the manifest.
type DocumentSummary struct {
	Name        string `json:"name"`
	Digest      string `json:"digest"`
	Words       int    `json:"words"`
	Occurrences int    `json:"occurrences"`
}

// Report is the manifest of a build: what was indexed and what was skipped.
type Report struct {
	Documents []DocumentSummary `json:"documents"`
	Failed    []FailedDocument  `json:"failed"`
	Keys      int               `json:"keys"`
	Total     int               `json:"occurrences"`
}

// FailedDocument names a document that contributed nothing and why.
type FailedDocument struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type docResult struct {
	pos     int
	entries []Entry
	err     error
}

// Build indexes docs. Documents are processed in name order; their oracle
// calls run concurrently but results are merged in that order on the calling
// goroutine, so the index does not depend on scheduling. A failing document
// is logged, listed in the report and skipped.
func (b *Builder) Build(ctx context.Context, docs []*corpus.Document) (*Index, Report) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	workers := max(1, b.Workers)

	sorted := append([]*corpus.Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	results := make([]docResult, len(sorted))
	done := make(chan docResult, len(sorted))
	sem := make(chan struct{}, workers)

	go func() {
		for i, doc := range sorted {
			sem <- struct{}{}
			go func(i int, doc *corpus.Document) {
				defer func() { <-sem }()
				done <- b.extractOne(ctx, i, doc, log)
			}(i, doc)
		}
	}()

	for n := range sorted {
		r := <-done
		results[r.pos] = r
		if b.Progress != nil {
			b.Progress(n+1, len(sorted))
		}
	}

	idx := NewIndex()
	report := Report{Documents: []DocumentSummary{}, Failed: []FailedDocument{}}
	for i, doc := range sorted {
		r := results[i]
		if r.err != nil {
			log.Warn("skipping document", "document", doc.Name, "error", r.err)
			report.Failed = append(report.Failed, FailedDocument{Name: doc.Name, Error: r.err.Error()})
			continue
		}
		for _, e := range r.entries {
			idx.Add(e.Key, e.Occurrence)
		}
		report.Documents = append(report.Documents, DocumentSummary{
			Name:        doc.Name,
			Digest:      doc.Digest(),
			Words:       len(doc.Words()),
			Occurrences: len(r.entries),
		})
	}
	report.Keys = idx.Len()
	report.Total = idx.Total()

	log.Info("citation index built",
		"documents", len(report.Documents),
		"failed", len(report.Failed),
		"keys", report.Keys,
		"occurrences", report.Total,
	)
	return idx, report
}

// extractOne runs the oracle over one document. A panic in the oracle is
// turned into that document's error.
func (b *Builder) extractOne(ctx context.Context, pos int, doc *corpus.Document, log *slog.Logger) (r docResult) {
	defer func() {
		if p := recover(); p != nil {
			r = docResult{pos: pos, err: fmt.Errorf("oracle panic: %v", p)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return docResult{pos: pos, err: err}
	}
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	start := time.Now()
	entries, err := Extract(ctx, doc, b.Oracle, ExtractOptions{
		Selector: b.Selector,
		Radius:   b.Radius,
		Log:      log,
	})
	log.Debug("document scanned", "document", doc.Name, "matches", len(entries), "duration", time.Since(start))
	return docResult{pos: pos, entries: entries, err: err}
}
