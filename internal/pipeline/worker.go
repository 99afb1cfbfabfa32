package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/store"
)

// Reporter receives job state after every change.
type Reporter interface {
	JobUpdated(JobSnapshot)
}

// BookTranslator runs the checkpointed machine translation of one book.
type BookTranslator interface {
	TranslateBook(ctx context.Context, book string, limit int, progress func(done, total int)) error
}

// Paths locates the artifacts a worker reads and writes.
type Paths struct {
	SourceDir     string
	TranslatedDir string
	AlignmentDir  string
	IndexPath     string
}

// Worker runs align and index jobs.
type Worker struct {
	paths    Paths
	builder  citation.Builder
	catalog  *store.Catalog
	reporter Reporter
	log      *slog.Logger

	translator BookTranslator

	// onIndex is called with each successfully written index.
	onIndex func(*citation.Index)
}

func NewWorker(paths Paths, builder citation.Builder, catalog *store.Catalog, reporter Reporter, log *slog.Logger) *Worker {
	return &Worker{
		paths:    paths,
		builder:  builder,
		catalog:  catalog,
		reporter: reporter,
		log:      log,
	}
}

// OnIndex registers fn to receive every index a job writes.
func (w *Worker) OnIndex(fn func(*citation.Index)) {
	w.onIndex = fn
}

// SetTranslator enables translate jobs. Call it before the orchestrator starts.
func (w *Worker) SetTranslator(t BookTranslator) {
	w.translator = t
}

// Process runs a job to completion.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind)
	log.Info("job started")

	switch job.Kind {
	case KindAlign:
		w.runAlign(ctx, job, log)
	case KindIndex:
		w.runIndex(ctx, job, log)
	case KindTranslate:
		w.runTranslate(ctx, job, log.With("book", job.Book))
	default:
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		w.setStatus(job, StatusFailed, "dispatch")
	}
	log.Info("job finished", "status", job.Snapshot().Status)
}

func (w *Worker) runAlign(ctx context.Context, job *Job, log *slog.Logger) {
	w.setStatus(job, StatusAligning, "aligning")

	var sink align.Sink = store.AlignmentDir{Dir: w.paths.AlignmentDir}
	if w.catalog != nil {
		sink = store.Sinks{sink, w.catalog}
	}
	report, err := align.Books(ctx, align.BatchOptions{
		SourceDir:     w.paths.SourceDir,
		TranslatedDir: w.paths.TranslatedDir,
		Sink:          sink,
		Log:           log,
		Progress:      w.progress(job),
	})
	if err != nil {
		log.Error("alignment failed", "error", err)
		job.AddError(err.Error())
		w.setStatus(job, StatusFailed, "aligning")
		return
	}

	for _, book := range sortedKeys(report.Skipped) {
		job.AddError(fmt.Sprintf("%s: %s", book, report.Skipped[book]))
	}
	for _, book := range report.Degenerate {
		job.AddError(fmt.Sprintf("%s: no translated blocks", book))
	}
	job.SetSkipped(len(report.Skipped))
	w.finish(job, len(report.Aligned), len(report.Skipped))
}

func (w *Worker) runIndex(ctx context.Context, job *Job, log *slog.Logger) {
	w.setStatus(job, StatusIndexing, "indexing")

	b := w.builder
	b.Log = log
	b.Progress = w.progress(job)
	idx, report, err := BuildIndex(ctx, w.paths.SourceDir, &b, log)
	if err != nil {
		log.Error("index build failed", "error", err)
		job.AddError(err.Error())
		w.setStatus(job, StatusFailed, "indexing")
		return
	}
	for _, f := range report.Failed {
		job.AddError(fmt.Sprintf("%s: %s", f.Name, f.Error))
	}
	job.SetSkipped(len(report.Failed))

	w.setStatus(job, StatusStoring, "storing")
	if err := WriteIndex(ctx, idx, report, w.paths.IndexPath, w.catalog); err != nil {
		log.Error("index write failed", "error", err)
		job.AddError(err.Error())
		w.setStatus(job, StatusFailed, "storing")
		return
	}
	if w.onIndex != nil {
		w.onIndex(idx)
	}
	w.finish(job, len(report.Documents), len(report.Failed))
}

func (w *Worker) runTranslate(ctx context.Context, job *Job, log *slog.Logger) {
	if w.translator == nil {
		job.AddError("translation is not configured")
		w.setStatus(job, StatusFailed, "dispatch")
		return
	}
	w.setStatus(job, StatusTranslating, "translating")

	if err := w.translator.TranslateBook(ctx, job.Book, job.Limit, w.progress(job)); err != nil {
		log.Error("translation stopped", "error", err)
		job.AddError(err.Error())
		// Lines finished before the failure are checkpointed.
		if job.Snapshot().Progress.Done > 0 {
			w.setStatus(job, StatusPartial, "done")
			return
		}
		w.setStatus(job, StatusFailed, "translating")
		return
	}
	w.setStatus(job, StatusCompleted, "done")
}

func (w *Worker) finish(job *Job, ok, skipped int) {
	switch {
	case skipped > 0 && ok > 0:
		w.setStatus(job, StatusPartial, "done")
	case skipped > 0:
		w.setStatus(job, StatusFailed, "done")
	default:
		w.setStatus(job, StatusCompleted, "done")
	}
}

func (w *Worker) setStatus(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	w.report(job)
}

func (w *Worker) progress(job *Job) func(done, total int) {
	return func(done, total int) {
		job.SetProgress(done, total)
		w.report(job)
	}
}

func (w *Worker) report(job *Job) {
	if w.reporter != nil {
		w.reporter.JobUpdated(job.Snapshot())
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
