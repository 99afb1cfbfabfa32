package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/store"
)

type recorder struct {
	mu    sync.Mutex
	snaps []JobSnapshot
}

func (r *recorder) JobUpdated(s JobSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) statuses(id string) []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []JobStatus
	for _, s := range r.snaps {
		if s.ID == id {
			out = append(out, s.Status)
		}
	}
	return out
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixturePaths(t *testing.T) Paths {
	root := t.TempDir()
	p := Paths{
		SourceDir:     filepath.Join(root, "processed"),
		TranslatedDir: filepath.Join(root, "english"),
		AlignmentDir:  filepath.Join(root, "translations"),
		IndexPath:     filepath.Join(root, "citation_index.json"),
	}
	writeFile(t, filepath.Join(p.SourceDir, "book-1.txt"), "الحمد لله\nرب العالمين\nالرحمن الرحيم\n")
	writeFile(t, filepath.Join(p.SourceDir, "book-2.txt"), "bad first\nsecond line\n")
	writeFile(t, filepath.Join(p.TranslatedDir, "book-1.txt"), "Praise be to God, Lord of the worlds.\n\nThe Merciful.\n")
	return p
}

func fixtureOracle() citation.Oracle {
	return citation.OracleFunc(func(ctx context.Context, tokens []string, selector string) (citation.Result, error) {
		if tokens[0] == "bad" {
			return citation.Result{}, errors.New("oracle crashed")
		}
		return citation.Result{Units: []citation.UnitMatches{{Unit: "الفاتحة", Matches: []citation.Match{
			{Text: "الحمد لله رب العالمين", Start: 2, End: 2, WordStart: 0, WordEnd: 4},
		}}}}, nil
	})
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot(); s.Status.Done() {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_AlignAndIndex(t *testing.T) {
	paths := fixturePaths(t)
	rec := &recorder{}
	w := NewWorker(paths, citation.Builder{Oracle: fixtureOracle(), Selector: "all", Workers: 2}, nil, rec, quietLog())
	var reloaded *citation.Index
	var mu sync.Mutex
	w.OnIndex(func(idx *citation.Index) {
		mu.Lock()
		reloaded = idx
		mu.Unlock()
	})

	o := NewOrchestrator(w, 2, 4, time.Hour, quietLog())
	o.Start(context.Background())
	defer o.Stop()

	alignJob := NewJob(KindAlign)
	indexJob := NewJob(KindIndex)
	if err := o.Submit(alignJob); err != nil {
		t.Fatal(err)
	}
	if err := o.Submit(indexJob); err != nil {
		t.Fatal(err)
	}
	if o.GetJob(indexJob.ID) != indexJob {
		t.Error("expected job to be registered")
	}

	as := waitDone(t, alignJob)
	if as.Status != StatusCompleted {
		t.Errorf("expected align job completed, got %q (%v)", as.Status, as.Progress.Errors)
	}
	recs, err := store.AlignmentDir{Dir: paths.AlignmentDir}.ReadAlignment("book-1")
	if err != nil {
		t.Fatalf("read alignment: %v", err)
	}
	if len(recs) != 3 || recs[0].TranslatedText != "Praise be to God, Lord of the worlds." || recs[2].TranslatedText != "The Merciful." {
		t.Errorf("unexpected records: %+v", recs)
	}

	is := waitDone(t, indexJob)
	if is.Status != StatusPartial {
		t.Errorf("expected partial index job, got %q", is.Status)
	}
	if is.Progress.Skipped != 1 || is.Progress.Done != 2 || is.Progress.Total != 2 {
		t.Errorf("unexpected progress: %+v", is.Progress)
	}

	var idx citation.Index
	if err := store.ReadJSON(paths.IndexPath, &idx); err != nil {
		t.Fatalf("read index: %v", err)
	}
	occs := idx.Occurrences("الفاتحة:2")
	if len(occs) != 1 || occs[0].DocumentName != "book-1" || occs[0].Span.LineIndex != 0 {
		t.Errorf("unexpected occurrences: %+v", occs)
	}

	var manifest citation.Report
	if err := store.ReadJSON(store.ManifestPath(paths.IndexPath), &manifest); err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(manifest.Failed) != 1 || manifest.Failed[0].Name != "book-2" {
		t.Errorf("expected book-2 in failed list, got %+v", manifest.Failed)
	}

	mu.Lock()
	if reloaded == nil || reloaded.Len() != 1 {
		t.Error("expected OnIndex to receive the new index")
	}
	mu.Unlock()

	sts := rec.statuses(indexJob.ID)
	if len(sts) < 3 || sts[0] != StatusQueued || sts[len(sts)-1] != StatusPartial {
		t.Errorf("unexpected reported statuses: %v", sts)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	w := NewWorker(Paths{}, citation.Builder{}, nil, nil, quietLog())
	o := NewOrchestrator(w, 1, 1, time.Hour, quietLog())
	// Not started, so the queue never drains.
	if err := o.Submit(NewJob(KindAlign)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job := NewJob(KindAlign)
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestWorker_AlignMissingDirFails(t *testing.T) {
	w := NewWorker(Paths{TranslatedDir: filepath.Join(t.TempDir(), "missing")}, citation.Builder{}, nil, nil, quietLog())
	job := NewJob(KindAlign)
	w.Process(context.Background(), job)
	if s := job.Snapshot(); s.Status != StatusFailed || len(s.Progress.Errors) == 0 {
		t.Errorf("expected failed job with error, got %+v", s)
	}
}

type fakeTranslator struct {
	book  string
	limit int
	lines int
	err   error
}

func (f *fakeTranslator) TranslateBook(_ context.Context, book string, limit int, progress func(done, total int)) error {
	f.book, f.limit = book, limit
	for i := 1; i <= f.lines; i++ {
		progress(i, 10)
	}
	return f.err
}

func TestWorker_Translate(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeTranslator
		want  JobStatus
		nerrs int
	}{
		{"completed", &fakeTranslator{lines: 3}, StatusCompleted, 0},
		{"stopped after progress", &fakeTranslator{lines: 2, err: errors.New("quota")}, StatusPartial, 1},
		{"stopped before progress", &fakeTranslator{err: errors.New("no source")}, StatusFailed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorker(Paths{}, citation.Builder{}, nil, nil, quietLog())
			w.SetTranslator(tt.fake)
			job := NewJob(KindTranslate)
			job.Book, job.Limit = "book-1", 3

			w.Process(context.Background(), job)

			s := job.Snapshot()
			if s.Status != tt.want || len(s.Progress.Errors) != tt.nerrs {
				t.Errorf("expected %q with %d errors, got %+v", tt.want, tt.nerrs, s)
			}
			if tt.fake.book != "book-1" || tt.fake.limit != 3 {
				t.Errorf("expected book-1 limit 3, got %q limit %d", tt.fake.book, tt.fake.limit)
			}
			if s.Progress.Done != tt.fake.lines {
				t.Errorf("expected %d lines done, got %d", tt.fake.lines, s.Progress.Done)
			}
		})
	}
}

func TestWorker_TranslateNotConfigured(t *testing.T) {
	w := NewWorker(Paths{}, citation.Builder{}, nil, nil, quietLog())
	job := NewJob(KindTranslate)
	w.Process(context.Background(), job)
	if s := job.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected failed job, got %q", s.Status)
	}
}
