package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobKind selects what a job rebuilds.
type JobKind string

const (
	KindAlign     JobKind = "align"
	KindIndex     JobKind = "index"
	KindTranslate JobKind = "translate"
)

// ParseKind validates a job kind name.
func ParseKind(s string) (JobKind, error) {
	switch JobKind(s) {
	case KindAlign, KindIndex, KindTranslate:
		return JobKind(s), nil
	}
	return "", fmt.Errorf("unknown job kind %q (want align, index or translate)", s)
}

// JobStatus represents the state of a rebuild job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusLoading     JobStatus = "loading"
	StatusAligning    JobStatus = "aligning"
	StatusIndexing    JobStatus = "indexing"
	StatusTranslating JobStatus = "translating"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of a single rebuild.
type Job struct {
	mu sync.Mutex

	ID   string  `json:"job_id"`
	Kind JobKind `json:"kind"`

	// Book and Limit only apply to translate jobs.
	Book  string `json:"book,omitempty"`
	Limit int    `json:"limit,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks processing progress. Units are books for align jobs and
// documents for index jobs.
type Progress struct {
	Total   int      `json:"total"`
	Done    int      `json:"done"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// NewJob returns a queued job with a fresh ID.
func NewJob(kind JobKind) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetProgress records how many units are done out of total.
func (j *Job) SetProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Done = done
	j.Progress.Total = total
	j.UpdatedAt = time.Now()
}

// SetSkipped records how many units were skipped.
func (j *Job) SetSkipped(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Skipped = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Kind      JobKind   `json:"kind"`
	Book      string    `json:"book,omitempty"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:     j.ID,
		Kind:   j.Kind,
		Book:   j.Book,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			Total:   j.Progress.Total,
			Done:    j.Progress.Done,
			Skipped: j.Progress.Skipped,
			Errors:  errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
