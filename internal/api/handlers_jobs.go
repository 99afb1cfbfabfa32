package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/ihya/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type submitRequest struct {
	Kind  string `json:"kind"`
	Book  string `json:"book"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	kind, err := pipeline.ParseKind(req.Kind)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kind == pipeline.KindTranslate && !bookIDPattern.MatchString(req.Book) {
		jsonError(w, "translate jobs need a valid book id", http.StatusBadRequest)
		return
	}
	if req.Limit < 0 {
		jsonError(w, "limit must not be negative", http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(kind)
	if kind == pipeline.KindTranslate {
		job.Book, job.Limit = req.Book, req.Limit
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"kind":     snap.Kind,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
