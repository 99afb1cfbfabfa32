package api

import (
	"net/http"

	"github.com/dgallion1/ihya/internal/citation"
	"github.com/go-chi/chi/v5"
)

// handleListCitations lists citation keys in index order, optionally for one unit.
func (s *Server) handleListCitations(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("unit")
	keys, err := s.sources.Citations.Keys(r.Context(), unit)
	if err != nil {
		s.log.Error("list citations failed", "error", err)
		jsonError(w, "failed to list citations", http.StatusInternalServerError)
		return
	}
	resp := map[string]any{"keys": nonNil(keys)}
	if unit != "" {
		resp["unit"] = unit
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCitation(w http.ResponseWriter, r *http.Request) {
	key, err := citation.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	occs, err := s.sources.Citations.Occurrences(r.Context(), key.String())
	if err != nil {
		s.log.Error("read citation failed", "key", key.String(), "error", err)
		jsonError(w, "failed to read citation", http.StatusInternalServerError)
		return
	}
	if len(occs) == 0 {
		jsonError(w, "citation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":         key.String(),
		"unit":        key.Unit,
		"occurrences": occs,
	})
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.sources.Citations.Units(r.Context())
	if err != nil {
		s.log.Error("list units failed", "error", err)
		jsonError(w, "failed to list units", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": nonNil(units)})
}
