package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/ihya/internal/dictionary"
)

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	if s.sources.Dictionary == nil {
		jsonError(w, "dictionary unavailable", http.StatusServiceUnavailable)
		return
	}
	word := r.URL.Query().Get("word")
	if word == "" {
		jsonError(w, "word query parameter is required", http.StatusBadRequest)
		return
	}

	def, err := s.sources.Dictionary.Define(word)
	if errors.Is(err, dictionary.ErrNotFound) {
		jsonError(w, "word not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("dictionary lookup failed", "word", word, "error", err)
		jsonError(w, "failed to look up word", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, def)
}
