package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
)

var bookIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.sources.Books.AlignedBooks(r.Context())
	if err != nil {
		s.log.Error("list books failed", "error", err)
		jsonError(w, "failed to list books", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": nonNil(books)})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if !bookIDPattern.MatchString(bookID) {
		jsonError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	records, err := s.sources.Books.Alignment(r.Context(), bookID)
	if isNotFound(err) {
		jsonError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("read book failed", "book", bookID, "error", err)
		jsonError(w, "failed to read book", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": bookID, "records": records})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
