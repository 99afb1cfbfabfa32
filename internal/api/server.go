package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/ihya/internal/config"
	"github.com/dgallion1/ihya/internal/dictionary"
	"github.com/dgallion1/ihya/internal/pipeline"
	"github.com/dgallion1/ihya/internal/translate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sources are the artifacts the read endpoints serve. Dictionary and Stats
// may be nil, in which case their endpoints answer 503.
type Sources struct {
	Citations  Citations
	Books      Books
	Dictionary *dictionary.Lookup
	Stats      *translate.LLMStats
}

// Server is the HTTP API server for ihya.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sources      Sources
	hub          *Hub
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, sources Sources, hub *Hub, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		sources:      sources,
		hub:          hub,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Get("/api/books", s.handleListBooks)
	r.Get("/api/books/{bookID}", s.handleGetBook)
	r.Get("/api/citations", s.handleListCitations)
	r.Get("/api/citations/{key}", s.handleGetCitation)
	r.Get("/api/units", s.handleListUnits)
	r.Get("/api/dictionary", s.handleDictionary)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Get("/api/ws", s.handleWebSocket)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
