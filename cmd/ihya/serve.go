package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/ihya/internal/api"
	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/dictionary"
	"github.com/dgallion1/ihya/internal/pipeline"
	"github.com/dgallion1/ihya/internal/store"
	"github.com/dgallion1/ihya/internal/translate"
)

// ServeCmd runs the HTTP API with its job pipeline.
type ServeCmd struct {
	Port string `name:"port" help:"Override IHYA_PORT."`
}

func (c *ServeCmd) Run(a *app) error {
	cfg := a.cfg
	cfg.Port = pick(c.Port, cfg.Port)
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	log := a.log

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	catalog, err := openCatalog(ctx, cfg.SQLitePath)
	if err != nil {
		return err
	}
	if catalog != nil {
		defer catalog.Close()
	}

	o, err := newOracle(cfg, log)
	if errors.Is(err, errNoOracle) {
		log.Warn("index jobs will fail", "error", err)
		o = unconfiguredOracle
	} else if err != nil {
		return err
	}

	hub := api.NewHub(log)
	go hub.Run(ctx)

	paths := pipeline.Paths{
		SourceDir:     cfg.SourceDir,
		TranslatedDir: cfg.TranslatedDir,
		AlignmentDir:  cfg.AlignmentDir,
		IndexPath:     cfg.IndexPath,
	}
	worker := pipeline.NewWorker(paths, newBuilder(cfg, o), catalog, hub, log)

	sources := api.Sources{
		Dictionary: dictionary.NewLookup(cfg.DictionaryDir, log),
	}
	if catalog != nil {
		sources.Citations = catalog
		sources.Books = catalog
	} else {
		mem := api.NewMemoryIndex(loadIndex(cfg.IndexPath, log))
		worker.OnIndex(mem.Set)
		sources.Citations = mem
		sources.Books = api.DirBooks{Dir: store.AlignmentDir{Dir: cfg.AlignmentDir}}
	}

	if cfg.ValidateTranslate() == nil {
		stats := translate.NewLLMStats(time.Hour)
		claude := translate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, stats)
		defer claude.Close()
		worker.SetTranslator(newTranslationBooks(cfg, claude, log))
		sources.Stats = stats
	} else {
		log.Info("translate jobs disabled", "reason", "ANTHROPIC_API_KEY is not set")
	}

	orch := pipeline.NewOrchestrator(worker, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL, log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, sources, hub, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting ihya", "port", cfg.Port, "catalog", catalog != nil)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// loadIndex reads the index artifact. A missing artifact serves an empty index.
func loadIndex(path string, log *slog.Logger) *citation.Index {
	idx := citation.NewIndex()
	err := store.ReadJSON(path, idx)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("citation index not found, serving an empty index", "path", path)
		return idx
	}
	if err != nil {
		log.Warn("citation index unreadable, serving an empty index", "path", path, "error", err)
		return citation.NewIndex()
	}
	return idx
}
