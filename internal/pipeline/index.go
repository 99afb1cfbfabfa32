package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/corpus"
	"github.com/dgallion1/ihya/internal/store"
)

// BuildIndex loads every source document in dir and builds the citation
// index. Documents that fail to load or have no lines are reported like
// oracle failures and never reach the oracle.
func BuildIndex(ctx context.Context, dir string, b *citation.Builder, log *slog.Logger) (*citation.Index, citation.Report, error) {
	docs, failed, err := corpus.LoadDocuments(dir)
	if err != nil {
		return nil, citation.Report{}, fmt.Errorf("load documents: %w", err)
	}
	docs = dropEmpty(docs, failed)
	if len(docs) == 0 && len(failed) == 0 {
		log.Warn("no source documents found", "dir", dir)
	}
	log.Info("scanning documents for citations", "documents", len(docs))

	idx, report := b.Build(ctx, docs)
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Warn("skipping document", "document", name, "error", failed[name])
		report.Failed = append(report.Failed, citation.FailedDocument{Name: name, Error: failed[name].Error()})
	}
	return idx, report, nil
}

func dropEmpty(docs []*corpus.Document, failed map[string]error) []*corpus.Document {
	kept := docs[:0]
	for _, doc := range docs {
		if len(doc.Lines) == 0 {
			failed[doc.Name] = corpus.ErrNoLines
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}

// WriteIndex persists the index, its manifest beside it, and the catalog
// mirror when one is configured.
func WriteIndex(ctx context.Context, idx *citation.Index, report citation.Report, indexPath string, catalog *store.Catalog) error {
	if err := store.WriteJSON(indexPath, idx); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := store.WriteJSON(store.ManifestPath(indexPath), report); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if catalog != nil {
		if err := catalog.SaveIndex(ctx, idx); err != nil {
			return fmt.Errorf("save catalog: %w", err)
		}
	}
	return nil
}
