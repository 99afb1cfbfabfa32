package oracle

import (
	"context"
	"log/slog"

	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/pipeline"
)

type retrying struct {
	next citation.Oracle
	log  *slog.Logger
}

// WithRetry wraps o so retryable failures are retried with backoff.
func WithRetry(o citation.Oracle, log *slog.Logger) citation.Oracle {
	return &retrying{next: o, log: log}
}

func (r *retrying) Match(ctx context.Context, tokens []string, selector string) (citation.Result, error) {
	return pipeline.Retry(ctx, r.log, "oracle match", func(ctx context.Context) (citation.Result, error) {
		return r.next.Match(ctx, tokens, selector)
	})
}
