package citation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/ihya/internal/corpus"
)

// DefaultRadius is the number of words of context kept on each side of a match.
const DefaultRadius = 30

// Entry is one occurrence together with the key it is filed under.
type Entry struct {
	Key        string
	Occurrence Occurrence
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	Selector string
	Radius   int
	Log      *slog.Logger
}

// ContextBounds returns the half-open word range [lo, hi) of the context
// window around [wordStart, wordEnd) in a document of n words. Both ends are
// clamped to [0, n] and lo <= hi always holds.
func ContextBounds(n, wordStart, wordEnd, radius int) (lo, hi int) {
	lo = min(max(0, wordStart-radius), n)
	hi = min(max(0, wordEnd+radius), n)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Extract runs the oracle over one document and turns its matches into
// entries, in the order the oracle reported them. An oracle error is returned
// unchanged; errors the oracle reports inside its result are only logged.
func Extract(ctx context.Context, doc *corpus.Document, o Oracle, opts ExtractOptions) ([]Entry, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	radius := opts.Radius
	if radius <= 0 {
		radius = DefaultRadius
	}

	words := doc.Words()
	table := corpus.WordLines(doc.Lines)

	res, err := o.Match(ctx, words, opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	for _, e := range res.Errors {
		log.Warn("oracle reported error", "document", doc.Name, "error", e)
	}

	var entries []Entry
	for _, um := range res.Units {
		for _, m := range um.Matches {
			unit := m.Unit
			if unit == "" {
				unit = um.Unit
			}
			lo, hi := ContextBounds(len(words), m.WordStart, m.WordEnd, radius)
			entries = append(entries, Entry{
				Key: FormatKey(unit, m.Start, m.End),
				Occurrence: Occurrence{
					DocumentName: doc.Name,
					Snippet:      m.Text,
					Context:      strings.Join(words[lo:hi], " "),
					Span: Span{
						Start:     m.Start,
						End:       m.End,
						WordStart: m.WordStart,
						WordEnd:   m.WordEnd,
						LineIndex: corpus.LineAt(table, m.WordStart),
					},
				},
			})
		}
	}
	return entries, nil
}
