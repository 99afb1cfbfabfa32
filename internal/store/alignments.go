package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/ihya/internal/align"
)

// AlignmentDir stores one "<book>.json" record array per book.
type AlignmentDir struct {
	Dir string
}

// WriteAlignment implements align.Sink.
func (d AlignmentDir) WriteAlignment(_ context.Context, book string, records []align.Record) error {
	if records == nil {
		records = []align.Record{}
	}
	return WriteJSON(d.path(book), records)
}

// ReadAlignment loads the records of book.
func (d AlignmentDir) ReadAlignment(book string) ([]align.Record, error) {
	var records []align.Record
	if err := ReadJSON(d.path(book), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Books lists the books with an alignment artifact, sorted.
func (d AlignmentDir) Books() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read alignment dir: %w", err)
	}
	books := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		books = append(books, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(books)
	return books, nil
}

func (d AlignmentDir) path(book string) string {
	return filepath.Join(d.Dir, book+".json")
}

// Sinks writes each alignment to every sink in order, stopping at the first
// error.
type Sinks []align.Sink

func (s Sinks) WriteAlignment(ctx context.Context, book string, records []align.Record) error {
	for _, sink := range s {
		if err := sink.WriteAlignment(ctx, book, records); err != nil {
			return err
		}
	}
	return nil
}
