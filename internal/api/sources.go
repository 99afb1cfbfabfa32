package api

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/citation"
	"github.com/dgallion1/ihya/internal/store"
)

// Citations answers citation queries. *store.Catalog implements it, as does
// MemoryIndex.
type Citations interface {
	Occurrences(ctx context.Context, key string) ([]citation.Occurrence, error)
	Keys(ctx context.Context, unit string) ([]string, error)
	Units(ctx context.Context) ([]citation.UnitKeys, error)
}

// Books serves aligned books. *store.Catalog implements it, as does DirBooks.
type Books interface {
	AlignedBooks(ctx context.Context) ([]string, error)
	Alignment(ctx context.Context, book string) ([]align.Record, error)
}

// MemoryIndex serves citations from an index held in memory. It is safe to
// swap the index while requests are running.
type MemoryIndex struct {
	idx atomic.Pointer[citation.Index]
}

func NewMemoryIndex(idx *citation.Index) *MemoryIndex {
	m := &MemoryIndex{}
	m.Set(idx)
	return m
}

// Set replaces the served index. A nil index serves nothing.
func (m *MemoryIndex) Set(idx *citation.Index) {
	if idx == nil {
		idx = citation.NewIndex()
	}
	m.idx.Store(idx)
}

func (m *MemoryIndex) Occurrences(_ context.Context, key string) ([]citation.Occurrence, error) {
	return m.idx.Load().Occurrences(key), nil
}

func (m *MemoryIndex) Keys(_ context.Context, unit string) ([]string, error) {
	idx := m.idx.Load()
	if unit == "" {
		return idx.Keys(), nil
	}
	for _, u := range idx.Units() {
		if u.Unit == unit {
			return u.Keys, nil
		}
	}
	return []string{}, nil
}

func (m *MemoryIndex) Units(_ context.Context) ([]citation.UnitKeys, error) {
	return m.idx.Load().Units(), nil
}

// DirBooks serves alignments from their JSON files.
type DirBooks struct {
	Dir store.AlignmentDir
}

func (d DirBooks) AlignedBooks(context.Context) ([]string, error) {
	return d.Dir.Books()
}

func (d DirBooks) Alignment(_ context.Context, book string) ([]align.Record, error) {
	return d.Dir.ReadAlignment(book)
}

func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, sql.ErrNoRows)
}

var (
	_ Citations = (*store.Catalog)(nil)
	_ Citations = (*MemoryIndex)(nil)
	_ Books     = (*store.Catalog)(nil)
	_ Books     = DirBooks{}
)
