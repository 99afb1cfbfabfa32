package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/ihya/internal/align"
	"github.com/dgallion1/ihya/internal/citation"
)

// Catalog is a SQLite mirror of the citation index and alignments for
// query-heavy consumers. It is rebuilt from scratch on every index run.
type Catalog struct {
	db *sqlx.DB
}

// OpenCatalog opens (and migrates) the catalog database at path.
func OpenCatalog(ctx context.Context, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", abs)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the underlying database.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS occurrences (
		key_order INTEGER NOT NULL,
		occ_order INTEGER NOT NULL,
		citation_key TEXT NOT NULL,
		unit TEXT NOT NULL,
		document_name TEXT NOT NULL,
		snippet TEXT NOT NULL,
		context TEXT NOT NULL,
		span_start INTEGER NOT NULL,
		span_end INTEGER NOT NULL,
		word_start INTEGER NOT NULL,
		word_end INTEGER NOT NULL,
		line_index INTEGER NOT NULL,
		PRIMARY KEY (key_order, occ_order)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_occurrences_key ON occurrences(citation_key);`,
	`CREATE INDEX IF NOT EXISTS idx_occurrences_unit ON occurrences(unit);`,
	`CREATE TABLE IF NOT EXISTS alignments (
		book TEXT NOT NULL,
		line_index INTEGER NOT NULL,
		source_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		PRIMARY KEY (book, line_index)
	);`,
}

func (c *Catalog) migrate(ctx context.Context) error {
	return withTx(ctx, c.db, func(tx *sqlx.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("execute schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type occurrenceRow struct {
	KeyOrder     int    `db:"key_order"`
	OccOrder     int    `db:"occ_order"`
	CitationKey  string `db:"citation_key"`
	Unit         string `db:"unit"`
	DocumentName string `db:"document_name"`
	Snippet      string `db:"snippet"`
	Context      string `db:"context"`
	SpanStart    int    `db:"span_start"`
	SpanEnd      int    `db:"span_end"`
	WordStart    int    `db:"word_start"`
	WordEnd      int    `db:"word_end"`
	LineIndex    int    `db:"line_index"`
}

const insertOccurrence = `INSERT INTO occurrences
	(key_order, occ_order, citation_key, unit, document_name, snippet, context,
	 span_start, span_end, word_start, word_end, line_index)
	VALUES (:key_order, :occ_order, :citation_key, :unit, :document_name, :snippet, :context,
	 :span_start, :span_end, :word_start, :word_end, :line_index)`

// SaveIndex replaces the stored occurrences with idx.
func (c *Catalog) SaveIndex(ctx context.Context, idx *citation.Index) error {
	return withTx(ctx, c.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM occurrences`); err != nil {
			return fmt.Errorf("clear occurrences: %w", err)
		}
		stmt, err := tx.PrepareNamedContext(ctx, insertOccurrence)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for ki, key := range idx.Keys() {
			unit := key
			if k, err := citation.ParseKey(key); err == nil {
				unit = k.Unit
			}
			for oi, occ := range idx.Occurrences(key) {
				row := occurrenceRow{
					KeyOrder:     ki,
					OccOrder:     oi,
					CitationKey:  key,
					Unit:         unit,
					DocumentName: occ.DocumentName,
					Snippet:      occ.Snippet,
					Context:      occ.Context,
					SpanStart:    occ.Span.Start,
					SpanEnd:      occ.Span.End,
					WordStart:    occ.Span.WordStart,
					WordEnd:      occ.Span.WordEnd,
					LineIndex:    occ.Span.LineIndex,
				}
				if _, err := stmt.ExecContext(ctx, row); err != nil {
					return fmt.Errorf("insert occurrence %s: %w", key, err)
				}
			}
		}
		return nil
	})
}

// Occurrences returns the occurrences of key in index order.
func (c *Catalog) Occurrences(ctx context.Context, key string) ([]citation.Occurrence, error) {
	var rows []occurrenceRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT * FROM occurrences WHERE citation_key = ? ORDER BY occ_order`, key)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	occs := make([]citation.Occurrence, 0, len(rows))
	for _, r := range rows {
		occs = append(occs, citation.Occurrence{
			DocumentName: r.DocumentName,
			Snippet:      r.Snippet,
			Context:      r.Context,
			Span: citation.Span{
				Start:     r.SpanStart,
				End:       r.SpanEnd,
				WordStart: r.WordStart,
				WordEnd:   r.WordEnd,
				LineIndex: r.LineIndex,
			},
		})
	}
	return occs, nil
}

// Keys returns citation keys in index order, restricted to unit when it is
// not empty.
func (c *Catalog) Keys(ctx context.Context, unit string) ([]string, error) {
	query := `SELECT citation_key FROM occurrences WHERE occ_order = 0 ORDER BY key_order`
	args := []any{}
	if unit != "" {
		query = `SELECT citation_key FROM occurrences WHERE occ_order = 0 AND unit = ? ORDER BY key_order`
		args = append(args, unit)
	}
	keys := []string{}
	if err := c.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	return keys, nil
}

// Units returns keys grouped by unit, units sorted by name.
func (c *Catalog) Units(ctx context.Context) ([]citation.UnitKeys, error) {
	var rows []struct {
		Unit string `db:"unit"`
		Key  string `db:"citation_key"`
	}
	err := c.db.SelectContext(ctx, &rows,
		`SELECT unit, citation_key FROM occurrences WHERE occ_order = 0 ORDER BY unit, key_order`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	units := []citation.UnitKeys{}
	for _, r := range rows {
		if n := len(units); n > 0 && units[n-1].Unit == r.Unit {
			units[n-1].Keys = append(units[n-1].Keys, r.Key)
			continue
		}
		units = append(units, citation.UnitKeys{Unit: r.Unit, Keys: []string{r.Key}})
	}
	return units, nil
}

// SaveAlignment replaces the stored records of book.
func (c *Catalog) SaveAlignment(ctx context.Context, book string, records []align.Record) error {
	return withTx(ctx, c.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM alignments WHERE book = ?`, book); err != nil {
			return fmt.Errorf("clear alignment: %w", err)
		}
		for i, r := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO alignments (book, line_index, source_text, translated_text) VALUES (?, ?, ?, ?)`,
				book, i, r.SourceText, r.TranslatedText)
			if err != nil {
				return fmt.Errorf("insert alignment %s:%d: %w", book, i, err)
			}
		}
		return nil
	})
}

// WriteAlignment implements align.Sink.
func (c *Catalog) WriteAlignment(ctx context.Context, book string, records []align.Record) error {
	return c.SaveAlignment(ctx, book, records)
}

// Alignment returns the records of book in line order. A book without
// records yields sql.ErrNoRows.
func (c *Catalog) Alignment(ctx context.Context, book string) ([]align.Record, error) {
	var rows []struct {
		SourceText     string `db:"source_text"`
		TranslatedText string `db:"translated_text"`
	}
	err := c.db.SelectContext(ctx, &rows,
		`SELECT source_text, translated_text FROM alignments WHERE book = ? ORDER BY line_index`, book)
	if err != nil {
		return nil, fmt.Errorf("query alignment: %w", err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	records := make([]align.Record, len(rows))
	for i, r := range rows {
		records[i] = align.Record{SourceText: r.SourceText, TranslatedText: r.TranslatedText}
	}
	return records, nil
}

// AlignedBooks lists books with stored records, sorted.
func (c *Catalog) AlignedBooks(ctx context.Context) ([]string, error) {
	books := []string{}
	if err := c.db.SelectContext(ctx, &books, `SELECT DISTINCT book FROM alignments ORDER BY book`); err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	return books, nil
}
