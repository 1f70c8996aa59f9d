// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the raw concepts extracted from each page file in
// SQLite. Keeping per-file results lets the aggregate step recompute the
// result set over every page ever processed, not only the pages the current
// run extracted.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/concept-miner/pkg/types"
)

const (
	dbFile            = "concepts.db"
	defaultMaxResults = 50

	// fileSep joins file names in Lookup; it cannot appear in a page name.
	fileSep = "\x1f"
)

// Store manages the concept database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// Open opens or creates indexDir/concepts.db and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serialises writers; extraction is sequential anyway.
	db.SetMaxOpenConns(1)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS files (
			name TEXT PRIMARY KEY,
			extracted_at TEXT NOT NULL,
			concept_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS concepts (
			file TEXT NOT NULL REFERENCES files(name) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (file, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_concepts_text ON concepts(text)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ReplaceFile records the concepts of one page file, discarding whatever was
// stored for it before. The swap happens in one transaction.
func (s *Store) ReplaceFile(ctx context.Context, name string, concepts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM concepts WHERE file = ?`, name); err != nil {
		return fmt.Errorf("clearing concepts for %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (name, extracted_at, concept_count) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET extracted_at = excluded.extracted_at, concept_count = excluded.concept_count`,
		name, s.now().UTC().Format(time.RFC3339Nano), len(concepts),
	); err != nil {
		return fmt.Errorf("recording file %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO concepts (file, position, text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for i, c := range concepts {
		if _, err := stmt.ExecContext(ctx, name, i, c); err != nil {
			return fmt.Errorf("inserting concept %q: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

// AllConcepts returns every stored concept occurrence, ordered by file and
// position. Duplicates across files are kept; the aggregator removes them.
func (s *Store) AllConcepts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM concepts ORDER BY file, position`)
	if err != nil {
		return nil, fmt.Errorf("querying concepts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning concept: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// Has reports whether concepts for the page file name are recorded.
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM files WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("checking file %s: %w", name, err)
	}
	return n > 0, nil
}

// Files returns the names of all recorded page files, sorted.
func (s *Store) Files(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM files ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Lookup finds distinct concepts containing substr (case-sensitive) and
// lists the files each one came from. limit <= 0 uses the configured
// default.
func (s *Store) Lookup(ctx context.Context, substr string, limit int) ([]types.ConceptHit, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT text, group_concat(file, char(31)) FROM (
			SELECT DISTINCT text, file FROM concepts WHERE ? = '' OR instr(text, ?) > 0
		 ) GROUP BY text ORDER BY text LIMIT ?`,
		substr, substr, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("looking up %q: %w", substr, err)
	}
	defer rows.Close()

	var hits []types.ConceptHit
	for rows.Next() {
		var text, files string
		if err := rows.Scan(&text, &files); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		fileList := strings.Split(files, fileSep)
		hits = append(hits, types.ConceptHit{Text: text, Files: sortedUnique(fileList)})
	}
	return hits, rows.Err()
}

// Stats summarizes the store contents.
func (s *Store) Stats(ctx context.Context) (types.StoreStats, error) {
	var st types.StoreStats
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), max(extracted_at) FROM files`,
	).Scan(&st.Files, &last); err != nil {
		return st, fmt.Errorf("counting files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), count(DISTINCT text) FROM concepts`,
	).Scan(&st.Concepts, &st.UniqueConcepts); err != nil {
		return st, fmt.Errorf("counting concepts: %w", err)
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			st.LastExtracted = t
		}
	}
	return st, nil
}

func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
