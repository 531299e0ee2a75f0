// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the monitor's local SQLite cache. It keeps the seed
// list, the last discovered citation set, and analysis results so runs can
// skip the slow discovery stage and the service can restore its session.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// Store wraps the cache database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	s := &Store{db: db, now: time.Now}
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
		`CREATE TABLE IF NOT EXISTS seeds (
			position INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			position INTEGER PRIMARY KEY,
			identity_key TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			cited_paper TEXT,
			data TEXT NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			identity_key TEXT PRIMARY KEY,
			relevant INTEGER NOT NULL,
			data TEXT NOT NULL,
			analyzed_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_relevant ON analyses(relevant)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSeeds replaces the cached seed list.
func (s *Store) SaveSeeds(ctx context.Context, seeds []types.SeedPaper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seeds`); err != nil {
		return fmt.Errorf("clearing seeds: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO seeds (position, title, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing seed insert: %w", err)
	}
	defer stmt.Close()

	for i, seed := range seeds {
		data, err := json.Marshal(seed)
		if err != nil {
			return fmt.Errorf("marshaling seed: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, seed.Title, string(data)); err != nil {
			return fmt.Errorf("inserting seed %q: %w", seed.Title, err)
		}
	}
	return tx.Commit()
}

// LoadSeeds returns the cached seed list in saved order.
func (s *Store) LoadSeeds(ctx context.Context) ([]types.SeedPaper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM seeds ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying seeds: %w", err)
	}
	defer rows.Close()

	var seeds []types.SeedPaper
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		var seed types.SeedPaper
		if err := json.Unmarshal([]byte(data), &seed); err != nil {
			return nil, fmt.Errorf("decoding seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// SaveCitations replaces the cached citation set, keeping slice order.
// Records sharing an identity key after the first are ignored.
func (s *Store) SaveCitations(ctx context.Context, papers []types.CitingPaper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM citations`); err != nil {
		return fmt.Errorf("clearing citations: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO citations (position, identity_key, title, cited_paper, data, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identity_key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing citation insert: %w", err)
	}
	defer stmt.Close()

	savedAt := s.now().UTC().Format(time.RFC3339)
	for i, p := range papers {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshaling citation: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, p.IdentityKey(), p.Title, p.CitedPaper, string(data), savedAt); err != nil {
			return fmt.Errorf("inserting citation %q: %w", p.Title, err)
		}
	}
	return tx.Commit()
}

// LoadCitations returns the cached citation set in saved order.
func (s *Store) LoadCitations(ctx context.Context) ([]types.CitingPaper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM citations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	var papers []types.CitingPaper
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		var p types.CitingPaper
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decoding citation: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SaveAnalyses upserts the analysis result of every paper that has one.
func (s *Store) SaveAnalyses(ctx context.Context, papers []types.AnalyzedPaper) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO analyses (identity_key, relevant, data, analyzed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(identity_key) DO UPDATE SET
			relevant = excluded.relevant,
			data = excluded.data,
			analyzed_at = excluded.analyzed_at`)
	if err != nil {
		return fmt.Errorf("preparing analysis upsert: %w", err)
	}
	defer stmt.Close()

	analyzedAt := s.now().UTC().Format(time.RFC3339)
	for _, p := range papers {
		if p.Analysis == nil {
			continue
		}
		data, err := json.Marshal(p.Analysis)
		if err != nil {
			return fmt.Errorf("marshaling analysis: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, p.IdentityKey(), p.Analysis.IsModelCopyrightProtection, string(data), analyzedAt); err != nil {
			return fmt.Errorf("saving analysis for %q: %w", p.Title, err)
		}
	}
	return tx.Commit()
}

// LoadAnalyzed returns the cached citations joined with any stored
// analysis, in citation order. Papers never analyzed have a nil Analysis.
func (s *Store) LoadAnalyzed(ctx context.Context) ([]types.AnalyzedPaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.data, a.data
		 FROM citations c LEFT JOIN analyses a ON a.identity_key = c.identity_key
		 ORDER BY c.position`)
	if err != nil {
		return nil, fmt.Errorf("querying analyzed citations: %w", err)
	}
	defer rows.Close()

	var out []types.AnalyzedPaper
	for rows.Next() {
		var paperData string
		var analysisData sql.NullString
		if err := rows.Scan(&paperData, &analysisData); err != nil {
			return nil, fmt.Errorf("scanning analyzed citation: %w", err)
		}

		var ap types.AnalyzedPaper
		if err := json.Unmarshal([]byte(paperData), &ap.CitingPaper); err != nil {
			return nil, fmt.Errorf("decoding citation: %w", err)
		}
		if analysisData.Valid {
			var r types.AnalysisResult
			if err := json.Unmarshal([]byte(analysisData.String), &r); err != nil {
				return nil, fmt.Errorf("decoding analysis: %w", err)
			}
			ap.Analysis = &r
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}

// Stats summarizes the cache contents.
type Stats struct {
	Seeds     int
	Citations int
	Analyzed  int
	Relevant  int
}

// Stats counts cached rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM seeds),
			(SELECT count(*) FROM citations),
			(SELECT count(*) FROM analyses),
			(SELECT count(*) FROM analyses WHERE relevant = 1)`,
	).Scan(&st.Seeds, &st.Citations, &st.Analyzed, &st.Relevant)
	if err != nil {
		return Stats{}, fmt.Errorf("counting cache rows: %w", err)
	}
	return st, nil
}
