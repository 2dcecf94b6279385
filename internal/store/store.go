// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists researchers, proposals, saved candidates, and
// grant cycles in SQLite. One researcher row represents one real
// person; the upsert and duplicate-detection paths share the identity
// package's priority-ordered keys so they can never disagree about who
// is who.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

const dbFile = "researchers.db"

// Store manages the researcher SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.DataDir/researchers.db and
// applies the schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS researchers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			affiliation TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			email_source TEXT NOT NULL DEFAULT '',
			email_year INTEGER NOT NULL DEFAULT 0,
			website TEXT NOT NULL DEFAULT '',
			orcid TEXT NOT NULL DEFAULT '',
			scholar_id TEXT NOT NULL DEFAULT '',
			h_index INTEGER NOT NULL DEFAULT 0,
			i10_index INTEGER NOT NULL DEFAULT 0,
			citation_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			contact_enriched_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_researchers_email ON researchers(email)`,
		`CREATE INDEX IF NOT EXISTS idx_researchers_orcid ON researchers(orcid)`,
		`CREATE INDEX IF NOT EXISTS idx_researchers_scholar ON researchers(scholar_id)`,
		`CREATE INDEX IF NOT EXISTS idx_researchers_name_key ON researchers(name_key)`,
		`CREATE TABLE IF NOT EXISTS researcher_keywords (
			researcher_id TEXT NOT NULL REFERENCES researchers(id) ON DELETE CASCADE,
			keyword TEXT NOT NULL,
			source TEXT NOT NULL,
			UNIQUE(researcher_id, keyword, source)
		)`,
		`CREATE TABLE IF NOT EXISTS grant_cycles (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			institution TEXT,
			investigator TEXT,
			grant_cycle_id TEXT REFERENCES grant_cycles(id),
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS saved_candidates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			researcher_id TEXT NOT NULL REFERENCES researchers(id),
			proposal_id TEXT NOT NULL REFERENCES proposals(id),
			relevance_score REAL,
			reasoning TEXT NOT NULL DEFAULT '',
			has_institution_coi INTEGER NOT NULL DEFAULT 0,
			has_coauthor_coi INTEGER NOT NULL DEFAULT 0,
			invited INTEGER NOT NULL DEFAULT 0,
			accepted INTEGER NOT NULL DEFAULT 0,
			declined INTEGER NOT NULL DEFAULT 0,
			email_sent_at TEXT,
			response_type TEXT,
			notes TEXT,
			created_at TEXT NOT NULL,
			UNIQUE(researcher_id, proposal_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_candidates_proposal ON saved_candidates(proposal_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
