// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

const timeFmt = time.RFC3339Nano

// Upsert inserts the researcher or merges it into an existing row that
// matches one of its identity keys, strongest key first. Merging fills
// empty fields on the existing row and unions keywords; it never
// overwrites data already present. On return r.ID is the canonical row
// ID. Reports whether a new row was created.
func (s *Store) Upsert(ctx context.Context, r *types.Researcher) (bool, error) {
	if identity.NameKey(r.Name) == "" {
		return false, fmt.Errorf("researcher has no usable name")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := findByKeys(ctx, tx, r)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if existing == nil {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.Email = identity.NormalizeEmail(r.Email)
		r.ORCID = identity.NormalizeORCID(r.ORCID)
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := insertResearcher(ctx, tx, r); err != nil {
			return false, err
		}
		if err := insertKeywords(ctx, tx, r.ID, r.Keywords); err != nil {
			return false, err
		}
		return true, tx.Commit()
	}

	fillEmpty(existing, r)
	existing.UpdatedAt = now
	if err := updateResearcher(ctx, tx, existing); err != nil {
		return false, err
	}
	if err := insertKeywords(ctx, tx, existing.ID, r.Keywords); err != nil {
		return false, err
	}
	*r = *existing
	r.Keywords, err = loadKeywords(ctx, tx, r.ID)
	if err != nil {
		return false, err
	}
	return false, tx.Commit()
}

// querier is the subset of sql.DB and sql.Tx the read helpers need.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// findByKeys looks the researcher up by each identity key in priority
// order. The first hit wins.
func findByKeys(ctx context.Context, q querier, r *types.Researcher) (*types.Researcher, error) {
	columns := map[identity.MatchType]string{
		identity.MatchEmail:   "email",
		identity.MatchORCID:   "orcid",
		identity.MatchScholar: "scholar_id",
		identity.MatchName:    "name_key",
	}
	for _, key := range identity.Keys(r.Email, r.ORCID, r.ScholarID, r.Name) {
		found, err := scanResearcher(q.QueryRowContext(ctx,
			selectResearcher+` WHERE `+columns[key.Type]+` = ?`, key.Value))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("looking up researcher by %s: %w", key.Type, err)
		}
		return found, nil
	}
	return nil, nil
}

// fillEmpty copies incoming values into empty fields of dst.
func fillEmpty(dst, src *types.Researcher) {
	if dst.Affiliation == "" {
		dst.Affiliation = src.Affiliation
	}
	if dst.Department == "" {
		dst.Department = src.Department
	}
	if dst.Email == "" && src.Email != "" {
		dst.Email = identity.NormalizeEmail(src.Email)
		dst.EmailSource = src.EmailSource
		dst.EmailYear = src.EmailYear
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.ORCID == "" {
		dst.ORCID = identity.NormalizeORCID(src.ORCID)
	}
	if dst.ScholarID == "" {
		dst.ScholarID = src.ScholarID
	}
	if dst.HIndex == 0 {
		dst.HIndex = src.HIndex
	}
	if dst.I10Index == 0 {
		dst.I10Index = src.I10Index
	}
	if dst.CitationCount == 0 {
		dst.CitationCount = src.CitationCount
	}
	if dst.ContactEnrichedAt == nil {
		dst.ContactEnrichedAt = src.ContactEnrichedAt
	}
	// A fuller name form replaces an initials-only one.
	if len(src.Name) > len(dst.Name) && identity.SameName(src.Name, dst.Name) {
		dst.Name = src.Name
	}
}

const selectResearcher = `SELECT id, name, affiliation, department,
	email, email_source, email_year, website, orcid, scholar_id,
	h_index, i10_index, citation_count,
	created_at, updated_at, contact_enriched_at
	FROM researchers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResearcher(row rowScanner) (*types.Researcher, error) {
	var r types.Researcher
	var createdAt, updatedAt string
	var enrichedAt sql.NullString
	err := row.Scan(&r.ID, &r.Name, &r.Affiliation, &r.Department,
		&r.Email, &r.EmailSource, &r.EmailYear, &r.Website, &r.ORCID, &r.ScholarID,
		&r.HIndex, &r.I10Index, &r.CitationCount,
		&createdAt, &updatedAt, &enrichedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(timeFmt, createdAt)
	r.UpdatedAt, _ = time.Parse(timeFmt, updatedAt)
	if enrichedAt.Valid && enrichedAt.String != "" {
		t, err := time.Parse(timeFmt, enrichedAt.String)
		if err == nil {
			r.ContactEnrichedAt = &t
		}
	}
	return &r, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertResearcher(ctx context.Context, tx execer, r *types.Researcher) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO researchers (id, name, name_key, affiliation, department,
			email, email_source, email_year, website, orcid, scholar_id,
			h_index, i10_index, citation_count, created_at, updated_at, contact_enriched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, identity.NameKey(r.Name), r.Affiliation, r.Department,
		r.Email, r.EmailSource, r.EmailYear, r.Website, r.ORCID, r.ScholarID,
		r.HIndex, r.I10Index, r.CitationCount,
		r.CreatedAt.Format(timeFmt), r.UpdatedAt.Format(timeFmt), timeOrNull(r.ContactEnrichedAt))
	if err != nil {
		return fmt.Errorf("inserting researcher: %w", err)
	}
	return nil
}

func updateResearcher(ctx context.Context, tx execer, r *types.Researcher) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE researchers SET name = ?, name_key = ?, affiliation = ?, department = ?,
			email = ?, email_source = ?, email_year = ?, website = ?, orcid = ?, scholar_id = ?,
			h_index = ?, i10_index = ?, citation_count = ?, updated_at = ?, contact_enriched_at = ?
		 WHERE id = ?`,
		r.Name, identity.NameKey(r.Name), r.Affiliation, r.Department,
		r.Email, r.EmailSource, r.EmailYear, r.Website, r.ORCID, r.ScholarID,
		r.HIndex, r.I10Index, r.CitationCount,
		r.UpdatedAt.Format(timeFmt), timeOrNull(r.ContactEnrichedAt), r.ID)
	if err != nil {
		return fmt.Errorf("updating researcher: %w", err)
	}
	return nil
}

func timeOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFmt)
}

func insertKeywords(ctx context.Context, tx execer, researcherID string, keywords []types.Keyword) error {
	for _, kw := range keywords {
		if kw.Value == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO researcher_keywords (researcher_id, keyword, source) VALUES (?, ?, ?)`,
			researcherID, kw.Value, string(kw.Source))
		if err != nil {
			return fmt.Errorf("inserting keyword %q: %w", kw.Value, err)
		}
	}
	return nil
}

func loadKeywords(ctx context.Context, q querier, researcherID string) ([]types.Keyword, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT keyword, source FROM researcher_keywords WHERE researcher_id = ? ORDER BY keyword, source`,
		researcherID)
	if err != nil {
		return nil, fmt.Errorf("loading keywords: %w", err)
	}
	defer rows.Close()

	var keywords []types.Keyword
	for rows.Next() {
		var kw types.Keyword
		var source string
		if err := rows.Scan(&kw.Value, &source); err != nil {
			return nil, err
		}
		kw.Source = types.KeywordSource(source)
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

// Get loads one researcher with keywords.
func (s *Store) Get(ctx context.Context, id string) (*types.Researcher, error) {
	r, err := scanResearcher(s.db.QueryRowContext(ctx, selectResearcher+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("researcher %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading researcher: %w", err)
	}
	r.Keywords, err = loadKeywords(ctx, s.db, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns all researchers ordered by name. Keywords are not loaded.
func (s *Store) List(ctx context.Context) ([]types.Researcher, error) {
	rows, err := s.db.QueryContext(ctx, selectResearcher+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing researchers: %w", err)
	}
	defer rows.Close()

	var researchers []types.Researcher
	for rows.Next() {
		r, err := scanResearcher(rows)
		if err != nil {
			return nil, err
		}
		researchers = append(researchers, *r)
	}
	return researchers, rows.Err()
}

// Count returns the number of researcher rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM researchers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting researchers: %w", err)
	}
	return n, nil
}

// DuplicateGroup is a set of researcher rows that share an identity key
// and are therefore probably the same person.
type DuplicateGroup struct {
	MatchType identity.MatchType
	Value     string
	Records   []types.Researcher
}

// FindDuplicates reports groups of rows sharing an identity key. Each
// row appears in at most one group, attributed to the strongest key
// that links it.
func (s *Store) FindDuplicates(ctx context.Context) ([]DuplicateGroup, error) {
	researchers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]bool)
	var groups []DuplicateGroup

	for _, matchType := range []identity.MatchType{
		identity.MatchEmail, identity.MatchORCID, identity.MatchScholar, identity.MatchName,
	} {
		byValue := make(map[string][]types.Researcher)
		for _, r := range researchers {
			if grouped[r.ID] {
				continue
			}
			value := keyValue(r, matchType)
			if value == "" {
				continue
			}
			byValue[value] = append(byValue[value], r)
		}
		for value, records := range byValue {
			if len(records) < 2 {
				continue
			}
			for _, r := range records {
				grouped[r.ID] = true
			}
			groups = append(groups, DuplicateGroup{MatchType: matchType, Value: value, Records: records})
		}
	}
	return groups, nil
}

func keyValue(r types.Researcher, matchType identity.MatchType) string {
	switch matchType {
	case identity.MatchEmail:
		return identity.NormalizeEmail(r.Email)
	case identity.MatchORCID:
		return identity.NormalizeORCID(r.ORCID)
	case identity.MatchScholar:
		return r.ScholarID
	default:
		return identity.NameKey(r.Name)
	}
}

// Merge collapses the secondary rows into the primary in one
// transaction: saved candidates are repointed, keywords unioned, empty
// primary fields filled, and the secondary rows deleted. A secondary
// that no longer exists is skipped so re-running a merge is harmless; a
// missing primary is an error.
func (s *Store) Merge(ctx context.Context, primaryID string, secondaryIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	primary, err := scanResearcher(tx.QueryRowContext(ctx, selectResearcher+` WHERE id = ?`, primaryID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("primary researcher %s not found", primaryID)
	}
	if err != nil {
		return fmt.Errorf("loading primary researcher: %w", err)
	}

	for _, secondaryID := range secondaryIDs {
		if secondaryID == primaryID {
			return fmt.Errorf("cannot merge researcher %s into itself", primaryID)
		}
		secondary, err := scanResearcher(tx.QueryRowContext(ctx, selectResearcher+` WHERE id = ?`, secondaryID))
		if errors.Is(err, sql.ErrNoRows) {
			continue // already merged
		}
		if err != nil {
			return fmt.Errorf("loading researcher %s: %w", secondaryID, err)
		}

		// Drop saved candidates that would collide with one the primary
		// already has for the same proposal, then repoint the rest.
		_, err = tx.ExecContext(ctx,
			`DELETE FROM saved_candidates WHERE researcher_id = ? AND proposal_id IN
				(SELECT proposal_id FROM saved_candidates WHERE researcher_id = ?)`,
			secondaryID, primaryID)
		if err != nil {
			return fmt.Errorf("pruning colliding saved candidates: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE saved_candidates SET researcher_id = ? WHERE researcher_id = ?`,
			primaryID, secondaryID)
		if err != nil {
			return fmt.Errorf("repointing saved candidates: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO researcher_keywords (researcher_id, keyword, source)
				SELECT ?, keyword, source FROM researcher_keywords WHERE researcher_id = ?`,
			primaryID, secondaryID)
		if err != nil {
			return fmt.Errorf("merging keywords: %w", err)
		}

		fillEmpty(primary, secondary)

		if _, err := tx.ExecContext(ctx, `DELETE FROM researchers WHERE id = ?`, secondaryID); err != nil {
			return fmt.Errorf("deleting merged researcher %s: %w", secondaryID, err)
		}
	}

	primary.UpdatedAt = time.Now().UTC()
	if err := updateResearcher(ctx, tx, primary); err != nil {
		return err
	}
	return tx.Commit()
}
