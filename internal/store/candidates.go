// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// SaveProposal inserts or refreshes a proposal row.
func (s *Store) SaveProposal(ctx context.Context, p *types.Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var cycleID any
	if p.GrantCycleID != "" {
		cycleID = p.GrantCycleID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO proposals (id, title, institution, investigator, grant_cycle_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, institution=excluded.institution,
			investigator=excluded.investigator, grant_cycle_id=excluded.grant_cycle_id`,
		p.ID, p.Title, p.Institution, p.Investigator, cycleID, p.CreatedAt.Format(timeFmt))
	if err != nil {
		return fmt.Errorf("saving proposal: %w", err)
	}
	return nil
}

// SaveBatch upserts each candidate's researcher record and links it to
// the proposal. Partial success by design: a failing candidate is
// reported to w and skipped, the rest are saved. Returns the number
// saved and failed.
func (s *Store) SaveBatch(ctx context.Context, proposal *types.Proposal, candidates []types.Candidate, w io.Writer) (saved, failed int, err error) {
	if err := s.SaveProposal(ctx, proposal); err != nil {
		return 0, 0, err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return saved, failed, err
		}
		if err := s.saveCandidate(ctx, proposal.ID, c); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", c.Name, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "saved   %s\n", c.Name)
		saved++
	}
	return saved, failed, nil
}

func (s *Store) saveCandidate(ctx context.Context, proposalID string, c types.Candidate) error {
	r := researcherFromCandidate(c)
	if _, err := s.Upsert(ctx, &r); err != nil {
		return err
	}

	var score any
	if c.Verification != nil {
		score = c.Verification.Confidence
	}
	hasInstCOI, hasCoauthorCOI := 0, 0
	if c.COI != nil {
		if c.COI.HasInstitutionCOI {
			hasInstCOI = 1
		}
		if c.COI.HasCoauthorCOI {
			hasCoauthorCOI = 1
		}
	}

	// COI flags are sticky: an update may set them but never clear them.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_candidates
			(researcher_id, proposal_id, relevance_score, reasoning,
			 has_institution_coi, has_coauthor_coi, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(researcher_id, proposal_id) DO UPDATE SET
			relevance_score=excluded.relevance_score,
			reasoning=excluded.reasoning,
			has_institution_coi=max(has_institution_coi, excluded.has_institution_coi),
			has_coauthor_coi=max(has_coauthor_coi, excluded.has_coauthor_coi)`,
		r.ID, proposalID, score, c.Reasoning, hasInstCOI, hasCoauthorCOI,
		time.Now().UTC().Format(timeFmt))
	if err != nil {
		return fmt.Errorf("linking candidate to proposal: %w", err)
	}
	return nil
}

// researcherFromCandidate maps a discovery candidate onto the
// persistent researcher shape.
func researcherFromCandidate(c types.Candidate) types.Researcher {
	r := types.Researcher{
		Name:        c.Name,
		Affiliation: c.Affiliation,
	}

	source := types.KeywordFromClaude
	if c.Origin == types.SourceDatabaseDiscovery {
		if db := dominantSource(c.Publications); db != "" {
			source = types.KeywordFromSource(db)
		} else {
			source = types.KeywordFromPublications
		}
	}
	for _, term := range c.Expertise {
		r.Keywords = append(r.Keywords, types.Keyword{Value: term, Source: source})
	}

	if c.Contact != nil {
		r.Email = c.Contact.Email
		r.EmailSource = c.Contact.EmailSource
		r.EmailYear = c.Contact.EmailYear
		r.Website = c.Contact.Website
		r.ORCID = c.Contact.ORCID
		if c.Contact.Usable() {
			now := time.Now().UTC()
			r.ContactEnrichedAt = &now
		}
	}
	return r
}

// dominantSource returns the bibliographic database contributing the
// most publications.
func dominantSource(pubs []types.PublicationRecord) string {
	counts := make(map[string]int)
	var best string
	for _, p := range pubs {
		if p.Source == "" {
			continue
		}
		counts[p.Source]++
		if best == "" || counts[p.Source] > counts[best] {
			best = p.Source
		}
	}
	return best
}

// CandidateDetail joins a saved candidate with its researcher's
// identity fields for display.
type CandidateDetail struct {
	types.SavedCandidate
	ResearcherName string
	Affiliation    string
	Email          string
}

const selectCandidates = `SELECT sc.id, sc.researcher_id, sc.proposal_id,
	sc.relevance_score, sc.reasoning, sc.has_institution_coi, sc.has_coauthor_coi,
	sc.invited, sc.accepted, sc.declined, sc.email_sent_at, sc.response_type, sc.notes,
	sc.created_at, r.name, r.affiliation, r.email
	FROM saved_candidates sc JOIN researchers r ON r.id = sc.researcher_id`

// ListCandidates returns the candidates saved for a proposal, best
// relevance first.
func (s *Store) ListCandidates(ctx context.Context, proposalID string) ([]CandidateDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		selectCandidates+` WHERE sc.proposal_id = ?
		 ORDER BY sc.has_institution_coi + sc.has_coauthor_coi, sc.relevance_score DESC, r.name`,
		proposalID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	var details []CandidateDetail
	for rows.Next() {
		var d CandidateDetail
		var score sql.NullFloat64
		var sentAt, responseType, notes sql.NullString
		var createdAt string
		err := rows.Scan(&d.ID, &d.ResearcherID, &d.ProposalID,
			&score, &d.Reasoning, &d.HasInstitutionCOI, &d.HasCoauthorCOI,
			&d.Invited, &d.Accepted, &d.Declined, &sentAt, &responseType, &notes,
			&createdAt, &d.ResearcherName, &d.Affiliation, &d.Email)
		if err != nil {
			return nil, err
		}
		if score.Valid {
			d.RelevanceScore = &score.Float64
		}
		if sentAt.Valid && sentAt.String != "" {
			if t, err := time.Parse(timeFmt, sentAt.String); err == nil {
				d.EmailSentAt = &t
			}
		}
		d.ResponseType = types.ResponseType(responseType.String)
		d.Notes = notes.String
		d.CreatedAt, _ = time.Parse(timeFmt, createdAt)
		details = append(details, d)
	}
	return details, rows.Err()
}

// MarkInvited records that the invitation email went out.
func (s *Store) MarkInvited(ctx context.Context, candidateID int64, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_candidates SET invited = 1, email_sent_at = ? WHERE id = ?`,
		sentAt.UTC().Format(timeFmt), candidateID)
	if err != nil {
		return fmt.Errorf("marking candidate invited: %w", err)
	}
	return requireRow(res, candidateID)
}

// RecordResponse stores how the reviewer answered the invitation.
func (s *Store) RecordResponse(ctx context.Context, candidateID int64, response types.ResponseType, notes string) error {
	accepted, declined := 0, 0
	switch response {
	case types.ResponseAccepted:
		accepted = 1
	case types.ResponseDeclined, types.ResponseBounced:
		declined = 1
	default:
		return fmt.Errorf("unknown response type %q", response)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_candidates SET accepted = ?, declined = ?, response_type = ?, notes = ? WHERE id = ?`,
		accepted, declined, string(response), notes, candidateID)
	if err != nil {
		return fmt.Errorf("recording response: %w", err)
	}
	return requireRow(res, candidateID)
}

func requireRow(res sql.Result, candidateID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("saved candidate %d not found", candidateID)
	}
	return nil
}

// CreateCycle registers a grant cycle. The code must be unique.
func (s *Store) CreateCycle(ctx context.Context, code, name string) (*types.GrantCycle, error) {
	cycle := &types.GrantCycle{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grant_cycles (id, code, name, created_at) VALUES (?, ?, ?, ?)`,
		cycle.ID, cycle.Code, cycle.Name, cycle.CreatedAt.Format(timeFmt))
	if err != nil {
		return nil, fmt.Errorf("creating grant cycle %q: %w", code, err)
	}
	return cycle, nil
}

// GetCycleByCode loads a grant cycle by its short code.
func (s *Store) GetCycleByCode(ctx context.Context, code string) (*types.GrantCycle, error) {
	var cycle types.GrantCycle
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, name, created_at FROM grant_cycles WHERE code = ?`, code).
		Scan(&cycle.ID, &cycle.Code, &cycle.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("grant cycle %q not found", code)
	}
	if err != nil {
		return nil, fmt.Errorf("loading grant cycle: %w", err)
	}
	cycle.CreatedAt, _ = time.Parse(timeFmt, createdAt)
	return &cycle, nil
}

// ListCycles returns all grant cycles, newest first.
func (s *Store) ListCycles(ctx context.Context) ([]types.GrantCycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, created_at FROM grant_cycles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing grant cycles: %w", err)
	}
	defer rows.Close()

	var cycles []types.GrantCycle
	for rows.Next() {
		var cycle types.GrantCycle
		var createdAt string
		if err := rows.Scan(&cycle.ID, &cycle.Code, &cycle.Name, &createdAt); err != nil {
			return nil, err
		}
		cycle.CreatedAt, _ = time.Parse(timeFmt, createdAt)
		cycles = append(cycles, cycle)
	}
	return cycles, rows.Err()
}
