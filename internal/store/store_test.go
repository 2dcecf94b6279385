// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertCreatesAndMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := types.Researcher{
		Name:  "Jane Smith",
		Email: "JSmith@Stanford.edu",
	}
	created, err := s.Upsert(ctx, &first)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Error("first upsert should create a row")
	}
	if first.ID == "" {
		t.Fatal("upsert did not assign an ID")
	}
	if first.Email != "jsmith@stanford.edu" {
		t.Errorf("email = %q, want normalized", first.Email)
	}

	// Same email, fuller record: must update the existing row.
	second := types.Researcher{
		Name:        "Jane A. Smith",
		Email:       "jsmith@stanford.edu",
		Affiliation: "Stanford University",
		ORCID:       "0000-0001-2345-6789",
	}
	created, err = s.Upsert(ctx, &second)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Error("matching upsert must not create a second row")
	}
	if second.ID != first.ID {
		t.Errorf("ID = %s, want existing %s", second.ID, first.ID)
	}
	if second.Affiliation != "Stanford University" {
		t.Errorf("affiliation = %q, want filled from incoming", second.Affiliation)
	}
	if second.Name != "Jane A. Smith" {
		t.Errorf("name = %q, want upgraded to fuller form", second.Name)
	}

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestUpsertKeyPriority(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := types.Researcher{Name: "John Smith", Email: "john@mit.edu"}
	b := types.Researcher{Name: "Jon Smith", Email: "jsmith@ucla.edu"}
	if _, err := s.Upsert(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, &b); err != nil {
		t.Fatal(err)
	}

	// The update's name matches b, but its email matches a. Email is the
	// stronger key and must win.
	update := types.Researcher{Name: "Jon Smith", Email: "john@mit.edu", Affiliation: "MIT"}
	created, err := s.Upsert(ctx, &update)
	if err != nil {
		t.Fatal(err)
	}
	if created || update.ID != a.ID {
		t.Errorf("update landed on %s (created=%v), want %s via email key", update.ID, created, a.ID)
	}

	// Without an email the name key is the last resort.
	nameOnly := types.Researcher{Name: "Jon Smith", Website: "https://ucla.edu/jsmith"}
	created, err = s.Upsert(ctx, &nameOnly)
	if err != nil {
		t.Fatal(err)
	}
	if created || nameOnly.ID != b.ID {
		t.Errorf("name-only upsert landed on %s (created=%v), want %s", nameOnly.ID, created, b.ID)
	}
}

func TestUpsertKeywordsCoalesce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := types.Researcher{
		Name: "Jane Smith",
		Keywords: []types.Keyword{
			{Value: "protein folding", Source: types.KeywordFromClaude},
		},
	}
	if _, err := s.Upsert(ctx, &r); err != nil {
		t.Fatal(err)
	}

	again := types.Researcher{
		Name: "Jane Smith",
		Keywords: []types.Keyword{
			{Value: "protein folding", Source: types.KeywordFromClaude},      // exact duplicate
			{Value: "protein folding", Source: types.KeywordFromSource("pubmed")}, // same term, new provenance
			{Value: "molecular dynamics", Source: types.KeywordFromClaude},
		},
	}
	if _, err := s.Upsert(ctx, &again); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, again.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Keywords) != 3 {
		t.Errorf("keywords = %d, want 3 (duplicates collapsed, provenance kept): %+v", len(got.Keywords), got.Keywords)
	}
}

func TestFindDuplicatesSharedORCID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Upsert links rows sharing an ORCID on the way in, so duplicates
	// like these only exist as legacy data. Plant them directly.
	a := types.Researcher{Name: "Jane Smith", Email: "jane@stanford.edu"}
	b := types.Researcher{Name: "J. Smith-Jones", Email: "jsj@berkeley.edu"}
	if _, err := s.Upsert(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, &b); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE researchers SET orcid = '0000-0001-2345-6789' WHERE id = ?`, id); err != nil {
			t.Fatal(err)
		}
	}

	groups, err := s.FindDuplicates(ctx)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1: %+v", len(groups), groups)
	}
	if groups[0].MatchType != identity.MatchORCID {
		t.Errorf("match type = %s, want orcid", groups[0].MatchType)
	}
	if len(groups[0].Records) != 2 {
		t.Errorf("group size = %d, want 2", len(groups[0].Records))
	}
}

func TestFindDuplicatesByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Upsert would collapse same-named rows, so plant the legacy
	// duplicate directly.
	a := types.Researcher{Name: "Jane Smith", Email: "jane@stanford.edu"}
	c := types.Researcher{Name: "Carol Chen", Email: "carol@ucsf.edu"}
	for _, r := range []*types.Researcher{&a, &c} {
		if _, err := s.Upsert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now().UTC().Format(timeFmt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO researchers (id, name, name_key, email, created_at, updated_at)
		 VALUES ('legacy-1', 'jane smith', 'jane smith', 'jsmith@berkeley.edu', ?, ?)`, now, now)
	if err != nil {
		t.Fatal(err)
	}

	groups, err := s.FindDuplicates(ctx)
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1: %+v", len(groups), groups)
	}
	if groups[0].MatchType != identity.MatchName {
		t.Errorf("match type = %s, want name", groups[0].MatchType)
	}
}

func TestMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	primary := types.Researcher{Name: "Jane Smith", Email: "jane@stanford.edu"}
	secondary := types.Researcher{
		Name:     "J. Smith",
		Email:    "jsmith@old.edu",
		Website:  "https://old.edu/smith",
		Keywords: []types.Keyword{{Value: "protein folding", Source: types.KeywordFromClaude}},
	}
	if _, err := s.Upsert(ctx, &primary); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, &secondary); err != nil {
		t.Fatal(err)
	}

	// Secondary holds a saved candidate that must survive the merge.
	proposal := types.Proposal{Title: "Folding Proposal"}
	var buf bytes.Buffer
	if _, _, err := s.SaveBatch(ctx, &proposal, []types.Candidate{
		{Name: "J. Smith", Origin: types.SourceClaudeSuggestion},
	}, &buf); err != nil {
		t.Fatal(err)
	}

	before, _ := s.Count(ctx)
	if err := s.Merge(ctx, primary.ID, []string{secondary.ID}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	after, _ := s.Count(ctx)
	if before != after+1 {
		t.Errorf("count %d -> %d, want exactly one row removed", before, after)
	}

	merged, err := s.Get(ctx, primary.ID)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Email != "jane@stanford.edu" {
		t.Errorf("email = %q, primary's fields must win", merged.Email)
	}
	if merged.Website != "https://old.edu/smith" {
		t.Errorf("website = %q, empty primary fields must be filled", merged.Website)
	}
	if len(merged.Keywords) != 1 {
		t.Errorf("keywords = %+v, want secondary's carried over", merged.Keywords)
	}

	candidates, err := s.ListCandidates(ctx, proposal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].ResearcherID != primary.ID {
		t.Errorf("candidates = %+v, want repointed to primary", candidates)
	}

	// Re-running the merge is harmless.
	if err := s.Merge(ctx, primary.ID, []string{secondary.ID}); err != nil {
		t.Errorf("repeated merge: %v", err)
	}
}

func TestMergeMissingPrimary(t *testing.T) {
	s := newTestStore(t)
	if err := s.Merge(context.Background(), "nope", []string{"also-nope"}); err == nil {
		t.Fatal("expected error for missing primary")
	}
}

func TestMergeCandidateCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	primary := types.Researcher{Name: "Jane Smith", Email: "jane@stanford.edu"}
	secondary := types.Researcher{Name: "Jane Q Smith", Email: "jqs@berkeley.edu"}
	if _, err := s.Upsert(ctx, &primary); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upsert(ctx, &secondary); err != nil {
		t.Fatal(err)
	}

	// Both rows saved against the same proposal.
	proposal := types.Proposal{Title: "Shared Proposal"}
	if err := s.SaveProposal(ctx, &proposal); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{primary.ID, secondary.ID} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO saved_candidates (researcher_id, proposal_id, created_at) VALUES (?, ?, ?)`,
			id, proposal.ID, time.Now().UTC().Format(timeFmt))
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Merge(ctx, primary.ID, []string{secondary.ID}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	candidates, err := s.ListCandidates(ctx, proposal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Errorf("candidates = %d, want colliding link dropped", len(candidates))
	}
}

func TestSaveBatchAndListCandidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	score := 0.82
	candidates := []types.Candidate{
		{
			Name:        "Jane Smith",
			Affiliation: "Stanford University",
			Expertise:   []string{"protein folding"},
			Reasoning:   "strong record in the area",
			Origin:      types.SourceClaudeSuggestion,
			Verification: &types.Verification{
				Confidence: score,
				Band:       types.BandAccepted,
			},
			Contact: &types.ContactInfo{Email: "jsmith@stanford.edu", EmailSource: "pubmed_affiliation"},
		},
		{
			Name:   "Bob Lee",
			Origin: types.SourceDatabaseDiscovery,
			COI:    &types.COIReport{HasCoauthorCOI: true},
			Publications: []types.PublicationRecord{
				{Source: "arxiv", SourceID: "1"},
			},
			Expertise: []string{"protein folding"},
		},
	}

	proposal := types.Proposal{Title: "Folding Proposal", Institution: "MIT"}
	var buf bytes.Buffer
	saved, failed, err := s.SaveBatch(ctx, &proposal, candidates, &buf)
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if saved != 2 || failed != 0 {
		t.Fatalf("saved=%d failed=%d, want 2 and 0", saved, failed)
	}

	details, err := s.ListCandidates(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("candidates = %d, want 2", len(details))
	}

	// Conflict-free candidate sorts first.
	first := details[0]
	if first.ResearcherName != "Jane Smith" {
		t.Errorf("first = %q, want Jane Smith", first.ResearcherName)
	}
	if first.RelevanceScore == nil || *first.RelevanceScore != score {
		t.Errorf("relevance = %v, want %v", first.RelevanceScore, score)
	}
	if first.Email != "jsmith@stanford.edu" {
		t.Errorf("email = %q", first.Email)
	}

	second := details[1]
	if !second.HasCoauthorCOI {
		t.Error("co-author COI flag lost on save")
	}
	if second.RelevanceScore != nil {
		t.Error("unscored candidate must keep a null relevance score")
	}

	// The discovered candidate's keyword provenance names its database.
	r, err := s.Get(ctx, second.ResearcherID)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Keywords) != 1 || r.Keywords[0].Source != types.KeywordFromSource("arxiv") {
		t.Errorf("keywords = %+v, want source:arxiv provenance", r.Keywords)
	}
}

func TestSaveBatchPartialFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candidates := []types.Candidate{
		{Name: "Jane Smith", Origin: types.SourceClaudeSuggestion},
		{Name: "...", Origin: types.SourceDatabaseDiscovery}, // no usable name
		{Name: "Bob Lee", Origin: types.SourceDatabaseDiscovery},
	}

	proposal := types.Proposal{Title: "P"}
	var buf bytes.Buffer
	saved, failed, err := s.SaveBatch(ctx, &proposal, candidates, &buf)
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if saved != 2 || failed != 1 {
		t.Fatalf("saved=%d failed=%d, want 2 and 1", saved, failed)
	}
	if !bytes.Contains(buf.Bytes(), []byte("failed")) {
		t.Errorf("progress output %q does not report the failure", buf.String())
	}

	// The candidates around the failing one still landed.
	details, err := s.ListCandidates(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("candidates = %d, want the two good ones saved", len(details))
	}
}

func TestUpsertRejectsUnusableName(t *testing.T) {
	s := newTestStore(t)

	r := types.Researcher{Name: "  "}
	if _, err := s.Upsert(context.Background(), &r); err == nil {
		t.Fatal("Upsert accepted a researcher with no usable name")
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestInvitationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	proposal := types.Proposal{Title: "P"}
	var buf bytes.Buffer
	if _, _, err := s.SaveBatch(ctx, &proposal, []types.Candidate{
		{Name: "Jane Smith", Origin: types.SourceClaudeSuggestion},
	}, &buf); err != nil {
		t.Fatal(err)
	}
	details, err := s.ListCandidates(ctx, proposal.ID)
	if err != nil || len(details) != 1 {
		t.Fatalf("ListCandidates: %v, %d", err, len(details))
	}
	id := details[0].ID

	sent := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.MarkInvited(ctx, id, sent); err != nil {
		t.Fatalf("MarkInvited: %v", err)
	}
	if err := s.RecordResponse(ctx, id, types.ResponseAccepted, "happy to help"); err != nil {
		t.Fatalf("RecordResponse: %v", err)
	}

	details, _ = s.ListCandidates(ctx, proposal.ID)
	d := details[0]
	if !d.Invited || !d.Accepted || d.Declined {
		t.Errorf("state = invited %v accepted %v declined %v", d.Invited, d.Accepted, d.Declined)
	}
	if d.EmailSentAt == nil || !d.EmailSentAt.Equal(sent) {
		t.Errorf("email_sent_at = %v, want %v", d.EmailSentAt, sent)
	}
	if d.ResponseType != types.ResponseAccepted || d.Notes != "happy to help" {
		t.Errorf("response = %q notes = %q", d.ResponseType, d.Notes)
	}

	if err := s.RecordResponse(ctx, 9999, types.ResponseAccepted, ""); err == nil {
		t.Error("expected error for unknown candidate id")
	}
	if err := s.RecordResponse(ctx, id, "maybe", ""); err == nil {
		t.Error("expected error for unknown response type")
	}
}

func TestGrantCycles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cycle, err := s.CreateCycle(ctx, "2026B", "Fall 2026")
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	if _, err := s.CreateCycle(ctx, "2026B", "duplicate"); err == nil {
		t.Error("expected error for duplicate cycle code")
	}

	got, err := s.GetCycleByCode(ctx, "2026B")
	if err != nil {
		t.Fatalf("GetCycleByCode: %v", err)
	}
	if got.ID != cycle.ID || got.Name != "Fall 2026" {
		t.Errorf("cycle = %+v", got)
	}

	proposal := types.Proposal{Title: "P", GrantCycleID: cycle.ID}
	if err := s.SaveProposal(ctx, &proposal); err != nil {
		t.Fatalf("SaveProposal with cycle: %v", err)
	}

	cycles, err := s.ListCycles(ctx)
	if err != nil || len(cycles) != 1 {
		t.Fatalf("ListCycles: %v, %d", err, len(cycles))
	}
}
