// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justingallivan/reviewer-engine/internal/biblio"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// stubSource satisfies biblio.Source with a canned response function.
type stubSource struct {
	name string
	fn   func(q biblio.Query) ([]types.PublicationRecord, error)
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(_ context.Context, q biblio.Query, _ types.SourcesConfig) ([]types.PublicationRecord, error) {
	return s.fn(q)
}

func pub(id, title string, year int, authors []string, affiliation string) types.PublicationRecord {
	return types.PublicationRecord{
		SourceID:     id,
		Source:       "stub",
		Title:        title,
		Authors:      authors,
		Affiliations: []string{affiliation},
		Year:         year,
		Date:         time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testAnalysis() types.ProposalAnalysis {
	return types.ProposalAnalysis{
		Title:                 "Folding Pathways of Membrane Proteins",
		PrincipalInvestigator: "John Doe",
		Institution:           "MIT",
		ResearchArea:          "protein folding",
		Keywords:              []string{"protein folding"},
		Suggestions: []types.ReviewerSuggestion{{
			Name:        "Jane Smith",
			Affiliation: "Stanford University",
			Expertise:   []string{"protein folding"},
			Seniority:   types.SenioritySenior,
		}},
	}
}

func TestRunVerifiesSuggestion(t *testing.T) {
	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		if q.Name != "" {
			return []types.PublicationRecord{
				pub("p1", "Protein folding kinetics", 2024, []string{"Jane Smith", "Bob Lee"}, "Stanford University"),
				pub("p2", "Protein folding at scale", 2023, []string{"Jane Smith"}, "Stanford University"),
			}, nil
		}
		return nil, nil
	}}

	var events []Event
	res, err := Run(context.Background(), testAnalysis(), Deps{Sources: []biblio.Source{src}},
		types.DiscoveryConfig{}, nil, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Verified) != 1 {
		t.Fatalf("verified count = %d, want 1", len(res.Verified))
	}
	c := res.Verified[0]
	if c.Verification == nil {
		t.Fatal("verification missing")
	}
	if c.Verification.Band != types.BandAccepted {
		t.Errorf("band = %s, want %s", c.Verification.Band, types.BandAccepted)
	}
	if c.Verification.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", c.Verification.Confidence)
	}
	if c.COI == nil || c.COI.HasAny() {
		t.Errorf("COI = %+v, want attached and empty", c.COI)
	}
	if len(c.Publications) != 2 {
		t.Errorf("publications = %d, want 2", len(c.Publications))
	}

	sawVerified := false
	for _, e := range events {
		if e.Kind == EventCandidateVerified && e.Candidate == "Jane Smith" {
			sawVerified = true
		}
	}
	if !sawVerified {
		t.Error("no candidate_verified event for Jane Smith")
	}
}

func TestRunUnverifiedWithoutEvidence(t *testing.T) {
	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		return nil, nil
	}}

	analysis := testAnalysis()
	analysis.Keywords = nil
	analysis.ResearchArea = ""

	res, err := Run(context.Background(), analysis, Deps{Sources: []biblio.Source{src}},
		types.DiscoveryConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Verified) != 0 || len(res.Unverified) != 1 {
		t.Fatalf("verified=%d unverified=%d, want 0 and 1", len(res.Verified), len(res.Unverified))
	}
	c := res.Unverified[0]
	if c.Verification != nil {
		t.Error("unverified candidate must not carry a confidence score")
	}
	if c.Reason == "" {
		t.Error("unverified candidate must carry a reason")
	}
	if len(res.Ranked) != 1 || res.Ranked[0].Name != c.Name {
		t.Errorf("ranked = %+v, want the unverified candidate", res.Ranked)
	}
}

func TestRunDiscoversFrequentAuthors(t *testing.T) {
	subject := []types.PublicationRecord{
		pub("s1", "Protein folding review", 2024, []string{"Alice Wong", "Carol Chen"}, "UCSF"),
		pub("s2", "Folding energetics", 2023, []string{"Alice Wong"}, "UCSF"),
		pub("s3", "Misfolding diseases", 2022, []string{"Carol Chen"}, "UCLA"),
	}
	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		if q.Name != "" {
			return nil, nil
		}
		return subject, nil
	}}

	res, err := Run(context.Background(), testAnalysis(), Deps{Sources: []biblio.Source{src}},
		types.DiscoveryConfig{MaxDiscovered: 1}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Discovered) != 1 {
		t.Fatalf("discovered count = %d, want 1 (MaxDiscovered)", len(res.Discovered))
	}
	c := res.Discovered[0]
	if c.Name != "Alice Wong" {
		t.Errorf("discovered %q, want the most frequent author Alice Wong", c.Name)
	}
	if c.Origin != types.SourceDatabaseDiscovery {
		t.Errorf("origin = %s, want %s", c.Origin, types.SourceDatabaseDiscovery)
	}
	if c.Affiliation != "UCSF" {
		t.Errorf("affiliation = %q, want UCSF derived from evidence", c.Affiliation)
	}
	if len(c.Publications) != 2 {
		t.Errorf("publications = %d, want 2", len(c.Publications))
	}
}

func TestRunSkipsProposalAuthorsAndExcluded(t *testing.T) {
	subject := []types.PublicationRecord{
		pub("s1", "Protein folding I", 2024, []string{"John Doe", "Banned Person", "Alice Wong"}, "MIT"),
		pub("s2", "Protein folding II", 2023, []string{"John Doe", "Banned Person", "Alice Wong"}, "MIT"),
	}
	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		if q.Name != "" {
			return nil, nil
		}
		return subject, nil
	}}

	analysis := testAnalysis()
	analysis.Suggestions = nil

	res, err := Run(context.Background(), analysis, Deps{Sources: []biblio.Source{src}},
		types.DiscoveryConfig{}, []string{"Banned Person"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, c := range res.Ranked {
		if c.Name == "John Doe" {
			t.Error("proposal PI must not be discovered as a candidate")
		}
		if c.Name == "Banned Person" {
			t.Error("excluded name must not appear in results")
		}
	}
	if len(res.Discovered) != 1 || res.Discovered[0].Name != "Alice Wong" {
		t.Errorf("discovered = %+v, want only Alice Wong", res.Discovered)
	}
}

func TestRunCoauthorConflictFlagged(t *testing.T) {
	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		if q.Name == "" {
			return nil, nil
		}
		return []types.PublicationRecord{
			pub("p1", "Joint work on folding", 2024, []string{"Jane Smith", "John Doe"}, "Stanford University"),
		}, nil
	}}

	analysis := testAnalysis()
	analysis.Keywords = nil
	analysis.ResearchArea = ""

	res, err := Run(context.Background(), analysis, Deps{Sources: []biblio.Source{src}},
		types.DiscoveryConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Verified) != 1 {
		t.Fatalf("verified count = %d, want 1", len(res.Verified))
	}
	c := res.Verified[0]
	if c.COI == nil || !c.COI.HasCoauthorCOI {
		t.Fatalf("COI = %+v, want co-authorship with the PI flagged", c.COI)
	}
	if got := c.COI.Coauthorships[0].ProposalAuthor; got != "John Doe" {
		t.Errorf("conflicting author = %q, want John Doe", got)
	}
}

func TestRunDegradedSourceWarns(t *testing.T) {
	good := &stubSource{name: "good", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		if q.Name == "" {
			return nil, nil
		}
		return []types.PublicationRecord{
			pub("p1", "Protein folding kinetics", 2024, []string{"Jane Smith"}, "Stanford University"),
		}, nil
	}}
	bad := &stubSource{name: "bad", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		return nil, errors.New("boom")
	}}

	res, err := Run(context.Background(), testAnalysis(), Deps{Sources: []biblio.Source{good, bad}},
		types.DiscoveryConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Verified) != 1 {
		t.Fatalf("verified count = %d, want 1 despite degraded source", len(res.Verified))
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "source bad degraded") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a degraded warning for source bad", res.Warnings)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubSource{name: "stub", fn: func(q biblio.Query) ([]types.PublicationRecord, error) {
		return nil, nil
	}}
	_, err := Run(ctx, testAnalysis(), Deps{Sources: []biblio.Source{src}}, types.DiscoveryConfig{}, nil, nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error %T, want *StageError", err)
	}
}

func TestRunEmptyAnalysis(t *testing.T) {
	_, err := Run(context.Background(), types.ProposalAnalysis{}, Deps{}, types.DiscoveryConfig{}, nil, nil)
	if err == nil {
		t.Fatal("expected error for analysis with nothing to act on")
	}
}

func TestResultFileRoundTrip(t *testing.T) {
	res := &Result{
		Verified: []types.Candidate{{
			Name:        "Jane Smith",
			Affiliation: "Stanford University",
			Origin:      types.SourceClaudeSuggestion,
			Verification: &types.Verification{
				Confidence: 0.82,
				Band:       types.BandAccepted,
			},
		}},
		Unverified: []types.Candidate{{
			Name:   "Ghost Author",
			Origin: types.SourceClaudeSuggestion,
			Reason: "no publications found in any enabled source",
		}},
		Warnings: []string{"source arxiv degraded: timeout"},
	}
	res.Ranked = append(res.Ranked, res.Verified...)
	res.Ranked = append(res.Ranked, res.Unverified...)

	path := filepath.Join(t.TempDir(), "run.yaml")
	analysis := testAnalysis()
	if err := WriteResultFile(path, analysis, types.DiscoveryConfig{MaxDiscovered: 5}, []string{"Banned Person"}, res); err != nil {
		t.Fatalf("WriteResultFile: %v", err)
	}

	rf, err := ReadResultFile(path)
	if err != nil {
		t.Fatalf("ReadResultFile: %v", err)
	}
	if rf.Proposal.Title != analysis.Title {
		t.Errorf("title = %q, want %q", rf.Proposal.Title, analysis.Title)
	}
	if len(rf.Result.Verified) != 1 || rf.Result.Verified[0].Name != "Jane Smith" {
		t.Errorf("verified = %+v", rf.Result.Verified)
	}
	if rf.Result.Verified[0].Verification.Confidence != 0.82 {
		t.Errorf("confidence = %v, want 0.82", rf.Result.Verified[0].Verification.Confidence)
	}
	if rf.Summary.Verified != 1 || rf.Summary.Unverified != 1 {
		t.Errorf("summary = %+v", rf.Summary)
	}
	if len(rf.Excluded) != 1 {
		t.Errorf("excluded = %v, want one entry", rf.Excluded)
	}
}

func TestSyncContactsUpdatesCategorizedLists(t *testing.T) {
	contact := &types.ContactInfo{Email: "jsmith@stanford.edu", EmailSource: "pubmed_affiliation"}
	rf := &ResultFile{Result: Result{
		Verified: []types.Candidate{{Name: "Jane Smith", Origin: types.SourceClaudeSuggestion}},
		Discovered: []types.Candidate{
			{Name: "Bob Lee", Origin: types.SourceDatabaseDiscovery},
			{Name: "Carol Chen", Origin: types.SourceDatabaseDiscovery, Contact: &types.ContactInfo{Email: "old@ucsf.edu"}},
		},
		Ranked: []types.Candidate{
			{Name: "J. Smith", Contact: contact},
			{Name: "Bob Lee"},
			{Name: "Carol Chen", Contact: &types.ContactInfo{Email: "new@ucsf.edu"}},
		},
	}}

	rf.SyncContacts()

	if got := rf.Result.Verified[0].Contact; got == nil || got.Email != "jsmith@stanford.edu" {
		t.Errorf("verified contact = %+v, want the ranked entry's email via name matching", got)
	}
	if rf.Result.Discovered[0].Contact != nil {
		t.Errorf("Bob Lee contact = %+v, want none (ranked entry has none)", rf.Result.Discovered[0].Contact)
	}
	if got := rf.Result.Discovered[1].Contact; got == nil || got.Email != "old@ucsf.edu" {
		t.Errorf("Carol Chen contact = %+v, want her existing contact kept", got)
	}
}
