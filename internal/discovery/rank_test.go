// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"testing"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

func scored(name string, confidence float64, seniority types.Seniority, origin types.CandidateSource, hasCOI bool) types.Candidate {
	c := types.Candidate{
		Name:         name,
		Seniority:    seniority,
		Origin:       origin,
		Verification: &types.Verification{Confidence: confidence},
		COI:          &types.COIReport{HasCoauthorCOI: hasCOI},
	}
	return c
}

func TestRankOrdering(t *testing.T) {
	candidates := []types.Candidate{
		scored("conflicted high", 0.95, types.SenioritySenior, types.SourceClaudeSuggestion, true),
		scored("discovered tie", 0.80, types.SeniorityEstablished, types.SourceDatabaseDiscovery, false),
		scored("suggested tie", 0.80, types.SeniorityEstablished, types.SourceClaudeSuggestion, false),
		scored("low confidence", 0.20, types.SenioritySenior, types.SourceClaudeSuggestion, false),
		scored("senior tie", 0.80, types.SenioritySenior, types.SourceDatabaseDiscovery, false),
	}

	rankCandidates(candidates)

	want := []string{
		"senior tie",      // 0.80, senior beats established
		"suggested tie",   // 0.80, established, suggestion beats discovery
		"discovered tie",  // 0.80, established, discovery
		"low confidence",  // 0.20
		"conflicted high", // any COI ranks after all conflict-free
	}
	for i, name := range want {
		if candidates[i].Name != name {
			t.Errorf("rank %d = %q, want %q", i, candidates[i].Name, name)
		}
	}
}

func TestDedupeSuggestionAbsorbsDiscovery(t *testing.T) {
	suggestion := types.Candidate{
		Name:         "Jane Smith",
		Affiliation:  "Stanford University",
		Origin:       types.SourceClaudeSuggestion,
		Verification: &types.Verification{Confidence: 0.9},
		Publications: []types.PublicationRecord{{Source: "pubmed", SourceID: "1"}},
	}
	discovered := types.Candidate{
		Name:         "J. Smith",
		Origin:       types.SourceDatabaseDiscovery,
		Publications: []types.PublicationRecord{{Source: "arxiv", SourceID: "2"}},
	}

	out := dedupeCandidates([]types.Candidate{discovered, suggestion})
	if len(out) != 1 {
		t.Fatalf("dedupe left %d candidates, want 1", len(out))
	}
	c := out[0]
	if c.Origin != types.SourceClaudeSuggestion {
		t.Errorf("origin = %s, want the suggestion to win", c.Origin)
	}
	if c.Name != "Jane Smith" {
		t.Errorf("name = %q, want the suggestion's form", c.Name)
	}
	if len(c.Publications) != 2 {
		t.Errorf("publications = %d, want pooled evidence from both entries", len(c.Publications))
	}
	if c.Verification == nil || c.Verification.Confidence != 0.9 {
		t.Errorf("verification = %+v, want the suggestion's kept", c.Verification)
	}
}

func TestDedupeUnionsCOIReports(t *testing.T) {
	suggestion := types.Candidate{
		Name:   "Jane Smith",
		Origin: types.SourceClaudeSuggestion,
		COI:    &types.COIReport{},
	}
	discovered := types.Candidate{
		Name:   "J. Smith",
		Origin: types.SourceDatabaseDiscovery,
		COI: &types.COIReport{
			HasCoauthorCOI: true,
			Coauthorships: []types.Coauthorship{
				{ProposalAuthor: "John Doe", PaperCount: 1, RecentTitles: []string{"Shared Paper"}},
			},
		},
	}

	out := dedupeCandidates([]types.Candidate{suggestion, discovered})
	if len(out) != 1 {
		t.Fatalf("dedupe left %d candidates, want 1", len(out))
	}
	c := out[0]
	if c.COI == nil || !c.COI.HasCoauthorCOI {
		t.Fatalf("COI = %+v, want the discovery entry's coauthor flag to survive the merge", c.COI)
	}
	if len(c.COI.Coauthorships) != 1 || c.COI.Coauthorships[0].ProposalAuthor != "John Doe" {
		t.Errorf("coauthorships = %+v, want the evidence carried over", c.COI.Coauthorships)
	}
}

func TestMergeCOISumsSharedAuthors(t *testing.T) {
	a := &types.COIReport{
		HasCoauthorCOI: true,
		Coauthorships: []types.Coauthorship{
			{ProposalAuthor: "John Doe", PaperCount: 2, RecentTitles: []string{"Paper A"}},
		},
	}
	b := &types.COIReport{
		HasInstitutionCOI: true,
		HasCoauthorCOI:    true,
		Coauthorships: []types.Coauthorship{
			{ProposalAuthor: "John Doe", PaperCount: 1, RecentTitles: []string{"Paper A", "Paper B"}},
			{ProposalAuthor: "Mary Roe", PaperCount: 1},
		},
	}

	merged := mergeCOI(a, b)
	if !merged.HasInstitutionCOI || !merged.HasCoauthorCOI {
		t.Errorf("flags = %+v, want both set", merged)
	}
	if len(merged.Coauthorships) != 2 {
		t.Fatalf("coauthorships = %d, want 2", len(merged.Coauthorships))
	}
	doe := merged.Coauthorships[0]
	if doe.ProposalAuthor != "John Doe" || doe.PaperCount != 3 {
		t.Errorf("John Doe = %+v, want summed paper count 3", doe)
	}
	if len(doe.RecentTitles) != 2 {
		t.Errorf("titles = %v, want duplicates coalesced", doe.RecentTitles)
	}
}

func TestDedupeKeepsDistinctPeople(t *testing.T) {
	out := dedupeCandidates([]types.Candidate{
		{Name: "Jane Smith", Origin: types.SourceClaudeSuggestion},
		{Name: "John Smith", Origin: types.SourceClaudeSuggestion},
	})
	if len(out) != 2 {
		t.Fatalf("dedupe left %d candidates, want 2", len(out))
	}
}

func TestFrequentAuthors(t *testing.T) {
	records := []types.PublicationRecord{
		{SourceID: "1", Authors: []string{"Alice Wong", "Bob Lee"}},
		{SourceID: "2", Authors: []string{"Alice Wong"}},
		{SourceID: "3", Authors: []string{"Alice Wong", "Carol Chen"}},
		{SourceID: "4", Authors: []string{"Bob Lee", "Carol Chen"}},
	}

	got := frequentAuthors(records, []string{"Carol Chen"}, 2)
	want := []string{"Alice Wong", "Bob Lee"}
	if len(got) != len(want) {
		t.Fatalf("frequentAuthors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("author %d = %q, want %q", i, got[i], want[i])
		}
	}
}
