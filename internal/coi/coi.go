// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coi detects conflicts of interest between a reviewer candidate
// and a proposal's authors: shared publications (co-author COI) and
// institutional overlap. The detector scans the candidate's full
// publication history; evidence titles are capped for display but the
// underlying counts never are.
package coi

import (
	"sort"
	"strings"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// DefaultEvidenceLimit caps the shared-paper titles retained per proposal
// author. Display cap only: PaperCount always reflects the full history.
const DefaultEvidenceLimit = 3

// Detect checks the candidate's publications and affiliation against the
// proposal's author list and institution. evidenceLimit ≤ 0 uses the
// default.
func Detect(candidate types.Candidate, proposalAuthors []string, proposalInstitution string, evidenceLimit int) types.COIReport {
	if evidenceLimit <= 0 {
		evidenceLimit = DefaultEvidenceLimit
	}

	report := types.COIReport{
		HasInstitutionCOI: institutionsOverlap(candidate.Affiliation, proposalInstitution),
	}

	for _, author := range proposalAuthors {
		if author == "" {
			continue
		}
		// The candidate being a proposal author themselves is an
		// institution-level concern, not a co-authorship.
		if identity.SameName(candidate.Name, author) {
			continue
		}

		shared := sharedPapers(candidate.Publications, author)
		if len(shared) == 0 {
			continue
		}

		// Most recent first for the evidence titles.
		sort.Slice(shared, func(i, j int) bool {
			if shared[i].Year != shared[j].Year {
				return shared[i].Year > shared[j].Year
			}
			return shared[i].Date.After(shared[j].Date)
		})

		co := types.Coauthorship{
			ProposalAuthor: author,
			PaperCount:     len(shared),
		}
		for i, p := range shared {
			if i >= evidenceLimit {
				break
			}
			co.RecentTitles = append(co.RecentTitles, p.Title)
		}
		report.Coauthorships = append(report.Coauthorships, co)
	}

	report.HasCoauthorCOI = len(report.Coauthorships) > 0
	return report
}

// sharedPapers returns the candidate's publications that list the
// proposal author.
func sharedPapers(pubs []types.PublicationRecord, proposalAuthor string) []types.PublicationRecord {
	var shared []types.PublicationRecord
	for _, p := range pubs {
		for _, a := range p.Authors {
			if identity.SameName(a, proposalAuthor) {
				shared = append(shared, p)
				break
			}
		}
	}
	return shared
}

// institutionsOverlap matches affiliations case-insensitively and
// substring-tolerantly in both directions, after light normalization.
func institutionsOverlap(candidateAffiliation, proposalInstitution string) bool {
	a := normalizeInstitution(candidateAffiliation)
	b := normalizeInstitution(proposalInstitution)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeInstitution(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, cut := range []string{",", ".", "(", ")"} {
		s = strings.ReplaceAll(s, cut, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}
