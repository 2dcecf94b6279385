// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"sort"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// Result is the full outcome of a discovery run.
type Result struct {
	// Verified holds suggested candidates that received a confidence
	// score, including low-confidence and mismatch-flagged ones.
	Verified []types.Candidate `json:"verified" yaml:"verified"`

	// Discovered holds candidates found through database subject
	// search rather than suggestion.
	Discovered []types.Candidate `json:"discovered" yaml:"discovered"`

	// Unverified holds suggested candidates with no publication
	// evidence. Each carries a Reason.
	Unverified []types.Candidate `json:"unverified" yaml:"unverified"`

	// Ranked is the ordered union of Verified and Discovered followed
	// by Unverified, used for selection actions.
	Ranked []types.Candidate `json:"ranked" yaml:"ranked"`

	// Warnings records degraded sources and other recoverable
	// failures encountered during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// dedupeCandidates collapses candidates that refer to the same person.
// When a suggested candidate and a database-discovered one collide, the
// suggestion wins and absorbs the discovery's publication evidence; the
// duplicate discovery entry is dropped.
func dedupeCandidates(candidates []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if identity.NameKey(c.Name) == "" {
			continue
		}
		merged := false
		for i := range out {
			if identity.SameName(out[i].Name, c.Name) {
				out[i] = mergeCandidates(out[i], c)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, c)
		}
	}
	return out
}

// mergeCandidates combines two entries for the same person. The
// suggestion-origin entry is kept as the base; otherwise the first one
// seen wins. Publication evidence is pooled either way.
func mergeCandidates(a, b types.Candidate) types.Candidate {
	base, other := a, b
	if base.Origin != types.SourceClaudeSuggestion && other.Origin == types.SourceClaudeSuggestion {
		base, other = other, base
	}
	base.Publications = mergePublications(base.Publications, other.Publications)
	if base.Affiliation == "" {
		base.Affiliation = other.Affiliation
	}
	if len(base.Expertise) == 0 {
		base.Expertise = other.Expertise
	}
	if base.Verification == nil {
		base.Verification = other.Verification
	}
	base.COI = mergeCOI(base.COI, other.COI)
	return base
}

// mergeCOI unions two conflict reports. Either entry's evidence may have
// surfaced a conflict the other's search missed; a set flag survives the
// merge no matter which side carried it.
func mergeCOI(a, b *types.COIReport) *types.COIReport {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &types.COIReport{
		HasInstitutionCOI: a.HasInstitutionCOI || b.HasInstitutionCOI,
		HasCoauthorCOI:    a.HasCoauthorCOI || b.HasCoauthorCOI,
		Coauthorships:     append([]types.Coauthorship(nil), a.Coauthorships...),
	}
	for _, co := range b.Coauthorships {
		found := false
		for i := range merged.Coauthorships {
			if merged.Coauthorships[i].ProposalAuthor == co.ProposalAuthor {
				merged.Coauthorships[i].PaperCount += co.PaperCount
				merged.Coauthorships[i].RecentTitles = mergeTitles(
					merged.Coauthorships[i].RecentTitles, co.RecentTitles)
				found = true
				break
			}
		}
		if !found {
			merged.Coauthorships = append(merged.Coauthorships, co)
		}
	}
	return merged
}

func mergeTitles(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			a = append(a, t)
		}
	}
	return a
}

func mergePublications(a, b []types.PublicationRecord) []types.PublicationRecord {
	seen := make(map[string]bool, len(a))
	for _, p := range a {
		seen[p.Source+":"+p.SourceID] = true
	}
	for _, p := range b {
		key := p.Source + ":" + p.SourceID
		if seen[key] {
			continue
		}
		seen[key] = true
		a = append(a, p)
	}
	return a
}

// excludeCandidates drops candidates whose names match the exclusion
// list, comparing with the same tolerance as identity matching.
func excludeCandidates(candidates []types.Candidate, excluded []string) []types.Candidate {
	if len(excluded) == 0 {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		skip := false
		for _, name := range excluded {
			if identity.SameName(c.Name, name) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}

// rankCandidates orders scored candidates: conflict-free first, then by
// confidence, then by seniority, with suggested candidates ahead of
// database discoveries on a full tie.
func rankCandidates(candidates []types.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aCOI, bCOI := a.COI != nil && a.COI.HasAny(), b.COI != nil && b.COI.HasAny()
		if aCOI != bCOI {
			return !aCOI
		}
		ac, bc := confidenceOf(a), confidenceOf(b)
		if ac != bc {
			return ac > bc
		}
		if ar, br := a.Seniority.Rank(), b.Seniority.Rank(); ar != br {
			return ar > br
		}
		if a.Origin != b.Origin {
			return a.Origin == types.SourceClaudeSuggestion
		}
		return false
	})
}

func confidenceOf(c types.Candidate) float64 {
	if c.Verification == nil {
		return -1
	}
	return c.Verification.Confidence
}

// assemble partitions deduplicated candidates into the result lists and
// builds the ranked union. Unverified candidates rank after every
// scored one, preserving their relative order.
func assemble(candidates []types.Candidate, warnings []string) *Result {
	res := &Result{Warnings: warnings}
	var scored, unverified []types.Candidate
	for _, c := range candidates {
		switch {
		case c.Origin == types.SourceDatabaseDiscovery:
			res.Discovered = append(res.Discovered, c)
			scored = append(scored, c)
		case c.Verification != nil:
			res.Verified = append(res.Verified, c)
			scored = append(scored, c)
		default:
			res.Unverified = append(res.Unverified, c)
			unverified = append(unverified, c)
		}
	}
	rankCandidates(scored)
	res.Ranked = append(scored, unverified...)
	return res
}
