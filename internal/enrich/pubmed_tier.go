// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// TierPubMedAffiliation labels emails extracted from publication
// affiliation text.
const TierPubMedAffiliation = "pubmed_affiliation"

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// PubMedAffiliationTier extracts contact emails from the affiliation
// strings already attached to the candidate's publications. PubMed
// affiliation text often carries the corresponding author's address
// ("Electronic address: jsmith@stanford.edu"). Free: no network calls.
type PubMedAffiliationTier struct{}

func (t *PubMedAffiliationTier) Name() string  { return TierPubMedAffiliation }
func (t *PubMedAffiliationTier) Cost() float64 { return 0 }

// Lookup scans the candidate's publication affiliations newest-first
// and returns the first email plausibly belonging to the candidate,
// falling back to any email found.
func (t *PubMedAffiliationTier) Lookup(_ context.Context, candidate types.Candidate) (types.ContactInfo, error) {
	type hit struct {
		email string
		year  int
	}
	var personal, any *hit

	lastName := lastNameOf(candidate.Name)
	for _, p := range newestFirst(candidate.Publications) {
		for _, aff := range p.Affiliations {
			for _, email := range emailRe.FindAllString(aff, -1) {
				email = strings.TrimRight(email, ".")
				h := &hit{email: email, year: p.Year}
				if any == nil {
					any = h
				}
				if personal == nil && lastName != "" && strings.Contains(strings.ToLower(email), lastName) {
					personal = h
				}
			}
		}
		if personal != nil {
			break
		}
	}

	best := personal
	if best == nil {
		best = any
	}
	if best == nil {
		return types.ContactInfo{}, nil
	}
	return types.ContactInfo{
		Email:       best.email,
		EmailSource: TierPubMedAffiliation,
		EmailYear:   best.year,
	}, nil
}

// newestFirst returns the publications ordered by year descending
// without mutating the input.
func newestFirst(pubs []types.PublicationRecord) []types.PublicationRecord {
	out := make([]types.PublicationRecord, len(pubs))
	copy(out, pubs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

func lastNameOf(name string) string {
	fields := strings.Fields(identity.NameKey(name))
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if len(last) < 3 {
		return ""
	}
	return last
}
