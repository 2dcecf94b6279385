// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich finds contact information for reviewer candidates by
// walking a chain of lookup tiers ordered free-to-expensive. The chain
// stops at the first tier that produces usable contact info, so the
// paid tiers only run for candidates the free tiers could not resolve.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// Tier is one contact-lookup strategy. Implementations must treat a
// miss (nothing found) as an empty ContactInfo with a nil error;
// errors mean the tier itself failed.
type Tier interface {
	Name() string
	Cost() float64
	Lookup(ctx context.Context, candidate types.Candidate) (types.ContactInfo, error)
}

// Tiers constructs the enabled tiers in cost order.
func Tiers(cfg types.EnrichmentConfig, client *http.Client) []Tier {
	var tiers []Tier
	if cfg.EnablePubMedTier {
		tiers = append(tiers, &PubMedAffiliationTier{})
	}
	if cfg.EnableORCIDTier {
		tiers = append(tiers, &ORCIDTier{Client: client, Email: cfg.ORCIDEmail})
	}
	if cfg.EnableWebSearchTier {
		tiers = append(tiers, &WebSearchTier{
			Client: client,
			APIKey: cfg.AI.APIKey,
			Model:  cfg.AI.Model,
			cost:   cfg.WebSearchCost,
		})
	}
	if cfg.EnableSearchAPITier {
		tiers = append(tiers, &SearchAPITier{
			Client: client,
			APIKey: cfg.SearchAPIKey,
			cost:   cfg.SearchAPICost,
		})
	}
	return tiers
}

// Enrich walks the tiers for one candidate. A tier failure degrades to
// a warning and the chain continues; exhausting every tier without
// usable contact info returns nil with no error. Partial findings from
// early tiers (an ORCID iD without a public email, say) are carried
// into the final result either way.
func Enrich(ctx context.Context, candidate types.Candidate, tiers []Tier) (*types.ContactInfo, []string, error) {
	var partial types.ContactInfo
	var warnings []string

	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		info, err := tier.Lookup(ctx, candidate)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("tier %s failed for %s: %v", tier.Name(), candidate.Name, err))
			continue
		}

		mergeContact(&partial, info)
		if partial.Usable() {
			return &partial, warnings, nil
		}
	}

	if partial == (types.ContactInfo{}) {
		return nil, warnings, nil
	}
	// Something was found, just nothing usable for outreach.
	return &partial, warnings, nil
}

// mergeContact fills empty fields of dst from src, keeping earlier
// (cheaper, usually higher-precision) findings.
func mergeContact(dst *types.ContactInfo, src types.ContactInfo) {
	if dst.Email == "" && src.Email != "" {
		dst.Email = src.Email
		dst.EmailSource = src.EmailSource
		dst.EmailYear = src.EmailYear
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.ORCID == "" {
		dst.ORCID = src.ORCID
	}
}

// EstimateCost returns the worst-case spend for enriching n candidates:
// every paid tier running for every candidate.
func EstimateCost(n int, tiers []Tier) float64 {
	var perCandidate float64
	for _, tier := range tiers {
		perCandidate += tier.Cost()
	}
	return float64(n) * perCandidate
}

// BatchSummary holds counts from a batch enrichment run.
type BatchSummary struct {
	Enriched int
	Skipped  int
	Missed   int
}

// Total returns the number of candidates processed.
func (s BatchSummary) Total() int {
	return s.Enriched + s.Skipped + s.Missed
}

// EnrichAll runs the chain over a candidate list, attaching contact
// info in place. Candidates that already have usable contact info are
// skipped. Progress goes to w, one line per candidate.
func EnrichAll(ctx context.Context, candidates []types.Candidate, tiers []Tier, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary
	for i := range candidates {
		c := &candidates[i]
		if c.Contact != nil && c.Contact.Usable() {
			fmt.Fprintf(w, "skipped %s (already has contact info)\n", c.Name)
			summary.Skipped++
			continue
		}

		info, warnings, err := Enrich(ctx, *c, tiers)
		if err != nil {
			return summary, fmt.Errorf("enriching %s: %w", c.Name, err)
		}
		for _, warning := range warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}

		if info == nil || !info.Usable() {
			if info != nil {
				c.Contact = info
			}
			fmt.Fprintf(w, "missed  %s\n", c.Name)
			summary.Missed++
			continue
		}

		c.Contact = info
		source := info.EmailSource
		if source == "" {
			source = "website"
		}
		fmt.Fprintf(w, "enriched %s via %s\n", c.Name, source)
		summary.Enriched++
	}
	return summary, nil
}
