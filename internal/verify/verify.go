// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify scores how likely it is that retrieved publication
// evidence actually belongs to a claimed reviewer candidate. The output
// is a confidence in [0,1] bucketed into three bands, plus independent
// institution and expertise mismatch flags. Ambiguous identities are
// never auto-resolved: the verifier reports, a human decides.
package verify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// Claim is the identity being verified: what the analysis model (or the
// user) asserted about a candidate.
type Claim struct {
	Name        string
	Affiliation string
	Expertise   []string
}

// Default band boundaries and signal weights. Chosen empirically; the
// three-band behavior is the contract, the exact numbers are not.
const (
	DefaultLowConfidence      = 0.35
	DefaultAcceptedConfidence = 0.65

	defaultNameWeight        = 0.25
	defaultAffiliationWeight = 0.45
	defaultExpertiseWeight   = 0.30
)

// Verify scores the claim against the publication evidence. It returns an
// error when no publications are supplied: zero evidence means the
// candidate is unverified, not low-confidence, and must never receive a
// numeric score.
func Verify(claim Claim, pubs []types.PublicationRecord, cfg types.VerificationConfig) (types.Verification, error) {
	if len(pubs) == 0 {
		return types.Verification{}, fmt.Errorf("no publication evidence for %q", claim.Name)
	}

	cfg = withDefaults(cfg)

	affilScore, affilFound := affiliationAgreement(claim.Affiliation, pubs)
	expertScore, expertFound := expertiseAgreement(claim.Expertise, pubs)
	nameScore := nameSpecificity(pubs)

	// Blend the available signals. A claim without an affiliation or
	// expertise hint drops that signal instead of scoring it zero.
	num := cfg.NameWeight * nameScore
	den := cfg.NameWeight
	if claim.Affiliation != "" {
		num += cfg.AffiliationWeight * affilScore
		den += cfg.AffiliationWeight
	}
	if len(claim.Expertise) > 0 {
		num += cfg.ExpertiseWeight * expertScore
		den += cfg.ExpertiseWeight
	}

	confidence := clamp01(num / den)

	v := types.Verification{
		Confidence:          confidence,
		Band:                band(confidence, cfg),
		InstitutionMismatch: claim.Affiliation != "" && !affilFound,
		ExpertiseMismatch:   len(claim.Expertise) > 0 && !expertFound,
	}
	v.Reason = reason(v)
	return v, nil
}

// withDefaults fills zero-valued parameters.
func withDefaults(cfg types.VerificationConfig) types.VerificationConfig {
	if cfg.LowConfidence == 0 {
		cfg.LowConfidence = DefaultLowConfidence
	}
	if cfg.AcceptedConfidence == 0 {
		cfg.AcceptedConfidence = DefaultAcceptedConfidence
	}
	if cfg.NameWeight == 0 && cfg.AffiliationWeight == 0 && cfg.ExpertiseWeight == 0 {
		cfg.NameWeight = defaultNameWeight
		cfg.AffiliationWeight = defaultAffiliationWeight
		cfg.ExpertiseWeight = defaultExpertiseWeight
	}
	return cfg
}

func band(confidence float64, cfg types.VerificationConfig) types.ConfidenceBand {
	switch {
	case confidence < cfg.LowConfidence:
		return types.BandLow
	case confidence < cfg.AcceptedConfidence:
		return types.BandWeak
	default:
		return types.BandAccepted
	}
}

func reason(v types.Verification) string {
	var parts []string
	switch v.Band {
	case types.BandLow:
		parts = append(parts, "low match, possibly wrong person")
	case types.BandWeak:
		parts = append(parts, "weak match, verify manually")
	}
	if v.InstitutionMismatch {
		parts = append(parts, "claimed institution not found in any publication affiliation")
	}
	if v.ExpertiseMismatch {
		parts = append(parts, "claimed expertise not found in publication titles or abstracts")
	}
	return strings.Join(parts, "; ")
}

// affiliationAgreement returns the strongest token-overlap between the
// claimed affiliation and any publication's affiliation strings, plus
// whether the claimed institution appears at all.
func affiliationAgreement(claimed string, pubs []types.PublicationRecord) (score float64, found bool) {
	claimedTokens := affiliationTokens(claimed)
	if len(claimedTokens) == 0 {
		return 0, false
	}

	best := 0.0
	for _, p := range pubs {
		for _, aff := range p.Affiliations {
			overlap := tokenOverlap(claimedTokens, affiliationTokens(aff))
			if overlap > best {
				best = overlap
			}
			if !found && affiliationContains(aff, claimed) {
				found = true
			}
		}
	}
	if best >= 0.5 {
		found = true
	}
	return best, found
}

// affiliationContains reports whether the normalized affiliation text
// contains the normalized claimed institution as a substring.
func affiliationContains(affiliation, claimed string) bool {
	a := normalizeText(affiliation)
	c := normalizeText(claimed)
	return c != "" && strings.Contains(a, c)
}

// affiliationStopwords are tokens too common to carry identity signal.
var affiliationStopwords = map[string]bool{
	"of": true, "the": true, "and": true, "at": true, "for": true,
	"department": true, "dept": true, "school": true, "center": true,
	"centre": true, "institute": true, "laboratory": true, "lab": true,
	"university": true, "college": true,
}

func affiliationTokens(s string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(normalizeText(s)) {
		if !affiliationStopwords[tok] && len(tok) > 1 {
			tokens[tok] = true
		}
	}
	return tokens
}

// tokenOverlap returns the fraction of claimed tokens present in the
// candidate token set.
func tokenOverlap(claimed, other map[string]bool) float64 {
	if len(claimed) == 0 {
		return 0
	}
	matched := 0
	for tok := range claimed {
		if other[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(claimed))
}

// expertiseAgreement returns the fraction of claimed expertise terms that
// appear in publication titles, abstracts, or venues, and whether any
// term appeared at all.
func expertiseAgreement(expertise []string, pubs []types.PublicationRecord) (score float64, found bool) {
	if len(expertise) == 0 {
		return 0, false
	}

	var corpus strings.Builder
	for _, p := range pubs {
		corpus.WriteString(normalizeText(p.Title))
		corpus.WriteByte(' ')
		corpus.WriteString(normalizeText(p.Abstract))
		corpus.WriteByte(' ')
		corpus.WriteString(normalizeText(p.Venue))
		corpus.WriteByte(' ')
	}
	text := corpus.String()

	matched := 0
	for _, term := range expertise {
		if termMatches(text, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(expertise)), matched > 0
}

// termMatches reports whether the term, or a majority of its words,
// appears in the corpus text.
func termMatches(text, term string) bool {
	norm := normalizeText(term)
	if norm == "" {
		return false
	}
	if strings.Contains(text, norm) {
		return true
	}
	words := strings.Fields(norm)
	if len(words) < 2 {
		return false
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			matched++
		}
	}
	return matched*2 > len(words)
}

// nameSpecificity penalizes ambiguous names by counting how many distinct
// institutional clusters the evidence spans. Publications for one real
// person tend to concentrate in a handful of affiliations; a name whose
// hits scatter across many unrelated institutions is likely several
// same-named people.
func nameSpecificity(pubs []types.PublicationRecord) float64 {
	var clusters []map[string]bool
	for _, p := range pubs {
		for _, aff := range p.Affiliations {
			tokens := affiliationTokens(aff)
			if len(tokens) == 0 {
				continue
			}
			placed := false
			for _, c := range clusters {
				if tokenOverlap(tokens, c) >= 0.5 || tokenOverlap(c, tokens) >= 0.5 {
					for tok := range tokens {
						c[tok] = true
					}
					placed = true
					break
				}
			}
			if !placed {
				clusters = append(clusters, tokens)
			}
		}
	}

	switch {
	case len(clusters) <= 1:
		return 1.0
	case len(clusters) == 2:
		return 0.7
	case len(clusters) == 3:
		return 0.5
	default:
		return 0.3
	}
}

func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
