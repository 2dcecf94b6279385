// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/justingallivan/reviewer-engine/internal/biblio"
	"github.com/justingallivan/reviewer-engine/internal/coi"
	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/internal/verify"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

const (
	defaultMaxConcurrent = 4
	defaultMaxDiscovered = 10
)

// Deps carries the external collaborators a discovery run needs.
type Deps struct {
	Sources []biblio.Source
}

// Run verifies every suggested reviewer against bibliographic evidence,
// discovers additional candidates from subject searches, detects
// conflicts of interest, and ranks the lot. Suggested candidates whose
// verification cannot complete are surfaced as unverified with a
// reason; only context cancellation or a fully unusable input aborts
// the run.
func Run(ctx context.Context, analysis types.ProposalAnalysis, deps Deps, cfg types.DiscoveryConfig, excluded []string, progress ProgressFunc) (*Result, error) {
	if len(analysis.Suggestions) == 0 && len(analysis.Keywords) == 0 && analysis.ResearchArea == "" {
		return nil, &StageError{Stage: StageVerification, Err: fmt.Errorf("analysis has no suggestions and no subject terms")}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.MaxDiscovered <= 0 {
		cfg.MaxDiscovered = defaultMaxDiscovered
	}
	if cfg.CoauthorEvidenceLimit <= 0 {
		cfg.CoauthorEvidenceLimit = coi.DefaultEvidenceLimit
	}

	proposalAuthors := analysis.Authors()

	emit(progress, Event{Stage: StageVerification, Kind: EventStageStarted,
		Message: fmt.Sprintf("verifying %d suggested reviewers", len(analysis.Suggestions))})

	var mu sync.Mutex
	var warnings []string
	candidates := make([]types.Candidate, len(analysis.Suggestions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrent)
	for i, s := range analysis.Suggestions {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, warns := verifySuggestion(gctx, s, deps, cfg, proposalAuthors, analysis.Institution, progress)
			mu.Lock()
			candidates[i] = c
			warnings = append(warnings, warns...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &StageError{Stage: StageVerification, Err: err}
	}

	discovered, warns, err := discoverCandidates(ctx, analysis, deps, cfg, candidates, excluded, progress)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, warns...)
	candidates = append(candidates, discovered...)

	emit(progress, Event{Stage: StageRanking, Kind: EventStageStarted, Message: "ranking candidates"})
	candidates = excludeCandidates(candidates, excluded)
	candidates = dedupeCandidates(candidates)

	sort.Strings(warnings)
	return assemble(candidates, warnings), nil
}

// verifySuggestion turns one model suggestion into a scored or
// unverified candidate. Failures degrade the candidate, never the run.
func verifySuggestion(ctx context.Context, s types.ReviewerSuggestion, deps Deps, cfg types.DiscoveryConfig, proposalAuthors []string, proposalInstitution string, progress ProgressFunc) (types.Candidate, []string) {
	c := types.Candidate{
		Name:        s.Name,
		Affiliation: s.Affiliation,
		Expertise:   s.Expertise,
		Reasoning:   s.Reasoning,
		Seniority:   s.Seniority,
		Origin:      types.SourceClaudeSuggestion,
	}

	query := biblio.Query{Name: s.Name, Affiliation: s.Affiliation, Keywords: s.Expertise}
	records, warns := biblio.SearchAll(ctx, query, deps.Sources, cfg.Sources)
	for _, w := range warns {
		emit(progress, Event{Stage: StageVerification, Kind: EventSourceDegraded, Candidate: s.Name, Message: w})
	}

	c.Publications = biblio.FilterByAuthor(records, s.Name)
	if len(c.Publications) == 0 {
		c.Reason = "no publications found in any enabled source"
		emit(progress, Event{Stage: StageVerification, Kind: EventCandidateUnverified, Candidate: s.Name, Message: c.Reason})
		return c, warns
	}

	claim := verify.Claim{Name: s.Name, Affiliation: s.Affiliation, Expertise: s.Expertise}
	v, err := verify.Verify(claim, c.Publications, cfg.Verification)
	if err != nil {
		c.Publications = nil
		c.Reason = fmt.Sprintf("verification failed: %v", err)
		emit(progress, Event{Stage: StageVerification, Kind: EventCandidateUnverified, Candidate: s.Name, Message: c.Reason})
		return c, warns
	}
	c.Verification = &v

	report := coi.Detect(c, proposalAuthors, proposalInstitution, cfg.CoauthorEvidenceLimit)
	c.COI = &report

	emit(progress, Event{Stage: StageVerification, Kind: EventCandidateVerified, Candidate: s.Name, Confidence: v.Confidence})
	return c, warns
}

// discoverCandidates finds reviewers the model did not suggest by
// searching the sources for the proposal's subject terms and promoting
// the most frequent authors of the results.
func discoverCandidates(ctx context.Context, analysis types.ProposalAnalysis, deps Deps, cfg types.DiscoveryConfig, suggested []types.Candidate, excluded []string, progress ProgressFunc) ([]types.Candidate, []string, error) {
	keywords := analysis.Keywords
	if len(keywords) == 0 && analysis.ResearchArea != "" {
		keywords = []string{analysis.ResearchArea}
	}
	if len(keywords) == 0 {
		return nil, nil, nil
	}

	emit(progress, Event{Stage: StageDiscovery, Kind: EventStageStarted,
		Message: fmt.Sprintf("searching sources for %s", strings.Join(keywords, ", "))})

	records, warnings := biblio.SearchAll(ctx, biblio.Query{Keywords: keywords}, deps.Sources, cfg.Sources)
	if err := ctx.Err(); err != nil {
		return nil, nil, &StageError{Stage: StageDiscovery, Err: err}
	}
	for _, w := range warnings {
		emit(progress, Event{Stage: StageDiscovery, Kind: EventSourceDegraded, Message: w})
	}

	skip := make([]string, 0, len(suggested)+len(analysis.Authors())+len(excluded))
	for _, c := range suggested {
		skip = append(skip, c.Name)
	}
	skip = append(skip, analysis.Authors()...)
	skip = append(skip, excluded...)

	proposalAuthors := analysis.Authors()
	var out []types.Candidate
	for _, name := range frequentAuthors(records, skip, cfg.MaxDiscovered) {
		c := types.Candidate{
			Name:      name,
			Expertise: keywords,
			Origin:    types.SourceDatabaseDiscovery,
		}
		c.Publications = biblio.FilterByAuthor(records, name)
		c.Affiliation = dominantAffiliation(c.Publications)

		// Discovered candidates carry no claimed affiliation; scoring
		// them against one derived from the same evidence would be
		// circular, so only name and expertise signals are blended.
		claim := verify.Claim{Name: name, Expertise: keywords}
		if v, err := verify.Verify(claim, c.Publications, cfg.Verification); err == nil {
			c.Verification = &v
		}

		report := coi.Detect(c, proposalAuthors, analysis.Institution, cfg.CoauthorEvidenceLimit)
		c.COI = &report

		emit(progress, Event{Stage: StageDiscovery, Kind: EventCandidateDiscovered, Candidate: name,
			Message: fmt.Sprintf("discovered with %d matching publications", len(c.Publications))})
		out = append(out, c)
	}
	return out, warnings, nil
}

// frequentAuthors returns up to limit author names ordered by how many
// of the given records they appear on, skipping names in the skip list.
// Ties break alphabetically so results are stable.
func frequentAuthors(records []types.PublicationRecord, skip []string, limit int) []string {
	counts := make(map[string]int)
	display := make(map[string]string)
	for _, rec := range records {
		for _, author := range rec.Authors {
			key := identity.NameKey(author)
			if key == "" {
				continue
			}
			counts[key]++
			// Prefer the longest form seen, it is usually the fullest.
			if len(author) > len(display[key]) {
				display[key] = author
			}
		}
	}

	names := make([]string, 0, len(counts))
	for key := range counts {
		names = append(names, key)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return display[names[i]] < display[names[j]]
	})

	out := make([]string, 0, limit)
	for _, key := range names {
		if len(out) >= limit {
			break
		}
		name := display[key]
		skipped := false
		for _, s := range skip {
			if identity.SameName(name, s) {
				skipped = true
				break
			}
		}
		if !skipped {
			out = append(out, name)
		}
	}
	return out
}

// dominantAffiliation picks the most frequent affiliation string across
// the records, favoring the most recent on a tie.
func dominantAffiliation(records []types.PublicationRecord) string {
	counts := make(map[string]int)
	var best string
	for _, rec := range records {
		for _, aff := range rec.Affiliations {
			aff = strings.TrimSpace(aff)
			if aff == "" {
				continue
			}
			counts[aff]++
			if best == "" || counts[aff] > counts[best] {
				best = aff
			}
		}
	}
	return best
}
