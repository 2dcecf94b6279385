// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze turns a grant proposal's text into a structured
// analysis: investigators, research area, keywords, and suggested
// reviewers. The model's output is untrusted input and is validated
// before anything downstream sees it.
package analyze

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

const defaultMaxSuggestions = 10

// Backend abstracts the Generative AI API so tests can supply a mock.
type Backend interface {
	Analyze(ctx context.Context, proposalText string, maxSuggestions int) (types.ProposalAnalysis, error)
}

// AnalyzeProposal runs the analysis backend over the proposal text and
// validates the result. Invalid suggestions are dropped rather than
// failing the run; an analysis with no usable content at all is an error.
func AnalyzeProposal(ctx context.Context, backend Backend, text string, cfg types.AnalysisConfig) (*types.ProposalAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("proposal text is empty")
	}

	maxSuggestions := cfg.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = defaultMaxSuggestions
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	analysis, err := callWithRetry(ctx, backend, text, maxSuggestions, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("analyzing proposal: %w", err)
	}

	sanitize(&analysis, maxSuggestions)
	if analysis.Title == "" && len(analysis.Suggestions) == 0 && len(analysis.Keywords) == 0 {
		return nil, fmt.Errorf("analysis produced no usable content")
	}
	return &analysis, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff.
func callWithRetry(ctx context.Context, backend Backend, text string, maxSuggestions, maxRetries int) (types.ProposalAnalysis, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return types.ProposalAnalysis{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		analysis, err := backend.Analyze(ctx, text, maxSuggestions)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
	}
	return types.ProposalAnalysis{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// sanitize normalizes untrusted model output in place: nameless or
// duplicate suggestions are dropped, unknown seniority values are
// cleared, and the suggestion list is capped.
func sanitize(analysis *types.ProposalAnalysis, maxSuggestions int) {
	analysis.Title = strings.TrimSpace(analysis.Title)
	analysis.PrincipalInvestigator = strings.TrimSpace(analysis.PrincipalInvestigator)
	analysis.Institution = strings.TrimSpace(analysis.Institution)
	analysis.ResearchArea = strings.TrimSpace(analysis.ResearchArea)
	analysis.Keywords = cleanStrings(analysis.Keywords)
	analysis.CoInvestigators = cleanStrings(analysis.CoInvestigators)

	var kept []types.ReviewerSuggestion
	for _, s := range analysis.Suggestions {
		s.Name = strings.TrimSpace(s.Name)
		if identity.NameKey(s.Name) == "" {
			continue
		}
		duplicate := false
		for _, k := range kept {
			if identity.SameName(k.Name, s.Name) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		s.Affiliation = strings.TrimSpace(s.Affiliation)
		s.Expertise = cleanStrings(s.Expertise)
		switch s.Seniority {
		case types.SeniorityEmerging, types.SeniorityEstablished, types.SenioritySenior:
		default:
			s.Seniority = types.SeniorityUnknown
		}

		kept = append(kept, s)
		if len(kept) == maxSuggestions {
			break
		}
	}
	analysis.Suggestions = kept
}

func cleanStrings(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WriteAnalysisFile saves an analysis to a YAML file for the discovery
// stage to pick up later.
func WriteAnalysisFile(path string, analysis *types.ProposalAnalysis) error {
	data, err := yaml.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAnalysisFile loads a previously saved analysis from disk.
func ReadAnalysisFile(path string) (*types.ProposalAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading analysis file: %w", err)
	}
	var analysis types.ProposalAnalysis
	if err := yaml.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("parsing analysis file: %w", err)
	}
	return &analysis, nil
}
