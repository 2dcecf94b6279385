// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Seniority is a coarse career-stage estimate for a reviewer candidate.
type Seniority string

const (
	SeniorityUnknown     Seniority = ""
	SeniorityEmerging    Seniority = "emerging"
	SeniorityEstablished Seniority = "established"
	SenioritySenior      Seniority = "senior"
)

// Rank orders seniority values for composite scoring. Unknown ranks lowest.
func (s Seniority) Rank() int {
	switch s {
	case SenioritySenior:
		return 3
	case SeniorityEstablished:
		return 2
	case SeniorityEmerging:
		return 1
	default:
		return 0
	}
}

// ReviewerSuggestion is one reviewer proposed by the analysis backend.
// Every field is a claim to be verified against bibliographic evidence,
// never ground truth.
type ReviewerSuggestion struct {
	// Name is the suggested reviewer's name, possibly with a title
	// prefix ("Dr.", "Prof.") the model included.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the claimed current institution.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// Expertise lists the claimed areas of expertise.
	Expertise []string `json:"expertise,omitempty" yaml:"expertise,omitempty"`

	// Reasoning is the model's free-text justification for the suggestion.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Seniority is the model's career-stage estimate.
	Seniority Seniority `json:"seniority,omitempty" yaml:"seniority,omitempty"`
}

// ProposalAnalysis is the structured output of the analysis stage.
// Immutable once produced; consumed by discovery.
type ProposalAnalysis struct {
	// Title is the proposal title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the proposal abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// PrincipalInvestigator is the PI's name.
	PrincipalInvestigator string `json:"principal_investigator" yaml:"principal_investigator"`

	// CoInvestigators lists co-investigator names.
	CoInvestigators []string `json:"co_investigators,omitempty" yaml:"co_investigators,omitempty"`

	// Institution is the proposing institution.
	Institution string `json:"institution" yaml:"institution"`

	// ResearchArea is the primary research area.
	ResearchArea string `json:"research_area" yaml:"research_area"`

	// Keywords lists subject-matter terms used for database discovery.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Suggestions lists the reviewers the model proposed.
	Suggestions []ReviewerSuggestion `json:"suggestions" yaml:"suggestions"`
}

// Authors returns the PI and co-investigators as a single list.
func (a ProposalAnalysis) Authors() []string {
	authors := make([]string, 0, 1+len(a.CoInvestigators))
	if a.PrincipalInvestigator != "" {
		authors = append(authors, a.PrincipalInvestigator)
	}
	authors = append(authors, a.CoInvestigators...)
	return authors
}
