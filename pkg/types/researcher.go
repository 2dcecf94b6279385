// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// KeywordSource tags where an expertise keyword came from.
type KeywordSource string

const (
	// KeywordFromClaude marks keywords taken from the analysis model's
	// suggestion.
	KeywordFromClaude KeywordSource = "claude"

	// KeywordFromPublications marks keywords derived from publication
	// titles.
	KeywordFromPublications KeywordSource = "publications"
)

// KeywordFromSource tags keywords contributed by a named bibliographic
// database (e.g. "source:pubmed").
func KeywordFromSource(source string) KeywordSource {
	return KeywordSource("source:" + source)
}

// Keyword is one expertise tag on a researcher, with its provenance.
type Keyword struct {
	Value  string        `json:"value" yaml:"value"`
	Source KeywordSource `json:"source" yaml:"source"`
}

// Researcher is the canonical persistent identity record: one row
// represents one real person. Duplicate rows are collapsed by merge
// operations keyed on email, ORCID, Google Scholar ID, or name.
type Researcher struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	Department  string `json:"department,omitempty" yaml:"department,omitempty"`

	// Contact fields. EmailSource and EmailYear record provenance.
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	EmailSource string `json:"email_source,omitempty" yaml:"email_source,omitempty"`
	EmailYear   int    `json:"email_year,omitempty" yaml:"email_year,omitempty"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
	ORCID       string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
	ScholarID   string `json:"scholar_id,omitempty" yaml:"scholar_id,omitempty"`

	// Bibliometrics.
	HIndex        int `json:"h_index,omitempty" yaml:"h_index,omitempty"`
	I10Index      int `json:"i10_index,omitempty" yaml:"i10_index,omitempty"`
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	Keywords []Keyword `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	CreatedAt         time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" yaml:"updated_at"`
	ContactEnrichedAt *time.Time `json:"contact_enriched_at,omitempty" yaml:"contact_enriched_at,omitempty"`
}

// ResponseType records how a contacted reviewer answered.
type ResponseType string

const (
	ResponseAccepted ResponseType = "accepted"
	ResponseDeclined ResponseType = "declined"
	ResponseBounced  ResponseType = "bounced"
)

// SavedCandidate associates a Researcher with a Proposal. Many-to-many:
// one researcher may be saved against many proposals.
type SavedCandidate struct {
	ID           int64  `json:"id" yaml:"id"`
	ResearcherID string `json:"researcher_id" yaml:"researcher_id"`
	ProposalID   string `json:"proposal_id" yaml:"proposal_id"`

	// RelevanceScore is the verification confidence at save time, when
	// one existed.
	RelevanceScore *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// Reasoning is the match reasoning text shown to the user.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// COI flags carried over from discovery. Never dropped once set.
	HasInstitutionCOI bool `json:"has_institution_coi" yaml:"has_institution_coi"`
	HasCoauthorCOI    bool `json:"has_coauthor_coi" yaml:"has_coauthor_coi"`

	// Selection and invitation state.
	Invited      bool         `json:"invited" yaml:"invited"`
	Accepted     bool         `json:"accepted" yaml:"accepted"`
	Declined     bool         `json:"declined" yaml:"declined"`
	EmailSentAt  *time.Time   `json:"email_sent_at,omitempty" yaml:"email_sent_at,omitempty"`
	ResponseType ResponseType `json:"response_type,omitempty" yaml:"response_type,omitempty"`
	Notes        string       `json:"notes,omitempty" yaml:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Proposal is the persisted record a discovery run was performed for.
type Proposal struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Institution  string    `json:"institution,omitempty" yaml:"institution,omitempty"`
	Investigator string    `json:"investigator,omitempty" yaml:"investigator,omitempty"`
	GrantCycleID string    `json:"grant_cycle_id,omitempty" yaml:"grant_cycle_id,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// GrantCycle is a time-boxed review period proposals may be assigned to.
// A grouping key on persisted data, not part of the discovery algorithm.
type GrantCycle struct {
	ID        string    `json:"id" yaml:"id"`
	Code      string    `json:"code" yaml:"code"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
