// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CandidateSource records how a candidate entered the pipeline.
type CandidateSource string

const (
	// SourceClaudeSuggestion marks candidates proposed by the analysis model.
	SourceClaudeSuggestion CandidateSource = "claude_suggestion"

	// SourceDatabaseDiscovery marks candidates found independently by
	// searching bibliographic sources for the proposal's subject keywords.
	SourceDatabaseDiscovery CandidateSource = "database_discovery"
)

// ConfidenceBand buckets a verification confidence score. The band
// boundaries are configuration, not invariants; only the three-band
// behavior is fixed.
type ConfidenceBand string

const (
	BandLow      ConfidenceBand = "low"
	BandWeak     ConfidenceBand = "weak"
	BandAccepted ConfidenceBand = "accepted"
)

// Verification holds the identity verifier's judgment for one candidate.
// The mismatch flags are independent of the confidence band: both, either,
// or neither may be set in any band.
type Verification struct {
	// Confidence estimates whether the retrieved publications belong to
	// the claimed person. Always in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Band is the confidence band Confidence falls in.
	Band ConfidenceBand `json:"band" yaml:"band"`

	// InstitutionMismatch is set when the claimed affiliation appears in
	// none of the retrieved publications' affiliation strings.
	InstitutionMismatch bool `json:"institution_mismatch" yaml:"institution_mismatch"`

	// ExpertiseMismatch is set when none of the claimed expertise terms
	// appear in retrieved titles or abstracts.
	ExpertiseMismatch bool `json:"expertise_mismatch" yaml:"expertise_mismatch"`

	// Reason is a human-readable summary of the judgment.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Coauthorship is evidence of a co-author conflict with one proposal author.
type Coauthorship struct {
	// ProposalAuthor is the matched proposal author's name.
	ProposalAuthor string `json:"proposal_author" yaml:"proposal_author"`

	// PaperCount is the total number of shared papers. Never capped,
	// even when the evidence titles are.
	PaperCount int `json:"paper_count" yaml:"paper_count"`

	// RecentTitles holds up to a display cap of the most recent shared
	// paper titles.
	RecentTitles []string `json:"recent_titles,omitempty" yaml:"recent_titles,omitempty"`
}

// COIReport holds conflict-of-interest findings for one candidate.
// Once set, COI flags propagate through ranking and into saved records.
type COIReport struct {
	HasInstitutionCOI bool           `json:"has_institution_coi" yaml:"has_institution_coi"`
	HasCoauthorCOI    bool           `json:"has_coauthor_coi" yaml:"has_coauthor_coi"`
	Coauthorships     []Coauthorship `json:"coauthorships,omitempty" yaml:"coauthorships,omitempty"`
}

// HasAny reports whether any conflict was found.
func (r COIReport) HasAny() bool {
	return r.HasInstitutionCOI || r.HasCoauthorCOI
}

// ContactInfo is the outcome of a contact-enrichment run for one candidate.
type ContactInfo struct {
	// Email is the discovered contact email, empty if none was found.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// EmailSource names the tier that produced the email.
	EmailSource string `json:"email_source,omitempty" yaml:"email_source,omitempty"`

	// EmailYear is the publication year the email was extracted from,
	// when it came from affiliation text (0 otherwise).
	EmailYear int `json:"email_year,omitempty" yaml:"email_year,omitempty"`

	// Website is a faculty or lab page URL.
	Website string `json:"website,omitempty" yaml:"website,omitempty"`

	// ORCID is the researcher's ORCID iD when tier 2 resolved one.
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
}

// Usable reports whether the info is enough to stop the enrichment chain.
func (c ContactInfo) Usable() bool {
	return c.Email != "" || c.Website != ""
}

// Candidate is a reviewer candidate in flight during discovery. Stages
// enrich it in order: adapters attach Publications, the verifier attaches
// Verification, the COI detector attaches COI. Optional stage outputs are
// pointers so "not yet computed" is distinguishable from a zero result.
type Candidate struct {
	// Name is the candidate's name. Required; a disambiguation key, not
	// an identity.
	Name string `json:"name" yaml:"name"`

	// Affiliation is the claimed or discovered institution.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// Expertise lists claimed or derived expertise areas.
	Expertise []string `json:"expertise,omitempty" yaml:"expertise,omitempty"`

	// Reasoning carries the analysis model's justification for suggested
	// candidates. Empty for database discoveries.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Seniority is the career-stage estimate.
	Seniority Seniority `json:"seniority,omitempty" yaml:"seniority,omitempty"`

	// Origin records how the candidate entered the pipeline.
	Origin CandidateSource `json:"origin" yaml:"origin"`

	// Publications holds the bibliographic evidence gathered for the
	// candidate.
	Publications []PublicationRecord `json:"publications,omitempty" yaml:"publications,omitempty"`

	// Verification is the verifier's judgment. Nil for unverified
	// candidates: zero evidence means no numeric confidence at all.
	Verification *Verification `json:"verification,omitempty" yaml:"verification,omitempty"`

	// COI is the conflict-of-interest report. Nil until the detector runs.
	COI *COIReport `json:"coi,omitempty" yaml:"coi,omitempty"`

	// Contact is the enrichment outcome. Nil until enrichment runs or
	// when every tier came up empty.
	Contact *ContactInfo `json:"contact,omitempty" yaml:"contact,omitempty"`

	// Reason explains unverified status or a per-candidate stage failure.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Verified reports whether the candidate carries a verification judgment.
func (c Candidate) Verified() bool {
	return c.Verification != nil
}
