// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "reviewer-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the bibliographic source adapters.
// Each source is independently toggle-able; a disabled source is simply
// not queried.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// EnablePubMed controls the PubMed E-utilities adapter.
	EnablePubMed bool `json:"enable_pubmed" yaml:"enable_pubmed"`

	// EnableArxiv controls the arXiv adapter.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableBioRxiv controls the bioRxiv adapter.
	EnableBioRxiv bool `json:"enable_biorxiv" yaml:"enable_biorxiv"`

	// EnableChemRxiv controls the ChemRxiv adapter.
	EnableChemRxiv bool `json:"enable_chemrxiv" yaml:"enable_chemrxiv"`

	// NCBIAPIKey raises the PubMed rate ceiling from 3 to 10 requests
	// per second when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// MaxRecords caps records fetched per source per query (default 25).
	MaxRecords int `json:"max_records" yaml:"max_records"`
}

// VerificationConfig holds the identity verifier's tunable parameters.
// The band boundaries and weights were chosen empirically; only the
// three-band behavior is load-bearing.
type VerificationConfig struct {
	// LowConfidence is the boundary below which a match is flagged
	// "low match, possibly wrong person" (default 0.35).
	LowConfidence float64 `json:"low_confidence" yaml:"low_confidence"`

	// AcceptedConfidence is the boundary at or above which a match is
	// accepted without warning (default 0.65).
	AcceptedConfidence float64 `json:"accepted_confidence" yaml:"accepted_confidence"`

	// NameWeight, AffiliationWeight, and ExpertiseWeight blend the three
	// agreement signals into the confidence score. They are normalized
	// before use, so only their ratios matter.
	NameWeight        float64 `json:"name_weight" yaml:"name_weight"`
	AffiliationWeight float64 `json:"affiliation_weight" yaml:"affiliation_weight"`
	ExpertiseWeight   float64 `json:"expertise_weight" yaml:"expertise_weight"`
}

// DiscoveryConfig holds settings for a discovery run.
type DiscoveryConfig struct {
	Sources      SourcesConfig      `json:"sources" yaml:"sources"`
	Verification VerificationConfig `json:"verification" yaml:"verification"`

	// MaxConcurrent bounds how many candidates are verified at once
	// (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// MaxDiscovered caps how many independently discovered candidates
	// are added beyond the model's suggestions (default 10).
	MaxDiscovered int `json:"max_discovered" yaml:"max_discovered"`

	// CoauthorEvidenceLimit caps how many shared-paper titles are kept
	// as COI evidence per proposal author (default 3). The underlying
	// paper count is never capped.
	CoauthorEvidenceLimit int `json:"coauthor_evidence_limit" yaml:"coauthor_evidence_limit"`
}

// EnrichmentConfig holds settings for the contact-enrichment chain.
type EnrichmentConfig struct {
	HTTPConfig `yaml:",inline"`
	AI         AIConfig `json:"ai" yaml:"ai"`

	// Tier toggles, cost-ordered. A disabled tier is never called.
	EnablePubMedTier    bool `json:"enable_pubmed_tier" yaml:"enable_pubmed_tier"`
	EnableORCIDTier     bool `json:"enable_orcid_tier" yaml:"enable_orcid_tier"`
	EnableWebSearchTier bool `json:"enable_web_search_tier" yaml:"enable_web_search_tier"`
	EnableSearchAPITier bool `json:"enable_search_api_tier" yaml:"enable_search_api_tier"`

	// ORCIDEmail identifies the caller to the ORCID public API.
	ORCIDEmail string `json:"orcid_email,omitempty" yaml:"orcid_email,omitempty"`

	// SearchAPIKey authenticates the tier-4 search engine API.
	SearchAPIKey string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"`

	// WebSearchCost and SearchAPICost are per-candidate cost estimates
	// (USD) for the paid tiers, used for pre-flight estimation.
	WebSearchCost float64 `json:"web_search_cost" yaml:"web_search_cost"`
	SearchAPICost float64 `json:"search_api_cost" yaml:"search_api_cost"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnalysisConfig holds settings for the proposal-analysis stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// MaxSuggestions caps how many reviewer suggestions are requested
	// from the model (default 10).
	MaxSuggestions int `json:"max_suggestions" yaml:"max_suggestions"`
}

// StoreConfig holds settings for the researcher persistence store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database (contains
	// researchers.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Discovery  DiscoveryConfig  `json:"discovery" yaml:"discovery"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
