// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

func init() {
	viper.SetDefault("analysis.model", "claude-sonnet-4-5")
	viper.SetDefault("analysis.max_suggestions", 10)
	viper.SetDefault("analysis.max_retries", 3)

	viper.SetDefault("sources.enable_pubmed", true)
	viper.SetDefault("sources.enable_arxiv", true)
	viper.SetDefault("sources.enable_biorxiv", true)
	viper.SetDefault("sources.enable_chemrxiv", true)
	viper.SetDefault("sources.max_records", 25)
	viper.SetDefault("sources.timeout", 30*time.Second)

	viper.SetDefault("discovery.max_concurrent", 4)
	viper.SetDefault("discovery.max_discovered", 10)
	viper.SetDefault("discovery.coauthor_evidence_limit", 3)

	viper.SetDefault("enrichment.enable_pubmed_tier", true)
	viper.SetDefault("enrichment.enable_orcid_tier", true)
	viper.SetDefault("enrichment.enable_web_search_tier", false)
	viper.SetDefault("enrichment.enable_search_api_tier", false)
	viper.SetDefault("enrichment.web_search_cost", 0.03)
	viper.SetDefault("enrichment.search_api_cost", 0.01)

	viper.SetDefault("store.data_dir", "data")
}

// sourcesConfig assembles the bibliographic source settings from config
// and secrets.
func sourcesConfig() types.SourcesConfig {
	return types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("sources.timeout"),
			UserAgent: "reviewer-engine/" + version,
		},
		EnablePubMed:   viper.GetBool("sources.enable_pubmed"),
		EnableArxiv:    viper.GetBool("sources.enable_arxiv"),
		EnableBioRxiv:  viper.GetBool("sources.enable_biorxiv"),
		EnableChemRxiv: viper.GetBool("sources.enable_chemrxiv"),
		NCBIAPIKey:     secretDefault("ncbi-api-key", viper.GetString("sources.ncbi_api_key")),
		MaxRecords:     viper.GetInt("sources.max_records"),
	}
}

func analysisConfig() types.AnalysisConfig {
	return types.AnalysisConfig{
		AIConfig: types.AIConfig{
			Model:      viper.GetString("analysis.model"),
			APIKey:     secretDefault("anthropic-api-key", viper.GetString("analysis.api_key")),
			MaxRetries: viper.GetInt("analysis.max_retries"),
		},
		MaxSuggestions: viper.GetInt("analysis.max_suggestions"),
	}
}

func discoveryConfig() types.DiscoveryConfig {
	return types.DiscoveryConfig{
		Sources: sourcesConfig(),
		Verification: types.VerificationConfig{
			LowConfidence:      viper.GetFloat64("discovery.verification.low_confidence"),
			AcceptedConfidence: viper.GetFloat64("discovery.verification.accepted_confidence"),
			NameWeight:         viper.GetFloat64("discovery.verification.name_weight"),
			AffiliationWeight:  viper.GetFloat64("discovery.verification.affiliation_weight"),
			ExpertiseWeight:    viper.GetFloat64("discovery.verification.expertise_weight"),
		},
		MaxConcurrent:         viper.GetInt("discovery.max_concurrent"),
		MaxDiscovered:         viper.GetInt("discovery.max_discovered"),
		CoauthorEvidenceLimit: viper.GetInt("discovery.coauthor_evidence_limit"),
	}
}

func enrichmentConfig() types.EnrichmentConfig {
	return types.EnrichmentConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("sources.timeout"),
			UserAgent: "reviewer-engine/" + version,
		},
		AI: types.AIConfig{
			Model:  viper.GetString("analysis.model"),
			APIKey: secretDefault("anthropic-api-key", viper.GetString("analysis.api_key")),
		},
		EnablePubMedTier:    viper.GetBool("enrichment.enable_pubmed_tier"),
		EnableORCIDTier:     viper.GetBool("enrichment.enable_orcid_tier"),
		EnableWebSearchTier: viper.GetBool("enrichment.enable_web_search_tier"),
		EnableSearchAPITier: viper.GetBool("enrichment.enable_search_api_tier"),
		ORCIDEmail:          secretDefault("orcid-email", viper.GetString("enrichment.orcid_email")),
		SearchAPIKey:        secretDefault("search-api-key", viper.GetString("enrichment.search_api_key")),
		WebSearchCost:       viper.GetFloat64("enrichment.web_search_cost"),
		SearchAPICost:       viper.GetFloat64("enrichment.search_api_cost"),
	}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{DataDir: viper.GetString("store.data_dir")}
}
