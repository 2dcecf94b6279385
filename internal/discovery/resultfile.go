// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// ResultFile is the on-disk representation of a discovery run. Saving a
// run lets the user inspect, enrich, or import candidates later without
// re-querying the sources.
type ResultFile struct {
	Proposal ProposalSummary        `yaml:"proposal"`
	Config   types.DiscoveryConfig  `yaml:"config"`
	Excluded []string               `yaml:"excluded,omitempty"`
	Result   Result                 `yaml:"result"`
	Summary  RunSummary             `yaml:"summary"`
}

// ProposalSummary stores the proposal fields a reader needs to identify
// the run, not the full analysis.
type ProposalSummary struct {
	Title                 string   `yaml:"title"`
	PrincipalInvestigator string   `yaml:"principal_investigator,omitempty"`
	Institution           string   `yaml:"institution,omitempty"`
	ResearchArea          string   `yaml:"research_area,omitempty"`
	Keywords              []string `yaml:"keywords,omitempty"`
}

// RunSummary stores result statistics and a timestamp.
type RunSummary struct {
	Verified   int       `yaml:"verified"`
	Discovered int       `yaml:"discovered"`
	Unverified int       `yaml:"unverified"`
	Warnings   int       `yaml:"warnings"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteResultFile saves a discovery run to a YAML file.
func WriteResultFile(path string, analysis types.ProposalAnalysis, cfg types.DiscoveryConfig, excluded []string, res *Result) error {
	rf := ResultFile{
		Proposal: ProposalSummary{
			Title:                 analysis.Title,
			PrincipalInvestigator: analysis.PrincipalInvestigator,
			Institution:           analysis.Institution,
			ResearchArea:          analysis.ResearchArea,
			Keywords:              analysis.Keywords,
		},
		Config:   cfg,
		Excluded: excluded,
		Result:   *res,
		Summary: RunSummary{
			Verified:   len(res.Verified),
			Discovered: len(res.Discovered),
			Unverified: len(res.Unverified),
			Warnings:   len(res.Warnings),
			Timestamp:  time.Now(),
		},
	}

	return rf.Save(path)
}

// SyncContacts copies contact details from the ranked list onto the
// matching entries in the categorized lists. Enrichment fills contacts
// on Ranked only; without a sync the Verified and Discovered views of
// the same people go stale on disk.
func (rf *ResultFile) SyncContacts() {
	sync := func(list []types.Candidate) {
		for i := range list {
			if list[i].Contact != nil {
				continue
			}
			for _, r := range rf.Result.Ranked {
				if r.Contact != nil && identity.SameName(list[i].Name, r.Name) {
					list[i].Contact = r.Contact
					break
				}
			}
		}
	}
	sync(rf.Result.Verified)
	sync(rf.Result.Discovered)
	sync(rf.Result.Unverified)
}

// Save writes the result file to disk. Enrichment uses it to rewrite a
// run after contact details are filled in.
func (rf *ResultFile) Save(path string) error {
	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved discovery run from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
