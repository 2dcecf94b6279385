// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [proposal.txt]",
	Short: "Analyze a proposal and suggest reviewers",
	Long: `Analyze reads a proposal's text, extracts the investigators, institution,
and research area, and asks the AI model to suggest external reviewers.
The analysis is written to a YAML file for the discover stage.

The suggestions are claims, not facts: run discover to verify them against
bibliographic databases before trusting any of them.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("out", "analysis.yaml", "output file for the analysis")
	analyzeCmd.Flags().Int("max-suggestions", 0, "override the suggestion cap")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := analysisConfig()
	if n, _ := cmd.Flags().GetInt("max-suggestions"); n > 0 {
		cfg.MaxSuggestions = n
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no Anthropic API key: add .secrets/anthropic-api-key or set analysis.api_key")
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading proposal: %w", err)
	}

	backend := &analyze.ClaudeBackend{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: &http.Client{Timeout: 0}, // long model calls, no client timeout
	}

	fmt.Fprintf(os.Stderr, "analyzing %s with %s\n", args[0], cfg.Model)
	analysis, err := analyze.AnalyzeProposal(context.Background(), backend, string(text), cfg)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if err := analyze.WriteAnalysisFile(outPath, analysis); err != nil {
		return err
	}

	fmt.Printf("proposal: %s\n", analysis.Title)
	if analysis.PrincipalInvestigator != "" {
		fmt.Printf("PI:       %s (%s)\n", analysis.PrincipalInvestigator, analysis.Institution)
	}
	if len(analysis.Keywords) > 0 {
		fmt.Printf("keywords: %s\n", strings.Join(analysis.Keywords, ", "))
	}
	fmt.Printf("suggested reviewers: %d\n", len(analysis.Suggestions))
	for _, s := range analysis.Suggestions {
		fmt.Printf("  - %s (%s)\n", s.Name, s.Affiliation)
	}
	fmt.Printf("\nanalysis written to %s\n", outPath)
	return nil
}
