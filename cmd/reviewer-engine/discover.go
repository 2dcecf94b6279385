// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/analyze"
	"github.com/justingallivan/reviewer-engine/internal/biblio"
	"github.com/justingallivan/reviewer-engine/internal/discovery"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [analysis.yaml]",
	Short: "Verify suggested reviewers and discover more",
	Long: `Discover takes an analysis produced by the analyze stage and runs the
full discovery pipeline: every suggested reviewer is verified against the
enabled bibliographic databases, screened for conflicts of interest with
the proposal's investigators and institution, and scored. Subject searches
surface additional candidates the model never suggested.

Results are split into verified, discovered, and unverified lists plus a
single ranked list, and written to a YAML result file.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().String("out", "reviewers.yaml", "output file for discovery results")
	discoverCmd.Flags().StringSlice("exclude", nil, "names to exclude from results (repeatable)")
	discoverCmd.Flags().Int("max-discovered", 0, "override the database-discovery cap")
	discoverCmd.Flags().Bool("quiet", false, "suppress per-candidate progress")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	analysis, err := analyze.ReadAnalysisFile(args[0])
	if err != nil {
		return err
	}

	cfg := discoveryConfig()
	if n, _ := cmd.Flags().GetInt("max-discovered"); n > 0 {
		cfg.MaxDiscovered = n
	}
	excluded, _ := cmd.Flags().GetStringSlice("exclude")
	quiet, _ := cmd.Flags().GetBool("quiet")

	client := &http.Client{Timeout: cfg.Sources.Timeout}
	deps := discovery.Deps{Sources: biblio.EnabledSources(cfg.Sources, client)}
	if len(deps.Sources) == 0 {
		return fmt.Errorf("no bibliographic sources enabled")
	}

	var progress discovery.ProgressFunc
	if !quiet {
		progress = func(e discovery.Event) {
			fmt.Fprintln(os.Stderr, e.String())
		}
	}

	result, err := discovery.Run(context.Background(), *analysis, deps, cfg, excluded, progress)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if err := discovery.WriteResultFile(outPath, *analysis, cfg, excluded, result); err != nil {
		return err
	}

	printResultSummary(result)
	fmt.Printf("\nresults written to %s\n", outPath)
	return nil
}

func printResultSummary(result *discovery.Result) {
	fmt.Printf("verified:   %d\n", len(result.Verified))
	fmt.Printf("discovered: %d\n", len(result.Discovered))
	fmt.Printf("unverified: %d\n", len(result.Unverified))

	if len(result.Ranked) > 0 {
		fmt.Println("\ntop candidates:")
		limit := 10
		if len(result.Ranked) < limit {
			limit = len(result.Ranked)
		}
		for _, c := range result.Ranked[:limit] {
			fmt.Printf("  %s\n", candidateLine(c))
		}
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func candidateLine(c types.Candidate) string {
	line := c.Name
	if c.Affiliation != "" {
		line += " (" + c.Affiliation + ")"
	}
	switch {
	case c.Verification != nil:
		line += fmt.Sprintf(" confidence %.2f", c.Verification.Confidence)
		if c.Verification.Reason != "" {
			line += " [" + c.Verification.Reason + "]"
		}
	case c.Reason != "":
		line += " [" + c.Reason + "]"
	}
	if c.COI != nil && c.COI.HasAny() {
		line += " [COI]"
	}
	return line
}
