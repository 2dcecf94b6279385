// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/discovery"
	"github.com/justingallivan/reviewer-engine/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [reviewers.yaml]",
	Short: "Find contact details for ranked candidates",
	Long: `Enrich walks the ranked candidates of a discovery result through the
contact tiers in cost order: PubMed affiliation strings, the ORCID public
API, AI web search, and a search engine API. The first tier that yields a
usable email wins; candidates that already carry one are skipped.

The result file is rewritten in place with the contact details found.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().Bool("estimate", false, "print the cost estimate and exit without enriching")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	rf, err := discovery.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	if len(rf.Result.Ranked) == 0 {
		return fmt.Errorf("result file %s has no ranked candidates", args[0])
	}

	cfg := enrichmentConfig()
	client := &http.Client{Timeout: cfg.Timeout}
	tiers := enrich.Tiers(cfg, client)
	if len(tiers) == 0 {
		return fmt.Errorf("no enrichment tiers enabled")
	}

	pending := 0
	for _, c := range rf.Result.Ranked {
		if c.Contact == nil || !c.Contact.Usable() {
			pending++
		}
	}
	fmt.Printf("candidates:     %d (%d need contact details)\n", len(rf.Result.Ranked), pending)
	fmt.Printf("tiers:          %d\n", len(tiers))
	fmt.Printf("estimated cost: $%.2f\n", enrich.EstimateCost(pending, tiers))

	if estimate, _ := cmd.Flags().GetBool("estimate"); estimate {
		return nil
	}
	fmt.Println()

	summary, err := enrich.EnrichAll(context.Background(), rf.Result.Ranked, tiers, os.Stdout)
	if err != nil {
		return err
	}

	rf.SyncContacts()
	if err := rf.Save(args[0]); err != nil {
		return err
	}

	fmt.Printf("\nenriched %d, skipped %d, missed %d\n", summary.Enriched, summary.Skipped, summary.Missed)
	fmt.Printf("results written to %s\n", args[0])
	return nil
}
