// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/store"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

var researchersCmd = &cobra.Command{
	Use:   "researchers",
	Short: "Inspect and maintain the researcher database",
	Long: `Researchers manages the canonical researcher table. Saving candidates
upserts into it automatically; these subcommands let the user audit it,
find duplicate rows left over from earlier imports, and merge them.`,
}

var researchersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all researchers",
	RunE:  runResearchersList,
}

var researchersDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Find rows that appear to be the same person",
	RunE:  runResearchersDuplicates,
}

var researchersMergeCmd = &cobra.Command{
	Use:   "merge [secondary-id...]",
	Short: "Merge duplicate rows into one record",
	Long: `Merge collapses the named secondary rows into the primary given by
--into. The primary keeps its values; empty fields are filled from the
secondaries, keywords are unioned, and saved candidates are repointed.
Secondary rows are deleted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearchersMerge,
}

func init() {
	researchersMergeCmd.Flags().String("into", "", "id of the primary record to keep (required)")
	researchersMergeCmd.MarkFlagRequired("into")

	researchersCmd.AddCommand(researchersListCmd)
	researchersCmd.AddCommand(researchersDuplicatesCmd)
	researchersCmd.AddCommand(researchersMergeCmd)
	rootCmd.AddCommand(researchersCmd)
}

func runResearchersList(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	researchers, err := s.List(context.Background())
	if err != nil {
		return err
	}
	if len(researchers) == 0 {
		fmt.Println("no researchers stored")
		return nil
	}

	for _, r := range researchers {
		fmt.Println(researcherLine(r))
	}
	fmt.Printf("\n%d researchers\n", len(researchers))
	return nil
}

func researcherLine(r types.Researcher) string {
	line := fmt.Sprintf("%s  %s", r.ID, r.Name)
	if r.Affiliation != "" {
		line += " (" + r.Affiliation + ")"
	}
	if r.Email != "" {
		line += "  " + r.Email
	}
	if r.ORCID != "" {
		line += "  orcid:" + r.ORCID
	}
	return line
}

func runResearchersDuplicates(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	groups, err := s.FindDuplicates(context.Background())
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("no duplicates found")
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%s %q:\n", g.MatchType, g.Value)
		for _, r := range g.Records {
			fmt.Printf("  %s\n", researcherLine(r))
		}
	}
	fmt.Printf("\n%d duplicate groups; resolve with: reviewer-engine researchers merge --into <id> <id...>\n", len(groups))
	return nil
}

func runResearchersMerge(cmd *cobra.Command, args []string) error {
	primaryID, _ := cmd.Flags().GetString("into")

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Merge(ctx, primaryID, args); err != nil {
		return err
	}

	merged, err := s.Get(ctx, primaryID)
	if err != nil {
		return err
	}
	fmt.Printf("merged %d records into %s\n", len(args), researcherLine(*merged))
	return nil
}
