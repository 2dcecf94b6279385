// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/discovery"
	"github.com/justingallivan/reviewer-engine/internal/store"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Save, list, and track reviewer candidates",
	Long: `Candidates persists discovery results into the researcher database and
tracks the invitation lifecycle. Saving a result file upserts each ranked
candidate into the canonical researcher table and links them to the
proposal; list, invite, and respond manage them afterwards.`,
}

var candidatesSaveCmd = &cobra.Command{
	Use:   "save [reviewers.yaml]",
	Short: "Import a discovery result into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidatesSave,
}

var candidatesListCmd = &cobra.Command{
	Use:   "list [proposal-id]",
	Short: "List saved candidates for a proposal",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidatesList,
}

var candidatesInviteCmd = &cobra.Command{
	Use:   "invite [candidate-id]",
	Short: "Mark a candidate as invited",
	Args:  cobra.ExactArgs(1),
	RunE:  runCandidatesInvite,
}

var candidatesRespondCmd = &cobra.Command{
	Use:   "respond [candidate-id] [accepted|declined|bounced]",
	Short: "Record a candidate's response to an invitation",
	Args:  cobra.ExactArgs(2),
	RunE:  runCandidatesRespond,
}

func init() {
	candidatesSaveCmd.Flags().String("cycle", "", "grant cycle code to file the proposal under")
	candidatesRespondCmd.Flags().String("notes", "", "free-form notes to attach to the response")

	candidatesCmd.AddCommand(candidatesSaveCmd)
	candidatesCmd.AddCommand(candidatesListCmd)
	candidatesCmd.AddCommand(candidatesInviteCmd)
	candidatesCmd.AddCommand(candidatesRespondCmd)
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidatesSave(cmd *cobra.Command, args []string) error {
	rf, err := discovery.ReadResultFile(args[0])
	if err != nil {
		return err
	}
	if len(rf.Result.Ranked) == 0 {
		return fmt.Errorf("result file %s has no ranked candidates", args[0])
	}

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	proposal := &types.Proposal{
		Title:        rf.Proposal.Title,
		Institution:  rf.Proposal.Institution,
		Investigator: rf.Proposal.PrincipalInvestigator,
	}
	if code, _ := cmd.Flags().GetString("cycle"); code != "" {
		cycle, err := s.GetCycleByCode(ctx, code)
		if err != nil {
			return err
		}
		proposal.GrantCycleID = cycle.ID
	}

	saved, failed, err := s.SaveBatch(ctx, proposal, rf.Result.Ranked, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\nsaved %d candidates (%d failed) for proposal %s\n", saved, failed, proposal.ID)
	return nil
}

func runCandidatesList(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	details, err := s.ListCandidates(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Println("no candidates saved for this proposal")
		return nil
	}

	for _, d := range details {
		fmt.Println(candidateDetailLine(d))
	}
	return nil
}

func candidateDetailLine(d store.CandidateDetail) string {
	line := fmt.Sprintf("%4d  %s", d.ID, d.ResearcherName)
	if d.Affiliation != "" {
		line += " (" + d.Affiliation + ")"
	}
	if d.RelevanceScore != nil {
		line += fmt.Sprintf("  score %.2f", *d.RelevanceScore)
	}
	if d.Email != "" {
		line += "  " + d.Email
	}
	if d.HasInstitutionCOI || d.HasCoauthorCOI {
		line += "  [COI]"
	}
	switch {
	case d.ResponseType != "":
		line += "  " + string(d.ResponseType)
	case d.Invited:
		line += "  invited"
	}
	return line
}

func runCandidatesInvite(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid candidate id %q", args[0])
	}

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.MarkInvited(context.Background(), id, time.Now()); err != nil {
		return err
	}
	fmt.Printf("candidate %d marked invited\n", id)
	return nil
}

func runCandidatesRespond(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid candidate id %q", args[0])
	}
	notes, _ := cmd.Flags().GetString("notes")

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	response := types.ResponseType(args[1])
	if err := s.RecordResponse(context.Background(), id, response, notes); err != nil {
		return err
	}
	fmt.Printf("candidate %d recorded as %s\n", id, response)
	return nil
}
