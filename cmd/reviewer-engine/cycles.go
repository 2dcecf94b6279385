// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justingallivan/reviewer-engine/internal/store"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Manage grant review cycles",
}

var cyclesCreateCmd = &cobra.Command{
	Use:   "create [code]",
	Short: "Create a grant cycle",
	Args:  cobra.ExactArgs(1),
	RunE:  runCyclesCreate,
}

var cyclesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List grant cycles",
	RunE:  runCyclesList,
}

func init() {
	cyclesCreateCmd.Flags().String("name", "", "human-readable cycle name")

	cyclesCmd.AddCommand(cyclesCreateCmd)
	cyclesCmd.AddCommand(cyclesListCmd)
	rootCmd.AddCommand(cyclesCmd)
}

func runCyclesCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	cycle, err := s.CreateCycle(context.Background(), args[0], name)
	if err != nil {
		return err
	}
	fmt.Printf("created cycle %s (%s)\n", cycle.Code, cycle.ID)
	return nil
}

func runCyclesList(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	cycles, err := s.ListCycles(context.Background())
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		fmt.Println("no cycles created")
		return nil
	}

	for _, c := range cycles {
		line := fmt.Sprintf("%s  %s", c.ID, c.Code)
		if c.Name != "" {
			line += "  " + c.Name
		}
		fmt.Println(line)
	}
	return nil
}
