package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/ocrules/internal/rules"
)

// NewScaffoldCommand creates the scaffold command.
func NewScaffoldCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scaffold <rules.xlsx> <tests.xlsx>",
		Short: "Write a blank test spreadsheet from a rule definition export",
		Long: `Read the rule definitions exported from OpenClinica and write a test
spreadsheet with one row per item referenced by each available rule, ready
for expected results and values to be filled in.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := rules.Scaffold(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rules to %s\n", len(defs), args[1])
			return nil
		},
	}
}
