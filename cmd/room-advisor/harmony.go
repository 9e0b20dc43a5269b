package main

import (
	"fmt"

	"github.com/spf13/cobra"

	roomadvisor "github.com/menta2k/room-advisor"
)

var harmonyNames = []string{"base", "complementary", "analogous +30", "analogous -30", "triadic +120", "triadic +240"}

func newHarmonyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harmony <#rrggbb>",
		Short: "Print the color harmony set for a color",
		Args:  cobra.ExactArgs(1),
		// Needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := roomadvisor.Harmony(args[0])
			if err != nil {
				return err
			}
			for i, c := range h {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", harmonyNames[i], c)
			}
			return nil
		},
	}
}
