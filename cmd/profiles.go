package cmd

import (
	"fmt"

	"github.com/justincosentino/quart/internal/encoder"
	"github.com/justincosentino/quart/internal/profile"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List built-in render profiles and available animators",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		printProfiles()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func printProfiles() {
	fmt.Println()
	fmt.Printf("  %-10s %7s  %-8s %-6s %9s  %s\n", "PROFILE", "PADDING", "FILL", "FORMAT", "THRESHOLD", "DELAYS (cs)")
	for _, name := range profile.Names() {
		p := profile.Get(name)
		marker := " "
		if name == profile.DefaultName {
			marker = "*"
		}
		fmt.Printf("%s %-10s %7d  %-8s %-6s %9g  %d / %d\n",
			marker, p.Name, p.Padding, p.Fill, p.Format, p.FrameThreshold, p.FrameDelay, p.FinalDelay)
	}
	fmt.Println()
	fmt.Printf("  %s\n", encoder.NewRegistry())
	fmt.Println()
}
