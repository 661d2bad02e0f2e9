package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Memory and relationship engine for a persistent character cast",
	Long:  "Troupe decides what simulated characters remember, how memories fade, and how relational friction or warmth turns into behavior. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(consequencesCmd)
	rootCmd.AddCommand(resetCmd)
}
