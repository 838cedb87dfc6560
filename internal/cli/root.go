// Package cli implements the adcounsel command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/adcounsel/adcounsel/internal/cli.version=1.2.3"
	version = "0.4.1"
)

var rootCmd = &cobra.Command{
	Use:   "adcounsel",
	Short: "adcounsel - advisory decision engine for paid-search accounts",
	Long: "adcounsel audits paid-search advertising accounts and proposes changes.\n" +
		"It never applies anything itself: every proposal waits in a review queue\n" +
		"until a human approves or rejects it.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(proposalsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the adcounsel version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("adcounsel " + version)
	},
}
