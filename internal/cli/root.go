// Package cli implements the kuroryuu CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kuroryuu",
	Short: "Track coding agent sessions and their hook telemetry",
	Long: `Kuroryuu tracks background coding agent sessions, correlates them with
the hook event stream emitted by the agent runtime, and archives terminated
sessions to durable storage.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(archivedCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
