package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	statePath  string
	playerID   int
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "colony",
		Short: "Colony engine CLI - drive jobs against the game backend",
		Long: `Colony engine CLI runs the client simulation engine in-process:
it loads the definitions catalog and a state snapshot, reconciles running
jobs with the backend, and lets you start, cancel and inspect jobs.

Examples:
  colony resolve building.barn
  colony start building.barn.l2
  colony cancel building.barn.l2
  colony jobs
  colony status
  colony events --level WARN`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: config.yaml in ., ./configs, /etc/colonyforge)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "state.json",
		"Path to the player state snapshot")
	rootCmd.PersistentFlags().IntVar(&playerID, "player-id", 0,
		"Player ID (overrides config and saved default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewCancelCommand())
	rootCmd.AddCommand(NewJobsCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewEventsCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
