package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is the application version (set during build).
	Version = "dev"

	// Commit is the git commit hash (set during build).
	Commit = "unknown"

	// BuildDate is the build date (set during build).
	BuildDate = "unknown"
)

var (
	configFile     string
	descriptorFile string
)

var rootCmd = &cobra.Command{
	Use:   "e2erun",
	Short: "Validate, render and launch end-to-end test runner descriptors",
	Long: `e2erun loads a declarative end-to-end test descriptor (remote endpoint, timeout,
spec paths, browser capabilities, framework and reporter options), renders it into
the external runner's configuration, launches the runner and keeps a history of runs.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "e2erun %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "tool config file path (env prefix: E2ERUN_)")
	rootCmd.PersistentFlags().StringVarP(&descriptorFile, "descriptor", "d", "e2e.yaml", "descriptor file path")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
