package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Pipeline orchestrator for agent-driven development",
	Long: `Stagehand drives a fixed crew of specialized agents through a
development pipeline: research, specification, implementation in
parallel with test preparation, quality assurance, and integration.

Failed pipeline runs restart from scratch with exponential backoff.
When automated recovery is exhausted, stagehand escalates to a human
through a GitHub issue and an optional webhook.

Core capabilities:
- Decomposes a task into a research plan and requirement set
- Runs implementation subtasks with bounded parallelism
- Pre-builds the test suite while implementation is in progress
- Gives the dev agent one fix-and-retest attempt on QA failures
- Persists a metrics snapshot on shutdown`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
