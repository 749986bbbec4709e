package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/state"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

var statusConfigPath string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded executions and the latest metrics",
	Long: `Display the executions recorded in the state database and the most
recent metrics snapshot.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusConfigPath, "config", "", "Path to a config file (overrides discovery)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(statusConfigPath)
	if err != nil {
		return err
	}

	dbPath := state.DBPath(cfg.Pipeline.RuntimeDir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No executions recorded. Run 'stagehand run <task>' to start.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate state database: %w", err)
	}

	execs, err := db.ListExecutions(cmd.Context())
	if err != nil {
		return fmt.Errorf("list executions: %w", err)
	}
	if len(execs) == 0 {
		fmt.Println("No executions recorded. Run 'stagehand run <task>' to start.")
		return nil
	}

	bold := color.New(color.Bold)
	bold.Println("Executions:")
	for _, exec := range execs {
		printExecution(exec)
	}

	snap, err := db.LatestMetricsSnapshot(cmd.Context())
	if err != nil {
		return fmt.Errorf("load metrics snapshot: %w", err)
	}
	if snap != nil {
		fmt.Println()
		bold.Println("Latest metrics:")
		fmt.Printf("  completed %d, failed %d, total time %s (taken %s)\n",
			snap.TasksCompleted, snap.TasksFailed,
			snap.TotalExecutionTime.Round(time.Millisecond),
			snap.Taken.Local().Format(time.RFC822))
		for role, am := range snap.Agents {
			fmt.Printf("  %-12s %d calls, %s\n", role, am.TasksCompleted, am.TotalTime.Round(time.Millisecond))
		}
	}
	return nil
}

func printExecution(exec models.Execution) {
	statusColor := color.New(color.FgYellow)
	switch exec.Status {
	case models.ExecutionCompleted:
		statusColor = color.New(color.FgGreen)
	case models.ExecutionFailed:
		statusColor = color.New(color.FgRed)
	}

	fmt.Printf("  %s  ", exec.ID)
	statusColor.Printf("%-12s", exec.Status)
	fmt.Printf("  %s  %s", exec.StartTime.Local().Format("2006-01-02 15:04"), truncate(exec.Task, 60))
	if exec.Retries > 0 {
		fmt.Printf("  (retries: %d)", exec.Retries)
	}
	if exec.Error != "" {
		fmt.Printf("  [%s]", truncate(exec.Error, 60))
	}
	fmt.Println()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
