package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/api"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/orchestrator"
	"github.com/stagehand-dev/stagehand/internal/state"
	"github.com/stagehand-dev/stagehand/internal/tracker"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

var (
	runConfigPath string
	runNoPersist  bool
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run one task through the pipeline",
	Long: `Run a task through the full pipeline.

The task is decomposed into a research plan and requirement set, then
driven through research, specification, development in parallel with
test-suite preparation, quality assurance, and integration. A phase
failure restarts the whole pipeline with exponential backoff; after
the configured retries the original error is reported.

QA failures that survive the single fix-and-retest attempt are
escalated to the configured issue tracker and webhook, and the run
still completes with the failing results attached.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to a config file (overrides discovery)")
	runCmd.Flags().BoolVar(&runNoPersist, "no-persist", false, "Disable the state database")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every agent event")
}

func runTask(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropicModel(cfg),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}
	runner := api.NewRunner(client)

	opts := []orchestrator.Option{}

	escalator, err := tracker.NewEscalator(cfg.Tracker)
	if err != nil {
		return err
	}
	if escalator != nil {
		opts = append(opts, orchestrator.WithEscalator(escalator))
	}

	var store state.Store
	if !runNoPersist {
		db, err := state.Open(state.DBPath(cfg.Pipeline.RuntimeDir))
		if err != nil {
			return fmt.Errorf("open state database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate state database: %w", err)
		}
		defer db.Close()
		store = db
		opts = append(opts, orchestrator.WithStore(store))
	}

	orch := orchestrator.New(orchestrator.RequiredConfig{Config: cfg, Runner: runner}, opts...)

	// Flip runtime-tunable settings when the config file changes.
	if runConfigPath != "" {
		if err := config.Watch(runConfigPath, func(next *config.Config) {
			orch.SetAutoRecovery(next.Pipeline.AutoRecovery)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "config watch disabled: %v\n", err)
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		streamEvents(orch.Events())
	}()

	result, execErr := orch.Execute(ctx, task)

	if err := orch.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	<-done

	if execErr != nil {
		return execErr
	}
	printResult(result, client)
	return nil
}

// streamEvents prints agent events until the router closes its
// observer channel at shutdown.
func streamEvents(events <-chan models.AgentEvent) {
	dim := color.New(color.Faint)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	for ev := range events {
		switch ev.Kind {
		case models.EventComplete:
			if runVerbose {
				dim.Printf("  %s completed a call in %s\n", ev.From, ev.Duration.Round(10*time.Millisecond))
			}
		case models.EventMessage:
			if runVerbose && ev.Message != nil {
				dim.Printf("  %s: %s\n", ev.From, ev.Message.Payload)
			}
		case models.EventError:
			red.Printf("  %s error: %v\n", ev.From, ev.Err)
		case models.EventRestart:
			if ev.Err != nil {
				red.Printf("  %s restart failed: %v\n", ev.From, ev.Err)
			} else {
				yellow.Printf("  %s restarted\n", ev.From)
			}
		}
	}
}

// printResult renders the pipeline outcome summary.
func printResult(result *models.Result, client *api.Client) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	bold.Printf("\nExecution %s completed\n", result.ExecutionID)

	if result.Tests.Total > 0 {
		line := fmt.Sprintf("Tests: %d/%d passed, coverage %.0f%%",
			result.Tests.Passed, result.Tests.Total, result.Tests.Coverage*100)
		if result.Tests.HasFailures() {
			red.Println(line)
			for _, f := range result.Tests.Failed {
				red.Printf("  FAIL %s\n", f.Name)
			}
		} else {
			green.Println(line)
		}
	}

	fmt.Printf("Spec: %d bytes, Code: %d bytes, Docs: %d bytes\n",
		len(result.Spec), len(result.Code), len(result.Documentation))

	in, out := client.Tracker().Total()
	fmt.Printf("API usage: %d calls, %d input tokens, %d output tokens\n",
		client.Tracker().Calls(), in, out)

	snap := result.Metrics
	fmt.Printf("Totals: %d completed, %d failed, %s execution time\n",
		snap.TasksCompleted, snap.TasksFailed, snap.TotalExecutionTime.Round(10*time.Millisecond))
}
