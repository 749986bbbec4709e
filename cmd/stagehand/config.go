package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/orchestrator"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

var configShowTopology bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration after merging user config,
project overrides, and environment variables.

Configuration is stored at ~/.config/stagehand/config.yaml
Project-specific overrides can be placed in .stagehand.yaml

Use --topology to print the pipeline stage table and its derived
transition edges instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		if configShowTopology {
			doc, err := orchestrator.TopologyYAML()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error rendering topology: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(doc))
			return
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

func init() {
	configCmd.Flags().BoolVar(&configShowTopology, "topology", false, "Print the pipeline topology as YAML")
}

// displayConfig prints the effective configuration values.
func displayConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}
	tokenDisplay := "(not set)"
	if cfg.Tracker.Token != "" {
		tokenDisplay = "****"
	}

	fmt.Printf("pipeline.parallelism: %d\n", cfg.Pipeline.Parallelism)
	fmt.Printf("pipeline.max_retries: %d\n", cfg.Pipeline.MaxRetries)
	fmt.Printf("pipeline.coverage_target: %.2f\n", cfg.Pipeline.CoverageTarget)
	fmt.Printf("pipeline.runtime_dir: %s\n", cfg.Pipeline.RuntimeDir)
	fmt.Printf("pipeline.auto_recovery: %t\n", cfg.Pipeline.AutoRecovery)
	if cfg.Pipeline.Domain != "" {
		fmt.Printf("pipeline.domain: %s\n", cfg.Pipeline.Domain)
	}
	if len(cfg.Pipeline.ComplianceTags) > 0 {
		fmt.Printf("pipeline.compliance_tags: %s\n", strings.Join(cfg.Pipeline.ComplianceTags, ", "))
	}

	for _, role := range models.AllRoles {
		ac := cfg.Agent(role)
		fmt.Printf("agents.%s: enabled=%t fraction=%.2f", role, ac.Enabled, ac.Fraction)
		if len(ac.Strategies) > 0 {
			fmt.Printf(" strategies=%s", strings.Join(ac.Strategies, ","))
		}
		fmt.Println()
	}

	fmt.Printf("tracker.repo: %s\n", orEmpty(cfg.Tracker.Repo))
	fmt.Printf("tracker.token: %s\n", tokenDisplay)
	fmt.Printf("tracker.webhook_url: %s\n", orEmpty(cfg.Tracker.WebhookURL))
	fmt.Printf("tracker.push_artifacts: %t\n", cfg.Tracker.PushArtifacts)
	fmt.Printf("tracker.send_notifications: %t\n", cfg.Tracker.SendNotifications)

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	if cfg.Anthropic.UseAWSBedrock {
		fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
		fmt.Printf("anthropic.aws_profile: %s\n", orEmpty(cfg.Anthropic.AWSProfile))
	}
}

func orEmpty(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
