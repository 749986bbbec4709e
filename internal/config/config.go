// Package config handles configuration loading for stagehand.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// Config holds all configuration for stagehand.
type Config struct {
	Pipeline  PipelineConfig         `mapstructure:"pipeline"`
	Agents    map[string]AgentConfig `mapstructure:"agents"`
	Tracker   TrackerConfig          `mapstructure:"tracker"`
	Anthropic AnthropicConfig        `mapstructure:"anthropic"`
}

// PipelineConfig holds orchestrator-wide settings.
type PipelineConfig struct {
	// Parallelism is the total agent capacity the limiter fractions apply to.
	Parallelism int `mapstructure:"parallelism"`
	// MaxRetries is the whole-pipeline retry limit.
	MaxRetries int `mapstructure:"max_retries"`
	// CoverageTarget is the QA coverage goal (0..1).
	CoverageTarget float64 `mapstructure:"coverage_target"`
	// RuntimeDir is where metrics snapshots and the state database live.
	RuntimeDir string `mapstructure:"runtime_dir"`
	// AutoRecovery enables automatic agent restart on out-of-band errors.
	AutoRecovery bool `mapstructure:"auto_recovery"`
	// Domain is the problem domain passed to the spec agent.
	Domain string `mapstructure:"domain"`
	// ComplianceTags are passed to the spec agent alongside requirements.
	ComplianceTags []string `mapstructure:"compliance_tags"`
}

// AgentConfig holds per-role agent settings.
type AgentConfig struct {
	// Enabled controls whether the role participates in the pipeline.
	Enabled bool `mapstructure:"enabled"`
	// Fraction is the share of Parallelism the role may use concurrently.
	Fraction float64 `mapstructure:"fraction"`
	// Strategies is an ordered list of approaches the agent may try.
	Strategies []string `mapstructure:"strategies"`
}

// TrackerConfig holds escalation settings for the external issue tracker.
type TrackerConfig struct {
	// Repo is the "owner/name" GitHub repository for escalation issues.
	Repo string `mapstructure:"repo"`
	// Token is the GitHub API token. GITHUB_TOKEN overrides it.
	Token string `mapstructure:"token"`
	// Assignees are added to escalation issues.
	Assignees []string `mapstructure:"assignees"`
	// Labels are added to escalation issues.
	Labels []string `mapstructure:"labels"`
	// WebhookURL receives out-of-band escalation notifications.
	WebhookURL string `mapstructure:"webhook_url"`
	// PushArtifacts enables best-effort artifact push after integration.
	PushArtifacts bool `mapstructure:"push_artifacts"`
	// SendNotifications enables best-effort notifications after integration.
	SendNotifications bool `mapstructure:"send_notifications"`
}

// AnthropicConfig holds Anthropic API settings for the agent runner.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. ANTHROPIC_API_KEY overrides it.
	APIKey string `mapstructure:"api_key"`
	// Model is the model identifier to use.
	Model string `mapstructure:"model"`
	// UseAWSBedrock routes requests through AWS Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// Agent returns the configuration for a role, falling back to defaults
// when the role has no explicit entry.
func (c *Config) Agent(role models.Role) AgentConfig {
	if ac, ok := c.Agents[string(role)]; ok {
		return ac
	}
	return defaultAgentConfig(role)
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
//  1. Environment variables (STAGEHAND_*, ANTHROPIC_API_KEY, GITHUB_TOKEN)
//  2. Project config (.stagehand.yaml in current directory or a parent)
//  3. User config (~/.config/stagehand/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if project := findProjectConfig(); project != "" {
		pv := viper.New()
		pv.SetConfigFile(project)
		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("STAGEHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("tracker.token", "GITHUB_TOKEN")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Tracker.Token = expandEnv(cfg.Tracker.Token)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (mainly for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Tracker.Token = expandEnv(cfg.Tracker.Token)

	return cfg, nil
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// DefaultRuntimeDir returns the XDG data directory for runtime artifacts.
func DefaultRuntimeDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "stagehand")
}

// setDefaults configures built-in default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.parallelism", 4)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.coverage_target", 0.8)
	v.SetDefault("pipeline.runtime_dir", DefaultRuntimeDir())
	v.SetDefault("pipeline.auto_recovery", true)
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	for _, role := range models.AllRoles {
		ac := defaultAgentConfig(role)
		v.SetDefault("agents."+string(role)+".enabled", ac.Enabled)
		v.SetDefault("agents."+string(role)+".fraction", ac.Fraction)
	}
}

// defaultAgentConfig returns the built-in settings for a role.
// The dev role gets the largest concurrency share since it is the only
// role the limiter fans out.
func defaultAgentConfig(role models.Role) AgentConfig {
	ac := AgentConfig{Enabled: true, Fraction: 0.25}
	if role == models.RoleDev {
		ac.Fraction = 0.4
		ac.Strategies = []string{"incremental", "test_first"}
	}
	return ac
}

// userConfigDir returns the XDG config directory for stagehand.
func userConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "stagehand")
}

// findProjectConfig walks up from the working directory looking for .stagehand.yaml.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".stagehand.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnv expands ${VAR} references in a config value.
func expandEnv(s string) string {
	if strings.Contains(s, "${") {
		return os.ExpandEnv(s)
	}
	return s
}
