package main

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// loadConfig loads configuration from an explicit path or from the
// standard discovery chain.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// anthropicModel maps the configured model name onto the SDK type,
// defaulting when unset.
func anthropicModel(cfg *config.Config) anthropic.Model {
	if cfg.Anthropic.Model == "" {
		return anthropic.ModelClaudeSonnet4_20250514
	}
	return anthropic.Model(cfg.Anthropic.Model)
}
