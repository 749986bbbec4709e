// Package decompose splits an incoming task into a research plan and a
// requirement set for the pipeline.
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/internal/agent"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

// decomposedPlan is the JSON structure the model returns.
type decomposedPlan struct {
	Research []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"research"`
	Requirements []string `json:"requirements"`
}

// Decomposer turns a task description into a Decomposition.
type Decomposer struct {
	runner agent.Runner
}

// New creates a new Decomposer over the given runner.
func New(runner agent.Runner) *Decomposer {
	return &Decomposer{runner: runner}
}

// Decompose produces the research plan and requirement set for a task.
// The decomposition is recomputed on every pipeline attempt; callers
// must not reuse one across retries.
func (d *Decomposer) Decompose(ctx context.Context, task string) (*models.Decomposition, error) {
	response, err := d.runner.Run(ctx, fmt.Sprintf(decompositionPrompt, task))
	if err != nil {
		return nil, fmt.Errorf("run decomposition: %w", err)
	}

	jsonStart := strings.Index(response, "{")
	jsonEnd := strings.LastIndex(response, "}")
	if jsonStart == -1 || jsonEnd <= jsonStart {
		return nil, fmt.Errorf("no valid JSON in decomposition response")
	}

	var plan decomposedPlan
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &plan); err != nil {
		return nil, fmt.Errorf("parse decomposition: %w", err)
	}

	if len(plan.Research) == 0 {
		return nil, fmt.Errorf("decomposition produced no research tasks")
	}
	if len(plan.Requirements) == 0 {
		return nil, fmt.Errorf("decomposition produced no requirements")
	}

	decomp := &models.Decomposition{
		Requirements: plan.Requirements,
	}
	for _, r := range plan.Research {
		decomp.Research = append(decomp.Research, models.Subtask{
			ID:          uuid.New().String()[:8],
			Title:       r.Title,
			Description: r.Description,
		})
	}

	return decomp, nil
}
