package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// ResearchAgent gathers background information for a task and
// consolidates individual findings into one document.
type ResearchAgent struct {
	baseAgent
}

// NewResearchAgent creates the research role agent.
func NewResearchAgent(runner Runner, emit Emitter) *ResearchAgent {
	return &ResearchAgent{baseAgent: newBase(models.RoleResearch, runner, emit)}
}

// Execute researches a single topic subtask.
func (a *ResearchAgent) Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error) {
	prompt := fmt.Sprintf(researchPrompt, subtask.Title, subtask.Description)
	out, elapsed, err := a.invoke(ctx, prompt)
	if err != nil {
		return models.SubtaskResult{}, fmt.Errorf("research %q: %w", subtask.Title, err)
	}
	return models.SubtaskResult{SubtaskID: subtask.ID, Output: out, Duration: elapsed}, nil
}

// Consolidate merges individual research results into one document.
func (a *ResearchAgent) Consolidate(ctx context.Context, results []models.SubtaskResult) (string, error) {
	var notes strings.Builder
	for i, r := range results {
		fmt.Fprintf(&notes, "--- note %d ---\n%s\n", i+1, r.Output)
	}

	out, _, err := a.invoke(ctx, fmt.Sprintf(consolidatePrompt, notes.String()))
	if err != nil {
		return "", fmt.Errorf("consolidate research: %w", err)
	}
	return out, nil
}
