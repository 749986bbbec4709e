package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// DevAgent plans, implements, integrates, and repairs code.
type DevAgent struct {
	baseAgent
	strategies []string
}

// NewDevAgent creates the dev role agent. The strategy list comes from
// configuration and is surfaced to the model during planning.
func NewDevAgent(runner Runner, emit Emitter, strategies []string) *DevAgent {
	return &DevAgent{
		baseAgent:  newBase(models.RoleDev, runner, emit),
		strategies: strategies,
	}
}

// Execute implements a single planned subtask. Safe for concurrent use;
// the concurrency limiter fans these out.
func (a *DevAgent) Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error) {
	prompt := fmt.Sprintf(implementPrompt, subtask.Title, subtask.Description)
	out, elapsed, err := a.invoke(ctx, prompt)
	if err != nil {
		return models.SubtaskResult{}, fmt.Errorf("implement %q: %w", subtask.Title, err)
	}
	return models.SubtaskResult{SubtaskID: subtask.ID, Output: out, Duration: elapsed}, nil
}

// plannedTask is the JSON structure the model returns for one subtask.
type plannedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PlanImplementation decomposes a specification into implementation subtasks.
func (a *DevAgent) PlanImplementation(ctx context.Context, spec string) ([]models.Subtask, error) {
	hint := ""
	if len(a.strategies) > 0 {
		hint = fmt.Sprintf("\nPrefer these strategies, in order: %s.\n", strings.Join(a.strategies, ", "))
	}

	out, _, err := a.invoke(ctx, fmt.Sprintf(planPrompt, hint, spec))
	if err != nil {
		return nil, fmt.Errorf("plan implementation: %w", err)
	}

	var planned []plannedTask
	if err := parseJSON(out, &planned); err != nil {
		return nil, fmt.Errorf("plan implementation: %w", err)
	}
	if len(planned) == 0 {
		return nil, fmt.Errorf("plan implementation: empty subtask list")
	}

	subtasks := make([]models.Subtask, 0, len(planned))
	for _, p := range planned {
		subtasks = append(subtasks, models.Subtask{
			ID:          uuid.New().String()[:8],
			Title:       p.Title,
			Description: p.Description,
		})
	}
	return subtasks, nil
}

// Integrate combines partial implementations into one artifact.
func (a *DevAgent) Integrate(ctx context.Context, results []models.SubtaskResult) (string, error) {
	var fragments strings.Builder
	for i, r := range results {
		fmt.Fprintf(&fragments, "--- fragment %d (subtask %s) ---\n%s\n", i+1, r.SubtaskID, r.Output)
	}

	out, _, err := a.invoke(ctx, fmt.Sprintf(integratePrompt, fragments.String()))
	if err != nil {
		return "", fmt.Errorf("integrate implementations: %w", err)
	}
	return out, nil
}

// FixFailingTests attempts to repair the implementation given failing results.
func (a *DevAgent) FixFailingTests(ctx context.Context, results models.TestResults) (models.FixResult, error) {
	var failures strings.Builder
	for _, f := range results.Failed {
		fmt.Fprintf(&failures, "- %s: %s\n", f.Name, f.Message)
	}

	out, _, err := a.invoke(ctx, fmt.Sprintf(fixTestsPrompt, failures.String()))
	if err != nil {
		return models.FixResult{}, fmt.Errorf("fix failing tests: %w", err)
	}

	var fix models.FixResult
	if err := parseJSON(out, &fix); err != nil {
		return models.FixResult{}, fmt.Errorf("fix failing tests: %w", err)
	}
	return fix, nil
}
