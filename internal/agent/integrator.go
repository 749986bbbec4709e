package agent

import (
	"context"
	"fmt"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// IntegrationAgent turns pipeline artifacts into documentation and
// deployment outputs, and optionally publishes them to the external
// tracker.
type IntegrationAgent struct {
	baseAgent
	publisher Publisher
}

// NewIntegrationAgent creates the integration role agent. publisher may
// be nil, in which case artifact pushes and notifications are disabled.
func NewIntegrationAgent(runner Runner, emit Emitter, publisher Publisher) *IntegrationAgent {
	return &IntegrationAgent{
		baseAgent: newBase(models.RoleIntegration, runner, emit),
		publisher: publisher,
	}
}

// Execute treats a generic subtask as a documentation request.
func (a *IntegrationAgent) Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error) {
	out, _, err := a.invoke(ctx, fmt.Sprintf("Document the following work:\n\n%s\n\n%s", subtask.Title, subtask.Description))
	if err != nil {
		return models.SubtaskResult{}, fmt.Errorf("integration subtask %q: %w", subtask.Title, err)
	}
	return models.SubtaskResult{SubtaskID: subtask.ID, Output: out}, nil
}

// Process combines spec, code, and tests into documentation and
// deployment artifacts.
func (a *IntegrationAgent) Process(ctx context.Context, artifacts models.Artifacts) (models.IntegrationOutput, error) {
	prompt := fmt.Sprintf(integrationPrompt,
		artifacts.Task,
		artifacts.Spec,
		artifacts.Code,
		artifacts.Tests.Passed, artifacts.Tests.Total, artifacts.Tests.Coverage,
	)
	out, _, err := a.invoke(ctx, prompt)
	if err != nil {
		return models.IntegrationOutput{}, fmt.Errorf("process artifacts: %w", err)
	}

	var output models.IntegrationOutput
	if err := parseJSON(out, &output); err != nil {
		return models.IntegrationOutput{}, fmt.Errorf("process artifacts: %w", err)
	}
	return output, nil
}

// PushArtifacts publishes the artifacts as a tracker issue and returns
// its URL.
func (a *IntegrationAgent) PushArtifacts(ctx context.Context, artifacts models.Artifacts) (string, error) {
	if a.publisher == nil {
		return "", fmt.Errorf("no publisher configured")
	}

	title := fmt.Sprintf("Pipeline artifacts: %s", truncate(artifacts.Task, 80))
	body := fmt.Sprintf("## Specification\n\n%s\n\n## Tests\n\n%d/%d passed, coverage %.2f\n",
		artifacts.Spec, artifacts.Tests.Passed, artifacts.Tests.Total, artifacts.Tests.Coverage)

	return a.publisher.CreateIssue(ctx, title, body, nil, []string{"pipeline-artifacts"})
}

// Notify sends an out-of-band notification through the tracker webhook.
func (a *IntegrationAgent) Notify(ctx context.Context, subject string, details any) error {
	if a.publisher == nil {
		return fmt.Errorf("no publisher configured")
	}
	return a.publisher.SendWebhook(ctx, subject, details)
}
