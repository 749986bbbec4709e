package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// SpecAgent generates specifications from research and requirements,
// and validates its own output.
type SpecAgent struct {
	baseAgent
}

// NewSpecAgent creates the spec role agent.
func NewSpecAgent(runner Runner, emit Emitter) *SpecAgent {
	return &SpecAgent{baseAgent: newBase(models.RoleSpec, runner, emit)}
}

// Execute treats a generic subtask as a small spec-drafting request.
func (a *SpecAgent) Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error) {
	input := models.SpecInput{Research: subtask.Description, Requirements: []string{subtask.Title}}
	out, err := a.Generate(ctx, input)
	if err != nil {
		return models.SubtaskResult{}, err
	}
	return models.SubtaskResult{SubtaskID: subtask.ID, Output: out}, nil
}

// Generate produces a specification from research and requirements.
func (a *SpecAgent) Generate(ctx context.Context, input models.SpecInput) (string, error) {
	prompt := fmt.Sprintf(specGeneratePrompt,
		input.Research,
		"- "+strings.Join(input.Requirements, "\n- "),
		strings.Join(input.ComplianceTags, ", "),
		input.Domain,
	)
	out, _, err := a.invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate specification: %w", err)
	}
	return out, nil
}

// Validate checks a generated specification for completeness and consistency.
func (a *SpecAgent) Validate(ctx context.Context, spec string) (models.Validation, error) {
	out, _, err := a.invoke(ctx, fmt.Sprintf(specValidatePrompt, spec))
	if err != nil {
		return models.Validation{}, fmt.Errorf("validate specification: %w", err)
	}

	var v models.Validation
	if err := parseJSON(out, &v); err != nil {
		return models.Validation{}, fmt.Errorf("validate specification: %w", err)
	}
	return v, nil
}
