package agent

import (
	"context"
	"fmt"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// QAAgent builds test suites from specifications and evaluates
// integrated code against them.
type QAAgent struct {
	baseAgent
}

// NewQAAgent creates the QA role agent.
func NewQAAgent(runner Runner, emit Emitter) *QAAgent {
	return &QAAgent{baseAgent: newBase(models.RoleQA, runner, emit)}
}

// Execute treats a generic subtask as a suite-preparation request.
func (a *QAAgent) Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error) {
	out, err := a.PrepareTestSuite(ctx, subtask.Description)
	if err != nil {
		return models.SubtaskResult{}, err
	}
	return models.SubtaskResult{SubtaskID: subtask.ID, Output: out}, nil
}

// PrepareTestSuite builds a test suite from the specification alone.
// It deliberately never sees the implementation.
func (a *QAAgent) PrepareTestSuite(ctx context.Context, spec string) (string, error) {
	out, _, err := a.invoke(ctx, fmt.Sprintf(prepareSuitePrompt, spec))
	if err != nil {
		return "", fmt.Errorf("prepare test suite: %w", err)
	}
	return out, nil
}

// RunSuite runs the prepared suite against the integrated code.
func (a *QAAgent) RunSuite(ctx context.Context, run models.SuiteRun) (models.TestResults, error) {
	prompt := fmt.Sprintf(runSuitePrompt, run.Code, run.TestSuite, run.CoverageTarget)
	out, _, err := a.invoke(ctx, prompt)
	if err != nil {
		return models.TestResults{}, fmt.Errorf("run test suite: %w", err)
	}

	var results models.TestResults
	if err := parseJSON(out, &results); err != nil {
		return models.TestResults{}, fmt.Errorf("run test suite: %w", err)
	}
	return results, nil
}
