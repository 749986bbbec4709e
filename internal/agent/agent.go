// Package agent provides the agent capability contract and the five
// concrete role agents that execute pipeline work over a Runner.
package agent

import (
	"context"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// Runner executes a prompt against a language model and returns the
// text response. internal/api provides the Anthropic-backed
// implementation; tests use stubs.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
	RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Emitter delivers agent events to the message router.
// A nil Emitter disables event emission.
type Emitter func(models.AgentEvent)

// Agent is the capability contract every pipeline role implements.
// The orchestrator depends on nothing else; role-specific work goes
// through the extension interfaces below, selected by Role.
type Agent interface {
	// Role returns the agent's pipeline role.
	Role() models.Role
	// Execute runs one subtask. It may be called concurrently by the
	// concurrency limiter; implementations must be safe for concurrent use.
	Execute(ctx context.Context, subtask models.Subtask) (models.SubtaskResult, error)
	// ReceiveMessage is fire-and-forget delivery from the message router.
	ReceiveMessage(msg models.Message)
	// Restart recovers the agent after an out-of-band error.
	// It fails if the agent cannot recover.
	Restart(ctx context.Context) error
	// Shutdown releases resources. Safe to call once per lifecycle.
	Shutdown(ctx context.Context) error
	// Metrics returns the agent's utilization counters.
	Metrics() models.AgentMetrics
	// Status returns a point-in-time status snapshot.
	Status() models.AgentStatus
}

// Researcher is the research role extension.
type Researcher interface {
	Agent
	// Consolidate merges individual research results into one document.
	Consolidate(ctx context.Context, results []models.SubtaskResult) (string, error)
}

// SpecWriter is the spec role extension.
type SpecWriter interface {
	Agent
	// Generate produces a specification from research and requirements.
	Generate(ctx context.Context, input models.SpecInput) (string, error)
	// Validate checks a generated specification.
	Validate(ctx context.Context, spec string) (models.Validation, error)
}

// Developer is the dev role extension.
type Developer interface {
	Agent
	// PlanImplementation decomposes a specification into implementation subtasks.
	PlanImplementation(ctx context.Context, spec string) ([]models.Subtask, error)
	// Integrate combines partial implementations into one artifact.
	Integrate(ctx context.Context, results []models.SubtaskResult) (string, error)
	// FixFailingTests attempts to repair the implementation given failing results.
	FixFailingTests(ctx context.Context, results models.TestResults) (models.FixResult, error)
}

// Tester is the QA role extension.
type Tester interface {
	Agent
	// PrepareTestSuite builds a test suite from the specification alone.
	PrepareTestSuite(ctx context.Context, spec string) (string, error)
	// RunSuite runs the prepared suite against the integrated code.
	RunSuite(ctx context.Context, run models.SuiteRun) (models.TestResults, error)
}

// Integrator is the integration role extension.
type Integrator interface {
	Agent
	// Process combines spec, code, and tests into documentation and
	// deployment artifacts.
	Process(ctx context.Context, artifacts models.Artifacts) (models.IntegrationOutput, error)
}

// ArtifactPusher is implemented by integrators that can push artifacts
// to the external tracker. Best-effort; failures are logged, not fatal.
type ArtifactPusher interface {
	PushArtifacts(ctx context.Context, artifacts models.Artifacts) (string, error)
}

// Notifier is implemented by integrators that can send out-of-band
// notifications. Best-effort; failures are logged, not fatal.
type Notifier interface {
	Notify(ctx context.Context, subject string, details any) error
}

// Publisher is the external tracker surface the integration agent uses
// for artifact pushes and notifications. internal/tracker satisfies it.
type Publisher interface {
	CreateIssue(ctx context.Context, title, body string, assignees, labels []string) (string, error)
	SendWebhook(ctx context.Context, reason string, details any) error
}
