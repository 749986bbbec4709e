package orchestrator

import (
	"github.com/stagehand-dev/stagehand/internal/agent"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/state"
)

// RequiredConfig contains the minimal required configuration for an
// Orchestrator. All fields are required and have no defaults.
type RequiredConfig struct {
	// Config is the loaded pipeline configuration.
	Config *config.Config
	// Runner executes agent prompts against the model API.
	Runner agent.Runner
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	eventBuffer int
	sleep       sleepFunc
	escalator   Escalator
	store       state.Store

	// Injectable dependencies for testing
	decomposer Decomposer
	researcher agent.Researcher
	specWriter agent.SpecWriter
	developer  agent.Developer
	tester     agent.Tester
	integrator agent.Integrator
}

// WithEventBuffer sets the router's queue buffer size.
func WithEventBuffer(n int) Option {
	return func(o *orchestratorOptions) { o.eventBuffer = n }
}

// WithSleep sets the suspension function used between retries
// (mainly for testing).
func WithSleep(fn sleepFunc) Option {
	return func(o *orchestratorOptions) { o.sleep = fn }
}

// WithEscalator sets the escalation adapter. Without one, escalations
// are logged only.
func WithEscalator(e Escalator) Option {
	return func(o *orchestratorOptions) { o.escalator = e }
}

// WithStore sets the optional state store for execution records and
// metrics snapshots.
func WithStore(s state.Store) Option {
	return func(o *orchestratorOptions) { o.store = s }
}

// WithDecomposer sets a custom task decomposer (mainly for testing).
func WithDecomposer(d Decomposer) Option {
	return func(o *orchestratorOptions) { o.decomposer = d }
}

// WithResearcher sets a custom research agent (mainly for testing).
func WithResearcher(a agent.Researcher) Option {
	return func(o *orchestratorOptions) { o.researcher = a }
}

// WithSpecWriter sets a custom spec agent (mainly for testing).
func WithSpecWriter(a agent.SpecWriter) Option {
	return func(o *orchestratorOptions) { o.specWriter = a }
}

// WithDeveloper sets a custom dev agent (mainly for testing).
func WithDeveloper(a agent.Developer) Option {
	return func(o *orchestratorOptions) { o.developer = a }
}

// WithTester sets a custom qa agent (mainly for testing).
func WithTester(a agent.Tester) Option {
	return func(o *orchestratorOptions) { o.tester = a }
}

// WithIntegrator sets a custom integration agent (mainly for testing).
func WithIntegrator(a agent.Integrator) Option {
	return func(o *orchestratorOptions) { o.integrator = a }
}
