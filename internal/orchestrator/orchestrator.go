// Package orchestrator drives the development pipeline: one task is
// decomposed, researched, specified, implemented alongside test
// preparation, quality-assured, and integrated, with whole-pipeline
// retry and external escalation when recovery is exhausted.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stagehand-dev/stagehand/internal/agent"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/decompose"
	"github.com/stagehand-dev/stagehand/internal/router"
	"github.com/stagehand-dev/stagehand/internal/state"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

// defaultEventBuffer is the router queue size unless overridden.
const defaultEventBuffer = 100

// Decomposer splits a task description into a research plan and a
// requirement set. internal/decompose provides the model-backed
// implementation.
type Decomposer interface {
	Decompose(ctx context.Context, task string) (*models.Decomposition, error)
}

// PipelineError wraps a phase failure with the phase it occurred in.
type PipelineError struct {
	Phase models.Phase
	Cause error
}

// Error returns the phase-qualified failure message.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Orchestrator composes the decomposer, the five role agents, the
// message router, and the retry controller into one pipeline per
// execution. Multiple executions may run concurrently; they share the
// long-lived agents, the metrics collector, and the registry.
type Orchestrator struct {
	cfg *config.Config

	decomposer Decomposer
	researcher agent.Researcher
	specWriter agent.SpecWriter
	developer  agent.Developer
	tester     agent.Tester
	integrator agent.Integrator

	router    *router.Router
	registry  *Registry
	metrics   *Metrics
	backoff   Backoff
	sleep     sleepFunc
	escalator Escalator
	store     state.Store

	shutdownOnce sync.Once
}

// New creates an Orchestrator from the required configuration and
// options. Role agents not injected via options are built on the
// required Runner.
func New(req RequiredConfig, opts ...Option) *Orchestrator {
	options := &orchestratorOptions{
		eventBuffer: defaultEventBuffer,
		sleep:       defaultSleep,
	}
	for _, opt := range opts {
		opt(options)
	}

	o := &Orchestrator{
		cfg:       req.Config,
		registry:  NewRegistry(),
		metrics:   NewMetrics(),
		backoff:   NewBackoff(),
		sleep:     options.sleep,
		escalator: options.escalator,
		store:     options.store,
	}
	o.router = router.New(options.eventBuffer, o.metrics)
	o.router.SetAutoRecovery(req.Config.Pipeline.AutoRecovery)

	emit := o.router.Publish

	o.decomposer = options.decomposer
	if o.decomposer == nil {
		o.decomposer = decompose.New(req.Runner)
	}
	o.researcher = options.researcher
	if o.researcher == nil {
		o.researcher = agent.NewResearchAgent(req.Runner, emit)
	}
	o.specWriter = options.specWriter
	if o.specWriter == nil {
		o.specWriter = agent.NewSpecAgent(req.Runner, emit)
	}
	o.developer = options.developer
	if o.developer == nil {
		o.developer = agent.NewDevAgent(req.Runner, emit, req.Config.Agent(models.RoleDev).Strategies)
	}
	o.tester = options.tester
	if o.tester == nil {
		o.tester = agent.NewQAAgent(req.Runner, emit)
	}
	o.integrator = options.integrator
	if o.integrator == nil {
		var publisher agent.Publisher
		if p, ok := options.escalator.(agent.Publisher); ok {
			publisher = p
		}
		o.integrator = agent.NewIntegrationAgent(req.Runner, emit, publisher)
	}

	for _, a := range o.agents() {
		o.router.Register(a)
	}
	return o
}

// agents lists the role agents in phase order.
func (o *Orchestrator) agents() []agent.Agent {
	return []agent.Agent{o.researcher, o.specWriter, o.developer, o.tester, o.integrator}
}

// SetAutoRecovery toggles automated agent restart at runtime, for
// config file watches.
func (o *Orchestrator) SetAutoRecovery(enabled bool) {
	o.router.SetAutoRecovery(enabled)
}

// Events returns the router's observer stream for CLI display.
func (o *Orchestrator) Events() <-chan models.AgentEvent {
	return o.router.Events()
}

// Executions returns copies of every registered execution.
func (o *Orchestrator) Executions() []models.Execution {
	return o.registry.List()
}

// Execution returns a copy of one execution by id.
func (o *Orchestrator) Execution(id string) (models.Execution, error) {
	return o.registry.Get(id)
}

// AgentStatuses returns a status snapshot per role, in phase order.
func (o *Orchestrator) AgentStatuses() []models.AgentStatus {
	out := make([]models.AgentStatus, 0, len(o.agents()))
	for _, a := range o.agents() {
		out = append(out, a.Status())
	}
	return out
}

// MetricsSnapshot returns the current process-wide counters.
func (o *Orchestrator) MetricsSnapshot() models.MetricsSnapshot {
	return o.metrics.Snapshot()
}

// Execute runs the whole pipeline for one task. A phase failure
// restarts the pipeline from scratch with exponential backoff, up to
// the configured retry limit; partial outputs of a failed attempt are
// discarded, never resumed. After the limit the last failure is
// returned to the caller as-is.
func (o *Orchestrator) Execute(ctx context.Context, task string) (*models.Result, error) {
	id := o.registry.Create(task)
	start := time.Now()
	maxRetries := o.cfg.Pipeline.MaxRetries

	log.Printf("[orchestrator] execution %s started: %s", id, truncateTask(task))

	var lastErr error
	for {
		if err := o.registry.SetStatus(id, models.ExecutionInProgress); err != nil {
			return nil, err
		}

		result, err := o.runPipeline(ctx, id, task)
		if err == nil {
			if err := o.registry.SetStatus(id, models.ExecutionCompleted); err != nil {
				return nil, err
			}
			o.metrics.RecordExecution(true, time.Since(start))
			o.persistExecution(ctx, id)
			log.Printf("[orchestrator] execution %s completed after %d retries", id, o.retries(id))
			return result, nil
		}

		lastErr = err
		_ = o.registry.SetError(id, err)
		_ = o.registry.SetStatus(id, models.ExecutionFailed)

		retries, rerr := o.registry.IncrementRetries(id)
		if rerr != nil {
			return nil, rerr
		}
		if retries > maxRetries {
			o.metrics.RecordExecution(false, time.Since(start))
			o.persistExecution(ctx, id)
			log.Printf("[orchestrator] execution %s failed permanently after %d retries: %v", id, maxRetries, err)
			return nil, lastErr
		}

		delay := o.backoff.Delay(retries)
		log.Printf("[orchestrator] execution %s failed (retry %d/%d in %s): %v", id, retries, maxRetries, delay, err)

		_ = o.registry.ClearResults(id)
		if serr := o.sleep(ctx, delay); serr != nil {
			o.metrics.RecordExecution(false, time.Since(start))
			o.persistExecution(ctx, id)
			return nil, serr
		}
	}
}

// retries returns the current retry count for an execution, zero when
// the lookup fails.
func (o *Orchestrator) retries(id string) int {
	exec, err := o.registry.Get(id)
	if err != nil {
		return 0
	}
	return exec.Retries
}

// persistExecution saves the execution record when a store is
// configured. Persistence failures are logged, never propagated.
func (o *Orchestrator) persistExecution(ctx context.Context, id string) {
	if o.store == nil {
		return
	}
	exec, err := o.registry.Get(id)
	if err != nil {
		return
	}
	if err := o.store.SaveExecution(ctx, exec); err != nil {
		log.Printf("[orchestrator] failed to persist execution %s: %v", id, err)
	}
}

func truncateTask(task string) string {
	if len(task) <= 80 {
		return task
	}
	return task[:80] + "..."
}
