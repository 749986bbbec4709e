package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stagehand-dev/stagehand/internal/agent"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

// runPipeline executes every stage of the pipeline once for one
// attempt. Any returned error is a *PipelineError and hands control
// back to the retry loop in Execute.
func (o *Orchestrator) runPipeline(ctx context.Context, id, task string) (*models.Result, error) {
	d, err := o.decomposer.Decompose(ctx, task)
	if err != nil {
		return nil, &PipelineError{Phase: models.PhaseResearch, Cause: fmt.Errorf("decompose task: %w", err)}
	}
	_ = o.registry.SetDecomposition(id, *d)

	research, err := o.runResearch(ctx, id, d)
	if err != nil {
		return nil, err
	}

	spec, err := o.runSpecification(ctx, id, research, d.Requirements)
	if err != nil {
		return nil, err
	}

	code, suite, err := o.runDevelopmentAndQAPrep(ctx, id, spec)
	if err != nil {
		return nil, err
	}

	code, tests, err := o.runQualityAssurance(ctx, id, task, code, suite)
	if err != nil {
		return nil, err
	}

	artifacts := models.Artifacts{
		Task:      task,
		Spec:      spec,
		Code:      code,
		TestSuite: suite,
		Tests:     tests,
	}
	out, err := o.runIntegration(ctx, id, artifacts)
	if err != nil {
		return nil, err
	}

	return &models.Result{
		ExecutionID:   id,
		Task:          task,
		Spec:          spec,
		Code:          code,
		Tests:         tests,
		Documentation: out.Documentation,
		Deployment:    out.Deployment,
		Metrics:       o.metrics.Snapshot(),
	}, nil
}

// runResearch hands each research subtask to the research agent in
// order, then consolidates the results. Skipped entirely when the
// research role is disabled.
func (o *Orchestrator) runResearch(ctx context.Context, id string, d *models.Decomposition) (string, error) {
	if !o.cfg.Agent(models.RoleResearch).Enabled {
		log.Printf("[orchestrator] execution %s: research role disabled, skipping", id)
		return "", nil
	}

	results := make([]models.SubtaskResult, 0, len(d.Research))
	for _, st := range d.Research {
		res, err := o.researcher.Execute(ctx, st)
		if err != nil {
			return "", &PipelineError{Phase: models.PhaseResearch, Cause: fmt.Errorf("research subtask %s: %w", st.ID, err)}
		}
		results = append(results, res)
	}

	consolidated, err := o.researcher.Consolidate(ctx, results)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseResearch, Cause: fmt.Errorf("consolidate research: %w", err)}
	}
	_ = o.registry.SetResult(id, models.PhaseResearch, consolidated)

	o.router.Publish(models.AgentEvent{
		Kind: models.EventMessage,
		From: models.RoleResearch,
		Message: &models.Message{
			From:      models.RoleResearch,
			Broadcast: true,
			Payload:   "research consolidated",
		},
	})
	return consolidated, nil
}

// runSpecification generates and validates the specification. A
// validation failure is a phase failure with an aggregate message; it
// is not retried locally.
func (o *Orchestrator) runSpecification(ctx context.Context, id, research string, requirements []string) (string, error) {
	if !o.cfg.Agent(models.RoleSpec).Enabled {
		return "", &PipelineError{Phase: models.PhaseSpecification, Cause: fmt.Errorf("spec role is disabled but required")}
	}

	input := models.SpecInput{
		Research:       research,
		Requirements:   requirements,
		ComplianceTags: o.cfg.Pipeline.ComplianceTags,
		Domain:         o.cfg.Pipeline.Domain,
	}
	spec, err := o.specWriter.Generate(ctx, input)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseSpecification, Cause: fmt.Errorf("generate specification: %w", err)}
	}

	v, err := o.specWriter.Validate(ctx, spec)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseSpecification, Cause: fmt.Errorf("validate specification: %w", err)}
	}
	if !v.Valid {
		return "", &PipelineError{
			Phase: models.PhaseSpecification,
			Cause: fmt.Errorf("specification failed validation: %s", strings.Join(v.Errors, "; ")),
		}
	}
	_ = o.registry.SetResult(id, models.PhaseSpecification, spec)

	o.router.Publish(models.AgentEvent{
		Kind: models.EventMessage,
		From: models.RoleSpec,
		Message: &models.Message{
			From:      models.RoleSpec,
			Broadcast: true,
			Payload:   "specification ready",
		},
	})
	return spec, nil
}

// runDevelopmentAndQAPrep runs the development and qa-preparation
// phases concurrently and waits for both. Neither observes the
// other's output; qa builds its suite from the spec alone.
func (o *Orchestrator) runDevelopmentAndQAPrep(ctx context.Context, id, spec string) (code, suite string, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var derr error
		code, derr = o.runDevelopment(gctx, id, spec)
		return derr
	})
	g.Go(func() error {
		var qerr error
		suite, qerr = o.runQAPreparation(gctx, id, spec)
		return qerr
	})

	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return code, suite, nil
}

// runDevelopment plans implementation subtasks from the spec, fans
// them out under the concurrency limiter, and integrates the partial
// implementations into one artifact.
func (o *Orchestrator) runDevelopment(ctx context.Context, id, spec string) (string, error) {
	if !o.cfg.Agent(models.RoleDev).Enabled {
		return "", &PipelineError{Phase: models.PhaseDevelopment, Cause: fmt.Errorf("dev role is disabled but required")}
	}

	subtasks, err := o.developer.PlanImplementation(ctx, spec)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseDevelopment, Cause: fmt.Errorf("plan implementation: %w", err)}
	}

	limiter := NewLimiter(MaxConcurrent(o.cfg.Agent(models.RoleDev).Fraction, o.cfg.Pipeline.Parallelism))
	results, err := limiter.Run(ctx, subtasks, o.developer.Execute)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseDevelopment, Cause: fmt.Errorf("implement subtasks: %w", err)}
	}

	code, err := o.developer.Integrate(ctx, results)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseDevelopment, Cause: fmt.Errorf("integrate implementations: %w", err)}
	}
	_ = o.registry.SetResult(id, models.PhaseDevelopment, code)
	return code, nil
}

// runQAPreparation pre-builds the test suite from the spec alone,
// independent of development progress.
func (o *Orchestrator) runQAPreparation(ctx context.Context, id, spec string) (string, error) {
	if !o.cfg.Agent(models.RoleQA).Enabled {
		log.Printf("[orchestrator] execution %s: qa role disabled, skipping suite preparation", id)
		return "", nil
	}

	suite, err := o.tester.PrepareTestSuite(ctx, spec)
	if err != nil {
		return "", &PipelineError{Phase: models.PhaseQAPreparation, Cause: fmt.Errorf("prepare test suite: %w", err)}
	}
	_ = o.registry.SetResult(id, models.PhaseQAPreparation, suite)
	return suite, nil
}

// runQualityAssurance runs the prepared suite against the integrated
// code. On failures the dev agent gets exactly one fix attempt
// followed by one re-run; if failures remain the run is escalated with
// reason "QA Failed" and the last results are returned without
// failing the execution.
func (o *Orchestrator) runQualityAssurance(ctx context.Context, id, task, code, suite string) (string, models.TestResults, error) {
	if !o.cfg.Agent(models.RoleQA).Enabled || suite == "" {
		return code, models.TestResults{}, nil
	}

	run := models.SuiteRun{Code: code, TestSuite: suite, CoverageTarget: o.cfg.Pipeline.CoverageTarget}
	results, err := o.tester.RunSuite(ctx, run)
	if err != nil {
		return "", models.TestResults{}, &PipelineError{Phase: models.PhaseQualityAssurance, Cause: fmt.Errorf("run test suite: %w", err)}
	}

	if results.HasFailures() {
		code, results, err = o.fixAndRetest(ctx, id, task, code, suite, results)
		if err != nil {
			return "", models.TestResults{}, err
		}
	}

	_ = o.registry.SetResult(id, models.PhaseQualityAssurance, summarizeTests(results))
	return code, results, nil
}

// fixAndRetest gives the dev agent one shot at the failing results and
// re-runs the full suite once if the fix claims success. Anything
// short of a clean re-run escalates exactly once.
func (o *Orchestrator) fixAndRetest(ctx context.Context, id, task, code, suite string, failing models.TestResults) (string, models.TestResults, error) {
	o.router.Publish(models.AgentEvent{
		Kind: models.EventMessage,
		From: models.RoleQA,
		Message: &models.Message{
			From:    models.RoleQA,
			Target:  models.RoleDev,
			Payload: fmt.Sprintf("%d tests failing", len(failing.Failed)),
		},
	})

	fix, err := o.developer.FixFailingTests(ctx, failing)
	if err != nil {
		return "", models.TestResults{}, &PipelineError{Phase: models.PhaseQualityAssurance, Cause: fmt.Errorf("fix failing tests: %w", err)}
	}

	if !fix.Success {
		o.escalateQA(ctx, id, task, failing)
		return code, failing, nil
	}

	if fix.Code != "" {
		code = fix.Code
	}
	rerun, err := o.tester.RunSuite(ctx, models.SuiteRun{Code: code, TestSuite: suite, CoverageTarget: o.cfg.Pipeline.CoverageTarget})
	if err != nil {
		return "", models.TestResults{}, &PipelineError{Phase: models.PhaseQualityAssurance, Cause: fmt.Errorf("re-run test suite: %w", err)}
	}
	if rerun.HasFailures() {
		o.escalateQA(ctx, id, task, rerun)
	}
	return code, rerun, nil
}

// escalateQA reports unrecovered test failures to the escalation
// adapter.
func (o *Orchestrator) escalateQA(ctx context.Context, id, task string, results models.TestResults) {
	failures := make([]string, 0, len(results.Failed))
	for _, f := range results.Failed {
		failures = append(failures, f.Name)
	}
	o.escalate(ctx, "QA Failed", map[string]any{
		"execution_id": id,
		"task":         task,
		"total":        results.Total,
		"passed":       results.Passed,
		"failed":       failures,
		"coverage":     results.Coverage,
	})
}

// runIntegration produces documentation and deployment artifacts, then
// performs the configured best-effort tracker pushes. Push and
// notification failures are logged, never fatal to the phase.
func (o *Orchestrator) runIntegration(ctx context.Context, id string, artifacts models.Artifacts) (models.IntegrationOutput, error) {
	if !o.cfg.Agent(models.RoleIntegration).Enabled {
		log.Printf("[orchestrator] execution %s: integration role disabled, skipping", id)
		return models.IntegrationOutput{}, nil
	}

	out, err := o.integrator.Process(ctx, artifacts)
	if err != nil {
		return models.IntegrationOutput{}, &PipelineError{Phase: models.PhaseIntegration, Cause: fmt.Errorf("process artifacts: %w", err)}
	}
	_ = o.registry.SetResult(id, models.PhaseIntegration, out.Documentation)

	if o.cfg.Tracker.PushArtifacts {
		if pusher, ok := o.integrator.(agent.ArtifactPusher); ok {
			if url, perr := pusher.PushArtifacts(ctx, artifacts); perr != nil {
				log.Printf("[orchestrator] execution %s: artifact push failed: %v", id, perr)
			} else {
				log.Printf("[orchestrator] execution %s: artifacts pushed: %s", id, url)
			}
		}
	}
	if o.cfg.Tracker.SendNotifications {
		if notifier, ok := o.integrator.(agent.Notifier); ok {
			details := map[string]any{
				"execution_id": id,
				"tests_total":  artifacts.Tests.Total,
				"tests_passed": artifacts.Tests.Passed,
			}
			if nerr := notifier.Notify(ctx, "Pipeline completed", details); nerr != nil {
				log.Printf("[orchestrator] execution %s: notification failed: %v", id, nerr)
			}
		}
	}
	return out, nil
}

// summarizeTests renders a short phase summary for the registry.
func summarizeTests(r models.TestResults) string {
	return fmt.Sprintf("%d/%d passed, %d failed, coverage %.0f%%", r.Passed, r.Total, len(r.Failed), r.Coverage*100)
}
