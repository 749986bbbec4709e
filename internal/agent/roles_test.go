package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

func TestDevPlanImplementation(t *testing.T) {
	runner := &scriptedRunner{responses: []string{
		`Here is the plan: [{"title": "wire storage", "description": "set up the tables"}, {"title": "add handlers", "description": "expose operations"}]`,
	}}
	dev := NewDevAgent(runner, nil, []string{"incremental"})

	subtasks, err := dev.PlanImplementation(context.Background(), "the spec")
	if err != nil {
		t.Fatalf("PlanImplementation returned error: %v", err)
	}
	if len(subtasks) != 2 {
		t.Fatalf("got %d subtasks, want 2", len(subtasks))
	}
	for _, st := range subtasks {
		if st.ID == "" {
			t.Errorf("subtask %q has no id", st.Title)
		}
	}
	if subtasks[0].Title != "wire storage" {
		t.Errorf("subtasks[0].Title = %q", subtasks[0].Title)
	}
	if !strings.Contains(runner.prompts[0], "incremental") {
		t.Error("strategy hint missing from planning prompt")
	}
}

func TestDevPlanEmptyFails(t *testing.T) {
	runner := &scriptedRunner{responses: []string{`[]`}}
	dev := NewDevAgent(runner, nil, nil)
	if _, err := dev.PlanImplementation(context.Background(), "the spec"); err == nil {
		t.Fatal("expected error for empty plan")
	}
}

func TestDevFixFailingTests(t *testing.T) {
	runner := &scriptedRunner{responses: []string{`{"success": true, "code": "patched"}`}}
	dev := NewDevAgent(runner, nil, nil)

	fix, err := dev.FixFailingTests(context.Background(), models.TestResults{
		Total: 3, Passed: 2,
		Failed: []models.TestFailure{{Name: "TestX", Message: "boom"}},
	})
	if err != nil {
		t.Fatalf("FixFailingTests returned error: %v", err)
	}
	if !fix.Success || fix.Code != "patched" {
		t.Errorf("fix = %+v", fix)
	}
	if !strings.Contains(runner.prompts[0], "TestX") {
		t.Error("failing test name missing from fix prompt")
	}
}

func TestDevIntegrateIncludesFragments(t *testing.T) {
	runner := &scriptedRunner{responses: []string{"merged"}}
	dev := NewDevAgent(runner, nil, nil)

	out, err := dev.Integrate(context.Background(), []models.SubtaskResult{
		{SubtaskID: "a1", Output: "fragment one"},
		{SubtaskID: "b2", Output: "fragment two"},
	})
	if err != nil {
		t.Fatalf("Integrate returned error: %v", err)
	}
	if out != "merged" {
		t.Errorf("Integrate = %q", out)
	}
	if !strings.Contains(runner.prompts[0], "fragment one") || !strings.Contains(runner.prompts[0], "fragment two") {
		t.Error("fragments missing from integration prompt")
	}
}

func TestSpecValidateParsesVerdict(t *testing.T) {
	runner := &scriptedRunner{responses: []string{`{"valid": false, "errors": ["no error budget"]}`}}
	spec := NewSpecAgent(runner, nil)

	v, err := spec.Validate(context.Background(), "draft spec")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if v.Valid || len(v.Errors) != 1 {
		t.Errorf("validation = %+v", v)
	}
}

func TestSpecGenerateUsesRequirements(t *testing.T) {
	runner := &scriptedRunner{responses: []string{"the spec"}}
	spec := NewSpecAgent(runner, nil)

	out, err := spec.Generate(context.Background(), models.SpecInput{
		Research:     "notes",
		Requirements: []string{"must be fast", "must be safe"},
		Domain:       "payments",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "the spec" {
		t.Errorf("Generate = %q", out)
	}
	if !strings.Contains(runner.prompts[0], "must be fast") || !strings.Contains(runner.prompts[0], "payments") {
		t.Error("requirements or domain missing from generation prompt")
	}
}

func TestQARunSuiteParsesResults(t *testing.T) {
	runner := &scriptedRunner{responses: []string{
		`{"total": 4, "passed": 3, "failed": [{"name": "TestY", "message": "off by one"}], "coverage": 0.75}`,
	}}
	qa := NewQAAgent(runner, nil)

	results, err := qa.RunSuite(context.Background(), models.SuiteRun{Code: "code", TestSuite: "suite", CoverageTarget: 0.8})
	if err != nil {
		t.Fatalf("RunSuite returned error: %v", err)
	}
	if results.Total != 4 || results.Passed != 3 || results.Coverage != 0.75 {
		t.Errorf("results = %+v", results)
	}
	if !results.HasFailures() || results.Failed[0].Name != "TestY" {
		t.Errorf("failures = %+v", results.Failed)
	}
}

func TestQAPrepareSuiteSeesOnlySpec(t *testing.T) {
	runner := &scriptedRunner{responses: []string{"the suite"}}
	qa := NewQAAgent(runner, nil)

	if _, err := qa.PrepareTestSuite(context.Background(), "spec text"); err != nil {
		t.Fatalf("PrepareTestSuite returned error: %v", err)
	}
	if !strings.Contains(runner.prompts[0], "spec text") {
		t.Error("spec missing from suite preparation prompt")
	}
}

func TestResearchConsolidate(t *testing.T) {
	runner := &scriptedRunner{responses: []string{"one document"}}
	r := NewResearchAgent(runner, nil)

	out, err := r.Consolidate(context.Background(), []models.SubtaskResult{
		{SubtaskID: "r1", Output: "alpha"},
		{SubtaskID: "r2", Output: "beta"},
	})
	if err != nil {
		t.Fatalf("Consolidate returned error: %v", err)
	}
	if out != "one document" {
		t.Errorf("Consolidate = %q", out)
	}
	if !strings.Contains(runner.prompts[0], "alpha") || !strings.Contains(runner.prompts[0], "beta") {
		t.Error("research notes missing from consolidation prompt")
	}
}

// fakePublisher records issue and webhook calls for the integrator tests.
type fakePublisher struct {
	mu       sync.Mutex
	issues   []string
	webhooks []string
	issueErr error
}

func (p *fakePublisher) CreateIssue(ctx context.Context, title, body string, assignees, labels []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.issueErr != nil {
		return "", p.issueErr
	}
	p.issues = append(p.issues, title)
	return fmt.Sprintf("https://github.com/acme/widgets/issues/%d", len(p.issues)), nil
}

func (p *fakePublisher) SendWebhook(ctx context.Context, reason string, details any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.webhooks = append(p.webhooks, reason)
	return nil
}

func TestIntegratorProcess(t *testing.T) {
	runner := &scriptedRunner{responses: []string{`{"documentation": "docs", "deployment": "deploy"}`}}
	i := NewIntegrationAgent(runner, nil, nil)

	out, err := i.Process(context.Background(), models.Artifacts{Task: "t", Spec: "s", Code: "c", TestSuite: "ts"})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if out.Documentation != "docs" || out.Deployment != "deploy" {
		t.Errorf("output = %+v", out)
	}
}

func TestIntegratorPushArtifacts(t *testing.T) {
	pub := &fakePublisher{}
	i := NewIntegrationAgent(&scriptedRunner{}, nil, pub)

	url, err := i.PushArtifacts(context.Background(), models.Artifacts{Task: "build the widget"})
	if err != nil {
		t.Fatalf("PushArtifacts returned error: %v", err)
	}
	if url == "" {
		t.Error("no issue URL returned")
	}
	if len(pub.issues) != 1 || !strings.Contains(pub.issues[0], "build the widget") {
		t.Errorf("issues = %v", pub.issues)
	}
}

func TestIntegratorPushWithoutPublisher(t *testing.T) {
	i := NewIntegrationAgent(&scriptedRunner{}, nil, nil)
	if _, err := i.PushArtifacts(context.Background(), models.Artifacts{}); err == nil {
		t.Fatal("expected error without a publisher")
	}
}

func TestIntegratorNotify(t *testing.T) {
	pub := &fakePublisher{}
	i := NewIntegrationAgent(&scriptedRunner{}, nil, pub)

	if err := i.Notify(context.Background(), "Pipeline completed", map[string]any{"ok": true}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(pub.webhooks) != 1 || pub.webhooks[0] != "Pipeline completed" {
		t.Errorf("webhooks = %v", pub.webhooks)
	}
}
