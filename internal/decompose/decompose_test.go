package decompose

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

type stubRunner struct {
	response string
	err      error
	prompts  []string
}

func (r *stubRunner) Run(ctx context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.response, r.err
}

func (r *stubRunner) RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return r.Run(ctx, userPrompt)
}

func TestDecomposeParsesPlan(t *testing.T) {
	runner := &stubRunner{response: `Here is the breakdown:
{
  "research": [
    {"title": "Survey caching layers", "description": "Compare LRU and ARC"},
    {"title": "Review invalidation", "description": "TTL vs explicit purge"}
  ],
  "requirements": ["Cache hit ratio above 90%", "Purge completes in under 1s"]
}
Let me know if you need more detail.`}

	d := New(runner)
	decomp, err := d.Decompose(context.Background(), "add a caching layer")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	if len(decomp.Research) != 2 {
		t.Fatalf("expected 2 research subtasks, got %d", len(decomp.Research))
	}
	if decomp.Research[0].Title != "Survey caching layers" {
		t.Errorf("unexpected first subtask title: %q", decomp.Research[0].Title)
	}
	if decomp.Research[1].Description != "TTL vs explicit purge" {
		t.Errorf("unexpected second subtask description: %q", decomp.Research[1].Description)
	}
	if len(decomp.Requirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(decomp.Requirements))
	}

	if len(runner.prompts) != 1 || !strings.Contains(runner.prompts[0], "add a caching layer") {
		t.Errorf("prompt should contain the task description, got %v", runner.prompts)
	}
}

func TestDecomposeSubtaskIDsUnique(t *testing.T) {
	var parts []string
	for i := 0; i < 6; i++ {
		parts = append(parts, fmt.Sprintf(`{"title": "t%d", "description": "d%d"}`, i, i))
	}
	runner := &stubRunner{response: fmt.Sprintf(
		`{"research": [%s], "requirements": ["r"]}`, strings.Join(parts, ","))}

	decomp, err := New(runner).Decompose(context.Background(), "task")
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, st := range decomp.Research {
		if st.ID == "" {
			t.Fatal("subtask assigned an empty ID")
		}
		if seen[st.ID] {
			t.Fatalf("duplicate subtask ID %q", st.ID)
		}
		seen[st.ID] = true
	}
}

func TestDecomposeNoJSON(t *testing.T) {
	runner := &stubRunner{response: "I could not produce a plan for that."}
	if _, err := New(runner).Decompose(context.Background(), "task"); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestDecomposeEmptyResearch(t *testing.T) {
	runner := &stubRunner{response: `{"research": [], "requirements": ["r1"]}`}
	_, err := New(runner).Decompose(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "no research tasks") {
		t.Fatalf("expected no-research error, got %v", err)
	}
}

func TestDecomposeEmptyRequirements(t *testing.T) {
	runner := &stubRunner{response: `{"research": [{"title": "t", "description": "d"}], "requirements": []}`}
	_, err := New(runner).Decompose(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "no requirements") {
		t.Fatalf("expected no-requirements error, got %v", err)
	}
}

func TestDecomposeRunnerError(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("model unavailable")}
	_, err := New(runner).Decompose(context.Background(), "task")
	if err == nil || !strings.Contains(err.Error(), "run decomposition") {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}
