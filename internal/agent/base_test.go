package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// scriptedRunner returns canned responses in order.
type scriptedRunner struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
	systems   []string
}

func (r *scriptedRunner) Run(ctx context.Context, prompt string) (string, error) {
	return r.RunWithSystem(ctx, "", prompt)
}

func (r *scriptedRunner) RunWithSystem(ctx context.Context, system, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	r.systems = append(r.systems, system)
	if r.err != nil {
		return "", r.err
	}
	idx := r.calls
	r.calls++
	if idx >= len(r.responses) {
		idx = len(r.responses) - 1
	}
	if idx < 0 {
		return "", nil
	}
	return r.responses[idx], nil
}

func collectEvents() (Emitter, *[]models.AgentEvent, *sync.Mutex) {
	var mu sync.Mutex
	events := &[]models.AgentEvent{}
	return func(ev models.AgentEvent) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, ev)
	}, events, &mu
}

func TestInvokeEmitsCompleteAndCountsMetrics(t *testing.T) {
	emit, events, mu := collectEvents()
	a := NewResearchAgent(&scriptedRunner{responses: []string{"findings"}}, emit)

	res, err := a.Execute(context.Background(), models.Subtask{ID: "s1", Title: "look things up"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if res.Output != "findings" {
		t.Errorf("Output = %q", res.Output)
	}
	if res.Duration <= 0 {
		t.Error("Duration not recorded")
	}

	m := a.Metrics()
	if m.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", m.TasksCompleted)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*events) != 1 || (*events)[0].Kind != models.EventComplete {
		t.Fatalf("events = %+v, want one complete event", *events)
	}
	if (*events)[0].From != models.RoleResearch {
		t.Errorf("event From = %s, want research", (*events)[0].From)
	}
}

func TestInvokeFailureNotCounted(t *testing.T) {
	emit, events, mu := collectEvents()
	a := NewResearchAgent(&scriptedRunner{err: errors.New("api down")}, emit)

	if _, err := a.Execute(context.Background(), models.Subtask{ID: "s1"}); err == nil {
		t.Fatal("expected error")
	}
	if m := a.Metrics(); m.TasksCompleted != 0 {
		t.Errorf("TasksCompleted = %d, want 0 after failure", m.TasksCompleted)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(*events) != 0 {
		t.Errorf("call failures must not emit events, got %+v", *events)
	}
}

func TestShutdownBlocksFurtherWork(t *testing.T) {
	a := NewResearchAgent(&scriptedRunner{responses: []string{"x"}}, nil)

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if _, err := a.Execute(context.Background(), models.Subtask{ID: "s1"}); err == nil {
		t.Fatal("expected error executing after shutdown")
	}
	if err := a.Restart(context.Background()); err == nil {
		t.Fatal("expected restart of a shut-down agent to fail")
	}
	if st := a.Status(); st.State != models.AgentStopped {
		t.Errorf("State = %s, want stopped", st.State)
	}
}

func TestRestartClearsLastError(t *testing.T) {
	a := NewResearchAgent(&scriptedRunner{}, nil)
	a.ReportError(errors.New("wedged"))

	if st := a.Status(); st.LastError == "" {
		t.Fatal("LastError not recorded")
	}
	if err := a.Restart(context.Background()); err != nil {
		t.Fatalf("Restart returned error: %v", err)
	}
	st := a.Status()
	if st.LastError != "" {
		t.Errorf("LastError = %q after restart, want empty", st.LastError)
	}
	if st.Restarts != 1 {
		t.Errorf("Restarts = %d, want 1", st.Restarts)
	}
}

func TestReportErrorEmitsErrorEvent(t *testing.T) {
	emit, events, mu := collectEvents()
	a := NewResearchAgent(&scriptedRunner{}, emit)

	a.ReportError(errors.New("wedged"))

	mu.Lock()
	defer mu.Unlock()
	if len(*events) != 1 || (*events)[0].Kind != models.EventError {
		t.Fatalf("events = %+v, want one error event", *events)
	}
}

func TestInboxBounded(t *testing.T) {
	a := NewResearchAgent(&scriptedRunner{}, nil)
	for i := 0; i < maxInboxMessages+10; i++ {
		a.ReceiveMessage(models.Message{From: models.RoleDev, Payload: "p"})
	}
	if got := len(a.Inbox()); got != maxInboxMessages {
		t.Errorf("inbox size = %d, want %d", got, maxInboxMessages)
	}
}

func TestParseJSONExtractsFromProse(t *testing.T) {
	var v models.Validation
	response := "Here is my verdict:\n```json\n{\"valid\": false, \"errors\": [\"too vague\"]}\n```\nLet me know."
	if err := parseJSON(response, &v); err != nil {
		t.Fatalf("parseJSON returned error: %v", err)
	}
	if v.Valid || len(v.Errors) != 1 || v.Errors[0] != "too vague" {
		t.Errorf("parsed %+v", v)
	}
}

func TestParseJSONArray(t *testing.T) {
	var items []map[string]string
	response := "Plan:\n[{\"title\": \"a\"}, {\"title\": \"b\"}]"
	if err := parseJSON(response, &items); err != nil {
		t.Fatalf("parseJSON returned error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("parsed %d items, want 2", len(items))
	}
}

func TestParseJSONNoJSON(t *testing.T) {
	var v models.Validation
	if err := parseJSON("no structured content here", &v); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}
