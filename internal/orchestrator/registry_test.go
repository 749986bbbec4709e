package orchestrator

import (
	"errors"
	"testing"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	id := r.Create("build a widget")

	exec, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if exec.Task != "build a widget" {
		t.Errorf("Task = %q", exec.Task)
	}
	if exec.Status != models.ExecutionPending {
		t.Errorf("Status = %s, want pending", exec.Status)
	}
	if exec.StartTime.IsZero() {
		t.Error("StartTime is zero")
	}
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, ErrExecutionNotFound) {
		t.Errorf("Get error = %v, want ErrExecutionNotFound", err)
	}
	if err := r.SetStatus("nope", models.ExecutionFailed); !errors.Is(err, ErrExecutionNotFound) {
		t.Errorf("SetStatus error = %v, want ErrExecutionNotFound", err)
	}
}

func TestRegistryStatusMonotonic(t *testing.T) {
	r := NewRegistry()
	id := r.Create("task")

	if err := r.SetStatus(id, models.ExecutionInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if err := r.SetStatus(id, models.ExecutionCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if err := r.SetStatus(id, models.ExecutionPending); err == nil {
		t.Error("completed -> pending should be rejected")
	}
}

func TestRegistryRetryReopensFailed(t *testing.T) {
	r := NewRegistry()
	id := r.Create("task")

	_ = r.SetStatus(id, models.ExecutionInProgress)
	_ = r.SetError(id, errors.New("phase research: boom"))
	_ = r.SetStatus(id, models.ExecutionFailed)

	if err := r.SetStatus(id, models.ExecutionInProgress); err != nil {
		t.Fatalf("failed -> in_progress (retry) rejected: %v", err)
	}
	exec, _ := r.Get(id)
	if exec.Error != "" {
		t.Errorf("retry left error %q on execution", exec.Error)
	}
}

func TestRegistryRetriesAndResults(t *testing.T) {
	r := NewRegistry()
	id := r.Create("task")

	_ = r.SetResult(id, models.PhaseResearch, "notes")
	_ = r.SetDecomposition(id, models.Decomposition{Requirements: []string{"req"}})

	n, err := r.IncrementRetries(id)
	if err != nil || n != 1 {
		t.Fatalf("IncrementRetries = (%d, %v), want (1, nil)", n, err)
	}
	if err := r.ClearResults(id); err != nil {
		t.Fatalf("ClearResults: %v", err)
	}

	exec, _ := r.Get(id)
	if len(exec.Results) != 0 {
		t.Errorf("results not cleared: %v", exec.Results)
	}
	if exec.Decomposition != nil {
		t.Error("decomposition not cleared")
	}
	if exec.Retries != 1 {
		t.Errorf("Retries = %d, want 1", exec.Retries)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	id := r.Create("task")
	_ = r.SetResult(id, models.PhaseResearch, "original")

	exec, _ := r.Get(id)
	exec.Results[models.PhaseResearch] = "mutated"

	fresh, _ := r.Get(id)
	if fresh.Results[models.PhaseResearch] != "original" {
		t.Error("mutating a Get copy leaked into the registry")
	}
}

func TestRegistryUniqueIDs(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := r.Create("task")
		if seen[id] {
			t.Fatalf("duplicate execution id %s", id)
		}
		seen[id] = true
	}
}
