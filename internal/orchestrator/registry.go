package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// ErrExecutionNotFound is returned when a registry lookup misses.
var ErrExecutionNotFound = errors.New("execution not found")

// statusRank orders execution statuses for the monotonicity check.
var statusRank = map[models.ExecutionStatus]int{
	models.ExecutionPending:    0,
	models.ExecutionInProgress: 1,
	models.ExecutionCompleted:  2,
	models.ExecutionFailed:     2,
}

// Registry is the in-memory execution registry. Executions are
// retained for the process lifetime; there is exactly one per id.
type Registry struct {
	mu         sync.RWMutex
	executions map[string]*models.Execution
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executions: make(map[string]*models.Execution)}
}

// Create registers a new pending execution for the task and returns
// its id.
func (r *Registry) Create(task string) string {
	id := uuid.New().String()[:8]

	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions[id] = &models.Execution{
		ID:        id,
		Task:      task,
		Status:    models.ExecutionPending,
		StartTime: time.Now(),
		Results:   make(map[models.Phase]string),
	}
	return id
}

// Get returns a copy of the execution with the given id.
func (r *Registry) Get(id string) (models.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executions[id]
	if !ok {
		return models.Execution{}, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	return copyExecution(exec), nil
}

// List returns copies of all registered executions.
func (r *Registry) List() []models.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Execution, 0, len(r.executions))
	for _, exec := range r.executions {
		out = append(out, copyExecution(exec))
	}
	return out
}

// SetStatus moves the execution to the given status. Backward moves
// from a terminal state are rejected, with one exception: a retry may
// move a failed execution back to in_progress.
func (r *Registry) SetStatus(id string, status models.ExecutionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	if statusRank[status] < statusRank[exec.Status] {
		if !(exec.Status == models.ExecutionFailed && status == models.ExecutionInProgress) {
			return fmt.Errorf("execution %s: illegal status transition %s -> %s", id, exec.Status, status)
		}
	}
	exec.Status = status
	if status != models.ExecutionFailed {
		exec.Error = ""
	}
	return nil
}

// SetDecomposition stores the decomposer output for the current attempt.
func (r *Registry) SetDecomposition(id string, d models.Decomposition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	exec.Decomposition = &d
	return nil
}

// SetResult stores one phase's output artifact.
func (r *Registry) SetResult(id string, phase models.Phase, output string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	exec.Results[phase] = output
	return nil
}

// ClearResults discards the partial phase outputs of a failed attempt
// before a restart-from-scratch retry.
func (r *Registry) ClearResults(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	exec.Results = make(map[models.Phase]string)
	exec.Decomposition = nil
	return nil
}

// IncrementRetries bumps and returns the execution's retry count.
func (r *Registry) IncrementRetries(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	exec.Retries++
	return exec.Retries, nil
}

// SetError records the last failure cause on the execution.
func (r *Registry) SetError(id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	exec, ok := r.executions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	if cause != nil {
		exec.Error = cause.Error()
	}
	return nil
}

func copyExecution(exec *models.Execution) models.Execution {
	out := *exec
	if exec.Decomposition != nil {
		d := *exec.Decomposition
		d.Research = append([]models.Subtask(nil), exec.Decomposition.Research...)
		d.Requirements = append([]string(nil), exec.Decomposition.Requirements...)
		out.Decomposition = &d
	}
	out.Results = make(map[models.Phase]string, len(exec.Results))
	for phase, res := range exec.Results {
		out.Results[phase] = res
	}
	return out
}
