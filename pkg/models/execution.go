package models

import "time"

// ExecutionStatus represents the current state of a pipeline execution.
type ExecutionStatus string

const (
	// ExecutionPending indicates the execution has been created but not started.
	ExecutionPending ExecutionStatus = "pending"
	// ExecutionInProgress indicates the pipeline is running.
	ExecutionInProgress ExecutionStatus = "in_progress"
	// ExecutionCompleted indicates the pipeline finished successfully.
	ExecutionCompleted ExecutionStatus = "completed"
	// ExecutionFailed indicates the pipeline failed after all retries.
	ExecutionFailed ExecutionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionPending, ExecutionInProgress, ExecutionCompleted, ExecutionFailed:
		return true
	default:
		return false
	}
}

// Subtask is a unit of work handed to a single agent.
type Subtask struct {
	// ID is the unique identifier for this subtask.
	ID string `json:"id"`
	// Title is the short description of the subtask.
	Title string `json:"title"`
	// Description provides detailed instructions for the agent.
	Description string `json:"description,omitempty"`
}

// SubtaskResult is the outcome of one agent execution of a subtask.
type SubtaskResult struct {
	// SubtaskID identifies the subtask this result belongs to.
	SubtaskID string `json:"subtask_id"`
	// Output is the agent-produced artifact text.
	Output string `json:"output"`
	// Duration is how long the agent took.
	Duration time.Duration `json:"duration"`
}

// Decomposition is the output of the task decomposer: a research plan
// plus the requirement set the specification must satisfy.
// It is set once per execution attempt and immutable after.
type Decomposition struct {
	// Research lists the research subtasks to hand to the research agent.
	Research []Subtask `json:"research"`
	// Requirements lists the requirements derived from the task.
	Requirements []string `json:"requirements"`
}

// Execution is one end-to-end pipeline run for one task.
// It is owned exclusively by the orchestrator and mutated only by its
// phase handlers and the retry controller.
type Execution struct {
	// ID is unique per run, generated at start.
	ID string `json:"id"`
	// Task is the caller-supplied task description.
	Task string `json:"task"`
	// Decomposition is the decomposer output for the current attempt.
	Decomposition *Decomposition `json:"decomposition,omitempty"`
	// Status is the current execution status.
	Status ExecutionStatus `json:"status"`
	// StartTime is when the execution was created.
	StartTime time.Time `json:"start_time"`
	// Results maps phase name to that phase's output artifact.
	Results map[Phase]string `json:"results,omitempty"`
	// Retries is the number of whole-pipeline retries attempted so far.
	Retries int `json:"retries,omitempty"`
	// Error is the last failure cause, set only when Status is failed.
	Error string `json:"error,omitempty"`
}
