package models

import "time"

// SpecInput is everything the spec agent needs to generate a specification.
type SpecInput struct {
	// Research is the consolidated research output.
	Research string `json:"research"`
	// Requirements is the requirement set from decomposition.
	Requirements []string `json:"requirements"`
	// ComplianceTags are regulatory or policy tags the spec must address.
	ComplianceTags []string `json:"compliance_tags,omitempty"`
	// Domain is the problem domain of the task.
	Domain string `json:"domain,omitempty"`
}

// Validation is the spec agent's verdict on a generated specification.
type Validation struct {
	// Valid indicates whether the specification passed validation.
	Valid bool `json:"valid"`
	// Errors lists validation failures when Valid is false.
	Errors []string `json:"errors,omitempty"`
}

// TestFailure describes one failing test from a suite run.
type TestFailure struct {
	// Name is the test identifier.
	Name string `json:"name"`
	// Message is the failure output.
	Message string `json:"message,omitempty"`
}

// TestResults is the outcome of running a test suite.
type TestResults struct {
	// Total is the number of tests executed.
	Total int `json:"total"`
	// Passed is the number of passing tests.
	Passed int `json:"passed"`
	// Failed lists the failing tests.
	Failed []TestFailure `json:"failed,omitempty"`
	// Coverage is the measured coverage fraction (0..1).
	Coverage float64 `json:"coverage"`
}

// HasFailures returns true if any test in the run failed.
func (r TestResults) HasFailures() bool {
	return len(r.Failed) > 0
}

// FixResult is the dev agent's outcome after attempting to fix failing tests.
type FixResult struct {
	// Success indicates the agent believes the failures are addressed.
	Success bool `json:"success"`
	// Code is the updated implementation artifact.
	Code string `json:"code,omitempty"`
}

// SuiteRun is the input to a QA suite execution.
type SuiteRun struct {
	// Code is the integrated implementation under test.
	Code string `json:"code"`
	// TestSuite is the prepared suite to run.
	TestSuite string `json:"test_suite"`
	// CoverageTarget is the configured coverage goal (0..1).
	CoverageTarget float64 `json:"coverage_target"`
}

// Artifacts bundles the outputs handed to the integration agent.
type Artifacts struct {
	// Task is the original task description.
	Task string `json:"task"`
	// Spec is the validated specification.
	Spec string `json:"spec"`
	// Code is the integrated implementation.
	Code string `json:"code"`
	// TestSuite is the prepared test suite.
	TestSuite string `json:"test_suite"`
	// Tests is the final test run outcome.
	Tests TestResults `json:"tests"`
}

// IntegrationOutput is what the integration agent produces from the artifacts.
type IntegrationOutput struct {
	// Documentation is the generated documentation artifact.
	Documentation string `json:"documentation"`
	// Deployment is the generated deployment artifact.
	Deployment string `json:"deployment"`
}

// MetricsSnapshot is a point-in-time copy of the process-wide metrics.
type MetricsSnapshot struct {
	// TasksCompleted counts successfully completed executions.
	TasksCompleted int64 `json:"tasks_completed"`
	// TasksFailed counts executions that failed after all retries.
	TasksFailed int64 `json:"tasks_failed"`
	// TotalExecutionTime is the accumulated wall-clock time of all executions.
	TotalExecutionTime time.Duration `json:"total_execution_time"`
	// Agents holds per-role utilization counters.
	Agents map[Role]AgentMetrics `json:"agents"`
	// Taken is when the snapshot was collected.
	Taken time.Time `json:"taken"`
}

// Result is the caller-visible outcome of one successful execution.
type Result struct {
	// ExecutionID identifies the pipeline run that produced this result.
	ExecutionID string `json:"execution_id"`
	// Task is the original task description.
	Task string `json:"task"`
	// Spec is the validated specification.
	Spec string `json:"spec"`
	// Code is the integrated implementation.
	Code string `json:"code"`
	// Tests is the final test run outcome, including escalated failures.
	Tests TestResults `json:"tests"`
	// Documentation is the integration agent's documentation artifact.
	Documentation string `json:"documentation"`
	// Deployment is the integration agent's deployment artifact.
	Deployment string `json:"deployment"`
	// Metrics is the metrics snapshot collected when the run finished.
	Metrics MetricsSnapshot `json:"metrics"`
}
