package models

import "time"

// Role identifies one of the fixed worker roles in the pipeline.
type Role string

const (
	// RoleResearch gathers background information for a task.
	RoleResearch Role = "research"
	// RoleSpec turns research and requirements into a specification.
	RoleSpec Role = "spec"
	// RoleDev implements the specification.
	RoleDev Role = "dev"
	// RoleQA builds and runs the test suite.
	RoleQA Role = "qa"
	// RoleIntegration assembles documentation and deployment artifacts.
	RoleIntegration Role = "integration"
)

// AllRoles lists every pipeline role in phase order.
var AllRoles = []Role{RoleResearch, RoleSpec, RoleDev, RoleQA, RoleIntegration}

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleResearch, RoleSpec, RoleDev, RoleQA, RoleIntegration:
		return true
	default:
		return false
	}
}

// AgentState represents the lifecycle state of an agent.
type AgentState string

const (
	// AgentIdle indicates the agent is up and not executing work.
	AgentIdle AgentState = "idle"
	// AgentRunning indicates the agent is executing at least one subtask.
	AgentRunning AgentState = "running"
	// AgentStopped indicates the agent has been shut down.
	AgentStopped AgentState = "stopped"
)

// AgentStatus is a point-in-time snapshot of an agent's state.
type AgentStatus struct {
	// Role is the agent's pipeline role.
	Role Role `json:"role"`
	// State is the current lifecycle state.
	State AgentState `json:"state"`
	// Restarts is the number of times the agent has been restarted.
	Restarts int `json:"restarts"`
	// LastError is the most recent out-of-band error, if any.
	LastError string `json:"last_error,omitempty"`
}

// AgentMetrics holds per-agent utilization counters.
type AgentMetrics struct {
	// TasksCompleted is the number of completed subtasks.
	TasksCompleted int64 `json:"tasks_completed"`
	// TotalTime is the accumulated execution time across subtasks.
	TotalTime time.Duration `json:"total_time"`
}
