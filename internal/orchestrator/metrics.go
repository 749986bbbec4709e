package orchestrator

import (
	"sync"
	"time"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// Metrics holds the process-wide execution counters. All updates go
// through the mutex; there is no cross-field transactional guarantee
// and none is needed.
type Metrics struct {
	mu sync.Mutex

	tasksCompleted     int64
	tasksFailed        int64
	totalExecutionTime time.Duration
	agents             map[models.Role]models.AgentMetrics
}

// NewMetrics creates an empty Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		agents: make(map[models.Role]models.AgentMetrics),
	}
}

// RecordExecution records the outcome of one whole pipeline execution.
func (m *Metrics) RecordExecution(success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.tasksCompleted++
	} else {
		m.tasksFailed++
	}
	m.totalExecutionTime += duration
}

// RecordAgentComplete records one agent completion event.
// The router calls this for every complete event it handles.
func (m *Metrics) RecordAgentComplete(role models.Role, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	am := m.agents[role]
	am.TasksCompleted++
	am.TotalTime += duration
	m.agents[role] = am
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() models.MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents := make(map[models.Role]models.AgentMetrics, len(m.agents))
	for role, am := range m.agents {
		agents[role] = am
	}
	return models.MetricsSnapshot{
		TasksCompleted:     m.tasksCompleted,
		TasksFailed:        m.tasksFailed,
		TotalExecutionTime: m.totalExecutionTime,
		Agents:             agents,
		Taken:              time.Now(),
	}
}
