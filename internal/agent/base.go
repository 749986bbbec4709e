package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// maxInboxMessages bounds how many routed messages an agent retains.
const maxInboxMessages = 32

// baseAgent carries the state and bookkeeping shared by every role
// agent: runner access, event emission, metrics, and lifecycle flags.
type baseAgent struct {
	role   models.Role
	runner Runner
	emit   Emitter

	mu       sync.Mutex
	inflight int
	restarts int
	lastErr  string
	stopped  bool

	completed int64
	totalTime time.Duration

	inbox []models.Message
}

func newBase(role models.Role, runner Runner, emit Emitter) baseAgent {
	return baseAgent{role: role, runner: runner, emit: emit}
}

// Role returns the agent's pipeline role.
func (b *baseAgent) Role() models.Role {
	return b.role
}

// ReceiveMessage stores a routed message in the agent's bounded inbox.
func (b *baseAgent) ReceiveMessage(msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbox = append(b.inbox, msg)
	if len(b.inbox) > maxInboxMessages {
		b.inbox = b.inbox[len(b.inbox)-maxInboxMessages:]
	}
}

// Inbox returns a copy of the retained routed messages.
func (b *baseAgent) Inbox() []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Message, len(b.inbox))
	copy(out, b.inbox)
	return out
}

// Restart recovers the agent after an out-of-band error.
func (b *baseAgent) Restart(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return fmt.Errorf("agent %s is shut down", b.role)
	}
	b.restarts++
	b.lastErr = ""
	return nil
}

// Shutdown marks the agent stopped. Idempotent.
func (b *baseAgent) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	return nil
}

// Metrics returns the agent's utilization counters.
func (b *baseAgent) Metrics() models.AgentMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.AgentMetrics{
		TasksCompleted: b.completed,
		TotalTime:      b.totalTime,
	}
}

// Status returns a point-in-time status snapshot.
func (b *baseAgent) Status() models.AgentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	state := models.AgentIdle
	switch {
	case b.stopped:
		state = models.AgentStopped
	case b.inflight > 0:
		state = models.AgentRunning
	}
	return models.AgentStatus{
		Role:      b.role,
		State:     state,
		Restarts:  b.restarts,
		LastError: b.lastErr,
	}
}

// invoke runs one prompt through the runner, recording utilization and
// emitting a complete event on success. Call-level failures are returned
// to the caller; they are not error events.
func (b *baseAgent) invoke(ctx context.Context, prompt string) (string, time.Duration, error) {
	return b.invokeWithSystem(ctx, "", prompt)
}

func (b *baseAgent) invokeWithSystem(ctx context.Context, system, prompt string) (string, time.Duration, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return "", 0, fmt.Errorf("agent %s is shut down", b.role)
	}
	b.inflight++
	b.mu.Unlock()

	start := time.Now()
	var out string
	var err error
	if system == "" {
		out, err = b.runner.Run(ctx, prompt)
	} else {
		out, err = b.runner.RunWithSystem(ctx, system, prompt)
	}
	elapsed := time.Since(start)

	b.mu.Lock()
	b.inflight--
	if err == nil {
		b.completed++
		b.totalTime += elapsed
	}
	b.mu.Unlock()

	if err != nil {
		return "", elapsed, err
	}

	if b.emit != nil {
		b.emit(models.AgentEvent{
			Kind:      models.EventComplete,
			From:      b.role,
			Duration:  elapsed,
			Timestamp: time.Now(),
		})
	}
	return out, elapsed, nil
}

// ReportError emits an out-of-band error event for this agent and
// records it in the status snapshot.
func (b *baseAgent) ReportError(err error) {
	b.mu.Lock()
	b.lastErr = err.Error()
	b.mu.Unlock()

	if b.emit != nil {
		b.emit(models.AgentEvent{
			Kind:      models.EventError,
			From:      b.role,
			Err:       err,
			Timestamp: time.Now(),
		})
	}
}

// parseJSON extracts the first JSON value from a model response and
// unmarshals it into target. Model responses often wrap JSON in prose
// or code fences.
func parseJSON(response string, target any) error {
	jsonStart := strings.Index(response, "{")
	arrStart := strings.Index(response, "[")
	if jsonStart == -1 || (arrStart != -1 && arrStart < jsonStart) {
		jsonStart = arrStart
	}
	jsonEnd := strings.LastIndex(response, "}")
	arrEnd := strings.LastIndex(response, "]")
	if jsonEnd == -1 || arrEnd > jsonEnd {
		jsonEnd = arrEnd
	}

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return fmt.Errorf("no valid JSON found in response: %s", truncate(response, 200))
	}

	jsonStr := response[jsonStart : jsonEnd+1]
	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("parse JSON: %w (response: %s)", err, truncate(jsonStr, 200))
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
