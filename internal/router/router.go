// Package router delivers agent events over a single buffered channel
// and dispatches them to registered agents, the metrics recorder, and
// any downstream observer.
package router

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stagehand-dev/stagehand/internal/agent"
	"github.com/stagehand-dev/stagehand/pkg/models"
)

// restartTimeout bounds how long an automated recovery may take.
const restartTimeout = 30 * time.Second

// MetricsRecorder receives per-agent completion records.
// The orchestrator's metrics collector satisfies it.
type MetricsRecorder interface {
	RecordAgentComplete(role models.Role, duration time.Duration)
}

// Router is the channel-based message router between agents.
// Events published by agents are queued and handled by a single
// dispatch goroutine, so handlers never run concurrently with each
// other. After handling, every event is forwarded to the observer
// channel for subscribers such as the CLI.
type Router struct {
	mu     sync.RWMutex
	agents map[models.Role]agent.Agent

	queue     chan models.AgentEvent
	observers chan models.AgentEvent
	metrics   MetricsRecorder

	autoRecovery atomic.Bool
	dropped      atomic.Uint64

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Router with the given queue buffer size.
// metrics may be nil, in which case completion events are only forwarded.
func New(bufferSize int, metrics MetricsRecorder) *Router {
	if bufferSize < 1 {
		bufferSize = 1
	}
	r := &Router{
		agents:    make(map[models.Role]agent.Agent),
		queue:     make(chan models.AgentEvent, bufferSize),
		observers: make(chan models.AgentEvent, bufferSize),
		metrics:   metrics,
		done:      make(chan struct{}),
	}
	go r.dispatch()
	return r
}

// Register adds an agent as a delivery target for its role.
// Registering a role twice replaces the previous agent.
func (r *Router) Register(a agent.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Role()] = a
}

// SetAutoRecovery toggles automated restart of agents that report errors.
func (r *Router) SetAutoRecovery(enabled bool) {
	r.autoRecovery.Store(enabled)
}

// Publish queues an event for dispatch. Events published after Close,
// or while the queue is full, are dropped and counted.
func (r *Router) Publish(ev models.AgentEvent) {
	if r.closed.Load() {
		r.dropped.Add(1)
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case r.queue <- ev:
	default:
		count := r.dropped.Add(1)
		if count%10 == 1 {
			log.Printf("[router] WARNING: queue full, dropped event (total dropped: %d): kind=%s from=%s", count, ev.Kind, ev.From)
		}
	}
}

// Events returns the observer stream. Every handled event is forwarded
// here; slow observers cause forwarded events to be dropped, never the
// dispatch loop to stall.
func (r *Router) Events() <-chan models.AgentEvent {
	return r.observers
}

// Dropped returns the number of events dropped so far, whether from a
// full queue, a missing delivery target, or publishing after Close.
func (r *Router) Dropped() uint64 {
	return r.dropped.Load()
}

// Close stops accepting new events, drains the queue, and closes the
// observer channel. It blocks until the dispatch loop has finished.
func (r *Router) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.queue)
	})
	<-r.done
}

func (r *Router) dispatch() {
	for ev := range r.queue {
		r.handle(ev)
		select {
		case r.observers <- ev:
		default:
			r.dropped.Add(1)
		}
		if ev.Kind == models.EventError {
			if restart := r.recover(ev.From); restart != nil {
				select {
				case r.observers <- *restart:
				default:
					r.dropped.Add(1)
				}
			}
		}
	}
	close(r.observers)
	close(r.done)
}

func (r *Router) handle(ev models.AgentEvent) {
	switch ev.Kind {
	case models.EventMessage:
		r.deliver(ev.Message)
	case models.EventError:
		log.Printf("[router] agent %s reported error: %v", ev.From, ev.Err)
	case models.EventComplete:
		if r.metrics != nil {
			r.metrics.RecordAgentComplete(ev.From, ev.Duration)
		}
	case models.EventRestart:
		// Forwarded to observers only.
	}
}

// deliver routes a message to its targets. Broadcast messages go to
// every registered agent except the sender; targeted messages go to
// the named role. Messages with no reachable target are dropped.
func (r *Router) deliver(msg *models.Message) {
	if msg == nil {
		r.dropped.Add(1)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if msg.Broadcast {
		for role, a := range r.agents {
			if role == msg.From {
				continue
			}
			a.ReceiveMessage(*msg)
		}
		return
	}
	a, ok := r.agents[msg.Target]
	if !ok {
		r.dropped.Add(1)
		log.Printf("[router] dropped message from %s: no agent registered for target %q", msg.From, msg.Target)
		return
	}
	a.ReceiveMessage(*msg)
}

// recover restarts the reporting agent when auto-recovery is enabled.
// The outcome is returned as a restart event; restart failures are
// never propagated as errors.
func (r *Router) recover(role models.Role) *models.AgentEvent {
	if !r.autoRecovery.Load() {
		return nil
	}
	r.mu.RLock()
	a, ok := r.agents[role]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), restartTimeout)
	defer cancel()

	err := a.Restart(ctx)
	if err != nil {
		log.Printf("[router] restart of agent %s failed: %v", role, err)
	} else {
		log.Printf("[router] restarted agent %s after error", role)
	}
	return &models.AgentEvent{
		Kind:      models.EventRestart,
		From:      role,
		Err:       err,
		Timestamp: time.Now(),
	}
}
