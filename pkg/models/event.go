package models

import "time"

// EventKind is the type of event an agent emits to the router.
type EventKind string

const (
	// EventMessage carries an application payload between agents.
	EventMessage EventKind = "message"
	// EventError reports an agent-local failure outside any call's return value.
	EventError EventKind = "error"
	// EventComplete reports phase-local completion with timing.
	EventComplete EventKind = "complete"
	// EventRestart reports the outcome of an automated agent restart.
	EventRestart EventKind = "restart"
)

// Message is an application payload routed between agents.
type Message struct {
	// From is the sending agent's role.
	From Role `json:"from"`
	// Target is the receiving role for targeted delivery.
	// Ignored when Broadcast is set.
	Target Role `json:"target,omitempty"`
	// Broadcast delivers the message to every agent except the sender.
	Broadcast bool `json:"broadcast,omitempty"`
	// Payload is the message body.
	Payload string `json:"payload"`
}

// AgentEvent is one event on the router's queue.
type AgentEvent struct {
	// Kind is the event type.
	Kind EventKind
	// From is the emitting agent's role.
	From Role
	// Message is the payload for EventMessage events.
	Message *Message
	// Err is the failure for EventError events, or the restart failure
	// for EventRestart events.
	Err error
	// Duration is the work duration for EventComplete events.
	Duration time.Duration
	// Timestamp is when the event was emitted.
	Timestamp time.Time
}
