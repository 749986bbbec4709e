package orchestrator

import (
	"context"
	"log"
)

// Escalator notifies a human-facing system when automated recovery is
// exhausted. internal/tracker provides the GitHub-plus-webhook
// implementation. Escalation failures are the adapter's problem to
// log; Escalate never reports one.
type Escalator interface {
	Escalate(ctx context.Context, reason string, details map[string]any)
}

// escalate routes an escalation to the configured adapter, or logs it
// when no adapter is set.
func (o *Orchestrator) escalate(ctx context.Context, reason string, details map[string]any) {
	log.Printf("[orchestrator] escalating: %s", reason)
	if o.escalator == nil {
		return
	}
	o.escalator.Escalate(ctx, reason, details)
}
