package tracker

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// Escalator composes the issue client and the webhook notifier.
// Either half may be absent; escalation uses whatever is configured.
// Failures of either call are logged and contained, never returned to
// the pipeline.
type Escalator struct {
	issues    *IssueClient
	webhook   *WebhookNotifier
	assignees []string
	labels    []string
}

// NewEscalator builds an Escalator from the tracker configuration.
// A missing repo or webhook URL disables that half. Returns nil when
// neither is configured.
func NewEscalator(cfg config.TrackerConfig) (*Escalator, error) {
	e := &Escalator{
		assignees: cfg.Assignees,
		labels:    cfg.Labels,
	}
	if cfg.Repo != "" {
		issues, err := NewIssueClient(cfg.Repo, cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("configure issue client: %w", err)
		}
		e.issues = issues
	}
	if cfg.WebhookURL != "" {
		e.webhook = NewWebhookNotifier(cfg.WebhookURL)
	}
	if e.issues == nil && e.webhook == nil {
		return nil, nil
	}
	return e, nil
}

// Escalate files an issue and posts a webhook for the given reason.
func (e *Escalator) Escalate(ctx context.Context, reason string, details map[string]any) {
	if e.issues != nil {
		body := formatIssueBody(reason, details)
		url, err := e.issues.CreateIssue(ctx, reason, body, e.assignees, e.labels)
		if err != nil {
			log.Printf("[tracker] escalation issue failed: %v", err)
		} else {
			log.Printf("[tracker] escalation issue created: %s", url)
		}
	}
	if e.webhook != nil {
		if err := e.webhook.SendWebhook(ctx, reason, details); err != nil {
			log.Printf("[tracker] escalation webhook failed: %v", err)
		}
	}
}

// CreateIssue exposes the issue client for artifact pushes.
func (e *Escalator) CreateIssue(ctx context.Context, title, body string, assignees, labels []string) (string, error) {
	if e.issues == nil {
		return "", fmt.Errorf("no issue tracker configured")
	}
	return e.issues.CreateIssue(ctx, title, body, assignees, labels)
}

// SendWebhook exposes the webhook notifier for out-of-band
// notifications.
func (e *Escalator) SendWebhook(ctx context.Context, reason string, details any) error {
	if e.webhook == nil {
		return fmt.Errorf("no webhook configured")
	}
	return e.webhook.SendWebhook(ctx, reason, details)
}

// formatIssueBody renders the escalation details as a markdown issue
// body with deterministic field order.
func formatIssueBody(reason string, details map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", reason)
	fmt.Fprintf(&b, "Escalated at %s.\n\n", time.Now().UTC().Format(time.RFC3339))

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- **%s**: %v\n", k, details[k])
	}
	return b.String()
}
