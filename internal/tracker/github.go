// Package tracker implements the escalation adapter: a GitHub issue
// client plus a webhook notifier, composed into an Escalator the
// orchestrator invokes when automated recovery is exhausted.
package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// IssueClient creates escalation issues in a GitHub repository.
type IssueClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewIssueClient creates an IssueClient for the "owner/name" repo
// using the given API token.
func NewIssueClient(repo, token string) (*IssueClient, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", repo)
	}
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &IssueClient{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   name,
	}, nil
}

// CreateIssue opens an issue with the given title, body, assignees,
// and labels, returning its HTML URL.
func (c *IssueClient) CreateIssue(ctx context.Context, title, body string, assignees, labels []string) (string, error) {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if len(assignees) > 0 {
		req.Assignees = &assignees
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := c.client.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return "", fmt.Errorf("create issue in %s/%s: %w", c.owner, c.repo, err)
	}
	return issue.GetHTMLURL(), nil
}
