package pullrequests

import (
	"context"

	"github.com/temirov/devaudit/internal/devops"
)

// PullRequestFetcher exposes the subset of the tracking service consumed by
// the collector.
type PullRequestFetcher interface {
	GetPullRequest(executionContext context.Context, project string, pullRequestID int) (devops.PullRequest, error)
}
