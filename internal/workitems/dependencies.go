package workitems

import (
	"context"

	"github.com/temirov/devaudit/internal/devops"
)

// WorkItemReader exposes the subset of the tracking service consumed by the
// resolver.
type WorkItemReader interface {
	GetWorkItem(executionContext context.Context, workItemID int) (devops.WorkItem, error)
}
