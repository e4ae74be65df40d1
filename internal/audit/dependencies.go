package audit

import (
	"context"

	"github.com/temirov/devaudit/internal/commitdiff"
	"github.com/temirov/devaudit/internal/pullrequests"
	"github.com/temirov/devaudit/internal/results"
	"github.com/temirov/devaudit/internal/workitems"
)

// WorkItemSetResolver walks the configured work item hierarchy.
type WorkItemSetResolver interface {
	ResolveAuditSet(executionContext context.Context, selection workitems.Selection) ([]int, error)
	PullRequestReferences(executionContext context.Context, workItemID int) ([]workitems.PullRequestReference, error)
}

// PullRequestCollector fetches and extracts linked pull requests.
type PullRequestCollector interface {
	Collect(executionContext context.Context, references []pullrequests.Reference) pullrequests.CollectionResult
}

// DiffAnalyzer computes classified line statistics between two commits.
type DiffAnalyzer interface {
	Compare(executionContext context.Context, request commitdiff.ComparisonRequest) (commitdiff.Statistics, error)
}

// ResultsArchiver persists the documents an audit run produces.
type ResultsArchiver interface {
	Store(artifacts results.RunArtifacts) (results.StoredPaths, error)
}
