package pullrequests

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/devops"
)

const (
	abandonedStatusValueConstant       = "abandoned"
	refsHeadsPrefixConstant            = "refs/heads/"
	fetcherMissingMessageConstant      = "pull request fetcher must be provided"
	pullRequestFetchFailedMessage      = "pull request fetch failed"
	abandonedPullRequestSkippedMessage = "abandoned pull request skipped"
	logFieldWorkItemIdentifierConstant = "work_item_id"
	logFieldPullRequestIdentifierConst = "pull_request_id"
	logFieldProjectConstant            = "project"
)

// Reference identifies a pull request linked to an audited work item.
type Reference struct {
	WorkItemID    int
	PullRequestID int
	Project       string
}

// Record captures the audit-relevant fields extracted from a pull request.
type Record struct {
	Repository   string   `json:"repository"`
	TargetBranch string   `json:"target_branch"`
	CreatedDate  string   `json:"created_date"`
	CommitID     string   `json:"commit_id"`
	Reviewers    []string `json:"reviewers"`
	Status       string   `json:"status"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
}

// Detail pairs a work item with the full pull request payload for archival.
type Detail struct {
	WorkItemID  int                `json:"work_item_id"`
	PullRequest devops.PullRequest `json:"pull_request"`
}

// CollectionResult aggregates the outcome of a collection pass.
type CollectionResult struct {
	Records []Record
	Details []Detail
}

// Collector fetches linked pull requests and extracts audit records.
type Collector struct {
	fetcher PullRequestFetcher
	logger  *zap.Logger
}

// NewCollector validates dependencies and constructs a Collector.
func NewCollector(fetcher PullRequestFetcher, logger *zap.Logger) (*Collector, error) {
	if fetcher == nil {
		return nil, errors.New(fetcherMissingMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &Collector{fetcher: fetcher, logger: resolvedLogger}, nil
}

// Collect fetches every referenced pull request, dropping abandoned ones.
// Individual fetch failures are logged and skipped so one missing pull
// request cannot abort the audit pass.
func (collector *Collector) Collect(executionContext context.Context, references []Reference) CollectionResult {
	result := CollectionResult{
		Records: make([]Record, 0, len(references)),
		Details: make([]Detail, 0, len(references)),
	}

	for _, reference := range references {
		pullRequest, fetchError := collector.fetcher.GetPullRequest(executionContext, reference.Project, reference.PullRequestID)
		if fetchError != nil {
			collector.logger.Warn(
				pullRequestFetchFailedMessage,
				zap.Int(logFieldWorkItemIdentifierConstant, reference.WorkItemID),
				zap.Int(logFieldPullRequestIdentifierConst, reference.PullRequestID),
				zap.String(logFieldProjectConstant, reference.Project),
				zap.Error(fetchError),
			)
			continue
		}

		record, recordAvailable := Extract(pullRequest)
		if !recordAvailable {
			collector.logger.Debug(
				abandonedPullRequestSkippedMessage,
				zap.Int(logFieldWorkItemIdentifierConstant, reference.WorkItemID),
				zap.Int(logFieldPullRequestIdentifierConst, reference.PullRequestID),
			)
			continue
		}

		result.Records = append(result.Records, record)
		result.Details = append(result.Details, Detail{WorkItemID: reference.WorkItemID, PullRequest: pullRequest})
	}

	return result
}

// Extract converts a pull request payload into an audit record. Abandoned
// pull requests yield no record.
func Extract(pullRequest devops.PullRequest) (Record, bool) {
	if strings.EqualFold(strings.TrimSpace(pullRequest.Status), abandonedStatusValueConstant) {
		return Record{}, false
	}

	reviewerNames := make([]string, 0, len(pullRequest.Reviewers))
	for _, reviewer := range pullRequest.Reviewers {
		reviewerNames = append(reviewerNames, reviewer.DisplayName)
	}
	sort.Strings(reviewerNames)

	record := Record{
		Repository:   pullRequest.Repository.Name,
		TargetBranch: strings.TrimPrefix(pullRequest.TargetRefName, refsHeadsPrefixConstant),
		CreatedDate:  pullRequest.CreationDate,
		CommitID:     pullRequest.LastMergeSourceCommit.CommitID,
		Reviewers:    reviewerNames,
		Status:       pullRequest.Status,
		Title:        pullRequest.Title,
		URL:          pullRequest.URL,
	}

	return record, true
}
