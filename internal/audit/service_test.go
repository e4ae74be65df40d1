package audit_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/audit"
	"github.com/temirov/devaudit/internal/commitdiff"
	"github.com/temirov/devaudit/internal/profile"
	"github.com/temirov/devaudit/internal/pullrequests"
	"github.com/temirov/devaudit/internal/results"
	"github.com/temirov/devaudit/internal/workitems"
)

func testCaseName(testCaseIndex int, testCaseLabel string) string {
	return fmt.Sprintf("%d_%s", testCaseIndex, testCaseLabel)
}

type stubWorkItemResolver struct {
	auditSet        []int
	resolveError    error
	references      map[int][]workitems.PullRequestReference
	referenceErrors map[int]error
}

func (resolver *stubWorkItemResolver) ResolveAuditSet(executionContext context.Context, selection workitems.Selection) ([]int, error) {
	return resolver.auditSet, resolver.resolveError
}

func (resolver *stubWorkItemResolver) PullRequestReferences(executionContext context.Context, workItemID int) ([]workitems.PullRequestReference, error) {
	if referenceError, failed := resolver.referenceErrors[workItemID]; failed {
		return nil, referenceError
	}
	return resolver.references[workItemID], nil
}

type stubPullRequestCollector struct {
	result             pullrequests.CollectionResult
	receivedReferences []pullrequests.Reference
}

func (collector *stubPullRequestCollector) Collect(executionContext context.Context, references []pullrequests.Reference) pullrequests.CollectionResult {
	collector.receivedReferences = references
	return collector.result
}

type stubDiffAnalyzer struct {
	statistics       commitdiff.Statistics
	compareError     error
	receivedRequests []commitdiff.ComparisonRequest
}

func (analyzer *stubDiffAnalyzer) Compare(executionContext context.Context, request commitdiff.ComparisonRequest) (commitdiff.Statistics, error) {
	analyzer.receivedRequests = append(analyzer.receivedRequests, request)
	if analyzer.compareError != nil {
		return commitdiff.Statistics{}, analyzer.compareError
	}
	return analyzer.statistics, nil
}

type stubResultsArchiver struct {
	storedArtifacts results.RunArtifacts
	storeError      error
}

func (archiver *stubResultsArchiver) Store(artifacts results.RunArtifacts) (results.StoredPaths, error) {
	archiver.storedArtifacts = artifacts
	if archiver.storeError != nil {
		return results.StoredPaths{}, archiver.storeError
	}
	return results.StoredPaths{SummaryPath: "summary.json", DetailPath: "details.json"}, nil
}

type fixedAuditClock struct {
	instant time.Time
}

func (clock fixedAuditClock) Now() time.Time {
	return clock.instant
}

func auditTestDefinition() profile.Definition {
	return profile.Definition{
		Organization:     "contoso",
		Project:          "Platform",
		ParentFeatureIDs: profile.IdentifierList{10},
		ExcludedDirs:     []string{"/vendor/"},
	}
}

func auditTestCollection() pullrequests.CollectionResult {
	return pullrequests.CollectionResult{
		Records: []pullrequests.Record{
			{
				Repository:   "frontend",
				TargetBranch: "main",
				CreatedDate:  "2026-02-01T10:00:00Z",
				CommitID:     "aaa111",
				Reviewers:    []string{"Casey Doe"},
			},
			{
				Repository:   "frontend",
				TargetBranch: "main",
				CreatedDate:  "2026-02-05T10:00:00Z",
				CommitID:     "bbb222",
				Reviewers:    []string{"Jordan Roe"},
			},
			{
				Repository:   "backend",
				TargetBranch: "release/1.4",
				CreatedDate:  "2026-02-03T10:00:00Z",
				CommitID:     "ccc333",
				Reviewers:    []string{"Casey Doe"},
			},
		},
		Details: []pullrequests.Detail{{WorkItemID: 42}},
	}
}

func TestServiceRunProducesSortedReport(testInstance *testing.T) {
	resolver := &stubWorkItemResolver{
		auditSet: []int{42},
		references: map[int][]workitems.PullRequestReference{
			42: {
				{WorkItemID: 42, PullRequestID: 100, Project: "Platform"},
				{WorkItemID: 42, PullRequestID: 101},
			},
		},
	}
	collector := &stubPullRequestCollector{result: auditTestCollection()}
	archiver := &stubResultsArchiver{}
	outputBuffer := &bytes.Buffer{}

	service, serviceError := audit.NewService(zap.NewNop(), resolver, collector, nil, archiver, outputBuffer, fixedAuditClock{instant: time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)})
	require.NoError(testInstance, serviceError)

	runError := service.Run(context.Background(), audit.CommandOptions{}, auditTestDefinition())
	require.NoError(testInstance, runError)

	require.Len(testInstance, collector.receivedReferences, 2)
	require.Equal(testInstance, "Platform", collector.receivedReferences[0].Project)
	require.Equal(testInstance, "Platform", collector.receivedReferences[1].Project)

	outputLines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
	require.Len(testInstance, outputLines, 3)
	require.Equal(testInstance, "repository,branch,oldest_commit_date,oldest_commit_hash,newest_commit_date,newest_commit_hash,reviewers,lines_added,lines_deleted,lines_modified", outputLines[0])
	require.Equal(testInstance, "backend,release/1.4,2026-02-03T10:00:00Z,ccc333,2026-02-03T10:00:00Z,ccc333,1,n/a,n/a,n/a", outputLines[1])
	require.Equal(testInstance, "frontend,main,2026-02-01T10:00:00Z,aaa111,2026-02-05T10:00:00Z,bbb222,2,n/a,n/a,n/a", outputLines[2])

	require.NotEmpty(testInstance, archiver.storedArtifacts.Metadata.RunID)
	require.Equal(testInstance, "2026-02-10T12:00:00Z", archiver.storedArtifacts.Metadata.GeneratedAt)

	summaryDocument, documentShapeCorrect := archiver.storedArtifacts.Summary.(audit.SummaryDocument)
	require.True(testInstance, documentShapeCorrect)
	require.Equal(testInstance, "contoso", summaryDocument.Organization)
	require.Equal(testInstance, "Platform", summaryDocument.Project)
	require.Len(testInstance, summaryDocument.Repositories, 2)
	require.Nil(testInstance, summaryDocument.DiffStatistics)

	archivedDetails, detailShapeCorrect := archiver.storedArtifacts.Details.([]pullrequests.Detail)
	require.True(testInstance, detailShapeCorrect)
	require.Len(testInstance, archivedDetails, 1)
}

func TestServiceRunIncludesDiffStatistics(testInstance *testing.T) {
	resolver := &stubWorkItemResolver{auditSet: []int{42}, references: map[int][]workitems.PullRequestReference{42: {{WorkItemID: 42, PullRequestID: 100, Project: "Platform"}}}}
	collector := &stubPullRequestCollector{result: auditTestCollection()}
	analyzer := &stubDiffAnalyzer{statistics: commitdiff.Statistics{Added: 12, Deleted: 3, Modified: 15}}
	archiver := &stubResultsArchiver{}
	outputBuffer := &bytes.Buffer{}

	service, serviceError := audit.NewService(zap.NewNop(), resolver, collector, analyzer, archiver, outputBuffer, nil)
	require.NoError(testInstance, serviceError)

	runError := service.Run(context.Background(), audit.CommandOptions{IncludeDiffs: true}, auditTestDefinition())
	require.NoError(testInstance, runError)

	require.Len(testInstance, analyzer.receivedRequests, 2)
	frontendRequest := analyzer.receivedRequests[1]
	require.Equal(testInstance, "Platform", frontendRequest.Project)
	require.Equal(testInstance, "frontend", frontendRequest.Repository)
	require.Equal(testInstance, "aaa111", frontendRequest.BaseCommit)
	require.Equal(testInstance, "bbb222", frontendRequest.TargetCommit)
	require.Equal(testInstance, []string{"/vendor/"}, frontendRequest.ExcludedDirectories)

	outputLines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
	require.Equal(testInstance, "frontend,main,2026-02-01T10:00:00Z,aaa111,2026-02-05T10:00:00Z,bbb222,2,12,3,15", outputLines[2])

	summaryDocument := archiver.storedArtifacts.Summary.(audit.SummaryDocument)
	require.Len(testInstance, summaryDocument.DiffStatistics, 2)
	require.Equal(testInstance, 12, summaryDocument.DiffStatistics["frontend"]["main"].Added)
}

func TestServiceRunToleratesPartialFailures(testInstance *testing.T) {
	testCases := []struct {
		name     string
		resolver *stubWorkItemResolver
		analyzer *stubDiffAnalyzer
		options  audit.CommandOptions
	}{
		{
			name: "reference_lookup_failure_skips_work_item",
			resolver: &stubWorkItemResolver{
				auditSet:        []int{41, 42},
				references:      map[int][]workitems.PullRequestReference{42: {{WorkItemID: 42, PullRequestID: 100, Project: "Platform"}}},
				referenceErrors: map[int]error{41: errors.New("service unavailable")},
			},
			analyzer: &stubDiffAnalyzer{},
		},
		{
			name:     "diff_comparison_failure_reports_without_totals",
			resolver: &stubWorkItemResolver{auditSet: []int{42}, references: map[int][]workitems.PullRequestReference{42: {{WorkItemID: 42, PullRequestID: 100, Project: "Platform"}}}},
			analyzer: &stubDiffAnalyzer{compareError: errors.New("diff unavailable")},
			options:  audit.CommandOptions{IncludeDiffs: true},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(testCaseName(testCaseIndex, testCase.name), func(subTest *testing.T) {
			collector := &stubPullRequestCollector{result: auditTestCollection()}
			archiver := &stubResultsArchiver{}
			outputBuffer := &bytes.Buffer{}

			service, serviceError := audit.NewService(zap.NewNop(), testCase.resolver, collector, testCase.analyzer, archiver, outputBuffer, nil)
			require.NoError(subTest, serviceError)

			runError := service.Run(context.Background(), testCase.options, auditTestDefinition())
			require.NoError(subTest, runError)

			require.Len(subTest, collector.receivedReferences, 1)
			require.Contains(subTest, outputBuffer.String(), "n/a,n/a,n/a")
		})
	}
}

func TestServiceRunSummaryOnlyOmitsDetails(testInstance *testing.T) {
	resolver := &stubWorkItemResolver{auditSet: []int{42}, references: map[int][]workitems.PullRequestReference{42: {{WorkItemID: 42, PullRequestID: 100, Project: "Platform"}}}}
	collector := &stubPullRequestCollector{result: auditTestCollection()}
	archiver := &stubResultsArchiver{}

	service, serviceError := audit.NewService(zap.NewNop(), resolver, collector, nil, archiver, &bytes.Buffer{}, nil)
	require.NoError(testInstance, serviceError)

	runError := service.Run(context.Background(), audit.CommandOptions{SummaryOnly: true}, auditTestDefinition())
	require.NoError(testInstance, runError)
	require.Nil(testInstance, archiver.storedArtifacts.Details)
}

func TestServiceRunSurfacesFatalFailures(testInstance *testing.T) {
	testCases := []struct {
		name     string
		resolver *stubWorkItemResolver
		archiver *stubResultsArchiver
		options  audit.CommandOptions
	}{
		{
			name:     "audit_set_resolution_failure",
			resolver: &stubWorkItemResolver{resolveError: errors.New("traversal failed")},
			archiver: &stubResultsArchiver{},
		},
		{
			name:     "archive_failure",
			resolver: &stubWorkItemResolver{auditSet: []int{42}},
			archiver: &stubResultsArchiver{storeError: errors.New("disk full")},
		},
		{
			name:     "diffs_requested_without_analyzer",
			resolver: &stubWorkItemResolver{auditSet: []int{42}},
			archiver: &stubResultsArchiver{},
			options:  audit.CommandOptions{IncludeDiffs: true},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(testCaseName(testCaseIndex, testCase.name), func(subTest *testing.T) {
			service, serviceError := audit.NewService(zap.NewNop(), testCase.resolver, &stubPullRequestCollector{}, nil, testCase.archiver, &bytes.Buffer{}, nil)
			require.NoError(subTest, serviceError)

			runError := service.Run(context.Background(), testCase.options, auditTestDefinition())
			require.Error(subTest, runError)
		})
	}
}

func TestNewServiceValidatesCollaborators(testInstance *testing.T) {
	resolver := &stubWorkItemResolver{}
	collector := &stubPullRequestCollector{}
	archiver := &stubResultsArchiver{}
	outputBuffer := &bytes.Buffer{}

	_, missingResolverError := audit.NewService(zap.NewNop(), nil, collector, nil, archiver, outputBuffer, nil)
	require.Error(testInstance, missingResolverError)

	_, missingCollectorError := audit.NewService(zap.NewNop(), resolver, nil, nil, archiver, outputBuffer, nil)
	require.Error(testInstance, missingCollectorError)

	_, missingArchiverError := audit.NewService(zap.NewNop(), resolver, collector, nil, nil, outputBuffer, nil)
	require.Error(testInstance, missingArchiverError)

	_, missingWriterError := audit.NewService(zap.NewNop(), resolver, collector, nil, archiver, nil, nil)
	require.Error(testInstance, missingWriterError)
}
