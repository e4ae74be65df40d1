package audit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/commitdiff"
	"github.com/temirov/devaudit/internal/profile"
	"github.com/temirov/devaudit/internal/pullrequests"
	"github.com/temirov/devaudit/internal/results"
	"github.com/temirov/devaudit/internal/workitems"
)

// Service coordinates work item traversal, pull request aggregation, and
// result reporting.
type Service struct {
	logger               *zap.Logger
	workItemResolver     WorkItemSetResolver
	pullRequestCollector PullRequestCollector
	diffAnalyzer         DiffAnalyzer
	resultsArchiver      ResultsArchiver
	outputWriter         io.Writer
	clock                Clock
}

// NewService validates the collaborators and constructs a Service. The diff
// analyzer may be nil when line statistics are never requested.
func NewService(logger *zap.Logger, workItemResolver WorkItemSetResolver, pullRequestCollector PullRequestCollector, diffAnalyzer DiffAnalyzer, resultsArchiver ResultsArchiver, outputWriter io.Writer, clock Clock) (*Service, error) {
	if workItemResolver == nil {
		return nil, errors.New(resolverMissingMessageConstant)
	}
	if pullRequestCollector == nil {
		return nil, errors.New(collectorMissingMessageConstant)
	}
	if resultsArchiver == nil {
		return nil, errors.New(archiverMissingMessageConstant)
	}
	if outputWriter == nil {
		return nil, errors.New(outputWriterMissingMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}
	resolvedClock := clock
	if resolvedClock == nil {
		resolvedClock = SystemClock{}
	}

	return &Service{
		logger:               resolvedLogger,
		workItemResolver:     workItemResolver,
		pullRequestCollector: pullRequestCollector,
		diffAnalyzer:         diffAnalyzer,
		resultsArchiver:      resultsArchiver,
		outputWriter:         outputWriter,
		clock:                resolvedClock,
	}, nil
}

// Run executes one audit pass over the profile's selection: it resolves the
// audit work item set, collects the linked pull requests, streams the CSV
// report, and archives the JSON results.
func (service *Service) Run(executionContext context.Context, options CommandOptions, definition profile.Definition) error {
	if options.IncludeDiffs && service.diffAnalyzer == nil {
		return errors.New(diffAnalyzerMissingMessageConstant)
	}

	runIdentifier := uuid.NewString()
	runLogger := service.logger.With(
		zap.String(logFieldRunIdentifierConstant, runIdentifier),
		zap.String(logFieldOrganizationConstant, definition.Organization),
		zap.String(logFieldProjectConstant, definition.Project),
	)
	runLogger.Info(runStartedMessageConstant)

	selection := workitems.Selection{
		ParentFeatureIDs: definition.ParentFeatureIDs,
		BacklogIDs:       definition.BacklogIDs,
		IgnoreIDs:        definition.IgnoreIDs,
		OnlyCompleted:    definition.OnlyCompleted,
	}

	auditIdentifiers, resolutionError := service.workItemResolver.ResolveAuditSet(executionContext, selection)
	if resolutionError != nil {
		return fmt.Errorf(auditSetResolutionErrorTemplate, resolutionError)
	}

	references := service.collectReferences(executionContext, runLogger, auditIdentifiers, definition.Project)
	collection := service.pullRequestCollector.Collect(executionContext, references)

	summaries, summaryError := pullrequests.Summarize(collection.Records)
	if summaryError != nil {
		return fmt.Errorf(summaryConstructionErrorTemplate, summaryError)
	}

	reportRows, diffStatistics := service.buildReportRows(executionContext, runLogger, summaries, definition, options)

	if reportError := service.writeReport(reportRows); reportError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, reportError)
	}

	return service.archiveResults(runLogger, runIdentifier, definition, summaries, diffStatistics, collection, options)
}

func (service *Service) collectReferences(executionContext context.Context, runLogger *zap.Logger, auditIdentifiers []int, fallbackProject string) []pullrequests.Reference {
	var references []pullrequests.Reference
	for _, workItemID := range auditIdentifiers {
		itemReferences, referencesError := service.workItemResolver.PullRequestReferences(executionContext, workItemID)
		if referencesError != nil {
			runLogger.Warn(
				referencesSkippedMessageConstant,
				zap.Int(logFieldWorkItemIdentifierConstant, workItemID),
				zap.Error(referencesError),
			)
			continue
		}

		for _, itemReference := range itemReferences {
			referenceProject := itemReference.Project
			if len(referenceProject) == 0 {
				referenceProject = fallbackProject
			}
			references = append(references, pullrequests.Reference{
				WorkItemID:    itemReference.WorkItemID,
				PullRequestID: itemReference.PullRequestID,
				Project:       referenceProject,
			})
		}
	}
	return references
}

func (service *Service) buildReportRows(executionContext context.Context, runLogger *zap.Logger, summaries map[string]pullrequests.RepositorySummary, definition profile.Definition, options CommandOptions) ([]ReportRow, map[string]map[string]commitdiff.Statistics) {
	var reportRows []ReportRow
	var diffStatistics map[string]map[string]commitdiff.Statistics
	if options.IncludeDiffs {
		diffStatistics = make(map[string]map[string]commitdiff.Statistics)
	}

	for _, repositoryName := range pullrequests.RepositoryNames(summaries) {
		repositorySummary := summaries[repositoryName]
		for _, branchName := range pullrequests.BranchNames(repositorySummary) {
			branchActivity := repositorySummary.Branches[branchName]
			reportRow := ReportRow{
				Repository:    repositoryName,
				Branch:        branchName,
				OldestCommit:  branchActivity.OldestCommit,
				NewestCommit:  branchActivity.NewestCommit,
				ReviewerCount: len(repositorySummary.Reviewers),
			}

			if options.IncludeDiffs {
				statistics, comparisonError := service.diffAnalyzer.Compare(executionContext, commitdiff.ComparisonRequest{
					Project:             definition.Project,
					Repository:          repositoryName,
					BaseCommit:          branchActivity.OldestCommit.Hash,
					TargetCommit:        branchActivity.NewestCommit.Hash,
					ExcludedDirectories: definition.ExcludedDirs,
				})
				if comparisonError != nil {
					runLogger.Warn(
						diffComparisonFailedMessageConstant,
						zap.String(logFieldRepositoryConstant, repositoryName),
						zap.String(logFieldBranchConstant, branchName),
						zap.Error(comparisonError),
					)
				} else {
					reportRow.LineTotals = LineTotals{Added: statistics.Added, Deleted: statistics.Deleted, Modified: statistics.Modified}
					reportRow.HasLineTotals = true
					if diffStatistics[repositoryName] == nil {
						diffStatistics[repositoryName] = make(map[string]commitdiff.Statistics)
					}
					diffStatistics[repositoryName][branchName] = statistics
				}
			}

			reportRows = append(reportRows, reportRow)
		}
	}

	return reportRows, diffStatistics
}

func (service *Service) writeReport(reportRows []ReportRow) error {
	csvWriter := csv.NewWriter(service.outputWriter)
	header := []string{
		csvHeaderRepositoryConstant,
		csvHeaderBranchConstant,
		csvHeaderOldestCommitDateConstant,
		csvHeaderOldestCommitHashConstant,
		csvHeaderNewestCommitDateConstant,
		csvHeaderNewestCommitHashConstant,
		csvHeaderReviewerCountConstant,
		csvHeaderLinesAddedConstant,
		csvHeaderLinesDeletedConstant,
		csvHeaderLinesModifiedConstant,
	}
	if writeError := csvWriter.Write(header); writeError != nil {
		return writeError
	}

	for _, reportRow := range reportRows {
		if writeError := csvWriter.Write(reportRow.CSVRecord()); writeError != nil {
			return writeError
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (service *Service) archiveResults(runLogger *zap.Logger, runIdentifier string, definition profile.Definition, summaries map[string]pullrequests.RepositorySummary, diffStatistics map[string]map[string]commitdiff.Statistics, collection pullrequests.CollectionResult, options CommandOptions) error {
	summaryDocument := SummaryDocument{
		Organization:   definition.Organization,
		Project:        definition.Project,
		Repositories:   summaries,
		DiffStatistics: diffStatistics,
	}

	archivedDetails := collection.Details
	if options.SummaryOnly {
		archivedDetails = nil
	}

	storedPaths, archiveError := service.resultsArchiver.Store(results.RunArtifacts{
		Metadata: results.RunMetadata{
			RunID:       runIdentifier,
			GeneratedAt: service.clock.Now().UTC().Format(time.RFC3339),
		},
		Summary: summaryDocument,
		Details: archivedDetails,
	})
	if archiveError != nil {
		return fmt.Errorf(archiveErrorTemplateConstant, archiveError)
	}

	runLogger.Info(
		resultsArchivedMessageConstant,
		zap.String(logFieldSummaryPathConstant, storedPaths.SummaryPath),
		zap.String(logFieldDetailPathConstant, storedPaths.DetailPath),
	)
	return nil
}
