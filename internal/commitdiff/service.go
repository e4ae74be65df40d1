package commitdiff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/devops"
)

const (
	listerMissingMessageConstant       = "diff lister must be provided"
	fileDiffFetchSkippedMessage        = "file diff fetch failed; path skipped"
	directoryBoundarySuffixConstant    = "/"
	logFieldDiffPathConstant           = "path"
	logFieldRepositoryConstant         = "repository"
	logFieldBaseCommitConstant         = "base_commit"
	logFieldTargetCommitConstant       = "target_commit"
	changeListingErrorTemplateConstant = "unable to list diff changes: %w"
)

// FileClassification labels the dominant kind of change observed in a file.
type FileClassification string

// Supported file classifications.
const (
	FileClassificationAdded     FileClassification = "added"
	FileClassificationDeleted   FileClassification = "deleted"
	FileClassificationModified  FileClassification = "modified"
	FileClassificationUnchanged FileClassification = "unchanged"
)

// FileDiff reports the line counts and classification of a single file.
type FileDiff struct {
	Path           string             `json:"path"`
	Added          int                `json:"added"`
	Deleted        int                `json:"deleted"`
	Classification FileClassification `json:"type"`
}

// Statistics aggregates classified line counts across a comparison.
type Statistics struct {
	Added    int        `json:"added"`
	Deleted  int        `json:"deleted"`
	Modified int        `json:"modified"`
	Files    []FileDiff `json:"files"`
}

// ComparisonRequest identifies the commits to compare and the directories to
// leave out of the statistics.
type ComparisonRequest struct {
	Project             string
	Repository          string
	BaseCommit          string
	TargetCommit        string
	ExcludedDirectories []string
}

// DiffLister exposes the subset of the tracking service consumed by the
// comparison service.
type DiffLister interface {
	ListCommitDiffChanges(executionContext context.Context, project string, repository string, baseCommit string, targetCommit string) (devops.CommitDiffs, error)
	GetFileDiffCounts(executionContext context.Context, project string, repository string, baseCommit string, targetCommit string, path string) (devops.FileDiffCounts, error)
}

// Service computes classified diff statistics between two commits.
type Service struct {
	lister DiffLister
	logger *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(lister DiffLister, logger *zap.Logger) (*Service, error) {
	if lister == nil {
		return nil, errors.New(listerMissingMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &Service{lister: lister, logger: resolvedLogger}, nil
}

// Compare lists the changed paths between the requested commits, fetches the
// per-path line counts, and classifies each file. Per-path fetch failures are
// logged and skipped; a failed change listing aborts the comparison.
func (service *Service) Compare(executionContext context.Context, request ComparisonRequest) (Statistics, error) {
	commitDiffs, listingError := service.lister.ListCommitDiffChanges(executionContext, request.Project, request.Repository, request.BaseCommit, request.TargetCommit)
	if listingError != nil {
		return Statistics{}, fmt.Errorf(changeListingErrorTemplateConstant, listingError)
	}

	statistics := Statistics{Files: make([]FileDiff, 0, len(commitDiffs.Changes))}

	for _, change := range commitDiffs.Changes {
		changedPath := change.Item.Path
		if isExcludedPath(changedPath, request.ExcludedDirectories) {
			continue
		}

		fileDiffCounts, countsError := service.lister.GetFileDiffCounts(executionContext, request.Project, request.Repository, request.BaseCommit, request.TargetCommit, changedPath)
		if countsError != nil {
			service.logger.Warn(
				fileDiffFetchSkippedMessage,
				zap.String(logFieldRepositoryConstant, request.Repository),
				zap.String(logFieldDiffPathConstant, changedPath),
				zap.String(logFieldBaseCommitConstant, request.BaseCommit),
				zap.String(logFieldTargetCommitConstant, request.TargetCommit),
				zap.Error(countsError),
			)
			continue
		}

		fileDiff := classifyFileDiff(changedPath, fileDiffCounts)
		switch fileDiff.Classification {
		case FileClassificationModified:
			statistics.Modified += fileDiff.Added + fileDiff.Deleted
		case FileClassificationAdded:
			statistics.Added += fileDiff.Added
		case FileClassificationDeleted:
			statistics.Deleted += fileDiff.Deleted
		}

		statistics.Files = append(statistics.Files, fileDiff)
	}

	return statistics, nil
}

func classifyFileDiff(changedPath string, fileDiffCounts devops.FileDiffCounts) FileDiff {
	classification := FileClassificationUnchanged
	switch {
	case fileDiffCounts.AddLineCount > 0 && fileDiffCounts.DeleteLineCount > 0:
		classification = FileClassificationModified
	case fileDiffCounts.AddLineCount > 0:
		classification = FileClassificationAdded
	case fileDiffCounts.DeleteLineCount > 0:
		classification = FileClassificationDeleted
	}

	return FileDiff{
		Path:           changedPath,
		Added:          fileDiffCounts.AddLineCount,
		Deleted:        fileDiffCounts.DeleteLineCount,
		Classification: classification,
	}
}

func isExcludedPath(changedPath string, excludedDirectories []string) bool {
	for _, excludedDirectory := range excludedDirectories {
		directoryPrefix := strings.TrimSuffix(excludedDirectory, directoryBoundarySuffixConstant) + directoryBoundarySuffixConstant
		if strings.HasPrefix(changedPath, directoryPrefix) {
			return true
		}
	}
	return false
}
