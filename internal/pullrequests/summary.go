package pullrequests

import (
	"fmt"
	"sort"
	"time"
)

const (
	creationDateParseErrorTemplateConstant = "unable to parse pull request creation date %q: %w"
)

// CommitSnapshot pins a commit hash to the creation date of the pull request
// that introduced it.
type CommitSnapshot struct {
	Date string `json:"date"`
	Hash string `json:"hash"`
}

// BranchActivity tracks the oldest and newest commit snapshots observed on a
// target branch.
type BranchActivity struct {
	OldestCommit CommitSnapshot `json:"oldest_commit"`
	NewestCommit CommitSnapshot `json:"newest_commit"`
}

// RepositorySummary rolls up the audited activity of one repository.
type RepositorySummary struct {
	Branches  map[string]BranchActivity `json:"branches"`
	Reviewers []string                  `json:"reviewers"`
}

// Summarize groups records by repository and target branch, tracking the
// oldest and newest commit snapshot per branch and the union of reviewers
// per repository. Records carrying unparseable creation dates fail the
// summary.
func Summarize(records []Record) (map[string]RepositorySummary, error) {
	summaries := make(map[string]RepositorySummary)
	reviewerSets := make(map[string]map[string]struct{})
	oldestInstants := make(map[string]map[string]time.Time)
	newestInstants := make(map[string]map[string]time.Time)

	for _, record := range records {
		creationInstant, parseError := time.Parse(time.RFC3339Nano, record.CreatedDate)
		if parseError != nil {
			return nil, fmt.Errorf(creationDateParseErrorTemplateConstant, record.CreatedDate, parseError)
		}

		repositorySummary, repositoryKnown := summaries[record.Repository]
		if !repositoryKnown {
			repositorySummary = RepositorySummary{Branches: make(map[string]BranchActivity)}
			reviewerSets[record.Repository] = make(map[string]struct{})
			oldestInstants[record.Repository] = make(map[string]time.Time)
			newestInstants[record.Repository] = make(map[string]time.Time)
		}

		for _, reviewerName := range record.Reviewers {
			reviewerSets[record.Repository][reviewerName] = struct{}{}
		}

		branchActivity, branchKnown := repositorySummary.Branches[record.TargetBranch]
		snapshot := CommitSnapshot{Date: record.CreatedDate, Hash: record.CommitID}

		if !branchKnown {
			branchActivity = BranchActivity{OldestCommit: snapshot, NewestCommit: snapshot}
			oldestInstants[record.Repository][record.TargetBranch] = creationInstant
			newestInstants[record.Repository][record.TargetBranch] = creationInstant
		} else {
			if creationInstant.Before(oldestInstants[record.Repository][record.TargetBranch]) {
				branchActivity.OldestCommit = snapshot
				oldestInstants[record.Repository][record.TargetBranch] = creationInstant
			}
			if creationInstant.After(newestInstants[record.Repository][record.TargetBranch]) {
				branchActivity.NewestCommit = snapshot
				newestInstants[record.Repository][record.TargetBranch] = creationInstant
			}
		}

		repositorySummary.Branches[record.TargetBranch] = branchActivity
		summaries[record.Repository] = repositorySummary
	}

	for repositoryName, repositorySummary := range summaries {
		repositorySummary.Reviewers = sortedNames(reviewerSets[repositoryName])
		summaries[repositoryName] = repositorySummary
	}

	return summaries, nil
}

// RepositoryNames returns the summarized repository names in sorted order so
// report output never depends on map iteration.
func RepositoryNames(summaries map[string]RepositorySummary) []string {
	repositoryNames := make([]string, 0, len(summaries))
	for repositoryName := range summaries {
		repositoryNames = append(repositoryNames, repositoryName)
	}
	sort.Strings(repositoryNames)
	return repositoryNames
}

// BranchNames returns the branch names of a summary in sorted order.
func BranchNames(summary RepositorySummary) []string {
	branchNames := make([]string, 0, len(summary.Branches))
	for branchName := range summary.Branches {
		branchNames = append(branchNames, branchName)
	}
	sort.Strings(branchNames)
	return branchNames
}

func sortedNames(nameSet map[string]struct{}) []string {
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
