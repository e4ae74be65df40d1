package audit

import (
	"strconv"
	"time"

	"github.com/temirov/devaudit/internal/commitdiff"
	"github.com/temirov/devaudit/internal/pullrequests"
)

// CommandOptions captures the configurable parameters for the audit command.
type CommandOptions struct {
	ProfilePath     string
	OutputDirectory string
	IncludeDiffs    bool
	SummaryOnly     bool
	DebugOutput     bool
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// LineTotals aggregates classified line counts for one branch comparison.
type LineTotals struct {
	Added    int
	Deleted  int
	Modified int
}

// ReportRow models a single CSV audit result covering one repository branch.
type ReportRow struct {
	Repository    string
	Branch        string
	OldestCommit  pullrequests.CommitSnapshot
	NewestCommit  pullrequests.CommitSnapshot
	ReviewerCount int
	LineTotals    LineTotals
	HasLineTotals bool
}

// CSVRecord returns the row formatted for CSV encoding.
func (row ReportRow) CSVRecord() []string {
	addedValue := notApplicableValueConstant
	deletedValue := notApplicableValueConstant
	modifiedValue := notApplicableValueConstant
	if row.HasLineTotals {
		addedValue = strconv.Itoa(row.LineTotals.Added)
		deletedValue = strconv.Itoa(row.LineTotals.Deleted)
		modifiedValue = strconv.Itoa(row.LineTotals.Modified)
	}

	return []string{
		row.Repository,
		row.Branch,
		row.OldestCommit.Date,
		row.OldestCommit.Hash,
		row.NewestCommit.Date,
		row.NewestCommit.Hash,
		strconv.Itoa(row.ReviewerCount),
		addedValue,
		deletedValue,
		modifiedValue,
	}
}

// SummaryDocument is the archived roll-up of one audit run.
type SummaryDocument struct {
	Organization   string                                      `json:"organization"`
	Project        string                                      `json:"project"`
	Repositories   map[string]pullrequests.RepositorySummary   `json:"repositories"`
	DiffStatistics map[string]map[string]commitdiff.Statistics `json:"diff_statistics,omitempty"`
}
