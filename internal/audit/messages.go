package audit

const (
	commandUseConstant              = "audit"
	commandShortDescriptionConstant = "Summarize delivery activity for configured backlog items"
	commandLongDescriptionConstant  = "audit walks the configured work item hierarchy, gathers the linked pull requests, and reports the repositories, branches, commits, and reviewers involved."

	flagProfileNameConstant            = "profile"
	flagProfileDescriptionConstant     = "Path to the audit profile file (YAML or JSON)"
	flagOutputDirNameConstant          = "output-dir"
	flagOutputDirDescriptionConstant   = "Directory receiving archived JSON results"
	flagWithDiffsNameConstant          = "with-diffs"
	flagWithDiffsDescriptionConstant   = "Compute line statistics between each branch's oldest and newest commit"
	flagSummaryOnlyNameConstant        = "summary-only"
	flagSummaryOnlyDescriptionConstant = "Archive the summary without per pull request payloads"
	flagDebugNameConstant              = "debug"
	flagDebugDescriptionConstant       = "Enable verbose request logging"

	errorMissingProfileMessageConstant    = "an audit profile must be provided via --profile"
	commandExecutionErrorTemplateConstant = "audit failed: %w"
	profileResolutionErrorTemplate        = "unable to resolve audit profile: %w"
	credentialResolutionErrorTemplate     = "unable to resolve service credentials: %w"
	credentialVerificationErrorTemplate   = "unable to verify service credentials: %w"
	unsupportedAuthSchemeTemplateConstant = "unsupported authentication scheme %q"
	clientConstructionErrorTemplate       = "unable to construct tracking service client: %w"
	auditSetResolutionErrorTemplate       = "unable to resolve audit work item set: %w"
	summaryConstructionErrorTemplate      = "unable to summarize pull requests: %w"
	reportWriteErrorTemplateConstant      = "unable to write audit report: %w"
	archiveErrorTemplateConstant          = "unable to archive audit results: %w"
	diffAnalyzerMissingMessageConstant    = "diff statistics requested without a configured analyzer"

	csvHeaderRepositoryConstant       = "repository"
	csvHeaderBranchConstant           = "branch"
	csvHeaderOldestCommitDateConstant = "oldest_commit_date"
	csvHeaderOldestCommitHashConstant = "oldest_commit_hash"
	csvHeaderNewestCommitDateConstant = "newest_commit_date"
	csvHeaderNewestCommitHashConstant = "newest_commit_hash"
	csvHeaderReviewerCountConstant    = "reviewers"
	csvHeaderLinesAddedConstant       = "lines_added"
	csvHeaderLinesDeletedConstant     = "lines_deleted"
	csvHeaderLinesModifiedConstant    = "lines_modified"
	notApplicableValueConstant        = "n/a"

	runStartedMessageConstant             = "audit run started"
	referencesSkippedMessageConstant      = "skipping work item pull request links"
	diffComparisonFailedMessageConstant   = "diff comparison failed"
	resultsArchivedMessageConstant        = "audit results archived"
	logFieldRunIdentifierConstant         = "run_id"
	logFieldOrganizationConstant          = "organization"
	logFieldProjectConstant               = "project"
	logFieldWorkItemIdentifierConstant    = "work_item_id"
	logFieldRepositoryConstant            = "repository"
	logFieldBranchConstant                = "branch"
	logFieldSummaryPathConstant           = "summary_path"
	logFieldDetailPathConstant            = "detail_path"
	logFieldConfigurationFileConstant     = "configuration_file"
	configurationFileInUseMessageConstant = "audit command using configuration file"
	resolverMissingMessageConstant        = "work item resolver must be provided"
	collectorMissingMessageConstant       = "pull request collector must be provided"
	archiverMissingMessageConstant        = "results archiver must be provided"
	outputWriterMissingMessageConstant    = "output writer must be provided"
)
