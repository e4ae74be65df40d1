package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/commitdiff"
	"github.com/temirov/devaudit/internal/devops"
	"github.com/temirov/devaudit/internal/profile"
	"github.com/temirov/devaudit/internal/pullrequests"
	"github.com/temirov/devaudit/internal/results"
	"github.com/temirov/devaudit/internal/utils"
	pathutils "github.com/temirov/devaudit/internal/utils/path"
	"github.com/temirov/devaudit/internal/workitems"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted audit command configuration.
type ConfigurationProvider func() CommandConfiguration

// HumanReadableLoggingProvider reports whether diagnostics should render as
// plain text instead of structured log entries.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	WorkItemResolver             WorkItemSetResolver
	PullRequestCollector         PullRequestCollector
	DiffAnalyzer                 DiffAnalyzer
	ResultsArchiver              ResultsArchiver
	HTTPClient                   devops.HTTPClient
	RequestObserver              devops.RequestEventObserver
	EnvironmentLookup            devops.EnvironmentLookup
	FileReader                   devops.FileReader
	Clock                        Clock
	PathExpander                 *pathutils.HomeExpander
}

// Build constructs the cobra command for the delivery audit workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := builder.resolveConfiguration()
	command.Flags().String(flagProfileNameConstant, defaults.Profile, flagProfileDescriptionConstant)
	command.Flags().String(flagOutputDirNameConstant, defaults.OutputDirectory, flagOutputDirDescriptionConstant)
	command.Flags().Bool(flagWithDiffsNameConstant, defaults.IncludeDiffs, flagWithDiffsDescriptionConstant)
	command.Flags().Bool(flagSummaryOnlyNameConstant, defaults.SummaryOnly, flagSummaryOnlyDescriptionConstant)
	command.Flags().Bool(flagDebugNameConstant, defaults.Debug, flagDebugDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFilePath, configurationFileAvailable := contextAccessor.ConfigurationFilePath(command.Context()); configurationFileAvailable {
		logger.Debug(
			configurationFileInUseMessageConstant,
			zap.String(logFieldConfigurationFileConstant, configurationFilePath),
		)
	}

	definition, definitionError := profile.LoadDefinition(options.ProfilePath)
	if definitionError != nil {
		return fmt.Errorf(profileResolutionErrorTemplate, definitionError)
	}

	collaborators, collaboratorsError := builder.resolveCollaborators(command, logger, definition, options)
	if collaboratorsError != nil {
		return collaboratorsError
	}

	service, serviceError := NewService(
		logger,
		collaborators.workItemResolver,
		collaborators.pullRequestCollector,
		collaborators.diffAnalyzer,
		collaborators.resultsArchiver,
		utils.NewFlushingWriter(command.OutOrStdout()),
		builder.Clock,
	)
	if serviceError != nil {
		return serviceError
	}

	if runError := service.Run(command.Context(), options, definition); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()
	commandFlags := command.Flags()

	profilePath := configuration.Profile
	if commandFlags.Changed(flagProfileNameConstant) {
		profileValue, _ := commandFlags.GetString(flagProfileNameConstant)
		profilePath = strings.TrimSpace(profileValue)
	}
	if len(profilePath) == 0 {
		if helpError := builder.displayCommandHelp(command); helpError != nil {
			return CommandOptions{}, helpError
		}
		return CommandOptions{}, errors.New(errorMissingProfileMessageConstant)
	}

	outputDirectory := configuration.OutputDirectory
	if commandFlags.Changed(flagOutputDirNameConstant) {
		outputDirValue, _ := commandFlags.GetString(flagOutputDirNameConstant)
		outputDirectory = strings.TrimSpace(outputDirValue)
	}

	includeDiffs := configuration.IncludeDiffs
	if commandFlags.Changed(flagWithDiffsNameConstant) {
		includeDiffs, _ = commandFlags.GetBool(flagWithDiffsNameConstant)
	}

	summaryOnly := configuration.SummaryOnly
	if commandFlags.Changed(flagSummaryOnlyNameConstant) {
		summaryOnly, _ = commandFlags.GetBool(flagSummaryOnlyNameConstant)
	}

	debugOutput := configuration.Debug
	if commandFlags.Changed(flagDebugNameConstant) {
		debugOutput, _ = commandFlags.GetBool(flagDebugNameConstant)
	}

	expander := builder.resolvePathExpander()
	options := CommandOptions{
		ProfilePath:     expander.Expand(profilePath),
		OutputDirectory: expander.Expand(outputDirectory),
		IncludeDiffs:    includeDiffs,
		SummaryOnly:     summaryOnly,
		DebugOutput:     debugOutput,
	}

	return options, nil
}

type serviceCollaborators struct {
	workItemResolver     WorkItemSetResolver
	pullRequestCollector PullRequestCollector
	diffAnalyzer         DiffAnalyzer
	resultsArchiver      ResultsArchiver
}

func (builder *CommandBuilder) resolveCollaborators(command *cobra.Command, logger *zap.Logger, definition profile.Definition, options CommandOptions) (serviceCollaborators, error) {
	collaborators := serviceCollaborators{
		workItemResolver:     builder.WorkItemResolver,
		pullRequestCollector: builder.PullRequestCollector,
		diffAnalyzer:         builder.DiffAnalyzer,
		resultsArchiver:      builder.ResultsArchiver,
	}

	needsClient := collaborators.workItemResolver == nil || collaborators.pullRequestCollector == nil || collaborators.diffAnalyzer == nil
	var client *devops.Client
	if needsClient {
		builtClient, clientError := builder.buildClient(command, logger, definition, options)
		if clientError != nil {
			return serviceCollaborators{}, clientError
		}
		client = builtClient
	}

	if collaborators.workItemResolver == nil {
		resolver, resolverError := workitems.NewResolver(client, logger)
		if resolverError != nil {
			return serviceCollaborators{}, resolverError
		}
		collaborators.workItemResolver = resolver
	}

	if collaborators.pullRequestCollector == nil {
		collector, collectorError := pullrequests.NewCollector(client, logger)
		if collectorError != nil {
			return serviceCollaborators{}, collectorError
		}
		collaborators.pullRequestCollector = collector
	}

	if collaborators.diffAnalyzer == nil {
		analyzer, analyzerError := commitdiff.NewService(client, logger)
		if analyzerError != nil {
			return serviceCollaborators{}, analyzerError
		}
		collaborators.diffAnalyzer = analyzer
	}

	if collaborators.resultsArchiver == nil {
		archiver, archiverError := results.NewArchiver(results.OperatingSystemFileSystem{}, builder.resolveClock(), options.OutputDirectory)
		if archiverError != nil {
			return serviceCollaborators{}, archiverError
		}
		collaborators.resultsArchiver = archiver
	}

	return collaborators, nil
}

func (builder *CommandBuilder) buildClient(command *cobra.Command, logger *zap.Logger, definition profile.Definition, options CommandOptions) (*devops.Client, error) {
	configuration := builder.resolveConfiguration()

	credentialSource, sourceError := devops.ParseCredentialSource(configuration.CredentialSource)
	if sourceError != nil {
		return nil, fmt.Errorf(credentialResolutionErrorTemplate, sourceError)
	}

	credentialResolver := devops.NewCredentialResolver(builder.EnvironmentLookup, builder.FileReader)
	secretValue, secretError := credentialResolver.ResolveSecret(command.Context(), credentialSource)
	if secretError != nil {
		return nil, fmt.Errorf(credentialResolutionErrorTemplate, secretError)
	}

	var authorizer devops.RequestAuthorizer
	switch configuration.AuthScheme {
	case authSchemePersonalAccessTokenConstant:
		personalAccessTokenAuthorizer, authorizerError := devops.NewPersonalAccessTokenAuthorizer(secretValue)
		if authorizerError != nil {
			return nil, fmt.Errorf(credentialResolutionErrorTemplate, authorizerError)
		}
		authorizer = personalAccessTokenAuthorizer
	case authSchemeBearerTokenConstant:
		bearerTokenAuthorizer, authorizerError := devops.NewBearerTokenAuthorizer(secretValue)
		if authorizerError != nil {
			return nil, fmt.Errorf(credentialResolutionErrorTemplate, authorizerError)
		}
		authorizer = bearerTokenAuthorizer
	default:
		return nil, fmt.Errorf(unsupportedAuthSchemeTemplateConstant, configuration.AuthScheme)
	}

	observer := builder.RequestObserver
	if observer == nil && options.DebugOutput {
		if builder.humanReadableLoggingEnabled() {
			observer = devops.NewHumanReadableRequestObserver(command.ErrOrStderr())
		} else {
			observer = devops.NewLoggingRequestObserver(logger)
		}
	}

	client, clientError := devops.NewClient(logger, builder.HTTPClient, authorizer, definition.Organization, devops.ClientOptions{Observer: observer})
	if clientError != nil {
		return nil, fmt.Errorf(clientConstructionErrorTemplate, clientError)
	}

	if _, verificationError := client.ListProjects(command.Context()); verificationError != nil {
		return nil, fmt.Errorf(credentialVerificationErrorTemplate, verificationError)
	}
	return client, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().sanitize()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveClock() Clock {
	if builder.Clock == nil {
		return SystemClock{}
	}
	return builder.Clock
}

func (builder *CommandBuilder) resolvePathExpander() *pathutils.HomeExpander {
	if builder.PathExpander == nil {
		return pathutils.NewHomeExpander()
	}
	return builder.PathExpander
}

func (builder *CommandBuilder) displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
