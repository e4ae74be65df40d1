package audit

import "strings"

const (
	configurationProfileKeyConstant     = "profile"
	configurationOutputDirKeyConstant   = "output_dir"
	configurationWithDiffsKeyConstant   = "with_diffs"
	configurationSummaryOnlyKeyConstant = "summary_only"
	configurationDebugKeyConstant       = "debug"
	configurationPATSourceKeyConstant   = "pat_source"
	configurationAuthSchemeKeyConstant  = "auth_scheme"
	configurationKeySeparatorConstant   = "."

	defaultOutputDirectoryConstant  = "audit-results"
	defaultCredentialSourceConstant = "env:AZURE_DEVOPS_PAT"

	authSchemePersonalAccessTokenConstant = "pat"
	authSchemeBearerTokenConstant         = "bearer"
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	Profile          string `mapstructure:"profile"`
	OutputDirectory  string `mapstructure:"output_dir"`
	IncludeDiffs     bool   `mapstructure:"with_diffs"`
	SummaryOnly      bool   `mapstructure:"summary_only"`
	Debug            bool   `mapstructure:"debug"`
	CredentialSource string `mapstructure:"pat_source"`
	AuthScheme       string `mapstructure:"auth_scheme"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Profile:          "",
		OutputDirectory:  defaultOutputDirectoryConstant,
		IncludeDiffs:     false,
		SummaryOnly:      false,
		Debug:            false,
		CredentialSource: defaultCredentialSourceConstant,
		AuthScheme:       authSchemePersonalAccessTokenConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the audit command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationProfileKeyConstant:     defaults.Profile,
		rootKey + configurationKeySeparatorConstant + configurationOutputDirKeyConstant:   defaults.OutputDirectory,
		rootKey + configurationKeySeparatorConstant + configurationWithDiffsKeyConstant:   defaults.IncludeDiffs,
		rootKey + configurationKeySeparatorConstant + configurationSummaryOnlyKeyConstant: defaults.SummaryOnly,
		rootKey + configurationKeySeparatorConstant + configurationDebugKeyConstant:       defaults.Debug,
		rootKey + configurationKeySeparatorConstant + configurationPATSourceKeyConstant:   defaults.CredentialSource,
		rootKey + configurationKeySeparatorConstant + configurationAuthSchemeKeyConstant:  defaults.AuthScheme,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Profile = strings.TrimSpace(configuration.Profile)
	sanitized.OutputDirectory = strings.TrimSpace(configuration.OutputDirectory)
	if len(sanitized.OutputDirectory) == 0 {
		sanitized.OutputDirectory = defaultOutputDirectoryConstant
	}
	sanitized.CredentialSource = strings.TrimSpace(configuration.CredentialSource)
	if len(sanitized.CredentialSource) == 0 {
		sanitized.CredentialSource = defaultCredentialSourceConstant
	}
	sanitized.AuthScheme = strings.ToLower(strings.TrimSpace(configuration.AuthScheme))
	if len(sanitized.AuthScheme) == 0 {
		sanitized.AuthScheme = authSchemePersonalAccessTokenConstant
	}

	return sanitized
}
