package profile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	profilePathRequiredMessageConstant     = "profile path must be provided"
	profileLoadErrorTemplateConstant       = "failed to load audit profile: %w"
	profileParseErrorTemplateConstant      = "failed to parse audit profile: %w"
	organizationRequiredMessageConstant    = "audit profile must name an organization"
	projectRequiredMessageConstant         = "audit profile must name a project"
	selectionEmptyMessageConstant          = "audit profile must list parent feature ids or backlog ids"
	identifierParseErrorTemplateConstant   = "invalid work item identifier %q"
	identifierListDecodeErrorTemplateConst = "unable to decode identifier list: %w"
	identifierListSeparatorConstant        = ","
	identifierListUnsupportedShapeMessage  = "identifier list must be a sequence or a comma-separated string"
)

// IdentifierList accepts either a YAML/JSON sequence of integers or the
// legacy comma-separated string form of identifier lists.
type IdentifierList []int

// UnmarshalYAML decodes sequence and scalar identifier list shapes.
func (list *IdentifierList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var rawEntries []string
		if decodeError := value.Decode(&rawEntries); decodeError != nil {
			return fmt.Errorf(identifierListDecodeErrorTemplateConst, decodeError)
		}
		return list.parseEntries(rawEntries)
	case yaml.ScalarNode:
		var rawValue string
		if decodeError := value.Decode(&rawValue); decodeError != nil {
			return fmt.Errorf(identifierListDecodeErrorTemplateConst, decodeError)
		}
		return list.parseEntries(strings.Split(rawValue, identifierListSeparatorConstant))
	default:
		return errors.New(identifierListUnsupportedShapeMessage)
	}
}

func (list *IdentifierList) parseEntries(rawEntries []string) error {
	parsedIdentifiers := make([]int, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		trimmedEntry := strings.TrimSpace(rawEntry)
		if len(trimmedEntry) == 0 {
			continue
		}
		parsedIdentifier, parseError := strconv.Atoi(trimmedEntry)
		if parseError != nil {
			return fmt.Errorf(identifierParseErrorTemplateConstant, rawEntry)
		}
		parsedIdentifiers = append(parsedIdentifiers, parsedIdentifier)
	}
	*list = parsedIdentifiers
	return nil
}

// Definition describes one audit selection profile.
type Definition struct {
	Organization     string         `yaml:"organization" json:"organization"`
	Project          string         `yaml:"project" json:"project"`
	ParentFeatureIDs IdentifierList `yaml:"parent_feature_ids" json:"parent_feature_ids"`
	BacklogIDs       IdentifierList `yaml:"backlog_ids" json:"backlog_ids"`
	IgnoreIDs        IdentifierList `yaml:"ignore_ids" json:"ignore_ids"`
	OnlyCompleted    bool           `yaml:"only_completed" json:"only_completed"`
	ExcludedDirs     []string       `yaml:"exclude_dirs" json:"exclude_dirs"`
}

// Validate checks the structural requirements of a profile.
func (definition Definition) Validate() error {
	if len(strings.TrimSpace(definition.Organization)) == 0 {
		return errors.New(organizationRequiredMessageConstant)
	}
	if len(strings.TrimSpace(definition.Project)) == 0 {
		return errors.New(projectRequiredMessageConstant)
	}
	if len(definition.ParentFeatureIDs) == 0 && len(definition.BacklogIDs) == 0 {
		return errors.New(selectionEmptyMessageConstant)
	}
	return nil
}

// LoadDefinition reads, parses, and validates a profile file. JSON profiles
// load through the YAML parser, which accepts JSON documents.
func LoadDefinition(profilePath string) (Definition, error) {
	trimmedPath := strings.TrimSpace(profilePath)
	if len(trimmedPath) == 0 {
		return Definition{}, errors.New(profilePathRequiredMessageConstant)
	}

	profileContent, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Definition{}, fmt.Errorf(profileLoadErrorTemplateConstant, readError)
	}

	return ParseDefinition(profileContent)
}

// ParseDefinition parses and validates profile content.
func ParseDefinition(profileContent []byte) (Definition, error) {
	var definition Definition
	if unmarshalError := yaml.Unmarshal(profileContent, &definition); unmarshalError != nil {
		return Definition{}, fmt.Errorf(profileParseErrorTemplateConstant, unmarshalError)
	}

	if validationError := definition.Validate(); validationError != nil {
		return Definition{}, validationError
	}

	return definition, nil
}
