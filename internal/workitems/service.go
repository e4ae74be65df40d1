package workitems

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/devops"
)

const (
	hierarchyForwardRelationConstant    = "System.LinkTypes.Hierarchy-Forward"
	artifactLinkRelationConstant        = "ArtifactLink"
	pullRequestIdentifierAttributeConst = "pullRequestId"
	pullRequestArtifactPrefixConstant   = "vstfs:///Git/PullRequestId/"
	stateFieldNameConstant              = "System.State"
	apiPathMarkerConstant               = "_apis"
	pathSeparatorConstant               = "/"
	readerMissingMessageConstant        = "work item reader must be provided"
	childExpansionFailedMessage         = "child work item expansion failed"
	childIdentifierParseFailedMessage   = "child work item identifier parse failed"
	completionFilterFetchFailedMessage  = "work item state lookup failed"
	workItemFetchErrorTemplateConstant  = "unable to fetch work item %d: %w"
	projectNotResolvedMessageConstant   = "work item project not resolved from url"
	pullRequestAttributeInvalidMessage  = "pull request identifier attribute not recognized"
	projectSegmentMissingMessage        = "project segment not found in work item url"
	logFieldWorkItemIdentifierConstant  = "work_item_id"
	logFieldRelationURLConstant         = "relation_url"
	logFieldWorkItemURLConstant         = "work_item_url"
)

// Completed work item states accepted by the completion filter.
var completedStateValues = map[string]struct{}{
	"closed":    {},
	"done":      {},
	"completed": {},
}

// Selection describes the configured identifier sets driving traversal.
type Selection struct {
	ParentFeatureIDs []int
	BacklogIDs       []int
	IgnoreIDs        []int
	OnlyCompleted    bool
}

// PullRequestReference links an audited work item to one of its pull requests.
type PullRequestReference struct {
	WorkItemID    int
	PullRequestID int
	Project       string
}

// Resolver walks work item hierarchies and extracts pull request references.
type Resolver struct {
	reader WorkItemReader
	logger *zap.Logger
}

// NewResolver validates dependencies and constructs a Resolver.
func NewResolver(reader WorkItemReader, logger *zap.Logger) (*Resolver, error) {
	if reader == nil {
		return nil, errors.New(readerMissingMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	return &Resolver{reader: reader, logger: resolvedLogger}, nil
}

// ExpandChildren returns the identifiers of direct children reachable through
// forward hierarchy relations. Failures on individual parents are logged and
// skipped so one unreadable item cannot abort the traversal.
func (resolver *Resolver) ExpandChildren(executionContext context.Context, parentIdentifiers []int) []int {
	childIdentifierSet := make(map[int]struct{})

	for _, parentIdentifier := range parentIdentifiers {
		workItem, fetchError := resolver.reader.GetWorkItem(executionContext, parentIdentifier)
		if fetchError != nil {
			resolver.logger.Warn(
				childExpansionFailedMessage,
				zap.Int(logFieldWorkItemIdentifierConstant, parentIdentifier),
				zap.Error(fetchError),
			)
			continue
		}

		for _, relation := range workItem.Relations {
			if relation.Rel != hierarchyForwardRelationConstant {
				continue
			}

			childIdentifier, parseError := parseTrailingIdentifier(relation.URL)
			if parseError != nil {
				resolver.logger.Warn(
					childIdentifierParseFailedMessage,
					zap.Int(logFieldWorkItemIdentifierConstant, parentIdentifier),
					zap.String(logFieldRelationURLConstant, relation.URL),
					zap.Error(parseError),
				)
				continue
			}
			childIdentifierSet[childIdentifier] = struct{}{}
		}
	}

	return sortedIdentifiers(childIdentifierSet)
}

// ResolveAuditSet assembles the audited work item identifiers: children of
// the configured parent features, the explicit backlog identifiers, the
// children of everything accumulated so far, and the parent features
// themselves, minus the ignore list.
func (resolver *Resolver) ResolveAuditSet(executionContext context.Context, selection Selection) ([]int, error) {
	auditSet := make(map[int]struct{})

	for _, childIdentifier := range resolver.ExpandChildren(executionContext, selection.ParentFeatureIDs) {
		auditSet[childIdentifier] = struct{}{}
	}

	for _, backlogIdentifier := range selection.BacklogIDs {
		auditSet[backlogIdentifier] = struct{}{}
	}

	for _, childIdentifier := range resolver.ExpandChildren(executionContext, sortedIdentifiers(auditSet)) {
		auditSet[childIdentifier] = struct{}{}
	}

	for _, parentIdentifier := range selection.ParentFeatureIDs {
		auditSet[parentIdentifier] = struct{}{}
	}

	for _, ignoredIdentifier := range selection.IgnoreIDs {
		delete(auditSet, ignoredIdentifier)
	}

	auditedIdentifiers := sortedIdentifiers(auditSet)
	if !selection.OnlyCompleted {
		return auditedIdentifiers, nil
	}

	return resolver.filterCompleted(executionContext, auditedIdentifiers), nil
}

// PullRequestReferences extracts pull request links from the work item's
// artifact relations. The project is resolved from the work item API URL so
// callers can address project-scoped pull request endpoints; work items with
// organization-scoped URLs yield references with an empty project, leaving
// the caller to supply one.
func (resolver *Resolver) PullRequestReferences(executionContext context.Context, workItemID int) ([]PullRequestReference, error) {
	workItem, fetchError := resolver.reader.GetWorkItem(executionContext, workItemID)
	if fetchError != nil {
		return nil, fmt.Errorf(workItemFetchErrorTemplateConstant, workItemID, fetchError)
	}

	references := make([]PullRequestReference, 0)
	if len(workItem.Relations) == 0 {
		return references, nil
	}

	projectName, projectError := resolveProjectFromURL(workItem.URL)
	if projectError != nil {
		resolver.logger.Debug(
			projectNotResolvedMessageConstant,
			zap.Int(logFieldWorkItemIdentifierConstant, workItemID),
			zap.String(logFieldWorkItemURLConstant, workItem.URL),
			zap.Error(projectError),
		)
		projectName = ""
	}

	for _, relation := range workItem.Relations {
		if relation.Rel != artifactLinkRelationConstant {
			continue
		}

		pullRequestIdentifier, extractionError := extractPullRequestIdentifier(relation)
		if extractionError != nil {
			continue
		}

		references = append(references, PullRequestReference{
			WorkItemID:    workItemID,
			PullRequestID: pullRequestIdentifier,
			Project:       projectName,
		})
	}

	return references, nil
}

func (resolver *Resolver) filterCompleted(executionContext context.Context, identifiers []int) []int {
	completedIdentifiers := make([]int, 0, len(identifiers))

	for _, workItemIdentifier := range identifiers {
		workItem, fetchError := resolver.reader.GetWorkItem(executionContext, workItemIdentifier)
		if fetchError != nil {
			resolver.logger.Warn(
				completionFilterFetchFailedMessage,
				zap.Int(logFieldWorkItemIdentifierConstant, workItemIdentifier),
				zap.Error(fetchError),
			)
			continue
		}

		stateValue, stateAvailable := workItem.Fields[stateFieldNameConstant].(string)
		if !stateAvailable {
			continue
		}

		if _, isCompleted := completedStateValues[strings.ToLower(strings.TrimSpace(stateValue))]; isCompleted {
			completedIdentifiers = append(completedIdentifiers, workItemIdentifier)
		}
	}

	return completedIdentifiers
}

func extractPullRequestIdentifier(relation devops.WorkItemRelation) (int, error) {
	if attributeValue, attributeAvailable := relation.Attributes[pullRequestIdentifierAttributeConst]; attributeAvailable {
		switch typedValue := attributeValue.(type) {
		case float64:
			return int(typedValue), nil
		case int:
			return typedValue, nil
		case string:
			return strconv.Atoi(strings.TrimSpace(typedValue))
		default:
			return 0, errors.New(pullRequestAttributeInvalidMessage)
		}
	}

	if strings.HasPrefix(relation.URL, pullRequestArtifactPrefixConstant) {
		return parsePullRequestArtifactIdentifier(relation.URL)
	}

	return 0, errors.New(pullRequestAttributeInvalidMessage)
}

func parsePullRequestArtifactIdentifier(artifactURL string) (int, error) {
	encodedResource := strings.TrimPrefix(artifactURL, pullRequestArtifactPrefixConstant)
	decodedResource, decodeError := url.PathUnescape(encodedResource)
	if decodeError != nil {
		return 0, decodeError
	}

	resourceSegments := strings.Split(decodedResource, pathSeparatorConstant)
	return strconv.Atoi(resourceSegments[len(resourceSegments)-1])
}

func parseTrailingIdentifier(relationURL string) (int, error) {
	trimmedURL := strings.TrimSuffix(strings.TrimSpace(relationURL), pathSeparatorConstant)
	urlSegments := strings.Split(trimmedURL, pathSeparatorConstant)
	return strconv.Atoi(urlSegments[len(urlSegments)-1])
}

func resolveProjectFromURL(workItemURL string) (string, error) {
	parsedURL, parseError := url.Parse(workItemURL)
	if parseError != nil {
		return "", parseError
	}

	pathSegments := strings.Split(strings.Trim(parsedURL.Path, pathSeparatorConstant), pathSeparatorConstant)
	for segmentIndex, pathSegment := range pathSegments {
		if pathSegment != apiPathMarkerConstant {
			continue
		}
		if segmentIndex < 2 {
			break
		}
		projectSegment, unescapeError := url.PathUnescape(pathSegments[segmentIndex-1])
		if unescapeError != nil {
			return "", unescapeError
		}
		return projectSegment, nil
	}

	return "", errors.New(projectSegmentMissingMessage)
}

func sortedIdentifiers(identifierSet map[int]struct{}) []int {
	identifiers := make([]int, 0, len(identifierSet))
	for identifier := range identifierSet {
		identifiers = append(identifiers, identifier)
	}
	sort.Ints(identifiers)
	return identifiers
}
