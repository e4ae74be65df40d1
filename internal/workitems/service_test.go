package workitems_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/devaudit/internal/devops"
	"github.com/temirov/devaudit/internal/workitems"
)

const (
	workItemURLTemplateConstant      = "https://dev.azure.com/contoso/Platform/_apis/wit/workItems/%d"
	childRelationURLTemplateConstant = "https://dev.azure.com/contoso/_apis/wit/workItems/%d"
	hierarchyForwardRelationName     = "System.LinkTypes.Hierarchy-Forward"
	artifactLinkRelationName         = "ArtifactLink"
)

type stubWorkItemReader struct {
	workItems map[int]devops.WorkItem
}

func (reader stubWorkItemReader) GetWorkItem(executionContext context.Context, workItemID int) (devops.WorkItem, error) {
	workItem, found := reader.workItems[workItemID]
	if !found {
		return devops.WorkItem{}, fmt.Errorf("work item %d not found", workItemID)
	}
	return workItem, nil
}

func workItemWithChildren(workItemID int, state string, childIdentifiers ...int) devops.WorkItem {
	relations := make([]devops.WorkItemRelation, 0, len(childIdentifiers))
	for _, childIdentifier := range childIdentifiers {
		relations = append(relations, devops.WorkItemRelation{
			Rel: hierarchyForwardRelationName,
			URL: fmt.Sprintf(childRelationURLTemplateConstant, childIdentifier),
		})
	}

	return devops.WorkItem{
		ID:        workItemID,
		URL:       fmt.Sprintf(workItemURLTemplateConstant, workItemID),
		Fields:    map[string]any{"System.State": state},
		Relations: relations,
	}
}

func newResolver(testInstance *testing.T, workItemsByID map[int]devops.WorkItem) *workitems.Resolver {
	testInstance.Helper()

	resolver, resolverError := workitems.NewResolver(stubWorkItemReader{workItems: workItemsByID}, zap.NewNop())
	require.NoError(testInstance, resolverError)
	return resolver
}

func TestExpandChildrenSkipsFailuresAndMalformedRelations(testInstance *testing.T) {
	workItemsByID := map[int]devops.WorkItem{
		100: {
			ID:  100,
			URL: fmt.Sprintf(workItemURLTemplateConstant, 100),
			Relations: []devops.WorkItemRelation{
				{Rel: hierarchyForwardRelationName, URL: fmt.Sprintf(childRelationURLTemplateConstant, 101)},
				{Rel: hierarchyForwardRelationName, URL: "https://dev.azure.com/contoso/_apis/wit/workItems/not-a-number"},
				{Rel: "System.LinkTypes.Related", URL: fmt.Sprintf(childRelationURLTemplateConstant, 999)},
			},
		},
	}

	resolver := newResolver(testInstance, workItemsByID)

	childIdentifiers := resolver.ExpandChildren(context.Background(), []int{100, 404})
	require.Equal(testInstance, []int{101}, childIdentifiers)
}

func TestResolveAuditSetBehaviors(testInstance *testing.T) {
	workItemsByID := map[int]devops.WorkItem{
		10: workItemWithChildren(10, "Active", 21, 22),
		21: workItemWithChildren(21, "Closed", 31),
		22: workItemWithChildren(22, "Done"),
		23: workItemWithChildren(23, "Active"),
		31: workItemWithChildren(31, "Closed"),
	}

	testCases := []struct {
		name                string
		selection           workitems.Selection
		expectedIdentifiers []int
	}{
		{
			name: "full_traversal_with_backlog_items",
			selection: workitems.Selection{
				ParentFeatureIDs: []int{10},
				BacklogIDs:       []int{23},
			},
			expectedIdentifiers: []int{10, 21, 22, 23, 31},
		},
		{
			name: "ignore_wins_over_every_inclusion_path",
			selection: workitems.Selection{
				ParentFeatureIDs: []int{10},
				BacklogIDs:       []int{23},
				IgnoreIDs:        []int{10, 31},
			},
			expectedIdentifiers: []int{21, 22, 23},
		},
		{
			name: "only_completed_filters_open_items",
			selection: workitems.Selection{
				ParentFeatureIDs: []int{10},
				BacklogIDs:       []int{23},
				OnlyCompleted:    true,
			},
			expectedIdentifiers: []int{21, 22, 31},
		},
		{
			name: "duplicate_inclusion_paths_collapse",
			selection: workitems.Selection{
				ParentFeatureIDs: []int{10},
				BacklogIDs:       []int{21, 31},
			},
			expectedIdentifiers: []int{10, 21, 22, 31},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			resolver := newResolver(subTest, workItemsByID)

			auditedIdentifiers, resolveError := resolver.ResolveAuditSet(context.Background(), testCase.selection)
			require.NoError(subTest, resolveError)
			require.Equal(subTest, testCase.expectedIdentifiers, auditedIdentifiers)
		})
	}
}

func TestPullRequestReferencesExtraction(testInstance *testing.T) {
	workItemsByID := map[int]devops.WorkItem{
		50: {
			ID:  50,
			URL: fmt.Sprintf(workItemURLTemplateConstant, 50),
			Relations: []devops.WorkItemRelation{
				{
					Rel:        artifactLinkRelationName,
					URL:        "vstfs:///Git/PullRequestId/project%2Frepo%2F77",
					Attributes: map[string]any{"pullRequestId": float64(77)},
				},
				{
					Rel:        artifactLinkRelationName,
					URL:        "vstfs:///Git/PullRequestId/project%2Frepo%2F78",
					Attributes: map[string]any{"name": "Pull Request"},
				},
				{
					Rel:        artifactLinkRelationName,
					URL:        "vstfs:///Git/Commit/project%2Frepo%2Fabc",
					Attributes: map[string]any{"name": "Commit"},
				},
				{
					Rel: hierarchyForwardRelationName,
					URL: fmt.Sprintf(childRelationURLTemplateConstant, 51),
				},
			},
		},
		60: {
			ID:  60,
			URL: fmt.Sprintf(workItemURLTemplateConstant, 60),
		},
	}

	resolver := newResolver(testInstance, workItemsByID)

	references, referencesError := resolver.PullRequestReferences(context.Background(), 50)
	require.NoError(testInstance, referencesError)
	require.Len(testInstance, references, 2)
	require.Equal(testInstance, workitems.PullRequestReference{WorkItemID: 50, PullRequestID: 77, Project: "Platform"}, references[0])
	require.Equal(testInstance, workitems.PullRequestReference{WorkItemID: 50, PullRequestID: 78, Project: "Platform"}, references[1])

	emptyReferences, emptyError := resolver.PullRequestReferences(context.Background(), 60)
	require.NoError(testInstance, emptyError)
	require.Empty(testInstance, emptyReferences)

	_, missingError := resolver.PullRequestReferences(context.Background(), 404)
	require.Error(testInstance, missingError)
}

func TestPullRequestReferencesWithOrganizationScopedURL(testInstance *testing.T) {
	workItemsByID := map[int]devops.WorkItem{
		50: {
			ID:  50,
			URL: fmt.Sprintf(childRelationURLTemplateConstant, 50),
			Relations: []devops.WorkItemRelation{
				{
					Rel:        artifactLinkRelationName,
					URL:        "vstfs:///Git/PullRequestId/project%2Frepo%2F77",
					Attributes: map[string]any{"pullRequestId": float64(77)},
				},
			},
		},
	}

	resolver := newResolver(testInstance, workItemsByID)

	references, referencesError := resolver.PullRequestReferences(context.Background(), 50)
	require.NoError(testInstance, referencesError)
	require.Len(testInstance, references, 1)
	require.Equal(testInstance, workitems.PullRequestReference{WorkItemID: 50, PullRequestID: 77, Project: ""}, references[0])
}
