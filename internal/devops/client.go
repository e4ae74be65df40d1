package devops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultServiceBaseURLConstant       = "https://dev.azure.com"
	apiVersionParameterNameConstant     = "api-version"
	trackingAPIVersionValueConstant     = "7.0"
	diffAPIVersionValueConstant         = "7.1-preview.1"
	expandParameterNameConstant         = "$expand"
	expandRelationsValueConstant        = "relations"
	topParameterNameConstant            = "$top"
	baseVersionParameterNameConstant    = "baseVersion"
	targetVersionParameterNameConstant  = "targetVersion"
	diffPathParameterNameConstant       = "path"
	diffChangeListingLimitConstant      = 1000
	organizationMissingMessageConstant  = "organization must be provided"
	authorizerMissingMessageConstant    = "request authorizer must be provided"
	projectMissingMessageConstant       = "project must be provided"
	repositoryMissingMessageConstant    = "repository must be provided"
	commitMissingMessageConstant        = "base and target commits must be provided"
	diffPathMissingMessageConstant      = "diff path must be provided"
	workItemIdentifierInvalidTemplate   = "work item identifier %d must be positive"
	pullRequestIdentifierInvalidTemp    = "pull request identifier %d must be positive"
	requestCreationErrorTemplate        = "%s: unable to create request: %w"
	requestAuthorizationErrorTemplate   = "%s: unable to authorize request: %w"
	requestExecutionErrorTemplate       = "%s: request failed: %w"
	responseStatusErrorTemplate         = "%s: service returned status %d: %s"
	responseDecodingErrorTemplate       = "%s: unable to decode response: %w"
	responseBodyReadLimitConstant       = 4096
	apiPathSegmentConstant              = "_apis"
	workItemsPathSegmentConstant        = "wit/workitems"
	pullRequestsPathSegmentConstant     = "git/pullrequests"
	repositoriesPathSegmentConstant     = "git/repositories"
	projectsPathSegmentConstant         = "projects"
	diffCommitsPathSegmentConstant      = "diffs/commits"
	diffContentsPathSegmentConstant     = "diffs/contents"
	getWorkItemOperationNameConstant    = "GetWorkItem"
	getPullRequestOperationNameConstant = "GetPullRequest"
	listProjectsOperationNameConstant   = "ListProjects"
	listRepositoriesOperationConstant   = "ListRepositories"
	listDiffChangesOperationConstant    = "ListCommitDiffChanges"
	getFileDiffCountsOperationConstant  = "GetFileDiffCounts"
	clientConfiguredMessageConstant     = "devops client configured"
	logFieldOrganizationConstant        = "organization"
	logFieldBaseURLConstant             = "base_url"
)

// HTTPClient abstracts the HTTP transport used by the client.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientOptions adjusts optional client behavior.
type ClientOptions struct {
	BaseURL  string
	Observer RequestEventObserver
}

// Client issues organization-scoped Azure DevOps REST calls.
type Client struct {
	logger       *zap.Logger
	httpClient   HTTPClient
	authorizer   RequestAuthorizer
	baseURL      string
	organization string
	observer     RequestEventObserver
}

// NewClient validates dependencies and constructs a Client.
func NewClient(logger *zap.Logger, httpClient HTTPClient, authorizer RequestAuthorizer, organization string, options ClientOptions) (*Client, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, errors.New(organizationMissingMessageConstant)
	}
	if authorizer == nil {
		return nil, errors.New(authorizerMissingMessageConstant)
	}

	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	resolvedHTTPClient := httpClient
	if resolvedHTTPClient == nil {
		resolvedHTTPClient = http.DefaultClient
	}

	resolvedBaseURL := strings.TrimSuffix(strings.TrimSpace(options.BaseURL), "/")
	if len(resolvedBaseURL) == 0 {
		resolvedBaseURL = defaultServiceBaseURLConstant
	}

	resolvedObserver := options.Observer
	if resolvedObserver == nil {
		resolvedObserver = noopRequestEventObserver{}
	}

	resolvedLogger.Debug(
		clientConfiguredMessageConstant,
		zap.String(logFieldOrganizationConstant, trimmedOrganization),
		zap.String(logFieldBaseURLConstant, resolvedBaseURL),
	)

	return &Client{
		logger:       resolvedLogger,
		httpClient:   resolvedHTTPClient,
		authorizer:   authorizer,
		baseURL:      resolvedBaseURL,
		organization: trimmedOrganization,
		observer:     resolvedObserver,
	}, nil
}

// GetWorkItem fetches a work item with its relations expanded.
func (client *Client) GetWorkItem(executionContext context.Context, workItemID int) (WorkItem, error) {
	if workItemID <= 0 {
		return WorkItem{}, fmt.Errorf(workItemIdentifierInvalidTemplate, workItemID)
	}

	queryParameters := url.Values{}
	queryParameters.Set(expandParameterNameConstant, expandRelationsValueConstant)
	queryParameters.Set(apiVersionParameterNameConstant, trackingAPIVersionValueConstant)

	requestURL := client.organizationURL(workItemsPathSegmentConstant+"/"+strconv.Itoa(workItemID), queryParameters)

	var workItem WorkItem
	if requestError := client.getJSON(executionContext, getWorkItemOperationNameConstant, requestURL, &workItem); requestError != nil {
		return WorkItem{}, requestError
	}
	return workItem, nil
}

// GetPullRequest fetches pull request details within a project.
func (client *Client) GetPullRequest(executionContext context.Context, project string, pullRequestID int) (PullRequest, error) {
	trimmedProject := strings.TrimSpace(project)
	if len(trimmedProject) == 0 {
		return PullRequest{}, errors.New(projectMissingMessageConstant)
	}
	if pullRequestID <= 0 {
		return PullRequest{}, fmt.Errorf(pullRequestIdentifierInvalidTemp, pullRequestID)
	}

	queryParameters := url.Values{}
	queryParameters.Set(apiVersionParameterNameConstant, trackingAPIVersionValueConstant)

	requestURL := client.projectURL(trimmedProject, pullRequestsPathSegmentConstant+"/"+strconv.Itoa(pullRequestID), queryParameters)

	var pullRequest PullRequest
	if requestError := client.getJSON(executionContext, getPullRequestOperationNameConstant, requestURL, &pullRequest); requestError != nil {
		return PullRequest{}, requestError
	}
	return pullRequest, nil
}

// ListProjects enumerates the team projects visible to the credentials. The
// call doubles as a credential verification check.
func (client *Client) ListProjects(executionContext context.Context) ([]Project, error) {
	queryParameters := url.Values{}
	queryParameters.Set(apiVersionParameterNameConstant, trackingAPIVersionValueConstant)

	requestURL := client.organizationURL(projectsPathSegmentConstant, queryParameters)

	var payload projectListPayload
	if requestError := client.getJSON(executionContext, listProjectsOperationNameConstant, requestURL, &payload); requestError != nil {
		return nil, requestError
	}
	return payload.Value, nil
}

// ListRepositories enumerates the repositories registered within a project.
func (client *Client) ListRepositories(executionContext context.Context, project string) ([]GitRepository, error) {
	trimmedProject := strings.TrimSpace(project)
	if len(trimmedProject) == 0 {
		return nil, errors.New(projectMissingMessageConstant)
	}

	queryParameters := url.Values{}
	queryParameters.Set(apiVersionParameterNameConstant, diffAPIVersionValueConstant)

	requestURL := client.projectURL(trimmedProject, repositoriesPathSegmentConstant, queryParameters)

	var payload repositoryListPayload
	if requestError := client.getJSON(executionContext, listRepositoriesOperationConstant, requestURL, &payload); requestError != nil {
		return nil, requestError
	}
	return payload.Value, nil
}

// ListCommitDiffChanges lists changed items between two commits.
func (client *Client) ListCommitDiffChanges(executionContext context.Context, project string, repository string, baseCommit string, targetCommit string) (CommitDiffs, error) {
	if validationError := validateDiffCoordinates(project, repository, baseCommit, targetCommit); validationError != nil {
		return CommitDiffs{}, validationError
	}

	queryParameters := url.Values{}
	queryParameters.Set(baseVersionParameterNameConstant, baseCommit)
	queryParameters.Set(targetVersionParameterNameConstant, targetCommit)
	queryParameters.Set(topParameterNameConstant, strconv.Itoa(diffChangeListingLimitConstant))
	queryParameters.Set(apiVersionParameterNameConstant, diffAPIVersionValueConstant)

	requestURL := client.repositoryURL(project, repository, diffCommitsPathSegmentConstant, queryParameters)

	var commitDiffs CommitDiffs
	if requestError := client.getJSON(executionContext, listDiffChangesOperationConstant, requestURL, &commitDiffs); requestError != nil {
		return CommitDiffs{}, requestError
	}
	return commitDiffs, nil
}

// GetFileDiffCounts fetches added/deleted line counts for a single path.
func (client *Client) GetFileDiffCounts(executionContext context.Context, project string, repository string, baseCommit string, targetCommit string, path string) (FileDiffCounts, error) {
	if validationError := validateDiffCoordinates(project, repository, baseCommit, targetCommit); validationError != nil {
		return FileDiffCounts{}, validationError
	}
	if len(strings.TrimSpace(path)) == 0 {
		return FileDiffCounts{}, errors.New(diffPathMissingMessageConstant)
	}

	queryParameters := url.Values{}
	queryParameters.Set(baseVersionParameterNameConstant, baseCommit)
	queryParameters.Set(targetVersionParameterNameConstant, targetCommit)
	queryParameters.Set(diffPathParameterNameConstant, path)
	queryParameters.Set(apiVersionParameterNameConstant, diffAPIVersionValueConstant)

	requestURL := client.repositoryURL(project, repository, diffContentsPathSegmentConstant, queryParameters)

	var fileDiffCounts FileDiffCounts
	if requestError := client.getJSON(executionContext, getFileDiffCountsOperationConstant, requestURL, &fileDiffCounts); requestError != nil {
		return FileDiffCounts{}, requestError
	}
	return fileDiffCounts, nil
}

func validateDiffCoordinates(project string, repository string, baseCommit string, targetCommit string) error {
	if len(strings.TrimSpace(project)) == 0 {
		return errors.New(projectMissingMessageConstant)
	}
	if len(strings.TrimSpace(repository)) == 0 {
		return errors.New(repositoryMissingMessageConstant)
	}
	if len(strings.TrimSpace(baseCommit)) == 0 || len(strings.TrimSpace(targetCommit)) == 0 {
		return errors.New(commitMissingMessageConstant)
	}
	return nil
}

func (client *Client) organizationURL(resourcePath string, queryParameters url.Values) string {
	return client.baseURL + "/" + url.PathEscape(client.organization) + "/" + apiPathSegmentConstant + "/" + resourcePath + "?" + queryParameters.Encode()
}

func (client *Client) projectURL(project string, resourcePath string, queryParameters url.Values) string {
	return client.baseURL + "/" + url.PathEscape(client.organization) + "/" + url.PathEscape(project) + "/" + apiPathSegmentConstant + "/" + resourcePath + "?" + queryParameters.Encode()
}

func (client *Client) repositoryURL(project string, repository string, resourcePath string, queryParameters url.Values) string {
	repositoryResource := repositoriesPathSegmentConstant + "/" + url.PathEscape(repository) + "/" + resourcePath
	return client.projectURL(project, repositoryResource, queryParameters)
}

func (client *Client) getJSON(executionContext context.Context, operationName string, requestURL string, target any) error {
	request, requestCreationError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestCreationError != nil {
		return fmt.Errorf(requestCreationErrorTemplate, operationName, requestCreationError)
	}

	if authorizationError := client.authorizer.Authorize(request); authorizationError != nil {
		return fmt.Errorf(requestAuthorizationErrorTemplate, operationName, authorizationError)
	}

	description := RequestDescription{Operation: operationName, Method: http.MethodGet, URL: requestURL}
	client.observer.RequestStarted(description)

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		client.observer.RequestFailed(description, executionError)
		return fmt.Errorf(requestExecutionErrorTemplate, operationName, executionError)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	client.observer.RequestCompleted(description, response.StatusCode)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		limitedBody, _ := io.ReadAll(io.LimitReader(response.Body, responseBodyReadLimitConstant))
		return fmt.Errorf(responseStatusErrorTemplate, operationName, response.StatusCode, strings.TrimSpace(string(limitedBody)))
	}

	if decodingError := json.NewDecoder(response.Body).Decode(target); decodingError != nil {
		return fmt.Errorf(responseDecodingErrorTemplate, operationName, decodingError)
	}

	return nil
}
