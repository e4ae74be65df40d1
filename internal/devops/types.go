package devops

// WorkItem models the subset of the work item payload consumed by the audit
// workflows. Relations are only populated when the item is fetched with
// relation expansion.
type WorkItem struct {
	ID        int                `json:"id"`
	URL       string             `json:"url"`
	Fields    map[string]any     `json:"fields"`
	Relations []WorkItemRelation `json:"relations"`
}

// WorkItemRelation describes a single typed link attached to a work item.
type WorkItemRelation struct {
	Rel        string         `json:"rel"`
	URL        string         `json:"url"`
	Attributes map[string]any `json:"attributes"`
}

// IdentityReference identifies a user referenced by a pull request.
type IdentityReference struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// CommitReference carries a commit hash returned by the pull request API.
type CommitReference struct {
	CommitID string `json:"commitId"`
}

// GitRepository describes a repository registered within a project.
type GitRepository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch"`
	RemoteURL     string `json:"remoteUrl"`
}

// PullRequest models the pull request payload consumed by the aggregation
// workflows.
type PullRequest struct {
	PullRequestID         int                 `json:"pullRequestId"`
	Title                 string              `json:"title"`
	Status                string              `json:"status"`
	CreationDate          string              `json:"creationDate"`
	TargetRefName         string              `json:"targetRefName"`
	URL                   string              `json:"url"`
	Repository            GitRepository       `json:"repository"`
	Reviewers             []IdentityReference `json:"reviewers"`
	LastMergeSourceCommit CommitReference     `json:"lastMergeSourceCommit"`
}

// Project identifies a team project within the organization.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiffItem locates a changed file inside a commit diff listing.
type DiffItem struct {
	Path string `json:"path"`
}

// CommitDiffChange describes a single entry of a commit diff listing.
type CommitDiffChange struct {
	Item       DiffItem `json:"item"`
	ChangeType string   `json:"changeType"`
}

// CommitDiffs aggregates the changes reported between two commits.
type CommitDiffs struct {
	Changes []CommitDiffChange `json:"changes"`
}

// FileDiffCounts reports the per-file line counts of a content diff.
type FileDiffCounts struct {
	AddLineCount    int `json:"addLineCount"`
	DeleteLineCount int `json:"deleteLineCount"`
}

type projectListPayload struct {
	Count int       `json:"count"`
	Value []Project `json:"value"`
}

type repositoryListPayload struct {
	Count int             `json:"count"`
	Value []GitRepository `json:"value"`
}
