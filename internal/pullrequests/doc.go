// Package pullrequests collects pull request details for audited work items
// and rolls them up into per-repository summaries covering target branches,
// commit snapshots, and reviewer participation.
package pullrequests
