// Package profile loads audit selection profiles from YAML or JSON files.
// A profile names the organization and project to audit plus the parent
// feature, backlog, and ignore identifier lists driving work item traversal.
package profile
