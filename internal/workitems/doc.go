// Package workitems implements the hierarchical work item traversal that
// decides which backlog items are in scope for an audit run.
//
// It exposes Resolver for expanding parent features to their children,
// assembling the audited identifier set, and extracting pull request
// references from work item relations.
package workitems
