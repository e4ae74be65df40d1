// Package devops provides a typed REST client for the Azure DevOps services
// consumed by the audit workflows: work item tracking, pull requests, and
// commit diff statistics.
//
// It exposes Client for issuing organization-scoped API calls, credential
// authorizers for PAT and bearer-token authentication, and a request event
// observer surface used to mirror API traffic into structured logs.
package devops
