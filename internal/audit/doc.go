// Package audit orchestrates the delivery audit workflow used by the
// devaudit CLI.
//
// It exposes CommandBuilder for wiring the audit Cobra command, Service for
// driving the workflow programmatically, and the collaborator abstractions
// for work item traversal, pull request collection, diff analysis, and
// result archival.
package audit
