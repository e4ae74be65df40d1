// Package results persists audit run artifacts as timestamped JSON
// documents inside a configured output directory.
package results
