// Package commitdiff computes classified line-count statistics between two
// commits of a repository, excluding configured directory prefixes.
package commitdiff
