// Package export writes timestamped CSV files of requirements and test
// cases in a Jira-import friendly column layout.
package export
