// Package tracker is a minimal Jira Cloud REST client used by the sync
// agent. It upserts Stories and Tasks deterministically via marker labels
// and known issue keys, and renders descriptions as Atlassian Document
// Format.
package tracker
