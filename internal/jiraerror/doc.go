// Package jiraerror provides error inspection capabilities for Jira REST API errors.
// It centralizes the logic for identifying different types of errors returned by
// Jira's REST endpoints, eliminating the need for string-based error checking
// throughout the codebase.
package jiraerror
