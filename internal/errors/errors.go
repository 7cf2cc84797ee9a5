// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidToken indicates Jira rejected the access token.
	// Maps to exit code 2.
	ErrInvalidToken = errors.New("invalid jira token")

	// ErrBadQuery indicates Jira rejected the JQL search expression.
	// Maps to exit code 2.
	ErrBadQuery = errors.New("jql query rejected")

	// ErrIssueNotFound indicates a referenced issue does not exist or is not
	// visible to the authenticated user.
	// Maps to exit code 2.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrNetworkFailure indicates a network connection problem, including a
	// Jira server that stayed unavailable after transparent retries.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrConversion indicates a comment body could not be converted from Jira
	// markup to Markdown.
	// Maps to exit code 1.
	ErrConversion = errors.New("comment conversion failed")

	// ErrInvalidConfig indicates the configuration file, section, or one of
	// its options is missing or malformed.
	// Maps to exit code 1.
	ErrInvalidConfig = errors.New("invalid configuration")
)
