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

package jira

import "context"

// Client defines the interface for interacting with the Jira REST API.
// This interface allows for easy mocking in tests.
type Client interface {
	// SearchIssues retrieves one page of issues matching the JQL expression.
	// Pagination uses opts.StartAt offsets; the returned page carries the
	// total match count so callers can tell when the result is exhausted.
	SearchIssues(ctx context.Context, jql string, opts SearchOptions) (*SearchPage, error)

	// Comments retrieves one page of the comments attached to an issue,
	// in the order the server stores them.
	Comments(ctx context.Context, issueKey string, opts PageOptions) (*CommentPage, error)

	// User looks up a Jira account by username. Used to resolve [~name]
	// mentions found in comment bodies.
	User(ctx context.Context, username string) (*User, error)

	// Myself returns the account the token authenticates as. Called once at
	// startup to verify the connection before any output is produced.
	Myself(ctx context.Context) (*User, error)
}
