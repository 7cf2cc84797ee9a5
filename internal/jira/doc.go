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

// Package jira provides a client for the Jira Server REST API (rest/api/2)
// covering the small surface this tool needs: JQL search, per-issue comment
// listing, and user lookups. The client handles authentication, pagination,
// transparent retries on transient server errors, and response size limits.
//
// The package includes:
//   - A Client interface for searching issues and fetching comments
//   - A REST implementation over net/http with Bearer token authentication
//   - Lazy iterators that walk paginated search and comment results
//   - A mock client for testing
//
// Basic usage:
//
//	client, err := jira.NewRESTClient(jira.ClientConfig{
//	    BaseURL: "https://jira.example.com",
//	    Token:   token,
//	})
//	if err != nil {
//	    // Handle error
//	}
//	it := jira.NewIssueIterator(client, "project = ABC", jira.SearchOptions{})
//	for it.Next(ctx) {
//	    // Process it.Issue()
//	}
//	if err := it.Err(); err != nil {
//	    // Handle error
//	}
package jira
