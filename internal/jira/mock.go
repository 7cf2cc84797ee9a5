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

import (
	"context"
	"fmt"
	"time"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
)

// MockClient is a mock implementation of the Client interface for testing.
// Its test data uses fixed timestamps so tests that assert on derived values
// (epochs, deltas) stay deterministic.
type MockClient struct {
	// Issues to return from SearchIssues, paginated by the given options.
	Issues []Issue

	// CommentsByIssue maps issue keys to the comments Comments returns.
	// Unknown keys yield an empty page.
	CommentsByIssue map[string][]Comment

	// Users maps usernames to the accounts User returns.
	Users map[string]User

	// Me is the account Myself returns.
	Me User

	// Error to return from every call when set.
	Error error

	// Behavior flags
	ShouldFailAuth     bool
	ShouldFailNetwork  bool
	ShouldFailQuery    bool
	ShouldFailNotFound bool

	// Track calls for verification
	SearchCalls  int
	CommentCalls int
	UserCalls    int
	LastJQL      string
	LastIssueKey string
	LastOpts     SearchOptions
}

// NewMockClient creates a new mock client with default test data.
func NewMockClient() *MockClient {
	return &MockClient{
		Issues:          generateTestIssues(),
		CommentsByIssue: generateTestComments(),
		Users: map[string]User{
			"dave": {Name: "dave", DisplayName: "Dave Grant", EmailAddress: "dave@example.com"},
		},
		Me: User{Name: "svc-reader", DisplayName: "Reader Service", EmailAddress: "svc-reader@example.com"},
	}
}

// SearchIssues implements the Client interface.
func (m *MockClient) SearchIssues(ctx context.Context, jql string, opts SearchOptions) (*SearchPage, error) {
	m.SearchCalls++
	m.LastJQL = jql
	m.LastOpts = opts

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := m.failure(); err != nil {
		return nil, err
	}
	if m.ShouldFailQuery {
		return nil, fmt.Errorf("jira rejected the query: %w", dlerrors.ErrBadQuery)
	}

	size := pageSizeOrDefault(opts.MaxResults)
	start, end := pageBounds(len(m.Issues), opts.StartAt, size)
	return &SearchPage{
		StartAt:    opts.StartAt,
		MaxResults: size,
		Total:      len(m.Issues),
		Issues:     m.Issues[start:end],
	}, nil
}

// Comments implements the Client interface.
func (m *MockClient) Comments(ctx context.Context, issueKey string, opts PageOptions) (*CommentPage, error) {
	m.CommentCalls++
	m.LastIssueKey = issueKey

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := m.failure(); err != nil {
		return nil, err
	}
	if m.ShouldFailNotFound {
		return nil, fmt.Errorf("issue %s: %w", issueKey, dlerrors.ErrIssueNotFound)
	}

	all := m.CommentsByIssue[issueKey]
	size := pageSizeOrDefault(opts.MaxResults)
	start, end := pageBounds(len(all), opts.StartAt, size)
	return &CommentPage{
		StartAt:    opts.StartAt,
		MaxResults: size,
		Total:      len(all),
		Comments:   all[start:end],
	}, nil
}

// User implements the Client interface. Unknown usernames produce a plain
// error, matching the real endpoint's behavior of not being a transport
// failure.
func (m *MockClient) User(ctx context.Context, username string) (*User, error) {
	m.UserCalls++

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := m.failure(); err != nil {
		return nil, err
	}

	u, ok := m.Users[username]
	if !ok {
		return nil, fmt.Errorf("user %q does not exist", username)
	}
	return &u, nil
}

// Myself implements the Client interface.
func (m *MockClient) Myself(ctx context.Context) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := m.failure(); err != nil {
		return nil, err
	}

	me := m.Me
	return &me, nil
}

// failure returns the error simulated by the shared behavior flags, if any.
func (m *MockClient) failure() error {
	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", dlerrors.ErrInvalidToken)
	}
	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", dlerrors.ErrNetworkFailure)
	}
	return m.Error
}

// pageBounds clamps one page of size items starting at startAt to [0, n].
func pageBounds(n, startAt, size int) (int, int) {
	if startAt < 0 {
		startAt = 0
	}
	if startAt > n {
		startAt = n
	}
	end := startAt + size
	if end > n {
		end = n
	}
	return startAt, end
}

// generateTestIssues creates sample issue data for testing.
func generateTestIssues() []Issue {
	return []Issue{
		{
			ID:  "10001",
			Key: "DEMO-1",
			Fields: IssueFields{
				Summary:   "Importer crashes on empty payload",
				IssueType: Named{Name: "Bug"},
				Priority:  &Named{Name: "High"},
				Reporter:  &User{Name: "alice", DisplayName: "Alice Adams", EmailAddress: "alice@example.com"},
				Assignee:  &User{Name: "bob", DisplayName: "Bob Barker", EmailAddress: "bob@example.com"},
				Created:   "2024-03-01T08:00:00.000+0000",
				CreatedAt: mustTimestamp("2024-03-01T08:00:00.000+0000"),
			},
		},
		{
			ID:  "10002",
			Key: "DEMO-2",
			Fields: IssueFields{
				Summary:   "Document the export format",
				IssueType: Named{Name: "Task"},
				Priority:  &Named{Name: "Low"},
				Reporter:  &User{Name: "carol", DisplayName: "Carol Chen", EmailAddress: "carol@example.com"},
				Created:   "2024-03-02T10:15:00.000+0000",
				CreatedAt: mustTimestamp("2024-03-02T10:15:00.000+0000"),
			},
		},
	}
}

// generateTestComments creates sample comment data for testing.
func generateTestComments() map[string][]Comment {
	return map[string][]Comment{
		"DEMO-1": {
			{
				ID:        "20001",
				Author:    User{Name: "carol", DisplayName: "Carol Chen", EmailAddress: "carol@example.com"},
				Body:      "Can you take a look, [~dave]?",
				Created:   "2024-03-01T09:00:00.000+0000",
				Updated:   "2024-03-01T09:00:00.000+0000",
				CreatedAt: mustTimestamp("2024-03-01T09:00:00.000+0000"),
				UpdatedAt: mustTimestamp("2024-03-01T09:00:00.000+0000"),
			},
			{
				ID:        "20002",
				Author:    User{Name: "dave", DisplayName: "Dave Grant", EmailAddress: "dave@example.com"},
				Body:      "Reproduced with {{curl -X POST}} on staging.",
				Created:   "2024-03-01T12:30:00.000+0000",
				Updated:   "2024-03-01T13:00:00.000+0000",
				CreatedAt: mustTimestamp("2024-03-01T12:30:00.000+0000"),
				UpdatedAt: mustTimestamp("2024-03-01T13:00:00.000+0000"),
			},
		},
		"DEMO-2": {
			{
				ID:        "20003",
				Author:    User{Name: "alice", DisplayName: "Alice Adams", EmailAddress: "alice@example.com"},
				Body:      "The draft lives under {{docs/export.md}}.",
				Created:   "2024-03-02T11:00:00.000+0000",
				Updated:   "2024-03-02T11:00:00.000+0000",
				CreatedAt: mustTimestamp("2024-03-02T11:00:00.000+0000"),
				UpdatedAt: mustTimestamp("2024-03-02T11:00:00.000+0000"),
			},
		},
	}
}

// mustTimestamp parses a Jira timestamp literal for test fixtures.
func mustTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// MockClientOption allows configuring the mock client.
type MockClientOption func(*MockClient)

// WithIssues sets specific issues to return.
func WithIssues(issues []Issue) MockClientOption {
	return func(m *MockClient) {
		m.Issues = issues
	}
}

// WithComments sets the comments returned for one issue key.
func WithComments(issueKey string, comments []Comment) MockClientOption {
	return func(m *MockClient) {
		if m.CommentsByIssue == nil {
			m.CommentsByIssue = make(map[string][]Comment)
		}
		m.CommentsByIssue[issueKey] = comments
	}
}

// WithUsers sets the username lookup table.
func WithUsers(users map[string]User) MockClientOption {
	return func(m *MockClient) {
		m.Users = users
	}
}

// WithError makes the client return a specific error.
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure.
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// WithNetworkFailure makes the client simulate a network failure.
func WithNetworkFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailNetwork = true
	}
}

// WithQueryFailure makes the client simulate a rejected JQL query.
func WithQueryFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailQuery = true
	}
}

// NewMockClientWithOptions creates a mock client with options.
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
