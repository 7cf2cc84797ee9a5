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

package testutil

import (
	"fmt"
	"sync/atomic"
)

var nextIssueID int64 = 10000

// IssueBuilder provides a fluent API for creating test issues in the wire
// format JiraServer serves. Defaults are deterministic so tests can assert
// on derived values such as epochs.
type IssueBuilder struct {
	id        int64
	key       string
	summary   string
	issueType string
	priority  string
	reporter  string
	assignee  string
	created   string
}

// NewIssueBuilder creates an issue builder with defaults
func NewIssueBuilder(key string) *IssueBuilder {
	return &IssueBuilder{
		id:        atomic.AddInt64(&nextIssueID, 1),
		key:       key,
		summary:   "Summary of " + key,
		issueType: "Task",
		priority:  "Medium",
		reporter:  "rep.user",
		created:   "2024-03-01T08:00:00.000+0000",
	}
}

// WithSummary sets the issue summary
func (b *IssueBuilder) WithSummary(summary string) *IssueBuilder {
	b.summary = summary
	return b
}

// WithType sets the issue type name
func (b *IssueBuilder) WithType(issueType string) *IssueBuilder {
	b.issueType = issueType
	return b
}

// WithPriority sets the priority name. An empty value omits the field from
// the wire format, like a Jira project without a priority scheme.
func (b *IssueBuilder) WithPriority(priority string) *IssueBuilder {
	b.priority = priority
	return b
}

// WithReporter sets the reporter username. An empty value omits the field.
func (b *IssueBuilder) WithReporter(username string) *IssueBuilder {
	b.reporter = username
	return b
}

// WithAssignee sets the assignee username. Issues are unassigned by default.
func (b *IssueBuilder) WithAssignee(username string) *IssueBuilder {
	b.assignee = username
	return b
}

// WithCreated sets the creation timestamp, in Jira format
// (2006-01-02T15:04:05.000+0000).
func (b *IssueBuilder) WithCreated(created string) *IssueBuilder {
	b.created = created
	return b
}

// Build creates the issue data structure
func (b *IssueBuilder) Build() map[string]interface{} {
	fields := map[string]interface{}{
		"summary":   b.summary,
		"issuetype": map[string]interface{}{"name": b.issueType},
		"created":   b.created,
	}
	if b.priority != "" {
		fields["priority"] = map[string]interface{}{"name": b.priority}
	}
	if b.reporter != "" {
		fields["reporter"] = BuildUser(b.reporter, "", "")
	}
	if b.assignee != "" {
		fields["assignee"] = BuildUser(b.assignee, "", "")
	} else {
		fields["assignee"] = nil
	}

	return map[string]interface{}{
		"id":     fmt.Sprintf("%d", b.id),
		"key":    b.key,
		"self":   fmt.Sprintf("https://jira.example.com/rest/api/2/issue/%d", b.id),
		"fields": fields,
	}
}

// CommentBuilder provides a fluent API for creating test comments in the
// wire format JiraServer serves.
type CommentBuilder struct {
	id      int
	author  map[string]interface{}
	body    string
	created string
	updated string
}

// NewCommentBuilder creates a comment builder with defaults
func NewCommentBuilder(id int) *CommentBuilder {
	return &CommentBuilder{
		id:      id,
		author:  BuildUser("commenter", "Connie Commenter", "connie@example.com"),
		body:    fmt.Sprintf("Comment %d", id),
		created: "2024-03-01T09:00:00.000+0000",
		updated: "2024-03-01T09:00:00.000+0000",
	}
}

// WithAuthor sets the comment author
func (b *CommentBuilder) WithAuthor(username, displayName, email string) *CommentBuilder {
	b.author = BuildUser(username, displayName, email)
	return b
}

// WithBody sets the comment body, in Jira wiki markup
func (b *CommentBuilder) WithBody(body string) *CommentBuilder {
	b.body = body
	return b
}

// WithCreated sets the creation and update timestamps. Call WithUpdated
// afterwards when the comment should look edited.
func (b *CommentBuilder) WithCreated(created string) *CommentBuilder {
	b.created = created
	b.updated = created
	return b
}

// WithUpdated sets the update timestamp
func (b *CommentBuilder) WithUpdated(updated string) *CommentBuilder {
	b.updated = updated
	return b
}

// Build creates the comment data structure
func (b *CommentBuilder) Build() map[string]interface{} {
	return map[string]interface{}{
		"id":      fmt.Sprintf("%d", b.id),
		"self":    fmt.Sprintf("https://jira.example.com/rest/api/2/issue/10001/comment/%d", b.id),
		"author":  b.author,
		"body":    b.body,
		"created": b.created,
		"updated": b.updated,
	}
}

// BuildUser creates a user data structure. Display name and email fall back
// to values derived from the username.
func BuildUser(username, displayName, email string) map[string]interface{} {
	if displayName == "" {
		displayName = "User " + username
	}
	if email == "" {
		email = username + "@example.com"
	}
	return map[string]interface{}{
		"name":         username,
		"displayName":  displayName,
		"emailAddress": email,
	}
}
