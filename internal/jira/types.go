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
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is the format Jira Server uses for every timestamp,
// e.g. "2021-12-01T14:37:29.123+0100".
const timestampLayout = "2006-01-02T15:04:05.999-0700"

// defaultPageSize is the page size used when options do not set one.
const defaultPageSize = 100

// User identifies a Jira account. EmailAddress may be empty when the server
// is configured to hide addresses.
type User struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// Named is the {"name": ...} envelope Jira uses for enumerated issue fields
// such as issue type and priority.
type Named struct {
	Name string `json:"name"`
}

// Issue is one work item returned by a JQL search. Only the fields requested
// via SearchOptions.Fields are populated inside Fields.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields is the subset of Jira's per-issue field envelope this tool
// reads. Reporter, Assignee and Priority are pointers because Jira omits or
// nulls them depending on project configuration.
type IssueFields struct {
	Summary   string `json:"summary"`
	IssueType Named  `json:"issuetype"`
	Priority  *Named `json:"priority"`
	Reporter  *User  `json:"reporter"`
	Assignee  *User  `json:"assignee"`

	// Created is the raw timestamp string as returned by the server;
	// CreatedAt is its parsed form.
	Created   string    `json:"created"`
	CreatedAt time.Time `json:"-"`
}

// UnmarshalJSON decodes the field envelope and parses the creation timestamp.
func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type fields IssueFields
	if err := json.Unmarshal(data, (*fields)(f)); err != nil {
		return err
	}
	if f.Created != "" {
		t, err := time.Parse(timestampLayout, f.Created)
		if err != nil {
			return fmt.Errorf("bad issue created timestamp %q: %v", f.Created, err)
		}
		f.CreatedAt = t
	}
	return nil
}

// Comment is a single comment on an issue.
type Comment struct {
	ID     string `json:"id"`
	Self   string `json:"self"`
	Author User   `json:"author"`
	Body   string `json:"body"`

	// Created and Updated hold the raw timestamp strings as returned by the
	// server; CreatedAt and UpdatedAt are their parsed forms.
	Created   string    `json:"created"`
	Updated   string    `json:"updated"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UnmarshalJSON decodes a comment and parses its timestamps.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type comment Comment
	if err := json.Unmarshal(data, (*comment)(c)); err != nil {
		return err
	}
	var err error
	if c.Created != "" {
		if c.CreatedAt, err = time.Parse(timestampLayout, c.Created); err != nil {
			return fmt.Errorf("comment %s: bad created timestamp %q: %v", c.ID, c.Created, err)
		}
	}
	if c.Updated != "" {
		if c.UpdatedAt, err = time.Parse(timestampLayout, c.Updated); err != nil {
			return fmt.Errorf("comment %s: bad updated timestamp %q: %v", c.ID, c.Updated, err)
		}
	}
	return nil
}

// SearchPage is one page of a JQL search result. Jira paginates with
// startAt/maxResults offsets and reports the total match count on every page.
type SearchPage struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// CommentPage is one page of an issue's comment list.
type CommentPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Comments   []Comment `json:"comments"`
}

// SearchOptions configures a single search request.
type SearchOptions struct {
	// StartAt is the zero-based index of the first issue to return.
	StartAt int

	// MaxResults caps the number of issues per page. Zero means
	// defaultPageSize. Servers may clamp large values.
	MaxResults int

	// Fields restricts which issue fields the server includes in the
	// response. Empty means the server default (all navigable fields).
	Fields []string
}

// PageOptions configures a single comment page request.
type PageOptions struct {
	StartAt    int
	MaxResults int
}

// pageSizeOrDefault normalizes a requested page size.
func pageSizeOrDefault(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	return size
}
