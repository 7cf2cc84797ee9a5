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

package pipeline

import (
	"math"
	"time"

	"github.com/prigio/jira-comments-downloader/internal/jira"
)

// Ticket is the issue context repeated inside every comment record.
// Fields are declared in alphabetical key order so the serialized object
// has a stable, sorted key layout.
type Ticket struct {
	// Assignee is the assignee's username, or null when the issue is
	// unassigned.
	Assignee     *string `json:"assignee"`
	Created      string  `json:"created"`
	CreatedEpoch float64 `json:"created_epoch"`
	IssueType    string  `json:"issuetype"`
	Key          string  `json:"key"`
	Priority     string  `json:"priority"`
	Reporter     string  `json:"reporter"`
	Title        string  `json:"title"`
}

// Record is one emitted comment. One record becomes one NDJSON line.
// Fields are declared in alphabetical key order so the serialized object
// has a stable, sorted key layout.
type Record struct {
	// Author is the comment author's display name; AuthorEmail their
	// address as reported by the server.
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email"`

	// Comment is the body converted to Markdown.
	Comment string `json:"comment"`

	// Created holds the server's raw timestamp; CreatedEpoch the same
	// instant as whole Unix seconds.
	Created      string  `json:"created"`
	CreatedEpoch float64 `json:"created_epoch"`

	// DeltaCreatedH is the hours elapsed since the previous comment of the
	// same issue, rounded to one decimal. It is absent on the first comment.
	DeltaCreatedH *float64 `json:"delta_created_h,omitempty"`

	// ReferencedUsers lists the email addresses of users mentioned in the
	// body. It is always present, empty when nobody is mentioned.
	ReferencedUsers []string `json:"referenced_users"`

	// Seq is the zero-based position of the comment within its issue.
	Seq int `json:"seq"`

	Ticket Ticket `json:"ticket"`

	Updated      string  `json:"updated"`
	UpdatedEpoch float64 `json:"updated_epoch"`
}

// NewRecord assembles the record for one comment. prev is the creation time
// of the issue's previous comment, nil for the first one. body is the
// already-converted Markdown text and referencedEmails the resolved mention
// addresses.
func NewRecord(issue *jira.Issue, c *jira.Comment, seq int, prev *time.Time, body string, referencedEmails []string) Record {
	if referencedEmails == nil {
		referencedEmails = []string{}
	}

	rec := Record{
		Author:          c.Author.DisplayName,
		AuthorEmail:     c.Author.EmailAddress,
		Comment:         body,
		Created:         c.Created,
		CreatedEpoch:    epochSeconds(c.CreatedAt),
		ReferencedUsers: referencedEmails,
		Seq:             seq,
		Ticket:          newTicket(issue),
		Updated:         c.Updated,
		UpdatedEpoch:    epochSeconds(c.UpdatedAt),
	}

	if prev != nil {
		delta := roundTenth(c.CreatedAt.Sub(*prev).Hours())
		rec.DeltaCreatedH = &delta
	}
	return rec
}

// newTicket projects the issue fields shared by all of its comment records.
// Optional fields degrade to their zero value when the server omitted them.
func newTicket(issue *jira.Issue) Ticket {
	f := issue.Fields
	t := Ticket{
		Created:      f.Created,
		CreatedEpoch: epochSeconds(f.CreatedAt),
		IssueType:    f.IssueType.Name,
		Key:          issue.Key,
		Title:        f.Summary,
	}
	if f.Assignee != nil {
		name := f.Assignee.Name
		t.Assignee = &name
	}
	if f.Priority != nil {
		t.Priority = f.Priority.Name
	}
	if f.Reporter != nil {
		t.Reporter = f.Reporter.Name
	}
	return t
}

// epochSeconds converts a timestamp to whole Unix seconds. Sub-second
// precision is dropped so equal wall-clock seconds compare equal across
// servers that report different fractional precision.
func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}

// roundTenth rounds to one decimal place.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
