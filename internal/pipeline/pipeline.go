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
	"context"
	"fmt"
	"log/slog"
	"time"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
	"github.com/prigio/jira-comments-downloader/internal/jira"
	"github.com/prigio/jira-comments-downloader/internal/markup"
	"github.com/prigio/jira-comments-downloader/internal/output"
)

// searchFields are the issue fields requested from the search endpoint.
// They are exactly the fields newTicket reads.
var searchFields = []string{"summary", "issuetype", "priority", "reporter", "assignee", "created"}

// Policy decides what happens when a comment body cannot be converted to
// Markdown.
type Policy int

const (
	// AbortOnConvertError stops the run at the first unconvertible comment.
	// This is the default.
	AbortOnConvertError Policy = iota

	// SkipOnConvertError logs the comment and moves on. The skipped comment
	// still consumes its sequence slot, so the surviving records keep the
	// positions they would have had.
	SkipOnConvertError
)

// ParsePolicy maps the command line values "abort" and "skip" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "abort":
		return AbortOnConvertError, nil
	case "skip":
		return SkipOnConvertError, nil
	default:
		return AbortOnConvertError, fmt.Errorf("unknown conversion error policy %q, use \"abort\" or \"skip\": %w", s, dlerrors.ErrInvalidConfig)
	}
}

// String returns the command line spelling of the policy.
func (p Policy) String() string {
	if p == SkipOnConvertError {
		return "skip"
	}
	return "abort"
}

// Options configures a pipeline run.
type Options struct {
	// Query is the JQL expression selecting the issues to process.
	Query string

	// BatchSize is the page size for search and comment requests. Zero
	// selects the server communication default.
	BatchSize int

	// OnConvertError decides whether an unconvertible comment aborts the
	// run or is skipped.
	OnConvertError Policy
}

// Stats are the counters accumulated over one run.
type Stats struct {
	// Issues is the number of issues the query matched and the run visited.
	Issues int

	// Comments is the number of records written.
	Comments int

	// SkippedComments counts comments dropped under SkipOnConvertError.
	SkippedComments int

	// UserLookups is the number of mention lookups sent to the server,
	// cache hits excluded.
	UserLookups int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Pipeline streams the comments of all issues matching a JQL query to a
// record writer, one fully assembled record at a time.
//
// A Pipeline is single use: create one, call Run once, read Stats.
type Pipeline struct {
	client jira.Client
	writer output.RecordWriter
	opts   Options
	stats  Stats
}

// New creates a pipeline over the given client and writer.
func New(client jira.Client, writer output.RecordWriter, opts Options) *Pipeline {
	return &Pipeline{
		client: client,
		writer: writer,
		opts:   opts,
	}
}

// Run executes the pipeline and returns the number of records written.
// Issues are processed in the order the server enumerates them, comments in
// the order the server stores them. The count is valid even when an error is
// returned: it is the number of records already written when the run stopped.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		p.stats.Elapsed = time.Since(start)
	}()

	resolver := newUserResolver(p.client, &p.stats)
	issues := jira.NewIssueIterator(p.client, p.opts.Query, jira.SearchOptions{
		MaxResults: p.opts.BatchSize,
		Fields:     searchFields,
	})

	count := 0
	for issues.Next(ctx) {
		issue := issues.Issue()
		p.stats.Issues++
		slog.Info("processing issue", "n", p.stats.Issues, "key", issue.Key)

		n, err := p.emitComments(ctx, issue, resolver)
		count += n
		if err != nil {
			return count, err
		}
	}
	if err := issues.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// Stats returns the counters of the run. Meaningful after Run has returned.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// emitComments writes one record per comment of the issue and returns how
// many it wrote. Sequence numbers and the previous-comment baseline advance
// for skipped comments too, so a skip never shifts the records after it.
func (p *Pipeline) emitComments(ctx context.Context, issue *jira.Issue, resolver *userResolver) (int, error) {
	comments := jira.NewCommentIterator(p.client, issue.Key, jira.PageOptions{
		MaxResults: p.opts.BatchSize,
	})

	written := 0
	seq := 0
	var prev *time.Time

	for comments.Next(ctx) {
		c := comments.Comment()

		body, err := markup.ToMarkdown(c.Body)
		if err != nil {
			if p.opts.OnConvertError == SkipOnConvertError {
				slog.Warn("skipping comment that cannot be converted",
					"issue", issue.Key, "comment", c.ID, "error", err)
				p.stats.SkippedComments++
				created := c.CreatedAt
				prev = &created
				seq++
				continue
			}
			return written, fmt.Errorf("converting comment %s of issue %s: %v: %w",
				c.ID, issue.Key, err, dlerrors.ErrConversion)
		}

		rec := NewRecord(issue, c, seq, prev, body, resolver.resolveEmails(ctx, c.Body))
		if err := p.writer.Write(rec); err != nil {
			return written, fmt.Errorf("writing comment %s of issue %s: %w", c.ID, issue.Key, err)
		}

		written++
		p.stats.Comments++
		created := c.CreatedAt
		prev = &created
		seq++
	}
	if err := comments.Err(); err != nil {
		return written, err
	}

	slog.Debug("issue done", "key", issue.Key, "comments", written)
	return written, nil
}

// userResolver resolves [~username] mentions to user profiles, caching
// successful lookups for the lifetime of a run. Failed lookups are not
// cached; a username that did not resolve once is retried the next time a
// comment mentions it.
type userResolver struct {
	client jira.Client
	stats  *Stats
	cache  map[string]*jira.User
}

func newUserResolver(client jira.Client, stats *Stats) *userResolver {
	return &userResolver{
		client: client,
		stats:  stats,
		cache:  make(map[string]*jira.User),
	}
}

// resolveEmails returns the addresses of the users mentioned in body, in
// first-mention order. Usernames that cannot be resolved are logged and left
// out; a mention must never take the whole run down.
func (r *userResolver) resolveEmails(ctx context.Context, body string) []string {
	emails := make([]string, 0)
	for _, name := range markup.Mentions(body) {
		u, ok := r.cache[name]
		if !ok {
			var err error
			r.stats.UserLookups++
			u, err = r.client.User(ctx, name)
			if err != nil {
				slog.Warn("user not found in jira", "user", name, "error", err)
				continue
			}
			r.cache[name] = u
		}
		emails = append(emails, u.EmailAddress)
	}
	return emails
}
