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

// IssueIterator walks all issues matching a JQL query, fetching pages from
// the server as they are consumed. It follows the bufio.Scanner pattern:
//
//	for it.Next(ctx) {
//	    issue := it.Issue()
//	    ...
//	}
//	if err := it.Err(); err != nil {
//	    ...
//	}
//
// The iterator is lazy and not restartable. Issues whose key was already
// seen are skipped, so a record can never be yielded twice even when the
// server shifts page boundaries between requests.
type IssueIterator struct {
	client Client
	jql    string
	opts   SearchOptions

	page    []Issue
	idx     int
	startAt int
	total   int
	seen    map[string]struct{}
	current *Issue
	err     error
	done    bool
}

// NewIssueIterator creates an iterator over all issues matching jql.
// opts.StartAt is ignored; iteration always begins at the first match.
func NewIssueIterator(client Client, jql string, opts SearchOptions) *IssueIterator {
	return &IssueIterator{
		client: client,
		jql:    jql,
		opts:   opts,
		total:  -1,
		seen:   make(map[string]struct{}),
	}
}

// Next advances to the next issue. It returns false when the result set is
// exhausted or a fetch failed; the two cases are told apart via Err.
func (it *IssueIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}

	for {
		for it.idx < len(it.page) {
			issue := &it.page[it.idx]
			it.idx++
			if _, dup := it.seen[issue.Key]; dup {
				continue
			}
			it.seen[issue.Key] = struct{}{}
			it.current = issue
			return true
		}

		if it.total >= 0 && it.startAt >= it.total {
			it.done = true
			return false
		}

		it.opts.StartAt = it.startAt
		page, err := it.client.SearchIssues(ctx, it.jql, it.opts)
		if err != nil {
			it.err = err
			return false
		}

		it.total = page.Total
		it.startAt += len(page.Issues)
		it.page = page.Issues
		it.idx = 0

		// An empty page before total is reached means the server stopped
		// producing results; bail out instead of spinning.
		if len(page.Issues) == 0 {
			it.done = true
			return false
		}
	}
}

// Issue returns the issue produced by the last successful call to Next.
func (it *IssueIterator) Issue() *Issue {
	return it.current
}

// Err returns the first error encountered while fetching pages, or nil.
func (it *IssueIterator) Err() error {
	return it.err
}

// CommentIterator walks all comments of one issue in server order, fetching
// pages lazily. Usage mirrors IssueIterator.
type CommentIterator struct {
	client   Client
	issueKey string
	opts     PageOptions

	page    []Comment
	idx     int
	startAt int
	total   int
	seen    map[string]struct{}
	current *Comment
	err     error
	done    bool
}

// NewCommentIterator creates an iterator over all comments of issueKey.
// opts.StartAt is ignored; iteration always begins at the first comment.
func NewCommentIterator(client Client, issueKey string, opts PageOptions) *CommentIterator {
	return &CommentIterator{
		client:   client,
		issueKey: issueKey,
		opts:     opts,
		total:    -1,
		seen:     make(map[string]struct{}),
	}
}

// Next advances to the next comment. It returns false when the comment list
// is exhausted or a fetch failed; the two cases are told apart via Err.
func (it *CommentIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}

	for {
		for it.idx < len(it.page) {
			comment := &it.page[it.idx]
			it.idx++
			if _, dup := it.seen[comment.ID]; dup {
				continue
			}
			it.seen[comment.ID] = struct{}{}
			it.current = comment
			return true
		}

		if it.total >= 0 && it.startAt >= it.total {
			it.done = true
			return false
		}

		it.opts.StartAt = it.startAt
		page, err := it.client.Comments(ctx, it.issueKey, it.opts)
		if err != nil {
			it.err = err
			return false
		}

		it.total = page.Total
		it.startAt += len(page.Comments)
		it.page = page.Comments
		it.idx = 0

		if len(page.Comments) == 0 {
			it.done = true
			return false
		}
	}
}

// Comment returns the comment produced by the last successful call to Next.
func (it *CommentIterator) Comment() *Comment {
	return it.current
}

// Err returns the first error encountered while fetching pages, or nil.
func (it *CommentIterator) Err() error {
	return it.err
}
