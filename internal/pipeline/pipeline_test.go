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
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
	"github.com/prigio/jira-comments-downloader/internal/jira"
	"github.com/prigio/jira-comments-downloader/internal/output"
)

func TestMain(m *testing.M) {
	// The pipeline logs progress on every issue; keep test output readable.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func runPipeline(t *testing.T, client jira.Client, opts Options) (*Pipeline, *bytes.Buffer, int, error) {
	t.Helper()
	var buf bytes.Buffer
	p := New(client, output.NewWriter(&buf), opts)
	count, err := p.Run(context.Background())
	return p, &buf, count, err
}

func outputLines(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	raw := buf.String()
	if raw == "" {
		return nil
	}
	if !strings.HasSuffix(raw, "\n") {
		t.Fatalf("output does not end with a newline: %q", raw)
	}
	return strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
}

func TestPipeline_Run(t *testing.T) {
	mock := jira.NewMockClient()
	p, buf, count, err := runPipeline(t, mock, Options{Query: "project = DEMO"})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("Run() count = %d, want 3", count)
	}

	want := []string{
		`{"author":"Carol Chen","author_email":"carol@example.com",` +
			`"comment":"Can you take a look, @dave?",` +
			`"created":"2024-03-01T09:00:00.000+0000","created_epoch":1709283600,` +
			`"referenced_users":["dave@example.com"],"seq":0,` +
			`"ticket":{"assignee":"bob","created":"2024-03-01T08:00:00.000+0000","created_epoch":1709280000,` +
			`"issuetype":"Bug","key":"DEMO-1","priority":"High","reporter":"alice",` +
			`"title":"Importer crashes on empty payload"},` +
			`"updated":"2024-03-01T09:00:00.000+0000","updated_epoch":1709283600}`,
		`{"author":"Dave Grant","author_email":"dave@example.com",` +
			`"comment":"Reproduced with ` + "`curl -X POST`" + ` on staging.",` +
			`"created":"2024-03-01T12:30:00.000+0000","created_epoch":1709296200,"delta_created_h":3.5,` +
			`"referenced_users":[],"seq":1,` +
			`"ticket":{"assignee":"bob","created":"2024-03-01T08:00:00.000+0000","created_epoch":1709280000,` +
			`"issuetype":"Bug","key":"DEMO-1","priority":"High","reporter":"alice",` +
			`"title":"Importer crashes on empty payload"},` +
			`"updated":"2024-03-01T13:00:00.000+0000","updated_epoch":1709298000}`,
		`{"author":"Alice Adams","author_email":"alice@example.com",` +
			`"comment":"The draft lives under ` + "`docs/export.md`" + `.",` +
			`"created":"2024-03-02T11:00:00.000+0000","created_epoch":1709377200,` +
			`"referenced_users":[],"seq":0,` +
			`"ticket":{"assignee":null,"created":"2024-03-02T10:15:00.000+0000","created_epoch":1709374500,` +
			`"issuetype":"Task","key":"DEMO-2","priority":"Low","reporter":"carol",` +
			`"title":"Document the export format"},` +
			`"updated":"2024-03-02T11:00:00.000+0000","updated_epoch":1709377200}`,
	}
	if diff := cmp.Diff(want, outputLines(t, buf)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	if mock.LastJQL != "project = DEMO" {
		t.Errorf("query sent to server = %q, want %q", mock.LastJQL, "project = DEMO")
	}
	wantFields := []string{"summary", "issuetype", "priority", "reporter", "assignee", "created"}
	if diff := cmp.Diff(wantFields, mock.LastOpts.Fields); diff != "" {
		t.Errorf("requested fields mismatch (-want +got):\n%s", diff)
	}

	stats := p.Stats()
	if stats.Issues != 2 {
		t.Errorf("Stats().Issues = %d, want 2", stats.Issues)
	}
	if stats.Comments != 3 {
		t.Errorf("Stats().Comments = %d, want 3", stats.Comments)
	}
	if stats.SkippedComments != 0 {
		t.Errorf("Stats().SkippedComments = %d, want 0", stats.SkippedComments)
	}
	if stats.UserLookups != 1 {
		t.Errorf("Stats().UserLookups = %d, want 1", stats.UserLookups)
	}
	if mock.UserCalls != 1 {
		t.Errorf("mock.UserCalls = %d, want 1 (dave cached after first lookup)", mock.UserCalls)
	}
}

func TestPipeline_Run_NoMatches(t *testing.T) {
	mock := jira.NewMockClientWithOptions(jira.WithIssues(nil))
	p, buf, count, err := runPipeline(t, mock, Options{Query: "project = EMPTY"})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
	if buf.Len() != 0 {
		t.Errorf("output not empty for zero matches: %q", buf.String())
	}
	if stats := p.Stats(); stats.Issues != 0 {
		t.Errorf("Stats().Issues = %d, want 0", stats.Issues)
	}
}

func TestPipeline_Run_SmallBatches(t *testing.T) {
	mock := jira.NewMockClient()
	_, buf, count, err := runPipeline(t, mock, Options{Query: "project = DEMO", BatchSize: 1})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("Run() count = %d, want 3", count)
	}
	if lines := outputLines(t, buf); len(lines) != 3 {
		t.Errorf("output has %d lines, want 3", len(lines))
	}
	// Two issues at one per page, then 2+1 comments at one per page.
	if mock.SearchCalls != 2 {
		t.Errorf("SearchCalls = %d, want 2", mock.SearchCalls)
	}
	if mock.CommentCalls != 3 {
		t.Errorf("CommentCalls = %d, want 3", mock.CommentCalls)
	}
}

func TestPipeline_Run_UnresolvedMentionsAreSkipped(t *testing.T) {
	issue := jira.Issue{
		ID:  "10009",
		Key: "DEMO-9",
		Fields: jira.IssueFields{
			Summary:   "Mention handling",
			IssueType: jira.Named{Name: "Task"},
			Created:   "2024-03-01T08:00:00.000+0000",
			CreatedAt: mustTime(t, "2024-03-01T08:00:00.000+0000"),
		},
	}
	comments := []jira.Comment{
		{
			ID:        "30001",
			Author:    jira.User{Name: "carol", DisplayName: "Carol Chen", EmailAddress: "carol@example.com"},
			Body:      "Ping [~dave] and [~ghost].",
			Created:   "2024-03-01T09:00:00.000+0000",
			Updated:   "2024-03-01T09:00:00.000+0000",
			CreatedAt: mustTime(t, "2024-03-01T09:00:00.000+0000"),
			UpdatedAt: mustTime(t, "2024-03-01T09:00:00.000+0000"),
		},
		{
			ID:        "30002",
			Author:    jira.User{Name: "carol", DisplayName: "Carol Chen", EmailAddress: "carol@example.com"},
			Body:      "Again [~dave] and [~ghost].",
			Created:   "2024-03-01T10:00:00.000+0000",
			Updated:   "2024-03-01T10:00:00.000+0000",
			CreatedAt: mustTime(t, "2024-03-01T10:00:00.000+0000"),
			UpdatedAt: mustTime(t, "2024-03-01T10:00:00.000+0000"),
		},
	}
	mock := jira.NewMockClientWithOptions(
		jira.WithIssues([]jira.Issue{issue}),
		jira.WithComments("DEMO-9", comments),
	)

	p, buf, count, err := runPipeline(t, mock, Options{Query: "key = DEMO-9"})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("Run() count = %d, want 2", count)
	}

	for i, line := range outputLines(t, buf) {
		if !strings.Contains(line, `"referenced_users":["dave@example.com"]`) {
			t.Errorf("line %d: referenced_users should hold only the resolved user: %s", i, line)
		}
	}

	// dave is cached after the first comment; ghost fails and is retried.
	if mock.UserCalls != 3 {
		t.Errorf("mock.UserCalls = %d, want 3", mock.UserCalls)
	}
	if stats := p.Stats(); stats.UserLookups != 3 {
		t.Errorf("Stats().UserLookups = %d, want 3", stats.UserLookups)
	}
}

func convertFailureFixture(t *testing.T, badFirst bool) *jira.MockClient {
	t.Helper()
	issue := jira.Issue{
		ID:  "10008",
		Key: "DEMO-8",
		Fields: jira.IssueFields{
			Summary:   "Markup edge cases",
			IssueType: jira.Named{Name: "Bug"},
			Created:   "2024-03-01T08:00:00.000+0000",
			CreatedAt: mustTime(t, "2024-03-01T08:00:00.000+0000"),
		},
	}
	bad := jira.Comment{
		ID:        "40001",
		Author:    jira.User{Name: "erin", DisplayName: "Erin Estrada", EmailAddress: "erin@example.com"},
		Body:      "{code}\nnever closed",
		Created:   "2024-03-01T09:00:00.000+0000",
		Updated:   "2024-03-01T09:00:00.000+0000",
		CreatedAt: mustTime(t, "2024-03-01T09:00:00.000+0000"),
		UpdatedAt: mustTime(t, "2024-03-01T09:00:00.000+0000"),
	}
	good := jira.Comment{
		ID:        "40002",
		Author:    jira.User{Name: "erin", DisplayName: "Erin Estrada", EmailAddress: "erin@example.com"},
		Body:      "All clear.",
		Created:   "2024-03-01T10:30:00.000+0000",
		Updated:   "2024-03-01T10:30:00.000+0000",
		CreatedAt: mustTime(t, "2024-03-01T10:30:00.000+0000"),
		UpdatedAt: mustTime(t, "2024-03-01T10:30:00.000+0000"),
	}
	comments := []jira.Comment{bad, good}
	if !badFirst {
		comments = []jira.Comment{good, bad}
	}
	return jira.NewMockClientWithOptions(
		jira.WithIssues([]jira.Issue{issue}),
		jira.WithComments("DEMO-8", comments),
	)
}

func TestPipeline_Run_ConvertErrorAborts(t *testing.T) {
	mock := convertFailureFixture(t, false)
	_, buf, count, err := runPipeline(t, mock, Options{Query: "key = DEMO-8"})
	if err == nil {
		t.Fatal("Run() succeeded, want conversion error")
	}
	if !errors.Is(err, dlerrors.ErrConversion) {
		t.Errorf("error = %v, want ErrConversion", err)
	}
	for _, part := range []string{"DEMO-8", "40002", "unterminated"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("error %q does not mention %q", err, part)
		}
	}
	// The good comment came first and was already written.
	if count != 1 {
		t.Errorf("Run() count = %d, want 1", count)
	}
	if lines := outputLines(t, buf); len(lines) != 1 {
		t.Errorf("output has %d lines, want 1", len(lines))
	}
}

func TestPipeline_Run_ConvertErrorSkips(t *testing.T) {
	mock := convertFailureFixture(t, true)
	p, buf, count, err := runPipeline(t, mock, Options{
		Query:          "key = DEMO-8",
		OnConvertError: SkipOnConvertError,
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("Run() count = %d, want 1", count)
	}
	if stats := p.Stats(); stats.SkippedComments != 1 {
		t.Errorf("Stats().SkippedComments = %d, want 1", stats.SkippedComments)
	}

	lines := outputLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("output has %d lines, want 1", len(lines))
	}
	// The skipped comment keeps its sequence slot and stays the delta
	// baseline: the surviving comment is seq 1, 1.5 hours after the bad one.
	if !strings.Contains(lines[0], `"seq":1`) {
		t.Errorf("surviving comment lost its sequence slot: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"delta_created_h":1.5`) {
		t.Errorf("delta not measured against the skipped comment: %s", lines[0])
	}
}

func TestPipeline_Run_QueryError(t *testing.T) {
	mock := jira.NewMockClientWithOptions(jira.WithQueryFailure())
	_, buf, count, err := runPipeline(t, mock, Options{Query: "bogus ="})
	if !errors.Is(err, dlerrors.ErrBadQuery) {
		t.Errorf("error = %v, want ErrBadQuery", err)
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
	if buf.Len() != 0 {
		t.Errorf("output not empty after query failure: %q", buf.String())
	}
}

func TestPipeline_Run_CommentFetchError(t *testing.T) {
	mock := jira.NewMockClient()
	mock.ShouldFailNotFound = true
	_, _, count, err := runPipeline(t, mock, Options{Query: "project = DEMO"})
	if !errors.Is(err, dlerrors.ErrIssueNotFound) {
		t.Errorf("error = %v, want ErrIssueNotFound", err)
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(record interface{}) error { return w.err }
func (w *failingWriter) Close() error                   { return nil }

func TestPipeline_Run_WriterError(t *testing.T) {
	sentinel := errors.New("disk full")
	p := New(jira.NewMockClient(), &failingWriter{err: sentinel}, Options{Query: "project = DEMO"})

	count, err := p.Run(context.Background())
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want wrapped writer error", err)
	}
	if !strings.Contains(err.Error(), "DEMO-1") {
		t.Errorf("error %q does not name the issue", err)
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	p := New(jira.NewMockClient(), output.NewWriter(&buf), Options{Query: "project = DEMO"})
	count, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{input: "abort", want: AbortOnConvertError},
		{input: "skip", want: SkipOnConvertError},
		{input: "ABORT", wantErr: true},
		{input: "", wantErr: true},
		{input: "drop", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePolicy(%q) succeeded, want error", tt.input)
				}
				if !errors.Is(err, dlerrors.ErrInvalidConfig) {
					t.Errorf("error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPolicy_String(t *testing.T) {
	if got := AbortOnConvertError.String(); got != "abort" {
		t.Errorf("AbortOnConvertError.String() = %q, want %q", got, "abort")
	}
	if got := SkipOnConvertError.String(); got != "skip" {
		t.Errorf("SkipOnConvertError.String() = %q, want %q", got, "skip")
	}
}
