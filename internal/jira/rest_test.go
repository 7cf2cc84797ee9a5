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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
	"github.com/prigio/jira-comments-downloader/internal/jiraerror"
)

// newTestClient builds a client against a test server with fast retry
// backoff so failure tests do not sleep for real.
func newTestClient(t *testing.T, baseURL string) *RESTClient {
	t.Helper()
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &retryTransport{
				maxAttempts:    3,
				initialBackoff: time.Millisecond,
				maxBackoff:     5 * time.Millisecond,
				base: &authTransport{
					token: "test-token",
					base:  http.DefaultTransport,
				},
			},
		},
		inspector: jiraerror.NewInspector(),
	}
}

func TestNewRESTClient(t *testing.T) {
	client, err := NewRESTClient(ClientConfig{
		BaseURL: "https://jira.example.com/",
		Token:   "test-token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.baseURL != "https://jira.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", client.baseURL)
	}

	// Verify it implements the Client interface
	var _ Client = client
}

func TestNewRESTClient_BadCertificatePair(t *testing.T) {
	dir := t.TempDir()
	_, err := NewRESTClient(ClientConfig{
		BaseURL:    "https://jira.example.com",
		Token:      "test-token",
		ClientCert: filepath.Join(dir, "missing.crt"),
		ClientKey:  filepath.Join(dir, "missing.key"),
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, dlerrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRESTClient_SearchIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify endpoint and method
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("expected path /rest/api/2/search, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}

		// Verify authentication and pagination parameters
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("expected Bearer test-token, got %s", auth)
		}
		q := r.URL.Query()
		if got := q.Get("jql"); got != "project = DEMO" {
			t.Errorf("unexpected jql: %q", got)
		}
		if got := q.Get("startAt"); got != "10" {
			t.Errorf("unexpected startAt: %q", got)
		}
		if got := q.Get("maxResults"); got != "2" {
			t.Errorf("unexpected maxResults: %q", got)
		}
		if got := q.Get("fields"); got != "summary,issuetype" {
			t.Errorf("unexpected fields: %q", got)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt":    10,
			"maxResults": 2,
			"total":      14,
			"issues": []interface{}{
				map[string]interface{}{
					"id":  "10011",
					"key": "DEMO-11",
					"fields": map[string]interface{}{
						"summary":   "First issue",
						"issuetype": map[string]interface{}{"name": "Bug"},
						"priority":  map[string]interface{}{"name": "High"},
						"reporter": map[string]interface{}{
							"name":         "alice",
							"displayName":  "Alice Adams",
							"emailAddress": "alice@example.com",
						},
						"assignee": nil,
						"created":  "2024-03-01T08:00:00.000+0000",
					},
				},
				map[string]interface{}{
					"id":  "10012",
					"key": "DEMO-12",
					"fields": map[string]interface{}{
						"summary":   "Second issue",
						"issuetype": map[string]interface{}{"name": "Task"},
						"created":   "2024-03-02T10:15:00.000+0100",
					},
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	page, err := client.SearchIssues(context.Background(), "project = DEMO", SearchOptions{
		StartAt:    10,
		MaxResults: 2,
		Fields:     []string{"summary", "issuetype"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Total != 14 {
		t.Errorf("expected total 14, got %d", page.Total)
	}
	if len(page.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(page.Issues))
	}

	first := page.Issues[0]
	if first.Key != "DEMO-11" {
		t.Errorf("expected key DEMO-11, got %s", first.Key)
	}
	if first.Fields.Assignee != nil {
		t.Errorf("expected nil assignee, got %+v", first.Fields.Assignee)
	}
	wantCreated := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if !first.Fields.CreatedAt.Equal(wantCreated) {
		t.Errorf("expected created %v, got %v", wantCreated, first.Fields.CreatedAt)
	}

	second := page.Issues[1]
	if second.Fields.Priority != nil || second.Fields.Reporter != nil {
		t.Errorf("expected absent optional fields to stay nil, got %+v", second.Fields)
	}
}

func TestRESTClient_SearchIssues_Errors(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		response     interface{}
		wantSentinel error
		wantContains string
	}{
		{
			name:         "rejected query",
			responseCode: http.StatusBadRequest,
			response: map[string]interface{}{
				"errorMessages": []string{"Field 'projject' does not exist."},
			},
			wantSentinel: dlerrors.ErrBadQuery,
			wantContains: "projject",
		},
		{
			name:         "invalid token",
			responseCode: http.StatusUnauthorized,
			response:     map[string]interface{}{},
			wantSentinel: dlerrors.ErrInvalidToken,
			wantContains: "token",
		},
		{
			name:         "forbidden",
			responseCode: http.StatusForbidden,
			response:     map[string]interface{}{},
			wantSentinel: dlerrors.ErrInvalidToken,
			wantContains: "token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.responseCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.SearchIssues(context.Background(), "project = DEMO", SearchOptions{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantSentinel) {
				t.Errorf("expected sentinel %v, got %v", tt.wantSentinel, err)
			}
			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("expected error to contain %q, got %v", tt.wantContains, err)
			}
		})
	}
}

func TestRESTClient_SearchIssues_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt": 0, "maxResults": 100, "total": 0,
			"issues": []interface{}{},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	page, err := client.SearchIssues(context.Background(), "project = DEMO", SearchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if page.Total != 0 {
		t.Errorf("expected total 0, got %d", page.Total)
	}
}

func TestRESTClient_SearchIssues_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.SearchIssues(context.Background(), "project = DEMO", SearchOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, dlerrors.ErrNetworkFailure) {
		t.Errorf("expected ErrNetworkFailure, got %v", err)
	}
}

func TestRESTClient_Comments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/issue/DEMO-1/comment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("startAt"); got != "0" {
			t.Errorf("unexpected startAt: %q", got)
		}
		if got := q.Get("maxResults"); got != "100" {
			t.Errorf("unexpected maxResults: %q", got)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"startAt":    0,
			"maxResults": 100,
			"total":      1,
			"comments": []interface{}{
				map[string]interface{}{
					"id": "20001",
					"author": map[string]interface{}{
						"name":         "carol",
						"displayName":  "Carol Chen",
						"emailAddress": "carol@example.com",
					},
					"body":    "Looks good to me.",
					"created": "2024-03-01T09:00:00.000+0000",
					"updated": "2024-03-01T09:05:00.000+0000",
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	page, err := client.Comments(context.Background(), "DEMO-1", PageOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(page.Comments))
	}

	c := page.Comments[0]
	if c.Author.DisplayName != "Carol Chen" {
		t.Errorf("unexpected author: %+v", c.Author)
	}
	if c.UpdatedAt.Sub(c.CreatedAt) != 5*time.Minute {
		t.Errorf("expected 5m between created and updated, got %v", c.UpdatedAt.Sub(c.CreatedAt))
	}
}

func TestRESTClient_Comments_IssueNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{"Issue Does Not Exist"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Comments(context.Background(), "DEMO-404", PageOptions{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, dlerrors.ErrIssueNotFound) {
		t.Errorf("expected ErrIssueNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "DEMO-404") {
		t.Errorf("expected error to name the issue, got %v", err)
	}
}

func TestRESTClient_User(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/user" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("username"); got != "dave" {
			t.Errorf("unexpected username: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":         "dave",
			"displayName":  "Dave Grant",
			"emailAddress": "dave@example.com",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	u, err := client.User(context.Background(), "dave")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.EmailAddress != "dave@example.com" {
		t.Errorf("unexpected email: %q", u.EmailAddress)
	}
}

func TestRESTClient_User_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{"The user named 'ghost' does not exist"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.User(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// A missing user is an ordinary lookup miss, not a fatal condition.
	if errors.Is(err, dlerrors.ErrIssueNotFound) || errors.Is(err, dlerrors.ErrNetworkFailure) {
		t.Errorf("user lookup miss must not map to a fatal sentinel: %v", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected error to name the user, got %v", err)
	}
}

func TestRESTClient_Myself(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		wantSentinel error
	}{
		{
			name:         "success",
			responseCode: http.StatusOK,
		},
		{
			name:         "invalid token",
			responseCode: http.StatusUnauthorized,
			wantSentinel: dlerrors.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/rest/api/2/myself" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.responseCode)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"name":         "svc-reader",
					"displayName":  "Reader Service",
					"emailAddress": "svc-reader@example.com",
				})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			u, err := client.Myself(context.Background())

			if tt.wantSentinel != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tt.wantSentinel) {
					t.Errorf("expected sentinel %v, got %v", tt.wantSentinel, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Name != "svc-reader" {
				t.Errorf("unexpected user: %+v", u)
			}
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status only",
			err:  &APIError{Status: http.StatusBadGateway},
			want: "jira: 502 Bad Gateway",
		},
		{
			name: "with messages",
			err: &APIError{
				Status:   http.StatusBadRequest,
				Messages: []string{"first", "second"},
			},
			want: "jira: 400 Bad Request: first; second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
