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

// Package testutil provides common test helpers for the jira comments
// downloader.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// DefaultTestToken is the bearer token JiraServer accepts unless
// RequireToken overrides it. ServerConfig emits the same value.
const DefaultTestToken = "test-token"

// JiraServer simulates the subset of the Jira Server REST API the downloader
// talks to: search, per-issue comments, user lookup and the myself probe.
// Issues are served in the order they were added, paginated by the startAt
// and maxResults request parameters.
type JiraServer struct {
	*httptest.Server

	// RequestCount is the total number of requests received, across all
	// endpoints. Read with atomic.LoadInt32.
	RequestCount int32

	mu            sync.Mutex
	issues        []map[string]interface{}
	comments      map[string][]map[string]interface{}
	users         map[string]map[string]interface{}
	myself        map[string]interface{}
	requiredToken string
	searchCalls   int
	commentCalls  int
	lastSearch    url.Values
}

// NewJiraServer starts a server with an empty project and a default service
// account. Populate it with AddIssue and AddUser before running the client.
func NewJiraServer(t *testing.T) *JiraServer {
	t.Helper()

	s := &JiraServer{
		comments: make(map[string][]map[string]interface{}),
		users:    make(map[string]map[string]interface{}),
		myself: map[string]interface{}{
			"name":         "svc-reader",
			"displayName":  "Reader Service",
			"emailAddress": "svc-reader@example.com",
		},
		requiredToken: DefaultTestToken,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddIssue registers an issue and its comments. The issue map must carry a
// "key" entry; use NewIssueBuilder to produce one.
func (s *JiraServer) AddIssue(issue map[string]interface{}, comments ...map[string]interface{}) {
	key, ok := issue["key"].(string)
	if !ok || key == "" {
		panic("testutil: issue has no key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append(s.issues, issue)
	s.comments[key] = append([]map[string]interface{}{}, comments...)
}

// AddUser registers an account for the user lookup endpoint. The map must
// carry a "name" entry; use BuildUser to produce one.
func (s *JiraServer) AddUser(user map[string]interface{}) {
	name, ok := user["name"].(string)
	if !ok || name == "" {
		panic("testutil: user has no name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = user
}

// RequireToken changes the bearer token the server accepts. Any other
// Authorization header is answered with 401.
func (s *JiraServer) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requiredToken = token
}

// SearchRequests returns how many search requests the server has received.
func (s *JiraServer) SearchRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls
}

// CommentRequests returns how many comment page requests the server has
// received, over all issues.
func (s *JiraServer) CommentRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentCalls
}

// LastSearchParams returns the query parameters of the most recent search
// request, nil before the first one.
func (s *JiraServer) LastSearchParams() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSearch
}

func (s *JiraServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.RequestCount, 1)

	s.mu.Lock()
	token := s.requiredToken
	s.mu.Unlock()
	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		writeJiraError(w, http.StatusUnauthorized,
			"You do not have permission to access this resource.")
		return
	}

	switch {
	case r.URL.Path == "/rest/api/2/search":
		s.handleSearch(w, r)
	case r.URL.Path == "/rest/api/2/myself":
		writeJSON(w, s.myself)
	case r.URL.Path == "/rest/api/2/user":
		s.handleUser(w, r)
	case strings.HasPrefix(r.URL.Path, "/rest/api/2/issue/") && strings.HasSuffix(r.URL.Path, "/comment"):
		s.handleComments(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *JiraServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.searchCalls++
	s.lastSearch = r.URL.Query()
	issues := s.issues
	s.mu.Unlock()

	startAt := intParam(r, "startAt", 0)
	maxResults := intParam(r, "maxResults", 50)
	start, end := pageBounds(len(issues), startAt, maxResults)

	writeJSON(w, map[string]interface{}{
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(issues),
		"issues":     issues[start:end],
	})
}

func (s *JiraServer) handleComments(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rest/api/2/issue/"), "/comment")

	s.mu.Lock()
	s.commentCalls++
	comments, known := s.comments[key]
	s.mu.Unlock()

	if !known {
		writeJiraError(w, http.StatusNotFound, "Issue Does Not Exist")
		return
	}

	startAt := intParam(r, "startAt", 0)
	maxResults := intParam(r, "maxResults", 50)
	start, end := pageBounds(len(comments), startAt, maxResults)

	writeJSON(w, map[string]interface{}{
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(comments),
		"comments":   comments[start:end],
	})
}

func (s *JiraServer) handleUser(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")

	s.mu.Lock()
	user, ok := s.users[name]
	s.mu.Unlock()

	if !ok {
		writeJiraError(w, http.StatusNotFound, "The user named '"+name+"' does not exist")
		return
	}
	writeJSON(w, user)
}

// NewErrorServer creates a mock server that always returns the specified error
func NewErrorServer(t *testing.T, statusCode int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	}))
	t.Cleanup(server.Close)
	return server
}

// TransientErrorServer fails a number of requests before behaving like an
// empty project.
type TransientErrorServer struct {
	*httptest.Server
	RequestCount int32
}

// NewTransientErrorServer creates a mock server that fails N times then succeeds
func NewTransientErrorServer(t *testing.T, failCount, errorCode int) *TransientErrorServer {
	t.Helper()
	s := &TransientErrorServer{}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&s.RequestCount, 1)

		if count <= int32(failCount) {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}

		switch r.URL.Path {
		case "/rest/api/2/myself":
			writeJSON(w, map[string]interface{}{
				"name":         "svc-reader",
				"displayName":  "Reader Service",
				"emailAddress": "svc-reader@example.com",
			})
		default:
			// Success after failures: an empty search result.
			writeJSON(w, map[string]interface{}{
				"startAt":    0,
				"maxResults": 50,
				"total":      0,
				"issues":     []interface{}{},
			})
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// AssertSearchRequest validates a search request structure
func AssertSearchRequest(t *testing.T, r *http.Request) {
	t.Helper()
	if r.URL.Path != "/rest/api/2/search" {
		t.Errorf("Unexpected path: %s", r.URL.Path)
	}
	if r.Method != "GET" {
		t.Errorf("Expected GET method, got: %s", r.Method)
	}
	if q := r.URL.Query().Get("jql"); q == "" {
		t.Error("Expected a jql query parameter")
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

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

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJiraError(w http.ResponseWriter, status int, messages ...string) {
	msgs := make([]string, 0, len(messages))
	msgs = append(msgs, messages...)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errorMessages": msgs,
		"errors":        map[string]string{},
	})
}
