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
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
	"github.com/prigio/jira-comments-downloader/internal/jiraerror"
)

// ClientConfig carries everything needed to construct a REST client. It is
// built once from the loaded configuration and passed by value; the client
// never reads ambient state.
type ClientConfig struct {
	// BaseURL is the root of the Jira server without the /rest suffix,
	// e.g. https://jira.example.com.
	BaseURL string

	// Token is the personal access token sent as a Bearer credential.
	Token string

	// ClientCert and ClientKey optionally name a PEM pair for mutual TLS.
	ClientCert string
	ClientKey  string
}

// RESTClient implements the Client interface against Jira Server's
// rest/api/2 endpoints. It is configured with:
//   - Bearer token authentication on every request
//   - Transparent retries with exponential backoff on transient failures
//   - Response size limiting to prevent memory issues
//   - Optional mutual TLS for servers that require client certificates
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	inspector  jiraerror.Inspector
}

// NewRESTClient creates a Jira REST client from the given configuration.
// It fails when a configured client certificate pair cannot be loaded.
func NewRESTClient(cfg ClientConfig) (*RESTClient, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("cannot load client certificate pair: %v: %w", err, dlerrors.ErrInvalidConfig)
		}
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	httpClient := &http.Client{
		Transport: &retryTransport{
			maxAttempts: maxRetryAttempts,
			base: &authTransport{
				token: cfg.Token,
				base:  transport,
			},
		},
	}

	return &RESTClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		inspector:  jiraerror.NewInspector(),
	}, nil
}

// SearchIssues retrieves one page of issues matching the JQL expression.
func (c *RESTClient) SearchIssues(ctx context.Context, jql string, opts SearchOptions) (*SearchPage, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(opts.StartAt))
	params.Set("maxResults", strconv.Itoa(pageSizeOrDefault(opts.MaxResults)))
	if len(opts.Fields) > 0 {
		params.Set("fields", strings.Join(opts.Fields, ","))
	}

	var page SearchPage
	if err := c.getJSON(ctx, "/rest/api/2/search", params, &page); err != nil {
		if c.inspector.IsBadRequestError(err) {
			return nil, fmt.Errorf("jira rejected the query: %v: %w", err, dlerrors.ErrBadQuery)
		}
		return nil, c.mapError(err, "searching issues")
	}
	return &page, nil
}

// Comments retrieves one page of comments for the given issue key.
func (c *RESTClient) Comments(ctx context.Context, issueKey string, opts PageOptions) (*CommentPage, error) {
	params := url.Values{}
	params.Set("startAt", strconv.Itoa(opts.StartAt))
	params.Set("maxResults", strconv.Itoa(pageSizeOrDefault(opts.MaxResults)))

	var page CommentPage
	path := "/rest/api/2/issue/" + url.PathEscape(issueKey) + "/comment"
	if err := c.getJSON(ctx, path, params, &page); err != nil {
		if c.inspector.IsNotFoundError(err) {
			return nil, fmt.Errorf("issue %s: %v: %w", issueKey, err, dlerrors.ErrIssueNotFound)
		}
		return nil, c.mapError(err, "fetching comments of "+issueKey)
	}
	return &page, nil
}

// User looks up an account by username.
func (c *RESTClient) User(ctx context.Context, username string) (*User, error) {
	params := url.Values{}
	params.Set("username", username)

	var u User
	if err := c.getJSON(ctx, "/rest/api/2/user", params, &u); err != nil {
		if c.inspector.IsNotFoundError(err) {
			return nil, fmt.Errorf("user %q does not exist: %w", username, err)
		}
		return nil, c.mapError(err, "looking up user "+username)
	}
	return &u, nil
}

// Myself returns the account the token authenticates as.
func (c *RESTClient) Myself(ctx context.Context) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/rest/api/2/myself", nil, &u); err != nil {
		return nil, c.mapError(err, "verifying the connection")
	}
	return &u, nil
}

// getJSON performs a GET against path and decodes the JSON response into v.
// Non-2xx responses become *APIError values carrying the status code and
// whatever error messages Jira included in its error envelope.
func (c *RESTClient) getJSON(ctx context.Context, path string, params url.Values, v interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// mapError translates request failures shared by all endpoints into
// sentinel-wrapped errors with actionable messages. Endpoint-specific cases
// (rejected JQL, missing issue) are handled by the callers before
// delegating here.
func (c *RESTClient) mapError(err error, op string) error {
	if c.inspector.IsAuthError(err) {
		return fmt.Errorf("jira rejected the access token; check the token option of the configuration section: %w", dlerrors.ErrInvalidToken)
	}
	if c.inspector.IsRetryable(err) || c.inspector.IsNetworkError(err) {
		return fmt.Errorf("cannot reach the jira server: %v: %w", err, dlerrors.ErrNetworkFailure)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// APIError is a non-2xx response from the Jira REST API.
type APIError struct {
	Status   int
	Messages []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("jira: %d %s: %s", e.Status, http.StatusText(e.Status), strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("jira: %d %s", e.Status, http.StatusText(e.Status))
}

// StatusCode implements jiraerror.StatusCoder, letting the inspector
// classify the failure by numeric status instead of string matching.
func (e *APIError) StatusCode() int {
	return e.Status
}

// newAPIError drains Jira's JSON error envelope from a failed response.
// The envelope looks like {"errorMessages": [...], "errors": {"field": "..."}}.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8192)).Decode(&envelope); err == nil {
		apiErr.Messages = envelope.ErrorMessages
		for field, msg := range envelope.Errors {
			apiErr.Messages = append(apiErr.Messages, field+": "+msg)
		}
	}
	return apiErr
}
