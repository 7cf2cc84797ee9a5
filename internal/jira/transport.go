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
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prigio/jira-comments-downloader/internal/jiraerror"
	"github.com/prigio/jira-comments-downloader/pkg/version"
)

const (
	// maxResponseBytes caps how much of a response body is read (10MB).
	maxResponseBytes = 10 * 1024 * 1024

	// maxRetryAttempts bounds transparent retries of transient failures.
	maxRetryAttempts = 5

	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
)

// authTransport adds the authentication header and safety limits to HTTP requests
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	// Personal access tokens are sent as Bearer credentials
	req.Header.Set("Authorization", "Bearer "+t.token)

	// Add user agent for identification
	req.Header.Set("User-Agent", fmt.Sprintf("jira-comments-downloader/%s", version.Version))

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// retryTransport adds exponential backoff retry logic for transient failures.
// Jira Data Center instances routinely answer 500 or 503 during node
// restarts and 429 under load; those requests succeed moments later.
type retryTransport struct {
	base        http.RoundTripper
	maxAttempts int

	// Backoff overrides for tests; zero values select the defaults.
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	backoff := t.initialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	maxBackoff := t.maxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	inspector := jiraerror.NewInspector()

	for attempt := 0; attempt < t.maxAttempts; attempt++ {
		// Clone request for each attempt
		clonedReq := req.Clone(req.Context())

		resp, err := t.base.RoundTrip(clonedReq)

		if err == nil && !jiraerror.IsRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			if !inspector.IsRetryable(err) {
				return nil, err
			}
			lastErr = fmt.Errorf("attempt %d/%d: %w", attempt+1, t.maxAttempts, err)
		} else {
			// Retryable status; carry the code so callers can classify the
			// failure after retries run out.
			lastErr = fmt.Errorf("attempt %d/%d: %w", attempt+1, t.maxAttempts,
				&APIError{Status: resp.StatusCode})
			resp.Body.Close()
		}

		// Don't sleep after the last attempt
		if attempt < t.maxAttempts-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	return nil, fmt.Errorf("jira server unavailable after %d attempts: %w", t.maxAttempts, lastErr)
}
