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

package config

import (
	"fmt"
	"net/url"

	dlerrors "github.com/prigio/jira-comments-downloader/internal/errors"
)

const (
	// DefaultSection is the configuration section read when -s is not given.
	DefaultSection = "source"

	// DefaultBatchSize is the page size used for search and comment requests
	// when the section does not set batch_size.
	DefaultBatchSize = 100

	// maxBatchSize is the largest page size Jira servers commonly accept
	// before silently clamping maxResults.
	maxBatchSize = 1000
)

// Settings describes one Jira connection, read from a single section of the
// configuration file. It is constructed once by Load and passed explicitly to
// the client constructor; nothing in the application reads configuration
// through package-level state.
type Settings struct {
	// Endpoint is the base URL of the Jira server, e.g. https://jira.example.com.
	// Stored without a trailing slash.
	Endpoint string

	// Token is the personal access token sent as a Bearer credential.
	Token string

	// Query is the JQL expression selecting the issues whose comments are
	// exported.
	Query string

	// ClientCert and ClientKey optionally name a PEM certificate/key pair
	// used for mutual TLS. Either both are set or neither is.
	ClientCert string
	ClientKey  string

	// BatchSize is the page size used when paginating search results and
	// comment lists.
	BatchSize int
}

// Validate checks that the settings form a usable Jira connection. It catches
// empty values produced by environment expansion of unset variables, which a
// plain missing-key check cannot see.
func (s *Settings) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("endpoint is empty: %w", dlerrors.ErrInvalidConfig)
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("endpoint %q is not a valid http(s) URL: %w", s.Endpoint, dlerrors.ErrInvalidConfig)
	}
	if s.Token == "" {
		return fmt.Errorf("token is empty after environment expansion: %w", dlerrors.ErrInvalidConfig)
	}
	if s.Query == "" {
		return fmt.Errorf("query is empty: %w", dlerrors.ErrInvalidConfig)
	}
	if (s.ClientCert == "") != (s.ClientKey == "") {
		return fmt.Errorf("client_cert and client_key must be set together: %w", dlerrors.ErrInvalidConfig)
	}
	if s.BatchSize < 1 || s.BatchSize > maxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and %d, got %d: %w", maxBatchSize, s.BatchSize, dlerrors.ErrInvalidConfig)
	}
	return nil
}
