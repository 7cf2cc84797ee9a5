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

// Package main implements the jira comments downloader command-line
// interface. The tool runs a JQL query against a Jira server, downloads
// every comment of every matching issue and emits them as NDJSON, one
// record per line, with the bodies converted to Markdown.
//
// The CLI supports:
//   - Connection settings from an INI file with environment expansion
//   - Multiple server profiles selected with --section
//   - Customizable output destinations (stdout or file)
//   - A skip policy for comments whose markup cannot be converted
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	downloader -c <config.ini> [-s <section>] [flags]
//
// Example:
//
//	export JIRA_TOKEN=your_token
//	downloader -c jira.ini -s production --output comments.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication/authorization error
//   - 3: Network error
package main
