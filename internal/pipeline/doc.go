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

// Package pipeline connects the Jira client, the markup converter and the
// record writer into the download run.
//
// A run walks every issue matched by a JQL query, walks every comment of
// every issue, converts each body to Markdown, resolves the users it
// mentions, and hands one record per comment to the writer. Records are
// assembled completely before they are written, and each one is written
// exactly once. The pipeline is sequential; memory use stays flat no matter
// how many comments the query matches, because no page is retained after
// its records have been emitted.
//
// Comments that cannot be converted abort the run by default; with
// [SkipOnConvertError] they are logged and dropped while their sequence
// position is preserved.
package pipeline
