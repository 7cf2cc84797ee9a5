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

// Package markup converts Jira wiki markup to Markdown.
//
// The converter is line oriented. Block macros ({code}, {noformat},
// {quote}) are recognized when they stand alone on a line; a block macro
// that is opened but never closed is a conversion error, reported as
// *ConvertError with the macro name and the line it was opened on.
//
// Inline notation (monospace, bold, italic, strikethrough, links, user
// mentions, images) follows Jira's single-character markers. Insert,
// superscript and subscript notation has no plain-Markdown equivalent;
// their markers are dropped and the content kept.
//
// The package also extracts user mentions ([~username]) so callers can
// resolve them against the Jira user registry.
package markup
