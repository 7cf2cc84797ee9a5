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

package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// ConvertError reports a wiki-markup block that was opened but never closed.
type ConvertError struct {
	Macro string // macro name without braces, e.g. "code"
	Line  int    // 1-based line the block was opened on
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	return fmt.Sprintf("unterminated {%s} block opened on line %d", e.Macro, e.Line)
}

// Block-level patterns, matched against whitespace-trimmed lines.
var (
	codeOpenPattern   = regexp.MustCompile(`^\{code(?::([^}]*))?\}$`)
	noformatPattern   = regexp.MustCompile(`^\{noformat\}$`)
	quotePattern      = regexp.MustCompile(`^\{quote\}$`)
	headingPattern    = regexp.MustCompile(`^h([1-6])\.\s*`)
	blockquotePattern = regexp.MustCompile(`^bq\.\s*`)
	rulerPattern      = regexp.MustCompile(`^-{4,}$`)
	listPattern       = regexp.MustCompile(`^([*#]+)\s+`)
)

// Inline patterns, applied in order. Monospace spans are cut out first so
// the other patterns never rewrite their content.
var (
	monoPattern     = regexp.MustCompile(`\{\{(.+?)\}\}`)
	colorPattern    = regexp.MustCompile(`\{color(?::[^}]*)?\}`)
	linkPattern     = regexp.MustCompile(`\[([^\]|]+)\|([^\]]+)\]`)
	bareLinkPattern = regexp.MustCompile(`\[(https?://[^\]]+)\]`)
	imagePattern    = regexp.MustCompile(`!([^!\s]+)!`)
	citationPattern = regexp.MustCompile(`\?\?(\S.*?)\?\?`)
	boldPattern     = regexp.MustCompile(`\*(\S.*?)\*`)
	insertPattern   = regexp.MustCompile(`\+([^+\s][^+]*)\+`)
	superPattern    = regexp.MustCompile(`\^([^\s^]+)\^`)
	subPattern      = regexp.MustCompile(`~([^\s~]+)~`)
	strikePattern   = regexp.MustCompile(`(^|\s)-(\S(?:.*?\S)?)-(\s|$)`)
	italicPattern   = regexp.MustCompile(`_(\S.*?)_`)
)

// converter states
const (
	stateNormal = iota
	stateCode
	stateNoformat
	stateQuote
)

// ToMarkdown converts Jira wiki markup to Markdown. It fails when a block
// macro is left unterminated; partial output is never returned.
func ToMarkdown(src string) (string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))

	state := stateNormal
	openMacro := ""
	openLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateCode:
			if trimmed == "{code}" {
				out = append(out, "```")
				state = stateNormal
				continue
			}
			out = append(out, line)

		case stateNoformat:
			if noformatPattern.MatchString(trimmed) {
				out = append(out, "```")
				state = stateNormal
				continue
			}
			out = append(out, line)

		case stateQuote:
			if quotePattern.MatchString(trimmed) {
				state = stateNormal
				continue
			}
			out = append(out, quoteLine(convertInline(trimmed)))

		default:
			switch {
			case codeOpenPattern.MatchString(trimmed):
				params := codeOpenPattern.FindStringSubmatch(trimmed)[1]
				out = append(out, "```"+codeLanguage(params))
				state = stateCode
				openMacro, openLine = "code", i+1

			case noformatPattern.MatchString(trimmed):
				out = append(out, "```")
				state = stateNoformat
				openMacro, openLine = "noformat", i+1

			case quotePattern.MatchString(trimmed):
				state = stateQuote
				openMacro, openLine = "quote", i+1

			case headingPattern.MatchString(trimmed):
				m := headingPattern.FindStringSubmatch(trimmed)
				depth := int(m[1][0] - '0')
				rest := trimmed[len(m[0]):]
				out = append(out, strings.Repeat("#", depth)+" "+convertInline(rest))

			case blockquotePattern.MatchString(trimmed):
				rest := trimmed[len(blockquotePattern.FindString(trimmed)):]
				out = append(out, quoteLine(convertInline(rest)))

			case rulerPattern.MatchString(trimmed):
				out = append(out, "---")

			case strings.HasPrefix(trimmed, "||"):
				cells := convertCells(splitCells(trimmed, "||"))
				out = append(out, "| "+strings.Join(cells, " | ")+" |")
				sep := make([]string, len(cells))
				for j := range sep {
					sep[j] = "---"
				}
				out = append(out, "| "+strings.Join(sep, " | ")+" |")

			case strings.HasPrefix(trimmed, "|"):
				cells := convertCells(splitCells(trimmed, "|"))
				out = append(out, "| "+strings.Join(cells, " | ")+" |")

			case listPattern.MatchString(trimmed):
				m := listPattern.FindStringSubmatch(trimmed)
				markers := m[1]
				rest := trimmed[len(m[0]):]
				bullet := "- "
				if markers[len(markers)-1] == '#' {
					bullet = "1. "
				}
				indent := strings.Repeat("  ", len(markers)-1)
				out = append(out, indent+bullet+convertInline(rest))

			default:
				out = append(out, convertInline(line))
			}
		}
	}

	if state != stateNormal {
		return "", &ConvertError{Macro: openMacro, Line: openLine}
	}
	return strings.Join(out, "\n"), nil
}

// convertInline rewrites Jira inline notation to Markdown within one line.
func convertInline(s string) string {
	// Cut monospace spans out before anything else touches them.
	var protected []string
	s = monoPattern.ReplaceAllStringFunc(s, func(m string) string {
		content := monoPattern.FindStringSubmatch(m)[1]
		rendered := "`" + content + "`"
		if strings.Contains(content, "`") {
			rendered = "`` " + content + " ``"
		}
		protected = append(protected, rendered)
		return fmt.Sprintf("\x00%d\x00", len(protected)-1)
	})

	s = colorPattern.ReplaceAllString(s, "")
	s = mentionPattern.ReplaceAllString(s, "@$1")
	s = linkPattern.ReplaceAllString(s, "[$1]($2)")
	s = bareLinkPattern.ReplaceAllString(s, "<$1>")
	s = imagePattern.ReplaceAllString(s, "![$1]($1)")
	s = citationPattern.ReplaceAllString(s, "*$1*")
	s = boldPattern.ReplaceAllString(s, "**$1**")
	s = insertPattern.ReplaceAllString(s, "$1")
	s = superPattern.ReplaceAllString(s, "$1")
	s = subPattern.ReplaceAllString(s, "$1")
	s = strikePattern.ReplaceAllString(s, "$1~~$2~~$3")
	s = italicPattern.ReplaceAllString(s, "*$1*")

	for i, r := range protected {
		s = strings.Replace(s, fmt.Sprintf("\x00%d\x00", i), r, 1)
	}
	return s
}

// codeLanguage extracts the fence language from a {code} parameter string
// such as "java" or "title=Example.java|language=java".
func codeLanguage(params string) string {
	if params == "" {
		return ""
	}
	for _, part := range strings.Split(params, "|") {
		if key, value, ok := strings.Cut(part, "="); ok {
			if key == "language" || key == "lang" {
				return value
			}
		} else if part != "" {
			return part
		}
	}
	return ""
}

// splitCells splits one table line into trimmed cell contents.
func splitCells(line, sep string) []string {
	parts := strings.Split(line, sep)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// The separators open and close the row, leaving empty fragments at
	// both ends.
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// convertCells applies inline conversion to every table cell.
func convertCells(cells []string) []string {
	for i, c := range cells {
		cells[i] = convertInline(c)
	}
	return cells
}

// quoteLine prefixes one converted line for a Markdown blockquote.
func quoteLine(content string) string {
	if content == "" {
		return ">"
	}
	return "> " + content
}
