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

package testutil

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
)

// recordFields are the keys every emitted comment record must carry.
var recordFields = []string{
	"author", "author_email", "comment", "created", "created_epoch",
	"referenced_users", "seq", "ticket", "updated", "updated_epoch",
}

// ticketFields are the keys every embedded ticket object must carry.
var ticketFields = []string{
	"assignee", "created", "created_epoch", "issuetype", "key", "priority",
	"reporter", "title",
}

// ParseRecords validates that raw is NDJSON holding the expected number of
// well-formed comment records and returns them decoded, in emission order.
func ParseRecords(t *testing.T, raw string, expectedCount int) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	if raw != "" && !strings.HasSuffix(raw, "\n") {
		t.Errorf("Output does not end with a newline")
	}

	for i, line := range strings.Split(strings.TrimSuffix(raw, "\n"), "\n") {
		if line == "" {
			continue
		}

		var record map[string]interface{}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Errorf("Line %d: invalid JSON: %v", i+1, err)
			continue
		}

		for _, field := range recordFields {
			if _, ok := record[field]; !ok {
				t.Errorf("Line %d: missing required field '%s'", i+1, field)
			}
		}
		if ticket, ok := record["ticket"].(map[string]interface{}); ok {
			for _, field := range ticketFields {
				if _, ok := ticket[field]; !ok {
					t.Errorf("Line %d: ticket missing required field '%s'", i+1, field)
				}
			}
		} else {
			t.Errorf("Line %d: ticket is not an object", i+1)
		}

		records = append(records, record)
	}

	if len(records) != expectedCount {
		t.Errorf("Expected %d records, got %d", expectedCount, len(records))
	}
	return records
}

// AssertNDJSONOutput validates that a file contains valid NDJSON with the
// expected record count.
func AssertNDJSONOutput(t *testing.T, filePath string, expectedCount int) {
	t.Helper()

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	ParseRecords(t, string(data), expectedCount)
}

// AssertSequentialRecords checks that the records of every ticket carry
// consecutive seq values starting at zero, in emission order.
func AssertSequentialRecords(t *testing.T, records []map[string]interface{}) {
	t.Helper()

	nextSeq := make(map[string]int)
	for i, record := range records {
		ticket, ok := record["ticket"].(map[string]interface{})
		if !ok {
			t.Errorf("Record %d: ticket is not an object", i)
			continue
		}
		key, _ := ticket["key"].(string)
		seq, ok := record["seq"].(float64)
		if !ok {
			t.Errorf("Record %d: seq is not a number", i)
			continue
		}
		if int(seq) != nextSeq[key] {
			t.Errorf("Record %d: ticket %s has seq %d, want %d", i, key, int(seq), nextSeq[key])
		}
		nextSeq[key]++
	}
}

// AssertContainsString checks if a string contains a substring
func AssertContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("Expected string to contain %q, got: %s", needle, haystack)
	}
}

// AssertNotContainsString checks if a string does not contain a substring
func AssertNotContainsString(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Errorf("Expected string to NOT contain %q, got: %s", needle, haystack)
	}
}

// AssertFileExists checks that a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Expected file to exist: %s", path)
	}
}
