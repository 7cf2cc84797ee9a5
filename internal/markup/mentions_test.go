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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMentions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "no mentions",
			in:   "nothing to see here",
			want: nil,
		},
		{
			name: "single mention",
			in:   "please review, [~jdoe]",
			want: []string{"jdoe"},
		},
		{
			name: "multiple mentions keep order",
			in:   "[~bob] and [~alice] talked",
			want: []string{"bob", "alice"},
		},
		{
			name: "duplicates collapsed to first appearance",
			in:   "[~a] then [~b] and [~a] again",
			want: []string{"a", "b"},
		},
		{
			name: "mention with dots and digits",
			in:   "cc [~j.doe2]",
			want: []string{"j.doe2"},
		},
		{
			name: "unterminated bracket is not a mention",
			in:   "broken [~nobody",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mentions(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mentions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
