// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hash

import "sort"

// Slice is a sortable, strictly-increasing-checkable collection of Hash
// values.
type Slice []Hash

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i].Less(s[j]) }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sort sorts s ascending in place.
func (s Slice) Sort() { sort.Sort(s) }

// IsStrictlyMonotonic reports whether s is sorted ascending with no
// duplicate identifiers.
func (s Slice) IsStrictlyMonotonic() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Less(s[i]) {
			return false
		}
	}
	return true
}
