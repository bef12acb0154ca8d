/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Gridview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sorting

import (
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// frequencies counts how often each stringified non-empty value of key
// occurs in rs. Callers pass the current filtered set, so the table must be
// rebuilt whenever the filters change.
func frequencies(rs []*records.Record, key fields.Key) map[string]int {
	counts := make(map[string]int)
	for _, r := range rs {
		v := r.Get(key)
		if v.IsEmpty() {
			continue
		}
		counts[v.String()]++
	}
	return counts
}

// Frequencies exposes the occurrence table for a field, e.g. to show counts
// next to the values in a sort menu.
func Frequencies(rs []*records.Record, key fields.Key) map[string]int {
	return frequencies(rs, key)
}
