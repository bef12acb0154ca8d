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

package tables

import (
	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/records"
)

// Aggregates maps a column to its summary.
type Aggregates map[fields.Key]aggregates.Result

// GroupTotals holds the summaries of one group and of each of its buckets,
// in bucket order.
type GroupTotals struct {
	Aggregates Aggregates
	Buckets    []Aggregates
}

// Result is what a table renders: the visible rows in order, their grouping
// and the column summaries, plus the view state driving the view switcher.
type Result struct {
	Table   string
	Rows    []*records.Record
	Groups  []*grouping.Group
	Columns []fields.Field
	Group   grouping.Spec
	// Subtotals is aligned with Groups. It is nil without aggregations.
	Subtotals []GroupTotals
	// Aggregates summarise every visible row.
	Aggregates    Aggregates
	ActiveView    string
	Locked        bool
	Dirty         bool
	ActiveFilters int
	// Total is the number of records before filtering.
	Total int
}

// Visible returns the number of rows left after filtering.
func (r *Result) Visible() int {
	return len(r.Rows)
}
