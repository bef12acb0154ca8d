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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/grouping"
)

// ToAscii returns the result as a plain text table with ASCII borders. Group
// and bucket headers span the whole table; the footer holds the column
// summaries formatted by f.
func (r *Result) ToAscii(f *aggregates.Formatter) string {
	if f == nil {
		f = aggregates.NewFormatter("")
	}
	footer := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		if res, ok := r.Aggregates[c.Key]; ok {
			footer[i] = res.Function.Symbol() + " " + f.Format(res)
		}
	}

	colWidths := r.calculateColumnWidths(footer)
	inner := len(colWidths) - 1
	for _, w := range colWidths {
		inner += w
	}

	var sb strings.Builder
	separator := func() {
		for _, w := range colWidths {
			sb.WriteString("|")
			sb.WriteString(strings.Repeat("-", w))
		}
		sb.WriteString("|\n")
	}
	cells := func(values []string) {
		for i, v := range values {
			sb.WriteString("|")
			sb.WriteString(pad(v, colWidths[i]))
		}
		sb.WriteString("|\n")
	}
	banner := func(text string) {
		sb.WriteString("|")
		sb.WriteString(pad(text, inner))
		sb.WriteString("|\n")
	}

	headers := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		headers[i] = c.DisplayName()
	}
	separator()
	cells(headers)
	separator()

	row := make([]string, len(r.Columns))
	for gi, g := range r.Groups {
		if !g.Key.IsNone() {
			banner(r.groupLabel(r.Group.Level1, g.Key, g.Len(), r.subtotal(gi, -1, f)))
		}
		for bi, b := range g.Buckets {
			if !b.Key.IsNone() {
				banner("  " + r.groupLabel(r.Group.Level2, b.Key, b.Len(), r.subtotal(gi, bi, f)))
			}
			for _, rec := range b.Rows {
				for i, c := range r.Columns {
					row[i] = rec.Get(c.Key).String()
				}
				cells(row)
			}
		}
	}

	if len(r.Aggregates) > 0 {
		separator()
		cells(footer)
	}
	separator()
	return sb.String()
}

func (r *Result) groupLabel(field fields.Key, key grouping.Key, n int, subtotal string) string {
	label := fmt.Sprintf("%s: %s (%d)", field, key, n)
	if subtotal != "" {
		label += " " + subtotal
	}
	return label
}

// subtotal formats the summaries of group gi, or of its bucket bi when bi is
// not negative.
func (r *Result) subtotal(gi, bi int, f *aggregates.Formatter) string {
	if gi >= len(r.Subtotals) {
		return ""
	}
	aggs := r.Subtotals[gi].Aggregates
	if bi >= 0 {
		aggs = r.Subtotals[gi].Buckets[bi]
	}
	var parts []string
	for _, c := range r.Columns {
		if res, ok := aggs[c.Key]; ok {
			parts = append(parts, fmt.Sprintf("%s %s=%s", res.Function.Symbol(), c.Key, f.Format(res)))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// calculateColumnWidths returns the width of each visible column: the
// widest of its header, its cells and its footer.
func (r *Result) calculateColumnWidths(footer []string) []int {
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = max(1, utf8.RuneCountInString(c.DisplayName()), utf8.RuneCountInString(footer[i]))
	}
	for _, rec := range r.Rows {
		for i, c := range r.Columns {
			widths[i] = max(widths[i], utf8.RuneCountInString(rec.Get(c.Key).String()))
		}
	}
	return widths
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
