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
	"bytes"
	"strings"
	"time"
)

// compareCells compares two prepared cells of the same key.
// Returns -1 if a sorts before b, 0 if equal, 1 if a sorts after b.
func (c *column) compareCells(a, b *cell) int {
	// Nulls are placed before direction is applied.
	if a.empty || b.empty {
		return c.compareEmpty(a, b)
	}

	var cmp int
	switch c.mode {
	case ModeNumeric:
		cmp = compareFloat64s(a.num, b.num)
	case ModeDate:
		cmp = compareDates(a, b)
	case ModeLength:
		cmp = compareInts(a.length, b.length)
	case ModeFrequencyHigh:
		cmp = compareInts(b.freq, a.freq)
		if cmp == 0 {
			cmp = compareAlpha(a, b)
		}
	case ModeFrequencyLow:
		cmp = compareInts(a.freq, b.freq)
		if cmp == 0 {
			cmp = compareAlpha(a, b)
		}
	case ModePinFirst:
		cmp = comparePinned(a, b, -1)
	case ModePinLast:
		cmp = comparePinned(a, b, 1)
	default:
		cmp = compareAlpha(a, b)
	}

	if c.direction == Desc {
		return -cmp
	}
	return cmp
}

// compareEmpty places empty cells according to the null placement. Two empty
// cells compare by their raw strings so the result stays deterministic.
func (c *column) compareEmpty(a, b *cell) int {
	switch {
	case a.empty && b.empty:
		return strings.Compare(a.raw, b.raw)
	case a.empty:
		if c.nulls == NullsFirst {
			return -1
		}
		return 1
	default:
		if c.nulls == NullsFirst {
			return 1
		}
		return -1
	}
}

// compareAlpha compares collation keys (case-insensitive, locale aware).
func compareAlpha(a, b *cell) int {
	return bytes.Compare(a.collationKey, b.collationKey)
}

// comparePinned sorts pinned cells to the side given by pinnedSign (-1 front,
// 1 back) and falls back to alphabetical order among the rest.
func comparePinned(a, b *cell, pinnedSign int) int {
	switch {
	case a.pinned && b.pinned:
		return 0
	case a.pinned:
		return pinnedSign
	case b.pinned:
		return -pinnedSign
	default:
		return compareAlpha(a, b)
	}
}

// compareDates treats unparseable dates as equal to each other and lower than
// every parseable date.
func compareDates(a, b *cell) int {
	switch {
	case !a.dateOK && !b.dateOK:
		return 0
	case !a.dateOK:
		return -1
	case !b.dateOK:
		return 1
	default:
		return compareTimes(a.date, b.date)
	}
}

// compareTimes compares two time.Time values
func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareFloat64s compares two float64 values. Values never hold NaN because
// unparseable numbers are read as 0.
func compareFloat64s(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
