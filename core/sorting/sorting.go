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

// Package sorting orders records by an ordered list of sort keys.
//
// Every key is prepared once per Apply call: values are parsed, collation
// keys and frequency tables are built, and the sort then only compares the
// prepared cells. Nothing prepared here outlives the call.
package sorting

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// cell is the prepared value of one record for one key.
type cell struct {
	empty        bool
	raw          string
	collationKey []byte
	num          float64
	numOK        bool
	date         time.Time
	dateOK       bool
	length       int
	freq         int
	pinned       bool
}

// column holds the resolved key and the prepared cells, indexed like the
// input records.
type column struct {
	field     fields.Field
	mode      Mode
	direction Direction
	nulls     NullPlacement
	cells     []cell
}

// Apply returns the records ordered by keys. The sort is stable: records
// equal under every key keep their input order. The input slice is not
// modified.
func Apply(registry *fields.Registry, rs []*records.Record, keys []Key) ([]*records.Record, error) {
	if err := Validate(registry, keys); err != nil {
		return nil, err
	}
	result := make([]*records.Record, len(rs))
	copy(result, rs)
	if len(keys) == 0 || len(rs) < 2 {
		return result, nil
	}

	collator := collate.New(language.Und, collate.IgnoreCase)
	buf := &collate.Buffer{}
	cols := make([]*column, len(keys))
	for i, k := range keys {
		cols[i] = prepareColumn(registry, rs, k, collator, buf)
	}

	order := make([]int, len(rs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		for _, c := range cols {
			if cmp := c.compareCells(&c.cells[i], &c.cells[j]); cmp != 0 {
				return cmp
			}
		}
		return 0
	})

	for pos, idx := range order {
		result[pos] = rs[idx]
	}
	return result, nil
}

// resolveMode maps auto to the concrete mode for the field type. Computed
// fields stay on auto until their cells are prepared; see settleAuto.
func resolveMode(field fields.Field, mode Mode) Mode {
	if mode != ModeAuto {
		return mode
	}
	switch field.Type {
	case fields.TypeNumber, fields.TypeCurrency:
		return ModeNumeric
	case fields.TypeDate:
		return ModeDate
	case fields.TypeComputed:
		return ModeAuto
	default:
		return ModeAlpha
	}
}

func prepareColumn(registry *fields.Registry, rs []*records.Record, k Key, collator *collate.Collator, buf *collate.Buffer) *column {
	k = k.Normalize()
	mode, _ := ParseMode(string(k.Mode))
	direction, _ := ParseDirection(string(k.Direction))
	nulls, _ := ParseNullPlacement(string(k.Nulls))

	field := registry.MustByKey(k.Field)
	c := &column{
		field:     field,
		mode:      resolveMode(field, mode),
		direction: direction,
		nulls:     nulls,
		cells:     make([]cell, len(rs)),
	}

	var freq map[string]int
	if c.mode == ModeFrequencyHigh || c.mode == ModeFrequencyLow {
		freq = frequencies(rs, k.Field)
	}

	for i, r := range rs {
		v := r.Get(k.Field)
		cl := &c.cells[i]
		cl.raw = v.String()
		cl.empty = v.IsEmpty()
		if cl.empty {
			continue
		}
		switch c.mode {
		case ModeNumeric:
			// Unparseable numbers sort as 0.
			cl.num, _ = v.Float()
		case ModeDate:
			if t, err := dateparse.ParseAny(cl.raw); err == nil {
				cl.date, cl.dateOK = t, true
			}
		case ModeLength:
			cl.length = utf8.RuneCountInString(cl.raw)
		case ModeAuto:
			cl.num, cl.numOK = v.Float()
		}
		switch c.mode {
		case ModeAlpha, ModeAuto, ModeFrequencyHigh, ModeFrequencyLow, ModePinFirst, ModePinLast:
			cl.collationKey = append([]byte(nil), collator.KeyFromString(buf, cl.raw)...)
			buf.Reset()
		}
		if freq != nil {
			cl.freq = freq[cl.raw]
		}
		cl.pinned = (c.mode == ModePinFirst || c.mode == ModePinLast) && cl.raw == k.Pin
	}
	if c.mode == ModeAuto {
		c.settleAuto()
	}
	return c
}

// settleAuto picks one mode for the whole column: numeric when every
// non-empty cell parses as a number, alpha otherwise.
func (c *column) settleAuto() {
	for i := range c.cells {
		if !c.cells[i].empty && !c.cells[i].numOK {
			c.mode = ModeAlpha
			return
		}
	}
	c.mode = ModeNumeric
}
