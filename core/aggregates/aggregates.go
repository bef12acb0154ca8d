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

// Package aggregates summarises a column over an arbitrary subset of rows.
// State is accumulated per column and can be combined up a grouping
// hierarchy, so bucket totals merge into group totals and then into the
// footer without rescanning rows.
package aggregates

import (
	"math"
	"slices"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// ResultKind tells a caller how to format a Result.
type ResultKind uint8

const (
	// KindCount is a non-negative integer count.
	KindCount ResultKind = iota
	// KindNumber is a float derived from a number or computed column.
	KindNumber
	// KindCurrency is a float derived from a currency column.
	KindCurrency
	// KindRatio is a percentage between 0 and 100.
	KindRatio
	// KindText is a lexicographic min or max.
	KindText
)

func (k ResultKind) String() string {
	switch k {
	case KindCount:
		return "count"
	case KindNumber:
		return "number"
	case KindCurrency:
		return "currency"
	case KindRatio:
		return "ratio"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Result is a typed aggregate. Valid is false for the null result, e.g. the
// average of a column without a single parseable number.
type Result struct {
	Function Function   `json:"function"`
	Kind     ResultKind `json:"kind"`
	Value    float64    `json:"value"`
	Text     string     `json:"text,omitempty"`
	Valid    bool       `json:"valid"`
}

// MarshalText encodes the kind by name.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// NumericAggState holds the parseable numbers of a column.
type NumericAggState struct {
	Count  int64
	Sum    float64
	Min    float64
	Max    float64
	values []float64
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add adds a single value to the aggregate state.
func (s *NumericAggState) Add(value float64) {
	s.Count++
	s.Sum += value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
	s.values = append(s.values, value)
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(o *NumericAggState) {
	if o == nil || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
	s.values = append(s.values, o.values...)
}

// Avg returns the mean; ok is false without values.
func (s *NumericAggState) Avg() (float64, bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

// Median returns the median, averaging the two middle values for even
// counts; ok is false without values.
func (s *NumericAggState) Median() (float64, bool) {
	n := len(s.values)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(s.values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// StringAggState holds the non-empty stringified values of a column.
type StringAggState struct {
	Count     int64
	UniqueSet map[string]struct{}
	Min       string
	Max       string
	HasValues bool
}

// NewStringAggState creates a new empty string aggregate state.
func NewStringAggState() *StringAggState {
	return &StringAggState{
		UniqueSet: make(map[string]struct{}),
	}
}

// Add adds a single string value to the aggregate state.
func (s *StringAggState) Add(value string) {
	if !s.HasValues {
		s.Min = value
		s.Max = value
		s.HasValues = true
	} else {
		if value < s.Min {
			s.Min = value
		}
		if value > s.Max {
			s.Max = value
		}
	}
	s.Count++
	s.UniqueSet[value] = struct{}{}
}

// Combine merges another string state into this one.
func (s *StringAggState) Combine(o *StringAggState) {
	if o == nil || o.Count == 0 {
		return
	}
	if !s.HasValues {
		s.Min = o.Min
		s.Max = o.Max
		s.HasValues = true
	} else {
		if o.Min < s.Min {
			s.Min = o.Min
		}
		if o.Max > s.Max {
			s.Max = o.Max
		}
	}
	s.Count += o.Count
	for k := range o.UniqueSet {
		s.UniqueSet[k] = struct{}{}
	}
}

// UniqueCount returns the number of unique values.
func (s *StringAggState) UniqueCount() int {
	return len(s.UniqueSet)
}

// Accumulator collects the state of one column over a row subset.
type Accumulator struct {
	Field   fields.Field
	Rows    int64
	Numeric *NumericAggState
	Strings *StringAggState
}

// NewAccumulator creates an empty accumulator for field.
func NewAccumulator(field fields.Field) *Accumulator {
	return &Accumulator{
		Field:   field,
		Numeric: NewNumericAggState(),
		Strings: NewStringAggState(),
	}
}

// Add accumulates the field value of r.
func (a *Accumulator) Add(r *records.Record) {
	a.Rows++
	v := r.Get(a.Field.Key)
	if v.IsEmpty() {
		return
	}
	a.Strings.Add(v.String())
	if f, ok := v.Float(); ok {
		a.Numeric.Add(f)
	}
}

// AddAll accumulates every row of rs.
func (a *Accumulator) AddAll(rs []*records.Record) *Accumulator {
	for _, r := range rs {
		a.Add(r)
	}
	return a
}

// Combine merges another accumulator of the same field into this one.
func (a *Accumulator) Combine(o *Accumulator) {
	if o == nil {
		return
	}
	a.Rows += o.Rows
	a.Numeric.Combine(o.Numeric)
	a.Strings.Combine(o.Strings)
}

func (a *Accumulator) numberKind() ResultKind {
	if a.Field.Type == fields.TypeCurrency {
		return KindCurrency
	}
	return KindNumber
}

// Result derives the value of fn from the accumulated state.
func (a *Accumulator) Result(fn Function) Result {
	count := func(n int64) Result {
		return Result{Function: fn, Kind: KindCount, Value: float64(n), Valid: true}
	}
	number := func(v float64, ok bool) Result {
		// Overflow past float64 yields the null result.
		if ok && (math.IsInf(v, 0) || math.IsNaN(v)) {
			return Result{Function: fn, Kind: a.numberKind()}
		}
		return Result{Function: fn, Kind: a.numberKind(), Value: v, Valid: ok}
	}
	ratio := func(part int64) Result {
		if a.Rows == 0 {
			return Result{Function: fn, Kind: KindRatio}
		}
		return Result{Function: fn, Kind: KindRatio, Value: float64(part) / float64(a.Rows) * 100, Valid: true}
	}

	// On numeric fields only parseable values count as filled.
	filled := a.Strings.Count
	if a.Field.Type.IsNumeric() {
		filled = a.Numeric.Count
	}
	switch fn {
	case Count:
		return count(a.Rows)
	case CountValues:
		return count(filled)
	case CountEmpty:
		return count(a.Rows - filled)
	case Unique:
		return count(int64(a.Strings.UniqueCount()))
	case Sum:
		return number(a.Numeric.Sum, true)
	case Avg:
		return number(a.Numeric.Avg())
	case Median:
		return number(a.Numeric.Median())
	case Min, Max:
		if a.Numeric.Count > 0 {
			if fn == Min {
				return number(a.Numeric.Min, true)
			}
			return number(a.Numeric.Max, true)
		}
		if !a.Strings.HasValues {
			return Result{Function: fn, Kind: KindText}
		}
		text := a.Strings.Max
		if fn == Min {
			text = a.Strings.Min
		}
		return Result{Function: fn, Kind: KindText, Text: text, Valid: true}
	case Range:
		if a.Numeric.Count < 2 {
			return number(0, false)
		}
		return number(a.Numeric.Max-a.Numeric.Min, true)
	case PercentFilled:
		return ratio(filled)
	case PercentEmpty:
		return ratio(a.Rows - filled)
	default:
		return Result{Function: fn}
	}
}

// Compute summarises field over rows with fn.
func Compute(fn Function, rows []*records.Record, field fields.Field) Result {
	return NewAccumulator(field).AddAll(rows).Result(fn)
}

// ComputeAll computes every entry of spec over rows.
func ComputeAll(registry *fields.Registry, spec Spec, rows []*records.Record) (map[fields.Key]Result, error) {
	if err := spec.Validate(registry); err != nil {
		return nil, err
	}
	out := make(map[fields.Key]Result, len(spec))
	for _, k := range spec.Keys() {
		out[k] = Compute(spec[k], rows, registry.MustByKey(k))
	}
	return out, nil
}
