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

package aggregates

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/threadworks/gridview/core/fields"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Function is a column summary function.
type Function string

const (
	Count         Function = "count"
	CountValues   Function = "count_values"
	CountEmpty    Function = "count_empty"
	Unique        Function = "unique"
	Sum           Function = "sum"
	Avg           Function = "avg"
	Min           Function = "min"
	Max           Function = "max"
	Range         Function = "range"
	Median        Function = "median"
	PercentFilled Function = "percent_filled"
	PercentEmpty  Function = "percent_empty"
)

var allFunctions = []Function{
	Count, CountValues, CountEmpty, Unique,
	Sum, Avg, Min, Max, Range, Median,
	PercentFilled, PercentEmpty,
}

// Functions returns every supported function in menu order.
func Functions() []Function {
	return append([]Function(nil), allFunctions...)
}

// ParseFunction parses a function name. Hyphens are accepted in place of
// underscores and case is ignored.
func ParseFunction(s string) (Function, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, f := range allFunctions {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown aggregate function %q", s)
}

// Symbol returns the short symbol shown in a column footer.
func (f Function) Symbol() string {
	switch f {
	case Count:
		return "#"
	case CountValues:
		return "#v"
	case CountEmpty:
		return "#∅"
	case Unique:
		return "≠"
	case Sum:
		return "Σ"
	case Avg:
		return "μ"
	case Min:
		return "↓"
	case Max:
		return "↑"
	case Range:
		return "↕"
	case Median:
		return "x̃"
	case PercentFilled:
		return "%v"
	case PercentEmpty:
		return "%∅"
	default:
		return "?"
	}
}

// Title returns the human readable name of the function.
func (f Function) Title() string {
	return cases.Title(language.English, cases.Compact).String(strings.ReplaceAll(string(f), "_", " "))
}

// Spec maps a column to the function summarising it. Columns without an
// entry have no footer.
type Spec map[fields.Key]Function

// Clone returns a copy of the spec.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	out := make(Spec, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the aggregated columns sorted by key.
func (s Spec) Keys() []fields.Key {
	keys := make([]fields.Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Validate checks every column of the spec against the registry.
func (s Spec) Validate(registry *fields.Registry) error {
	for _, k := range s.Keys() {
		if !registry.Has(k) {
			return &fields.UnknownFieldError{Key: k, Context: "aggregation"}
		}
		if !slices.Contains(allFunctions, s[k]) {
			return fmt.Errorf("column %q: unknown aggregate function %q", k, s[k])
		}
	}
	return nil
}
