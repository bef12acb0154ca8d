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

/*
Package expr evaluates formulas that populate computed fields.

Supported syntax:
  - Field references by key (e.g., qty_on_hand, unit_price)
  - Number and string literals: 12, 0.5, "pcs", 'pcs'
  - Arithmetic: +, -, *, /, %, ** ("+" concatenates text)
  - Comparisons: ==, !=, <, >, <=, >= (numeric when both sides are numbers)
  - Logic: and, or, not
  - Functions: if, coalesce, round, abs, min, max, upper, lower, trim, len,
    concat

Evaluation never fails. Arithmetic over blank or non-numeric values, and
division by zero, produce a blank value. Booleans are the numbers 1 and 0.
*/
package expr

import (
	"fmt"
	"slices"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// Expression is a compiled formula
type Expression struct {
	source string
	root   node
	refs   []fields.Key
}

// Compile parses and checks source
func Compile(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}
	root, err := parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	set := make(map[fields.Key]bool)
	if err := check(root, set); err != nil {
		return nil, err
	}
	refs := make([]fields.Key, 0, len(set))
	for k := range set {
		refs = append(refs, k)
	}
	slices.Sort(refs)
	return &Expression{source: source, root: root, refs: refs}, nil
}

// Source returns the original expression string
func (e *Expression) Source() string {
	return e.source
}

// Fields returns the keys the expression reads, sorted.
func (e *Expression) Fields() []fields.Key {
	return slices.Clone(e.refs)
}

// Check verifies that every referenced field is registered.
func (e *Expression) Check(registry *fields.Registry) error {
	return registry.Validate("expression", e.refs...)
}

// Eval evaluates the expression against one record.
func (e *Expression) Eval(r *records.Record) records.Value {
	return eval(e.root, r)
}

// Populate stores the value of e in key for every record. Computed fields
// are read-only to edits, so the values are written directly.
func Populate(rs []*records.Record, key fields.Key, e *Expression) {
	for _, r := range rs {
		v := e.Eval(r)
		if v.IsEmpty() {
			delete(r.Values, key)
			continue
		}
		r.Values[key] = v
	}
}
