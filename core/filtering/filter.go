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

// Package filtering evaluates filter rules against records.
//
// Rules combine with AND. Several rules on the same field are all applied;
// there are no per-field OR groups. A rule with an empty value is inert.
package filtering

import (
	"strings"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// Rule is a single (field, operator, value) predicate.
type Rule struct {
	Field    fields.Key `json:"field" yaml:"field"`
	Operator Operator   `json:"operator" yaml:"operator"`
	Value    string     `json:"value" yaml:"value"`
}

// Active reports whether the rule takes part in filtering.
func (r Rule) Active() bool {
	return r.Value != ""
}

// ActiveCount returns the number of rules with a non-empty value.
func ActiveCount(rules []Rule) int {
	n := 0
	for _, r := range rules {
		if r.Active() {
			n++
		}
	}
	return n
}

// Validate checks every rule's field and operator against the registry,
// including inert rules.
func Validate(registry *fields.Registry, rules []Rule) error {
	for _, r := range rules {
		f, err := registry.ByKey(r.Field)
		if err != nil {
			return &fields.UnknownFieldError{Key: r.Field, Context: "filter"}
		}
		if !Allowed(f.Type, r.Operator) {
			return &OperatorError{Field: r.Field, Type: f.Type, Operator: r.Operator}
		}
	}
	return nil
}

// compiled is a rule resolved against the registry.
type compiled struct {
	field fields.Field
	rule  Rule
	lower string
	num   float64
	// numOK is false when a numeric rule value does not parse; the rule is
	// then inert.
	numOK bool
}

// Apply returns the records matching every active rule, in input order.
// The input slice is not modified.
func Apply(registry *fields.Registry, rs []*records.Record, rules []Rule) ([]*records.Record, error) {
	if err := Validate(registry, rules); err != nil {
		return nil, err
	}

	active := make([]compiled, 0, len(rules))
	for _, r := range rules {
		if !r.Active() {
			continue
		}
		c := compiled{
			field: registry.MustByKey(r.Field),
			rule:  r,
			lower: strings.ToLower(r.Value),
		}
		if r.Operator.IsNumeric() {
			c.num, c.numOK = records.ParseNumber(r.Value)
		}
		active = append(active, c)
	}

	result := make([]*records.Record, 0, len(rs))
	for _, rec := range rs {
		if matchAll(rec, active) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// Match reports whether a single record passes the rules.
func Match(registry *fields.Registry, rec *records.Record, rules []Rule) (bool, error) {
	matched, err := Apply(registry, []*records.Record{rec}, rules)
	if err != nil {
		return false, err
	}
	return len(matched) == 1, nil
}

func matchAll(rec *records.Record, rules []compiled) bool {
	for i := range rules {
		if !rules[i].match(rec.Get(rules[i].rule.Field)) {
			return false
		}
	}
	return true
}

func (c *compiled) match(v records.Value) bool {
	if c.rule.Operator.IsNumeric() {
		return c.matchNumber(v)
	}

	s := v.String()
	switch c.rule.Operator {
	case OpIs:
		return s == c.rule.Value
	case OpIsNot:
		return s != c.rule.Value
	case OpContains:
		return strings.Contains(strings.ToLower(s), c.lower)
	case OpNotContains:
		return !strings.Contains(strings.ToLower(s), c.lower)
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(s), c.lower)
	}
	return true
}

// matchNumber fails open: records without a numeric value are kept.
func (c *compiled) matchNumber(v records.Value) bool {
	if !c.numOK {
		return true
	}
	n, ok := v.Float()
	if !ok {
		return true
	}
	switch c.rule.Operator {
	case OpEq:
		return n == c.num
	case OpNe:
		return n != c.num
	case OpGt:
		return n > c.num
	case OpLt:
		return n < c.num
	case OpGte:
		return n >= c.num
	case OpLte:
		return n <= c.num
	}
	return true
}
