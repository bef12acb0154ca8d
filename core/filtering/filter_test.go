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

package filtering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

func setup(t *testing.T) (*fields.Registry, []*records.Record) {
	t.Helper()
	reg, err := fields.NewRegistry(
		fields.Field{Key: "code", Type: fields.TypeIdentifier},
		fields.Field{Key: "category", Type: fields.TypeCategory},
		fields.Field{Key: "description", Type: fields.TypeText},
		fields.Field{Key: "qty", Type: fields.TypeNumber},
		fields.Field{Key: "price", Type: fields.TypeCurrency},
	)
	require.NoError(t, err)

	c := records.NewCollection(reg)
	rows := []map[fields.Key]records.Value{
		{"code": records.Text("T1"), "category": records.Text("Button"), "description": records.Text("Horn button 4-hole"), "qty": records.Number(100), "price": records.Number(0.12)},
		{"code": records.Text("T2"), "category": records.Text("Zipper"), "description": records.Text("Metal zipper"), "qty": records.Number(20), "price": records.Number(1.5)},
		{"code": records.Text("T3"), "category": records.Text("button"), "description": records.Text("Snap BUTTON"), "qty": records.Text("n/a")},
		{"code": records.Text("T4"), "category": records.Text("Label"), "description": records.Text("Woven label"), "qty": records.Number(500), "price": records.Number(0.05)},
		{"code": records.Text("T5"), "category": records.Empty(), "description": records.Empty()},
	}
	for _, v := range rows {
		_, err := c.Add(v)
		require.NoError(t, err)
	}
	return reg, c.All()
}

func codes(rs []*records.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Get("code").String()
	}
	return out
}

func TestApply(t *testing.T) {
	reg, rs := setup(t)

	tests := []struct {
		name  string
		rules []Rule
		want  []string
	}{
		{"no rules", nil, []string{"T1", "T2", "T3", "T4", "T5"}},
		{"category is exact", []Rule{{"category", OpIs, "Button"}}, []string{"T1"}},
		{"category is-not", []Rule{{"category", OpIsNot, "Button"}}, []string{"T2", "T3", "T4", "T5"}},
		{"category contains ignores case", []Rule{{"category", OpContains, "BUTT"}}, []string{"T1", "T3"}},
		{"category starts-with", []Rule{{"category", OpStartsWith, "z"}}, []string{"T2"}},
		{"text contains", []Rule{{"description", OpContains, "button"}}, []string{"T1", "T3"}},
		{"text not-contains", []Rule{{"description", OpNotContains, "button"}}, []string{"T2", "T4", "T5"}},
		{"text starts-with", []Rule{{"description", OpStartsWith, "WOVEN"}}, []string{"T4"}},
		{"number greater fails open", []Rule{{"qty", OpGt, "50"}}, []string{"T1", "T3", "T4", "T5"}},
		{"number equal", []Rule{{"qty", OpEq, "20"}}, []string{"T2", "T3", "T5"}},
		{"number not equal", []Rule{{"qty", OpNe, "20"}}, []string{"T1", "T3", "T4", "T5"}},
		{"number lte", []Rule{{"qty", OpLte, "100"}}, []string{"T1", "T2", "T3", "T5"}},
		{"currency lt", []Rule{{"price", OpLt, "1"}}, []string{"T1", "T3", "T4", "T5"}},
		{"currency gte", []Rule{{"price", OpGte, "1.5"}}, []string{"T2", "T3", "T5"}},
		{"non-numeric rule value is inert", []Rule{{"qty", OpGt, "lots"}}, []string{"T1", "T2", "T3", "T4", "T5"}},
		{"empty value is inert", []Rule{{"category", OpIs, ""}}, []string{"T1", "T2", "T3", "T4", "T5"}},
		{"rules combine with AND", []Rule{{"description", OpContains, "button"}, {"category", OpIs, "Button"}}, []string{"T1"}},
		{"same field rules combine with AND", []Rule{{"category", OpIs, "Button"}, {"category", OpIs, "Zipper"}}, []string{}},
		{"identifier is", []Rule{{"code", OpIs, "T4"}}, []string{"T4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(reg, rs, tt.rules)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(got))
		})
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	reg, rs := setup(t)
	before := codes(rs)
	_, err := Apply(reg, rs, []Rule{{"category", OpIs, "Label"}})
	require.NoError(t, err)
	assert.Equal(t, before, codes(rs))
}

func TestMonotonicity(t *testing.T) {
	reg, rs := setup(t)
	candidates := []Rule{
		{"description", OpContains, "o"},
		{"qty", OpGt, "10"},
		{"category", OpIsNot, "Label"},
		{"price", OpLt, "1"},
	}

	var rules []Rule
	prev := len(rs)
	for _, r := range candidates {
		rules = Reduce(rules, AddRule{Rule: r})
		got, err := Apply(reg, rs, rules)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), prev, "adding %v grew the result", r)
		prev = len(got)
	}
}

func TestApplyConfigurationErrors(t *testing.T) {
	reg, rs := setup(t)

	_, err := Apply(reg, rs, []Rule{{"colour", OpIs, "red"}})
	var unknown *fields.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, fields.Key("colour"), unknown.Key)

	// Inert rules are still validated.
	_, err = Apply(reg, rs, []Rule{{"qty", OpContains, ""}})
	var opErr *OperatorError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OpContains, opErr.Operator)

	_, err = Apply(reg, rs, []Rule{{"description", OpIs, "x"}})
	assert.True(t, errors.As(err, &opErr))
}

func TestActiveCount(t *testing.T) {
	rules := []Rule{{"a", OpIs, "x"}, {"b", OpIs, ""}, {"c", OpContains, "y"}}
	assert.Equal(t, 2, ActiveCount(rules))
}

func TestMatch(t *testing.T) {
	reg, rs := setup(t)
	ok, err := Match(reg, rs[0], []Rule{{"category", OpIs, "Button"}})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = Match(reg, rs[1], []Rule{{"category", OpIs, "Button"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseOperator(t *testing.T) {
	tests := map[string]Operator{
		"is": OpIs, "IS-NOT": OpIsNot, "contains": OpContains, "not_contains": OpNotContains,
		"starts-with": OpStartsWith, "=": OpEq, "≠": OpNe, "!=": OpNe, ">": OpGt,
		"<": OpLt, "≥": OpGte, ">=": OpGte, "≤": OpLte,
	}
	for in, want := range tests {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOperator("~")
	assert.Error(t, err)
}

func TestReduce(t *testing.T) {
	a := Rule{"qty", OpGt, "1"}
	b := Rule{"category", OpIs, "Button"}
	c := Rule{"description", OpContains, "x"}

	rules := Reduce(nil, AddRule{Rule: a})
	rules = Reduce(rules, AddRule{Rule: b})
	original := Clone(rules)

	replaced := Reduce(rules, ReplaceRule{Index: 1, Rule: c})
	assert.Equal(t, []Rule{a, c}, replaced)
	assert.Equal(t, original, rules)

	removed := Reduce(rules, RemoveRule{Index: 0})
	assert.Equal(t, []Rule{b}, removed)
	assert.Equal(t, original, rules)

	assert.Equal(t, rules, Reduce(rules, RemoveRule{Index: 9}))
	assert.Nil(t, Reduce(rules, ClearRules{}))
}
