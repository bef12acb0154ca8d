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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

func testRegistry(t *testing.T) *fields.Registry {
	t.Helper()
	reg, err := fields.NewRegistry(
		fields.Field{Key: "id", Type: fields.TypeIdentifier},
		fields.Field{Key: "name", Type: fields.TypeText},
		fields.Field{Key: "qty", Type: fields.TypeNumber},
		fields.Field{Key: "due", Type: fields.TypeDate},
		fields.Field{Key: "category", Type: fields.TypeCategory},
		fields.Field{Key: "score", Type: fields.TypeComputed},
	)
	require.NoError(t, err)
	return reg
}

// build creates records from rows of (id, field, value) maps. String values
// are stored as text, numbers as numbers, nil as empty.
func build(t *testing.T, reg *fields.Registry, rows ...map[fields.Key]any) []*records.Record {
	t.Helper()
	c := records.NewCollection(reg)
	for _, row := range rows {
		values := make(map[fields.Key]records.Value, len(row))
		for k, v := range row {
			switch x := v.(type) {
			case string:
				values[k] = records.Text(x)
			case int:
				values[k] = records.Number(float64(x))
			case float64:
				values[k] = records.Number(x)
			case nil:
				values[k] = records.Empty()
			}
		}
		_, err := c.Add(values)
		require.NoError(t, err)
	}
	return c.All()
}

func ids(rs []*records.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Get("id").String()
	}
	return out
}

func sortIDs(t *testing.T, reg *fields.Registry, rs []*records.Record, keys ...Key) []string {
	t.Helper()
	sorted, err := Apply(reg, rs, keys)
	require.NoError(t, err)
	return ids(sorted)
}

func TestAlphaIsCaseInsensitive(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "name": "banana"},
		map[fields.Key]any{"id": "2", "name": "Apple"},
		map[fields.Key]any{"id": "3", "name": "cherry"},
		map[fields.Key]any{"id": "4", "name": "apple"},
	)
	got := sortIDs(t, reg, rs, Key{Field: "name", Mode: ModeAlpha, Direction: Asc, Nulls: NullsLast})
	assert.Equal(t, []string{"2", "4", "1", "3"}, got)

	got = sortIDs(t, reg, rs, Key{Field: "name", Mode: ModeAlpha, Direction: Desc, Nulls: NullsLast})
	assert.Equal(t, []string{"3", "1", "2", "4"}, got)
}

func TestNumericMode(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "a", "qty": 10},
		map[fields.Key]any{"id": "b", "qty": 9},
		map[fields.Key]any{"id": "c", "qty": "abc"},
		map[fields.Key]any{"id": "d", "qty": -1},
		map[fields.Key]any{"id": "e", "qty": "100"},
	)
	// "abc" sorts as 0, text "100" parses.
	got := sortIDs(t, reg, rs, Key{Field: "qty", Mode: ModeNumeric})
	assert.Equal(t, []string{"d", "c", "b", "a", "e"}, got)

	// auto on a number field behaves the same
	got = sortIDs(t, reg, rs, Key{Field: "qty"})
	assert.Equal(t, []string{"d", "c", "b", "a", "e"}, got)
}

func TestDateMode(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "a", "due": "2024-03-15"},
		map[fields.Key]any{"id": "b", "due": "not a date"},
		map[fields.Key]any{"id": "c", "due": "2023-12-01"},
		map[fields.Key]any{"id": "d", "due": "garbage"},
		map[fields.Key]any{"id": "e", "due": "2024-01-20"},
	)
	got := sortIDs(t, reg, rs, Key{Field: "due", Mode: ModeDate, Direction: Asc})
	assert.Equal(t, []string{"b", "d", "c", "e", "a"}, got)

	got = sortIDs(t, reg, rs, Key{Field: "due", Direction: Desc})
	assert.Equal(t, []string{"a", "e", "c", "b", "d"}, got)
}

func TestLengthMode(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "a", "name": "zipper"},
		map[fields.Key]any{"id": "b", "name": "tag"},
		map[fields.Key]any{"id": "c", "name": "élan"},
	)
	got := sortIDs(t, reg, rs, Key{Field: "name", Mode: ModeLength})
	assert.Equal(t, []string{"b", "c", "a"}, got)
}

func TestFrequencyModes(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "category": "Label"},
		map[fields.Key]any{"id": "2", "category": "Button"},
		map[fields.Key]any{"id": "3", "category": "Zipper"},
		map[fields.Key]any{"id": "4", "category": "Button"},
		map[fields.Key]any{"id": "5", "category": "Label"},
		map[fields.Key]any{"id": "6", "category": "Button"},
	)
	got := sortIDs(t, reg, rs, Key{Field: "category", Mode: ModeFrequencyHigh})
	assert.Equal(t, []string{"2", "4", "6", "1", "5", "3"}, got)

	got = sortIDs(t, reg, rs, Key{Field: "category", Mode: ModeFrequencyLow})
	assert.Equal(t, []string{"3", "1", "5", "2", "4", "6"}, got)

	// Frequencies follow the set passed in: with only two Buttons and two
	// Labels left, the tie falls back to alphabetical order.
	subset := []*records.Record{rs[0], rs[1], rs[3], rs[4]}
	got = sortIDs(t, reg, subset, Key{Field: "category", Mode: ModeFrequencyHigh})
	assert.Equal(t, []string{"2", "4", "1", "5"}, got)
}

func TestPinModes(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "category": "Label"},
		map[fields.Key]any{"id": "2", "category": "Zipper"},
		map[fields.Key]any{"id": "3", "category": "Button"},
		map[fields.Key]any{"id": "4", "category": "Zipper"},
	)
	got := sortIDs(t, reg, rs, Key{Field: "category", Mode: ModePinFirst, Pin: "Zipper"})
	assert.Equal(t, []string{"2", "4", "3", "1"}, got)

	got = sortIDs(t, reg, rs, Key{Field: "category", Mode: ModePinLast, Pin: "Button"})
	assert.Equal(t, []string{"1", "2", "4", "3"}, got)

	// Pin matching is exact.
	got = sortIDs(t, reg, rs, Key{Field: "category", Mode: ModePinFirst, Pin: "zipper"})
	assert.Equal(t, []string{"3", "1", "2", "4"}, got)
}

func TestComputedAuto(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "a", "score": 10},
		map[fields.Key]any{"id": "b", "score": 9},
		map[fields.Key]any{"id": "c", "score": 100},
	)
	got := sortIDs(t, reg, rs, Key{Field: "score"})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestComputedAutoMixedIsTotal(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "x", "score": 10},
		map[fields.Key]any{"id": "y", "score": 9},
		map[fields.Key]any{"id": "z", "score": "10a"},
		map[fields.Key]any{"id": "w", "score": nil},
	)
	// One text cell switches the whole column to alpha.
	want := []string{"x", "z", "y", "w"}

	perms := [][]int{
		{0, 1, 2, 3}, {0, 2, 1, 3}, {1, 0, 2, 3}, {1, 2, 0, 3},
		{2, 0, 1, 3}, {2, 1, 0, 3}, {3, 2, 1, 0}, {1, 3, 0, 2},
	}
	for _, p := range perms {
		in := make([]*records.Record, len(p))
		for i, idx := range p {
			in[i] = rs[idx]
		}
		assert.Equal(t, want, sortIDs(t, reg, in, Key{Field: "score"}), "input order %v", p)
	}
}

func TestNullPlacementIndependentOfDirection(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "qty": 3},
		map[fields.Key]any{"id": "2", "qty": nil},
		map[fields.Key]any{"id": "3", "qty": 1},
		map[fields.Key]any{"id": "4", "qty": ""},
		map[fields.Key]any{"id": "5", "qty": 2},
	)

	tests := []struct {
		dir   Direction
		nulls NullPlacement
		want  []string
	}{
		{Asc, NullsLast, []string{"3", "5", "1", "2", "4"}},
		{Desc, NullsLast, []string{"1", "5", "3", "2", "4"}},
		{Asc, NullsFirst, []string{"2", "4", "3", "5", "1"}},
		{Desc, NullsFirst, []string{"2", "4", "1", "5", "3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir)+"/"+string(tt.nulls), func(t *testing.T) {
			got := sortIDs(t, reg, rs, Key{Field: "qty", Mode: ModeNumeric, Direction: tt.dir, Nulls: tt.nulls})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultiKeyAndStability(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "category": "Button", "qty": 5},
		map[fields.Key]any{"id": "2", "category": "Zipper", "qty": 1},
		map[fields.Key]any{"id": "3", "category": "Button", "qty": 9},
		map[fields.Key]any{"id": "4", "category": "Button", "qty": 5},
		map[fields.Key]any{"id": "5", "category": "Zipper", "qty": 1},
	)
	keys := []Key{
		{Field: "category", Mode: ModeAlpha},
		{Field: "qty", Mode: ModeNumeric, Direction: Desc},
	}
	sorted, err := Apply(reg, rs, keys)
	require.NoError(t, err)
	// 1 and 4 tie on both keys and keep input order, as do 2 and 5.
	assert.Equal(t, []string{"3", "1", "4", "2", "5"}, ids(sorted))

	again, err := Apply(reg, sorted, keys)
	require.NoError(t, err)
	assert.Equal(t, ids(sorted), ids(again), "sorting must be idempotent")

	// input untouched
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(rs))
}

func TestNoKeysKeepsOrder(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "b"},
		map[fields.Key]any{"id": "a"},
	)
	assert.Equal(t, []string{"b", "a"}, sortIDs(t, reg, rs))
}

func TestApplyErrors(t *testing.T) {
	reg := testRegistry(t)
	_, err := Apply(reg, nil, []Key{{Field: "colour"}})
	var unknown *fields.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "sort", unknown.Context)

	_, err = Apply(reg, nil, []Key{{Field: "qty", Mode: "shuffle"}})
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("frequency_high")
	require.NoError(t, err)
	assert.Equal(t, ModeFrequencyHigh, m)

	m, err = ParseMode("PINLAST")
	require.NoError(t, err)
	assert.Equal(t, ModePinLast, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)
}

func TestFrequencies(t *testing.T) {
	reg := testRegistry(t)
	rs := build(t, reg,
		map[fields.Key]any{"id": "1", "category": "Button"},
		map[fields.Key]any{"id": "2", "category": nil},
		map[fields.Key]any{"id": "3", "category": "Button"},
	)
	assert.Equal(t, map[string]int{"Button": 2}, Frequencies(rs, "category"))
}

func TestReduce(t *testing.T) {
	keys := Reduce(nil, AddKey{Key: Key{Field: "qty"}})
	keys = Reduce(keys, AddKey{Key: Key{Field: "name", Mode: ModeAlpha}})
	require.Len(t, keys, 2)
	assert.Equal(t, Key{Field: "qty", Mode: ModeAuto, Direction: Asc, Nulls: NullsLast}, keys[0])

	replaced := Reduce(keys, AddKey{Key: Key{Field: "qty", Direction: Desc}})
	assert.Equal(t, Desc, replaced[0].Direction)
	assert.Equal(t, Asc, keys[0].Direction)

	toggled := Reduce(keys, ToggleDirection{Field: "name"})
	assert.Equal(t, Desc, toggled[1].Direction)

	moved := Reduce(keys, MoveKey{From: 1, To: 0})
	assert.Equal(t, fields.Key("name"), moved[0].Field)
	assert.Equal(t, fields.Key("qty"), moved[1].Field)
	assert.Equal(t, fields.Key("qty"), keys[0].Field)

	removed := Reduce(keys, RemoveKey{Field: "qty"})
	require.Len(t, removed, 1)
	assert.Equal(t, fields.Key("name"), removed[0].Field)

	assert.Nil(t, Reduce(keys, ClearKeys{}))
}
