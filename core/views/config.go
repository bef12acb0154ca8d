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

package views

import (
	"fmt"
	"slices"

	"github.com/gohugoio/hashstructure"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/sorting"
)

// Config is the presentation state of a table: which columns show, in what
// order, and how rows are filtered, sorted and grouped.
type Config struct {
	ColumnOrder []fields.Key `json:"column_order,omitempty" yaml:"column_order,omitempty"`
	// Hidden columns compare as a set.
	HiddenColumns []fields.Key     `json:"hidden_columns,omitempty" yaml:"hidden_columns,omitempty" hash:"set"`
	Filters       []filtering.Rule `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sorts         []sorting.Key    `json:"sorts,omitempty" yaml:"sorts,omitempty"`
	Group         grouping.Spec    `json:"group" yaml:"group,omitempty"`
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	return Config{
		ColumnOrder:   slices.Clone(c.ColumnOrder),
		HiddenColumns: slices.Clone(c.HiddenColumns),
		Filters:       filtering.Clone(c.Filters),
		Sorts:         sorting.Clone(c.Sorts),
		Group:         c.Group,
	}
}

// Validate checks every field the configuration references.
func (c Config) Validate(registry *fields.Registry) error {
	if err := registry.Validate("column order", c.ColumnOrder...); err != nil {
		return err
	}
	if err := registry.Validate("hidden columns", c.HiddenColumns...); err != nil {
		return err
	}
	if err := filtering.Validate(registry, c.Filters); err != nil {
		return err
	}
	if err := sorting.Validate(registry, c.Sorts); err != nil {
		return err
	}
	return grouping.Validate(registry, c.Group)
}

// IsHidden reports whether key is hidden.
func (c Config) IsHidden(key fields.Key) bool {
	return slices.Contains(c.HiddenColumns, key)
}

// VisibleColumns returns the visible columns in display order. Columns
// missing from ColumnOrder follow in registry order.
func (c Config) VisibleColumns(registry *fields.Registry) []fields.Key {
	seen := make(map[fields.Key]bool, registry.Len())
	var out []fields.Key
	add := func(k fields.Key) {
		if seen[k] || !registry.Has(k) {
			return
		}
		seen[k] = true
		if !c.IsHidden(k) {
			out = append(out, k)
		}
	}
	for _, k := range c.ColumnOrder {
		add(k)
	}
	for _, k := range registry.Keys() {
		add(k)
	}
	return out
}

// normalize returns a copy with sort defaults filled in and hidden columns
// sorted and deduplicated.
func (c Config) normalize() Config {
	n := c.Clone()
	// The set hash cancels duplicates pairwise, so keep distinct keys only.
	slices.Sort(n.HiddenColumns)
	n.HiddenColumns = slices.Compact(n.HiddenColumns)
	for i := range n.Sorts {
		n.Sorts[i] = n.Sorts[i].Normalize()
	}
	return n
}

// fingerprint hashes the normalized configuration. Different fingerprints
// mean different configurations; equal ones still need a full comparison.
func (c Config) fingerprint() (uint64, error) {
	h, err := hashstructure.Hash(c, nil)
	if err != nil {
		return 0, fmt.Errorf("hashing view configuration: %w", err)
	}
	return h, nil
}

// Equal reports whether a and b describe the same configuration. Hidden
// columns compare as a set; everything else is order sensitive.
func Equal(a, b Config) bool {
	na, nb := a.normalize(), b.normalize()
	ha, errA := na.fingerprint()
	hb, errB := nb.fingerprint()
	if errA == nil && errB == nil && ha != hb {
		return false
	}
	return slices.Equal(na.ColumnOrder, nb.ColumnOrder) &&
		slices.Equal(na.HiddenColumns, nb.HiddenColumns) &&
		slices.Equal(na.Filters, nb.Filters) &&
		slices.Equal(na.Sorts, nb.Sorts) &&
		na.Group == nb.Group
}
