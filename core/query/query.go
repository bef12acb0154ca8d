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

// Package query encodes a live view configuration in a URL so that a table
// state can be bookmarked and shared.
//
// Parameters:
//
//	view=<name>
//	columns=<k1>,<k2>,...             column order
//	hidden=<k1>,<k2>,...              hidden columns
//	filter=<field>:<op>:<value>       repeated, in rule order
//	sort=<field>:<mode>:<dir>:<nulls>[:<pin>]  repeated, in key order
//	group=<level1>[,<level2>]
//	limit=<n>                         0 shows every row
package query

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/safehtml"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/sorting"
	"github.com/threadworks/gridview/core/views"
)

// Query represents the parsed state of a table view URL
type Query struct {
	// Base path (e.g., "/api/tables/trims/rows")
	Path string

	View    string
	Columns []string
	Hidden  []string
	Filters []filtering.Rule
	Sorts   []sorting.Key
	Group   []string
	Limit   int
}

// NewQuery creates a Query from a URL. Malformed parameters are kept as
// written and reported by ToConfig.
func NewQuery(u *url.URL) *Query {
	state := &Query{Path: u.Path}
	q := u.Query()

	state.View = q.Get("view")
	state.Columns = splitList(q.Get("columns"))
	state.Hidden = splitList(q.Get("hidden"))
	state.Group = splitList(q.Get("group"))

	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit >= 0 {
			state.Limit = limit
		}
	}

	// Format: field:op:value. The value may itself contain colons.
	for _, f := range q["filter"] {
		parts := strings.SplitN(f, ":", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		state.Filters = append(state.Filters, filtering.Rule{
			Field:    fields.Key(parts[0]),
			Operator: filtering.Operator(parts[1]),
			Value:    parts[2],
		})
	}

	// Format: field:mode:dir:nulls[:pin]. Missing parts take the defaults.
	for _, s := range q["sort"] {
		parts := strings.SplitN(s, ":", 5)
		for len(parts) < 5 {
			parts = append(parts, "")
		}
		state.Sorts = append(state.Sorts, sorting.Key{
			Field:     fields.Key(parts[0]),
			Mode:      sorting.Mode(parts[1]),
			Direction: sorting.Direction(parts[2]),
			Nulls:     sorting.NullPlacement(parts[3]),
			Pin:       parts[4],
		})
	}
	return state
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromConfig creates a Query describing c.
func FromConfig(path, view string, c views.Config) *Query {
	q := &Query{
		Path:    path,
		View:    view,
		Filters: filtering.Clone(c.Filters),
		Sorts:   sorting.Clone(c.Sorts),
	}
	for _, k := range c.ColumnOrder {
		q.Columns = append(q.Columns, string(k))
	}
	for _, k := range c.HiddenColumns {
		q.Hidden = append(q.Hidden, string(k))
	}
	for _, k := range c.Group.Fields() {
		q.Group = append(q.Group, string(k))
	}
	return q
}

// HasConfig reports whether the query carries any configuration parameter
// besides the view name and the limit.
func (s *Query) HasConfig() bool {
	return len(s.Columns) > 0 || len(s.Hidden) > 0 || len(s.Filters) > 0 ||
		len(s.Sorts) > 0 || len(s.Group) > 0
}

// ToConfig converts the query into a configuration, validating every field,
// operator and sort setting against registry.
func (s *Query) ToConfig(registry *fields.Registry) (views.Config, error) {
	var c views.Config
	for _, k := range s.Columns {
		c.ColumnOrder = append(c.ColumnOrder, fields.Key(k))
	}
	for _, k := range s.Hidden {
		c.HiddenColumns = append(c.HiddenColumns, fields.Key(k))
	}
	for _, r := range s.Filters {
		op, err := filtering.ParseOperator(string(r.Operator))
		if err != nil {
			return views.Config{}, fmt.Errorf("filter on %q: %w", r.Field, err)
		}
		r.Operator = op
		c.Filters = append(c.Filters, r)
	}
	for _, k := range s.Sorts {
		key, err := parseSortKey(k)
		if err != nil {
			return views.Config{}, err
		}
		c.Sorts = append(c.Sorts, key)
	}
	switch len(s.Group) {
	case 0:
	case 1:
		c.Group = grouping.Spec{Level1: fields.Key(s.Group[0])}
	case 2:
		c.Group = grouping.Spec{Level1: fields.Key(s.Group[0]), Level2: fields.Key(s.Group[1])}
	default:
		return views.Config{}, fmt.Errorf("at most two grouping levels, got %d", len(s.Group))
	}
	if err := c.Validate(registry); err != nil {
		return views.Config{}, err
	}
	return c, nil
}

func parseSortKey(k sorting.Key) (sorting.Key, error) {
	var err error
	out := sorting.Key{Field: k.Field, Pin: k.Pin}
	if out.Mode, err = sorting.ParseMode(string(k.Mode)); err != nil {
		return sorting.Key{}, fmt.Errorf("sort on %q: %w", k.Field, err)
	}
	if k.Direction != "" {
		if out.Direction, err = sorting.ParseDirection(string(k.Direction)); err != nil {
			return sorting.Key{}, fmt.Errorf("sort on %q: %w", k.Field, err)
		}
	}
	if k.Nulls != "" {
		if out.Nulls, err = sorting.ParseNullPlacement(string(k.Nulls)); err != nil {
			return sorting.Key{}, fmt.Errorf("sort on %q: %w", k.Field, err)
		}
	}
	return out.Normalize(), nil
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	return &Query{
		Path:    s.Path,
		View:    s.View,
		Columns: slices.Clone(s.Columns),
		Hidden:  slices.Clone(s.Hidden),
		Filters: filtering.Clone(s.Filters),
		Sorts:   sorting.Clone(s.Sorts),
		Group:   slices.Clone(s.Group),
		Limit:   s.Limit,
	}
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{
		Path: s.Path,
	}
	q := u.Query()

	if s.View != "" {
		q.Set("view", s.View)
	}
	if len(s.Columns) > 0 {
		q.Set("columns", strings.Join(s.Columns, ","))
	}
	if len(s.Hidden) > 0 {
		q.Set("hidden", strings.Join(s.Hidden, ","))
	}
	for _, r := range s.Filters {
		q.Add("filter", string(r.Field)+":"+string(r.Operator)+":"+r.Value)
	}
	for _, k := range s.Sorts {
		k = k.Normalize()
		v := string(k.Field) + ":" + string(k.Mode) + ":" + string(k.Direction) + ":" + string(k.Nulls)
		if k.Pin != "" {
			v += ":" + k.Pin
		}
		q.Add("sort", v)
	}
	if len(s.Group) > 0 {
		q.Set("group", strings.Join(s.Group, ","))
	}
	if s.Limit > 0 {
		q.Set("limit", strconv.Itoa(s.Limit))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	// URLSanitized sanitizes the input string and returns a URL
	return safehtml.URLSanitized(s.ToURL())
}

// IsColumnHidden checks if a column is in the hidden list
func (s *Query) IsColumnHidden(column string) bool {
	return slices.Contains(s.Hidden, column)
}

// WithColumnToggled returns a URL with the column hidden if visible and shown
// if hidden.
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	if s.IsColumnHidden(column) {
		newState.Hidden = slices.DeleteFunc(newState.Hidden, func(c string) bool { return c == column })
	} else {
		newState.Hidden = append(newState.Hidden, column)
	}
	return newState.ToSafeURL()
}

// WithFilter returns a URL with the rule appended
func (s *Query) WithFilter(rule filtering.Rule) safehtml.URL {
	newState := s.Clone()
	newState.Filters = filtering.Reduce(newState.Filters, filtering.AddRule{Rule: rule})
	return newState.ToSafeURL()
}

// WithoutFilter returns a URL with the rule at index removed
func (s *Query) WithoutFilter(index int) safehtml.URL {
	newState := s.Clone()
	newState.Filters = filtering.Reduce(newState.Filters, filtering.RemoveRule{Index: index})
	return newState.ToSafeURL()
}

// WithSortToggled cycles the sort on field: unsorted, ascending, descending
// and back to unsorted.
func (s *Query) WithSortToggled(field string) safehtml.URL {
	newState := s.Clone()
	key := fields.Key(field)
	i := slices.IndexFunc(newState.Sorts, func(k sorting.Key) bool { return k.Field == key })
	switch {
	case i < 0:
		newState.Sorts = sorting.Reduce(newState.Sorts, sorting.AddKey{Key: sorting.Key{Field: key}})
	case newState.Sorts[i].Normalize().Direction == sorting.Asc:
		newState.Sorts = sorting.Reduce(newState.Sorts, sorting.ToggleDirection{Field: key})
	default:
		newState.Sorts = sorting.Reduce(newState.Sorts, sorting.RemoveKey{Field: key})
	}
	return newState.ToSafeURL()
}

// WithGroup returns a URL grouped by the given levels. No levels removes
// the grouping.
func (s *Query) WithGroup(levels ...string) safehtml.URL {
	newState := s.Clone()
	newState.Group = slices.Clone(levels)
	return newState.ToSafeURL()
}

// WithView returns a URL loading the named view with no overrides
func (s *Query) WithView(name string) safehtml.URL {
	newState := &Query{Path: s.Path, View: name, Limit: s.Limit}
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different row limit
func (s *Query) WithLimit(limit int) safehtml.URL {
	newState := s.Clone()
	newState.Limit = limit
	return newState.ToSafeURL()
}
