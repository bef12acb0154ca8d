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
	"log/slog"
	"slices"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/sorting"
)

// Action is a state transition on a live configuration.
type Action interface {
	reduce(c Config) Config
}

// SetFilters replaces every filter rule.
type SetFilters struct{ Rules []filtering.Rule }

// SetSorts replaces every sort key.
type SetSorts struct{ Keys []sorting.Key }

// SetGroup replaces the grouping.
type SetGroup struct{ Spec grouping.Spec }

// SetColumnVisibility shows or hides one column.
type SetColumnVisibility struct {
	Field  fields.Key
	Hidden bool
}

// SetColumnOrder replaces the column order.
type SetColumnOrder struct{ Order []fields.Key }

// FilterAction applies a filter rule transition.
type FilterAction struct{ Action filtering.Action }

// SortAction applies a sort key transition.
type SortAction struct{ Action sorting.Action }

// GroupAction applies a grouping transition.
type GroupAction struct{ Action grouping.Action }

// Reduce applies an action to a copy of c.
func Reduce(c Config, action Action) Config {
	return action.reduce(c.Clone())
}

// Dispatch applies an action to the live configuration.
func (s *Store) Dispatch(action Action) {
	s.live = Reduce(s.live, action)
	s.logger.Debug("live configuration changed", slog.String("view", s.active), slog.Bool("dirty", s.IsDirty()))
}

func (a SetFilters) reduce(c Config) Config {
	c.Filters = filtering.Clone(a.Rules)
	return c
}

func (a SetSorts) reduce(c Config) Config {
	c.Sorts = sorting.Clone(a.Keys)
	return c
}

func (a SetGroup) reduce(c Config) Config {
	c.Group = a.Spec
	return c
}

func (a SetColumnVisibility) reduce(c Config) Config {
	c.HiddenColumns = slices.DeleteFunc(c.HiddenColumns, func(k fields.Key) bool { return k == a.Field })
	if a.Hidden {
		c.HiddenColumns = append(c.HiddenColumns, a.Field)
	}
	return c
}

func (a SetColumnOrder) reduce(c Config) Config {
	c.ColumnOrder = slices.Clone(a.Order)
	return c
}

func (a FilterAction) reduce(c Config) Config {
	c.Filters = filtering.Reduce(c.Filters, a.Action)
	return c
}

func (a SortAction) reduce(c Config) Config {
	c.Sorts = sorting.Reduce(c.Sorts, a.Action)
	return c
}

func (a GroupAction) reduce(c Config) Config {
	c.Group = grouping.Reduce(c.Group, a.Action)
	return c
}
