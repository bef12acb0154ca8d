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

// Package tables runs the view pipeline of one table: filter, sort, group
// and aggregate the caller's records according to the live configuration of
// the table's view store.
package tables

import (
	"fmt"
	"log/slog"

	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/records"
	"github.com/threadworks/gridview/core/sorting"
	"github.com/threadworks/gridview/core/views"
)

// TableView is the engine instance of one table. Each table owns its own
// TableView; nothing is shared between tables. It is not safe for
// concurrent use.
type TableView struct {
	name         string
	registry     *fields.Registry
	store        *views.Store
	aggregations aggregates.Spec
	logger       *slog.Logger
}

// Option configures a TableView.
type Option func(*TableView)

// WithLogger sets the logger used by the table and its view store.
func WithLogger(logger *slog.Logger) Option {
	return func(tv *TableView) {
		tv.logger = logger
	}
}

// WithAggregations sets the initial column summaries.
func WithAggregations(spec aggregates.Spec) Option {
	return func(tv *TableView) {
		tv.aggregations = spec.Clone()
	}
}

// NewTableView creates the engine of table name. defaultConfig becomes the
// locked Default view.
func NewTableView(name string, registry *fields.Registry, defaultConfig views.Config, opts ...Option) (*TableView, error) {
	tv := &TableView{
		name:         name,
		registry:     registry,
		aggregations: aggregates.Spec{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(tv)
	}
	tv.logger = tv.logger.With(slog.String("table", name))

	if err := defaultConfig.Validate(registry); err != nil {
		return nil, fmt.Errorf("table %q: default view: %w", name, err)
	}
	if err := tv.aggregations.Validate(registry); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}
	tv.store = views.NewStore(defaultConfig, tv.logger)
	return tv, nil
}

// Name returns the table name.
func (tv *TableView) Name() string {
	return tv.name
}

// Registry returns the field registry of the table.
func (tv *TableView) Registry() *fields.Registry {
	return tv.registry
}

// Live returns a copy of the live configuration.
func (tv *TableView) Live() views.Config {
	return tv.store.Live()
}

// Views returns every saved view, Default first.
func (tv *TableView) Views() []views.View {
	return tv.store.Views()
}

// ActiveView returns the active view.
func (tv *TableView) ActiveView() views.View {
	return tv.store.Active()
}

// IsDirty reports whether the live configuration differs from the active
// view.
func (tv *TableView) IsDirty() bool {
	return tv.store.IsDirty()
}

// Aggregations returns a copy of the column summaries.
func (tv *TableView) Aggregations() aggregates.Spec {
	return tv.aggregations.Clone()
}

// SetFilters replaces the live filter rules.
func (tv *TableView) SetFilters(rules []filtering.Rule) error {
	if err := filtering.Validate(tv.registry, rules); err != nil {
		return err
	}
	tv.store.Dispatch(views.SetFilters{Rules: rules})
	return nil
}

// SetSorts replaces the live sort keys.
func (tv *TableView) SetSorts(keys []sorting.Key) error {
	if err := sorting.Validate(tv.registry, keys); err != nil {
		return err
	}
	tv.store.Dispatch(views.SetSorts{Keys: keys})
	return nil
}

// SetGroup replaces the live grouping.
func (tv *TableView) SetGroup(spec grouping.Spec) error {
	if err := grouping.Validate(tv.registry, spec); err != nil {
		return err
	}
	tv.store.Dispatch(views.SetGroup{Spec: spec})
	return nil
}

// SetColumnVisibility shows or hides a column.
func (tv *TableView) SetColumnVisibility(key fields.Key, hidden bool) error {
	if err := tv.registry.Validate("column visibility", key); err != nil {
		return err
	}
	tv.store.Dispatch(views.SetColumnVisibility{Field: key, Hidden: hidden})
	return nil
}

// SetColumnOrder replaces the live column order.
func (tv *TableView) SetColumnOrder(order []fields.Key) error {
	if err := tv.registry.Validate("column order", order...); err != nil {
		return err
	}
	tv.store.Dispatch(views.SetColumnOrder{Order: order})
	return nil
}

// SetConfig replaces the whole live configuration.
func (tv *TableView) SetConfig(c views.Config) error {
	if err := c.Validate(tv.registry); err != nil {
		return err
	}
	tv.store.SetLive(c)
	return nil
}

// SetAggregation sets the summary of a column. An empty function removes it.
func (tv *TableView) SetAggregation(key fields.Key, fn aggregates.Function) error {
	if err := tv.registry.Validate("aggregation", key); err != nil {
		return err
	}
	if fn == "" {
		delete(tv.aggregations, key)
		return nil
	}
	next := aggregates.Spec{key: fn}
	if err := next.Validate(tv.registry); err != nil {
		return err
	}
	tv.aggregations[key] = fn
	return nil
}

// LoadView makes name the active view.
func (tv *TableView) LoadView(name string) error {
	return tv.store.Load(name)
}

// SaveView saves the live configuration as name.
func (tv *TableView) SaveView(name string) error {
	return tv.store.Save(name)
}

// UpdateActiveView saves the live configuration into the active view.
func (tv *TableView) UpdateActiveView() error {
	return tv.store.Update()
}

// RenameView renames a saved view.
func (tv *TableView) RenameView(oldName, newName string) error {
	return tv.store.Rename(oldName, newName)
}

// DeleteView deletes a saved view.
func (tv *TableView) DeleteView(name string) error {
	return tv.store.Delete(name)
}

// SeedView adds a predefined saved view.
func (tv *TableView) SeedView(v views.View) error {
	if err := v.Config.Validate(tv.registry); err != nil {
		return fmt.Errorf("view %q: %w", v.Name, err)
	}
	return tv.store.Seed(v)
}

// Compute runs the pipeline over rs with the live configuration.
func (tv *TableView) Compute(rs []*records.Record) (*Result, error) {
	return tv.ComputeWith(rs, tv.store.Live())
}

// ComputeWith runs the pipeline over rs with an explicit configuration,
// leaving the live configuration untouched.
func (tv *TableView) ComputeWith(rs []*records.Record, live views.Config) (*Result, error) {
	if err := live.Validate(tv.registry); err != nil {
		return nil, err
	}
	visible, err := filtering.Apply(tv.registry, rs, live.Filters)
	if err != nil {
		return nil, err
	}
	sorted, err := sorting.Apply(tv.registry, visible, live.Sorts)
	if err != nil {
		return nil, err
	}
	groups := grouping.Apply(sorted, live.Group)

	columns := make([]fields.Field, 0, tv.registry.Len())
	for _, k := range live.VisibleColumns(tv.registry) {
		columns = append(columns, tv.registry.MustByKey(k))
	}

	active := tv.store.Active()
	result := &Result{
		Table:         tv.name,
		Rows:          sorted,
		Groups:        groups,
		Columns:       columns,
		Group:         live.Group,
		ActiveView:    active.Name,
		Locked:        active.Locked,
		Dirty:         !views.Equal(live, active.Config),
		ActiveFilters: filtering.ActiveCount(live.Filters),
		Total:         len(rs),
	}
	result.Subtotals, result.Aggregates = tv.summarize(groups)

	tv.logger.Debug("table computed",
		slog.Int("total", len(rs)),
		slog.Int("visible", len(sorted)),
		slog.Int("groups", len(groups)))
	return result, nil
}

// summarize accumulates every aggregated column per bucket and combines the
// bucket states into group subtotals and the footer.
func (tv *TableView) summarize(groups []*grouping.Group) ([]GroupTotals, Aggregates) {
	keys := tv.aggregations.Keys()
	if len(keys) == 0 {
		return nil, nil
	}
	newSet := func() map[fields.Key]*aggregates.Accumulator {
		set := make(map[fields.Key]*aggregates.Accumulator, len(keys))
		for _, k := range keys {
			set[k] = aggregates.NewAccumulator(tv.registry.MustByKey(k))
		}
		return set
	}
	results := func(set map[fields.Key]*aggregates.Accumulator) Aggregates {
		out := make(Aggregates, len(set))
		for k, acc := range set {
			out[k] = acc.Result(tv.aggregations[k])
		}
		return out
	}

	footer := newSet()
	subtotals := make([]GroupTotals, len(groups))
	for i, g := range groups {
		groupSet := newSet()
		buckets := make([]Aggregates, len(g.Buckets))
		for j, b := range g.Buckets {
			bucketSet := newSet()
			for _, k := range keys {
				bucketSet[k].AddAll(b.Rows)
				groupSet[k].Combine(bucketSet[k])
			}
			buckets[j] = results(bucketSet)
		}
		for _, k := range keys {
			footer[k].Combine(groupSet[k])
		}
		subtotals[i] = GroupTotals{Aggregates: results(groupSet), Buckets: buckets}
	}
	return subtotals, results(footer)
}
