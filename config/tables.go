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

package config

import (
	"fmt"
	"log/slog"

	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/expr"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/records"
	"github.com/threadworks/gridview/core/sorting"
	"github.com/threadworks/gridview/core/tables"
	"github.com/threadworks/gridview/core/views"
	"github.com/threadworks/gridview/datasources"
)

// Table is a configured table with its rows loaded.
type Table struct {
	View    *tables.TableView
	Records *records.Collection
}

// Source returns the data source of the table.
func (t TableConfig) Source() *datasources.DataSource {
	cfg := map[string]string{"file_path": t.Data}
	if t.Delimiter != "" {
		cfg["delimiter"] = t.Delimiter
	}
	if t.NoHeader {
		cfg["has_header"] = "false"
	}
	return &datasources.DataSource{Name: t.Name, SourceType: "csv", Config: cfg}
}

// DeclaredFields converts the declared columns.
func (t TableConfig) DeclaredFields() ([]fields.Field, error) {
	out := make([]fields.Field, 0, len(t.Fields))
	for _, fc := range t.Fields {
		typ, err := fields.ParseType(fc.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Key, err)
		}
		out = append(out, fields.Field{
			Key:      fields.Key(fc.Key),
			Label:    fc.Label,
			Type:     typ,
			Required: fc.Required,
			Options:  fc.Options,
		})
	}
	return out, nil
}

// AggregateSpec parses the configured column summaries.
func (t TableConfig) AggregateSpec() (aggregates.Spec, error) {
	spec := make(aggregates.Spec, len(t.Aggregations))
	for key, name := range t.Aggregations {
		fn, err := aggregates.ParseFunction(name)
		if err != nil {
			return nil, fmt.Errorf("aggregation %q: %w", key, err)
		}
		spec[fields.Key(key)] = fn
	}
	return spec, nil
}

type formula struct {
	key  fields.Key
	expr *expr.Expression
}

// formulas compiles the expressions of computed fields, in declaration order.
func (t TableConfig) formulas(registry *fields.Registry) ([]formula, error) {
	var out []formula
	for _, fc := range t.Fields {
		if fc.Expression == "" {
			continue
		}
		key := fields.Key(fc.Key)
		f, err := registry.ByKey(key)
		if err != nil {
			return nil, err
		}
		if f.Type != fields.TypeComputed {
			return nil, fmt.Errorf("field %q: expression requires type computed, got %s", fc.Key, f.Type)
		}
		e, err := expr.Compile(fc.Expression)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Key, err)
		}
		if err := e.Check(registry); err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Key, err)
		}
		for _, ref := range e.Fields() {
			if ref == key {
				return nil, fmt.Errorf("field %q: expression references itself", fc.Key)
			}
		}
		out = append(out, formula{key: key, expr: e})
	}
	return out, nil
}

// NormalizeView resolves operator aliases and fills sort defaults so that a
// hand-written view compares equal to the same view built through the API.
func NormalizeView(c views.Config) (views.Config, error) {
	out := c.Clone()
	for i, r := range out.Filters {
		op, err := filtering.ParseOperator(string(r.Operator))
		if err != nil {
			return views.Config{}, fmt.Errorf("filter %q: %w", string(r.Field), err)
		}
		out.Filters[i].Operator = op
	}
	for i, k := range out.Sorts {
		k = k.Normalize()
		dir, err := sorting.ParseDirection(string(k.Direction))
		if err != nil {
			return views.Config{}, fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
		mode, err := sorting.ParseMode(string(k.Mode))
		if err != nil {
			return views.Config{}, fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
		nulls, err := sorting.ParseNullPlacement(string(k.Nulls))
		if err != nil {
			return views.Config{}, fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
		k.Direction, k.Mode, k.Nulls = dir, mode, nulls
		out.Sorts[i] = k
	}
	return out, nil
}

// BuildTables registers every table with manager, builds its engine with the
// default and predefined views and loads its rows.
func (l *Loader) BuildTables(cfg *Config, manager *datasources.Manager) ([]*Table, error) {
	manager.SetBaseDir(cfg.BaseDir())

	out := make([]*Table, 0, len(cfg.Tables))
	for _, tc := range cfg.Tables {
		t, err := l.buildTable(tc, manager)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", tc.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (l *Loader) buildTable(tc TableConfig, manager *datasources.Manager) (*Table, error) {
	manager.AddSource(tc.Source())

	declared, err := tc.DeclaredFields()
	if err != nil {
		return nil, err
	}
	if len(declared) == 0 {
		declared, err = manager.DiscoverSchema(tc.Name)
		if err != nil {
			return nil, err
		}
		l.logger.Info("inferred table fields", slog.String("table", tc.Name), slog.Int("fields", len(declared)))
	}
	registry, err := fields.NewRegistry(declared...)
	if err != nil {
		return nil, err
	}

	formulas, err := tc.formulas(registry)
	if err != nil {
		return nil, err
	}

	defaultView, err := NormalizeView(tc.DefaultView)
	if err != nil {
		return nil, fmt.Errorf("default view: %w", err)
	}
	spec, err := tc.AggregateSpec()
	if err != nil {
		return nil, err
	}
	tv, err := tables.NewTableView(tc.Name, registry, defaultView,
		tables.WithLogger(l.logger),
		tables.WithAggregations(spec))
	if err != nil {
		return nil, err
	}

	for _, vc := range tc.Views {
		c, err := NormalizeView(vc.Config)
		if err != nil {
			return nil, fmt.Errorf("view %q: %w", vc.Name, err)
		}
		if err := tv.SeedView(views.View{Name: vc.Name, Config: c}); err != nil {
			return nil, err
		}
	}

	collection, err := manager.LoadData(tc.Name, registry)
	if err != nil {
		return nil, err
	}
	for _, f := range formulas {
		expr.Populate(collection.All(), f.key, f.expr)
		l.logger.Debug("computed field populated", slog.String("table", tc.Name), slog.String("field", string(f.key)))
	}
	if required := countMissing(collection); required > 0 {
		l.logger.Warn("records missing required fields", slog.String("table", tc.Name), slog.Int("records", required))
	}
	return &Table{View: tv, Records: collection}, nil
}

func countMissing(c *records.Collection) int {
	n := 0
	for _, r := range c.All() {
		if len(c.Missing(r)) > 0 {
			n++
		}
	}
	return n
}
