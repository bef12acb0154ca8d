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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/sorting"
	"github.com/threadworks/gridview/core/views"
	"github.com/threadworks/gridview/datasources"
)

const testConfig = `
log:
  level: debug
server:
  addr: "127.0.0.1:9000"
currency_symbol: "€"
tables:
  - name: trims
    data: data/trims.csv
    fields:
      - {key: code, label: Trim Code, type: identifier}
      - {key: supplier, type: category}
      - {key: qty, label: Qty, type: number, required: true}
    default_view:
      sorts:
        - field: code
    views:
      - name: Big orders
        filters:
          - {field: qty, operator: "≥", value: "10"}
        sorts:
          - {field: qty, direction: desc}
        group:
          level1: supplier
    aggregations:
      qty: Sum
      code: count
`

const testCSV = `Trim Code,Supplier,Qty
BTN-01,Acme,12
ZIP-07,Zipco,
LBL-02,Acme,3
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "trims.csv"), []byte(testCSV), 0o644))
	path := filepath.Join(dir, ProjectConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "$", cfg.CurrencySymbol)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	table := TableConfig{Name: "trims", Data: "trims.csv"}
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"valid table", func(c *Config) { c.Tables = []TableConfig{table} }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"missing table name", func(c *Config) { c.Tables = []TableConfig{{Data: "x.csv"}} }, true},
		{"duplicate table", func(c *Config) { c.Tables = []TableConfig{table, table} }, true},
		{"missing data", func(c *Config) { c.Tables = []TableConfig{{Name: "trims"}} }, true},
		{"no header without fields", func(c *Config) {
			c.Tables = []TableConfig{{Name: "trims", Data: "x.csv", NoHeader: true}}
		}, true},
		{"unnamed view", func(c *Config) {
			c.Tables = []TableConfig{{Name: "trims", Data: "x.csv", Views: []ViewConfig{{}}}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeProject(t)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "€", cfg.CurrencySymbol)
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())

	tc, ok := cfg.Table("trims")
	require.True(t, ok)
	assert.Len(t, tc.Fields, 3)
	require.Len(t, tc.Views, 1)
	assert.Equal(t, "Big orders", tc.Views[0].Name)
	assert.Equal(t, fields.Key("supplier"), tc.Views[0].Config.Group.Level1)

	_, ok = cfg.Table("orders")
	assert.False(t, ok)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	path := writeProject(t)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())

	acme := views.Config{
		Filters: []filtering.Rule{{Field: "supplier", Operator: filtering.OpIs, Value: "Acme"}},
		Sorts:   []sorting.Key{{Field: "qty", Mode: sorting.ModeNumeric, Direction: sorting.Desc, Nulls: sorting.NullsLast}},
	}
	require.NoError(t, cfg.PutView("trims", "Acme", acme))
	require.NoError(t, cfg.PutView("trims", "Big orders", views.Config{}))
	assert.Error(t, cfg.PutView("orders", "Acme", acme))
	require.NoError(t, cfg.SaveToFile(path))

	reloaded, err := LoadFromFile(path)
	require.NoError(t, err)
	tc, ok := reloaded.Table("trims")
	require.True(t, ok)
	require.Len(t, tc.Views, 2)
	assert.Equal(t, "Big orders", tc.Views[0].Name)
	assert.Empty(t, tc.Views[0].Config.Filters)
	assert.Equal(t, "Acme", tc.Views[1].Name)
	assert.True(t, views.Equal(acme, tc.Views[1].Config))
	assert.Equal(t, "data/trims.csv", tc.Data)

	built, err := NewLoader(discard()).BuildTables(reloaded, datasources.NewManager(discard()))
	require.NoError(t, err)
	require.NoError(t, built[0].View.LoadView("Acme"))
	res, err := built[0].View.Compute(built[0].Records.All())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Visible())

	parsed, err := Parse([]byte(testConfig), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, parsed.Path())
}

func TestLoaderLoad(t *testing.T) {
	path := writeProject(t)
	cfg, err := NewLoader(discard()).Load(path)
	require.NoError(t, err)
	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log: {format: xml}\n"), 0o644))
	_, err = NewLoader(discard()).Load(bad)
	assert.Error(t, err)
}

func TestNormalizeView(t *testing.T) {
	cfg, err := Parse([]byte(testConfig), "")
	require.NoError(t, err)
	tc, _ := cfg.Table("trims")

	c, err := NormalizeView(tc.Views[0].Config)
	require.NoError(t, err)
	assert.Equal(t, filtering.OpGte, c.Filters[0].Operator)
	assert.Equal(t, sorting.Key{Field: "qty", Direction: sorting.Desc, Mode: sorting.ModeAuto, Nulls: sorting.NullsLast}, c.Sorts[0])
	// The input is left untouched.
	assert.Equal(t, filtering.Operator("≥"), tc.Views[0].Config.Filters[0].Operator)

	tc.Views[0].Config.Filters[0].Operator = "like"
	_, err = NormalizeView(tc.Views[0].Config)
	assert.Error(t, err)
}

func TestAggregateSpec(t *testing.T) {
	tc := TableConfig{Aggregations: map[string]string{"qty": "Sum", "code": "count-values"}}
	spec, err := tc.AggregateSpec()
	require.NoError(t, err)
	assert.Equal(t, aggregates.Spec{"qty": aggregates.Sum, "code": aggregates.CountValues}, spec)

	tc.Aggregations["qty"] = "mode"
	_, err = tc.AggregateSpec()
	assert.Error(t, err)
}

func TestBuildTables(t *testing.T) {
	path := writeProject(t)
	loader := NewLoader(discard())
	cfg, err := loader.Load(path)
	require.NoError(t, err)

	built, err := loader.BuildTables(cfg, datasources.NewManager(discard()))
	require.NoError(t, err)
	require.Len(t, built, 1)

	tbl := built[0]
	assert.Equal(t, "trims", tbl.View.Name())
	assert.Equal(t, 3, tbl.Records.Len())
	require.Len(t, tbl.View.Views(), 2)
	assert.False(t, tbl.View.IsDirty())

	res, err := tbl.View.Compute(tbl.Records.All())
	require.NoError(t, err)
	assert.Equal(t, "LBL-02", res.Rows[1].Get("code").String())
	assert.Equal(t, 15.0, res.Aggregates["qty"].Value)

	require.NoError(t, tbl.View.LoadView("Big orders"))
	res, err = tbl.View.Compute(tbl.Records.All())
	require.NoError(t, err)
	// The blank quantity fails open and sorts last.
	require.Equal(t, 2, res.Visible())
	assert.Equal(t, "BTN-01", res.Rows[0].Get("code").String())
	assert.Equal(t, "ZIP-07", res.Rows[1].Get("code").String())
	assert.False(t, res.Dirty)
}

func TestBuildTablesInfersFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trims.csv"), []byte(testCSV), 0o644))
	cfg, err := Parse([]byte("tables:\n  - {name: trims, data: trims.csv, aggregations: {qty: sum}}\n"), dir)
	require.NoError(t, err)

	built, err := NewLoader(discard()).BuildTables(cfg, datasources.NewManager(discard()))
	require.NoError(t, err)
	reg := built[0].View.Registry()
	assert.Equal(t, []fields.Key{"trim_code", "supplier", "qty"}, reg.Keys())
	assert.Equal(t, fields.TypeNumber, reg.MustByKey("qty").Type)
}

func TestBuildTablesComputedFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trims.csv"), []byte(testCSV), 0o644))
	cfg, err := Parse([]byte(`
tables:
  - name: trims
    data: trims.csv
    fields:
      - {key: trim_code, type: identifier}
      - {key: supplier, type: category}
      - {key: qty, type: number}
      - {key: doubled, type: computed, expression: "qty * 2"}
      - {key: tag, type: computed, expression: "concat(trim_code, ':', doubled)"}
    aggregations:
      doubled: sum
`), dir)
	require.NoError(t, err)

	built, err := NewLoader(discard()).BuildTables(cfg, datasources.NewManager(discard()))
	require.NoError(t, err)
	tbl := built[0]

	rows := tbl.Records.All()
	doubled, ok := rows[0].Get("doubled").Float()
	require.True(t, ok)
	assert.Equal(t, 24.0, doubled)
	assert.Equal(t, "BTN-01:24", rows[0].Get("tag").String())
	assert.True(t, rows[1].Get("doubled").IsEmpty())
	assert.Equal(t, "ZIP-07:", rows[1].Get("tag").String())

	res, err := tbl.View.Compute(rows)
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Aggregates["doubled"].Value)
}

func TestBuildTablesErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trims.csv"), []byte(testCSV), 0o644))

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field type", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: a, type: money}]\n"},
		{"unknown default sort field", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: qty}]\n    default_view: {sorts: [{field: colour}]}\n"},
		{"reserved view name", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: qty}]\n    views: [{name: default}]\n"},
		{"bad aggregation", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: qty}]\n    aggregations: {colour: sum}\n"},
		{"expression on plain field", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: qty, type: number, expression: '1 + 1'}]\n"},
		{"expression self reference", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: v, type: computed, expression: 'v + 1'}]\n"},
		{"expression unknown field", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: v, type: computed, expression: 'colour + 1'}]\n"},
		{"expression syntax", "tables:\n  - name: t\n    data: trims.csv\n    fields: [{key: qty}, {key: v, type: computed, expression: 'qty +'}]\n"},
		{"missing data file", "tables:\n  - name: t\n    data: nope.csv\n    fields: [{key: qty}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml), dir)
			require.NoError(t, err)
			_, err = NewLoader(discard()).BuildTables(cfg, datasources.NewManager(discard()))
			assert.Error(t, err)
		})
	}
}
