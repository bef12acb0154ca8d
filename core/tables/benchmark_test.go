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
Benchmarks for the view pipeline.

Run all benchmarks:

	go test -bench=. -benchmem ./core/tables/

Run worst-case benchmarks only (80% selectivity):

	go test -bench=WorstCase -benchmem ./core/tables/

# Available Benchmarks

Normal case (filter keeps 1% of rows):
  - BenchmarkFiltering100K        - Single category filter
  - BenchmarkFilteringMultiple100K - Category and numeric filter
  - BenchmarkSorting100K          - Two sort keys, numeric then alpha
  - BenchmarkSortingFrequency100K - Frequency sort over a category
  - BenchmarkGrouping100K         - Group by one column (100 groups)
  - BenchmarkGroupingMultiLevel100K - Group by two columns
  - BenchmarkComputedField100K    - Populate a computed field
  - BenchmarkFullPipeline100K     - Filter, sort, group and aggregate

Worst case (filter keeps 80% of rows):
  - BenchmarkFullPipelineWorstCase100K

To benchmark a different size, change the argument to createLargeCollection.
*/

package tables

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/expr"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/filtering"
	"github.com/threadworks/gridview/core/grouping"
	"github.com/threadworks/gridview/core/records"
	"github.com/threadworks/gridview/core/sorting"
	"github.com/threadworks/gridview/core/views"
)

var benchRegistry = func() *fields.Registry {
	reg, err := fields.NewRegistry(
		fields.Field{Key: "code", Type: fields.TypeIdentifier},
		fields.Field{Key: "category", Type: fields.TypeCategory},
		fields.Field{Key: "supplier", Type: fields.TypeCategory},
		fields.Field{Key: "qty", Type: fields.TypeNumber},
		fields.Field{Key: "price", Type: fields.TypeCurrency},
		fields.Field{Key: "value", Type: fields.TypeComputed},
	)
	if err != nil {
		panic(err)
	}
	return reg
}()

// createLargeCollection creates numRows records. Every 50th quantity is blank
// and every 100th is not a number.
func createLargeCollection(numRows int) *records.Collection {
	c := records.NewCollection(benchRegistry)
	for i := 0; i < numRows; i++ {
		qty := records.Number(float64(i % 10000))
		switch {
		case i%100 == 0:
			qty = records.Text("n/a")
		case i%50 == 0:
			qty = records.Empty()
		}
		_, err := c.Add(map[fields.Key]records.Value{
			"code":     records.Text("T-" + strconv.Itoa(i)),
			"category": records.Text(fmt.Sprintf("category_%d", i%100)),
			"supplier": records.Text(fmt.Sprintf("supplier_%d", i%7)),
			"qty":      qty,
			"price":    records.Number(float64(i%250) / 10),
		})
		if err != nil {
			panic(err)
		}
	}
	c.Commit()
	return c
}

func newBenchView(b *testing.B) *TableView {
	b.Helper()
	tv, err := NewTableView("benchmark", benchRegistry, views.Config{},
		WithAggregations(aggregates.Spec{
			"code":  aggregates.Count,
			"qty":   aggregates.Sum,
			"price": aggregates.Avg,
		}))
	if err != nil {
		b.Fatalf("Failed to create view: %v", err)
	}
	return tv
}

func runCompute(b *testing.B, tv *TableView, rs []*records.Record) {
	b.Helper()
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := tv.Compute(rs); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFiltering100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetFilters([]filtering.Rule{
		{Field: "category", Operator: filtering.OpIs, Value: "category_50"},
	}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkFilteringMultiple100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetFilters([]filtering.Rule{
		{Field: "category", Operator: filtering.OpIs, Value: "category_50"},
		{Field: "qty", Operator: filtering.OpGte, Value: "5000"},
	}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkSorting100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetSorts([]sorting.Key{
		{Field: "qty", Mode: sorting.ModeNumeric, Direction: sorting.Desc, Nulls: sorting.NullsLast},
		{Field: "code", Mode: sorting.ModeAlpha, Direction: sorting.Asc, Nulls: sorting.NullsLast},
	}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkSortingFrequency100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetSorts([]sorting.Key{
		{Field: "supplier", Mode: sorting.ModeFrequencyHigh, Direction: sorting.Asc, Nulls: sorting.NullsLast},
	}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkGrouping100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetGroup(grouping.Spec{Level1: "category"}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkGroupingMultiLevel100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetGroup(grouping.Spec{Level1: "supplier", Level2: "category"}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkComputedField100K(b *testing.B) {
	rs := createLargeCollection(100_000).All()

	// Compile expression once
	compiled, err := expr.Compile("round(qty * price, 2)")
	if err != nil {
		b.Fatalf("Failed to compile expression: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		expr.Populate(rs, "value", compiled)
	}
}

func benchmarkFullPipeline(b *testing.B, rules []filtering.Rule) {
	rs := createLargeCollection(100_000).All()
	tv := newBenchView(b)
	if err := tv.SetFilters(rules); err != nil {
		b.Fatal(err)
	}
	if err := tv.SetSorts([]sorting.Key{
		{Field: "price", Mode: sorting.ModeNumeric, Direction: sorting.Desc, Nulls: sorting.NullsLast},
	}); err != nil {
		b.Fatal(err)
	}
	if err := tv.SetGroup(grouping.Spec{Level1: "supplier", Level2: "category"}); err != nil {
		b.Fatal(err)
	}
	runCompute(b, tv, rs)
}

func BenchmarkFullPipeline100K(b *testing.B) {
	benchmarkFullPipeline(b, []filtering.Rule{
		{Field: "category", Operator: filtering.OpIs, Value: "category_50"},
	})
}

func BenchmarkFullPipelineWorstCase100K(b *testing.B) {
	benchmarkFullPipeline(b, []filtering.Rule{
		{Field: "qty", Operator: filtering.OpLt, Value: "8000"},
	})
}
