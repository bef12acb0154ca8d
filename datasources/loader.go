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

// Package datasources loads table records from external sources. A source
// is described by a loader type and a string map of loader settings; the
// Manager loads sources lazily and caches the resulting collections.
package datasources

import (
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// DataSource describes where the records of a table come from.
type DataSource struct {
	Name       string
	SourceType string
	Config     map[string]string
}

// DataSourceLoader is the interface that all data source loaders must implement.
// Gridview provides a built-in loader for "csv".
type DataSourceLoader interface {
	// SourceType returns the type identifier used in config (e.g., "csv").
	SourceType() string

	// DiscoverSchema returns fields inferred from the data source. It is
	// used when a table declares no fields of its own.
	DiscoverSchema(config map[string]string) ([]fields.Field, error)

	// Load reads every row of the source into a collection of registry.
	Load(config map[string]string, registry *fields.Registry) (*records.Collection, error)
}
