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

// Package demo ships a Trim Master table with a handful of saved views, so
// gridview can be tried without writing any configuration.
package demo

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/threadworks/gridview/config"
	"github.com/threadworks/gridview/datasources"
)

//go:embed data
var files embed.FS

// ConfigFile is the name of the demo configuration inside FS.
const ConfigFile = "gridview.yaml"

// FS returns the demo configuration and data files.
func FS() fs.FS {
	sub, err := fs.Sub(files, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Config returns the validated demo configuration.
func Config() (*config.Config, error) {
	data, err := fs.ReadFile(FS(), ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo config: %w", err)
	}
	cfg, err := config.Parse(data, "")
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("demo config: %w", err)
	}
	return cfg, nil
}

// Build loads the demo configuration and builds its tables from the
// embedded CSV files.
func Build(logger *slog.Logger) (*config.Config, []*config.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := Config()
	if err != nil {
		return nil, nil, err
	}
	manager := datasources.NewManager(logger)
	manager.RegisterLoader(datasources.NewCsvLoaderFS(FS(), logger))

	built, err := config.NewLoader(logger).BuildTables(cfg, manager)
	if err != nil {
		return nil, nil, err
	}
	return cfg, built, nil
}
