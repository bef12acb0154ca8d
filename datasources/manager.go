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

package datasources

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// Manager handles loading and caching of data sources.
// Sources are registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name
	sources map[string]*DataSource

	// Cached collections indexed by source name - populated lazily
	collections map[string]*records.Collection

	// Registered loaders indexed by source_type
	loaders map[string]DataSourceLoader

	// Base directory for resolving relative paths
	baseDir string

	logger *slog.Logger
}

// NewManager creates a new data source manager with the CSV loader
// registered.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		sources:     make(map[string]*DataSource),
		collections: make(map[string]*records.Collection),
		loaders:     make(map[string]DataSourceLoader),
		logger:      logger,
	}
	m.RegisterLoader(NewCsvLoader(logger))
	return m
}

// RegisterLoader registers a data source loader for a specific source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader DataSourceLoader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// SetBaseDir sets the directory relative file paths are resolved against.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource registers a source. Registering a name again replaces the
// source and drops its cached data.
func (m *Manager) AddSource(source *DataSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[source.Name] = source
	delete(m.collections, source.Name)
}

// GetSourceNames returns the names of every registered source, sorted.
func (m *Manager) GetSourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) prepare(sourceName string) (DataSourceLoader, map[string]string, error) {
	m.mu.RLock()
	source, ok := m.sources[sourceName]
	if !ok {
		m.mu.RUnlock()
		return nil, nil, fmt.Errorf("source %q not found", sourceName)
	}
	loader, hasLoader := m.loaders[source.SourceType]
	baseDir := m.baseDir
	m.mu.RUnlock()

	if !hasLoader {
		return nil, nil, fmt.Errorf("no loader registered for source type %q", source.SourceType)
	}
	return loader, m.resolveConfigPaths(source.Config, baseDir), nil
}

// DiscoverSchema infers the fields of a source.
func (m *Manager) DiscoverSchema(sourceName string) ([]fields.Field, error) {
	loader, config, err := m.prepare(sourceName)
	if err != nil {
		return nil, err
	}
	discovered, err := loader.DiscoverSchema(config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover schema for source %q: %w", sourceName, err)
	}
	return discovered, nil
}

// LoadData returns the records of a source, loading them on first use.
func (m *Manager) LoadData(sourceName string, registry *fields.Registry) (*records.Collection, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if c, ok := m.collections[sourceName]; ok {
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()

	loader, config, err := m.prepare(sourceName)
	if err != nil {
		return nil, err
	}
	c, err := loader.Load(config, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", sourceName, err)
	}
	m.logger.Info("source loaded", slog.String("source", sourceName), slog.Int("rows", c.Len()))

	// Cache the result
	m.mu.Lock()
	m.collections[sourceName] = c
	m.mu.Unlock()

	return c, nil
}

// resolveConfigPaths resolves relative file paths in config to absolute paths.
func (m *Manager) resolveConfigPaths(config map[string]string, baseDir string) map[string]string {
	resolved := make(map[string]string, len(config))
	for k, v := range config {
		if k == "file_path" && v != "" && baseDir != "" && !filepath.IsAbs(v) {
			resolved[k] = filepath.Join(baseDir, v)
		} else {
			resolved[k] = v
		}
	}
	return resolved
}

// InvalidateCache removes a source from the cache, forcing reload on next access.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, sourceName)
}

// IsLoaded returns whether data for a source is currently cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[sourceName]
	return ok
}
