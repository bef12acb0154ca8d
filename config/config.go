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

// Package config provides configuration loading for gridview: logging, the
// HTTP listener and the tables served with their fields, data files, saved
// views and column summaries.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/threadworks/gridview/core/views"
	"gopkg.in/yaml.v3"
)

// Config represents the complete gridview configuration
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	// CurrencySymbol prefixes currency summaries (default: "$")
	CurrencySymbol string        `yaml:"currency_symbol"`
	Tables         []TableConfig `yaml:"tables"`

	// baseDir is the directory of the loaded file. Table data paths are
	// resolved against it.
	baseDir string
	// path is the file the config was loaded from, if any.
	path string
}

// LogConfig configures the process logger
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `yaml:"level"`
	// Format is "text" or "json" (default: text)
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	// Addr is the listen address (default: ":8080")
	Addr string `yaml:"addr"`
}

// TableConfig describes one table
type TableConfig struct {
	Name string `yaml:"name"`
	// Data is the CSV file holding the rows, relative to the config file
	Data string `yaml:"data"`
	// Delimiter overrides the CSV field separator
	Delimiter string `yaml:"delimiter,omitempty"`
	// NoHeader maps CSV columns to Fields by position
	NoHeader bool `yaml:"no_header,omitempty"`
	// Fields declares the columns. When empty, they are inferred from Data.
	Fields      []FieldConfig `yaml:"fields,omitempty"`
	DefaultView views.Config  `yaml:"default_view,omitempty"`
	Views       []ViewConfig  `yaml:"views,omitempty"`
	// Aggregations maps a field key to a summary function name
	Aggregations map[string]string `yaml:"aggregations,omitempty"`
}

// FieldConfig declares one column of a table
type FieldConfig struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label,omitempty"`
	Type     string   `yaml:"type,omitempty"`
	Required bool     `yaml:"required,omitempty"`
	Options  []string `yaml:"options,omitempty"`
	// Expression computes the value of a computed field from the other
	// fields of the record, e.g. "qty_on_hand * unit_price".
	Expression string `yaml:"expression,omitempty"`
}

// ViewConfig is a predefined saved view
type ViewConfig struct {
	Name   string       `yaml:"name"`
	Config views.Config `yaml:",inline"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		CurrencySymbol: "$",
	}
}

// BaseDir returns the directory relative data paths are resolved against.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// SlogLevel returns the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	seen := make(map[string]bool, len(c.Tables))
	for i, t := range c.Tables {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("tables[%d].name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("table %q is declared twice", name)
		}
		seen[name] = true
		if t.Data == "" {
			return fmt.Errorf("table %q: data is required", name)
		}
		if t.NoHeader && len(t.Fields) == 0 {
			return fmt.Errorf("table %q: fields are required when no_header is set", name)
		}
		for j, v := range t.Views {
			if strings.TrimSpace(v.Name) == "" {
				return fmt.Errorf("table %q: views[%d].name is required", name, j)
			}
		}
	}
	return nil
}

// Table returns the configuration of the named table.
func (c *Config) Table(name string) (TableConfig, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableConfig{}, false
}

// Parse parses YAML configuration over the defaults. baseDir is the
// directory relative data paths are resolved against.
func Parse(data []byte, baseDir string) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.baseDir = baseDir
	return config, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	cfg.path = abs
	return cfg, nil
}

// Path returns the file the configuration was loaded from, or "" when it
// was parsed from memory.
func (c *Config) Path() string {
	return c.path
}

// PutView stores vc as the saved view name of table, replacing a view of the
// same name.
func (c *Config) PutView(table, name string, vc views.Config) error {
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Name != table {
			continue
		}
		for j := range t.Views {
			if t.Views[j].Name == name {
				t.Views[j].Config = vc.Clone()
				return nil
			}
		}
		t.Views = append(t.Views, ViewConfig{Name: name, Config: vc.Clone()})
		return nil
	}
	return fmt.Errorf("table %q not found", table)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
