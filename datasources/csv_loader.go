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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

// CsvLoader implements DataSourceLoader for CSV files.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
type CsvLoader struct {
	logger *slog.Logger
	// fsys, when set, is used instead of the operating system to open
	// file_path.
	fsys fs.FS
}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader(logger *slog.Logger) *CsvLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CsvLoader{logger: logger}
}

// NewCsvLoaderFS creates a CSV loader that reads files from fsys.
func NewCsvLoaderFS(fsys fs.FS, logger *slog.Logger) *CsvLoader {
	l := NewCsvLoader(logger)
	l.fsys = fsys
	return l
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// CSVOptions controls how a CSV stream is read.
type CSVOptions struct {
	// NoHeader maps columns to the registry by position.
	NoHeader  bool
	Delimiter rune
}

func optionsFromConfig(config map[string]string) CSVOptions {
	opts := CSVOptions{Delimiter: ','}
	if config["has_header"] == "false" {
		opts.NoHeader = true
	}
	if d := config["delimiter"]; d != "" {
		opts.Delimiter = []rune(d)[0]
	}
	return opts
}

func (l *CsvLoader) open(config map[string]string) (io.ReadCloser, error) {
	filePath := config["file_path"]
	if filePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	var file io.ReadCloser
	var err error
	if l.fsys != nil {
		file, err = l.fsys.Open(filePath)
	} else {
		file, err = os.Open(filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	return file, nil
}

// Load loads a CSV file into a collection of registry.
func (l *CsvLoader) Load(config map[string]string, registry *fields.Registry) (*records.Collection, error) {
	file, err := l.open(config)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadCSV(file, registry, optionsFromConfig(config), l.logger)
}

// DiscoverSchema infers fields from the CSV header and data.
func (l *CsvLoader) DiscoverSchema(config map[string]string) ([]fields.Field, error) {
	file, err := l.open(config)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DiscoverCSV(file, optionsFromConfig(config))
}

func newReader(r io.Reader, opts CSVOptions) *csv.Reader {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// LoadCSV reads r into a new collection. Header cells are matched against
// field keys, then labels, ignoring case. Unknown columns are skipped with a
// warning; cells are converted with records.Parse.
func LoadCSV(r io.Reader, registry *fields.Registry, opts CSVOptions, logger *slog.Logger) (*records.Collection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reader := newReader(r, opts)

	var mapping []fields.Field
	var known []bool
	if opts.NoHeader {
		mapping = registry.All()
		known = make([]bool, len(mapping))
		for i := range known {
			known[i] = true
		}
	} else {
		header, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV file is empty")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		mapping = make([]fields.Field, len(header))
		known = make([]bool, len(header))
		for i, name := range header {
			f, ok := matchField(registry, name)
			if !ok {
				logger.Warn("skipping unknown CSV column", slog.String("column", name))
				continue
			}
			mapping[i], known[i] = f, true
		}
	}

	collection := records.NewCollection(registry)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		values := make(map[fields.Key]records.Value, len(mapping))
		for i, cell := range row {
			if i >= len(mapping) || !known[i] {
				continue
			}
			values[mapping[i].Key] = records.Parse(mapping[i], cell)
		}
		if _, err := collection.Add(values); err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
	}
	collection.Commit()
	logger.Debug("loaded CSV", slog.Int("rows", collection.Len()))
	return collection, nil
}

func matchField(registry *fields.Registry, name string) (fields.Field, bool) {
	name = strings.TrimSpace(name)
	if f, err := registry.ByKey(fields.Key(name)); err == nil {
		return f, true
	}
	for _, f := range registry.All() {
		if strings.EqualFold(string(f.Key), name) || (f.Label != "" && strings.EqualFold(f.Label, name)) {
			return f, true
		}
	}
	// Keys inferred by DiscoverCSV.
	if f, err := registry.ByKey(fields.Key(keyFromHeader(name))); err == nil {
		return f, true
	}
	return fields.Field{}, false
}

// DiscoverCSV infers one field per CSV column. Columns whose non-empty cells
// all parse as numbers become number fields, those that all parse as dates
// become date fields and everything else is text.
func DiscoverCSV(r io.Reader, opts CSVOptions) ([]fields.Field, error) {
	rows, err := newReader(r, opts).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	var names []string
	data := rows
	if opts.NoHeader {
		for i := range rows[0] {
			names = append(names, fmt.Sprintf("col_%d", i))
		}
	} else {
		names, data = rows[0], rows[1:]
	}

	out := make([]fields.Field, len(names))
	for i, name := range names {
		out[i] = fields.Field{
			Key:   fields.Key(keyFromHeader(name)),
			Label: strings.TrimSpace(name),
			Type:  inferColumnType(i, data),
		}
	}
	return out, nil
}

// keyFromHeader lower-cases a header and replaces characters that are not
// allowed in field keys.
func keyFromHeader(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '&', '=', ':', ',', '-':
			return '_'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

func inferColumnType(colIdx int, rows [][]string) fields.Type {
	// Sample up to 100 rows
	sampleSize := min(len(rows), 100)

	isNumber, isDate, seen := true, true, false
	for i := 0; i < sampleSize; i++ {
		if colIdx >= len(rows[i]) {
			continue
		}
		val := strings.TrimSpace(rows[i][colIdx])
		if val == "" {
			continue
		}
		seen = true
		if isNumber {
			if _, ok := records.ParseNumber(val); !ok {
				isNumber = false
			}
		}
		if isDate {
			if _, err := dateparse.ParseAny(val); err != nil {
				isDate = false
			}
		}
	}

	switch {
	case !seen:
		return fields.TypeText
	case isNumber:
		return fields.TypeNumber
	case isDate:
		return fields.TypeDate
	default:
		return fields.TypeText
	}
}
