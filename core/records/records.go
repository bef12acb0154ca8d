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

// Package records holds the row model read by the view engine.
// Records belong to the caller's Collection; the engine only reads them.
package records

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/threadworks/gridview/core/fields"
)

// ErrRecordNotFound is returned by Update for an unknown record id.
var ErrRecordNotFound = errors.New("record not found")

// ReadOnlyFieldError is returned when a manual edit targets a computed or
// identifier field.
type ReadOnlyFieldError struct {
	Key  fields.Key
	Type fields.Type
}

func (e *ReadOnlyFieldError) Error() string {
	return fmt.Sprintf("field %q is %s and cannot be edited", string(e.Key), e.Type)
}

// Record is one row.
type Record struct {
	// ID is assigned once by the collection and never reused.
	ID     string               `json:"id"`
	Values map[fields.Key]Value `json:"values"`
	// IsNew is set for records created but not yet committed.
	IsNew bool `json:"is_new,omitempty"`
	// IsDirty is set for records modified since the last commit.
	IsDirty bool `json:"is_dirty,omitempty"`
}

// Get returns the value for key, or the empty value.
func (r *Record) Get(key fields.Key) Value {
	return r.Values[key]
}

// Collection is the caller-owned, insertion-ordered set of records of a table.
type Collection struct {
	registry *fields.Registry
	records  []*Record
	byID     map[string]*Record
}

// NewCollection creates an empty collection for the given registry.
func NewCollection(registry *fields.Registry) *Collection {
	return &Collection{
		registry: registry,
		byID:     make(map[string]*Record),
	}
}

// Registry returns the registry the collection validates against.
func (c *Collection) Registry() *fields.Registry {
	return c.registry
}

// Add creates a new record with a fresh id. System-populated fields may be
// set here; unknown keys are rejected.
func (c *Collection) Add(values map[fields.Key]Value) (*Record, error) {
	r := &Record{
		ID:     uuid.NewString(),
		Values: make(map[fields.Key]Value, len(values)),
		IsNew:  true,
	}
	for k, v := range values {
		if err := c.registry.Validate("record", k); err != nil {
			return nil, err
		}
		r.Values[k] = v
	}
	c.records = append(c.records, r)
	c.byID[r.ID] = r
	return r, nil
}

// Get returns the record with the given id.
func (c *Collection) Get(id string) (*Record, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// All returns the records in insertion order. The slice is a copy; the
// records are shared.
func (c *Collection) All() []*Record {
	result := make([]*Record, len(c.records))
	copy(result, c.records)
	return result
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// Update sets one value of a record and marks it dirty.
func (c *Collection) Update(id string, key fields.Key, value Value) error {
	r, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrRecordNotFound)
	}
	f, err := c.registry.ByKey(key)
	if err != nil {
		return err
	}
	if f.Type.ReadOnly() {
		return &ReadOnlyFieldError{Key: key, Type: f.Type}
	}
	r.Values[key] = value
	r.IsDirty = true
	return nil
}

// Commit clears the new and dirty flags on every record.
func (c *Collection) Commit() {
	for _, r := range c.records {
		r.IsNew = false
		r.IsDirty = false
	}
}

// Pending returns the records that are new or dirty.
func (c *Collection) Pending() []*Record {
	var result []*Record
	for _, r := range c.records {
		if r.IsNew || r.IsDirty {
			result = append(result, r)
		}
	}
	return result
}

// Missing returns the required fields that are empty on r.
func (c *Collection) Missing(r *Record) []fields.Key {
	var missing []fields.Key
	for _, f := range c.registry.All() {
		if f.Required && r.Get(f.Key).IsEmpty() {
			missing = append(missing, f.Key)
		}
	}
	return missing
}
