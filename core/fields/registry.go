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

package fields

import (
	"fmt"
	"strings"
)

// Registry is the read-only set of fields of one table, in declaration order.
type Registry struct {
	fields []Field
	byKey  map[Key]int
}

// NewRegistry creates a registry from the given fields.
// Empty keys, keys containing reserved characters and duplicates are rejected.
func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{
		fields: make([]Field, 0, len(fields)),
		byKey:  make(map[Key]int, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("field key must not be empty")
		}
		if strings.ContainsAny(string(f.Key), "&=:,") {
			return nil, fmt.Errorf("field key %q contains a reserved character", string(f.Key))
		}
		if _, exists := r.byKey[f.Key]; exists {
			return nil, fmt.Errorf("duplicate field key %q", string(f.Key))
		}
		f.Options = append([]string(nil), f.Options...)
		r.byKey[f.Key] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// ByKey returns the field with the given key.
func (r *Registry) ByKey(key Key) (Field, error) {
	i, ok := r.byKey[key]
	if !ok {
		return Field{}, &UnknownFieldError{Key: key}
	}
	return r.fields[i], nil
}

// MustByKey is like ByKey but panics on unknown keys. Use it only where the
// key has already been validated.
func (r *Registry) MustByKey(key Key) Field {
	f, err := r.ByKey(key)
	if err != nil {
		panic(err)
	}
	return f
}

// Has reports whether the key is registered.
func (r *Registry) Has(key Key) bool {
	_, ok := r.byKey[key]
	return ok
}

// Len returns the number of fields.
func (r *Registry) Len() int {
	return len(r.fields)
}

// All returns every field in declaration order.
func (r *Registry) All() []Field {
	result := make([]Field, len(r.fields))
	copy(result, r.fields)
	return result
}

// Keys returns every key in declaration order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// FilterableByDefault returns the fields offered for free-text filtering by
// default. Computed and identifier fields are left out but can still be
// selected explicitly.
func (r *Registry) FilterableByDefault() []Field {
	result := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		if f.Type.ReadOnly() {
			continue
		}
		result = append(result, f)
	}
	return result
}

// Validate returns an UnknownFieldError for the first unregistered key.
func (r *Registry) Validate(context string, keys ...Key) error {
	for _, k := range keys {
		if !r.Has(k) {
			return &UnknownFieldError{Key: k, Context: context}
		}
	}
	return nil
}
