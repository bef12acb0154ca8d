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

// Package fields describes the columns of a table. A Registry is built once
// per table and is never mutated by the view engine.
package fields

import (
	"fmt"
	"strings"
)

// Key identifies a column. Keys must not contain any of the following
// characters: & = : ,
type Key string

// Type is the declared value type of a column.
type Type int

const (
	TypeText Type = iota
	TypeNumber
	TypeCurrency
	TypeDate
	TypeCategory
	TypeComputed
	TypeIdentifier
)

// String returns the string representation of the field type.
func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeCurrency:
		return "currency"
	case TypeDate:
		return "date"
	case TypeCategory:
		return "category"
	case TypeComputed:
		return "computed"
	case TypeIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// ParseType parses a type name as written in table configuration.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return TypeText, nil
	case "number":
		return TypeNumber, nil
	case "currency":
		return TypeCurrency, nil
	case "date":
		return TypeDate, nil
	case "category":
		return TypeCategory, nil
	case "computed":
		return TypeComputed, nil
	case "identifier":
		return TypeIdentifier, nil
	default:
		return TypeText, fmt.Errorf("unknown field type %q", s)
	}
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsNumeric reports whether values of this type are compared as numbers.
func (t Type) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency
}

// ReadOnly reports whether values of this type are populated by the system
// and excluded from manual edit.
func (t Type) ReadOnly() bool {
	return t == TypeComputed || t == TypeIdentifier
}

// Field describes a single column.
type Field struct {
	Key      Key    `json:"key"`
	Label    string `json:"label,omitempty"`
	Type     Type   `json:"type"`
	Required bool   `json:"required,omitempty"`
	// Options is the ordered set of allowed values for category fields.
	Options []string `json:"options,omitempty"`
}

// DisplayName returns the label, falling back to the key.
func (f Field) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return string(f.Key)
}

// HasOption reports whether v is one of the declared options.
// Fields without options accept any value.
func (f Field) HasOption(v string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, o := range f.Options {
		if o == v {
			return true
		}
	}
	return false
}

// UnknownFieldError is returned when a filter, sort, group or aggregation
// references a key that is not in the registry.
type UnknownFieldError struct {
	Key Key
	// Context names the configuration that referenced the key, e.g. "sort".
	Context string
}

func (e *UnknownFieldError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("unknown field %q", string(e.Key))
	}
	return fmt.Sprintf("%s: unknown field %q", e.Context, string(e.Key))
}
