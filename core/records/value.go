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

package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/threadworks/gridview/core/fields"
)

// ValueKind tells which member of a Value is set.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindText
	KindNumber
)

// Value is a single cell: empty, a string or a number.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// Empty returns the empty value.
func Empty() Value {
	return Value{}
}

// Text returns a string value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsEmpty reports whether the value is empty or the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindEmpty || (v.kind == KindText && v.text == "")
}

// String returns the stringified value. Empty values stringify to "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric interpretation of the value. Text is parsed with
// ParseNumber; ok is false for empty and non-numeric values.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and the
// empty value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Empty()
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("unsupported cell value %s", string(b))
	}
	return nil
}

// ParseNumber parses s as a float. Surrounding whitespace and thousands
// separators are ignored; NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Parse converts a raw cell into a Value according to the field type.
// Numeric fields hold numbers when the cell parses and keep the raw text
// otherwise, so bad cells degrade instead of failing the import.
func Parse(field fields.Field, raw string) Value {
	if strings.TrimSpace(raw) == "" {
		return Empty()
	}
	if field.Type.IsNumeric() {
		if f, ok := ParseNumber(raw); ok {
			return Number(f)
		}
	}
	return Text(raw)
}
