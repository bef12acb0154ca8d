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

package sorting

import (
	"fmt"
	"strings"

	"github.com/threadworks/gridview/core/fields"
)

// Direction is the sort direction of a key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Mode selects how two non-empty values are compared.
type Mode string

const (
	ModeAuto          Mode = "auto"
	ModeAlpha         Mode = "alpha"
	ModeNumeric       Mode = "numeric"
	ModeDate          Mode = "date"
	ModeLength        Mode = "length"
	ModeFrequencyHigh Mode = "frequencyHigh"
	ModeFrequencyLow  Mode = "frequencyLow"
	ModePinFirst      Mode = "pinFirst"
	ModePinLast       Mode = "pinLast"
)

// NullPlacement puts empty values first or last, whatever the direction.
type NullPlacement string

const (
	NullsFirst NullPlacement = "first"
	NullsLast  NullPlacement = "last"
)

// Key is one level of a multi-key sort.
type Key struct {
	Field     fields.Key    `json:"field" yaml:"field"`
	Direction Direction     `json:"direction" yaml:"direction"`
	Mode      Mode          `json:"mode" yaml:"mode"`
	Nulls     NullPlacement `json:"nulls" yaml:"nulls"`
	// Pin is the value moved to the front or back by the pin modes.
	Pin string `json:"pin,omitempty" yaml:"pin,omitempty"`
}

// Normalize fills in defaults: ascending, auto mode, nulls last.
func (k Key) Normalize() Key {
	if k.Direction == "" {
		k.Direction = Asc
	}
	if k.Mode == "" {
		k.Mode = ModeAuto
	}
	if k.Nulls == "" {
		k.Nulls = NullsLast
	}
	return k
}

// ParseDirection parses "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Asc, nil
	case "desc", "descending":
		return Desc, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// ParseMode parses a sort mode name. Names are matched case-insensitively
// and accept snake case, e.g. "frequency_high".
func ParseMode(s string) (Mode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "")
	for _, m := range Modes() {
		if strings.ToLower(string(m)) == norm {
			return m, nil
		}
	}
	if norm == "" {
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// ParseNullPlacement parses "first" or "last".
func ParseNullPlacement(s string) (NullPlacement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return NullsLast, nil
	case "first":
		return NullsFirst, nil
	default:
		return "", fmt.Errorf("unknown null placement %q", s)
	}
}

// Modes lists every sort mode.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeAlpha, ModeNumeric, ModeDate, ModeLength, ModeFrequencyHigh, ModeFrequencyLow, ModePinFirst, ModePinLast}
}

// Validate checks the keys against the registry and their enum values.
func Validate(registry *fields.Registry, keys []Key) error {
	for _, k := range keys {
		if !registry.Has(k.Field) {
			return &fields.UnknownFieldError{Key: k.Field, Context: "sort"}
		}
		k = k.Normalize()
		if _, err := ParseDirection(string(k.Direction)); err != nil {
			return fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
		if _, err := ParseMode(string(k.Mode)); err != nil {
			return fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
		if _, err := ParseNullPlacement(string(k.Nulls)); err != nil {
			return fmt.Errorf("sort %q: %w", string(k.Field), err)
		}
	}
	return nil
}
