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

package grouping

import "github.com/threadworks/gridview/core/fields"

// Spec names the fields of the two grouping levels. An empty Level1 means no
// grouping.
type Spec struct {
	Level1 fields.Key `json:"level1,omitempty" yaml:"level1,omitempty"`
	Level2 fields.Key `json:"level2,omitempty" yaml:"level2,omitempty"`
}

// Enabled reports whether rows are grouped.
func (s Spec) Enabled() bool {
	return s.Level1 != ""
}

// Fields returns the distinct grouped fields in level order. A Level2
// without Level1 groups nothing and is not returned.
func (s Spec) Fields() []fields.Key {
	if s.Level1 == "" {
		return nil
	}
	keys := []fields.Key{s.Level1}
	if s.Level2 != "" && s.Level2 != s.Level1 {
		keys = append(keys, s.Level2)
	}
	return keys
}

// Validate checks the grouped fields against the registry.
func Validate(registry *fields.Registry, s Spec) error {
	for _, k := range []fields.Key{s.Level1, s.Level2} {
		if k != "" && !registry.Has(k) {
			return &fields.UnknownFieldError{Key: k, Context: "group"}
		}
	}
	return nil
}

// Action is a state transition on a Spec.
type Action interface {
	reduce(s Spec) Spec
}

// SetLevel1 sets the first grouping level.
type SetLevel1 struct{ Field fields.Key }

// SetLevel2 sets the second grouping level.
type SetLevel2 struct{ Field fields.Key }

// ClearGroup removes both levels.
type ClearGroup struct{}

// Reduce applies an action and returns the new Spec.
func Reduce(s Spec, action Action) Spec {
	return action.reduce(s)
}

// Clearing level 1 also clears level 2; a lone second level means nothing.
func (a SetLevel1) reduce(s Spec) Spec {
	s.Level1 = a.Field
	if a.Field == "" {
		s.Level2 = ""
	}
	return s
}

func (a SetLevel2) reduce(s Spec) Spec {
	s.Level2 = a.Field
	return s
}

func (ClearGroup) reduce(Spec) Spec {
	return Spec{}
}
