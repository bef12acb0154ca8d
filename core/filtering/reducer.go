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

package filtering

// Action is a state transition on a rule list.
type Action interface {
	reduce(rules []Rule) []Rule
}

// AddRule appends a rule.
type AddRule struct{ Rule Rule }

// ReplaceRule replaces the rule at Index. Out-of-range indices are ignored.
type ReplaceRule struct {
	Index int
	Rule  Rule
}

// RemoveRule removes the rule at Index. Out-of-range indices are ignored.
type RemoveRule struct{ Index int }

// ClearRules removes every rule.
type ClearRules struct{}

// Reduce applies an action and returns a new rule list. The input is never
// modified.
func Reduce(rules []Rule, action Action) []Rule {
	return action.reduce(Clone(rules))
}

// Clone returns a copy of the rules.
func Clone(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	return append([]Rule(nil), rules...)
}

func (a AddRule) reduce(rules []Rule) []Rule {
	return append(rules, a.Rule)
}

func (a ReplaceRule) reduce(rules []Rule) []Rule {
	if a.Index < 0 || a.Index >= len(rules) {
		return rules
	}
	rules[a.Index] = a.Rule
	return rules
}

func (a RemoveRule) reduce(rules []Rule) []Rule {
	if a.Index < 0 || a.Index >= len(rules) {
		return rules
	}
	return append(rules[:a.Index], rules[a.Index+1:]...)
}

func (ClearRules) reduce([]Rule) []Rule {
	return nil
}
