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

import (
	"fmt"
	"strings"

	"github.com/threadworks/gridview/core/fields"
)

// Operator is a filter comparison.
type Operator string

const (
	OpIs          Operator = "is"
	OpIsNot       Operator = "is-not"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not-contains"
	OpStartsWith  Operator = "starts-with"
	OpEq          Operator = "="
	OpNe          Operator = "!="
	OpGt          Operator = ">"
	OpLt          Operator = "<"
	OpGte         Operator = ">="
	OpLte         Operator = "<="
)

// ParseOperator parses an operator, accepting the unicode forms ≠ ≥ ≤.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "is":
		return OpIs, nil
	case "is-not", "is_not":
		return OpIsNot, nil
	case "contains":
		return OpContains, nil
	case "not-contains", "not_contains":
		return OpNotContains, nil
	case "starts-with", "starts_with":
		return OpStartsWith, nil
	case "=", "==":
		return OpEq, nil
	case "!=", "≠", "<>":
		return OpNe, nil
	case ">":
		return OpGt, nil
	case "<":
		return OpLt, nil
	case ">=", "≥":
		return OpGte, nil
	case "<=", "≤":
		return OpLte, nil
	default:
		return "", fmt.Errorf("unknown filter operator %q", s)
	}
}

// IsNumeric reports whether the operator compares numbers.
func (o Operator) IsNumeric() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte:
		return true
	}
	return false
}

var (
	categoryOperators = []Operator{OpIs, OpIsNot, OpContains, OpStartsWith}
	textOperators     = []Operator{OpContains, OpNotContains, OpStartsWith}
	numericOperators  = []Operator{OpEq, OpNe, OpGt, OpLt, OpGte, OpLte}
	exactOperators    = []Operator{OpIs, OpIsNot, OpContains, OpNotContains, OpStartsWith}
	allOperators      = []Operator{OpIs, OpIsNot, OpContains, OpNotContains, OpStartsWith, OpEq, OpNe, OpGt, OpLt, OpGte, OpLte}
)

// OperatorsFor returns the operators allowed on a field type, in the order a
// picker should offer them.
func OperatorsFor(t fields.Type) []Operator {
	var ops []Operator
	switch t {
	case fields.TypeCategory:
		ops = categoryOperators
	case fields.TypeText:
		ops = textOperators
	case fields.TypeNumber, fields.TypeCurrency:
		ops = numericOperators
	case fields.TypeIdentifier, fields.TypeDate:
		ops = exactOperators
	default:
		ops = allOperators
	}
	return append([]Operator(nil), ops...)
}

// Allowed reports whether op may be used on a field of type t.
func Allowed(t fields.Type, op Operator) bool {
	for _, o := range OperatorsFor(t) {
		if o == op {
			return true
		}
	}
	return false
}

// OperatorError is returned for a rule whose operator does not apply to its
// field type.
type OperatorError struct {
	Field    fields.Key
	Type     fields.Type
	Operator Operator
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("filter: operator %q is not supported on %s field %q", string(e.Operator), e.Type, string(e.Field))
}
