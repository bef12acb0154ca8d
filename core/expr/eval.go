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

package expr

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/threadworks/gridview/core/fields"
	"github.com/threadworks/gridview/core/records"
)

var (
	trueValue  = records.Number(1)
	falseValue = records.Number(0)
)

func boolValue(b bool) records.Value {
	if b {
		return trueValue
	}
	return falseValue
}

// truthy: empty is false, numbers are true unless zero, text is true.
func truthy(v records.Value) bool {
	if v.IsEmpty() {
		return false
	}
	if n, ok := v.Float(); ok {
		return n != 0
	}
	return true
}

// number wraps a float result; NaN and infinities become empty.
func number(f float64) records.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return records.Empty()
	}
	return records.Number(f)
}

type arity struct{ min, max int }

// functions lists the built-ins with their argument counts; max -1 is
// unbounded.
var functions = map[string]arity{
	"if":       {3, 3},
	"coalesce": {1, -1},
	"round":    {1, 2},
	"abs":      {1, 1},
	"min":      {1, -1},
	"max":      {1, -1},
	"upper":    {1, 1},
	"lower":    {1, 1},
	"trim":     {1, 1},
	"len":      {1, 1},
	"concat":   {1, -1},
}

// check verifies function names and argument counts, and collects the
// referenced fields.
func check(n node, refs map[fields.Key]bool) error {
	switch n := n.(type) {
	case *fieldRef:
		refs[fields.Key(n.name)] = true
	case *binaryOp:
		if err := check(n.left, refs); err != nil {
			return err
		}
		return check(n.right, refs)
	case *unaryOp:
		return check(n.operand, refs)
	case *call:
		a, ok := functions[n.fn]
		if !ok {
			return fmt.Errorf("unknown function %q at position %d", n.fn, n.pos)
		}
		if len(n.args) < a.min || (a.max >= 0 && len(n.args) > a.max) {
			return fmt.Errorf("%s() takes %s, got %d at position %d", n.fn, describeArity(a), len(n.args), n.pos)
		}
		for _, arg := range n.args {
			if err := check(arg, refs); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeArity(a arity) string {
	switch {
	case a.max < 0:
		return fmt.Sprintf("at least %d arguments", a.min)
	case a.min == a.max:
		return fmt.Sprintf("%d arguments", a.min)
	default:
		return fmt.Sprintf("%d to %d arguments", a.min, a.max)
	}
}

// eval never fails: arithmetic on empty or non-numeric values yields empty.
func eval(n node, r *records.Record) records.Value {
	switch n := n.(type) {
	case *numberLit:
		return records.Number(n.value)
	case *stringLit:
		return records.Text(n.value)
	case *fieldRef:
		return r.Get(fields.Key(n.name))
	case *unaryOp:
		v := eval(n.operand, r)
		switch n.op {
		case "not":
			return boolValue(!truthy(v))
		case "-":
			if f, ok := v.Float(); ok {
				return number(-f)
			}
			return records.Empty()
		default:
			if f, ok := v.Float(); ok {
				return number(f)
			}
			return records.Empty()
		}
	case *binaryOp:
		return evalBinary(n, r)
	case *call:
		return evalCall(n, r)
	}
	return records.Empty()
}

func evalBinary(n *binaryOp, r *records.Record) records.Value {
	switch n.op {
	case "and":
		return boolValue(truthy(eval(n.left, r)) && truthy(eval(n.right, r)))
	case "or":
		return boolValue(truthy(eval(n.left, r)) || truthy(eval(n.right, r)))
	}

	left, right := eval(n.left, r), eval(n.right, r)
	lf, lok := left.Float()
	rf, rok := right.Float()

	switch n.op {
	case "==", "!=", "<", ">", "<=", ">=":
		var cmp int
		if lok && rok {
			cmp = compareFloats(lf, rf)
		} else {
			cmp = strings.Compare(left.String(), right.String())
		}
		return boolValue(compareResult(n.op, cmp))
	case "+":
		if lok && rok {
			return number(lf + rf)
		}
		if left.IsEmpty() || right.IsEmpty() {
			return records.Empty()
		}
		return records.Text(left.String() + right.String())
	}

	if !lok || !rok {
		return records.Empty()
	}
	switch n.op {
	case "-":
		return number(lf - rf)
	case "*":
		return number(lf * rf)
	case "/":
		if rf == 0 {
			return records.Empty()
		}
		return number(lf / rf)
	case "%":
		if rf == 0 {
			return records.Empty()
		}
		return number(math.Mod(lf, rf))
	case "**":
		return number(math.Pow(lf, rf))
	}
	return records.Empty()
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareResult(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	default:
		return cmp >= 0
	}
}

func evalCall(c *call, r *records.Record) records.Value {
	// if evaluates only the chosen branch.
	if c.fn == "if" {
		if truthy(eval(c.args[0], r)) {
			return eval(c.args[1], r)
		}
		return eval(c.args[2], r)
	}

	args := make([]records.Value, len(c.args))
	for i, a := range c.args {
		args[i] = eval(a, r)
	}

	switch c.fn {
	case "coalesce":
		for _, a := range args {
			if !a.IsEmpty() {
				return a
			}
		}
		return records.Empty()
	case "round":
		f, ok := args[0].Float()
		if !ok {
			return records.Empty()
		}
		places := 0.0
		if len(args) == 2 {
			if p, ok := args[1].Float(); ok {
				places = math.Trunc(p)
			}
		}
		scale := math.Pow(10, places)
		return number(math.Round(f*scale) / scale)
	case "abs":
		if f, ok := args[0].Float(); ok {
			return number(math.Abs(f))
		}
		return records.Empty()
	case "min", "max":
		best, found := 0.0, false
		for _, a := range args {
			f, ok := a.Float()
			if !ok {
				continue
			}
			if !found || (c.fn == "min" && f < best) || (c.fn == "max" && f > best) {
				best, found = f, true
			}
		}
		if !found {
			return records.Empty()
		}
		return number(best)
	case "upper":
		return textOf(args[0], strings.ToUpper)
	case "lower":
		return textOf(args[0], strings.ToLower)
	case "trim":
		return textOf(args[0], strings.TrimSpace)
	case "len":
		if args[0].IsEmpty() {
			return records.Number(0)
		}
		return records.Number(float64(utf8.RuneCountInString(args[0].String())))
	case "concat":
		var sb strings.Builder
		for _, a := range args {
			sb.WriteString(a.String())
		}
		if sb.Len() == 0 {
			return records.Empty()
		}
		return records.Text(sb.String())
	}
	return records.Empty()
}

func textOf(v records.Value, f func(string) string) records.Value {
	if v.IsEmpty() {
		return v
	}
	s := f(v.String())
	if s == "" {
		return records.Empty()
	}
	return records.Text(s)
}
