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

package aggregates

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders results for display. It is not used by the engine itself.
type Formatter struct {
	CurrencySymbol string
	printer        *message.Printer
}

// NewFormatter returns a Formatter using English digit grouping.
func NewFormatter(currencySymbol string) *Formatter {
	return &Formatter{
		CurrencySymbol: currencySymbol,
		printer:        message.NewPrinter(language.English),
	}
}

// Format returns the display text of r. Null results render as "-".
func (f *Formatter) Format(r Result) string {
	if !r.Valid {
		return "-"
	}
	switch r.Kind {
	case KindCount:
		return f.printer.Sprintf("%d", int64(r.Value))
	case KindCurrency:
		return f.CurrencySymbol + f.printer.Sprintf("%.2f", r.Value)
	case KindRatio:
		return f.printer.Sprintf("%.1f", r.Value) + "%"
	case KindText:
		return r.Text
	default:
		return f.formatNumber(r.Value)
	}
}

// formatNumber prints integers without decimals and everything else with
// at most two.
func (f *Formatter) formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return f.printer.Sprintf("%d", int64(v))
	}
	rounded := math.Round(v*100) / 100
	if rounded == math.Round(v*10)/10 {
		return f.printer.Sprintf("%.1f", rounded)
	}
	return f.printer.Sprintf("%.2f", rounded)
}
