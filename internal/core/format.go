// Package core holds the funding domain types, the pivot transform and
// value formatting. Nothing in here touches the store or the network.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatValue renders a metric cell: empty for absent values, otherwise
// rounded half away from zero and grouped by thousands ("1234567" -> "1,234,567").
func FormatValue(v Value) string {
	if !v.Present() {
		return ""
	}
	r := math.Round(v.Float64)
	if r >= math.MaxInt64 || r <= math.MinInt64 {
		return humanize.Commaf(r)
	}
	if r == 0 {
		// math.Round(-0.4) is -0; avoid printing "-0".
		return "0"
	}
	return humanize.Comma(int64(r))
}

// ParseValue converts a spreadsheet cell into a Value. Blank cells and text
// that is not a number (after stripping thousands separators) are absent.
func ParseValue(s string) Value {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return Value{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	v := Some(f)
	if !v.Present() {
		return Value{}
	}
	return v
}
