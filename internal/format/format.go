// Package format renders numbers for display.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
)

// Colors for price changes.
const (
	ColorUp      = "#00C851"
	ColorDown    = "#FF4444"
	ColorNeutral = "#000000"
)

var magnitudes = []struct {
	value  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Number formats a value with a K/M/B/T suffix and two decimals.
func Number(v float64) string {
	if math.IsNaN(v) || v == 0 {
		return "0"
	}
	for _, m := range magnitudes {
		if math.Abs(v) >= m.value {
			return fmt.Sprintf("%.2f%s", v/m.value, m.suffix)
		}
	}
	return fmt.Sprintf("%.2f", v)
}

// Percentage formats a percent value with an explicit plus sign on gains.
func Percentage(pct float64) string {
	if math.IsNaN(pct) {
		return "0.00%"
	}
	if pct > 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// Currency formats a dollar amount, abbreviating from thousands upward.
func Currency(amount float64) string {
	if math.IsNaN(amount) {
		return "$0.00"
	}
	for _, m := range magnitudes[1:] {
		if math.Abs(amount) >= m.value {
			return fmt.Sprintf("$%.2f%s", amount/m.value, m.suffix)
		}
	}
	return money.New(int64(math.Round(amount*100)), money.USD).Display()
}

// Count formats an integer count with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// ColorForChange picks the display color for a signed change.
func ColorForChange(change float64) string {
	switch {
	case math.IsNaN(change) || change == 0:
		return ColorNeutral
	case change > 0:
		return ColorUp
	default:
		return ColorDown
	}
}

// PercentageChange returns the change from previous to current in percent,
// or 0 when previous is zero or either value is NaN.
func PercentageChange(current, previous float64) float64 {
	if math.IsNaN(current) || math.IsNaN(previous) || previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// SafeDivide returns def when the denominator is zero or either operand is NaN.
func SafeDivide(num, den, def float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return def
	}
	return num / den
}

// CleanSymbol normalizes a ticker for provider requests.
func CleanSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), ".", "-")
}

// Age renders how long ago t was, e.g. "3 hours ago".
func Age(t time.Time) string {
	return AgeAt(t, time.Now())
}

// AgeAt is Age measured from now instead of the wall clock.
func AgeAt(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
