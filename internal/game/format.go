package game

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as en-US currency, e.g. -$1,234.50.
func FormatUSD(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// RoundRate rounds an interest rate to two decimals.
func RoundRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
