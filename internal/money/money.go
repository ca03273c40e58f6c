// Package money rounds and formats currency values in Brazilian reais.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds v to cents, half away from zero.
func Round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatBRL formats v as "R$ 1.234,56". Negative values get a leading minus.
func FormatBRL(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	negative := d.IsNegative()
	raw := d.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(raw, ".")

	result := "R$ " + groupThousands(intPart) + "," + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts dots every three digits from the right.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
