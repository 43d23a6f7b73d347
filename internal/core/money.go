// Package core holds the pure domain logic: client-name normalization,
// money handling, the aggregation engine, and the calendar projector.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (30000.5) and comma
// (30000,5) separators are accepted. Zero is a valid amount; negatives
// fail with ErrNegativeAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNegativeAmount
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrNegativeAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrNegativeAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrNegativeAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrNegativeAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}

// FormatPesos renders cents as whole pesos in the COP display convention:
// rounded to the unit, thousands grouped with periods, e.g. 2999960 cents
// -> "$30.000". Every surface that shows money (HTML, CSV, Sheets) goes
// through this one function.
func FormatPesos(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	pesos := (cents + 50) / 100 // half-up to whole pesos
	s := strconv.FormatInt(pesos, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte('.')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
