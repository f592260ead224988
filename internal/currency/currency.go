// Package currency formats money amounts for display.
//
// Formatting follows the locale conventionally paired with each currency
// (pt-BR for BRL, en-US for USD, de-DE for EUR), matching what the web
// Intl formatter produces, non-breaking spaces included. The aggregation
// layer never formats; everything here is presentation only.
package currency

import "strconv"

// Code selects one of the supported display currencies.
type Code string

const (
	BRL Code = "BRL"
	USD Code = "USD"
	EUR Code = "EUR"
)

// nbsp is what Intl emits between symbol and number for pt-BR and de-DE.
const nbsp = " "

// IsValid returns true if the code is one of the supported currencies.
func (c Code) IsValid() bool {
	switch c {
	case BRL, USD, EUR:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (c Code) String() string {
	return string(c)
}

// Codes returns all supported currency codes.
func Codes() []Code {
	return []Code{BRL, USD, EUR}
}

// Format renders cents as a human-readable amount in the locale paired
// with the code. Unsupported codes fall back to USD formatting; the set
// is closed, so that path is unreachable from validated input.
func Format(c Code, cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100

	var s string
	switch c {
	case BRL:
		s = "R$" + nbsp + group(units, ".") + "," + pad2(rem)
	case EUR:
		s = group(units, ".") + "," + pad2(rem) + nbsp + "€"
	default:
		s = "$" + group(units, ",") + "." + pad2(rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

// group renders n with a thousands separator every three digits.
func group(n int64, sep string) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	first := len(s) % 3
	if first == 0 {
		first = 3
	}
	out := s[:first]
	for i := first; i < len(s); i += 3 {
		out += sep + s[i:i+3]
	}
	return out
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
