package normalize

import (
	"fmt"
	"strings"

	"BankRecon/internal/logger"

	"github.com/shopspring/decimal"
)

// bounds on a parsed amount; larger exponents make rounding arbitrarily slow
const (
	maxAmountExponent = 18
	maxAmountDigits   = 30
)

var currencyNoise = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₹", "",
	"COP", "", "USD", "", "EUR", "",
	nbsp, "", " ", "", "\t", "", "'", "",
)

// ParseAmount converts a money cell to a decimal rounded to two places.
// Unparsable input yields a defaulted zero and a warning, never an error.
//
// Separator rule: with both ',' and '.' present the comma is the decimal mark.
// With only ',' the comma is decimal when at most two digits follow the last one.
func ParseAmount(raw string) Result[decimal.Decimal] {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return Ok(decimal.Zero)
	}
	s = currencyNoise.Replace(strings.ToUpper(s))

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if len(s) > 1 && strings.HasSuffix(s, "-") {
		negative = !negative
		s = s[:len(s)-1]
	}
	if s == "" {
		return defaultAmount(raw, "no digits")
	}

	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return defaultAmount(raw, err.Error())
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent || d.NumDigits() > maxAmountDigits {
		return defaultAmount(raw, "out of range")
	}
	if negative {
		d = d.Neg()
	}
	return Ok(d.Round(2))
}

func defaultAmount(raw, why string) Result[decimal.Decimal] {
	reason := fmt.Sprintf("amount %q not parsed: %s", raw, why)
	logger.Warnf("ParseAmount: %s, using 0.00", reason)
	return Default(decimal.Zero, reason)
}

func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	case hasComma:
		i := strings.LastIndex(s, ",")
		head, frac := strings.ReplaceAll(s[:i], ",", ""), s[i+1:]
		switch {
		case frac == "":
			return head
		case countDigits(frac) <= 2:
			return head + "." + frac
		default:
			return head + frac
		}
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
