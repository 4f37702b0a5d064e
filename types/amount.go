// Package types provides common types used across Vault.
package types

import (
	"fmt"
	"math"
	"strings"
)

// Decimals is the number of decimal places carried by the token.
// One whole token equals 10^Decimals base units.
const Decimals = 6

// Unit is the number of base units in one whole token.
const Unit Amount = 1_000_000

// Amount is a token quantity in base units.
// All arithmetic is integer-only — no floating point.
//
// Examples:
//   - Tokens(1) = 1.000000 (one whole token)
//   - Amount(500000) = 0.500000
type Amount int64

// Tokens creates an Amount from a whole-token count.
func Tokens(n int64) Amount { return Amount(n) * Unit }

// Zero is the zero Amount.
const Zero Amount = 0

// Arithmetic operations

// Add adds two Amounts.
func (a Amount) Add(other Amount) Amount { return a + other }

// Subtract subtracts another Amount.
func (a Amount) Subtract(other Amount) Amount { return a - other }

// Multiply multiplies the Amount by a quantity.
func (a Amount) Multiply(qty int64) Amount { return a * Amount(qty) }

// MultiplyChecked multiplies the Amount by a quantity, reporting false
// when the product wraps int64.
func (a Amount) MultiplyChecked(qty int64) (Amount, bool) {
	if a == 0 || qty == 0 {
		return Zero, true
	}
	if qty == -1 {
		if a == math.MinInt64 {
			return Zero, false
		}
		return -a, true
	}
	product := a * Amount(qty)
	if product/Amount(qty) != a {
		return Zero, false
	}
	return product, true
}

// Divide divides the Amount by a divisor. Uses integer division.
func (a Amount) Divide(divisor int64) Amount {
	if divisor == 0 {
		panic("amount: division by zero")
	}
	return a / Amount(divisor)
}

// Negate returns the negative of the Amount.
func (a Amount) Negate() Amount { return -a }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// LessThan returns true if this Amount is less than other.
func (a Amount) LessThan(other Amount) bool { return a < other }

// GreaterThan returns true if this Amount is greater than other.
func (a Amount) GreaterThan(other Amount) bool { return a > other }

// Min returns the smaller of two Amounts.
func (a Amount) Min(other Amount) Amount {
	if a < other {
		return a
	}
	return other
}

// Max returns the larger of two Amounts.
func (a Amount) Max(other Amount) Amount {
	if a > other {
		return a
	}
	return other
}

// Int64 returns the raw base-unit value.
func (a Amount) Int64() int64 { return int64(a) }

// Formatting methods

// Format returns the whole-token string without trailing zero padding
// beyond the token's decimal places: "1.000000" for Tokens(1).
func (a Amount) Format() string {
	isNegative := a < 0
	abs := a
	if isNegative {
		abs = -abs
	}

	major := abs / Unit
	minor := abs % Unit

	format := fmt.Sprintf("%%d.%%0%dd", Decimals)
	result := fmt.Sprintf(format, major, minor)

	if isNegative {
		return "-" + result
	}
	return result
}

// String returns the whole-token representation.
func (a Amount) String() string { return a.Format() }

// ParseAmount parses a whole-token decimal string ("1.5", "0.000001")
// into an Amount. Returns an error on malformed input or excess precision.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount: parse %q: empty string", s)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("amount: parse %q: no digits", s)
	}
	if len(fracPart) > Decimals {
		return 0, fmt.Errorf("amount: parse %q: more than %d decimal places", s, Decimals)
	}

	var value int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("amount: parse %q: invalid character %q", s, r)
		}
		value = value*10 + int64(r-'0')
	}
	value *= int64(Unit)

	scale := int64(Unit) / 10
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("amount: parse %q: invalid character %q", s, r)
		}
		value += int64(r-'0') * scale
		scale /= 10
	}

	if negative {
		value = -value
	}
	return Amount(value), nil
}

// Sum calculates the sum of multiple Amounts.
func Sum(values ...Amount) Amount {
	var result Amount
	for _, v := range values {
		result += v
	}
	return result
}
