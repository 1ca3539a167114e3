package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalClass groups currencies by how many decimal places their minor unit has.
type DecimalClass int

const (
	TwoDecimal DecimalClass = iota
	ZeroDecimal
	ThreeDecimal
)

var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

var threeDecimal = map[string]struct{}{
	"bhd": {}, "jod": {}, "kwd": {}, "omr": {}, "tnd": {},
}

// Normalize lower-cases and trims a currency code.
func Normalize(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func ClassOf(currency string) DecimalClass {
	c := Normalize(currency)
	if _, ok := zeroDecimal[c]; ok {
		return ZeroDecimal
	}
	if _, ok := threeDecimal[c]; ok {
		return ThreeDecimal
	}
	return TwoDecimal
}

// Exponent is the number of decimal places of the currency's minor unit.
func Exponent(currency string) int32 {
	switch ClassOf(currency) {
	case ZeroDecimal:
		return 0
	case ThreeDecimal:
		return 3
	default:
		return 2
	}
}

// Factor is the multiplier from major to minor units (1, 100 or 1000).
func Factor(currency string) int64 {
	switch ClassOf(currency) {
	case ZeroDecimal:
		return 1
	case ThreeDecimal:
		return 1000
	default:
		return 100
	}
}

// Round rounds a major-unit amount to the precision of the currency.
func Round(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(Exponent(currency))
}

// ToMinorUnits converts a major-unit amount to the processor's integer minor units.
// Amounts finer than the currency precision are rounded half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(Exponent(currency)).Round(0).IntPart()
}

// ErrOutOfRange is returned for amounts that cannot be charged or stored.
var ErrOutOfRange = errors.New("amount out of range")

// maxAmount bounds the NUMERIC(19,3) amount columns.
var maxAmount = decimal.New(1, 16)

// MinorUnits converts an untrusted major-unit amount like ToMinorUnits, but
// fails with ErrOutOfRange when the result would not fit in int64 or in the
// payments table.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	rounded := Round(amount, currency)
	if rounded.Abs().GreaterThanOrEqual(maxAmount) {
		return 0, ErrOutOfRange
	}
	minor := rounded.Shift(Exponent(currency))
	if !minor.BigInt().IsInt64() {
		return 0, ErrOutOfRange
	}
	return minor.IntPart(), nil
}

// ToMajorUnits is the inverse of ToMinorUnits.
func ToMajorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// FeeMinorUnits applies a fractional rate to a minor-unit amount and rounds
// to the nearest whole minor unit.
func FeeMinorUnits(minor int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(minor).Mul(rate).Round(0).IntPart()
}

// Format renders a major-unit amount with exactly the currency's decimals.
func Format(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(Exponent(currency))
}
