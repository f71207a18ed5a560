package value

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DecimalFromString parses decimal text and rescales it to (precision, scale).
// Text that would need rounding or that exceeds the precision is rejected.
func DecimalFromString(text string, precision, scale int) (Value, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Value{}, fmt.Errorf("invalid decimal %q: %w", text, err)
	}
	return DecimalFrom(d, precision, scale)
}

// MustDecimal is DecimalFromString for static definitions.
func MustDecimal(text string, precision, scale int) Value {
	v, err := DecimalFromString(text, precision, scale)
	if err != nil {
		panic(err)
	}
	return v
}

// DecimalFrom rescales d to (precision, scale) without rounding.
func DecimalFrom(d decimal.Decimal, precision, scale int) (Value, error) {
	if !d.Equal(d.Truncate(int32(scale))) {
		return Value{}, fmt.Errorf("decimal %s does not fit scale %d without rounding", d.String(), scale)
	}
	unscaled := d.Shift(int32(scale)).BigInt()
	if digits := len(new(big.Int).Abs(unscaled).String()); digits > precision {
		return Value{}, fmt.Errorf("decimal %s overflows precision %d", d.String(), precision)
	}
	return Value{kind: KindDecimal, precision: precision, scale: scale, unscaled: unscaled}, nil
}

// DecimalText renders a decimal value with exactly its scale digits.
func DecimalText(v Value) string {
	_, _, u := v.DecimalParts()
	return decimal.NewFromBigInt(u, -int32(v.scale)).StringFixed(int32(v.scale))
}
