package entities

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayPrecision is the number of fraction digits used when reporting balances
const DisplayPrecision = 4

// NativeUnit is a denomination of the chain's native currency
type NativeUnit int

const (
	// UnitNative is the whole coin (ether), 10^18 base units
	UnitNative NativeUnit = iota
	// UnitSubunit is the gas price denomination (gwei), 10^9 base units
	UnitSubunit
)

// Exponent returns the power of ten separating u from base units
func (u NativeUnit) Exponent() int32 {
	switch u {
	case UnitSubunit:
		return 9
	default:
		return 18
	}
}

func (u NativeUnit) String() string {
	switch u {
	case UnitSubunit:
		return "gwei"
	default:
		return "ether"
	}
}

// ToBaseUnits returns round(amount * 10^exponent).
func ToBaseUnits(amount decimal.Decimal, exponent int32) (*big.Int, error) {
	if exponent < 0 {
		return nil, fmt.Errorf("%w: exponent %d", ErrInvalidDecimals, exponent)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount.String())
	}
	return amount.Shift(exponent).Round(0).BigInt(), nil
}

// ToBaseUnitsFloat is ToBaseUnits for float inputs, rejecting NaN and infinities.
func ToBaseUnitsFloat(amount float64, exponent int32) (*big.Int, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, amount)
	}
	return ToBaseUnits(decimal.NewFromFloat(amount), exponent)
}

// ParseAmount parses a human decimal amount such as "0.01".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, s)
	}
	return d, nil
}

// ToDisplayUnits returns base / 10^decimals without loss of precision
func ToDisplayUnits(base *big.Int, decimals int) (decimal.Decimal, error) {
	if decimals < 0 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidDecimals, decimals)
	}
	if base == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(base, -int32(decimals)), nil
}

// FormatDisplayUnits renders base units with DisplayPrecision fraction digits,
// e.g. 1234500000000000000 with 18 decimals -> "1.2345".
func FormatDisplayUnits(base *big.Int, decimals int) (string, error) {
	d, err := ToDisplayUnits(base, decimals)
	if err != nil {
		return "", err
	}
	return d.StringFixed(DisplayPrecision), nil
}
