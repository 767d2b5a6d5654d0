package commands

import "github.com/shopspring/decimal"

// PriceTolerance bounds how far a client-declared total may drift from the computed one.
// The allowed difference is the larger of Absolute and Relative times the computed total.
type PriceTolerance struct {
	Absolute decimal.Decimal
	Relative decimal.Decimal
}

// DefaultPriceTolerance allows one currency unit of rounding difference.
var DefaultPriceTolerance = PriceTolerance{Absolute: decimal.NewFromInt(1)}

// Exceeded reports whether declared differs from computed by more than the tolerance.
func (t PriceTolerance) Exceeded(computed, declared decimal.Decimal) bool {
	allowed := t.Absolute
	if relative := computed.Abs().Mul(t.Relative); relative.GreaterThan(allowed) {
		allowed = relative
	}
	return computed.Sub(declared).Abs().GreaterThan(allowed)
}
