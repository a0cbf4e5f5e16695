// Package money holds the integer arithmetic shared by the ledger,
// order book, and incentive module: the price-scale division used
// throughout the venue, and the overflow guard against the settlement
// asset's 2^63-1 ceiling.
//
// The ceiling is not a limitation of Go's int64 (every value we ever
// hold already fits in one); it exists because intermediate products
// like quantity*price can overflow 64 bits well before either operand
// does, and because a host settling over unbounded integers still
// needs the same boundary for interop. See spec §9's open question.
package money

import (
	"errors"
	"math"
	"math/big"
)

// MaxAmount is the largest value any balance, order quantity, price,
// or fee may take: 2^63 - 1.
const MaxAmount = math.MaxInt64

// PriceScale is the fixed-point scale prices are denominated in:
// price is USDT base units per 10^6 token base units.
const PriceScale = 1_000_000

var (
	// ErrNonPositive is returned when an amount that must be > 0 isn't.
	ErrNonPositive = errors.New("money: amount must be positive")
	// ErrTooLarge is returned when a value would exceed MaxAmount.
	ErrTooLarge = errors.New("money: amount exceeds maximum representable value")
)

// ValidatePositive rejects amounts that are not strictly positive or
// that exceed MaxAmount (always false for a well-formed int64, kept
// for defense and symmetry with MulDivFloor's overflow guard).
func ValidatePositive(amount int64) error {
	if amount <= 0 {
		return ErrNonPositive
	}
	if amount > MaxAmount {
		return ErrTooLarge
	}
	return nil
}

// MulDivFloor computes floor(a*b/d) using arbitrary-precision
// intermediates so a*b never overflows int64, then checks the result
// against MaxAmount. a, b, d must be non-negative; d must be nonzero.
func MulDivFloor(a, b, d int64) (int64, error) {
	if d == 0 {
		return 0, errors.New("money: division by zero")
	}
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	q := new(big.Int).Quo(prod, big.NewInt(d))
	if !q.IsInt64() || q.Int64() > MaxAmount || q.Sign() < 0 {
		return 0, ErrTooLarge
	}
	return q.Int64(), nil
}

// MulDivBps computes floor(a*bps/10000), the basis-point fee/spread
// arithmetic used by the order book and incentive module.
func MulDivBps(a, bps int64) (int64, error) {
	return MulDivFloor(a, bps, 10_000)
}
