package weightedmath

import "errors"

var (
	// ErrPoolEmpty signals that a pool side has no liquidity, so the price
	// is undefined.
	ErrPoolEmpty = errors.New("pool has no liquidity")

	// ErrInvalidAmount signals a negative or otherwise malformed amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientLiquidity signals that the requested output would
	// exhaust the available balance.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrInvalidWeight signals a non-positive normalized weight.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrInvalidFee signals a swap fee of 100% or more.
	ErrInvalidFee = errors.New("invalid swap fee")

	errBaseOutOfBounds = errors.New("pow base out of bounds")
)
