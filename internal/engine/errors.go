package engine

import "errors"

var (
	// ErrSameToken is returned when tokenIn and tokenOut are identical.
	ErrSameToken = errors.New("token in and token out are the same")

	// ErrPairMismatch is returned when the requested pair is not the
	// pool's token pair.
	ErrPairMismatch = errors.New("token pair does not match pool")

	// ErrSlippageExceeded is returned when the computed output falls
	// below the caller's minimum.
	ErrSlippageExceeded = errors.New("output below minimum amount out")
)
