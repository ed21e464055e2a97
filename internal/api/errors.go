package api

import "github.com/gofiber/fiber/v3"

// ErrInvalidQueryParameters indicates that the request query string could not
// be parsed into the expected structure.
var ErrInvalidQueryParameters = fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")

// ErrSameAddresses is returned when tokenIn and tokenOut are identical.
var ErrSameAddresses = fiber.NewError(fiber.StatusBadRequest, "token_in and token_out cannot be the same")

// ErrAmountRequired is returned when the amount parameter is missing.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount_in is required")

// ErrInvalidAmountFormat is returned when the amount cannot be parsed as a
// base-10 integer.
var ErrInvalidAmountFormat = fiber.NewError(fiber.StatusBadRequest, "invalid amount_in format")

// ErrAmountNegative is returned when the amount is negative.
var ErrAmountNegative = fiber.NewError(fiber.StatusBadRequest, "amount_in must not be negative")

// ErrPairMismatchBadRequest maps a pool pair mismatch to a 400 error.
var ErrPairMismatchBadRequest = fiber.NewError(fiber.StatusBadRequest, "token pair does not match pool")

// ErrPoolEmptyBadRequest maps empty pool reserves to a 400 error.
var ErrPoolEmptyBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool has no liquidity")

// ErrInsufficientLiquidityBadRequest maps an output exceeding reserves to a
// 400 error.
var ErrInsufficientLiquidityBadRequest = fiber.NewError(fiber.StatusBadRequest, "requested amount exceeds pool liquidity")

// ErrSlippageBadRequest maps a failed minimum-output check to a 400 error.
var ErrSlippageBadRequest = fiber.NewError(fiber.StatusBadRequest, "output below min_amount_out")

// ErrChainUnavailable signals a failed upstream chain read.
var ErrChainUnavailable = fiber.NewError(fiber.StatusBadGateway, "chain read failed")

// NewAddressRequired returns a 400 Bad Request for a missing address field.
func NewAddressRequired(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, field+" address is required")
}

// NewInvalidAddress returns a 400 Bad Request for an invalid address format.
func NewInvalidAddress(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+" address")
}
