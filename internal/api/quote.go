package api

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"launchscope/internal/engine"
	"launchscope/internal/weightedmath"
)

// QuoteHandler serves swap previews and spot price reads.
type QuoteHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewQuoteHandler(eng *engine.Engine, logger *zap.Logger) *QuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{engine: eng, logger: logger}
}

type quoteRequest struct {
	Pool         string `query:"pool"`
	TokenIn      string `query:"token_in"`
	TokenOut     string `query:"token_out"`
	AmountIn     string `query:"amount_in"`
	MinAmountOut string `query:"min_amount_out"`
}

type quoteResponse struct {
	Pool            string `json:"pool"`
	TokenIn         string `json:"token_in"`
	TokenOut        string `json:"token_out"`
	AmountIn        string `json:"amount_in"`
	AmountOut       string `json:"amount_out"`
	SpotPriceBefore string `json:"spot_price_before"`
	SpotPriceAfter  string `json:"spot_price_after"`
	EffectivePrice  string `json:"effective_price"`
	PriceImpact     string `json:"price_impact"`
	SwapFeeBps      uint32 `json:"swap_fee_bps"`
	BlockNumber     uint64 `json:"block_number"`
	FetchedAt       string `json:"fetched_at"`
}

type spotRequest struct {
	Pool     string `query:"pool"`
	TokenIn  string `query:"token_in"`
	TokenOut string `query:"token_out"`
}

type spotResponse struct {
	Pool        string `json:"pool"`
	TokenIn     string `json:"token_in"`
	TokenOut    string `json:"token_out"`
	SpotPrice   string `json:"spot_price"`
	SwapFeeBps  uint32 `json:"swap_fee_bps"`
	BlockNumber uint64 `json:"block_number"`
	FetchedAt   string `json:"fetched_at"`
}

// HandleQuote serves GET /v1/quote.
func (h *QuoteHandler) HandleQuote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req quoteRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("bind quote query", zap.Error(err))
			return ErrInvalidQueryParameters
		}

		if err := validateAddresses(map[string]string{
			"pool":      req.Pool,
			"token_in":  req.TokenIn,
			"token_out": req.TokenOut,
		}); err != nil {
			return err
		}
		if req.TokenIn == req.TokenOut {
			return ErrSameAddresses
		}

		amountIn, err := parseAmount(req.AmountIn)
		if err != nil {
			return err
		}

		engineReq := engine.QuoteRequest{
			Pool:     common.HexToAddress(req.Pool),
			TokenIn:  common.HexToAddress(req.TokenIn),
			TokenOut: common.HexToAddress(req.TokenOut),
			AmountIn: amountIn,
		}
		if req.MinAmountOut != "" {
			minOut, ok := new(big.Int).SetString(req.MinAmountOut, 10)
			if !ok || minOut.Sign() < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid min_amount_out")
			}
			engineReq.MinAmountOut = minOut
		}

		quote, err := h.engine.QuoteSwap(context.Background(), engineReq)
		if err != nil {
			return h.mapEngineError(err)
		}

		return c.JSON(quoteResponse{
			Pool:            quote.Pool.Hex(),
			TokenIn:         quote.TokenIn.Hex(),
			TokenOut:        quote.TokenOut.Hex(),
			AmountIn:        quote.AmountIn.String(),
			AmountOut:       quote.AmountOut.String(),
			SpotPriceBefore: quote.SpotPriceBefore.String(),
			SpotPriceAfter:  quote.SpotPriceAfter.String(),
			EffectivePrice:  quote.EffectivePrice.String(),
			PriceImpact:     quote.PriceImpact.String(),
			SwapFeeBps:      quote.SwapFeeBps,
			BlockNumber:     quote.BlockNumber,
			FetchedAt:       quote.FetchedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
}

// HandleSpot serves GET /v1/spot.
func (h *QuoteHandler) HandleSpot() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req spotRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("bind spot query", zap.Error(err))
			return ErrInvalidQueryParameters
		}

		if err := validateAddresses(map[string]string{
			"pool":      req.Pool,
			"token_in":  req.TokenIn,
			"token_out": req.TokenOut,
		}); err != nil {
			return err
		}
		if req.TokenIn == req.TokenOut {
			return ErrSameAddresses
		}

		spot, err := h.engine.SpotPrice(
			context.Background(),
			common.HexToAddress(req.Pool),
			common.HexToAddress(req.TokenIn),
			common.HexToAddress(req.TokenOut),
		)
		if err != nil {
			return h.mapEngineError(err)
		}

		return c.JSON(spotResponse{
			Pool:        spot.Pool.Hex(),
			TokenIn:     spot.TokenIn.Hex(),
			TokenOut:    spot.TokenOut.Hex(),
			SpotPrice:   spot.SpotPrice.String(),
			SwapFeeBps:  spot.SwapFeeBps,
			BlockNumber: spot.BlockNumber,
			FetchedAt:   spot.FetchedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
}

func (h *QuoteHandler) mapEngineError(err error) error {
	switch {
	case errors.Is(err, engine.ErrSameToken):
		return ErrSameAddresses
	case errors.Is(err, engine.ErrPairMismatch):
		return ErrPairMismatchBadRequest
	case errors.Is(err, engine.ErrSlippageExceeded):
		return ErrSlippageBadRequest
	case errors.Is(err, weightedmath.ErrPoolEmpty):
		return ErrPoolEmptyBadRequest
	case errors.Is(err, weightedmath.ErrInvalidAmount):
		return ErrAmountNegative
	case errors.Is(err, weightedmath.ErrInsufficientLiquidity):
		return ErrInsufficientLiquidityBadRequest
	default:
		h.logger.Error("quote failed", zap.Error(err))
		return ErrChainUnavailable
	}
}

func validateAddresses(fields map[string]string) error {
	for field, addr := range fields {
		if addr == "" {
			return NewAddressRequired(field)
		}
		if !common.IsHexAddress(addr) {
			return NewInvalidAddress(field)
		}
	}
	return nil
}

func parseAmount(amountStr string) (*big.Int, error) {
	if amountStr == "" {
		return nil, ErrAmountRequired
	}
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}
	if amount.Sign() < 0 {
		return nil, ErrAmountNegative
	}
	return amount, nil
}
