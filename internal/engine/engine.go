package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchscope/internal/model"
	"launchscope/internal/weightedmath"
)

// SnapshotSource supplies pool reserve snapshots. Implementations read from
// the chain, optionally behind a TTL cache.
type SnapshotSource interface {
	PoolState(ctx context.Context, pool common.Address) (model.PoolState, error)
}

// QuoteRequest describes a single-hop swap preview.
type QuoteRequest struct {
	Pool     common.Address
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int

	// MinAmountOut, when non-nil, turns the quote into a slippage check.
	MinAmountOut *big.Int
}

// Quote is the result of a swap preview. All prices are 18-decimal
// fixed-point values denominated in tokenIn per tokenOut. A quote reflects
// one block's reserves and is never a guarantee of execution.
type Quote struct {
	Pool     common.Address `json:"pool"`
	TokenIn  common.Address `json:"token_in"`
	TokenOut common.Address `json:"token_out"`

	AmountIn  *big.Int `json:"amount_in"`
	AmountOut *big.Int `json:"amount_out"`

	SpotPriceBefore *big.Int `json:"spot_price_before"`
	SpotPriceAfter  *big.Int `json:"spot_price_after"`
	EffectivePrice  *big.Int `json:"effective_price"`
	PriceImpact     *big.Int `json:"price_impact"`

	SwapFeeBps  uint32    `json:"swap_fee_bps"`
	BlockNumber uint64    `json:"block_number"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// SpotQuote is the result of a spot price read.
type SpotQuote struct {
	Pool     common.Address `json:"pool"`
	TokenIn  common.Address `json:"token_in"`
	TokenOut common.Address `json:"token_out"`

	SpotPrice   *big.Int  `json:"spot_price"`
	SwapFeeBps  uint32    `json:"swap_fee_bps"`
	BlockNumber uint64    `json:"block_number"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Engine computes swap previews and spot prices over pool snapshots.
type Engine struct {
	source SnapshotSource
	logger *zap.Logger
}

func New(source SnapshotSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{source: source, logger: logger}
}

// QuoteSwap previews a swap against the pool's current reserves. Pricing
// runs entirely in 18-decimal fixed-point integer arithmetic.
func (e *Engine) QuoteSwap(ctx context.Context, req QuoteRequest) (Quote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() < 0 {
		return Quote{}, weightedmath.ErrInvalidAmount
	}
	if req.TokenIn == req.TokenOut {
		return Quote{}, ErrSameToken
	}

	state, err := e.source.PoolState(ctx, req.Pool)
	if err != nil {
		return Quote{}, fmt.Errorf("pool state: %w", err)
	}

	balanceIn, weightIn, balanceOut, weightOut, ok := state.Oriented(req.TokenIn, req.TokenOut)
	if !ok {
		return Quote{}, ErrPairMismatch
	}

	spotBefore, err := weightedmath.SpotPrice(balanceIn, weightIn, balanceOut, weightOut)
	if err != nil {
		return Quote{}, err
	}

	amountOut, err := weightedmath.CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, req.AmountIn, state.SwapFeeBps)
	if err != nil {
		return Quote{}, err
	}

	if req.MinAmountOut != nil && amountOut.Cmp(req.MinAmountOut) < 0 {
		return Quote{}, fmt.Errorf("%w: got %s, want at least %s",
			ErrSlippageExceeded, amountOut, req.MinAmountOut)
	}

	quote := Quote{
		Pool:            req.Pool,
		TokenIn:         req.TokenIn,
		TokenOut:        req.TokenOut,
		AmountIn:        new(big.Int).Set(req.AmountIn),
		AmountOut:       amountOut,
		SpotPriceBefore: spotBefore,
		SwapFeeBps:      state.SwapFeeBps,
		BlockNumber:     state.BlockNumber,
		FetchedAt:       state.FetchedAt,
	}

	// Nothing moves for a zero input, and a dust input can floor to a
	// zero output once the fee is applied. Neither has an execution
	// price, so both report the spot price unchanged.
	if amountOut.Sign() == 0 {
		quote.SpotPriceAfter = new(big.Int).Set(spotBefore)
		quote.EffectivePrice = new(big.Int).Set(spotBefore)
		quote.PriceImpact = big.NewInt(0)
		return quote, nil
	}

	newBalanceIn := new(big.Int).Add(balanceIn, req.AmountIn)
	newBalanceOut := new(big.Int).Sub(balanceOut, amountOut)
	spotAfter, err := weightedmath.SpotPrice(newBalanceIn, weightIn, newBalanceOut, weightOut)
	if err != nil {
		return Quote{}, err
	}
	quote.SpotPriceAfter = spotAfter

	quote.EffectivePrice = effectivePrice(req.AmountIn, amountOut)
	quote.PriceImpact = priceImpact(spotBefore, quote.EffectivePrice)

	e.logger.Debug("swap quoted",
		zap.String("pool", req.Pool.Hex()),
		zap.String("amount_in", req.AmountIn.String()),
		zap.String("amount_out", amountOut.String()),
		zap.Uint64("block", state.BlockNumber),
	)

	return quote, nil
}

// SpotPrice reads the marginal price of tokenOut in terms of tokenIn.
func (e *Engine) SpotPrice(ctx context.Context, pool, tokenIn, tokenOut common.Address) (SpotQuote, error) {
	if tokenIn == tokenOut {
		return SpotQuote{}, ErrSameToken
	}

	state, err := e.source.PoolState(ctx, pool)
	if err != nil {
		return SpotQuote{}, fmt.Errorf("pool state: %w", err)
	}

	balanceIn, weightIn, balanceOut, weightOut, ok := state.Oriented(tokenIn, tokenOut)
	if !ok {
		return SpotQuote{}, ErrPairMismatch
	}

	spot, err := weightedmath.SpotPrice(balanceIn, weightIn, balanceOut, weightOut)
	if err != nil {
		return SpotQuote{}, err
	}

	return SpotQuote{
		Pool:        pool,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		SpotPrice:   spot,
		SwapFeeBps:  state.SwapFeeBps,
		BlockNumber: state.BlockNumber,
		FetchedAt:   state.FetchedAt,
	}, nil
}

// effectivePrice returns amountIn/amountOut as an 18-decimal fixed-point
// value. The caller short-circuits zero outputs before getting here.
func effectivePrice(amountIn, amountOut *big.Int) *big.Int {
	price := new(big.Int).Mul(amountIn, weightedmath.BONE)
	return price.Quo(price, amountOut)
}

// priceImpact returns 1 - spot/effective in 18-decimal fixed-point terms,
// clamped to zero for wei-level rounding in the caller's favor.
func priceImpact(spot, effective *big.Int) *big.Int {
	if effective.Sign() == 0 {
		return big.NewInt(0)
	}
	ratio := new(big.Int).Mul(spot, weightedmath.BONE)
	ratio.Quo(ratio, effective)
	impact := new(big.Int).Sub(weightedmath.BONE, ratio)
	if impact.Sign() < 0 {
		return big.NewInt(0)
	}
	return impact
}
