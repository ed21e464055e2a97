package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchscope/internal/model"
	"launchscope/internal/weightedmath"
)

var (
	testPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testTokenB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

type stubSource struct {
	state model.PoolState
	err   error
	calls int
}

func (s *stubSource) PoolState(_ context.Context, _ common.Address) (model.PoolState, error) {
	s.calls++
	if s.err != nil {
		return model.PoolState{}, s.err
	}
	return s.state, nil
}

func bone(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), weightedmath.BONE)
}

func fraction(numerator, denominator int64) *big.Int {
	out := new(big.Int).Mul(big.NewInt(numerator), weightedmath.BONE)
	return out.Quo(out, big.NewInt(denominator))
}

func newTestState() model.PoolState {
	return model.PoolState{
		Pool:        testPool,
		TokenA:      testTokenA,
		TokenB:      testTokenB,
		BalanceA:    bone(1_000_000),
		BalanceB:    bone(1),
		WeightA:     fraction(4, 5),
		WeightB:     fraction(1, 5),
		SwapFeeBps:  30,
		BlockNumber: 12345,
		FetchedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestQuoteSwapBasic(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	amountIn := fraction(1, 10)
	quote, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: amountIn,
	})
	require.NoError(t, err)

	assert.Equal(t, amountIn, quote.AmountIn)
	assert.Equal(t, uint64(12345), quote.BlockNumber)
	assert.Equal(t, uint32(30), quote.SwapFeeBps)

	// Roughly 23479 tokens out for 0.1 of the scarce asset in.
	require.Positive(t, quote.AmountOut.Sign())
	low := bone(23_000)
	high := bone(24_000)
	assert.Negative(t, low.Cmp(quote.AmountOut))
	assert.Positive(t, high.Cmp(quote.AmountOut))

	// Execution pays more per unit than the marginal price.
	assert.Negative(t, quote.SpotPriceBefore.Cmp(quote.EffectivePrice))
	assert.Negative(t, quote.SpotPriceBefore.Cmp(quote.SpotPriceAfter))
	assert.Positive(t, quote.PriceImpact.Sign())
	assert.Negative(t, quote.PriceImpact.Cmp(weightedmath.BONE))
}

func TestQuoteSwapZeroAmount(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	quote, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: big.NewInt(0),
	})
	require.NoError(t, err)

	assert.Zero(t, quote.AmountOut.Sign())
	assert.Zero(t, quote.PriceImpact.Sign())
	assert.Equal(t, quote.SpotPriceBefore, quote.SpotPriceAfter)
}

func TestQuoteSwapDustInput(t *testing.T) {
	// 1 wei in at 30 bps floors the fee-adjusted input, and with it the
	// output, to zero. The quote must degrade to the spot price instead
	// of dividing by the empty output.
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	quote, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: big.NewInt(1),
	})
	require.NoError(t, err)

	assert.Zero(t, quote.AmountOut.Sign())
	assert.Zero(t, quote.PriceImpact.Sign())
	assert.Equal(t, quote.SpotPriceBefore, quote.EffectivePrice)
	assert.Equal(t, quote.SpotPriceBefore, quote.SpotPriceAfter)
}

func TestQuoteSwapNegativeAmount(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	_, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: big.NewInt(-1),
	})
	require.ErrorIs(t, err, weightedmath.ErrInvalidAmount)
	assert.Zero(t, source.calls)
}

func TestQuoteSwapSameToken(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	_, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenA,
		TokenOut: testTokenA,
		AmountIn: bone(1),
	})
	require.ErrorIs(t, err, ErrSameToken)
}

func TestQuoteSwapPairMismatch(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	_, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenA,
		TokenOut: common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
		AmountIn: bone(1),
	})
	require.ErrorIs(t, err, ErrPairMismatch)
}

func TestQuoteSwapEmptyPool(t *testing.T) {
	state := newTestState()
	state.BalanceB = big.NewInt(0)
	source := &stubSource{state: state}
	eng := New(source, nil)

	_, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: bone(1),
	})
	require.ErrorIs(t, err, weightedmath.ErrPoolEmpty)
}

func TestQuoteSwapSlippage(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	req := QuoteRequest{
		Pool:         testPool,
		TokenIn:      testTokenB,
		TokenOut:     testTokenA,
		AmountIn:     fraction(1, 10),
		MinAmountOut: bone(1_000_000),
	}
	_, err := eng.QuoteSwap(context.Background(), req)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	req.MinAmountOut = bone(23_000)
	_, err = eng.QuoteSwap(context.Background(), req)
	require.NoError(t, err)
}

func TestQuoteSwapSourceError(t *testing.T) {
	sourceErr := errors.New("rpc unavailable")
	source := &stubSource{err: sourceErr}
	eng := New(source, nil)

	_, err := eng.QuoteSwap(context.Background(), QuoteRequest{
		Pool:     testPool,
		TokenIn:  testTokenB,
		TokenOut: testTokenA,
		AmountIn: bone(1),
	})
	require.ErrorIs(t, err, sourceErr)
}

func TestSpotPriceOrientation(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	forward, err := eng.SpotPrice(context.Background(), testPool, testTokenA, testTokenB)
	require.NoError(t, err)
	reverse, err := eng.SpotPrice(context.Background(), testPool, testTokenB, testTokenA)
	require.NoError(t, err)

	require.Positive(t, forward.SpotPrice.Sign())
	require.Positive(t, reverse.SpotPrice.Sign())

	// Reciprocal prices multiply back to one up to rounding.
	product := new(big.Int).Mul(forward.SpotPrice, reverse.SpotPrice)
	product.Quo(product, weightedmath.BONE)
	diff := new(big.Int).Sub(product, weightedmath.BONE)
	diff.Abs(diff)
	tolerance := new(big.Int).Div(weightedmath.BONE, big.NewInt(1_000_000_000))
	assert.Negative(t, diff.Cmp(tolerance))
}

func TestSpotPriceSameToken(t *testing.T) {
	source := &stubSource{state: newTestState()}
	eng := New(source, nil)

	_, err := eng.SpotPrice(context.Background(), testPool, testTokenA, testTokenA)
	require.ErrorIs(t, err, ErrSameToken)
}
