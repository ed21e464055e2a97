package weightedmath

import (
	"fmt"
	"math/big"
)

// SpotPrice returns the instantaneous price of the out token denominated in
// the in token, scaled by BONE:
//
//	price = (balanceIn / weightIn) / (balanceOut / weightOut)
//
// The price is undefined on an empty pool side.
func SpotPrice(balanceIn, weightIn, balanceOut, weightOut *big.Int) (*big.Int, error) {
	if err := checkReserves(balanceIn, weightIn, balanceOut, weightOut); err != nil {
		return nil, err
	}

	numer := bdiv(balanceIn, weightIn)
	denom := bdiv(balanceOut, weightOut)
	return bdiv(numer, denom), nil
}

// CalcOutGivenIn computes the swap output for amountIn under the weighted
// constant-product invariant, charging feeBps on the way in:
//
//	out = balanceOut * (1 - (balanceIn / (balanceIn + amountIn*(1-fee))) ^ (weightIn/weightOut))
//
// The result is strictly below balanceOut; a pool can never be fully
// drained. A zero amountIn yields a zero output, and an input deep enough
// to round the remaining reserve share to zero fails with
// ErrInsufficientLiquidity.
func CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn *big.Int, feeBps uint32) (*big.Int, error) {
	if err := checkReserves(balanceIn, weightIn, balanceOut, weightOut); err != nil {
		return nil, err
	}
	if feeBps >= 10_000 {
		return nil, fmt.Errorf("fee %d bps: %w", feeBps, ErrInvalidFee)
	}
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}

	adjustedIn := applyFee(amountIn, feeBps)

	denom := new(big.Int).Add(balanceIn, adjustedIn)
	y := bdiv(balanceIn, denom)
	weightRatio := bdiv(weightIn, weightOut)

	pw, err := bpow(y, weightRatio)
	if err != nil {
		// The base leaves the pow domain only when the trade is deep
		// enough to round the remaining reserve share to nothing.
		return nil, ErrInsufficientLiquidity
	}
	if pw.Cmp(BONE) > 0 {
		// rounding pushed the ratio above one; nothing comes out
		return new(big.Int), nil
	}

	bar := new(big.Int).Sub(BONE, pw)
	amountOut := bmul(balanceOut, bar)
	if amountOut.Cmp(balanceOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return amountOut, nil
}

// CalcInGivenOut computes the input required to withdraw exactly amountOut,
// grossing the fee up on the way in. It fails with ErrInsufficientLiquidity
// when amountOut meets or exceeds the available balance, and also when the
// withdrawal is deep enough to push the pow base past its domain (more than
// half the out reserve in one trade).
func CalcInGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut *big.Int, feeBps uint32) (*big.Int, error) {
	if err := checkReserves(balanceIn, weightIn, balanceOut, weightOut); err != nil {
		return nil, err
	}
	if feeBps >= 10_000 {
		return nil, fmt.Errorf("fee %d bps: %w", feeBps, ErrInvalidFee)
	}
	if amountOut == nil || amountOut.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if amountOut.Sign() == 0 {
		return new(big.Int), nil
	}
	if amountOut.Cmp(balanceOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	diff := new(big.Int).Sub(balanceOut, amountOut)
	y := bdiv(balanceOut, diff)
	weightRatio := bdiv(weightOut, weightIn)

	pw, err := bpow(y, weightRatio)
	if err != nil {
		return nil, ErrInsufficientLiquidity
	}

	foo := new(big.Int).Sub(pw, BONE)
	amountInNoFee := bmul(balanceIn, foo)

	// gross the fee up, rounding against the caller
	numer := new(big.Int).Mul(amountInNoFee, feeDenom)
	denom := big.NewInt(int64(10_000 - feeBps))
	numer.Add(numer, new(big.Int).Sub(denom, big.NewInt(1)))
	return numer.Quo(numer, denom), nil
}

// InvariantRatio returns (newA/oldA)^weightA * (newB/oldB)^weightB scaled by
// BONE: the ratio of the weighted geometric mean of reserves after a swap to
// the one before. A value of at least BONE means the invariant did not
// decrease. Intended for property tests, not as a runtime step.
func InvariantRatio(balanceA, weightA, balanceB, weightB, newBalanceA, newBalanceB *big.Int) (*big.Int, error) {
	if err := checkReserves(balanceA, weightA, balanceB, weightB); err != nil {
		return nil, err
	}
	if newBalanceA == nil || newBalanceA.Sign() <= 0 || newBalanceB == nil || newBalanceB.Sign() <= 0 {
		return nil, ErrPoolEmpty
	}

	ratioA := bdiv(newBalanceA, balanceA)
	ratioB := bdiv(newBalanceB, balanceB)

	partA, err := bpow(ratioA, weightA)
	if err != nil {
		return nil, fmt.Errorf("balance A moved too far: %w", err)
	}
	partB, err := bpow(ratioB, weightB)
	if err != nil {
		return nil, fmt.Errorf("balance B moved too far: %w", err)
	}
	return bmul(partA, partB), nil
}

func applyFee(amountIn *big.Int, feeBps uint32) *big.Int {
	adjusted := new(big.Int).Mul(amountIn, big.NewInt(int64(10_000-feeBps)))
	return adjusted.Quo(adjusted, feeDenom)
}

func checkReserves(balanceIn, weightIn, balanceOut, weightOut *big.Int) error {
	if balanceIn == nil || balanceIn.Sign() <= 0 || balanceOut == nil || balanceOut.Sign() <= 0 {
		return ErrPoolEmpty
	}
	if weightIn == nil || weightIn.Sign() <= 0 || weightOut == nil || weightOut.Sign() <= 0 {
		return ErrInvalidWeight
	}
	return nil
}
