package weightedmath

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func bone(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), BONE)
}

// fraction returns n/d scaled by BONE.
func fraction(n, d int64) *big.Int {
	v := new(big.Int).Mul(big.NewInt(n), BONE)
	return v.Quo(v, big.NewInt(d))
}

func relClose(t *testing.T, got *big.Int, want float64, relTol float64) {
	t.Helper()
	gotF, _ := new(big.Float).SetInt(got).Float64()
	if want == 0 {
		if gotF != 0 {
			t.Fatalf("expected zero, got %s", got)
		}
		return
	}
	rel := math.Abs(gotF-want) / math.Abs(want)
	if rel > relTol {
		t.Fatalf("relative error %.3e exceeds %.3e: got %s want %.6e", rel, relTol, got, want)
	}
}

func TestSpotPriceEqualWeights(t *testing.T) {
	price, err := SpotPrice(bone(100), fraction(1, 2), bone(25), fraction(1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Cmp(bone(4)) != 0 {
		t.Fatalf("price mismatch: got %s want %s", price, bone(4))
	}
}

func TestSpotPricePositiveFinite(t *testing.T) {
	cases := []struct {
		name                 string
		balanceIn, weightIn  *big.Int
		balanceOut, weightOut *big.Int
	}{
		{"balanced", bone(1000), fraction(1, 2), bone(1000), fraction(1, 2)},
		{"skewed weights", bone(1), fraction(4, 5), bone(1_000_000), fraction(1, 5)},
		{"tiny reserves", big.NewInt(1), fraction(1, 2), big.NewInt(1), fraction(1, 2)},
		{"large reserves", bone(1_000_000_000), fraction(3, 10), bone(7), fraction(7, 10)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := SpotPrice(tc.balanceIn, tc.weightIn, tc.balanceOut, tc.weightOut)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if price.Sign() <= 0 {
				t.Fatalf("price must be strictly positive, got %s", price)
			}
		})
	}
}

func TestSpotPriceEmptyPool(t *testing.T) {
	if _, err := SpotPrice(new(big.Int), fraction(1, 2), bone(10), fraction(1, 2)); !errors.Is(err, ErrPoolEmpty) {
		t.Fatalf("expected ErrPoolEmpty, got %v", err)
	}
	if _, err := SpotPrice(bone(10), fraction(1, 2), new(big.Int), fraction(1, 2)); !errors.Is(err, ErrPoolEmpty) {
		t.Fatalf("expected ErrPoolEmpty, got %v", err)
	}
}

func TestCalcOutGivenInZeroAmount(t *testing.T) {
	out, err := CalcOutGivenIn(bone(1), fraction(4, 5), bone(1), fraction(1, 5), new(big.Int), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Sign() != 0 {
		t.Fatalf("expected zero output, got %s", out)
	}
}

func TestCalcOutGivenInNegativeAmount(t *testing.T) {
	_, err := CalcOutGivenIn(bone(1), fraction(1, 2), bone(1), fraction(1, 2), big.NewInt(-1), 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

// With equal weights the formula degenerates to plain constant product:
// out = balanceOut * amountIn / (balanceIn + amountIn).
func TestCalcOutGivenInEqualWeights(t *testing.T) {
	balanceIn := bone(100)
	balanceOut := bone(100)
	amountIn := bone(10)

	out, err := CalcOutGivenIn(balanceIn, fraction(1, 2), balanceOut, fraction(1, 2), amountIn, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := 100e18 * 10.0 / 110.0
	relClose(t, out, want, 1e-9)
}

// The reference example: balances (1_000_000e18, 1e18), weights (0.8, 0.2),
// 0.1e18 of the second asset in, 30 bps fee.
func TestCalcOutGivenInReference(t *testing.T) {
	balanceIn := bone(1)
	weightIn := fraction(1, 5)
	balanceOut := bone(1_000_000)
	weightOut := fraction(4, 5)
	amountIn := fraction(1, 10)

	out, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	adjusted := 0.1 * (10_000 - 30) / 10_000.0
	want := 1_000_000e18 * (1 - math.Pow(1/(1+adjusted), 0.2/0.8))
	relClose(t, out, want, 1e-9)
}

func TestCalcOutGivenInMonotonic(t *testing.T) {
	balanceIn := bone(500)
	balanceOut := bone(2_000)
	weightIn := fraction(3, 5)
	weightOut := fraction(2, 5)

	prev := new(big.Int)
	for units := int64(1); units <= 200; units += 7 {
		out, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, bone(units), 30)
		if err != nil {
			t.Fatalf("amountIn=%d: unexpected error: %v", units, err)
		}
		if out.Cmp(prev) < 0 {
			t.Fatalf("output decreased: amountIn=%d out=%s prev=%s", units, out, prev)
		}
		prev = out
	}
}

func TestCalcOutGivenInNeverDrainsPool(t *testing.T) {
	balanceIn := bone(10)
	balanceOut := bone(10)

	// even an absurdly large input leaves something in the pool
	out, err := CalcOutGivenIn(balanceIn, fraction(1, 2), balanceOut, fraction(1, 2), bone(1_000_000_000), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cmp(balanceOut) >= 0 {
		t.Fatalf("output %s must stay below balance %s", out, balanceOut)
	}
}

func TestCalcOutGivenInRejectsReserveExhaustion(t *testing.T) {
	balanceIn := bone(100)
	balanceOut := bone(100)

	// An input beyond 2e18 times the reserve rounds the remaining
	// reserve share to zero; that must surface as a typed error, not a
	// raw pow domain failure.
	amountIn := new(big.Int).Mul(bone(300), BONE)
	_, err := CalcOutGivenIn(balanceIn, fraction(1, 2), balanceOut, fraction(1, 2), amountIn, 0)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestCalcOutGivenInEmptyPool(t *testing.T) {
	_, err := CalcOutGivenIn(new(big.Int), fraction(1, 2), bone(10), fraction(1, 2), bone(1), 0)
	if !errors.Is(err, ErrPoolEmpty) {
		t.Fatalf("expected ErrPoolEmpty, got %v", err)
	}
}

func TestCalcOutGivenInFeeReducesOutput(t *testing.T) {
	balanceIn := bone(100)
	balanceOut := bone(100)
	amountIn := bone(5)

	noFee, err := CalcOutGivenIn(balanceIn, fraction(1, 2), balanceOut, fraction(1, 2), amountIn, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withFee, err := CalcOutGivenIn(balanceIn, fraction(1, 2), balanceOut, fraction(1, 2), amountIn, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withFee.Cmp(noFee) >= 0 {
		t.Fatalf("fee must reduce output: %s >= %s", withFee, noFee)
	}
}

func TestCalcInGivenOutInverts(t *testing.T) {
	balanceIn := bone(400)
	balanceOut := bone(900)
	weightIn := fraction(2, 5)
	weightOut := fraction(3, 5)
	amountIn := bone(10)

	out, err := CalcOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn, 0)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	back, err := CalcInGivenOut(balanceIn, weightIn, balanceOut, weightOut, out, 0)
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}

	wantF, _ := new(big.Float).SetInt(amountIn).Float64()
	relClose(t, back, wantF, 1e-6)
}

func TestCalcInGivenOutRejectsFullDrain(t *testing.T) {
	balanceOut := bone(10)
	_, err := CalcInGivenOut(bone(10), fraction(1, 2), balanceOut, fraction(1, 2), balanceOut, 0)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestInvariantNonDecreasing(t *testing.T) {
	balanceA := bone(1_000)
	balanceB := bone(250)
	weightA := fraction(3, 5)
	weightB := fraction(2, 5)

	for _, feeBps := range []uint32{0, 30, 100} {
		amountIn := bone(50)
		out, err := CalcOutGivenIn(balanceA, weightA, balanceB, weightB, amountIn, feeBps)
		if err != nil {
			t.Fatalf("fee=%d: %v", feeBps, err)
		}

		newA := new(big.Int).Add(balanceA, amountIn)
		newB := new(big.Int).Sub(balanceB, out)

		ratio, err := InvariantRatio(balanceA, weightA, balanceB, weightB, newA, newB)
		if err != nil {
			t.Fatalf("fee=%d: invariant ratio: %v", feeBps, err)
		}

		// allow 1e-9 of rounding slack below one
		floor := new(big.Int).Sub(BONE, big.NewInt(1_000_000_000))
		if ratio.Cmp(floor) < 0 {
			t.Fatalf("fee=%d: invariant decreased: ratio=%s", feeBps, ratio)
		}
	}
}
