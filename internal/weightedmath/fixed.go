// Package weightedmath implements weighted constant-product pool pricing on
// 18-decimal fixed-point integers. All arithmetic is arbitrary precision via
// math/big; native floats would drift from the on-chain rounding direction.
package weightedmath

import "math/big"

// BONE is the fixed-point unit: 1e18 represents 1.0.
var BONE = big.NewInt(1_000_000_000_000_000_000)

var (
	boneHalf = new(big.Int).Rsh(BONE, 1)

	// bpow accepts bases in [1 wei, 2.0) only; the swap formulas keep
	// their bases inside this range by construction.
	minPowBase = big.NewInt(1)
	maxPowBase = new(big.Int).Sub(new(big.Int).Lsh(BONE, 1), big.NewInt(1))

	// powPrecision terminates the binomial series once terms drop below
	// 1e-12 of BONE.
	powPrecision = big.NewInt(1_000_000)

	feeDenom = big.NewInt(10_000)
)

func btoi(a *big.Int) *big.Int {
	return new(big.Int).Quo(a, BONE)
}

func bfloor(a *big.Int) *big.Int {
	return new(big.Int).Mul(btoi(a), BONE)
}

// bmul multiplies two fixed-point values, rounding half up.
func bmul(a, b *big.Int) *big.Int {
	c := new(big.Int).Mul(a, b)
	c.Add(c, boneHalf)
	return c.Quo(c, BONE)
}

// bdiv divides two fixed-point values, rounding half up.
func bdiv(a, b *big.Int) *big.Int {
	c := new(big.Int).Mul(a, BONE)
	c.Add(c, new(big.Int).Rsh(b, 1))
	return c.Quo(c, b)
}

// bsubSign returns |a-b| and whether the difference is negative.
func bsubSign(a, b *big.Int) (*big.Int, bool) {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Sub(a, b), false
	}
	return new(big.Int).Sub(b, a), true
}

// bpowi raises a fixed-point base to an integer exponent by squaring.
func bpowi(a *big.Int, n *big.Int) *big.Int {
	z := new(big.Int).Set(BONE)
	base := new(big.Int).Set(a)
	e := new(big.Int).Set(n)
	two := big.NewInt(2)
	rem := new(big.Int)

	for e.Sign() > 0 {
		e.QuoRem(e, two, rem)
		if rem.Sign() != 0 {
			z = bmul(z, base)
		}
		if e.Sign() > 0 {
			base = bmul(base, base)
		}
	}
	return z
}

// bpow raises base to a fractional fixed-point exponent. The integer part
// uses bpowi, the remainder a binomial series truncated at powPrecision.
func bpow(base, exp *big.Int) (*big.Int, error) {
	if base.Cmp(minPowBase) < 0 || base.Cmp(maxPowBase) > 0 {
		return nil, errBaseOutOfBounds
	}

	whole := bfloor(exp)
	remain := new(big.Int).Sub(exp, whole)

	wholePow := bpowi(base, btoi(whole))
	if remain.Sign() == 0 {
		return wholePow, nil
	}

	partial := bpowApprox(base, remain)
	return bmul(wholePow, partial), nil
}

func bpowApprox(base, exp *big.Int) *big.Int {
	x, xneg := bsubSign(base, BONE)
	term := new(big.Int).Set(BONE)
	sum := new(big.Int).Set(BONE)
	negative := false

	// term(k) = term(k-1) * (exp - (k-1)) * x / k
	for i := int64(1); term.Cmp(powPrecision) >= 0; i++ {
		bigK := new(big.Int).Mul(big.NewInt(i), BONE)
		c, cneg := bsubSign(exp, new(big.Int).Sub(bigK, BONE))
		term = bmul(term, bmul(c, x))
		term = bdiv(term, bigK)
		if term.Sign() == 0 {
			break
		}
		if xneg {
			negative = !negative
		}
		if cneg {
			negative = !negative
		}
		if negative {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}

	return sum
}
