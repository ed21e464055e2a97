package metrics

import "math/big"

var bone = big.NewInt(1_000_000_000_000_000_000)

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func priceString(value *big.Int) string {
	if value == nil {
		return ""
	}
	return value.String()
}

// computeMarketCap returns price * totalSupply / 1e18, the base-asset value
// of the full supply at the window's closing price.
func computeMarketCap(closePrice *big.Int, totalSupply string) *string {
	if closePrice == nil || totalSupply == "" {
		return nil
	}
	supply, ok := new(big.Int).SetString(totalSupply, 10)
	if !ok || supply.Sign() <= 0 {
		return nil
	}
	mcap := new(big.Int).Mul(closePrice, supply)
	mcap.Quo(mcap, bone)
	val := mcap.String()
	return &val
}
