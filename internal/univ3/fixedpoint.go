package univ3

import "math/big"

// Fixed-point scales used across the pool math. Q96 is the on-chain
// sqrt-price scale, Q128 the scale of the tick ratio constants.
var (
	Q32  = new(big.Int).Lsh(big.NewInt(1), 32)
	Q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// mulShift multiplies two Q128 values and rescales the product back to Q128.
func mulShift(a, b *big.Int) *big.Int {
	return new(big.Int).Rsh(new(big.Int).Mul(a, b), 128)
}

// mulDiv computes a*b/denominator with full intermediate precision,
// truncating toward zero.
func mulDiv(a, b, denominator *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	return product.Div(product, denominator)
}

// sqrtRatioToPrice converts a Q96 sqrt price to a float price (token1 per
// token0). Display and estimation only; never feeds back into integer math.
func sqrtRatioToPrice(sqrtPriceX96 *big.Int) float64 {
	q96 := new(big.Float).SetInt(Q96)
	sqrt := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
	price, _ := new(big.Float).Mul(sqrt, sqrt).Float64()
	return price
}

// PriceFromSqrtRatio is the exported display-path conversion.
func PriceFromSqrtRatio(sqrtPriceX96 *big.Int) float64 {
	return sqrtRatioToPrice(sqrtPriceX96)
}
