package univ3

import (
	"fmt"
	"math/big"
)

// Amount0ForLiquidity returns the token0 amount backing liquidity between
// two sqrt price bounds:
//
//	amount0 = liquidity * 2^96 * (sqrtUpper - sqrtLower) / (sqrtUpper * sqrtLower)
//
// The bounds are sorted internally, so argument order does not matter.
func Amount0ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	lower, upper := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	numerator := new(big.Int).Lsh(liquidity, 96)
	numerator.Mul(numerator, new(big.Int).Sub(upper, lower))
	numerator.Div(numerator, upper)
	return numerator.Div(numerator, lower)
}

// Amount1ForLiquidity returns the token1 amount backing liquidity between
// two sqrt price bounds:
//
//	amount1 = liquidity * (sqrtUpper - sqrtLower) / 2^96
func Amount1ForLiquidity(sqrtRatioAX96, sqrtRatioBX96, liquidity *big.Int) *big.Int {
	lower, upper := sortRatios(sqrtRatioAX96, sqrtRatioBX96)
	amount := new(big.Int).Mul(liquidity, new(big.Int).Sub(upper, lower))
	return amount.Div(amount, Q96)
}

// AmountsForLiquidity splits a position's liquidity into token amounts given
// the current pool sqrt price. Below the range the position is all token0,
// above it all token1, inside it the current price is the split point.
func AmountsForLiquidity(tc *TickConverter, liquidity, sqrtPriceX96 *big.Int, tickLower, tickUpper int) (*big.Int, *big.Int, error) {
	if liquidity == nil || liquidity.Sign() < 0 {
		return nil, nil, fmt.Errorf("liquidity must be non-negative: %w", ErrInvalidArgument)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return nil, nil, fmt.Errorf("sqrt price must be positive: %w", ErrInvalidArgument)
	}
	if tickLower >= tickUpper {
		return nil, nil, fmt.Errorf("tick range [%d, %d) is empty: %w", tickLower, tickUpper, ErrInvalidArgument)
	}

	sqrtLower, err := tc.SqrtRatioAtTick(tickLower)
	if err != nil {
		return nil, nil, err
	}
	sqrtUpper, err := tc.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case sqrtPriceX96.Cmp(sqrtLower) <= 0:
		return Amount0ForLiquidity(sqrtLower, sqrtUpper, liquidity), big.NewInt(0), nil
	case sqrtPriceX96.Cmp(sqrtUpper) >= 0:
		return big.NewInt(0), Amount1ForLiquidity(sqrtLower, sqrtUpper, liquidity), nil
	default:
		amount0 := Amount0ForLiquidity(sqrtPriceX96, sqrtUpper, liquidity)
		amount1 := Amount1ForLiquidity(sqrtLower, sqrtPriceX96, liquidity)
		return amount0, amount1, nil
	}
}

func sortRatios(a, b *big.Int) (*big.Int, *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}
