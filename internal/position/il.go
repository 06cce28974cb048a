package position

import (
	"fmt"
	"math/big"

	"positionScope/internal/model"
	"positionScope/internal/univ3"
)

// ILResult describes the value drag of staying in the position versus
// holding the tokens minted at the initial price. Loss is negative.
type ILResult struct {
	ILPercent    float64
	Token0Amount *big.Int
	Token1Amount *big.Int
	InitialValue float64
	CurrentValue float64
}

// ConcentratedImpermanentLoss compares the position's current token mix,
// holding its liquidity fixed, against a counterfactual hold of the amounts
// it would have been minted with at initialSqrtPriceX96. Concentration makes
// this steeper than the full-range formula: once price leaves the band the
// position is entirely single-asset, and the loss grows as the band narrows.
func ConcentratedImpermanentLoss(tc *univ3.TickConverter, pos model.Position, initialSqrtPriceX96, currentSqrtPriceX96 *big.Int) (ILResult, error) {
	if initialSqrtPriceX96 == nil || initialSqrtPriceX96.Sign() <= 0 ||
		currentSqrtPriceX96 == nil || currentSqrtPriceX96.Sign() <= 0 {
		return ILResult{}, fmt.Errorf("sqrt prices must be positive: %w", univ3.ErrInvalidArgument)
	}

	initial0, initial1, err := univ3.AmountsForLiquidity(tc, pos.Liquidity, initialSqrtPriceX96, pos.TickLower, pos.TickUpper)
	if err != nil {
		return ILResult{}, err
	}
	current0, current1, err := univ3.AmountsForLiquidity(tc, pos.Liquidity, currentSqrtPriceX96, pos.TickLower, pos.TickUpper)
	if err != nil {
		return ILResult{}, err
	}

	currentPrice := univ3.PriceFromSqrtRatio(currentSqrtPriceX96)
	initialPrice := univ3.PriceFromSqrtRatio(initialSqrtPriceX96)

	// Both legs valued in token1 units at the current price; the hold leg is
	// the initial token mix repriced, not the initial value.
	holdValue := bigFloat(initial0)*currentPrice + bigFloat(initial1)
	currentValue := bigFloat(current0)*currentPrice + bigFloat(current1)
	initialValue := bigFloat(initial0)*initialPrice + bigFloat(initial1)

	ilPercent := 0.0
	if initialSqrtPriceX96.Cmp(currentSqrtPriceX96) != 0 && holdValue > 0 {
		ilPercent = (currentValue/holdValue - 1) * 100
	}

	return ILResult{
		ILPercent:    ilPercent,
		Token0Amount: current0,
		Token1Amount: current1,
		InitialValue: initialValue,
		CurrentValue: currentValue,
	}, nil
}

func bigFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
