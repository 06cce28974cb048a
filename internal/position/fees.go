package position

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"positionScope/internal/model"
	"positionScope/internal/price"
	"positionScope/internal/univ3"
)

const maxTokenDecimals = 18

// UncollectedFees values the position's accrued-but-uncollected fees. The
// tokensOwed fields are used directly; fee growth accrued since the last
// on-chain touch of the position is not modeled.
func UncollectedFees(ctx context.Context, pos model.Position, src price.Source) (model.FeeMetrics, error) {
	amount0, err := tokenAmount(pos.TokensOwed0, pos.Token0)
	if err != nil {
		return model.FeeMetrics{}, err
	}
	amount1, err := tokenAmount(pos.TokensOwed1, pos.Token1)
	if err != nil {
		return model.FeeMetrics{}, err
	}

	price0, err := src.GetPrice(ctx, pos.Token0.Address)
	if err != nil {
		return model.FeeMetrics{}, fmt.Errorf("price token0 %s: %w", pos.Token0.Address, err)
	}
	price1, err := src.GetPrice(ctx, pos.Token1.Address)
	if err != nil {
		return model.FeeMetrics{}, fmt.Errorf("price token1 %s: %w", pos.Token1.Address, err)
	}

	usd0 := amount0.Mul(decimal.NewFromFloat(price0)).InexactFloat64()
	usd1 := amount1.Mul(decimal.NewFromFloat(price1)).InexactFloat64()

	return model.FeeMetrics{
		Token0:    amount0.String(),
		Token1:    amount1.String(),
		USDToken0: usd0,
		USDToken1: usd1,
		TotalUSD:  usd0 + usd1,
	}, nil
}

func tokenAmount(raw *big.Int, token model.TokenMeta) (decimal.Decimal, error) {
	if token.Decimals > maxTokenDecimals {
		return decimal.Zero, fmt.Errorf("token %s decimals %d outside [0, %d]: %w",
			token.Address, token.Decimals, maxTokenDecimals, univ3.ErrInvalidArgument)
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(raw, -int32(token.Decimals)), nil
}

// DailyFeeRate extrapolates the accrued fees to a 24h rate. Non-positive
// elapsed hours mean no data, not an error.
func DailyFeeRate(currentFeesUSD, hoursElapsed float64) float64 {
	if hoursElapsed <= 0 {
		return 0
	}
	return currentFeesUSD / hoursElapsed * 24
}

// FeeAPR annualizes the daily fee rate against the position value, in
// percent. Returns 0 for a non-positive position value.
func FeeAPR(dailyFeesUSD, positionValueUSD float64) float64 {
	if positionValueUSD <= 0 {
		return 0
	}
	return dailyFeesUSD * 365 / positionValueUSD * 100
}

// Breakeven reports whether fee income repays a rebalance soon enough.
type Breakeven struct {
	ShouldRebalance bool
	DaysToBreakeven float64
}

// RebalanceThreshold compares gas cost against fee income: the breakeven is
// gasCostUSD / dailyFeesUSD days (infinite without fee income), and a
// rebalance pays off when that stays within multiplier days.
func RebalanceThreshold(gasCostUSD, dailyFeesUSD, multiplier float64) Breakeven {
	days := math.Inf(1)
	if dailyFeesUSD > 0 {
		days = gasCostUSD / dailyFeesUSD
	}
	return Breakeven{
		ShouldRebalance: days <= multiplier,
		DaysToBreakeven: days,
	}
}
