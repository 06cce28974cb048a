package position

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"positionScope/internal/model"
	"positionScope/internal/price"
	"positionScope/internal/univ3"
)

const (
	token0Addr = "0x0000000000000000000000000000000000000a00"
	token1Addr = "0x0000000000000000000000000000000000000b00"
)

func testPosition(decimals0, decimals1 uint8) model.Position {
	return model.Position{
		TickLower:   -1000,
		TickUpper:   1000,
		Liquidity:   big.NewInt(1_000_000_000_000),
		TokensOwed0: big.NewInt(1_000_000),
		TokensOwed1: big.NewInt(2_000_000),
		Token0:      model.TokenMeta{Address: token0Addr, Decimals: decimals0, Symbol: "USDC"},
		Token1:      model.TokenMeta{Address: token1Addr, Decimals: decimals1, Symbol: "USDT"},
		Fee:         3000,
	}
}

func dollarSource() price.Source {
	return price.NewStatic(map[string]float64{
		token0Addr: 1.0,
		token1Addr: 1.0,
	})
}

func TestUncollectedFees(t *testing.T) {
	fees, err := UncollectedFees(context.Background(), testPosition(6, 6), dollarSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fees.Token0 != "1" {
		t.Fatalf("token0 = %s, want 1", fees.Token0)
	}
	if fees.Token1 != "2" {
		t.Fatalf("token1 = %s, want 2", fees.Token1)
	}
	if fees.USDToken0 != 1 || fees.USDToken1 != 2 {
		t.Fatalf("usd amounts = %v, %v, want 1, 2", fees.USDToken0, fees.USDToken1)
	}
	if fees.TotalUSD != 3 {
		t.Fatalf("total usd = %v, want 3", fees.TotalUSD)
	}
}

func TestUncollectedFeesBadDecimals(t *testing.T) {
	_, err := UncollectedFees(context.Background(), testPosition(19, 6), dollarSource())
	if !errors.Is(err, univ3.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}

func TestUncollectedFeesPriceFailure(t *testing.T) {
	empty := price.NewStatic(nil)
	_, err := UncollectedFees(context.Background(), testPosition(6, 6), empty)
	if !errors.Is(err, price.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestDailyFeeRate(t *testing.T) {
	if got := DailyFeeRate(10, 12); got != 20 {
		t.Fatalf("rate = %v, want 20", got)
	}
	if got := DailyFeeRate(10, 0); got != 0 {
		t.Fatalf("rate with no elapsed time = %v, want 0", got)
	}
	if got := DailyFeeRate(10, -1); got != 0 {
		t.Fatalf("rate with negative elapsed time = %v, want 0", got)
	}
}

func TestFeeAPR(t *testing.T) {
	if got := FeeAPR(10, 3650); got != 100 {
		t.Fatalf("apr = %v, want 100", got)
	}
	if got := FeeAPR(10, 0); got != 0 {
		t.Fatalf("apr with zero value = %v, want 0", got)
	}
}

func TestRebalanceThreshold(t *testing.T) {
	got := RebalanceThreshold(30, 20, 3)
	if !got.ShouldRebalance || got.DaysToBreakeven != 1.5 {
		t.Fatalf("breakeven = %+v, want rebalance at 1.5 days", got)
	}

	got = RebalanceThreshold(30, 0, 3)
	if got.ShouldRebalance || !math.IsInf(got.DaysToBreakeven, 1) {
		t.Fatalf("breakeven without fees = %+v, want infinite", got)
	}

	got = RebalanceThreshold(100, 20, 3)
	if got.ShouldRebalance || got.DaysToBreakeven != 5 {
		t.Fatalf("breakeven = %+v, want no rebalance at 5 days", got)
	}
}
