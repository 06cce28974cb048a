package model

import (
	"math/big"
	"time"
)

// Reason identifies which trigger produced a rebalance recommendation.
// When several triggers fire at once the first true condition in the order
// OUT_OF_RANGE, TIME_CAP_EXCEEDED, ECONOMIC_TRIGGER wins.
type Reason string

const (
	ReasonOutOfRange      Reason = "OUT_OF_RANGE"
	ReasonTimeCapExceeded Reason = "TIME_CAP_EXCEEDED"
	ReasonEconomicTrigger Reason = "ECONOMIC_TRIGGER"
	ReasonNone            Reason = "NONE"
)

// Urgency grades how quickly the operator should act on a decision.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// PoolSnapshot is the pool state a decision was computed from, with big
// values rendered as decimal strings for storage.
type PoolSnapshot struct {
	Address              string `json:"address"`
	CurrentTick          int    `json:"current_tick"`
	SqrtPriceX96         string `json:"sqrt_price_x96"`
	Liquidity            string `json:"liquidity"`
	FeeGrowthGlobal0X128 string `json:"fee_growth_global0_x128"`
	FeeGrowthGlobal1X128 string `json:"fee_growth_global1_x128"`
	ObservedAt           string `json:"observed_at"`
}

// SqrtPrice parses the stored sqrt price back into a big.Int.
func (s PoolSnapshot) SqrtPrice() (*big.Int, bool) {
	if s.SqrtPriceX96 == "" {
		return nil, false
	}
	return new(big.Int).SetString(s.SqrtPriceX96, 10)
}

// PositionSnapshot is the position state a decision was computed from.
type PositionSnapshot struct {
	TickLower   int       `json:"tick_lower"`
	TickUpper   int       `json:"tick_upper"`
	Liquidity   string    `json:"liquidity"`
	TokensOwed0 string    `json:"tokens_owed0"`
	TokensOwed1 string    `json:"tokens_owed1"`
	Token0      TokenMeta `json:"token0"`
	Token1      TokenMeta `json:"token1"`
	Fee         uint32    `json:"fee"`
}

// FeeMetrics values the position's uncollected fees.
type FeeMetrics struct {
	Token0    string  `json:"token0"`
	Token1    string  `json:"token1"`
	USDToken0 float64 `json:"usd_token0"`
	USDToken1 float64 `json:"usd_token1"`
	TotalUSD  float64 `json:"total_usd"`
}

// RebalanceDecision is the advisor's output for one monitoring cycle.
// Decisions are append-only and must stay reproducible from the embedded
// snapshots, so pool and position state are copied by value.
type RebalanceDecision struct {
	ShouldRebalance bool             `json:"should_rebalance"`
	Reason          Reason           `json:"reason"`
	Urgency         Urgency          `json:"urgency"`
	CurrentRange    Band             `json:"current_range"`
	ProposedRange   *Band            `json:"proposed_range,omitempty"`
	Fees            FeeMetrics       `json:"fees"`
	ProfitMultiple  float64          `json:"profit_multiple"`
	GasCostUSD      float64          `json:"gas_cost_usd"`
	ILPercent       float64          `json:"il_percent"`
	HoursSinceLast  *float64         `json:"hours_since_last_rebalance,omitempty"`
	Pool            PoolSnapshot     `json:"pool"`
	Position        PositionSnapshot `json:"position"`
	Timestamp       time.Time        `json:"timestamp"`
}

// SnapshotPool copies a pool state into its storable form.
func SnapshotPool(p PoolState) PoolSnapshot {
	return PoolSnapshot{
		Address:              p.Address,
		CurrentTick:          p.CurrentTick,
		SqrtPriceX96:         bigString(p.SqrtPriceX96),
		Liquidity:            bigString(p.Liquidity),
		FeeGrowthGlobal0X128: bigString(p.FeeGrowthGlobal0X128),
		FeeGrowthGlobal1X128: bigString(p.FeeGrowthGlobal1X128),
		ObservedAt:           p.ObservedAt.UTC().Format(time.RFC3339Nano),
	}
}

// SnapshotPosition copies a position into its storable form.
func SnapshotPosition(p Position) PositionSnapshot {
	return PositionSnapshot{
		TickLower:   p.TickLower,
		TickUpper:   p.TickUpper,
		Liquidity:   bigString(p.Liquidity),
		TokensOwed0: bigString(p.TokensOwed0),
		TokensOwed1: bigString(p.TokensOwed1),
		Token0:      p.Token0,
		Token1:      p.Token1,
		Fee:         p.Fee,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
