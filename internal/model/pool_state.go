package model

import (
	"math/big"
	"time"
)

// PoolState is an immutable snapshot of the pool's live state, refreshed
// once per monitoring cycle.
type PoolState struct {
	Address              string
	CurrentTick          int
	SqrtPriceX96         *big.Int
	Liquidity            *big.Int
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int
	ObservedAt           time.Time
}
