package model

import "math/big"

// Position is a read-only snapshot of a monitored V3 position.
type Position struct {
	TickLower   int
	TickUpper   int
	Liquidity   *big.Int
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
	Token0      TokenMeta
	Token1      TokenMeta
	Fee         uint32
}

// Band returns the position's tick range.
func (p Position) Band() Band {
	return Band{TickLower: p.TickLower, TickUpper: p.TickUpper}
}
