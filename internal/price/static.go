package price

import (
	"context"
	"fmt"
	"strings"
)

// Static serves prices from a fixed address->USD map, typically loaded from
// configuration. Lookups are case-insensitive on the hex address.
type Static struct {
	prices map[string]float64
}

// NewStatic builds a static source from configured prices.
func NewStatic(prices map[string]float64) *Static {
	normalized := make(map[string]float64, len(prices))
	for address, usd := range prices {
		normalized[strings.ToLower(address)] = usd
	}
	return &Static{prices: normalized}
}

// GetPrice returns the configured price or ErrUnavailable.
func (s *Static) GetPrice(_ context.Context, tokenAddress string) (float64, error) {
	usd, ok := s.prices[strings.ToLower(tokenAddress)]
	if !ok {
		return 0, fmt.Errorf("token %s: %w", tokenAddress, ErrUnavailable)
	}
	return usd, nil
}
