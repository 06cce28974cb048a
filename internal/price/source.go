package price

import (
	"context"
	"errors"
)

// ErrUnavailable reports that no price could be produced for a token. The
// core never substitutes a default; the monitoring cycle fails instead.
var ErrUnavailable = errors.New("price unavailable")

// Source supplies USD prices by token address. Implementations may cache or
// go to the network, but must resolve to a plain value before the core math
// runs.
type Source interface {
	GetPrice(ctx context.Context, tokenAddress string) (float64, error)
}
