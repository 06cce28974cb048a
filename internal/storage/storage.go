package storage

import (
	"context"

	"positionScope/internal/model"
)

// DecisionStore persists the append-only rebalance decision history.
// Last serves the most recent decision of any kind; LastRebalance serves
// the most recent decision that recommended a rebalance, which anchors the
// time-cap clock and the impermanent loss entry price.
type DecisionStore interface {
	Append(ctx context.Context, decision model.RebalanceDecision) error
	Last(ctx context.Context) (model.RebalanceDecision, bool, error)
	LastRebalance(ctx context.Context) (model.RebalanceDecision, bool, error)
}
