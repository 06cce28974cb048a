package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

// Store provides Postgres persistence for the decision history.
type Store struct {
	pool       *pgxpool.Pool
	positionID string
}

// NewStore connects to Postgres. positionID scopes the history so several
// monitors can share one database.
func NewStore(ctx context.Context, dsn, positionID string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if positionID == "" {
		return nil, fmt.Errorf("position id is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, positionID: positionID}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Append inserts a decision. The history is append-only; rows are never
// updated.
func (s *Store) Append(ctx context.Context, decision model.RebalanceDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO rebalance_decisions (
			position_id, should_rebalance, reason, urgency,
			fees_usd, profit_multiple, il_percent, decided_at, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	`,
		s.positionID,
		decision.ShouldRebalance,
		string(decision.Reason),
		string(decision.Urgency),
		decision.Fees.TotalUSD,
		decision.ProfitMultiple,
		decision.ILPercent,
		decision.Timestamp,
		payload,
	)
	return err
}

// Last returns the most recent decision for the position.
func (s *Store) Last(ctx context.Context) (model.RebalanceDecision, bool, error) {
	return s.lastWhere(ctx, `
		SELECT payload, decided_at FROM rebalance_decisions
		WHERE position_id = $1
		ORDER BY decided_at DESC
		LIMIT 1
	`)
}

// LastRebalance returns the most recent decision that recommended a
// rebalance.
func (s *Store) LastRebalance(ctx context.Context) (model.RebalanceDecision, bool, error) {
	return s.lastWhere(ctx, `
		SELECT payload, decided_at FROM rebalance_decisions
		WHERE position_id = $1 AND should_rebalance
		ORDER BY decided_at DESC
		LIMIT 1
	`)
}

func (s *Store) lastWhere(ctx context.Context, query string) (model.RebalanceDecision, bool, error) {
	var payload []byte
	var decidedAt time.Time
	row := s.pool.QueryRow(ctx, query, s.positionID)
	if err := row.Scan(&payload, &decidedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RebalanceDecision{}, false, nil
		}
		return model.RebalanceDecision{}, false, err
	}

	var decision model.RebalanceDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return model.RebalanceDecision{}, false, fmt.Errorf("parse decision: %w", err)
	}
	return decision, true, nil
}
