package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/notify"
	"positionScope/internal/position"
	"positionScope/internal/storage"
)

// PositionReader supplies the on-chain state a cycle evaluates.
type PositionReader interface {
	PoolState(ctx context.Context) (model.PoolState, error)
	Position(ctx context.Context) (model.Position, error)
}

type Config struct {
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Advisor      position.Config
}

// Runner drives the evaluation loop: read chain state, consult the
// advisor, persist the decision, and notify when action is recommended.
type Runner struct {
	cfg      Config
	reader   PositionReader
	store    storage.DecisionStore
	notifier notify.Notifier
	advisor  *position.Advisor
	logger   *zap.Logger
}

func NewRunner(cfg Config, reader PositionReader, advisor *position.Advisor, store storage.DecisionStore, notifier notify.Notifier, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Runner{
		cfg:      cfg,
		reader:   reader,
		store:    store,
		notifier: notifier,
		advisor:  advisor,
		logger:   logger,
	}
}

// RunOnce performs a single evaluation cycle and returns its decision.
func (r *Runner) RunOnce(ctx context.Context) (model.RebalanceDecision, error) {
	var pool model.PoolState
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		pool, err = r.reader.PoolState(ctx)
		return err
	})
	if err != nil {
		return model.RebalanceDecision{}, fmt.Errorf("reading pool state: %w", err)
	}

	var pos model.Position
	err = withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		pos, err = r.reader.Position(ctx)
		return err
	})
	if err != nil {
		return model.RebalanceDecision{}, fmt.Errorf("reading position: %w", err)
	}

	// The reference point is the last recommended rebalance, not the last
	// cycle. Anchoring on every stored decision would reset the time-cap
	// clock each interval and peg the IL entry price to the previous poll.
	var prev *model.RebalanceDecision
	last, ok, err := r.store.LastRebalance(ctx)
	if err != nil {
		return model.RebalanceDecision{}, fmt.Errorf("loading previous decision: %w", err)
	}
	if ok {
		prev = &last
	}

	decision, err := r.advisor.Evaluate(ctx, pool, pos, prev, r.cfg.Advisor)
	if err != nil {
		return model.RebalanceDecision{}, err
	}

	if err := r.store.Append(ctx, decision); err != nil {
		return model.RebalanceDecision{}, fmt.Errorf("persisting decision: %w", err)
	}

	r.logger.Info("cycle complete",
		zap.Bool("should_rebalance", decision.ShouldRebalance),
		zap.String("reason", string(decision.Reason)),
		zap.Int("current_tick", pool.CurrentTick))

	if decision.ShouldRebalance {
		if err := r.notifier.Send(ctx, formatDecision(decision)); err != nil {
			r.logger.Warn("notification failed", zap.Error(err))
		}
	}
	return decision, nil
}

// Run evaluates immediately, then on every interval tick until ctx ends.
// A failed cycle is reported and does not stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	r.cycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("cycle failed", zap.Error(err))
		text := fmt.Sprintf("position monitor: cycle failed: %v", err)
		if nerr := r.notifier.Send(ctx, text); nerr != nil {
			r.logger.Warn("notification failed", zap.Error(nerr))
		}
	}
}

func formatDecision(d model.RebalanceDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rebalance recommended (%s, urgency %s)\n", d.Reason, d.Urgency)
	fmt.Fprintf(&b, "pool %s tick %d\n", d.Pool.Address, d.Pool.CurrentTick)
	fmt.Fprintf(&b, "current range [%d, %d)", d.CurrentRange.TickLower, d.CurrentRange.TickUpper)
	if d.ProposedRange != nil {
		fmt.Fprintf(&b, " -> proposed [%d, %d)", d.ProposedRange.TickLower, d.ProposedRange.TickUpper)
	}
	fmt.Fprintf(&b, "\nfees $%.2f, profit multiple %.2f, IL %.4f%%", d.Fees.TotalUSD, d.ProfitMultiple, d.ILPercent)
	return b.String()
}
