package position

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"positionScope/internal/model"
	"positionScope/internal/price"
	"positionScope/internal/univ3"
)

// Config holds the advisor's decision thresholds.
type Config struct {
	// BandBasisPoints is the tick width of a proposed replacement range.
	BandBasisPoints int
	// TimeCapHours is the longest tolerated stretch without a rebalance.
	TimeCapHours float64
	// FeeGasMultiple is the minimum uncollected-fee to gas-cost ratio that
	// makes a rebalance worth paying for.
	FeeGasMultiple float64
	// EstimatedGasCostUSD prices one rebalance transaction.
	EstimatedGasCostUSD float64
}

// Advisor combines range position, elapsed time, and fee economics into a
// rebalance decision. Each evaluation is a pure function of its inputs plus
// the previous decision; no state is carried between cycles.
type Advisor struct {
	prices price.Source
	logger *zap.Logger
	now    func() time.Time
}

// NewAdvisor builds an advisor using the given price source.
func NewAdvisor(prices price.Source, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		prices: prices,
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate produces the decision for one monitoring cycle. Any downstream
// failure (bad decimals, tick out of bounds, unavailable price) fails the
// whole evaluation; no partial decision is produced.
func (a *Advisor) Evaluate(ctx context.Context, pool model.PoolState, pos model.Position, prev *model.RebalanceDecision, cfg Config) (model.RebalanceDecision, error) {
	if cfg.EstimatedGasCostUSD <= 0 {
		return model.RebalanceDecision{}, fmt.Errorf("estimated gas cost %v must be positive: %w",
			cfg.EstimatedGasCostUSD, univ3.ErrInvalidArgument)
	}

	// The sqrt-price cache lives for one evaluation only, so concurrent
	// evaluations never share mutable state.
	ticks := univ3.NewTickConverter()

	isOutOfRange := !univ3.IsInRange(pool.CurrentTick, pos.TickLower, pos.TickUpper)

	now := a.now().UTC()
	hoursSinceLast := math.Inf(1)
	var hoursPtr *float64
	if prev != nil {
		hoursSinceLast = now.Sub(prev.Timestamp).Hours()
		h := hoursSinceLast
		hoursPtr = &h
	}
	timeCapExceeded := hoursSinceLast > cfg.TimeCapHours

	fees, err := UncollectedFees(ctx, pos, a.prices)
	if err != nil {
		return model.RebalanceDecision{}, fmt.Errorf("uncollected fees: %w", err)
	}

	profitMultiple := fees.TotalUSD / cfg.EstimatedGasCostUSD
	economicTrigger := profitMultiple >= cfg.FeeGasMultiple

	shouldRebalance := isOutOfRange || timeCapExceeded || economicTrigger

	// Fixed precedence: an out-of-range position outranks a stale one, which
	// outranks a merely profitable collect.
	reason := model.ReasonNone
	switch {
	case isOutOfRange:
		reason = model.ReasonOutOfRange
	case timeCapExceeded:
		reason = model.ReasonTimeCapExceeded
	case economicTrigger:
		reason = model.ReasonEconomicTrigger
	}

	urgency := model.UrgencyLow
	switch {
	case isOutOfRange:
		urgency = model.UrgencyHigh
	case hoursSinceLast > 20:
		urgency = model.UrgencyMedium
	}

	var proposed *model.Band
	if shouldRebalance {
		tickSpacing, err := univ3.FeeTierToTickSpacing(int(pos.Fee))
		if err != nil {
			return model.RebalanceDecision{}, err
		}
		band, err := univ3.CalculateBand(pool.CurrentTick, cfg.BandBasisPoints, tickSpacing)
		if err != nil {
			return model.RebalanceDecision{}, fmt.Errorf("proposed band: %w", err)
		}
		proposed = &band
	}

	ilPercent := 0.0
	if prev != nil {
		if entrySqrt, ok := prev.Pool.SqrtPrice(); ok {
			il, err := ConcentratedImpermanentLoss(ticks, pos, entrySqrt, pool.SqrtPriceX96)
			if err != nil {
				return model.RebalanceDecision{}, fmt.Errorf("impermanent loss: %w", err)
			}
			ilPercent = il.ILPercent
		}
	}

	decision := model.RebalanceDecision{
		ShouldRebalance: shouldRebalance,
		Reason:          reason,
		Urgency:         urgency,
		CurrentRange:    pos.Band(),
		ProposedRange:   proposed,
		Fees:            fees,
		ProfitMultiple:  profitMultiple,
		GasCostUSD:      cfg.EstimatedGasCostUSD,
		ILPercent:       ilPercent,
		HoursSinceLast:  hoursPtr,
		Pool:            model.SnapshotPool(pool),
		Position:        model.SnapshotPosition(pos),
		Timestamp:       now,
	}

	a.logger.Debug("evaluation complete",
		zap.Bool("should_rebalance", decision.ShouldRebalance),
		zap.String("reason", string(decision.Reason)),
		zap.String("urgency", string(decision.Urgency)),
		zap.Int("current_tick", pool.CurrentTick),
		zap.Float64("fees_usd", fees.TotalUSD),
		zap.Float64("profit_multiple", profitMultiple),
	)

	return decision, nil
}
