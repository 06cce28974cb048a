package univ3

import (
	"fmt"
	"math"

	"positionScope/internal/model"
)

// Fee tier (hundredths of a bip) to tick spacing, per the V3 factory.
var feeTierToSpacing = map[int]int{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

var spacingToFeeTier = map[int]int{
	1:   100,
	10:  500,
	60:  3000,
	200: 10000,
}

// CalculateBand builds an aligned tick range of roughly basisPoints ticks
// centered on currentTick. The lower bound rounds down to a tick spacing
// multiple and the upper bound rounds up. Bounds are clamped to the
// spacing-aligned tick limits, so near MinTick or MaxTick the band narrows
// rather than leaving the usable tick domain.
func CalculateBand(currentTick, basisPoints, tickSpacing int) (model.Band, error) {
	if basisPoints <= 0 {
		return model.Band{}, fmt.Errorf("band width %d must be positive: %w", basisPoints, ErrInvalidArgument)
	}
	if _, ok := spacingToFeeTier[tickSpacing]; !ok {
		return model.Band{}, fmt.Errorf("tick spacing %d: %w", tickSpacing, ErrInvalidArgument)
	}
	if currentTick < MinTick || currentTick > MaxTick {
		return model.Band{}, fmt.Errorf("tick %d outside [%d, %d]: %w", currentTick, MinTick, MaxTick, ErrTickOutOfBounds)
	}

	halfBand := basisPoints / 2
	lower := floorToSpacing(currentTick-halfBand, tickSpacing)
	upper := ceilToSpacing(currentTick+halfBand, tickSpacing)

	minUsable := ceilToSpacing(MinTick, tickSpacing)
	maxUsable := floorToSpacing(MaxTick, tickSpacing)
	if lower < minUsable {
		lower = minUsable
	}
	if upper > maxUsable {
		upper = maxUsable
	}
	if upper-lower < tickSpacing {
		if upper == maxUsable {
			lower = upper - tickSpacing
		} else {
			upper = lower + tickSpacing
		}
	}

	return model.Band{TickLower: lower, TickUpper: upper}, nil
}

// IsInRange reports whether tick falls in [lower, upper). The half-open
// convention matches the pool's own tick buckets.
func IsInRange(tick, lower, upper int) bool {
	return tick >= lower && tick < upper
}

// OutOfRangeDistance returns how many ticks separate tick from the range,
// zero when in range.
func OutOfRangeDistance(tick, lower, upper int) int {
	switch {
	case tick < lower:
		return lower - tick
	case tick >= upper:
		return tick - upper + 1
	default:
		return 0
	}
}

// RangePosition returns where tick sits inside the range as a percentage of
// the range width. ok is false when the tick is out of range.
func RangePosition(tick, lower, upper int) (float64, bool) {
	if !IsInRange(tick, lower, upper) {
		return 0, false
	}
	return float64(tick-lower) / float64(upper-lower) * 100, true
}

// FeeTierToTickSpacing maps a fee tier to its tick spacing.
func FeeTierToTickSpacing(feeTier int) (int, error) {
	spacing, ok := feeTierToSpacing[feeTier]
	if !ok {
		return 0, fmt.Errorf("fee tier %d: %w", feeTier, ErrUnknownFeeTier)
	}
	return spacing, nil
}

// TickSpacingToFeeTier maps a tick spacing to its fee tier.
func TickSpacingToFeeTier(tickSpacing int) (int, error) {
	feeTier, ok := spacingToFeeTier[tickSpacing]
	if !ok {
		return 0, fmt.Errorf("tick spacing %d: %w", tickSpacing, ErrUnknownTickSpacing)
	}
	return feeTier, nil
}

// BandWidthParams tunes the band width heuristic. These are configuration,
// not derived values.
type BandWidthParams struct {
	// BaseWidth is the width in ticks before any scaling.
	BaseWidth float64
	// VolatilityScale multiplies the annualized volatility's contribution.
	VolatilityScale float64
	// ReferenceFeeTier anchors the fee tier scaling; 3000 is the 0.3% tier.
	ReferenceFeeTier float64
	// ReferenceAPR anchors the target APR scaling.
	ReferenceAPR float64
	// MinWidth floors the result.
	MinWidth int
}

// DefaultBandWidthParams returns the stock heuristic coefficients.
func DefaultBandWidthParams() BandWidthParams {
	return BandWidthParams{
		BaseWidth:        200,
		VolatilityScale:  2,
		ReferenceFeeTier: 3000,
		ReferenceAPR:     20,
		MinWidth:         10,
	}
}

// OptimalBandWidth estimates a band width in ticks: wider under higher
// volatility, narrower on higher fee tiers (square-root scaled against the
// 0.3% reference) and under more aggressive APR targets.
func OptimalBandWidth(volatility float64, feeTierBps int, targetAPR float64, params BandWidthParams) (int, error) {
	if volatility < 0 {
		return 0, fmt.Errorf("volatility %v must be non-negative: %w", volatility, ErrInvalidArgument)
	}
	if _, err := FeeTierToTickSpacing(feeTierBps); err != nil {
		return 0, err
	}

	width := params.BaseWidth * (1 + params.VolatilityScale*volatility)
	width /= math.Sqrt(float64(feeTierBps) / params.ReferenceFeeTier)
	if targetAPR > 0 && params.ReferenceAPR > 0 {
		width *= params.ReferenceAPR / targetAPR
	}

	result := int(math.Round(width))
	if result < params.MinWidth {
		result = params.MinWidth
	}
	return result, nil
}

func floorToSpacing(tick, spacing int) int {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

func ceilToSpacing(tick, spacing int) int {
	q := tick / spacing
	if tick%spacing != 0 && tick > 0 {
		q++
	}
	return q * spacing
}
