package univ3

import (
	"errors"
	"testing"

	"positionScope/internal/model"
)

func TestCalculateBand(t *testing.T) {
	tests := []struct {
		name        string
		currentTick int
		basisPoints int
		tickSpacing int
		want        model.Band
	}{
		{"centered spacing one", 0, 100, 1, model.Band{TickLower: -50, TickUpper: 50}},
		{"aligned outward", 5, 100, 10, model.Band{TickLower: -50, TickUpper: 60}},
		{"wide tier", 100, 1200, 60, model.Band{TickLower: -540, TickUpper: 720}},
		{"negative center", -305, 100, 10, model.Band{TickLower: -360, TickUpper: -250}},
	}

	for _, test := range tests {
		got, err := CalculateBand(test.currentTick, test.basisPoints, test.tickSpacing)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", test.name, err)
		}
		if got != test.want {
			t.Fatalf("%s: band %+v, want %+v", test.name, got, test.want)
		}
	}
}

func TestCalculateBandAlignment(t *testing.T) {
	for _, spacing := range []int{1, 10, 60, 200} {
		for _, center := range []int{-100003, -77, 0, 13, 4021, 200001} {
			band, err := CalculateBand(center, 500, spacing)
			if err != nil {
				t.Fatalf("center %d spacing %d: unexpected error: %v", center, spacing, err)
			}
			if band.TickLower%spacing != 0 || band.TickUpper%spacing != 0 {
				t.Fatalf("center %d spacing %d: band %+v not aligned", center, spacing, band)
			}
			if band.TickLower >= band.TickUpper {
				t.Fatalf("center %d spacing %d: band %+v empty", center, spacing, band)
			}
		}
	}
}

func TestCalculateBandInvalid(t *testing.T) {
	if _, err := CalculateBand(0, 0, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero width: got %v, want ErrInvalidArgument", err)
	}
	if _, err := CalculateBand(0, -100, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative width: got %v, want ErrInvalidArgument", err)
	}
	if _, err := CalculateBand(0, 100, 7); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad spacing: got %v, want ErrInvalidArgument", err)
	}
}

func TestCalculateBandClampedAtTickLimits(t *testing.T) {
	tests := []struct {
		name        string
		currentTick int
		basisPoints int
		tickSpacing int
	}{
		{"max tick", MaxTick, 200, 60},
		{"near max tick", MaxTick - 30, 1200, 60},
		{"min tick", MinTick, 100, 10},
		{"min tick spacing one", MinTick, 100, 1},
		{"max tick narrow", MaxTick, 2, 200},
	}

	for _, test := range tests {
		band, err := CalculateBand(test.currentTick, test.basisPoints, test.tickSpacing)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", test.name, err)
		}
		if band.TickLower < MinTick || band.TickUpper > MaxTick {
			t.Fatalf("%s: band %+v escapes [%d, %d]", test.name, band, MinTick, MaxTick)
		}
		if band.TickLower%test.tickSpacing != 0 || band.TickUpper%test.tickSpacing != 0 {
			t.Fatalf("%s: band %+v not aligned to %d", test.name, band, test.tickSpacing)
		}
		if band.TickLower >= band.TickUpper {
			t.Fatalf("%s: band %+v empty", test.name, band)
		}

		tc := NewTickConverter()
		if _, err := tc.SqrtRatioAtTick(band.TickLower); err != nil {
			t.Fatalf("%s: lower bound %d unusable: %v", test.name, band.TickLower, err)
		}
		if _, err := tc.SqrtRatioAtTick(band.TickUpper); err != nil {
			t.Fatalf("%s: upper bound %d unusable: %v", test.name, band.TickUpper, err)
		}
	}
}

func TestCalculateBandRejectsOutOfBoundsCenter(t *testing.T) {
	if _, err := CalculateBand(MaxTick+1, 100, 60); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("above max: got %v, want ErrTickOutOfBounds", err)
	}
	if _, err := CalculateBand(MinTick-1, 100, 60); !errors.Is(err, ErrTickOutOfBounds) {
		t.Fatalf("below min: got %v, want ErrTickOutOfBounds", err)
	}
}

func TestIsInRangeBoundaries(t *testing.T) {
	tests := []struct {
		tick, lower, upper int
		want               bool
	}{
		{-50, -50, 50, true},
		{0, -50, 50, true},
		{49, -50, 50, true},
		{50, -50, 50, false},
		{-51, -50, 50, false},
	}
	for _, test := range tests {
		if got := IsInRange(test.tick, test.lower, test.upper); got != test.want {
			t.Fatalf("IsInRange(%d, %d, %d) = %v, want %v", test.tick, test.lower, test.upper, got, test.want)
		}
	}
}

func TestOutOfRangeDistance(t *testing.T) {
	tests := []struct {
		tick, lower, upper, want int
	}{
		{0, -50, 50, 0},
		{-60, -50, 50, 10},
		{60, -50, 50, 11},
		{50, -50, 50, 1},
	}
	for _, test := range tests {
		if got := OutOfRangeDistance(test.tick, test.lower, test.upper); got != test.want {
			t.Fatalf("OutOfRangeDistance(%d, %d, %d) = %d, want %d", test.tick, test.lower, test.upper, got, test.want)
		}
	}
}

func TestRangePosition(t *testing.T) {
	pos, ok := RangePosition(0, -50, 50)
	if !ok || pos != 50 {
		t.Fatalf("RangePosition(0, -50, 50) = %v, %v", pos, ok)
	}
	pos, ok = RangePosition(-50, -50, 50)
	if !ok || pos != 0 {
		t.Fatalf("RangePosition(-50, -50, 50) = %v, %v", pos, ok)
	}
	if _, ok := RangePosition(50, -50, 50); ok {
		t.Fatalf("upper bound should be out of range")
	}
}

func TestFeeTierSpacingBijection(t *testing.T) {
	pairs := map[int]int{100: 1, 500: 10, 3000: 60, 10000: 200}
	for feeTier, spacing := range pairs {
		gotSpacing, err := FeeTierToTickSpacing(feeTier)
		if err != nil {
			t.Fatalf("fee tier %d: unexpected error: %v", feeTier, err)
		}
		if gotSpacing != spacing {
			t.Fatalf("fee tier %d: spacing %d, want %d", feeTier, gotSpacing, spacing)
		}
		gotFee, err := TickSpacingToFeeTier(spacing)
		if err != nil {
			t.Fatalf("spacing %d: unexpected error: %v", spacing, err)
		}
		if gotFee != feeTier {
			t.Fatalf("spacing %d: fee tier %d, want %d", spacing, gotFee, feeTier)
		}
	}

	if _, err := FeeTierToTickSpacing(1234); !errors.Is(err, ErrUnknownFeeTier) {
		t.Fatalf("got %v, want ErrUnknownFeeTier", err)
	}
	if _, err := TickSpacingToFeeTier(7); !errors.Is(err, ErrUnknownTickSpacing) {
		t.Fatalf("got %v, want ErrUnknownTickSpacing", err)
	}
}

func TestOptimalBandWidth(t *testing.T) {
	params := DefaultBandWidthParams()

	calm, err := OptimalBandWidth(0.2, 3000, 0, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wild, err := OptimalBandWidth(1.5, 3000, 0, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wild <= calm {
		t.Fatalf("higher volatility should widen the band: %d <= %d", wild, calm)
	}

	lowTier, err := OptimalBandWidth(0.5, 500, 0, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	highTier, err := OptimalBandWidth(0.5, 10000, 0, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if highTier >= lowTier {
		t.Fatalf("higher fee tier should narrow the band: %d >= %d", highTier, lowTier)
	}

	if _, err := OptimalBandWidth(0.5, 1234, 0, params); !errors.Is(err, ErrUnknownFeeTier) {
		t.Fatalf("got %v, want ErrUnknownFeeTier", err)
	}
	if _, err := OptimalBandWidth(-0.1, 3000, 0, params); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
}
