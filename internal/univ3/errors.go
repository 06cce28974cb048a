package univ3

import "errors"

var (
	// ErrTickOutOfBounds reports a tick outside [MinTick, MaxTick].
	ErrTickOutOfBounds = errors.New("tick out of bounds")

	// ErrSqrtPriceOutOfBounds reports a sqrt price outside the range the
	// tick math can represent.
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	// ErrInvalidArgument reports a parameter violating a documented
	// precondition.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownFeeTier reports a fee tier with no tick spacing mapping.
	ErrUnknownFeeTier = errors.New("unknown fee tier")

	// ErrUnknownTickSpacing reports a tick spacing with no fee tier mapping.
	ErrUnknownTickSpacing = errors.New("unknown tick spacing")
)
