package univ3

import (
	"fmt"
	"math"
	"math/big"
)

// Tick bounds from the V3 core contracts: price = 1.0001^tick.
const (
	MinTick = -887272
	MaxTick = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = big.NewInt(4295128739)

	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")
)

// tickRatios holds sqrt(1.0001^(2^i)) reciprocals in Q128 for i = 0..18,
// indexed by the bits of |tick|.
var tickRatios = [19]*big.Int{
	mustBig("0xfff97272373d413259a46990580e213a"),
	mustBig("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustBig("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustBig("0xffcb9843d60f6159c9db58835c926644"),
	mustBig("0xff973b41fa98c081472e6896dfb254c0"),
	mustBig("0xff2ea16466c96a3843ec78b326b52861"),
	mustBig("0xfe5dee046a99a2a811c461f1969c3053"),
	mustBig("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustBig("0xf987a7253ac413176f2b074cf7815e54"),
	mustBig("0xf3392b0822b70005940c7a398e4b70f3"),
	mustBig("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustBig("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustBig("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustBig("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustBig("0x31be135f97d08fd981231505542fcfa6"),
	mustBig("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustBig("0x5d6af8dedb81196699c329225ee604"),
	mustBig("0x2216e584f5fa1ea926041bedfe98"),
	mustBig("0x48a170391f7dc42444e8fa2"),
}

var (
	tickRatioBit0 = mustBig("0xfffcb933bd6fad37aa2d162d1a594001")
	tickRatioOne  = mustBig("0x100000000000000000000000000000000")
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic(fmt.Sprintf("univ3: bad constant %q", s))
	}
	return n
}

// TickConverter converts between ticks, float prices, and Q96 sqrt prices.
// Sqrt price results are memoized per converter instance; the cache is not
// safe for concurrent use, so concurrent evaluations need their own
// converter each.
type TickConverter struct {
	cache map[int]*big.Int
}

// NewTickConverter returns a converter with an empty memoization cache.
func NewTickConverter() *TickConverter {
	return &TickConverter{cache: make(map[int]*big.Int)}
}

// TickToPrice returns 1.0001^tick. Float path, display and estimation only.
func (c *TickConverter) TickToPrice(tick int) (float64, error) {
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("tick %d: %w", tick, ErrTickOutOfBounds)
	}
	return math.Pow(1.0001, float64(tick)), nil
}

// PriceToTick returns floor(log(price)/log(1.0001)). The result may be off
// by one tick at bucket boundaries due to float rounding; exact range checks
// must compare integer ticks instead.
func (c *TickConverter) PriceToTick(price float64) (int, error) {
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("price %v must be positive: %w", price, ErrInvalidArgument)
	}
	return int(math.Floor(math.Log(price) / math.Log(1.0001))), nil
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 using the bit
// decomposition over the precomputed Q128 constants. The constants carry the
// negative exponents, so positive ticks take the reciprocal; this keeps the
// result strictly increasing with the tick. Results are memoized.
func (c *TickConverter) SqrtRatioAtTick(tick int) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("tick %d: %w", tick, ErrTickOutOfBounds)
	}

	if cached, ok := c.cache[tick]; ok {
		return new(big.Int).Set(cached), nil
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	var ratio *big.Int
	if absTick&1 != 0 {
		ratio = new(big.Int).Set(tickRatioBit0)
	} else {
		ratio = new(big.Int).Set(tickRatioOne)
	}
	for i, constant := range tickRatios {
		if absTick&(1<<(i+1)) != 0 {
			ratio = mulShift(ratio, constant)
		}
	}

	if tick > 0 {
		ratio = new(big.Int).Div(maxUint256, ratio)
	}

	// Q128 -> Q96, rounding up so boundary values match the on-chain math.
	result := new(big.Int).Rsh(ratio, 32)
	if new(big.Int).Mod(ratio, Q32).Sign() != 0 {
		result.Add(result, big.NewInt(1))
	}

	c.cache[tick] = result
	return new(big.Int).Set(result), nil
}

// TickAtSqrtRatio inverts SqrtRatioAtTick by binary search, returning the
// largest tick whose sqrt price does not exceed the input. Exact for values
// produced by SqrtRatioAtTick, within one tick for arbitrary inputs.
func (c *TickConverter) TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) > 0 {
		return 0, fmt.Errorf("sqrt price %v: %w", sqrtPriceX96, ErrSqrtPriceOutOfBounds)
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ratio, err := c.SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}
