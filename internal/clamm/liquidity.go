package clamm

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/wideint"
)

// CalculateAmountDelta returns the token amounts that back liquidityDelta on
// [lower, upper] and whether the range is active at the current tick.
func CalculateAmountDelta(
	currentTick int32,
	currentSqrtPrice decimal.SqrtPrice,
	liquidityDelta decimal.Liquidity,
	roundUp bool,
	upper, lower int32,
) (x, y decimal.TokenAmount, updateLiquidity bool, err error) {
	if upper < lower {
		return x, y, false, errors.Newf("calculate_amount_delta: upper tick %d below lower tick %d", upper, lower)
	}

	lowerPrice, err := CalculateSqrtPrice(lower)
	if err != nil {
		return x, y, false, errors.Wrap(err, "calculate_amount_delta")
	}
	upperPrice, err := CalculateSqrtPrice(upper)
	if err != nil {
		return x, y, false, errors.Wrap(err, "calculate_amount_delta")
	}

	switch {
	case currentTick >= upper:
		y, err = GetDeltaY(lowerPrice, upperPrice, liquidityDelta, roundUp)
	case currentTick < lower:
		x, err = GetDeltaX(lowerPrice, upperPrice, liquidityDelta, roundUp)
	default:
		if x, err = GetDeltaX(currentSqrtPrice, upperPrice, liquidityDelta, roundUp); err == nil {
			y, err = GetDeltaY(lowerPrice, currentSqrtPrice, liquidityDelta, roundUp)
		}
		updateLiquidity = true
	}
	if err != nil {
		return decimal.TokenAmount{}, decimal.TokenAmount{}, false, errors.Wrap(err, "calculate_amount_delta")
	}
	return x, y, updateLiquidity, nil
}

// CalculateMaxLiquidityPerTick bounds a tick's gross liquidity so the sum over
// every tick of the spacing cannot overflow.
func CalculateMaxLiquidityPerTick(spacing uint16) decimal.Liquidity {
	ticks := uint64((2*MaxTick + 1) / int32(spacing))
	q, _ := decimal.Max[decimal.LiquidityScale]().Wide().Div(wideint.New(wideint.U512, ticks))
	l, err := decimal.FromWide[decimal.LiquidityScale](q)
	if err != nil {
		panic(err)
	}
	return l
}

// CalculateFeeGrowthInside returns the fee growth accrued inside [lower, upper]
// from the global accumulators and the two ticks' outside snapshots.
func CalculateFeeGrowthInside(
	lower int32, lowerOutsideX, lowerOutsideY decimal.FeeGrowth,
	upper int32, upperOutsideX, upperOutsideY decimal.FeeGrowth,
	current int32,
	globalX, globalY decimal.FeeGrowth,
) (decimal.FeeGrowth, decimal.FeeGrowth) {
	x := rangeInside(lower, lowerOutsideX, upper, upperOutsideX, current, globalX)
	y := rangeInside(lower, lowerOutsideY, upper, upperOutsideY, current, globalY)
	return x, y
}

func rangeInside[S decimal.WrappingScale](
	lower int32, lowerOutside decimal.Decimal[S],
	upper int32, upperOutside decimal.Decimal[S],
	current int32,
	global decimal.Decimal[S],
) decimal.Decimal[S] {
	below := lowerOutside
	if current < lower {
		below = decimal.WrappingSub(global, lowerOutside)
	}
	above := upperOutside
	if current >= upper {
		above = decimal.WrappingSub(global, upperOutside)
	}
	return decimal.WrappingSub(decimal.WrappingSub(global, below), above)
}

// CalculateSecondsPerLiquidityGlobal returns elapsed / liquidity for the time
// since last, at scale 28.
func CalculateSecondsPerLiquidityGlobal(liquidity decimal.Liquidity, now, last uint64) (decimal.SecondsPerLiquidity, error) {
	if now < last {
		return decimal.SecondsPerLiquidity{}, errors.Wrapf(wideint.ErrUnderflow, "seconds_per_liquidity: now %d before %d", now, last)
	}
	num, err := wideint.New(wideint.U512, now-last).Mul(secondsPerLiquidityDenominator)
	if err != nil {
		return decimal.SecondsPerLiquidity{}, errors.Wrap(err, "seconds_per_liquidity")
	}
	q, err := num.Div(liquidity.Wide())
	if err != nil {
		return decimal.SecondsPerLiquidity{}, errors.Wrap(err, "seconds_per_liquidity")
	}
	// wraps like every accumulator
	q, _ = q.Rem(accumulatorModulus)
	return decimal.FromWide[decimal.SecondsPerLiquidityScale](q)
}

// CalculateSecondsPerLiquidityInside is the seconds-per-liquidity analogue of
// CalculateFeeGrowthInside.
func CalculateSecondsPerLiquidityInside(
	lower int32, lowerOutside decimal.SecondsPerLiquidity,
	upper int32, upperOutside decimal.SecondsPerLiquidity,
	current int32,
	global decimal.SecondsPerLiquidity,
) decimal.SecondsPerLiquidity {
	return rangeInside(lower, lowerOutside, upper, upperOutside, current, global)
}

var (
	secondsPerLiquidityDenominator = pow10(33)
	accumulatorModulus             = func() wideint.Uint {
		m, _ := wideint.U128.Max().Cast(wideint.U512)
		m, _ = m.Add(wideint.New(wideint.U512, 1))
		return m
	}()
)
