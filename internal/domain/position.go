package domain

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

type Position struct {
	PoolKey          PoolKey             `json:"poolKey"`
	Liquidity        decimal.Liquidity   `json:"liquidity"`
	LowerTickIndex   int32               `json:"lowerTickIndex"`
	UpperTickIndex   int32               `json:"upperTickIndex"`
	FeeGrowthInsideX decimal.FeeGrowth   `json:"feeGrowthInsideX"`
	FeeGrowthInsideY decimal.FeeGrowth   `json:"feeGrowthInsideY"`
	LastBlockNumber  uint64              `json:"lastBlockNumber"`
	TokensOwedX      decimal.TokenAmount `json:"tokensOwedX"`
	TokensOwedY      decimal.TokenAmount `json:"tokensOwedY"`
}

// CreatePosition opens a position on [lower, upper] and returns the token
// amounts the owner must deposit. The pool price must lie within
// [slippageLower, slippageUpper].
func CreatePosition(
	pool *Pool,
	key PoolKey,
	lower, upper *Tick,
	now uint64,
	liquidityDelta decimal.Liquidity,
	slippageLower, slippageUpper decimal.SqrtPrice,
	blockNumber uint64,
) (Position, decimal.TokenAmount, decimal.TokenAmount, error) {
	if pool.SqrtPrice.Lt(slippageLower) || pool.SqrtPrice.Gt(slippageUpper) {
		return Position{}, decimal.TokenAmount{}, decimal.TokenAmount{}, errors.Wrapf(common.ErrPriceLimitReached,
			"price %s outside [%s, %s]", pool.SqrtPrice.RawString(), slippageLower.RawString(), slippageUpper.RawString())
	}

	p := Position{
		PoolKey:         key,
		LowerTickIndex:  lower.Index,
		UpperTickIndex:  upper.Index,
		LastBlockNumber: blockNumber,
	}
	x, y, err := p.Modify(pool, upper, lower, liquidityDelta, true, now, key.FeeTier.TickSpacing)
	if err != nil {
		return Position{}, decimal.TokenAmount{}, decimal.TokenAmount{}, err
	}
	return p, x, y, nil
}

// Modify adds or removes liquidity, updating both boundary ticks and the
// pool, and returns the token amounts moved.
func (p *Position) Modify(
	pool *Pool,
	upper, lower *Tick,
	liquidityDelta decimal.Liquidity,
	add bool,
	now uint64,
	tickSpacing uint16,
) (x, y decimal.TokenAmount, err error) {
	if err := pool.UpdateSecondsPerLiquidityGlobal(now); err != nil {
		return x, y, err
	}

	maxPerTick := clamm.CalculateMaxLiquidityPerTick(tickSpacing)
	if err := lower.Update(liquidityDelta, maxPerTick, false, add); err != nil {
		return x, y, err
	}
	if err := upper.Update(liquidityDelta, maxPerTick, true, add); err != nil {
		return x, y, err
	}

	insideX, insideY := clamm.CalculateFeeGrowthInside(
		lower.Index, lower.FeeGrowthOutsideX, lower.FeeGrowthOutsideY,
		upper.Index, upper.FeeGrowthOutsideX, upper.FeeGrowthOutsideY,
		pool.CurrentTickIndex,
		pool.FeeGrowthGlobalX, pool.FeeGrowthGlobalY,
	)
	if err := p.Update(add, liquidityDelta, insideX, insideY); err != nil {
		return x, y, err
	}

	return pool.UpdateLiquidity(liquidityDelta, add, upper.Index, lower.Index)
}

// Update accrues fees earned since the last snapshot and applies the
// liquidity change.
func (p *Position) Update(add bool, liquidityDelta decimal.Liquidity, insideX, insideY decimal.FeeGrowth) error {
	if liquidityDelta.IsZero() && p.Liquidity.IsZero() {
		return errors.WithStack(common.ErrEmptyPositionPokes)
	}

	owedX, err := decimal.FeeGrowthToFee(decimal.WrappingSub(insideX, p.FeeGrowthInsideX), p.Liquidity)
	if err != nil {
		return errors.Wrap(err, "position update")
	}
	owedY, err := decimal.FeeGrowthToFee(decimal.WrappingSub(insideY, p.FeeGrowthInsideY), p.Liquidity)
	if err != nil {
		return errors.Wrap(err, "position update")
	}

	if add {
		if p.Liquidity, err = p.Liquidity.CheckedAdd(liquidityDelta); err != nil {
			return errors.Wrap(err, "position update")
		}
	} else {
		if p.Liquidity.Lt(liquidityDelta) {
			return errors.Wrapf(common.ErrInsufficientLiquidity, "position holds %s, removing %s", p.Liquidity, liquidityDelta)
		}
		p.Liquidity = p.Liquidity.Sub(liquidityDelta)
	}
	p.FeeGrowthInsideX = insideX
	p.FeeGrowthInsideY = insideY

	if p.TokensOwedX, err = p.TokensOwedX.CheckedAdd(owedX); err != nil {
		return errors.Wrap(err, "position update: tokens owed x")
	}
	if p.TokensOwedY, err = p.TokensOwedY.CheckedAdd(owedY); err != nil {
		return errors.Wrap(err, "position update: tokens owed y")
	}
	return nil
}

// ClaimFee pokes the position and hands out everything owed.
func (p *Position) ClaimFee(pool *Pool, upper, lower *Tick, now uint64) (x, y decimal.TokenAmount, err error) {
	if _, _, err := p.Modify(pool, upper, lower, decimal.Liquidity{}, true, now, p.PoolKey.FeeTier.TickSpacing); err != nil {
		return x, y, err
	}
	x, y = p.TokensOwedX, p.TokensOwedY
	p.TokensOwedX = decimal.TokenAmount{}
	p.TokensOwedY = decimal.TokenAmount{}
	return x, y, nil
}

// Remove withdraws all liquidity plus owed fees. The flags report which
// boundary ticks no longer back any liquidity.
func (p *Position) Remove(pool *Pool, now uint64, lower, upper *Tick) (x, y decimal.TokenAmount, freeLower, freeUpper bool, err error) {
	x, y, err = p.Modify(pool, upper, lower, p.Liquidity, false, now, p.PoolKey.FeeTier.TickSpacing)
	if err != nil {
		return x, y, false, false, err
	}
	if x, err = x.CheckedAdd(p.TokensOwedX); err != nil {
		return x, y, false, false, errors.Wrap(err, "remove position")
	}
	if y, err = y.CheckedAdd(p.TokensOwedY); err != nil {
		return x, y, false, false, errors.Wrap(err, "remove position")
	}
	p.TokensOwedX = decimal.TokenAmount{}
	p.TokensOwedY = decimal.TokenAmount{}
	return x, y, lower.LiquidityGross.IsZero(), upper.LiquidityGross.IsZero(), nil
}
