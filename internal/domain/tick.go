package domain

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// Tick is an initialized range boundary. LiquidityChange is the magnitude of
// the net liquidity change when the price crosses the tick upward; Sign is
// false when that change is negative.
type Tick struct {
	Index                      int32                       `json:"index"`
	Sign                       bool                        `json:"sign"`
	LiquidityChange            decimal.Liquidity           `json:"liquidityChange"`
	LiquidityGross             decimal.Liquidity           `json:"liquidityGross"`
	SqrtPrice                  decimal.SqrtPrice           `json:"sqrtPrice"`
	FeeGrowthOutsideX          decimal.FeeGrowth           `json:"feeGrowthOutsideX"`
	FeeGrowthOutsideY          decimal.FeeGrowth           `json:"feeGrowthOutsideY"`
	SecondsPerLiquidityOutside decimal.SecondsPerLiquidity `json:"secondsPerLiquidityOutside"`
	SecondsOutside             uint64                      `json:"secondsOutside"`
}

// NewTick initializes a tick. Growth below the current price is assumed to
// have happened below the tick.
func NewTick(index int32, pool *Pool, now uint64) (Tick, error) {
	sqrtPrice, err := clamm.CalculateSqrtPrice(index)
	if err != nil {
		return Tick{}, errors.Wrap(err, "create tick")
	}
	t := Tick{Index: index, Sign: true, SqrtPrice: sqrtPrice}
	if index <= pool.CurrentTickIndex {
		t.FeeGrowthOutsideX = pool.FeeGrowthGlobalX
		t.FeeGrowthOutsideY = pool.FeeGrowthGlobalY
		t.SecondsPerLiquidityOutside = pool.SecondsPerLiquidityGlobal
		if now < pool.StartTimestamp {
			return Tick{}, errors.Newf("create tick: timestamp %d before pool start %d", now, pool.StartTimestamp)
		}
		t.SecondsOutside = now - pool.StartTimestamp
	}
	return t, nil
}

// Update records a position boundary change on this tick.
func (t *Tick) Update(liquidityDelta, maxLiquidityPerTick decimal.Liquidity, isUpper, isDeposit bool) error {
	gross, err := t.newLiquidityGross(isDeposit, liquidityDelta, maxLiquidityPerTick)
	if err != nil {
		return err
	}
	t.LiquidityGross = gross
	return t.updateLiquidityChange(liquidityDelta, isDeposit != isUpper)
}

func (t *Tick) newLiquidityGross(add bool, delta, max decimal.Liquidity) (decimal.Liquidity, error) {
	if !add {
		if t.LiquidityGross.Lt(delta) {
			return decimal.Liquidity{}, errors.Wrapf(common.ErrInvalidTickLiquidity, "tick %d: gross below delta", t.Index)
		}
		return t.LiquidityGross.Sub(delta), nil
	}
	gross, err := t.LiquidityGross.CheckedAdd(delta)
	if err != nil {
		return decimal.Liquidity{}, errors.Wrapf(err, "tick %d", t.Index)
	}
	if gross.Gte(max) {
		return decimal.Liquidity{}, errors.Wrapf(common.ErrInvalidTickLiquidity, "tick %d: gross over per-tick maximum", t.Index)
	}
	return gross, nil
}

func (t *Tick) updateLiquidityChange(delta decimal.Liquidity, add bool) error {
	if t.Sign == add {
		change, err := t.LiquidityChange.CheckedAdd(delta)
		if err != nil {
			return errors.Wrapf(err, "tick %d: liquidity change", t.Index)
		}
		t.LiquidityChange = change
		return nil
	}
	if t.LiquidityChange.Gt(delta) {
		t.LiquidityChange = t.LiquidityChange.Sub(delta)
		return nil
	}
	t.LiquidityChange = delta.Sub(t.LiquidityChange)
	t.Sign = !t.Sign
	return nil
}

// Cross flips the outside snapshots and applies the net liquidity change to
// the pool. The pool's current tick must still be on the pre-cross side.
// The seconds-per-liquidity accumulator is brought up to now first.
func (t *Tick) Cross(pool *Pool, now uint64) error {
	if now < pool.StartTimestamp {
		return errors.Newf("cross tick %d: timestamp %d before pool start %d", t.Index, now, pool.StartTimestamp)
	}
	if now > pool.LastTimestamp {
		if err := pool.UpdateSecondsPerLiquidityGlobal(now); err != nil {
			return errors.Wrapf(err, "cross tick %d", t.Index)
		}
	}

	t.FeeGrowthOutsideX = decimal.WrappingSub(pool.FeeGrowthGlobalX, t.FeeGrowthOutsideX)
	t.FeeGrowthOutsideY = decimal.WrappingSub(pool.FeeGrowthGlobalY, t.FeeGrowthOutsideY)
	t.SecondsPerLiquidityOutside = decimal.WrappingSub(pool.SecondsPerLiquidityGlobal, t.SecondsPerLiquidityOutside)
	t.SecondsOutside = (now - pool.StartTimestamp) - t.SecondsOutside

	var err error
	if (pool.CurrentTickIndex >= t.Index) != t.Sign {
		pool.Liquidity, err = pool.Liquidity.CheckedAdd(t.LiquidityChange)
	} else {
		pool.Liquidity, err = pool.Liquidity.CheckedSub(t.LiquidityChange)
	}
	if err != nil {
		return errors.Wrapf(err, "cross tick %d", t.Index)
	}
	return nil
}
