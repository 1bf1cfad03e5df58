package domain

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

type Pool struct {
	Liquidity                 decimal.Liquidity           `json:"liquidity"`
	SqrtPrice                 decimal.SqrtPrice           `json:"sqrtPrice"`
	CurrentTickIndex          int32                       `json:"currentTickIndex"`
	FeeGrowthGlobalX          decimal.FeeGrowth           `json:"feeGrowthGlobalX"`
	FeeGrowthGlobalY          decimal.FeeGrowth           `json:"feeGrowthGlobalY"`
	FeeProtocolTokenX         decimal.TokenAmount         `json:"feeProtocolTokenX"`
	FeeProtocolTokenY         decimal.TokenAmount         `json:"feeProtocolTokenY"`
	SecondsPerLiquidityGlobal decimal.SecondsPerLiquidity `json:"secondsPerLiquidityGlobal"`
	StartTimestamp            uint64                      `json:"startTimestamp"`
	LastTimestamp             uint64                      `json:"lastTimestamp"`
	FeeReceiver               Address                     `json:"feeReceiver"`
	OracleInitialized         bool                        `json:"oracleInitialized"`
}

// NewPool opens a pool at initTick with every accumulator at zero.
func NewPool(initTick int32, timestamp uint64, feeReceiver Address) (Pool, error) {
	sqrtPrice, err := clamm.CalculateSqrtPrice(initTick)
	if err != nil {
		return Pool{}, errors.Wrap(err, "create pool")
	}
	return Pool{
		SqrtPrice:        sqrtPrice,
		CurrentTickIndex: initTick,
		StartTimestamp:   timestamp,
		LastTimestamp:    timestamp,
		FeeReceiver:      feeReceiver,
	}, nil
}

// AddFee splits a swap fee between the protocol and liquidity providers.
// The returned amount is the fee that could not be credited to anyone
// because the pool had no active liquidity.
func (p *Pool) AddFee(amount decimal.TokenAmount, inX bool, protocolFee decimal.Percentage) (decimal.TokenAmount, error) {
	protocolAmount, err := decimal.MulUp(amount, protocolFee)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "add_fee")
	}
	poolAmount, err := amount.CheckedSub(protocolAmount)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "add_fee")
	}
	if poolAmount.IsZero() && protocolAmount.IsZero() {
		return decimal.TokenAmount{}, nil
	}
	if p.Liquidity.IsZero() {
		return amount, nil
	}

	growth, err := decimal.FeeGrowthFromFee(p.Liquidity, poolAmount)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "add_fee")
	}
	if inX {
		p.FeeGrowthGlobalX = decimal.WrappingAdd(p.FeeGrowthGlobalX, growth)
		p.FeeProtocolTokenX, err = p.FeeProtocolTokenX.CheckedAdd(protocolAmount)
	} else {
		p.FeeGrowthGlobalY = decimal.WrappingAdd(p.FeeGrowthGlobalY, growth)
		p.FeeProtocolTokenY, err = p.FeeProtocolTokenY.CheckedAdd(protocolAmount)
	}
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "add_fee: protocol fee")
	}
	return decimal.TokenAmount{}, nil
}

// UpdateLiquidity returns the token amounts backing liquidityDelta on
// [lower, upper] and applies the delta to the active liquidity when the
// current tick is inside the range.
func (p *Pool) UpdateLiquidity(liquidityDelta decimal.Liquidity, add bool, upper, lower int32) (x, y decimal.TokenAmount, err error) {
	x, y, inside, err := clamm.CalculateAmountDelta(p.CurrentTickIndex, p.SqrtPrice, liquidityDelta, add, upper, lower)
	if err != nil {
		return x, y, errors.Wrap(err, "update_liquidity")
	}
	if !inside {
		return x, y, nil
	}
	if add {
		p.Liquidity, err = p.Liquidity.CheckedAdd(liquidityDelta)
	} else {
		p.Liquidity, err = p.Liquidity.CheckedSub(liquidityDelta)
	}
	if err != nil {
		return decimal.TokenAmount{}, decimal.TokenAmount{}, errors.Wrap(err, "update_liquidity")
	}
	return x, y, nil
}

// UpdateSecondsPerLiquidityGlobal advances the time accumulator to now.
func (p *Pool) UpdateSecondsPerLiquidityGlobal(now uint64) error {
	if !p.Liquidity.IsZero() {
		delta, err := clamm.CalculateSecondsPerLiquidityGlobal(p.Liquidity, now, p.LastTimestamp)
		if err != nil {
			return errors.Wrap(err, "update_seconds_per_liquidity_global")
		}
		p.SecondsPerLiquidityGlobal = decimal.WrappingAdd(p.SecondsPerLiquidityGlobal, delta)
	}
	p.LastTimestamp = now
	return nil
}

// WithdrawProtocolFee zeroes and returns the protocol's share. Callers check
// the fee receiver.
func (p *Pool) WithdrawProtocolFee() (x, y decimal.TokenAmount) {
	x, y = p.FeeProtocolTokenX, p.FeeProtocolTokenY
	p.FeeProtocolTokenX = decimal.TokenAmount{}
	p.FeeProtocolTokenY = decimal.TokenAmount{}
	return x, y
}

// TickBound is the tick a swap step aims for. Tick is nil when the index is
// only the edge of the tickmap search window.
type TickBound struct {
	Index int32
	Tick  *Tick
}

// UpdateTick settles the pool after a swap step. When the step landed on its
// bound, an initialized tick is crossed if the remaining amount can still move
// the price; otherwise that remainder is absorbed as fee (exact in) or dropped
// (exact out). It returns the amount to add to the swap's input, the new
// remaining amount and whether the tick was crossed.
func (p *Pool) UpdateTick(
	result clamm.SwapResult,
	swapLimit decimal.SqrtPrice,
	bound *TickBound,
	remaining decimal.TokenAmount,
	byAmountIn, xToY bool,
	now uint64,
	protocolFee decimal.Percentage,
	feeTier FeeTier,
) (amountToAdd, left decimal.TokenAmount, crossed bool, err error) {
	if bound == nil || bound.Tick == nil || !swapLimit.Eq(result.NextSqrtPrice) {
		p.CurrentTickIndex, err = clamm.GetTickAtSqrtPrice(result.NextSqrtPrice, feeTier.TickSpacing)
		if err != nil {
			return amountToAdd, remaining, false, errors.Wrap(err, "update_tick")
		}
		return amountToAdd, remaining, false, nil
	}

	enough, err := clamm.IsEnoughAmountToChangePrice(remaining, result.NextSqrtPrice, p.Liquidity, feeTier.Fee, byAmountIn, xToY)
	if err != nil {
		return amountToAdd, remaining, false, errors.Wrap(err, "update_tick")
	}

	switch {
	case !xToY || enough:
		if err := bound.Tick.Cross(p, now); err != nil {
			return amountToAdd, remaining, false, errors.Wrap(err, "update_tick")
		}
		crossed = true
	case !remaining.IsZero():
		if byAmountIn {
			if _, err := p.AddFee(remaining, xToY, protocolFee); err != nil {
				return amountToAdd, remaining, false, errors.Wrap(err, "update_tick")
			}
			amountToAdd = remaining
		}
		remaining = decimal.TokenAmount{}
	}

	p.CurrentTickIndex = bound.Index
	if xToY && enough {
		p.CurrentTickIndex -= int32(feeTier.TickSpacing)
	}
	return amountToAdd, remaining, crossed, nil
}
