package invariant

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/metrics"
)

func checkSwapLimit(pool domain.Pool, xToY bool, limit decimal.SqrtPrice) error {
	if xToY {
		if pool.SqrtPrice.Lte(limit) || limit.Lt(clamm.MinSqrtPrice) {
			return errors.Wrapf(common.ErrWrongLimit, "x to y at %s with limit %s", pool.SqrtPrice.RawString(), limit.RawString())
		}
		return nil
	}
	if pool.SqrtPrice.Gte(limit) || limit.Gt(clamm.MaxSqrtPrice) {
		return errors.Wrapf(common.ErrWrongLimit, "y to x at %s with limit %s", pool.SqrtPrice.RawString(), limit.RawString())
	}
	return nil
}

// calculateSwap walks the pool toward limit until amount is spent (exact
// in) or delivered (exact out). Crossed ticks are written to the call's
// transaction; the pool is returned in the result and not stored.
func (c *call) calculateSwap(
	key domain.PoolKey,
	xToY bool,
	amount decimal.TokenAmount,
	byAmountIn bool,
	limit decimal.SqrtPrice,
) (domain.SwapResult, error) {
	if amount.IsZero() {
		return domain.SwapResult{}, errors.WithStack(common.ErrAmountIsZero)
	}
	pool, err := c.txn.Pool(key)
	if err != nil {
		return domain.SwapResult{}, err
	}
	if err := checkSwapLimit(pool, xToY, limit); err != nil {
		return domain.SwapResult{}, err
	}

	now := c.env.Timestamp
	protocolFee := c.txn.Config().ProtocolFee
	spacing := key.FeeTier.TickSpacing
	if err := pool.UpdateSecondsPerLiquidityGlobal(now); err != nil {
		return domain.SwapResult{}, err
	}

	// the price can not leave the ticks usable with this spacing
	edgeTick := clamm.GetMaxTick(spacing)
	if xToY {
		edgeTick = clamm.GetMinTick(spacing)
	}
	edge, err := clamm.CalculateSqrtPrice(edgeTick)
	if err != nil {
		return domain.SwapResult{}, errors.Wrap(err, "swap")
	}

	res := domain.SwapResult{StartSqrtPrice: pool.SqrtPrice}
	remaining := amount
	for !remaining.IsZero() {
		target, bound, err := c.txn.CloserLimit(key, limit, xToY, pool.CurrentTickIndex, spacing)
		if err != nil {
			return domain.SwapResult{}, err
		}
		step, err := clamm.ComputeSwapStep(pool.SqrtPrice, target, pool.Liquidity, remaining, byAmountIn, key.FeeTier.Fee)
		if err != nil {
			return domain.SwapResult{}, err
		}
		res.Steps++

		consumed, err := step.AmountIn.CheckedAdd(step.FeeAmount)
		if err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}
		if byAmountIn {
			remaining, err = remaining.CheckedSub(consumed)
		} else {
			remaining, err = remaining.CheckedSub(step.AmountOut)
		}
		if err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap: remaining amount")
		}

		untracked, err := pool.AddFee(step.FeeAmount, xToY, protocolFee)
		if err != nil {
			return domain.SwapResult{}, err
		}
		if res.UntrackedFee, err = res.UntrackedFee.CheckedAdd(untracked); err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}
		if res.Fee, err = res.Fee.CheckedAdd(step.FeeAmount); err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}
		pool.SqrtPrice = step.NextSqrtPrice

		if res.AmountIn, err = res.AmountIn.CheckedAdd(consumed); err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}
		if res.AmountOut, err = res.AmountOut.CheckedAdd(step.AmountOut); err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}

		if pool.SqrtPrice.Eq(limit) && !remaining.IsZero() {
			return domain.SwapResult{}, errors.Wrapf(common.ErrPriceLimitReached, "limit %s with %s left", limit.RawString(), remaining)
		}

		amountToAdd, left, crossed, err := pool.UpdateTick(step, target, bound, remaining, byAmountIn, xToY, now, protocolFee, key.FeeTier)
		if err != nil {
			return domain.SwapResult{}, err
		}
		remaining = left
		if res.AmountIn, err = res.AmountIn.CheckedAdd(amountToAdd); err != nil {
			return domain.SwapResult{}, errors.Wrap(err, "swap")
		}
		if crossed {
			if err := c.txn.UpdateTick(key, *bound.Tick); err != nil {
				return domain.SwapResult{}, err
			}
			res.Ticks = append(res.Ticks, *bound.Tick)
		}

		if !remaining.IsZero() &&
			((xToY && pool.SqrtPrice.Lte(edge)) || (!xToY && pool.SqrtPrice.Gte(edge))) {
			return domain.SwapResult{}, errors.Wrapf(common.ErrTickLimitReached, "tick %d with %s left", pool.CurrentTickIndex, remaining)
		}
	}

	if res.AmountOut.IsZero() {
		return domain.SwapResult{}, errors.WithStack(common.ErrNoGainSwap)
	}
	res.TargetSqrtPrice = pool.SqrtPrice
	res.Pool = pool
	return res, nil
}

// swap runs calculateSwap, stores the pool and queues the caller's
// transfers and events.
func (c *call) swap(
	key domain.PoolKey,
	xToY bool,
	amount decimal.TokenAmount,
	byAmountIn bool,
	limit decimal.SqrtPrice,
) (domain.SwapResult, error) {
	res, err := c.calculateSwap(key, xToY, amount, byAmountIn, limit)
	if err != nil {
		return domain.SwapResult{}, err
	}
	if err := c.txn.UpdatePool(key, res.Pool); err != nil {
		return domain.SwapResult{}, err
	}

	tokenIn, tokenOut := key.TokenX, key.TokenY
	if !xToY {
		tokenIn, tokenOut = tokenOut, tokenIn
	}
	c.pull(tokenIn, res.AmountIn)
	c.push(tokenOut, c.env.Caller, res.AmountOut)

	if len(res.Ticks) > 0 {
		c.emit(domain.CrossTickEvent{
			Timestamp: c.env.Timestamp,
			Address:   c.env.Caller,
			Pool:      key,
			Indexes:   res.CrossedIndexes(),
		})
	}
	c.emit(domain.SwapEvent{
		Timestamp:       c.env.Timestamp,
		Address:         c.env.Caller,
		Pool:            key,
		AmountIn:        res.AmountIn,
		AmountOut:       res.AmountOut,
		Fee:             res.Fee,
		StartSqrtPrice:  res.StartSqrtPrice,
		TargetSqrtPrice: res.TargetSqrtPrice,
		XToY:            xToY,
	})
	return res, nil
}

func observeSwap(res domain.SwapResult, xToY bool) {
	direction := "y_to_x"
	if xToY {
		direction = "x_to_y"
	}
	metrics.Swaps.WithLabelValues(direction).Inc()
	metrics.TicksCrossed.Observe(float64(len(res.Ticks)))
	metrics.SwapSteps.Observe(float64(res.Steps))
}

// Swap trades against one pool. With byAmountIn, amount is what the caller
// pays; otherwise it is what the caller receives.
func (s *Invariant) Swap(
	env domain.Env,
	key domain.PoolKey,
	xToY bool,
	amount decimal.TokenAmount,
	byAmountIn bool,
	sqrtPriceLimit decimal.SqrtPrice,
) (domain.SwapResult, error) {
	var res domain.SwapResult
	err := s.execute("swap", env, func(c *call) (err error) {
		res, err = c.swap(key, xToY, amount, byAmountIn, sqrtPriceLimit)
		return err
	})
	if err != nil {
		return domain.SwapResult{}, err
	}
	observeSwap(res, xToY)
	if !res.UntrackedFee.IsZero() {
		s.logger.Warn().Str("pool", key.IDString()).Str("fee", res.UntrackedFee.String()).
			Msg("[invariant] fee taken without active liquidity")
	}
	return res, nil
}

// Quote is Swap without the effects.
func (s *Invariant) Quote(
	env domain.Env,
	key domain.PoolKey,
	xToY bool,
	amount decimal.TokenAmount,
	byAmountIn bool,
	sqrtPriceLimit decimal.SqrtPrice,
) (domain.QuoteResult, error) {
	var q domain.QuoteResult
	err := s.simulate("quote", env, func(c *call) error {
		res, err := c.calculateSwap(key, xToY, amount, byAmountIn, sqrtPriceLimit)
		if err != nil {
			return err
		}
		q = domain.QuoteResult{
			AmountIn:        res.AmountIn,
			AmountOut:       res.AmountOut,
			TargetSqrtPrice: res.TargetSqrtPrice,
			Ticks:           res.Ticks,
		}
		return nil
	})
	if err != nil {
		return domain.QuoteResult{}, err
	}
	return q, nil
}

// route swaps amountIn through hops, each exact in at the widest limit, and
// returns the final output. Every hop settles with the caller, so the caller
// pays intermediate tokens it has just received.
func (c *call) route(amountIn decimal.TokenAmount, hops []domain.SwapHop) (decimal.TokenAmount, error) {
	next := amountIn
	for i, hop := range hops {
		limit := clamm.MaxSqrtPrice
		if hop.XToY {
			limit = clamm.MinSqrtPrice
		}
		res, err := c.swap(hop.PoolKey, hop.XToY, next, true, limit)
		if err != nil {
			return decimal.TokenAmount{}, errors.Wrapf(err, "hop %d", i)
		}
		next = res.AmountOut
	}
	return next, nil
}

// SwapRoute trades amountIn along hops and fails unless the final output is
// at least expectedAmountOut reduced by slippage.
func (s *Invariant) SwapRoute(
	env domain.Env,
	amountIn, expectedAmountOut decimal.TokenAmount,
	slippage decimal.Percentage,
	hops []domain.SwapHop,
) (decimal.TokenAmount, error) {
	var out decimal.TokenAmount
	err := s.execute("swap_route", env, func(c *call) (err error) {
		if out, err = c.route(amountIn, hops); err != nil {
			return err
		}
		minOut, err := domain.MinAmountOut(expectedAmountOut, slippage)
		if err != nil {
			return err
		}
		if out.Lt(minOut) {
			return errors.Wrapf(common.ErrAmountUnderMinimumAmountOut, "got %s, need %s", out, minOut)
		}
		return nil
	})
	if err != nil {
		return decimal.TokenAmount{}, err
	}
	metrics.RouteHops.Observe(float64(len(hops)))
	return out, nil
}

// QuoteRoute is SwapRoute without the effects or the slippage check.
func (s *Invariant) QuoteRoute(env domain.Env, amountIn decimal.TokenAmount, hops []domain.SwapHop) (decimal.TokenAmount, error) {
	var out decimal.TokenAmount
	err := s.simulate("quote_route", env, func(c *call) (err error) {
		out, err = c.route(amountIn, hops)
		return err
	})
	if err != nil {
		return decimal.TokenAmount{}, err
	}
	return out, nil
}
