package clamm

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/wideint"
)

// SwapResult is one bounded step of a swap.
type SwapResult struct {
	NextSqrtPrice decimal.SqrtPrice
	AmountIn      decimal.TokenAmount
	AmountOut     decimal.TokenAmount
	FeeAmount     decimal.TokenAmount
}

// reachable turns an overflowing delta into "more than any amount".
func reachable(amount decimal.TokenAmount, err error) (decimal.TokenAmount, error) {
	if errors.Is(err, wideint.ErrOverflow) {
		return decimal.Max[decimal.TokenAmountScale](), nil
	}
	return amount, err
}

// ComputeSwapStep moves the price from current toward target, limited by
// amount. Fees and amount in round up, amount out rounds down.
func ComputeSwapStep(
	current, target decimal.SqrtPrice,
	liquidity decimal.Liquidity,
	amount decimal.TokenAmount,
	byAmountIn bool,
	fee decimal.Percentage,
) (SwapResult, error) {
	if liquidity.IsZero() {
		return SwapResult{NextSqrtPrice: target}, nil
	}

	xToY := current.Gte(target)
	var (
		next                decimal.SqrtPrice
		amountIn, amountOut decimal.TokenAmount
		afterFee            decimal.TokenAmount
		err                 error
	)

	if byAmountIn {
		if afterFee, err = decimal.Mul(amount, decimal.One[decimal.PercentageScale]().Sub(fee)); err != nil {
			return SwapResult{}, errors.Wrap(err, "compute_swap_step")
		}
		if xToY {
			amountIn, err = reachable(GetDeltaX(target, current, liquidity, true))
		} else {
			amountIn, err = reachable(GetDeltaY(current, target, liquidity, true))
		}
		if err != nil {
			return SwapResult{}, errors.Wrap(err, "compute_swap_step")
		}
		if afterFee.Gte(amountIn) {
			next = target
		} else if next, err = GetNextSqrtPriceFromInput(current, liquidity, afterFee, xToY); err != nil {
			return SwapResult{}, errors.Wrap(err, "compute_swap_step")
		}
	} else {
		if xToY {
			amountOut, err = reachable(GetDeltaY(target, current, liquidity, false))
		} else {
			amountOut, err = reachable(GetDeltaX(current, target, liquidity, false))
		}
		if err != nil {
			return SwapResult{}, errors.Wrap(err, "compute_swap_step")
		}
		if amount.Gte(amountOut) {
			next = target
		} else if next, err = GetNextSqrtPriceFromOutput(current, liquidity, amount, xToY); err != nil {
			return SwapResult{}, errors.Wrap(err, "compute_swap_step")
		}
	}

	notMax := !target.Eq(next)

	if xToY {
		if notMax || !byAmountIn {
			if amountIn, err = GetDeltaX(next, current, liquidity, true); err != nil {
				return SwapResult{}, errors.Wrap(err, "compute_swap_step")
			}
		}
		if notMax || byAmountIn {
			if amountOut, err = GetDeltaY(next, current, liquidity, false); err != nil {
				return SwapResult{}, errors.Wrap(err, "compute_swap_step")
			}
		}
	} else {
		if notMax || !byAmountIn {
			if amountIn, err = GetDeltaY(current, next, liquidity, true); err != nil {
				return SwapResult{}, errors.Wrap(err, "compute_swap_step")
			}
		}
		if notMax || byAmountIn {
			if amountOut, err = GetDeltaX(current, next, liquidity, false); err != nil {
				return SwapResult{}, errors.Wrap(err, "compute_swap_step")
			}
		}
	}

	if !byAmountIn && amountOut.Gt(amount) {
		amountOut = amount
	}

	var feeAmount decimal.TokenAmount
	if byAmountIn && notMax {
		feeAmount, err = amount.CheckedSub(amountIn)
	} else {
		feeAmount, err = decimal.MulUp(amountIn, fee)
	}
	if err != nil {
		return SwapResult{}, errors.Wrap(err, "compute_swap_step")
	}

	return SwapResult{
		NextSqrtPrice: next,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     feeAmount,
	}, nil
}

// IsEnoughAmountToChangePrice reports whether amount would move the price
// away from start at all.
func IsEnoughAmountToChangePrice(
	amount decimal.TokenAmount,
	start decimal.SqrtPrice,
	liquidity decimal.Liquidity,
	fee decimal.Percentage,
	byAmountIn, xToY bool,
) (bool, error) {
	if liquidity.IsZero() {
		return true, nil
	}

	var (
		next     decimal.SqrtPrice
		afterFee decimal.TokenAmount
		err      error
	)
	if byAmountIn {
		if afterFee, err = decimal.Mul(amount, decimal.One[decimal.PercentageScale]().Sub(fee)); err != nil {
			return false, errors.Wrap(err, "is_enough_amount_to_change_price")
		}
		next, err = GetNextSqrtPriceFromInput(start, liquidity, afterFee, xToY)
	} else {
		next, err = GetNextSqrtPriceFromOutput(start, liquidity, amount, xToY)
	}
	if err != nil {
		return false, errors.Wrap(err, "is_enough_amount_to_change_price")
	}
	return !start.Eq(next), nil
}
