package domain

import (
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// QuoteResult is what a swap would do, without doing it.
type QuoteResult struct {
	AmountIn        decimal.TokenAmount `json:"amountIn"`
	AmountOut       decimal.TokenAmount `json:"amountOut"`
	TargetSqrtPrice decimal.SqrtPrice   `json:"targetSqrtPrice"`
	Ticks           []Tick              `json:"ticks"`
}

// MinAmountOut is expected * (1 - slippage), rounded up.
func MinAmountOut(expected decimal.TokenAmount, slippage decimal.Percentage) (decimal.TokenAmount, error) {
	keep, err := decimal.One[decimal.PercentageScale]().CheckedSub(slippage)
	if err != nil {
		return decimal.TokenAmount{}, err
	}
	return decimal.MulUp(expected, keep)
}
