package domain

import (
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// SwapHop is one leg of a multi-hop route.
type SwapHop struct {
	PoolKey PoolKey `json:"poolKey"`
	XToY    bool    `json:"xToY"`
}

// SwapResult is the outcome of a swap run against a pool, before any state
// is committed.
type SwapResult struct {
	AmountIn        decimal.TokenAmount `json:"amountIn"`
	AmountOut       decimal.TokenAmount `json:"amountOut"`
	StartSqrtPrice  decimal.SqrtPrice   `json:"startSqrtPrice"`
	TargetSqrtPrice decimal.SqrtPrice   `json:"targetSqrtPrice"`
	Fee             decimal.TokenAmount `json:"fee"`
	// UntrackedFee is the part of Fee taken while the pool had no active
	// liquidity, so no fee growth or protocol fee recorded it.
	UntrackedFee decimal.TokenAmount `json:"untrackedFee"`
	Pool         Pool                `json:"pool"`
	Ticks        []Tick              `json:"ticks"`
	Steps        int                 `json:"steps"`
}

// CrossedIndexes lists the crossed ticks in crossing order.
func (r SwapResult) CrossedIndexes() []int32 {
	indexes := make([]int32, len(r.Ticks))
	for i, t := range r.Ticks {
		indexes[i] = t.Index
	}
	return indexes
}
