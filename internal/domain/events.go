package domain

import (
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// Event is anything the engine reports to observers after a commit.
type Event interface {
	EventName() string
}

type CreatePositionEvent struct {
	Timestamp        uint64            `json:"timestamp"`
	Address          Address           `json:"address"`
	Pool             PoolKey           `json:"pool"`
	Liquidity        decimal.Liquidity `json:"liquidity"`
	LowerTick        int32             `json:"lowerTick"`
	UpperTick        int32             `json:"upperTick"`
	CurrentSqrtPrice decimal.SqrtPrice `json:"currentSqrtPrice"`
}

type RemovePositionEvent struct {
	Timestamp        uint64            `json:"timestamp"`
	Address          Address           `json:"address"`
	Pool             PoolKey           `json:"pool"`
	Liquidity        decimal.Liquidity `json:"liquidity"`
	LowerTick        int32             `json:"lowerTick"`
	UpperTick        int32             `json:"upperTick"`
	CurrentSqrtPrice decimal.SqrtPrice `json:"currentSqrtPrice"`
}

type CrossTickEvent struct {
	Timestamp uint64  `json:"timestamp"`
	Address   Address `json:"address"`
	Pool      PoolKey `json:"pool"`
	Indexes   []int32 `json:"indexes"`
}

type SwapEvent struct {
	Timestamp       uint64              `json:"timestamp"`
	Address         Address             `json:"address"`
	Pool            PoolKey             `json:"pool"`
	AmountIn        decimal.TokenAmount `json:"amountIn"`
	AmountOut       decimal.TokenAmount `json:"amountOut"`
	Fee             decimal.TokenAmount `json:"fee"`
	StartSqrtPrice  decimal.SqrtPrice   `json:"startSqrtPrice"`
	TargetSqrtPrice decimal.SqrtPrice   `json:"targetSqrtPrice"`
	XToY            bool                `json:"xToY"`
}

func (CreatePositionEvent) EventName() string { return "create_position" }
func (RemovePositionEvent) EventName() string { return "remove_position" }
func (CrossTickEvent) EventName() string      { return "cross_tick" }
func (SwapEvent) EventName() string           { return "swap" }
