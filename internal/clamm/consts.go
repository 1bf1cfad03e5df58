package clamm

import (
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

const (
	MaxTick int32 = 221_818
	MinTick int32 = -MaxTick

	// TickSearchRange is the number of tickmap chunks scanned per search.
	TickSearchRange int32 = 256
	ChunkSize       int32 = 64

	MaxTickSpacing uint16 = 100
)

var (
	MaxSqrtPrice = mustSqrtPrice("65535383934512647000000000000")
	MinSqrtPrice = mustSqrtPrice("15258932000000000000")
)

func mustSqrtPrice(raw string) decimal.SqrtPrice {
	p, err := decimal.Parse[decimal.SqrtPriceScale](raw)
	if err != nil {
		panic(err)
	}
	return p
}
