package decimal

import "github.com/hxuan190/clamm-engine/internal/wideint"

type TokenAmountScale struct{}

func (TokenAmountScale) Digits() uint8        { return 0 }
func (TokenAmountScale) Width() wideint.Width { return wideint.U256 }

type LiquidityScale struct{}

func (LiquidityScale) Digits() uint8        { return 5 }
func (LiquidityScale) Width() wideint.Width { return wideint.U256 }

type PercentageScale struct{}

func (PercentageScale) Digits() uint8        { return 12 }
func (PercentageScale) Width() wideint.Width { return wideint.U128 }

type SqrtPriceScale struct{}

func (SqrtPriceScale) Digits() uint8        { return 24 }
func (SqrtPriceScale) Width() wideint.Width { return wideint.U128 }

type FeeGrowthScale struct{}

func (FeeGrowthScale) Digits() uint8        { return 28 }
func (FeeGrowthScale) Width() wideint.Width { return wideint.U128 }
func (FeeGrowthScale) wraps()               {}

type SecondsPerLiquidityScale struct{}

func (SecondsPerLiquidityScale) Digits() uint8        { return 28 }
func (SecondsPerLiquidityScale) Width() wideint.Width { return wideint.U128 }
func (SecondsPerLiquidityScale) wraps()               {}

type FixedPointScale struct{}

func (FixedPointScale) Digits() uint8        { return 12 }
func (FixedPointScale) Width() wideint.Width { return wideint.U128 }

type (
	// TokenAmount counts raw token units.
	TokenAmount = Decimal[TokenAmountScale]
	// Liquidity is the virtual depth of a range.
	Liquidity = Decimal[LiquidityScale]
	// Percentage is a ratio, 1.0 = 10^12.
	Percentage = Decimal[PercentageScale]
	// SqrtPrice is the square root of the y/x price.
	SqrtPrice = Decimal[SqrtPriceScale]
	// FeeGrowth is fee per unit of liquidity, modulo 2^128.
	FeeGrowth = Decimal[FeeGrowthScale]
	// SecondsPerLiquidity is elapsed time per unit of liquidity, modulo 2^128.
	SecondsPerLiquidity = Decimal[SecondsPerLiquidityScale]
	// FixedPoint is the intermediate of tick to price conversion.
	FixedPoint = Decimal[FixedPointScale]
)

func NewTokenAmount(v uint64) TokenAmount { return FromUint64[TokenAmountScale](v) }

func NewLiquidity(raw uint64) Liquidity { return FromUint64[LiquidityScale](raw) }

func NewPercentage(raw uint64) Percentage { return FromUint64[PercentageScale](raw) }

func NewSqrtPrice(raw uint64) SqrtPrice { return FromUint64[SqrtPriceScale](raw) }

func NewFeeGrowth(raw uint64) FeeGrowth { return FromUint64[FeeGrowthScale](raw) }

func NewFixedPoint(raw uint64) FixedPoint { return FromUint64[FixedPointScale](raw) }

// LiquidityFromInteger returns n whole units of liquidity.
func LiquidityFromInteger(n uint64) Liquidity { return FromInteger[LiquidityScale](n) }

// PercentageFromScale builds a percentage such as 6 at scale 3 (0.6%).
func PercentageFromScale(v uint64, scale uint8) Percentage {
	p, err := FromScale[PercentageScale](wideint.New(wideint.U512, v), scale)
	if err != nil {
		panic(err)
	}
	return p
}
