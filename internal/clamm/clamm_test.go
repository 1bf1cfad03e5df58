package clamm

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

func price(t testing.TB, raw string) decimal.SqrtPrice {
	t.Helper()
	p, err := decimal.Parse[decimal.SqrtPriceScale](raw)
	require.NoError(t, err)
	return p
}

func tickPrice(t testing.TB, tick int32) decimal.SqrtPrice {
	t.Helper()
	p, err := CalculateSqrtPrice(tick)
	require.NoError(t, err)
	return p
}

func TestCalculateSqrtPrice(t *testing.T) {
	tests := []struct {
		tick int32
		want string
	}{
		{0, "1000000000000000000000000"},
		{1, "1000049998750000000000000"},
		{-1, "999950003749000000000000"},
		{2, "1000100000000000000000000"},
		{10, "1000500100010000000000000"},
		{-20, "999000549780000000000000"},
		{100, "1005012269622000000000000"},
		{-100, "995012727930000000000000"},
		{1000, "1051268468360000000000000"},
		{50000, "12180971336111000000000000"},
		{-50000, "82095259270000000000000"},
		{221817, "65532107410865754000000000000"},
		{MaxTick, "65535383934512647000000000000"},
		{MinTick, "15258932000000000000"},
	}

	for _, tt := range tests {
		got, err := CalculateSqrtPrice(tt.tick)
		require.NoError(t, err, "tick %d", tt.tick)
		assert.Equal(t, tt.want, got.RawString(), "tick %d", tt.tick)
	}

	assert.Equal(t, MaxSqrtPrice, tickPrice(t, MaxTick))
	assert.Equal(t, MinSqrtPrice, tickPrice(t, MinTick))

	for _, tick := range []int32{MaxTick + 1, MinTick - 1} {
		_, err := CalculateSqrtPrice(tick)
		assert.True(t, errors.Is(err, common.ErrTickOverBounds))
	}
}

func TestSqrtPriceMonotonic(t *testing.T) {
	prev := tickPrice(t, MinTick)
	for tick := MinTick + 1; tick <= MaxTick; tick += 97 {
		p := tickPrice(t, tick)
		assert.True(t, p.Gt(prev), "tick %d", tick)
		prev = p
	}
}

func TestGetTickAtSqrtPrice(t *testing.T) {
	one := decimal.One[decimal.SqrtPriceScale]()
	unit := decimal.NewSqrtPrice(1)

	tests := []struct {
		name    string
		price   decimal.SqrtPrice
		spacing uint16
		want    int32
	}{
		{"one", one, 1, 0},
		{"just above one", one.Add(unit), 1, 0},
		{"just below one", one.Sub(unit), 1, -1},
		{"just below one spaced", one.Sub(unit), 10, -10},
		{"inside positive range", tickPrice(t, 15).Add(decimal.NewSqrtPrice(5)), 10, 10},
		{"inside negative range", tickPrice(t, -15).Add(decimal.NewSqrtPrice(5)), 10, -20},
		{"aligned negative", tickPrice(t, -25), 10, -30},
		{"max", MaxSqrtPrice, 1, MaxTick},
		{"min", MinSqrtPrice, 1, MinTick},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetTickAtSqrtPrice(tt.price, tt.spacing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GetTickAtSqrtPrice(MaxSqrtPrice.Add(unit), 1)
	assert.True(t, errors.Is(err, common.ErrSqrtPriceOutOfBounds))
	_, err = GetTickAtSqrtPrice(MinSqrtPrice.Sub(unit), 1)
	assert.True(t, errors.Is(err, common.ErrSqrtPriceOutOfBounds))
}

func TestTickPriceRoundTrip(t *testing.T) {
	unit := decimal.NewSqrtPrice(1)
	for tick := MinTick; tick <= MaxTick; tick += 113 {
		p := tickPrice(t, tick)
		got, err := GetTickAtSqrtPrice(p, 1)
		require.NoError(t, err)
		assert.Equal(t, tick, got)

		if tick > MinTick {
			below, err := GetTickAtSqrtPrice(p.Sub(unit), 1)
			require.NoError(t, err)
			assert.Equal(t, tick-1, below)
		}
	}
}

func TestTickBounds(t *testing.T) {
	assert.Equal(t, MaxTick, GetMaxTick(1))
	assert.Equal(t, int32(221810), GetMaxTick(10))
	assert.Equal(t, int32(-221800), GetMinTick(100))

	assert.NoError(t, CheckTicks(-20, 10, 10))
	assert.NoError(t, CheckTicks(GetMinTick(10), GetMaxTick(10), 10))

	bad := []struct {
		lower, upper int32
		spacing      uint16
	}{
		{10, -20, 10},
		{10, 10, 10},
		{-15, 10, 10},
		{GetMinTick(10) - 10, 10, 10},
		{-20, GetMaxTick(10) + 10, 10},
		{-20, 10, 0},
	}
	for _, b := range bad {
		err := CheckTicks(b.lower, b.upper, b.spacing)
		assert.True(t, errors.Is(err, common.ErrInvalidTickIndexOrTickSpacing), "%+v", b)
	}
}

func TestGetDelta(t *testing.T) {
	one := decimal.One[decimal.SqrtPriceScale]()
	two := decimal.FromInteger[decimal.SqrtPriceScale](2)

	tests := []struct {
		name     string
		fn       func(a, b decimal.SqrtPrice, l decimal.Liquidity, up bool) (decimal.TokenAmount, error)
		a, b     decimal.SqrtPrice
		l        decimal.Liquidity
		down, up uint64
	}{
		{"x whole", GetDeltaX, one, two, decimal.LiquidityFromInteger(2), 1, 1},
		{"x fractional liquidity", GetDeltaX, one, two, decimal.NewLiquidity(1), 0, 1},
		{"x range", GetDeltaX, tickPrice(t, -20), tickPrice(t, 10), decimal.LiquidityFromInteger(1_000_000), 1500, 1501},
		{"y whole", GetDeltaY, one, two, decimal.LiquidityFromInteger(2), 2, 2},
		{"y range", GetDeltaY, tickPrice(t, -20), tickPrice(t, 10), decimal.LiquidityFromInteger(1_000_000), 1499, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			down, err := tt.fn(tt.a, tt.b, tt.l, false)
			require.NoError(t, err)
			up, err := tt.fn(tt.a, tt.b, tt.l, true)
			require.NoError(t, err)
			assert.Equal(t, decimal.NewTokenAmount(tt.down), down)
			assert.Equal(t, decimal.NewTokenAmount(tt.up), up)

			swapped, err := tt.fn(tt.b, tt.a, tt.l, true)
			require.NoError(t, err)
			assert.Equal(t, up, swapped)
		})
	}

	full, err := GetDeltaY(MinSqrtPrice, MaxSqrtPrice, decimal.Max[decimal.LiquidityScale](), true)
	require.NoError(t, err)
	assert.False(t, full.IsZero())
}

func TestNextSqrtPrice(t *testing.T) {
	one := decimal.One[decimal.SqrtPriceScale]()
	two := decimal.FromInteger[decimal.SqrtPriceScale](2)
	l := decimal.LiquidityFromInteger

	x := []struct {
		p      decimal.SqrtPrice
		l      decimal.Liquidity
		amount uint64
		add    bool
		want   string
	}{
		{one, l(1), 1, true, "500000000000000000000000"},
		{one, l(2), 3, true, "400000000000000000000000"},
		{two, l(3), 5, true, "461538461538461538461539"},
		{one, l(10), 1, false, "1111111111111111111111112"},
	}
	for _, tt := range x {
		got, err := GetNextSqrtPriceXUp(tt.p, tt.l, decimal.NewTokenAmount(tt.amount), tt.add)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.RawString())
	}

	y := []struct {
		p      decimal.SqrtPrice
		l      decimal.Liquidity
		amount uint64
		add    bool
		want   string
	}{
		{one, l(1), 1, true, "2000000000000000000000000"},
		{one, l(2), 3, true, "2500000000000000000000000"},
		{two, l(3), 5, false, "333333333333333333333333"},
		{one, l(3), 1, false, "666666666666666666666666"},
	}
	for _, tt := range y {
		got, err := GetNextSqrtPriceYDown(tt.p, tt.l, decimal.NewTokenAmount(tt.amount), tt.add)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.RawString())
	}

	_, err := GetNextSqrtPriceXUp(one, l(1), decimal.NewTokenAmount(1), false)
	assert.Error(t, err)
	_, err = GetNextSqrtPriceYDown(one, l(1), decimal.NewTokenAmount(2), false)
	assert.Error(t, err)

	same, err := GetNextSqrtPriceFromInput(one, l(1), decimal.TokenAmount{}, true)
	require.NoError(t, err)
	assert.Equal(t, one, same)
}

func TestComputeSwapStep(t *testing.T) {
	one := decimal.One[decimal.SqrtPriceScale]()
	l2000 := decimal.LiquidityFromInteger(2000)
	l1m := decimal.LiquidityFromInteger(1_000_000)
	fee := decimal.PercentageFromScale(6, 4)

	tests := []struct {
		name            string
		current, target decimal.SqrtPrice
		liquidity       decimal.Liquidity
		amount          uint64
		byAmountIn      bool
		fee             decimal.Percentage
		next            string
		in, out, feeAmt uint64
	}{
		{"one unit x no fee", one, tickPrice(t, -10), l2000, 1, true, decimal.Percentage{}, "999500249875062468765618", 1, 0, 0},
		{"y in partial", one, price(t, "1010000000000000000000000"), l2000, 20, true, fee, "1009500000000000000000000", 19, 18, 1},
		{"y out reaches target", one, price(t, "1010000000000000000000000"), l2000, 20, false, fee, "1010000000000000000000000", 20, 19, 1},
		{"y in reaches target", one, price(t, "1010000000000000000000000"), l2000, 100000, true, fee, "1010000000000000000000000", 20, 19, 1},
		{"x in partial", one, price(t, "990000000000000000000000"), l2000, 20, true, fee, "990589400693412580485389", 19, 18, 1},
		{"x out reaches target", one, price(t, "990000000000000000000000"), l2000, 100000, false, fee, "990000000000000000000000", 21, 20, 1},
		{"no liquidity", one, price(t, "990000000000000000000000"), decimal.Liquidity{}, 100, true, fee, "990000000000000000000000", 0, 0, 0},
		{"range swap in", tickPrice(t, 0), tickPrice(t, -20), l1m, 1000, true, decimal.PercentageFromScale(6, 3), "999006987054867461743028", 994, 993, 6},
		{"range swap out", tickPrice(t, 0), tickPrice(t, -20), l1m, 500, false, decimal.PercentageFromScale(6, 3), "999500000000000000000000", 501, 500, 4},
		{"range swap up", tickPrice(t, 0), tickPrice(t, 10), l1m, 300, true, decimal.PercentageFromScale(3, 3), "1000299000000000000000000", 299, 298, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSwapStep(tt.current, tt.target, tt.liquidity, decimal.NewTokenAmount(tt.amount), tt.byAmountIn, tt.fee)
			require.NoError(t, err)
			assert.Equal(t, tt.next, got.NextSqrtPrice.RawString())
			assert.Equal(t, decimal.NewTokenAmount(tt.in), got.AmountIn)
			assert.Equal(t, decimal.NewTokenAmount(tt.out), got.AmountOut)
			assert.Equal(t, decimal.NewTokenAmount(tt.feeAmt), got.FeeAmount)
		})
	}
}

func TestSwapStepBracketsOutput(t *testing.T) {
	l := decimal.LiquidityFromInteger(1_000_000)
	start := tickPrice(t, 0)
	target := tickPrice(t, -200)
	fee := decimal.PercentageFromScale(3, 3)

	for _, amount := range []uint64{1, 17, 999, 12345, 9_999_999} {
		got, err := ComputeSwapStep(start, target, l, decimal.NewTokenAmount(amount), true, fee)
		require.NoError(t, err)

		lo, err := GetDeltaY(got.NextSqrtPrice, start, l, false)
		require.NoError(t, err)
		hi, err := GetDeltaY(got.NextSqrtPrice, start, l, true)
		require.NoError(t, err)
		assert.True(t, lo.Lte(got.AmountOut) && got.AmountOut.Lte(hi), "amount %d", amount)

		spent, err := got.AmountIn.CheckedAdd(got.FeeAmount)
		require.NoError(t, err)
		assert.True(t, spent.Lte(decimal.NewTokenAmount(amount)), "amount %d", amount)
	}
}

func TestIsEnoughAmountToChangePrice(t *testing.T) {
	one := decimal.One[decimal.SqrtPriceScale]()
	l := decimal.LiquidityFromInteger(1_000_000)
	fee := decimal.PercentageFromScale(6, 3)

	enough, err := IsEnoughAmountToChangePrice(decimal.NewTokenAmount(1), one, l, fee, true, true)
	require.NoError(t, err)
	assert.False(t, enough)

	enough, err = IsEnoughAmountToChangePrice(decimal.NewTokenAmount(10), one, l, fee, true, true)
	require.NoError(t, err)
	assert.True(t, enough)

	enough, err = IsEnoughAmountToChangePrice(decimal.NewTokenAmount(1), one, decimal.LiquidityFromInteger(1), decimal.Percentage{}, false, true)
	require.NoError(t, err)
	assert.True(t, enough)

	enough, err = IsEnoughAmountToChangePrice(decimal.NewTokenAmount(1), one, decimal.Liquidity{}, decimal.Percentage{}, true, true)
	require.NoError(t, err)
	assert.True(t, enough)
}

func TestCalculateAmountDelta(t *testing.T) {
	l := decimal.LiquidityFromInteger(1_000_000)
	current := tickPrice(t, 0)

	x, y, active, err := CalculateAmountDelta(0, current, l, true, 10, -20)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, decimal.NewTokenAmount(500), x)
	assert.Equal(t, decimal.NewTokenAmount(1000), y)

	x, y, active, err = CalculateAmountDelta(-30, tickPrice(t, -30), l, true, 10, -20)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, decimal.NewTokenAmount(1501), x)
	assert.True(t, y.IsZero())

	x, y, active, err = CalculateAmountDelta(10, tickPrice(t, 10), l, false, 10, -20)
	require.NoError(t, err)
	assert.False(t, active)
	assert.True(t, x.IsZero())
	assert.Equal(t, decimal.NewTokenAmount(1499), y)

	_, _, _, err = CalculateAmountDelta(0, current, l, true, -20, 10)
	assert.Error(t, err)
}

func TestCalculateMaxLiquidityPerTick(t *testing.T) {
	tests := map[uint16]string{
		1:   "261006384132333857238172165551313140818439365214444611336425014162283870",
		10:  "2610105025298473850361133940641703849001870582819930213003123864660034930",
		100: "26102815427708790672581376241814226296949951457538449963809193870133708214",
	}
	for spacing, want := range tests {
		assert.Equal(t, want, CalculateMaxLiquidityPerTick(spacing).RawString(), "spacing %d", spacing)
	}
}

func TestCalculateFeeGrowthInside(t *testing.T) {
	fg := decimal.NewFeeGrowth
	global := fg(100)

	tests := []struct {
		name                       string
		lowerOutside, upperOutside decimal.FeeGrowth
		current                    int32
		want                       decimal.FeeGrowth
	}{
		{"inside", fg(20), fg(10), 0, fg(70)},
		{"below", fg(20), fg(10), -30, fg(10)},
		{"above", fg(10), fg(20), 20, fg(10)},
		{"above wraps", fg(20), fg(10), 20, decimal.WrappingSub(fg(10), fg(20))},
		{"fresh ticks inside", global, decimal.FeeGrowth{}, 0, decimal.FeeGrowth{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := CalculateFeeGrowthInside(-20, tt.lowerOutside, tt.lowerOutside, 10, tt.upperOutside, tt.upperOutside, tt.current, global, global)
			assert.Equal(t, tt.want, x)
			assert.Equal(t, tt.want, y)
		})
	}

	t.Run("wrapped global", func(t *testing.T) {
		wrapped := decimal.WrappingAdd(decimal.Max[decimal.FeeGrowthScale](), fg(6))
		x, _ := CalculateFeeGrowthInside(-20, fg(0), fg(0), 10, fg(0), fg(0), 0, wrapped, wrapped)
		assert.Equal(t, fg(5), x)
	})
}

func TestSecondsPerLiquidity(t *testing.T) {
	spl, err := CalculateSecondsPerLiquidityGlobal(decimal.LiquidityFromInteger(1_000_000), 1_500, 1_000)
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000000000000", spl.RawString())

	_, err = CalculateSecondsPerLiquidityGlobal(decimal.Liquidity{}, 2, 1)
	assert.Error(t, err)

	_, err = CalculateSecondsPerLiquidityGlobal(decimal.LiquidityFromInteger(1), 1, 2)
	assert.Error(t, err)
}

func BenchmarkCalculateSqrtPrice(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = CalculateSqrtPrice(int32(i%int(2*MaxTick)) - MaxTick)
	}
}

func BenchmarkComputeSwapStep(b *testing.B) {
	current := decimal.One[decimal.SqrtPriceScale]()
	target, _ := CalculateSqrtPrice(-1000)
	l := decimal.LiquidityFromInteger(1_000_000)
	amount := decimal.NewTokenAmount(1000)
	fee := decimal.PercentageFromScale(3, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ComputeSwapStep(current, target, l, amount, true, fee)
	}
}
