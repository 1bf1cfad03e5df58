package decimal

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/wideint"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1000000000000", One[PercentageScale]().RawString())
	assert.Equal(t, "999999999999", AlmostOne[PercentageScale]().RawString())
	assert.Equal(t, "100000", One[LiquidityScale]().RawString())
	assert.Equal(t, "1", One[TokenAmountScale]().RawString())
	assert.Equal(t, "340282366920938463463374607431768211455", Max[SqrtPriceScale]().RawString())
	assert.Equal(t, 256, Max[LiquidityScale]().Raw().BitLen())
}

func TestNewRejectsWideValues(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	_, err := New[SqrtPriceScale](v)
	assert.True(t, errors.Is(err, wideint.ErrCastLoss))

	l, err := New[LiquidityScale](v)
	require.NoError(t, err)
	assert.Equal(t, 129, l.Raw().BitLen())
}

func TestCheckedAddSub(t *testing.T) {
	t.Run("128-bit overflow", func(t *testing.T) {
		_, err := Max[PercentageScale]().CheckedAdd(NewPercentage(1))
		assert.True(t, errors.Is(err, wideint.ErrOverflow))
	})

	t.Run("256-bit overflow", func(t *testing.T) {
		_, err := Max[TokenAmountScale]().CheckedAdd(NewTokenAmount(1))
		assert.True(t, errors.Is(err, wideint.ErrOverflow))
	})

	t.Run("underflow", func(t *testing.T) {
		_, err := NewTokenAmount(1).CheckedSub(NewTokenAmount(2))
		assert.True(t, errors.Is(err, wideint.ErrUnderflow))
	})

	t.Run("panicking variants", func(t *testing.T) {
		assert.Panics(t, func() { NewTokenAmount(0).Sub(NewTokenAmount(1)) })
		assert.Equal(t, NewTokenAmount(3), NewTokenAmount(1).Add(NewTokenAmount(2)))
	})
}

func TestFromScale(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		scale uint8
		up    bool
		want  string
	}{
		{name: "widen", value: 6, scale: 3, want: "6000000000"},
		{name: "same", value: 42, scale: 12, want: "42"},
		{name: "truncate", value: 1_999, scale: 15, want: "1"},
		{name: "round up", value: 1_001, scale: 15, up: true, want: "2"},
		{name: "exact up", value: 2_000, scale: 15, up: true, want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := FromScale[PercentageScale]
			if tt.up {
				from = FromScaleUp[PercentageScale]
			}
			p, err := from(wideint.New(wideint.U128, tt.value), tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.RawString())
		})
	}
}

func TestMulDivRounding(t *testing.T) {
	amount := NewTokenAmount(1000)
	fee := PercentageFromScale(6, 3)

	down, err := Mul(amount, fee)
	require.NoError(t, err)
	up, err := MulUp(amount, fee)
	require.NoError(t, err)
	assert.Equal(t, NewTokenAmount(6), down)
	assert.Equal(t, NewTokenAmount(6), up)

	odd := NewTokenAmount(1001)
	down, err = Mul(odd, fee)
	require.NoError(t, err)
	up, err = MulUp(odd, fee)
	require.NoError(t, err)
	assert.Equal(t, NewTokenAmount(6), down)
	assert.Equal(t, NewTokenAmount(7), up)

	third, err := Div(One[PercentageScale](), NewPercentage(3_000_000_000_000))
	require.NoError(t, err)
	thirdUp, err := DivUp(One[PercentageScale](), NewPercentage(3_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, "333333333333", third.RawString())
	assert.Equal(t, "333333333334", thirdUp.RawString())

	_, err = Div(One[PercentageScale](), Zero[PercentageScale]())
	assert.True(t, errors.Is(err, wideint.ErrDivisionByZero))

	_, err = Max[SqrtPriceScale]().CheckedMul(FromInteger[SqrtPriceScale](2))
	assert.True(t, errors.Is(err, wideint.ErrCastLoss))
}

func TestRoundingDirection(t *testing.T) {
	values := []uint64{0, 1, 7, 999, 1_000_000_007, 123_456_789_012_345}
	for _, a := range values {
		for _, b := range values {
			x, y := NewSqrtPrice(a), NewSqrtPrice(b)
			m, err := Mul(x, y)
			require.NoError(t, err)
			mu, err := MulUp(x, y)
			require.NoError(t, err)
			assert.True(t, mu.Gte(m))

			if b == 0 {
				continue
			}
			d, err := Div(x, y)
			require.NoError(t, err)
			du, err := DivUp(x, y)
			require.NoError(t, err)
			assert.True(t, du.Gte(d))
		}
	}
}

func TestWrapping(t *testing.T) {
	max := Max[FeeGrowthScale]()
	one := NewFeeGrowth(1)

	assert.True(t, WrappingAdd(max, one).IsZero())
	assert.Equal(t, max, WrappingSub(Zero[FeeGrowthScale](), one))

	a := NewFeeGrowth(5)
	b := NewFeeGrowth(9)
	diff := WrappingSub(a, b)
	assert.Equal(t, a, WrappingAdd(diff, b))
}

func TestFeeGrowth(t *testing.T) {
	liquidity := LiquidityFromInteger(1_000_000)

	fg, err := FeeGrowthFromFee(liquidity, NewTokenAmount(5))
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000000000", fg.RawString())

	back, err := FeeGrowthToFee(fg, liquidity)
	require.NoError(t, err)
	assert.Equal(t, NewTokenAmount(5), back)

	_, err = FeeGrowthFromFee(Zero[LiquidityScale](), NewTokenAmount(1))
	assert.True(t, errors.Is(err, wideint.ErrDivisionByZero))

	_, err = FeeGrowthFromFee(NewLiquidity(1), Max[TokenAmountScale]())
	assert.True(t, errors.Is(err, wideint.ErrCastLoss))
}

func TestHumanFormat(t *testing.T) {
	p, err := ParseHuman[PercentageScale]("0.006")
	require.NoError(t, err)
	assert.Equal(t, PercentageFromScale(6, 3), p)
	assert.Equal(t, "0.006", p.String())

	_, err = ParseHuman[PercentageScale]("0.0000000000001")
	assert.True(t, errors.Is(err, ErrPrecision))

	_, err = ParseHuman[PercentageScale]("-1")
	assert.Error(t, err)

	assert.Equal(t, "10", LiquidityFromInteger(10).String())
}

func TestBorshCodec(t *testing.T) {
	type record struct {
		Price  SqrtPrice
		Amount TokenAmount
	}
	in := record{Price: FromInteger[SqrtPriceScale](3), Amount: Max[TokenAmountScale]()}

	var buf bytes.Buffer
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(in))
	assert.Equal(t, 16+32, buf.Len())

	var out record
	require.NoError(t, bin.NewBorshDecoder(buf.Bytes()).Decode(&out))
	assert.Equal(t, in, out)
}

func TestJSON(t *testing.T) {
	in := struct {
		Fee       Percentage `json:"fee"`
		Liquidity Liquidity  `json:"liquidity"`
	}{PercentageFromScale(3, 3), Max[LiquidityScale]()}

	b, err := sonic.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"fee":"3000000000"`)

	out := in
	out.Fee, out.Liquidity = Percentage{}, Liquidity{}
	require.NoError(t, sonic.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var p Percentage
	assert.Error(t, p.UnmarshalJSON([]byte(`12`)))
}
