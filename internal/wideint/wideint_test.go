package wideint

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedArithmetic(t *testing.T) {
	max128 := U128.Max()
	one := New(U128, 1)

	t.Run("add overflow", func(t *testing.T) {
		_, err := max128.Add(one)
		assert.True(t, errors.Is(err, ErrOverflow))
	})

	t.Run("add at wider width", func(t *testing.T) {
		wide, err := max128.Cast(U192)
		require.NoError(t, err)
		sum, err := wide.Add(one)
		require.NoError(t, err)
		assert.Equal(t, "340282366920938463463374607431768211456", sum.String())
	})

	t.Run("sub underflow", func(t *testing.T) {
		_, err := one.Sub(New(U128, 2))
		assert.True(t, errors.Is(err, ErrUnderflow))
	})

	t.Run("mul overflow", func(t *testing.T) {
		_, err := max128.Mul(New(U128, 2))
		assert.True(t, errors.Is(err, ErrOverflow))
	})

	t.Run("div by zero", func(t *testing.T) {
		_, err := one.Div(Zero(U128))
		assert.True(t, errors.Is(err, ErrDivisionByZero))
		_, err = one.DivUp(Zero(U128))
		assert.True(t, errors.Is(err, ErrDivisionByZero))
	})

	t.Run("div rounding", func(t *testing.T) {
		seven := New(U64, 7)
		two := New(U64, 2)
		down, err := seven.Div(two)
		require.NoError(t, err)
		up, err := seven.DivUp(two)
		require.NoError(t, err)
		assert.Equal(t, "3", down.String())
		assert.Equal(t, "4", up.String())

		exact, err := New(U64, 8).DivUp(two)
		require.NoError(t, err)
		assert.Equal(t, "4", exact.String())
	})
}

func TestCast(t *testing.T) {
	big, err := Parse(U512, "340282366920938463463374607431768211456")
	require.NoError(t, err)

	_, err = big.Cast(U128)
	assert.True(t, errors.Is(err, ErrCastLoss))

	narrowed, err := big.Cast(U192)
	require.NoError(t, err)
	assert.Equal(t, U192, narrowed.Width())

	_, err = big.Uint64()
	assert.True(t, errors.Is(err, ErrCastLoss))

	word, err := New(U512, 42).U256()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(42), word)

	_, err = U512.Max().U256()
	assert.True(t, errors.Is(err, ErrCastLoss))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		width Width
		in    string
		err   error
	}{
		{name: "zero", width: U64, in: "0"},
		{name: "u64 max", width: U64, in: "18446744073709551615"},
		{name: "u64 overflow", width: U64, in: "18446744073709551616", err: ErrOverflow},
		{name: "negative", width: U64, in: "-1", err: ErrParse},
		{name: "garbage", width: U64, in: "12a", err: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.width, tt.in)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, v.String())
		})
	}
}

func TestPow10(t *testing.T) {
	v, err := Pow10(U128, 38)
	require.NoError(t, err)
	assert.Equal(t, 39, len(v.String()))

	_, err = Pow10(U128, 39)
	assert.True(t, errors.Is(err, ErrOverflow))
}

func TestFromU256(t *testing.T) {
	x := new(uint256.Int).SetAllOne()
	_, err := FromU256(U128, x)
	assert.True(t, errors.Is(err, ErrCastLoss))

	v, err := FromU256(U512, x)
	require.NoError(t, err)
	assert.Equal(t, 256, v.BitLen())
}
