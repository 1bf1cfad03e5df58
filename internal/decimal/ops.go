package decimal

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/wideint"
)

// Mul returns a*b in a's type, rounding down (big_mul).
func Mul[A, B Scale](a Decimal[A], b Decimal[B]) (Decimal[A], error) {
	r, err := FromWide[A](MulToValue(a, b))
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_mul")
	}
	return r, nil
}

// MulUp returns a*b in a's type, rounding up (big_mul_up).
func MulUp[A, B Scale](a Decimal[A], b Decimal[B]) (Decimal[A], error) {
	r, err := FromWide[A](MulToValueUp(a, b))
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_mul_up")
	}
	return r, nil
}

// MulToValue returns the raw product a*b/one(B) as an intermediate, keeping
// a's scale.
func MulToValue[A, B Scale](a Decimal[A], b Decimal[B]) wideint.Uint {
	r, _ := mustMul(a.Wide(), b.Wide()).Div(pow10(digits[B]()))
	return r
}

// MulToValueUp is MulToValue rounded up.
func MulToValueUp[A, B Scale](a Decimal[A], b Decimal[B]) wideint.Uint {
	r, _ := mustMul(a.Wide(), b.Wide()).DivUp(pow10(digits[B]()))
	return r
}

// Div returns a/b in a's type, rounding down (big_div).
func Div[A, B Scale](a Decimal[A], b Decimal[B]) (Decimal[A], error) {
	q, err := mustMul(a.Wide(), pow10(digits[B]())).Div(b.Wide())
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_div")
	}
	r, err := FromWide[A](q)
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_div")
	}
	return r, nil
}

// DivUp returns a/b in a's type, rounding up (big_div_up).
func DivUp[A, B Scale](a Decimal[A], b Decimal[B]) (Decimal[A], error) {
	q, err := mustMul(a.Wide(), pow10(digits[B]())).DivUp(b.Wide())
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_div_up")
	}
	r, err := FromWide[A](q)
	if err != nil {
		return Decimal[A]{}, errors.Wrap(err, "big_div_up")
	}
	return r, nil
}

// Convert rescales f into type T, truncating digits T cannot hold.
func Convert[T, F Scale](f Decimal[F]) (Decimal[T], error) {
	return FromScale[T](f.Wide(), digits[F]())
}

// ConvertUp rescales f into type T, rounding dropped digits up.
func ConvertUp[T, F Scale](f Decimal[F]) (Decimal[T], error) {
	return FromScaleUp[T](f.Wide(), digits[F]())
}

// WrappingAdd returns a+b modulo 2^width.
func WrappingAdd[S WrappingScale](a, b Decimal[S]) Decimal[S] {
	var r Decimal[S]
	r.v.Add(&a.v, &b.v)
	r.truncate()
	return r
}

// WrappingSub returns a-b modulo 2^width.
func WrappingSub[S WrappingScale](a, b Decimal[S]) Decimal[S] {
	var r Decimal[S]
	r.v.Sub(&a.v, &b.v)
	r.truncate()
	return r
}

func (d *Decimal[S]) truncate() {
	for i := int(width[S]()) / 64; i < len(d.v); i++ {
		d.v[i] = 0
	}
}

var (
	feeGrowthDenominator = mustMul(pow10(FeeGrowthScale{}.Digits()), pow10(LiquidityScale{}.Digits()))
)

// FeeGrowthFromFee spreads a fee over liquidity: fee / L at scale 28, rounding down.
func FeeGrowthFromFee(liquidity Liquidity, fee TokenAmount) (FeeGrowth, error) {
	q, err := mustMul(fee.Wide(), feeGrowthDenominator).Div(liquidity.Wide())
	if err != nil {
		return FeeGrowth{}, errors.Wrap(err, "fee_growth_from_fee")
	}
	fg, err := FromWide[FeeGrowthScale](q)
	if err != nil {
		return FeeGrowth{}, errors.Wrap(err, "fee_growth_from_fee")
	}
	return fg, nil
}

// FeeGrowthToFee returns the tokens owed to liquidity for a fee growth
// difference, rounding down.
func FeeGrowthToFee(growth FeeGrowth, liquidity Liquidity) (TokenAmount, error) {
	q, _ := mustMul(growth.Wide(), liquidity.Wide()).Div(feeGrowthDenominator)
	fee, err := FromWide[TokenAmountScale](q)
	if err != nil {
		return TokenAmount{}, errors.Wrap(err, "fee_growth_to_fee")
	}
	return fee, nil
}
