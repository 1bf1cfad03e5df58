// Package decimal implements the scaled fixed-point types used by the AMM.
//
// Every type is a Decimal[S] where the scale S fixes the number of implied
// decimal digits and the storage width. Values of different scales never mix
// without an explicit conversion (Convert, Mul, Div and friends).
package decimal

import (
	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"

	"github.com/hxuan190/clamm-engine/internal/wideint"
)

// Scale describes a decimal type: its digits of scale and storage width.
type Scale interface {
	Digits() uint8
	Width() wideint.Width
}

// WrappingScale marks accumulators whose arithmetic wraps modulo 2^width.
type WrappingScale interface {
	Scale
	wraps()
}

// Decimal is an unsigned fixed-point number with value v / 10^Digits.
type Decimal[S Scale] struct {
	v uint256.Int
}

func digits[S Scale]() uint8 {
	var s S
	return s.Digits()
}

func width[S Scale]() wideint.Width {
	var s S
	return s.Width()
}

func fits[S Scale](v *uint256.Int) bool {
	return v.BitLen() <= int(width[S]())
}

// New wraps a raw value, failing when it exceeds the type's width.
func New[S Scale](v *uint256.Int) (Decimal[S], error) {
	if !fits[S](v) {
		return Decimal[S]{}, errors.Wrapf(wideint.ErrCastLoss, "new u%d", width[S]())
	}
	var d Decimal[S]
	d.v.Set(v)
	return d, nil
}

// FromUint64 wraps a raw machine word. Every decimal type is at least 128 bits wide.
func FromUint64[S Scale](v uint64) Decimal[S] {
	var d Decimal[S]
	d.v.SetUint64(v)
	return d
}

// FromWide narrows an intermediate result into the type.
func FromWide[S Scale](w wideint.Uint) (Decimal[S], error) {
	n, err := w.Cast(width[S]())
	if err != nil {
		return Decimal[S]{}, err
	}
	v, err := n.U256()
	if err != nil {
		return Decimal[S]{}, err
	}
	var d Decimal[S]
	d.v.Set(v)
	return d, nil
}

// Parse reads a raw base-10 value (no implied decimal point).
func Parse[S Scale](raw string) (Decimal[S], error) {
	w, err := wideint.Parse(wideint.U512, raw)
	if err != nil {
		return Decimal[S]{}, err
	}
	return FromWide[S](w)
}

// CheckedFromInteger returns n whole units, n * 10^Digits.
func CheckedFromInteger[S Scale](n uint64) (Decimal[S], error) {
	d, err := FromWide[S](mustMul(wideint.New(wideint.U512, n), pow10(digits[S]())))
	if err != nil {
		return Decimal[S]{}, errors.Wrap(err, "from_integer")
	}
	return d, nil
}

// FromInteger is CheckedFromInteger for constants; it panics on overflow.
func FromInteger[S Scale](n uint64) Decimal[S] {
	d, err := CheckedFromInteger[S](n)
	if err != nil {
		panic(err)
	}
	return d
}

// FromScale rescales a raw value of the given scale, truncating extra digits.
func FromScale[S Scale](v wideint.Uint, scale uint8) (Decimal[S], error) {
	return fromScale[S](v, scale, false)
}

// FromScaleUp rescales like FromScale but rounds dropped digits up.
func FromScaleUp[S Scale](v wideint.Uint, scale uint8) (Decimal[S], error) {
	return fromScale[S](v, scale, true)
}

func fromScale[S Scale](v wideint.Uint, scale uint8, up bool) (Decimal[S], error) {
	v, err := v.Cast(wideint.U512)
	if err != nil {
		return Decimal[S]{}, err
	}
	to := digits[S]()
	var r wideint.Uint
	switch {
	case to >= scale:
		r, err = v.Mul(pow10(to - scale))
	case up:
		r, err = v.DivUp(pow10(scale - to))
	default:
		r, err = v.Div(pow10(scale - to))
	}
	if err != nil {
		return Decimal[S]{}, errors.Wrap(err, "from_scale")
	}
	d, err := FromWide[S](r)
	if err != nil {
		return Decimal[S]{}, errors.Wrap(err, "from_scale")
	}
	return d, nil
}

// Zero returns 0.
func Zero[S Scale]() Decimal[S] {
	return Decimal[S]{}
}

// One returns 10^Digits, the value 1.0.
func One[S Scale]() Decimal[S] {
	return FromInteger[S](1)
}

// AlmostOne returns One minus the smallest unit.
func AlmostOne[S Scale]() Decimal[S] {
	one := One[S]()
	var d Decimal[S]
	d.v.SubUint64(&one.v, 1)
	return d
}

// Max returns the largest representable value.
func Max[S Scale]() Decimal[S] {
	d, err := FromWide[S](width[S]().Max())
	if err != nil {
		panic(err)
	}
	return d
}

// Raw returns a copy of the underlying integer.
func (d Decimal[S]) Raw() *uint256.Int {
	return d.v.Clone()
}

// Wide returns the raw value as a 512-bit intermediate.
func (d Decimal[S]) Wide() wideint.Uint {
	w, _ := wideint.FromU256(wideint.U512, &d.v)
	return w
}

func (d Decimal[S]) IsZero() bool { return d.v.IsZero() }

func (d Decimal[S]) Cmp(o Decimal[S]) int { return d.v.Cmp(&o.v) }

func (d Decimal[S]) Eq(o Decimal[S]) bool { return d.v.Eq(&o.v) }

func (d Decimal[S]) Lt(o Decimal[S]) bool { return d.v.Lt(&o.v) }

func (d Decimal[S]) Gt(o Decimal[S]) bool { return d.v.Gt(&o.v) }

func (d Decimal[S]) Lte(o Decimal[S]) bool { return !d.v.Gt(&o.v) }

func (d Decimal[S]) Gte(o Decimal[S]) bool { return !d.v.Lt(&o.v) }

// CheckedAdd returns d+o or ErrOverflow past the type's width.
func (d Decimal[S]) CheckedAdd(o Decimal[S]) (Decimal[S], error) {
	var r Decimal[S]
	if _, overflow := r.v.AddOverflow(&d.v, &o.v); overflow || !fits[S](&r.v) {
		return Decimal[S]{}, errors.Wrapf(wideint.ErrOverflow, "checked_add u%d", width[S]())
	}
	return r, nil
}

// CheckedSub returns d-o or ErrUnderflow when o > d.
func (d Decimal[S]) CheckedSub(o Decimal[S]) (Decimal[S], error) {
	var r Decimal[S]
	if _, underflow := r.v.SubOverflow(&d.v, &o.v); underflow {
		return Decimal[S]{}, errors.Wrapf(wideint.ErrUnderflow, "checked_sub u%d", width[S]())
	}
	return r, nil
}

// CheckedMul multiplies two values of the same type, rounding down.
func (d Decimal[S]) CheckedMul(o Decimal[S]) (Decimal[S], error) {
	return Mul(d, o)
}

// CheckedDiv divides two values of the same type, rounding down.
func (d Decimal[S]) CheckedDiv(o Decimal[S]) (Decimal[S], error) {
	return Div(d, o)
}

// Add panics on overflow.
func (d Decimal[S]) Add(o Decimal[S]) Decimal[S] {
	r, err := d.CheckedAdd(o)
	if err != nil {
		panic(err)
	}
	return r
}

// Sub panics on underflow.
func (d Decimal[S]) Sub(o Decimal[S]) Decimal[S] {
	r, err := d.CheckedSub(o)
	if err != nil {
		panic(err)
	}
	return r
}

var pow10Table = func() [80]wideint.Uint {
	var t [80]wideint.Uint
	ten := wideint.New(wideint.U512, 10)
	t[0] = wideint.New(wideint.U512, 1)
	for i := 1; i < len(t); i++ {
		t[i] = mustMul(t[i-1], ten)
	}
	return t
}()

func pow10(n uint8) wideint.Uint {
	return pow10Table[n]
}

func mustMul(a, b wideint.Uint) wideint.Uint {
	r, err := a.Mul(b)
	if err != nil {
		panic(err)
	}
	return r
}
