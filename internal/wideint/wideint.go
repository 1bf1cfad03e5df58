// Package wideint provides fixed-width unsigned integers wider than a machine
// word. Values are scratch accumulators for multiply-divide sequences: every
// operation is checked against the declared width and nothing wraps.
package wideint

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("overflow")
	ErrUnderflow      = errors.New("underflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrCastLoss       = errors.New("cast loss")
	ErrParse          = errors.New("invalid base-10 integer")
)

// Width is a bit width, always a multiple of 64.
type Width uint

const (
	U64  Width = 64
	U128 Width = 128
	U192 Width = 192
	U256 Width = 256
	U320 Width = 320
	U384 Width = 384
	U448 Width = 448
	U512 Width = 512
)

var maxByWidth = func() map[Width]*big.Int {
	m := make(map[Width]*big.Int, 8)
	for w := U64; w <= U512; w += 64 {
		v := new(big.Int).Lsh(big.NewInt(1), uint(w))
		m[w] = v.Sub(v, big.NewInt(1))
	}
	return m
}()

// Max returns 2^w - 1.
func (w Width) Max() Uint {
	return Uint{w: w, v: maxByWidth[w]}
}

func (w Width) valid() bool {
	_, ok := maxByWidth[w]
	return ok
}

// Uint is an immutable unsigned integer of a fixed width.
type Uint struct {
	w Width
	v *big.Int
}

// New returns x as a w-bit integer.
func New(w Width, x uint64) Uint {
	if !w.valid() {
		panic(errors.Newf("wideint: invalid width %d", w))
	}
	return Uint{w: w, v: new(big.Int).SetUint64(x)}
}

// Zero returns 0 at width w.
func Zero(w Width) Uint {
	return New(w, 0)
}

// FromU256 widens (or narrows, checked) a 256-bit word into width w.
func FromU256(w Width, x *uint256.Int) (Uint, error) {
	return fromBig(w, x.ToBig())
}

// FromBig copies x into width w, failing when x is negative or too wide.
func FromBig(w Width, x *big.Int) (Uint, error) {
	return fromBig(w, new(big.Int).Set(x))
}

func fromBig(w Width, v *big.Int) (Uint, error) {
	if !w.valid() {
		return Uint{}, errors.Newf("wideint: invalid width %d", w)
	}
	if v.Sign() < 0 {
		return Uint{}, errors.Wrapf(ErrUnderflow, "from_big(%d)", w)
	}
	if v.Cmp(maxByWidth[w]) > 0 {
		return Uint{}, errors.Wrapf(ErrCastLoss, "from_big(%d)", w)
	}
	return Uint{w: w, v: v}, nil
}

// Parse reads a base-10 unsigned integer into width w.
func Parse(w Width, s string) (Uint, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return Uint{}, errors.Wrapf(ErrParse, "%q", s)
	}
	if v.Cmp(maxByWidth[w]) > 0 {
		return Uint{}, errors.Wrapf(ErrOverflow, "parse %q into u%d", s, w)
	}
	return Uint{w: w, v: v}, nil
}

// Pow10 returns 10^n at width w.
func Pow10(w Width, n uint8) (Uint, error) {
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	if v.Cmp(maxByWidth[w]) > 0 {
		return Uint{}, errors.Wrapf(ErrOverflow, "10^%d into u%d", n, w)
	}
	return Uint{w: w, v: v}, nil
}

func (a Uint) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

func (a Uint) Width() Width { return a.w }

func (a Uint) IsZero() bool { return a.big().Sign() == 0 }

func (a Uint) BitLen() int { return a.big().BitLen() }

func (a Uint) String() string { return a.big().String() }

// Big returns a copy of the value.
func (a Uint) Big() *big.Int { return new(big.Int).Set(a.big()) }

func (a Uint) Cmp(b Uint) int { return a.big().Cmp(b.big()) }

func (a Uint) Eq(b Uint) bool { return a.Cmp(b) == 0 }

func (a Uint) Lt(b Uint) bool { return a.Cmp(b) < 0 }

func (a Uint) Gt(b Uint) bool { return a.Cmp(b) > 0 }

func (a Uint) result(v *big.Int, op string) (Uint, error) {
	if v.Cmp(maxByWidth[a.w]) > 0 {
		return Uint{}, errors.Wrapf(ErrOverflow, "%s u%d", op, a.w)
	}
	return Uint{w: a.w, v: v}, nil
}

// Add returns a+b at a's width.
func (a Uint) Add(b Uint) (Uint, error) {
	return a.result(new(big.Int).Add(a.big(), b.big()), "add")
}

// Sub returns a-b, failing with ErrUnderflow when b > a.
func (a Uint) Sub(b Uint) (Uint, error) {
	if a.Lt(b) {
		return Uint{}, errors.Wrapf(ErrUnderflow, "sub u%d", a.w)
	}
	return Uint{w: a.w, v: new(big.Int).Sub(a.big(), b.big())}, nil
}

// Mul returns a*b at a's width.
func (a Uint) Mul(b Uint) (Uint, error) {
	return a.result(new(big.Int).Mul(a.big(), b.big()), "mul")
}

// Div returns floor(a/b).
func (a Uint) Div(b Uint) (Uint, error) {
	if b.IsZero() {
		return Uint{}, errors.Wrapf(ErrDivisionByZero, "div u%d", a.w)
	}
	return Uint{w: a.w, v: new(big.Int).Quo(a.big(), b.big())}, nil
}

// DivUp returns ceil(a/b).
func (a Uint) DivUp(b Uint) (Uint, error) {
	if b.IsZero() {
		return Uint{}, errors.Wrapf(ErrDivisionByZero, "div_up u%d", a.w)
	}
	q, r := new(big.Int).QuoRem(a.big(), b.big(), new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return Uint{w: a.w, v: q}, nil
}

// Rem returns a mod b.
func (a Uint) Rem(b Uint) (Uint, error) {
	if b.IsZero() {
		return Uint{}, errors.Wrapf(ErrDivisionByZero, "rem u%d", a.w)
	}
	return Uint{w: a.w, v: new(big.Int).Rem(a.big(), b.big())}, nil
}

// Cast moves the value to width w. Narrowing fails with ErrCastLoss when any
// dropped high bit is set.
func (a Uint) Cast(w Width) (Uint, error) {
	if !w.valid() {
		return Uint{}, errors.Newf("wideint: invalid width %d", w)
	}
	if a.big().Cmp(maxByWidth[w]) > 0 {
		return Uint{}, errors.Wrapf(ErrCastLoss, "u%d -> u%d", a.w, w)
	}
	return Uint{w: w, v: a.big()}, nil
}

// U256 narrows to a 256-bit word.
func (a Uint) U256() (*uint256.Int, error) {
	v, overflow := uint256.FromBig(a.big())
	if overflow {
		return nil, errors.Wrapf(ErrCastLoss, "u%d -> u256", a.w)
	}
	return v, nil
}

// Uint64 narrows to a machine word.
func (a Uint) Uint64() (uint64, error) {
	if !a.big().IsUint64() {
		return 0, errors.Wrapf(ErrCastLoss, "u%d -> u64", a.w)
	}
	return a.big().Uint64(), nil
}
