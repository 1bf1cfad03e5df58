package decimal

import (
	"encoding/binary"
	"strconv"

	"github.com/cockroachdb/errors"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
	dec "github.com/shopspring/decimal"
)

var ErrPrecision = errors.New("more fractional digits than the scale allows")

// String formats the value with its decimal point, e.g. "0.006".
func (d Decimal[S]) String() string {
	return d.human().String()
}

// RawString formats the raw integer.
func (d Decimal[S]) RawString() string {
	return d.v.Dec()
}

func (d Decimal[S]) human() dec.Decimal {
	return dec.NewFromBigInt(d.v.ToBig(), -int32(digits[S]()))
}

// Float64 is lossy and only meant for metrics.
func (d Decimal[S]) Float64() float64 {
	f, _ := d.human().Float64()
	return f
}

// ParseHuman reads a value with a decimal point, such as "0.01". Digits past
// the scale are rejected, never rounded.
func ParseHuman[S Scale](s string) (Decimal[S], error) {
	x, err := dec.NewFromString(s)
	if err != nil {
		return Decimal[S]{}, errors.Wrapf(err, "parse %q", s)
	}
	if x.Sign() < 0 {
		return Decimal[S]{}, errors.Newf("parse %q: negative value", s)
	}
	shifted := x.Shift(int32(digits[S]()))
	if !shifted.IsInteger() {
		return Decimal[S]{}, errors.Wrapf(ErrPrecision, "parse %q", s)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return Decimal[S]{}, errors.Newf("parse %q: value out of range", s)
	}
	return New[S](v)
}

// MarshalWithEncoder writes the raw value little-endian at the type's width.
func (d Decimal[S]) MarshalWithEncoder(encoder *bin.Encoder) error {
	buf := make([]byte, width[S]()/8)
	for i := 0; i < len(buf)/8; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], d.v[i])
	}
	_, err := encoder.Write(buf)
	return err
}

func (d *Decimal[S]) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	buf, err := decoder.ReadNBytes(int(width[S]() / 8))
	if err != nil {
		return err
	}
	d.v.Clear()
	for i := 0; i < len(buf)/8; i++ {
		d.v[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return nil
}

// MarshalJSON writes the raw integer as a quoted string so JSON consumers
// never round it through a float.
func (d Decimal[S]) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, d.v.Dec()), nil
}

func (d *Decimal[S]) UnmarshalJSON(b []byte) error {
	raw, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.Wrap(err, "decimal: expected a quoted integer")
	}
	v, err := Parse[S](raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
