package clamm

import (
	"math/bits"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

// sqrtPriceLadder[k] is 1.0001^(2^k / 2) at scale 12.
var sqrtPriceLadder = [18]uint64{
	1000049998750,
	1000100000000,
	1000200010000,
	1000400060004,
	1000800280056,
	1001601200560,
	1003204964963,
	1006420201726,
	1012881622442,
	1025929181080,
	1052530684591,
	1107820842005,
	1227267017980,
	1506184333421,
	2268591246242,
	5146506242525,
	26486526504348,
	701536086265529,
}

// CalculateSqrtPrice returns sqrt(1.0001^tick) at scale 24.
func CalculateSqrtPrice(tick int32) (decimal.SqrtPrice, error) {
	abs := tick
	if abs < 0 {
		abs = -abs
	}
	if abs > MaxTick {
		return decimal.SqrtPrice{}, errors.Wrapf(common.ErrTickOverBounds, "calculate_sqrt_price(%d)", tick)
	}

	sqrt := decimal.One[decimal.FixedPointScale]()
	var err error
	for k, m := range sqrtPriceLadder {
		if abs&(1<<k) == 0 {
			continue
		}
		if sqrt, err = sqrt.CheckedMul(decimal.NewFixedPoint(m)); err != nil {
			return decimal.SqrtPrice{}, errors.Wrap(err, "calculate_sqrt_price")
		}
	}
	if tick < 0 {
		if sqrt, err = decimal.One[decimal.FixedPointScale]().CheckedDiv(sqrt); err != nil {
			return decimal.SqrtPrice{}, errors.Wrap(err, "calculate_sqrt_price")
		}
	}
	price, err := decimal.Convert[decimal.SqrtPriceScale](sqrt)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "calculate_sqrt_price")
	}
	return price, nil
}

// GetMaxTick returns the largest multiple of spacing not above MaxTick.
func GetMaxTick(spacing uint16) int32 {
	s := int32(spacing)
	return MaxTick / s * s
}

// GetMinTick returns the smallest multiple of spacing not below MinTick.
func GetMinTick(spacing uint16) int32 {
	return -GetMaxTick(spacing)
}

const (
	log2Scale           = 32
	log2One             = uint64(1) << log2Scale
	log2Half            = log2One >> 1
	log2Two             = log2One << 1
	log2Sqrt10001       = 309801
	log2NegativeMaxLose = 300000
	log2MinBinaryPos    = 15
	log2Accuracy        = uint64(1) << (31 - log2MinBinaryPos)
)

var sqrtPriceDenominator = decimal.One[decimal.SqrtPriceScale]().Raw()

func sqrtPriceToX32(p decimal.SqrtPrice) uint64 {
	v := p.Raw()
	v.Lsh(v, log2Scale)
	v.Div(v, sqrtPriceDenominator)
	return v.Uint64()
}

func log2FloorX32(x uint64) uint64 {
	var msb uint64
	for _, shift := range [...]uint64{32, 16, 8, 4, 2, 1} {
		if x >= uint64(1)<<shift {
			x >>= shift
			msb |= shift
		}
	}
	return msb
}

// log2X32 approximates |log2(x)| for an x32 fixed-point x. The bool is false
// when x < 1.
func log2X32(x uint64) (bool, uint64) {
	positive := true
	if x < log2One {
		positive = false
		// 2^64 / (x+1)
		x, _ = bits.Div64(1, 0, x+1)
	}

	floor := log2FloorX32(x >> log2Scale)
	result := floor << log2Scale
	y := x >> floor
	if y == log2One {
		return positive, result
	}

	for delta := log2Half; delta > log2Accuracy; delta >>= 1 {
		hi, lo := bits.Mul64(y, y)
		y = hi<<(64-log2Scale) | lo>>log2Scale
		if y >= log2Two {
			result |= delta
			y >>= 1
		}
	}
	return positive, result
}

func alignTickToSpacing(tick int32, spacing int32) int32 {
	r := tick % spacing
	if r < 0 {
		r += spacing
	}
	return tick - r
}

// GetTickAtSqrtPrice returns the greatest spacing-aligned tick whose price is
// not above p.
func GetTickAtSqrtPrice(p decimal.SqrtPrice, spacing uint16) (int32, error) {
	if p.Gt(MaxSqrtPrice) || p.Lt(MinSqrtPrice) {
		return 0, errors.Wrapf(common.ErrSqrtPriceOutOfBounds, "get_tick_at_sqrt_price(%s)", p.RawString())
	}
	s := int32(spacing)
	positive, log2 := log2X32(sqrtPriceToX32(p))

	var absFloor int32
	if positive {
		absFloor = int32(log2 / log2Sqrt10001)
	} else {
		absFloor = int32((log2 + log2NegativeMaxLose) / log2Sqrt10001)
	}

	nearer, farther := absFloor, absFloor+1
	if !positive {
		nearer, farther = -absFloor, -absFloor-1
	}
	nearerAligned := alignTickToSpacing(nearer, s)
	fartherAligned := alignTickToSpacing(farther, s)
	if nearerAligned == fartherAligned {
		return nearerAligned, nil
	}

	if positive {
		fartherPrice, err := CalculateSqrtPrice(farther)
		if err != nil {
			return 0, errors.Wrap(err, "get_tick_at_sqrt_price")
		}
		if p.Gte(fartherPrice) {
			return fartherAligned, nil
		}
		return nearerAligned, nil
	}

	nearerPrice, err := CalculateSqrtPrice(nearer)
	if err != nil {
		return 0, errors.Wrap(err, "get_tick_at_sqrt_price")
	}
	if nearerPrice.Lte(p) {
		return nearerAligned, nil
	}
	return fartherAligned, nil
}

// CheckTick validates a single tick index against a spacing.
func CheckTick(tick int32, spacing uint16) error {
	s := int32(spacing)
	if spacing == 0 || tick%s != 0 || tick < GetMinTick(spacing) || tick > GetMaxTick(spacing) {
		return errors.Wrapf(common.ErrInvalidTickIndexOrTickSpacing, "tick %d spacing %d", tick, spacing)
	}
	return nil
}

// CheckTicks validates an ordered tick range.
func CheckTicks(lower, upper int32, spacing uint16) error {
	if lower >= upper {
		return errors.Wrapf(common.ErrInvalidTickIndexOrTickSpacing, "lower %d upper %d", lower, upper)
	}
	if err := CheckTick(lower, spacing); err != nil {
		return err
	}
	return CheckTick(upper, spacing)
}
