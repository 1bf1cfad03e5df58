package clamm

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/wideint"
)

var (
	tenPow19 = pow10(19)
	tenPow24 = pow10(24)
	tenPow29 = pow10(29)
)

func pow10(n uint8) wideint.Uint {
	v, err := wideint.Pow10(wideint.U512, n)
	if err != nil {
		panic(err)
	}
	return v
}

func absDiff(a, b decimal.SqrtPrice) decimal.SqrtPrice {
	if a.Gt(b) {
		return a.Sub(b)
	}
	return b.Sub(a)
}

func divRound(n, d wideint.Uint, up bool) (wideint.Uint, error) {
	if up {
		return n.DivUp(d)
	}
	return n.Div(d)
}

// GetDeltaX returns the token x amount L * |1/pa - 1/pb|.
func GetDeltaX(a, b decimal.SqrtPrice, liquidity decimal.Liquidity, up bool) (decimal.TokenAmount, error) {
	// delta*L / (pa*pb) with delta, pa, pb at scale 24 and L at scale 5
	num, err := absDiff(a, b).Wide().Mul(liquidity.Wide())
	if err == nil {
		num, err = num.Mul(tenPow19)
	}
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "get_delta_x")
	}
	den, err := a.Wide().Mul(b.Wide())
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "get_delta_x")
	}
	q, err := divRound(num, den, up)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "get_delta_x")
	}
	amount, err := decimal.FromWide[decimal.TokenAmountScale](q)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(wideint.ErrOverflow, "get_delta_x")
	}
	return amount, nil
}

// GetDeltaY returns the token y amount L * |pa - pb|.
func GetDeltaY(a, b decimal.SqrtPrice, liquidity decimal.Liquidity, up bool) (decimal.TokenAmount, error) {
	num, err := absDiff(a, b).Wide().Mul(liquidity.Wide())
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "get_delta_y")
	}
	q, err := divRound(num, tenPow29, up)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(err, "get_delta_y")
	}
	amount, err := decimal.FromWide[decimal.TokenAmountScale](q)
	if err != nil {
		return decimal.TokenAmount{}, errors.Wrap(wideint.ErrOverflow, "get_delta_y")
	}
	return amount, nil
}

// GetNextSqrtPriceXUp moves the price by adding (or removing) x, rounding
// the new price up: L*p / (L ± x*p).
func GetNextSqrtPriceXUp(p decimal.SqrtPrice, liquidity decimal.Liquidity, x decimal.TokenAmount, add bool) (decimal.SqrtPrice, error) {
	if x.IsZero() {
		return p, nil
	}
	// num = L*p*10^24, den = L*10^24 ± x*p*10^5, both scaled by 10^29
	lp, err := liquidity.Wide().Mul(p.Wide())
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	num, err := lp.Mul(tenPow24)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	lScaled, err := liquidity.Wide().Mul(tenPow24)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	xp, err := x.Wide().Mul(p.Wide())
	if err == nil {
		xp, err = xp.Mul(pow10(5))
	}
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}

	var den wideint.Uint
	if add {
		den, err = lScaled.Add(xp)
	} else {
		den, err = lScaled.Sub(xp)
	}
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	q, err := num.DivUp(den)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	next, err := decimal.FromWide[decimal.SqrtPriceScale](q)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_x_up")
	}
	return next, nil
}

// GetNextSqrtPriceYDown moves the price by adding (or removing) y, rounding
// the new price down: p ± y/L.
func GetNextSqrtPriceYDown(p decimal.SqrtPrice, liquidity decimal.Liquidity, y decimal.TokenAmount, add bool) (decimal.SqrtPrice, error) {
	num, err := y.Wide().Mul(tenPow29)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_y_down")
	}
	// adding rounds the quotient down, removing rounds it up
	q, err := divRound(num, liquidity.Wide(), !add)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_y_down")
	}

	var next wideint.Uint
	if add {
		next, err = p.Wide().Add(q)
	} else {
		next, err = p.Wide().Sub(q)
	}
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_y_down")
	}
	price, err := decimal.FromWide[decimal.SqrtPriceScale](next)
	if err != nil {
		return decimal.SqrtPrice{}, errors.Wrap(err, "get_next_sqrt_price_y_down")
	}
	return price, nil
}

// GetNextSqrtPriceFromInput returns the price after amount is paid in.
func GetNextSqrtPriceFromInput(p decimal.SqrtPrice, liquidity decimal.Liquidity, amount decimal.TokenAmount, xToY bool) (decimal.SqrtPrice, error) {
	if amount.IsZero() {
		return p, nil
	}
	if xToY {
		return GetNextSqrtPriceXUp(p, liquidity, amount, true)
	}
	return GetNextSqrtPriceYDown(p, liquidity, amount, true)
}

// GetNextSqrtPriceFromOutput returns the price after amount is paid out.
func GetNextSqrtPriceFromOutput(p decimal.SqrtPrice, liquidity decimal.Liquidity, amount decimal.TokenAmount, xToY bool) (decimal.SqrtPrice, error) {
	if amount.IsZero() {
		return p, nil
	}
	if xToY {
		return GetNextSqrtPriceYDown(p, liquidity, amount, false)
	}
	return GetNextSqrtPriceXUp(p, liquidity, amount, false)
}
