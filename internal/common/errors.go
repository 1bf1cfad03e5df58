// Package common provides shared utilities used across all features
package common

import (
	"github.com/cockroachdb/errors"
)

// Code is the stable numeric identifier of a protocol error.
type Code uint8

const (
	CodeOK Code = iota
	CodeNotAdmin
	CodeNotFeeReceiver
	CodePoolAlreadyExist
	CodePoolNotFound
	CodeTickAlreadyExist
	CodeInvalidTickIndexOrTickSpacing
	CodePositionNotFound
	CodeTickNotFound
	CodeFeeTierNotFound
	CodePoolKeyNotFound
	CodeAmountIsZero
	CodeWrongLimit
	CodePriceLimitReached
	CodeNoGainSwap
	CodeInvalidTickSpacing
	CodeFeeTierAlreadyExist
	CodePoolKeyAlreadyExist
	CodeUnauthorizedFeeReceiver
	CodeZeroLiquidity
	CodeTransferError
	CodeTokensAreSame
	CodeAmountUnderMinimumAmountOut
	CodeInvalidFee
	CodeNotEmptyTickDeinitialization
	CodeInvalidInitTick
	CodeInvalidInitSqrtPrice
	CodeTickLimitReached
	CodeInsufficientLiquidity
	CodeEmptyPositionPokes
	CodeInvalidTickLiquidity
	CodeTickOverBounds
	CodeSqrtPriceOutOfBounds
	CodeComputation
)

var (
	ErrNotAdmin                      = errors.New("not admin")
	ErrNotFeeReceiver                = errors.New("not fee receiver")
	ErrUnauthorizedFeeReceiver       = errors.New("unauthorized fee receiver")
	ErrPoolAlreadyExist              = errors.New("pool already exist")
	ErrPoolNotFound                  = errors.New("pool not found")
	ErrTickAlreadyExist              = errors.New("tick already exist")
	ErrTickNotFound                  = errors.New("tick not found")
	ErrFeeTierAlreadyExist           = errors.New("fee tier already exist")
	ErrFeeTierNotFound               = errors.New("fee tier not found")
	ErrPoolKeyAlreadyExist           = errors.New("pool key already exist")
	ErrPoolKeyNotFound               = errors.New("pool key not found")
	ErrPositionNotFound              = errors.New("position not found")
	ErrInvalidTickSpacing            = errors.New("invalid tick spacing")
	ErrInvalidFee                    = errors.New("invalid fee")
	ErrInvalidTickIndexOrTickSpacing = errors.New("invalid tick index or tick spacing")
	ErrInvalidInitTick               = errors.New("invalid init tick")
	ErrInvalidInitSqrtPrice          = errors.New("invalid init sqrt price")
	ErrTokensAreSame                 = errors.New("tokens are same")
	ErrAmountIsZero                  = errors.New("amount is zero")
	ErrWrongLimit                    = errors.New("wrong limit")
	ErrZeroLiquidity                 = errors.New("zero liquidity")
	ErrNotEmptyTickDeinitialization  = errors.New("not empty tick deinitialization")
	ErrPriceLimitReached             = errors.New("price limit reached")
	ErrNoGainSwap                    = errors.New("no gain swap")
	ErrAmountUnderMinimumAmountOut   = errors.New("amount under minimum amount out")
	ErrTickLimitReached              = errors.New("tick limit reached")
	ErrTransferError                 = errors.New("transfer error")
	ErrInsufficientLiquidity         = errors.New("insufficient liquidity")
	ErrEmptyPositionPokes            = errors.New("empty position pokes")
	ErrInvalidTickLiquidity          = errors.New("invalid tick liquidity")
	ErrTickOverBounds                = errors.New("tick over bounds")
	ErrSqrtPriceOutOfBounds          = errors.New("sqrt price out of bounds")
	ErrComputation                   = errors.New("computation failed")
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrNotAdmin, CodeNotAdmin},
	{ErrNotFeeReceiver, CodeNotFeeReceiver},
	{ErrUnauthorizedFeeReceiver, CodeUnauthorizedFeeReceiver},
	{ErrPoolAlreadyExist, CodePoolAlreadyExist},
	{ErrPoolNotFound, CodePoolNotFound},
	{ErrTickAlreadyExist, CodeTickAlreadyExist},
	{ErrTickNotFound, CodeTickNotFound},
	{ErrFeeTierAlreadyExist, CodeFeeTierAlreadyExist},
	{ErrFeeTierNotFound, CodeFeeTierNotFound},
	{ErrPoolKeyAlreadyExist, CodePoolKeyAlreadyExist},
	{ErrPoolKeyNotFound, CodePoolKeyNotFound},
	{ErrPositionNotFound, CodePositionNotFound},
	{ErrInvalidTickSpacing, CodeInvalidTickSpacing},
	{ErrInvalidFee, CodeInvalidFee},
	{ErrInvalidTickIndexOrTickSpacing, CodeInvalidTickIndexOrTickSpacing},
	{ErrInvalidInitTick, CodeInvalidInitTick},
	{ErrInvalidInitSqrtPrice, CodeInvalidInitSqrtPrice},
	{ErrTokensAreSame, CodeTokensAreSame},
	{ErrAmountIsZero, CodeAmountIsZero},
	{ErrWrongLimit, CodeWrongLimit},
	{ErrZeroLiquidity, CodeZeroLiquidity},
	{ErrNotEmptyTickDeinitialization, CodeNotEmptyTickDeinitialization},
	{ErrPriceLimitReached, CodePriceLimitReached},
	{ErrNoGainSwap, CodeNoGainSwap},
	{ErrAmountUnderMinimumAmountOut, CodeAmountUnderMinimumAmountOut},
	{ErrTickLimitReached, CodeTickLimitReached},
	{ErrTransferError, CodeTransferError},
	{ErrInsufficientLiquidity, CodeInsufficientLiquidity},
	{ErrEmptyPositionPokes, CodeEmptyPositionPokes},
	{ErrInvalidTickLiquidity, CodeInvalidTickLiquidity},
	{ErrTickOverBounds, CodeTickOverBounds},
	{ErrSqrtPriceOutOfBounds, CodeSqrtPriceOutOfBounds},
	{ErrComputation, CodeComputation},
}

// CodeOf returns the code of the first protocol error found in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeComputation
}

// IsProtocolError reports whether err carries one of the protocol sentinels.
func IsProtocolError(err error) bool {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return true
		}
	}
	return false
}

// Boundary converts an error leaving an entry point: protocol errors pass
// through and anything else is marked as ErrComputation, keeping its chain.
func Boundary(err error) error {
	if err == nil || IsProtocolError(err) {
		return err
	}
	return errors.Mark(err, ErrComputation)
}
