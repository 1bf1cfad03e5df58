package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
)

type FeeTier struct {
	Fee         decimal.Percentage `json:"fee"`
	TickSpacing uint16             `json:"tickSpacing"`
}

// NewFeeTier validates 1 <= tickSpacing <= 100 and fee <= 1.
func NewFeeTier(fee decimal.Percentage, tickSpacing uint16) (FeeTier, error) {
	if tickSpacing == 0 || tickSpacing > clamm.MaxTickSpacing {
		return FeeTier{}, errors.Wrapf(common.ErrInvalidTickSpacing, "tick spacing %d", tickSpacing)
	}
	if fee.Gt(decimal.One[decimal.PercentageScale]()) {
		return FeeTier{}, errors.Wrapf(common.ErrInvalidFee, "fee %s", fee)
	}
	return FeeTier{Fee: fee, TickSpacing: tickSpacing}, nil
}

func (f FeeTier) String() string {
	return fmt.Sprintf("%s/%d", f.Fee, f.TickSpacing)
}
