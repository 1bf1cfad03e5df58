package config

import (
	"github.com/cockroachdb/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

// DefaultEngineAddress is the account the engine holds pool reserves under
// when INVARIANT_ADDRESS is unset.
const DefaultEngineAddress = "HyaB3W9q6XdA5xwpU4XnSZV94htfmbmqJXZcEbRaJutt"

type EngineConfig struct {
	// Address is the engine's own account in the token ledger.
	Address domain.Address

	// Admin may manage fee tiers and the protocol fee.
	Admin domain.Address

	// ProtocolFee is the share of every swap fee kept by the protocol.
	// Default: "0.01"
	ProtocolFee decimal.Percentage

	// FeeTiers are registered on an empty state, e.g.
	// [{"fee":"0.003","tick_spacing":10}]
	FeeTiers []domain.FeeTier
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	var err error
	if c.Address, err = solana.PublicKeyFromBase58(GetEnvOrDefault("INVARIANT_ADDRESS", DefaultEngineAddress)); err != nil {
		return errors.Wrap(err, "invalid engine config: INVARIANT_ADDRESS")
	}
	admin := GetEnvOrDefault("INVARIANT_ADMIN", "")
	if admin == "" {
		return errors.New("invalid engine config: INVARIANT_ADMIN is required")
	}
	if c.Admin, err = solana.PublicKeyFromBase58(admin); err != nil {
		return errors.Wrap(err, "invalid engine config: INVARIANT_ADMIN")
	}
	if c.ProtocolFee, err = decimal.ParseHuman[decimal.PercentageScale](GetEnvOrDefault("INVARIANT_PROTOCOL_FEE", "0.01")); err != nil {
		return errors.Wrap(err, "invalid engine config: INVARIANT_PROTOCOL_FEE")
	}
	if c.FeeTiers, err = ParseFeeTiers(GetEnvOrDefault("INVARIANT_FEE_TIERS", "[]")); err != nil {
		return errors.Wrap(err, "invalid engine config: INVARIANT_FEE_TIERS")
	}
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.Admin.IsZero() {
		return errors.New("invalid engine config: zero admin")
	}
	if c.Address == c.Admin {
		return errors.New("invalid engine config: engine address equals admin")
	}
	if c.ProtocolFee.Gt(decimal.One[decimal.PercentageScale]()) {
		return errors.Newf("invalid engine config: protocol fee %s above 1", c.ProtocolFee)
	}
	for _, tier := range c.FeeTiers {
		if _, err := domain.NewFeeTier(tier.Fee, tier.TickSpacing); err != nil {
			return errors.Wrap(err, "invalid engine config")
		}
	}
	return nil
}

// ParseFeeTiers reads a JSON array of {"fee": "<decimal>", "tick_spacing": n}.
func ParseFeeTiers(raw string) ([]domain.FeeTier, error) {
	if !gjson.Valid(raw) {
		return nil, errors.Newf("malformed JSON %q", raw)
	}
	list := gjson.Parse(raw)
	if !list.IsArray() {
		return nil, errors.Newf("expected an array, got %s", list.Type)
	}

	var tiers []domain.FeeTier
	var err error
	list.ForEach(func(i, entry gjson.Result) bool {
		fee, spacing := entry.Get("fee"), entry.Get("tick_spacing")
		if !fee.Exists() || !spacing.Exists() {
			err = errors.Newf("tier %d: fee and tick_spacing are required", i.Int())
			return false
		}
		if spacing.Int() <= 0 || spacing.Int() > 0xffff {
			err = errors.Newf("tier %d: tick spacing %s", i.Int(), spacing.Raw)
			return false
		}
		var p decimal.Percentage
		if p, err = decimal.ParseHuman[decimal.PercentageScale](fee.String()); err != nil {
			err = errors.Wrapf(err, "tier %d", i.Int())
			return false
		}
		var tier domain.FeeTier
		if tier, err = domain.NewFeeTier(p, uint16(spacing.Int())); err != nil {
			err = errors.Wrapf(err, "tier %d", i.Int())
			return false
		}
		tiers = append(tiers, tier)
		return true
	})
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
