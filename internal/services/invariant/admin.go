package invariant

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

func (c *call) requireAdmin() error {
	if c.env.Caller != c.txn.Config().Admin {
		return errors.Wrapf(common.ErrNotAdmin, "caller %s", c.env.Caller)
	}
	return nil
}

func (s *Invariant) AddFeeTier(env domain.Env, tier domain.FeeTier) error {
	return s.execute("add_fee_tier", env, func(c *call) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		tier, err := domain.NewFeeTier(tier.Fee, tier.TickSpacing)
		if err != nil {
			return err
		}
		c.reshaped = true
		return c.txn.AddFeeTier(tier)
	})
}

// RemoveFeeTier stops new pools on tier. Pools already created keep it.
func (s *Invariant) RemoveFeeTier(env domain.Env, tier domain.FeeTier) error {
	return s.execute("remove_fee_tier", env, func(c *call) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		c.reshaped = true
		return c.txn.RemoveFeeTier(tier)
	})
}

func (s *Invariant) ChangeProtocolFee(env domain.Env, fee decimal.Percentage) error {
	return s.execute("change_protocol_fee", env, func(c *call) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		if fee.Gt(decimal.One[decimal.PercentageScale]()) {
			return errors.Wrapf(common.ErrInvalidFee, "protocol fee %s", fee)
		}
		cfg := c.txn.Config()
		cfg.ProtocolFee = fee
		c.txn.SetConfig(cfg)
		return nil
	})
}

// ChangeFeeReceiver hands a pool's protocol fee to receiver.
func (s *Invariant) ChangeFeeReceiver(env domain.Env, key domain.PoolKey, receiver domain.Address) error {
	return s.execute("change_fee_receiver", env, func(c *call) error {
		if err := c.requireAdmin(); err != nil {
			return err
		}
		if receiver.IsZero() {
			return errors.Wrap(common.ErrUnauthorizedFeeReceiver, "zero address")
		}
		pool, err := c.txn.Pool(key)
		if err != nil {
			return err
		}
		pool.FeeReceiver = receiver
		return c.txn.UpdatePool(key, pool)
	})
}

// WithdrawProtocolFee pays the pool's protocol share to its fee receiver.
func (s *Invariant) WithdrawProtocolFee(env domain.Env, key domain.PoolKey) (x, y decimal.TokenAmount, err error) {
	err = s.execute("withdraw_protocol_fee", env, func(c *call) error {
		pool, err := c.txn.Pool(key)
		if err != nil {
			return err
		}
		if pool.FeeReceiver != c.env.Caller {
			return errors.Wrapf(common.ErrNotFeeReceiver, "caller %s", c.env.Caller)
		}
		x, y = pool.WithdrawProtocolFee()
		if err := c.txn.UpdatePool(key, pool); err != nil {
			return err
		}
		c.push(key.TokenX, pool.FeeReceiver, x)
		c.push(key.TokenY, pool.FeeReceiver, y)
		return nil
	})
	return x, y, err
}

// CreatePool opens the pool of two tokens on a registered fee tier. The
// initial price must be exactly the price of initTick.
func (s *Invariant) CreatePool(
	env domain.Env,
	token0, token1 domain.Address,
	tier domain.FeeTier,
	initSqrtPrice decimal.SqrtPrice,
	initTick int32,
) (domain.PoolKey, error) {
	var key domain.PoolKey
	err := s.execute("create_pool", env, func(c *call) error {
		if !c.txn.FeeTierExists(tier) {
			return errors.Wrapf(common.ErrFeeTierNotFound, "fee tier %s", tier)
		}
		if clamm.CheckTick(initTick, tier.TickSpacing) != nil {
			return errors.Wrapf(common.ErrInvalidInitTick, "tick %d spacing %d", initTick, tier.TickSpacing)
		}

		var err error
		if key, err = domain.NewPoolKey(token0, token1, tier); err != nil {
			return err
		}
		expected, err := clamm.CalculateSqrtPrice(initTick)
		if err != nil {
			return err
		}
		if !expected.Eq(initSqrtPrice) {
			return errors.Wrapf(common.ErrInvalidInitSqrtPrice, "tick %d has sqrt price %s, got %s",
				initTick, expected.RawString(), initSqrtPrice.RawString())
		}

		pool, err := domain.NewPool(initTick, c.env.Timestamp, c.txn.Config().Admin)
		if err != nil {
			return err
		}
		if err := c.txn.AddPool(key, pool); err != nil {
			return err
		}
		c.reshaped = true
		return c.txn.AddPoolKey(key)
	})
	if err != nil {
		return domain.PoolKey{}, err
	}
	s.logger.Info().Str("pool", key.IDString()).Int32("tick", initTick).Msg("[invariant] pool created")
	return key, nil
}
