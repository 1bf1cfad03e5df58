package invariant

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

// boundary is a position's tick as loaded for one call.
type boundary struct {
	tick  domain.Tick
	fresh bool
}

func (c *call) loadOrCreateTick(key domain.PoolKey, index int32, pool *domain.Pool) (boundary, error) {
	tick, err := c.txn.Tick(key, index)
	if err == nil {
		return boundary{tick: tick}, nil
	}
	if !errors.Is(err, common.ErrTickNotFound) {
		return boundary{}, err
	}
	tick, err = domain.NewTick(index, pool, c.env.Timestamp)
	if err != nil {
		return boundary{}, err
	}
	return boundary{tick: tick, fresh: true}, nil
}

func (c *call) storeTick(key domain.PoolKey, b boundary) error {
	if b.fresh {
		return c.txn.AddTick(key, b.tick)
	}
	return c.txn.UpdateTick(key, b.tick)
}

// settleTick writes a boundary back, dropping it once nothing references it.
func (c *call) settleTick(key domain.PoolKey, tick domain.Tick, free bool) error {
	if free {
		return c.txn.RemoveTick(key, tick)
	}
	return c.txn.UpdateTick(key, tick)
}

// CreatePosition deposits liquidityDelta on [lowerTick, upperTick] for the
// caller, pulling the backing tokens. The pool price must lie within
// [slippageLower, slippageUpper] when the call runs.
func (s *Invariant) CreatePosition(
	env domain.Env,
	key domain.PoolKey,
	lowerTick, upperTick int32,
	liquidityDelta decimal.Liquidity,
	slippageLower, slippageUpper decimal.SqrtPrice,
) (domain.Position, error) {
	var position domain.Position
	err := s.execute("create_position", env, func(c *call) error {
		if liquidityDelta.IsZero() {
			return errors.WithStack(common.ErrZeroLiquidity)
		}
		if err := clamm.CheckTicks(lowerTick, upperTick, key.FeeTier.TickSpacing); err != nil {
			return err
		}
		pool, err := c.txn.Pool(key)
		if err != nil {
			return err
		}

		lower, err := c.loadOrCreateTick(key, lowerTick, &pool)
		if err != nil {
			return err
		}
		upper, err := c.loadOrCreateTick(key, upperTick, &pool)
		if err != nil {
			return err
		}

		var x, y decimal.TokenAmount
		position, x, y, err = domain.CreatePosition(
			&pool, key, &lower.tick, &upper.tick,
			c.env.Timestamp, liquidityDelta, slippageLower, slippageUpper, c.env.BlockNumber,
		)
		if err != nil {
			return err
		}

		if err := c.txn.UpdatePool(key, pool); err != nil {
			return err
		}
		if err := c.storeTick(key, lower); err != nil {
			return err
		}
		if err := c.storeTick(key, upper); err != nil {
			return err
		}
		c.txn.AddPosition(c.env.Caller, position)
		c.reshaped = true

		c.pull(key.TokenX, x)
		c.pull(key.TokenY, y)
		c.emit(domain.CreatePositionEvent{
			Timestamp:        c.env.Timestamp,
			Address:          c.env.Caller,
			Pool:             key,
			Liquidity:        liquidityDelta,
			LowerTick:        lowerTick,
			UpperTick:        upperTick,
			CurrentSqrtPrice: pool.SqrtPrice,
		})
		return nil
	})
	if err != nil {
		return domain.Position{}, err
	}
	return position, nil
}

// RemovePosition withdraws the caller's position at index with its owed
// fees. The owner's last position takes over index.
func (s *Invariant) RemovePosition(env domain.Env, index uint32) (x, y decimal.TokenAmount, err error) {
	err = s.execute("remove_position", env, func(c *call) error {
		position, err := c.txn.Position(c.env.Caller, index)
		if err != nil {
			return err
		}
		key := position.PoolKey
		withdrawn := position.Liquidity

		pool, err := c.txn.Pool(key)
		if err != nil {
			return err
		}
		lower, err := c.txn.Tick(key, position.LowerTickIndex)
		if err != nil {
			return err
		}
		upper, err := c.txn.Tick(key, position.UpperTickIndex)
		if err != nil {
			return err
		}

		var freeLower, freeUpper bool
		x, y, freeLower, freeUpper, err = position.Remove(&pool, c.env.Timestamp, &lower, &upper)
		if err != nil {
			return err
		}

		if err := c.txn.UpdatePool(key, pool); err != nil {
			return err
		}
		if err := c.settleTick(key, lower, freeLower); err != nil {
			return err
		}
		if err := c.settleTick(key, upper, freeUpper); err != nil {
			return err
		}
		if _, err := c.txn.RemovePosition(c.env.Caller, index); err != nil {
			return err
		}
		c.reshaped = true

		c.push(key.TokenX, c.env.Caller, x)
		c.push(key.TokenY, c.env.Caller, y)
		c.emit(domain.RemovePositionEvent{
			Timestamp:        c.env.Timestamp,
			Address:          c.env.Caller,
			Pool:             key,
			Liquidity:        withdrawn,
			LowerTick:        position.LowerTickIndex,
			UpperTick:        position.UpperTickIndex,
			CurrentSqrtPrice: pool.SqrtPrice,
		})
		return nil
	})
	return x, y, err
}

// TransferPosition moves the caller's position at index to the end of
// receiver's list.
func (s *Invariant) TransferPosition(env domain.Env, index uint32, receiver domain.Address) error {
	return s.execute("transfer_position", env, func(c *call) error {
		return c.txn.TransferPosition(c.env.Caller, index, receiver)
	})
}

// ClaimFee pays out the fees the caller's position at index has earned.
func (s *Invariant) ClaimFee(env domain.Env, index uint32) (x, y decimal.TokenAmount, err error) {
	err = s.execute("claim_fee", env, func(c *call) error {
		position, err := c.txn.Position(c.env.Caller, index)
		if err != nil {
			return err
		}
		key := position.PoolKey

		pool, err := c.txn.Pool(key)
		if err != nil {
			return err
		}
		lower, err := c.txn.Tick(key, position.LowerTickIndex)
		if err != nil {
			return err
		}
		upper, err := c.txn.Tick(key, position.UpperTickIndex)
		if err != nil {
			return err
		}

		if x, y, err = position.ClaimFee(&pool, &upper, &lower, c.env.Timestamp); err != nil {
			return err
		}

		if err := c.txn.UpdatePool(key, pool); err != nil {
			return err
		}
		if err := c.txn.UpdateTick(key, lower); err != nil {
			return err
		}
		if err := c.txn.UpdateTick(key, upper); err != nil {
			return err
		}
		if err := c.txn.UpdatePosition(c.env.Caller, index, position); err != nil {
			return err
		}

		c.push(key.TokenX, c.env.Caller, x)
		c.push(key.TokenY, c.env.Caller, y)
		return nil
	})
	return x, y, err
}
