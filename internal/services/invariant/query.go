package invariant

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/storage"
)

// read gives fn a transaction over the committed state that is never
// committed.
func (s *Invariant) read(fn func(txn *storage.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return common.Boundary(fn(s.state.Begin()))
}

func (s *Invariant) GetProtocolFee() decimal.Percentage {
	var fee decimal.Percentage
	_ = s.read(func(txn *storage.Txn) error {
		fee = txn.Config().ProtocolFee
		return nil
	})
	return fee
}

func (s *Invariant) GetAdmin() domain.Address {
	var admin domain.Address
	_ = s.read(func(txn *storage.Txn) error {
		admin = txn.Config().Admin
		return nil
	})
	return admin
}

func (s *Invariant) GetFeeTiers() []domain.FeeTier {
	var tiers []domain.FeeTier
	_ = s.read(func(txn *storage.Txn) error {
		tiers = txn.FeeTiers()
		return nil
	})
	return tiers
}

func (s *Invariant) FeeTierExist(tier domain.FeeTier) bool {
	var ok bool
	_ = s.read(func(txn *storage.Txn) error {
		ok = txn.FeeTierExists(tier)
		return nil
	})
	return ok
}

func (s *Invariant) GetPool(token0, token1 domain.Address, tier domain.FeeTier) (domain.Pool, error) {
	var pool domain.Pool
	err := s.read(func(txn *storage.Txn) error {
		key, err := domain.NewPoolKey(token0, token1, tier)
		if err != nil {
			return err
		}
		pool, err = txn.Pool(key)
		return err
	})
	return pool, err
}

// GetPools pages through pool keys in creation order.
func (s *Invariant) GetPools(size, offset int) []domain.PoolKey {
	var keys []domain.PoolKey
	_ = s.read(func(txn *storage.Txn) error {
		keys = txn.PoolKeys(size, offset)
		return nil
	})
	return keys
}

func (s *Invariant) GetPoolKeysCount() int {
	var n int
	_ = s.read(func(txn *storage.Txn) error {
		n = txn.PoolKeysCount()
		return nil
	})
	return n
}

func (s *Invariant) GetTick(key domain.PoolKey, index int32) (domain.Tick, error) {
	var tick domain.Tick
	err := s.read(func(txn *storage.Txn) (err error) {
		tick, err = txn.Tick(key, index)
		return err
	})
	return tick, err
}

func (s *Invariant) IsTickInitialized(key domain.PoolKey, index int32) bool {
	var ok bool
	_ = s.read(func(txn *storage.Txn) error {
		ok = txn.IsTickInitialized(key, index)
		return nil
	})
	return ok
}

func (s *Invariant) GetPosition(owner domain.Address, index uint32) (domain.Position, error) {
	var p domain.Position
	err := s.read(func(txn *storage.Txn) (err error) {
		p, err = txn.Position(owner, index)
		return err
	})
	return p, err
}

func (s *Invariant) GetAllPositions(owner domain.Address) []domain.Position {
	var list []domain.Position
	_ = s.read(func(txn *storage.Txn) error {
		list = txn.Positions(owner)
		return nil
	})
	return list
}

func (s *Invariant) GetPositionCount(owner domain.Address) uint32 {
	var n uint32
	_ = s.read(func(txn *storage.Txn) error {
		n = txn.PositionCount(owner)
		return nil
	})
	return n
}

// SecondsPerLiquidityInside reports the time-per-liquidity the range
// [lower, upper] has spent active, as of now.
func (s *Invariant) SecondsPerLiquidityInside(key domain.PoolKey, lower, upper int32, now uint64) (decimal.SecondsPerLiquidity, error) {
	var out decimal.SecondsPerLiquidity
	err := s.read(func(txn *storage.Txn) error {
		pool, err := txn.Pool(key)
		if err != nil {
			return err
		}
		lowerTick, err := txn.Tick(key, lower)
		if err != nil {
			return err
		}
		upperTick, err := txn.Tick(key, upper)
		if err != nil {
			return err
		}
		if now < pool.LastTimestamp {
			return errors.Newf("seconds per liquidity: %d before last update %d", now, pool.LastTimestamp)
		}
		if err := pool.UpdateSecondsPerLiquidityGlobal(now); err != nil {
			return err
		}
		out = clamm.CalculateSecondsPerLiquidityInside(
			lowerTick.Index, lowerTick.SecondsPerLiquidityOutside,
			upperTick.Index, upperTick.SecondsPerLiquidityOutside,
			pool.CurrentTickIndex,
			pool.SecondsPerLiquidityGlobal,
		)
		return nil
	})
	return out, err
}

// Snapshot copies the committed state.
func (s *Invariant) Snapshot() storage.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

func (s *Invariant) Stats() storage.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stats()
}
