package storage

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

type Txn struct {
	state  *State
	config domain.Config

	// nil until the first write, then a private copy
	feeTiers []domain.FeeTier
	poolKeys []domain.PoolKey

	pools     overlay[domain.PoolKey, domain.Pool]
	ticks     overlay[TickKey, domain.Tick]
	bitmap    overlay[ChunkKey, uint64]
	positions overlay[domain.Address, []domain.Position]
}

// Commit publishes every buffered write. A Txn must not be used afterwards.
func (t *Txn) Commit() {
	s := t.state
	s.config = t.config
	if t.feeTiers != nil {
		s.feeTiers = t.feeTiers
	}
	if t.poolKeys != nil {
		s.poolKeys = t.poolKeys
	}
	t.pools.commit()
	t.ticks.commit()
	t.bitmap.commit()
	t.positions.commit()
}

func (t *Txn) Config() domain.Config { return t.config }

func (t *Txn) SetConfig(c domain.Config) { t.config = c }

func (t *Txn) FeeTiers() []domain.FeeTier {
	if t.feeTiers != nil {
		return slices.Clone(t.feeTiers)
	}
	return slices.Clone(t.state.feeTiers)
}

func (t *Txn) FeeTierExists(tier domain.FeeTier) bool {
	return slices.Contains(t.FeeTiers(), tier)
}

func (t *Txn) AddFeeTier(tier domain.FeeTier) error {
	tiers := t.FeeTiers()
	if slices.Contains(tiers, tier) {
		return errors.Wrapf(common.ErrFeeTierAlreadyExist, "fee tier %s", tier)
	}
	t.feeTiers = append(tiers, tier)
	return nil
}

func (t *Txn) RemoveFeeTier(tier domain.FeeTier) error {
	tiers := t.FeeTiers()
	i := slices.Index(tiers, tier)
	if i < 0 {
		return errors.Wrapf(common.ErrFeeTierNotFound, "fee tier %s", tier)
	}
	t.feeTiers = slices.Delete(tiers, i, i+1)
	return nil
}

func (t *Txn) poolKeyList() []domain.PoolKey {
	if t.poolKeys != nil {
		return t.poolKeys
	}
	return t.state.poolKeys
}

func (t *Txn) AddPoolKey(key domain.PoolKey) error {
	keys := t.poolKeyList()
	if slices.Contains(keys, key) {
		return errors.Wrapf(common.ErrPoolKeyAlreadyExist, "pool %s", key)
	}
	t.poolKeys = append(slices.Clip(keys), key)
	return nil
}

// PoolKeys returns up to size keys starting at offset, in creation order.
func (t *Txn) PoolKeys(size, offset int) []domain.PoolKey {
	keys := t.poolKeyList()
	if offset < 0 || offset >= len(keys) || size <= 0 {
		return []domain.PoolKey{}
	}
	end := min(offset+size, len(keys))
	return slices.Clone(keys[offset:end])
}

func (t *Txn) PoolKeysCount() int { return len(t.poolKeyList()) }

func (t *Txn) Pool(key domain.PoolKey) (domain.Pool, error) {
	p, ok := t.pools.get(key)
	if !ok {
		return domain.Pool{}, errors.Wrapf(common.ErrPoolNotFound, "pool %s", key)
	}
	return p, nil
}

func (t *Txn) AddPool(key domain.PoolKey, p domain.Pool) error {
	if _, ok := t.pools.get(key); ok {
		return errors.Wrapf(common.ErrPoolAlreadyExist, "pool %s", key)
	}
	t.pools.set(key, p)
	return nil
}

func (t *Txn) UpdatePool(key domain.PoolKey, p domain.Pool) error {
	if _, ok := t.pools.get(key); !ok {
		return errors.Wrapf(common.ErrPoolNotFound, "pool %s", key)
	}
	t.pools.set(key, p)
	return nil
}

func (t *Txn) Tick(key domain.PoolKey, index int32) (domain.Tick, error) {
	tick, ok := t.ticks.get(TickKey{key, index})
	if !ok {
		return domain.Tick{}, errors.Wrapf(common.ErrTickNotFound, "tick %d in pool %s", index, key)
	}
	return tick, nil
}

// AddTick stores a new tick and marks it in the tickmap.
func (t *Txn) AddTick(key domain.PoolKey, tick domain.Tick) error {
	k := TickKey{key, tick.Index}
	if _, ok := t.ticks.get(k); ok {
		return errors.Wrapf(common.ErrTickAlreadyExist, "tick %d in pool %s", tick.Index, key)
	}
	if err := t.Flip(true, tick.Index, key.FeeTier.TickSpacing, key); err != nil {
		return err
	}
	t.ticks.set(k, tick)
	return nil
}

func (t *Txn) UpdateTick(key domain.PoolKey, tick domain.Tick) error {
	k := TickKey{key, tick.Index}
	if _, ok := t.ticks.get(k); !ok {
		return errors.Wrapf(common.ErrTickNotFound, "tick %d in pool %s", tick.Index, key)
	}
	t.ticks.set(k, tick)
	return nil
}

// RemoveTick deletes a tick that no position references any more.
func (t *Txn) RemoveTick(key domain.PoolKey, tick domain.Tick) error {
	if !tick.LiquidityGross.IsZero() {
		return errors.Wrapf(common.ErrNotEmptyTickDeinitialization, "tick %d in pool %s", tick.Index, key)
	}
	k := TickKey{key, tick.Index}
	if _, ok := t.ticks.get(k); !ok {
		return errors.Wrapf(common.ErrTickNotFound, "tick %d in pool %s", tick.Index, key)
	}
	if err := t.Flip(false, tick.Index, key.FeeTier.TickSpacing, key); err != nil {
		return err
	}
	t.ticks.del(k)
	return nil
}

func (t *Txn) positionList(owner domain.Address) []domain.Position {
	list, _ := t.positions.get(owner)
	return list
}

func (t *Txn) Position(owner domain.Address, index uint32) (domain.Position, error) {
	list := t.positionList(owner)
	if int(index) >= len(list) {
		return domain.Position{}, errors.Wrapf(common.ErrPositionNotFound, "position %d of %s", index, owner)
	}
	return list[index], nil
}

func (t *Txn) Positions(owner domain.Address) []domain.Position {
	return slices.Clone(t.positionList(owner))
}

func (t *Txn) PositionCount(owner domain.Address) uint32 {
	return uint32(len(t.positionList(owner)))
}

// AddPosition appends to the owner's list and returns the new index.
func (t *Txn) AddPosition(owner domain.Address, p domain.Position) uint32 {
	list := append(slices.Clone(t.positionList(owner)), p)
	t.positions.set(owner, list)
	return uint32(len(list) - 1)
}

func (t *Txn) UpdatePosition(owner domain.Address, index uint32, p domain.Position) error {
	list := t.positionList(owner)
	if int(index) >= len(list) {
		return errors.Wrapf(common.ErrPositionNotFound, "position %d of %s", index, owner)
	}
	list = slices.Clone(list)
	list[index] = p
	t.positions.set(owner, list)
	return nil
}

// RemovePosition swaps the last position into index and truncates, so the
// position that was last now lives at index.
func (t *Txn) RemovePosition(owner domain.Address, index uint32) (domain.Position, error) {
	list := t.positionList(owner)
	if int(index) >= len(list) {
		return domain.Position{}, errors.Wrapf(common.ErrPositionNotFound, "position %d of %s", index, owner)
	}
	removed := list[index]
	list = slices.Clone(list)
	last := len(list) - 1
	list[index] = list[last]
	if last == 0 {
		t.positions.del(owner)
	} else {
		t.positions.set(owner, list[:last])
	}
	return removed, nil
}

// TransferPosition moves a position to the end of receiver's list.
func (t *Txn) TransferPosition(owner domain.Address, index uint32, receiver domain.Address) error {
	p, err := t.RemovePosition(owner, index)
	if err != nil {
		return err
	}
	t.AddPosition(receiver, p)
	return nil
}
