package storage

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/domain"
)

type PoolRecord struct {
	Key  domain.PoolKey `json:"key"`
	Pool domain.Pool    `json:"pool"`
}

type TickRecord struct {
	Pool domain.PoolKey `json:"pool"`
	Tick domain.Tick    `json:"tick"`
}

type PositionList struct {
	Owner     domain.Address    `json:"owner"`
	Positions []domain.Position `json:"positions"`
}

// Snapshot is a full, ordered copy of the committed state. The tickmap is
// not part of it; Restore rebuilds it from the ticks.
type Snapshot struct {
	Config    domain.Config     `json:"config"`
	FeeTiers  []domain.FeeTier  `json:"feeTiers"`
	PoolKeys  []domain.PoolKey  `json:"poolKeys"`
	Pools     []PoolRecord      `json:"pools"`
	Ticks     []TickRecord      `json:"ticks"`
	Positions []PositionList    `json:"positions"`
}

func comparePoolKeys(a, b domain.PoolKey) int {
	ia, ib := a.ID(), b.ID()
	return bytes.Compare(ia[:], ib[:])
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Config:   s.config,
		FeeTiers: slices.Clone(s.feeTiers),
		PoolKeys: slices.Clone(s.poolKeys),
	}
	for k, p := range s.pools {
		snap.Pools = append(snap.Pools, PoolRecord{Key: k, Pool: p})
	}
	slices.SortFunc(snap.Pools, func(a, b PoolRecord) int { return comparePoolKeys(a.Key, b.Key) })

	for k, t := range s.ticks {
		snap.Ticks = append(snap.Ticks, TickRecord{Pool: k.Pool, Tick: t})
	}
	slices.SortFunc(snap.Ticks, func(a, b TickRecord) int {
		if c := comparePoolKeys(a.Pool, b.Pool); c != 0 {
			return c
		}
		return cmp.Compare(a.Tick.Index, b.Tick.Index)
	})

	for owner, list := range s.positions {
		snap.Positions = append(snap.Positions, PositionList{Owner: owner, Positions: slices.Clone(list)})
	}
	slices.SortFunc(snap.Positions, func(a, b PositionList) int {
		return bytes.Compare(a.Owner[:], b.Owner[:])
	})
	return snap
}

// Restore builds a State from a snapshot, checking that every tick and
// position refers to a known pool.
func Restore(snap Snapshot) (*State, error) {
	s := New(snap.Config)
	s.feeTiers = slices.Clone(snap.FeeTiers)
	s.poolKeys = slices.Clone(snap.PoolKeys)
	for _, r := range snap.Pools {
		s.pools[r.Key] = r.Pool
	}

	txn := s.Begin()
	for _, r := range snap.Ticks {
		if _, ok := s.pools[r.Pool]; !ok {
			return nil, errors.Newf("restore: tick %d of unknown pool %s", r.Tick.Index, r.Pool)
		}
		if err := txn.AddTick(r.Pool, r.Tick); err != nil {
			return nil, errors.Wrap(err, "restore")
		}
	}
	for _, l := range snap.Positions {
		for _, p := range l.Positions {
			if _, ok := s.pools[p.PoolKey]; !ok {
				return nil, errors.Newf("restore: position of %s in unknown pool %s", l.Owner, p.PoolKey)
			}
			txn.AddPosition(l.Owner, p)
		}
	}
	txn.Commit()
	return s, nil
}
