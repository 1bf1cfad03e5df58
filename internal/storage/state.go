// Package storage keeps the engine's committed state and the transactions
// that change it. A Txn buffers every write; nothing reaches the State until
// Commit, so an entry point that fails part way leaves no trace.
package storage

import (
	"github.com/hxuan190/clamm-engine/internal/domain"
)

type TickKey struct {
	Pool  domain.PoolKey
	Index int32
}

type ChunkKey struct {
	Pool  domain.PoolKey
	Chunk uint16
}

type State struct {
	config    domain.Config
	feeTiers  []domain.FeeTier
	poolKeys  []domain.PoolKey
	pools     map[domain.PoolKey]domain.Pool
	ticks     map[TickKey]domain.Tick
	bitmap    map[ChunkKey]uint64
	positions map[domain.Address][]domain.Position
}

func New(config domain.Config) *State {
	return &State{
		config:    config,
		pools:     map[domain.PoolKey]domain.Pool{},
		ticks:     map[TickKey]domain.Tick{},
		bitmap:    map[ChunkKey]uint64{},
		positions: map[domain.Address][]domain.Position{},
	}
}

// Begin opens a transaction. Transactions are not safe for concurrent use
// and the caller serializes them against each other.
func (s *State) Begin() *Txn {
	return &Txn{
		state:     s,
		config:    s.config,
		pools:     newOverlay(s.pools),
		ticks:     newOverlay(s.ticks),
		bitmap:    newOverlay(s.bitmap),
		positions: newOverlay(s.positions),
	}
}

// Stats is a cheap summary for metrics.
type Stats struct {
	Pools     int
	Ticks     int
	Positions int
	FeeTiers  int
}

func (s *State) Stats() Stats {
	st := Stats{Pools: len(s.pools), Ticks: len(s.ticks), FeeTiers: len(s.feeTiers)}
	for _, list := range s.positions {
		st.Positions += len(list)
	}
	return st
}
