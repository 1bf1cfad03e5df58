package router

import (
	"bytes"
	"slices"
	"sync"

	"github.com/hxuan190/clamm-engine/internal/domain"
)

// MaxPoolsPerPair limits pools per token pair for faster routing
const MaxPoolsPerPair = 5

type adjMap = map[domain.Address]map[domain.Address][]domain.PoolKey

// Graph is the token graph of the engine's pools: one edge per pool,
// usable in both directions.
type Graph struct {
	mu  sync.RWMutex
	adj adjMap
}

func NewGraph() *Graph {
	return &Graph{adj: make(adjMap)}
}

func (g *Graph) link(from, to domain.Address, key domain.PoolKey) {
	next, ok := g.adj[from]
	if !ok {
		next = make(map[domain.Address][]domain.PoolKey)
		g.adj[from] = next
	}
	if len(next[to]) < MaxPoolsPerPair && !slices.Contains(next[to], key) {
		next[to] = append(next[to], key)
	}
}

// AddPool makes key's pair routable.
func (g *Graph) AddPool(key domain.PoolKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.link(key.TokenX, key.TokenY, key)
	g.link(key.TokenY, key.TokenX, key)
}

// Rebuild replaces the graph with keys.
func (g *Graph) Rebuild(keys []domain.PoolKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adj = make(adjMap)
	for _, key := range keys {
		g.link(key.TokenX, key.TokenY, key)
		g.link(key.TokenY, key.TokenX, key)
	}
}

// Pools returns the pools joining a and b.
func (g *Graph) Pools(a, b domain.Address) []domain.PoolKey {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.adj[a][b])
}

func (g *Graph) TokenCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adj)
}

// neighbors lists the tokens one pool away from t in address order, so
// searches are deterministic. Callers hold the read lock.
func (g *Graph) neighbors(t domain.Address) []domain.Address {
	out := make([]domain.Address, 0, len(g.adj[t]))
	for n := range g.adj[t] {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b domain.Address) int { return bytes.Compare(a[:], b[:]) })
	return out
}
