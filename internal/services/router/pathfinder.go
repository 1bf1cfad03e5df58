package router

import (
	"slices"

	"github.com/hxuan190/clamm-engine/internal/domain"
)

// MaxPathsToEvaluate limits the number of token paths to evaluate
const MaxPathsToEvaluate = 10

// MaxCandidates caps the pool choices expanded from all token paths.
const MaxCandidates = 64

// FindPaths returns simple token paths from input to output of at most
// maxHops pools, shortest first.
func (g *Graph) FindPaths(input, output domain.Address, maxHops int) [][]domain.Address {
	if input == output || maxHops <= 0 {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	var paths [][]domain.Address
	// breadth-first over partial paths keeps shorter routes ahead
	frontier := [][]domain.Address{{input}}
	for depth := 0; depth < maxHops && len(frontier) > 0; depth++ {
		var next [][]domain.Address
		for _, path := range frontier {
			last := path[len(path)-1]
			for _, n := range g.neighbors(last) {
				if slices.Contains(path, n) {
					continue
				}
				extended := append(slices.Clip(path), n)
				if n == output {
					paths = append(paths, extended)
					if len(paths) == MaxPathsToEvaluate {
						return paths
					}
					continue
				}
				next = append(next, extended)
			}
		}
		frontier = next
	}
	return paths
}

// expand turns a token path into every choice of pool per leg.
func (g *Graph) expand(path []domain.Address, limit int) [][]domain.SwapHop {
	routes := [][]domain.SwapHop{nil}
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		pools := g.Pools(from, to)
		var grown [][]domain.SwapHop
		for _, prefix := range routes {
			for _, key := range pools {
				if len(grown) == limit {
					break
				}
				hop := domain.SwapHop{PoolKey: key, XToY: key.TokenX == from}
				grown = append(grown, append(slices.Clip(prefix), hop))
			}
		}
		routes = grown
	}
	return routes
}
