package router

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/metrics"
)

const DefaultMaxHops = 3

var ErrNoRoute = errors.New("no route")

// Quoter simulates a multi-hop swap without effects.
type Quoter interface {
	QuoteRoute(env domain.Env, amountIn decimal.TokenAmount, hops []domain.SwapHop) (decimal.TokenAmount, error)
}

// PoolSource pages through the engine's pool keys.
type PoolSource interface {
	GetPoolKeysCount() int
	GetPools(size, offset int) []domain.PoolKey
}

type Route struct {
	Hops      []domain.SwapHop    `json:"hops"`
	AmountIn  decimal.TokenAmount `json:"amountIn"`
	AmountOut decimal.TokenAmount `json:"amountOut"`
}

type Router struct {
	graph   *Graph
	quoter  Quoter
	maxHops int
}

func NewRouter(graph *Graph, quoter Quoter) *Router {
	return &Router{graph: graph, quoter: quoter, maxHops: DefaultMaxHops}
}

func (r *Router) SetMaxHops(n int) {
	r.maxHops = n
}

const refreshPage = 256

// Refresh rebuilds the graph from every pool src knows.
func (r *Router) Refresh(src PoolSource) {
	total := src.GetPoolKeysCount()
	keys := make([]domain.PoolKey, 0, total)
	for offset := 0; offset < total; offset += refreshPage {
		keys = append(keys, src.GetPools(refreshPage, offset)...)
	}
	r.graph.Rebuild(keys)
}

// BestRoute quotes every candidate route from input to output and returns
// the one paying the most. Routes whose quote fails are skipped; ErrNoRoute
// wraps the last failure when none succeeds.
func (r *Router) BestRoute(env domain.Env, input, output domain.Address, amountIn decimal.TokenAmount) (Route, error) {
	var (
		best    Route
		found   bool
		lastErr error
		tried   int
	)
	for _, path := range r.graph.FindPaths(input, output, r.maxHops) {
		for _, hops := range r.graph.expand(path, MaxCandidates-tried) {
			tried++
			out, err := r.quoter.QuoteRoute(env, amountIn, hops)
			if err != nil {
				lastErr = err
				continue
			}
			// ties keep the shorter, earlier route
			if !found || out.Gt(best.AmountOut) {
				best = Route{Hops: hops, AmountIn: amountIn, AmountOut: out}
				found = true
			}
		}
		if tried >= MaxCandidates {
			break
		}
	}
	metrics.RouteCandidates.Observe(float64(tried))
	if !found {
		if lastErr != nil {
			return Route{}, errors.Mark(errors.Wrapf(lastErr, "%d candidates", tried), ErrNoRoute)
		}
		return Route{}, errors.Wrapf(ErrNoRoute, "%s to %s", input, output)
	}
	return best, nil
}
