package router

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/services/invariant"
	"github.com/hxuan190/clamm-engine/internal/token"
)

func addr(b byte) domain.Address {
	var a solana.PublicKey
	a[0] = b
	return a
}

var (
	tokenA = addr(10)
	tokenB = addr(11)
	tokenC = addr(12)
	tokenD = addr(13)

	tier   = domain.FeeTier{Fee: decimal.NewPercentage(6_000_000_000), TickSpacing: 10}
	cheap  = domain.FeeTier{Fee: decimal.NewPercentage(1_000_000_000), TickSpacing: 1}
	amount = decimal.NewTokenAmount(1_000)
)

func key(t *testing.T, a, b domain.Address, ft domain.FeeTier) domain.PoolKey {
	t.Helper()
	k, err := domain.NewPoolKey(a, b, ft)
	require.NoError(t, err)
	return k
}

func TestFindPaths(t *testing.T) {
	g := NewGraph()
	g.AddPool(key(t, tokenA, tokenB, tier))
	g.AddPool(key(t, tokenB, tokenC, tier))
	g.AddPool(key(t, tokenA, tokenC, tier))
	g.AddPool(key(t, tokenC, tokenD, tier))

	paths := g.FindPaths(tokenA, tokenD, 3)
	assert.Equal(t, [][]domain.Address{
		{tokenA, tokenC, tokenD},
		{tokenA, tokenB, tokenC, tokenD},
	}, paths)

	assert.Empty(t, g.FindPaths(tokenA, tokenD, 1))
	assert.Empty(t, g.FindPaths(tokenA, tokenA, 3))
	assert.Empty(t, g.FindPaths(tokenA, addr(99), 3))
}

func TestGraphPairs(t *testing.T) {
	g := NewGraph()
	ab := key(t, tokenA, tokenB, tier)
	g.AddPool(ab)
	g.AddPool(ab)
	g.AddPool(key(t, tokenB, tokenA, cheap))

	assert.Len(t, g.Pools(tokenA, tokenB), 2)
	assert.Len(t, g.Pools(tokenB, tokenA), 2)
	assert.Equal(t, 2, g.TokenCount())

	// both legs of a path expand over the parallel pools
	routes := g.expand([]domain.Address{tokenB, tokenA}, MaxCandidates)
	require.Len(t, routes, 2)
	for _, hops := range routes {
		require.Len(t, hops, 1)
		assert.False(t, hops[0].XToY)
	}

	g.Rebuild(nil)
	assert.Zero(t, g.TokenCount())
}

type fakeQuoter struct {
	out   map[int]uint64
	calls int
}

func (f *fakeQuoter) QuoteRoute(_ domain.Env, _ decimal.TokenAmount, hops []domain.SwapHop) (decimal.TokenAmount, error) {
	f.calls++
	v, ok := f.out[len(hops)]
	if !ok {
		return decimal.TokenAmount{}, errors.WithStack(common.ErrNoGainSwap)
	}
	return decimal.NewTokenAmount(v), nil
}

func TestBestRoutePicksHighestQuote(t *testing.T) {
	g := NewGraph()
	g.AddPool(key(t, tokenA, tokenB, tier))
	g.AddPool(key(t, tokenB, tokenC, tier))
	g.AddPool(key(t, tokenA, tokenC, tier))

	q := &fakeQuoter{out: map[int]uint64{1: 900, 2: 950}}
	route, err := NewRouter(g, q).BestRoute(domain.Env{}, tokenA, tokenC, amount)
	require.NoError(t, err)
	assert.Equal(t, decimal.NewTokenAmount(950), route.AmountOut)
	assert.Len(t, route.Hops, 2)
	assert.Equal(t, 2, q.calls)

	r := NewRouter(g, q)
	r.SetMaxHops(1)
	route, err = r.BestRoute(domain.Env{}, tokenA, tokenC, amount)
	require.NoError(t, err)
	assert.Equal(t, decimal.NewTokenAmount(900), route.AmountOut)
}

func TestBestRouteErrors(t *testing.T) {
	g := NewGraph()
	g.AddPool(key(t, tokenA, tokenB, tier))

	_, err := NewRouter(g, &fakeQuoter{}).BestRoute(domain.Env{}, tokenA, tokenC, amount)
	assert.True(t, errors.Is(err, ErrNoRoute))

	// quote failures keep their cause
	_, err = NewRouter(g, &fakeQuoter{}).BestRoute(domain.Env{}, tokenA, tokenB, amount)
	assert.True(t, errors.Is(err, ErrNoRoute))
	assert.True(t, errors.Is(err, common.ErrNoGainSwap))
}

func TestBestRouteOverEngine(t *testing.T) {
	admin, alice, bob, self := addr(1), addr(2), addr(3), addr(9)
	bank := token.NewBank()
	for _, tok := range []domain.Address{tokenA, tokenB, tokenC} {
		bank.Deploy(tok)
		for _, owner := range []domain.Address{alice, bob} {
			require.NoError(t, bank.Mint(tok, owner, decimal.NewTokenAmount(1_000_000)))
			require.NoError(t, bank.Approve(tok, owner, self, decimal.NewTokenAmount(1_000_000)))
		}
	}
	engine, err := invariant.New(self, admin, decimal.NewPercentage(10_000_000_000), bank, invariant.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NoError(t, engine.AddFeeTier(domain.Env{Caller: admin}, tier))

	one := decimal.One[decimal.SqrtPriceScale]()
	deep, shallow := decimal.LiquidityFromInteger(1_000_000), decimal.LiquidityFromInteger(1_000)
	for _, p := range []struct {
		a, b      domain.Address
		liquidity decimal.Liquidity
	}{
		{tokenA, tokenB, deep},
		{tokenB, tokenC, deep},
		{tokenA, tokenC, shallow},
	} {
		k, err := engine.CreatePool(domain.Env{Caller: admin}, p.a, p.b, tier, one, 0)
		require.NoError(t, err)
		_, err = engine.CreatePosition(domain.Env{Caller: alice}, k, -20, 10, p.liquidity, one, one)
		require.NoError(t, err)
	}

	r := NewRouter(NewGraph(), engine)
	r.Refresh(engine)
	route, err := r.BestRoute(domain.Env{Caller: bob}, tokenA, tokenC, amount)
	require.NoError(t, err)
	require.Len(t, route.Hops, 2)
	assert.Equal(t, decimal.NewTokenAmount(986), route.AmountOut)

	out, err := engine.SwapRoute(domain.Env{Caller: bob}, amount, route.AmountOut, decimal.Percentage{}, route.Hops)
	require.NoError(t, err)
	assert.Equal(t, route.AmountOut, out)
}
