package invariant

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/clamm"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/events"
	"github.com/hxuan190/clamm-engine/internal/token"
)

func addr(b byte) domain.Address {
	var a solana.PublicKey
	a[0] = b
	return a
}

var (
	admin  = addr(1)
	alice  = addr(2)
	bob    = addr(3)
	engine = addr(9)

	tokenX = addr(10)
	tokenY = addr(11)
	tokenZ = addr(12)

	amt = decimal.NewTokenAmount
	// 1% of the swap fee goes to the protocol
	protocolFee = decimal.NewPercentage(10_000_000_000)
)

type fixture struct {
	t      testing.TB
	bank   *token.Bank
	inv    *Invariant
	events *events.Recorder
	tier   domain.FeeTier
	now    uint64
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	bank := token.NewBank()
	for _, tok := range []domain.Address{tokenX, tokenY, tokenZ} {
		bank.Deploy(tok)
	}
	rec := events.NewRecorder()
	inv, err := New(engine, admin, protocolFee, bank, WithSinks(rec), WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	// 0.6% with spacing 10
	tier, err := domain.NewFeeTier(decimal.NewPercentage(6_000_000_000), 10)
	require.NoError(t, err)

	f := &fixture{t: t, bank: bank, inv: inv, events: rec, tier: tier}
	require.NoError(t, inv.AddFeeTier(f.env(admin), tier))
	return f
}

func (f *fixture) env(caller domain.Address) domain.Env {
	return domain.Env{Caller: caller, Timestamp: f.now, BlockNumber: 1}
}

// fund mints amount of tok to owner and lets the engine pull all of it.
func (f *fixture) fund(owner, tok domain.Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.bank.Mint(tok, owner, amt(amount)))
	allowance := f.bank.Allowance(tok, owner, engine).Add(amt(amount))
	require.NoError(f.t, f.bank.Approve(tok, owner, engine, allowance))
}

func (f *fixture) createPool(a, b domain.Address) domain.PoolKey {
	f.t.Helper()
	key, err := f.inv.CreatePool(f.env(admin), a, b, f.tier, decimal.One[decimal.SqrtPriceScale](), 0)
	require.NoError(f.t, err)
	return key
}

func (f *fixture) pool(key domain.PoolKey) domain.Pool {
	f.t.Helper()
	pool, err := f.inv.GetPool(key.TokenX, key.TokenY, key.FeeTier)
	require.NoError(f.t, err)
	return pool
}

// provide opens a position of integer liquidity at the current price.
func (f *fixture) provide(owner domain.Address, key domain.PoolKey, lower, upper int32, liquidity uint64) domain.Position {
	f.t.Helper()
	price := f.pool(key).SqrtPrice
	p, err := f.inv.CreatePosition(f.env(owner), key, lower, upper, decimal.LiquidityFromInteger(liquidity), price, price)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) balance(tok, owner domain.Address) decimal.TokenAmount {
	return f.bank.BalanceOf(tok, owner)
}

func feeGrowth(t testing.TB, raw string) decimal.FeeGrowth {
	t.Helper()
	g, err := decimal.Parse[decimal.FeeGrowthScale](raw)
	require.NoError(t, err)
	return g
}

func sqrtPriceAt(t testing.TB, tick int32) decimal.SqrtPrice {
	t.Helper()
	p, err := clamm.CalculateSqrtPrice(tick)
	require.NoError(t, err)
	return p
}
