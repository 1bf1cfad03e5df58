package token

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

func addr(b byte) domain.Address {
	var a solana.PublicKey
	a[0] = b
	return a
}

var amt = decimal.NewTokenAmount

func TestERC20(t *testing.T) {
	tok := NewERC20()
	alice, bob, spender := addr(1), addr(2), addr(3)

	require.NoError(t, tok.Mint(alice, amt(100)))
	assert.Equal(t, amt(100), tok.TotalSupply())

	require.NoError(t, tok.Transfer(alice, bob, amt(30)))
	assert.Equal(t, amt(70), tok.BalanceOf(alice))
	assert.Equal(t, amt(30), tok.BalanceOf(bob))

	err := tok.Transfer(bob, alice, amt(31))
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	tok.Approve(alice, spender, amt(50))
	err = tok.TransferFrom(spender, alice, bob, amt(51))
	assert.True(t, errors.Is(err, ErrInsufficientAllowance))
	require.NoError(t, tok.TransferFrom(spender, alice, bob, amt(20)))
	assert.Equal(t, amt(30), tok.Allowance(alice, spender))
	assert.Equal(t, amt(50), tok.BalanceOf(bob))

	require.NoError(t, tok.Burn(bob, amt(50)))
	assert.Equal(t, amt(50), tok.TotalSupply())
	assert.True(t, errors.Is(tok.Burn(bob, amt(1)), ErrInsufficientBalance))
}

func TestBankExecuteIsAtomic(t *testing.T) {
	bank := NewBank()
	x, y := addr(10), addr(11)
	user, engine := addr(1), addr(9)
	bank.Deploy(x)
	bank.Deploy(y)

	require.NoError(t, bank.Mint(x, user, amt(100)))
	require.NoError(t, bank.Mint(y, engine, amt(5)))
	require.NoError(t, bank.Approve(x, user, engine, amt(100)))

	err := bank.Execute([]Transfer{
		{Token: x, Spender: engine, From: user, To: engine, Amount: amt(40)},
		{Token: y, From: engine, To: user, Amount: amt(6)},
	})
	assert.True(t, errors.Is(err, common.ErrTransferError))
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, amt(100), bank.BalanceOf(x, user))
	assert.Equal(t, amt(100), bank.Allowance(x, user, engine))
	assert.Equal(t, amt(5), bank.BalanceOf(y, engine))

	require.NoError(t, bank.Execute([]Transfer{
		{Token: x, Spender: engine, From: user, To: engine, Amount: amt(40)},
		{Token: y, From: engine, To: user, Amount: amt(5)},
		{Token: addr(99), From: engine, To: user},
	}))
	assert.Equal(t, amt(60), bank.BalanceOf(x, user))
	assert.Equal(t, amt(40), bank.BalanceOf(x, engine))
	assert.Equal(t, amt(60), bank.Allowance(x, user, engine))
	assert.Equal(t, amt(5), bank.BalanceOf(y, user))

	err = bank.Execute([]Transfer{{Token: addr(99), From: engine, To: user, Amount: amt(1)}})
	assert.True(t, errors.Is(err, ErrUnknownToken))
	assert.True(t, errors.Is(err, common.ErrTransferError))
}
