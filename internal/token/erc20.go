// Package token is the engine's view of token contracts: a Ledger that moves
// balances, and an in-memory ERC20-style implementation of it.
package token

import (
	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrUnknownToken          = errors.New("unknown token")
)

type allowanceKey struct {
	owner, spender domain.Address
}

// ERC20 is a single fungible token. It is not safe for concurrent use; Bank
// serializes access.
type ERC20 struct {
	supply     decimal.TokenAmount
	balances   map[domain.Address]decimal.TokenAmount
	allowances map[allowanceKey]decimal.TokenAmount
}

func NewERC20() *ERC20 {
	return &ERC20{
		balances:   map[domain.Address]decimal.TokenAmount{},
		allowances: map[allowanceKey]decimal.TokenAmount{},
	}
}

func (t *ERC20) TotalSupply() decimal.TokenAmount { return t.supply }

func (t *ERC20) BalanceOf(owner domain.Address) decimal.TokenAmount {
	return t.balances[owner]
}

func (t *ERC20) Allowance(owner, spender domain.Address) decimal.TokenAmount {
	return t.allowances[allowanceKey{owner, spender}]
}

func (t *ERC20) Approve(owner, spender domain.Address, amount decimal.TokenAmount) {
	t.allowances[allowanceKey{owner, spender}] = amount
}

func (t *ERC20) Mint(to domain.Address, amount decimal.TokenAmount) error {
	supply, err := t.supply.CheckedAdd(amount)
	if err != nil {
		return errors.Wrap(err, "mint")
	}
	t.supply = supply
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

func (t *ERC20) Burn(from domain.Address, amount decimal.TokenAmount) error {
	balance := t.balances[from]
	if balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "burn %s from %s", amount, from)
	}
	t.balances[from] = balance.Sub(amount)
	t.supply = t.supply.Sub(amount)
	return nil
}

func (t *ERC20) Transfer(from, to domain.Address, amount decimal.TokenAmount) error {
	balance := t.balances[from]
	if balance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "%s holds %s, needs %s", from, balance, amount)
	}
	t.balances[from] = balance.Sub(amount)
	// total supply bounds every balance
	t.balances[to] = t.balances[to].Add(amount)
	return nil
}

// TransferFrom moves amount out of from, spending spender's allowance.
func (t *ERC20) TransferFrom(spender, from, to domain.Address, amount decimal.TokenAmount) error {
	k := allowanceKey{from, spender}
	allowance := t.allowances[k]
	if allowance.Lt(amount) {
		return errors.Wrapf(ErrInsufficientAllowance, "%s may spend %s of %s, needs %s", spender, allowance, from, amount)
	}
	if err := t.Transfer(from, to, amount); err != nil {
		return err
	}
	t.allowances[k] = allowance.Sub(amount)
	return nil
}
