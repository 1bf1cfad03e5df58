package token

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/hxuan190/clamm-engine/internal/common"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
)

// Transfer moves Amount of Token. A non-zero Spender pulls the funds with
// TransferFrom and spends the allowance From granted it.
type Transfer struct {
	Token   domain.Address
	Spender domain.Address
	From    domain.Address
	To      domain.Address
	Amount  decimal.TokenAmount
}

// Ledger is the token capability the engine consumes. Execute applies the
// whole batch or none of it.
type Ledger interface {
	Execute(transfers []Transfer) error
}

// Bank hosts in-memory ERC20 tokens by address.
type Bank struct {
	mu     sync.Mutex
	tokens map[domain.Address]*ERC20
}

func NewBank() *Bank {
	return &Bank{tokens: map[domain.Address]*ERC20{}}
}

// Deploy registers an empty token at addr unless one is already there.
func (b *Bank) Deploy(addr domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tokens[addr]; !ok {
		b.tokens[addr] = NewERC20()
	}
}

func (b *Bank) token(addr domain.Address) (*ERC20, error) {
	t, ok := b.tokens[addr]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownToken, "token %s", addr)
	}
	return t, nil
}

func (b *Bank) Mint(tokenAddr, to domain.Address, amount decimal.TokenAmount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.token(tokenAddr)
	if err != nil {
		return err
	}
	return t.Mint(to, amount)
}

func (b *Bank) Burn(tokenAddr, from domain.Address, amount decimal.TokenAmount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.token(tokenAddr)
	if err != nil {
		return err
	}
	return t.Burn(from, amount)
}

func (b *Bank) Approve(tokenAddr, owner, spender domain.Address, amount decimal.TokenAmount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.token(tokenAddr)
	if err != nil {
		return err
	}
	t.Approve(owner, spender, amount)
	return nil
}

func (b *Bank) Allowance(tokenAddr, owner, spender domain.Address) decimal.TokenAmount {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.token(tokenAddr)
	if err != nil {
		return decimal.TokenAmount{}
	}
	return t.Allowance(owner, spender)
}

func (b *Bank) BalanceOf(tokenAddr, owner domain.Address) decimal.TokenAmount {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, err := b.token(tokenAddr)
	if err != nil {
		return decimal.TokenAmount{}
	}
	return t.BalanceOf(owner)
}

// Execute applies transfers in order. If one fails, the ones before it are
// undone and the error is marked ErrTransferError.
func (b *Bank) Execute(transfers []Transfer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var undo []func()
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	for i, tr := range transfers {
		tr := tr // per-iteration copy for the undo closure (pre-Go 1.22 loop semantics)
		if tr.Amount.IsZero() {
			continue
		}
		t, err := b.token(tr.Token)
		if err != nil {
			rollback()
			return errors.Mark(errors.Wrapf(err, "transfer %d", i), common.ErrTransferError)
		}

		var zero domain.Address
		if tr.Spender == zero {
			err = t.Transfer(tr.From, tr.To, tr.Amount)
		} else {
			err = t.TransferFrom(tr.Spender, tr.From, tr.To, tr.Amount)
		}
		if err != nil {
			rollback()
			return errors.Mark(errors.Wrapf(err, "transfer %d", i), common.ErrTransferError)
		}

		undo = append(undo, func() {
			t.balances[tr.To] = t.balances[tr.To].Sub(tr.Amount)
			t.balances[tr.From] = t.balances[tr.From].Add(tr.Amount)
			if tr.Spender != zero {
				k := allowanceKey{tr.From, tr.Spender}
				t.allowances[k] = t.allowances[k].Add(tr.Amount)
			}
		})
	}
	return nil
}
