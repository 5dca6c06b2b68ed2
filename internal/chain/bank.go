package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientFunds is returned when an account cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// bank holds native balances. Callers serialise access.
type bank struct {
	balances map[common.Address]*uint256.Int
}

func newBank() *bank {
	return &bank{balances: make(map[common.Address]*uint256.Int)}
}

func (b *bank) balance(a common.Address) *uint256.Int {
	if v, ok := b.balances[a]; ok {
		return v.Clone()
	}
	return new(uint256.Int)
}

func (b *bank) credit(a common.Address, amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(b.balance(a), amount)
	if overflow {
		return fmt.Errorf("balance overflow for %s", a.Hex())
	}
	b.balances[a] = sum
	return nil
}

func (b *bank) debit(a common.Address, amount *uint256.Int) error {
	have := b.balance(a)
	if have.Lt(amount) {
		return fmt.Errorf("%w: %s has %s wei, needs %s", ErrInsufficientFunds, a.Hex(), have.Dec(), amount.Dec())
	}
	b.balances[a] = have.Sub(have, amount)
	return nil
}

func (b *bank) move(from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.debit(from, amount); err != nil {
		return err
	}
	return b.credit(to, amount)
}

// snapshot returns a deep copy of the balances.
func (b *bank) snapshot() map[common.Address]*uint256.Int {
	out := make(map[common.Address]*uint256.Int, len(b.balances))
	for a, v := range b.balances {
		out[a] = v.Clone()
	}
	return out
}

// restore replaces the balances in place so existing references stay valid.
func (b *bank) restore(s map[common.Address]*uint256.Int) {
	b.balances = s
}

func (b *bank) clone() *bank {
	return &bank{balances: b.snapshot()}
}

// vault moves value out of a contract account. It implements ledger.Vault.
type vault struct {
	bank     *bank
	contract common.Address
	rejects  func(common.Address) bool
}

// ErrRecipientRejected is returned when the recipient refuses native value.
var ErrRecipientRejected = errors.New("recipient rejected native value")

func (v *vault) Transfer(to common.Address, amount *uint256.Int) error {
	if v.rejects(to) {
		return fmt.Errorf("%w: %s", ErrRecipientRejected, to.Hex())
	}
	return v.bank.move(v.contract, to, amount)
}
