package ledger

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is a serializable copy of ledger state. Balances are not stored;
// Restore derives them from Tokens.
type Snapshot struct {
	Metadata  Metadata         `json:"metadata"`
	Owner     common.Address   `json:"owner"`
	Operators []common.Address `json:"operators,omitempty"`
	Paused    bool             `json:"paused"`
	Escrow    string           `json:"escrow"`
	MintPrice string           `json:"mint_price"`
	Excess    ExcessPolicy     `json:"excess_policy"`
	Tokens    []common.Address `json:"tokens"`
}

// Snapshot copies the committed state.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops := make([]common.Address, 0, len(l.operators))
	for a := range l.operators {
		ops = append(ops, a)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Cmp(ops[j]) < 0 })

	return &Snapshot{
		Metadata:  l.meta,
		Owner:     l.owner,
		Operators: ops,
		Paused:    l.paused,
		Escrow:    l.escrow.Dec(),
		MintPrice: l.price.Dec(),
		Excess:    l.excess,
		Tokens:    append([]common.Address(nil), l.tokens...),
	}
}

// Restore rebuilds a ledger from s. Options supply the runtime collaborators
// (vault, hooks, logger); they are applied after the snapshot values.
func Restore(s *Snapshot, opts ...Option) (*Ledger, error) {
	if err := s.Metadata.Validate(); err != nil {
		return nil, err
	}
	escrow, err := uint256.FromDecimal(s.Escrow)
	if err != nil {
		return nil, fmt.Errorf("parsing escrow: %w", err)
	}
	price, err := uint256.FromDecimal(s.MintPrice)
	if err != nil {
		return nil, fmt.Errorf("parsing mint price: %w", err)
	}

	l := newLedger(s.Metadata)
	l.owner = s.Owner
	l.paused = s.Paused
	l.escrow = escrow
	l.price = price
	if s.Excess != "" {
		l.excess = s.Excess
	}
	for _, a := range s.Operators {
		l.operators[a] = true
	}
	l.tokens = append([]common.Address(nil), s.Tokens...)
	for _, holder := range l.tokens {
		l.balances[holder]++
	}

	for _, opt := range opts {
		opt(l)
	}
	if err := l.checkConfig(); err != nil {
		return nil, err
	}
	return l, nil
}
