package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// txn stages the mutations of one operation. Nothing touches the ledger until
// commit; dropping a txn discards it.
type txn struct {
	l *Ledger

	owner     common.Address
	paused    bool
	escrow    *uint256.Int
	minted    []common.Address
	balances  map[common.Address]uint64
	operators map[common.Address]bool
	events    []Event
}

func (l *Ledger) begin() *txn {
	return &txn{
		l:         l,
		owner:     l.owner,
		paused:    l.paused,
		escrow:    l.escrow.Clone(),
		balances:  make(map[common.Address]uint64),
		operators: make(map[common.Address]bool),
	}
}

func (t *txn) isOperator(a common.Address) bool {
	if v, ok := t.operators[a]; ok {
		return v
	}
	return t.l.operators[a]
}

func (t *txn) balanceOf(a common.Address) uint64 {
	if v, ok := t.balances[a]; ok {
		return v
	}
	return t.l.balances[a]
}

func (t *txn) nextID() uint64 {
	return uint64(len(t.l.tokens)+len(t.minted)) + 1
}

func (t *txn) mint(to common.Address) uint64 {
	id := t.nextID()
	t.minted = append(t.minted, to)
	t.balances[to] = t.balanceOf(to) + 1
	t.emit(Event{Kind: EventTransfer, To: to, TokenID: id})
	return id
}

func (t *txn) emit(e Event) {
	t.events = append(t.events, e)
}

func (t *txn) commit() {
	l := t.l
	l.owner = t.owner
	l.paused = t.paused
	l.escrow = t.escrow
	l.tokens = append(l.tokens, t.minted...)
	for a, n := range t.balances {
		l.balances[a] = n
	}
	for a, on := range t.operators {
		if on {
			l.operators[a] = true
		} else {
			delete(l.operators, a)
		}
	}
	for _, e := range t.events {
		for _, h := range l.hooks {
			h(e)
		}
	}
}
