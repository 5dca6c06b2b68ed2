package ledger

import "github.com/ethereum/go-ethereum/common"

// Capability is a bit set of administrative rights.
type Capability uint8

const (
	CapPause Capability = 1 << iota
	CapAirdrop
	CapWithdraw
	CapAdmin

	capAll      = CapPause | CapAirdrop | CapWithdraw | CapAdmin
	capOperator = CapPause | CapAirdrop
)

// Has reports whether c contains every bit of want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// capabilities resolves who's rights against the staged state of t.
func (t *txn) capabilities(who common.Address) Capability {
	if who == t.owner {
		return capAll
	}
	if t.isOperator(who) {
		return capOperator
	}
	return 0
}

func (t *txn) require(who common.Address, want Capability) error {
	if !t.capabilities(who).Has(want) {
		return ErrUnauthorized
	}
	return nil
}
