package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EventKind names a ledger event. The values match the contract event names.
type EventKind string

const (
	EventTransfer             EventKind = "Transfer"
	EventPaused               EventKind = "Paused"
	EventUnpaused             EventKind = "Unpaused"
	EventWithdrawn            EventKind = "Withdrawn"
	EventOwnershipTransferred EventKind = "OwnershipTransferred"
	EventOperatorUpdated      EventKind = "OperatorUpdated"
)

// Event is emitted after an operation commits. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind    EventKind
	From    common.Address
	To      common.Address
	TokenID uint64
	Account common.Address
	Amount  *uint256.Int
	Enabled bool
}

// Hook receives committed events in order. Hooks run while the ledger lock is
// held and must not call back into the ledger.
type Hook func(Event)
