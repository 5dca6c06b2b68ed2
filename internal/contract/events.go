package contract

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// EventLog encodes a ledger event as the log the contract at addr emits.
func EventLog(addr common.Address, e ledger.Event) (*types.Log, error) {
	parsed := mustOmnesABI()
	ev, ok := parsed.Events[string(e.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", e.Kind)
	}

	topics := []common.Hash{ev.ID}
	var fields []interface{}
	switch e.Kind {
	case ledger.EventTransfer:
		topics = append(topics, addrTopic(e.From), addrTopic(e.To), common.BigToHash(new(big.Int).SetUint64(e.TokenID)))
	case ledger.EventPaused, ledger.EventUnpaused:
		fields = []interface{}{e.Account}
	case ledger.EventWithdrawn:
		topics = append(topics, addrTopic(e.Account))
		amount := e.Amount
		if amount == nil {
			amount = new(uint256.Int)
		}
		fields = []interface{}{amount.ToBig()}
	case ledger.EventOwnershipTransferred:
		topics = append(topics, addrTopic(e.From), addrTopic(e.To))
	case ledger.EventOperatorUpdated:
		topics = append(topics, addrTopic(e.Account))
		fields = []interface{}{e.Enabled}
	}

	data, err := ev.Inputs.NonIndexed().Pack(fields...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", e.Kind, err)
	}
	return &types.Log{Address: addr, Topics: topics, Data: data}, nil
}

// ParseLog decodes a log emitted by the contract back into a ledger event.
func ParseLog(log *types.Log) (ledger.Event, error) {
	parsed := mustOmnesABI()
	if len(log.Topics) == 0 {
		return ledger.Event{}, fmt.Errorf("log has no topics")
	}
	ev, err := parsed.EventByID(log.Topics[0])
	if err != nil {
		return ledger.Event{}, err
	}
	if want := 1 + countIndexed(ev.Inputs); len(log.Topics) != want {
		return ledger.Event{}, fmt.Errorf("%s: want %d topics, got %d", ev.Name, want, len(log.Topics))
	}
	fields, err := ev.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("decoding %s: %w", ev.Name, err)
	}

	out := ledger.Event{Kind: ledger.EventKind(ev.Name)}
	switch out.Kind {
	case ledger.EventTransfer:
		out.From = topicAddr(log.Topics[1])
		out.To = topicAddr(log.Topics[2])
		out.TokenID = log.Topics[3].Big().Uint64()
	case ledger.EventPaused, ledger.EventUnpaused:
		out.Account = fields[0].(common.Address)
	case ledger.EventWithdrawn:
		out.Account = topicAddr(log.Topics[1])
		out.Amount, _ = uint256.FromBig(fields[0].(*big.Int))
	case ledger.EventOwnershipTransferred:
		out.From = topicAddr(log.Topics[1])
		out.To = topicAddr(log.Topics[2])
	case ledger.EventOperatorUpdated:
		out.Account = topicAddr(log.Topics[1])
		out.Enabled = fields[0].(bool)
	}
	return out, nil
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func topicAddr(h common.Hash) common.Address {
	return common.BytesToAddress(h.Bytes())
}

func countIndexed(args abi.Arguments) int {
	n := 0
	for _, a := range args {
		if a.Indexed {
			n++
		}
	}
	return n
}
