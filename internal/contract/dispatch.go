package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrUnknownMethod is returned for calldata whose selector is not in the ABI.
var ErrUnknownMethod = errors.New("unknown method")

// Dispatch executes ABI-encoded calldata against l on behalf of caller and
// returns the ABI-encoded outputs. value is the native amount attached to the
// call. Errors are the ledger's own and leave the ledger untouched.
func Dispatch(l *ledger.Ledger, caller common.Address, value *uint256.Int, input []byte) ([]byte, error) {
	parsed := mustOmnesABI()
	if len(input) < 4 {
		return nil, fmt.Errorf("%w: calldata shorter than a selector", ErrUnknownMethod)
	}
	method, err := parsed.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownMethod, input[:4])
	}
	if value != nil && !value.IsZero() && !method.IsPayable() {
		return nil, fmt.Errorf("%w: %s", ErrNotPayable, method.Name)
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("decoding %s arguments: %w", method.Name, err)
	}

	out, err := route(l, caller, value, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func route(l *ledger.Ledger, caller common.Address, value *uint256.Int, name string, args []interface{}) ([]interface{}, error) {
	switch name {
	// reads
	case "name":
		return one(l.Metadata().Name)
	case "symbol":
		return one(l.Metadata().Symbol)
	case "baseURI":
		return one(l.Metadata().BaseURI)
	case "hiddenMetadataUri":
		return one(l.Metadata().HiddenURI)
	case "owner":
		return one(l.Owner())
	case "paused":
		return one(l.Paused())
	case "cost":
		return one(l.MintPrice().ToBig())
	case "escrow":
		return one(l.Escrow().ToBig())
	case "totalSupply":
		return one(new(big.Int).SetUint64(l.TotalSupply()))
	case "balanceOf":
		return one(new(big.Int).SetUint64(l.BalanceOf(args[0].(common.Address))))
	case "isOperator":
		return one(l.IsOperator(args[0].(common.Address)))
	case "ownerOf":
		id := args[0].(*big.Int)
		if !id.IsUint64() {
			return nil, fmt.Errorf("%w: %s", ledger.ErrNonexistentToken, id)
		}
		holder, err := l.OwnerOf(id.Uint64())
		if err != nil {
			return nil, err
		}
		return one(holder)

	// writes
	case "mintAirdrp":
		_, err := l.MintAirdrop(caller, args[0].(common.Address))
		return nil, err
	case "mintOmnes":
		_, err := l.MintPublic(caller, value)
		return nil, err
	case "setPaused":
		return nil, l.SetPaused(caller, args[0].(bool))
	case "withdrawPayments":
		_, err := l.WithdrawPayments(caller, args[0].(common.Address))
		return nil, err
	case "transferOwnership":
		return nil, l.TransferOwnership(caller, args[0].(common.Address))
	case "setOperator":
		return nil, l.SetOperator(caller, args[0].(common.Address), args[1].(bool))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

func one(v interface{}) ([]interface{}, error) {
	return []interface{}{v}, nil
}
