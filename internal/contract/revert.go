package contract

import (
	"errors"
	"strings"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrReverted is matched by every RevertError.
var ErrReverted = errors.New("execution reverted")

// ErrNotPayable is returned when value is sent to a non-payable function.
var ErrNotPayable = errors.New("function is not payable")

// ErrNoCode is returned when a read finds no contract at the address.
var ErrNoCode = errors.New("no contract code at address")

// RevertError is a failed contract execution. Err is the ledger sentinel the
// reason maps to, if any.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrReverted.Error()
	}
	return ErrReverted.Error() + ": " + e.Reason
}

// Unwrap lets errors.Is match both ErrReverted and the mapped sentinel.
func (e *RevertError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrReverted}
	}
	return []error{ErrReverted, e.Err}
}

var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// EncodeRevert builds Error(string) revert data for err.
func EncodeRevert(err error) []byte {
	strType, _ := abi.NewType("string", "", nil)
	packed, packErr := abi.Arguments{{Type: strType}}.Pack(err.Error())
	if packErr != nil {
		return append([]byte(nil), revertSelector...)
	}
	return append(append([]byte(nil), revertSelector...), packed...)
}

// DecodeRevert turns revert data into a RevertError.
func DecodeRevert(data []byte) *RevertError {
	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return &RevertError{}
	}
	return ErrorFromRevert(reason)
}

// revertPatterns maps reason fragments to ledger errors. Our own reasons carry
// the sentinel text; the rest are the usual OpenZeppelin / hand-written
// messages of Solidity deployments of the same contract.
var revertPatterns = []struct {
	fragment string
	err      error
}{
	{ledger.ErrUnauthorized.Error(), ledger.ErrUnauthorized},
	{ledger.ErrPaused.Error(), ledger.ErrPaused},
	{ledger.ErrInsufficientPayment.Error(), ledger.ErrInsufficientPayment},
	{ledger.ErrTransferFailed.Error(), ledger.ErrTransferFailed},
	{ledger.ErrInvalidRecipient.Error(), ledger.ErrInvalidRecipient},
	{ledger.ErrNonexistentToken.Error(), ledger.ErrNonexistentToken},
	{ErrNotPayable.Error(), ErrNotPayable},
	{ErrUnknownMethod.Error(), ErrUnknownMethod},
	{"caller is not the owner", ledger.ErrUnauthorized},
	{"ownableunauthorizedaccount", ledger.ErrUnauthorized},
	{"pausable: paused", ledger.ErrPaused},
	{"the contract is paused", ledger.ErrPaused},
	{"enforcedpause", ledger.ErrPaused},
	{"insufficient funds", ledger.ErrInsufficientPayment},
	{"unable to send value", ledger.ErrTransferFailed},
	{"failedinnercall", ledger.ErrTransferFailed},
	{"invalid token id", ledger.ErrNonexistentToken},
}

// ErrorFromRevert maps a revert reason onto the ledger error it stands for.
func ErrorFromRevert(reason string) *RevertError {
	lower := strings.ToLower(reason)
	for _, p := range revertPatterns {
		if strings.Contains(lower, strings.ToLower(p.fragment)) {
			return &RevertError{Reason: reason, Err: p.err}
		}
	}
	return &RevertError{Reason: reason}
}
