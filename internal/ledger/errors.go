package ledger

import "errors"

// Errors returned by ledger operations. A failed operation never leaves a
// partial state change behind.
var (
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrPaused              = errors.New("minting is paused")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrInvalidMetadata     = errors.New("invalid metadata")
	ErrNonexistentToken    = errors.New("nonexistent token")
)
