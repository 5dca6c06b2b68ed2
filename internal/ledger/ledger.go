// Package ledger implements the issuance and custody ledger behind the omnes
// NFT collection: sequential token issuance, a pause gate on public minting
// and an escrow of mint payments that the owner withdraws.
package ledger

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DefaultMintPrice is the public mint price in wei (0.05 ether).
var DefaultMintPrice = uint256.NewInt(50_000_000_000_000_000)

// ExcessPolicy decides what happens to payment above the mint price.
type ExcessPolicy string

const (
	// ExcessRetain keeps the full payment in escrow.
	ExcessRetain ExcessPolicy = "retain"
	// ExcessRefund keeps the price in escrow and returns the rest to the payer.
	ExcessRefund ExcessPolicy = "refund"
)

// ParseExcessPolicy parses "retain" or "refund".
func ParseExcessPolicy(s string) (ExcessPolicy, error) {
	switch p := ExcessPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ExcessRetain, ExcessRefund:
		return p, nil
	case "":
		return ExcessRetain, nil
	default:
		return "", fmt.Errorf("unknown excess policy %q (want retain or refund)", s)
	}
}

// Metadata is fixed at construction.
type Metadata struct {
	Name      string `json:"name"      yaml:"name"       toml:"name"`
	Symbol    string `json:"symbol"    yaml:"symbol"     toml:"symbol"`
	BaseURI   string `json:"base_uri"  yaml:"base_uri"   toml:"base_uri"`
	HiddenURI string `json:"hidden_uri" yaml:"hidden_uri" toml:"hidden_uri"`
}

// Validate checks the fields required at construction.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidMetadata)
	}
	if strings.TrimSpace(m.Symbol) == "" {
		return fmt.Errorf("%w: symbol is empty", ErrInvalidMetadata)
	}
	return nil
}

// Vault moves native value out of the ledger. The execution environment
// provides it; a non-nil error means the recipient did not accept the value.
type Vault interface {
	Transfer(to common.Address, amount *uint256.Int) error
}

type discardVault struct{}

func (discardVault) Transfer(common.Address, *uint256.Int) error { return nil }

// Ledger is the issuance and custody state machine. All methods are safe for
// concurrent use; entry points execute one at a time.
type Ledger struct {
	mu sync.Mutex

	meta   Metadata
	price  *uint256.Int
	excess ExcessPolicy
	vault  Vault
	hooks  []Hook
	logger *slog.Logger

	owner     common.Address
	paused    bool
	escrow    *uint256.Int
	tokens    []common.Address // tokens[i] holds token i+1
	balances  map[common.Address]uint64
	operators map[common.Address]bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithMintPrice sets the public mint price in wei. nil means free.
func WithMintPrice(price *uint256.Int) Option {
	return func(l *Ledger) {
		if price == nil {
			l.price = new(uint256.Int)
			return
		}
		l.price = price.Clone()
	}
}

// WithExcessPolicy sets how overpayment is handled.
func WithExcessPolicy(p ExcessPolicy) Option {
	return func(l *Ledger) {
		l.excess = p
	}
}

// WithVault sets where withdrawals and refunds are sent.
func WithVault(v Vault) Option {
	return func(l *Ledger) {
		l.vault = v
	}
}

// WithHook registers an event hook.
func WithHook(h Hook) Option {
	return func(l *Ledger) {
		l.hooks = append(l.hooks, h)
	}
}

// New creates a ledger owned by deployer. Public minting starts paused.
func New(deployer common.Address, meta Metadata, opts ...Option) (*Ledger, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	l := newLedger(meta)
	l.owner = deployer
	for _, opt := range opts {
		opt(l)
	}
	if err := l.checkConfig(); err != nil {
		return nil, err
	}
	return l, nil
}

func newLedger(meta Metadata) *Ledger {
	return &Ledger{
		meta:      meta,
		price:     DefaultMintPrice.Clone(),
		excess:    ExcessRetain,
		vault:     discardVault{},
		logger:    slog.Default(),
		paused:    true,
		escrow:    new(uint256.Int),
		balances:  make(map[common.Address]uint64),
		operators: make(map[common.Address]bool),
	}
}

func (l *Ledger) checkConfig() error {
	if _, err := ParseExcessPolicy(string(l.excess)); err != nil {
		return err
	}
	if l.price == nil {
		l.price = new(uint256.Int)
	}
	return nil
}

// MintAirdrop issues the next token to recipient without payment. It ignores
// the pause flag and requires the airdrop capability.
func (l *Ledger) MintAirdrop(caller, recipient common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.begin()
	if err := t.require(caller, CapAirdrop); err != nil {
		return 0, err
	}
	if recipient == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero address", ErrInvalidRecipient)
	}
	id := t.mint(recipient)
	t.commit()

	l.logger.Debug("airdrop minted", "token_id", id, "to", recipient.Hex())
	return id, nil
}

// MintPublic issues the next token to caller against value. value is the
// native amount the caller transmitted and is already held by the contract.
func (l *Ledger) MintPublic(caller common.Address, value *uint256.Int) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if value == nil {
		value = new(uint256.Int)
	}

	t := l.begin()
	if t.paused {
		return 0, ErrPaused
	}
	if value.Lt(l.price) {
		return 0, fmt.Errorf("%w: sent %s wei, price is %s wei", ErrInsufficientPayment, value.Dec(), l.price.Dec())
	}

	kept := value
	if l.excess == ExcessRefund {
		kept = l.price
	}
	escrow, overflow := new(uint256.Int).AddOverflow(t.escrow, kept)
	if overflow {
		return 0, fmt.Errorf("escrow overflow")
	}
	if refund := new(uint256.Int).Sub(value, kept); !refund.IsZero() {
		if err := l.vault.Transfer(caller, refund); err != nil {
			return 0, fmt.Errorf("%w: refund to %s: %v", ErrTransferFailed, caller.Hex(), err)
		}
	}
	t.escrow = escrow
	id := t.mint(caller)
	t.commit()

	l.logger.Debug("public minted", "token_id", id, "to", caller.Hex(), "paid_wei", value.Dec())
	return id, nil
}

// SetPaused sets the pause flag. Setting the current value is a no-op.
func (l *Ledger) SetPaused(caller common.Address, paused bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.begin()
	if err := t.require(caller, CapPause); err != nil {
		return err
	}
	if t.paused == paused {
		return nil
	}
	t.paused = paused
	kind := EventUnpaused
	if paused {
		kind = EventPaused
	}
	t.emit(Event{Kind: kind, Account: caller})
	t.commit()

	l.logger.Info("pause flag changed", "paused", paused, "by", caller.Hex())
	return nil
}

// WithdrawPayments sends the whole escrow to recipient and returns the amount
// sent. An empty escrow succeeds without a transfer.
func (l *Ledger) WithdrawPayments(caller, recipient common.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.begin()
	if err := t.require(caller, CapWithdraw); err != nil {
		return nil, err
	}
	if recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero address", ErrInvalidRecipient)
	}

	amount := t.escrow
	if amount.IsZero() {
		return new(uint256.Int), nil
	}
	if err := l.vault.Transfer(recipient, amount.Clone()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTransferFailed, recipient.Hex(), err)
	}
	t.escrow = new(uint256.Int)
	t.emit(Event{Kind: EventWithdrawn, Account: recipient, Amount: amount.Clone()})
	t.commit()

	l.logger.Info("payments withdrawn", "to", recipient.Hex(), "amount_wei", amount.Dec())
	return amount.Clone(), nil
}

// TransferOwnership hands every owner right to next.
func (l *Ledger) TransferOwnership(caller, next common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.begin()
	if err := t.require(caller, CapAdmin); err != nil {
		return err
	}
	if next == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidRecipient)
	}
	prev := t.owner
	t.owner = next
	t.emit(Event{Kind: EventOwnershipTransferred, From: prev, To: next})
	t.commit()

	l.logger.Info("ownership transferred", "from", prev.Hex(), "to", next.Hex())
	return nil
}

// SetOperator grants or revokes the operator capabilities (pause, airdrop).
func (l *Ledger) SetOperator(caller, account common.Address, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.begin()
	if err := t.require(caller, CapAdmin); err != nil {
		return err
	}
	if account == (common.Address{}) {
		return fmt.Errorf("%w: zero address", ErrInvalidRecipient)
	}
	if t.isOperator(account) == enabled {
		return nil
	}
	t.operators[account] = enabled
	t.emit(Event{Kind: EventOperatorUpdated, Account: account, Enabled: enabled})
	t.commit()
	return nil
}

// BalanceOf returns the number of tokens held by holder.
func (l *Ledger) BalanceOf(holder common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[holder]
}

// OwnerOf returns the holder of token id.
func (l *Ledger) OwnerOf(id uint64) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == 0 || id > uint64(len(l.tokens)) {
		return common.Address{}, fmt.Errorf("%w: %d", ErrNonexistentToken, id)
	}
	return l.tokens[id-1], nil
}

// TotalSupply returns the number of minted tokens.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.tokens))
}

// Owner returns the owner address.
func (l *Ledger) Owner() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// IsOperator reports whether account holds the operator capabilities.
func (l *Ledger) IsOperator(account common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.operators[account]
}

// Paused reports whether public minting is blocked.
func (l *Ledger) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

// Escrow returns a copy of the escrow balance in wei.
func (l *Ledger) Escrow() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrow.Clone()
}

// MintPrice returns a copy of the public mint price in wei.
func (l *Ledger) MintPrice() *uint256.Int {
	return l.price.Clone()
}

// ExcessPolicy returns the overpayment policy.
func (l *Ledger) ExcessPolicy() ExcessPolicy {
	return l.excess
}

// Metadata returns the construction metadata.
func (l *Ledger) Metadata() Metadata {
	return l.meta
}
