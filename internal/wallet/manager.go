// Package wallet keeps the named accounts that sign omnes transactions.
// Keys live in a KeystoreBackend; the Manager persists metadata only.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Kind tells signing wallets from address-only ones.
type Kind string

const (
	KindWatchOnly Kind = "watch-only"
	KindSigning   Kind = "signing"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidName    = errors.New("invalid wallet name")
	ErrWatchOnly      = errors.New("wallet is watch-only")
)

// Wallet is the stored metadata of one account.
type Wallet struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
	Kind    Kind           `json:"kind"`
	KeyRef  string         `json:"key_ref,omitempty"`
	Added   time.Time      `json:"added"`
}

// CanSign reports whether the wallet has a key in the keystore.
func (w *Wallet) CanSign() bool { return w.Kind == KindSigning }

// Store persists wallet metadata.
type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager adds, finds and removes wallets.
type Manager struct {
	store   Store
	ks      KeystoreBackend
	wallets map[string]*Wallet
	loaded  bool
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets where metadata is persisted.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithKeystore sets where private keys are kept.
func WithKeystore(ks KeystoreBackend) Option {
	return func(m *Manager) { m.ks = ks }
}

// NewManager returns a Manager. Without options metadata and keys are kept
// in memory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:   &memStore{},
		ks:      NewInMemoryKeystore(),
		wallets: make(map[string]*Wallet),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// validateName rejects names that could be mistaken for an address.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.ContainsAny(name, " \t\n"):
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	case strings.HasPrefix(strings.ToLower(name), "0x"):
		return fmt.Errorf("%w: %q looks like an address", ErrInvalidName, name)
	}
	return nil
}

func (m *Manager) claim(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := m.load(); err != nil {
		return err
	}
	if _, ok := m.wallets[name]; ok {
		return fmt.Errorf("%w: %s", ErrWalletExists, name)
	}
	return nil
}

// AddWatchOnly records an address that can receive tokens but not sign.
func (m *Manager) AddWatchOnly(name, address string) (*Wallet, error) {
	if err := m.claim(name); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	w := &Wallet{Name: name, Address: common.HexToAddress(address), Kind: KindWatchOnly, Added: m.now()}
	m.wallets[name] = w
	return w, m.persist()
}

// Import stores hexKey in the keystore and records the account it controls.
func (m *Manager) Import(name, hexKey string) (*Wallet, error) {
	if err := m.claim(name); err != nil {
		return nil, err
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	ref, err := m.ks.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}
	w := &Wallet{
		Name:    name,
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Kind:    KindSigning,
		KeyRef:  ref,
		Added:   m.now(),
	}
	m.wallets[name] = w
	return w, m.persist()
}

// Generate creates a key, imports it and returns it 0x-prefixed so the
// caller can show it once.
func (m *Manager) Generate(name string) (*Wallet, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, "", fmt.Errorf("generating key: %w", err)
	}
	hexKey := "0x" + hex.EncodeToString(crypto.FromECDSA(key))
	w, err := m.Import(name, hexKey)
	if err != nil {
		return nil, "", err
	}
	return w, hexKey, nil
}

// Get returns the wallet called name.
func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	w, ok := m.wallets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	return w, nil
}

// ExportKey returns the stored private key of a signing wallet.
func (m *Manager) ExportKey(name string) (string, error) {
	w, err := m.signing(name)
	if err != nil {
		return "", err
	}
	return m.ks.Retrieve(w.KeyRef)
}

// Signer returns a transaction signer backed by the keystore.
func (m *Manager) Signer(name string) (*Signer, error) {
	w, err := m.signing(name)
	if err != nil {
		return nil, err
	}
	return NewSigner(w, m.ks), nil
}

func (m *Manager) signing(name string) (*Wallet, error) {
	w, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, name)
	}
	return w, nil
}

// Resolve turns a wallet name or a hex address into an address.
func (m *Manager) Resolve(nameOrAddr string) (common.Address, error) {
	if common.IsHexAddress(nameOrAddr) {
		return common.HexToAddress(nameOrAddr), nil
	}
	if strings.HasPrefix(strings.ToLower(nameOrAddr), "0x") {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, nameOrAddr)
	}
	w, err := m.Get(nameOrAddr)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address, nil
}

// Remove deletes a wallet and its stored key.
func (m *Manager) Remove(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if w.KeyRef != "" {
		if err := m.ks.Delete(w.KeyRef); err != nil {
			return err
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List returns every wallet sorted by name. A store that cannot be read
// lists nothing.
func (m *Manager) List() []*Wallet {
	if err := m.load(); err != nil {
		return nil
	}
	return m.sorted()
}

func (m *Manager) sorted() []*Wallet {
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("loading wallets: %w", err)
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	return m.store.Save(m.sorted())
}
