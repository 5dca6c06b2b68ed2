package wallet

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const keychainService = "omnes"

// Environment variables read by the keystore.
const (
	// EnvPrivateKey, when set, is returned for every key reference. Used by
	// CI and scripts that cannot reach a keychain.
	EnvPrivateKey = "OMNES_PRIVATE_KEY"
	// EnvKeyringBackend selects the backend: "file" forces the encrypted file
	// backend, anything else lets keyring pick the OS keychain.
	EnvKeyringBackend = "OMNES_KEYRING_BACKEND"
	// EnvKeyringPassword unlocks the file backend without a prompt.
	EnvKeyringPassword = "OMNES_KEYRING_PASSWORD"
)

// ErrKeystoreUnavailable is returned when no keyring backend could be opened.
var ErrKeystoreUnavailable = errors.New("keystore not available")

// KeystoreBackend stores signing keys by reference.
type KeystoreBackend interface {
	Store(name, hexKey string) (string, error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// Keystore wraps OS keychain access.
type Keystore struct {
	ring keyring.Keyring
}

// KeystoreOptions configures OpenKeystore.
type KeystoreOptions struct {
	Backend  string // "" or "file"
	FileDir  string // file backend directory
	Password string // file backend password
}

// KeystoreFromEnv opens the keystore with the file backend under dir.
// OMNES_KEYRING_BACKEND overrides backend.
func KeystoreFromEnv(dir, backend string) *Keystore {
	if v := os.Getenv(EnvKeyringBackend); v != "" {
		backend = v
	}
	return OpenKeystore(KeystoreOptions{
		Backend:  backend,
		FileDir:  dir,
		Password: os.Getenv(EnvKeyringPassword),
	})
}

// OpenKeystore opens the keyring. Failures fall back to the file backend,
// and a keystore with no ring if that fails too.
func OpenKeystore(opts KeystoreOptions) *Keystore {
	fileCfg := keyring.Config{
		ServiceName:     keychainService,
		AllowedBackends: []keyring.BackendType{keyring.FileBackend},
		FileDir:         opts.FileDir,
	}
	if opts.Password != "" {
		fileCfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.Password)
	} else {
		fileCfg.FilePasswordFunc = keyring.TerminalPrompt
	}

	if opts.Backend == "file" {
		ring, err := keyring.Open(fileCfg)
		if err != nil {
			return &Keystore{}
		}
		return &Keystore{ring: ring}
	}

	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  fileCfg.FileDir,
		FilePasswordFunc:         fileCfg.FilePasswordFunc,
	}

	// On Linux without a GUI, fall back to file-based storage.
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		// Use file backend as ultimate fallback.
		ring, err = keyring.Open(fileCfg)
		if err != nil {
			return &Keystore{}
		}
	}
	return &Keystore{ring: ring}
}

// Store saves a private key for a wallet name and returns a reference key.
func (k *Keystore) Store(name, hexKey string) (string, error) {
	if k.ring == nil {
		return "", ErrKeystoreUnavailable
	}
	ref := keyRef(name)
	err := k.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(normaliseHexKey(hexKey)),
		Label: "omnes signing key: " + name,
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Retrieve fetches a private key by its reference. OMNES_PRIVATE_KEY wins
// over the keychain.
func (k *Keystore) Retrieve(ref string) (string, error) {
	if v := os.Getenv(EnvPrivateKey); v != "" {
		return normaliseHexKey(v), nil
	}
	if k.ring == nil {
		return "", ErrKeystoreUnavailable
	}
	item, err := k.ring.Get(ref)
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes a stored key. Missing keys are not an error.
func (k *Keystore) Delete(ref string) error {
	if k.ring == nil {
		return nil
	}
	if err := k.ring.Remove(ref); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// InMemoryKeystore stores keys in memory (for tests and the devnet).
type InMemoryKeystore struct {
	data map[string]string
}

// NewInMemoryKeystore creates an in-memory keystore.
func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	ref := keyRef(name)
	k.data[ref] = hexKey
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("key not found: %s", ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	delete(k.data, ref)
	return nil
}

func keyRef(name string) string {
	return keychainService + "." + name
}

// normaliseHexKey trims whitespace and a 0x/0X prefix.
func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
