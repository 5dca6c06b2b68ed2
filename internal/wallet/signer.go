package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs for one account. Keystore-backed signers fetch the key on
// every signature and never cache it.
type Signer struct {
	address common.Address
	wallet  *Wallet // nil for raw-key signers
	ks      KeystoreBackend
	key     *ecdsa.PrivateKey
}

// NewSigner signs for w with keys from ks.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{address: w.Address, wallet: w, ks: ks}
}

// NewKeySigner signs with a raw hex private key, e.g. a devnet account.
func NewKeySigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Signer{address: crypto.PubkeyToAddress(key.PublicKey), key: key}, nil
}

// Address is the account the signer signs for.
func (s *Signer) Address() common.Address { return s.address }

// SignTx signs tx with the latest signer rules for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	if s.key != nil {
		return s.key, nil
	}
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, s.wallet.Name)
	}
	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key for %s: %w", s.wallet.Name, err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	// OMNES_PRIVATE_KEY overrides every reference; refuse a mismatched key.
	if got := crypto.PubkeyToAddress(key.PublicKey); got != s.address {
		return nil, fmt.Errorf("stored key for %q signs as %s, wallet address is %s", s.wallet.Name, got.Hex(), s.address.Hex())
	}
	return key, nil
}
