package wallet

import "github.com/Mohsinsiddi/omnes/internal/config"

type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) { return s.wallets, nil }

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// JSONStore keeps wallet metadata in a JSON file, wallets.json in the
// config directory.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the file. A missing file holds no wallets.
func (s *JSONStore) Load() ([]*Wallet, error) {
	wallets, err := config.LoadJSON[[]*Wallet](s.path)
	if err != nil {
		return nil, err
	}
	return *wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	return config.SaveJSON(s.path, wallets)
}
