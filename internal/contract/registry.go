package contract

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/ethereum/go-ethereum/common"
)

// ErrContractNotFound is returned when a contract is not found.
var ErrContractNotFound = errors.New("contract not found")

// Entry is a deployed contract remembered by label and network.
type Entry struct {
	Label      string         `json:"label"`
	Network    string         `json:"network"`
	Address    common.Address `json:"address"`
	BuiltinID  string         `json:"builtin,omitempty"`
	ABI        []ABIEntry     `json:"abi,omitempty"` // only for non-builtin contracts
	Deployer   common.Address `json:"deployer"`
	TxHash     common.Hash    `json:"tx_hash"`
	DeployedAt time.Time      `json:"deployed_at"`
}

// Entries returns the ABI of the contract: the built-in's when BuiltinID is
// set, the stored one otherwise.
func (e *Entry) Entries() []ABIEntry {
	if e.BuiltinID != "" {
		if b, ok := GetBuiltin(e.BuiltinID); ok {
			return b.ABI
		}
	}
	return e.ABI
}

// Registry stores and retrieves contract entries.
type Registry struct {
	path      string
	contracts map[string]*Entry // key: "label@network"
}

// NewRegistry creates a Registry backed by a JSON file.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:      path,
		contracts: make(map[string]*Entry),
	}
}

// Load reads stored contracts from disk. A missing file is an empty registry.
func (r *Registry) Load() error {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil
	}
	entries, err := config.LoadJSON[[]Entry](r.path)
	if err != nil {
		return fmt.Errorf("reading contracts: %w", err)
	}
	for i := range *entries {
		e := &(*entries)[i]
		r.contracts[key(e.Label, e.Network)] = e
	}
	return nil
}

// Save writes all contracts to disk, ordered by network then label.
func (r *Registry) Save() error {
	entries := make([]Entry, 0, len(r.contracts))
	for _, e := range r.All() {
		entries = append(entries, *e)
	}
	return config.SaveJSON(r.path, entries)
}

// Add adds or updates a contract entry.
func (r *Registry) Add(e *Entry) error {
	if e.Label == "" || e.Network == "" {
		return errors.New("contract entry needs a label and a network")
	}
	r.contracts[key(e.Label, e.Network)] = e
	return nil
}

// Get returns a contract by label and network.
func (r *Registry) Get(label, network string) (*Entry, error) {
	e, ok := r.contracts[key(label, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, label, network)
	}
	return e, nil
}

// Resolve accepts a label or a 0x address. Addresses unknown to the registry
// resolve to a bare built-in entry so any omnes contract can be addressed.
func (r *Registry) Resolve(labelOrAddr, network string) (*Entry, error) {
	if common.IsHexAddress(labelOrAddr) {
		addr := common.HexToAddress(labelOrAddr)
		for _, e := range r.contracts {
			if e.Network == network && e.Address == addr {
				return e, nil
			}
		}
		return &Entry{Label: strings.ToLower(addr.Hex()), Network: network, Address: addr, BuiltinID: BuiltinOmnes}, nil
	}
	return r.Get(labelOrAddr, network)
}

// GetByLabel returns all entries for a label across all networks.
func (r *Registry) GetByLabel(label string) []*Entry {
	var out []*Entry
	for _, e := range r.All() {
		if e.Label == label {
			out = append(out, e)
		}
	}
	return out
}

// All returns all registered contracts ordered by network then label.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, 0, len(r.contracts))
	for _, e := range r.contracts {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Remove deletes a contract entry.
func (r *Registry) Remove(label, network string) error {
	k := key(label, network)
	if _, ok := r.contracts[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrContractNotFound, label, network)
	}
	delete(r.contracts, k)
	return nil
}

func key(label, network string) string {
	return label + "@" + network
}
