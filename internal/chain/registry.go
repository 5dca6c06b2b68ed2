package chain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// DevnetName is the network served in-process.
const DevnetName = "devnet"

// Network holds the metadata of a network omnes can deploy to.
type Network struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	ChainID        int64  `json:"chain_id"`
	NativeCurrency string `json:"native_currency"`
	RPC            string `json:"rpc"`      // empty for the in-process devnet
	Explorer       string `json:"explorer"` // empty when there is none
	Testnet        bool   `json:"testnet"`
}

// TxURL returns the explorer link for a transaction, or "".
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/tx/" + hash
}

// AddressURL returns the explorer link for an address, or "".
func (n *Network) AddressURL(addr string) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/address/" + addr
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the registry of known networks.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		if _, seen := r.byID[n.ChainID]; !seen {
			r.byID[n.ChainID] = n
		}
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	return r.networks
}

// GetByName finds a network by its slug name (e.g. "sepolia").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	return n, nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return n, nil
}

// ResolveRPC turns a network name or an RPC URL into an RPC URL. The devnet
// resolves to "".
func (r *Registry) ResolveRPC(nameOrURL string) (string, error) {
	if nameOrURL == "" || strings.Contains(nameOrURL, "://") {
		return nameOrURL, nil
	}
	n, err := r.GetByName(nameOrURL)
	if err != nil {
		return "", err
	}
	return n.RPC, nil
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{Name: DevnetName, DisplayName: "In-process devnet", ChainID: 31337, NativeCurrency: "ETH", Testnet: true},
		{Name: "localhost", DisplayName: "Local Hardhat/Anvil node", ChainID: 31337, NativeCurrency: "ETH",
			RPC: "http://127.0.0.1:8545", Testnet: true},
		{Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111, NativeCurrency: "ETH",
			RPC: "https://rpc.sepolia.org", Explorer: "https://sepolia.etherscan.io", Testnet: true},
		{Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532, NativeCurrency: "ETH",
			RPC: "https://sepolia.base.org", Explorer: "https://sepolia.basescan.org", Testnet: true},
		{Name: "polygon-amoy", DisplayName: "Polygon Amoy", ChainID: 80002, NativeCurrency: "POL",
			RPC: "https://rpc-amoy.polygon.technology", Explorer: "https://amoy.polygonscan.com", Testnet: true},
		{Name: "arbitrum-sepolia", DisplayName: "Arbitrum Sepolia", ChainID: 421614, NativeCurrency: "ETH",
			RPC: "https://sepolia-rollup.arbitrum.io/rpc", Explorer: "https://sepolia.arbiscan.io", Testnet: true},
		{Name: "optimism-sepolia", DisplayName: "OP Sepolia", ChainID: 11155420, NativeCurrency: "ETH",
			RPC: "https://sepolia.optimism.io", Explorer: "https://sepolia-optimism.etherscan.io", Testnet: true},
		{Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, NativeCurrency: "ETH",
			RPC: "https://ethereum-rpc.publicnode.com", Explorer: "https://etherscan.io"},
		{Name: "base", DisplayName: "Base", ChainID: 8453, NativeCurrency: "ETH",
			RPC: "https://mainnet.base.org", Explorer: "https://basescan.org"},
		{Name: "polygon", DisplayName: "Polygon", ChainID: 137, NativeCurrency: "POL",
			RPC: "https://polygon-bor-rpc.publicnode.com", Explorer: "https://polygonscan.com"},
	}
}
