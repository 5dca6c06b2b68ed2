package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"devnet", 31337},
		{"localhost", 31337},
		{"sepolia", 11155111},
		{"base-sepolia", 84532},
		{"polygon-amoy", 80002},
		{"ethereum", 1},
		{"base", 8453},
		{"polygon", 137},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, n.ChainID)
			assert.NotEmpty(t, n.NativeCurrency)
		})
	}
}

func TestRegistryGetByNameNormalises(t *testing.T) {
	registry := chain.NewRegistry()
	n, err := registry.GetByName("  Sepolia ")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", n.Name)
}

func TestRegistryGetByNameNotFound(t *testing.T) {
	registry := chain.NewRegistry()
	_, err := registry.GetByName("solana")
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryGetByChainID(t *testing.T) {
	registry := chain.NewRegistry()

	n, err := registry.GetByChainID(31337)
	require.NoError(t, err)
	assert.Equal(t, chain.DevnetName, n.Name, "the devnet wins over localhost")

	n, err = registry.GetByChainID(8453)
	require.NoError(t, err)
	assert.Equal(t, "base", n.Name)

	_, err = registry.GetByChainID(999999)
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestRegistryNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range chain.NewRegistry().All() {
		assert.False(t, seen[n.Name], "duplicate network %s", n.Name)
		seen[n.Name] = true
		if n.Name != chain.DevnetName {
			assert.NotEmpty(t, n.RPC, n.Name)
		}
	}
}

func TestRegistryResolveRPC(t *testing.T) {
	registry := chain.NewRegistry()

	url, err := registry.ResolveRPC("")
	require.NoError(t, err)
	assert.Empty(t, url)

	url, err = registry.ResolveRPC(chain.DevnetName)
	require.NoError(t, err)
	assert.Empty(t, url, "the devnet has no RPC endpoint")

	url, err = registry.ResolveRPC("localhost")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", url)

	url, err = registry.ResolveRPC("https://my-node.example/rpc")
	require.NoError(t, err)
	assert.Equal(t, "https://my-node.example/rpc", url)

	_, err = registry.ResolveRPC("nowhere")
	assert.ErrorIs(t, err, chain.ErrNetworkNotFound)
}

func TestNetworkExplorerURLs(t *testing.T) {
	registry := chain.NewRegistry()

	sepolia, err := registry.GetByName("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", sepolia.TxURL("0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xdef", sepolia.AddressURL("0xdef"))

	devnet, err := registry.GetByName(chain.DevnetName)
	require.NoError(t, err)
	assert.Empty(t, devnet.TxURL("0xabc"))
	assert.Empty(t, devnet.AddressURL("0xdef"))
}
