package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ProbeNetworks
// ---------------------------------------------------------------------------

func TestProbeNetworksSkipsDevnet(t *testing.T) {
	probes := chain.ProbeNetworks(context.Background(), []chain.Network{
		{Name: chain.DevnetName, ChainID: 31337},
	})
	assert.Empty(t, probes)
}

func TestProbeNetworksHealthy(t *testing.T) {
	// Every method answers 0xaa36a7: chain 11155111, block 11155111.
	srv := rpcServer(t, "0xaa36a7")

	probes := chain.ProbeNetworks(context.Background(), []chain.Network{
		{Name: "sepolia", ChainID: 11155111, RPC: srv.URL},
	})
	require.Len(t, probes, 1)
	p := probes[0]
	assert.True(t, p.Healthy(), "%v", p.Err)
	assert.Equal(t, "sepolia", p.Network)
	assert.Equal(t, uint64(11155111), p.Block)
	assert.Positive(t, p.Latency)
}

func TestProbeNetworksWrongChain(t *testing.T) {
	srv := rpcServer(t, "0x1")

	probes := chain.ProbeNetworks(context.Background(), []chain.Network{
		{Name: "sepolia", ChainID: 11155111, RPC: srv.URL},
	})
	require.Len(t, probes, 1)
	assert.False(t, probes[0].Healthy())
	assert.Contains(t, probes[0].Err.Error(), "want 11155111")
}

func TestProbeNetworksKeepsOrder(t *testing.T) {
	good := rpcServer(t, "0x1")
	probes := chain.ProbeNetworks(context.Background(), []chain.Network{
		{Name: "broken", ChainID: 1, RPC: "ftp://nowhere"},
		{Name: chain.DevnetName, ChainID: 31337},
		{Name: "ethereum", ChainID: 1, RPC: good.URL},
	})
	require.Len(t, probes, 2)
	assert.Equal(t, "broken", probes[0].Network)
	assert.False(t, probes[0].Healthy())
	assert.Equal(t, "ethereum", probes[1].Network)
	assert.True(t, probes[1].Healthy())
}

// ---------------------------------------------------------------------------
// Fastest
// ---------------------------------------------------------------------------

func TestFastestPicksLowestHealthyLatency(t *testing.T) {
	probes := []chain.Probe{
		{Network: "a", Latency: 10 * time.Millisecond, Err: errors.New("down")},
		{Network: "b", Latency: 80 * time.Millisecond},
		{Network: "c", Latency: 30 * time.Millisecond},
	}
	best, err := chain.Fastest(probes)
	require.NoError(t, err)
	assert.Equal(t, "c", best.Network)
}

func TestFastestNoneHealthy(t *testing.T) {
	_, err := chain.Fastest([]chain.Probe{{Err: errors.New("down")}})
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)

	_, err = chain.Fastest(nil)
	assert.ErrorIs(t, err, chain.ErrNoHealthyRPC)
}
