package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no probed endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint")

// Probe is the outcome of pinging one network's RPC endpoint.
type Probe struct {
	Network string
	URL     string
	Latency time.Duration
	Block   uint64
	Err     error
}

// Healthy reports whether the endpoint answered with the expected chain.
func (p Probe) Healthy() bool { return p.Err == nil }

// ProbeNetworks pings the RPC endpoint of every network in parallel.
// Networks without an endpoint (the devnet) are skipped. Results keep the
// order of networks.
func ProbeNetworks(ctx context.Context, networks []Network) []Probe {
	var targets []*Network
	for i := range networks {
		if networks[i].RPC != "" {
			targets = append(targets, &networks[i])
		}
	}

	results := make([]Probe, len(targets))
	var wg sync.WaitGroup
	for i, n := range targets {
		wg.Add(1)
		go func(idx int, n *Network) {
			defer wg.Done()
			results[idx] = probe(ctx, n)
		}(i, n)
	}
	wg.Wait()
	return results
}

func probe(ctx context.Context, n *Network) Probe {
	p := Probe{Network: n.Name, URL: n.RPC}
	start := time.Now()

	client, chainID, err := Dial(ctx, n.RPC)
	if err != nil {
		p.Err = err
		return p
	}
	defer client.Close()
	if chainID.Int64() != n.ChainID {
		p.Err = fmt.Errorf("%s answers for chain %s, want %d", n.RPC, chainID, n.ChainID)
		return p
	}
	block, err := client.BlockNumber(ctx)
	if err != nil {
		p.Err = fmt.Errorf("%s: eth_blockNumber: %w", n.RPC, err)
		return p
	}
	p.Block = block
	p.Latency = time.Since(start)
	return p
}

// Fastest returns the healthy probe with the lowest latency.
func Fastest(probes []Probe) (Probe, error) {
	var best *Probe
	for i := range probes {
		p := &probes[i]
		if !p.Healthy() {
			continue
		}
		if best == nil || p.Latency < best.Latency {
			best = p
		}
	}
	if best == nil {
		return Probe{}, ErrNoHealthyRPC
	}
	return *best, nil
}
