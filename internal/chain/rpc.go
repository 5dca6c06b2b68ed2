package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is what the CLI needs from a chain: the binding backend plus
// lookups for receipts and blocks.
type Client interface {
	contract.Backend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	Close()
}

var (
	_ Client = (*Devnet)(nil)
	_ Client = (*ethclient.Client)(nil)
)

// Dial connects to a JSON-RPC node and checks it answers eth_chainId.
func Dial(ctx context.Context, url string) (*ethclient.Client, *big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("%s: eth_chainId: %w", url, err)
	}
	return client, chainID, nil
}
