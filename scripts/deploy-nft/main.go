// deploy-nft: deploys the SBT-OMNES10 collection and prints its address.
//
// Against a throwaway in-memory devnet:
//
//	go run ./scripts/deploy-nft
//
// Against a node:
//
//	OMNES_RPC_URL=https://sepolia.base.org OMNES_PRIVATE_KEY=0x… \
//	OMNES_ARTIFACT=artifacts/contracts/NFT.sol/NFT.json go run ./scripts/deploy-nft
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/Mohsinsiddi/omnes/internal/wallet"
)

var collection = ledger.Metadata{
	Name:      "SBT-OMNES10",
	Symbol:    "OMENSSBT",
	BaseURI:   "https://ipfs.io/ipfs/QmSxLQ6K7s3yvUWP4VpkBvhfyG1rJBcDY5gAKaScihAKxx/",
	HiddenURI: "https://ipfs.io/ipfs/QmWCbaw4vp4m6QKqrkxtQe7A7tsir9WGMgVvZaagMzSe9W",
}

const deployTimeout = 3 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), deployTimeout)
	defer cancel()

	var (
		backend  chain.Client
		bytecode []byte
		key      = os.Getenv(wallet.EnvPrivateKey)
		bindOpts []contract.BindOption
	)
	if url := os.Getenv("OMNES_RPC_URL"); url != "" {
		client, chainID, err := chain.Dial(ctx, url)
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("%s is required on chain %s", wallet.EnvPrivateKey, chainID)
		}
		art, err := contract.LoadArtifact(os.Getenv("OMNES_ARTIFACT"))
		if err != nil {
			return err
		}
		backend, bytecode = client, art.Bytecode
	} else {
		backend = chain.NewDevnet()
		bindOpts = append(bindOpts, contract.WithPollInterval(10*time.Millisecond))
		if key == "" {
			key = chain.DevAccounts()[0].Key
		}
	}
	defer backend.Close()

	signer, err := wallet.NewKeySigner(key)
	if err != nil {
		return err
	}
	nft, _, err := contract.DeployNFT(ctx, backend, &contract.TransactOpts{Signer: signer}, collection, bytecode, bindOpts...)
	if err != nil {
		return err
	}
	fmt.Println("NFT deployed to:", nft.Address().Hex())
	return nil
}
