package config

import "time"

// Devnet parameters. The chain ID matches Hardhat so wallets configured for a
// local Hardhat node sign for the devnet unchanged.
const (
	DevnetChainID      = int64(31337)
	DevnetGasPriceWei  = int64(1_000_000_000) // 1 gwei
	DevnetGenesisEther = int64(10_000)
)

// Gas used by the devnet. Estimates equal actual usage.
const (
	GasLimitTransfer     = uint64(21_000)  // intrinsic transaction gas
	GasContractCall      = uint64(50_000)  // state-changing contract call on top of intrinsic gas
	GasContractDeploy    = uint64(500_000) // contract creation on top of intrinsic gas
	GasPerCalldataByte   = uint64(16)
	GasPerCalldataZeroes = uint64(4)
)

// Timeout constants used across cmd and the bindings.
const (
	TxConfirmTimeout    = 3 * time.Minute // standard transaction confirmation wait
	TxDeployTimeout     = 5 * time.Minute // contract deployment confirmation wait
	ReceiptPollInterval = 2 * time.Second
	DialTimeout         = 10 * time.Second
)
