package chain

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// The first Hardhat/Anvil development accounts. Never fund these on a real
// network: the keys are public.
var devKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
}

// DevAccount is a pre-funded devnet account.
type DevAccount struct {
	Address common.Address
	Key     string // hex, no 0x prefix
}

// PrivateKey parses the account key.
func (a DevAccount) PrivateKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(a.Key)
	if err != nil {
		panic(err)
	}
	return key
}

// DevAccounts returns the pre-funded accounts in order.
func DevAccounts() []DevAccount {
	out := make([]DevAccount, len(devKeys))
	for i, k := range devKeys {
		key, err := crypto.HexToECDSA(k)
		if err != nil {
			panic(err)
		}
		out[i] = DevAccount{Address: crypto.PubkeyToAddress(key.PublicKey), Key: k}
	}
	return out
}
