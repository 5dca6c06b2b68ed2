package chain

import (
	"fmt"
	"math/big"
	"os"
	"sort"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// devnetState is the on-disk form of a Devnet.
type devnetState struct {
	ChainID   int64             `json:"chain_id"`
	Height    uint64            `json:"height"`
	MintPrice string            `json:"mint_price"`
	Excess    string            `json:"excess_policy"`
	Balances  map[string]string `json:"balances"` // address -> wei
	Nonces    map[string]uint64 `json:"nonces"`
	Rejecting []string          `json:"rejecting,omitempty"`
	Contracts []contractState   `json:"contracts"`
	Txs       []txState         `json:"transactions"`
}

type contractState struct {
	Address  common.Address   `json:"address"`
	Deployer common.Address   `json:"deployer"`
	Ledger   *ledger.Snapshot `json:"ledger"`
}

type txState struct {
	Raw     hexutil.Bytes `json:"raw"`
	Receipt receiptState  `json:"receipt"`
}

type receiptState struct {
	Status          uint64         `json:"status"`
	GasUsed         uint64         `json:"gas_used"`
	BlockNumber     uint64         `json:"block_number"`
	ContractAddress common.Address `json:"contract_address"`
	Logs            []logState     `json:"logs"`
}

type logState struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// OpenDevnet loads a devnet from path, or creates one at genesis when the
// file does not exist. State is saved back to path after every transaction.
func OpenDevnet(path string, opts ...DevnetOption) (*Devnet, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		d := NewDevnet(append(opts, WithStatePath(path))...)
		d.mu.Lock()
		defer d.mu.Unlock()
		return d, d.persist()
	}

	st, err := config.LoadJSON[devnetState](path)
	if err != nil {
		return nil, fmt.Errorf("reading devnet state %s: %w", path, err)
	}
	d := newDevnet(append(opts, WithStatePath(path))...)
	if err := d.load(st); err != nil {
		return nil, fmt.Errorf("loading devnet state %s: %w", path, err)
	}
	return d, nil
}

// Save writes the state file.
func (d *Devnet) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.persist()
}

func (d *Devnet) persist() error {
	if d.path == "" {
		return nil
	}
	return config.SaveJSON(d.path, d.dump())
}

func (d *Devnet) dump() *devnetState {
	st := &devnetState{
		ChainID:   d.chainID.Int64(),
		Height:    d.height,
		MintPrice: d.mintPrice.Dec(),
		Excess:    string(d.excess),
		Balances:  make(map[string]string, len(d.bank.balances)),
		Nonces:    make(map[string]uint64, len(d.nonces)),
	}
	for a, v := range d.bank.balances {
		st.Balances[a.Hex()] = v.Dec()
	}
	for a, n := range d.nonces {
		st.Nonces[a.Hex()] = n
	}
	for a := range d.rejecting {
		st.Rejecting = append(st.Rejecting, a.Hex())
	}
	sort.Strings(st.Rejecting)

	addrs := make([]common.Address, 0, len(d.contracts))
	for a := range d.contracts {
		addrs = append(addrs, a)
	}
	sortAddresses(addrs)
	for _, a := range addrs {
		dep := d.contracts[a]
		st.Contracts = append(st.Contracts, contractState{Address: a, Deployer: dep.deployer, Ledger: dep.ledger.Snapshot()})
	}

	for hash, tx := range d.txs {
		raw, err := tx.MarshalBinary()
		if err != nil {
			d.logger.Warn("encoding transaction", "tx", hash.Hex(), "err", err)
			continue
		}
		r := d.receipts[hash]
		rs := receiptState{
			Status:          r.Status,
			GasUsed:         r.GasUsed,
			BlockNumber:     r.BlockNumber.Uint64(),
			ContractAddress: r.ContractAddress,
		}
		for _, lg := range r.Logs {
			rs.Logs = append(rs.Logs, logState{Address: lg.Address, Topics: lg.Topics, Data: lg.Data})
		}
		st.Txs = append(st.Txs, txState{Raw: raw, Receipt: rs})
	}
	sort.Slice(st.Txs, func(i, j int) bool { return st.Txs[i].Receipt.BlockNumber < st.Txs[j].Receipt.BlockNumber })
	return st
}

func (d *Devnet) load(st *devnetState) error {
	if st.ChainID != 0 && st.ChainID != d.chainID.Int64() {
		return fmt.Errorf("state is for chain %d, devnet is %d", st.ChainID, d.chainID.Int64())
	}
	d.height = st.Height
	if st.MintPrice != "" {
		price, err := uint256.FromDecimal(st.MintPrice)
		if err != nil {
			return fmt.Errorf("mint price: %w", err)
		}
		d.mintPrice = price
	}
	if st.Excess != "" {
		excess, err := ledger.ParseExcessPolicy(st.Excess)
		if err != nil {
			return err
		}
		d.excess = excess
	}

	for a, v := range st.Balances {
		bal, err := uint256.FromDecimal(v)
		if err != nil {
			return fmt.Errorf("balance of %s: %w", a, err)
		}
		d.bank.balances[common.HexToAddress(a)] = bal
	}
	for a, n := range st.Nonces {
		d.nonces[common.HexToAddress(a)] = n
	}
	for _, a := range st.Rejecting {
		d.rejecting[common.HexToAddress(a)] = true
	}

	for _, c := range st.Contracts {
		if c.Ledger == nil {
			return fmt.Errorf("contract %s has no ledger state", c.Address.Hex())
		}
		l, err := ledger.Restore(c.Ledger, d.ledgerOptions(c.Address, d.bank, true)...)
		if err != nil {
			return fmt.Errorf("contract %s: %w", c.Address.Hex(), err)
		}
		d.contracts[c.Address] = &deployment{ledger: l, deployer: c.Deployer}
	}

	for _, ts := range st.Txs {
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(ts.Raw); err != nil {
			return fmt.Errorf("decoding transaction: %w", err)
		}
		hash := tx.Hash()
		rs := ts.Receipt
		r := &types.Receipt{
			Type:              tx.Type(),
			Status:            rs.Status,
			CumulativeGasUsed: rs.GasUsed,
			GasUsed:           rs.GasUsed,
			EffectiveGasPrice: tx.GasPrice(),
			TxHash:            hash,
			BlockHash:         blockHash(rs.BlockNumber),
			BlockNumber:       new(big.Int).SetUint64(rs.BlockNumber),
			ContractAddress:   rs.ContractAddress,
			Logs:              []*types.Log{},
		}
		for i, ls := range rs.Logs {
			r.Logs = append(r.Logs, &types.Log{
				Address:     ls.Address,
				Topics:      ls.Topics,
				Data:        ls.Data,
				BlockNumber: rs.BlockNumber,
				TxHash:      hash,
				BlockHash:   r.BlockHash,
				Index:       uint(i),
			})
		}
		d.txs[hash] = tx
		d.receipts[hash] = r
	}
	return nil
}

func sortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })
}
