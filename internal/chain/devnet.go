// Package chain provides the execution backends the omnes bindings run
// against: an in-process development chain and a JSON-RPC client for real
// nodes.
package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Transaction admission errors. A transaction rejected with one of these is
// not included and does not consume its nonce.
var (
	ErrNonce        = errors.New("invalid nonce")
	ErrGasLimit     = errors.New("gas limit below intrinsic gas")
	ErrAlreadyKnown = errors.New("transaction already known")
)

// ErrFundContract is returned when Fund targets a deployed contract.
var ErrFundContract = errors.New("cannot fund a contract account")

// deployment is a contract living on the devnet.
type deployment struct {
	ledger   *ledger.Ledger
	deployer common.Address
}

// Devnet is an in-process EVM-style chain whose only contract type is the
// omnes NFT. Transactions are applied one at a time, each in its own block.
type Devnet struct {
	mu sync.Mutex

	chainID  *big.Int
	signer   types.Signer
	gasPrice *big.Int
	logger   *slog.Logger
	path     string // state file; empty keeps state in memory

	mintPrice *uint256.Int
	excess    ledger.ExcessPolicy

	height    uint64
	bank      *bank
	nonces    map[common.Address]uint64
	rejecting map[common.Address]bool
	contracts map[common.Address]*deployment
	txs       map[common.Hash]*types.Transaction
	receipts  map[common.Hash]*types.Receipt

	pending []ledger.Event // events of the transaction being applied
}

// DevnetOption configures a Devnet.
type DevnetOption func(*Devnet)

// WithDevnetLogger sets the logger.
func WithDevnetLogger(logger *slog.Logger) DevnetOption {
	return func(d *Devnet) { d.logger = logger }
}

// WithDeployDefaults sets the mint price and excess policy of contracts
// deployed from now on.
func WithDeployDefaults(price *uint256.Int, excess ledger.ExcessPolicy) DevnetOption {
	return func(d *Devnet) {
		d.mintPrice = price.Clone()
		d.excess = excess
	}
}

// WithStatePath persists state to path after every transaction.
func WithStatePath(path string) DevnetOption {
	return func(d *Devnet) { d.path = path }
}

// NewDevnet creates a devnet at genesis: the development accounts hold
// 10000 ether each.
func NewDevnet(opts ...DevnetOption) *Devnet {
	d := newDevnet(opts...)
	genesis, _ := uint256.FromBig(Ether(config.DevnetGenesisEther))
	for _, a := range DevAccounts() {
		d.bank.balances[a.Address] = genesis.Clone()
	}
	return d
}

func newDevnet(opts ...DevnetOption) *Devnet {
	chainID := big.NewInt(config.DevnetChainID)
	d := &Devnet{
		chainID:   chainID,
		signer:    types.LatestSignerForChainID(chainID),
		gasPrice:  big.NewInt(config.DevnetGasPriceWei),
		logger:    slog.Default(),
		mintPrice: ledger.DefaultMintPrice.Clone(),
		excess:    ledger.ExcessRetain,
		bank:      newBank(),
		nonces:    make(map[common.Address]uint64),
		rejecting: make(map[common.Address]bool),
		contracts: make(map[common.Address]*deployment),
		txs:       make(map[common.Hash]*types.Transaction),
		receipts:  make(map[common.Hash]*types.Receipt),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetDeployDefaults changes the mint price and excess policy of future
// deployments.
func (d *Devnet) SetDeployDefaults(price *uint256.Int, excess ledger.ExcessPolicy) error {
	if _, err := ledger.ParseExcessPolicy(string(excess)); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mintPrice = price.Clone()
	d.excess = excess
	return nil
}

// ── backend ──────────────────────────────────────────────────────────────────

// ChainID returns 31337.
func (d *Devnet) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(d.chainID), nil
}

// BlockNumber returns the height of the latest block.
func (d *Devnet) BlockNumber(context.Context) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.height, nil
}

// PendingNonceAt returns the next nonce of account.
func (d *Devnet) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nonces[account], nil
}

// NonceAt returns the next nonce of account. blockNumber is ignored.
func (d *Devnet) NonceAt(ctx context.Context, account common.Address, _ *big.Int) (uint64, error) {
	return d.PendingNonceAt(ctx, account)
}

// SuggestGasPrice returns the fixed devnet gas price.
func (d *Devnet) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(d.gasPrice), nil
}

// BalanceAt returns the native balance of account. blockNumber is ignored.
func (d *Devnet) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.balance(account).ToBig(), nil
}

// CallContract executes msg against a copy of the state and returns the
// output. Reverts are returned as *contract.RevertError.
func (d *Devnet) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, err := d.simulate(msg)
	return out, err
}

// EstimateGas simulates msg and returns the gas it uses.
func (d *Devnet) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.simulate(msg); err != nil {
		return 0, err
	}
	return d.gasFor(msg.To, msg.Data), nil
}

// SendTransaction admits a signed transaction and applies it in a new block.
func (d *Devnet) SendTransaction(_ context.Context, tx *types.Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, err := types.Sender(d.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if _, known := d.txs[tx.Hash()]; known {
		return fmt.Errorf("%w: %s", ErrAlreadyKnown, tx.Hash().Hex())
	}
	if want := d.nonces[from]; tx.Nonce() != want {
		return fmt.Errorf("%w: account %s has nonce %d, tx has %d", ErrNonce, from.Hex(), want, tx.Nonce())
	}
	gasUsed := d.gasFor(tx.To(), tx.Data())
	if tx.Gas() < gasUsed {
		return fmt.Errorf("%w: have %d, want %d", ErrGasLimit, tx.Gas(), gasUsed)
	}
	upfront, overflow := uint256.FromBig(tx.Cost())
	if overflow {
		return fmt.Errorf("%w: cost overflows", ErrInsufficientFunds)
	}
	if have := d.bank.balance(from); have.Lt(upfront) {
		return fmt.Errorf("%w: %s has %s wei, tx costs up to %s", ErrInsufficientFunds, from.Hex(), have.Dec(), upfront.Dec())
	}
	value, _ := uint256.FromBig(tx.Value())

	fee := new(uint256.Int).Mul(uint256.NewInt(gasUsed), uint256.MustFromBig(tx.GasPrice()))
	if err := d.bank.debit(from, fee); err != nil {
		return err
	}
	nonce := d.nonces[from]
	d.nonces[from] = nonce + 1
	d.height++

	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: gasUsed,
		GasUsed:           gasUsed,
		EffectiveGasPrice: tx.GasPrice(),
		TxHash:            tx.Hash(),
		BlockHash:         blockHash(d.height),
		BlockNumber:       new(big.Int).SetUint64(d.height),
		TransactionIndex:  0,
	}

	created, logs, execErr := d.apply(from, tx.To(), value, tx.Data(), nonce)
	if execErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		d.logger.Debug("transaction reverted", "tx", tx.Hash().Hex(), "from", from.Hex(), "err", execErr)
	} else {
		receipt.ContractAddress = created
		for i, lg := range logs {
			lg.TxHash = tx.Hash()
			lg.BlockHash = receipt.BlockHash
			lg.BlockNumber = d.height
			lg.Index = uint(i)
		}
		receipt.Logs = logs
	}
	if receipt.Logs == nil {
		receipt.Logs = []*types.Log{}
	}

	d.txs[tx.Hash()] = tx
	d.receipts[tx.Hash()] = receipt
	d.logger.Info("block mined", "height", d.height, "tx", tx.Hash().Hex(), "status", receipt.Status, "gas_used", gasUsed)

	return d.persist()
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound.
func (d *Devnet) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// TransactionByHash returns a mined transaction. isPending is always false.
func (d *Devnet) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tx, ok := d.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, false, nil
}

// Close saves state.
func (d *Devnet) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.persist(); err != nil {
		d.logger.Warn("saving devnet state", "err", err)
	}
}

// ── admin ────────────────────────────────────────────────────────────────────

// Fund credits amount wei to account out of thin air. Contract balances only
// move through contract calls, so contract accounts are refused.
func (d *Devnet) Fund(account common.Address, amount *big.Int) error {
	v, overflow := uint256.FromBig(amount)
	if overflow || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount %s", amount)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contracts[account]; ok {
		return fmt.Errorf("%w: %s", ErrFundContract, account.Hex())
	}
	if err := d.bank.credit(account, v); err != nil {
		return err
	}
	return d.persist()
}

// SetRejecting makes account refuse (or accept again) incoming native value,
// like a contract without a payable receive function.
func (d *Devnet) SetRejecting(account common.Address, reject bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if reject {
		d.rejecting[account] = true
	} else {
		delete(d.rejecting, account)
	}
	return d.persist()
}

// Ledger returns the ledger of the contract at addr.
func (d *Devnet) Ledger(addr common.Address) (*ledger.Ledger, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dep, ok := d.contracts[addr]
	if !ok {
		return nil, false
	}
	return dep.ledger, true
}

// Contracts returns the addresses of all deployed contracts.
func (d *Devnet) Contracts() []common.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]common.Address, 0, len(d.contracts))
	for a := range d.contracts {
		out = append(out, a)
	}
	sortAddresses(out)
	return out
}

// ── execution ────────────────────────────────────────────────────────────────

func (d *Devnet) rejects(a common.Address) bool {
	if d.rejecting[a] {
		return true
	}
	_, isContract := d.contracts[a]
	return isContract
}

// apply executes a transaction body against the live state. On error every
// balance change is undone; ledger operations are atomic on their own.
func (d *Devnet) apply(from common.Address, to *common.Address, value *uint256.Int, data []byte, nonce uint64) (common.Address, []*types.Log, error) {
	snap := d.bank.snapshot()
	d.pending = d.pending[:0]

	if to == nil {
		addr, err := d.create(from, value, data, nonce)
		if err != nil {
			d.bank.restore(snap)
			return common.Address{}, nil, err
		}
		return addr, nil, nil
	}

	target := *to
	if err := d.transferIn(d.bank, from, target, value, data); err != nil {
		d.bank.restore(snap)
		return common.Address{}, nil, err
	}
	dep, ok := d.contracts[target]
	if !ok {
		return common.Address{}, nil, nil
	}
	if _, err := contract.Dispatch(dep.ledger, from, value, data); err != nil {
		d.bank.restore(snap)
		return common.Address{}, nil, &contract.RevertError{Reason: err.Error(), Err: err}
	}

	logs := make([]*types.Log, 0, len(d.pending))
	for _, ev := range d.pending {
		lg, err := contract.EventLog(target, ev)
		if err != nil {
			d.logger.Warn("encoding event", "kind", ev.Kind, "err", err)
			continue
		}
		logs = append(logs, lg)
	}
	return common.Address{}, logs, nil
}

// transferIn moves the call value to the target. Plain transfers to a
// contract or to a rejecting account revert.
func (d *Devnet) transferIn(b *bank, from, to common.Address, value *uint256.Int, data []byte) error {
	_, isContract := d.contracts[to]
	if !isContract && d.rejecting[to] && !value.IsZero() {
		return &contract.RevertError{Reason: ErrRecipientRejected.Error(), Err: ErrRecipientRejected}
	}
	if isContract && len(data) == 0 && !value.IsZero() {
		return &contract.RevertError{Reason: "contract has no receive function"}
	}
	return b.move(from, to, value)
}

func (d *Devnet) create(from common.Address, value *uint256.Int, data []byte, nonce uint64) (common.Address, error) {
	if !value.IsZero() {
		return common.Address{}, &contract.RevertError{Reason: contract.ErrNotPayable.Error(), Err: contract.ErrNotPayable}
	}
	meta, err := decodeConstructor(data)
	if err != nil {
		return common.Address{}, err
	}
	addr := crypto.CreateAddress(from, nonce)
	l, err := ledger.New(from, meta, d.ledgerOptions(addr, d.bank, true,
		ledger.WithMintPrice(d.mintPrice), ledger.WithExcessPolicy(d.excess))...)
	if err != nil {
		return common.Address{}, &contract.RevertError{Reason: err.Error(), Err: err}
	}
	d.contracts[addr] = &deployment{ledger: l, deployer: from}
	d.logger.Info("contract created", "address", addr.Hex(), "deployer", from.Hex(), "name", meta.Name, "symbol", meta.Symbol)
	return addr, nil
}

// ledgerOptions wires a contract ledger to a bank. live ledgers also record
// events for receipts.
func (d *Devnet) ledgerOptions(addr common.Address, b *bank, live bool, extra ...ledger.Option) []ledger.Option {
	opts := []ledger.Option{
		ledger.WithLogger(d.logger.With("contract", addr.Hex())),
		ledger.WithVault(&vault{bank: b, contract: addr, rejects: d.rejects}),
	}
	if live {
		opts = append(opts, ledger.WithHook(func(e ledger.Event) { d.pending = append(d.pending, e) }))
	}
	return append(opts, extra...)
}

// simulate runs msg on copies of the bank and the target ledger.
func (d *Devnet) simulate(msg ethereum.CallMsg) ([]byte, error) {
	value := new(uint256.Int)
	if msg.Value != nil {
		v, overflow := uint256.FromBig(msg.Value)
		if overflow || msg.Value.Sign() < 0 {
			return nil, fmt.Errorf("invalid value %s", msg.Value)
		}
		value = v
	}

	if msg.To == nil {
		if !value.IsZero() {
			return nil, &contract.RevertError{Reason: contract.ErrNotPayable.Error(), Err: contract.ErrNotPayable}
		}
		meta, err := decodeConstructor(msg.Data)
		if err != nil {
			return nil, err
		}
		if err := meta.Validate(); err != nil {
			return nil, &contract.RevertError{Reason: err.Error(), Err: err}
		}
		return nil, nil
	}

	b := d.bank.clone()
	if err := d.transferIn(b, msg.From, *msg.To, value, msg.Data); err != nil {
		return nil, err
	}
	dep, ok := d.contracts[*msg.To]
	if !ok {
		return nil, nil
	}

	quiet := slog.New(slog.DiscardHandler)
	clone, err := ledger.Restore(dep.ledger.Snapshot(),
		ledger.WithLogger(quiet),
		ledger.WithVault(&vault{bank: b, contract: *msg.To, rejects: d.rejects}))
	if err != nil {
		return nil, err
	}
	out, err := contract.Dispatch(clone, msg.From, value, msg.Data)
	if err != nil {
		return nil, &contract.RevertError{Reason: err.Error(), Err: err}
	}
	return out, nil
}

// gasFor is the gas a transaction uses: intrinsic gas plus a flat execution
// cost for contract calls and creation.
func (d *Devnet) gasFor(to *common.Address, data []byte) uint64 {
	gas := config.GasLimitTransfer
	for _, b := range data {
		if b == 0 {
			gas += config.GasPerCalldataZeroes
		} else {
			gas += config.GasPerCalldataByte
		}
	}
	switch {
	case to == nil:
		gas += config.GasContractDeploy
	case d.contracts[*to] != nil:
		gas += config.GasContractCall
	}
	return gas
}

// decodeConstructor reads the constructor arguments from creation data. The
// devnet runs no bytecode, so any code prefix from an artifact is skipped:
// the arguments are the suffix that re-encodes to itself.
func decodeConstructor(data []byte) (ledger.Metadata, error) {
	parsed, err := contract.OmnesABI()
	if err != nil {
		return ledger.Metadata{}, err
	}
	head := common.LeftPadBytes([]byte{0x80}, 32) // offset of the first string
	for i := 0; i+len(head) <= len(data); i++ {
		if i > 0 && !bytes.Equal(data[i:i+len(head)], head) {
			continue
		}
		args, err := parsed.Constructor.Inputs.Unpack(data[i:])
		if err != nil || len(args) != 4 {
			continue
		}
		repacked, err := parsed.Constructor.Inputs.Pack(args...)
		if err != nil || !bytes.Equal(repacked, data[i:]) {
			continue
		}
		return ledger.Metadata{
			Name:      args[0].(string),
			Symbol:    args[1].(string),
			BaseURI:   args[2].(string),
			HiddenURI: args[3].(string),
		}, nil
	}
	return ledger.Metadata{}, &contract.RevertError{Reason: "invalid constructor arguments"}
}

func blockHash(height uint64) common.Hash {
	return crypto.Keccak256Hash([]byte("omnes-devnet"), new(big.Int).SetUint64(height).Bytes())
}
