package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// Backend is the subset of an Ethereum client the bindings need. Both
// *ethclient.Client and the in-process devnet implement it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Signer signs transactions for one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// TransactOpts carries the sender and value of a write call.
type TransactOpts struct {
	Signer   Signer
	Value    *big.Int
	GasLimit uint64 // 0 estimates
}

// BindOption configures an NFT binding.
type BindOption func(*NFT)

// WithConfirmTimeout bounds how long writes wait for a receipt.
func WithConfirmTimeout(d time.Duration) BindOption {
	return func(n *NFT) { n.timeout = d }
}

// WithPollInterval sets the receipt polling interval.
func WithPollInterval(d time.Duration) BindOption {
	return func(n *NFT) { n.poll = d }
}

// WithBindLogger sets the logger.
func WithBindLogger(logger *slog.Logger) BindOption {
	return func(n *NFT) { n.logger = logger }
}

// NFT is a typed binding to a deployed omnes contract.
type NFT struct {
	address common.Address
	backend Backend
	abi     abi.ABI
	timeout time.Duration
	poll    time.Duration
	logger  *slog.Logger
}

// NewNFT binds the contract at address.
func NewNFT(address common.Address, backend Backend, opts ...BindOption) *NFT {
	n := &NFT{
		address: address,
		backend: backend,
		abi:     mustOmnesABI(),
		timeout: config.TxConfirmTimeout,
		poll:    config.ReceiptPollInterval,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Address returns the bound contract address.
func (n *NFT) Address() common.Address { return n.address }

// DeployNFT creates a new omnes contract. bytecode is prepended to the
// constructor arguments; the devnet takes none.
func DeployNFT(ctx context.Context, backend Backend, opts *TransactOpts, meta ledger.Metadata, bytecode []byte, bindOpts ...BindOption) (*NFT, *types.Receipt, error) {
	if err := meta.Validate(); err != nil {
		return nil, nil, err
	}
	parsed := mustOmnesABI()
	args, err := parsed.Pack("", meta.Name, meta.Symbol, meta.BaseURI, meta.HiddenURI)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding constructor args: %w", err)
	}
	data := append(append([]byte(nil), bytecode...), args...)

	// Binding without an address only to reuse transact and waitMined.
	n := NewNFT(common.Address{}, backend, bindOpts...)
	if n.timeout < config.TxDeployTimeout {
		n.timeout = config.TxDeployTimeout
	}
	receipt, err := n.send(ctx, opts, nil, data)
	if err != nil {
		return nil, receipt, err
	}
	n.address = receipt.ContractAddress
	n.logger.Info("contract deployed", "address", n.address.Hex(), "tx", receipt.TxHash.Hex())
	return n, receipt, nil
}

// ── reads ────────────────────────────────────────────────────────────────────

// BalanceOf returns the number of tokens held by holder.
func (n *NFT) BalanceOf(ctx context.Context, holder common.Address) (uint64, error) {
	v, err := n.callBig(ctx, "balanceOf", holder)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// TotalSupply returns the number of minted tokens.
func (n *NFT) TotalSupply(ctx context.Context) (uint64, error) {
	v, err := n.callBig(ctx, "totalSupply")
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// OwnerOf returns the holder of a token.
func (n *NFT) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	var out common.Address
	err := n.call(ctx, &out, "ownerOf", new(big.Int).SetUint64(tokenID))
	return out, err
}

// Owner returns the contract owner.
func (n *NFT) Owner(ctx context.Context) (common.Address, error) {
	var out common.Address
	err := n.call(ctx, &out, "owner")
	return out, err
}

// IsOperator reports whether account holds the operator capabilities.
func (n *NFT) IsOperator(ctx context.Context, account common.Address) (bool, error) {
	var out bool
	err := n.call(ctx, &out, "isOperator", account)
	return out, err
}

// Paused reports whether public minting is blocked.
func (n *NFT) Paused(ctx context.Context) (bool, error) {
	var out bool
	err := n.call(ctx, &out, "paused")
	return out, err
}

// Cost returns the public mint price in wei.
func (n *NFT) Cost(ctx context.Context) (*big.Int, error) {
	return n.callBig(ctx, "cost")
}

// Metadata returns the construction metadata.
func (n *NFT) Metadata(ctx context.Context) (ledger.Metadata, error) {
	var m ledger.Metadata
	for _, f := range []struct {
		method string
		dst    *string
	}{
		{"name", &m.Name},
		{"symbol", &m.Symbol},
		{"baseURI", &m.BaseURI},
		{"hiddenMetadataUri", &m.HiddenURI},
	} {
		if err := n.call(ctx, f.dst, f.method); err != nil {
			return ledger.Metadata{}, err
		}
	}
	return m, nil
}

// Escrow returns the payments held for the owner. Value that reached the
// contract outside a mint is not part of it.
func (n *NFT) Escrow(ctx context.Context) (*big.Int, error) {
	return n.callBig(ctx, "escrow")
}

// Withdrawn sums the Withdrawn events of a receipt: the amount a
// withdrawPayments transaction actually moved.
func (n *NFT) Withdrawn(r *types.Receipt) *big.Int {
	total := new(big.Int)
	for _, ev := range n.Events(r) {
		if ev.Kind == ledger.EventWithdrawn && ev.Amount != nil {
			total.Add(total, ev.Amount.ToBig())
		}
	}
	return total
}

// ── writes ───────────────────────────────────────────────────────────────────

// MintAirdrop issues the next token to recipient without payment.
func (n *NFT) MintAirdrop(ctx context.Context, opts *TransactOpts, recipient common.Address) (*types.Receipt, error) {
	return n.transact(ctx, opts, "mintAirdrp", recipient)
}

// MintPublic issues the next token to the sender against opts.Value.
func (n *NFT) MintPublic(ctx context.Context, opts *TransactOpts) (*types.Receipt, error) {
	return n.transact(ctx, opts, "mintOmnes")
}

// SetPaused sets the pause flag.
func (n *NFT) SetPaused(ctx context.Context, opts *TransactOpts, paused bool) (*types.Receipt, error) {
	return n.transact(ctx, opts, "setPaused", paused)
}

// WithdrawPayments sends the whole escrow to recipient.
func (n *NFT) WithdrawPayments(ctx context.Context, opts *TransactOpts, recipient common.Address) (*types.Receipt, error) {
	return n.transact(ctx, opts, "withdrawPayments", recipient)
}

// TransferOwnership hands the owner role to next.
func (n *NFT) TransferOwnership(ctx context.Context, opts *TransactOpts, next common.Address) (*types.Receipt, error) {
	return n.transact(ctx, opts, "transferOwnership", next)
}

// SetOperator grants or revokes operator capabilities.
func (n *NFT) SetOperator(ctx context.Context, opts *TransactOpts, account common.Address, enabled bool) (*types.Receipt, error) {
	return n.transact(ctx, opts, "setOperator", account, enabled)
}

// Events decodes the contract's logs from a receipt.
func (n *NFT) Events(receipt *types.Receipt) []ledger.Event {
	var out []ledger.Event
	for _, lg := range receipt.Logs {
		if lg.Address != n.address {
			continue
		}
		ev, err := ParseLog(lg)
		if err != nil {
			n.logger.Debug("skipping undecodable log", "tx", receipt.TxHash.Hex(), "err", err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

// --- internal ---

func (n *NFT) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := n.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", method, err)
	}
	to := n.address
	res, err := n.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return asRevert(err)
	}
	if len(res) == 0 {
		return fmt.Errorf("%s: %w: %s", method, ErrNoCode, n.address.Hex())
	}
	if err := n.abi.UnpackIntoInterface(out, method, res); err != nil {
		return fmt.Errorf("decoding %s: %w", method, err)
	}
	return nil
}

func (n *NFT) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out := new(big.Int)
	if err := n.call(ctx, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *NFT) transact(ctx context.Context, opts *TransactOpts, method string, args ...interface{}) (*types.Receipt, error) {
	data, err := n.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	to := n.address
	receipt, err := n.send(ctx, opts, &to, data)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", method, err)
	}
	n.logger.Debug("transaction mined", "method", method, "tx", receipt.TxHash.Hex(), "gas_used", receipt.GasUsed)
	return receipt, nil
}

func (n *NFT) send(ctx context.Context, opts *TransactOpts, to *common.Address, data []byte) (*types.Receipt, error) {
	if opts == nil || opts.Signer == nil {
		return nil, errors.New("no signer")
	}
	from := opts.Signer.Address()
	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := n.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	nonce, err := n.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := n.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	// Estimation runs the call, so reverts surface here before anything is
	// signed or sent.
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit, err = n.backend.EstimateGas(ctx, ethereum.CallMsg{
			From: from, To: to, GasPrice: gasPrice, Value: value, Data: data,
		})
		if err != nil {
			return nil, asRevert(err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       to,
		Value:    value,
		Data:     data,
	})
	signed, err := opts.Signer.SignTx(tx, chainID)
	if err != nil {
		return nil, err
	}
	if err := n.backend.SendTransaction(ctx, signed); err != nil {
		return nil, asRevert(err)
	}
	n.logger.Debug("transaction sent", "tx", signed.Hash().Hex(), "from", from.Hex(), "nonce", nonce)

	receipt, err := n.waitMined(ctx, signed.Hash())
	if err != nil {
		return receipt, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, n.replayRevert(ctx, from, to, value, data, signed.Hash())
	}
	return receipt, nil
}

// waitMined polls for the receipt until the binding's timeout expires.
func (n *NFT) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()
	for {
		receipt, err := n.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s", hash.Hex(), n.timeout)
		case <-ticker.C:
		}
	}
}

// replayRevert re-runs a failed transaction as a call to recover its reason.
func (n *NFT) replayRevert(ctx context.Context, from common.Address, to *common.Address, value *big.Int, data []byte, hash common.Hash) error {
	if to == nil {
		return fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
	}
	_, err := n.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: to, Value: value, Data: data}, nil)
	if err == nil {
		return fmt.Errorf("%w (hash: %s)", ErrReverted, hash.Hex())
	}
	return asRevert(err)
}

// asRevert converts backend errors carrying revert data into RevertErrors.
func asRevert(err error) error {
	var re *RevertError
	if errors.As(err, &re) {
		return err
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil && len(data) >= 4 {
				return DecodeRevert(data)
			}
		}
	}
	if reason, ok := revertReason(err.Error()); ok {
		return ErrorFromRevert(reason)
	}
	return err
}

// revertReason pulls the reason out of an RPC error message.
func revertReason(msg string) (string, bool) {
	const marker = "execution reverted"
	idx := strings.Index(strings.ToLower(msg), marker)
	if idx < 0 {
		return "", false
	}
	rest := msg[idx+len(marker):]
	if len(rest) > 2 && rest[0] == ':' {
		return rest[2:], true
	}
	return "", true
}

// ToUint256 converts a non-negative big.Int to a uint256.
func ToUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	out, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("value %s out of uint256 range", v)
	}
	return out, nil
}
