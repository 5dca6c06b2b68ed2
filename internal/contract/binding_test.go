package contract

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcDataError looks like the errors ethclient returns for reverts.
type rpcDataError struct {
	msg  string
	data interface{}
}

func (e *rpcDataError) Error() string          { return e.msg }
func (e *rpcDataError) ErrorCode() int         { return 3 }
func (e *rpcDataError) ErrorData() interface{} { return e.data }

// stubBackend answers like a remote node. Receipts appear after pendingPolls
// lookups.
type stubBackend struct {
	mu           sync.Mutex
	estimateErr  error
	callErr      error
	callOut      []byte
	status       uint64
	pendingPolls int
	polls        int
	sent         []*types.Transaction
}

func (b *stubBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(11155111), nil }
func (b *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return uint64(len(b.sent)), nil
}
func (b *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(3e9), nil }
func (b *stubBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return 60_000, nil
}
func (b *stubBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return b.callOut, b.callErr
}
func (b *stubBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}
func (b *stubBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	if b.polls <= b.pendingPolls {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: b.status, TxHash: hash, GasUsed: 55_000, Logs: []*types.Log{}}, nil
}
func (b *stubBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

type keySigner struct{ key *ecdsa.PrivateKey }

func newTestSigner(t *testing.T) Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() common.Address { return crypto.PubkeyToAddress(s.key.PublicKey) }
func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

func testNFT(b Backend) *NFT {
	return NewNFT(common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), b,
		WithPollInterval(time.Millisecond), WithConfirmTimeout(time.Second))
}

func TestSendWaitsForReceipt(t *testing.T) {
	b := &stubBackend{status: types.ReceiptStatusSuccessful, pendingPolls: 3}
	nft := testNFT(b)

	receipt, err := nft.SetPaused(context.Background(), &TransactOpts{Signer: newTestSigner(t)}, false)
	require.NoError(t, err)
	require.Len(t, b.sent, 1)
	assert.Equal(t, b.sent[0].Hash(), receipt.TxHash)
	assert.Equal(t, 4, b.polls)

	tx := b.sent[0]
	assert.Equal(t, uint64(60_000), tx.Gas())
	assert.Equal(t, big.NewInt(3e9), tx.GasPrice())
	assert.Equal(t, nft.Address(), *tx.To())
}

func TestSendUsesFixedGasLimit(t *testing.T) {
	b := &stubBackend{status: types.ReceiptStatusSuccessful, estimateErr: errors.New("must not estimate")}
	nft := testNFT(b)

	_, err := nft.MintPublic(context.Background(), &TransactOpts{Signer: newTestSigner(t), Value: big.NewInt(5), GasLimit: 90_000})
	require.NoError(t, err)
	require.Len(t, b.sent, 1)
	assert.Equal(t, uint64(90_000), b.sent[0].Gas())
	assert.Equal(t, big.NewInt(5), b.sent[0].Value())
}

func TestSendRequiresSigner(t *testing.T) {
	nft := testNFT(&stubBackend{})
	_, err := nft.SetPaused(context.Background(), &TransactOpts{}, true)
	assert.Error(t, err)
	_, err = nft.SetPaused(context.Background(), nil, true)
	assert.Error(t, err)
}

func TestEstimateRevertWithData(t *testing.T) {
	b := &stubBackend{estimateErr: &rpcDataError{
		msg:  "execution reverted",
		data: hexutil.Encode(EncodeRevert(ledger.ErrPaused)),
	}}
	nft := testNFT(b)

	_, err := nft.MintPublic(context.Background(), &TransactOpts{Signer: newTestSigner(t), Value: big.NewInt(1)})
	assert.ErrorIs(t, err, ledger.ErrPaused)
	assert.ErrorIs(t, err, ErrReverted)
	assert.Empty(t, b.sent)
}

func TestEstimateRevertMessageOnly(t *testing.T) {
	b := &stubBackend{estimateErr: errors.New("execution reverted: Ownable: caller is not the owner")}
	nft := testNFT(b)

	_, err := nft.WithdrawPayments(context.Background(), &TransactOpts{Signer: newTestSigner(t)}, common.Address{1})
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	assert.Empty(t, b.sent)
}

func TestFailedReceiptReplaysReason(t *testing.T) {
	b := &stubBackend{
		status:  types.ReceiptStatusFailed,
		callErr: &rpcDataError{msg: "execution reverted", data: hexutil.Encode(EncodeRevert(ledger.ErrTransferFailed))},
	}
	nft := testNFT(b)

	receipt, err := nft.WithdrawPayments(context.Background(), &TransactOpts{Signer: newTestSigner(t), GasLimit: 80_000}, common.Address{1})
	require.NotNil(t, receipt)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.ErrorIs(t, err, ledger.ErrTransferFailed)
}

func TestFailedReceiptWithoutReason(t *testing.T) {
	b := &stubBackend{status: types.ReceiptStatusFailed}
	nft := testNFT(b)

	_, err := nft.SetPaused(context.Background(), &TransactOpts{Signer: newTestSigner(t), GasLimit: 80_000}, false)
	assert.ErrorIs(t, err, ErrReverted)
}

func TestWaitMinedTimesOut(t *testing.T) {
	b := &stubBackend{pendingPolls: 1 << 30}
	nft := NewNFT(common.Address{1}, b, WithPollInterval(time.Millisecond), WithConfirmTimeout(20*time.Millisecond))

	_, err := nft.SetPaused(context.Background(), &TransactOpts{Signer: newTestSigner(t)}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not mined")
}

func TestReadMapsRevertsAndEmptyResults(t *testing.T) {
	nft := testNFT(&stubBackend{})
	_, err := nft.Paused(context.Background())
	assert.ErrorIs(t, err, ErrNoCode)

	nft = testNFT(&stubBackend{callErr: errors.New("execution reverted: ERC721: invalid token ID")})
	_, err = nft.OwnerOf(context.Background(), 99)
	assert.ErrorIs(t, err, ledger.ErrNonexistentToken)
}

func TestReadDecodesOutput(t *testing.T) {
	parsed := mustOmnesABI()
	out, err := parsed.Methods["cost"].Outputs.Pack(big.NewInt(50_000_000_000_000_000))
	require.NoError(t, err)

	nft := testNFT(&stubBackend{callOut: out})
	cost, err := nft.Cost(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", cost.String())
}

func TestToUint256(t *testing.T) {
	v, err := ToUint256(nil)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = ToUint256(big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v.Uint64())

	_, err = ToUint256(big.NewInt(-1))
	assert.Error(t, err)
	_, err = ToUint256(new(big.Int).Lsh(big.NewInt(1), 256))
	assert.Error(t, err)
}
