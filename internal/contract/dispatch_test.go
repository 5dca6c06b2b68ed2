package contract_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	holder   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func omnes(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := contract.OmnesABI()
	require.NoError(t, err)
	return parsed
}

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(deployer, ledger.Metadata{
		Name: "Afonso", Symbol: "henrique", BaseURI: "https://ipfs.io/ipfs/CID.json", HiddenURI: "ola",
	})
	require.NoError(t, err)
	return l
}

func call(t *testing.T, l *ledger.Ledger, caller common.Address, value *uint256.Int, method string, args ...interface{}) ([]interface{}, error) {
	t.Helper()
	parsed := omnes(t)
	input, err := parsed.Pack(method, args...)
	require.NoError(t, err)
	out, err := contract.Dispatch(l, caller, value, input)
	if err != nil {
		return nil, err
	}
	return parsed.Unpack(method, out)
}

// assertValue compares big integers by value; zero has more than one
// internal representation.
func assertValue(t *testing.T, want, got interface{}) {
	t.Helper()
	if w, ok := want.(*big.Int); ok {
		g, ok := got.(*big.Int)
		require.True(t, ok, "want *big.Int, got %T", got)
		assert.Zero(t, w.Cmp(g), "want %s, got %s", w, g)
		return
	}
	assert.Equal(t, want, got)
}

func TestDispatchReads(t *testing.T) {
	l := newLedger(t)

	tests := []struct {
		method string
		args   []interface{}
		want   interface{}
	}{
		{"name", nil, "Afonso"},
		{"symbol", nil, "henrique"},
		{"baseURI", nil, "https://ipfs.io/ipfs/CID.json"},
		{"hiddenMetadataUri", nil, "ola"},
		{"owner", nil, deployer},
		{"paused", nil, true},
		{"cost", nil, ledger.DefaultMintPrice.ToBig()},
		{"totalSupply", nil, big.NewInt(0)},
		{"balanceOf", []interface{}{holder}, big.NewInt(0)},
		{"isOperator", []interface{}{holder}, false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			out, err := call(t, l, holder, nil, tt.method, tt.args...)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assertValue(t, tt.want, out[0])
		})
	}
}

func TestDispatchAirdropAndOwnerOf(t *testing.T) {
	l := newLedger(t)

	out, err := call(t, l, deployer, nil, "mintAirdrp", holder)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = call(t, l, holder, nil, "balanceOf", holder)
	require.NoError(t, err)
	assertValue(t, big.NewInt(1), out[0])

	out, err = call(t, l, holder, nil, "ownerOf", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, holder, out[0])

	_, err = call(t, l, holder, nil, "ownerOf", big.NewInt(2))
	assert.ErrorIs(t, err, ledger.ErrNonexistentToken)

	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	_, err = call(t, l, holder, nil, "ownerOf", huge)
	assert.ErrorIs(t, err, ledger.ErrNonexistentToken)
}

func TestDispatchWritesCheckAuthority(t *testing.T) {
	l := newLedger(t)

	_, err := call(t, l, holder, nil, "setPaused", false)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = call(t, l, holder, nil, "mintAirdrp", holder)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = call(t, l, holder, nil, "withdrawPayments", holder)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = call(t, l, holder, nil, "transferOwnership", holder)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = call(t, l, holder, nil, "setOperator", holder, true)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	assert.True(t, l.Paused())
	assert.Zero(t, l.TotalSupply())
}

func TestDispatchPaidMint(t *testing.T) {
	l := newLedger(t)
	value := uint256.NewInt(8_000_000_000_000_000_000)

	_, err := call(t, l, holder, value, "mintOmnes")
	assert.ErrorIs(t, err, ledger.ErrPaused)

	_, err = call(t, l, deployer, nil, "setPaused", false)
	require.NoError(t, err)
	_, err = call(t, l, holder, value, "mintOmnes")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), l.BalanceOf(holder))
	assert.Equal(t, value, l.Escrow())

	out, err := call(t, l, holder, nil, "escrow")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assertValue(t, value.ToBig(), out[0])
}

func TestDispatchRejectsValueOnNonPayable(t *testing.T) {
	l := newLedger(t)
	_, err := call(t, l, deployer, uint256.NewInt(1), "setPaused", false)
	assert.ErrorIs(t, err, contract.ErrNotPayable)
	assert.True(t, l.Paused())
}

func TestDispatchBadCalldata(t *testing.T) {
	l := newLedger(t)

	_, err := contract.Dispatch(l, holder, nil, []byte{0x01, 0x02})
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)

	_, err = contract.Dispatch(l, holder, nil, []byte{0xde, 0xad, 0xbe, 0xef})
	assert.ErrorIs(t, err, contract.ErrUnknownMethod)

	// balanceOf selector with a truncated argument.
	parsed := omnes(t)
	_, err = contract.Dispatch(l, holder, nil, append(append([]byte{}, parsed.Methods["balanceOf"].ID...), 0x01))
	assert.Error(t, err)
}
