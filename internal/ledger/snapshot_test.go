package ledger_test

import (
	"encoding/json"
	"testing"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l := newLedger(t, ledger.WithMintPrice(ether(1)), ledger.WithExcessPolicy(ledger.ExcessRefund))
	require.NoError(t, l.SetOperator(owner, stranger, true))
	_, err := l.MintAirdrop(owner, holder)
	require.NoError(t, err)
	require.NoError(t, l.SetPaused(owner, false))
	_, err = l.MintPublic(stranger, ether(1))
	require.NoError(t, err)
	_, err = l.MintAirdrop(owner, holder)
	require.NoError(t, err)

	data, err := json.Marshal(l.Snapshot())
	require.NoError(t, err)

	var snap ledger.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	restored, err := ledger.Restore(&snap)
	require.NoError(t, err)

	assert.Equal(t, l.Owner(), restored.Owner())
	assert.Equal(t, l.Paused(), restored.Paused())
	assert.Equal(t, l.Escrow(), restored.Escrow())
	assert.Equal(t, l.MintPrice(), restored.MintPrice())
	assert.Equal(t, ledger.ExcessRefund, restored.ExcessPolicy())
	assert.Equal(t, l.Metadata(), restored.Metadata())
	assert.True(t, restored.IsOperator(stranger))
	assert.Equal(t, uint64(3), restored.TotalSupply())
	assert.Equal(t, uint64(2), restored.BalanceOf(holder))
	assert.Equal(t, uint64(1), restored.BalanceOf(stranger))

	// Issuance continues from the restored registry.
	id, err := restored.MintAirdrop(owner, holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)
}

func TestSnapshotIsDetached(t *testing.T) {
	l := newLedger(t)
	snap := l.Snapshot()

	_, err := l.MintAirdrop(owner, holder)
	require.NoError(t, err)
	assert.Empty(t, snap.Tokens)
}

func TestRestoreRejectsBadEscrow(t *testing.T) {
	snap := newLedger(t).Snapshot()
	snap.Escrow = "lots"
	_, err := ledger.Restore(snap)
	assert.Error(t, err)
}

func TestRestoreAppliesRuntimeOptions(t *testing.T) {
	snap := newLedger(t).Snapshot()

	var events []ledger.Event
	restored, err := ledger.Restore(snap, ledger.WithHook(func(e ledger.Event) { events = append(events, e) }))
	require.NoError(t, err)

	_, err = restored.MintAirdrop(owner, holder)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
