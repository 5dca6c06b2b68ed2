package ui

import (
	"bytes"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" yes ": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"yep\n": false,
	}
	for in, want := range tests {
		var out bytes.Buffer
		assert.Equal(t, want, Confirm(strings.NewReader(in), &out, "Withdraw?"), "%q", in)
		assert.Contains(t, out.String(), "Withdraw?")
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestConfirmDanger(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, ConfirmDanger(strings.NewReader("y\n"), &out, "Transfer ownership?"))
	assert.Contains(t, out.String(), "⚠")
}

// ---------------------------------------------------------------------------
// Picker
// ---------------------------------------------------------------------------

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestPickerNavigateAndSelect(t *testing.T) {
	m := pickerModel{title: "Wallet", items: []PickerItem{
		{Label: "deployer", Value: "a"},
		{Label: "holder", Value: "b"},
		{Label: "buyer", Value: "c"},
	}}
	final := send(m, key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyUp), key(tea.KeyEnter)).(pickerModel)
	require.NotNil(t, final.selected)
	assert.Equal(t, "b", final.selected.Value)
}

func TestPickerFilter(t *testing.T) {
	m := pickerModel{title: "Wallet", items: []PickerItem{
		{Label: "deployer", SubLabel: "0xf39F", Value: "a"},
		{Label: "holder", SubLabel: "0x7099", Value: "b"},
	}}
	m = send(m, runes("70")).(pickerModel)
	assert.Len(t, m.visible(), 1)
	assert.Contains(t, m.View(), "filter")

	m = send(m, key(tea.KeyEnter)).(pickerModel)
	require.NotNil(t, m.selected)
	assert.Equal(t, "b", m.selected.Value)

	m = pickerModel{items: m.items, filter: "zz"}
	assert.Contains(t, m.View(), "no matches")
	m = send(m, key(tea.KeyEnter), key(tea.KeyBackspace)).(pickerModel)
	assert.Nil(t, m.selected)
	assert.Equal(t, "z", m.filter)
}

func TestPickerCancel(t *testing.T) {
	m := pickerModel{items: []PickerItem{{Label: "x"}}}
	m = send(m, key(tea.KeyEsc)).(pickerModel)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestPickItemShortcuts(t *testing.T) {
	_, err := PickItem("Wallet", nil)
	assert.Error(t, err)

	v, err := PickItem("Wallet", []PickerItem{{Label: "only", Value: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

// ---------------------------------------------------------------------------
// Manifest wizard
// ---------------------------------------------------------------------------

func TestWizardCollectsManifest(t *testing.T) {
	m := newWizard(config.Manifest{MintPrice: "0.05"})
	final := send(m,
		runes("Afonso"), key(tea.KeyEnter),
		runes("henrique"), key(tea.KeyEnter),
		runes("https://ipfs.io/ipfs/CID.json"), key(tea.KeyEnter),
		runes("ola"), key(tea.KeyEnter),
		key(tea.KeyEnter), // keep 0.05
		key(tea.KeyDown), key(tea.KeyEnter), // refund
		key(tea.KeyDown), key(tea.KeyEnter), // unpause yes
	).(wizardModel)

	assert.Equal(t, stepDone, final.step)
	assert.Equal(t, config.Manifest{
		Name:         "Afonso",
		Symbol:       "henrique",
		BaseURI:      "https://ipfs.io/ipfs/CID.json",
		HiddenURI:    "ola",
		MintPrice:    "0.05",
		ExcessPolicy: "refund",
		Unpause:      true,
	}, final.result)
}

func TestWizardRequiresName(t *testing.T) {
	m := send(newWizard(config.Manifest{}), key(tea.KeyEnter)).(wizardModel)
	assert.Equal(t, stepName, m.step)
	assert.Contains(t, m.View(), "required")

	m = send(m, runes("Ab"), key(tea.KeyBackspace), key(tea.KeySpace), runes("c"), key(tea.KeyEnter)).(wizardModel)
	assert.Equal(t, stepSymbol, m.step)
	assert.Equal(t, "A c", m.result.Name)
}

func TestWizardKeepsSeed(t *testing.T) {
	m := send(newWizard(config.Manifest{Name: "Seeded"}), key(tea.KeyEnter)).(wizardModel)
	assert.Equal(t, "Seeded", m.result.Name)
}

func TestWizardCancel(t *testing.T) {
	m := send(newWizard(config.Manifest{}), key(tea.KeyCtrlC)).(wizardModel)
	assert.True(t, m.canceled)
}

// ---------------------------------------------------------------------------
// Receipts and events
// ---------------------------------------------------------------------------

func plainEther(wei *big.Int) string { return wei.String() + "wei" }

func TestRenderReceipt(t *testing.T) {
	holder := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	r := &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		TxHash:            common.HexToHash("0xabc"),
		BlockNumber:       big.NewInt(7),
		GasUsed:           71_000,
		EffectiveGasPrice: big.NewInt(2),
	}
	out := RenderReceipt(r, []ledger.Event{{Kind: ledger.EventTransfer, To: holder, TokenID: 3}}, "https://x/tx/0xabc", plainEther)

	assert.Contains(t, out, "success")
	assert.Contains(t, out, "142000wei")
	assert.Contains(t, out, "https://x/tx/0xabc")
	assert.Contains(t, out, "token #3")
	assert.NotContains(t, out, "Contract")

	r.Status = types.ReceiptStatusFailed
	assert.Contains(t, RenderReceipt(r, nil, "", plainEther), "reverted")
}

func TestDescribeEvent(t *testing.T) {
	a := common.HexToAddress("0x01")
	tests := []struct {
		ev   ledger.Event
		want string
	}{
		{ledger.Event{Kind: ledger.EventPaused, Account: a}, "paused"},
		{ledger.Event{Kind: ledger.EventUnpaused, Account: a}, "opened"},
		{ledger.Event{Kind: ledger.EventWithdrawn, Account: a, Amount: uint256.NewInt(5)}, "5wei"},
		{ledger.Event{Kind: ledger.EventWithdrawn, Account: a}, "0 ETH"},
		{ledger.Event{Kind: ledger.EventOperatorUpdated, Account: a, Enabled: true}, "granted"},
		{ledger.Event{Kind: ledger.EventOperatorUpdated, Account: a}, "revoked"},
		{ledger.Event{Kind: ledger.EventOwnershipTransferred, From: a, To: a}, "→"},
		{ledger.Event{Kind: "Other"}, "Other"},
	}
	for _, tt := range tests {
		assert.Contains(t, DescribeEvent(tt.ev, plainEther), tt.want)
	}
}

// ---------------------------------------------------------------------------
// Spinner
// ---------------------------------------------------------------------------

func TestSpinnerWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinner(&out, "waiting for 0xabc", false)
	s.Start()
	s.Stop()
	s.Stop()
	assert.Contains(t, out.String(), "waiting for 0xabc")
}

func TestSpinnerAnimates(t *testing.T) {
	var out syncBuffer
	s := NewSpinner(&out, "mining", true)
	s.Start()
	s.Stop()
	assert.Contains(t, out.String(), "mining")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
