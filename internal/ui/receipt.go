package ui

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FormatWei renders a wei amount for display.
type FormatWei func(*big.Int) string

// RenderReceipt summarises a mined transaction and the contract events it
// emitted. link is the explorer URL, or "".
func RenderReceipt(r *types.Receipt, events []ledger.Event, link string, ether FormatWei) string {
	status := StyleSuccess.Render("success")
	if r.Status != types.ReceiptStatusSuccessful {
		status = StyleError.Render("reverted")
	}
	pairs := [][2]string{
		{"Tx", r.TxHash.Hex()},
		{"Block", r.BlockNumber.String()},
		{"Status", status},
		{"Gas used", fmt.Sprintf("%d", r.GasUsed)},
	}
	if r.EffectiveGasPrice != nil {
		fee := new(big.Int).Mul(new(big.Int).SetUint64(r.GasUsed), r.EffectiveGasPrice)
		pairs = append(pairs, [2]string{"Fee", ether(fee) + " ETH"})
	}
	if r.ContractAddress != (common.Address{}) {
		pairs = append(pairs, [2]string{"Contract", r.ContractAddress.Hex()})
	}
	if link != "" {
		pairs = append(pairs, [2]string{"Explorer", link})
	}

	var sb strings.Builder
	sb.WriteString(KeyValueBlock("", pairs))
	sb.WriteString("\n")
	for _, ev := range events {
		sb.WriteString("  " + StyleChain.Render(string(ev.Kind)) + "  " + DescribeEvent(ev, ether) + "\n")
	}
	return sb.String()
}

// DescribeEvent renders a ledger event as one line.
func DescribeEvent(ev ledger.Event, ether FormatWei) string {
	switch ev.Kind {
	case ledger.EventTransfer:
		return fmt.Sprintf("token #%d → %s", ev.TokenID, Addr(ev.To.Hex()))
	case ledger.EventPaused:
		return "public mint paused by " + Addr(ev.Account.Hex())
	case ledger.EventUnpaused:
		return "public mint opened by " + Addr(ev.Account.Hex())
	case ledger.EventWithdrawn:
		amount := "0"
		if ev.Amount != nil {
			amount = ether(ev.Amount.ToBig())
		}
		return Val(amount+" ETH") + " → " + Addr(ev.Account.Hex())
	case ledger.EventOwnershipTransferred:
		return Addr(ev.From.Hex()) + " → " + Addr(ev.To.Hex())
	case ledger.EventOperatorUpdated:
		verb := "revoked"
		if ev.Enabled {
			verb = "granted"
		}
		return "operator " + verb + " for " + Addr(ev.Account.Hex())
	}
	return string(ev.Kind)
}
