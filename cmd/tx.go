package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx <hash>",
	Short: "Show a transaction and the collection events it emitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args[0]) != 66 {
			return fmt.Errorf("invalid transaction hash %q", args[0])
		}
		hash := common.HexToHash(args[0])

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		tx, pending, err := s.client.TransactionByHash(cmd.Context(), hash)
		if err != nil {
			return fmt.Errorf("transaction %s: %w", hash.Hex(), err)
		}
		out := cmd.OutOrStdout()
		if pending {
			fmt.Fprintln(out, ui.Info("Transaction "+hash.Hex()+" is pending."))
			return nil
		}
		receipt, err := s.client.TransactionReceipt(cmd.Context(), hash)
		if err != nil {
			return fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}

		pairs := [][2]string{}
		if from, err := types.Sender(types.LatestSignerForChainID(s.chainID), tx); err == nil {
			pairs = append(pairs, [2]string{"From", ui.Addr(from.Hex())})
		}
		if to := tx.To(); to != nil {
			pairs = append(pairs, [2]string{"To", ui.Addr(to.Hex())})
		}
		pairs = append(pairs,
			[2]string{"Value", chain.FormatEther(tx.Value()) + " ETH"},
			[2]string{"Nonce", fmt.Sprintf("%d", tx.Nonce())},
		)
		if method := methodName(tx.Data()); method != "" {
			pairs = append(pairs, [2]string{"Method", ui.Val(method)})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Transaction", pairs))
		fmt.Fprint(out, ui.RenderReceipt(receipt, receiptEvents(receipt), s.txLink(hash), chain.FormatEther))
		return nil
	},
}

// receiptEvents decodes every collection event in the receipt, whatever
// contract emitted it.
func receiptEvents(r *types.Receipt) []ledger.Event {
	var events []ledger.Event
	for _, lg := range r.Logs {
		if ev, err := contract.ParseLog(lg); err == nil {
			events = append(events, ev)
		}
	}
	return events
}

// methodName maps calldata to a collection method name, or "".
func methodName(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	parsed, err := contract.OmnesABI()
	if err != nil {
		return ""
	}
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return m.Name
}
