package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var balanceNative bool

var balanceCmd = &cobra.Command{
	Use:   "balance [holder]",
	Short: "Show how many tokens a holder owns",
	Long: `Show the token count of a holder (address, wallet name or devN).
Without an argument the signing wallet is used.

Examples:
  omnes balance 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
  omnes balance dev1 --native`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		var holder common.Address
		if len(args) == 1 {
			if holder, err = resolveAddress(args[0]); err != nil {
				return err
			}
		} else {
			signer, err := resolveSigner(s)
			if err != nil {
				return err
			}
			holder = signer.Address()
		}

		_, nft, err := openContract(s)
		if err != nil {
			return err
		}
		tokens, err := nft.BalanceOf(cmd.Context(), holder)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Holder", ui.Addr(holder.Hex())},
			{"Network", ui.ChainName(s.network)},
			{"Tokens", ui.Val(fmt.Sprintf("%d", tokens))},
		}
		if balanceNative {
			wei, err := s.client.BalanceAt(cmd.Context(), holder, nil)
			if err != nil {
				return err
			}
			pairs = append(pairs, [2]string{"Native", ui.Val(chain.FormatEther(wei) + " ETH")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Balance", pairs))
		return nil
	},
}

func init() {
	balanceCmd.Flags().BoolVar(&balanceNative, "native", false, "also show the ETH balance")
}
