package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var mintValue string

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint tokens",
}

var mintAirdropCmd = &cobra.Command{
	Use:   "airdrop <recipient>",
	Short: "Mint one token to a recipient for free (owner or operator)",
	Long: `Mint one token to the recipient without payment. Works while the
collection is paused. Only the owner or an operator may airdrop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, err := resolveAddress(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		_, nft, err := openContract(s)
		if err != nil {
			return err
		}
		signer, err := resolveSigner(s)
		if err != nil {
			return err
		}

		receipt, err := transact(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s, nft, "Airdropping to "+recipient.Hex()+"...",
			func(ctx context.Context) (*types.Receipt, error) {
				return nft.MintAirdrop(ctx, &contract.TransactOpts{Signer: signer}, recipient)
			})
		if err != nil {
			return err
		}
		reportMinted(cmd, nft, receipt)
		return nil
	},
}

var mintPublicCmd = &cobra.Command{
	Use:   "public",
	Short: "Buy one token at the mint price",
	Long: `Mint one token to the signer, paying --value ETH (default: the current
mint price). Fails while the collection is paused or when the payment is
below the price.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseValue(mintValue)
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		_, nft, err := openContract(s)
		if err != nil {
			return err
		}
		if value == nil {
			if value, err = nft.Cost(cmd.Context()); err != nil {
				return err
			}
		}
		signer, err := resolveSigner(s)
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Minting for %s ETH...", chain.FormatEther(value))
		receipt, err := transact(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s, nft, msg,
			func(ctx context.Context) (*types.Receipt, error) {
				return nft.MintPublic(ctx, &contract.TransactOpts{Signer: signer, Value: value})
			})
		if err != nil {
			return err
		}
		reportMinted(cmd, nft, receipt)
		return nil
	},
}

// reportMinted prints one line per token minted in the receipt.
func reportMinted(cmd *cobra.Command, nft *contract.NFT, receipt *types.Receipt) {
	for _, ev := range nft.Events(receipt) {
		if ev.Kind == ledger.EventTransfer {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Minted token #%d to %s", ev.TokenID, ui.Addr(ev.To.Hex()))))
		}
	}
}

func init() {
	mintPublicCmd.Flags().StringVar(&mintValue, "value", "", "payment in ETH (default: the mint price)")
	mintCmd.AddCommand(mintAirdropCmd, mintPublicCmd)
}
