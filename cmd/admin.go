package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Close public minting (owner or operator)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, true)
	},
}

var unpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Open public minting (owner or operator)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, false)
	},
}

func setPaused(cmd *cobra.Command, paused bool) error {
	err := contractWrite(cmd, "Updating pause state...", func(ctx context.Context, nft *contract.NFT, opts *contract.TransactOpts) (*types.Receipt, error) {
		return nft.SetPaused(ctx, opts, paused)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Public mint is now "+ui.PauseState(paused)))
	return nil
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <recipient>",
	Short: "Send the whole escrow to a recipient (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
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
		escrow, err := nft.Escrow(cmd.Context())
		if err != nil {
			return err
		}
		if !confirmDanger(cmd, fmt.Sprintf("Send %s ETH to %s?", chain.FormatEther(escrow), recipient.Hex())) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		signer, err := resolveSigner(s)
		if err != nil {
			return err
		}

		receipt, err := transact(cmd.Context(), out, cmd.ErrOrStderr(), s, nft, "Withdrawing escrow...",
			func(ctx context.Context) (*types.Receipt, error) {
				return nft.WithdrawPayments(ctx, &contract.TransactOpts{Signer: signer}, recipient)
			})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Withdrew %s ETH to %s", chain.FormatEther(nft.Withdrawn(receipt)), ui.Addr(recipient.Hex()))))
		return nil
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Show or transfer contract ownership",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		_, nft, err := openContract(s)
		if err != nil {
			return err
		}
		owner, err := nft.Owner(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Addr(owner.Hex()))
		return nil
	},
}

var ownerTransferCmd = &cobra.Command{
	Use:   "transfer <new-owner>",
	Short: "Hand the contract to a new owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		next, err := resolveAddress(args[0])
		if err != nil {
			return err
		}
		if !confirmDanger(cmd, "Transfer ownership to "+next.Hex()+"? You lose every owner right.") {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		err = contractWrite(cmd, "Transferring ownership...", func(ctx context.Context, nft *contract.NFT, opts *contract.TransactOpts) (*types.Receipt, error) {
			return nft.TransferOwnership(ctx, opts, next)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Ownership transferred to "+ui.Addr(next.Hex())))
		return nil
	},
}

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operators (may pause and airdrop)",
}

var operatorGrantCmd = &cobra.Command{
	Use:   "grant <address>",
	Short: "Let an account pause and airdrop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOperator(cmd, args[0], true)
	},
}

var operatorRevokeCmd = &cobra.Command{
	Use:   "revoke <address>",
	Short: "Withdraw operator rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setOperator(cmd, args[0], false)
	},
}

var operatorCheckCmd = &cobra.Command{
	Use:   "check <address>",
	Short: "Report whether an account is an operator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := resolveAddress(args[0])
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
		ok, err := nft.IsOperator(cmd.Context(), account)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(account.Hex()+" is an operator"))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta(account.Hex()+" is not an operator"))
		}
		return nil
	},
}

func setOperator(cmd *cobra.Command, arg string, enabled bool) error {
	account, err := resolveAddress(arg)
	if err != nil {
		return err
	}
	err = contractWrite(cmd, "Updating operator...", func(ctx context.Context, nft *contract.NFT, opts *contract.TransactOpts) (*types.Receipt, error) {
		return nft.SetOperator(ctx, opts, account, enabled)
	})
	if err != nil {
		return err
	}
	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(ui.Addr(account.Hex())+" is now an operator"))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(ui.Addr(account.Hex())+" is no longer an operator"))
	}
	return nil
}

// contractWrite signs and sends one transaction to the selected contract.
func contractWrite(cmd *cobra.Command, msg string, send func(context.Context, *contract.NFT, *contract.TransactOpts) (*types.Receipt, error)) error {
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
	opts := &contract.TransactOpts{Signer: signer}
	_, err = transact(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s, nft, msg,
		func(ctx context.Context) (*types.Receipt, error) {
			return send(ctx, nft, opts)
		})
	return err
}

func init() {
	ownerCmd.AddCommand(ownerTransferCmd)
	operatorCmd.AddCommand(operatorGrantCmd, operatorRevokeCmd, operatorCheckCmd)
}
