package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/Mohsinsiddi/omnes/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if _, ok := devAccount(name); ok {
			return fmt.Errorf("%q is reserved for the devnet accounts", name)
		}

		if walletKeyFlag != "" {
			w, err := newWalletManager().Import(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address.Hex()))))
			fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Set as default with: omnes wallet use %s", name)))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: omnes wallet add <name> <address>\n  Or for signing: omnes wallet add <name> --key <private-key>")
		}
		w, err := walletIndex().AddWatchOnly(name, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address.Hex()))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		wallets := walletIndex().List()

		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets configured yet."))
			fmt.Fprintln(out, ui.Hint("On the devnet, sign with --from dev0..dev4. Otherwise: omnes wallet add <name> --key <private-key>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
		})
		for _, w := range wallets {
			def := ""
			if w.Name == cfg.DefaultWallet {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.Val(w.Name),
				ui.Addr(w.Address.Hex()),
				ui.Meta(walletKindLabel(w.Kind)),
				def,
			})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		w, err := walletIndex().Get(name)
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		mgr := walletIndex()
		if w.CanSign() {
			mgr = newWalletManager()
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default signing wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, ok := devAccount(name); !ok {
			if _, err := walletIndex().Get(name); err != nil {
				return err
			}
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("This wallet signs every transaction when --from is not specified."))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new wallet",
	Long: `Generate a fresh keypair and store the private key in the OS keychain.

The private key is displayed ONCE immediately after creation.
Re-export later with: omnes wallet export <name>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		w, hexKey, err := newWalletManager().Generate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Fprintf(out, "  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address.Hex()))
		fmt.Fprintln(out, ui.Warn("Private key, shown only once. Never share it."))
		fmt.Fprintln(out, "  "+ui.Val(hexKey))
		fmt.Fprintln(out)
		return nil
	},
}

var walletExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Print the private key of a signing wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !confirmDanger(cmd, fmt.Sprintf("Reveal the private key of %q?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		hexKey, err := newWalletManager().ExportKey(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Val(hexKey))
		return nil
	},
}

var walletSignCmd = &cobra.Command{
	Use:   "sign <name> <message>",
	Short: "Sign a message (EIP-191 personal_sign)",
	Long: `Sign a message with a signing wallet or a devnet account (dev0..dev4).

Examples:
  omnes wallet sign deployer "I own this collection"
  omnes wallet sign dev0 hello`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := signerByName(args[0])
		if err != nil {
			return err
		}
		sig, err := signer.SignMessage([]byte(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Signature", [][2]string{
			{"Signer", ui.Addr(signer.Address().Hex())},
			{"Message", args[1]},
			{"Signature", ui.Val(hexutil.Encode(sig))},
		}))
		return nil
	},
}

var walletVerifyCmd = &cobra.Command{
	Use:   "verify <message> <signature>",
	Short: "Recover the signer of an EIP-191 signature",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := hexutil.Decode(args[1])
		if err != nil {
			return fmt.Errorf("invalid signature hex: %w", err)
		}
		addr, err := wallet.VerifyMessage([]byte(args[0]), sig)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Signed by "+ui.Addr(addr.Hex())))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing wallet (stored in the OS keychain)")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd,
		walletGenerateCmd, walletExportCmd, walletSignCmd, walletVerifyCmd)
}

func walletKindLabel(k wallet.Kind) string {
	if k == wallet.KindSigning {
		return "read-write"
	}
	return string(k)
}
