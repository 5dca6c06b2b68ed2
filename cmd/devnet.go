package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

var (
	devnetInitForce bool
	devnetRejectOff bool
)

var devnetCmd = &cobra.Command{
	Use:   "devnet",
	Short: "Manage the in-process development chain",
	Long: `The devnet is a local chain (ID 31337) kept in devnet.json in the config
directory. Five development accounts, dev0..dev4, start with 10000 ETH each
and can sign with --from devN.`,
}

var devnetInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the devnet at genesis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if _, err := os.Stat(cfg.DevnetPath()); err == nil {
			if !devnetInitForce {
				fmt.Fprintln(out, ui.Info("Devnet already initialised at "+cfg.DevnetPath()))
				fmt.Fprintln(out, ui.Hint("Start over with: omnes devnet init --force"))
				return nil
			}
			if err := resetDevnet(); err != nil {
				return err
			}
		}

		s, err := openDevnet(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if cfg.DefaultWallet == "" {
			cfg.DefaultWallet = "dev0"
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success("Devnet ready (chain 31337)"))
		fmt.Fprintln(out, ui.Indent(devAccountsTable(cmd, s), 2))
		fmt.Fprintln(out, ui.Hint("Deploy with: omnes deploy --name <name> --symbol <symbol>"))
		return nil
	},
}

var devnetAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the development accounts and their balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openDevnet(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		fmt.Fprintln(cmd.OutOrStdout(), devAccountsTable(cmd, s))
		return nil
	},
}

var devnetFundCmd = &cobra.Command{
	Use:   "fund <address|wallet> <ether>",
	Short: "Credit ether to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := chain.ParseEther(args[1])
		if err != nil {
			return err
		}
		s, err := openDevnet(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.devnet.Fund(addr, amount); err != nil {
			return err
		}
		bal, err := s.client.BalanceAt(cmd.Context(), addr, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Funded %s with %s ETH (balance %s ETH)",
			ui.Addr(addr.Hex()), args[1], chain.FormatEther(bal))))
		return nil
	},
}

var devnetRejectCmd = &cobra.Command{
	Use:   "reject <address|wallet>",
	Short: "Make an account refuse incoming ETH (like a non-payable contract)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddress(args[0])
		if err != nil {
			return err
		}
		s, err := openDevnet(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if err := s.devnet.SetRejecting(addr, !devnetRejectOff); err != nil {
			return err
		}
		if devnetRejectOff {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(ui.Addr(addr.Hex())+" accepts ETH again"))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(ui.Addr(addr.Hex())+" now rejects incoming ETH"))
		}
		return nil
	},
}

var devnetResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the devnet state and its deployments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmDanger(cmd, "Delete the devnet and every contract deployed on it?") {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		if err := resetDevnet(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Devnet reset. Run `omnes devnet init` to start again."))
		return nil
	},
}

// resetDevnet removes the state file and forgets devnet deployments.
func resetDevnet() error {
	if err := os.Remove(cfg.DevnetPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing devnet state: %w", err)
	}
	reg, err := loadContracts()
	if err != nil {
		return err
	}
	for _, e := range reg.All() {
		if e.Network != chain.DevnetName {
			continue
		}
		if err := reg.Remove(e.Label, e.Network); err != nil {
			return err
		}
		if cfg.DefaultContract == e.Label {
			cfg.DefaultContract = ""
		}
	}
	if err := reg.Save(); err != nil {
		return err
	}
	logger.Info("devnet reset", "state", cfg.DevnetPath())
	return cfg.Save()
}

func devAccountsTable(cmd *cobra.Command, s *session) string {
	t := ui.NewTable([]ui.Column{
		{Title: "Name"},
		{Title: "Address"},
		{Title: "Balance"},
	})
	for i, a := range chain.DevAccounts() {
		bal, err := s.client.BalanceAt(cmd.Context(), a.Address, nil)
		balance := ui.StyleError.Render("error")
		if err == nil {
			balance = chain.FormatEther(bal) + " ETH"
		}
		t.AddRow(ui.Row{ui.Val(fmt.Sprintf("dev%d", i)), ui.Addr(a.Address.Hex()), balance})
	}
	return t.Render()
}

func init() {
	devnetInitCmd.Flags().BoolVar(&devnetInitForce, "force", false, "discard existing devnet state")
	devnetRejectCmd.Flags().BoolVar(&devnetRejectOff, "off", false, "accept ETH again")
	devnetCmd.AddCommand(devnetInitCmd, devnetAccountsCmd, devnetFundCmd, devnetRejectCmd, devnetResetCmd)
}
