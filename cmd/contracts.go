package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List deployed collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg, err := loadContracts()
		if err != nil {
			return err
		}
		entries := reg.All()
		if len(entries) == 0 {
			fmt.Fprintln(out, ui.Info("No collections deployed yet."))
			fmt.Fprintln(out, ui.Hint("Deploy one with: omnes deploy --name <name> --symbol <symbol>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Label"},
			{Title: "Network"},
			{Title: "Address"},
			{Title: "Deployer"},
			{Title: "Deployed"},
			{Title: "Default", Width: 7},
		})
		for i, e := range entries {
			def := ""
			if e.Label == cfg.DefaultContract {
				def = ui.StyleSuccess.Render("✓")
				t.SelIdx = i
			}
			t.AddRow(ui.Row{
				ui.Val(e.Label),
				ui.ChainName(e.Network),
				ui.Addr(e.Address.Hex()),
				ui.TruncateAddr(e.Deployer.Hex()),
				ui.Meta(e.DeployedAt.Format("2006-01-02 15:04")),
				def,
			})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d collection(s)", len(entries))))
		return nil
	},
}

var contractsUseCmd = &cobra.Command{
	Use:   "use <label>",
	Short: "Select the collection commands act on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadContracts()
		if err != nil {
			return err
		}
		if len(reg.GetByLabel(args[0])) == 0 {
			return fmt.Errorf("%w: %s", contract.ErrContractNotFound, args[0])
		}
		cfg.DefaultContract = args[0]
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default collection set to %q.", args[0])))
		return nil
	},
}

var contractsForgetCmd = &cobra.Command{
	Use:   "forget <label> <network>",
	Short: "Remove a collection from the registry (the contract stays on chain)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadContracts()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0], args[1]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		if cfg.DefaultContract == args[0] && len(reg.GetByLabel(args[0])) == 0 {
			cfg.DefaultContract = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Forgot %q on %s.", args[0], args[1])))
		return nil
	},
}

func loadContracts() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.ContractsPath())
	if err := reg.Load(); err != nil {
		return nil, err
	}
	return reg, nil
}

func init() {
	contractsCmd.AddCommand(contractsUseCmd, contractsForgetCmd)
}
