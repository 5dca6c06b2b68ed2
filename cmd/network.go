package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

var networksCheck bool

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the networks --rpc accepts by name",
	Long: `List the networks --rpc accepts by name. With --check, ping every
endpoint in parallel and report latency and head block.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		networks := chain.NewRegistry().All()

		probes := map[string]chain.Probe{}
		if networksCheck {
			spin := ui.NewSpinner(cmd.ErrOrStderr(), "Pinging RPC endpoints...", ui.IsInteractive())
			spin.Start()
			results := chain.ProbeNetworks(cmd.Context(), networks)
			spin.Stop()
			for _, p := range results {
				probes[p.Network] = p
				if p.Err != nil {
					logger.Debug("probe failed", "network", p.Network, "err", p.Err)
				}
			}
		}

		cols := []ui.Column{
			{Title: "#", Width: 3},
			{Title: "Name"},
			{Title: "Display"},
			{Title: "Chain ID"},
			{Title: "Currency"},
			{Title: "RPC"},
		}
		if networksCheck {
			cols = append(cols, ui.Column{Title: "Latency"}, ui.Column{Title: "Block"})
		}
		t := ui.NewTable(cols)

		for i, n := range networks {
			rpc := n.RPC
			if rpc == "" {
				rpc = ui.Meta("in-process")
			}
			name := n.Name
			if n.Testnet {
				name += ui.Meta(" (testnet)")
			}
			row := ui.Row{
				fmt.Sprintf("%d", i+1),
				ui.ChainName(name),
				n.DisplayName,
				fmt.Sprintf("%d", n.ChainID),
				n.NativeCurrency,
				rpc,
			}
			if networksCheck {
				row = append(row, probeCells(probes, n.Name)...)
			}
			t.AddRow(row)
		}

		fmt.Fprintln(out, t.Render())
		if networksCheck {
			results := make([]chain.Probe, 0, len(probes))
			for _, p := range probes {
				results = append(results, p)
			}
			if best, err := chain.Fastest(results); err == nil {
				fmt.Fprintln(out, ui.Success(fmt.Sprintf("Fastest: %s (%dms)", best.Network, best.Latency.Milliseconds())))
			} else {
				fmt.Fprintln(out, ui.Warn(err.Error()))
			}
			return nil
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks. Any other chain: --rpc https://…", len(networks))))
		return nil
	},
}

func probeCells(probes map[string]chain.Probe, network string) []string {
	p, ok := probes[network]
	switch {
	case !ok:
		return []string{ui.Meta("-"), ui.Meta("-")}
	case !p.Healthy():
		return []string{ui.StyleError.Render("down"), ui.Meta("-")}
	default:
		return []string{fmt.Sprintf("%dms", p.Latency.Milliseconds()), fmt.Sprintf("%d", p.Block)}
	}
}

func init() {
	networksCmd.Flags().BoolVar(&networksCheck, "check", false, "ping every RPC endpoint")
}
