package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()
		entry, nft, err := openContract(s)
		if err != nil {
			return err
		}

		meta, err := nft.Metadata(ctx)
		if err != nil {
			return err
		}
		owner, err := nft.Owner(ctx)
		if err != nil {
			return err
		}
		paused, err := nft.Paused(ctx)
		if err != nil {
			return err
		}
		cost, err := nft.Cost(ctx)
		if err != nil {
			return err
		}
		supply, err := nft.TotalSupply(ctx)
		if err != nil {
			return err
		}
		escrow, err := nft.Escrow(ctx)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Label", entry.Label},
			{"Network", ui.ChainName(s.network)},
			{"Address", ui.Addr(nft.Address().Hex())},
			{"Name", meta.Name},
			{"Symbol", meta.Symbol},
			{"Base URI", meta.BaseURI},
			{"Hidden URI", meta.HiddenURI},
			{"Owner", ui.Addr(owner.Hex())},
			{"Public mint", ui.PauseState(paused)},
			{"Price", chain.FormatEther(cost) + " ETH"},
			{"Minted", fmt.Sprintf("%d", supply)},
			{"Escrow", chain.FormatEther(escrow) + " ETH"},
		}
		if s.devnet != nil {
			if l, ok := s.devnet.Ledger(nft.Address()); ok {
				pairs = append(pairs, [2]string{"Excess payment", string(l.ExcessPolicy())})
			}
		}
		if s.info != nil {
			if link := s.info.AddressURL(nft.Address().Hex()); link != "" {
				pairs = append(pairs, [2]string{"Explorer", link})
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock(meta.Name, pairs))
		return nil
	},
}
