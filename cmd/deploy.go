package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
)

var (
	deployManifest     string
	deploySaveManifest string
	deployFlags        config.Manifest
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new NFT collection",
	Long: `Deploy an NFT collection with four constructor strings: name, symbol,
base URI and hidden-metadata URI. The collection starts paused.

Settings come from --manifest (YAML or TOML), then flags. With a terminal and
no name or symbol, a wizard asks for them. On a real node --artifact points at
the compiled contract JSON (Hardhat or Foundry); the devnet needs none.

Examples:
  omnes deploy --name Afonso --symbol henrique --base-uri https://ipfs.io/ipfs/CID.json --hidden-uri ola
  omnes deploy --manifest collection.yaml --unpause
  omnes --rpc sepolia deploy --manifest collection.toml --artifact artifacts/NFT.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		m, err := deployManifestFor(cmd)
		if err != nil {
			return err
		}
		if m == nil {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		meta := ledger.Metadata{Name: m.Name, Symbol: m.Symbol, BaseURI: m.BaseURI, HiddenURI: m.HiddenURI}
		if err := meta.Validate(); err != nil {
			return err
		}
		price, excess, err := deployDefaults(m.MintPrice, m.ExcessPolicy)
		if err != nil {
			return err
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		var bytecode []byte
		if m.Artifact != "" {
			art, err := contract.LoadArtifact(m.Artifact)
			if err != nil {
				return err
			}
			bytecode = art.Bytecode
		}
		if s.devnet != nil {
			if err := s.devnet.SetDeployDefaults(price, excess); err != nil {
				return err
			}
		} else {
			if bytecode == nil {
				return fmt.Errorf("deploying to %s needs the compiled contract: pass --artifact <file.json>", s.network)
			}
			fmt.Fprintln(out, ui.Meta("Mint price and excess policy are fixed by the compiled contract on "+s.network+"."))
		}

		signer, err := resolveSigner(s)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(cmd.ErrOrStderr(), "Deploying "+m.Name+"...", ui.IsInteractive())
		spin.Start()
		nft, receipt, err := contract.DeployNFT(cmd.Context(), s.client, &contract.TransactOpts{Signer: signer}, meta, bytecode, s.bindOpts()...)
		spin.Stop()
		if err != nil {
			return err
		}
		printReceipt(out, s, nft, receipt)
		fmt.Fprintln(out, ui.Success("NFT deployed to: "+ui.Addr(nft.Address().Hex())))

		if err := rememberDeployment(m.Label, s.network, nft, signer.Address(), receipt); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Saved as %q on %s", m.Label, s.network)))

		if deploySaveManifest != "" {
			if err := config.WriteManifest(deploySaveManifest, m); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Meta("Manifest written to "+deploySaveManifest))
		}

		if !m.Unpause {
			fmt.Fprintln(out, ui.Hint("Public minting is paused. Open it with: omnes unpause"))
			return nil
		}
		_, err = transact(cmd.Context(), out, cmd.ErrOrStderr(), s, nft, "Opening public mint...",
			func(ctx context.Context) (*types.Receipt, error) {
				return nft.SetPaused(ctx, &contract.TransactOpts{Signer: signer}, false)
			})
		return err
	},
}

// deployManifestFor merges the manifest file, the flags, the wizard and the
// config defaults. A nil manifest means the wizard was cancelled.
func deployManifestFor(cmd *cobra.Command) (*config.Manifest, error) {
	m := &config.Manifest{}
	if deployManifest != "" {
		loaded, err := config.LoadManifest(deployManifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	flags := cmd.Flags()
	override := func(flag string, dst *string, v string) {
		if flags.Changed(flag) {
			*dst = v
		}
	}
	override("label", &m.Label, deployFlags.Label)
	override("name", &m.Name, deployFlags.Name)
	override("symbol", &m.Symbol, deployFlags.Symbol)
	override("base-uri", &m.BaseURI, deployFlags.BaseURI)
	override("hidden-uri", &m.HiddenURI, deployFlags.HiddenURI)
	override("price", &m.MintPrice, deployFlags.MintPrice)
	override("excess", &m.ExcessPolicy, deployFlags.ExcessPolicy)
	override("artifact", &m.Artifact, deployFlags.Artifact)
	if flags.Changed("unpause") {
		m.Unpause = deployFlags.Unpause
	}

	if m.MintPrice == "" {
		m.MintPrice = cfg.MintPrice
	}
	if m.ExcessPolicy == "" {
		m.ExcessPolicy = cfg.ExcessPolicy
	}

	if (m.Name == "" || m.Symbol == "") && ui.IsInteractive() {
		answered, err := ui.RunManifestWizard(*m)
		if err != nil || answered == nil {
			return nil, err
		}
		m = answered
	}
	if m.Label == "" {
		m.Label = strings.ToLower(m.Symbol)
	}
	return m, nil
}

// rememberDeployment records the contract under label and makes it the
// default when none is set.
func rememberDeployment(label, network string, nft *contract.NFT, deployer common.Address, receipt *types.Receipt) error {
	reg, err := loadContracts()
	if err != nil {
		return err
	}
	entry := &contract.Entry{
		Label:      label,
		Network:    network,
		Address:    nft.Address(),
		BuiltinID:  contract.BuiltinOmnes,
		Deployer:   deployer,
		TxHash:     receipt.TxHash,
		DeployedAt: time.Now().UTC(),
	}
	if err := reg.Add(entry); err != nil {
		return err
	}
	if err := reg.Save(); err != nil {
		return err
	}
	if cfg.DefaultContract == "" {
		cfg.DefaultContract = label
		return cfg.Save()
	}
	return nil
}

func init() {
	f := deployCmd.Flags()
	f.StringVar(&deployManifest, "manifest", "", "deployment manifest (.yaml, .yml or .toml)")
	f.StringVar(&deploySaveManifest, "save-manifest", "", "write the effective manifest to this file")
	f.StringVar(&deployFlags.Label, "label", "", "registry label (default: lowercase symbol)")
	f.StringVar(&deployFlags.Name, "name", "", "collection name")
	f.StringVar(&deployFlags.Symbol, "symbol", "", "collection symbol")
	f.StringVar(&deployFlags.BaseURI, "base-uri", "", "base metadata URI")
	f.StringVar(&deployFlags.HiddenURI, "hidden-uri", "", "hidden metadata URI")
	f.StringVar(&deployFlags.MintPrice, "price", "", "public mint price in ETH (devnet; default: config mint_price)")
	f.StringVar(&deployFlags.ExcessPolicy, "excess", "", "payment above the price: retain or refund (devnet)")
	f.StringVar(&deployFlags.Artifact, "artifact", "", "compiled contract JSON (Hardhat or Foundry)")
	f.BoolVar(&deployFlags.Unpause, "unpause", false, "open public minting right after deployment")
}
