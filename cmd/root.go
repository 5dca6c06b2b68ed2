package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/logging"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/omnes/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir       string
	cfg          *config.Config
	logger       *slog.Logger
	logCloser    io.Closer
	verbose      bool
	rpcFlag      string
	fromFlag     string
	contractFlag string
	assumeYes    bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "omnes",
	Short: "Issue and custody an owner-administered NFT collection",
	Long: `omnes deploys and operates an NFT collection with a pause gate, paid
public minting and an escrow the owner drains.

Without --rpc (or rpc_url in the config) every command runs against an
in-process devnet whose state lives in the config directory. Start one with:

  omnes devnet init
  omnes deploy --name Afonso --symbol henrique --base-uri https://ipfs.io/ipfs/CID.json --hidden-uri ola`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Banner(Version))
		cmd.Help() //nolint:errcheck
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if logCloser != nil {
			logCloser.Close() //nolint:errcheck
		}
		logger, logCloser, err = logging.Setup(logging.Options{
			Path:    cfg.LogPath(),
			Level:   cfg.LogLevel,
			Verbose: verbose,
			Stderr:  cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
		logger.Debug("command started", "command", cmd.CommandPath(), "config_dir", cfg.Dir())
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		logCloser.Close() //nolint:errcheck
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		if hint := explain(err); hint != "" {
			fmt.Fprintln(os.Stderr, ui.Hint(hint))
		}
		os.Exit(1)
	}
}

// explain suggests a next step for well-known failures.
func explain(err error) string {
	for _, h := range errorHints {
		if errors.Is(err, h.err) {
			return h.hint
		}
	}
	return ""
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $OMNES_CONFIG_DIR or ~/.omnes)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "network name or JSON-RPC URL (default: config rpc_url, else the devnet)")
	rootCmd.PersistentFlags().StringVar(&fromFlag, "from", "", "signing wallet name (dev0..dev4 on chain 31337)")
	rootCmd.PersistentFlags().StringVar(&contractFlag, "contract", "", "contract label or address (default: config default_contract)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")

	// Register all sub-commands.
	rootCmd.AddCommand(
		devnetCmd,
		walletCmd,
		deployCmd,
		mintCmd,
		pauseCmd,
		unpauseCmd,
		withdrawCmd,
		balanceCmd,
		statusCmd,
		ownerCmd,
		operatorCmd,
		txCmd,
		contractsCmd,
		abiCmd,
		networksCmd,
		configCmd,
		convertCmd,
	)
}
