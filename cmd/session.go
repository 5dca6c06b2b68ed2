package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/config"
	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ledger"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/Mohsinsiddi/omnes/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// errNoDevnet is returned by devnet-only commands pointed at a real node.
var errNoDevnet = errors.New("this command needs the in-process devnet")

var errorHints = []struct {
	err  error
	hint string
}{
	{ledger.ErrPaused, "Public minting is paused. The owner opens it with: omnes unpause"},
	{ledger.ErrUnauthorized, "Only the owner (or an operator, for pause and airdrop) may do this. Pick the signer with --from."},
	{ledger.ErrInsufficientPayment, "Send at least the mint price. Check it with: omnes status"},
	{ledger.ErrTransferFailed, "The recipient refused the payment. Withdraw to another address."},
	{contract.ErrContractNotFound, "List deployments with: omnes contracts"},
	{contract.ErrNoCode, "Nothing is deployed at that address on this network."},
	{wallet.ErrWalletNotFound, "List wallets with: omnes wallet list"},
	{errNoDevnet, "Drop --rpc (or clear rpc_url) to use the devnet."},
	{chain.ErrInsufficientFunds, "The signer cannot pay for gas and value. On the devnet: omnes devnet fund <address> <ether>"},
}

// session is an open connection to the chain the command runs against.
type session struct {
	client  chain.Client
	devnet  *chain.Devnet // nil against a real node
	chainID *big.Int
	network string
	info    *chain.Network // nil for chains missing from the registry
}

// openSession connects to --rpc, the configured rpc_url, or the devnet.
func openSession(ctx context.Context) (*session, error) {
	target := rpcFlag
	if target == "" {
		target = cfg.RPCURL
	}
	reg := chain.NewRegistry()
	url, err := reg.ResolveRPC(target)
	if err != nil {
		return nil, err
	}

	if url == "" {
		price, excess, err := deployDefaults(cfg.MintPrice, cfg.ExcessPolicy)
		if err != nil {
			return nil, err
		}
		dev, err := chain.OpenDevnet(cfg.DevnetPath(),
			chain.WithDevnetLogger(logger),
			chain.WithDeployDefaults(price, excess),
		)
		if err != nil {
			return nil, err
		}
		info, _ := reg.GetByName(chain.DevnetName)
		logger.Debug("using devnet", "state", cfg.DevnetPath())
		return &session{
			client:  dev,
			devnet:  dev,
			chainID: big.NewInt(config.DevnetChainID),
			network: chain.DevnetName,
			info:    info,
		}, nil
	}

	client, chainID, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	s := &session{client: client, chainID: chainID}
	if n, err := reg.GetByName(target); err == nil {
		s.info = n
	} else if n, err := reg.GetByChainID(chainID.Int64()); err == nil && n.Name != chain.DevnetName {
		s.info = n
	} else if chainID.Int64() == config.DevnetChainID {
		s.info, _ = reg.GetByName("localhost")
	}
	if s.info != nil {
		s.network = s.info.Name
	} else {
		s.network = "chain-" + chainID.String()
	}
	logger.Debug("connected", "rpc", url, "chain_id", chainID, "network", s.network)
	return s, nil
}

// openDevnet opens a session and fails unless it is the devnet.
func openDevnet(ctx context.Context) (*session, error) {
	s, err := openSession(ctx)
	if err != nil {
		return nil, err
	}
	if s.devnet == nil {
		s.close()
		return nil, fmt.Errorf("%w (connected to %s)", errNoDevnet, s.network)
	}
	return s, nil
}

func (s *session) close() {
	s.client.Close()
}

// bindOpts configures bindings for the session. The devnet mines instantly.
func (s *session) bindOpts() []contract.BindOption {
	opts := []contract.BindOption{contract.WithBindLogger(logger)}
	if s.devnet != nil {
		opts = append(opts, contract.WithPollInterval(10*time.Millisecond))
	}
	return opts
}

// txLink is the explorer URL of a transaction, or "".
func (s *session) txLink(hash common.Hash) string {
	if s.info == nil {
		return ""
	}
	return s.info.TxURL(hash.Hex())
}

// deployDefaults parses a mint price in ether and an excess policy.
func deployDefaults(price, excess string) (*uint256.Int, ledger.ExcessPolicy, error) {
	wei, err := chain.ParseEther(price)
	if err != nil {
		return nil, "", fmt.Errorf("mint price: %w", err)
	}
	p, err := contract.ToUint256(wei)
	if err != nil {
		return nil, "", fmt.Errorf("mint price: %w", err)
	}
	policy, err := ledger.ParseExcessPolicy(excess)
	if err != nil {
		return nil, "", err
	}
	return p, policy, nil
}

// newWalletManager opens the wallet index together with the keyring.
func newWalletManager() *wallet.Manager {
	store := wallet.NewJSONStore(cfg.WalletsPath())
	ks := wallet.KeystoreFromEnv(cfg.Dir(), cfg.KeyringBackend)
	return wallet.NewManager(wallet.WithStore(store), wallet.WithKeystore(ks))
}

// devAccount maps "dev0".."dev4" to the pre-funded development accounts.
func devAccount(name string) (chain.DevAccount, bool) {
	idx, ok := strings.CutPrefix(name, "dev")
	if !ok {
		return chain.DevAccount{}, false
	}
	i, err := strconv.Atoi(idx)
	accounts := chain.DevAccounts()
	if err != nil || i < 0 || i >= len(accounts) {
		return chain.DevAccount{}, false
	}
	return accounts[i], true
}

// resolveSigner picks the signing wallet: --from, the default wallet, an
// interactive pick, and on the devnet finally dev0.
func resolveSigner(s *session) (*wallet.Signer, error) {
	name := fromFlag
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name == "" {
		picked, err := pickSigningWallet()
		if err != nil {
			return nil, err
		}
		name = picked
	}
	if name == "" && s.devnet != nil {
		name = "dev0"
	}
	if name == "" {
		return nil, fmt.Errorf("no signing wallet: pass --from or set one with `omnes wallet use <name>`")
	}

	if _, ok := devAccount(name); ok && s.chainID.Int64() != config.DevnetChainID {
		return nil, fmt.Errorf("%s is a development account and only signs on chain %d", name, config.DevnetChainID)
	}
	signer, err := signerByName(name)
	if err != nil {
		return nil, err
	}
	logger.Debug("signer resolved", "wallet", name, "address", signer.Address().Hex())
	return signer, nil
}

// signerByName signs as a dev account or a stored signing wallet. Dev
// accounts never touch the keyring.
func signerByName(name string) (*wallet.Signer, error) {
	if acct, ok := devAccount(name); ok {
		return wallet.NewKeySigner(acct.Key)
	}
	return newWalletManager().Signer(name)
}

// pickSigningWallet offers the signing wallets in a picker. It returns ""
// when there is nothing to pick from or no terminal to pick on.
func pickSigningWallet() (string, error) {
	var items []ui.PickerItem
	for _, w := range walletIndex().List() {
		if w.CanSign() {
			items = append(items, ui.PickerItem{Label: w.Name, SubLabel: ui.TruncateAddr(w.Address.Hex()), Value: w.Name})
		}
	}
	if len(items) == 0 {
		return "", nil
	}
	picked, err := ui.PickItem("Sign with", items)
	if errors.Is(err, ui.ErrNotInteractive) {
		return "", nil
	}
	return picked, err
}

// walletIndex reads wallet metadata without opening the keyring.
func walletIndex() *wallet.Manager {
	return wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())))
}

// resolveAddress accepts a 0x address, a wallet name or a dev account name.
func resolveAddress(arg string) (common.Address, error) {
	if acct, ok := devAccount(arg); ok {
		return acct.Address, nil
	}
	return walletIndex().Resolve(arg)
}

// openContract binds the selected contract on the session's network.
func openContract(s *session) (*contract.Entry, *contract.NFT, error) {
	label := contractFlag
	if label == "" {
		label = cfg.DefaultContract
	}
	if label == "" {
		return nil, nil, fmt.Errorf("no contract selected: deploy one or pass --contract <label|address>")
	}
	reg, err := loadContracts()
	if err != nil {
		return nil, nil, err
	}
	entry, err := reg.Resolve(label, s.network)
	if err != nil {
		return nil, nil, err
	}
	return entry, contract.NewNFT(entry.Address, s.client, s.bindOpts()...), nil
}

type prompter interface {
	InOrStdin() io.Reader
	OutOrStdout() io.Writer
}

// confirm asks a yes/no question unless --yes was given.
func confirm(cmd prompter, prompt string) bool {
	return assumeYes || ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
}

// confirmDanger is confirm for actions that move funds or give up control.
func confirmDanger(cmd prompter, prompt string) bool {
	return assumeYes || ui.ConfirmDanger(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
}

// transact runs a write with a spinner and prints the receipt. A reverted
// transaction still prints its receipt before the error is returned.
func transact(ctx context.Context, out, status io.Writer, s *session, nft *contract.NFT, msg string,
	send func(context.Context) (*types.Receipt, error)) (*types.Receipt, error) {
	spin := ui.NewSpinner(status, msg, ui.IsInteractive())
	spin.Start()
	receipt, err := send(ctx)
	spin.Stop()
	if receipt != nil {
		printReceipt(out, s, nft, receipt)
	}
	return receipt, err
}

func printReceipt(out io.Writer, s *session, nft *contract.NFT, r *types.Receipt) {
	var events []ledger.Event
	if nft != nil {
		events = nft.Events(r)
	}
	fmt.Fprint(out, ui.RenderReceipt(r, events, s.txLink(r.TxHash), chain.FormatEther))
}

// parseValue parses an ether amount flag into wei.
func parseValue(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return chain.ParseEther(s)
}
