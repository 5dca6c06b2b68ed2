package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "omnes-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "omnes")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"OMNES_CONFIG_DIR="+configDir,
		"OMNES_KEYRING_BACKEND=file",
		"OMNES_KEYRING_PASSWORD=e2e",
		"OMNES_PRIVATE_KEY=",
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func mustCLI(t *testing.T, configDir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, configDir, args...)
	require.NoError(t, err, "omnes %s\n%s", strings.Join(args, " "), out)
	return out
}

const (
	dev1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	dev2 = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	dev3 = "0x90F79bf6EB2c8f870365E785982E1f101E93b906"

	// Hardhat account #5, outside the dev0..dev4 set.
	extraKey  = "0x8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba"
	extraAddr = "0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc"
)

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "omnes")
	assert.Contains(t, out, "0.3.0")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	lower := strings.ToLower(out)
	for _, c := range []string{"deploy", "mint", "pause", "unpause", "withdraw", "balance", "devnet", "wallet"} {
		assert.Contains(t, lower, c)
	}
	assert.Contains(t, out, "--rpc")
	assert.Contains(t, out, "--from")
}

func TestBareCommandShowsBanner(t *testing.T) {
	out, err := runCLI(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "NFT issuance & custody ledger")
	assert.Contains(t, out, "Usage:")
}

func TestNetworks(t *testing.T) {
	out := mustCLI(t, t.TempDir(), "networks")
	for _, n := range []string{"devnet", "localhost", "sepolia"} {
		assert.Contains(t, strings.ToLower(out), n)
	}
}

var deployedRe = regexp.MustCompile(`NFT deployed to: (0x[0-9a-fA-F]{40})`)

// TestCollectionLifecycle walks the whole issuance and custody flow on the
// devnet: deploy paused, airdrop, refuse paid mint, open, buy, withdraw.
func TestCollectionLifecycle(t *testing.T) {
	dir := t.TempDir()
	mustCLI(t, dir, "devnet", "init")

	out := mustCLI(t, dir, "deploy",
		"--name", "Afonso", "--symbol", "henrique",
		"--base-uri", "https://ipfs.io/ipfs/CID.json", "--hidden-uri", "ola")
	require.Regexp(t, deployedRe, out)
	addr := deployedRe.FindStringSubmatch(out)[1]

	out = mustCLI(t, dir, "mint", "airdrop", dev1)
	assert.Contains(t, out, "Minted token #1 to "+dev1)

	out, err := runCLI(t, dir, "mint", "public", "--from", "dev2", "--value", "8")
	require.Error(t, err)
	assert.Contains(t, out, "minting is paused")
	assert.Contains(t, out, "omnes unpause")

	mustCLI(t, dir, "unpause")

	out = mustCLI(t, dir, "mint", "public", "--from", "dev2", "--value", "8")
	assert.Contains(t, out, "Minted token #2 to "+dev2)

	out = mustCLI(t, dir, "status")
	assert.Contains(t, out, addr)
	assert.Regexp(t, `Escrow:\s+8 ETH`, out)

	out = mustCLI(t, dir, "withdraw", "dev3", "--yes")
	assert.Contains(t, out, "Withdrew 8 ETH to "+dev3)

	out = mustCLI(t, dir, "balance", dev3, "--native")
	assert.Regexp(t, `Native:\s+10008 ETH`, out)

	out = mustCLI(t, dir, "balance", dev2)
	assert.Regexp(t, `Tokens:\s+1\s`, out)
}

func TestNonOwnerCannotPause(t *testing.T) {
	dir := t.TempDir()
	mustCLI(t, dir, "devnet", "init")
	mustCLI(t, dir, "deploy", "--name", "A", "--symbol", "B", "--unpause")

	out, err := runCLI(t, dir, "pause", "--from", "dev1")
	require.Error(t, err)
	assert.Contains(t, out, "caller is not authorized")

	out = mustCLI(t, dir, "status")
	assert.Regexp(t, `Public mint:\s+open`, out)
}

func TestDeployFromManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "collection.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`label: sbt
name: SBT-OMNES10
symbol: OMENSSBT
base_uri: https://ipfs.io/ipfs/QmSxLQ6K7s3yvUWP4VpkBvhfyG1rJBcDY5gAKaScihAKxx/
hidden_uri: https://ipfs.io/ipfs/QmWCbaw4vp4m6QKqrkxtQe7A7tsir9WGMgVvZaagMzSe9W
mint_price: "0.5"
excess_policy: refund
`), 0o600))

	mustCLI(t, dir, "devnet", "init")
	mustCLI(t, dir, "deploy", "--manifest", manifest)

	out := mustCLI(t, dir, "status")
	assert.Contains(t, out, "SBT-OMNES10")
	assert.Regexp(t, `Price:\s+0\.5 ETH`, out)
	assert.Regexp(t, `Excess payment:\s+refund`, out)

	out = mustCLI(t, dir, "contracts")
	assert.Contains(t, out, "sbt")
}

func TestSigningWalletFromKeyring(t *testing.T) {
	dir := t.TempDir()
	mustCLI(t, dir, "devnet", "init")
	mustCLI(t, dir, "wallet", "add", "ops", "--key", extraKey)
	mustCLI(t, dir, "devnet", "fund", "ops", "1")

	mustCLI(t, dir, "deploy", "--name", "A", "--symbol", "B", "--from", "ops")
	out := mustCLI(t, dir, "owner")
	assert.Contains(t, out, extraAddr)

	out = mustCLI(t, dir, "wallet", "sign", "ops", "hello")
	sig := regexp.MustCompile(`0x[0-9a-f]{130}`).FindString(out)
	require.NotEmpty(t, sig, out)

	out = mustCLI(t, dir, "wallet", "verify", "hello", sig)
	assert.Contains(t, out, extraAddr)
}

func TestWalletAddAndList(t *testing.T) {
	dir := t.TempDir()
	mustCLI(t, dir, "wallet", "add", "testwal", "0x1234567890abcdef1234567890abcdef12345678")

	out := mustCLI(t, dir, "wallet", "list")
	assert.Contains(t, out, "testwal")
	assert.Contains(t, out, "0x1234")
}

func TestWalletRemove(t *testing.T) {
	dir := t.TempDir()
	mustCLI(t, dir, "wallet", "add", "w1", "0x1234567890abcdef1234567890abcdef12345678")

	// Use stdin to auto-confirm the prompt.
	cmd := exec.Command(binaryPath, "wallet", "remove", "w1")
	cmd.Env = append(os.Environ(), "OMNES_CONFIG_DIR="+dir)
	cmd.Stdin = strings.NewReader("y\n")
	cmd.Run() //nolint:errcheck

	out := mustCLI(t, dir, "wallet", "list")
	assert.NotContains(t, out, "w1")
}

func TestConfigShow(t *testing.T) {
	out := mustCLI(t, t.TempDir(), "config", "show")
	assert.Contains(t, out, "mint_price")
	assert.Contains(t, out, "excess_policy")
}

func TestConvert(t *testing.T) {
	out := mustCLI(t, t.TempDir(), "convert", "0.05")
	assert.Contains(t, out, "50000000000000000 wei")
	assert.Contains(t, out, "50000000 gwei")
}
