package contract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, v interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ---------------------------------------------------------------------------
// LoadArtifact: Hardhat format
// ---------------------------------------------------------------------------

func TestLoadArtifactHardhat(t *testing.T) {
	path := writeArtifact(t, map[string]interface{}{
		"contractName": "NFT",
		"abi":          omnesABI,
		"bytecode":     "0xaabbcc",
	})

	art, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, art.Bytecode)
	assert.Len(t, art.ABI, len(omnesABI))
}

// ---------------------------------------------------------------------------
// LoadArtifact: Foundry format
// ---------------------------------------------------------------------------

func TestLoadArtifactFoundry(t *testing.T) {
	path := writeArtifact(t, map[string]interface{}{
		"abi":      omnesABI,
		"bytecode": map[string]string{"object": "0x6080", "sourceMap": ""},
	})

	art, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, art.Bytecode)
}

func TestLoadArtifactBytecodeWithoutPrefix(t *testing.T) {
	path := writeArtifact(t, map[string]interface{}{"abi": omnesABI, "bytecode": "6080"})

	art, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x80}, art.Bytecode)
}

// ---------------------------------------------------------------------------
// LoadArtifact: failures
// ---------------------------------------------------------------------------

func TestLoadArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	rawArray := filepath.Join(dir, "raw.json")
	require.NoError(t, os.WriteFile(rawArray, []byte(`[{"type":"function","name":"foo"}]`), 0o644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", filepath.Join(dir, "nope.json"), "cannot read"},
		{"empty file", empty, "empty"},
		{"raw ABI array", rawArray, "invalid artifact JSON"},
		{"no abi key", writeArtifact(t, map[string]string{"bytecode": "0x00"}), "no \"abi\" array"},
		{"no bytecode", writeArtifact(t, map[string]interface{}{"abi": omnesABI}), "no bytecode"},
		{"empty bytecode", writeArtifact(t, map[string]interface{}{"abi": omnesABI, "bytecode": "0x"}), "bytecode is empty"},
		{"bad hex", writeArtifact(t, map[string]interface{}{"abi": omnesABI, "bytecode": "0xzz"}), "invalid bytecode hex"},
		{"bad bytecode shape", writeArtifact(t, map[string]interface{}{"abi": omnesABI, "bytecode": 42}), "neither a hex string"},
		{"foreign ABI", writeArtifact(t, map[string]interface{}{
			"abi":      []ABIEntry{{Name: "transfer", Type: "function", Inputs: []ABIParam{{Type: "address"}, {Type: "uint256"}}}},
			"bytecode": "0x00",
		}), "constructor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArtifact(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ---------------------------------------------------------------------------
// CheckOmnesInterface
// ---------------------------------------------------------------------------

func TestCheckOmnesInterfaceAcceptsBuiltin(t *testing.T) {
	assert.NoError(t, CheckOmnesInterface(omnesABI))
}

func TestCheckOmnesInterfaceOnlyNeedsCoreFunctions(t *testing.T) {
	var core []ABIEntry
	for _, e := range omnesABI {
		switch e.Name {
		case "", "mintAirdrp", "mintOmnes", "setPaused", "balanceOf", "withdrawPayments":
			if e.Type != "event" {
				core = append(core, e)
			}
		}
	}
	assert.NoError(t, CheckOmnesInterface(core))
}

func TestCheckOmnesInterfaceMissingFunction(t *testing.T) {
	var entries []ABIEntry
	for _, e := range omnesABI {
		if e.Name != "withdrawPayments" {
			entries = append(entries, e)
		}
	}
	err := CheckOmnesInterface(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "withdrawPayments(address)")
}

func TestCheckOmnesInterfacePayableMismatch(t *testing.T) {
	entries := append([]ABIEntry(nil), omnesABI...)
	for i, e := range entries {
		if e.Name == "mintOmnes" {
			entries[i].StateMutability = "nonpayable"
		}
	}
	err := CheckOmnesInterface(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payable")
}
