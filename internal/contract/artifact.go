package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact holds both the ABI and the deployment bytecode parsed from an artifact.
type Artifact struct {
	ABI      []ABIEntry
	Bytecode []byte
}

// LoadArtifact loads the ABI and the deployment bytecode from a Hardhat or
// Foundry artifact JSON file. The ABI must expose the omnes NFT interface.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	var raw struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}
	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no \"abi\" array: %s", path)
	}
	var entries []ABIEntry
	if err := json.Unmarshal(raw.ABI, &entries); err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	if err := CheckOmnesInterface(entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if len(raw.Bytecode) == 0 {
		return nil, fmt.Errorf("artifact has no bytecode, cannot deploy an interface or abstract contract: %s", path)
	}
	bcHex, err := extractBytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
	}
	if bcHex == "" || bcHex == "0x" {
		return nil, fmt.Errorf("artifact bytecode is empty: %s", path)
	}
	if !strings.HasPrefix(bcHex, "0x") {
		bcHex = "0x" + bcHex
	}
	code, err := hexutil.Decode(bcHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex in artifact: %w", err)
	}
	return &Artifact{ABI: entries, Bytecode: code}, nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}
	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

// coreFunctions are the functions an artifact must expose to be driven by
// the NFT binding.
var coreFunctions = []string{"mintAirdrp", "mintOmnes", "setPaused", "balanceOf", "withdrawPayments"}

// CheckOmnesInterface reports the first core function or the constructor that
// entries lacks or declares with a different signature.
func CheckOmnesInterface(entries []ABIEntry) error {
	have := make(map[string]ABIEntry, len(entries))
	for _, e := range entries {
		switch e.Type {
		case "function":
			have[e.Name] = e
		case "constructor":
			have[""] = e
		}
	}
	b, _ := GetBuiltin(BuiltinOmnes)
	want := make(map[string]ABIEntry, len(b.ABI))
	for _, e := range b.ABI {
		want[e.Name] = e
	}

	ctor, ok := have[""]
	if !ok || ctor.Signature() != want[""].Signature() {
		return fmt.Errorf("ABI has no constructor(string,string,string,string)")
	}
	for _, name := range coreFunctions {
		got, ok := have[name]
		w := want[name]
		if !ok || got.Signature() != w.Signature() {
			return fmt.Errorf("ABI has no %s", w.Signature())
		}
		if payable(got) != payable(w) {
			return fmt.Errorf("%s: payable mismatch", w.Signature())
		}
	}
	return nil
}

func payable(e ABIEntry) bool {
	return e.StateMutability == "payable"
}
