package contract

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ABIEntry is a single item of a JSON ABI as solc emits it.
type ABIEntry struct {
	Name            string     `json:"name,omitempty"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Anonymous       bool       `json:"anonymous,omitempty"`
}

type ABIParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

func (e ABIEntry) isFunc() bool { return e.Type == "function" }

// Mutates reports whether calling the entry changes collection state.
func (e ABIEntry) Mutates() bool {
	return e.isFunc() && (e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

// Signature is the canonical form hashed into selectors and topics,
// e.g. "mintAirdrp(address)".
func (e ABIEntry) Signature() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('(')
	for i, p := range e.Inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type)
	}
	b.WriteByte(')')
	return b.String()
}

// Selector is the 0x-prefixed 4-byte method id.
func (e ABIEntry) Selector() string {
	return hexutil.Encode(crypto.Keccak256([]byte(e.Signature()))[:4])
}

// BuiltinKind is an interface compiled into the binary, so registered
// collections need not carry their own ABI.
type BuiltinKind struct {
	ID          string
	Name        string
	Description string
	ABI         []ABIEntry
}

var builtins = make(map[string]BuiltinKind)

// RegisterBuiltin is called from init in the file that declares the ABI.
func RegisterBuiltin(b BuiltinKind) { builtins[b.ID] = b }

func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtins[id]
	return b, ok
}

// AllBuiltins lists the compiled-in interfaces ordered by ID.
func AllBuiltins() []BuiltinKind {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]BuiltinKind, len(ids))
	for i, id := range ids {
		out[i] = builtins[id]
	}
	return out
}
