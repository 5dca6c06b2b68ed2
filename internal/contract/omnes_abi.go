package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BuiltinOmnes is the ID of the omnes NFT built-in.
const BuiltinOmnes = "omnes"

// The omnes collection: owner airdrops, paused-gated paid public mint and an
// escrow of payments drained by the owner. Function names follow the deployed
// contract (mintAirdrp, mintOmnes), typos included.
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          BuiltinOmnes,
		Name:        "Omnes NFT (airdrop + paid mint + escrow)",
		Description: "ERC-721 style collection with owner airdrops, pausable public mint and withdrawPayments.",
		ABI:         omnesABI,
	})
}

var (
	pAddr    = func(name string) ABIParam { return ABIParam{Name: name, Type: "address"} }
	pUint    = func(name string) ABIParam { return ABIParam{Name: name, Type: "uint256"} }
	pString  = func(name string) ABIParam { return ABIParam{Name: name, Type: "string"} }
	pBool    = func(name string) ABIParam { return ABIParam{Name: name, Type: "bool"} }
	pIndexed = func(p ABIParam) ABIParam { p.Indexed = true; return p }
)

func view(name string, in []ABIParam, out ABIParam) ABIEntry {
	return ABIEntry{Name: name, Type: "function", Inputs: in, Outputs: []ABIParam{out}, StateMutability: "view"}
}

func write(name string, mutability string, in ...ABIParam) ABIEntry {
	if in == nil {
		in = []ABIParam{}
	}
	return ABIEntry{Name: name, Type: "function", Inputs: in, Outputs: []ABIParam{}, StateMutability: mutability}
}

func event(name string, in ...ABIParam) ABIEntry {
	return ABIEntry{Name: name, Type: "event", Inputs: in}
}

var omnesABI = []ABIEntry{
	{
		Type:            "constructor",
		Inputs:          []ABIParam{pString("_name"), pString("_symbol"), pString("_initBaseURI"), pString("_hiddenMetadataUri")},
		StateMutability: "nonpayable",
	},
	// ── read ─────────────────────────────────────────────────────────────────
	view("name", []ABIParam{}, pString("")),
	view("symbol", []ABIParam{}, pString("")),
	view("baseURI", []ABIParam{}, pString("")),
	view("hiddenMetadataUri", []ABIParam{}, pString("")),
	view("owner", []ABIParam{}, pAddr("")),
	view("paused", []ABIParam{}, pBool("")),
	view("cost", []ABIParam{}, pUint("")),
	view("totalSupply", []ABIParam{}, pUint("")),
	view("escrow", []ABIParam{}, pUint("")),
	view("balanceOf", []ABIParam{pAddr("owner")}, pUint("")),
	view("ownerOf", []ABIParam{pUint("tokenId")}, pAddr("")),
	view("isOperator", []ABIParam{pAddr("account")}, pBool("")),
	// ── write ────────────────────────────────────────────────────────────────
	write("mintAirdrp", "nonpayable", pAddr("_receiver")),
	write("mintOmnes", "payable"),
	write("setPaused", "nonpayable", pBool("_state")),
	write("withdrawPayments", "nonpayable", pAddr("payee")),
	write("transferOwnership", "nonpayable", pAddr("newOwner")),
	write("setOperator", "nonpayable", pAddr("account"), pBool("enabled")),
	// ── events ───────────────────────────────────────────────────────────────
	event("Transfer", pIndexed(pAddr("from")), pIndexed(pAddr("to")), pIndexed(pUint("tokenId"))),
	event("Paused", pAddr("account")),
	event("Unpaused", pAddr("account")),
	event("Withdrawn", pIndexed(pAddr("payee")), pUint("weiAmount")),
	event("OwnershipTransferred", pIndexed(pAddr("previousOwner")), pIndexed(pAddr("newOwner"))),
	event("OperatorUpdated", pIndexed(pAddr("account")), pBool("enabled")),
}

var (
	omnesOnce   sync.Once
	omnesParsed abi.ABI
	omnesErr    error
)

// OmnesABI returns the parsed go-ethereum ABI of the omnes contract.
func OmnesABI() (abi.ABI, error) {
	omnesOnce.Do(func() {
		omnesParsed, omnesErr = ParseEntries(omnesABI)
	})
	return omnesParsed, omnesErr
}

// ParseEntries converts ABI entries into a go-ethereum ABI.
func ParseEntries(entries []ABIEntry) (abi.ABI, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return abi.ABI{}, err
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing ABI: %w", err)
	}
	return parsed, nil
}

func mustOmnesABI() abi.ABI {
	parsed, err := OmnesABI()
	if err != nil {
		panic(err)
	}
	return parsed
}
