package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/omnes/internal/contract"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"
)

var abiJSON bool

var abiCmd = &cobra.Command{
	Use:   "abi [signature]",
	Short: "List the collection interface or compute a selector",
	Long: `Without arguments, list every function and event of the collection
with its 4-byte selector or topic. With a signature, compute its selector.

Examples:
  omnes abi
  omnes abi --json > omnes.abi.json
  omnes abi "mintAirdrp(address to)"     # → 0x…`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			sig := normalizeSignature(args[0])
			hash := keccak([]byte(sig))
			fmt.Fprintln(out, ui.KeyValueBlock("Function Selector", [][2]string{
				{"Signature", sig},
				{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
				{"Full Hash", "0x" + hex.EncodeToString(hash)},
			}))
			return nil
		}

		b, _ := contract.GetBuiltin(contract.BuiltinOmnes)
		if abiJSON {
			data, err := json.MarshalIndent(b.ABI, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Kind"},
			{Title: "Signature"},
			{Title: "Selector"},
			{Title: "Mutability"},
		})
		for _, e := range b.ABI {
			switch e.Type {
			case "function":
				mut := ui.Meta(e.StateMutability)
				if e.Mutates() {
					mut = ui.StyleWarning.Render(e.StateMutability)
				}
				t.AddRow(ui.Row{e.Type, ui.Val(e.Signature()), ui.Addr(e.Selector()), mut})
			case "event":
				topic := "0x" + hex.EncodeToString(keccak([]byte(e.Signature())))
				t.AddRow(ui.Row{e.Type, ui.Val(e.Signature()), ui.Addr(topic), ""})
			}
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func keccak(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// normalizeSignature removes parameter names, keeping only types.
// "mintAirdrp(address to)" → "mintAirdrp(address)"
func normalizeSignature(sig string) string {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return sig
	}
	name := strings.TrimSpace(sig[:open])
	params := strings.TrimSpace(sig[open+1 : len(sig)-1])
	if params == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(params, ",") {
		// Take only the first word (the type), skip the name.
		if parts := strings.Fields(p); len(parts) > 0 {
			types = append(types, parts[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func init() {
	abiCmd.Flags().BoolVar(&abiJSON, "json", false, "print the ABI as JSON")
}
