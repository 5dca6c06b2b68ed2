package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/Mohsinsiddi/omnes/internal/ui"
	"github.com/spf13/cobra"
)

var weiPerGwei = big.NewInt(1_000_000_000)

var convertCmd = &cobra.Command{
	Use:   "convert <amount> [unit]",
	Short: "Convert between ETH, Gwei and Wei",
	Long: `Convert an amount between ETH, Gwei and Wei. The unit defaults to eth.
Conversions are exact.

Examples:
  omnes convert 0.05           # the default mint price in wei
  omnes convert 50 gwei
  omnes convert 8000000000000000000 wei`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit := "eth"
		if len(args) > 1 {
			unit = strings.ToLower(args[1])
		}
		wei, err := toWei(args[0], unit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Unit Conversion", [][2]string{
			{"Input", ui.Val(args[0] + " " + unit)},
			{"ETH", ui.Val(chain.FormatEther(wei) + " ETH")},
			{"Gwei", ui.Val(formatGwei(wei) + " gwei")},
			{"Wei", ui.Val(wei.String() + " wei")},
			{"Hex", ui.Val("0x" + wei.Text(16))},
		}))
		return nil
	},
}

// toWei parses amount in unit (eth, gwei or wei).
func toWei(amount, unit string) (*big.Int, error) {
	switch unit {
	case "eth", "ether":
		return chain.ParseEther(amount)
	case "gwei":
		// 1 gwei = 1e-9 ether: shift the decimal point.
		eth, err := chain.ParseEther(amount)
		if err != nil {
			return nil, err
		}
		q, r := new(big.Int).QuoRem(eth, weiPerGwei, new(big.Int))
		if r.Sign() != 0 {
			return nil, fmt.Errorf("amount %q has more than 9 decimals", amount)
		}
		return q, nil
	case "wei":
		wei, ok := new(big.Int).SetString(amount, 10)
		if !ok || wei.Sign() < 0 {
			return nil, fmt.Errorf("invalid wei amount: %s", amount)
		}
		return wei, nil
	default:
		return nil, fmt.Errorf("unknown unit %q: use eth, gwei or wei", unit)
	}
}

// formatGwei renders wei as gwei without trailing zeros.
func formatGwei(wei *big.Int) string {
	// FormatEther divides by 1e18; scale up by 1e9 first to divide by 1e9.
	return chain.FormatEther(new(big.Int).Mul(wei, weiPerGwei))
}
