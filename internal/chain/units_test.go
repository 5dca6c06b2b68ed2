package chain_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/omnes/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8", "8000000000000000000"},
		{"0.05", "50000000000000000"},
		{".5", "500000000000000000"},
		{" 1.000000000000000001 ", "1000000000000000001"},
		{"0", "0"},
		{"10000", "10000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := chain.ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEtherErrors(t *testing.T) {
	for _, in := range []string{"", "-1", "1.0000000000000000001", "abc", "1.2.3", "1e18"} {
		t.Run(in, func(t *testing.T) {
			_, err := chain.ParseEther(in)
			assert.Error(t, err)
		})
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{chain.Ether(8), "8"},
		{big.NewInt(50_000_000_000_000_000), "0.05"},
		{big.NewInt(1), "0.000000000000000001"},
		{big.NewInt(-1_500_000_000_000_000_000), "-1.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chain.FormatEther(tt.wei))
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0.05", "8", "123.456", "0.000000000000000001"} {
		wei, err := chain.ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, chain.FormatEther(wei))
	}
}
