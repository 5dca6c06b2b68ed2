package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormattersCarryPrefixAndMessage(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Success", Success, "✓"},
		{"Warn", Warn, "⚠"},
		{"Err", Err, "✗"},
		{"Info", Info, "ℹ"},
		{"Hint", Hint, "💡"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn("done")
			assert.Contains(t, result, tt.prefix)
			assert.Contains(t, result, "done")
		})
	}
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestAllFormattersReturnNonEmpty(t *testing.T) {
	formatters := map[string]func(string) string{
		"Success":   Success,
		"Warn":      Warn,
		"Err":       Err,
		"Info":      Info,
		"Hint":      Hint,
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			result := fn("test")
			assert.NotEmpty(t, result, "%s should return non-empty string", name)
			assert.Contains(t, result, "test", "%s should contain the input message", name)
		})
	}
}

func TestPauseState(t *testing.T) {
	assert.Contains(t, PauseState(true), "paused")
	assert.Contains(t, PauseState(false), "open")
}

func TestBannerMentionsVersion(t *testing.T) {
	assert.Contains(t, Banner("1.2.3"), "v1.2.3")
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))

	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x1234…5678", TruncateAddr(addr))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b\n", Indent("a\n\nb\n", 2))
}
