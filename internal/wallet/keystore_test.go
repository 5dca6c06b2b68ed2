package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// normaliseHexKey
// ---------------------------------------------------------------------------

func TestNormaliseHexKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0xabc123", "abc123"},
		{"0Xabc123", "abc123"},
		{"abc123", "abc123"},
		{"  0xabc  ", "abc"},
		{"0x", ""},
		{"", ""},
		{"0x" + testPrivKeyHex, testPrivKeyHex},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseHexKey(tt.in), tt.in)
	}
}

// ---------------------------------------------------------------------------
// Keystore.Retrieve: env var override
// ---------------------------------------------------------------------------

func TestKeystoreRetrieveEnvVarOverride(t *testing.T) {
	t.Setenv(EnvPrivateKey, "0x"+testPrivKeyHex)

	ks := nullKeystore() // nil ring: must be served by env var
	got, err := ks.Retrieve("omnes.any-ref")
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)
}

func TestKeystoreRetrieveNilRing(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")

	_, err := nullKeystore().Retrieve("omnes.ghost")
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)
}

func TestKeystoreStoreNilRing(t *testing.T) {
	_, err := nullKeystore().Store("w", testPrivKeyHex)
	assert.ErrorIs(t, err, ErrKeystoreUnavailable)
}

func TestKeystoreDeleteNilRing(t *testing.T) {
	// nil ring: should succeed (no OS keychain to touch).
	assert.NoError(t, nullKeystore().Delete("omnes.anything"))
}

// ---------------------------------------------------------------------------
// File backend
// ---------------------------------------------------------------------------

func TestFileKeystoreRoundTrip(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	ks := testKeystore(t)

	ref, err := ks.Store("deployer", "0x"+testPrivKeyHex)
	require.NoError(t, err)
	assert.Equal(t, "omnes.deployer", ref)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got, "stored keys are normalised")

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)

	assert.NoError(t, ks.Delete(ref), "deleting a missing key must not error")
}

func TestOpenKeystoreFileBackend(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	dir := t.TempDir()

	ks := OpenKeystore(KeystoreOptions{Backend: "file", FileDir: dir, Password: "pw"})
	require.NotNil(t, ks.ring)
	ref, err := ks.Store("ci", testPrivKeyHex)
	require.NoError(t, err)

	// A second handle on the same directory sees the key.
	again := OpenKeystore(KeystoreOptions{Backend: "file", FileDir: dir, Password: "pw"})
	got, err := again.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, testPrivKeyHex, got)
}

func TestKeystoreFromEnvOverridesBackend(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	t.Setenv(EnvKeyringBackend, "file")
	t.Setenv(EnvKeyringPassword, "pw")

	ks := KeystoreFromEnv(t.TempDir(), "os-keychain")
	require.NotNil(t, ks.ring)
	_, err := ks.Store("env", testPrivKeyHex)
	assert.NoError(t, err)
}

func TestInMemoryKeystore(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, err := ks.Store("a", "0x"+testPrivKeyHex)
	require.NoError(t, err)

	got, err := ks.Retrieve(ref)
	require.NoError(t, err)
	assert.Equal(t, "0x"+testPrivKeyHex, got)

	require.NoError(t, ks.Delete(ref))
	_, err = ks.Retrieve(ref)
	assert.Error(t, err)
}
