package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	defaultMintPrice = "0.05"
	defaultExcess    = "retain"
	defaultLogLevel  = "info"

	configFile    = "config.json"
	walletsFile   = "wallets.json"
	contractsFile = "contracts.json"
	devnetFile    = "devnet.json"
	logFile       = "omnes.log"

	// EnvConfigDir overrides the config directory.
	EnvConfigDir = "OMNES_CONFIG_DIR"
)

// Load reads config from dir (or creates defaults). dir defaults to
// $OMNES_CONFIG_DIR, then ~/.omnes.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvConfigDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".omnes")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// settable maps `config set` keys to their fields.
func (c *Config) settable() map[string]*string {
	return map[string]*string{
		"default_wallet":   &c.DefaultWallet,
		"default_contract": &c.DefaultContract,
		"rpc_url":          &c.RPCURL,
		"mint_price":       &c.MintPrice,
		"excess_policy":    &c.ExcessPolicy,
		"log_level":        &c.LogLevel,
		"keyring_backend":  &c.KeyringBackend,
	}
}

// Set updates a single key. Values are validated where the format is fixed.
func (c *Config) Set(key, value string) error {
	field, ok := c.settable()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(c.Keys(), ", "))
	}
	switch key {
	case "excess_policy":
		if value != "retain" && value != "refund" {
			return fmt.Errorf("excess_policy must be retain or refund, got %q", value)
		}
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("log_level must be debug, info, warn or error, got %q", value)
		}
	case "keyring_backend":
		if value != "" && value != "file" {
			return fmt.Errorf("keyring_backend must be empty or file, got %q", value)
		}
	}
	*field = value
	return nil
}

// Keys returns the settable keys in sorted order.
func (c *Config) Keys() []string {
	m := c.settable()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a settable key.
func (c *Config) Get(key string) (string, bool) {
	field, ok := c.settable()[key]
	if !ok {
		return "", false
	}
	return *field, true
}

// UsesDevnet reports whether commands run against the in-process devnet.
func (c *Config) UsesDevnet() bool {
	return c.RPCURL == ""
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet metadata file.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// ContractsPath is the deployment registry file.
func (c *Config) ContractsPath() string { return filepath.Join(c.configDir, contractsFile) }

// DevnetPath is the devnet state file.
func (c *Config) DevnetPath() string { return filepath.Join(c.configDir, devnetFile) }

// LogPath is the rotating log file.
func (c *Config) LogPath() string { return filepath.Join(c.configDir, "logs", logFile) }

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		MintPrice:    defaultMintPrice,
		ExcessPolicy: defaultExcess,
		LogLevel:     defaultLogLevel,
		configDir:    dir,
	}
}

// LoadJSON reads a JSON file into a T. A missing file yields the zero value.
func LoadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveJSON writes v as indented JSON with owner-only permissions.
func SaveJSON(path string, v any) error {
	return saveJSON(path, v)
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
