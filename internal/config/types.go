package config

// Config holds all omnes configuration.
type Config struct {
	DefaultWallet   string `json:"default_wallet"`
	DefaultContract string `json:"default_contract"` // deployment label
	RPCURL          string `json:"rpc_url"`          // empty = in-process devnet
	MintPrice       string `json:"mint_price"`       // ether, e.g. "0.05"
	ExcessPolicy    string `json:"excess_policy"`    // "retain" | "refund"
	LogLevel        string `json:"log_level"`        // "debug" | "info" | "warn" | "error"
	KeyringBackend  string `json:"keyring_backend"`  // "" (auto) | "file"

	// internal: config dir path used for Save()
	configDir string
}

// Manifest describes a deployment, read from YAML or TOML.
type Manifest struct {
	Label        string `yaml:"label"         toml:"label"`
	Name         string `yaml:"name"          toml:"name"`
	Symbol       string `yaml:"symbol"        toml:"symbol"`
	BaseURI      string `yaml:"base_uri"      toml:"base_uri"`
	HiddenURI    string `yaml:"hidden_uri"    toml:"hidden_uri"`
	MintPrice    string `yaml:"mint_price"    toml:"mint_price"`    // ether
	ExcessPolicy string `yaml:"excess_policy" toml:"excess_policy"` // devnet only
	Artifact     string `yaml:"artifact"      toml:"artifact"`      // compiled contract JSON, real nodes only
	Unpause      bool   `yaml:"unpause"       toml:"unpause"`       // open public minting after deploy
}
