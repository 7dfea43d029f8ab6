package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config describes the fixed first block of a ledger.
type Config struct {
	ChainID     string    `json:"chainId"`
	GenesisTime time.Time `json:"genesisTime"`
	Description string    `json:"description"`
}

// DefaultConfig reproduces the built-in genesis block.
func DefaultConfig() Config {
	return Config{
		ChainID:     DefaultChainID,
		GenesisTime: DefaultTime,
		Description: DefaultDescription,
	}
}

// LoadConfig loads a genesis config from a JSON file. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read genesis config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse genesis config: %w", err)
	}
	if cfg.ChainID == "" {
		cfg.ChainID = DefaultChainID
	}
	if cfg.GenesisTime.IsZero() {
		cfg.GenesisTime = DefaultTime
	}
	if cfg.Description == "" {
		cfg.Description = DefaultDescription
	}
	return cfg, nil
}
