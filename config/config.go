package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// GenesisAlloc funds an address at first boot so participants can escrow
// value on a fresh deployment.
type GenesisAlloc struct {
	Address string `toml:"Address"`
	Asset   string `toml:"Asset"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	RPCAddress      string         `toml:"RPCAddress"`
	DataDir         string         `toml:"DataDir"`
	ChainName       string         `toml:"ChainName"`
	ContractAddress string         `toml:"ContractAddress"`
	HashRounds      int            `toml:"HashRounds"`
	NativeSymbol    string         `toml:"NativeSymbol"`
	Tokens          []string       `toml:"Tokens"`
	Environment     string         `toml:"Environment"`
	LogFile         string         `toml:"LogFile"`
	GenesisAlloc    []GenesisAlloc `toml:"GenesisAlloc,omitempty"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.ChainName) == "" {
		cfg.ChainName = "swaplock-local"
	}
	if strings.TrimSpace(cfg.NativeSymbol) == "" {
		cfg.NativeSymbol = "SWP"
	}
	if cfg.HashRounds == 0 {
		cfg.HashRounds = 1
	}
	if cfg.HashRounds != 1 && cfg.HashRounds != 2 {
		return nil, fmt.Errorf("config file %s: HashRounds must be 1 or 2, got %d", path, cfg.HashRounds)
	}
	if cfg.Tokens == nil {
		cfg.Tokens = []string{}
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:   ":8080",
		DataDir:      "./swaplock-data",
		ChainName:    "swaplock-local",
		HashRounds:   1,
		NativeSymbol: "SWP",
		Tokens:       []string{},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
