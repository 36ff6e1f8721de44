package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "swaplock-local", cfg.ChainName)
	require.Equal(t, 1, cfg.HashRounds)
	require.Equal(t, "SWP", cfg.NativeSymbol)
	require.FileExists(t, path)

	// loading the generated file round-trips
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
RPCAddress = ":9090"
DataDir = "/var/lib/swaplock"
HashRounds = 2
Tokens = ["USDQ", "WBTT"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.RPCAddress)
	require.Equal(t, 2, cfg.HashRounds)
	require.Equal(t, []string{"USDQ", "WBTT"}, cfg.Tokens)
	require.Equal(t, "swaplock-local", cfg.ChainName)
	require.Equal(t, "SWP", cfg.NativeSymbol)
}

func TestLoadRejectsBadHashRounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("HashRounds = 5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestGenesisAllocDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
HashRounds = 1

[[GenesisAlloc]]
Address = "swp1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"
Asset = "SWP"
Amount = "1000000"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.GenesisAlloc, 1)
	require.Equal(t, "1000000", cfg.GenesisAlloc[0].Amount)
}
