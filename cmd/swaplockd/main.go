package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"swaplock/config"
	"swaplock/core"
	"swaplock/crypto"
	"swaplock/observability/logging"
	"swaplock/rpc"
	"swaplock/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SWAPLOCK_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("swaplockd", env, cfg.LogFile)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	contract, err := resolveContract(cfg.ContractAddress)
	if err != nil {
		logger.Error("Failed to resolve contract address", slog.Any("error", err))
		os.Exit(1)
	}

	node, err := core.NewNode(db, core.NodeConfig{
		ChainName:    cfg.ChainName,
		Contract:     contract,
		HashRounds:   cfg.HashRounds,
		NativeSymbol: cfg.NativeSymbol,
		Tokens:       cfg.Tokens,
	})
	if err != nil {
		logger.Error("Failed to initialise node", slog.Any("error", err))
		os.Exit(1)
	}

	if err := applyGenesisAlloc(node, cfg); err != nil {
		logger.Error("Failed to apply genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("node ready",
		slog.String("chain", cfg.ChainName),
		slog.String("scheme", node.Engine().Scheme().String()),
		slog.String("native", cfg.NativeSymbol),
	)

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func resolveContract(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return out, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid ContractAddress: %w", err)
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// applyGenesisAlloc mints the configured allocations exactly once: a marker
// key in the ledger records that the genesis funding already ran.
func applyGenesisAlloc(node *core.Node, cfg *config.Config) error {
	if len(cfg.GenesisAlloc) == 0 {
		return nil
	}
	marker := []byte("genesis/applied")
	applied, err := node.GenesisApplied(marker)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range cfg.GenesisAlloc {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(alloc.Address))
		if err != nil {
			return fmt.Errorf("genesis allocation %q: %w", alloc.Address, err)
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(alloc.Amount), 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("genesis allocation %q: invalid amount %q", alloc.Address, alloc.Amount)
		}
		asset := strings.TrimSpace(alloc.Asset)
		if asset == "" {
			asset = cfg.NativeSymbol
		}
		var target [20]byte
		copy(target[:], addr.Bytes())
		if err := node.State().Mint(asset, target, amount); err != nil {
			return fmt.Errorf("genesis allocation %q: %w", alloc.Address, err)
		}
	}
	return node.MarkGenesisApplied(marker)
}
