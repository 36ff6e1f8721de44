package core

import (
	"errors"
	"fmt"
	"math/big"

	"swaplock/core/events"
	"swaplock/core/state"
	"swaplock/core/types"
	"swaplock/native/htlc"
	"swaplock/storage"
)

// NodeConfig carries the deployment parameters the escrow engine is fixed to.
type NodeConfig struct {
	ChainName    string
	Contract     [20]byte
	HashRounds   int
	NativeSymbol string
	Tokens       []string
}

// Node owns the ledger, the escrow engine and the event hub for one
// deployment. All RPC handlers operate through it.
type Node struct {
	db     storage.Database
	state  *state.Manager
	engine *htlc.Engine
	hub    *events.Hub
	chain  string
}

// NewNode wires a node over the supplied database.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	scheme, err := htlc.ParseHashScheme(cfg.HashRounds)
	if err != nil {
		return nil, err
	}
	manager := state.NewManager(db, cfg.NativeSymbol)
	for _, symbol := range cfg.Tokens {
		if err := manager.RegisterToken(symbol); err != nil {
			return nil, fmt.Errorf("core: register token: %w", err)
		}
	}
	hub := events.NewHub()
	engine := htlc.NewEngine(scheme, cfg.ChainName, cfg.Contract)
	engine.SetState(manager)
	engine.SetEmitter(hub)
	return &Node{
		db:     db,
		state:  manager,
		engine: engine,
		hub:    hub,
		chain:  cfg.ChainName,
	}, nil
}

// ChainName returns the chain identifier this node serves.
func (n *Node) ChainName() string { return n.chain }

// Engine exposes the escrow engine. RPC handlers and the CLI drive the
// protocol through it.
func (n *Node) Engine() *htlc.Engine { return n.engine }

// State exposes the ledger manager for balance queries and genesis funding.
func (n *Node) State() *state.Manager { return n.state }

// SubscribeEvents registers a buffered subscriber on the event hub and
// returns the channel plus a cancel function.
func (n *Node) SubscribeEvents(buffer int) (<-chan *types.Event, func()) {
	return n.hub.Subscribe(buffer)
}

// GetBalance reports the balance addr holds in the given asset symbol.
func (n *Node) GetBalance(symbol string, addr [20]byte) (*big.Int, error) {
	return n.state.Balance(symbol, addr)
}

// GenesisApplied reports whether the genesis marker key is present.
func (n *Node) GenesisApplied(marker []byte) (bool, error) {
	_, err := n.db.Get(marker)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkGenesisApplied records that genesis funding ran so restarts do not
// mint twice.
func (n *Node) MarkGenesisApplied(marker []byte) error {
	return n.db.Put(marker, []byte{1})
}

// Close releases the underlying database.
func (n *Node) Close() {
	n.db.Close()
}
