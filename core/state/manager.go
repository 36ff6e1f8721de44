package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"swaplock/core/types"
	"swaplock/native/htlc"
	"swaplock/storage"
)

// DefaultNativeSymbol is the asset symbol routed to the native balance ledger
// when no override is configured.
const DefaultNativeSymbol = "SWP"

// ValueAdapter moves value for one asset symbol. The escrow layer is agnostic
// to where balances live; native coin and token backends both satisfy this.
type ValueAdapter interface {
	Credit(addr [20]byte, amount *big.Int) error
	Debit(addr [20]byte, amount *big.Int) error
	Balance(addr [20]byte) (*big.Int, error)
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

// Manager is the ledger facade over the key-value store. It owns account
// records, per-token balance tables and the escrow record tables, and hands
// out per-id exclusive locks so multi-step escrow transitions serialize.
type Manager struct {
	db           storage.Database
	nativeSymbol string

	adaptersMu sync.RWMutex
	adapters   map[string]ValueAdapter

	locksMu sync.Mutex
	locks   map[[32]byte]*recordLock
}

// NewManager creates a ledger manager over db. nativeSymbol may be empty, in
// which case DefaultNativeSymbol is used.
func NewManager(db storage.Database, nativeSymbol string) *Manager {
	if nativeSymbol == "" {
		nativeSymbol = DefaultNativeSymbol
	}
	m := &Manager{
		db:           db,
		nativeSymbol: nativeSymbol,
		adapters:     make(map[string]ValueAdapter),
		locks:        make(map[[32]byte]*recordLock),
	}
	m.adapters[nativeSymbol] = &nativeAdapter{m: m}
	return m
}

// NativeSymbol returns the symbol routed to the native balance ledger.
func (m *Manager) NativeSymbol() string { return m.nativeSymbol }

// RegisterToken enables escrow of a token symbol backed by the manager's
// token balance table.
func (m *Manager) RegisterToken(symbol string) error {
	if symbol == "" || symbol == m.nativeSymbol {
		return fmt.Errorf("state: invalid token symbol %q", symbol)
	}
	m.adaptersMu.Lock()
	defer m.adaptersMu.Unlock()
	if _, exists := m.adapters[symbol]; exists {
		return fmt.Errorf("state: token %q already registered", symbol)
	}
	m.adapters[symbol] = &tokenAdapter{m: m, symbol: symbol}
	return nil
}

// RegisterAdapter installs a custom value backend for a symbol, replacing any
// existing registration.
func (m *Manager) RegisterAdapter(symbol string, adapter ValueAdapter) {
	m.adaptersMu.Lock()
	defer m.adaptersMu.Unlock()
	m.adapters[symbol] = adapter
}

func (m *Manager) adapter(symbol string) (ValueAdapter, error) {
	m.adaptersMu.RLock()
	defer m.adaptersMu.RUnlock()
	adapter, ok := m.adapters[symbol]
	if !ok {
		return nil, htlc.ErrInvalidAsset
	}
	return adapter, nil
}

// LockID acquires the exclusive lock for an escrow id. The returned function
// releases it; lock entries are reclaimed once the last holder departs.
func (m *Manager) LockID(id [32]byte) func() {
	m.locksMu.Lock()
	l := m.locks[id]
	if l == nil {
		l = &recordLock{}
		m.locks[id] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.locksMu.Unlock()
	}
}

// --- Account records ---

func accountKey(addr [20]byte) []byte {
	return gethcrypto.Keccak256(append([]byte("accounts/"), addr[:]...))
}

// GetAccount loads the account record for addr, returning a zero-balance
// account when none is stored yet.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	raw, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	var account types.Account
	if err := rlp.DecodeBytes(raw, &account); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return &account, nil
}

// PutAccount persists the account record for addr. A record with zero balance
// and zero nonce is deleted instead, keeping custody accounts transient.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	if account.Nonce == 0 && (account.Balance == nil || account.Balance.Sign() == 0) {
		return m.db.Delete(accountKey(addr))
	}
	raw, err := rlp.EncodeToBytes(account)
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountKey(addr), raw)
}

// Balance reports the balance addr holds in the given asset.
func (m *Manager) Balance(symbol string, addr [20]byte) (*big.Int, error) {
	adapter, err := m.adapter(symbol)
	if err != nil {
		return nil, err
	}
	return adapter.Balance(addr)
}

// Mint credits freshly issued value to addr. Used by genesis loading and by
// tests to fund participants.
func (m *Manager) Mint(symbol string, addr [20]byte, amount *big.Int) error {
	adapter, err := m.adapter(symbol)
	if err != nil {
		return err
	}
	return adapter.Credit(addr, amount)
}

// --- Native balance adapter ---

type nativeAdapter struct {
	m *Manager
}

func (a *nativeAdapter) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: credit amount must be non-negative")
	}
	account, err := a.m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return a.m.PutAccount(addr, account)
}

func (a *nativeAdapter) Debit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: debit amount must be non-negative")
	}
	account, err := a.m.GetAccount(addr)
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return htlc.ErrInsufficientFunds
	}
	account.Balance = new(big.Int).Sub(account.Balance, amount)
	return a.m.PutAccount(addr, account)
}

func (a *nativeAdapter) Balance(addr [20]byte) (*big.Int, error) {
	account, err := a.m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Balance), nil
}

// --- Token balance adapter ---

type tokenAdapter struct {
	m      *Manager
	symbol string
}

func tokenKey(symbol string, addr [20]byte) []byte {
	key := make([]byte, 0, len("tokens/")+len(symbol)+1+len(addr))
	key = append(key, []byte("tokens/")...)
	key = append(key, symbol...)
	key = append(key, '/')
	key = append(key, addr[:]...)
	return gethcrypto.Keccak256(key)
}

func (a *tokenAdapter) load(addr [20]byte) (*big.Int, error) {
	raw, err := a.m.db.Get(tokenKey(a.symbol, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (a *tokenAdapter) store(addr [20]byte, balance *big.Int) error {
	if balance.Sign() == 0 {
		return a.m.db.Delete(tokenKey(a.symbol, addr))
	}
	return a.m.db.Put(tokenKey(a.symbol, addr), balance.Bytes())
}

func (a *tokenAdapter) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: credit amount must be non-negative")
	}
	balance, err := a.load(addr)
	if err != nil {
		return err
	}
	return a.store(addr, balance.Add(balance, amount))
}

func (a *tokenAdapter) Debit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("state: debit amount must be non-negative")
	}
	balance, err := a.load(addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return htlc.ErrInsufficientFunds
	}
	return a.store(addr, balance.Sub(balance, amount))
}

func (a *tokenAdapter) Balance(addr [20]byte) (*big.Int, error) {
	return a.load(addr)
}
