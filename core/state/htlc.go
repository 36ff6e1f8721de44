package state

import (
	"errors"
	"fmt"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"swaplock/native/htlc"
)

// Stored record layouts. RLP has no signed integers, so timestamps travel as
// uint64; the exclusive-terminal invariant is revalidated on every load.

type storedRoute struct {
	DstChain   string
	DstAsset   string
	DstAddress string
	SrcAsset   string
	HopChains  []string
	HopAssets  []string
	HopAddrs   []string
}

type storedPreCommit struct {
	ID          [32]byte
	Sender      [20]byte
	Receiver    [20]byte
	Messenger   [20]byte
	Asset       string
	Route       storedRoute
	Amount      *big.Int
	Timelock    uint64
	CreatedAt   uint64
	Locked      bool
	Uncommitted bool
}

type storedLock struct {
	ID        [32]byte
	Sender    [20]byte
	Receiver  [20]byte
	Asset     string
	Route     storedRoute
	Hashlock  [32]byte
	Secret    []byte
	Amount    *big.Int
	Timelock  uint64
	CreatedAt uint64
	Redeemed  bool
	Unlocked  bool
}

func toStoredRoute(r htlc.Route) storedRoute {
	return storedRoute{
		DstChain:   r.DstChain,
		DstAsset:   r.DstAsset,
		DstAddress: r.DstAddress,
		SrcAsset:   r.SrcAsset,
		HopChains:  r.HopChains,
		HopAssets:  r.HopAssets,
		HopAddrs:   r.HopAddrs,
	}
}

func fromStoredRoute(r storedRoute) htlc.Route {
	return htlc.Route{
		DstChain:   r.DstChain,
		DstAsset:   r.DstAsset,
		DstAddress: r.DstAddress,
		SrcAsset:   r.SrcAsset,
		HopChains:  r.HopChains,
		HopAssets:  r.HopAssets,
		HopAddrs:   r.HopAddrs,
	}
}

func commitKey(id [32]byte) []byte {
	return gethcrypto.Keccak256(append([]byte("htlc/commit/"), id[:]...))
}

func lockKey(id [32]byte) []byte {
	return gethcrypto.Keccak256(append([]byte("htlc/lock/"), id[:]...))
}

func commitToLockKey(id [32]byte) []byte {
	return gethcrypto.Keccak256(append([]byte("htlc/commit-to-lock/"), id[:]...))
}

// CustodyAddress derives the ledger address holding escrowed funds for an
// escrow id. Derivation matches contract-style address generation: the last
// twenty bytes of a keccak digest over a domain tag and the id. Commit and
// lock ids live in independent namespaces, so each record kind hashes under
// its own tag and the same id never shares a custody account across kinds.
func CustodyAddress(kind htlc.CustodyKind, id [32]byte) [20]byte {
	tag := "swaplock/custody/commit/"
	if kind == htlc.CustodyLock {
		tag = "swaplock/custody/lock/"
	}
	digest := gethcrypto.Keccak256(append([]byte(tag), id[:]...))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// PreCommitPut persists a PreCommitEscrow record.
func (m *Manager) PreCommitPut(record *htlc.PreCommitEscrow) error {
	sanitized, err := htlc.SanitizePreCommit(record)
	if err != nil {
		return err
	}
	stored := storedPreCommit{
		ID:          sanitized.ID,
		Sender:      sanitized.Sender,
		Receiver:    sanitized.Receiver,
		Messenger:   sanitized.Messenger,
		Asset:       sanitized.Asset,
		Route:       toStoredRoute(sanitized.Route),
		Amount:      sanitized.Amount,
		Timelock:    uint64(sanitized.Timelock),
		CreatedAt:   uint64(sanitized.CreatedAt),
		Locked:      sanitized.Locked,
		Uncommitted: sanitized.Uncommitted,
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode commit record: %w", err)
	}
	return m.db.Put(commitKey(sanitized.ID), raw)
}

// PreCommitGet loads a PreCommitEscrow record.
func (m *Manager) PreCommitGet(id [32]byte) (*htlc.PreCommitEscrow, bool) {
	raw, err := m.db.Get(commitKey(id))
	if err != nil {
		return nil, false
	}
	var stored storedPreCommit
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false
	}
	record := &htlc.PreCommitEscrow{
		ID:          stored.ID,
		Sender:      stored.Sender,
		Receiver:    stored.Receiver,
		Messenger:   stored.Messenger,
		Asset:       stored.Asset,
		Route:       fromStoredRoute(stored.Route),
		Amount:      stored.Amount,
		Timelock:    int64(stored.Timelock),
		CreatedAt:   int64(stored.CreatedAt),
		Locked:      stored.Locked,
		Uncommitted: stored.Uncommitted,
	}
	if _, err := htlc.SanitizePreCommit(record); err != nil {
		return nil, false
	}
	return record, true
}

// LockPut persists a LockedEscrow record.
func (m *Manager) LockPut(record *htlc.LockedEscrow) error {
	sanitized, err := htlc.SanitizeLock(record)
	if err != nil {
		return err
	}
	stored := storedLock{
		ID:        sanitized.ID,
		Sender:    sanitized.Sender,
		Receiver:  sanitized.Receiver,
		Asset:     sanitized.Asset,
		Route:     toStoredRoute(sanitized.Route),
		Hashlock:  sanitized.Hashlock,
		Secret:    sanitized.Secret,
		Amount:    sanitized.Amount,
		Timelock:  uint64(sanitized.Timelock),
		CreatedAt: uint64(sanitized.CreatedAt),
		Redeemed:  sanitized.Redeemed,
		Unlocked:  sanitized.Unlocked,
	}
	raw, err := rlp.EncodeToBytes(&stored)
	if err != nil {
		return fmt.Errorf("state: encode lock record: %w", err)
	}
	return m.db.Put(lockKey(sanitized.ID), raw)
}

// LockGet loads a LockedEscrow record.
func (m *Manager) LockGet(id [32]byte) (*htlc.LockedEscrow, bool) {
	raw, err := m.db.Get(lockKey(id))
	if err != nil {
		return nil, false
	}
	var stored storedLock
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false
	}
	record := &htlc.LockedEscrow{
		ID:        stored.ID,
		Sender:    stored.Sender,
		Receiver:  stored.Receiver,
		Asset:     stored.Asset,
		Route:     fromStoredRoute(stored.Route),
		Hashlock:  stored.Hashlock,
		Secret:    stored.Secret,
		Amount:    stored.Amount,
		Timelock:  int64(stored.Timelock),
		CreatedAt: int64(stored.CreatedAt),
		Redeemed:  stored.Redeemed,
		Unlocked:  stored.Unlocked,
	}
	if _, err := htlc.SanitizeLock(record); err != nil {
		return nil, false
	}
	return record, true
}

// LockDelete removes a LockedEscrow record. Used to undo a partially
// applied commit-to-lock conversion.
func (m *Manager) LockDelete(id [32]byte) error {
	return m.db.Delete(lockKey(id))
}

// CommitToLockPut records the lock id a commit was converted into.
func (m *Manager) CommitToLockPut(commitID, lockID [32]byte) error {
	return m.db.Put(commitToLockKey(commitID), lockID[:])
}

// CommitToLockGet resolves the lock id a commit was converted into.
func (m *Manager) CommitToLockGet(commitID [32]byte) ([32]byte, bool) {
	raw, err := m.db.Get(commitToLockKey(commitID))
	if err != nil || len(raw) != 32 {
		return [32]byte{}, false
	}
	var lockID [32]byte
	copy(lockID[:], raw)
	return lockID, true
}

// CustodyDeposit debits the payer and credits the custody account for id.
func (m *Manager) CustodyDeposit(kind htlc.CustodyKind, id [32]byte, asset string, from [20]byte, amount *big.Int) error {
	adapter, err := m.adapter(asset)
	if err != nil {
		return err
	}
	if err := adapter.Debit(from, amount); err != nil {
		return err
	}
	custody := CustodyAddress(kind, id)
	if err := adapter.Credit(custody, amount); err != nil {
		if rollbackErr := adapter.Credit(from, amount); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}
	return nil
}

// CustodyWithdraw drains the custody account for id toward a recipient. The
// custody record disappears once its balance hits zero.
func (m *Manager) CustodyWithdraw(kind htlc.CustodyKind, id [32]byte, asset string, to [20]byte, amount *big.Int) error {
	adapter, err := m.adapter(asset)
	if err != nil {
		return err
	}
	custody := CustodyAddress(kind, id)
	if err := adapter.Debit(custody, amount); err != nil {
		return err
	}
	if err := adapter.Credit(to, amount); err != nil {
		if rollbackErr := adapter.Credit(custody, amount); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}
	return nil
}

// CustodyMove shifts custody between two escrow accounts in one step.
func (m *Manager) CustodyMove(fromKind htlc.CustodyKind, fromID [32]byte, toKind htlc.CustodyKind, toID [32]byte, asset string, amount *big.Int) error {
	adapter, err := m.adapter(asset)
	if err != nil {
		return err
	}
	from := CustodyAddress(fromKind, fromID)
	to := CustodyAddress(toKind, toID)
	if err := adapter.Debit(from, amount); err != nil {
		return err
	}
	if err := adapter.Credit(to, amount); err != nil {
		if rollbackErr := adapter.Credit(from, amount); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}
	return nil
}

// CustodyBalance reports the balance held in custody for an escrow id.
func (m *Manager) CustodyBalance(kind htlc.CustodyKind, id [32]byte, asset string) (*big.Int, error) {
	return m.Balance(asset, CustodyAddress(kind, id))
}

var _ interface {
	LockID(id [32]byte) func()
	PreCommitPut(*htlc.PreCommitEscrow) error
	PreCommitGet(id [32]byte) (*htlc.PreCommitEscrow, bool)
	LockPut(*htlc.LockedEscrow) error
	LockGet(id [32]byte) (*htlc.LockedEscrow, bool)
	LockDelete(id [32]byte) error
	CommitToLockPut(commitID, lockID [32]byte) error
	CommitToLockGet(commitID [32]byte) ([32]byte, bool)
	CustodyDeposit(kind htlc.CustodyKind, id [32]byte, asset string, from [20]byte, amount *big.Int) error
	CustodyWithdraw(kind htlc.CustodyKind, id [32]byte, asset string, to [20]byte, amount *big.Int) error
	CustodyMove(fromKind htlc.CustodyKind, fromID [32]byte, toKind htlc.CustodyKind, toID [32]byte, asset string, amount *big.Int) error
	CustodyBalance(kind htlc.CustodyKind, id [32]byte, asset string) (*big.Int, error)
} = (*Manager)(nil)
