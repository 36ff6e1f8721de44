package htlc

import (
	"bytes"
	"errors"
	"math/big"
	"time"

	"swaplock/core/events"
)

var (
	errNilState = errors.New("htlc engine: state not configured")
)

// CustodyKind selects which record table's custody namespace an escrow id
// refers to. Commit and lock ids live in independent namespaces, so the same
// 32-byte id may hold custody in both at once; the kind keeps the two
// accounts apart.
type CustodyKind uint8

const (
	CustodyCommit CustodyKind = iota
	CustodyLock
)

// engineState is the ledger surface the engine drives. Implementations must
// provide atomic per-call semantics for each method and per-record exclusive
// access through LockID so that racing terminal transitions serialize.
type engineState interface {
	// LockID acquires the exclusive lock for an escrow id and returns the
	// release function.
	LockID(id [32]byte) func()

	PreCommitPut(*PreCommitEscrow) error
	PreCommitGet(id [32]byte) (*PreCommitEscrow, bool)
	LockPut(*LockedEscrow) error
	LockGet(id [32]byte) (*LockedEscrow, bool)
	LockDelete(id [32]byte) error
	CommitToLockPut(commitID, lockID [32]byte) error
	CommitToLockGet(commitID [32]byte) ([32]byte, bool)

	// CustodyDeposit moves amount from the payer into the custody account
	// derived from kind and id. CustodyWithdraw drains custody toward a
	// recipient and reclaims the account once its balance reaches zero.
	// CustodyMove transfers custody between two escrow accounts in one step.
	CustodyDeposit(kind CustodyKind, id [32]byte, asset string, from [20]byte, amount *big.Int) error
	CustodyWithdraw(kind CustodyKind, id [32]byte, asset string, to [20]byte, amount *big.Int) error
	CustodyMove(fromKind CustodyKind, fromID [32]byte, toKind CustodyKind, toID [32]byte, asset string, amount *big.Int) error
	CustodyBalance(kind CustodyKind, id [32]byte, asset string) (*big.Int, error)
}

// Engine wires the escrow state machines with the ledger, the clock and the
// event emitter. A single engine instance serves one deployment: the hash
// scheme, source chain name and contract address are fixed at construction.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	scheme   HashScheme
	srcChain string
	contract [20]byte
	nowFn    func() int64
}

// NewEngine creates an engine with a no-op emitter. Callers can override the
// emitter via SetEmitter.
func NewEngine(scheme HashScheme, srcChain string, contract [20]byte) *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		scheme:   scheme,
		srcChain: srcChain,
		contract: contract,
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the ledger backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Scheme returns the hash scheme this deployment verifies secrets with.
func (e *Engine) Scheme() HashScheme { return e.scheme }

// SrcChain returns the chain identifier baked into derived ids.
func (e *Engine) SrcChain() string { return e.srcChain }

// Contract returns the escrow contract address baked into derived ids.
func (e *Engine) Contract() [20]byte { return e.contract }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// reclaimCustody sweeps whatever balance is left in an escrow's custody
// account back to the sender once the record reached a terminal state.
// Residue appears when custody was credited outside the escrow flow; the
// sweep is best effort and leaves funds in custody if the ledger rejects it.
func (e *Engine) reclaimCustody(kind CustodyKind, id [32]byte, asset string, sender [20]byte) {
	residue, err := e.state.CustodyBalance(kind, id, asset)
	if err != nil || residue == nil || residue.Sign() <= 0 {
		return
	}
	_ = e.state.CustodyWithdraw(kind, id, asset, sender, residue)
}

// lockPair acquires the exclusive locks for two distinct ids in a
// deterministic order so concurrent lockCommit calls cannot deadlock.
func (e *Engine) lockPair(a, b [32]byte) func() {
	if a == b {
		return e.state.LockID(a)
	}
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	unlockA := e.state.LockID(a)
	unlockB := e.state.LockID(b)
	return func() {
		unlockB()
		unlockA()
	}
}

// CommitParams bundles the caller-supplied inputs to Commit.
type CommitParams struct {
	ID        [32]byte
	Receiver  [20]byte
	Messenger [20]byte
	Asset     string
	Route     Route
	Amount    *big.Int
	Timelock  int64
}

// Commit deposits funds under a new PreCommitEscrow. The messenger may be the
// zero address, leaving the sender as the only principal able to convert the
// commit into a lock.
func (e *Engine) Commit(sender [20]byte, params CommitParams) (*PreCommitEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.state.LockID(params.ID)
	defer unlock()

	now := e.now()
	if params.Timelock <= now {
		return nil, ErrNotFutureTimelock
	}
	amount := cloneBigInt(params.Amount)
	if amount.Sign() <= 0 {
		return nil, ErrFundsNotSent
	}
	if _, exists := e.state.PreCommitGet(params.ID); exists {
		return nil, ErrIDInUse
	}
	if err := e.state.CustodyDeposit(CustodyCommit, params.ID, params.Asset, sender, amount); err != nil {
		return nil, err
	}
	record := &PreCommitEscrow{
		ID:        params.ID,
		Sender:    sender,
		Receiver:  params.Receiver,
		Messenger: params.Messenger,
		Asset:     params.Asset,
		Route:     params.Route.Clone(),
		Amount:    amount,
		Timelock:  params.Timelock,
		CreatedAt: now,
	}
	if err := e.state.PreCommitPut(record); err != nil {
		_ = e.state.CustodyWithdraw(CustodyCommit, params.ID, params.Asset, sender, amount)
		return nil, err
	}
	e.emit(Committed{
		ID:        record.ID,
		Sender:    record.Sender,
		Receiver:  record.Receiver,
		Messenger: record.Messenger,
		Asset:     record.Asset,
		Route:     record.Route,
		Amount:    record.Amount,
		Timelock:  record.Timelock,
	})
	return record.Clone(), nil
}

// LockParams bundles the caller-supplied inputs to Lock.
type LockParams struct {
	ID       [32]byte
	Receiver [20]byte
	Asset    string
	Route    Route
	Hashlock [32]byte
	Amount   *big.Int
	Timelock int64
}

// Lock deposits funds under a new LockedEscrow secured by the supplied
// hashlock.
func (e *Engine) Lock(sender [20]byte, params LockParams) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.state.LockID(params.ID)
	defer unlock()

	now := e.now()
	if params.Timelock <= now {
		return nil, ErrNotFutureTimelock
	}
	amount := cloneBigInt(params.Amount)
	if amount.Sign() <= 0 {
		return nil, ErrFundsNotSent
	}
	if params.Hashlock == ([32]byte{}) {
		return nil, ErrHashlockNotSet
	}
	if _, exists := e.state.LockGet(params.ID); exists {
		return nil, ErrIDInUse
	}
	if err := e.state.CustodyDeposit(CustodyLock, params.ID, params.Asset, sender, amount); err != nil {
		return nil, err
	}
	record := &LockedEscrow{
		ID:        params.ID,
		Sender:    sender,
		Receiver:  params.Receiver,
		Asset:     params.Asset,
		Route:     params.Route.Clone(),
		Hashlock:  params.Hashlock,
		Amount:    amount,
		Timelock:  params.Timelock,
		CreatedAt: now,
	}
	if err := e.state.LockPut(record); err != nil {
		_ = e.state.CustodyWithdraw(CustodyLock, params.ID, params.Asset, sender, amount)
		return nil, err
	}
	e.emit(Locked{
		ID:       record.ID,
		Sender:   record.Sender,
		Receiver: record.Receiver,
		Asset:    record.Asset,
		Route:    record.Route,
		Hashlock: record.Hashlock,
		Amount:   record.Amount,
		Timelock: record.Timelock,
	})
	return record.Clone(), nil
}

// LockCommit converts a PreCommitEscrow into a LockedEscrow under a new id,
// moving custody in the same operation. Only the original sender or the
// designated messenger may supply the hashlock.
func (e *Engine) LockCommit(caller [20]byte, commitID, lockID [32]byte, hashlock [32]byte) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.lockPair(commitID, lockID)
	defer unlock()

	commit, ok := e.state.PreCommitGet(commitID)
	if !ok {
		return nil, ErrNotFound
	}
	if commit.Uncommitted {
		return nil, ErrAlreadyUncommitted
	}
	if commit.Locked {
		return nil, ErrAlreadyLocked
	}
	if caller != commit.Sender && (commit.Messenger == ([20]byte{}) || caller != commit.Messenger) {
		return nil, ErrUnauthorizedAccess
	}
	return e.convertCommit(commit, lockID, hashlock, commit.Timelock)
}

// AddLock is the sender-only conversion variant: the sender supplies the
// hashlock (and a fresh timelock) for their own commit once the off-chain
// negotiation produced one. A commit that was already converted reports
// ErrHashlockAlreadySet.
func (e *Engine) AddLock(caller [20]byte, commitID, lockID [32]byte, hashlock [32]byte, timelock int64) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.lockPair(commitID, lockID)
	defer unlock()

	commit, ok := e.state.PreCommitGet(commitID)
	if !ok {
		return nil, ErrNotFound
	}
	if commit.Uncommitted {
		return nil, ErrAlreadyUncommitted
	}
	if commit.Locked {
		return nil, ErrHashlockAlreadySet
	}
	if caller != commit.Sender {
		return nil, ErrNotSender
	}
	if timelock <= e.now() {
		return nil, ErrNotFutureTimelock
	}
	return e.convertCommit(commit, lockID, hashlock, timelock)
}

// convertCommit performs the shared commit-to-lock transition. Callers hold
// the locks for both ids and have already verified authorization and the
// commit's non-terminal state.
func (e *Engine) convertCommit(commit *PreCommitEscrow, lockID [32]byte, hashlock [32]byte, timelock int64) (*LockedEscrow, error) {
	if hashlock == ([32]byte{}) {
		return nil, ErrHashlockNotSet
	}
	if _, exists := e.state.LockGet(lockID); exists {
		return nil, ErrIDInUse
	}
	amount := cloneBigInt(commit.Amount)
	if err := e.state.CustodyMove(CustodyCommit, commit.ID, CustodyLock, lockID, commit.Asset, amount); err != nil {
		return nil, err
	}
	record := &LockedEscrow{
		ID:        lockID,
		Sender:    commit.Sender,
		Receiver:  commit.Receiver,
		Asset:     commit.Asset,
		Route:     commit.Route.Clone(),
		Hashlock:  hashlock,
		Amount:    amount,
		Timelock:  timelock,
		CreatedAt: e.now(),
	}
	if err := e.state.LockPut(record); err != nil {
		_ = e.state.CustodyMove(CustodyLock, lockID, CustodyCommit, commit.ID, commit.Asset, amount)
		return nil, err
	}
	updated := commit.Clone()
	updated.Locked = true
	if err := e.state.PreCommitPut(updated); err != nil {
		_ = e.state.LockDelete(lockID)
		_ = e.state.CustodyMove(CustodyLock, lockID, CustodyCommit, commit.ID, commit.Asset, amount)
		return nil, err
	}
	if err := e.state.CommitToLockPut(commit.ID, lockID); err != nil {
		reverted := commit.Clone()
		reverted.Locked = false
		_ = e.state.PreCommitPut(reverted)
		_ = e.state.LockDelete(lockID)
		_ = e.state.CustodyMove(CustodyLock, lockID, CustodyCommit, commit.ID, commit.Asset, amount)
		return nil, err
	}
	e.emit(Locked{
		ID:       record.ID,
		CommitID: commit.ID,
		Sender:   record.Sender,
		Receiver: record.Receiver,
		Asset:    record.Asset,
		Route:    record.Route,
		Hashlock: record.Hashlock,
		Amount:   record.Amount,
		Timelock: record.Timelock,
	})
	return record.Clone(), nil
}

// Redeem settles a LockedEscrow in favour of the recorded receiver when the
// supplied secret hashes to the stored hashlock. Any principal may invoke it;
// the payout destination is fixed by the record.
func (e *Engine) Redeem(caller [20]byte, lockID [32]byte, secret []byte) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.state.LockID(lockID)
	defer unlock()

	record, ok := e.state.LockGet(lockID)
	if !ok {
		return nil, ErrNotFound
	}
	if record.Redeemed {
		return nil, ErrAlreadyRedeemed
	}
	if record.Unlocked {
		return nil, ErrAlreadyUnlocked
	}
	if record.Hashlock == ([32]byte{}) {
		return nil, ErrHashlockNotSet
	}
	if !VerifySecret(e.scheme, secret, record.Hashlock) {
		return nil, ErrHashlockNoMatch
	}
	amount := cloneBigInt(record.Amount)
	if err := e.state.CustodyWithdraw(CustodyLock, lockID, record.Asset, record.Receiver, amount); err != nil {
		return nil, err
	}
	updated := record.Clone()
	updated.Redeemed = true
	updated.Secret = append([]byte(nil), secret...)
	if err := e.state.LockPut(updated); err != nil {
		_ = e.state.CustodyDeposit(CustodyLock, lockID, record.Asset, record.Receiver, amount)
		return nil, err
	}
	e.reclaimCustody(CustodyLock, lockID, record.Asset, record.Sender)
	e.emit(Redeemed{
		ID:       updated.ID,
		Caller:   caller,
		Receiver: updated.Receiver,
		Asset:    updated.Asset,
		Secret:   updated.Secret,
		Amount:   updated.Amount,
	})
	return updated.Clone(), nil
}

// Uncommit refunds an unconverted PreCommitEscrow to its sender after the
// timelock expired.
func (e *Engine) Uncommit(caller [20]byte, commitID [32]byte) (*PreCommitEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.state.LockID(commitID)
	defer unlock()

	record, ok := e.state.PreCommitGet(commitID)
	if !ok {
		return nil, ErrNotFound
	}
	if caller != record.Sender {
		return nil, ErrNotSender
	}
	if record.Locked {
		return nil, ErrAlreadyLocked
	}
	if record.Uncommitted {
		return nil, ErrAlreadyUncommitted
	}
	if e.now() < record.Timelock {
		return nil, ErrNotPastTimelock
	}
	amount := cloneBigInt(record.Amount)
	if err := e.state.CustodyWithdraw(CustodyCommit, commitID, record.Asset, record.Sender, amount); err != nil {
		return nil, err
	}
	updated := record.Clone()
	updated.Uncommitted = true
	if err := e.state.PreCommitPut(updated); err != nil {
		_ = e.state.CustodyDeposit(CustodyCommit, commitID, record.Asset, record.Sender, amount)
		return nil, err
	}
	e.reclaimCustody(CustodyCommit, commitID, record.Asset, record.Sender)
	e.emit(Uncommitted{
		ID:     updated.ID,
		Sender: updated.Sender,
		Asset:  updated.Asset,
		Amount: updated.Amount,
	})
	return updated.Clone(), nil
}

// Unlock refunds an unredeemed LockedEscrow to its sender after the timelock
// expired.
func (e *Engine) Unlock(caller [20]byte, lockID [32]byte) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	unlock := e.state.LockID(lockID)
	defer unlock()

	record, ok := e.state.LockGet(lockID)
	if !ok {
		return nil, ErrNotFound
	}
	if caller != record.Sender {
		return nil, ErrNotSender
	}
	if record.Redeemed {
		return nil, ErrAlreadyRedeemed
	}
	if record.Unlocked {
		return nil, ErrAlreadyUnlocked
	}
	if e.now() < record.Timelock {
		return nil, ErrNotPastTimelock
	}
	amount := cloneBigInt(record.Amount)
	if err := e.state.CustodyWithdraw(CustodyLock, lockID, record.Asset, record.Sender, amount); err != nil {
		return nil, err
	}
	updated := record.Clone()
	updated.Unlocked = true
	if err := e.state.LockPut(updated); err != nil {
		_ = e.state.CustodyDeposit(CustodyLock, lockID, record.Asset, record.Sender, amount)
		return nil, err
	}
	e.reclaimCustody(CustodyLock, lockID, record.Asset, record.Sender)
	e.emit(Unlocked{
		ID:     updated.ID,
		Sender: updated.Sender,
		Asset:  updated.Asset,
		Amount: updated.Amount,
	})
	return updated.Clone(), nil
}

// CommitDetails returns a copy of the PreCommitEscrow stored under id.
func (e *Engine) CommitDetails(id [32]byte) (*PreCommitEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok := e.state.PreCommitGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// LockDetails returns a copy of the LockedEscrow stored under id.
func (e *Engine) LockDetails(id [32]byte) (*LockedEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok := e.state.LockGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// LockIDByCommitID resolves the LockedEscrow id a commit was converted into.
func (e *Engine) LockIDByCommitID(commitID [32]byte) ([32]byte, error) {
	if e == nil || e.state == nil {
		return [32]byte{}, errNilState
	}
	lockID, ok := e.state.CommitToLockGet(commitID)
	if !ok {
		return [32]byte{}, ErrNotFound
	}
	return lockID, nil
}

// DeriveCommitID computes the deployment-scoped commit id for the supplied
// parameters.
func (e *Engine) DeriveCommitID(p IDParams) [32]byte {
	p.SrcChain = e.srcChain
	p.Contract = e.contract
	return DeriveCommitID(p)
}

// DeriveLockID computes the deployment-scoped lock id for the supplied
// parameters.
func (e *Engine) DeriveLockID(p IDParams) [32]byte {
	p.SrcChain = e.srcChain
	p.Contract = e.contract
	return DeriveLockID(p)
}
