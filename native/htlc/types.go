package htlc

import (
	"math/big"
)

// Route describes the far side of a swap. The engine carries these fields
// through unchanged; they exist so off-chain observers can reconstruct the
// full swap path from events and record queries.
type Route struct {
	DstChain   string
	DstAsset   string
	DstAddress string
	SrcAsset   string
	HopChains  []string
	HopAssets  []string
	HopAddrs   []string
}

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	out := r
	out.HopChains = append([]string(nil), r.HopChains...)
	out.HopAssets = append([]string(nil), r.HopAssets...)
	out.HopAddrs = append([]string(nil), r.HopAddrs...)
	return out
}

// PreCommitEscrow is a PHTLC: a deposit committed to a destination before the
// hashlock is known. It resolves either by conversion into a LockedEscrow
// (locked=true) or by refund after the timelock (uncommitted=true); the two
// flags are mutually exclusive and terminal.
type PreCommitEscrow struct {
	ID          [32]byte
	Sender      [20]byte
	Receiver    [20]byte
	Messenger   [20]byte
	Asset       string
	Route       Route
	Amount      *big.Int
	Timelock    int64
	CreatedAt   int64
	Locked      bool
	Uncommitted bool
}

// Terminal reports whether the record has reached one of its two terminal
// states.
func (p *PreCommitEscrow) Terminal() bool {
	return p != nil && (p.Locked || p.Uncommitted)
}

// Clone returns a deep copy so callers can safely mutate the copy without
// affecting the stored instance.
func (p *PreCommitEscrow) Clone() *PreCommitEscrow {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	clone.Route = p.Route.Clone()
	return &clone
}

// LockedEscrow is an HTLC: a deposit redeemable by revealing the hashlock
// preimage before the timelock, or refundable to the sender afterwards. The
// redeemed/unlocked flags are mutually exclusive and terminal.
type LockedEscrow struct {
	ID        [32]byte
	Sender    [20]byte
	Receiver  [20]byte
	Asset     string
	Route     Route
	Hashlock  [32]byte
	Secret    []byte
	Amount    *big.Int
	Timelock  int64
	CreatedAt int64
	Redeemed  bool
	Unlocked  bool
}

// Terminal reports whether the record has reached one of its two terminal
// states.
func (l *LockedEscrow) Terminal() bool {
	return l != nil && (l.Redeemed || l.Unlocked)
}

// Clone returns a deep copy so callers can safely mutate the copy without
// affecting the stored instance.
func (l *LockedEscrow) Clone() *LockedEscrow {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Amount != nil {
		clone.Amount = new(big.Int).Set(l.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	clone.Secret = append([]byte(nil), l.Secret...)
	clone.Route = l.Route.Clone()
	return &clone
}

// SanitizePreCommit validates invariants that must hold for any stored
// PreCommitEscrow and returns a defensive clone.
func SanitizePreCommit(p *PreCommitEscrow) (*PreCommitEscrow, error) {
	if p == nil {
		return nil, ErrNotFound
	}
	clone := p.Clone()
	if clone.Amount.Sign() <= 0 {
		return nil, ErrFundsNotSent
	}
	if clone.Locked && clone.Uncommitted {
		return nil, ErrInvalidState
	}
	return clone, nil
}

// SanitizeLock validates invariants that must hold for any stored
// LockedEscrow and returns a defensive clone.
func SanitizeLock(l *LockedEscrow) (*LockedEscrow, error) {
	if l == nil {
		return nil, ErrNotFound
	}
	clone := l.Clone()
	if clone.Amount.Sign() <= 0 {
		return nil, ErrFundsNotSent
	}
	if clone.Redeemed && clone.Unlocked {
		return nil, ErrInvalidState
	}
	if clone.Hashlock == ([32]byte{}) {
		return nil, ErrHashlockNotSet
	}
	return clone, nil
}
