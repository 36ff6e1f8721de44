package htlc

import "errors"

var (
	// ErrNotFound is returned when no escrow record exists under the id.
	ErrNotFound = errors.New("htlc: escrow not found")

	// Validation errors, rejected at creation time.
	ErrNotFutureTimelock = errors.New("htlc: timelock must be in the future")
	ErrFundsNotSent      = errors.New("htlc: amount must be positive")
	ErrIDInUse           = errors.New("htlc: identifier already in use")

	// State errors guarding against re-entering a terminal transition.
	ErrAlreadyRedeemed    = errors.New("htlc: already redeemed")
	ErrAlreadyUnlocked    = errors.New("htlc: already unlocked")
	ErrAlreadyLocked      = errors.New("htlc: already locked")
	ErrAlreadyUncommitted = errors.New("htlc: already uncommitted")

	// ErrNotPastTimelock rejects refund paths invoked before the deadline.
	ErrNotPastTimelock = errors.New("htlc: timelock has not expired")

	// Integrity errors.
	ErrHashlockNoMatch    = errors.New("htlc: secret does not match hashlock")
	ErrHashlockNotSet     = errors.New("htlc: hashlock not set")
	ErrHashlockAlreadySet = errors.New("htlc: hashlock already set")

	// Authorization errors.
	ErrNotSender          = errors.New("htlc: caller is not the sender")
	ErrNotReceiver        = errors.New("htlc: caller is not the receiver")
	ErrUnauthorizedAccess = errors.New("htlc: unauthorized access")

	// ErrInvalidState marks a stored record whose flags violate the
	// exclusive-terminal invariant; it should be unreachable through the
	// engine.
	ErrInvalidState = errors.New("htlc: invalid record state")

	// ErrInvalidAsset is returned when the asset symbol has no configured
	// transfer backend.
	ErrInvalidAsset = errors.New("htlc: unsupported asset")

	// ErrInsufficientFunds is surfaced by the value transfer backend when a
	// depositor cannot cover the escrow amount.
	ErrInsufficientFunds = errors.New("htlc: insufficient funds")
)
