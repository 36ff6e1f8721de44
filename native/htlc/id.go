package htlc

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// IDParams carries every input to identifier derivation. Two independent
// participants feeding identical parameters obtain identical ids, so both
// sides of a swap can agree on an id without a central allocator.
type IDParams struct {
	SrcChain  string
	Contract  [20]byte
	Sender    [20]byte
	Receiver  [20]byte
	Messenger [20]byte
	Asset     string
	Amount    *big.Int
	Timelock  int64
	Route     Route
	// Salt disambiguates otherwise identical swaps (e.g. repeated commits
	// between the same parties). Callers typically feed a local timestamp
	// or random nonce agreed off-chain.
	Salt uint64
}

// DeriveID computes the canonical escrow identifier: each field is fed into
// SHA-256 in a fixed order, numbers big-endian, and the digest is the id.
// The function is pure; commit and lock ids live in independent namespaces
// via the leading tag.
func DeriveID(tag string, p IDParams) [32]byte {
	h := sha256.New()
	h.Write([]byte(tag))
	writeString(h.Write, p.SrcChain)
	h.Write(p.Contract[:])
	h.Write(p.Sender[:])
	writeAmount(h.Write, p.Amount)
	writeString(h.Write, p.Route.DstChain)
	writeString(h.Write, p.Route.DstAddress)
	writeString(h.Write, p.Route.DstAsset)
	writeString(h.Write, p.Route.SrcAsset)
	writeString(h.Write, p.Asset)
	h.Write(p.Receiver[:])
	writeUint64(h.Write, uint64(p.Timelock))
	h.Write(p.Messenger[:])
	writeUint64(h.Write, p.Salt)
	var id [32]byte
	copy(id[:], h.Sum(nil))
	return id
}

// DeriveCommitID derives the identifier for a new PreCommitEscrow.
func DeriveCommitID(p IDParams) [32]byte {
	return DeriveID("commit", p)
}

// DeriveLockID derives the identifier for a new LockedEscrow.
func DeriveLockID(p IDParams) [32]byte {
	return DeriveID("lock", p)
}

func writeUint64(write func([]byte) (int, error), v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = write(buf[:])
}

// writeString frames a string with its length so adjacent variable-length
// fields cannot alias across differing boundaries.
func writeString(write func([]byte) (int, error), s string) {
	writeUint64(write, uint64(len(s)))
	_, _ = write([]byte(s))
}

// writeAmount feeds the amount as length-prefixed big-endian bytes so that
// adjacent fields cannot alias across differing amount widths.
func writeAmount(write func([]byte) (int, error), v *big.Int) {
	var raw []byte
	if v != nil {
		raw = v.Bytes()
	}
	writeUint64(write, uint64(len(raw)))
	_, _ = write(raw)
}
