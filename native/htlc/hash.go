package htlc

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// HashScheme selects how a candidate secret is hashed before comparison with
// the stored hashlock. Deployments disagree on the round count and the two
// are not interchangeable, so the scheme is fixed per engine instance.
type HashScheme uint8

const (
	// SchemeSHA256 compares SHA256(secret) against the hashlock.
	SchemeSHA256 HashScheme = iota + 1
	// SchemeSHA256d compares SHA256(SHA256(secret)) against the hashlock.
	SchemeSHA256d
)

// Valid reports whether the scheme value is supported.
func (s HashScheme) Valid() bool {
	return s == SchemeSHA256 || s == SchemeSHA256d
}

func (s HashScheme) String() string {
	switch s {
	case SchemeSHA256:
		return "sha256"
	case SchemeSHA256d:
		return "sha256d"
	default:
		return "unknown"
	}
}

// ParseHashScheme maps the per-deployment round count onto a scheme.
func ParseHashScheme(rounds int) (HashScheme, error) {
	switch rounds {
	case 1:
		return SchemeSHA256, nil
	case 2:
		return SchemeSHA256d, nil
	default:
		return 0, fmt.Errorf("htlc: unsupported hash round count %d", rounds)
	}
}

// LockHash computes the hashlock for a secret under the given scheme.
func LockHash(scheme HashScheme, secret []byte) [32]byte {
	digest := sha256.Sum256(secret)
	if scheme == SchemeSHA256d {
		digest = sha256.Sum256(digest[:])
	}
	return digest
}

// VerifySecret reports whether the candidate secret hashes to the stored
// hashlock under the scheme. Comparison is constant time; callers treat a
// false result as ErrHashlockNoMatch.
func VerifySecret(scheme HashScheme, secret []byte, hashlock [32]byte) bool {
	digest := LockHash(scheme, secret)
	return subtle.ConstantTimeCompare(digest[:], hashlock[:]) == 1
}

// GenerateSecret produces a fresh 32-byte secret and its hashlock under the
// given scheme. Used by the initiator side of a swap and by the CLI.
func GenerateSecret(scheme HashScheme) (secret []byte, hashlock [32]byte, err error) {
	secret = make([]byte, 32)
	if _, err = rand.Read(secret); err != nil {
		return nil, [32]byte{}, fmt.Errorf("htlc: generate secret: %w", err)
	}
	return secret, LockHash(scheme, secret), nil
}
