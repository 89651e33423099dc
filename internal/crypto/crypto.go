// Package crypto holds the hashing, random-token, and authenticated
// encryption primitives the registry, vault, and proof services build on.
// Everything here is deterministic-hash or AEAD based; nothing in this
// package is a zero-knowledge construction.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// DefaultIDBytes yields 128 bits of entropy, enough to make identifier
// collisions negligible across the token space.
const DefaultIDBytes = 16

// Hash returns the hex SHA-256 digest of the segments fed in order, matching
// incremental-update semantics: Hash(a, b) == Hash(ab). Commitments and proof
// hashes rely on this segment concatenation.
func Hash(segments ...[]byte) string {
	h := sha256.New()
	for _, seg := range segments {
		h.Write(seg)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashStrings is Hash over string segments.
func HashStrings(segments ...string) string {
	h := sha256.New()
	for _, seg := range segments {
		h.Write([]byte(seg))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RandomID returns n cryptographically random bytes hex-encoded. Used for
// identity identifiers and the secret material bound into commitments.
func RandomID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
