// ABOUTME: Content hashing for integrity checks and change detection
// ABOUTME: Deterministic SHA-256 digests over raw content bytes

package content

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a deterministic hex digest of the content bytes.
// Identical content always yields the identical digest.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashString computes the digest of a string payload
func HashString(content string) string {
	return Hash([]byte(content))
}
