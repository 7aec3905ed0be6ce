package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the content-addressable digest used as the translation cache
// key: the first 16 bytes of SHA-256 over the normalised value, hex encoded.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// HashAll maps Hash over a slice, preserving order.
func HashAll(values []string) []string {
	hashes := make([]string, len(values))
	for i, v := range values {
		hashes[i] = Hash(v)
	}
	return hashes
}
