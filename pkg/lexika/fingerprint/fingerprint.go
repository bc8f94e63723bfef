package fingerprint

import (
	"crypto/sha1"
	"encoding/binary"
	"hash/fnv"
)

// Token returns a platform-stable 64-bit fingerprint of a token: the first
// eight bytes of its SHA-1 digest, big-endian. It is used for tie-breaking
// and for the deterministic vocabulary shuffle, not for content integrity.
func Token(tok string) uint64 {
	sum := sha1.Sum([]byte(tok))
	return binary.BigEndian.Uint64(sum[:8])
}

// Bucket routes a token to one of n overflow buckets using FNV-1a.
// The same token always lands in the same bucket across runs and reloads.
// Returns 0 when n <= 0.
func Bucket(tok string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(tok))
	return int(h.Sum64() % uint64(n))
}
