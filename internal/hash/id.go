// Package hash computes payload fingerprints.
package hash

import "github.com/cespare/xxhash/v2"

// Digest computes the xxHash64 of a payload.
func Digest(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// DigestString computes the xxHash64 of a string.
func DigestString(s string) uint64 {
	return xxhash.Sum64String(s)
}
