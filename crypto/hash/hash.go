// Package hash provides the single canonical hashing primitive used
// throughout consensus: SHA-256 over a 32-byte digest type.
package hash

import "crypto/sha256"

// Hash represents a 32-byte SHA-256 digest used to identify blocks,
// transactions, and checkpoints.
type Hash [32]byte

// Zero is the all-zero hash, used as a sentinel for "no parent" and
// empty Merkle roots.
var Zero = Hash{}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns a copy of the digest as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, len(h))
	copy(b, h[:])
	return b
}

// String renders the hash as a 0x-prefixed hex string.
func (h Hash) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2+len(h)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range h {
		out[2+i*2] = hextable[b>>4]
		out[2+i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// Less provides the big-endian tie-break ordering used by fork-choice
// head selection: a larger hash, interpreted as a big-endian integer,
// wins ties.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// Sum computes the SHA-256 digest of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// SumMany hashes the concatenation of all given byte slices without
// allocating an intermediate concatenated slice per caller.
func SumMany(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never errors.
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// FromBytes converts a byte slice of exactly 32 bytes to a Hash. It
// panics on length mismatch since callers are expected to validate
// lengths at the deserialization boundary.
func FromBytes(b []byte) Hash {
	if len(b) != 32 {
		panic("hash: input must be 32 bytes")
	}
	var h Hash
	copy(h[:], b)
	return h
}
