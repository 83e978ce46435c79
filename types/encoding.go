package types

import (
	"encoding/binary"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
)

// encoder builds the canonical, fixed-field-order, big-endian,
// length-prefixed byte encoding that every hash in this module is
// computed over.
type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{}
}

func (e *encoder) bytes() []byte {
	return e.buf
}

func (e *encoder) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) fixed(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) lengthPrefixed(b []byte) {
	e.uint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) hash(h hash.Hash) {
	e.fixed(h[:])
}

func (e *encoder) address(a signing.Address) {
	e.fixed(a[:])
}

func (e *encoder) signature(s signing.Signature) {
	e.fixed(s[:])
}
