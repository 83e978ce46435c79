package boltdb

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
)

// The on-disk encoding here is a standalone, storage-only format: it
// is never hashed or signed (unlike types' canonical encoding used for
// Block.Hash/Attestation.SigningRoot), so it is free to carry simple
// length-prefixed variable sections without affecting consensus
// semantics.

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) hash() (hash.Hash, error) {
	if len(r.b)-r.pos < 32 {
		return hash.Hash{}, errors.New("boltdb: short hash")
	}
	h := hash.FromBytes(r.b[r.pos : r.pos+32])
	r.pos += 32
	return h, nil
}

func (r *byteReader) address() (signing.Address, error) {
	if len(r.b)-r.pos < signing.AddressSize {
		return signing.Address{}, errors.New("boltdb: short address")
	}
	var a signing.Address
	copy(a[:], r.b[r.pos:r.pos+signing.AddressSize])
	r.pos += signing.AddressSize
	return a, nil
}

func (r *byteReader) pubkey() (signing.PublicKey, error) {
	if len(r.b)-r.pos < signing.PublicKeySize {
		return signing.PublicKey{}, errors.New("boltdb: short pubkey")
	}
	var pk signing.PublicKey
	copy(pk[:], r.b[r.pos:r.pos+signing.PublicKeySize])
	r.pos += signing.PublicKeySize
	return pk, nil
}

func (r *byteReader) signature() (signing.Signature, error) {
	if len(r.b)-r.pos < signing.SignatureSize {
		return signing.Signature{}, errors.New("boltdb: short signature")
	}
	var sig signing.Signature
	copy(sig[:], r.b[r.pos:r.pos+signing.SignatureSize])
	r.pos += signing.SignatureSize
	return sig, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if len(r.b)-r.pos < 8 {
		return 0, errors.New("boltdb: short uint64")
	}
	v := binary.BigEndian.Uint64(r.b[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *byteReader) uint32() (uint32, error) {
	if len(r.b)-r.pos < 4 {
		return 0, errors.New("boltdb: short uint32")
	}
	v := binary.BigEndian.Uint32(r.b[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if len(r.b)-r.pos < int(n) {
		return nil, errors.New("boltdb: short byte section")
	}
	out := r.b[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

type byteWriter struct {
	buf []byte
}

func (w *byteWriter) hash(h hash.Hash)             { w.buf = append(w.buf, h.Bytes()...) }
func (w *byteWriter) address(a signing.Address)    { w.buf = append(w.buf, a[:]...) }
func (w *byteWriter) pubkey(pk signing.PublicKey)  { w.buf = append(w.buf, pk[:]...) }
func (w *byteWriter) signature(s signing.Signature) { w.buf = append(w.buf, s[:]...) }

func (w *byteWriter) uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *byteWriter) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func encodeCheckpoint(c types.Checkpoint) []byte {
	w := &byteWriter{}
	w.uint64(uint64(c.Epoch))
	w.hash(c.Root)
	return w.buf
}

func decodeCheckpoint(b []byte) (types.Checkpoint, error) {
	r := &byteReader{b: b}
	epoch, err := r.uint64()
	if err != nil {
		return types.Checkpoint{}, err
	}
	root, err := r.hash()
	if err != nil {
		return types.Checkpoint{}, err
	}
	return types.Checkpoint{Epoch: primitives.Epoch(epoch), Root: root}, nil
}

func encodeTransaction(w *byteWriter, tx types.Transaction) {
	w.address(tx.From)
	w.address(tx.To)
	w.uint64(tx.Amount)
	w.uint64(tx.Nonce)
	w.uint64(tx.GasLimit)
	w.uint64(tx.GasPrice)
	w.signature(tx.Signature)
}

func decodeTransaction(r *byteReader) (types.Transaction, error) {
	var tx types.Transaction
	var err error
	if tx.From, err = r.address(); err != nil {
		return tx, err
	}
	if tx.To, err = r.address(); err != nil {
		return tx, err
	}
	if tx.Amount, err = r.uint64(); err != nil {
		return tx, err
	}
	if tx.Nonce, err = r.uint64(); err != nil {
		return tx, err
	}
	if tx.GasLimit, err = r.uint64(); err != nil {
		return tx, err
	}
	if tx.GasPrice, err = r.uint64(); err != nil {
		return tx, err
	}
	if tx.Signature, err = r.signature(); err != nil {
		return tx, err
	}
	return tx, nil
}

func encodeAttestation(w *byteWriter, a types.Attestation) {
	w.uint64(uint64(a.Slot))
	w.uint64(a.CommitteeIndex)
	w.uint64(a.ValidatorIndex)
	w.hash(a.BeaconBlockRoot)
	w.uint64(uint64(a.Source.Epoch))
	w.hash(a.Source.Root)
	w.uint64(uint64(a.Target.Epoch))
	w.hash(a.Target.Root)
	w.signature(a.Signature)
}

func decodeAttestation(r *byteReader) (types.Attestation, error) {
	var a types.Attestation
	var err error
	var v uint64
	if v, err = r.uint64(); err != nil {
		return a, err
	}
	a.Slot = primitives.Slot(v)
	if a.CommitteeIndex, err = r.uint64(); err != nil {
		return a, err
	}
	if a.ValidatorIndex, err = r.uint64(); err != nil {
		return a, err
	}
	if a.BeaconBlockRoot, err = r.hash(); err != nil {
		return a, err
	}
	if v, err = r.uint64(); err != nil {
		return a, err
	}
	a.Source.Epoch = primitives.Epoch(v)
	if a.Source.Root, err = r.hash(); err != nil {
		return a, err
	}
	if v, err = r.uint64(); err != nil {
		return a, err
	}
	a.Target.Epoch = primitives.Epoch(v)
	if a.Target.Root, err = r.hash(); err != nil {
		return a, err
	}
	if a.Signature, err = r.signature(); err != nil {
		return a, err
	}
	return a, nil
}

func encodeAttestations(atts []types.Attestation) []byte {
	w := &byteWriter{}
	w.uint32(uint32(len(atts)))
	for _, a := range atts {
		encodeAttestation(w, a)
	}
	return w.buf
}

func decodeAttestations(b []byte) ([]types.Attestation, error) {
	r := &byteReader{b: b}
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	out := make([]types.Attestation, n)
	for i := range out {
		a, err := decodeAttestation(r)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func encodeBlock(block *types.Block) ([]byte, error) {
	w := &byteWriter{}
	h := block.Header
	w.uint64(h.Height)
	w.hash(h.PreviousHash)
	w.hash(h.MerkleRoot)
	w.hash(h.StateRoot)
	w.uint64(uint64(h.Timestamp))
	w.uint64(uint64(h.Slot))
	w.uint64(uint64(h.Epoch))
	w.address(h.Proposer)
	w.uint64(h.GasLimit)
	w.uint64(h.GasUsed)
	w.signature(h.ProposerSignature)

	w.uint32(uint32(len(block.Transactions)))
	for _, tx := range block.Transactions {
		encodeTransaction(w, tx)
	}
	w.uint32(uint32(len(block.Attestations)))
	for _, a := range block.Attestations {
		encodeAttestation(w, a)
	}
	return w.buf, nil
}

func decodeBlock(b []byte) (*types.Block, error) {
	r := &byteReader{b: b}
	var h types.Header
	var err error
	if h.Height, err = r.uint64(); err != nil {
		return nil, err
	}
	if h.PreviousHash, err = r.hash(); err != nil {
		return nil, err
	}
	if h.MerkleRoot, err = r.hash(); err != nil {
		return nil, err
	}
	if h.StateRoot, err = r.hash(); err != nil {
		return nil, err
	}
	var v uint64
	if v, err = r.uint64(); err != nil {
		return nil, err
	}
	h.Timestamp = int64(v)
	if v, err = r.uint64(); err != nil {
		return nil, err
	}
	h.Slot = primitives.Slot(v)
	if v, err = r.uint64(); err != nil {
		return nil, err
	}
	h.Epoch = primitives.Epoch(v)
	if h.Proposer, err = r.address(); err != nil {
		return nil, err
	}
	if h.GasLimit, err = r.uint64(); err != nil {
		return nil, err
	}
	if h.GasUsed, err = r.uint64(); err != nil {
		return nil, err
	}
	if h.ProposerSignature, err = r.signature(); err != nil {
		return nil, err
	}

	txCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	txs := make([]types.Transaction, txCount)
	for i := range txs {
		if txs[i], err = decodeTransaction(r); err != nil {
			return nil, err
		}
	}

	attCount, err := r.uint32()
	if err != nil {
		return nil, err
	}
	atts := make([]types.Attestation, attCount)
	for i := range atts {
		if atts[i], err = decodeAttestation(r); err != nil {
			return nil, err
		}
	}

	return &types.Block{Header: h, Transactions: txs, Attestations: atts}, nil
}
