package types_test

import (
	"testing"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/stretchr/testify/require"
)

func TestBlockHash_IgnoresProposerSignature(t *testing.T) {
	b := types.Block{Header: types.Header{Height: 1, Slot: 5}}
	h1 := b.Hash()
	b.Header.ProposerSignature[0] = 0xff
	h2 := b.Hash()
	require.Equal(t, h1, h2)
}

func TestBlockHash_ChangesWithContent(t *testing.T) {
	a := types.Block{Header: types.Header{Height: 1}}
	b := types.Block{Header: types.Header{Height: 2}}
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestBlockSigningRoot_EqualsHash(t *testing.T) {
	b := types.Block{Header: types.Header{Height: 7}}
	require.Equal(t, b.Hash(), b.SigningRoot())
}

func TestComputeMerkleRoot_EmptyIsZero(t *testing.T) {
	b := types.Block{}
	require.Equal(t, hash.Zero, b.ComputeMerkleRoot())
}

func TestComputeMerkleRoot_ChangesWithTransactions(t *testing.T) {
	b1 := types.Block{Transactions: []types.Transaction{{Amount: 1}}}
	b2 := types.Block{Transactions: []types.Transaction{{Amount: 2}}}
	require.NotEqual(t, b1.ComputeMerkleRoot(), b2.ComputeMerkleRoot())
}

func TestTransactionCanonicalBytes_SignatureToggle(t *testing.T) {
	tx := types.Transaction{Amount: 10}
	withoutSig := tx.CanonicalBytes(false)
	withSig := tx.CanonicalBytes(true)
	require.Less(t, len(withoutSig), len(withSig))
}

func TestAttestationSigningRoot_Deterministic(t *testing.T) {
	att := types.Attestation{
		Slot:            3,
		CommitteeIndex:  0,
		ValidatorIndex:  1,
		BeaconBlockRoot: hash.Sum([]byte("head")),
		Source:          types.Checkpoint{Epoch: 0, Root: hash.Zero},
		Target:          types.Checkpoint{Epoch: 1, Root: hash.Sum([]byte("target"))},
	}
	require.Equal(t, att.SigningRoot(), att.SigningRoot())

	other := att
	other.ValidatorIndex = 2
	require.NotEqual(t, att.SigningRoot(), other.SigningRoot())
}

func TestAttestation_SameVote(t *testing.T) {
	base := types.Attestation{
		ValidatorIndex:  4,
		BeaconBlockRoot: hash.Sum([]byte("a")),
		Target:          types.Checkpoint{Epoch: 2, Root: hash.Sum([]byte("t"))},
	}
	dup := base
	dup.Slot = primitives.Slot(99) // irrelevant to SameVote
	require.True(t, base.SameVote(dup))

	diffTarget := base
	diffTarget.Target.Root = hash.Sum([]byte("other"))
	require.False(t, base.SameVote(diffTarget))
}

func TestCheckpoint_Equal(t *testing.T) {
	a := types.Checkpoint{Epoch: 1, Root: hash.Sum([]byte("r"))}
	b := a
	require.True(t, a.Equal(b))
	b.Epoch = 2
	require.False(t, a.Equal(b))
}
