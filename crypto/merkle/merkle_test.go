package merkle_test

import (
	"testing"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/merkle"
	"github.com/stretchr/testify/require"
)

func leaves(n int) []hash.Hash {
	out := make([]hash.Hash, n)
	for i := range out {
		out[i] = hash.Sum([]byte{byte(i)})
	}
	return out
}

func TestRoot_EmptyIsZero(t *testing.T) {
	require.Equal(t, hash.Zero, merkle.Root(nil))
}

func TestRoot_SingleLeaf(t *testing.T) {
	ls := leaves(1)
	require.Equal(t, ls[0], merkle.Root(ls))
}

func TestRoot_OddCountDuplicatesLast(t *testing.T) {
	ls := leaves(3)
	withDup := append(append([]hash.Hash{}, ls...), ls[2])
	require.Equal(t, merkle.Root(withDup), merkle.Root(ls))
}

func TestProof_RoundTripsForEveryLeaf(t *testing.T) {
	for n := 1; n <= 9; n++ {
		ls := leaves(n)
		root := merkle.Root(ls)
		for i := 0; i < n; i++ {
			proof, err := merkle.Proof(ls, i)
			require.NoError(t, err)
			require.True(t, merkle.VerifyProof(root, ls[i], i, proof), "leaf count %d index %d", n, i)
		}
	}
}

func TestProof_OutOfRange(t *testing.T) {
	ls := leaves(2)
	_, err := merkle.Proof(ls, 5)
	require.ErrorIs(t, err, merkle.ErrIndexOutOfRange)
}

func TestVerifyProof_RejectsWrongLeaf(t *testing.T) {
	ls := leaves(4)
	root := merkle.Root(ls)
	proof, err := merkle.Proof(ls, 1)
	require.NoError(t, err)
	require.False(t, merkle.VerifyProof(root, ls[2], 1, proof))
}
