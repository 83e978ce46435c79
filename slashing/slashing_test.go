package slashing_test

import (
	"testing"

	"github.com/republic-chain/proof-of-stake/crypto/hash"
	"github.com/republic-chain/proof-of-stake/crypto/signing"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/slashing"
	"github.com/republic-chain/proof-of-stake/types"
	"github.com/republic-chain/proof-of-stake/validatorset"
	"github.com/stretchr/testify/require"
)

func att(validatorIndex uint64, sourceEpoch, targetEpoch uint64, targetTag byte) types.Attestation {
	var root hash.Hash
	root[31] = targetTag
	return types.Attestation{
		ValidatorIndex: validatorIndex,
		Source:         types.Checkpoint{Epoch: primitives.Epoch(sourceEpoch)},
		Target:         types.Checkpoint{Epoch: primitives.Epoch(targetEpoch), Root: root},
	}
}

func TestCheckAttestation_DoubleVote(t *testing.T) {
	d := slashing.New()
	a := att(0, 0, 1, 1)
	_, slashable := d.CheckAttestation(a)
	require.False(t, slashable)

	b := att(0, 0, 1, 2) // same target epoch, different root
	offense, slashable := d.CheckAttestation(b)
	require.True(t, slashable)
	require.Equal(t, validatorset.OffenseDoubleVote, offense)
}

func TestCheckAttestation_SurroundVote(t *testing.T) {
	d := slashing.New()
	outer := att(0, 0, 10, 1)
	_, slashable := d.CheckAttestation(outer)
	require.False(t, slashable)

	inner := att(0, 2, 5, 2) // strictly inside outer's source/target range
	offense, slashable := d.CheckAttestation(inner)
	require.True(t, slashable)
	require.Equal(t, validatorset.OffenseSurroundVote, offense)
}

func TestCheckAttestation_SameVoteTwiceIsNotSlashable(t *testing.T) {
	d := slashing.New()
	a := att(0, 0, 1, 1)
	_, slashable := d.CheckAttestation(a)
	require.False(t, slashable)
	_, slashable = d.CheckAttestation(a)
	require.False(t, slashable)
}

func TestCheckAttestation_DifferentValidatorsIndependent(t *testing.T) {
	d := slashing.New()
	_, slashable := d.CheckAttestation(att(0, 0, 1, 1))
	require.False(t, slashable)
	_, slashable = d.CheckAttestation(att(1, 0, 1, 2))
	require.False(t, slashable)
}

func TestCheckProposal_DoubleProposal(t *testing.T) {
	d := slashing.New()
	var rootA, rootB hash.Hash
	rootA[31], rootB[31] = 1, 2

	require.False(t, d.CheckProposal(0, 5, rootA))
	require.True(t, d.CheckProposal(0, 5, rootB))
}

func TestCheckProposal_SameRootTwiceIsNotSlashable(t *testing.T) {
	d := slashing.New()
	var root hash.Hash
	root[31] = 1
	require.False(t, d.CheckProposal(0, 5, root))
	require.False(t, d.CheckProposal(0, 5, root))
}

func TestNewEvidence_StampsUniqueID(t *testing.T) {
	var addr signing.Address
	addr[19] = 1
	e1 := slashing.NewEvidence(addr, validatorset.OffenseDoubleVote, 1)
	e2 := slashing.NewEvidence(addr, validatorset.OffenseDoubleVote, 1)
	require.NotEqual(t, e1.ID, e2.ID)
}
