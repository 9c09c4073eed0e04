package blockstate

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/types"
)

func TestSingleAssignmentPanicsOnConflictingSet(t *testing.T) {
	state := newBlockState(types.BlockIdentifier{})

	state.SetSeqNo(3)
	require.Panics(t, func() {
		state.SetSeqNo(4)
	})
}

func TestSingleAssignmentToleratesRepeatedIdenticalSet(t *testing.T) {
	state := newBlockState(types.BlockIdentifier{})

	state.SetSeqNo(3)
	require.NotPanics(t, func() {
		state.SetSeqNo(3)
	})
	seqNo, ok := state.SeqNo()
	require.True(t, ok)
	require.Equal(t, types.BlockSeqNo(3), seqNo)
}

func TestFinalizedAndInvalidatedAreMutuallyExclusive(t *testing.T) {
	state := newBlockState(types.BlockIdentifier{})
	state.MarkFinalized()
	require.Panics(t, func() {
		state.MarkInvalidated()
	})
}

func TestVerifiedAttestationsAccumulate(t *testing.T) {
	state := newBlockState(types.BlockIdentifier{})
	ancestor := types.NewBlockIdentifier(ids.ID{1})

	state.AddVerifiedAttestation(ancestor, 0)
	state.AddVerifiedAttestation(ancestor, 1)

	signers, ok := state.VerifiedAttestationsFor(ancestor)
	require.True(t, ok)
	require.Len(t, signers, 2)
}
