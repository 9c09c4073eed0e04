package bkset

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/types"
)

func TestAddAssignsStableIndexAndRejectsDuplicate(t *testing.T) {
	set := New(types.RootThreadIdentifier)
	node := ids.GenerateTestNodeID()

	idx, change, err := set.Add(node, nil, 10)
	require.NoError(t, err)
	require.Equal(t, Added, change.ChangeKind)
	require.Equal(t, idx, change.Data.Index)

	_, _, err = set.Add(node, nil, 10)
	require.Error(t, err)
}

func TestRemoveDropsMemberAndFreesNodeLookup(t *testing.T) {
	set := New(types.RootThreadIdentifier)
	node := ids.GenerateTestNodeID()
	idx, _, err := set.Add(node, nil, 10)
	require.NoError(t, err)

	change, err := set.Remove(idx)
	require.NoError(t, err)
	require.Equal(t, Removed, change.ChangeKind)

	_, ok := set.IndexOf(node)
	require.False(t, ok)
	require.Equal(t, 0, set.Len())
}

func TestApplyReplaysChangesOntoAClone(t *testing.T) {
	parent := New(types.RootThreadIdentifier)
	nodeA := ids.GenerateTestNodeID()
	_, addChange, err := parent.Add(nodeA, nil, 5)
	require.NoError(t, err)

	child := parent.Clone(types.RootThreadIdentifier)
	require.NoError(t, child.Apply(nil))

	nodeB := ids.GenerateTestNodeID()
	idxB, addB, err := child.Add(nodeB, nil, 7)
	require.NoError(t, err)
	_ = idxB

	replay := New(types.RootThreadIdentifier)
	require.NoError(t, replay.Apply([]Change{addChange, addB}))
	require.Equal(t, uint64(12), replay.TotalWeight())
}

func TestWeightOfSumsOnlyRequestedSigners(t *testing.T) {
	set := New(types.RootThreadIdentifier)
	idxA, _, err := set.Add(ids.GenerateTestNodeID(), nil, 3)
	require.NoError(t, err)
	idxB, _, err := set.Add(ids.GenerateTestNodeID(), nil, 4)
	require.NoError(t, err)

	weight := set.WeightOf(map[SignerIndex]struct{}{idxA: {}})
	require.Equal(t, uint64(3), weight)

	weight = set.WeightOf(map[SignerIndex]struct{}{idxA: {}, idxB: {}})
	require.Equal(t, uint64(7), weight)
}
