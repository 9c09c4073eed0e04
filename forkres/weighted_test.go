package forkres

import (
	"context"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/types"
)

func TestWeightedResolverPicksHighestWeight(t *testing.T) {
	root := types.NewBlockIdentifier(ids.ID{0})
	a := types.NewBlockIdentifier(ids.ID{1})
	b := types.NewBlockIdentifier(ids.ID{2})

	res, err := WeightedResolver{}.Resolve(context.Background(), root, []Candidate{
		{BlockID: a, SeqNo: 5, Weight: 10},
		{BlockID: b, SeqNo: 5, Weight: 20},
	})
	require.NoError(t, err)
	require.Equal(t, b, res.Winner)
	require.Equal(t, []types.BlockIdentifier{a}, res.Losers)
	require.Equal(t, root, res.ForkRoot)
}

func TestWeightedResolverBreaksTiesBySeqNoThenID(t *testing.T) {
	root := types.NewBlockIdentifier(ids.ID{0})
	a := types.NewBlockIdentifier(ids.ID{1})
	b := types.NewBlockIdentifier(ids.ID{2})

	res, err := WeightedResolver{}.Resolve(context.Background(), root, []Candidate{
		{BlockID: b, SeqNo: 5, Weight: 10},
		{BlockID: a, SeqNo: 3, Weight: 10},
	})
	require.NoError(t, err)
	require.Equal(t, a, res.Winner)

	res, err = WeightedResolver{}.Resolve(context.Background(), root, []Candidate{
		{BlockID: b, SeqNo: 5, Weight: 10},
		{BlockID: a, SeqNo: 5, Weight: 10},
	})
	require.NoError(t, err)
	require.Equal(t, a, res.Winner)
}

func TestWeightedResolverRejectsEmptyCandidates(t *testing.T) {
	_, err := WeightedResolver{}.Resolve(context.Background(), types.BlockIdentifier{}, nil)
	require.Error(t, err)
}
