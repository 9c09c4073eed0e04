// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

func TestResultAchieved(t *testing.T) {
	r := Result{
		Achieved:     true,
		Count:        3,
		Threshold:    2,
		Participants: []ids.NodeID{ids.GenerateTestNodeID(), ids.GenerateTestNodeID(), ids.GenerateTestNodeID()},
		TotalPolled:  5,
	}
	require.True(t, r.Achieved)
	require.GreaterOrEqual(t, r.Count, r.Threshold)
	require.Len(t, r.Participants, 3)
}

func TestWeightedResultEmbedsResult(t *testing.T) {
	wr := WeightedResult{
		Result: Result{
			Achieved:  true,
			Count:     2,
			Threshold: 2,
		},
		WeightFor:       70,
		WeightThreshold: 66,
		TotalWeight:     100,
	}
	require.True(t, wr.Achieved)
	require.GreaterOrEqual(t, wr.WeightFor, wr.WeightThreshold)
	require.Equal(t, uint64(100), wr.TotalWeight)
}
