// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum holds the result shapes produced by the
// attestation-target service's count- and weight-based quorum checks
// (see attestation.QuorumResult). It does not itself poll nodes or
// track preference/confidence rounds — there is no Avalanche-style
// repeated-sampling step in this design, only a single pass over a
// block's folded signer set compared against a bk-set.
package quorum

import (
	"github.com/luxfi/ids"
)

// Result represents the result of a quorum check
type Result struct {
	// Achieved indicates if the threshold was met
	Achieved bool
	
	// Count is the number of positive responses
	Count int
	
	// Threshold is the required threshold
	Threshold int
	
	// Participants lists the nodes that responded
	Participants []ids.NodeID
	
	// TotalPolled is the total number of nodes polled
	TotalPolled int
}

// WeightedResult provides detailed weighted voting results
type WeightedResult struct {
	Result
	
	// WeightFor is the total weight voting for
	WeightFor uint64
	
	// WeightAgainst is the total weight voting against
	WeightAgainst uint64
	
	// WeightThreshold is the required weight threshold
	WeightThreshold uint64
	
	// TotalWeight is the total weight of all votes
	TotalWeight uint64
}
