package forkres

import (
	"context"
	"fmt"

	"github.com/luxfi/ackinacki/types"
)

// WeightedResolver picks the candidate with the greatest bk-set weight,
// breaking ties by the lowest seq_no (earliest claim) and then by the
// lexicographically smallest block id for full determinism.
type WeightedResolver struct{}

// Resolve implements Resolver.
func (WeightedResolver) Resolve(ctx context.Context, forkRoot types.BlockIdentifier, candidates []Candidate) (ForkResolution, error) {
	if len(candidates) == 0 {
		return ForkResolution{}, fmt.Errorf("forkres: no candidates to resolve at root %s", forkRoot)
	}

	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.Weight > winner.Weight {
			winner = c
			continue
		}
		if c.Weight == winner.Weight && c.SeqNo < winner.SeqNo {
			winner = c
			continue
		}
		if c.Weight == winner.Weight && c.SeqNo == winner.SeqNo && c.BlockID.Less(winner.BlockID) {
			winner = c
		}
	}

	losers := make([]types.BlockIdentifier, 0, len(candidates)-1)
	for _, c := range candidates {
		if c.BlockID != winner.BlockID {
			losers = append(losers, c.BlockID)
		}
	}

	return ForkResolution{Winner: winner.BlockID, Losers: losers, ForkRoot: forkRoot}, nil
}
