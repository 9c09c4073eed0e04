package blockstate

import (
	"github.com/luxfi/ackinacki/types"
)

// AncestorChain is the ordered list of ancestor blocks from the first
// non-finalized block up to tail (exclusive of the finalized root),
// returned by SelectUnfinalizedAncestorBlocks.
type AncestorChain []types.BlockIdentifier

// SelectUnfinalizedAncestorBlocks walks tail's parent chain back to, but
// excluding, the first finalized block, returning the chain in
// root-to-tip order (oldest ancestor first). lastFinalizedSeqNo is the
// cutoff: any block whose seq_no is at or below it without itself being
// marked finalized indicates a chain referencing something older than
// the last finalized block.
func (r *Repository) SelectUnfinalizedAncestorBlocks(tail types.BlockIdentifier, lastFinalizedSeqNo types.BlockSeqNo) (AncestorChain, error) {
	var reversed []types.BlockIdentifier

	cur := tail
	for {
		state, ok := r.Get(cur)
		if !ok {
			return nil, types.ErrIncompleteHistory
		}

		if state.Flags().Invalidated {
			return nil, types.ErrInvalidatedParent
		}

		if state.Flags().Finalized {
			break
		}

		seqNo, hasSeqNo := state.SeqNo()
		if hasSeqNo && seqNo <= lastFinalizedSeqNo {
			return nil, types.ErrBlockSeqNoCutoff
		}

		reversed = append(reversed, cur)

		parent, hasParent := state.ParentID()
		if !hasParent {
			return nil, types.ErrIncompleteHistory
		}
		cur = parent
	}

	chain := make(AncestorChain, len(reversed))
	for i, id := range reversed {
		chain[len(reversed)-1-i] = id
	}
	return chain, nil
}
