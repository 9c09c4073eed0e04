// Package attestation implements the attestation-target service
// (component H): given the non-finalized tail of a thread, it decides
// for each ancestor block whether enough descendants have attested to
// it for it to be considered finalizable.
package attestation

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/blockstate"
	"github.com/luxfi/ackinacki/set"
	quorum "github.com/luxfi/ackinacki/threshold"
	"github.com/luxfi/ackinacki/types"
)

// Service evaluates attestation targets against a block-state
// repository.
type Service struct {
	repo *blockstate.Repository
}

// New returns a Service reading from repo.
func New(repo *blockstate.Repository) *Service {
	return &Service{repo: repo}
}

// SelectUnfinalizedAncestorBlocks returns the ancestor chain from the
// first non-finalized block up to tail, per spec.md §4.H. Errors are the
// repository's IncompleteHistory / BlockSeqNoCutoff / InvalidatedParent /
// FailedToLoadBlockState taxonomy.
func (s *Service) SelectUnfinalizedAncestorBlocks(tail types.BlockIdentifier, lastFinalizedSeqNo types.BlockSeqNo) (blockstate.AncestorChain, error) {
	return s.repo.SelectUnfinalizedAncestorBlocks(tail, lastFinalizedSeqNo)
}

// EvaluateAttestations walks chain front-to-back (oldest ancestor
// first), checking each block B with an unmet attestation target
// against the verified attestations recorded at its checkpoint
// descendant. It returns the first block found to violate its target
// criteria, wrapped in ErrInvalidBlockTailDoesNotMeetCriteria, or nil if
// every block in the chain either already had its target met or passed
// evaluation now.
func (s *Service) EvaluateAttestations(chain blockstate.AncestorChain) error {
	for i, blockID := range chain {
		state, ok := s.repo.Get(blockID)
		if !ok {
			return fmt.Errorf("attestation: %w: %s", types.ErrFailedToLoadBlockState, blockID)
		}

		if state.HasInitialAttestationsTargetMet() {
			continue
		}

		target, ok := state.InitialAttestationsTarget()
		if !ok {
			return fmt.Errorf("attestation: %w: %s", types.ErrNotAllInitialAttestationTargetsSet, blockID)
		}

		checkpointIdx := i + target.DescendantGenerations
		if checkpointIdx < 0 || checkpointIdx >= len(chain) {
			// Chain doesn't reach the checkpoint depth yet: wait for more
			// blocks, not an error for this evaluation pass.
			continue
		}
		checkpointID := chain[checkpointIdx]
		checkpoint, ok := s.repo.Get(checkpointID)
		if !ok {
			return fmt.Errorf("attestation: %w: %s", types.ErrFailedToLoadBlockState, checkpointID)
		}

		checkpointThread, hasThread := checkpoint.ThreadID()
		blockThread, hasBlockThread := state.ThreadID()
		if hasThread && hasBlockThread && checkpointThread != blockThread {
			// Thread-merge scenario: skip, can't compare across threads.
			continue
		}

		signers, hasAttestations := checkpoint.VerifiedAttestationsFor(blockID)
		if !hasAttestations {
			return fmt.Errorf("attestation: %w: %s", types.ErrAttestationsAreNotVerifiedYet, blockID)
		}

		if len(signers) >= target.CountRequired {
			state.SetHasInitialAttestationsTargetMet(true)
			continue
		}

		if resolvedForkNamesWinner(checkpoint.ResolvesForks(), blockID) && checkpoint.HasInitialAttestationsTargetMet() {
			state.SetHasAttestationsTargetMetInAResolvedForkCase(true)
			continue
		}

		state.MarkInvalidated()
		return fmt.Errorf("attestation: %w: %s", types.ErrInvalidBlockTailDoesNotMeetCriteria, blockID)
	}
	return nil
}

// PhantomTarget is the synthetic last chain element the speculative
// evaluator appends: an about-to-be-produced block's proposed
// attestations and fork resolutions.
type PhantomTarget struct {
	BlockID         types.BlockIdentifier
	ThreadID        types.ThreadIdentifier
	Attestations    map[types.BlockIdentifier]int
	ForkResolutions []blockstate.ForkResolutionRef
}

// EvaluateIfNextBlockAncestorsRequiredAttestationsWillBeMet replays
// EvaluateAttestations with a phantom checkpoint appended to chain,
// returning true if the walk succeeds or fails only with recoverable
// conditions (chain too short, or the target is met only through an
// unconfirmed fork resolution).
func (s *Service) EvaluateIfNextBlockAncestorsRequiredAttestationsWillBeMet(chain blockstate.AncestorChain, phantom PhantomTarget) (bool, error) {
	for i, blockID := range chain {
		state, ok := s.repo.Get(blockID)
		if !ok {
			return false, fmt.Errorf("attestation: %w: %s", types.ErrFailedToLoadBlockState, blockID)
		}
		if state.HasInitialAttestationsTargetMet() {
			continue
		}
		target, ok := state.InitialAttestationsTarget()
		if !ok {
			return false, fmt.Errorf("attestation: %w: %s", types.ErrNotAllInitialAttestationTargetsSet, blockID)
		}

		checkpointIdx := i + target.DescendantGenerations
		if checkpointIdx < len(chain) {
			checkpointID := chain[checkpointIdx]
			checkpoint, ok := s.repo.Get(checkpointID)
			if !ok {
				return false, fmt.Errorf("attestation: %w: %s", types.ErrFailedToLoadBlockState, checkpointID)
			}
			signers, hasAttestations := checkpoint.VerifiedAttestationsFor(blockID)
			if hasAttestations && len(signers) >= target.CountRequired {
				continue
			}
			if resolvedForkNamesWinner(checkpoint.ResolvesForks(), blockID) && checkpoint.HasInitialAttestationsTargetMet() {
				continue
			}
			return false, fmt.Errorf("attestation: %w: %s", types.ErrInvalidBlockTailDoesNotMeetCriteria, blockID)
		}

		if checkpointIdx == len(chain) {
			// The phantom block is exactly this block's checkpoint.
			count := phantom.Attestations[blockID]
			if count >= target.CountRequired {
				continue
			}
			if resolvedForkNamesWinner(phantom.ForkResolutions, blockID) {
				return true, types.ErrInitialAttestationsTargetIsNotMetResolvesFork
			}
			return false, fmt.Errorf("attestation: %w: %s", types.ErrInvalidBlockTailDoesNotMeetCriteria, blockID)
		}

		// Checkpoint lies beyond even the phantom block.
		return true, types.ErrChainIsTooShort
	}
	return true, nil
}

// FindNextBlockKnownDependants returns every unfinalized ancestor C of
// parent, drawn from chain, whose descendant_generations equals the
// distance from C to the next block produced on top of parent — i.e.
// that next block would be C's checkpoint.
func (s *Service) FindNextBlockKnownDependants(parent types.BlockIdentifier, chain blockstate.AncestorChain) []types.BlockIdentifier {
	parentIdx := -1
	for i, id := range chain {
		if id == parent {
			parentIdx = i
			break
		}
	}
	if parentIdx < 0 {
		return nil
	}

	var out []types.BlockIdentifier
	for i := 0; i <= parentIdx; i++ {
		ancestorID := chain[i]
		state, ok := s.repo.Get(ancestorID)
		if !ok {
			continue
		}
		if state.HasInitialAttestationsTargetMet() {
			continue
		}
		target, ok := state.InitialAttestationsTarget()
		if !ok {
			continue
		}
		distance := parentIdx - i + 1
		if target.DescendantGenerations == distance {
			out = append(out, ancestorID)
		}
	}
	return out
}

// QuorumResult reports a block's attestation count against its target in
// the vocabulary of the quorum package, for health checks and logging; it
// does not participate in EvaluateAttestations' own pass/fail decision,
// which compares signer counts directly against AttestationTarget.
func QuorumResult(bks *bkset.Set, signers set.Set[bkset.SignerIndex], target blockstate.AttestationTarget) quorum.WeightedResult {
	participants := make([]ids.NodeID, 0, signers.Len())
	if bks != nil {
		for idx := range signers {
			if data, ok := bks.Get(idx); ok {
				participants = append(participants, data.NodeID)
			}
		}
	}

	var weightFor, weightThreshold, totalWeight uint64
	if bks != nil {
		weightFor = bks.WeightOf(signers)
		totalWeight = bks.TotalWeight()
		weightThreshold, _ = bks.QuorumWeight(2, 3)
	}

	return quorum.WeightedResult{
		Result: quorum.Result{
			Achieved:     len(signers) >= target.CountRequired,
			Count:        len(signers),
			Threshold:    target.CountRequired,
			Participants: participants,
		},
		WeightFor:       weightFor,
		WeightThreshold: weightThreshold,
		TotalWeight:     totalWeight,
	}
}

func resolvedForkNamesWinner(resolutions []blockstate.ForkResolutionRef, winner types.BlockIdentifier) bool {
	for _, r := range resolutions {
		if r.Names(winner) {
			return true
		}
	}
	return false
}
