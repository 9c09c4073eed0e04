// Package forkres defines the fork-resolution collaborator interface
// (component I): the canonical ForkResolution record produced whenever
// two blocks claim the same parent, consumed by the attestation-target
// service and folded into a block's common section by the producer.
//
// The record shape and the Resolver interface let the producer and the
// attestation-target service depend on an abstraction instead of a
// concrete algorithm; WeightedResolver (weighted.go) is the one
// implementation in this package.
package forkres

import (
	"context"

	"github.com/luxfi/ackinacki/types"
)

// ForkResolution names the outcome of resolving a fork: one winner and
// the blocks it displaced, rooted at their common ancestor.
type ForkResolution struct {
	Winner   types.BlockIdentifier
	Losers   []types.BlockIdentifier
	ForkRoot types.BlockIdentifier
}

// Candidate is one block competing to extend forkRoot.
type Candidate struct {
	BlockID  types.BlockIdentifier
	ThreadID types.ThreadIdentifier
	SeqNo    types.BlockSeqNo
	Weight   uint64
}

// Resolver picks a winner among candidates that share forkRoot as their
// most recent common ancestor.
type Resolver interface {
	Resolve(ctx context.Context, forkRoot types.BlockIdentifier, candidates []Candidate) (ForkResolution, error)
}

// Names B as the winner when B's name resolves a fork the checkpoint
// named it winner of.
func (r ForkResolution) Names(b types.BlockIdentifier) bool {
	return r.Winner == b
}
