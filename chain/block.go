// Package chain defines the block and fork-choice primitives shared by the
// fork-resolution service and the attestation-target service.
package chain

import (
	"context"
	"time"

	"github.com/luxfi/ackinacki/choices"
	"github.com/luxfi/ackinacki/types"
)

// Block is the minimal view the fork-resolution and attestation services
// need of a produced block, independent of its thread or producer.
type Block interface {
	ID() types.BlockIdentifier
	Parent() types.BlockIdentifier
	Height() uint64
	Timestamp() time.Time
	Bytes() []byte
	Status() choices.Status
	Accept(ctx context.Context) error
	Reject(ctx context.Context) error
	Verify(ctx context.Context) error

	// FPCVotes returns the ack and nack payloads embedded in the block.
	FPCVotes() [][]byte
	// EpochBit reports whether the block crosses a block-keeper epoch
	// boundary; set when the block carries block-keeper-set changes.
	EpochBit() bool
}
