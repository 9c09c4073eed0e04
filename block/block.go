// Package block defines AckiNackiBlock, the per-thread block record
// produced by the builder and consumed by the attestation-target and
// fork-resolution services. The wire encoding of a block is out of
// scope: Bytes returns an opaque, pre-serialized record and this package
// only interprets the fields the core engine actually reasons about.
package block

import (
	"context"
	"time"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/chain"
	"github.com/luxfi/ackinacki/choices"
	"github.com/luxfi/ackinacki/envelope"
	"github.com/luxfi/ackinacki/forkres"
	"github.com/luxfi/ackinacki/types"
	"github.com/luxfi/ackinacki/utils/bag"
)

// AckiNackiBlock satisfies chain.Block, making it usable by the
// fork-resolution and attestation-target services without either
// package importing the block package directly.
var _ chain.Block = (*AckiNackiBlock)(nil)

// ForkResolutionRecord is the wire shape of a fork-resolution service
// decision, as carried in a block's common section.
type ForkResolutionRecord = forkres.ForkResolution

// CommonSection is the part of a block that exists to move consensus
// bookkeeping between threads: folded acks/nacks, bk-set membership
// deltas, and any fork resolutions the producer decided to embed.
type CommonSection struct {
	Acks               []envelope.AckEnvelope
	Nacks              []envelope.NackEnvelope
	BlockKeeperSetChanges []bkset.Change
	ForkResolutions    []ForkResolutionRecord
}

// AckiNackiBlock is one produced block of one thread.
type AckiNackiBlock struct {
	ThreadID   types.ThreadIdentifier
	SeqNo      types.BlockSeqNo
	Identifier types.BlockIdentifier
	ParentID   types.BlockIdentifier
	ProducerID types.AccountAddress

	Common CommonSection

	// TxCount is the number of transactions sealed into this block.
	TxCount uint64

	// Refs lists the cross-thread reference blocks folded into this
	// block's inputs.
	Refs []types.BlockIdentifier

	// ForwardThreadsTable is set only when the load-balancing step
	// decided to split or collapse; nil means the topology is unchanged.
	ForwardThreadsTable *types.ThreadsTable

	// ChangedDappIDs lists dapp ids whose minted_shell accounting moved
	// in this block.
	ChangedDappIDs []types.AccountAddress

	// payload is the opaque, pre-serialized block body (the transaction
	// list and everything the VM/wire layer owns) — out of scope here.
	payload  []byte
	genUtime time.Time
	status   choices.Status

	// signaturesVerified is tracked separately from choices.Status since
	// that enum has no "verified" state of its own.
	signaturesVerified bool
}

// NewAckiNackiBlock wraps a sealed payload with the header fields the
// core engine reasons about.
func NewAckiNackiBlock(thread types.ThreadIdentifier, seqNo types.BlockSeqNo, id, parent types.BlockIdentifier, payload []byte) *AckiNackiBlock {
	return &AckiNackiBlock{
		ThreadID:   thread,
		SeqNo:      seqNo,
		Identifier: id,
		ParentID:   parent,
		payload:    payload,
		status:     choices.Unknown,
	}
}

func (b *AckiNackiBlock) ID() types.BlockIdentifier     { return b.Identifier }
func (b *AckiNackiBlock) Parent() types.BlockIdentifier { return b.ParentID }
func (b *AckiNackiBlock) Height() uint64                { return uint64(b.SeqNo) }
func (b *AckiNackiBlock) Bytes() []byte                 { return b.payload }
func (b *AckiNackiBlock) Status() choices.Status        { return b.status }
func (b *AckiNackiBlock) Timestamp() time.Time          { return b.genUtime }

// SignaturesVerified reports whether Verify has run on this block.
func (b *AckiNackiBlock) SignaturesVerified() bool { return b.signaturesVerified }

// SetGenUtime records the block's gen_utime, set once by the builder's
// post-production sealing stage.
func (b *AckiNackiBlock) SetGenUtime(t time.Time) { b.genUtime = t }

// FPCVotes returns the raw ack/nack envelope payloads embedded in the
// block's common section, satisfying chain.Block for the fork-resolution
// and attestation-target services.
func (b *AckiNackiBlock) FPCVotes() [][]byte {
	votes := make([][]byte, 0, len(b.Common.Acks)+len(b.Common.Nacks))
	for _, a := range b.Common.Acks {
		votes = append(votes, a.Data)
	}
	for _, n := range b.Common.Nacks {
		votes = append(votes, n.Data)
	}
	return votes
}

// VoteTally folds this block's FPCVotes payloads into a bag keyed by raw
// vote bytes and returns the payload holding a strict majority of votes
// cast, if any — surfaced for health/logging next to the block's own
// pass/fail attestation-target decision, which is computed independently
// by the attestation package.
func (b *AckiNackiBlock) VoteTally() (majority []byte, achieved bool) {
	tally := bag.New[string]()
	for _, v := range b.FPCVotes() {
		tally.Add(string(v))
	}
	winner, ok := tally.Majority()
	if !ok {
		return nil, false
	}
	return []byte(winner), true
}

// EpochBit reports whether this block carries a block-keeper-set change
// that crosses an epoch boundary.
func (b *AckiNackiBlock) EpochBit() bool {
	return len(b.Common.BlockKeeperSetChanges) > 0
}

// Verify checks the block's envelope signatures are well-formed; the
// actual BLS verification against a bk-set happens in the envelope
// package and is invoked by the caller before Verify is called here.
// This records that the check has happened and moves the block to
// Processing. A block whose status is already decided (accepted or
// rejected by the fork-resolution service) is skipped rather than
// re-verified.
func (b *AckiNackiBlock) Verify(ctx context.Context) error {
	if b.status.Decided() {
		return chain.ErrSkipped
	}
	b.signaturesVerified = true
	if b.status == choices.Unknown {
		b.status = choices.Processing
	}
	return nil
}

// Accept marks the block as accepted by the finalization path.
func (b *AckiNackiBlock) Accept(ctx context.Context) error {
	b.status = choices.Accepted
	return nil
}

// Reject marks the block as rejected, e.g. after losing a fork
// resolution.
func (b *AckiNackiBlock) Reject(ctx context.Context) error {
	b.status = choices.Rejected
	return nil
}
