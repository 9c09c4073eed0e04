// Package blockstate implements the persistent per-block metadata store
// (component C): a file-backed map keyed by BlockIdentifier, with
// per-entry locking and single-assignment ("set once, never reset")
// semantics, backed by github.com/luxfi/database the way the teacher's
// chains/atomic package backs its shared-memory map with the same store.
package blockstate

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/forkres"
	"github.com/luxfi/ackinacki/set"
	"github.com/luxfi/ackinacki/types"
)

// AttestationTarget is the (descendant_generations, count_required) pair
// a block must satisfy to be considered finalizable from this ancestor.
type AttestationTarget struct {
	DescendantGenerations int
	CountRequired         int
}

// ForkResolutionRef names a fork resolution a block's checkpoint
// resolved, for the attestation-target service's secondary path.
type ForkResolutionRef = forkres.ForkResolution

// Flags tracks the lifecycle bits that make a BlockState terminal.
type Flags struct {
	Stored              bool
	Applied             bool
	Finalized           bool
	Invalidated         bool
	SignaturesVerified  bool
}

// BlockStats carries the per-block counters the original Rust BlockState
// struct surfaces for observability: transaction count, execution time,
// and per-queue message counts.
type BlockStats struct {
	TxCount            uint64
	ExecutionTimeMicros uint64
	ExternalMsgCount   uint64
	InternalMsgCount   uint64
}

// BlockState is the persistent record for one block identifier. The
// identity, bk-set, target, fork-resolution and stats fields are set at
// most once via their Set* methods; a second call with a differing value
// is a programmer error (it panics) per the repository's
// single-assignment contract. Lifecycle flags and attestation verdicts
// are updated through the Mark* and SetHas* methods instead.
type BlockState struct {
	mu sync.Mutex

	id types.BlockIdentifier

	threadID *types.ThreadIdentifier
	parentID *types.BlockIdentifier
	seqNo    *types.BlockSeqNo
	producer *types.AccountAddress

	bkSet           *bkset.Set
	descendantBKSet *bkset.Set

	initialAttestationsTarget *AttestationTarget
	// verifiedAttestations maps an ancestor block id to the set of
	// signer indices that have attested it, as observed at this
	// (descendant) checkpoint.
	verifiedAttestations map[types.BlockIdentifier]set.Set[bkset.SignerIndex]

	resolvesForks []ForkResolutionRef

	flags Flags

	hasInitialAttestationsTargetMet               bool
	hasAttestationsTargetMetInAResolvedForkCase   bool

	blockStats BlockStats

	// producerSelectorData is an opaque record used by the out-of-scope
	// leader-election/routing collaborator; carried but not interpreted.
	producerSelectorData []byte
}

func newBlockState(id types.BlockIdentifier) *BlockState {
	return &BlockState{
		id:                   id,
		verifiedAttestations: make(map[types.BlockIdentifier]set.Set[bkset.SignerIndex]),
	}
}

// ID returns the block identifier this state belongs to.
func (s *BlockState) ID() types.BlockIdentifier { return s.id }

// SetThreadID assigns the thread this block belongs to, once.
func (s *BlockState) SetThreadID(thread types.ThreadIdentifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadID != nil {
		if *s.threadID != thread {
			panic(fmt.Sprintf("blockstate: thread_id for %s already set to %s, cannot reset to %s", s.id, *s.threadID, thread))
		}
		return
	}
	s.threadID = &thread
}

// ThreadID returns the assigned thread, if any.
func (s *BlockState) ThreadID() (types.ThreadIdentifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadID == nil {
		return types.ThreadIdentifier{}, false
	}
	return *s.threadID, true
}

// SetParentID assigns the parent block identifier, once.
func (s *BlockState) SetParentID(parent types.BlockIdentifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentID != nil {
		if *s.parentID != parent {
			panic(fmt.Sprintf("blockstate: parent_id for %s already set, cannot reset", s.id))
		}
		return
	}
	s.parentID = &parent
}

// ParentID returns the assigned parent, if any.
func (s *BlockState) ParentID() (types.BlockIdentifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentID == nil {
		return types.BlockIdentifier{}, false
	}
	return *s.parentID, true
}

// SetSeqNo assigns the sequence number, once.
func (s *BlockState) SetSeqNo(seqNo types.BlockSeqNo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seqNo != nil {
		if *s.seqNo != seqNo {
			panic(fmt.Sprintf("blockstate: seq_no for %s already set to %d, cannot reset to %d", s.id, *s.seqNo, seqNo))
		}
		return
	}
	s.seqNo = &seqNo
}

// SeqNo returns the assigned sequence number, if any.
func (s *BlockState) SeqNo() (types.BlockSeqNo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seqNo == nil {
		return 0, false
	}
	return *s.seqNo, true
}

// SetProducer assigns the producer account, once.
func (s *BlockState) SetProducer(producer types.AccountAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.producer != nil {
		if *s.producer != producer {
			panic(fmt.Sprintf("blockstate: producer for %s already set, cannot reset", s.id))
		}
		return
	}
	s.producer = &producer
}

// SetBKSet assigns the bk-set this block was produced under, once.
func (s *BlockState) SetBKSet(set *bkset.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bkSet != nil {
		if s.bkSet != set {
			panic(fmt.Sprintf("blockstate: bk_set for %s already set, cannot reset", s.id))
		}
		return
	}
	s.bkSet = set
}

// BKSet returns the assigned bk-set, if any.
func (s *BlockState) BKSet() *bkset.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bkSet
}

// SetDescendantBKSet assigns the bk-set in effect at this block's
// attestation checkpoint depth, once.
func (s *BlockState) SetDescendantBKSet(set *bkset.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.descendantBKSet != nil {
		if s.descendantBKSet != set {
			panic(fmt.Sprintf("blockstate: descendant_bk_set for %s already set, cannot reset", s.id))
		}
		return
	}
	s.descendantBKSet = set
}

// SetInitialAttestationsTarget assigns the (descendant_generations,
// count_required) pair this block must satisfy, once.
func (s *BlockState) SetInitialAttestationsTarget(target AttestationTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialAttestationsTarget != nil {
		if *s.initialAttestationsTarget != target {
			panic(fmt.Sprintf("blockstate: initial_attestations_target for %s already set, cannot reset", s.id))
		}
		return
	}
	s.initialAttestationsTarget = &target
}

// InitialAttestationsTarget returns the assigned target, if any.
func (s *BlockState) InitialAttestationsTarget() (AttestationTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialAttestationsTarget == nil {
		return AttestationTarget{}, false
	}
	return *s.initialAttestationsTarget, true
}

// AddVerifiedAttestation records that signer attested block ancestorID,
// as observed at this (checkpoint) block. This is append-only: it grows
// the signer set for ancestorID, never removes from it.
func (s *BlockState) AddVerifiedAttestation(ancestorID types.BlockIdentifier, signer bkset.SignerIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signers, ok := s.verifiedAttestations[ancestorID]
	if !ok {
		signers = set.Set[bkset.SignerIndex]{}
		s.verifiedAttestations[ancestorID] = signers
	}
	signers.Add(signer)
}

// VerifiedAttestationsFor returns the signer set attesting ancestorID at
// this checkpoint, and whether any attestation has been recorded at all.
func (s *BlockState) VerifiedAttestationsFor(ancestorID types.BlockIdentifier) (set.Set[bkset.SignerIndex], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signers, ok := s.verifiedAttestations[ancestorID]
	return signers, ok
}

// SetResolvesForks assigns the fork resolutions this block carries,
// once.
func (s *BlockState) SetResolvesForks(resolutions []ForkResolutionRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolvesForks != nil {
		if !reflect.DeepEqual(s.resolvesForks, resolutions) {
			panic(fmt.Sprintf("blockstate: resolves_forks for %s already set, cannot reset", s.id))
		}
		return
	}
	s.resolvesForks = resolutions
}

// ResolvesForks returns the fork resolutions this block carries.
func (s *BlockState) ResolvesForks() []ForkResolutionRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvesForks
}

// MarkStored flags that this block has been durably persisted.
func (s *BlockState) MarkStored() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Stored = true
}

// MarkApplied flags that this block's state transition has been applied
// to produce an OptimisticState.
func (s *BlockState) MarkApplied() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Applied = true
}

// MarkFinalized flags this block finalized. Per invariant 3
// (finalized ∧ invalidated = ∅), marking a block invalidated after it
// was finalized is a programmer error.
func (s *BlockState) MarkFinalized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags.Invalidated {
		panic(fmt.Sprintf("blockstate: cannot finalize %s, already invalidated", s.id))
	}
	s.flags.Finalized = true
}

// MarkInvalidated flags this block invalidated.
func (s *BlockState) MarkInvalidated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flags.Finalized {
		panic(fmt.Sprintf("blockstate: cannot invalidate %s, already finalized", s.id))
	}
	s.flags.Invalidated = true
}

// MarkSignaturesVerified flags that this block's envelope signatures
// have been checked against its bk-set.
func (s *BlockState) MarkSignaturesVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.SignaturesVerified = true
}

// Flags returns a snapshot of this block's lifecycle flags.
func (s *BlockState) Flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// SetHasInitialAttestationsTargetMet records the attestation-target
// service's primary-path verdict for this block.
func (s *BlockState) SetHasInitialAttestationsTargetMet(met bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasInitialAttestationsTargetMet = met
}

// HasInitialAttestationsTargetMet reports the primary-path verdict.
func (s *BlockState) HasInitialAttestationsTargetMet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasInitialAttestationsTargetMet
}

// SetHasAttestationsTargetMetInAResolvedForkCase records the
// attestation-target service's fork-resolved secondary-path verdict.
func (s *BlockState) SetHasAttestationsTargetMetInAResolvedForkCase(met bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasAttestationsTargetMetInAResolvedForkCase = met
}

// HasAttestationsTargetMetInAResolvedForkCase reports the secondary-path
// verdict.
func (s *BlockState) HasAttestationsTargetMetInAResolvedForkCase() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasAttestationsTargetMetInAResolvedForkCase
}

// SetBlockStats assigns the block's observability counters, once; the
// all-zero BlockStats counts as unassigned.
func (s *BlockState) SetBlockStats(stats BlockStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blockStats != (BlockStats{}) && s.blockStats != stats {
		panic(fmt.Sprintf("blockstate: block_stats for %s already set, cannot reset", s.id))
	}
	s.blockStats = stats
}

// BlockStats returns the block's observability counters.
func (s *BlockState) BlockStats() BlockStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockStats
}

// persistedBlockState is the JSON-serializable projection of BlockState
// written to the durable store. Only thread, parent, seq_no, flags and
// stats are kept; bk-sets and signer sets are left out since *bkset.Set
// carries a mutex and cannot be marshaled directly.
type persistedBlockState struct {
	ThreadID  *uint32                `json:"thread_id,omitempty"`
	ParentID  *types.BlockIdentifier `json:"parent_id,omitempty"`
	SeqNo     *types.BlockSeqNo      `json:"seq_no,omitempty"`
	Flags     Flags                  `json:"flags"`
	Stats     BlockStats             `json:"stats"`
}
