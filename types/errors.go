package types

import "errors"

// Sentinel errors grouped by the taxonomy in the node's error-handling
// design: transient I/O, input validation, state-not-ready, protocol
// violation, and external-subsystem. Programmer-error conditions do not
// get sentinels here — they panic at the call site instead.

// Transient I/O: log at debug and retry on the next iteration.
var (
	ErrLockContention = errors.New("types: lock contention, retry")
	ErrDiskRetry      = errors.New("types: disk I/O transient failure, retry")
)

// Input validation: reject the offending item and continue.
var (
	ErrMalformedBlockID   = errors.New("types: malformed block identifier")
	ErrDestinationNotOwned = errors.New("types: message destination does not belong to the current thread")
)

// State not ready: no-op, re-evaluate once the repository is touched
// again.
var (
	ErrStatsAreNotReady          = errors.New("types: aggregated load window is not yet full")
	ErrAttestationsAreNotVerifiedYet = errors.New("types: checkpoint has no verified attestations for this block yet")
	ErrChainIsTooShort           = errors.New("types: ancestor chain does not yet reach the checkpoint depth")
	ErrIncompleteHistory         = errors.New("types: ancestor chain history is incomplete")
	ErrFailedToLoadBlockState    = errors.New("types: failed to load block state")
	ErrNotAllInitialAttestationTargetsSet = errors.New("types: block has no initial attestations target assigned yet")
	ErrInitialAttestationsTargetIsNotMetResolvesFork = errors.New("types: speculative attestations target is only met via an unconfirmed fork resolution")
)

// Protocol violation: invalidate the whole affected chain.
var (
	ErrBlockSeqNoCutoff = errors.New("types: chain references a block older than the last finalized seq no")
	ErrInvalidatedParent = errors.New("types: parent block is invalidated")
	ErrInvalidBlockTailDoesNotMeetCriteria = errors.New("types: tail does not meet ancestor's attestation criteria")
	ErrEnvelopeMergeFailed = errors.New("types: BLS envelope merge failed on a supposedly-verified envelope")
)

// External subsystem: propagate as fatal; the node process exits
// non-zero.
var ErrExternalSubsystemTerminated = errors.New("types: external subsystem terminated")
