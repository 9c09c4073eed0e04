// Package producer implements the production loop (component F): one
// loop per thread that drains pending inputs, aggregates BLS
// acks/nacks, launches the block builder under a timeout, commits the
// result, and feeds a timing-correction controller so the loop tracks
// its desired cadence under variable build latency.
package producer

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/ackinacki/api/health"
	"github.com/luxfi/ackinacki/blockstate"
	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/builder"
	"github.com/luxfi/ackinacki/envelope"
	"github.com/luxfi/ackinacki/loadbalance"
	"github.com/luxfi/ackinacki/optimistic"
	"github.com/luxfi/ackinacki/types"
	"github.com/luxfi/ackinacki/utils"
	"github.com/luxfi/ackinacki/xthread"
)

// ExternalMessageSource is the boundary collaborator supplying pending
// external messages for a thread; the wire/transport layer that fills it
// is out of scope.
type ExternalMessageSource interface {
	GetRemainingExternalMessages(parentBlockID types.BlockIdentifier) []types.Message
}

// Inputs bundles the shared buffers a production loop drains each
// iteration without blocking. drain is expected to clear the underlying
// ack/nack buffers under its own lock before returning, so no message is
// double-processed by a concurrent iteration.
type Inputs struct {
	Externals ExternalMessageSource
	drain     func() ([]envelope.AckEnvelope, []envelope.NackEnvelope)
}

// NewInputs wires drain as the function draining and clearing the
// shared ack/nack buffers under the owning lock.
func NewInputs(externals ExternalMessageSource, drain func() ([]envelope.AckEnvelope, []envelope.NackEnvelope)) *Inputs {
	return &Inputs{Externals: externals, drain: drain}
}

// Loop is one thread's production loop.
type Loop struct {
	thread   types.ThreadIdentifier
	builder  *builder.Builder
	repo     *blockstate.Repository
	cache    *optimistic.Cache
	xrefs    *xthread.Store
	inputs   *Inputs
	lbWindow *loadbalance.Window
	log      log.Logger

	desiredTimeout time.Duration
	correction     *TimeoutCorrection

	lastAcksByBlock  map[types.BlockIdentifier]envelope.AckEnvelope
	lastNacksByBlock map[types.BlockIdentifier]envelope.NackEnvelope

	externalCursor int
	nextSeqNo      types.BlockSeqNo

	// lastIterationHealthy/lastIterationErrMsg/lastIterationDuration are
	// read by HealthCheck, which a health-reporting goroutine may call
	// concurrently with ProduceNext; they're kept on atomics rather than
	// under the loop's (nonexistent) own mutex for that reason.
	lastIterationHealthy  *utils.AtomicBool
	lastIterationErrMsg   *utils.Atomic[string]
	lastIterationDuration *utils.AtomicDuration
}

// HealthCheck satisfies health.Checker: a thread's production loop is
// healthy as long as its most recent iteration committed without error.
func (l *Loop) HealthCheck(ctx context.Context) (interface{}, error) {
	healthy := l.lastIterationHealthy.Get()
	lastMs := l.lastIterationDuration.Get().Milliseconds()
	report := health.Health{
		Healthy: healthy,
		Details: map[string]interface{}{
			"thread":            l.thread.String(),
			"last_iteration_ms": lastMs,
			"next_seq_no":       uint64(l.nextSeqNo),
		},
	}
	if !healthy {
		return report, fmt.Errorf("producer: %s", l.lastIterationErrMsg.Get())
	}
	return report, nil
}

var _ health.Checker = (*Loop)(nil)

// New returns a production loop for thread, seeded with parent's
// optimistic state already installed in cache.
func New(thread types.ThreadIdentifier, b *builder.Builder, repo *blockstate.Repository, cache *optimistic.Cache, xrefs *xthread.Store, inputs *Inputs, lbWindow *loadbalance.Window, desiredTimeout time.Duration, logger log.Logger) *Loop {
	return &Loop{
		thread:           thread,
		builder:          b,
		repo:             repo,
		cache:            cache,
		xrefs:            xrefs,
		inputs:           inputs,
		lbWindow:         lbWindow,
		log:              logger,
		desiredTimeout:   desiredTimeout,
		correction:       NewTimeoutCorrection(desiredTimeout),
		lastAcksByBlock:  make(map[types.BlockIdentifier]envelope.AckEnvelope),
		lastNacksByBlock: make(map[types.BlockIdentifier]envelope.NackEnvelope),
		// Seq no 0 belongs to the thread's genesis block, which exists
		// before any production loop iteration runs; the first produced
		// block is seq_no 1.
		nextSeqNo:             1,
		lastIterationHealthy:  utils.NewAtomicBool(true),
		lastIterationErrMsg:   utils.NewAtomic[string](""),
		lastIterationDuration: utils.NewAtomicDuration(0),
	}
}

// IterationResult is what one ProduceNext call commits.
type IterationResult struct {
	State          *optimistic.State
	Prepared       *builder.PreparedBlock
	ProductionTime time.Duration
	Skipped        bool
}

// ProduceNext runs one production iteration: drain, aggregate, build
// under a corrected timeout, commit, and feed the timing controller.
func (l *Loop) ProduceNext(ctx context.Context, threadsTable *types.ThreadsTable, epochBKData []bkset.BlockKeeperData, producingBlocks []types.BlockIdentifier) (IterationResult, error) {
	parent, ok := l.cache.Latest()
	if !ok {
		parent = optimistic.New(l.thread, types.EmptyBlockIdentifier)
	}

	// 1. Drain inputs without blocking.
	var extMsgs []types.Message
	if l.inputs.Externals != nil {
		extMsgs = l.inputs.Externals.GetRemainingExternalMessages(parent.BlockID)
	}
	var acks []envelope.AckEnvelope
	var nacks []envelope.NackEnvelope
	if l.inputs.drain != nil {
		acks, nacks = l.inputs.drain()
	}

	// 2. Aggregate acks/nacks per block id, idempotent fold.
	for _, a := range acks {
		if prior, ok := l.lastAcksByBlock[a.BlockID]; ok {
			merged, err := envelope.MergeAcks(prior, a)
			if err != nil {
				return IterationResult{}, err
			}
			l.lastAcksByBlock[a.BlockID] = merged
		} else {
			l.lastAcksByBlock[a.BlockID] = a
		}
	}
	for _, n := range nacks {
		if prior, ok := l.lastNacksByBlock[n.BlockID]; ok {
			merged, err := envelope.MergeNacks(prior, n)
			if err != nil {
				return IterationResult{}, err
			}
			l.lastNacksByBlock[n.BlockID] = merged
		} else {
			l.lastNacksByBlock[n.BlockID] = n
		}
	}

	// 3. Compute cross-thread refs for this thread.
	refs := l.xrefs.CandidatesForThread(producingBlocks, l.thread)

	// 4. Launch builder with a per-iteration stop control channel.
	stopCh := make(chan struct{})
	corrected := l.correction.CorrectedTimeout()
	timer := time.AfterFunc(corrected, func() { close(stopCh) })
	defer timer.Stop()

	start := time.Now()
	slashSources := make([]builder.SlashSource, 0, len(l.lastNacksByBlock))
	for _, n := range l.lastNacksByBlock {
		for range n.Signers() {
			slashSources = append(slashSources, builder.SlashSource{})
		}
	}

	seqNo := l.nextSeqNo
	blockID := types.NewBlockIdentifier(deriveBlockID(l.thread, parent.BlockID, seqNo))

	prepared, feedback, err := l.builder.BuildBlock(ctx, seqNo, blockID, parent, extMsgs, nil, epochBKData, refs, l.lbWindow, threadsTable, slashSources, stopCh)
	productionTime := time.Since(start)
	l.lastIterationDuration.Set(productionTime)
	l.recordIterationOutcome(err)
	if err != nil {
		l.correction.Feed(productionTime)
		return IterationResult{ProductionTime: productionTime}, err
	}

	select {
	case <-ctx.Done():
		return IterationResult{Skipped: true, ProductionTime: productionTime}, ctx.Err()
	default:
	}

	// 6. Merge common section: fold the aggregated acks/nacks onto the
	// sealed block before it is committed.
	if prepared.Block != nil {
		prepared.Block.Common.Acks = make([]envelope.AckEnvelope, 0, len(l.lastAcksByBlock))
		for _, a := range l.lastAcksByBlock {
			prepared.Block.Common.Acks = append(prepared.Block.Common.Acks, a)
		}
		prepared.Block.Common.Nacks = make([]envelope.NackEnvelope, 0, len(l.lastNacksByBlock))
		for _, n := range l.lastNacksByBlock {
			prepared.Block.Common.Nacks = append(prepared.Block.Common.Nacks, n)
		}
		prepared.Block.Common.BlockKeeperSetChanges = prepared.BlockKeeperSetChanges
	}

	// 7. Commit.
	l.nextSeqNo = l.nextSeqNo.Next()
	state := l.repo.Touch(blockID)
	state.SetThreadID(l.thread)
	state.SetParentID(parent.BlockID)
	state.SetSeqNo(seqNo)

	prepared.State.BlockID = blockID
	l.cache.Put(prepared.State)

	if l.cache.MustSaveStateOnSeqNo(seqNo) {
		if err := l.repo.Persist(state); err != nil && l.log != nil {
			l.log.Warn("producer: failed to persist block state", "thread", l.thread.String(), "error", err.Error())
		}
	}

	if err := l.xrefs.Append(xthread.RefData{
		ProducingBlockID:    blockID,
		ProducingThread:     l.thread,
		ForwardThreadsTable: prepared.ProducedThreadsTable,
		Outbound:            prepared.CrossThreadRefData.Outbound,
	}); err != nil {
		l.recordIterationOutcome(err)
		return IterationResult{}, err
	}

	l.externalCursor += feedback.ProcessedExtMsgCount

	// 8. Timing feedback.
	l.correction.Feed(productionTime)
	remainder := corrected - productionTime
	if remainder > 0 {
		time.Sleep(remainder)
	}

	l.recordIterationOutcome(nil)
	return IterationResult{State: prepared.State, Prepared: prepared, ProductionTime: productionTime}, nil
}

// recordIterationOutcome updates the atomics HealthCheck reads, called
// from every ProduceNext exit path so health reporting never lags a
// committed or failed iteration.
func (l *Loop) recordIterationOutcome(err error) {
	if err == nil {
		l.lastIterationHealthy.Set(true)
		l.lastIterationErrMsg.Set("")
		return
	}
	l.lastIterationHealthy.Set(false)
	l.lastIterationErrMsg.Set(err.Error())
}

// deriveBlockID stands in for the real node's content-addressed block
// id (a hash of the sealed block's wire bytes, out of scope here): it
// hashes the thread, parent, and seq_no, which is enough to keep every
// block a thread produces uniquely identified across a single run.
func deriveBlockID(thread types.ThreadIdentifier, parent types.BlockIdentifier, seqNo types.BlockSeqNo) (out [32]byte) {
	h := sha256.New()
	var tagBuf [4]byte
	binary.BigEndian.PutUint32(tagBuf[:], thread.Tag())
	h.Write(tagBuf[:])
	h.Write(parent.Bytes())
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], uint64(seqNo))
	h.Write(seqBuf[:])
	copy(out[:], h.Sum(nil))
	return out
}
