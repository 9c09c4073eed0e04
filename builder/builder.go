// Package builder implements the block builder (component E): given a
// parent optimistic state, a queue of external messages, and the active
// bk-set, it executes every pending queue through the parallel executor
// and seals the result into a PreparedBlock.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/block"
	"github.com/luxfi/ackinacki/executor"
	"github.com/luxfi/ackinacki/loadbalance"
	"github.com/luxfi/ackinacki/metrics"
	"github.com/luxfi/ackinacki/optimistic"
	"github.com/luxfi/ackinacki/types"
	"github.com/luxfi/ackinacki/utils/wrappers"
	"github.com/luxfi/ackinacki/xthread"
)

// BlockchainConfig carries the subset of node configuration the builder
// consults directly; the production loop supplies the rest (timeouts).
type BlockchainConfig struct {
	ParallelizationLevel int
	EpochTouchExpireSecs uint64
}

// PreparedBlock is everything one builder iteration produces, handed
// back to the production loop for sealing into a wire block and commit.
type PreparedBlock struct {
	Block               *block.AckiNackiBlock
	State               *optimistic.State
	IsEmpty             bool
	TransactionTraces   [][]byte
	ActiveThreads       []PendingMessage
	TxCount             uint64
	BlockKeeperSetChanges []bkset.Change
	CrossThreadRefData  xthread.RefData
	ChangedDappIDs      []types.AccountAddress
	ForwardedMessages   []types.Message
	RemainFees          uint64
	LoadBalanceDecision loadbalance.Decision
	ProducedThreadsTable *types.ThreadsTable
}

// PendingMessage is a queued-but-not-yet-executed message carried over
// to the next builder iteration when the iteration is cut short by a
// stop signal.
type PendingMessage struct {
	Message   types.Message
	AccountID types.AccountAddress
}

// Feedback is a processing-progress signal returned to the production
// loop, e.g. to advance the external-message cursor.
type Feedback struct {
	ProcessedExtMsgCount int
}

// Builder executes queues against a parent state using a parallel
// executor pool.
type Builder struct {
	vm  executor.VM
	cfg BlockchainConfig
	log log.Logger

	txCounter     metrics.Counter
	inFlightGauge metrics.Gauge
	buildLatency  metrics.Averager
}

// New returns a Builder dispatching executions to vm. It owns its own
// prometheus registry for the build-latency averager rather than
// accepting one from the caller, since a single builder instance is
// never shared across subnets in this design.
func New(vm executor.VM, cfg BlockchainConfig, logger log.Logger) *Builder {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	var errs wrappers.Errs
	latency := m.NewAverager("builder_block_latency_seconds", "block build duration in seconds", &errs)
	if errs.Errored() {
		logger.Error("builder: failed to register metrics", "error", errs.Err().Error())
	}
	return &Builder{
		vm:            vm,
		cfg:           cfg,
		log:           logger,
		txCounter:     metrics.NewCounter(),
		inFlightGauge: metrics.NewGauge(),
		buildLatency:  latency,
	}
}

// Observed exposes the builder's running totals: how many transactions
// it has executed across every iteration, the executor pool's
// in-flight count at the end of the most recent one, and the average
// BuildBlock wall-clock duration in seconds.
func (b *Builder) Observed() (executed int64, lastInFlight float64, avgBuildSeconds float64) {
	return b.txCounter.Read(), b.inFlightGauge.Read(), b.buildLatency.Read()
}

// BuildBlock runs the five build stages in order: slash preprocessing,
// pre-processing, queue execution, post-production sealing, and the
// load-balancing step. stopCh, when closed, ends queue draining early;
// whatever remains queued is returned as ActiveThreads for the next
// iteration.
func (b *Builder) BuildBlock(
	ctx context.Context,
	seqNo types.BlockSeqNo,
	blockID types.BlockIdentifier,
	parent *optimistic.State,
	extQueue []types.Message,
	activeFromPrevIteration []PendingMessage,
	epochBKData []bkset.BlockKeeperData,
	refCandidates []xthread.RefData,
	lb *loadbalance.Window,
	threadsTable *types.ThreadsTable,
	slashNacks []SlashSource,
	stopCh <-chan struct{},
) (*PreparedBlock, Feedback, error) {
	start := time.Now()
	defer func() { b.buildLatency.Observe(time.Since(start).Seconds()) }()

	state := parent.Clone()

	// Stage 1: slash preprocessing.
	slashWhitelist := make(map[[32]byte]struct{}, len(slashNacks))
	slashQueue := make([]types.Message, 0, len(slashNacks))
	for _, n := range slashNacks {
		msg := synthesizeSlashMessage(n)
		slashWhitelist[msg.Hash()] = struct{}{}
		slashQueue = append(slashQueue, msg)
	}

	// Stage 2: pre-processing — fold cross-thread refs into state.
	forwarded := make([]types.Message, 0)
	refs := make([]types.BlockIdentifier, 0, len(refCandidates))
	for _, ref := range refCandidates {
		accepted, ok := state.ThreadRefsState.CanReference([]types.BlockIdentifier{ref.ProducingBlockID})
		if !ok || len(accepted) == 0 {
			continue
		}
		state.ThreadRefsState.Fold(accepted)
		forwarded = append(forwarded, ref.ForThread(state.ThreadID)...)
		refs = append(refs, accepted...)
	}

	pendingQueue := make([]PendingMessage, 0, len(extQueue)+len(activeFromPrevIteration)+len(slashQueue)+len(forwarded))
	for _, m := range activeFromPrevIteration {
		pendingQueue = append(pendingQueue, m)
	}
	for _, m := range slashQueue {
		pendingQueue = append(pendingQueue, PendingMessage{Message: m, AccountID: m.Dst})
	}
	for _, m := range forwarded {
		pendingQueue = append(pendingQueue, PendingMessage{Message: m, AccountID: m.Dst})
	}
	processedExt := 0
	for _, m := range extQueue {
		pendingQueue = append(pendingQueue, PendingMessage{Message: m, AccountID: m.Dst})
	}

	// Epoch-touch queue: one touch message per active block keeper,
	// targeting its epoch wallet address.
	now := uint64(time.Now().Unix())
	for _, bk := range epochBKData {
		touchDst := epochWalletAddress(bk)
		if !state.DoesAccountBelongToTheState(touchDst, state.ThreadsTable.Bits()) {
			continue
		}
		msg := types.Message{Dst: touchDst, Kind: types.Internal, Body: []byte(fmt.Sprintf("touch:expire=%d", now+b.cfg.EpochTouchExpireSecs))}
		pendingQueue = append(pendingQueue, PendingMessage{Message: msg, AccountID: touchDst})
	}

	// DApp-config-touch queue: one touch per DappIDTable account whose
	// state cell (Root) is non-empty; minted-shell amounts are not
	// tracked in the state, so accountMintedShell checks only Root.
	for addr, dappID := range state.DappIDTable {
		acct, ok := state.Account(addr)
		if !ok || !accountMintedShell(acct) {
			continue
		}
		configAddr := dappConfigAddress(dappID)
		msg := types.Message{Dst: configAddr, Kind: types.Internal, Body: []byte("touch:dapp-config")}
		pendingQueue = append(pendingQueue, PendingMessage{Message: msg, AccountID: configAddr})
	}

	// Stage 3: execute queues through the parallel executor pool.
	pool := executor.NewPool(b.vm, b.cfg.ParallelizationLevel, b.log)
	traces, txCount, remaining, err := drainQueue(ctx, pool, pendingQueue, state, stopCh)
	if err != nil {
		return nil, Feedback{}, fmt.Errorf("builder: %w", err)
	}
	processedExt = len(extQueue) - countRemainingFrom(remaining, extQueue)
	b.txCounter.Add(int64(txCount))
	b.inFlightGauge.Set(float64(len(remaining)))

	// Stage 4: post-production sealing.
	refData := xthread.RefData{
		ProducingThread: state.ThreadID,
		Outbound:        map[types.ThreadIdentifier][]types.Message{},
	}

	seenDapps := make(map[types.AccountAddress]struct{}, len(state.ChangedAccounts))
	changedDapps := make([]types.AccountAddress, 0, len(state.ChangedAccounts))
	for addr := range state.ChangedAccounts {
		dappID, ok := state.DappIDTable[addr]
		if !ok {
			continue
		}
		if _, seen := seenDapps[dappID]; seen {
			continue
		}
		seenDapps[dappID] = struct{}{}
		changedDapps = append(changedDapps, dappID)
	}

	sealed := block.NewAckiNackiBlock(state.ThreadID, seqNo, blockID, parent.BlockID, nil)
	sealed.SetGenUtime(time.Unix(int64(now), 0))
	sealed.TxCount = txCount
	sealed.Refs = refs
	sealed.ChangedDappIDs = changedDapps

	prepared := &PreparedBlock{
		Block:                 sealed,
		State:                 state,
		IsEmpty:               txCount == 0,
		TransactionTraces:     traces,
		ActiveThreads:         remaining,
		TxCount:               txCount,
		ChangedDappIDs:        changedDapps,
		CrossThreadRefData:    refData,
		RemainFees:            0,
	}

	// Stage 5: load-balancing step.
	if lb != nil && threadsTable != nil {
		decision, proposed, lbErr := lb.Check(state.ThreadID, threadsTable, nil)
		if lbErr == nil {
			prepared.LoadBalanceDecision = decision
			if decision != loadbalance.ContinueAsIs {
				prepared.ProducedThreadsTable = proposed
				prepared.CrossThreadRefData.ForwardThreadsTable = proposed
				sealed.ForwardThreadsTable = proposed
			}
		} else {
			prepared.LoadBalanceDecision = loadbalance.ContinueAsIs
		}
	}

	return prepared, Feedback{ProcessedExtMsgCount: processedExt}, nil
}

// SlashSource is the minimal shape the slash-preprocessing stage reads
// from a NACK to synthesize a slash external-in message.
type SlashSource struct {
	NodeID    [20]byte
	PublicKey []byte
	Address   types.AccountAddress
}

func synthesizeSlashMessage(n SlashSource) types.Message {
	return types.Message{
		Dst:  n.Address,
		Kind: types.ExternalIn,
		Body: append([]byte("slash:"), n.PublicKey...),
	}
}

func epochWalletAddress(bk bkset.BlockKeeperData) types.AccountAddress {
	var addr types.AccountAddress
	copy(addr[:], bk.NodeID[:])
	return addr
}

func dappConfigAddress(dappID types.AccountAddress) types.AccountAddress {
	var addr types.AccountAddress
	copy(addr[:], dappID[:])
	addr[31] ^= 0xFF
	return addr
}

func accountMintedShell(a optimistic.Account) bool {
	return len(a.Root) > 0
}

func drainQueue(ctx context.Context, pool *executor.Pool, queue []PendingMessage, state *optimistic.State, stopCh <-chan struct{}) ([][]byte, uint64, []PendingMessage, error) {
	var traces [][]byte
	var txCount uint64
	var inFlight []*executor.Thread
	var inFlightMsg []PendingMessage
	i := 0

	for {
		select {
		case <-stopCh:
			return traces, txCount, drainRemaining(pool, queue[i:], inFlight, inFlightMsg), nil
		default:
		}

		progressed := false

		for i < len(queue) && pool.HasCapacity() {
			next := queue[i]
			if !state.DoesAccountBelongToTheState(next.AccountID, state.ThreadsTable.Bits()) {
				i++
				progressed = true
				continue
			}
			if pool.IsAccountActive(next.AccountID) {
				// Head-of-line blocking: stop filling until this account frees up.
				break
			}
			th, err := pool.Dispatch(ctx, next.Message, next.AccountID, 0, 0, true)
			if err != nil {
				i++
				continue
			}
			inFlight = append(inFlight, th)
			inFlightMsg = append(inFlightMsg, next)
			i++
			progressed = true
		}

		remainingThreads := inFlight[:0]
		remainingMsgs := inFlightMsg[:0]
		for idx, th := range inFlight {
			if result, ok := th.TryResult(); ok {
				pool.Release(th.AccountID)
				if result.Err == nil {
					traces = append(traces, result.Trace)
					txCount++
				}
				progressed = true
			} else {
				remainingThreads = append(remainingThreads, th)
				remainingMsgs = append(remainingMsgs, inFlightMsg[idx])
			}
		}
		inFlight = remainingThreads
		inFlightMsg = remainingMsgs

		if i >= len(queue) && len(inFlight) == 0 {
			return traces, txCount, nil, nil
		}
		if !progressed {
			time.Sleep(time.Millisecond)
		}
	}
}

func drainRemaining(pool *executor.Pool, queued []PendingMessage, inFlight []*executor.Thread, inFlightMsg []PendingMessage) []PendingMessage {
	remaining := append([]PendingMessage(nil), queued...)
	for i, th := range inFlight {
		th.Result()
		pool.Release(th.AccountID)
		remaining = append(remaining, inFlightMsg[i])
	}
	return remaining
}

func countRemainingFrom(remaining []PendingMessage, extQueue []types.Message) int {
	extHashes := make(map[[32]byte]struct{}, len(extQueue))
	for _, m := range extQueue {
		extHashes[m.Hash()] = struct{}{}
	}
	count := 0
	for _, r := range remaining {
		if _, ok := extHashes[r.Message.Hash()]; ok {
			count++
		}
	}
	return count
}
