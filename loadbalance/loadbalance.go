// Package loadbalance implements the load-balancing decider (component
// G): a per-thread windowed load aggregator that recommends splitting an
// overloaded thread or collapsing two underloaded siblings.
package loadbalance

import (
	"fmt"

	"github.com/luxfi/ackinacki/types"
)

// InThreadAccountsLoad samples per-account activity within one thread's
// window slot, used to pick a balanced split bitmask.
type InThreadAccountsLoad map[types.AccountAddress]uint64

// Sample is one window slot: the internal-queue backlog plus that
// block's per-account activity.
type Sample struct {
	InternalQueueLength int
	Accounts            InThreadAccountsLoad
}

// AggregatedLoad is the O(1)-maintained sum over the current window.
type AggregatedLoad struct {
	InternalQueueLength int
	Accounts            InThreadAccountsLoad
}

func newAggregatedLoad() AggregatedLoad {
	return AggregatedLoad{Accounts: make(InThreadAccountsLoad)}
}

func (a *AggregatedLoad) add(s Sample) {
	a.InternalQueueLength += s.InternalQueueLength
	for addr, load := range s.Accounts {
		a.Accounts[addr] += load
	}
}

func (a *AggregatedLoad) subtract(s Sample) {
	a.InternalQueueLength -= s.InternalQueueLength
	for addr, load := range s.Accounts {
		a.Accounts[addr] -= load
		if a.Accounts[addr] == 0 {
			delete(a.Accounts, addr)
		}
	}
}

// Load is the scalar the decider compares against thread_load_threshold.
func (a AggregatedLoad) Load() uint64 {
	return uint64(a.InternalQueueLength)
}

// bestSplit sums this window's accumulated per-account activity into the
// two halves a split on the next routing bit (depth currentBits+1) would
// create: left for bit 0, right for bit 1.
func (a AggregatedLoad) bestSplit(currentBits uint8) (left, right uint64) {
	for addr, load := range a.Accounts {
		routing := types.AccountRouting{Address: addr, Bits: currentBits + 1}
		mask := routing.Mask()
		if mask&1 == 0 {
			left += load
		} else {
			right += load
		}
	}
	return left, right
}

// Decision is the decider's verdict for one thread at one block.
type Decision uint8

const (
	ContinueAsIs Decision = iota
	Split
	Collapse
)

func (d Decision) String() string {
	switch d {
	case Split:
		return "Split"
	case Collapse:
		return "Collapse"
	default:
		return "ContinueAsIs"
	}
}

// Window is a per-thread ring buffer of window_size samples.
type Window struct {
	threshold     uint64
	softLimit     int
	size          int
	samples       []Sample
	next          int
	filled        bool
	aggregated    AggregatedLoad
}

// NewWindow returns an empty window of windowSize slots.
func NewWindow(windowSize int, threshold uint64, softLimit int) *Window {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Window{
		threshold:  threshold,
		softLimit:  softLimit,
		size:       windowSize,
		samples:    make([]Sample, windowSize),
		aggregated: newAggregatedLoad(),
	}
}

// Shift evicts the oldest sample and adds fresh, in O(1). Evicting a
// zero-valued slot (the window's initial state) is harmless.
func (w *Window) Shift(sample Sample) {
	evicted := w.samples[w.next]
	w.aggregated.subtract(evicted)
	w.aggregated.add(sample)
	w.samples[w.next] = sample
	w.next = (w.next + 1) % w.size
	if w.next == 0 {
		w.filled = true
	}
}

// IsReady reports whether the window has filled at least once.
func (w *Window) IsReady() bool {
	return w.filled
}

// Check answers the decider's contract: check(block_id, thread_id,
// threads_table_in_effect, soft_limit) -> Decision. The live thread
// count compared against soft_limit is the number of distinct threads in
// threadsTable; siblingLoad, when non-nil, is the aggregated load of this thread's
// sibling (required to evaluate a Collapse).
func (w *Window) Check(threadID types.ThreadIdentifier, threadsTable *types.ThreadsTable, siblingLoad *AggregatedLoad) (Decision, *types.ThreadsTable, error) {
	found := false
	for _, t := range threadsTable.Threads() {
		if t == threadID {
			found = true
			break
		}
	}
	if !found {
		panic(fmt.Sprintf("loadbalance: thread %s is not in the threads table", threadID))
	}

	if !w.IsReady() {
		return ContinueAsIs, nil, types.ErrStatsAreNotReady
	}

	liveThreadCount := len(threadsTable.Threads())

	if w.aggregated.Load() > w.threshold && liveThreadCount < w.softLimit {
		left, right := w.aggregated.bestSplit(threadsTable.Bits())
		a := types.NewThreadIdentifier(threadID.Tag()*2 + 1)
		b := types.NewThreadIdentifier(threadID.Tag()*2 + 2)
		// bestSplit's heavier half always becomes the lower-numbered
		// thread id, so the split decision is deterministic regardless of
		// which accounts happened to land on which side of the new bit.
		leftThread, rightThread := a, b
		if right > left {
			leftThread, rightThread = b, a
		}
		proposed := threadsTable.Split(threadID, leftThread, rightThread)
		return Split, proposed, nil
	}

	if siblingLoad != nil {
		combined := w.aggregated.Load() + siblingLoad.Load()
		if combined <= w.threshold {
			return Collapse, nil, nil
		}
	}

	return ContinueAsIs, nil, nil
}
