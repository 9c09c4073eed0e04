// Package optimistic implements OptimisticState (component B): the
// in-memory snapshot of one thread's shard state that the builder
// applies a block against, plus a per-production-loop cache that
// persists selectively every save_state_frequency blocks.
package optimistic

import (
	"sync"

	"github.com/luxfi/ackinacki/types"
)

// Account is an opaque, hashable account record. Its internal layout
// (balance, code, data cells) is VM-owned and out of scope here; this
// module only needs to know an account's address and routing key to
// decide thread membership and to clone/merge state.
type Account struct {
	Address types.AccountAddress
	Routing types.AccountRouting
	// Root is an opaque, pre-serialized account state cell.
	Root []byte
}

// State is one thread's optimistic shard state at a given block.
type State struct {
	BlockID     types.BlockIdentifier
	ThreadID    types.ThreadIdentifier
	BlockInfo   BlockInfo

	accounts map[types.AccountAddress]Account

	// InternalQueue holds messages produced by this state's own
	// execution that have not yet been picked up by the next builder
	// iteration.
	InternalQueue []types.Message

	ThreadsTable  *types.ThreadsTable
	DappIDTable   map[types.AccountAddress]types.AccountAddress

	// ChangedAccounts lists accounts touched since this state's parent,
	// used to compute cross_thread_ref_data and changed_dapp_ids.
	ChangedAccounts map[types.AccountAddress]struct{}

	ThreadRefsState ThreadRefsState
}

// BlockInfo mirrors the header fields a block's post-production sealing
// stage stamps onto the resulting state.
type BlockInfo struct {
	GenUtime uint64
	StartLT  uint64
	EndLT    uint64
	RandSeed [32]byte
}

// ThreadRefsState tracks which cross-thread references this state has
// already folded in, so CanReference can refuse an inconsistent set of
// candidate references (e.g. one that double-counts a producing block).
type ThreadRefsState struct {
	folded map[types.BlockIdentifier]struct{}
}

// CanReference reports whether candidates can be folded into this
// state's references without conflict. It returns the filtered,
// consistent subset.
func (t *ThreadRefsState) CanReference(candidates []types.BlockIdentifier) ([]types.BlockIdentifier, bool) {
	if t.folded == nil {
		t.folded = make(map[types.BlockIdentifier]struct{})
	}
	out := make([]types.BlockIdentifier, 0, len(candidates))
	for _, c := range candidates {
		if _, seen := t.folded[c]; seen {
			continue
		}
		out = append(out, c)
	}
	return out, true
}

// Fold records that refs have now been incorporated into this state.
func (t *ThreadRefsState) Fold(refs []types.BlockIdentifier) {
	if t.folded == nil {
		t.folded = make(map[types.BlockIdentifier]struct{})
	}
	for _, r := range refs {
		t.folded[r] = struct{}{}
	}
}

// New returns an empty state for the genesis of thread.
func New(thread types.ThreadIdentifier, blockID types.BlockIdentifier) *State {
	return &State{
		BlockID:         blockID,
		ThreadID:        thread,
		accounts:        make(map[types.AccountAddress]Account),
		ThreadsTable:    types.NewThreadsTable(),
		DappIDTable:     make(map[types.AccountAddress]types.AccountAddress),
		ChangedAccounts: make(map[types.AccountAddress]struct{}),
	}
}

// Clone returns a deep copy suitable for handing to a reader: per spec,
// "snapshots handed out to readers are deep-clones" so the owning
// production thread can keep mutating its live copy concurrently.
func (s *State) Clone() *State {
	c := &State{
		BlockID:       s.BlockID,
		ThreadID:      s.ThreadID,
		BlockInfo:     s.BlockInfo,
		accounts:      make(map[types.AccountAddress]Account, len(s.accounts)),
		InternalQueue: append([]types.Message(nil), s.InternalQueue...),
		ThreadsTable:  s.ThreadsTable.Clone(),
		DappIDTable:   make(map[types.AccountAddress]types.AccountAddress, len(s.DappIDTable)),
		ChangedAccounts: make(map[types.AccountAddress]struct{}, len(s.ChangedAccounts)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.DappIDTable {
		c.DappIDTable[k] = v
	}
	for k := range s.ChangedAccounts {
		c.ChangedAccounts[k] = struct{}{}
	}
	if s.ThreadRefsState.folded != nil {
		c.ThreadRefsState.folded = make(map[types.BlockIdentifier]struct{}, len(s.ThreadRefsState.folded))
		for k := range s.ThreadRefsState.folded {
			c.ThreadRefsState.folded[k] = struct{}{}
		}
	}
	return c
}

// DoesAccountBelongToTheState reports whether addr routes to this
// state's thread under the current threads table, the guard the
// executor uses to drop foreign-destination messages.
func (s *State) DoesAccountBelongToTheState(addr types.AccountAddress, bits uint8) bool {
	routing := types.AccountRouting{Address: addr, Bits: bits}
	return s.ThreadsTable.Resolve(routing) == s.ThreadID
}

// Account returns the account at addr, if present in this snapshot.
func (s *State) Account(addr types.AccountAddress) (Account, bool) {
	a, ok := s.accounts[addr]
	return a, ok
}

// PutAccount installs or updates an account and marks it changed.
func (s *State) PutAccount(a Account) {
	s.accounts[a.Address] = a
	s.ChangedAccounts[a.Address] = struct{}{}
}

// InternalQueueLength returns the number of pending internal messages,
// the raw signal the load-balancing decider samples per block.
func (s *State) InternalQueueLength() int {
	return len(s.InternalQueue)
}

// Cache owns the production loop's in-memory optimistic states and
// decides, per spec.md's save_state_frequency, which ones also need to
// be persisted to the blob-sync collaborator (out of scope: only the
// decision of *when* to persist lives here).
type Cache struct {
	mu                sync.RWMutex
	saveStateFrequency uint64
	states            map[types.BlockIdentifier]*State
	latest            *State
}

// NewCache returns a cache that persists every saveStateFrequency
// blocks (0 disables selective persistence — every block is a
// candidate).
func NewCache(saveStateFrequency uint64) *Cache {
	return &Cache{
		saveStateFrequency: saveStateFrequency,
		states:             make(map[types.BlockIdentifier]*State),
	}
}

// Put installs a newly-produced state as the cache's latest, keyed by
// its block id.
func (c *Cache) Put(state *State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[state.BlockID] = state
	c.latest = state
}

// Get returns a cached state by block id.
func (c *Cache) Get(id types.BlockIdentifier) (*State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.states[id]
	return s, ok
}

// Latest returns the most recently produced state, if any.
func (c *Cache) Latest() (*State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return nil, false
	}
	return c.latest, true
}

// MustSaveStateOnSeqNo reports whether a block at seqNo is a selective
// persistence point.
func (c *Cache) MustSaveStateOnSeqNo(seqNo types.BlockSeqNo) bool {
	if c.saveStateFrequency == 0 {
		return true
	}
	return uint64(seqNo)%c.saveStateFrequency == 0
}
