// Package xthread implements CrossThreadRefData: the per-block record of
// outbound messages routed to other threads, keyed by producing block id
// and persisted append-only (spec.md §6: "never rewritten, append-only").
package xthread

import (
	"fmt"
	"sync"

	"github.com/luxfi/ackinacki/types"
)

// RefData is one producing block's outbound cross-thread messages,
// partitioned by destination thread.
type RefData struct {
	ProducingBlockID types.BlockIdentifier
	ProducingThread  types.ThreadIdentifier
	// ForwardThreadsTable is set when the producing block also changed
	// thread topology, so a consuming thread can hydrate its own
	// threads table consistently.
	ForwardThreadsTable *types.ThreadsTable

	Outbound map[types.ThreadIdentifier][]types.Message
}

// Store is the append-only, producing-block-id-keyed store of RefData.
// Writes are rejected if the key already exists, enforcing the
// never-rewritten invariant.
type Store struct {
	mu      sync.RWMutex
	entries map[types.BlockIdentifier]RefData
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[types.BlockIdentifier]RefData)}
}

// Append records ref data for a newly-produced block. It is an error to
// append twice for the same producing block id.
func (s *Store) Append(ref RefData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[ref.ProducingBlockID]; exists {
		return fmt.Errorf("xthread: ref data for block %s already recorded, store is append-only", ref.ProducingBlockID)
	}
	s.entries[ref.ProducingBlockID] = ref
	return nil
}

// Get returns the ref data recorded for a producing block id.
func (s *Store) Get(id types.BlockIdentifier) (RefData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.entries[id]
	return ref, ok
}

// ForThread returns every message in ref routed to thread.
func (ref RefData) ForThread(thread types.ThreadIdentifier) []types.Message {
	return ref.Outbound[thread]
}

// CandidatesForThread scans the given producing blocks that are
// recorded in the store for messages destined to thread, used by the
// production loop to compute the refs a builder iteration should fold
// in. The caller is expected to already know which producing blocks are
// new since its last iteration; this helper exists to keep that
// filtering logic in one place for testing.
func (s *Store) CandidatesForThread(producingBlocks []types.BlockIdentifier, thread types.ThreadIdentifier) []RefData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RefData, 0, len(producingBlocks))
	for _, id := range producingBlocks {
		ref, ok := s.entries[id]
		if !ok {
			continue
		}
		if len(ref.ForThread(thread)) == 0 {
			continue
		}
		out = append(out, ref)
	}
	return out
}
