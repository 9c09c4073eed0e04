package blockstate

import (
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/luxfi/ackinacki/codec"
	"github.com/luxfi/ackinacki/types"
)

// Repository is the file-backed map of BlockIdentifier -> BlockState.
// Entries are created on first touch and never removed; per-entry
// mutation is guarded by the entry's own mutex so independent blocks can
// be updated in parallel, matching the teacher's chains/atomic pattern
// of a coarse map mutex protecting only map membership, not per-entry
// contents.
type Repository struct {
	mu      sync.RWMutex
	entries map[types.BlockIdentifier]*BlockState
	// children indexes parent -> direct children, to let ancestor-chain
	// walks move forward without a full scan.
	children map[types.BlockIdentifier][]types.BlockIdentifier

	db  database.Database
	log log.Logger
}

// NewRepository returns a repository backed by db for durable storage of
// block-state snapshots.
func NewRepository(db database.Database, logger log.Logger) *Repository {
	return &Repository{
		entries:  make(map[types.BlockIdentifier]*BlockState),
		children: make(map[types.BlockIdentifier][]types.BlockIdentifier),
		db:       db,
		log:      logger,
	}
}

// Touch returns the BlockState for id, creating an empty one on first
// observation. This is the repository's only entry point for obtaining
// a mutable handle; callers then use BlockState's Set*/Mark* methods.
func (r *Repository) Touch(id types.BlockIdentifier) *BlockState {
	r.mu.RLock()
	if state, ok := r.entries[id]; ok {
		r.mu.RUnlock()
		return state
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.entries[id]; ok {
		return state
	}
	state := newBlockState(id)
	r.entries[id] = state
	return state
}

// Link records that child's parent is parent, used to populate the
// children index as blocks are observed.
func (r *Repository) Link(parent, child types.BlockIdentifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.children[parent] {
		if existing == child {
			return
		}
	}
	r.children[parent] = append(r.children[parent], child)
}

// Get returns the BlockState for id without creating one, if already
// touched.
func (r *Repository) Get(id types.BlockIdentifier) (*BlockState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.entries[id]
	return state, ok
}

// Children returns the direct children observed for a block.
func (r *Repository) Children(id types.BlockIdentifier) []types.BlockIdentifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.BlockIdentifier(nil), r.children[id]...)
}

// Persist writes a BlockState's durable projection (thread, parent,
// seq_no, flags, stats) to the backing store, keyed by the block
// identifier. Bk-sets and in-memory caches are not persisted, and Load
// returns only the persisted projection without rebuilding them.
func (r *Repository) Persist(state *BlockState) error {
	state.mu.Lock()
	var threadTag *uint32
	if state.threadID != nil {
		tag := state.threadID.Tag()
		threadTag = &tag
	}
	rec := persistedBlockState{
		ThreadID: threadTag,
		ParentID: state.parentID,
		SeqNo:    state.seqNo,
		Flags:    state.flags,
		Stats:    state.blockStats,
	}
	state.mu.Unlock()

	raw, err := codec.Codec.Marshal(codec.CurrentVersion, rec)
	if err != nil {
		return fmt.Errorf("blockstate: marshal %s: %w", state.id, err)
	}
	if err := r.db.Put(state.id.Bytes(), raw); err != nil {
		return fmt.Errorf("blockstate: persist %s: %w", state.id, err)
	}
	state.MarkStored()
	return nil
}

// Load reads a block's durable projection back from the store. It
// returns (nil, false, nil) if the block was never persisted.
func (r *Repository) Load(id types.BlockIdentifier) (*persistedBlockState, bool, error) {
	raw, err := r.db.Get(id.Bytes())
	if err == database.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("blockstate: load %s: %w", id, err)
	}
	var rec persistedBlockState
	if _, err := codec.Codec.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("blockstate: unmarshal %s: %w", id, err)
	}
	return &rec, true, nil
}

// LastFinalizedSeqNo scans the known ancestors of tail looking for the
// highest seq_no among finalized blocks; used as the cutoff for
// select_unfinalized_ancestor_blocks.
func (r *Repository) LastFinalizedSeqNo(tail types.BlockIdentifier) (types.BlockSeqNo, bool) {
	cur := tail
	for {
		state, ok := r.Get(cur)
		if !ok {
			return 0, false
		}
		if state.Flags().Finalized {
			seqNo, _ := state.SeqNo()
			return seqNo, true
		}
		parent, ok := state.ParentID()
		if !ok {
			return 0, false
		}
		cur = parent
	}
}
