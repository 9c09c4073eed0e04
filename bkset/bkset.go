// Package bkset tracks the block keeper set (bk-set): the weighted,
// BLS-keyed set of validators participating in a thread's consensus at a
// given sequence number.
//
// It generalizes the teacher's validator-manager package (NodeID/weight
// bookkeeping keyed by subnet) to the block-production domain: here the
// set is keyed by thread id and versioned by seq no, members are indexed
// by SignerIndex rather than looked up only by NodeID, and membership
// changes are recorded as an explicit diff (block_keeper_set_changes) so
// a block can carry exactly the deltas it introduces.
package bkset

import (
	"fmt"
	"sync"

	"github.com/luxfi/crypto/bls"
	"github.com/luxfi/ids"

	"github.com/luxfi/ackinacki/set"
	"github.com/luxfi/ackinacki/types"
	safemath "github.com/luxfi/ackinacki/utils/math"
)

// SignerIndex identifies a block keeper's position within a bk-set. It is
// stable for the lifetime of the bk-set version it belongs to; a keeper
// that rejoins after being removed is assigned a fresh index.
type SignerIndex uint16

// BlockKeeperData describes one member of a bk-set: its BLS public key,
// its on-chain node identity and its voting weight (stake).
type BlockKeeperData struct {
	Index     SignerIndex
	NodeID    ids.NodeID
	PublicKey *bls.PublicKey
	Weight    uint64

	// EpochExpire is the gen_utime at which this keeper's epoch wallet
	// touch message must be resubmitted; zero means no active epoch.
	EpochExpire uint64
}

// ChangeKind distinguishes the way a bk-set member changed between two
// consecutive blocks of a thread.
type ChangeKind uint8

const (
	// Added indicates a keeper is newly present in the bk-set.
	Added ChangeKind = iota
	// Removed indicates a keeper left the bk-set (slashed out or retired).
	Removed
	// WeightChanged indicates a keeper's stake changed without it leaving.
	WeightChanged
)

// Change is one entry of a block's block_keeper_set_changes list.
type Change struct {
	Kind SignerIndex
	ChangeKind
	Data BlockKeeperData
}

// Set is the bk-set for one thread at one seq no: a fixed, addressable
// roster of block keepers plus their weights.
type Set struct {
	mu      sync.RWMutex
	thread  types.ThreadIdentifier
	members map[SignerIndex]*BlockKeeperData
	byNode  map[ids.NodeID]SignerIndex
	next    SignerIndex
}

// New returns an empty bk-set scoped to thread.
func New(thread types.ThreadIdentifier) *Set {
	return &Set{
		thread:  thread,
		members: make(map[SignerIndex]*BlockKeeperData),
		byNode:  make(map[ids.NodeID]SignerIndex),
	}
}

// Clone returns a deep copy, used when a thread splits or collapses and
// the child thread needs its own independently-mutable bk-set.
func (s *Set) Clone(thread types.ThreadIdentifier) *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := New(thread)
	c.next = s.next
	for idx, data := range s.members {
		cp := *data
		c.members[idx] = &cp
		c.byNode[data.NodeID] = idx
	}
	return c
}

// Add registers a new block keeper, returning its assigned SignerIndex.
// Re-adding an already-present node is an error: membership changes go
// through SetWeight for existing members.
func (s *Set) Add(nodeID ids.NodeID, pk *bls.PublicKey, weight uint64) (SignerIndex, Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byNode[nodeID]; ok {
		return 0, Change{}, fmt.Errorf("bkset: node %s already present in thread %s", nodeID, s.thread)
	}

	idx := s.next
	s.next++
	data := BlockKeeperData{Index: idx, NodeID: nodeID, PublicKey: pk, Weight: weight}
	s.members[idx] = &data
	s.byNode[nodeID] = idx

	return idx, Change{Kind: idx, ChangeKind: Added, Data: data}, nil
}

// Remove drops a block keeper from the set, e.g. as a consequence of a
// processed slash message.
func (s *Set) Remove(idx SignerIndex) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.members[idx]
	if !ok {
		return Change{}, fmt.Errorf("bkset: signer %d not present in thread %s", idx, s.thread)
	}
	delete(s.members, idx)
	delete(s.byNode, data.NodeID)

	return Change{Kind: idx, ChangeKind: Removed, Data: *data}, nil
}

// SetWeight updates an existing keeper's stake.
func (s *Set) SetWeight(idx SignerIndex, weight uint64) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.members[idx]
	if !ok {
		return Change{}, fmt.Errorf("bkset: signer %d not present in thread %s", idx, s.thread)
	}
	data.Weight = weight

	return Change{Kind: idx, ChangeKind: WeightChanged, Data: *data}, nil
}

// Apply replays a list of changes against the set, in order. Used to
// reconstruct a descendant bk-set from a parent bk-set plus the block's
// block_keeper_set_changes.
func (s *Set) Apply(changes []Change) error {
	for _, c := range changes {
		switch c.ChangeKind {
		case Added:
			s.mu.Lock()
			s.members[c.Data.Index] = &c.Data
			s.byNode[c.Data.NodeID] = c.Data.Index
			if c.Data.Index >= s.next {
				s.next = c.Data.Index + 1
			}
			s.mu.Unlock()
		case Removed:
			if _, err := s.Remove(c.Data.Index); err != nil {
				return err
			}
		case WeightChanged:
			if _, err := s.SetWeight(c.Data.Index, c.Data.Weight); err != nil {
				return err
			}
		default:
			return fmt.Errorf("bkset: unknown change kind %d", c.ChangeKind)
		}
	}
	return nil
}

// Get returns the keeper at idx, if present.
func (s *Set) Get(idx SignerIndex) (BlockKeeperData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.members[idx]
	if !ok {
		return BlockKeeperData{}, false
	}
	return *data, true
}

// IndexOf returns the SignerIndex assigned to nodeID, if it is a member.
func (s *Set) IndexOf(nodeID ids.NodeID) (SignerIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byNode[nodeID]
	return idx, ok
}

// Len returns the number of block keepers currently in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// TotalWeight returns the sum of every member's weight.
func (s *Set) TotalWeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for _, m := range s.members {
		total += m.Weight
	}
	return total
}

// WeightOf returns the voting weight attached to a set of signer indices,
// used by the attestation-target service to check a verified-attestation
// set against a count/weight requirement.
func (s *Set) WeightOf(signers set.Set[SignerIndex]) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for idx := range signers {
		if m, ok := s.members[idx]; ok {
			// A bk-set's combined weight cannot realistically approach
			// uint64's range; this guards against a corrupted weight
			// value wrapping the total silently.
			sum, err := safemath.Add64(total, m.Weight)
			if err != nil {
				continue
			}
			total = sum
		}
	}
	return total
}

// QuorumWeight returns the minimum total weight required to clear a
// num/denom fraction of the set's TotalWeight (e.g. num=2, denom=3 for
// the usual BFT 2/3 threshold), rounded down. Used by the
// attestation-target service's weighted-quorum health reporting
// alongside the count-based target comparison that actually gates
// EvaluateAttestations.
func (s *Set) QuorumWeight(num, denom uint64) (uint64, error) {
	return safemath.MulDiv64(s.TotalWeight(), num, denom)
}

// Members returns a snapshot of every keeper in the set.
func (s *Set) Members() []BlockKeeperData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BlockKeeperData, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, *m)
	}
	return out
}
