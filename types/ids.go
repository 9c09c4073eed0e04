// Package types defines the message/account/block identifiers shared by
// every other package in this module: the opaque, hashable primitives
// component A of the node's per-thread engine is built from.
package types

import (
	"bytes"
	"fmt"

	"github.com/luxfi/ids"
)

// BlockIdentifier is a 32-byte opaque digest identifying a block,
// independent of thread or height.
type BlockIdentifier struct {
	id ids.ID
}

// EmptyBlockIdentifier is the zero value, used as the parent of a
// thread's genesis block.
var EmptyBlockIdentifier = BlockIdentifier{}

// NewBlockIdentifier wraps a raw 32-byte digest.
func NewBlockIdentifier(raw ids.ID) BlockIdentifier {
	return BlockIdentifier{id: raw}
}

// Bytes returns the identifier's raw 32 bytes.
func (b BlockIdentifier) Bytes() []byte {
	return b.id[:]
}

// IsEmpty reports whether b is the zero identifier.
func (b BlockIdentifier) IsEmpty() bool {
	return b.id == ids.Empty
}

// String renders the identifier for logs.
func (b BlockIdentifier) String() string {
	return b.id.String()
}

// Less orders two identifiers lexicographically. Combined with BlockSeqNo
// this gives a total order over blocks of a thread for tie-breaking.
func (b BlockIdentifier) Less(other BlockIdentifier) bool {
	return bytes.Compare(b.id[:], other.id[:]) < 0
}

// BlockSeqNo is a thread-local, strictly monotonic sequence number.
type BlockSeqNo uint64

// Next returns the following sequence number along a parent chain.
func (s BlockSeqNo) Next() BlockSeqNo {
	return s + 1
}

// ThreadIdentifier tags one of the finitely many independently-advancing
// shards. It carries no intrinsic ordering; membership is resolved
// through a ThreadsTable.
type ThreadIdentifier struct {
	tag uint32
}

// RootThreadIdentifier is the thread every account belongs to before any
// split has occurred.
var RootThreadIdentifier = ThreadIdentifier{tag: 0}

// NewThreadIdentifier wraps a raw thread tag.
func NewThreadIdentifier(tag uint32) ThreadIdentifier {
	return ThreadIdentifier{tag: tag}
}

// Tag returns the raw thread tag, e.g. for logging or metrics labels.
func (t ThreadIdentifier) Tag() uint32 {
	return t.tag
}

// String renders the thread identifier for logs.
func (t ThreadIdentifier) String() string {
	return fmt.Sprintf("thread-%d", t.tag)
}

// AccountAddress is an opaque account identity, hashable and comparable.
type AccountAddress [32]byte

// String renders an account address for logs.
func (a AccountAddress) String() string {
	return fmt.Sprintf("%x", a[:])
}

// AccountRouting is the key a ThreadsTable maps to a ThreadIdentifier: a
// bitmask prefix of the account address used to route it to a thread.
type AccountRouting struct {
	Address AccountAddress
	// Bits is how many leading bits of Address participate in routing;
	// it grows by one every time the thread owning Address splits.
	Bits uint8
}

// Mask returns the routing key truncated to r.Bits leading bits, which is
// what a ThreadsTable entry actually keys on.
func (r AccountRouting) Mask() uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(r.Address); i++ {
		v = v<<8 | uint64(r.Address[i])
	}
	if r.Bits >= 64 {
		return v
	}
	return v >> (64 - r.Bits)
}
