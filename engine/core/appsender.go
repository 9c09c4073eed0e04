// Copyright (C) 2025, Lux Partners Limited All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"context"

	"github.com/luxfi/ids"
	"github.com/luxfi/warp"

	"github.com/luxfi/ackinacki/set"
	"github.com/luxfi/ackinacki/types"
)

// Sender is the warp Sender interface.
type Sender = warp.Sender

// FakeSender is the warp FakeSender for testing.
type FakeSender = warp.FakeSender

// SenderTest is a test implementation of Sender.
type SenderTest struct {
	FakeSender
}

// Deprecated: Use Sender instead.
type WarpSender = warp.Sender

// Deprecated: Use Sender instead.
type AppSender = warp.Sender

// RefGossip hydrates cross-thread references by announcing a thread's
// newly produced block id to the peers tracking its sibling threads,
// over the same app-gossip surface the wire layer already exposes. A
// production loop calls Announce once a block is sealed; the receiving
// side feeds the decoded candidate into its local xthread store.
type RefGossip struct {
	sender Sender
}

// NewRefGossip wraps sender for cross-thread reference announcements.
func NewRefGossip(sender Sender) *RefGossip {
	return &RefGossip{sender: sender}
}

// Announce gossips a producing block's reference candidate to peers,
// encoded by the caller (the wire format is out of scope here).
func (g *RefGossip) Announce(ctx context.Context, peers []ids.NodeID, refCandidate []byte) error {
	if g.sender == nil {
		return nil
	}
	return g.sender.SendAppGossip(ctx, set.Of(peers...), refCandidate)
}

// Request asks a specific peer for the reference candidates it holds
// for thread, used when a production loop is missing a ref it needs to
// satisfy CanReference before sealing a block.
func (g *RefGossip) Request(ctx context.Context, peer ids.NodeID, requestID uint32, thread types.ThreadIdentifier) error {
	if g.sender == nil {
		return nil
	}
	body := make([]byte, 4)
	tag := thread.Tag()
	body[0] = byte(tag >> 24)
	body[1] = byte(tag >> 16)
	body[2] = byte(tag >> 8)
	body[3] = byte(tag)
	return g.sender.SendAppRequest(ctx, set.Of(peer), requestID, body)
}
