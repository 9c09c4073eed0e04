// Package executor implements the parallel message executor (component
// D): a bounded pool of goroutines dispatching messages to the opaque
// TVM primitive while preserving per-destination-account serialization.
package executor

import (
	"context"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/ackinacki/types"
)

// ThreadResult is what one dispatched message execution yields.
type ThreadResult struct {
	Transaction types.Transaction
	LT          uint64
	Trace       []byte
	AccountRoot []byte
	AccountID   types.AccountAddress
	MintedShell uint64
	DappID      *types.AccountAddress
	Err         error
}

// TimeLimits bounds how long a single builder iteration's execution
// stage is allowed to run before the production loop's stop signal
// takes over; nothing in this package reads it — the actual deadline is
// enforced by the caller's stop channel.
type TimeLimits struct {
	DesiredTimeoutMillis uint64
}

// VM is the opaque "execute one message against one account" primitive;
// the TVM executor itself, its gas accounting, and its wire format are
// all out of scope.
type VM interface {
	Execute(ctx context.Context, msg types.Message, accountID types.AccountAddress, blockUnixtime, blockLT uint64) (ThreadResult, error)
}

// Thread is the handle returned for one dispatched message: a channel
// that yields exactly one ThreadResult.
type Thread struct {
	AccountID types.AccountAddress
	MsgIndex  types.MessageIndex
	resultCh  chan ThreadResult
}

// Result blocks until the dispatched execution completes. TryResult is
// the non-blocking alternative for polling.
func (t *Thread) Result() ThreadResult {
	return <-t.resultCh
}

// TryResult polls for a completed result without blocking.
func (t *Thread) TryResult() (ThreadResult, bool) {
	select {
	case r := <-t.resultCh:
		return r, true
	default:
		return ThreadResult{}, false
	}
}

// Pool dispatches messages to vm, bounded by parallelizationLevel
// concurrent in-flight executions, with at most one in-flight execution
// per destination account at any time.
type Pool struct {
	vm                  VM
	parallelizationLevel int
	log                 log.Logger

	sem    chan struct{}
	active map[types.AccountAddress]struct{}
}

// NewPool returns a pool bounded to parallelizationLevel concurrent
// executions.
func NewPool(vm VM, parallelizationLevel int, logger log.Logger) *Pool {
	if parallelizationLevel < 1 {
		parallelizationLevel = 1
	}
	return &Pool{
		vm:                   vm,
		parallelizationLevel: parallelizationLevel,
		log:                  logger,
		sem:                  make(chan struct{}, parallelizationLevel),
		active:               make(map[types.AccountAddress]struct{}),
	}
}

// IsAccountActive reports whether accountID has an in-flight execution,
// the head-of-line-blocking guard the builder consults before popping
// the next queued message.
func (p *Pool) IsAccountActive(accountID types.AccountAddress) bool {
	_, ok := p.active[accountID]
	return ok
}

// HasCapacity reports whether another execution can be dispatched
// without exceeding parallelizationLevel.
func (p *Pool) HasCapacity() bool {
	return len(p.sem) < cap(p.sem)
}

// Dispatch launches msg's execution against accountID in the pool, if
// the destination belongs to the current thread; otherwise it returns
// ErrDestinationNotOwned and dispatches nothing.
func (p *Pool) Dispatch(ctx context.Context, msg types.Message, accountID types.AccountAddress, blockUnixtime, blockLT uint64, belongsToThread bool) (*Thread, error) {
	if !belongsToThread {
		return nil, types.ErrDestinationNotOwned
	}
	if p.IsAccountActive(accountID) {
		return nil, fmt.Errorf("executor: account %s already has an in-flight execution", accountID)
	}

	p.sem <- struct{}{}
	p.active[accountID] = struct{}{}

	th := &Thread{AccountID: accountID, MsgIndex: msg.Index, resultCh: make(chan ThreadResult, 1)}

	go func() {
		defer func() { <-p.sem }()
		result, err := p.vm.Execute(ctx, msg, accountID, blockUnixtime, blockLT)
		result.Err = err
		th.resultCh <- result
	}()

	return th, nil
}

// Release marks accountID no longer in-flight, called by the builder
// after draining a thread's result via TryResult.
func (p *Pool) Release(accountID types.AccountAddress) {
	delete(p.active, accountID)
}

// InFlightCount returns how many executions are currently dispatched.
func (p *Pool) InFlightCount() int {
	return len(p.sem)
}
