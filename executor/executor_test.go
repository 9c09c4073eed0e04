package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/types"
)

type fakeVM struct {
	mu      sync.Mutex
	inFlight int
	maxSeen  int
}

func (f *fakeVM) Execute(ctx context.Context, msg types.Message, accountID types.AccountAddress, blockUnixtime, blockLT uint64) (ThreadResult, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return ThreadResult{AccountID: accountID, LT: blockLT}, nil
}

func TestDispatchBoundedByParallelizationLevel(t *testing.T) {
	vm := &fakeVM{}
	pool := NewPool(vm, 2, nil)

	var threads []*Thread
	for i := 0; i < 6; i++ {
		var addr types.AccountAddress
		addr[0] = byte(i)
		th, err := pool.Dispatch(context.Background(), types.Message{Index: types.MessageIndex(i)}, addr, 0, 0, true)
		require.NoError(t, err)
		threads = append(threads, th)
	}

	for _, th := range threads {
		th.Result()
	}

	require.LessOrEqual(t, vm.maxSeen, 2)
}

func TestDispatchRejectsForeignDestination(t *testing.T) {
	pool := NewPool(&fakeVM{}, 1, nil)
	_, err := pool.Dispatch(context.Background(), types.Message{}, types.AccountAddress{}, 0, 0, false)
	require.ErrorIs(t, err, types.ErrDestinationNotOwned)
}

func TestDispatchRejectsSecondInFlightForSameAccount(t *testing.T) {
	pool := NewPool(&fakeVM{}, 4, nil)
	addr := types.AccountAddress{1}

	th, err := pool.Dispatch(context.Background(), types.Message{}, addr, 0, 0, true)
	require.NoError(t, err)

	_, err = pool.Dispatch(context.Background(), types.Message{}, addr, 0, 0, true)
	require.Error(t, err)

	th.Result()
	pool.Release(addr)

	_, err = pool.Dispatch(context.Background(), types.Message{}, addr, 0, 0, true)
	require.NoError(t, err)
}
