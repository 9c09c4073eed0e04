package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/executor"
	"github.com/luxfi/ackinacki/optimistic"
	"github.com/luxfi/ackinacki/types"
)

type echoVM struct{}

func (echoVM) Execute(ctx context.Context, msg types.Message, accountID types.AccountAddress, blockUnixtime, blockLT uint64) (executor.ThreadResult, error) {
	return executor.ThreadResult{AccountID: accountID, Trace: []byte("ok")}, nil
}

func TestBuildBlockEmptyQueuesProducesEmptyBlock(t *testing.T) {
	state := optimistic.New(types.RootThreadIdentifier, types.EmptyBlockIdentifier)
	b := New(echoVM{}, BlockchainConfig{ParallelizationLevel: 2}, nil)

	stopCh := make(chan struct{})
	prepared, feedback, err := b.BuildBlock(context.Background(), 1, types.NewBlockIdentifier([32]byte{1}), state, nil, nil, nil, nil, nil, nil, nil, stopCh)
	require.NoError(t, err)
	require.True(t, prepared.IsEmpty)
	require.Equal(t, uint64(0), prepared.TxCount)
	require.Equal(t, 0, feedback.ProcessedExtMsgCount)
}

func TestBuildBlockExecutesExternalQueue(t *testing.T) {
	state := optimistic.New(types.RootThreadIdentifier, types.EmptyBlockIdentifier)
	b := New(echoVM{}, BlockchainConfig{ParallelizationLevel: 2}, nil)

	ext := []types.Message{
		{Dst: types.AccountAddress{1}, Kind: types.ExternalIn},
		{Dst: types.AccountAddress{2}, Kind: types.ExternalIn},
		{Dst: types.AccountAddress{3}, Kind: types.ExternalIn},
	}

	stopCh := make(chan struct{})
	prepared, feedback, err := b.BuildBlock(context.Background(), 1, types.NewBlockIdentifier([32]byte{1}), state, ext, nil, nil, nil, nil, nil, nil, stopCh)
	require.NoError(t, err)
	require.False(t, prepared.IsEmpty)
	require.Equal(t, uint64(3), prepared.TxCount)
	require.Equal(t, 3, feedback.ProcessedExtMsgCount)
	require.NotNil(t, prepared.Block)
	require.Equal(t, uint64(3), prepared.Block.TxCount)

	executed, _, avgSeconds := b.Observed()
	require.Equal(t, int64(3), executed)
	require.GreaterOrEqual(t, avgSeconds, 0.0)
}

func TestBuildBlockStopSignalReturnsActiveThreads(t *testing.T) {
	state := optimistic.New(types.RootThreadIdentifier, types.EmptyBlockIdentifier)
	b := New(echoVM{}, BlockchainConfig{ParallelizationLevel: 1}, nil)

	ext := []types.Message{{Dst: types.AccountAddress{1}, Kind: types.ExternalIn}}

	stopCh := make(chan struct{})
	close(stopCh)
	prepared, _, err := b.BuildBlock(context.Background(), 1, types.NewBlockIdentifier([32]byte{1}), state, ext, nil, nil, nil, nil, nil, nil, stopCh)
	require.NoError(t, err)
	require.NotEmpty(t, prepared.ActiveThreads)
}
