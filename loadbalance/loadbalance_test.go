package loadbalance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/types"
)

func TestWindowNotReadyBeforeFilled(t *testing.T) {
	w := NewWindow(3, 100, 8)
	table := types.NewThreadsTable()

	w.Shift(Sample{InternalQueueLength: 50})
	_, _, err := w.Check(types.RootThreadIdentifier, table, nil)
	require.ErrorIs(t, err, types.ErrStatsAreNotReady)
}

func TestWindowReadyAfterFullRotation(t *testing.T) {
	w := NewWindow(2, 100, 8)
	table := types.NewThreadsTable()

	w.Shift(Sample{InternalQueueLength: 10})
	w.Shift(Sample{InternalQueueLength: 10})
	require.True(t, w.IsReady())

	decision, _, err := w.Check(types.RootThreadIdentifier, table, nil)
	require.NoError(t, err)
	require.Equal(t, ContinueAsIs, decision)
}

func TestWindowSplitsWhenOverThresholdAndBelowSoftLimit(t *testing.T) {
	w := NewWindow(1, 10, 8)
	table := types.NewThreadsTable()

	w.Shift(Sample{InternalQueueLength: 50})

	decision, proposed, err := w.Check(types.RootThreadIdentifier, table, nil)
	require.NoError(t, err)
	require.Equal(t, Split, decision)
	require.Len(t, proposed.Threads(), 2)
}

func TestWindowDoesNotSplitAtSoftLimit(t *testing.T) {
	w := NewWindow(1, 10, 1)
	table := types.NewThreadsTable()

	w.Shift(Sample{InternalQueueLength: 50})

	decision, _, err := w.Check(types.RootThreadIdentifier, table, nil)
	require.NoError(t, err)
	require.Equal(t, ContinueAsIs, decision)
}

func TestWindowCollapsesWhenCombinedLoadBelowThreshold(t *testing.T) {
	w := NewWindow(1, 100, 8)
	table := types.NewThreadsTable()
	w.Shift(Sample{InternalQueueLength: 10})

	sibling := newAggregatedLoad()
	sibling.InternalQueueLength = 10

	decision, _, err := w.Check(types.RootThreadIdentifier, table, &sibling)
	require.NoError(t, err)
	require.Equal(t, Collapse, decision)
}

func TestCheckPanicsWhenThreadNotInTable(t *testing.T) {
	w := NewWindow(1, 10, 8)
	table := types.NewThreadsTable()
	w.Shift(Sample{InternalQueueLength: 1})

	require.Panics(t, func() {
		w.Check(types.NewThreadIdentifier(99), table, nil)
	})
}
