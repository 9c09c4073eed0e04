// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	result interface{}
	err    error
}

func (f fakeChecker) HealthCheck(ctx context.Context) (interface{}, error) {
	return f.result, f.err
}

func TestAggregateAllHealthy(t *testing.T) {
	checkers := map[string]Checker{
		"thread-0": fakeChecker{result: Health{Healthy: true, Details: map[string]interface{}{"next_seq_no": uint64(3)}}},
		"thread-1": fakeChecker{result: Health{Healthy: true}},
	}

	report := Aggregate(context.Background(), checkers)
	require.True(t, report.Healthy)
	require.Len(t, report.Checks, 2)
	for _, c := range report.Checks {
		require.True(t, c.Healthy)
		require.Empty(t, c.Error)
	}
}

func TestAggregateOneUnhealthyFailsReport(t *testing.T) {
	checkers := map[string]Checker{
		"thread-0": fakeChecker{result: Health{Healthy: true}},
		"thread-1": fakeChecker{err: errors.New("stalled")},
	}

	report := Aggregate(context.Background(), checkers)
	require.False(t, report.Healthy)

	var found bool
	for _, c := range report.Checks {
		if c.Name == "thread-1" {
			found = true
			require.False(t, c.Healthy)
			require.Equal(t, "stalled", c.Error)
		}
	}
	require.True(t, found)
}

func TestAggregateEmptyCheckerSetIsHealthy(t *testing.T) {
	report := Aggregate(context.Background(), nil)
	require.True(t, report.Healthy)
	require.Empty(t, report.Checks)
}
