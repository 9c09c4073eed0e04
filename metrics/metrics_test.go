// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/utils/wrappers"
)

func TestNewAveragerRegistersAgainstInstanceRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	var errs wrappers.Errs
	avg := m.NewAverager("test_latency_seconds", "test latency", &errs)
	require.False(t, errs.Errored())

	avg.Observe(1.0)
	avg.Observe(3.0)
	require.Equal(t, 2.0, avg.Read())
}

func TestNewAveragerDuplicateNameFoldsIntoErrs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	var errs wrappers.Errs
	_ = m.NewAverager("dup_seconds", "first", &errs)
	require.False(t, errs.Errored())

	_ = m.NewAverager("dup_seconds", "second", &errs)
	require.True(t, errs.Errored())
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter"})
	require.NoError(t, m.Register(c))
	require.Error(t, m.Register(c))
}
