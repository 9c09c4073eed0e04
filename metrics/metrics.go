// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
    "github.com/prometheus/client_golang/prometheus"

    "github.com/luxfi/ackinacki/utils/wrappers"
)

// Metrics owns the prometheus registry a component registers its
// collectors against. The builder uses one instance to back its
// block-build-latency Averager (see NewAverager below); a node wiring
// multiple components together would share one Metrics per subnet to
// avoid prometheus' duplicate-registration errors.
type Metrics struct {
    Registry prometheus.Registerer
}

// NewMetrics creates new metrics instance
func NewMetrics(reg prometheus.Registerer) *Metrics {
    return &Metrics{
        Registry: reg,
    }
}

// Register registers a prometheus collector
func (m *Metrics) Register(collector prometheus.Collector) error {
    return m.Registry.Register(collector)
}

// NewAverager returns an Averager backed by this instance's registry,
// folding any registration failure into errs rather than returning it,
// so a constructor wiring up several averagers can check once at the
// end instead of after each call.
func (m *Metrics) NewAverager(name, help string, errs *wrappers.Errs) Averager {
    return NewAveragerWithErrs(name, help, m.Registry, errs)
}
