// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package health

import (
	"context"
	"time"
)

// Checker is the interface for health checking
type Checker interface {
	// HealthCheck returns information about the health of the service
	HealthCheck(context.Context) (interface{}, error)
}

// Report is a health report
type Report struct {
	// Details is a map of detailed health information
	Details map[string]interface{} `json:"details,omitempty"`

	// Healthy is true if the service is healthy
	Healthy bool `json:"healthy"`

	// Checks is a list of health checks performed
	Checks []Check `json:"checks,omitempty"`

	// Duration is how long the health check took
	Duration time.Duration `json:"duration"`
}

// Check is an individual health check
type Check struct {
	// Name is the name of the check
	Name string `json:"name"`

	// Healthy is true if the check passed
	Healthy bool `json:"healthy"`

	// Error is the error message if the check failed
	Error string `json:"error,omitempty"`

	// Details contains additional information about the check
	Details map[string]interface{} `json:"details,omitempty"`

	// Duration is how long this specific check took
	Duration time.Duration `json:"duration"`
}

// Health represents the health status of a component
type Health struct {
	// Healthy indicates if the component is healthy
	Healthy bool `json:"healthy"`
	// Details contains additional health information
	Details interface{} `json:"details,omitempty"`
}

// Aggregate runs every named Checker and folds the results into a
// single Report. A node runs one production loop per active thread;
// Aggregate lets a status endpoint report all of them in one call
// instead of one round trip per thread.
func Aggregate(ctx context.Context, checkers map[string]Checker) Report {
	start := time.Now()
	report := Report{Healthy: true}
	for name, checker := range checkers {
		checkStart := time.Now()
		result, err := checker.HealthCheck(ctx)
		check := Check{
			Name:     name,
			Healthy:  err == nil,
			Duration: time.Since(checkStart),
		}
		if err != nil {
			check.Error = err.Error()
			report.Healthy = false
		} else if h, ok := result.(Health); ok {
			check.Details = h.Details
		} else if details, ok := result.(map[string]interface{}); ok {
			check.Details = details
		}
		report.Checks = append(report.Checks, check)
	}
	report.Duration = time.Since(start)
	return report
}