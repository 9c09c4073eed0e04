// Copyright (C) 2025, Lux Partners Limited All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the production node's configuration record:
// the subset of the on-disk config file the core engine actually
// consumes, independent of the transport/network sections the wire
// layer owns.
package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Error variables for configuration validation.
var (
	ErrParametersInvalid          = errors.New("config: invalid node parameters")
	ErrTimeToProduceBlockTooLow   = errors.New("config: time_to_produce_block_millis must be >= 1")
	ErrThreadCountSoftLimitTooLow = errors.New("config: thread_count_soft_limit must be >= 1")
	ErrThreadLoadWindowTooSmall   = errors.New("config: thread_load_window_size must be >= 1")
	ErrProducerChangeGapTooLow    = errors.New("config: producer_change_gap_size must be >= 1")
)

// NodeConfig carries exactly the fields the core engine consumes from
// the node's `global`/`network`/`local` config sections; the
// transport, storage path, and archival settings the wire layer owns
// are out of scope here.
type NodeConfig struct {
	// TimeToProduceBlockMillis is each production loop iteration's
	// desired cadence, before timing correction.
	TimeToProduceBlockMillis uint64

	// SaveStateFrequency is how often (in blocks) a thread's block
	// state is persisted rather than kept purely in the optimistic
	// cache.
	SaveStateFrequency uint64

	// ThreadCountSoftLimit caps how many threads the load-balancing
	// step is willing to split into.
	ThreadCountSoftLimit uint64

	// ThreadLoadThreshold is the per-thread load value above which a
	// thread becomes a split candidate (or, combined with a sibling's
	// load, a collapse candidate when both are below it).
	ThreadLoadThreshold uint64

	// ThreadLoadWindowSize is the number of samples the load window
	// aggregates before Check can return a decision.
	ThreadLoadWindowSize int

	// BlockKeeperEpochCodeHash identifies the epoch contract code a
	// block keeper's wallet must run. It is loaded here only; the
	// builder synthesizes epoch touch messages without consulting it.
	BlockKeeperEpochCodeHash [32]byte

	// AttestationResendTimeout is how long to wait before
	// re-broadcasting an unconfirmed attestation request. It is loaded
	// and validated here; no component in this module reads it.
	AttestationResendTimeout time.Duration

	// ProducerChangeGapSize is the minimum seq_no distance between two
	// producer-change events on the same thread. It is loaded and
	// validated here; no component in this module enforces it.
	ProducerChangeGapSize uint64

	// ParallelizationLevel bounds the executor pool's in-flight
	// transaction count per builder iteration.
	ParallelizationLevel int
}

// DefaultConfig returns the node configuration the reference
// deployment ships with.
func DefaultConfig() NodeConfig {
	return NodeConfig{
		TimeToProduceBlockMillis: 330,
		SaveStateFrequency:       200,
		ThreadCountSoftLimit:     8,
		ThreadLoadThreshold:      5000,
		ThreadLoadWindowSize:     10,
		AttestationResendTimeout: 2 * time.Second,
		ProducerChangeGapSize:    6,
		ParallelizationLevel:     4,
	}
}

// Valid reports whether c can drive a production loop.
func (c NodeConfig) Valid() error {
	if c.TimeToProduceBlockMillis < 1 {
		return ErrTimeToProduceBlockTooLow
	}
	if c.ThreadCountSoftLimit < 1 {
		return ErrThreadCountSoftLimitTooLow
	}
	if c.ThreadLoadWindowSize < 1 {
		return ErrThreadLoadWindowTooSmall
	}
	if c.ProducerChangeGapSize < 1 {
		return ErrProducerChangeGapTooLow
	}
	if c.ParallelizationLevel < 1 {
		return ErrParametersInvalid
	}
	return nil
}

// ProductionLoopTimeout converts TimeToProduceBlockMillis to a
// time.Duration for the production loop's timing-correction
// controller.
func (c NodeConfig) ProductionLoopTimeout() time.Duration {
	return time.Duration(c.TimeToProduceBlockMillis) * time.Millisecond
}

// fileConfig mirrors the on-disk config file's three sections
// (global/network/local); only the fields the core engine reads are
// declared, the rest of the file is parsed and discarded.
type fileConfig struct {
	Global struct {
		TimeToProduceBlockMillis uint64 `json:"time_to_produce_block_millis"`
		SaveStateFrequency       uint64 `json:"save_state_frequency"`
		ThreadCountSoftLimit     uint64 `json:"thread_count_soft_limit"`
		ThreadLoadThreshold      uint64 `json:"thread_load_threshold"`
		ThreadLoadWindowSize     int    `json:"thread_load_window_size"`
		BlockKeeperEpochCodeHash string `json:"block_keeper_epoch_code_hash"`
		ProducerChangeGapSize    uint64 `json:"producer_change_gap_size"`
	} `json:"global"`
	Network struct {
		AttestationResendTimeoutMillis uint64 `json:"attestation_resend_timeout_millis"`
	} `json:"network"`
	Local struct {
		ParallelizationLevel int `json:"parallelization_level"`
	} `json:"local"`
}

// Load reads and validates a NodeConfig from a JSON config file at
// path, following the global/network/local section layout the node's
// --config-path flag points at.
func Load(path string) (NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return NodeConfig{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	c := DefaultConfig()
	if fc.Global.TimeToProduceBlockMillis != 0 {
		c.TimeToProduceBlockMillis = fc.Global.TimeToProduceBlockMillis
	}
	if fc.Global.SaveStateFrequency != 0 {
		c.SaveStateFrequency = fc.Global.SaveStateFrequency
	}
	if fc.Global.ThreadCountSoftLimit != 0 {
		c.ThreadCountSoftLimit = fc.Global.ThreadCountSoftLimit
	}
	if fc.Global.ThreadLoadThreshold != 0 {
		c.ThreadLoadThreshold = fc.Global.ThreadLoadThreshold
	}
	if fc.Global.ThreadLoadWindowSize != 0 {
		c.ThreadLoadWindowSize = fc.Global.ThreadLoadWindowSize
	}
	if fc.Global.ProducerChangeGapSize != 0 {
		c.ProducerChangeGapSize = fc.Global.ProducerChangeGapSize
	}
	if fc.Global.BlockKeeperEpochCodeHash != "" {
		raw, err := hex.DecodeString(fc.Global.BlockKeeperEpochCodeHash)
		if err != nil || len(raw) != len(c.BlockKeeperEpochCodeHash) {
			return NodeConfig{}, fmt.Errorf("%w: block_keeper_epoch_code_hash must be a %d-byte hex string", ErrParametersInvalid, len(c.BlockKeeperEpochCodeHash))
		}
		copy(c.BlockKeeperEpochCodeHash[:], raw)
	}
	if fc.Network.AttestationResendTimeoutMillis != 0 {
		c.AttestationResendTimeout = time.Duration(fc.Network.AttestationResendTimeoutMillis) * time.Millisecond
	}
	if fc.Local.ParallelizationLevel != 0 {
		c.ParallelizationLevel = fc.Local.ParallelizationLevel
	}

	if err := c.Valid(); err != nil {
		return NodeConfig{}, err
	}
	return c, nil
}
