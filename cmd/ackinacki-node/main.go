// Copyright (C) 2025, Lux Partners Limited All rights reserved.
// See the file LICENSE for licensing terms.

// Command ackinacki-node runs one thread's block-production loop: it
// loads the node configuration, wires the builder/executor/load-
// balancing collaborators, and drives ProduceNext until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"

	"github.com/luxfi/ackinacki/blockstate"
	"github.com/luxfi/ackinacki/builder"
	"github.com/luxfi/ackinacki/config"
	"github.com/luxfi/ackinacki/executor"
	"github.com/luxfi/ackinacki/loadbalance"
	"github.com/luxfi/ackinacki/optimistic"
	"github.com/luxfi/ackinacki/producer"
	"github.com/luxfi/ackinacki/types"
	"github.com/luxfi/ackinacki/utils/wrappers"
	"github.com/luxfi/ackinacki/version"
	"github.com/luxfi/ackinacki/xthread"
)

const (
	exitNormal        = 0
	exitFatal         = 1
	exitMisconfigured = 2
)

// nodeVersion identifies this build: it is what --version prints and
// what the startup log line reports next to the protocol version.
var nodeVersion = &version.Application{Name: "ackinacki-node", Major: 1, Minor: 0, Patch: 0}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config-path", "", "path to the node's JSON configuration file")
	printVersion := flag.Bool("version", false, "print the node version and exit")
	flag.Parse()

	if *printVersion {
		os.Stdout.WriteString(nodeVersion.String() + "\n")
		return exitNormal
	}

	logger := log.NewLogger("ackinacki-node")
	logger.Info("ackinacki-node: version", "version", nodeVersion.String(), "protocol", version.CurrentProtocolVersion().String())

	if *configPath == "" {
		logger.Error("ackinacki-node: --config-path is required")
		return exitMisconfigured
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("ackinacki-node: failed to load config", "error", err.Error())
		return exitMisconfigured
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := memdb.New()
	repo := blockstate.NewRepository(db, logger)
	cache := optimistic.NewCache(cfg.SaveStateFrequency)
	xrefs := xthread.NewStore()

	b := builder.New(&noOpVM{}, builder.BlockchainConfig{
		ParallelizationLevel: cfg.ParallelizationLevel,
		EpochTouchExpireSecs: 5,
	}, logger)

	lbWindow := loadbalance.NewWindow(cfg.ThreadLoadWindowSize, cfg.ThreadLoadThreshold, int(cfg.ThreadCountSoftLimit))
	inputs := producer.NewInputs(noExternalMessages{}, nil)

	loop := producer.New(types.RootThreadIdentifier, b, repo, cache, xrefs, inputs, lbWindow, cfg.ProductionLoopTimeout(), logger)
	threadsTable := types.NewThreadsTable()

	logger.Info("ackinacki-node: starting production loop", "thread", types.RootThreadIdentifier.String())

	var lastResult producer.IterationResult
	for {
		select {
		case <-ctx.Done():
			logger.Info("ackinacki-node: shutting down")
			if err := shutdown(repo, db, lastResult); err != nil {
				logger.Error("ackinacki-node: shutdown cleanup failed", "error", err.Error())
			}
			return exitNormal
		default:
		}

		result, err := loop.ProduceNext(ctx, threadsTable, nil, nil)
		if err != nil {
			if ctx.Err() != nil {
				return exitNormal
			}
			logger.Error("ackinacki-node: production iteration failed", "error", err.Error())
			return exitFatal
		}
		lastResult = result
	}
}

// shutdown flushes the last committed block's state and releases the
// backing store, folding any failures from either step into a single
// error so the caller logs one line instead of two.
func shutdown(repo *blockstate.Repository, db interface{ Close() error }, last producer.IterationResult) error {
	var persistErr error
	if last.State != nil {
		if state, ok := repo.Get(last.State.BlockID); ok {
			persistErr = repo.Persist(state)
		}
	}

	var errs wrappers.Errs
	errs.AddAll(persistErr, db.Close())
	if errs.Errored() {
		return errs.Err()
	}
	return nil
}

// noOpVM is the opaque TVM stand-in: the real transaction execution
// engine is out of scope, so this just records that a message reached
// its destination account.
type noOpVM struct{}

func (*noOpVM) Execute(ctx context.Context, msg types.Message, accountID types.AccountAddress, blockUnixtime, blockLT uint64) (executor.ThreadResult, error) {
	return executor.ThreadResult{AccountID: accountID}, nil
}

// noExternalMessages is the default external-message source until the
// wire/transport layer (out of scope) is wired in.
type noExternalMessages struct{}

func (noExternalMessages) GetRemainingExternalMessages(parent types.BlockIdentifier) []types.Message {
	return nil
}

