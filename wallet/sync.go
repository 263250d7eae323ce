// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/event"
	"github.com/ethsuite/ethwallet/opledger"
)

// SyncContext is the result of one synchronization pass.
type SyncContext struct {
	// LastBlockHeight is the height of the newest confirmed block seen
	// by the pass.
	LastBlockHeight uint64

	// NewOperations counts the operations inserted by the pass.
	NewOperations int

	// ReorgBlockHeight is non-nil only when a chain reorganization was
	// detected and rolled back, holding the height the rollback started
	// from.
	ReorgBlockHeight *uint64
}

// Synchronize starts a synchronization pass for the account and returns its
// notification bus. Passes are single-flight: when one is already running,
// the in-flight bus is returned instead of starting a second pass, so
// concurrent callers share one terminal event. The pass reports its outcome
// only through the bus, never as an error to the caller.
func (a *Account) Synchronize(ctx context.Context) *event.Bus {
	a.syncMu.Lock()
	if a.syncBus != nil {
		bus := a.syncBus
		a.syncMu.Unlock()
		return bus
	}
	bus := event.NewBus()
	a.syncBus = bus
	a.syncMu.Unlock()

	bus.Publish(event.New(event.SyncStarted))

	go a.runSynchronization(ctx, bus, time.Now())

	return bus
}

// IsSynchronizing reports whether a synchronization pass is in flight.
func (a *Account) IsSynchronizing() bool {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()
	return a.syncBus != nil
}

// runSynchronization executes one pass and publishes its terminal event,
// then clears the single-flight marker under the same lock used to set it.
// A Synchronize call racing the completion either joins the just-finished
// pass, observing the already-posted terminal event, or starts a new one.
func (a *Account) runSynchronization(ctx context.Context, bus *event.Bus,
	start time.Time) {

	syncCtx, err := a.performSynchronization(ctx)
	duration := time.Since(start)

	var e event.Event
	if err == nil {
		e = event.New(event.SyncSucceeded)
		e.Payload.PutInt64(event.EVSyncDurationMS,
			duration.Milliseconds())
		e.Payload.PutInt64(event.EVSyncLastBlockHeight,
			int64(syncCtx.LastBlockHeight))
		e.Payload.PutInt64(event.EVSyncNewOperations,
			int64(syncCtx.NewOperations))
		if syncCtx.ReorgBlockHeight != nil {
			e.Payload.PutInt64(event.EVSyncReorgBlockHeight,
				int64(*syncCtx.ReorgBlockHeight))
		}

		log.Infof("Synchronized account %s in %v: %d new %s", a.uid,
			duration, syncCtx.NewOperations,
			pickNoun(syncCtx.NewOperations, "operation",
				"operations"))
	} else {
		code := errorCodeOf(err)
		e = event.New(event.SyncFailed)
		e.Payload.PutInt64(event.EVSyncDurationMS,
			duration.Milliseconds())
		e.Payload.PutString(event.EVSyncErrorCode, code.String())
		e.Payload.PutInt64(event.EVSyncErrorCodeInt, int64(code))
		e.Payload.PutString(event.EVSyncErrorMessage, err.Error())

		log.Errorf("Synchronization of account %s failed after %v: %v",
			a.uid, duration, err)
	}
	bus.Publish(e)

	a.syncMu.Lock()
	a.syncBus = nil
	a.syncMu.Unlock()
}

// errorCodeOf maps an error to its taxonomy code, defaulting to ErrRuntime
// for collaborator pass-through errors.
func errorCodeOf(err error) ErrorCode {
	var werr WalletError
	if errors.As(err, &werr) {
		return werr.Code
	}
	return ErrRuntime
}

// performSynchronization runs the main reconciliation and, in parallel, the
// chain head fetch. The head is persisted on success independent of the
// main pass outcome, so trust level computation can rely on it either way.
func (a *Account) performSynchronization(
	ctx context.Context) (*SyncContext, error) {

	var result *SyncContext

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		block, err := a.explorer.GetCurrentBlock(gctx)
		if err != nil {
			// Best effort: the main pass decides the outcome.
			log.Warnf("Failed to fetch chain head: %v", err)
			return nil
		}
		a.setCurrentBlockHeight(block.Height)
		if _, err := a.PutBlock(gctx, *block); err != nil {
			log.Warnf("Failed to persist chain head: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		result, err = a.reconcile(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.EmitEventsNow()

	return result, nil
}

// reconcile fetches the chain transactions the ledger has not seen yet,
// interprets them and commits the resulting operations in one batch. When
// the explorer reports that the resume block left the best chain, the local
// ledger is rolled back from that block and the fetch restarts from the
// beginning.
func (a *Account) reconcile(ctx context.Context) (*SyncContext, error) {
	var since common.Hash
	last, err := a.store.LastConfirmedBlock(ctx, a.uid)
	if err != nil {
		return nil, err
	}
	if last != nil {
		since = last.Hash
	}

	var reorgHeight *uint64
	txs, err := a.explorer.GetTransactions(ctx, a.address, since)
	if errors.Is(err, chain.ErrReorg) && last != nil {
		height := last.Height
		reorgHeight = &height

		log.Warnf("Reorg detected for account %s at height %d, "+
			"rolling back", a.uid, height)

		err = a.store.EraseSince(ctx, a.uid, last.Time)
		if err != nil {
			return nil, err
		}
		a.invalidateBalanceCache()

		txs, err = a.explorer.GetTransactions(ctx, a.address,
			common.Hash{})
	}
	if err != nil {
		return nil, err
	}

	var (
		ops        []opledger.Operation
		lastHeight uint64
	)
	if last != nil {
		lastHeight = last.Height
	}
	for i := range txs {
		interpreted, err := a.interpretTransaction(&txs[i])
		if err != nil {
			return nil, err
		}
		ops = append(ops, interpreted...)

		if b := txs[i].Block; b != nil && b.Height > lastHeight {
			lastHeight = b.Height
		}
	}

	res, err := a.bulkInsert(ctx, ops)
	if err != nil {
		return nil, err
	}

	return &SyncContext{
		LastBlockHeight:  lastHeight,
		NewOperations:    res.Count(),
		ReorgBlockHeight: reorgHeight,
	}, nil
}

// EraseDataSince rolls back the account's local ledger state from the given
// date, e.g. after an externally detected reorganization. It is rejected
// with ErrRuntime while a synchronization pass is running; otherwise any
// stale in-flight bus reference is cleared before the rows are deleted.
func (a *Account) EraseDataSince(ctx context.Context, since time.Time) error {
	a.syncMu.Lock()
	if a.syncBus != nil {
		a.syncMu.Unlock()
		return walletError(ErrRuntime,
			"cannot erase data while synchronizing", nil)
	}
	a.syncBus = nil
	a.syncMu.Unlock()

	log.Debugf("Start erasing data of account: %s", a.uid)

	if err := a.store.EraseSince(ctx, a.uid, since); err != nil {
		return err
	}
	a.invalidateBalanceCache()

	return nil
}
