// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/ethsuite/ethwallet/event"
	"github.com/ethsuite/ethwallet/opledger"
)

// bulkInsert persists the interpreted operations through the ledger store,
// then reports the outcome: the balance cache is invalidated, one
// NewOperations event is published carrying the newly inserted uids, and
// the new token sub-operations are folded into the coalesced token event
// buffer, pending an EmitEventsNow flush. Replayed batches insert nothing
// and fire nothing.
func (a *Account) bulkInsert(ctx context.Context,
	ops []opledger.Operation) (*opledger.InsertResult, error) {

	res, err := a.store.BulkInsert(ctx, ops)
	if err != nil {
		return nil, err
	}

	if res.Count() > 0 {
		a.invalidateBalanceCache()
		a.emitNewOperations(res.NewUIDs)
	}
	for subAccountUID, uids := range res.NewTokenOps {
		a.batchTokenOperations(subAccountUID, uids)
	}

	return res, nil
}

// emitNewOperations publishes one NewOperations event for a committed
// batch.
func (a *Account) emitNewOperations(uids []string) {
	w, err := a.wallet()
	if err != nil {
		log.Warnf("Dropping new operations event: %v", err)
		return
	}

	e := event.New(event.NewOperations)
	e.Payload.PutStringList(event.EVNewOpUID, uids)
	e.Payload.PutString(event.EVNewOpWalletName, w.name)
	e.Payload.PutInt64(event.EVNewOpAccountIndex, int64(a.index))
	w.sink.Publish(e)
}

// batchTokenOperations appends newly inserted token sub-operation uids to
// the coalesced token event buffer. The buffer accumulates across ledger
// writes, from both the synchronization and the optimistic broadcast paths,
// until EmitEventsNow atomically swaps it out and publishes it as a single
// event.
func (a *Account) batchTokenOperations(subAccountUID string,
	opUIDs []string) {

	if len(opUIDs) == 0 {
		return
	}
	w, err := a.wallet()
	if err != nil {
		log.Warnf("Dropping token operations event: %v", err)
		return
	}

	a.batchMu.Lock()
	defer a.batchMu.Unlock()

	if a.batchedEvent == nil {
		e := event.New(event.UpdateERC20Operations)
		e.Payload.PutString(event.EVNewOpWalletName, w.name)
		e.Payload.PutInt64(event.EVNewOpAccountIndex, int64(a.index))
		a.batchedEvent = &e
	}
	for _, uid := range opUIDs {
		a.batchedEvent.Payload.AppendString(event.EVNewOpUID, uid)
		a.batchedEvent.Payload.AppendString(
			event.EVNewOpERC20AccountUID, subAccountUID)
	}
}

// EmitEventsNow flushes the coalesced token event buffer: the buffer is
// swapped out under its lock and published as one event, never piecemeal.
func (a *Account) EmitEventsNow() {
	a.batchMu.Lock()
	batched := a.batchedEvent
	a.batchedEvent = nil
	a.batchMu.Unlock()

	if batched == nil {
		return
	}
	w, err := a.wallet()
	if err != nil {
		log.Warnf("Dropping batched token event: %v", err)
		return
	}
	w.sink.Publish(*batched)
}
