// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/event"
	"github.com/ethsuite/ethwallet/opledger"
)

// Account is one watched address of a wallet. It exclusively owns its
// keychain reference, its token sub-account registry and its
// synchronization state; it borrows the storage handle and event sink from
// its parent wallet through a non-owning reference.
type Account struct {
	// walletRef is the non-owning back reference to the parent wallet,
	// resolved at call time. A nil load means the wallet is gone and
	// surfaces as ErrRuntime, never a dangling pointer.
	walletRef atomic.Pointer[Wallet]

	index    uint32
	uid      string
	keychain Keychain
	explorer chain.Explorer
	store    *opledger.Store
	address  common.Address

	// syncMu guards the single-flight synchronization state: the
	// in-flight notification bus and the last observed chain height.
	// Critical sections are check-and-set and clear-on-completion only.
	syncMu        sync.Mutex
	syncBus       *event.Bus
	currentHeight uint64

	// balanceMu guards the single-value balance cache. A nil balance
	// means the cache is invalid.
	balanceMu sync.Mutex
	balance   *big.Int

	// erc20Mu guards the token sub-account registry.
	erc20Mu       sync.Mutex
	erc20Accounts []*ERC20Account

	// batchMu guards the coalesced token operation event buffer. It is a
	// separate lock because the buffer is appended to from both the
	// synchronization path and the optimistic broadcast path.
	batchMu      sync.Mutex
	batchedEvent *event.Event
}

// wallet resolves the non-owning back reference to the parent wallet.
func (a *Account) wallet() (*Wallet, error) {
	w := a.walletRef.Load()
	if w == nil {
		return nil, walletError(ErrRuntime,
			"wallet reference is dead", nil)
	}
	return w, nil
}

// Index returns the account's derivation index.
func (a *Account) Index() uint32 {
	return a.index
}

// UID returns the account's ledger identifier.
func (a *Account) UID() string {
	return a.uid
}

// Address returns the watched address.
func (a *Account) Address() common.Address {
	return a.address
}

// Keychain returns the account's keychain.
func (a *Account) Keychain() Keychain {
	return a.keychain
}

// RestoreKey returns the keychain's opaque restore key.
func (a *Account) RestoreKey() string {
	return a.keychain.RestoreKey()
}

// FreshAddresses returns the addresses the account can currently receive on.
// Account-model chains reuse the single watched address.
func (a *Account) FreshAddresses() []common.Address {
	return []common.Address{a.address}
}

// GetTransaction returns the stored operations generated by the given chain
// transaction. A self-transfer yields two. Fails with ErrTransactionNotFound
// when the hash is unknown to the ledger.
func (a *Account) GetTransaction(ctx context.Context,
	txHash common.Hash) ([]opledger.Operation, error) {

	ops, err := a.store.OperationsByTxHash(ctx, a.uid, txHash)
	if err != nil {
		if opledger.IsError(err, opledger.ErrTxHashNotFound) {
			return nil, walletError(ErrTransactionNotFound,
				fmt.Sprintf("transaction %s not found",
					txHash.Hex()), err)
		}
		return nil, err
	}
	return ops, nil
}

// PutBlock persists an observed chain block and emits a NewBlock event the
// first time the block hash is seen.
func (a *Account) PutBlock(ctx context.Context, block chain.Block) (bool,
	error) {

	inserted, err := a.store.PutBlock(ctx, opledger.BlockRef{
		Hash:   block.Hash,
		Height: block.Height,
		Time:   block.Time,
	})
	if err != nil || !inserted {
		return false, err
	}

	w, err := a.wallet()
	if err != nil {
		return true, err
	}
	e := event.New(event.NewBlock)
	e.Payload.PutString(event.EVNewBlockHash, block.Hash.Hex())
	e.Payload.PutInt64(event.EVNewBlockHeight, int64(block.Height))
	w.sink.Publish(e)

	return true, nil
}

// CurrentBlockHeight returns the chain tip height observed by the most
// recent synchronization pass, zero before the first one. Trust level
// computation uses it to derive confirmation counts.
func (a *Account) CurrentBlockHeight() uint64 {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()
	return a.currentHeight
}

func (a *Account) setCurrentBlockHeight(height uint64) {
	a.syncMu.Lock()
	a.currentHeight = height
	a.syncMu.Unlock()
}

// OperationQuery is a typed, filterable read over the account's ledger.
// Zero or more filters are applied, then Execute returns the matching
// operations ordered by date ascending.
type OperationQuery struct {
	account *Account
	kind    *opledger.OpKind
	from    *time.Time
	to      *time.Time
	limit   int
}

// QueryOperations returns a new query over the account's operations.
func (a *Account) QueryOperations() *OperationQuery {
	return &OperationQuery{account: a}
}

// FilterKind restricts the query to operations of the given kind.
func (q *OperationQuery) FilterKind(kind opledger.OpKind) *OperationQuery {
	q.kind = &kind
	return q
}

// FilterDateRange restricts the query to operations dated in [from, to).
func (q *OperationQuery) FilterDateRange(from, to time.Time) *OperationQuery {
	q.from = &from
	q.to = &to
	return q
}

// Limit caps the number of returned operations.
func (q *OperationQuery) Limit(n int) *OperationQuery {
	q.limit = n
	return q
}

// Execute runs the query.
func (q *OperationQuery) Execute(ctx context.Context) ([]opledger.Operation,
	error) {

	ops, err := q.account.store.Operations(ctx, q.account.uid)
	if err != nil {
		return nil, err
	}

	out := ops[:0]
	for _, op := range ops {
		if q.kind != nil && op.Kind != *q.kind {
			continue
		}
		if q.from != nil && op.Date.Before(*q.from) {
			continue
		}
		if q.to != nil && !op.Date.Before(*q.to) {
			continue
		}
		out = append(out, op)
		if q.limit > 0 && len(out) == q.limit {
			break
		}
	}
	return out, nil
}
