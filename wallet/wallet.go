// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements the client side reconciliation and transaction
// construction core of a multi-currency wallet: it interprets externally
// sourced chain transactions into a durable, idempotent operation ledger,
// keeps derived balances consistent with that ledger, and builds outgoing
// transactions validated against locally known balance and fee constraints.
package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/event"
	"github.com/ethsuite/ethwallet/opledger"
)

// Config holds the collaborators a wallet borrows but never owns: the shared
// storage handle and the shared event sink.
type Config struct {
	// UID is the wallet identifier. Generated when empty.
	UID string

	// Name is the user-facing wallet name, carried in event payloads.
	Name string

	// Currency is the name of the wallet's native currency.
	Currency string

	// DB is the shared storage handle. The ledger schema is created on it
	// if missing.
	DB *sql.DB

	// Sink receives every event the wallet's accounts emit. A private
	// bus is created when nil.
	Sink event.Sink
}

// Wallet owns the shared storage handle and event sink borrowed by each of
// its accounts.
type Wallet struct {
	uid      string
	name     string
	currency string
	store    *opledger.Store
	sink     event.Sink
}

// New opens a wallet over the given storage handle.
func New(ctx context.Context, cfg Config) (*Wallet, error) {
	if cfg.DB == nil {
		return nil, walletError(ErrInvalidArgument,
			"missing storage handle", nil)
	}

	store, err := opledger.NewStore(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}

	uid := cfg.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = event.NewBus()
	}

	return &Wallet{
		uid:      uid,
		name:     cfg.Name,
		currency: cfg.Currency,
		store:    store,
		sink:     sink,
	}, nil
}

// UID returns the wallet identifier.
func (w *Wallet) UID() string {
	return w.uid
}

// Name returns the user-facing wallet name.
func (w *Wallet) Name() string {
	return w.name
}

// Currency returns the wallet's native currency name.
func (w *Wallet) Currency() string {
	return w.currency
}

// Sink returns the wallet's event sink.
func (w *Wallet) Sink() event.Sink {
	return w.sink
}

// NewAccount creates the account at the given derivation index, restoring
// its token sub-account registry from storage. The account keeps a
// non-owning reference back to the wallet.
func (w *Wallet) NewAccount(ctx context.Context, index uint32,
	keychain Keychain, explorer chain.Explorer) (*Account, error) {

	if keychain == nil || explorer == nil {
		return nil, walletError(ErrInvalidArgument,
			"missing keychain or explorer", nil)
	}

	a := &Account{
		index:    index,
		uid:      opledger.AccountUID(w.uid, index),
		keychain: keychain,
		explorer: explorer,
		store:    w.store,
		address:  keychain.Address(),
	}
	a.walletRef.Store(w)

	rows, err := w.store.TokenAccounts(ctx, a.uid)
	if err != nil {
		return nil, fmt.Errorf("failed to restore token accounts: %w",
			err)
	}
	a.restoreERC20Accounts(rows)

	return a, nil
}
