// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package opledger

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// schema is kept to the common subset of SQLite and Postgres SQL. Amounts
// are stored as decimal strings to preserve arbitrary precision; dates are
// stored as unix seconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS operations (
		uid TEXT PRIMARY KEY,
		account_uid TEXT NOT NULL,
		wallet_uid TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		fees TEXT NOT NULL,
		senders TEXT NOT NULL,
		recipients TEXT NOT NULL,
		date BIGINT NOT NULL,
		block_hash TEXT,
		block_height BIGINT,
		block_time BIGINT,
		currency TEXT NOT NULL,
		trust INTEGER NOT NULL,
		tx_hash TEXT NOT NULL,
		tx_failed INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS operations_account_date_idx
		ON operations (account_uid, date)`,
	`CREATE TABLE IF NOT EXISTS erc20_accounts (
		uid TEXT PRIMARY KEY,
		account_uid TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		address TEXT NOT NULL,
		token_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS erc20_operations (
		uid TEXT PRIMARY KEY,
		parent_uid TEXT NOT NULL,
		erc20_account_uid TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		value TEXT NOT NULL,
		kind TEXT NOT NULL,
		date BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS erc20_operations_account_idx
		ON erc20_operations (erc20_account_uid)`,
	`CREATE TABLE IF NOT EXISTS internal_operations (
		parent_uid TEXT NOT NULL,
		account_uid TEXT NOT NULL,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		gas_used TEXT,
		date BIGINT NOT NULL,
		tx_failed INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS internal_operations_parent_idx
		ON internal_operations (parent_uid)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		hash TEXT PRIMARY KEY,
		height BIGINT NOT NULL,
		time BIGINT NOT NULL
	)`,
}

// Store is the durable operation ledger. All methods are safe for concurrent
// use; mutating methods run inside a single database transaction so readers
// observe either the full pre-write or full post-write state.
type Store struct {
	db *sql.DB
}

// NewStore opens a ledger store over db, creating the schema if needed.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, storeError(ErrDatabase,
				"failed to create ledger schema", err)
		}
	}
	return &Store{db: db}, nil
}

// InsertResult describes the outcome of one committed bulk insert.
type InsertResult struct {
	// NewUIDs holds the uids of operations that did not exist before this
	// batch, in batch order. Replayed operations are upserted in place
	// and do not appear here.
	NewUIDs []string

	// NewTokenOps maps a token sub-account uid to the uids of its newly
	// inserted sub-operations.
	NewTokenOps map[string][]string
}

// Count returns the number of newly inserted operations.
func (r *InsertResult) Count() int {
	return len(r.NewUIDs)
}

const opUpsert = `INSERT INTO operations (uid, account_uid, wallet_uid, kind,
	amount, fees, senders, recipients, date, block_hash, block_height,
	block_time, currency, trust, tx_hash, tx_failed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	$15, $16)
	ON CONFLICT (uid) DO UPDATE SET
	amount = excluded.amount, fees = excluded.fees,
	block_hash = excluded.block_hash, block_height = excluded.block_height,
	block_time = excluded.block_time, trust = excluded.trust,
	tx_failed = excluded.tx_failed`

const tokenOpUpsert = `INSERT INTO erc20_operations (uid, parent_uid,
	erc20_account_uid, contract_address, sender, receiver, value, kind,
	date) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (uid) DO UPDATE SET value = excluded.value,
	date = excluded.date`

const tokenAccountUpsert = `INSERT INTO erc20_accounts (uid, account_uid,
	contract_address, address, token_name, token_symbol, token_decimals)
	VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (uid) DO NOTHING`

const internalOpInsert = `INSERT INTO internal_operations (parent_uid,
	account_uid, kind, value, sender, receiver, gas_used, date, tx_failed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// BulkInsert writes the given operations, their token sub-operations, newly
// discovered token sub-accounts and internal operations in one atomic
// database transaction. Operations whose uid already exists are upserted
// (block, trust and amount fields refreshed) rather than duplicated, so the
// same external data can be replayed safely. Either every row is written or
// none are.
func (s *Store) BulkInsert(ctx context.Context,
	ops []Operation) (*InsertResult, error) {

	result := &InsertResult{NewTokenOps: make(map[string][]string)}
	if len(ops) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(ErrDatabase, "failed to begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range ops {
		op := &ops[i]
		if op.UID == "" {
			return nil, storeError(ErrData,
				"operation without uid", nil)
		}
		isNew, err := s.missing(ctx, tx,
			"SELECT 1 FROM operations WHERE uid = $1", op.UID)
		if err != nil {
			return nil, err
		}

		if err := execOpUpsert(ctx, tx, op); err != nil {
			return nil, err
		}
		if isNew {
			result.NewUIDs = append(result.NewUIDs, op.UID)
		}

		// Internal operations have no uid of their own; they live and
		// die with their parent. Re-inserting them on a replayed
		// parent would duplicate rows, so only write them for new
		// parents.
		if isNew {
			for _, iop := range op.Internal {
				_, err := tx.ExecContext(ctx, internalOpInsert,
					op.UID, op.AccountUID,
					iop.Kind.String(), bigStr(iop.Value),
					iop.Sender.Hex(), iop.Receiver.Hex(),
					bigStr(iop.GasUsed), iop.Date.Unix(),
					boolInt(iop.Failed))
				if err != nil {
					return nil, storeError(ErrDatabase,
						"failed to insert internal operation",
						err)
				}
			}
		}

		if op.Attachment == nil {
			continue
		}
		for _, acct := range op.Attachment.Accounts {
			_, err := tx.ExecContext(ctx, tokenAccountUpsert,
				acct.UID, acct.AccountUID,
				acct.Contract.Hex(), acct.Address.Hex(),
				acct.TokenName, acct.TokenSym, acct.TokenDec)
			if err != nil {
				return nil, storeError(ErrDatabase,
					"failed to insert token account", err)
			}
		}
		for _, top := range op.Attachment.Ops {
			isNewTok, err := s.missing(ctx, tx,
				"SELECT 1 FROM erc20_operations WHERE uid = $1",
				top.UID)
			if err != nil {
				return nil, err
			}
			_, err = tx.ExecContext(ctx, tokenOpUpsert, top.UID,
				top.ParentUID, top.AccountUID,
				top.Contract.Hex(), top.Sender.Hex(),
				top.Receiver.Hex(), bigStr(top.Value),
				top.Kind.String(), top.Date.Unix())
			if err != nil {
				return nil, storeError(ErrDatabase,
					"failed to insert token operation", err)
			}
			if isNewTok {
				result.NewTokenOps[top.AccountUID] = append(
					result.NewTokenOps[top.AccountUID],
					top.UID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(ErrDatabase, "failed to commit tx", err)
	}

	log.Debugf("Committed ledger batch: %d operations, %d new",
		len(ops), result.Count())

	return result, nil
}

func execOpUpsert(ctx context.Context, tx *sql.Tx, op *Operation) error {
	var blockHash, blockHeight, blockTime interface{}
	if op.Block != nil {
		blockHash = op.Block.Hash.Hex()
		blockHeight = int64(op.Block.Height)
		blockTime = op.Block.Time.Unix()
	}

	_, err := tx.ExecContext(ctx, opUpsert, op.UID, op.AccountUID,
		op.WalletUID, op.Kind.String(), bigStr(op.Amount),
		bigStr(op.Fees), joinAddrs(op.Senders), joinAddrs(op.Recipients),
		op.Date.Unix(), blockHash, blockHeight, blockTime, op.Currency,
		int(op.Trust), op.TxHash.Hex(), boolInt(op.TxFailed))
	if err != nil {
		return storeError(ErrDatabase, "failed to upsert operation", err)
	}
	return nil
}

// missing reports whether the given single-parameter existence query matched
// no row inside tx.
func (s *Store) missing(ctx context.Context, tx *sql.Tx, query string,
	arg string) (bool, error) {

	var one int
	err := tx.QueryRowContext(ctx, query, arg).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return true, nil
	case err != nil:
		return false, storeError(ErrDatabase,
			"failed existence check", err)
	}
	return false, nil
}

// PutBlock persists a chain block, returning true the first time the block
// hash is seen and false on replays.
func (s *Store) PutBlock(ctx context.Context, block BlockRef) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO blocks (hash, height, time) VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING`,
		block.Hash.Hex(), int64(block.Height), block.Time.Unix())
	if err != nil {
		return false, storeError(ErrDatabase,
			"failed to insert block", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeError(ErrDatabase,
			"failed to read rows affected", err)
	}
	return n > 0, nil
}

// EraseSince deletes every operation of the account dated at or after since,
// along with its token sub-operations and internal operations, in one atomic
// transaction. Used to roll back local state after a chain reorganization.
func (s *Store) EraseSince(ctx context.Context, accountUID string,
	since time.Time) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(ErrDatabase, "failed to begin tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	cutoff := since.Unix()
	stmts := []string{
		`DELETE FROM erc20_operations WHERE parent_uid IN
			(SELECT uid FROM operations
			WHERE account_uid = $1 AND date >= $2)`,
		`DELETE FROM internal_operations WHERE parent_uid IN
			(SELECT uid FROM operations
			WHERE account_uid = $1 AND date >= $2)`,
		`DELETE FROM operations WHERE account_uid = $1 AND date >= $2`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, accountUID,
			cutoff); err != nil {

			return storeError(ErrDatabase,
				"failed to erase ledger rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(ErrDatabase, "failed to commit erase", err)
	}

	log.Infof("Erased ledger data of account %s since %v", accountUID,
		since)

	return nil
}

func bigStr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, storeError(ErrData,
			fmt.Sprintf("malformed stored amount %q", s), nil)
	}
	return v, nil
}

func joinAddrs(addrs []string) string {
	return strings.Join(addrs, "\n")
}

func splitAddrs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func addr(s string) common.Address {
	return common.HexToAddress(s)
}
