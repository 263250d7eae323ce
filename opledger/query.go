// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package opledger

import (
	"context"
	"database/sql"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const opColumns = `uid, account_uid, wallet_uid, kind, amount, fees, senders,
	recipients, date, block_hash, block_height, block_time, currency,
	trust, tx_hash, tx_failed`

func scanOperation(rows *sql.Rows) (Operation, error) {
	var (
		op           Operation
		kind         string
		amount, fees string
		senders      string
		recipients   string
		date         int64
		blockHash    sql.NullString
		blockHeight  sql.NullInt64
		blockTime    sql.NullInt64
		txHash       string
		trust        int
		txFailed     int
	)
	err := rows.Scan(&op.UID, &op.AccountUID, &op.WalletUID, &kind, &amount,
		&fees, &senders, &recipients, &date, &blockHash, &blockHeight,
		&blockTime, &op.Currency, &trust, &txHash, &txFailed)
	if err != nil {
		return op, storeError(ErrDatabase,
			"failed to scan operation row", err)
	}

	op.Kind = ParseOpKind(kind)
	if op.Amount, err = parseBig(amount); err != nil {
		return op, err
	}
	if op.Fees, err = parseBig(fees); err != nil {
		return op, err
	}
	op.Senders = splitAddrs(senders)
	op.Recipients = splitAddrs(recipients)
	op.Date = time.Unix(date, 0).UTC()
	if blockHash.Valid {
		op.Block = &BlockRef{
			Hash:   common.HexToHash(blockHash.String),
			Height: uint64(blockHeight.Int64),
			Time:   time.Unix(blockTime.Int64, 0).UTC(),
		}
	}
	op.Trust = TrustLevel(trust)
	op.TxHash = common.HexToHash(txHash)
	op.TxFailed = txFailed != 0

	return op, nil
}

func (s *Store) queryOperations(ctx context.Context, query string,
	args ...interface{}) ([]Operation, error) {

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(ErrDatabase,
			"failed to query operations", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(ErrDatabase,
			"failed to iterate operations", err)
	}
	return ops, nil
}

// Operations returns every operation of the account ordered by date
// ascending. Ties are broken by uid so the order is stable across calls.
func (s *Store) Operations(ctx context.Context,
	accountUID string) ([]Operation, error) {

	return s.queryOperations(ctx, `SELECT `+opColumns+` FROM operations
		WHERE account_uid = $1 ORDER BY date ASC, uid ASC`, accountUID)
}

// OperationsByTxHash returns the operations of the account generated by the
// given chain transaction. A self-transfer yields two. Returns a LedgerError
// with code ErrTxHashNotFound when the hash is unknown to the ledger.
func (s *Store) OperationsByTxHash(ctx context.Context, accountUID string,
	txHash common.Hash) ([]Operation, error) {

	ops, err := s.queryOperations(ctx, `SELECT `+opColumns+` FROM operations
		WHERE account_uid = $1 AND tx_hash = $2
		ORDER BY date ASC, uid ASC`, accountUID, txHash.Hex())
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, storeError(ErrTxHashNotFound,
			"transaction "+txHash.Hex()+" not found", nil)
	}
	return ops, nil
}

// TokenOperations returns the sub-operations of one token sub-account
// ordered by date ascending.
func (s *Store) TokenOperations(ctx context.Context,
	tokenAccountUID string) ([]TokenOperation, error) {

	rows, err := s.db.QueryContext(ctx, `SELECT uid, parent_uid,
		erc20_account_uid, contract_address, sender, receiver, value,
		kind, date FROM erc20_operations WHERE erc20_account_uid = $1
		ORDER BY date ASC, uid ASC`, tokenAccountUID)
	if err != nil {
		return nil, storeError(ErrDatabase,
			"failed to query token operations", err)
	}
	defer rows.Close()

	var tops []TokenOperation
	for rows.Next() {
		var (
			top                        TokenOperation
			contract, sender, receiver string
			value, kind                string
			date                       int64
		)
		err := rows.Scan(&top.UID, &top.ParentUID, &top.AccountUID,
			&contract, &sender, &receiver, &value, &kind, &date)
		if err != nil {
			return nil, storeError(ErrDatabase,
				"failed to scan token operation row", err)
		}
		top.Contract = addr(contract)
		top.Sender = addr(sender)
		top.Receiver = addr(receiver)
		if top.Value, err = parseBig(value); err != nil {
			return nil, err
		}
		top.Kind = ParseOpKind(kind)
		top.Date = time.Unix(date, 0).UTC()
		tops = append(tops, top)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(ErrDatabase,
			"failed to iterate token operations", err)
	}
	return tops, nil
}

// TokenAccounts returns the persisted token sub-account descriptors of the
// account, used to rebuild the in-memory registry at account load.
func (s *Store) TokenAccounts(ctx context.Context,
	accountUID string) ([]TokenAccountRow, error) {

	rows, err := s.db.QueryContext(ctx, `SELECT uid, account_uid,
		contract_address, address, token_name, token_symbol,
		token_decimals FROM erc20_accounts WHERE account_uid = $1
		ORDER BY uid ASC`, accountUID)
	if err != nil {
		return nil, storeError(ErrDatabase,
			"failed to query token accounts", err)
	}
	defer rows.Close()

	var accts []TokenAccountRow
	for rows.Next() {
		var (
			row               TokenAccountRow
			contract, address string
		)
		err := rows.Scan(&row.UID, &row.AccountUID, &contract, &address,
			&row.TokenName, &row.TokenSym, &row.TokenDec)
		if err != nil {
			return nil, storeError(ErrDatabase,
				"failed to scan token account row", err)
		}
		row.Contract = addr(contract)
		row.Address = addr(address)
		accts = append(accts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(ErrDatabase,
			"failed to iterate token accounts", err)
	}
	return accts, nil
}

// InternalOperations returns the internal-call value movements of the
// account touching addr, shaped as operations for balance history purposes:
// fees zero (paid by the parent), amount zero when the parent transaction
// failed, KindNone rows skipped.
func (s *Store) InternalOperations(ctx context.Context, accountUID string,
	address common.Address) ([]Operation, error) {

	rows, err := s.db.QueryContext(ctx, `SELECT kind, value, sender,
		receiver, date, tx_failed FROM internal_operations
		WHERE account_uid = $1 AND (sender = $2 OR receiver = $2)
		ORDER BY date ASC`, accountUID, address.Hex())
	if err != nil {
		return nil, storeError(ErrDatabase,
			"failed to query internal operations", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var (
			kind, value      string
			sender, receiver string
			date             int64
			txFailed         int
		)
		err := rows.Scan(&kind, &value, &sender, &receiver, &date,
			&txFailed)
		if err != nil {
			return nil, storeError(ErrDatabase,
				"failed to scan internal operation row", err)
		}

		op := Operation{
			AccountUID: accountUID,
			Kind:       ParseOpKind(kind),
			Fees:       new(big.Int),
			Senders:    []string{sender},
			Recipients: []string{receiver},
			Date:       time.Unix(date, 0).UTC(),
			TxFailed:   txFailed != 0,
		}
		if op.Kind == KindNone {
			continue
		}

		// The value was not really moved when the parent transaction
		// failed, only its fees were paid.
		if op.TxFailed {
			op.Amount = new(big.Int)
		} else if op.Amount, err = parseBig(value); err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(ErrDatabase,
			"failed to iterate internal operations", err)
	}
	return ops, nil
}

// LastConfirmedBlock returns the highest block referenced by the account's
// confirmed operations, or nil when the account has none.
func (s *Store) LastConfirmedBlock(ctx context.Context,
	accountUID string) (*BlockRef, error) {

	row := s.db.QueryRowContext(ctx, `SELECT block_hash, block_height,
		block_time FROM operations WHERE account_uid = $1
		AND block_hash IS NOT NULL
		ORDER BY block_height DESC LIMIT 1`, accountUID)

	var (
		hash           string
		height, time64 int64
	)
	err := row.Scan(&hash, &height, &time64)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, storeError(ErrDatabase,
			"failed to query last confirmed block", err)
	}

	return &BlockRef{
		Hash:   common.HexToHash(hash),
		Height: uint64(height),
		Time:   time.Unix(time64, 0).UTC(),
	}, nil
}
