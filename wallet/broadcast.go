// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ethsuite/ethwallet/chain"
)

// erc20TransferSelector is the 4-byte method id of the canonical ERC20
// transfer(address,uint256) call, the only token call recognized when
// parsing a locally built payload.
var erc20TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// erc20TransferDataLen is selector + 32-byte address word + 32-byte value
// word.
const erc20TransferDataLen = 68

// BroadcastRawTransaction pushes raw signed transaction bytes to the
// network and, on success, applies an optimistic local update: the raw
// bytes are parsed back into a provisional unconfirmed transaction and fed
// through the regular interpret-and-persist path, making the new operation
// visible immediately without waiting for confirmation. The local update is
// best effort; its failure is logged, never surfaced, because the network
// broadcast already succeeded and must not be rolled back.
func (a *Account) BroadcastRawTransaction(ctx context.Context,
	raw []byte) (common.Hash, error) {

	txHash, err := a.explorer.PushTransaction(ctx, raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf(
			"failed to push transaction: %w", err)
	}

	if err := a.applyOptimisticUpdate(ctx, txHash, raw); err != nil {
		log.Errorf("Optimistic update of tx %s failed: %v",
			txHash.Hex(), err)
	}

	return txHash, nil
}

// BroadcastTransaction serializes and broadcasts a signed transaction.
func (a *Account) BroadcastTransaction(ctx context.Context,
	tx *types.Transaction) (common.Hash, error) {

	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf(
			"failed to serialize transaction: %w", err)
	}
	return a.BroadcastRawTransaction(ctx, raw)
}

// applyOptimisticUpdate runs the just-broadcast transaction through the
// same interpret-and-persist path a synchronization pass would.
func (a *Account) applyOptimisticUpdate(ctx context.Context,
	txHash common.Hash, raw []byte) error {

	tx, err := a.optimisticTransaction(txHash, raw)
	if err != nil {
		return err
	}
	ops, err := a.interpretTransaction(tx)
	if err != nil {
		return err
	}
	if _, err := a.bulkInsert(ctx, ops); err != nil {
		return err
	}
	a.EmitEventsNow()
	return nil
}

// optimisticTransaction synthesizes a provisional chain transaction from
// raw signed bytes: the sender is the keychain address, nonce, fees and
// value come from the parsed payload, the status is optimistically
// successful and there is no block yet. The actual status and gas used are
// corrected by the next synchronization pass.
func (a *Account) optimisticTransaction(txHash common.Hash,
	raw []byte) (*chain.Transaction, error) {

	var parsed types.Transaction
	if err := parsed.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to parse raw tx: %w", err)
	}
	if parsed.To() == nil {
		return nil, walletError(ErrInvalidArgument,
			"contract creation transactions are not supported",
			nil)
	}

	sender := a.address
	tx := &chain.Transaction{
		Hash:       txHash,
		Sender:     sender,
		Receiver:   *parsed.To(),
		Value:      parsed.Value(),
		GasPrice:   parsed.GasPrice(),
		GasLimit:   new(big.Int).SetUint64(parsed.Gas()),
		Nonce:      parsed.Nonce(),
		InputData:  parsed.Data(),
		Status:     chain.TxStatusSuccess,
		ReceivedAt: time.Now().UTC(),
	}

	// A recognized token transfer call becomes a provisional transfer
	// event against the called contract.
	if to, value, ok := parseTransferCall(parsed.Data()); ok {
		tx.ERC20Transfers = []chain.ERC20Transfer{{
			From:     sender,
			To:       to,
			Contract: *parsed.To(),
			Value:    value,
		}}
	}

	return tx, nil
}

// parseTransferCall decodes a canonical ERC20 transfer(address,uint256)
// payload. Payloads of any other shape yield no transfer.
func parseTransferCall(data []byte) (common.Address, *big.Int, bool) {
	if len(data) != erc20TransferDataLen ||
		!bytes.Equal(data[:4], erc20TransferSelector) {

		return common.Address{}, nil, false
	}

	// The recipient is the last 20 bytes of the first argument word.
	to := common.BytesToAddress(data[4:36])
	value := new(big.Int).SetBytes(data[36:68])
	return to, value, true
}
