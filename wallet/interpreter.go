// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"math/big"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/opledger"
)

// interpretTransaction maps one external chain transaction to zero or more
// ledger operations for this account. It is deterministic and performs no
// I/O: the same transaction always yields the same operations, with the
// same uids.
//
// A transaction from the watched address yields a SEND operation; one to the
// watched address yields a RECEIVE. A self-transfer yields both. A
// transaction doing neither but carrying token transfer or internal call
// side effects touching the watched address yields a single NONE operation
// as a carrier for those sub-operations. Only the first emitted operation
// carries the attachment, so sub-operations are never persisted twice.
func (a *Account) interpretTransaction(
	tx *chain.Transaction) ([]opledger.Operation, error) {

	w, err := a.wallet()
	if err != nil {
		return nil, err
	}

	base := a.inflateOperation(w, tx)

	var out []opledger.Operation
	emit := func(kind opledger.OpKind) error {
		op := base
		op.Kind = kind
		op.UID = opledger.OperationUID(a.uid, tx.Hash, kind)

		// A failed execution moved no value once confirmed, yet the
		// fees were still paid.
		if tx.Status == chain.TxStatusFailed && tx.Confirmed() {
			op.Amount = new(big.Int)
		} else {
			op.Amount = new(big.Int).Set(tx.Value)
		}

		if len(out) == 0 {
			op.Attachment = &opledger.TokenAttachment{}
			op.Internal = a.classifyInternalTxs(tx)
			if err := a.updateERC20Accounts(&op, tx); err != nil {
				return err
			}
		}
		out = append(out, op)
		return nil
	}

	if tx.Sender == a.address {
		if err := emit(opledger.KindSend); err != nil {
			return nil, err
		}
	}
	if tx.Receiver == a.address {
		if err := emit(opledger.KindReceive); err != nil {
			return nil, err
		}
	}

	// Parent transaction not belonging to the account, but having side
	// effects (transfer events or internal calls) concerning the watched
	// address.
	if len(out) == 0 &&
		(len(tx.ERC20Transfers) > 0 || len(tx.InternalTxs) > 0) {

		if err := emit(opledger.KindNone); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// inflateOperation builds the operation skeleton shared by every operation
// emitted for tx: dates, fees, block, trust and addressing fields.
func (a *Account) inflateOperation(w *Wallet,
	tx *chain.Transaction) opledger.Operation {

	op := opledger.Operation{
		AccountUID: a.uid,
		WalletUID:  w.uid,
		Currency:   w.currency,
		Date:       tx.ReceivedAt,
		Senders:    []string{tx.Sender.Hex()},
		Recipients: []string{tx.Receiver.Hex()},
		Fees:       transactionFee(tx),
		TxHash:     tx.Hash,
		TxFailed:   tx.Status == chain.TxStatusFailed,
		Trust:      opledger.TrustPending,
	}
	if tx.Block != nil {
		op.Block = &opledger.BlockRef{
			Hash:   tx.Block.Hash,
			Height: tx.Block.Height,
			Time:   tx.Block.Time,
		}
		op.Trust = opledger.TrustConfirmed
	}
	return op
}

// transactionFee is price times consumed units, zero while the consumed
// units are unknown (unconfirmed transaction).
func transactionFee(tx *chain.Transaction) *big.Int {
	if tx.GasUsed == nil || tx.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(tx.GasPrice, tx.GasUsed)
}

// classifyInternalTxs classifies each internal call of tx relative to the
// watched address. All rows are recorded; queries skip the NONE ones.
func (a *Account) classifyInternalTxs(
	tx *chain.Transaction) []opledger.InternalOperation {

	var iops []opledger.InternalOperation
	for _, itx := range tx.InternalTxs {
		kind := opledger.KindNone
		switch a.address {
		case itx.From:
			kind = opledger.KindSend
		case itx.To:
			kind = opledger.KindReceive
		}
		iops = append(iops, opledger.InternalOperation{
			Kind:     kind,
			Value:    new(big.Int).Set(itx.Value),
			Sender:   itx.From,
			Receiver: itx.To,
			GasUsed:  itx.GasUsed,
			Date:     tx.ReceivedAt,
			Failed:   tx.Status == chain.TxStatusFailed,
		})
	}
	return iops
}

// updateERC20Accounts classifies every token transfer of tx relative to the
// watched address and applies it to the matching token sub-account. A
// transfer whose destination is the watched address is applied a second
// time with kind forced to RECEIVE when its classified kind differs,
// covering transactions where the account is NONE at the base level but a
// RECEIVE at the token level.
func (a *Account) updateERC20Accounts(op *opledger.Operation,
	tx *chain.Transaction) error {

	// No filtering needed: transfer events sent by the explorer are only
	// the ones concerning the watched address.
	for _, transfer := range tx.ERC20Transfers {
		kind := opledger.KindNone
		switch a.address {
		case transfer.From:
			kind = opledger.KindSend
		case transfer.To:
			kind = opledger.KindReceive
		}

		err := a.applyTokenTransfer(op, transfer, kind)
		if err != nil {
			return err
		}

		if transfer.To == a.address && kind != opledger.KindReceive {
			err := a.applyTokenTransfer(op, transfer,
				opledger.KindReceive)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
