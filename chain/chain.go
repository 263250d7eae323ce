// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Block contains the minimum amount of data to uniquely identify any block on
// either the best or a side chain, plus the header time used for balance
// history bucketing.
type Block struct {
	Hash   common.Hash
	Height uint64
	Time   time.Time
}

// TxStatus is the execution status reported by the chain for a mined
// transaction.
type TxStatus uint64

const (
	// TxStatusFailed indicates the transaction was mined but its execution
	// reverted. Fees are charged regardless.
	TxStatusFailed TxStatus = 0

	// TxStatusSuccess indicates the transaction executed successfully.
	// Unconfirmed transactions are reported with this status until a block
	// says otherwise.
	TxStatusSuccess TxStatus = 1
)

// ERC20Transfer is one token transfer event logged by a transaction. The
// explorer pre-filters these to the ones touching the watched address, so no
// additional filtering is required by consumers.
type ERC20Transfer struct {
	From     common.Address
	To       common.Address
	Contract common.Address
	Value    *big.Int
}

// InternalTransaction is an internal call executed by a transaction that
// moves value to or from an address without that address being the top level
// sender or receiver.
type InternalTransaction struct {
	From    common.Address
	To      common.Address
	Value   *big.Int
	GasUsed *big.Int
}

// Transaction is one chain transaction as reported by an explorer backend.
// It is the sole input of transaction interpretation.
type Transaction struct {
	Hash       common.Hash
	Sender     common.Address
	Receiver   common.Address
	Value      *big.Int
	GasPrice   *big.Int
	GasLimit   *big.Int
	Nonce      uint64
	InputData  []byte
	Status     TxStatus
	ReceivedAt time.Time

	// GasUsed is nil while the transaction is unconfirmed.
	GasUsed *big.Int

	// Block is nil while the transaction is unconfirmed.
	Block *Block

	ERC20Transfers []ERC20Transfer
	InternalTxs    []InternalTransaction
}

// Confirmed reports whether the transaction has been mined into a block.
func (t *Transaction) Confirmed() bool {
	return t.Block != nil
}

// CallRequest describes a contract call for dry-run gas estimation.
type CallRequest struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int
}
