// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package opledger implements a durable, idempotent operation ledger on top
// of a database/sql store. Operations are keyed by a deterministic uid so
// that replaying the same external chain data never grows the ledger.
package opledger

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OpKind classifies an operation relative to the watched address.
type OpKind int

const (
	// KindNone marks an operation whose parent transaction neither sends
	// from nor receives to the watched address, kept only as a carrier
	// for token or internal sub-operations.
	KindNone OpKind = iota

	// KindSend marks an operation debiting the watched address.
	KindSend

	// KindReceive marks an operation crediting the watched address.
	KindReceive
)

// String returns the OpKind as a human-readable string.
func (k OpKind) String() string {
	switch k {
	case KindSend:
		return "SEND"
	case KindReceive:
		return "RECEIVE"
	default:
		return "NONE"
	}
}

// ParseOpKind converts a stored kind string back to its OpKind.
func ParseOpKind(s string) OpKind {
	switch s {
	case "SEND":
		return KindSend
	case "RECEIVE":
		return KindReceive
	default:
		return KindNone
	}
}

// TrustLevel is the confidence attributed to an operation.
type TrustLevel int

const (
	// TrustPending marks an operation seen but not yet confirmed.
	TrustPending TrustLevel = iota

	// TrustConfirmed marks an operation mined into the best chain.
	TrustConfirmed

	// TrustDropped marks an operation whose transaction left the mempool
	// without ever confirming.
	TrustDropped
)

// BlockRef identifies the block an operation was confirmed in. It is nil on
// an operation while the transaction is unconfirmed.
type BlockRef struct {
	Hash   common.Hash
	Height uint64
	Time   time.Time
}

// TokenOperation is one entry of a token sub-account's mini ledger, derived
// from a single transfer event of the parent operation's transaction.
type TokenOperation struct {
	UID        string
	ParentUID  string
	AccountUID string // owning token sub-account uid
	Contract   common.Address
	Sender     common.Address
	Receiver   common.Address
	Value      *big.Int
	Kind       OpKind
	Date       time.Time
}

// TokenAccountRow is the persisted descriptor of a token sub-account.
type TokenAccountRow struct {
	UID        string
	AccountUID string // owning parent account uid
	Contract   common.Address
	Address    common.Address
	TokenName  string
	TokenSym   string
	TokenDec   int
}

// TokenAttachment is the attached data bag of an operation that generated
// token sub-operations. A nil attachment means the operation carries none.
type TokenAttachment struct {
	// Accounts holds the descriptors of sub-accounts created while
	// interpreting the parent transaction, pending persistence.
	Accounts []TokenAccountRow

	// Ops holds the sub-operations generated from the parent transaction.
	Ops []TokenOperation
}

// InternalOperation attributes value moved by an internal call of the parent
// transaction to the watched address. Fees are always zero here, they are
// paid by the parent operation.
type InternalOperation struct {
	Kind     OpKind
	Value    *big.Int
	Sender   common.Address
	Receiver common.Address
	GasUsed  *big.Int
	Date     time.Time
	Failed   bool
}

// Operation is one canonical ledger entry: a value movement attributable to
// a watched account. Operations are immutable once stored, except for block
// and trust updates applied by re-synchronization upserts.
type Operation struct {
	UID        string
	AccountUID string
	WalletUID  string
	Kind       OpKind

	// Amount is zero when the transaction is confirmed and its execution
	// failed; fees are still recorded in that case.
	Amount *big.Int
	Fees   *big.Int

	Senders    []string
	Recipients []string
	Date       time.Time
	Block      *BlockRef
	Currency   string
	Trust      TrustLevel

	TxHash   common.Hash
	TxFailed bool

	// Attachment is nil unless the parent transaction generated token
	// sub-operations.
	Attachment *TokenAttachment

	// Internal holds the internal-call value movements attributed to the
	// account, persisted alongside the operation.
	Internal []InternalOperation
}

// Confirmed reports whether the operation has a confirming block.
func (o *Operation) Confirmed() bool {
	return o.Block != nil
}
