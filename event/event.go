// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package event defines the notification types emitted by the wallet engine
// and a small sticky bus used to deliver them. The bus replays every event
// already posted to late subscribers, so a caller joining an in-flight
// synchronization still observes its terminal event.
package event

// Code identifies a kind of event.
type Code int

const (
	// SyncStarted is posted when a synchronization pass launches.
	SyncStarted Code = iota

	// SyncSucceeded is the terminal event of a successful pass. Payload
	// keys: EVSyncDurationMS, EVSyncLastBlockHeight, EVSyncNewOperations
	// and, when a reorganization was handled, EVSyncReorgBlockHeight.
	SyncSucceeded

	// SyncFailed is the terminal event of a failed pass. Payload keys:
	// EVSyncDurationMS, EVSyncErrorCode, EVSyncErrorCodeInt,
	// EVSyncErrorMessage.
	SyncFailed

	// NewOperations is posted once per committed ledger batch, carrying
	// the uids of the newly inserted operations.
	NewOperations

	// UpdateERC20Operations is posted once per flush of the coalesced
	// token operation buffer.
	UpdateERC20Operations

	// NewBlock is posted when a block is persisted for the first time.
	NewBlock
)

// String returns the Code as a human-readable string.
func (c Code) String() string {
	switch c {
	case SyncStarted:
		return "SyncStarted"
	case SyncSucceeded:
		return "SyncSucceeded"
	case SyncFailed:
		return "SyncFailed"
	case NewOperations:
		return "NewOperations"
	case UpdateERC20Operations:
		return "UpdateERC20Operations"
	case NewBlock:
		return "NewBlock"
	}
	return "Unknown"
}

// Well-known payload keys.
const (
	EVSyncDurationMS       = "EV_SYNC_DURATION_MS"
	EVSyncLastBlockHeight  = "EV_SYNC_LAST_BLOCK_HEIGHT"
	EVSyncNewOperations    = "EV_SYNC_NEW_OPERATIONS"
	EVSyncReorgBlockHeight = "EV_SYNC_REORG_BLOCK_HEIGHT"
	EVSyncErrorCode        = "EV_SYNC_ERROR_CODE"
	EVSyncErrorCodeInt     = "EV_SYNC_ERROR_CODE_INT"
	EVSyncErrorMessage     = "EV_SYNC_ERROR_MESSAGE"
	EVNewOpUID             = "EV_NEW_OP_UID"
	EVNewOpERC20AccountUID = "EV_NEW_OP_ERC20_ACCOUNT_UID"
	EVNewOpWalletName      = "EV_NEW_OP_WALLET_NAME"
	EVNewOpAccountIndex    = "EV_NEW_OP_ACCOUNT_INDEX"
	EVNewBlockHash         = "EV_NEW_BLOCK_HASH"
	EVNewBlockHeight       = "EV_NEW_BLOCK_HEIGHT"
)

// Event is one notification: a code plus a flat payload bag.
type Event struct {
	Code    Code
	Payload *Payload
}

// New returns an event with an empty payload.
func New(code Code) Event {
	return Event{Code: code, Payload: NewPayload()}
}

// Sink consumes events. The wallet engine only ever calls Publish; delivery
// fan-out is the sink implementation's concern.
type Sink interface {
	Publish(e Event)
}
